// Package engine owns the canonical Game aggregate: lifecycle,
// roster, IT assignment and the append-only tag ledger. A Machine is
// not safe for concurrent use; Session serializes access to it.
package engine

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/streettag/api/internal/geo"
	"github.com/streettag/api/internal/rules"
	"github.com/streettag/api/internal/stats"
	"github.com/streettag/api/internal/streettag"
)

// User identifies a participant outside any game. Identity itself is
// an external collaborator; the engine only carries these fields.
type User struct {
	ID        string
	Name      string
	AvatarURL string
}

// Limits bound what game settings a host may choose. They come from
// server configuration, not from the host.
type Limits struct {
	MinPlayers         int
	MaxPlayersCap      int
	MinTagRadiusMeters float64
	MaxTagRadiusMeters float64
	DefaultMaxSpeedKmh float64
}

func DefaultLimits() Limits {
	return Limits{
		MinPlayers:         2,
		MaxPlayersCap:      32,
		MinTagRadiusMeters: 1,
		MaxTagRadiusMeters: 500,
		DefaultMaxSpeedKmh: 50,
	}
}

// Machine applies game transitions. All mutation of a Game goes
// through exactly one Machine; readers only ever see Snapshot copies.
type Machine struct {
	game   *streettag.Game
	limits Limits

	// pick selects the initial IT index; swapped out in tests.
	pick func(n int) int
}

// NewMachine creates a waiting game with the host as its only player.
func NewMachine(host User, settings streettag.GameSettings, limits Limits, now time.Time) (*Machine, error) {
	if err := validateSettings(settings, limits); err != nil {
		return nil, err
	}
	game := &streettag.Game{
		ID:        uuid.NewString(),
		JoinCode:  newJoinCode(),
		HostID:    host.ID,
		Status:    streettag.GameStatusWaiting,
		Settings:  settings,
		CreatedAt: now,
		Players: []*streettag.Player{{
			ID:        host.ID,
			Name:      host.Name,
			AvatarURL: host.AvatarURL,
			JoinedAt:  now,
		}},
	}
	return &Machine{game: game, limits: limits, pick: rand.Intn}, nil
}

// Restore wraps an existing game (e.g. replayed from history) in a
// machine. Used by the reconciliation layer to rebuild views.
func Restore(game *streettag.Game, limits Limits) *Machine {
	return &Machine{game: game, limits: limits, pick: rand.Intn}
}

func validateSettings(s streettag.GameSettings, l Limits) error {
	if s.TagRadiusMeters < l.MinTagRadiusMeters || s.TagRadiusMeters > l.MaxTagRadiusMeters {
		return streettag.E(streettag.CodeInvalidSettings,
			fmt.Sprintf("tag radius must be between %g and %g meters", l.MinTagRadiusMeters, l.MaxTagRadiusMeters))
	}
	if s.MaxPlayers < l.MinPlayers || s.MaxPlayers > l.MaxPlayersCap {
		return streettag.E(streettag.CodeInvalidSettings,
			fmt.Sprintf("max players must be between %d and %d", l.MinPlayers, l.MaxPlayersCap))
	}
	for _, w := range s.NoTagTimes {
		if w.StartMinutes < 0 || w.StartMinutes >= 24*60 || w.EndMinutes < 0 || w.EndMinutes >= 24*60 {
			return streettag.E(streettag.CodeInvalidSettings, "no-tag time minutes out of range")
		}
	}
	for _, z := range s.NoTagZones {
		if z.RadiusMeters <= 0 {
			return streettag.E(streettag.CodeInvalidSettings, "no-tag zone radius must be positive")
		}
	}
	return nil
}

// Game returns the live aggregate. Callers outside this package must
// go through Session and use Snapshot instead.
func (m *Machine) Game() *streettag.Game { return m.game }

// Snapshot returns an immutable deep copy for readers.
func (m *Machine) Snapshot() *streettag.Game { return m.game.Clone() }

// Clone copies the machine and its game. The clone shares no state
// with the original.
func (m *Machine) Clone() *Machine {
	return &Machine{game: m.game.Clone(), limits: m.limits, pick: m.pick}
}

// Join adds a user to the roster. Re-joining is a no-op, not an error.
func (m *Machine) Join(user User, now time.Time) ([]Event, error) {
	g := m.game
	if p := g.PlayerByID(user.ID); p != nil {
		return nil, nil
	}
	if g.Status != streettag.GameStatusWaiting {
		return nil, streettag.E(streettag.CodeGameNotJoinable, "game has already started")
	}
	if len(g.Players) >= g.Settings.MaxPlayers {
		return nil, streettag.E(streettag.CodeGameFull, "game is full")
	}
	g.Players = append(g.Players, &streettag.Player{
		ID:        user.ID,
		Name:      user.Name,
		AvatarURL: user.AvatarURL,
		JoinedAt:  now,
	})
	return []Event{{
		Type:       EventPlayerJoined,
		GameID:     g.ID,
		PlayerID:   user.ID,
		PlayerName: user.Name,
	}}, nil
}

// Start activates the game and assigns IT uniformly at random.
func (m *Machine) Start(now time.Time) ([]Event, error) {
	g := m.game
	if g.Status != streettag.GameStatusWaiting {
		return nil, streettag.E(streettag.CodeGameNotJoinable, "game has already started")
	}
	if len(g.Players) < m.limits.MinPlayers {
		return nil, streettag.E(streettag.CodeNotEnoughPlayers,
			fmt.Sprintf("need at least %d players", m.limits.MinPlayers))
	}

	it := g.Players[m.pick(len(g.Players))]
	t := now
	it.IsIt = true
	it.BecameItAt = &t
	it.FirstItAt = &t

	g.Status = streettag.GameStatusActive
	g.ItPlayerID = it.ID
	g.StartedAt = &t

	return []Event{{
		Type:     EventGameStarted,
		GameID:   g.ID,
		NewItID:  it.ID,
		PlayerID: it.ID,
	}}, nil
}

// AttemptTag is the single atomic transition of the engine: it either
// rejects without touching state, or appends a tag and transfers IT in
// one step. No observer ever sees two IT players or zero.
func (m *Machine) AttemptTag(actorID, targetID string, now time.Time) (streettag.Tag, []Event, error) {
	g := m.game
	if g.Status != streettag.GameStatusActive || g.Paused() {
		return streettag.Tag{}, nil, streettag.E(streettag.CodeGameNotActive, "game is not active")
	}
	if actorID != g.ItPlayerID {
		return streettag.Tag{}, nil, streettag.E(streettag.CodeNotIt, "only the IT player can tag")
	}
	tagger := g.PlayerByID(actorID)
	target := g.PlayerByID(targetID)
	if tagger == nil {
		return streettag.Tag{}, nil, streettag.E(streettag.CodeNotInGame, "tagger is not in the game")
	}
	if target == nil {
		return streettag.Tag{}, nil, streettag.E(streettag.CodeTargetGone, "target is no longer in the game")
	}
	if target.ID == tagger.ID {
		return streettag.Tag{}, nil, streettag.E(streettag.CodeInvalidInput, "cannot tag yourself")
	}

	if v := rules.CanTag(g, tagger, target, now); !v.Allowed {
		return streettag.Tag{}, nil, streettag.E(v.Reason, "tag not permitted")
	}

	var tagTime *time.Duration
	if tagger.BecameItAt != nil {
		d := now.Sub(*tagger.BecameItAt)
		tagTime = &d
	}

	tag := streettag.Tag{
		ID:       uuid.NewString(),
		TaggerID: tagger.ID,
		TaggedID: target.ID,
		At:       now,
		TagTime:  tagTime,
	}
	g.Tags = append(g.Tags, tag)

	t := now
	tagger.IsIt = false
	tagger.BecameItAt = nil
	tagger.TagCount++
	target.IsIt = true
	target.BecameItAt = &t
	if target.FirstItAt == nil {
		target.FirstItAt = &t
	}
	g.ItPlayerID = target.ID

	ev := Event{
		Type:     EventTagOccurred,
		GameID:   g.ID,
		TaggerID: tagger.ID,
		TaggedID: target.ID,
		NewItID:  target.ID,
	}
	if tagTime != nil {
		ms := tagTime.Milliseconds()
		ev.TagTimeMs = &ms
	}
	return tag, []Event{ev}, nil
}

// End finishes the game, freezing per-player survival times. The
// winner defaults to the non-IT player with the largest survival,
// ties broken by earliest join; explicitWinnerID overrides.
func (m *Machine) End(explicitWinnerID string, now time.Time) ([]Event, error) {
	g := m.game
	if g.Status == streettag.GameStatusEnded {
		return nil, streettag.E(streettag.CodeGameEnded, "game has already ended")
	}
	if g.Status != streettag.GameStatusActive {
		return nil, streettag.E(streettag.CodeGameNotActive, "game has not started")
	}

	// A pause still open at the end counts as paused time.
	if g.PausedAt != nil {
		g.PausedTotal += now.Sub(*g.PausedAt)
		g.PausedAt = nil
	}
	t := now
	g.EndedAt = &t

	survivals := make(map[string]int64, len(g.Players))
	for _, p := range g.Players {
		p.FinalSurvival = stats.SurvivalTime(p, g)
		survivals[p.ID] = p.FinalSurvival.Milliseconds()
	}

	winnerID := explicitWinnerID
	if winnerID == "" || g.PlayerByID(winnerID) == nil {
		winnerID = defaultWinner(g)
	}
	g.WinnerID = winnerID

	for _, p := range g.Players {
		p.IsIt = false
		p.BecameItAt = nil
	}
	g.ItPlayerID = ""
	g.Status = streettag.GameStatusEnded

	return []Event{{
		Type:        EventGameEnded,
		GameID:      g.ID,
		WinnerID:    winnerID,
		SurvivalsMs: survivals,
	}}, nil
}

func defaultWinner(g *streettag.Game) string {
	candidates := make([]*streettag.Player, 0, len(g.Players))
	for _, p := range g.Players {
		if p.ID != g.ItPlayerID {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		// Roster of one: the IT player wins by default.
		if g.ItPlayerID != "" {
			return g.ItPlayerID
		}
		return ""
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].FinalSurvival != candidates[j].FinalSurvival {
			return candidates[i].FinalSurvival > candidates[j].FinalSurvival
		}
		return candidates[i].JoinedAt.Before(candidates[j].JoinedAt)
	})
	return candidates[0].ID
}

// Leave removes a player from the roster. If the leaving player holds
// IT in an active game, the role transfers to the earliest-joined
// remaining player. An active game whose roster drops below two ends
// immediately with the remaining player as winner.
func (m *Machine) Leave(userID string, now time.Time) ([]Event, error) {
	g := m.game
	if g.Status == streettag.GameStatusEnded {
		return nil, streettag.E(streettag.CodeGameEnded, "game has already ended")
	}
	leaver := g.PlayerByID(userID)
	if leaver == nil {
		return nil, streettag.E(streettag.CodeNotInGame, "player is not in the game")
	}

	remaining := make([]*streettag.Player, 0, len(g.Players)-1)
	for _, p := range g.Players {
		if p.ID != userID {
			remaining = append(remaining, p)
		}
	}
	g.Players = remaining

	events := []Event{{
		Type:       EventPlayerLeft,
		GameID:     g.ID,
		PlayerID:   userID,
		PlayerName: leaver.Name,
	}}

	if g.HostID == userID && len(remaining) > 0 {
		g.HostID = remaining[0].ID
	}

	if g.Status != streettag.GameStatusActive {
		return events, nil
	}

	if len(remaining) < 2 {
		endEvents, err := m.End("", now)
		if err != nil {
			return events, err
		}
		return append(events, endEvents...), nil
	}

	if g.ItPlayerID == userID {
		// Deterministic reassignment: earliest-joined remaining player.
		next := remaining[0]
		for _, p := range remaining[1:] {
			if p.JoinedAt.Before(next.JoinedAt) {
				next = p
			}
		}
		t := now
		next.IsIt = true
		next.BecameItAt = &t
		if next.FirstItAt == nil {
			next.FirstItAt = &t
		}
		g.ItPlayerID = next.ID
		events = append(events, Event{
			Type:    EventItReassigned,
			GameID:  g.ID,
			NewItID: next.ID,
		})
	}
	return events, nil
}

// Pause suspends survival and duration accrual. Location updates keep
// flowing while paused.
func (m *Machine) Pause(now time.Time) ([]Event, error) {
	g := m.game
	if g.Status != streettag.GameStatusActive {
		return nil, streettag.E(streettag.CodeGameNotActive, "game is not active")
	}
	if g.PausedAt != nil {
		return nil, nil
	}
	t := now
	g.PausedAt = &t
	return []Event{{Type: EventGamePaused, GameID: g.ID}}, nil
}

func (m *Machine) Resume(now time.Time) ([]Event, error) {
	g := m.game
	if g.Status != streettag.GameStatusActive {
		return nil, streettag.E(streettag.CodeGameNotActive, "game is not active")
	}
	if g.PausedAt == nil {
		return nil, nil
	}
	g.PausedTotal += now.Sub(*g.PausedAt)
	g.PausedAt = nil
	return []Event{{Type: EventGameResumed, GameID: g.ID}}, nil
}

// RecordLocation applies a GPS fix, rejecting fixes that imply
// movement faster than the configured bound since the previous fix.
func (m *Machine) RecordLocation(playerID string, fix streettag.Fix) error {
	g := m.game
	if g.Status == streettag.GameStatusEnded {
		return streettag.E(streettag.CodeGameEnded, "game has already ended")
	}
	p := g.PlayerByID(playerID)
	if p == nil {
		return streettag.E(streettag.CodeNotInGame, "player is not in the game")
	}

	if prev := p.Location; prev != nil && !g.Settings.AllowVehicles {
		dt := fix.At.Sub(prev.At)
		if dt <= 0 {
			return streettag.E(streettag.CodeInvalidInput, "fix is older than the previous one")
		}
		maxKmh := g.Settings.MaxSpeedKmh
		if maxKmh <= 0 {
			maxKmh = m.limits.DefaultMaxSpeedKmh
		}
		meters := geo.DistanceMeters(prev.LatLng, fix.LatLng)
		kmh := (meters / 1000) / dt.Hours()
		if kmh > maxKmh {
			return streettag.E(streettag.CodeSpeedLimit,
				fmt.Sprintf("implied speed %.0f km/h exceeds %.0f km/h", kmh, maxKmh))
		}
	}

	f := fix
	p.Location = &f
	return nil
}

// SetPersonalZones replaces the player's opt-in safe zones for this
// game.
func (m *Machine) SetPersonalZones(playerID string, zones []streettag.NoTagZone) error {
	p := m.game.PlayerByID(playerID)
	if p == nil {
		return streettag.E(streettag.CodeNotInGame, "player is not in the game")
	}
	for _, z := range zones {
		if z.RadiusMeters <= 0 {
			return streettag.E(streettag.CodeInvalidSettings, "zone radius must be positive")
		}
	}
	p.PersonalZones = append([]streettag.NoTagZone(nil), zones...)
	return nil
}

// Expired reports whether an active game has outrun its duration cap,
// paused time excluded.
func (m *Machine) Expired(now time.Time) bool {
	g := m.game
	return g.Status == streettag.GameStatusActive &&
		g.Settings.DurationCap > 0 &&
		g.Elapsed(now) >= g.Settings.DurationCap
}
