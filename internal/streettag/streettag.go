// Package streettag defines the core domain types of the tag game.
// It has zero external dependencies — everything here is pure Go.
package streettag

import "time"

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Fix is a single GPS reading for a player.
type Fix struct {
	LatLng
	AccuracyMeters float64   `json:"accuracyMeters"`
	At             time.Time `json:"at"`
}

type Player struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	AvatarURL string  `json:"avatarUrl,omitempty"`
	Location  *Fix    `json:"location,omitempty"`
	IsIt      bool    `json:"isIt"`
	TagCount  int     `json:"tagCount"`
	JoinedAt  time.Time `json:"joinedAt"`

	// BecameItAt is set when the player is assigned IT and cleared when
	// the role transfers away. FirstItAt keeps the first assignment for
	// survival-time computation after the role has moved on.
	BecameItAt *time.Time `json:"becameItAt,omitempty"`
	FirstItAt  *time.Time `json:"firstItAt,omitempty"`

	// FinalSurvival is set once, when the game ends.
	FinalSurvival time.Duration `json:"finalSurvival"`

	// PersonalZones are opt-in safe zones the player activated for this
	// game. They compose with the game-level zones.
	PersonalZones []NoTagZone `json:"personalZones,omitempty"`
}

type GameStatus string

const (
	GameStatusWaiting GameStatus = "waiting"
	GameStatusActive  GameStatus = "active"
	GameStatusEnded   GameStatus = "ended"
)

type NoTagZone struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Center       LatLng  `json:"center"`
	RadiusMeters float64 `json:"radiusMeters"`
}

// NoTagTime is a recurring weekly window during which tagging is
// suspended game-wide. EndMinutes < StartMinutes means the window
// wraps past midnight.
type NoTagTime struct {
	ID           string         `json:"id"`
	Days         []time.Weekday `json:"days"`
	StartMinutes int            `json:"startMinutes"`
	EndMinutes   int            `json:"endMinutes"`
}

func (w NoTagTime) OnDay(d time.Weekday) bool {
	for _, day := range w.Days {
		if day == d {
			return true
		}
	}
	return false
}

type GameSettings struct {
	TagRadiusMeters    float64       `json:"tagRadiusMeters"`
	GPSIntervalSeconds int           `json:"gpsIntervalSeconds"`
	DurationCap        time.Duration `json:"durationCap"` // 0 = uncapped
	MaxPlayers         int           `json:"maxPlayers"`
	NoTagZones         []NoTagZone   `json:"noTagZones,omitempty"`
	NoTagTimes         []NoTagTime   `json:"noTagTimes,omitempty"`

	// AllowVehicles lifts the speed bound on location fixes.
	AllowVehicles bool    `json:"allowVehicles"`
	MaxSpeedKmh   float64 `json:"maxSpeedKmh,omitempty"` // 0 = default bound
}

// Tag is one entry of the append-only tag ledger. Immutable once
// appended.
type Tag struct {
	ID       string    `json:"id"`
	TaggerID string    `json:"taggerId"`
	TaggedID string    `json:"taggedId"`
	At       time.Time `json:"at"`

	// TagTime is how long the tagger held IT before tagging, nil when
	// unmeasurable.
	TagTime *time.Duration `json:"tagTime,omitempty"`
}

type Game struct {
	ID       string       `json:"id"`
	JoinCode string       `json:"joinCode"`
	HostID   string       `json:"hostId"`
	Status   GameStatus   `json:"status"`
	Settings GameSettings `json:"settings"`

	// Players is ordered by join time; the order breaks winner ties.
	Players []*Player `json:"players"`

	// ItPlayerID is empty only while waiting or after the game ended.
	ItPlayerID string `json:"itPlayerId,omitempty"`

	StartedAt *time.Time `json:"startedAt,omitempty"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`

	// PausedAt is set while the game is paused; PausedTotal accumulates
	// completed pause intervals. Both feed Elapsed.
	PausedAt    *time.Time    `json:"pausedAt,omitempty"`
	PausedTotal time.Duration `json:"pausedTotal"`

	Tags []Tag `json:"tags"`

	WinnerID string `json:"winnerId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// PlayerByID returns the roster entry for id, or nil.
func (g *Game) PlayerByID(id string) *Player {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (g *Game) Paused() bool { return g.PausedAt != nil }

// Elapsed is game time at now, excluding paused intervals. Zero before
// the game starts; frozen at EndedAt after it ends.
func (g *Game) Elapsed(now time.Time) time.Duration {
	if g.StartedAt == nil {
		return 0
	}
	end := now
	if g.EndedAt != nil {
		end = *g.EndedAt
	}
	elapsed := end.Sub(*g.StartedAt) - g.PausedTotal
	if g.PausedAt != nil {
		elapsed -= end.Sub(*g.PausedAt)
	}
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// Clone deep-copies the game so readers can hold a snapshot while the
// single writer keeps mutating the original.
func (g *Game) Clone() *Game {
	c := *g
	c.Players = make([]*Player, len(g.Players))
	for i, p := range g.Players {
		pc := *p
		if p.Location != nil {
			loc := *p.Location
			pc.Location = &loc
		}
		if p.BecameItAt != nil {
			t := *p.BecameItAt
			pc.BecameItAt = &t
		}
		if p.FirstItAt != nil {
			t := *p.FirstItAt
			pc.FirstItAt = &t
		}
		pc.PersonalZones = append([]NoTagZone(nil), p.PersonalZones...)
		c.Players[i] = &pc
	}
	if g.StartedAt != nil {
		t := *g.StartedAt
		c.StartedAt = &t
	}
	if g.EndedAt != nil {
		t := *g.EndedAt
		c.EndedAt = &t
	}
	if g.PausedAt != nil {
		t := *g.PausedAt
		c.PausedAt = &t
	}
	c.Tags = make([]Tag, len(g.Tags))
	for i, tag := range g.Tags {
		tc := tag
		if tag.TagTime != nil {
			d := *tag.TagTime
			tc.TagTime = &d
		}
		c.Tags[i] = tc
	}
	c.Settings.NoTagZones = append([]NoTagZone(nil), g.Settings.NoTagZones...)
	c.Settings.NoTagTimes = append([]NoTagTime(nil), g.Settings.NoTagTimes...)
	return &c
}

// UserStats are cumulative per-user counters across games. They are
// mutated only at game start, on tag events and at game end, and are
// never rolled back.
type UserStats struct {
	UserID          string        `json:"userId"`
	GamesPlayed     int           `json:"gamesPlayed"`
	GamesWon        int           `json:"gamesWon"`
	TotalTags       int           `json:"totalTags"`
	TimesTagged     int           `json:"timesTagged"`
	LongestSurvival time.Duration `json:"longestSurvival"`
	TotalPlayTime   time.Duration `json:"totalPlayTime"`

	// FastestTag is the shortest IT hold before a successful tag, nil
	// until the user has tagged at least once with a measurable hold.
	FastestTag *time.Duration `json:"fastestTag,omitempty"`

	UniqueOpponents map[string]struct{} `json:"-"`

	CurrentWinStreak   int `json:"currentWinStreak"`
	BestWinStreak      int `json:"bestWinStreak"`
	CurrentDailyStreak int `json:"currentDailyStreak"`
	BestDailyStreak    int `json:"bestDailyStreak"`

	// LastPlayDate is a calendar date ("2006-01-02") in the user's
	// local zone; it drives the daily streak.
	LastPlayDate string `json:"lastPlayDate,omitempty"`
}

func (s *UserStats) OpponentIDs() []string {
	ids := make([]string, 0, len(s.UniqueOpponents))
	for id := range s.UniqueOpponents {
		ids = append(ids, id)
	}
	return ids
}
