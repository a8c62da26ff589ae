package server

import (
	"context"
	"time"

	"github.com/streettag/api/internal/engine"
	"github.com/streettag/api/internal/stats"
	"github.com/streettag/api/internal/streettag"
)

// afterEvents runs the follow-ups a transition may have triggered.
// Any transition can end the game as a side effect (duration cap,
// roster shrinking below two), so every handler routes its events
// through here.
func (d *Deps) afterEvents(ctx context.Context, sess *engine.Session, events []engine.Event) {
	for _, ev := range events {
		if ev.Type == engine.EventGameEnded {
			d.finishGame(ctx, sess)
			return
		}
	}
}

// recordTag folds one confirmed tag into both players' cumulative
// stats and evaluates achievements for the tagger. Stats failures are
// logged, never surfaced: the tag itself already happened.
func (d *Deps) recordTag(ctx context.Context, game *streettag.Game, tag streettag.Tag) {
	taggerStats, err := d.Store.UserStats(ctx, tag.TaggerID)
	if err == nil {
		stats.RecordTagEvent(taggerStats, stats.RoleTagger, tag.TagTime)
		err = d.Store.SaveUserStats(ctx, taggerStats)
	}
	if err != nil {
		d.Logger.Error("recording tagger stats", "user", tag.TaggerID, "error", err)
	} else {
		d.unlockNewAchievements(ctx, game.ID, taggerStats)
		if d.Board != nil {
			if err := d.Board.AddTags(ctx, tag.TaggerID, 1); err != nil {
				d.Logger.Error("updating tag leaderboard", "user", tag.TaggerID, "error", err)
			}
		}
	}

	taggedStats, err := d.Store.UserStats(ctx, tag.TaggedID)
	if err == nil {
		stats.RecordTagEvent(taggedStats, stats.RoleTagged, nil)
		err = d.Store.SaveUserStats(ctx, taggedStats)
	}
	if err != nil {
		d.Logger.Error("recording tagged stats", "user", tag.TaggedID, "error", err)
	}
}

// finishGame archives an ended game: per-player stats and streaks,
// achievements, leaderboards, then the persisted history record. The
// live session is dropped last so readers see the final snapshot
// until the archive is complete.
func (d *Deps) finishGame(ctx context.Context, sess *engine.Session) {
	g := sess.Snapshot()
	if g.Status != streettag.GameStatusEnded || g.StartedAt == nil {
		return
	}
	now := time.Now()
	elapsed := g.Elapsed(now)

	for _, p := range g.Players {
		st, err := d.Store.UserStats(ctx, p.ID)
		if err != nil {
			d.Logger.Error("loading stats", "user", p.ID, "error", err)
			continue
		}

		opponents := make([]string, 0, len(g.Players)-1)
		for _, other := range g.Players {
			if other.ID != p.ID {
				opponents = append(opponents, other.ID)
			}
		}

		won := p.ID == g.WinnerID
		stats.RecordGameEnd(st, won, p.FinalSurvival, elapsed, opponents)
		stats.UpdateStreaks(st, won, now)

		if err := d.Store.SaveUserStats(ctx, st); err != nil {
			d.Logger.Error("saving stats", "user", p.ID, "error", err)
			continue
		}

		d.unlockNewAchievements(ctx, g.ID, st)

		if d.Board != nil {
			if err := d.Board.RecordSurvival(ctx, p.ID, p.FinalSurvival); err != nil {
				d.Logger.Error("updating survival leaderboard", "user", p.ID, "error", err)
			}
		}
	}

	if err := d.Store.SaveEndedGame(ctx, g); err != nil {
		d.Logger.Error("archiving game", "game", g.ID, "error", err)
	}

	d.Sessions.RevokeGame(g.ID)
	d.Registry.Remove(g.ID)
}

// unlockNewAchievements persists every newly satisfied achievement
// and publishes one event per unlock.
func (d *Deps) unlockNewAchievements(ctx context.Context, gameID string, st *streettag.UserStats) {
	unlocked, err := d.Store.UnlockedAchievements(ctx, st.UserID)
	if err != nil {
		d.Logger.Error("loading achievements", "user", st.UserID, "error", err)
		return
	}
	fresh := stats.EvaluateAchievements(st, unlocked)
	if len(fresh) == 0 {
		return
	}
	if err := d.Store.UnlockAchievements(ctx, st.UserID, fresh, time.Now()); err != nil {
		d.Logger.Error("unlocking achievements", "user", st.UserID, "error", err)
		return
	}
	if d.Broker == nil {
		return
	}
	for _, id := range fresh {
		d.Broker.Publish(gameID, engine.Event{
			Type:          engine.EventAchievementUnlocked,
			GameID:        gameID,
			PlayerID:      st.UserID,
			AchievementID: id,
		})
	}
}
