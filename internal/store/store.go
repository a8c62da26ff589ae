// Package store persists what outlives a live session: ended games
// with their full tag ledger, cumulative user stats and unlocked
// achievements.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/streettag/api/internal/streettag"
)

var ErrNotFound = errors.New("not found")

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// SaveEndedGame retains the finished game verbatim, roster and
// ledger included, for later replay and statistics rendering.
func (s *Store) SaveEndedGame(ctx context.Context, g *streettag.Game) error {
	if g.Status != streettag.GameStatusEnded {
		return fmt.Errorf("game %s is not ended", g.ID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback()

	settings, err := json.Marshal(g.Settings)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO games (id, join_code, host_id, status, settings, winner_id, started_at, ended_at, paused_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, g.ID, g.JoinCode, g.HostID, string(g.Status), string(settings), nullStr(g.WinnerID),
		nullTime(g.StartedAt), nullTime(g.EndedAt), g.PausedTotal.Milliseconds(), g.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("inserting game: %w", err)
	}

	for _, p := range g.Players {
		wasIt := 0
		if p.FirstItAt != nil {
			wasIt = 1
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO game_players (game_id, player_id, name, avatar_url, joined_at, tag_count, was_it, first_it_at, final_survival_ms)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, g.ID, p.ID, p.Name, p.AvatarURL, p.JoinedAt.Format(time.RFC3339Nano),
			p.TagCount, wasIt, nullTime(p.FirstItAt), p.FinalSurvival.Milliseconds())
		if err != nil {
			return fmt.Errorf("inserting player %s: %w", p.ID, err)
		}
	}

	for _, tag := range g.Tags {
		var tagTimeMs any
		if tag.TagTime != nil {
			tagTimeMs = tag.TagTime.Milliseconds()
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO tags (id, game_id, tagger_id, tagged_id, at, tag_time_ms)
			VALUES (?, ?, ?, ?, ?, ?)
		`, tag.ID, g.ID, tag.TaggerID, tag.TaggedID, tag.At.Format(time.RFC3339Nano), tagTimeMs)
		if err != nil {
			return fmt.Errorf("inserting tag %s: %w", tag.ID, err)
		}
	}

	return tx.Commit()
}

// GameHistory rebuilds a retained game record, ledger included.
func (s *Store) GameHistory(ctx context.Context, gameID string) (*streettag.Game, error) {
	g := &streettag.Game{ID: gameID}
	var settings, createdAt string
	var winnerID, startedAt, endedAt sql.NullString
	var pausedMs int64

	err := s.db.QueryRowContext(ctx, `
		SELECT join_code, host_id, status, settings, winner_id, started_at, ended_at, paused_ms, created_at
		FROM games WHERE id = ?
	`, gameID).Scan(&g.JoinCode, &g.HostID, (*string)(&g.Status), &settings, &winnerID, &startedAt, &endedAt, &pausedMs, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading game %s: %w", gameID, err)
	}

	if err := json.Unmarshal([]byte(settings), &g.Settings); err != nil {
		return nil, fmt.Errorf("decoding settings: %w", err)
	}
	g.WinnerID = winnerID.String
	g.StartedAt = parseTime(startedAt)
	g.EndedAt = parseTime(endedAt)
	g.PausedTotal = time.Duration(pausedMs) * time.Millisecond
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		g.CreatedAt = t
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT player_id, name, avatar_url, joined_at, tag_count, first_it_at, final_survival_ms
		FROM game_players WHERE game_id = ? ORDER BY joined_at
	`, gameID)
	if err != nil {
		return nil, fmt.Errorf("loading players: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		p := &streettag.Player{}
		var joinedAt string
		var firstItAt sql.NullString
		var survivalMs int64
		if err := rows.Scan(&p.ID, &p.Name, &p.AvatarURL, &joinedAt, &p.TagCount, &firstItAt, &survivalMs); err != nil {
			return nil, fmt.Errorf("scanning player: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, joinedAt); err == nil {
			p.JoinedAt = t
		}
		p.FirstItAt = parseTime(firstItAt)
		p.FinalSurvival = time.Duration(survivalMs) * time.Millisecond
		g.Players = append(g.Players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating players: %w", err)
	}

	tagRows, err := s.db.QueryContext(ctx, `
		SELECT id, tagger_id, tagged_id, at, tag_time_ms
		FROM tags WHERE game_id = ? ORDER BY at
	`, gameID)
	if err != nil {
		return nil, fmt.Errorf("loading tags: %w", err)
	}
	defer tagRows.Close()
	for tagRows.Next() {
		var tag streettag.Tag
		var at string
		var tagTimeMs sql.NullInt64
		if err := tagRows.Scan(&tag.ID, &tag.TaggerID, &tag.TaggedID, &at, &tagTimeMs); err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, at); err == nil {
			tag.At = t
		}
		if tagTimeMs.Valid {
			d := time.Duration(tagTimeMs.Int64) * time.Millisecond
			tag.TagTime = &d
		}
		g.Tags = append(g.Tags, tag)
	}
	if err := tagRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tags: %w", err)
	}

	return g, nil
}

// UserStats loads the user's cumulative counters. A user with no row
// yet gets zero stats, not an error.
func (s *Store) UserStats(ctx context.Context, userID string) (*streettag.UserStats, error) {
	st := &streettag.UserStats{UserID: userID, UniqueOpponents: make(map[string]struct{})}
	var longestMs, playMs int64
	var fastestMs sql.NullInt64
	var opponents string

	err := s.db.QueryRowContext(ctx, `
		SELECT games_played, games_won, total_tags, times_tagged, longest_survival_ms, total_play_ms,
		       fastest_tag_ms, current_win_streak, best_win_streak, current_daily_streak, best_daily_streak,
		       last_play_date, opponents
		FROM user_stats WHERE user_id = ?
	`, userID).Scan(&st.GamesPlayed, &st.GamesWon, &st.TotalTags, &st.TimesTagged, &longestMs, &playMs,
		&fastestMs, &st.CurrentWinStreak, &st.BestWinStreak, &st.CurrentDailyStreak, &st.BestDailyStreak,
		&st.LastPlayDate, &opponents)
	if errors.Is(err, sql.ErrNoRows) {
		return st, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading stats for %s: %w", userID, err)
	}

	st.LongestSurvival = time.Duration(longestMs) * time.Millisecond
	st.TotalPlayTime = time.Duration(playMs) * time.Millisecond
	if fastestMs.Valid {
		d := time.Duration(fastestMs.Int64) * time.Millisecond
		st.FastestTag = &d
	}
	var ids []string
	if err := json.Unmarshal([]byte(opponents), &ids); err == nil {
		for _, id := range ids {
			st.UniqueOpponents[id] = struct{}{}
		}
	}
	return st, nil
}

// SaveUserStats upserts the user's counters.
func (s *Store) SaveUserStats(ctx context.Context, st *streettag.UserStats) error {
	opponents, err := json.Marshal(st.OpponentIDs())
	if err != nil {
		return fmt.Errorf("encoding opponents: %w", err)
	}
	var fastestMs any
	if st.FastestTag != nil {
		fastestMs = st.FastestTag.Milliseconds()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_stats (user_id, games_played, games_won, total_tags, times_tagged,
		                        longest_survival_ms, total_play_ms, fastest_tag_ms,
		                        current_win_streak, best_win_streak, current_daily_streak, best_daily_streak,
		                        last_play_date, opponents)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			games_played = excluded.games_played,
			games_won = excluded.games_won,
			total_tags = excluded.total_tags,
			times_tagged = excluded.times_tagged,
			longest_survival_ms = excluded.longest_survival_ms,
			total_play_ms = excluded.total_play_ms,
			fastest_tag_ms = excluded.fastest_tag_ms,
			current_win_streak = excluded.current_win_streak,
			best_win_streak = excluded.best_win_streak,
			current_daily_streak = excluded.current_daily_streak,
			best_daily_streak = excluded.best_daily_streak,
			last_play_date = excluded.last_play_date,
			opponents = excluded.opponents
	`, st.UserID, st.GamesPlayed, st.GamesWon, st.TotalTags, st.TimesTagged,
		st.LongestSurvival.Milliseconds(), st.TotalPlayTime.Milliseconds(), fastestMs,
		st.CurrentWinStreak, st.BestWinStreak, st.CurrentDailyStreak, st.BestDailyStreak,
		st.LastPlayDate, string(opponents))
	if err != nil {
		return fmt.Errorf("saving stats for %s: %w", st.UserID, err)
	}
	return nil
}

// UnlockedAchievements returns the set of achievement ids the user
// has already unlocked.
func (s *Store) UnlockedAchievements(ctx context.Context, userID string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT achievement_id FROM user_achievements WHERE user_id = ?
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("loading achievements for %s: %w", userID, err)
	}
	defer rows.Close()

	unlocked := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning achievement: %w", err)
		}
		unlocked[id] = true
	}
	return unlocked, rows.Err()
}

// UnlockAchievements records newly unlocked ids. Unlocking is
// monotonic, so a duplicate insert is ignored rather than an error.
func (s *Store) UnlockAchievements(ctx context.Context, userID string, ids []string, at time.Time) error {
	for _, id := range ids {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO user_achievements (user_id, achievement_id, unlocked_at)
			VALUES (?, ?, ?)
			ON CONFLICT(user_id, achievement_id) DO NOTHING
		`, userID, id, at.Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("unlocking %s for %s: %w", id, userID, err)
		}
	}
	return nil
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339Nano)
}

func parseTime(ns sql.NullString) *time.Time {
	if !ns.Valid {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, ns.String)
	if err != nil {
		return nil
	}
	return &t
}
