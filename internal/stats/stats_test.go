package stats

import (
	"testing"
	"time"

	"github.com/streettag/api/internal/streettag"
)

func endedGame(start, end time.Time, paused time.Duration) *streettag.Game {
	return &streettag.Game{
		Status:      streettag.GameStatusEnded,
		StartedAt:   &start,
		EndedAt:     &end,
		PausedTotal: paused,
	}
}

func TestSurvivalTime(t *testing.T) {
	start := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	firstIt := start.Add(20 * time.Minute)

	cases := []struct {
		name   string
		player streettag.Player
		game   *streettag.Game
		want   time.Duration
	}{
		{
			name:   "never held it survives full game",
			player: streettag.Player{ID: "a"},
			game:   endedGame(start, end, 0),
			want:   time.Hour,
		},
		{
			name:   "survives until first it assignment",
			player: streettag.Player{ID: "a", FirstItAt: &firstIt},
			game:   endedGame(start, end, 0),
			want:   20 * time.Minute,
		},
		{
			name:   "it from the start survives nothing",
			player: streettag.Player{ID: "a", FirstItAt: &start},
			game:   endedGame(start, end, 0),
			want:   0,
		},
		{
			name:   "pause shortens full-game survival",
			player: streettag.Player{ID: "a"},
			game:   endedGame(start, end, 15*time.Minute),
			want:   45 * time.Minute,
		},
		{
			name:   "survival clamped to elapsed",
			player: streettag.Player{ID: "a", FirstItAt: &firstIt},
			game:   endedGame(start, end, 50*time.Minute),
			want:   10 * time.Minute,
		},
		{
			name:   "unfinished game has no survival",
			player: streettag.Player{ID: "a"},
			game:   &streettag.Game{StartedAt: &start},
			want:   0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SurvivalTime(&tc.player, tc.game); got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRecordTagEventFastestTagRatchet(t *testing.T) {
	s := &streettag.UserStats{UserID: "u"}

	d := func(v time.Duration) *time.Duration { return &v }

	RecordTagEvent(s, RoleTagger, d(30*time.Second))
	RecordTagEvent(s, RoleTagger, d(8*time.Second))
	RecordTagEvent(s, RoleTagger, d(2*time.Minute))
	RecordTagEvent(s, RoleTagger, nil)
	RecordTagEvent(s, RoleTagged, d(time.Second))

	if s.TotalTags != 4 {
		t.Errorf("totalTags = %d, want 4", s.TotalTags)
	}
	if s.TimesTagged != 1 {
		t.Errorf("timesTagged = %d, want 1", s.TimesTagged)
	}
	if s.FastestTag == nil || *s.FastestTag != 8*time.Second {
		t.Errorf("fastestTag = %v, want 8s", s.FastestTag)
	}
}

func TestRecordGameEnd(t *testing.T) {
	s := &streettag.UserStats{UserID: "u"}

	RecordGameEnd(s, true, 40*time.Minute, time.Hour, []string{"a", "b"})
	RecordGameEnd(s, false, 10*time.Minute, 30*time.Minute, []string{"b", "c"})

	if s.GamesPlayed != 2 || s.GamesWon != 1 {
		t.Errorf("played/won = %d/%d, want 2/1", s.GamesPlayed, s.GamesWon)
	}
	if s.TotalPlayTime != 90*time.Minute {
		t.Errorf("totalPlayTime = %v, want 90m", s.TotalPlayTime)
	}
	if s.LongestSurvival != 40*time.Minute {
		t.Errorf("longestSurvival = %v, want 40m (ratchet)", s.LongestSurvival)
	}
	if len(s.UniqueOpponents) != 3 {
		t.Errorf("uniqueOpponents = %v, want {a,b,c}", s.OpponentIDs())
	}
}

func TestUpdateWinStreak(t *testing.T) {
	s := &streettag.UserStats{UserID: "u"}
	day := time.Date(2026, 8, 24, 18, 0, 0, 0, time.UTC)

	// win, win, loss, win → current 1, best 2
	results := []bool{true, true, false, true}
	for i, won := range results {
		UpdateStreaks(s, won, day.Add(time.Duration(i)*time.Hour))
	}

	if s.CurrentWinStreak != 1 {
		t.Errorf("currentWinStreak = %d, want 1", s.CurrentWinStreak)
	}
	if s.BestWinStreak != 2 {
		t.Errorf("bestWinStreak = %d, want 2", s.BestWinStreak)
	}
}

func TestUpdateDailyStreak(t *testing.T) {
	s := &streettag.UserStats{UserID: "u"}
	day := func(d int) time.Time {
		return time.Date(2026, 8, d, 18, 0, 0, 0, time.UTC)
	}

	UpdateStreaks(s, false, day(20))
	if s.CurrentDailyStreak != 1 {
		t.Fatalf("first game: streak = %d, want 1", s.CurrentDailyStreak)
	}

	// Second game the same day changes nothing.
	UpdateStreaks(s, false, day(20).Add(2*time.Hour))
	if s.CurrentDailyStreak != 1 {
		t.Errorf("same day: streak = %d, want 1", s.CurrentDailyStreak)
	}

	UpdateStreaks(s, false, day(21))
	UpdateStreaks(s, false, day(22))
	if s.CurrentDailyStreak != 3 {
		t.Errorf("consecutive days: streak = %d, want 3", s.CurrentDailyStreak)
	}

	// Skipping a day resets, but the best is kept.
	UpdateStreaks(s, false, day(25))
	if s.CurrentDailyStreak != 1 {
		t.Errorf("after gap: streak = %d, want 1", s.CurrentDailyStreak)
	}
	if s.BestDailyStreak != 3 {
		t.Errorf("bestDailyStreak = %d, want 3", s.BestDailyStreak)
	}
}
