package store_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/streettag/api/internal/database"
	"github.com/streettag/api/internal/migrations"
	"github.com/streettag/api/internal/store"
	"github.com/streettag/api/internal/streettag"
)

func testStore(t *testing.T) (*store.Store, *sql.DB) {
	t.Helper()
	db, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrations.Run(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}
	return store.New(db), db
}

func endedGame() *streettag.Game {
	start := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	end := start.Add(45 * time.Minute)
	firstIt := start.Add(10 * time.Minute)
	tagTime := 10 * time.Minute
	return &streettag.Game{
		ID:          "game-1",
		JoinCode:    "ABCD23",
		HostID:      "alice",
		Status:      streettag.GameStatusEnded,
		Settings:    streettag.GameSettings{TagRadiusMeters: 25, MaxPlayers: 8},
		WinnerID:    "bob",
		StartedAt:   &start,
		EndedAt:     &end,
		PausedTotal: 5 * time.Minute,
		CreatedAt:   start.Add(-time.Minute),
		Players: []*streettag.Player{
			{ID: "alice", Name: "Alice", JoinedAt: start.Add(-time.Minute), TagCount: 1,
				FirstItAt: &start, FinalSurvival: 0},
			{ID: "bob", Name: "Bob", AvatarURL: "https://example.com/bob.png",
				JoinedAt: start.Add(-30 * time.Second), TagCount: 0,
				FirstItAt: &firstIt, FinalSurvival: 10 * time.Minute},
		},
		Tags: []streettag.Tag{
			{ID: "tag-1", TaggerID: "alice", TaggedID: "bob", At: firstIt, TagTime: &tagTime},
		},
	}
}

func TestSaveEndedGameRoundTrip(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()
	g := endedGame()

	if err := s.SaveEndedGame(ctx, g); err != nil {
		t.Fatalf("saving game: %v", err)
	}

	got, err := s.GameHistory(ctx, g.ID)
	if err != nil {
		t.Fatalf("loading history: %v", err)
	}

	if got.JoinCode != g.JoinCode || got.HostID != g.HostID || got.WinnerID != g.WinnerID {
		t.Errorf("game header = %+v", got)
	}
	if got.Status != streettag.GameStatusEnded {
		t.Errorf("status = %s, want ended", got.Status)
	}
	if got.Settings.TagRadiusMeters != 25 {
		t.Errorf("settings lost: %+v", got.Settings)
	}
	if got.PausedTotal != 5*time.Minute {
		t.Errorf("pausedTotal = %v, want 5m", got.PausedTotal)
	}
	if got.StartedAt == nil || !got.StartedAt.Equal(*g.StartedAt) {
		t.Errorf("startedAt = %v, want %v", got.StartedAt, g.StartedAt)
	}

	if len(got.Players) != 2 {
		t.Fatalf("players = %d, want 2", len(got.Players))
	}
	alice := got.PlayerByID("alice")
	if alice == nil || alice.TagCount != 1 || alice.FirstItAt == nil {
		t.Errorf("alice = %+v", alice)
	}
	bob := got.PlayerByID("bob")
	if bob == nil || bob.FinalSurvival != 10*time.Minute || bob.AvatarURL == "" {
		t.Errorf("bob = %+v", bob)
	}

	if len(got.Tags) != 1 {
		t.Fatalf("tags = %d, want 1", len(got.Tags))
	}
	tag := got.Tags[0]
	if tag.TaggerID != "alice" || tag.TaggedID != "bob" {
		t.Errorf("tag = %+v", tag)
	}
	if tag.TagTime == nil || *tag.TagTime != 10*time.Minute {
		t.Errorf("tagTime = %v, want 10m", tag.TagTime)
	}
}

func TestSaveEndedGameRejectsLiveGame(t *testing.T) {
	s, _ := testStore(t)
	g := endedGame()
	g.Status = streettag.GameStatusActive

	if err := s.SaveEndedGame(context.Background(), g); err == nil {
		t.Fatal("saved a game that has not ended")
	}
}

func TestGameHistoryNotFound(t *testing.T) {
	s, _ := testStore(t)
	_, err := s.GameHistory(context.Background(), "missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUserStatsZeroWithoutRow(t *testing.T) {
	s, _ := testStore(t)
	st, err := s.UserStats(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("loading stats: %v", err)
	}
	if st.UserID != "nobody" || st.GamesPlayed != 0 || st.FastestTag != nil {
		t.Errorf("stats = %+v, want zero value", st)
	}
	if st.UniqueOpponents == nil {
		t.Error("uniqueOpponents map not initialized")
	}
}

func TestSaveUserStatsUpsert(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()
	fast := 8 * time.Second

	st := &streettag.UserStats{
		UserID:          "alice",
		GamesPlayed:     1,
		GamesWon:        1,
		TotalTags:       3,
		LongestSurvival: 40 * time.Minute,
		TotalPlayTime:   time.Hour,
		FastestTag:      &fast,
		CurrentWinStreak: 1,
		BestWinStreak:    1,
		LastPlayDate:     "2026-08-24",
		UniqueOpponents:  map[string]struct{}{"bob": {}, "carol": {}},
	}
	if err := s.SaveUserStats(ctx, st); err != nil {
		t.Fatalf("first save: %v", err)
	}

	st.GamesPlayed = 2
	st.CurrentWinStreak = 0
	st.UniqueOpponents["dave"] = struct{}{}
	if err := s.SaveUserStats(ctx, st); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := s.UserStats(ctx, "alice")
	if err != nil {
		t.Fatalf("loading: %v", err)
	}
	if got.GamesPlayed != 2 || got.CurrentWinStreak != 0 || got.BestWinStreak != 1 {
		t.Errorf("stats = %+v", got)
	}
	if got.FastestTag == nil || *got.FastestTag != 8*time.Second {
		t.Errorf("fastestTag = %v, want 8s", got.FastestTag)
	}
	if len(got.UniqueOpponents) != 3 {
		t.Errorf("opponents = %v, want 3", got.OpponentIDs())
	}
	if got.LastPlayDate != "2026-08-24" {
		t.Errorf("lastPlayDate = %q", got.LastPlayDate)
	}
}

func TestUnlockAchievementsIdempotent(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()
	at := time.Date(2026, 8, 24, 13, 0, 0, 0, time.UTC)

	if err := s.UnlockAchievements(ctx, "alice", []string{"first_tag", "first_win"}, at); err != nil {
		t.Fatalf("unlocking: %v", err)
	}
	// Re-unlocking the same id is a no-op.
	if err := s.UnlockAchievements(ctx, "alice", []string{"first_tag"}, at.Add(time.Hour)); err != nil {
		t.Fatalf("duplicate unlock: %v", err)
	}

	unlocked, err := s.UnlockedAchievements(ctx, "alice")
	if err != nil {
		t.Fatalf("loading: %v", err)
	}
	if len(unlocked) != 2 || !unlocked["first_tag"] || !unlocked["first_win"] {
		t.Errorf("unlocked = %v", unlocked)
	}

	other, err := s.UnlockedAchievements(ctx, "bob")
	if err != nil {
		t.Fatal(err)
	}
	if len(other) != 0 {
		t.Errorf("bob unlocked = %v, want none", other)
	}
}
