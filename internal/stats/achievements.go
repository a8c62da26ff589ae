package stats

import (
	"time"

	"github.com/streettag/api/internal/streettag"
)

// Achievement pairs an id with a pure predicate over UserStats.
// Unlocking is monotonic: once satisfied, the id stays unlocked and
// the predicate is never evaluated again for that user.
type Achievement struct {
	ID          string
	Title       string
	Description string
	Unlocked    func(s *streettag.UserStats) bool
}

// Achievements is the declarative rule list, evaluated uniformly in
// registration order.
var Achievements = []Achievement{
	{
		ID:          "first_tag",
		Title:       "Gotcha!",
		Description: "Tag another player for the first time.",
		Unlocked:    func(s *streettag.UserStats) bool { return s.TotalTags >= 1 },
	},
	{
		ID:          "first_win",
		Title:       "Untouchable",
		Description: "Win your first game.",
		Unlocked:    func(s *streettag.UserStats) bool { return s.GamesWon >= 1 },
	},
	{
		ID:          "ten_games",
		Title:       "Regular",
		Description: "Play ten games.",
		Unlocked:    func(s *streettag.UserStats) bool { return s.GamesPlayed >= 10 },
	},
	{
		ID:          "fifty_tags",
		Title:       "Tag Machine",
		Description: "Land fifty tags.",
		Unlocked:    func(s *streettag.UserStats) bool { return s.TotalTags >= 50 },
	},
	{
		ID:          "quick_hands",
		Title:       "Quick Hands",
		Description: "Pass IT on within ten seconds.",
		Unlocked: func(s *streettag.UserStats) bool {
			return s.FastestTag != nil && *s.FastestTag <= 10*time.Second
		},
	},
	{
		ID:          "marathon_survivor",
		Title:       "Marathon Survivor",
		Description: "Survive a full hour without being IT.",
		Unlocked:    func(s *streettag.UserStats) bool { return s.LongestSurvival >= time.Hour },
	},
	{
		ID:          "win_streak_3",
		Title:       "On a Roll",
		Description: "Win three games in a row.",
		Unlocked:    func(s *streettag.UserStats) bool { return s.BestWinStreak >= 3 },
	},
	{
		ID:          "daily_streak_7",
		Title:       "Committed",
		Description: "Play seven days in a row.",
		Unlocked:    func(s *streettag.UserStats) bool { return s.BestDailyStreak >= 7 },
	},
	{
		ID:          "social_butterfly",
		Title:       "Social Butterfly",
		Description: "Face twenty different opponents.",
		Unlocked:    func(s *streettag.UserStats) bool { return len(s.UniqueOpponents) >= 20 },
	},
}

// AchievementByID returns the registered achievement, or nil.
func AchievementByID(id string) *Achievement {
	for i := range Achievements {
		if Achievements[i].ID == id {
			return &Achievements[i]
		}
	}
	return nil
}

// EvaluateAchievements returns the ids newly unlocked by the current
// stats, in registration order. Already-unlocked ids are skipped, not
// re-evaluated. Callers persist every returned id; surfacing only the
// first as a notification is a UI convenience, not our concern.
func EvaluateAchievements(s *streettag.UserStats, unlocked map[string]bool) []string {
	var fresh []string
	for _, a := range Achievements {
		if unlocked[a.ID] {
			continue
		}
		if a.Unlocked(s) {
			fresh = append(fresh, a.ID)
		}
	}
	return fresh
}
