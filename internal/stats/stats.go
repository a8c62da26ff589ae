// Package stats derives survival times, cumulative counters, streaks
// and achievement unlocks from game records. All functions mutate the
// passed UserStats in place; counters only ever move forward.
package stats

import (
	"time"

	"github.com/streettag/api/internal/streettag"
)

// SurvivalTime is how long the player went without holding IT. A
// player who ever held IT survived until they first received the
// role; everyone else survived the whole game. Paused intervals do
// not count. Meaningful once the game has started; the engine freezes
// the result into FinalSurvival at game end.
func SurvivalTime(p *streettag.Player, g *streettag.Game) time.Duration {
	if g.StartedAt == nil || g.EndedAt == nil {
		return 0
	}
	elapsed := g.Elapsed(*g.EndedAt)
	if p.FirstItAt == nil {
		return elapsed
	}
	survival := p.FirstItAt.Sub(*g.StartedAt)
	if survival > elapsed {
		survival = elapsed
	}
	if survival < 0 {
		survival = 0
	}
	return survival
}

// Role distinguishes the two sides of a tag event.
type Role int

const (
	RoleTagger Role = iota
	RoleTagged
)

// RecordTagEvent updates counters for one tag. tagTime is the
// tagger's IT hold before the tag, nil when unmeasurable.
func RecordTagEvent(s *streettag.UserStats, role Role, tagTime *time.Duration) {
	switch role {
	case RoleTagger:
		s.TotalTags++
		if tagTime != nil && (s.FastestTag == nil || *tagTime < *s.FastestTag) {
			d := *tagTime
			s.FastestTag = &d
		}
	case RoleTagged:
		s.TimesTagged++
	}
}

// RecordGameEnd folds one finished game into the cumulative counters.
func RecordGameEnd(s *streettag.UserStats, won bool, survival, elapsed time.Duration, opponentIDs []string) {
	s.GamesPlayed++
	s.TotalPlayTime += elapsed
	if won {
		s.GamesWon++
	}
	if survival > s.LongestSurvival {
		s.LongestSurvival = survival
	}
	if s.UniqueOpponents == nil {
		s.UniqueOpponents = make(map[string]struct{}, len(opponentIDs))
	}
	for _, id := range opponentIDs {
		s.UniqueOpponents[id] = struct{}{}
	}
}

const dateLayout = "2006-01-02"

// UpdateStreaks advances the win and daily streaks for a game played
// on today's date. The daily streak continues only across consecutive
// calendar days; a second game on the same day leaves it untouched.
// Best-of-each are ratchets and never decrease.
func UpdateStreaks(s *streettag.UserStats, won bool, today time.Time) {
	date := today.Format(dateLayout)

	switch {
	case s.LastPlayDate == "":
		s.CurrentDailyStreak = 1
	case s.LastPlayDate == date:
		// Same day, streak unchanged.
	default:
		last, err := time.Parse(dateLayout, s.LastPlayDate)
		day, _ := time.Parse(dateLayout, date)
		if err == nil && day.Sub(last) == 24*time.Hour {
			s.CurrentDailyStreak++
		} else {
			s.CurrentDailyStreak = 1
		}
	}
	s.LastPlayDate = date
	if s.CurrentDailyStreak > s.BestDailyStreak {
		s.BestDailyStreak = s.CurrentDailyStreak
	}

	if won {
		s.CurrentWinStreak++
		if s.CurrentWinStreak > s.BestWinStreak {
			s.BestWinStreak = s.CurrentWinStreak
		}
	} else {
		s.CurrentWinStreak = 0
	}
}
