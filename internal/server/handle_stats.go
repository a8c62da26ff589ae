package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/streettag/api/internal/leaderboard"
	"github.com/streettag/api/internal/stats"
	"github.com/streettag/api/internal/streettag"
)

type UserStatsResponse struct {
	Stats           *streettag.UserStats `json:"stats"`
	UniqueOpponents int                  `json:"uniqueOpponents"`
}

func handleUserStats(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		st, err := d.Store.UserStats(r.Context(), userID)
		if err != nil {
			d.Logger.Error("loading user stats", "user", userID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, UserStatsResponse{
			Stats:           st,
			UniqueOpponents: len(st.UniqueOpponents),
		})
	}
}

type AchievementInfo struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Unlocked    bool   `json:"unlocked"`
}

type AchievementsResponse struct {
	Achievements []AchievementInfo `json:"achievements"`
}

func handleUserAchievements(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		unlocked, err := d.Store.UnlockedAchievements(r.Context(), userID)
		if err != nil {
			d.Logger.Error("loading achievements", "user", userID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		resp := AchievementsResponse{Achievements: make([]AchievementInfo, 0, len(stats.Achievements))}
		for _, a := range stats.Achievements {
			resp.Achievements = append(resp.Achievements, AchievementInfo{
				ID:          a.ID,
				Title:       a.Title,
				Description: a.Description,
				Unlocked:    unlocked[a.ID],
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

type LeaderboardResponse struct {
	Board   string              `json:"board"`
	Entries []leaderboard.Entry `json:"entries"`
}

func handleLeaderboard(d *Deps, board string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Board == nil {
			writeError(w, http.StatusServiceUnavailable, "leaderboards unavailable")
			return
		}

		n := int64(10)
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil && parsed > 0 && parsed <= 100 {
				n = parsed
			}
		}

		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		var entries []leaderboard.Entry
		var err error
		switch board {
		case "survival":
			entries, err = d.Board.TopSurvivors(ctx, n)
		case "tags":
			entries, err = d.Board.TopTaggers(ctx, n)
		}
		if err != nil {
			d.Logger.Error("loading leaderboard", "board", board, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if entries == nil {
			entries = []leaderboard.Entry{}
		}
		writeJSON(w, http.StatusOK, LeaderboardResponse{Board: board, Entries: entries})
	}
}
