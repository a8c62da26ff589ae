package server

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/streettag/api/internal/engine"
	"github.com/streettag/api/internal/leaderboard"
	"github.com/streettag/api/internal/store"
)

// Deps carries everything the handlers need. Sessions and Broker are
// created here when the caller leaves them nil.
type Deps struct {
	Logger   *slog.Logger
	Registry *engine.Registry
	Store    *store.Store
	Broker   *Broker
	Board    *leaderboard.Board
	Sessions *sessionStore
	Health   []HealthChecker
}

func addRoutes(r chi.Router, d *Deps) {
	if d.Sessions == nil {
		d.Sessions = newSessionStore()
	}

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Street Tag API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(d))

	r.Route("/api", func(r chi.Router) {
		r.Post("/games", handleCreateGame(d))
		r.Get("/games/code/{joinCode}", handleCodeLookup(d))
		r.Post("/games/join", handleJoinGame(d))

		r.Get("/games/{gameID}/history", handleGameHistory(d))

		// Everything below requires a live player session.
		r.Group(func(r chi.Router) {
			r.Use(d.requireSession)
			r.Post("/games/{gameID}/start", handleStartGame(d))
			r.Post("/games/{gameID}/tag", handleTag(d))
			r.Post("/games/{gameID}/leave", handleLeaveGame(d))
			r.Post("/games/{gameID}/end", handleEndGame(d))
			r.Post("/games/{gameID}/pause", handlePauseGame(d))
			r.Post("/games/{gameID}/resume", handleResumeGame(d))
			r.Get("/games/{gameID}/state", handleGameState(d))
			r.Post("/games/{gameID}/location", handleLocationTick(d))
			r.Get("/games/{gameID}/location/ws", handleLocationStream(d))
			r.Put("/games/{gameID}/zones", handlePersonalZones(d))
			r.Get("/games/{gameID}/events", handleEvents(d))
		})

		r.Get("/users/{userID}/stats", handleUserStats(d))
		r.Get("/users/{userID}/achievements", handleUserAchievements(d))
		r.Get("/leaderboards/survival", handleLeaderboard(d, "survival"))
		r.Get("/leaderboards/tags", handleLeaderboard(d, "tags"))
	})
}
