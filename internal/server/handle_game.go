package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/streettag/api/internal/engine"
	"github.com/streettag/api/internal/streettag"
)

type CreateGameRequest struct {
	Name      string                 `json:"name"`
	UserID    string                 `json:"userId,omitempty"`
	AvatarURL string                 `json:"avatarUrl,omitempty"`
	Settings  streettag.GameSettings `json:"settings"`
}

type GameResponse struct {
	Token  string          `json:"token,omitempty"`
	UserID string          `json:"userId,omitempty"`
	Game   *streettag.Game `json:"game"`
}

func handleCreateGame(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateGameRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}
		if req.UserID == "" {
			req.UserID = uuid.NewString()
		}

		host := engine.User{ID: req.UserID, Name: req.Name, AvatarURL: req.AvatarURL}
		_, game, err := d.Registry.Create(host, req.Settings, time.Now())
		if err != nil {
			writeEngineError(w, err)
			return
		}

		token := d.Sessions.Issue(req.UserID, game.ID)
		writeJSON(w, http.StatusCreated, GameResponse{
			Token:  token,
			UserID: req.UserID,
			Game:   game,
		})
	}
}

type CodeLookupResponse struct {
	GameID     string `json:"gameId"`
	HostName   string `json:"hostName"`
	Players    int    `json:"players"`
	MaxPlayers int    `json:"maxPlayers"`
	Status     string `json:"status"`
}

func handleCodeLookup(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "joinCode")))
		sess, ok := d.Registry.GetByCode(code)
		if !ok {
			writeError(w, http.StatusNotFound, "no game with that code")
			return
		}
		g := sess.Snapshot()
		hostName := ""
		if host := g.PlayerByID(g.HostID); host != nil {
			hostName = host.Name
		}
		writeJSON(w, http.StatusOK, CodeLookupResponse{
			GameID:     g.ID,
			HostName:   hostName,
			Players:    len(g.Players),
			MaxPlayers: g.Settings.MaxPlayers,
			Status:     string(g.Status),
		})
	}
}

type JoinGameRequest struct {
	JoinCode  string `json:"joinCode"`
	Name      string `json:"name"`
	UserID    string `json:"userId,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

func handleJoinGame(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req JoinGameRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		req.JoinCode = strings.ToUpper(strings.TrimSpace(req.JoinCode))
		if req.Name == "" || req.JoinCode == "" {
			writeError(w, http.StatusBadRequest, "joinCode and name are required")
			return
		}
		if req.UserID == "" {
			req.UserID = uuid.NewString()
		}

		sess, ok := d.Registry.GetByCode(req.JoinCode)
		if !ok {
			writeError(w, http.StatusNotFound, "no game with that code")
			return
		}

		user := engine.User{ID: req.UserID, Name: req.Name, AvatarURL: req.AvatarURL}
		game, events, err := sess.Join(user, time.Now())
		d.afterEvents(r.Context(), sess, events)
		if err != nil {
			writeEngineError(w, err)
			return
		}

		token := d.Sessions.Issue(req.UserID, game.ID)
		writeJSON(w, http.StatusOK, GameResponse{
			Token:  token,
			UserID: req.UserID,
			Game:   game,
		})
	}
}

// requireLive resolves the session for the game in the URL, or writes
// the error itself.
func requireLive(d *Deps, w http.ResponseWriter, r *http.Request) (*engine.Session, bool) {
	gameID := chi.URLParam(r, "gameID")
	sess, ok := d.Registry.Get(gameID)
	if !ok {
		writeError(w, http.StatusNotFound, "game not found or already archived")
		return nil, false
	}
	return sess, true
}

func handleStartGame(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := requireLive(d, w, r)
		if !ok {
			return
		}
		if sess.Snapshot().HostID != sessionFrom(r).UserID {
			writeError(w, http.StatusForbidden, "only the host can start the game")
			return
		}
		game, events, err := sess.Start(time.Now())
		d.afterEvents(r.Context(), sess, events)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, GameResponse{Game: game})
	}
}

func handleLeaveGame(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := requireLive(d, w, r)
		if !ok {
			return
		}
		ps := sessionFrom(r)
		game, events, err := sess.Leave(ps.UserID, time.Now())
		d.afterEvents(r.Context(), sess, events)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		d.Sessions.Revoke(ps.Token)
		writeJSON(w, http.StatusOK, GameResponse{Game: game})
	}
}

type EndGameRequest struct {
	WinnerID string `json:"winnerId,omitempty"`
}

func handleEndGame(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := requireLive(d, w, r)
		if !ok {
			return
		}
		if sess.Snapshot().HostID != sessionFrom(r).UserID {
			writeError(w, http.StatusForbidden, "only the host can end the game")
			return
		}
		var req EndGameRequest
		if r.ContentLength > 0 {
			if err := readJSON(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
		}
		game, events, err := sess.End(req.WinnerID, time.Now())
		d.afterEvents(r.Context(), sess, events)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, GameResponse{Game: game})
	}
}

func handlePauseGame(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := requireLive(d, w, r)
		if !ok {
			return
		}
		if sess.Snapshot().HostID != sessionFrom(r).UserID {
			writeError(w, http.StatusForbidden, "only the host can pause the game")
			return
		}
		game, events, err := sess.Pause(time.Now())
		d.afterEvents(r.Context(), sess, events)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, GameResponse{Game: game})
	}
}

func handleResumeGame(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := requireLive(d, w, r)
		if !ok {
			return
		}
		if sess.Snapshot().HostID != sessionFrom(r).UserID {
			writeError(w, http.StatusForbidden, "only the host can resume the game")
			return
		}
		game, events, err := sess.Resume(time.Now())
		d.afterEvents(r.Context(), sess, events)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, GameResponse{Game: game})
	}
}

func handleGameState(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := requireLive(d, w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, GameResponse{
			UserID: sessionFrom(r).UserID,
			Game:   sess.Snapshot(),
		})
	}
}

type PersonalZonesRequest struct {
	Zones []streettag.NoTagZone `json:"zones"`
}

func handlePersonalZones(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := requireLive(d, w, r)
		if !ok {
			return
		}
		var req PersonalZonesRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := sess.SetPersonalZones(sessionFrom(r).UserID, req.Zones); err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, GameResponse{Game: sess.Snapshot()})
	}
}
