package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Street Tag API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the Street Tag location game.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// POST /api/games
	postGames, _ := r.NewOperationContext(http.MethodPost, "/api/games")
	postGames.SetSummary("Create game")
	postGames.SetDescription("Host creates a waiting game and receives its join code plus a session token.")
	postGames.AddReqStructure(CreateGameRequest{})
	postGames.AddRespStructure(GameResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	postGames.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postGames)

	// GET /api/games/code/{joinCode}
	getCode, _ := r.NewOperationContext(http.MethodGet, "/api/games/code/{joinCode}")
	getCode.SetSummary("Look up game by join code")
	getCode.SetDescription("Peek at a waiting game before joining.")
	getCode.AddRespStructure(CodeLookupResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getCode.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getCode)

	// POST /api/games/join
	postJoin, _ := r.NewOperationContext(http.MethodPost, "/api/games/join")
	postJoin.SetSummary("Join a game")
	postJoin.SetDescription("Join a waiting game by its code. Re-joining is a no-op. Returns a session token.")
	postJoin.AddReqStructure(JoinGameRequest{})
	postJoin.AddRespStructure(GameResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postJoin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postJoin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postJoin)

	// POST /api/games/{gameID}/start
	postStart, _ := r.NewOperationContext(http.MethodPost, "/api/games/{gameID}/start")
	postStart.SetSummary("Start game")
	postStart.SetDescription("Host starts the game; IT is assigned uniformly at random. Requires Bearer token.")
	postStart.AddRespStructure(GameResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postStart.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postStart)

	// POST /api/games/{gameID}/tag
	postTag, _ := r.NewOperationContext(http.MethodPost, "/api/games/{gameID}/tag")
	postTag.SetSummary("Attempt a tag")
	postTag.SetDescription("The IT player attempts to tag a target. Policy denials return 422 with a reason code.")
	postTag.AddReqStructure(TagRequest{})
	postTag.AddRespStructure(TagResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postTag.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnprocessableEntity))
	postTag.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postTag)

	// POST /api/games/{gameID}/location
	postLoc, _ := r.NewOperationContext(http.MethodPost, "/api/games/{gameID}/location")
	postLoc.SetSummary("Submit location tick")
	postLoc.SetDescription("Reports a GPS fix. Fixes implying impossible speed are rejected.")
	postLoc.AddReqStructure(LocationTick{})
	postLoc.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNoContent))
	postLoc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnprocessableEntity))
	_ = r.AddOperation(postLoc)

	// GET /api/games/{gameID}/state
	getState, _ := r.NewOperationContext(http.MethodGet, "/api/games/{gameID}/state")
	getState.SetSummary("Get game snapshot")
	getState.SetDescription("Returns an immutable snapshot of the live game. Requires Bearer token.")
	getState.AddRespStructure(GameResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getState.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getState)

	// GET /api/games/{gameID}/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/games/{gameID}/events")
	getEvents.SetSummary("SSE event stream")
	getEvents.SetDescription("Server-Sent Events stream of game events. Pass token as query parameter.")
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	// GET /api/games/{gameID}/history
	getHistory, _ := r.NewOperationContext(http.MethodGet, "/api/games/{gameID}/history")
	getHistory.SetSummary("Game history")
	getHistory.SetDescription("Returns the retained record of an ended game, tag ledger included.")
	getHistory.AddRespStructure(GameResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHistory.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getHistory)

	// GET /api/users/{userID}/stats
	getStats, _ := r.NewOperationContext(http.MethodGet, "/api/users/{userID}/stats")
	getStats.SetSummary("User stats")
	getStats.AddRespStructure(UserStatsResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getStats)

	// GET /api/leaderboards/survival
	getBoard, _ := r.NewOperationContext(http.MethodGet, "/api/leaderboards/survival")
	getBoard.SetSummary("Survival leaderboard")
	getBoard.AddRespStructure(LeaderboardResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getBoard)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		json.NewEncoder(w).Encode(spec)
	}
}
