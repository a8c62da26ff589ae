package server

import (
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
)

type playerSession struct {
	Token  string
	UserID string
	GameID string
}

var errNoSession = errors.New("no valid session")

// sessionStore maps bearer tokens to live player sessions. Live games
// are in-memory, so their sessions are too; history needs no tokens.
type sessionStore struct {
	mu     sync.RWMutex
	byToken map[string]playerSession
}

func newSessionStore() *sessionStore {
	return &sessionStore{byToken: make(map[string]playerSession)}
}

func (s *sessionStore) Issue(userID, gameID string) string {
	token := uuid.NewString()
	s.mu.Lock()
	s.byToken[token] = playerSession{Token: token, UserID: userID, GameID: gameID}
	s.mu.Unlock()
	return token
}

func (s *sessionStore) Lookup(token string) (playerSession, bool) {
	s.mu.RLock()
	sess, ok := s.byToken[token]
	s.mu.RUnlock()
	return sess, ok
}

func (s *sessionStore) Revoke(token string) {
	s.mu.Lock()
	delete(s.byToken, token)
	s.mu.Unlock()
}

// RevokeGame drops every session belonging to an ended game.
func (s *sessionStore) RevokeGame(gameID string) {
	s.mu.Lock()
	for token, sess := range s.byToken {
		if sess.GameID == gameID {
			delete(s.byToken, token)
		}
	}
	s.mu.Unlock()
}

func (d *Deps) playerFromRequest(r *http.Request) (playerSession, error) {
	auth := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(auth, "Bearer ")
	if !found || token == "" {
		// SSE and WebSocket clients cannot set headers; fall back to a
		// query parameter for them.
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return playerSession{}, errNoSession
	}
	sess, ok := d.Sessions.Lookup(token)
	if !ok {
		return playerSession{}, errNoSession
	}
	return sess, nil
}
