package engine

import (
	"sync"
	"time"

	"github.com/streettag/api/internal/streettag"
)

// Registry holds the live game sessions, addressable by game id and
// by join code. Ended games are removed once persisted; history lives
// in the store, not here.
type Registry struct {
	limits Limits
	sink   EventSink

	mu      sync.RWMutex
	byID    map[string]*Session
	byCode  map[string]string
}

func NewRegistry(limits Limits, sink EventSink) *Registry {
	return &Registry{
		limits: limits,
		sink:   sink,
		byID:   make(map[string]*Session),
		byCode: make(map[string]string),
	}
}

// Create starts a new waiting game hosted by host.
func (r *Registry) Create(host User, settings streettag.GameSettings, now time.Time) (*Session, *streettag.Game, error) {
	m, err := NewMachine(host, settings, r.limits, now)
	if err != nil {
		return nil, nil, err
	}
	s := NewSession(m, r.sink)
	g := m.Snapshot()

	r.mu.Lock()
	r.byID[g.ID] = s
	r.byCode[g.JoinCode] = g.ID
	r.mu.Unlock()

	return s, g, nil
}

func (r *Registry) Get(gameID string) (*Session, bool) {
	r.mu.RLock()
	s, ok := r.byID[gameID]
	r.mu.RUnlock()
	return s, ok
}

func (r *Registry) GetByCode(code string) (*Session, bool) {
	r.mu.RLock()
	id, ok := r.byCode[code]
	s := r.byID[id]
	r.mu.RUnlock()
	return s, ok && s != nil
}

// Remove drops an ended game from the live set.
func (r *Registry) Remove(gameID string) {
	r.mu.Lock()
	if s, ok := r.byID[gameID]; ok {
		g := s.Snapshot()
		delete(r.byCode, g.JoinCode)
		delete(r.byID, gameID)
	}
	r.mu.Unlock()
}

// Len reports how many live sessions the registry holds.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
