package engine

import (
	"sync"
	"time"

	"github.com/streettag/api/internal/streettag"
)

// EventSink receives engine events for fan-out to subscribers.
type EventSink interface {
	Publish(gameID string, ev Event)
}

// Session is the single-writer boundary around one game's Machine.
// Every mutation funnels through its mutex; readers get deep-copied
// snapshots. No interleaving can observe a game with two IT players
// or none.
type Session struct {
	mu   sync.Mutex
	m    *Machine
	sink EventSink
}

func NewSession(m *Machine, sink EventSink) *Session {
	return &Session{m: m, sink: sink}
}

func (s *Session) publish(events []Event) {
	if s.sink == nil {
		return
	}
	for _, ev := range events {
		s.sink.Publish(ev.GameID, ev)
	}
}

// expire ends the game if it has outrun its duration cap. Called
// under the lock before every command so expiry is observed even when
// no timer fires.
func (s *Session) expire(now time.Time) []Event {
	if !s.m.Expired(now) {
		return nil
	}
	events, err := s.m.End("", now)
	if err != nil {
		return nil
	}
	return events
}

// Snapshot returns an immutable copy of the game for readers.
func (s *Session) Snapshot() *streettag.Game {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.Snapshot()
}

func (s *Session) Join(user User, now time.Time) (*streettag.Game, []Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := s.expire(now)
	evs, err := s.m.Join(user, now)
	events = append(events, evs...)
	s.publish(events)
	if err != nil {
		return nil, events, err
	}
	return s.m.Snapshot(), events, nil
}

func (s *Session) Start(now time.Time) (*streettag.Game, []Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	events, err := s.m.Start(now)
	s.publish(events)
	if err != nil {
		return nil, events, err
	}
	return s.m.Snapshot(), events, nil
}

func (s *Session) AttemptTag(actorID, targetID string, now time.Time) (*streettag.Game, streettag.Tag, []Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := s.expire(now)
	tag, evs, err := s.m.AttemptTag(actorID, targetID, now)
	events = append(events, evs...)
	s.publish(events)
	if err != nil {
		return nil, streettag.Tag{}, events, err
	}
	return s.m.Snapshot(), tag, events, nil
}

func (s *Session) End(explicitWinnerID string, now time.Time) (*streettag.Game, []Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	events, err := s.m.End(explicitWinnerID, now)
	s.publish(events)
	if err != nil {
		return nil, events, err
	}
	return s.m.Snapshot(), events, nil
}

func (s *Session) Leave(userID string, now time.Time) (*streettag.Game, []Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := s.expire(now)
	evs, err := s.m.Leave(userID, now)
	events = append(events, evs...)
	s.publish(events)
	if err != nil {
		return nil, events, err
	}
	return s.m.Snapshot(), events, nil
}

func (s *Session) Pause(now time.Time) (*streettag.Game, []Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := s.expire(now)
	evs, err := s.m.Pause(now)
	events = append(events, evs...)
	s.publish(events)
	if err != nil {
		return nil, events, err
	}
	return s.m.Snapshot(), events, nil
}

func (s *Session) Resume(now time.Time) (*streettag.Game, []Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := s.expire(now)
	evs, err := s.m.Resume(now)
	events = append(events, evs...)
	s.publish(events)
	if err != nil {
		return nil, events, err
	}
	return s.m.Snapshot(), events, nil
}

func (s *Session) RecordLocation(playerID string, fix streettag.Fix) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := s.expire(fix.At)
	err := s.m.RecordLocation(playerID, fix)
	s.publish(events)
	return events, err
}

func (s *Session) SetPersonalZones(playerID string, zones []streettag.NoTagZone) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.SetPersonalZones(playerID, zones)
}
