package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/streettag/api/internal/streettag"
)

type captureSink struct {
	mu     sync.Mutex
	events []Event
}

func (c *captureSink) Publish(_ string, ev Event) {
	c.mu.Lock()
	c.events = append(c.events, ev)
	c.mu.Unlock()
}

func (c *captureSink) types() []EventType {
	c.mu.Lock()
	defer c.mu.Unlock()
	ts := make([]EventType, len(c.events))
	for i, ev := range c.events {
		ts[i] = ev.Type
	}
	return ts
}

func newTestSession(t *testing.T, durCap time.Duration, sink EventSink) *Session {
	t.Helper()
	settings := testSettings()
	settings.DurationCap = durCap
	m, err := NewMachine(User{ID: "p1", Name: "Host"}, settings, DefaultLimits(), t0)
	if err != nil {
		t.Fatal(err)
	}
	m.pick = func(int) int { return 0 }
	if _, err := m.Join(User{ID: "p2", Name: "Two"}, t0.Add(time.Second)); err != nil {
		t.Fatal(err)
	}
	return NewSession(m, sink)
}

func TestSessionPublishesEvents(t *testing.T) {
	sink := &captureSink{}
	s := newTestSession(t, 0, sink)

	if _, _, err := s.Start(t0); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := s.AttemptTag("p1", "p2", t0.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.End("", t0.Add(2*time.Minute)); err != nil {
		t.Fatal(err)
	}

	want := []EventType{EventGameStarted, EventTagOccurred, EventGameEnded}
	got := sink.types()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestSessionExpiresOnDurationCap(t *testing.T) {
	sink := &captureSink{}
	s := newTestSession(t, 30*time.Minute, sink)

	if _, _, err := s.Start(t0); err != nil {
		t.Fatal(err)
	}

	// The first command past the cap ends the game before running.
	_, _, _, err := s.AttemptTag("p1", "p2", t0.Add(31*time.Minute))
	if streettag.CodeOf(err) != streettag.CodeGameNotActive {
		t.Fatalf("err = %v, want %s", err, streettag.CodeGameNotActive)
	}

	g := s.Snapshot()
	if g.Status != streettag.GameStatusEnded {
		t.Errorf("status = %s, want ended", g.Status)
	}
	if g.WinnerID != "p2" {
		t.Errorf("winner = %s, want surviving p2", g.WinnerID)
	}

	var sawEnd bool
	for _, typ := range sink.types() {
		if typ == EventGameEnded {
			sawEnd = true
		}
	}
	if !sawEnd {
		t.Error("expiry did not publish game_ended")
	}
}

func TestSessionSnapshotIsolated(t *testing.T) {
	s := newTestSession(t, 0, nil)
	if _, _, err := s.Start(t0); err != nil {
		t.Fatal(err)
	}

	snap := s.Snapshot()
	snap.Players[0].Name = "mutated"
	snap.ItPlayerID = "nobody"

	fresh := s.Snapshot()
	if fresh.Players[0].Name == "mutated" || fresh.ItPlayerID == "nobody" {
		t.Error("snapshot mutation leaked into the live game")
	}
}
