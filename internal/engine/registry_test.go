package engine

import (
	"testing"
	"time"

	"github.com/streettag/api/internal/streettag"
)

func TestRegistryLifecycle(t *testing.T) {
	r := NewRegistry(DefaultLimits(), nil)

	sess, game, err := r.Create(User{ID: "host", Name: "Host"}, testSettings(), t0)
	if err != nil {
		t.Fatalf("creating game: %v", err)
	}
	if r.Len() != 1 {
		t.Errorf("len = %d, want 1", r.Len())
	}

	got, ok := r.Get(game.ID)
	if !ok || got != sess {
		t.Errorf("Get(%s) = %v, %v", game.ID, got, ok)
	}
	byCode, ok := r.GetByCode(game.JoinCode)
	if !ok || byCode != sess {
		t.Errorf("GetByCode(%s) = %v, %v", game.JoinCode, byCode, ok)
	}

	r.Remove(game.ID)
	if _, ok := r.Get(game.ID); ok {
		t.Error("game still addressable after Remove")
	}
	if _, ok := r.GetByCode(game.JoinCode); ok {
		t.Error("join code still addressable after Remove")
	}
	if r.Len() != 0 {
		t.Errorf("len = %d, want 0", r.Len())
	}
}

func TestRegistryRejectsInvalidSettings(t *testing.T) {
	r := NewRegistry(DefaultLimits(), nil)
	_, _, err := r.Create(User{ID: "host", Name: "Host"},
		streettag.GameSettings{TagRadiusMeters: 0, MaxPlayers: 8}, time.Now())
	if streettag.CodeOf(err) != streettag.CodeInvalidSettings {
		t.Errorf("err = %v, want %s", err, streettag.CodeInvalidSettings)
	}
	if r.Len() != 0 {
		t.Errorf("len = %d after rejected create", r.Len())
	}
}
