// Package reconcile keeps a client-facing view of a game consistent
// with an authoritative event stream. Locally-originated mutations
// apply immediately and are journalled as optimistic; server events
// always win, discarding any optimistic branch they conflict with and
// rebasing whatever survives.
package reconcile

import (
	"sync"
	"time"

	"github.com/streettag/api/internal/engine"
	"github.com/streettag/api/internal/streettag"
)

// Mutation is one state change, expressed as a transition on the
// machine. Key names the logical transition — two mutations with the
// same key describe the same slot in game history and therefore
// conflict. For a tag this is the IT transfer being resolved, e.g.
// TagKey(currentItID).
type Mutation struct {
	ID    string
	Key   string
	Apply func(*engine.Machine) error
}

// TagKey is the conflict key for the IT transfer away from itPlayerID.
// A local optimistic tag and a different server-confirmed tag for the
// same holder collide on it.
func TagKey(itPlayerID string) string { return "tag:" + itPlayerID }

type pendingMutation struct {
	Mutation
	deadline time.Time
}

// Reconciler applies optimistic mutations on top of an authoritative
// base and replaces them as server truth arrives.
type Reconciler struct {
	mu      sync.Mutex
	base    *engine.Machine
	view    *engine.Machine
	pending []pendingMutation
	timeout time.Duration
}

// New wraps the authoritative machine. timeout bounds how long an
// optimistic mutation may await confirmation before it is rolled back
// and surfaced as retryable.
func New(base *engine.Machine, timeout time.Duration) *Reconciler {
	return &Reconciler{
		base:    base,
		view:    base.Clone(),
		timeout: timeout,
	}
}

// Snapshot returns the current view: authoritative base plus pending
// optimistic mutations.
func (r *Reconciler) Snapshot() *streettag.Game {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.view.Snapshot()
}

// PendingIDs lists unconfirmed optimistic mutations, oldest first.
func (r *Reconciler) PendingIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, len(r.pending))
	for i, p := range r.pending {
		ids[i] = p.ID
	}
	return ids
}

// ApplyOptimistic applies a local mutation to the view immediately so
// it is visible before server confirmation. A mutation the view
// rejects is returned as an error and never journalled.
func (r *Reconciler) ApplyOptimistic(mut Mutation, now time.Time) (*streettag.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := mut.Apply(r.view); err != nil {
		return nil, err
	}
	r.pending = append(r.pending, pendingMutation{
		Mutation: mut,
		deadline: now.Add(r.timeout),
	})
	return r.view.Snapshot(), nil
}

// ApplyAuthoritative applies a server-confirmed mutation to the base.
// A pending optimistic mutation with the same key is superseded, and
// every optimistic mutation chained after it is discarded with it —
// they were derived from a branch of history that did not happen.
// Survivors are rebased onto the new base; any that no longer apply
// are dropped too. Returns the new view and the ids of every
// discarded optimistic mutation.
func (r *Reconciler) ApplyAuthoritative(mut Mutation, now time.Time) (*streettag.Game, []string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := mut.Apply(r.base); err != nil {
		return nil, nil, err
	}

	var dropped []string
	for i, p := range r.pending {
		if p.Key == mut.Key {
			for _, d := range r.pending[i:] {
				dropped = append(dropped, d.ID)
			}
			r.pending = r.pending[:i]
			break
		}
	}

	dropped = append(dropped, r.rebase()...)
	return r.view.Snapshot(), dropped, nil
}

// ExpireStale rolls back optimistic mutations whose confirmation
// deadline has passed, returning their ids so callers can surface a
// retryable failure for each.
func (r *Reconciler) ExpireStale(now time.Time) (*streettag.Game, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var expired []string
	keep := r.pending[:0]
	for _, p := range r.pending {
		if now.After(p.deadline) {
			expired = append(expired, p.ID)
		} else {
			keep = append(keep, p)
		}
	}
	if len(expired) == 0 {
		return r.view.Snapshot(), nil
	}
	r.pending = keep

	expired = append(expired, r.rebase()...)
	return r.view.Snapshot(), expired
}

// rebase rebuilds the view from the base and replays the surviving
// pending mutations in order, dropping any the new history rejects.
// Derived state cached off the old view is invalid after this; the
// caller re-derives from the returned snapshot.
func (r *Reconciler) rebase() []string {
	r.view = r.base.Clone()
	var dropped []string
	keep := r.pending[:0]
	for _, p := range r.pending {
		if err := p.Apply(r.view); err != nil {
			dropped = append(dropped, p.ID)
			continue
		}
		keep = append(keep, p)
	}
	r.pending = keep
	return dropped
}
