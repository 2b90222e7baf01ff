// Package confirm implements the two-step guard placed in front of
// irreversible admin operations: a target is first staged, then the
// operation runs only on an explicit confirm.
package confirm

import (
	"context"
	"sync"

	"github.com/usermgmt/account-console/internal/core/domain"
)

// Action executes the guarded destructive operation against the confirmed
// target.
type Action func(ctx context.Context, target domain.UserRecord) error

// Gate holds at most one pending target between "requested" and
// "confirmed or cancelled". A single request can never trigger the action
// on its own.
type Gate struct {
	action Action

	mu      sync.Mutex
	pending *domain.UserRecord
}

// NewGate wraps action behind the confirmation protocol.
func NewGate(action Action) *Gate {
	return &Gate{action: action}
}

// Request stages target, replacing any previously staged one.
func (g *Gate) Request(target domain.UserRecord) {
	g.mu.Lock()
	g.pending = &target
	g.mu.Unlock()
}

// Pending returns the staged target, if any.
func (g *Gate) Pending() (domain.UserRecord, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending == nil {
		return domain.UserRecord{}, false
	}
	return *g.pending, true
}

// Cancel discards the staged target without executing anything.
func (g *Gate) Cancel() {
	g.mu.Lock()
	g.pending = nil
	g.mu.Unlock()
}

// Confirm runs the action against the staged target. With nothing pending
// it is a no-op and reports executed=false. The gate returns to idle before
// the action runs, so it is back in a usable state whether the action
// succeeds or fails.
func (g *Gate) Confirm(ctx context.Context) (executed bool, err error) {
	g.mu.Lock()
	target := g.pending
	g.pending = nil
	g.mu.Unlock()

	if target == nil {
		return false, nil
	}
	return true, g.action(ctx, *target)
}
