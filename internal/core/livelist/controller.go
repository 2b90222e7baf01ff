// Package livelist keeps the admin user collection eventually consistent
// with the backend: one full fetch at startup, then a full re-fetch for
// every users-changed push signal. There is no local diffing, so duplicate
// or reordered signals cost at most a redundant fetch.
package livelist

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/usermgmt/account-console/internal/core/domain"
	"github.com/usermgmt/account-console/internal/core/ports"
)

// State describes the list lifecycle: Idle until the first fetch is issued,
// Loading while one is outstanding, Ready once a result is on display.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
)

// Controller owns the admin's user collection. No other component mutates
// it; consumers read snapshots via Users and are told about applied
// refreshes through OnUpdate.
type Controller struct {
	gw    ports.Gateway
	token string
	log   zerolog.Logger

	// OnUpdate, when set before Start, is called after every applied
	// refresh with the new collection. It runs on the controller's
	// goroutines, so implementations must be safe to call concurrently
	// with the console loop.
	OnUpdate func(users []domain.UserRecord)

	mu         sync.Mutex
	state      State
	users      []domain.UserRecord
	issuedSeq  uint64
	appliedSeq uint64

	notify    chan struct{}
	done      chan struct{}
	sub       ports.Subscription
	closeOnce sync.Once
}

// NewController builds a controller for the given admin bearer token.
func NewController(gw ports.Gateway, token string, log zerolog.Logger) *Controller {
	return &Controller{
		gw:     gw,
		token:  token,
		log:    log.With().Str("component", "livelist").Logger(),
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Start opens the push subscription and performs the initial fetch. A
// subscription failure aborts the start; an initial fetch failure is
// returned like any other fetch failure and leaves the list empty until a
// later refresh succeeds.
func (c *Controller) Start(ctx context.Context) error {
	sub, err := c.gw.Subscribe(ctx, c.token)
	if err != nil {
		return err
	}
	c.sub = sub

	go c.watch(ctx, sub)
	go c.run(ctx)

	return c.Refresh(ctx)
}

// Refresh re-fetches the whole collection. Only the newest issued fetch may
// publish its result (last-fetch-wins); a slower, older fetch resolving
// afterwards is discarded. A failed fetch keeps the previously displayed
// list — stale-but-available beats empty.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.issuedSeq++
	seq := c.issuedSeq
	c.state = StateLoading
	c.mu.Unlock()

	users, err := c.gw.ListUsers(ctx, c.token)

	c.mu.Lock()
	if err != nil {
		if c.issuedSeq == seq {
			if c.appliedSeq > 0 {
				c.state = StateReady
			} else {
				c.state = StateIdle
			}
		}
		c.mu.Unlock()
		return err
	}
	if seq <= c.appliedSeq {
		// A newer fetch already published; drop this result.
		c.mu.Unlock()
		return nil
	}
	c.appliedSeq = seq
	c.users = users
	c.state = StateReady
	onUpdate := c.OnUpdate
	snapshot := append([]domain.UserRecord(nil), users...)
	c.mu.Unlock()

	if onUpdate != nil {
		onUpdate(snapshot)
	}
	return nil
}

// Users returns a snapshot of the displayed collection.
func (c *Controller) Users() []domain.UserRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.UserRecord(nil), c.users...)
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close tears down the push subscription and stops the refresh workers.
// This is the controller's only required cleanup: fetches still in flight
// are allowed to complete and their results simply go unread.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.sub != nil {
			_ = c.sub.Close()
		}
	})
}

// watch filters the push stream for the users-changed signal. A burst of
// signals coalesces into the single buffered notify slot, so N signals
// cause at least one but possibly fewer than N additional fetches.
func (c *Controller) watch(ctx context.Context, sub ports.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case name, ok := <-sub.Signals():
			if !ok {
				return
			}
			if name != domain.SignalUsersChanged {
				continue
			}
			select {
			case c.notify <- struct{}{}:
			default:
			}
		}
	}
}

// run serialises push-triggered refreshes so at most one is in flight.
func (c *Controller) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case <-c.notify:
			if err := c.Refresh(ctx); err != nil {
				c.log.Warn().Err(err).Msg("push-triggered refresh failed, keeping displayed list")
			}
		}
	}
}
