package state

import (
	"context"
	"sync"
)

// RequestTracker issues cancellable request handles grouped per user and
// view. Navigating away from a view invalidates its group, cancelling every
// in-flight request so late completions are dropped deterministically
// instead of being gated behind a polled liveness flag.
type RequestTracker struct {
	mu     sync.Mutex
	groups map[groupKey]*requestGroup
}

type groupKey struct {
	userID int
	view   View
}

type requestGroup struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// RequestHandle is one cancellable request within a view's group
type RequestHandle struct {
	ctx context.Context
}

// Context returns the handle's context; it is done once the owning view's
// group has been invalidated
func (h *RequestHandle) Context() context.Context {
	return h.ctx
}

// Live reports whether the result of this request should still be applied
func (h *RequestHandle) Live() bool {
	return h.ctx.Err() == nil
}

// NewRequestTracker creates an empty tracker
func NewRequestTracker() *RequestTracker {
	return &RequestTracker{groups: make(map[groupKey]*requestGroup)}
}

// Issue returns a handle tied to the user's current group for the view,
// creating the group on first use
func (t *RequestTracker) Issue(userID int, view View) *RequestHandle {
	key := groupKey{userID: userID, view: view}

	t.mu.Lock()
	g, ok := t.groups[key]
	if !ok {
		ctx, cancel := context.WithCancel(context.Background())
		g = &requestGroup{ctx: ctx, cancel: cancel}
		t.groups[key] = g
	}
	t.mu.Unlock()

	return &RequestHandle{ctx: g.ctx}
}

// Invalidate cancels every outstanding request in the user's group for the
// view. The next Issue for the same view starts a fresh group.
func (t *RequestTracker) Invalidate(userID int, view View) {
	key := groupKey{userID: userID, view: view}

	t.mu.Lock()
	g, ok := t.groups[key]
	if ok {
		delete(t.groups, key)
	}
	t.mu.Unlock()

	if ok {
		g.cancel()
	}
}

// InvalidateAll cancels every group the user owns, used on sign-out
func (t *RequestTracker) InvalidateAll(userID int) {
	t.mu.Lock()
	var cancelled []*requestGroup
	for key, g := range t.groups {
		if key.userID == userID {
			cancelled = append(cancelled, g)
			delete(t.groups, key)
		}
	}
	t.mu.Unlock()

	for _, g := range cancelled {
		g.cancel()
	}
}
