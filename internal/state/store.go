package state

import (
	"errors"
	"sync"
)

// Event identifies which slice of AppState a mutation touched. The sync
// engine subscribes to these instead of re-running watchers on every render,
// one documented action per event.
type Event int

const (
	// EventSessionStarted fires when a user's state is created
	EventSessionStarted Event = iota
	// EventProfileChanged fires when servings, age group, allergies or balance change
	EventProfileChanged
	// EventListChanged fires when the shopping list changes
	EventListChanged
	// EventViewChanged fires on navigation
	EventViewChanged
	// EventSignedOut fires when the user's state is discarded
	EventSignedOut
)

// Handler receives the state as it was right after the mutation
type Handler func(userID int, s AppState)

// ErrNoSession is returned for users without an active state
var ErrNoSession = errors.New("no active session state")

// Store owns one AppState per authenticated user. All mutations go through
// Update, which applies the function to a deep copy and swaps the result in,
// then publishes the declared events outside the lock.
type Store struct {
	mu       sync.Mutex
	sessions map[int]AppState
	subs     map[Event][]Handler
}

// NewStore creates an empty state store
func NewStore() *Store {
	return &Store{
		sessions: make(map[int]AppState),
		subs:     make(map[Event][]Handler),
	}
}

// Subscribe registers a handler for one event. Not safe to call after the
// server starts serving; subscriptions are wired once at startup.
func (st *Store) Subscribe(ev Event, h Handler) {
	st.subs[ev] = append(st.subs[ev], h)
}

// Active reports whether the user has session state
func (st *Store) Active(userID int) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	_, ok := st.sessions[userID]
	return ok
}

// Get returns a copy of the user's state
func (st *Store) Get(userID int) (AppState, error) {
	st.mu.Lock()
	s, ok := st.sessions[userID]
	st.mu.Unlock()
	if !ok {
		return AppState{}, ErrNoSession
	}
	return s.clone(), nil
}

// Begin creates the post-sign-in default state for a user and publishes
// EventSessionStarted. Calling it for an active session is a no-op.
func (st *Store) Begin(userID int) AppState {
	st.mu.Lock()
	if s, ok := st.sessions[userID]; ok {
		st.mu.Unlock()
		return s.clone()
	}
	s := NewSessionState(userID)
	st.sessions[userID] = s
	st.mu.Unlock()

	st.publish(EventSessionStarted, userID, s)
	return s.clone()
}

// Update applies fn to a copy of the user's state, replaces the stored
// object with the result, and publishes the given events in order
func (st *Store) Update(userID int, fn func(AppState) AppState, events ...Event) (AppState, error) {
	st.mu.Lock()
	s, ok := st.sessions[userID]
	if !ok {
		st.mu.Unlock()
		return AppState{}, ErrNoSession
	}
	next := fn(s.clone())
	next.UserID = userID
	st.sessions[userID] = next
	st.mu.Unlock()

	for _, ev := range events {
		st.publish(ev, userID, next)
	}
	return next.clone(), nil
}

// End discards the user's state unconditionally: the sign-out transition.
// Whatever view the user was on, everything in memory is dropped and the
// next state is the unauthenticated default (view auth).
func (st *Store) End(userID int) {
	st.mu.Lock()
	s, ok := st.sessions[userID]
	if ok {
		delete(st.sessions, userID)
	}
	st.mu.Unlock()

	if ok {
		s.View = ViewAuth
		st.publish(EventSignedOut, userID, s)
	}
}

func (st *Store) publish(ev Event, userID int, s AppState) {
	for _, h := range st.subs[ev] {
		h(userID, s.clone())
	}
}
