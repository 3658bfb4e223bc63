// Package session models the identity collaborator at its interface
// boundary. The pipeline never talks to the identity provider itself;
// it receives a Manager holding the current session, asks it to
// validate (silent refresh) before doing work, and refuses to run
// unauthenticated. The manager is an explicit value passed to entry
// points, not a process-wide singleton, and notifies subscribers on
// every change so a UI layer can react.
package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotAuthenticated aborts a pipeline operation before any parsing
// work when no active user session exists.
var ErrNotAuthenticated = errors.New("not authenticated")

// Session is the current signed-in user's session snapshot.
type Session struct {
	UserID    string
	ExpiresAt time.Time
}

// Valid reports whether the session identifies a user and has not
// expired at time now.
func (s Session) Valid(now time.Time) bool {
	return s.UserID != "" && now.Before(s.ExpiresAt)
}

// Refresher attempts a silent refresh of an expired session against
// the external identity provider.
type Refresher func(ctx context.Context, expired Session) (Session, error)

// Manager holds the current session and notifies subscribers on
// change. Safe for concurrent use.
type Manager struct {
	mu      sync.Mutex
	current Session
	active  bool
	refresh Refresher
	subs    map[int]func(Session, bool)
	nextSub int

	// now is injectable for tests.
	now func() time.Time
}

// NewManager constructs a Manager with an optional refresher; nil
// disables silent refresh.
func NewManager(refresh Refresher) *Manager {
	return &Manager{
		refresh: refresh,
		subs:    make(map[int]func(Session, bool)),
		now:     time.Now,
	}
}

// Set installs a new session (sign-in or refresh done by the outer
// identity layer) and notifies subscribers.
func (m *Manager) Set(s Session) {
	m.mu.Lock()
	m.current = s
	m.active = true
	subs := m.snapshotSubs()
	m.mu.Unlock()

	for _, fn := range subs {
		fn(s, true)
	}
}

// Clear drops the current session (sign-out) and notifies subscribers.
func (m *Manager) Clear() {
	m.mu.Lock()
	m.current = Session{}
	m.active = false
	subs := m.snapshotSubs()
	m.mu.Unlock()

	for _, fn := range subs {
		fn(Session{}, false)
	}
}

// CurrentUserID returns the signed-in user id, or "" and false when
// no valid session exists.
func (m *Manager) CurrentUserID() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.active || !m.current.Valid(m.now()) {
		return "", false
	}
	return m.current.UserID, true
}

// IsAuthenticated reports whether a valid session is present.
func (m *Manager) IsAuthenticated() bool {
	_, ok := m.CurrentUserID()
	return ok
}

// Validate ensures a usable session, attempting a silent refresh when
// the current one has expired. It returns the user id or
// ErrNotAuthenticated.
func (m *Manager) Validate(ctx context.Context) (string, error) {
	m.mu.Lock()
	cur, active, refresh := m.current, m.active, m.refresh
	m.mu.Unlock()

	if !active || cur.UserID == "" {
		return "", ErrNotAuthenticated
	}
	if cur.Valid(m.now()) {
		return cur.UserID, nil
	}
	if refresh == nil {
		return "", ErrNotAuthenticated
	}

	renewed, err := refresh(ctx, cur)
	if err != nil || !renewed.Valid(m.now()) {
		return "", ErrNotAuthenticated
	}
	m.Set(renewed)
	return renewed.UserID, nil
}

// Subscribe registers a callback invoked with the session and its
// validity on every Set/Clear. The returned function unsubscribes.
func (m *Manager) Subscribe(fn func(s Session, ok bool)) func() {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// snapshotSubs copies the subscriber list; callers must hold mu.
func (m *Manager) snapshotSubs() []func(Session, bool) {
	out := make([]func(Session, bool), 0, len(m.subs))
	for _, fn := range m.subs {
		out = append(out, fn)
	}
	return out
}
