// Package session owns the sign-in lifecycle observed by the playback
// engine and the notification synchronizer. It is an event hub: the auth
// flow reports transitions, subscribers react.
package session

import (
	"sync"

	"go.uber.org/zap"
)

const eventBufferSize = 4

// Event is a session lifecycle transition.
type Event struct {
	SignedIn  bool
	ProfileID string // set when SignedIn
}

// Subscription delivers session events to one subscriber.
type Subscription struct {
	Events <-chan Event
	Done   <-chan struct{}

	events chan Event
	doneCh chan struct{}
}

func newSubscription() *Subscription {
	s := &Subscription{
		events: make(chan Event, eventBufferSize),
		doneCh: make(chan struct{}),
	}
	s.Events = s.events
	s.Done = s.doneCh
	return s
}

// send delivers an event without blocking; a full buffer drops the
// oldest pending event so subscribers always see the latest transition.
func (s *Subscription) send(e Event) {
	for {
		select {
		case s.events <- e:
			return
		default:
			select {
			case <-s.events:
			default:
			}
		}
	}
}

func (s *Subscription) close() {
	close(s.doneCh)
}

// Manager tracks the signed-in profile and fans out transitions.
type Manager struct {
	mu        sync.RWMutex
	profileID string
	closed    bool

	subsMu sync.RWMutex
	subs   []*Subscription

	log *zap.Logger
}

// NewManager creates a signed-out session manager.
func NewManager(log *zap.Logger) *Manager {
	return &Manager{log: log}
}

// ProfileID returns the signed-in profile id, or "" when signed out.
func (m *Manager) ProfileID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.profileID
}

// IsSignedIn reports whether a profile is signed in.
func (m *Manager) IsSignedIn() bool {
	return m.ProfileID() != ""
}

// SignedIn records a sign-in and notifies subscribers. Signing in as the
// profile already signed in is a no-op.
func (m *Manager) SignedIn(profileID string) {
	m.mu.Lock()
	if m.closed || m.profileID == profileID {
		m.mu.Unlock()
		return
	}
	m.profileID = profileID
	m.mu.Unlock()

	m.log.Info("session signed in", zap.String("profile_id", profileID))
	m.broadcast(Event{SignedIn: true, ProfileID: profileID})
}

// SignedOut records a sign-out and notifies subscribers. Idempotent:
// signing out while already signed out is a no-op.
func (m *Manager) SignedOut() {
	m.mu.Lock()
	if m.closed || m.profileID == "" {
		m.mu.Unlock()
		return
	}
	m.profileID = ""
	m.mu.Unlock()

	m.log.Info("session signed out")
	m.broadcast(Event{SignedIn: false})
}

func (m *Manager) broadcast(e Event) {
	m.subsMu.RLock()
	defer m.subsMu.RUnlock()
	for _, sub := range m.subs {
		sub.send(e)
	}
}

// Subscribe registers a new lifecycle subscriber.
func (m *Manager) Subscribe() *Subscription {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	sub := newSubscription()
	m.subs = append(m.subs, sub)
	return sub
}

// Close shuts down the manager and signals all subscribers to stop.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	m.subsMu.Lock()
	for _, sub := range m.subs {
		sub.close()
	}
	m.subs = nil
	m.subsMu.Unlock()
}
