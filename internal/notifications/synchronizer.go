package notifications

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jcrosnier/resona/internal/backend"
	"github.com/jcrosnier/resona/internal/session"
)

const (
	// initialLoadLimit caps the bulk fetch to the most recent rows.
	initialLoadLimit = 50

	// detailFetchTimeout bounds the per-event record fetch so a hung
	// request cannot stall the merge loop forever.
	detailFetchTimeout = 30 * time.Second

	alertBufferSize = 16
)

// InsertStream is the change-feed subscription the synchronizer drives.
type InsertStream interface {
	Events() <-chan backend.InsertEvent
	Unsubscribe()
}

// Backend is the subset of the backend client the synchronizer needs.
type Backend interface {
	ListNotifications(ctx context.Context, profileID string, limit int) ([]backend.Notification, error)
	GetNotification(ctx context.Context, id string) (*backend.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context, profileID string) error
	SubscribeNotifications(ctx context.Context, profileID string) (InsertStream, error)
}

// clientBackend adapts *backend.Client to the Backend interface.
type clientBackend struct {
	*backend.Client
}

// WrapClient exposes a backend client as the synchronizer's Backend.
func WrapClient(c *backend.Client) Backend {
	return clientBackend{c}
}

func (b clientBackend) SubscribeNotifications(ctx context.Context, profileID string) (InsertStream, error) {
	sub, err := b.Client.SubscribeInserts(ctx, "notifications", "profile_id", profileID)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// Alert is a transient user-facing line for one pushed notification.
type Alert struct {
	Notification Notification
	Text         string
}

// Synchronizer owns the local notification list for the signed-in
// profile. The list is newest-first at all times: the initial load
// arrives sorted and pushed inserts are prepended in server order.
// Consumers read snapshots and issue commands, never mutate the list.
type Synchronizer struct {
	backend Backend
	log     *zap.Logger

	mu        sync.RWMutex
	profileID string
	list      []Notification
	unread    int
	gen       int // bumped on every sign-in/out, fences stale merge loops
	stream    InsertStream

	alertsMu  sync.Mutex
	alertSubs []chan Alert

	changed chan struct{}
}

// NewSynchronizer creates a synchronizer over the given backend.
func NewSynchronizer(b Backend, log *zap.Logger) *Synchronizer {
	return &Synchronizer{
		backend: b,
		log:     log,
		changed: make(chan struct{}, 1),
	}
}

// SubscribeAlerts returns a channel delivering one transient alert per
// pushed notification. Alerts are dropped, not blocked on, when a
// subscriber falls behind.
func (s *Synchronizer) SubscribeAlerts() <-chan Alert {
	s.alertsMu.Lock()
	defer s.alertsMu.Unlock()
	ch := make(chan Alert, alertBufferSize)
	s.alertSubs = append(s.alertSubs, ch)
	return ch
}

// Changed signals that the list or unread count changed. Coalesced: a
// pending signal absorbs later ones until received.
func (s *Synchronizer) Changed() <-chan struct{} {
	return s.changed
}

// WatchSession drives the synchronizer from session lifecycle events.
func (s *Synchronizer) WatchSession(sub *session.Subscription) {
	go func() {
		for {
			select {
			case ev := <-sub.Events:
				if ev.SignedIn {
					if err := s.SignedIn(context.Background(), ev.ProfileID); err != nil {
						s.log.Warn("notification sync start failed", zap.Error(err))
					}
				} else {
					s.SignedOut()
				}
			case <-sub.Done:
				return
			}
		}
	}()
}

// SignedIn (re)loads the notification list for the given profile and
// (re)establishes the push subscription scoped to it. Any previous
// subscription is torn down first.
func (s *Synchronizer) SignedIn(ctx context.Context, profileID string) error {
	s.mu.Lock()
	s.teardownLocked()
	s.profileID = profileID
	s.list = nil
	s.unread = 0
	gen := s.gen
	s.mu.Unlock()
	s.notifyChanged()

	// Subscribe before the bulk fetch: a row inserted while the fetch
	// runs is then either in the fetched page or queued on the stream,
	// and the merge dedupe absorbs the overlap. The merge loop only
	// starts once the page is installed.
	stream, subErr := s.backend.SubscribeNotifications(ctx, profileID)
	if subErr != nil {
		s.log.Warn("notification subscribe failed", zap.String("profile_id", profileID), zap.Error(subErr))
	}

	rows, err := s.backend.ListNotifications(ctx, profileID, initialLoadLimit)
	if err != nil {
		s.log.Warn("notification load failed", zap.String("profile_id", profileID), zap.Error(err))
		if stream != nil {
			stream.Unsubscribe()
		}
		return err
	}

	list := make([]Notification, 0, len(rows))
	unread := 0
	for _, row := range rows {
		n := fromRow(row)
		list = append(list, n)
		if !n.Read {
			unread++
		}
	}

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		if stream != nil {
			stream.Unsubscribe()
		}
		return nil
	}
	s.list = list
	s.unread = unread
	s.stream = stream
	s.mu.Unlock()
	s.notifyChanged()

	if stream == nil {
		return subErr
	}
	go s.mergeLoop(stream, gen)
	return nil
}

// SignedOut unsubscribes and clears the list and unread count.
// Idempotent.
func (s *Synchronizer) SignedOut() {
	s.mu.Lock()
	s.teardownLocked()
	s.profileID = ""
	s.list = nil
	s.unread = 0
	s.mu.Unlock()
	s.notifyChanged()
}

// Close tears down the subscription and ends alert delivery: every
// alert channel is closed so watchers can unwind. The synchronizer is
// unusable after.
func (s *Synchronizer) Close() {
	s.SignedOut()

	s.alertsMu.Lock()
	for _, ch := range s.alertSubs {
		close(ch)
	}
	s.alertSubs = nil
	s.alertsMu.Unlock()
}

// teardownLocked drops the live subscription and fences any merge loop
// still draining it.
func (s *Synchronizer) teardownLocked() {
	s.gen++
	if s.stream != nil {
		s.stream.Unsubscribe()
		s.stream = nil
	}
}

// Notifications returns a copy of the local list, newest first.
func (s *Synchronizer) Notifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Notification, len(s.list))
	copy(out, s.list)
	return out
}

// UnreadCount returns the number of unread entries.
func (s *Synchronizer) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unread
}

// MarkRead optimistically flips one record's read flag and decrements
// the unread count, then issues the backend write. A failed write is
// logged and returned but the local flip stays.
func (s *Synchronizer) MarkRead(ctx context.Context, id string) error {
	s.mu.Lock()
	flipped := false
	for i := range s.list {
		if s.list[i].ID != id {
			continue
		}
		if !s.list[i].Read {
			s.list[i].Read = true
			if s.unread > 0 {
				s.unread--
			}
			flipped = true
		}
		break
	}
	s.mu.Unlock()

	if flipped {
		s.notifyChanged()
	}

	if err := s.backend.MarkNotificationRead(ctx, id); err != nil {
		s.log.Warn("mark read failed", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// MarkAllRead issues the backend mutation first, then on success flips
// every local record and zeroes the unread count.
func (s *Synchronizer) MarkAllRead(ctx context.Context) error {
	s.mu.RLock()
	profileID := s.profileID
	s.mu.RUnlock()
	if profileID == "" {
		return nil
	}

	if err := s.backend.MarkAllNotificationsRead(ctx, profileID); err != nil {
		s.log.Warn("mark all read failed", zap.String("profile_id", profileID), zap.Error(err))
		return err
	}

	s.mu.Lock()
	for i := range s.list {
		s.list[i].Read = true
	}
	s.unread = 0
	s.mu.Unlock()
	s.notifyChanged()
	return nil
}

// mergeLoop drains the insert stream one event at a time. Serializing
// the detail fetch with the prepend keeps the list in server order even
// when fetch latencies vary.
func (s *Synchronizer) mergeLoop(stream InsertStream, gen int) {
	for ev := range stream.Events() {
		s.handleInsert(ev.RecordID, gen)
	}
}

func (s *Synchronizer) handleInsert(id string, gen int) {
	ctx, cancel := context.WithTimeout(context.Background(), detailFetchTimeout)
	defer cancel()

	row, err := s.backend.GetNotification(ctx, id)
	if err != nil {
		s.log.Warn("notification fetch failed", zap.String("id", id), zap.Error(err))
		return
	}
	n := fromRow(*row)

	s.mu.Lock()
	if s.gen != gen {
		// Stale loop from a previous sign-in; the event belongs to the
		// old user context
		s.mu.Unlock()
		return
	}
	for i := range s.list {
		if s.list[i].ID == n.ID {
			s.mu.Unlock()
			return
		}
	}
	s.list = append([]Notification{n}, s.list...)
	s.unread++
	s.mu.Unlock()

	s.notifyChanged()
	s.emitAlert(Alert{Notification: n, Text: n.AlertText()})
}

func (s *Synchronizer) emitAlert(a Alert) {
	s.alertsMu.Lock()
	defer s.alertsMu.Unlock()
	for _, ch := range s.alertSubs {
		select {
		case ch <- a:
		default:
		}
	}
}

func (s *Synchronizer) notifyChanged() {
	select {
	case s.changed <- struct{}{}:
	default:
	}
}
