package notifications

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/jcrosnier/resona/internal/backend"
)

type mockStream struct {
	mu     sync.Mutex
	events chan backend.InsertEvent
	closed bool
}

func newMockStream() *mockStream {
	return &mockStream{events: make(chan backend.InsertEvent, 8)}
}

func (m *mockStream) Events() <-chan backend.InsertEvent { return m.events }

func (m *mockStream) Unsubscribe() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.events)
	}
}

func (m *mockStream) Unsubscribed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *mockStream) push(id string) {
	m.events <- backend.InsertEvent{Table: "notifications", RecordID: id}
}

type mockBackend struct {
	mu           sync.Mutex
	initial      []backend.Notification
	rows         map[string]backend.Notification
	streams      []*mockStream
	listErr      error
	markReadErr  error
	markAllErr   error
	markReadIDs  []string
	markAllCalls []string
	listLimits   []int

	// onList runs once, during the next ListNotifications call, outside
	// the mock's lock.
	onList func()
}

func newMockBackend(initial ...backend.Notification) *mockBackend {
	rows := make(map[string]backend.Notification)
	for _, n := range initial {
		rows[n.ID] = n
	}
	return &mockBackend{initial: initial, rows: rows}
}

func (m *mockBackend) addRow(n backend.Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[n.ID] = n
}

func (m *mockBackend) ListNotifications(_ context.Context, _ string, limit int) ([]backend.Notification, error) {
	m.mu.Lock()
	m.listLimits = append(m.listLimits, limit)
	err := m.listErr
	out := make([]backend.Notification, len(m.initial))
	copy(out, m.initial)
	hook := m.onList
	m.onList = nil
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (m *mockBackend) GetNotification(_ context.Context, id string) (*backend.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return nil, backend.ErrNotFound
	}
	return &row, nil
}

func (m *mockBackend) MarkNotificationRead(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markReadIDs = append(m.markReadIDs, id)
	return m.markReadErr
}

func (m *mockBackend) MarkAllNotificationsRead(_ context.Context, profileID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markAllCalls = append(m.markAllCalls, profileID)
	return m.markAllErr
}

func (m *mockBackend) SubscribeNotifications(_ context.Context, _ string) (InsertStream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := newMockStream()
	m.streams = append(m.streams, s)
	return s, nil
}

func (m *mockBackend) lastStream() *mockStream {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.streams) == 0 {
		return nil
	}
	return m.streams[len(m.streams)-1]
}

var _ Backend = (*mockBackend)(nil)

func actor(id, name string) *backend.Profile {
	return &backend.Profile{ID: id, Username: name, Name: name}
}

func unreadRow(id, typ string, from *backend.Profile, created time.Time) backend.Notification {
	return backend.Notification{
		ID:            id,
		Type:          typ,
		Read:          false,
		FromProfileID: from.ID,
		From:          from,
		CreatedAt:     created,
	}
}

// newestFirstRows returns [n3(newest), n2, n1(oldest)], n3 and n2 unread.
func newestFirstRows() []backend.Notification {
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	ada := actor("p-ada", "ada")
	n1 := unreadRow("n1", "like", ada, base)
	n1.Read = true
	n2 := unreadRow("n2", "comment", ada, base.Add(time.Minute))
	n3 := unreadRow("n3", "follow", ada, base.Add(2*time.Minute))
	return []backend.Notification{n3, n2, n1}
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting: %s", msg)
}

func ids(list []Notification) []string {
	out := make([]string, len(list))
	for i, n := range list {
		out[i] = n.ID
	}
	return out
}

func equalIDs(a []string, b ...string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSynchronizerInitialLoad(t *testing.T) {
	b := newMockBackend(newestFirstRows()...)
	s := NewSynchronizer(b, zap.NewNop())
	defer s.Close()

	if err := s.SignedIn(context.Background(), "p-me"); err != nil {
		t.Fatalf("SignedIn: %v", err)
	}

	if got := ids(s.Notifications()); !equalIDs(got, "n3", "n2", "n1") {
		t.Fatalf("unexpected list order: %v", got)
	}
	if got := s.UnreadCount(); got != 2 {
		t.Fatalf("expected 2 unread, got %d", got)
	}
	if len(b.listLimits) != 1 || b.listLimits[0] != 50 {
		t.Fatalf("expected a single load capped at 50, got %v", b.listLimits)
	}
}

func TestSynchronizerPrependsPushedInsert(t *testing.T) {
	b := newMockBackend(newestFirstRows()...)
	s := NewSynchronizer(b, zap.NewNop())
	defer s.Close()

	alerts := s.SubscribeAlerts()
	if err := s.SignedIn(context.Background(), "p-me"); err != nil {
		t.Fatalf("SignedIn: %v", err)
	}

	grace := actor("p-grace", "grace")
	b.addRow(unreadRow("n4", "like", grace, time.Now()))
	b.lastStream().push("n4")

	waitFor(t, func() bool {
		return equalIDs(ids(s.Notifications()), "n4", "n3", "n2", "n1")
	}, "pushed insert prepended")

	if got := s.UnreadCount(); got != 3 {
		t.Fatalf("expected 3 unread, got %d", got)
	}

	select {
	case alert := <-alerts:
		if alert.Text != "grace liked your post" {
			t.Fatalf("unexpected alert text %q", alert.Text)
		}
	case <-time.After(time.Second):
		t.Fatal("expected an alert for the pushed insert")
	}
}

func TestSynchronizerPreservesPushOrder(t *testing.T) {
	b := newMockBackend(newestFirstRows()...)
	s := NewSynchronizer(b, zap.NewNop())
	defer s.Close()

	if err := s.SignedIn(context.Background(), "p-me"); err != nil {
		t.Fatalf("SignedIn: %v", err)
	}

	grace := actor("p-grace", "grace")
	b.addRow(unreadRow("n4", "like", grace, time.Now()))
	b.addRow(unreadRow("n5", "follow", grace, time.Now()))
	stream := b.lastStream()
	stream.push("n4")
	stream.push("n5")

	waitFor(t, func() bool {
		return equalIDs(ids(s.Notifications()), "n5", "n4", "n3", "n2", "n1")
	}, "pushes prepended in server order")
}

func TestSynchronizerDeduplicatesPushedInsert(t *testing.T) {
	b := newMockBackend(newestFirstRows()...)
	s := NewSynchronizer(b, zap.NewNop())
	defer s.Close()

	if err := s.SignedIn(context.Background(), "p-me"); err != nil {
		t.Fatalf("SignedIn: %v", err)
	}

	b.addRow(unreadRow("n4", "like", actor("p-grace", "grace"), time.Now()))
	stream := b.lastStream()
	stream.push("n4")
	stream.push("n4")

	waitFor(t, func() bool {
		return len(s.Notifications()) == 4
	}, "first push merged")

	// The duplicate must not grow the list or the unread count
	time.Sleep(50 * time.Millisecond)
	if got := len(s.Notifications()); got != 4 {
		t.Fatalf("expected 4 entries, got %d", got)
	}
	if got := s.UnreadCount(); got != 3 {
		t.Fatalf("expected 3 unread, got %d", got)
	}
}

func TestSynchronizerAlertFallsBackToRawMessage(t *testing.T) {
	b := newMockBackend(newestFirstRows()...)
	s := NewSynchronizer(b, zap.NewNop())
	defer s.Close()

	alerts := s.SubscribeAlerts()
	if err := s.SignedIn(context.Background(), "p-me"); err != nil {
		t.Fatalf("SignedIn: %v", err)
	}

	row := unreadRow("n4", "remix", actor("p-grace", "grace"), time.Now())
	row.Message = "grace remixed your track"
	b.addRow(row)
	b.lastStream().push("n4")

	select {
	case alert := <-alerts:
		if alert.Text != "grace remixed your track" {
			t.Fatalf("unexpected alert text %q", alert.Text)
		}
	case <-time.After(time.Second):
		t.Fatal("expected an alert")
	}
}

func TestSynchronizerMarkReadIsOptimistic(t *testing.T) {
	b := newMockBackend(newestFirstRows()...)
	b.markReadErr = errors.New("backend down")
	s := NewSynchronizer(b, zap.NewNop())
	defer s.Close()

	if err := s.SignedIn(context.Background(), "p-me"); err != nil {
		t.Fatalf("SignedIn: %v", err)
	}

	if err := s.MarkRead(context.Background(), "n3"); err == nil {
		t.Fatal("expected the backend error to surface")
	}

	// The local flip stays despite the failed write
	for _, n := range s.Notifications() {
		if n.ID == "n3" && !n.Read {
			t.Fatal("expected n3 flipped read locally")
		}
	}
	if got := s.UnreadCount(); got != 1 {
		t.Fatalf("expected 1 unread, got %d", got)
	}

	// Marking an already-read record must not touch the count
	b.markReadErr = nil
	if err := s.MarkRead(context.Background(), "n3"); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if got := s.UnreadCount(); got != 1 {
		t.Fatalf("expected unread unchanged at 1, got %d", got)
	}
}

func TestSynchronizerMarkAllRead(t *testing.T) {
	b := newMockBackend(newestFirstRows()...)
	s := NewSynchronizer(b, zap.NewNop())
	defer s.Close()

	if err := s.SignedIn(context.Background(), "p-me"); err != nil {
		t.Fatalf("SignedIn: %v", err)
	}
	if got := s.UnreadCount(); got != 2 {
		t.Fatalf("expected 2 unread before, got %d", got)
	}

	if err := s.MarkAllRead(context.Background()); err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}

	if got := s.UnreadCount(); got != 0 {
		t.Fatalf("expected 0 unread, got %d", got)
	}
	for _, n := range s.Notifications() {
		if !n.Read {
			t.Fatalf("expected every record read, %s still unread", n.ID)
		}
	}
	if len(b.markAllCalls) != 1 || b.markAllCalls[0] != "p-me" {
		t.Fatalf("unexpected backend calls: %v", b.markAllCalls)
	}
}

func TestSynchronizerMarkAllReadKeepsStateOnFailure(t *testing.T) {
	b := newMockBackend(newestFirstRows()...)
	b.markAllErr = errors.New("backend down")
	s := NewSynchronizer(b, zap.NewNop())
	defer s.Close()

	if err := s.SignedIn(context.Background(), "p-me"); err != nil {
		t.Fatalf("SignedIn: %v", err)
	}

	if err := s.MarkAllRead(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if got := s.UnreadCount(); got != 2 {
		t.Fatalf("expected unread untouched at 2, got %d", got)
	}
}

func TestSynchronizerSignedOutClearsEverything(t *testing.T) {
	b := newMockBackend(newestFirstRows()...)
	s := NewSynchronizer(b, zap.NewNop())

	if err := s.SignedIn(context.Background(), "p-me"); err != nil {
		t.Fatalf("SignedIn: %v", err)
	}
	stream := b.lastStream()

	s.SignedOut()
	if got := len(s.Notifications()); got != 0 {
		t.Fatalf("expected empty list, got %d entries", got)
	}
	if got := s.UnreadCount(); got != 0 {
		t.Fatalf("expected 0 unread, got %d", got)
	}
	if !stream.Unsubscribed() {
		t.Fatal("expected the push subscription torn down")
	}

	// Idempotent
	s.SignedOut()
}

func TestSynchronizerCatchesInsertDuringInitialLoad(t *testing.T) {
	b := newMockBackend(newestFirstRows()...)
	s := NewSynchronizer(b, zap.NewNop())
	defer s.Close()

	// A row committed while the bulk fetch runs arrives only on the
	// push stream; the subscription must already be standing
	b.onList = func() {
		b.addRow(unreadRow("n4", "like", actor("p-grace", "grace"), time.Now()))
		stream := b.lastStream()
		if stream == nil {
			t.Error("expected the push subscription before the bulk fetch")
			return
		}
		stream.push("n4")
	}

	if err := s.SignedIn(context.Background(), "p-me"); err != nil {
		t.Fatalf("SignedIn: %v", err)
	}

	waitFor(t, func() bool {
		return equalIDs(ids(s.Notifications()), "n4", "n3", "n2", "n1")
	}, "insert during load merged")

	if got := s.UnreadCount(); got != 3 {
		t.Fatalf("expected 3 unread, got %d", got)
	}
}

func TestSynchronizerCloseEndsAlertDelivery(t *testing.T) {
	b := newMockBackend(newestFirstRows()...)
	s := NewSynchronizer(b, zap.NewNop())

	alerts := s.SubscribeAlerts()
	if err := s.SignedIn(context.Background(), "p-me"); err != nil {
		t.Fatalf("SignedIn: %v", err)
	}

	s.Close()

	select {
	case _, ok := <-alerts:
		if ok {
			t.Fatal("expected the alert channel closed, got an alert")
		}
	case <-time.After(time.Second):
		t.Fatal("alert channel not closed after Close")
	}
}

func TestSynchronizerResubscribesOnProfileChange(t *testing.T) {
	b := newMockBackend(newestFirstRows()...)
	s := NewSynchronizer(b, zap.NewNop())
	defer s.Close()

	if err := s.SignedIn(context.Background(), "p-one"); err != nil {
		t.Fatalf("SignedIn: %v", err)
	}
	first := b.lastStream()

	if err := s.SignedIn(context.Background(), "p-two"); err != nil {
		t.Fatalf("SignedIn: %v", err)
	}
	if !first.Unsubscribed() {
		t.Fatal("expected the first subscription torn down")
	}
	if b.lastStream() == first {
		t.Fatal("expected a fresh subscription for the new profile")
	}
}
