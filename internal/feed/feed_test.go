package feed

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

type mockBackend struct {
	mu      sync.Mutex
	posts   []backend.Post
	listErr error
	streams []*mockStream
	limits  []int
}

func (m *mockBackend) ListFeedPosts(_ context.Context, limit int) ([]backend.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limits = append(m.limits, limit)
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]backend.Post, len(m.posts))
	copy(out, m.posts)
	return out, nil
}

func (m *mockBackend) SubscribePosts(_ context.Context) (InsertStream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := newMockStream()
	m.streams = append(m.streams, s)
	return s, nil
}

func (m *mockBackend) setPosts(posts ...backend.Post) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts = posts
}

func (m *mockBackend) setListErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listErr = err
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

func TestFeedRefreshReplacesPage(t *testing.T) {
	b := &mockBackend{}
	b.setPosts(backend.Post{ID: "post-2"}, backend.Post{ID: "post-1"})
	f := New(b, zap.NewNop())

	if err := f.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	posts := f.Posts()
	if len(posts) != 2 || posts[0].ID != "post-2" {
		t.Fatalf("unexpected page: %+v", posts)
	}
	if f.Stale() {
		t.Fatal("expected fresh page")
	}
	if len(b.limits) != 1 || b.limits[0] != pageSize {
		t.Fatalf("unexpected fetch limits: %v", b.limits)
	}
}

func TestFeedRefreshKeepsPageOnFailure(t *testing.T) {
	b := &mockBackend{}
	b.setPosts(backend.Post{ID: "post-1"})
	f := New(b, zap.NewNop())

	if err := f.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	b.setListErr(errors.New("backend down"))

	if err := f.Refresh(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if got := f.Posts(); len(got) != 1 || got[0].ID != "post-1" {
		t.Fatalf("expected stale-but-present page, got %+v", got)
	}
}

func TestFeedInsertMarksPageStale(t *testing.T) {
	b := &mockBackend{}
	f := New(b, zap.NewNop())
	defer f.Stop()

	if err := f.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	b.lastStream().events <- backend.InsertEvent{Table: "posts", RecordID: "post-9"}
	waitFor(t, f.Stale, "page flagged stale")

	// Refresh clears staleness
	if err := f.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if f.Stale() {
		t.Fatal("expected staleness cleared after refresh")
	}
}

func TestFeedStopTearsDownSubscription(t *testing.T) {
	b := &mockBackend{}
	f := New(b, zap.NewNop())

	if err := f.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	stream := b.lastStream()

	f.Stop()
	if !stream.Unsubscribed() {
		t.Fatal("expected subscription torn down")
	}
	if got := len(f.Posts()); got != 0 {
		t.Fatalf("expected cleared page, got %d posts", got)
	}

	// Idempotent
	f.Stop()
}

func TestFeedRestartReplacesSubscription(t *testing.T) {
	b := &mockBackend{}
	f := New(b, zap.NewNop())
	defer f.Stop()

	if err := f.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	first := b.lastStream()

	if err := f.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !first.Unsubscribed() {
		t.Fatal("expected the first subscription torn down")
	}

	// Events on the stale stream must not flag the new page
	if f.Stale() {
		t.Fatal("expected fresh page after restart")
	}
}
