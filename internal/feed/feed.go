// Package feed maintains the global post feed: a bulk fetch of recent
// posts plus a change-feed trigger that flags the local page as stale
// whenever any profile publishes a new post.
package feed

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/jcrosnier/resona/internal/backend"
	"github.com/jcrosnier/resona/internal/session"
)

// pageSize caps the feed fetch to the most recent posts.
const pageSize = 30

// InsertStream is the change-feed subscription the feed drives.
type InsertStream interface {
	Events() <-chan backend.InsertEvent
	Unsubscribe()
}

// Backend is the subset of the backend client the feed needs.
type Backend interface {
	ListFeedPosts(ctx context.Context, limit int) ([]backend.Post, error)
	SubscribePosts(ctx context.Context) (InsertStream, error)
}

type clientBackend struct {
	*backend.Client
}

// WrapClient exposes a backend client as the feed's Backend.
func WrapClient(c *backend.Client) Backend {
	return clientBackend{c}
}

func (b clientBackend) SubscribePosts(ctx context.Context) (InsertStream, error) {
	// Unfiltered: any new post anywhere marks the feed stale
	sub, err := b.Client.SubscribeInserts(ctx, "posts", "", "")
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// Feed owns the local feed page. New posts are not merged in place;
// a pushed insert only flags the page stale and the next Refresh
// replaces it wholesale.
type Feed struct {
	backend Backend
	log     *zap.Logger

	mu     sync.RWMutex
	posts  []backend.Post
	stale  bool
	gen    int
	stream InsertStream

	changed chan struct{}
}

// New creates a feed over the given backend.
func New(b Backend, log *zap.Logger) *Feed {
	return &Feed{
		backend: b,
		log:     log,
		changed: make(chan struct{}, 1),
	}
}

// Changed signals that the page or its staleness changed. Coalesced.
func (f *Feed) Changed() <-chan struct{} {
	return f.changed
}

// WatchSession drives the feed from session lifecycle events.
func (f *Feed) WatchSession(sub *session.Subscription) {
	go func() {
		for {
			select {
			case ev := <-sub.Events:
				if ev.SignedIn {
					ctx := context.Background()
					if err := f.Refresh(ctx); err != nil {
						f.log.Warn("feed load failed", zap.Error(err))
					}
					if err := f.Start(ctx); err != nil {
						f.log.Warn("feed subscribe failed", zap.Error(err))
					}
				} else {
					f.Stop()
				}
			case <-sub.Done:
				return
			}
		}
	}()
}

// Refresh replaces the page with the newest posts and clears staleness.
// On failure the previous page stays.
func (f *Feed) Refresh(ctx context.Context) error {
	posts, err := f.backend.ListFeedPosts(ctx, pageSize)
	if err != nil {
		f.log.Warn("feed fetch failed", zap.Error(err))
		return err
	}

	f.mu.Lock()
	f.posts = posts
	f.stale = false
	f.mu.Unlock()
	f.notifyChanged()
	return nil
}

// Start establishes the posts insert subscription. A previous
// subscription is torn down first.
func (f *Feed) Start(ctx context.Context) error {
	stream, err := f.backend.SubscribePosts(ctx)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.teardownLocked()
	f.stream = stream
	gen := f.gen
	f.mu.Unlock()

	go f.watchLoop(stream, gen)
	return nil
}

// Stop unsubscribes and clears the page. Idempotent.
func (f *Feed) Stop() {
	f.mu.Lock()
	f.teardownLocked()
	f.posts = nil
	f.stale = false
	f.mu.Unlock()
	f.notifyChanged()
}

func (f *Feed) teardownLocked() {
	f.gen++
	if f.stream != nil {
		f.stream.Unsubscribe()
		f.stream = nil
	}
}

// Posts returns a copy of the current page, newest first.
func (f *Feed) Posts() []backend.Post {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]backend.Post, len(f.posts))
	copy(out, f.posts)
	return out
}

// Stale reports whether a newer post exists than the page shows.
func (f *Feed) Stale() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.stale
}

func (f *Feed) watchLoop(stream InsertStream, gen int) {
	for range stream.Events() {
		f.mu.Lock()
		if f.gen != gen {
			f.mu.Unlock()
			return
		}
		f.stale = true
		f.mu.Unlock()
		f.notifyChanged()
	}
}

func (f *Feed) notifyChanged() {
	select {
	case f.changed <- struct{}{}:
	default:
	}
}
