package scrobble

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jcrosnier/resona/internal/playback"
	"github.com/jcrosnier/resona/internal/queue"
)

// Submitter is the Last.fm surface the watcher drives.
type Submitter interface {
	UpdateNowPlaying(t Track) error
	Scrobble(t Track) error
}

var _ Submitter = (*Client)(nil)

// Watcher turns playback track changes into Last.fm submissions: a
// now-playing update when a track starts, and a scrobble for the track
// that just ended when enough of it was heard.
type Watcher struct {
	submitter Submitter
	log       *zap.Logger
	now       func() time.Time

	mu        sync.Mutex
	startedAt time.Time
}

// NewWatcher creates a watcher over the given submitter.
func NewWatcher(s Submitter, log *zap.Logger) *Watcher {
	return &Watcher{
		submitter: s,
		log:       log,
		now:       time.Now,
	}
}

// Watch consumes track changes from a playback subscription until it is
// closed.
func (w *Watcher) Watch(sub *playback.Subscription) {
	go func() {
		for {
			select {
			case tc := <-sub.TrackChanged:
				w.handleTrackChange(tc)
			case <-sub.Done:
				return
			}
		}
	}()
}

func (w *Watcher) handleTrackChange(tc playback.TrackChange) {
	now := w.now()

	w.mu.Lock()
	started := w.startedAt
	if tc.Current != nil {
		w.startedAt = now
	} else {
		w.startedAt = time.Time{}
	}
	w.mu.Unlock()

	if tc.Previous != nil && !started.IsZero() {
		if shouldScrobble(tc.Previous.Duration, now.Sub(started)) {
			w.submit(*tc.Previous, started)
		}
	}
	if tc.Current != nil {
		if err := w.submitter.UpdateNowPlaying(trackFor(*tc.Current, time.Time{})); err != nil {
			w.log.Debug("now playing update failed", zap.String("track", tc.Current.Title), zap.Error(err))
		}
	}
}

func (w *Watcher) submit(t queue.Track, started time.Time) {
	if err := w.submitter.Scrobble(trackFor(t, started)); err != nil {
		w.log.Debug("scrobble failed", zap.String("track", t.Title), zap.Error(err))
	}
}

func trackFor(t queue.Track, started time.Time) Track {
	st := Track{
		Artist:   t.ArtistName,
		Title:    t.Title,
		Duration: int(t.Duration.Seconds()),
	}
	if !started.IsZero() {
		st.Timestamp = started.Unix()
	}
	return st
}

// shouldScrobble applies the Last.fm rule: the track is longer than 30
// seconds and at least half of it, capped at 4 minutes, was heard.
func shouldScrobble(trackDur, played time.Duration) bool {
	if trackDur < 30*time.Second {
		return false
	}
	threshold := trackDur / 2
	if threshold > 4*time.Minute {
		threshold = 4 * time.Minute
	}
	return played >= threshold
}
