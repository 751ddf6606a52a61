// Package playback implements the playback engine: it owns the current
// track, the queue traversal, shuffle/repeat policy, the progress
// sampler and the lifecycle of the bound audio resource.
package playback

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/jcrosnier/resona/internal/player"
	"github.com/jcrosnier/resona/internal/queue"
	"github.com/jcrosnier/resona/internal/session"
)

const (
	// samplerInterval is how often the progress sampler reads the bound
	// resource's position while playing.
	samplerInterval = 250 * time.Millisecond

	// previousRestartThreshold: Previous() restarts the current track
	// instead of moving back when at least this far in.
	previousRestartThreshold = 3 * time.Second
)

// Engine drives the single audio resource. All mutation goes through
// its command methods; consumers read Snapshot and subscribe to events.
type Engine struct {
	mu     sync.RWMutex
	player player.Interface
	queue  *queue.Queue
	log    *zap.Logger

	current    *queue.Track
	playing    bool
	progress   float64
	volume     int
	repeat     RepeatMode
	miniPlayer bool
	expanded   bool

	// currentPlayed records whether the current binding ever started
	// playback; a restored queue loads a track without playing it.
	currentPlayed bool

	// playGen fences in-flight audio fetches: each play command bumps
	// it, and a fetch that finishes under a stale generation gives up.
	playGen uint64

	samplerStop  chan struct{}
	samplerCount int32 // atomic, observed by tests

	subsMu sync.RWMutex
	subs   []*Subscription

	done   chan struct{}
	closed bool
}

// New creates an engine over the given player and queue.
func New(p player.Interface, q *queue.Queue, volume int, log *zap.Logger) *Engine {
	e := &Engine{
		player: p,
		queue:  q,
		volume: clampVolume(volume),
		log:    log,
		done:   make(chan struct{}),
	}
	p.SetVolume(float64(e.volume) / 100)

	go e.finishLoop()
	return e
}

// finishLoop turns resource completion signals into track advancement.
func (e *Engine) finishLoop() {
	for {
		select {
		case <-e.player.FinishedChan():
			e.handleTrackEnded()
		case <-e.done:
			return
		}
	}
}

// WatchSession tears the engine down whenever the session signs out.
func (e *Engine) WatchSession(sub *session.Subscription) {
	go func() {
		for {
			select {
			case ev := <-sub.Events:
				if !ev.SignedIn {
					e.Reset()
				}
			case <-sub.Done:
				return
			case <-e.done:
				return
			}
		}
	}()
}

// Play binds and starts the given track, replacing any current binding.
// The track does not have to be in the queue.
func (e *Engine) Play(t queue.Track) error {
	return e.startTrack(t, true)
}

// PlayTracks replaces the queue and starts playback at the given
// canonical index (clamped into range).
func (e *Engine) PlayTracks(tracks []queue.Track, startIndex int) error {
	e.mu.Lock()
	e.queue.Replace(tracks...)
	if e.queue.IsEmpty() {
		e.mu.Unlock()
		return nil
	}
	if startIndex < 0 || startIndex >= len(tracks) {
		startIndex = 0
	}
	t := tracks[startIndex]
	e.mu.Unlock()

	return e.startTrack(t, true)
}

// RestoreQueue loads a persisted queue snapshot. The current track, if
// still present, ends up loaded but not playing. Does nothing when a
// track is already bound.
func (e *Engine) RestoreQueue(tracks []queue.Track, currentID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current != nil || len(tracks) == 0 {
		return
	}

	e.queue.Replace(tracks...)
	if currentID == "" {
		return
	}
	if pos := e.queue.Position(currentID); pos >= 0 {
		if t := e.queue.AtPosition(pos); t != nil {
			tc := *t
			e.current = &tc
			e.miniPlayer = true
		}
	}
}

// AppendToQueue adds tracks to the end of the queue without touching
// playback.
func (e *Engine) AppendToQueue(tracks ...queue.Track) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.queue.Append(tracks...)
}

// Pause pauses playback. No-op when nothing is playing.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.playing {
		return
	}
	e.stopSamplerLocked()
	e.player.Pause()
	e.playing = false
	e.emitState(false)
}

// Resume resumes a loaded, paused track. If the bound resource already
// ran to its end, or the track came from a restored queue and was never
// bound, playback starts from position 0.
func (e *Engine) Resume() {
	e.mu.Lock()
	if e.playing || e.current == nil {
		e.mu.Unlock()
		return
	}

	if e.player.State() == player.Paused {
		e.player.Resume()
		e.playing = true
		e.startSamplerLocked()
		e.emitState(true)
		e.mu.Unlock()
		return
	}

	cur := *e.current
	e.mu.Unlock()

	_ = e.startTrack(cur, true)
}

// Toggle toggles between playing and paused.
func (e *Engine) Toggle() {
	e.mu.RLock()
	playing := e.playing
	e.mu.RUnlock()
	if playing {
		e.Pause()
	} else {
		e.Resume()
	}
}

// Next advances to the next queue entry, wrapping when repeat mode is
// all. At the last entry with repeat off it does nothing.
func (e *Engine) Next() error {
	e.mu.Lock()
	if e.current == nil {
		e.mu.Unlock()
		return nil
	}
	next := e.nextTrackLocked()
	if next == nil {
		e.mu.Unlock()
		return nil
	}
	t := *next
	e.mu.Unlock()

	return e.startTrack(t, true)
}

// Previous restarts the current track when more than 3 seconds in,
// otherwise moves to the prior queue entry, wrapping from the first
// entry to the last.
func (e *Engine) Previous() error {
	e.mu.Lock()
	if e.current == nil {
		e.mu.Unlock()
		return nil
	}

	if e.player.Position() > previousRestartThreshold {
		e.restartCurrentLocked()
		e.mu.Unlock()
		return nil
	}

	pos := e.queue.Position(e.current.ID)
	if pos < 0 {
		// Played outside the queue: nothing to go back to
		e.restartCurrentLocked()
		e.mu.Unlock()
		return nil
	}

	prevPos := pos - 1
	if prevPos < 0 {
		prevPos = e.queue.Len() - 1
	}
	prev := e.queue.AtPosition(prevPos)
	if prev == nil || prev.ID == e.current.ID {
		e.restartCurrentLocked()
		e.mu.Unlock()
		return nil
	}
	t := *prev
	e.mu.Unlock()

	return e.startTrack(t, true)
}

// SeekToPercent seeks the bound resource to the given 0-100 position.
// Out-of-range input is clamped.
func (e *Engine) SeekToPercent(pct float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return
	}

	pct = clampProgress(pct)
	if dur := e.player.Duration(); dur > 0 {
		e.player.SeekTo(time.Duration(pct / 100 * float64(dur)))
	}
	e.progress = pct
	e.emitProgress(pct)
}

// SetVolume stores the 0-100 volume and applies it to the resource.
func (e *Engine) SetVolume(v int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.volume = clampVolume(v)
	e.player.SetVolume(float64(e.volume) / 100)
}

// SetRepeatMode sets the repeat mode.
func (e *Engine) SetRepeatMode(mode RepeatMode) {
	e.mu.Lock()
	e.repeat = mode
	shuffled := e.queue.Shuffled()
	e.mu.Unlock()
	e.emitMode(mode, shuffled)
}

// CycleRepeatMode steps off -> all -> one -> off and returns the new mode.
func (e *Engine) CycleRepeatMode() RepeatMode {
	e.mu.Lock()
	switch e.repeat {
	case RepeatOff:
		e.repeat = RepeatAll
	case RepeatAll:
		e.repeat = RepeatOne
	default:
		e.repeat = RepeatOff
	}
	mode := e.repeat
	shuffled := e.queue.Shuffled()
	e.mu.Unlock()
	e.emitMode(mode, shuffled)
	return mode
}

// SetShuffle toggles the materialized shuffle order. Independent of
// repeat mode.
func (e *Engine) SetShuffle(enabled bool) {
	e.mu.Lock()
	e.queue.SetShuffle(enabled)
	mode := e.repeat
	e.mu.Unlock()
	e.emitMode(mode, enabled)
}

// ToggleShuffle flips shuffle and returns the new value.
func (e *Engine) ToggleShuffle() bool {
	e.mu.Lock()
	enabled := !e.queue.Shuffled()
	e.queue.SetShuffle(enabled)
	mode := e.repeat
	e.mu.Unlock()
	e.emitMode(mode, enabled)
	return enabled
}

// CloseMiniPlayer hides the player surfaces and forces a pause.
func (e *Engine) CloseMiniPlayer() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.miniPlayer = false
	e.expanded = false
	if e.playing {
		e.stopSamplerLocked()
		e.player.Pause()
		e.playing = false
		e.emitState(false)
	}
}

// SetExpanded shows or hides the full-screen player surface.
func (e *Engine) SetExpanded(expanded bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return
	}
	e.expanded = expanded
}

// Reset tears everything down to the idle state. Idempotent: resetting
// an already idle engine changes nothing and never errors.
func (e *Engine) Reset() {
	e.mu.Lock()
	wasLoaded := e.current != nil
	prev := e.current

	e.playGen++ // an in-flight fetch must not rebind after reset
	e.stopSamplerLocked()
	e.player.Stop()
	e.queue.Clear()
	e.queue.SetShuffle(false)
	e.current = nil
	e.currentPlayed = false
	e.playing = false
	e.progress = 0
	e.repeat = RepeatOff
	e.miniPlayer = false
	e.expanded = false
	e.mu.Unlock()

	if wasLoaded {
		e.log.Info("playback reset")
		e.emitTrack(prev, nil)
		e.emitState(false)
	}
}

// Snapshot returns a copy of the current playback state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var current *queue.Track
	if e.current != nil {
		c := *e.current
		current = &c
	}
	return Snapshot{
		CurrentTrack: current,
		IsPlaying:    e.playing,
		Progress:     e.progress,
		Volume:       e.volume,
		Shuffled:     e.queue.Shuffled(),
		RepeatMode:   e.repeat,
		MiniPlayer:   e.miniPlayer,
		Expanded:     e.expanded,
	}
}

// QueueTracks returns the queue in traversal order.
func (e *Engine) QueueTracks() []queue.Track {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.queue.InOrder()
}

// Subscribe creates a new event subscription.
func (e *Engine) Subscribe() *Subscription {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	sub := newSubscription()
	e.subs = append(e.subs, sub)
	return sub
}

// Close shuts down the engine and the underlying player.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.stopSamplerLocked()
	close(e.done)
	e.mu.Unlock()

	e.subsMu.Lock()
	for _, sub := range e.subs {
		sub.close()
	}
	e.subs = nil
	e.subsMu.Unlock()

	return e.player.Close()
}

// --- internals ---

// startTrack downloads the track's audio without holding the engine
// lock, then re-acquires it to bind and start. Commands issued while
// the download runs win: the fetch finishing under a stale generation
// gives up silently.
func (e *Engine) startTrack(t queue.Track, emitChange bool) error {
	e.mu.Lock()
	e.playGen++
	gen := e.playGen
	e.mu.Unlock()

	err := e.player.Fetch(t.AudioURL)

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.playGen || e.closed {
		return nil
	}
	if err != nil {
		return e.bindFailedLocked(t, err)
	}
	return e.playLocked(t, emitChange)
}

// playLocked tears down the previous binding, binds the new track and
// starts playback. On resource failure the track stays loaded but not
// playing; the failure is logged and emitted, never propagated as a
// panic or unhandled state.
func (e *Engine) playLocked(t queue.Track, emitChange bool) error {
	prev := e.current
	prevPlayed := e.currentPlayed
	e.stopSamplerLocked()

	if err := e.player.Play(t.AudioURL); err != nil {
		return e.bindFailedLocked(t, err)
	}

	tc := t
	e.current = &tc
	e.currentPlayed = true
	e.playing = true
	e.progress = 0
	e.miniPlayer = true
	e.startSamplerLocked()

	if emitChange && (prev == nil || prev.ID != t.ID || !prevPlayed) {
		if !prevPlayed {
			// A binding that never played has nothing to hand over
			prev = nil
		}
		e.emitTrack(prev, &tc)
	}
	e.emitState(true)
	return nil
}

// bindFailedLocked records a failed bind: the track stays loaded but
// not playing.
func (e *Engine) bindFailedLocked(t queue.Track, err error) error {
	e.stopSamplerLocked()
	tc := t
	e.current = &tc
	e.currentPlayed = false
	e.playing = false
	e.progress = 0
	e.miniPlayer = true
	e.log.Warn("play failed", zap.String("track_id", t.ID), zap.Error(err))
	e.emitError("play", t.ID, err)
	e.emitState(false)
	return err
}

// restartCurrentLocked rewinds the current track to position 0 without
// emitting a track change.
func (e *Engine) restartCurrentLocked() {
	if e.player.State().IsActive() {
		e.player.SeekTo(0)
	} else if err := e.player.Play(e.current.AudioURL); err != nil {
		e.log.Warn("restart failed", zap.String("track_id", e.current.ID), zap.Error(err))
		e.emitError("play", e.current.ID, err)
		return
	}
	e.progress = 0
	e.emitProgress(0)
}

// nextTrackLocked resolves the next entry in traversal order, honoring
// repeat-all wrapping. Returns nil at the boundary with repeat off, and
// treats a current track missing from the queue as the last entry.
func (e *Engine) nextTrackLocked() *queue.Track {
	pos := e.queue.Position(e.current.ID)
	if pos >= 0 && pos < e.queue.Len()-1 {
		return e.queue.AtPosition(pos + 1)
	}
	if e.repeat == RepeatAll && !e.queue.IsEmpty() {
		return e.queue.AtPosition(0)
	}
	return nil
}

// handleTrackEnded applies the end-of-track policy for the current
// repeat mode.
func (e *Engine) handleTrackEnded() {
	e.mu.Lock()
	if e.current == nil {
		e.mu.Unlock()
		return
	}

	if e.repeat == RepeatOne {
		cur := *e.current
		e.mu.Unlock()
		if e.startTrack(cur, false) == nil {
			return
		}
		// Fall through to the stop path on a failed restart
	} else if next := e.nextTrackLocked(); next != nil {
		t := *next
		e.mu.Unlock()
		_ = e.startTrack(t, true)
		return
	} else {
		e.mu.Unlock()
	}

	// Last entry, no wrap: hold the track, park progress at the end
	e.mu.Lock()
	e.stopSamplerLocked()
	e.playing = false
	e.progress = 100
	e.emitState(false)
	e.emitProgress(100)
	e.mu.Unlock()
}

func (e *Engine) startSamplerLocked() {
	stop := make(chan struct{})
	e.samplerStop = stop
	atomic.AddInt32(&e.samplerCount, 1)
	go e.sampleLoop(stop)
}

// stopSamplerLocked tears down the running sampler. Must run before any
// new resource binding: two live samplers would race on progress.
func (e *Engine) stopSamplerLocked() {
	if e.samplerStop != nil {
		close(e.samplerStop)
		e.samplerStop = nil
	}
}

func (e *Engine) sampleLoop(stop chan struct{}) {
	defer atomic.AddInt32(&e.samplerCount, -1)

	ticker := time.NewTicker(samplerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			e.publishProgress(stop)
		}
	}
}

func (e *Engine) publishProgress(stop chan struct{}) {
	e.mu.Lock()
	// A tick can land after teardown while this sampler waited on the
	// lock; the stale sampler must not publish
	if e.samplerStop != stop || !e.playing {
		e.mu.Unlock()
		return
	}
	var pct float64
	if dur := e.player.Duration(); dur > 0 {
		pct = clampProgress(float64(e.player.Position()) / float64(dur) * 100)
	}
	e.progress = pct
	e.mu.Unlock()

	e.emitProgress(pct)
}

func clampProgress(pct float64) float64 {
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

func clampVolume(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// --- event fan-out ---

func (e *Engine) emitState(playing bool) {
	e.broadcast(func(s *Subscription) { s.sendState(StateChange{IsPlaying: playing}) })
}

func (e *Engine) emitTrack(prev, cur *queue.Track) {
	e.broadcast(func(s *Subscription) { s.sendTrack(TrackChange{Previous: prev, Current: cur}) })
}

func (e *Engine) emitProgress(pct float64) {
	e.broadcast(func(s *Subscription) { s.sendProgress(pct) })
}

func (e *Engine) emitMode(mode RepeatMode, shuffled bool) {
	e.broadcast(func(s *Subscription) { s.sendMode(ModeChange{RepeatMode: mode, Shuffled: shuffled}) })
}

func (e *Engine) emitError(op, trackID string, err error) {
	e.broadcast(func(s *Subscription) { s.sendError(ErrorEvent{Operation: op, TrackID: trackID, Err: err}) })
}

func (e *Engine) broadcast(fn func(*Subscription)) {
	e.subsMu.RLock()
	defer e.subsMu.RUnlock()
	for _, sub := range e.subs {
		fn(sub)
	}
}
