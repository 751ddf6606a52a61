package playback

import "github.com/jcrosnier/resona/internal/queue"

// StateChange is emitted when the playing flag changes.
type StateChange struct {
	IsPlaying bool
}

// TrackChange is emitted when playback moves to a different track.
//
// Emitted by Play and by automatic advancement on track end. Not
// emitted by Pause/Resume or by a repeat-one restart of the same track:
// side effects keyed on the track (scrobbling, toasts, play counters)
// must fire once per track, not once per loop.
type TrackChange struct {
	Previous *queue.Track
	Current  *queue.Track
}

// ProgressChange is emitted by the progress sampler and by seeks.
type ProgressChange struct {
	Progress float64 // 0-100
}

// ModeChange is emitted when repeat or shuffle mode changes.
type ModeChange struct {
	RepeatMode RepeatMode
	Shuffled   bool
}

// ErrorEvent is emitted when an operation fails inside the engine.
type ErrorEvent struct {
	Operation string // e.g., "play", "seek"
	TrackID   string // track id if applicable
	Err       error
}
