package player

import "time"

// Interface defines the audio resource contract for dependency injection
// and testing. Exactly one component (the playback engine) commands it.
type Interface interface {
	// Fetch downloads the audio into the local cache without binding
	// it, so callers can stage the slow part before taking any locks.
	Fetch(audioURL string) error
	Play(audioURL string) error
	Stop()
	Pause()
	Resume()
	State() State
	Position() time.Duration
	Duration() time.Duration
	SeekTo(pos time.Duration)
	SetVolume(level float64) // 0.0 to 1.0
	Volume() float64
	FinishedChan() <-chan struct{}
	Close() error
}

// Verify implementations at compile time.
var (
	_ Interface = (*Player)(nil)
	_ Interface = (*Mock)(nil)
)
