package playback

import "github.com/jcrosnier/resona/internal/queue"

// RepeatMode defines the wrap/restart behavior at queue boundaries and
// on track end.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota
	RepeatAll
	RepeatOne
)

// String returns the repeat mode name.
func (m RepeatMode) String() string {
	switch m {
	case RepeatOff:
		return "Off"
	case RepeatAll:
		return "All"
	case RepeatOne:
		return "One"
	default:
		return "Unknown"
	}
}

// Snapshot is a point-in-time copy of the engine's playback state.
// Consumers read snapshots and issue commands; they never mutate the
// engine's state directly.
type Snapshot struct {
	CurrentTrack *queue.Track
	IsPlaying    bool
	Progress     float64 // 0-100
	Volume       int     // 0-100
	Shuffled     bool
	RepeatMode   RepeatMode
	MiniPlayer   bool // collapsed player surface visible
	Expanded     bool // full-screen player surface visible
}

// HasTrack returns true if a track is loaded.
func (s Snapshot) HasTrack() bool {
	return s.CurrentTrack != nil
}
