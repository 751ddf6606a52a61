// Package queue holds the ordered set of tracks the playback engine
// traverses. Shuffle materializes a separate traversal order over the
// canonical list, so turning it off restores the original sequence.
package queue

import (
	"math/rand"
	"time"
)

// Track is a playable queue entry. Entries are unique by ID.
type Track struct {
	ID         string
	Title      string
	ArtistID   string
	ArtistName string
	CoverURL   string
	AudioURL   string
	Duration   time.Duration
	Plays      int
	Likes      int
}

// Queue is an ordered collection of tracks with an optional shuffled
// traversal order.
type Queue struct {
	tracks   []Track // canonical order
	order    []int   // traversal order, indices into tracks
	shuffled bool
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{}
}

// Replace swaps the queue contents wholesale. A shuffled queue is
// reshuffled over the new contents.
func (q *Queue) Replace(tracks ...Track) {
	q.tracks = q.tracks[:0]
	q.order = q.order[:0]
	q.appendUnique(tracks)
	if q.shuffled {
		q.shuffleOrder()
	}
}

// Append adds tracks to the end of the queue, skipping ids already
// present. Appended tracks go to the end of the traversal order too,
// shuffled or not.
func (q *Queue) Append(tracks ...Track) {
	q.appendUnique(tracks)
}

func (q *Queue) appendUnique(tracks []Track) {
	for _, t := range tracks {
		if q.indexByID(t.ID) >= 0 {
			continue
		}
		q.tracks = append(q.tracks, t)
		q.order = append(q.order, len(q.tracks)-1)
	}
}

func (q *Queue) indexByID(id string) int {
	for i := range q.tracks {
		if q.tracks[i].ID == id {
			return i
		}
	}
	return -1
}

// Clear removes all tracks.
func (q *Queue) Clear() {
	q.tracks = q.tracks[:0]
	q.order = q.order[:0]
}

// Len returns the number of tracks.
func (q *Queue) Len() int {
	return len(q.tracks)
}

// IsEmpty returns true if the queue has no tracks.
func (q *Queue) IsEmpty() bool {
	return len(q.tracks) == 0
}

// Tracks returns a copy of the canonical (unshuffled) track list.
func (q *Queue) Tracks() []Track {
	result := make([]Track, len(q.tracks))
	copy(result, q.tracks)
	return result
}

// InOrder returns a copy of the tracks in traversal order.
func (q *Queue) InOrder() []Track {
	result := make([]Track, 0, len(q.order))
	for _, idx := range q.order {
		result = append(result, q.tracks[idx])
	}
	return result
}

// SetShuffle toggles the shuffled traversal order. Enabling materializes
// a new permutation; disabling restores the canonical order.
func (q *Queue) SetShuffle(enabled bool) {
	if q.shuffled == enabled {
		return
	}
	q.shuffled = enabled
	if enabled {
		q.shuffleOrder()
		return
	}
	for i := range q.order {
		q.order[i] = i
	}
}

func (q *Queue) shuffleOrder() {
	rand.Shuffle(len(q.order), func(i, j int) {
		q.order[i], q.order[j] = q.order[j], q.order[i]
	})
}

// Shuffled reports whether the traversal order is shuffled.
func (q *Queue) Shuffled() bool {
	return q.shuffled
}

// Position returns a track's position in the traversal order, or -1 if
// the id is not in the queue.
func (q *Queue) Position(id string) int {
	for pos, idx := range q.order {
		if q.tracks[idx].ID == id {
			return pos
		}
	}
	return -1
}

// AtPosition returns the track at the given traversal position, or nil
// if out of bounds.
func (q *Queue) AtPosition(pos int) *Track {
	if pos < 0 || pos >= len(q.order) {
		return nil
	}
	t := q.tracks[q.order[pos]]
	return &t
}
