package queue

import (
	"time"

	"github.com/jcrosnier/resona/internal/backend"
)

// FromBackendTrack maps a tracks row to a queue entry.
func FromBackendTrack(t backend.Track) Track {
	entry := Track{
		ID:       t.ID,
		Title:    t.Title,
		ArtistID: t.ProfileID,
		CoverURL: t.CoverURL,
		AudioURL: t.AudioURL,
		Duration: time.Duration(t.Duration) * time.Second,
		Plays:    t.Plays,
		Likes:    t.Likes,
	}
	if t.Artist != nil {
		entry.ArtistName = t.Artist.DisplayName()
	}
	return entry
}

// FromBackendTracks maps a slice of rows, preserving order.
func FromBackendTracks(rows []backend.Track) []Track {
	out := make([]Track, 0, len(rows))
	for _, r := range rows {
		out = append(out, FromBackendTrack(r))
	}
	return out
}
