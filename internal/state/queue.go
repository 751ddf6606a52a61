package state

import (
	"database/sql"
	"errors"
	"time"

	dbutil "github.com/jcrosnier/resona/internal/db"
	"github.com/jcrosnier/resona/internal/queue"
)

// QueueState is the persisted queue snapshot.
type QueueState struct {
	CurrentTrackID string
	Tracks         []queue.Track
}

func getQueue(db *sql.DB) (*QueueState, error) {
	var state QueueState
	var current sql.NullString

	row := db.QueryRow(`SELECT current_track_id FROM queue_state WHERE id = 1`)
	err := row.Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return &QueueState{}, nil
	}
	if err != nil {
		return nil, err
	}
	state.CurrentTrackID = dbutil.NullStringValue(current)

	rows, err := db.Query(`
		SELECT track_id, title, artist_id, artist_name, cover_url, audio_url, duration_seconds
		FROM queue_tracks
		ORDER BY position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var t queue.Track
		var artistID, artistName, coverURL, audioURL sql.NullString
		var durationSecs int64
		if err := rows.Scan(&t.ID, &t.Title, &artistID, &artistName, &coverURL, &audioURL, &durationSecs); err != nil {
			return nil, err
		}
		t.ArtistID = dbutil.NullStringValue(artistID)
		t.ArtistName = dbutil.NullStringValue(artistName)
		t.CoverURL = dbutil.NullStringValue(coverURL)
		t.AudioURL = dbutil.NullStringValue(audioURL)
		t.Duration = time.Duration(durationSecs) * time.Second
		state.Tracks = append(state.Tracks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &state, nil
}

func saveQueue(db *sql.DB, state QueueState) error {
	return dbutil.WithTx(db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM queue_tracks`); err != nil {
			return err
		}

		_, err := tx.Exec(`
			INSERT INTO queue_state (id, current_track_id)
			VALUES (1, ?)
			ON CONFLICT(id) DO UPDATE SET current_track_id = excluded.current_track_id
		`, state.CurrentTrackID)
		if err != nil {
			return err
		}

		for i, t := range state.Tracks {
			_, err := tx.Exec(`
				INSERT INTO queue_tracks
				(position, track_id, title, artist_id, artist_name, cover_url, audio_url, duration_seconds)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`, i, t.ID, t.Title, t.ArtistID, t.ArtistName, t.CoverURL, t.AudioURL, int64(t.Duration.Seconds()))
			if err != nil {
				return err
			}
		}
		return nil
	})
}
