package backend

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

const trackSelect = "*,artist:profiles!tracks_profile_id_fkey(id,username,name,avatar_url,is_verified,is_artist)"

// GetTrack fetches a track by id with its artist embedded.
// Returns ErrNotFound if the row does not exist.
func (c *Client) GetTrack(ctx context.Context, id string) (*Track, error) {
	query := url.Values{}
	query.Set("select", trackSelect)
	query.Set("id", "eq."+id)
	query.Set("limit", "1")

	var rows []Track
	if err := c.getJSON(ctx, c.restURL("tracks", query), &rows); err != nil {
		return nil, fmt.Errorf("get track: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

// ListTracksByProfile returns an artist's tracks, newest first.
func (c *Client) ListTracksByProfile(ctx context.Context, profileID string, limit int) ([]Track, error) {
	query := url.Values{}
	query.Set("select", trackSelect)
	query.Set("profile_id", "eq."+profileID)
	query.Set("order", "created_at.desc")
	query.Set("limit", strconv.Itoa(limit))

	var rows []Track
	if err := c.getJSON(ctx, c.restURL("tracks", query), &rows); err != nil {
		return nil, fmt.Errorf("list tracks: %w", err)
	}
	return rows, nil
}

// IncrementTrackPlays bumps a track's play counter. The increment runs
// server-side so concurrent listeners don't lose counts.
func (c *Client) IncrementTrackPlays(ctx context.Context, trackID string) error {
	if err := c.rpc(ctx, "increment_track_plays", map[string]string{"p_track_id": trackID}); err != nil {
		return fmt.Errorf("increment plays: %w", err)
	}
	return nil
}
