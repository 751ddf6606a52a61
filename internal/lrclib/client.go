// Package lrclib provides a client for the lrclib.net lyrics API.
package lrclib

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ErrNotFound is returned when the API has no lyrics for the track.
var ErrNotFound = errors.New("lyrics not found")

const defaultBaseURL = "https://lrclib.net/api"

// Client talks to the lrclib.net lyrics service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a lyrics client against the public lrclib.net instance.
func New() *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// LyricsResult is a single lyrics record from the API.
type LyricsResult struct {
	ID           int     `json:"id"`
	TrackName    string  `json:"trackName"`
	ArtistName   string  `json:"artistName"`
	AlbumName    string  `json:"albumName"`
	Duration     float64 `json:"duration"`
	Instrumental bool    `json:"instrumental"`
	PlainLyrics  string  `json:"plainLyrics"`
	SyncedLyrics string  `json:"syncedLyrics"`
}

// HasSyncedLyrics reports whether the record carries LRC timed lyrics.
func (r *LyricsResult) HasSyncedLyrics() bool { return r.SyncedLyrics != "" }

// HasPlainLyrics reports whether the record carries plain text lyrics.
func (r *LyricsResult) HasPlainLyrics() bool { return r.PlainLyrics != "" }

// Get looks up lyrics by artist and title. A positive duration (track length)
// tightens the match. Returns ErrNotFound when the service has no record.
func (c *Client) Get(ctx context.Context, artist, title string, duration time.Duration) (*LyricsResult, error) {
	q := url.Values{}
	q.Set("artist_name", artist)
	q.Set("track_name", title)
	if duration > 0 {
		q.Set("duration", strconv.Itoa(int(duration.Round(time.Second).Seconds())))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/get?"+q.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "resona/1.0 (https://github.com/jcrosnier/resona)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("lrclib returned status %d: %s", resp.StatusCode, string(body))
	}

	var result LyricsResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &result, nil
}
