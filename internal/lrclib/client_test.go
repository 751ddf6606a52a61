package lrclib

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	c := New()
	c.baseURL = srv.URL
	return c, srv
}

func TestGetReturnsLyrics(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/get", r.URL.Path)
		assert.Equal(t, "Mira Vale", r.URL.Query().Get("artist_name"))
		assert.Equal(t, "Undertow", r.URL.Query().Get("track_name"))
		assert.Equal(t, "245", r.URL.Query().Get("duration"))
		_, _ = w.Write([]byte(`{
			"id": 1,
			"trackName": "Undertow",
			"artistName": "Mira Vale",
			"syncedLyrics": "[00:12.00]line one",
			"plainLyrics": "line one"
		}`))
	})
	defer srv.Close()

	res, err := c.Get(context.Background(), "Mira Vale", "Undertow", 245*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "Undertow", res.TrackName)
	assert.True(t, res.HasSyncedLyrics())
	assert.True(t, res.HasPlainLyrics())
}

func TestGetNotFound(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	defer srv.Close()

	_, err := c.Get(context.Background(), "nobody", "nothing", 0)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestGetServerError(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	defer srv.Close()

	_, err := c.Get(context.Background(), "a", "b", 0)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
