//go:build linux

package mpris

import (
	"testing"
	"time"

	"github.com/quarckster/go-mpris-server/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jcrosnier/resona/internal/playback"
	"github.com/jcrosnier/resona/internal/player"
	"github.com/jcrosnier/resona/internal/queue"
)

func newTestAdapter(t *testing.T) (*playerAdapter, *playback.Engine) {
	t.Helper()
	engine := playback.New(player.NewMock(), queue.New(), 70, zap.NewNop())
	t.Cleanup(func() { engine.Close() })
	return &playerAdapter{engine: engine}, engine
}

func TestPlaybackStatusFollowsEngine(t *testing.T) {
	pa, engine := newTestAdapter(t)

	status, err := pa.PlaybackStatus()
	require.NoError(t, err)
	assert.Equal(t, types.PlaybackStatusStopped, status)

	require.NoError(t, engine.Play(queue.Track{
		ID:       "t1",
		Title:    "Glasswork",
		AudioURL: "https://cdn.example/t1.mp3",
		Duration: 3 * time.Minute,
	}))

	status, err = pa.PlaybackStatus()
	require.NoError(t, err)
	assert.Equal(t, types.PlaybackStatusPlaying, status)

	engine.Pause()
	status, err = pa.PlaybackStatus()
	require.NoError(t, err)
	assert.Equal(t, types.PlaybackStatusPaused, status)
}

func TestMetadataMapsCurrentTrack(t *testing.T) {
	pa, engine := newTestAdapter(t)

	meta, err := pa.Metadata()
	require.NoError(t, err)
	assert.Empty(t, meta.Title)

	require.NoError(t, engine.Play(queue.Track{
		ID:         "t1",
		Title:      "Glasswork",
		ArtistName: "nadia",
		CoverURL:   "https://cdn.example/t1.jpg",
		AudioURL:   "https://cdn.example/t1.mp3",
		Duration:   3 * time.Minute,
	}))

	meta, err = pa.Metadata()
	require.NoError(t, err)
	assert.Equal(t, "Glasswork", meta.Title)
	assert.Equal(t, []string{"nadia"}, meta.Artist)
	assert.Equal(t, "https://cdn.example/t1.jpg", meta.ArtUrl)
	assert.Equal(t, types.Microseconds((3 * time.Minute).Microseconds()), meta.Length)
}

func TestVolumeRoundTrip(t *testing.T) {
	pa, engine := newTestAdapter(t)

	v, err := pa.Volume()
	require.NoError(t, err)
	assert.InDelta(t, 0.7, v, 0.001)

	require.NoError(t, pa.SetVolume(0.45))
	assert.Equal(t, 45, engine.Snapshot().Volume)
}

func TestLoopStatusRoundTrip(t *testing.T) {
	pa, engine := newTestAdapter(t)

	status, err := pa.LoopStatus()
	require.NoError(t, err)
	assert.Equal(t, types.LoopStatusNone, status)

	require.NoError(t, pa.SetLoopStatus(types.LoopStatusPlaylist))
	assert.Equal(t, playback.RepeatAll, engine.Snapshot().RepeatMode)

	status, err = pa.LoopStatus()
	require.NoError(t, err)
	assert.Equal(t, types.LoopStatusPlaylist, status)

	require.NoError(t, pa.SetLoopStatus(types.LoopStatusTrack))
	assert.Equal(t, playback.RepeatOne, engine.Snapshot().RepeatMode)
}

func TestTrackObjectPathIsStable(t *testing.T) {
	a := formatTrackID("9f2c1f34-5a0e-4d67-9f3e-1f2a3b4c5d6e")
	b := formatTrackID("9f2c1f34-5a0e-4d67-9f3e-1f2a3b4c5d6e")
	assert.Equal(t, a, b)
	assert.Regexp(t, `^/org/mpris/MediaPlayer2/Track/[0-9a-f]+$`, a)
	assert.NotEqual(t, a, formatTrackID("other"))
}
