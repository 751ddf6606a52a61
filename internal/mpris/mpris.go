//go:build linux

package mpris

import (
	"fmt"
	"hash/fnv"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"

	"github.com/jcrosnier/resona/internal/playback"
)

// Adapter exposes the playback engine on the session bus as an
// org.mpris.MediaPlayer2 player, so desktop media keys and applets can
// drive it.
type Adapter struct {
	server *server.Server
}

// New registers the player on the session bus and starts serving requests.
func New(engine *playback.Engine) (*Adapter, error) {
	a := &Adapter{}

	a.server = server.NewServer("resona", &rootAdapter{}, &playerAdapter{engine: engine})

	go func() {
		_ = a.server.Listen()
	}()

	return a, nil
}

// Close unregisters the player from the bus.
func (a *Adapter) Close() error {
	return a.server.Stop()
}

// rootAdapter answers the org.mpris.MediaPlayer2 root interface.
type rootAdapter struct{}

func (r *rootAdapter) Raise() error {
	return nil
}

func (r *rootAdapter) Quit() error {
	return nil
}

func (r *rootAdapter) CanQuit() (bool, error) {
	return false, nil
}

func (r *rootAdapter) CanRaise() (bool, error) {
	return false, nil
}

func (r *rootAdapter) HasTrackList() (bool, error) {
	return false, nil
}

func (r *rootAdapter) Identity() (string, error) {
	return "Resona", nil
}

//nolint:revive // name fixed by the adapter interface
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{"https", "http"}, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{"audio/mpeg", "audio/mp3", "audio/ogg"}, nil
}

// playerAdapter maps the org.mpris.MediaPlayer2.Player interface onto the
// engine. The engine stays the sole owner of the audio device; every call
// here goes through its public API.
type playerAdapter struct {
	engine *playback.Engine
}

func (p *playerAdapter) Next() error {
	return p.engine.Next()
}

func (p *playerAdapter) Previous() error {
	return p.engine.Previous()
}

func (p *playerAdapter) Pause() error {
	p.engine.Pause()
	return nil
}

func (p *playerAdapter) PlayPause() error {
	p.engine.Toggle()
	return nil
}

func (p *playerAdapter) Stop() error {
	p.engine.Pause()
	p.engine.SeekToPercent(0)
	return nil
}

func (p *playerAdapter) Play() error {
	p.engine.Resume()
	return nil
}

func (p *playerAdapter) Seek(offset types.Microseconds) error {
	snap := p.engine.Snapshot()
	if !snap.HasTrack() || snap.CurrentTrack.Duration <= 0 {
		return nil
	}
	dur := snap.CurrentTrack.Duration
	pos := time.Duration(snap.Progress/100*float64(dur)) + time.Duration(offset)*time.Microsecond
	p.engine.SeekToPercent(float64(pos) / float64(dur) * 100)
	return nil
}

func (p *playerAdapter) SetPosition(_ string, position types.Microseconds) error {
	snap := p.engine.Snapshot()
	if !snap.HasTrack() || snap.CurrentTrack.Duration <= 0 {
		return nil
	}
	pos := time.Duration(position) * time.Microsecond
	p.engine.SeekToPercent(float64(pos) / float64(snap.CurrentTrack.Duration) * 100)
	return nil
}

//nolint:revive // name fixed by the adapter interface
func (p *playerAdapter) OpenUri(_ string) error {
	return nil
}

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	snap := p.engine.Snapshot()
	switch {
	case !snap.HasTrack():
		return types.PlaybackStatusStopped, nil
	case snap.IsPlaying:
		return types.PlaybackStatusPlaying, nil
	default:
		return types.PlaybackStatusPaused, nil
	}
}

func (p *playerAdapter) Rate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) SetRate(_ float64) error {
	return nil
}

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	snap := p.engine.Snapshot()
	if !snap.HasTrack() {
		return types.Metadata{}, nil
	}
	track := snap.CurrentTrack

	meta := types.Metadata{
		TrackId: dbus.ObjectPath(formatTrackID(track.ID)),
		Length:  types.Microseconds(track.Duration.Microseconds()),
		Title:   track.Title,
		Artist:  []string{track.ArtistName},
		ArtUrl:  track.CoverURL,
	}
	return meta, nil
}

func (p *playerAdapter) Volume() (float64, error) {
	return float64(p.engine.Snapshot().Volume) / 100, nil
}

func (p *playerAdapter) SetVolume(v float64) error {
	p.engine.SetVolume(int(v*100 + 0.5))
	return nil
}

func (p *playerAdapter) Position() (int64, error) {
	snap := p.engine.Snapshot()
	if !snap.HasTrack() {
		return 0, nil
	}
	return int64(snap.Progress / 100 * float64(snap.CurrentTrack.Duration.Microseconds())), nil
}

func (p *playerAdapter) MinimumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) MaximumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) CanGoNext() (bool, error) {
	return len(p.engine.QueueTracks()) > 0, nil
}

func (p *playerAdapter) CanGoPrevious() (bool, error) {
	return p.engine.Snapshot().HasTrack(), nil
}

func (p *playerAdapter) CanPlay() (bool, error) {
	return p.engine.Snapshot().HasTrack(), nil
}

func (p *playerAdapter) CanPause() (bool, error) {
	return true, nil
}

func (p *playerAdapter) CanSeek() (bool, error) {
	return true, nil
}

func (p *playerAdapter) CanControl() (bool, error) {
	return true, nil
}

func (p *playerAdapter) LoopStatus() (types.LoopStatus, error) {
	switch p.engine.Snapshot().RepeatMode {
	case playback.RepeatOne:
		return types.LoopStatusTrack, nil
	case playback.RepeatAll:
		return types.LoopStatusPlaylist, nil
	}
	return types.LoopStatusNone, nil
}

func (p *playerAdapter) SetLoopStatus(status types.LoopStatus) error {
	switch status {
	case types.LoopStatusNone:
		p.engine.SetRepeatMode(playback.RepeatOff)
	case types.LoopStatusTrack:
		p.engine.SetRepeatMode(playback.RepeatOne)
	case types.LoopStatusPlaylist:
		p.engine.SetRepeatMode(playback.RepeatAll)
	}
	return nil
}

func (p *playerAdapter) Shuffle() (bool, error) {
	return p.engine.Snapshot().Shuffled, nil
}

func (p *playerAdapter) SetShuffle(shuffle bool) error {
	p.engine.SetShuffle(shuffle)
	return nil
}

func formatTrackID(id string) string {
	h := fnv.New64a()
	h.Write([]byte(id))
	return fmt.Sprintf("/org/mpris/MediaPlayer2/Track/%x", h.Sum64())
}
