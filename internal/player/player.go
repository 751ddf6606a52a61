// Package player owns the single audio output resource. Tracks arrive as
// URLs; the player fetches them into a local cache, decodes by extension
// and streams through the speaker.
package player

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

type Player struct {
	state    State
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	streamer beep.StreamSeekCloser
	format   beep.Format
	file     *os.File

	volumeLevel float64

	finishedCh chan struct{}
	cache      *fetchCache
}

var speakerInitialized bool

// New creates a stopped player. cacheDir overrides the default XDG audio
// cache location when non-empty.
func New(cacheDir string) *Player {
	return &Player{
		state:       Stopped,
		volumeLevel: 1.0,
		finishedCh:  make(chan struct{}, 1),
		cache:       newFetchCache(cacheDir),
	}
}

// Fetch downloads the audio into the cache. A later Play of the same
// URL then binds a local file instead of hitting the network.
func (p *Player) Fetch(audioURL string) error {
	if _, err := p.cache.fetch(audioURL); err != nil {
		return fmt.Errorf("fetch audio: %w", err)
	}
	return nil
}

// Play fetches and binds a new audio resource, tearing down any previous
// one first, and starts playback from position 0.
func (p *Player) Play(audioURL string) error {
	p.Stop()

	path, err := p.cache.fetch(audioURL)
	if err != nil {
		return fmt.Errorf("fetch audio: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}

	var streamer beep.StreamSeekCloser
	var format beep.Format

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".flac":
		streamer, format, err = flac.Decode(f)
	case ".ogg":
		streamer, format, err = vorbis.Decode(f)
	case ".wav":
		streamer, format, err = wav.Decode(f)
	default:
		f.Close()
		return fmt.Errorf("unsupported format: %s", ext)
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("decode audio: %w", err)
	}

	if !speakerInitialized {
		err = speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10))
		if err != nil {
			streamer.Close()
			f.Close()
			return err
		}
		speakerInitialized = true
	}

	p.file = f
	p.streamer = streamer
	p.format = format
	p.ctrl = &beep.Ctrl{Streamer: streamer, Paused: false}
	// Volume is resource-local: re-apply the stored level on every bind
	p.volume = &effects.Volume{
		Streamer: p.ctrl,
		Base:     2,
		Volume:   levelToVolume(p.volumeLevel),
		Silent:   p.volumeLevel <= 0,
	}

	p.state = Playing

	speaker.Play(beep.Seq(p.volume, beep.Callback(func() {
		select {
		case p.finishedCh <- struct{}{}:
		default:
		}
	})))

	return nil
}

// Stop stops playback and releases the bound resource.
func (p *Player) Stop() {
	if p.state == Stopped {
		return
	}

	speaker.Clear()

	if p.streamer != nil {
		p.streamer.Close()
		p.streamer = nil
	}
	if p.file != nil {
		p.file.Close()
		p.file = nil
	}

	p.ctrl = nil
	p.volume = nil
	p.state = Stopped

	// Drain a finish signal emitted by the cleared callback, so the next
	// bound track doesn't see a stale one
	select {
	case <-p.finishedCh:
	default:
	}
}

// Pause pauses playback.
func (p *Player) Pause() {
	if p.state != Playing || p.ctrl == nil {
		return
	}
	speaker.Lock()
	p.ctrl.Paused = true
	speaker.Unlock()
	p.state = Paused
}

// Resume resumes paused playback.
func (p *Player) Resume() {
	if p.state != Paused || p.ctrl == nil {
		return
	}
	speaker.Lock()
	p.ctrl.Paused = false
	speaker.Unlock()
	p.state = Playing
}

func (p *Player) State() State { return p.state }

// Position returns the current playback position.
func (p *Player) Position() time.Duration {
	if p.streamer == nil {
		return 0
	}
	speaker.Lock()
	pos := p.format.SampleRate.D(p.streamer.Position())
	speaker.Unlock()
	return pos
}

// Duration returns the bound resource's total duration.
func (p *Player) Duration() time.Duration {
	if p.streamer == nil {
		return 0
	}
	return p.format.SampleRate.D(p.streamer.Len())
}

// SeekTo moves playback to an absolute position, clamped to the
// resource's bounds.
func (p *Player) SeekTo(pos time.Duration) {
	if p.streamer == nil || p.state == Stopped {
		return
	}

	speaker.Lock()
	defer speaker.Unlock()

	n := p.format.SampleRate.N(pos)
	n = max(n, 0)
	if maxPos := p.streamer.Len() - 1; n > maxPos {
		n = maxPos
	}
	_ = p.streamer.Seek(n)
}

// FinishedChan delivers a signal each time a bound resource plays to its end.
func (p *Player) FinishedChan() <-chan struct{} {
	return p.finishedCh
}

// Close stops playback and releases resources.
func (p *Player) Close() error {
	p.Stop()
	return nil
}
