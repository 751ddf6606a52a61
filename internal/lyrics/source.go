package lyrics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/adrg/xdg"

	"github.com/jcrosnier/resona/internal/lrclib"
	"github.com/jcrosnier/resona/internal/queue"
)

// Source fetches lyrics for streamed tracks from the lrclib API, with
// an on-disk LRC cache keyed by artist and title.
type Source struct {
	client   *lrclib.Client
	cacheDir string
}

// NewSource creates a new lyrics source.
func NewSource() *Source {
	cacheDir, err := xdg.CacheFile(filepath.Join("resona", "lyrics"))
	if err != nil {
		cacheDir = ""
	}
	return &Source{
		client:   lrclib.New(),
		cacheDir: cacheDir,
	}
}

// FetchResult contains the result of a lyrics fetch.
type FetchResult struct {
	Lyrics *Lyrics
	Source string // "cache", "api", or "not_found"
	Err    error
}

// Fetch retrieves lyrics for a track, preferring the cache over the API.
func (s *Source) Fetch(ctx context.Context, track queue.Track) FetchResult {
	if track.ArtistName == "" || track.Title == "" {
		return FetchResult{Source: "not_found"}
	}

	if lyrics, err := s.loadFromCache(track.ArtistName, track.Title); err == nil && lyrics != nil {
		return FetchResult{Lyrics: lyrics, Source: "cache"}
	}

	result, err := s.client.Get(ctx, track.ArtistName, track.Title, track.Duration)
	if err != nil {
		if errors.Is(err, lrclib.ErrNotFound) {
			return FetchResult{Source: "not_found"}
		}
		return FetchResult{Source: "not_found", Err: err}
	}

	lyrics := fromAPIResult(result)
	if lyrics == nil || len(lyrics.Lines) == 0 {
		return FetchResult{Source: "not_found"}
	}

	if result.HasSyncedLyrics() {
		_ = s.saveToCache(track.ArtistName, track.Title, result.SyncedLyrics)
	}

	return FetchResult{Lyrics: lyrics, Source: "api"}
}

// fromAPIResult converts an API result into parsed lyrics. Synced LRC
// wins over plain text; plain lines all land at time 0.
func fromAPIResult(result *lrclib.LyricsResult) *Lyrics {
	var lyrics *Lyrics
	if result.HasSyncedLyrics() {
		var err error
		lyrics, err = ParseLRC(strings.NewReader(result.SyncedLyrics))
		if err != nil {
			return nil
		}
	} else if result.HasPlainLyrics() {
		lyrics = &Lyrics{}
		for _, line := range strings.Split(result.PlainLyrics, "\n") {
			line = strings.TrimSpace(line)
			if line != "" {
				lyrics.Lines = append(lyrics.Lines, Line{Time: 0, Text: line})
			}
		}
	}

	if lyrics == nil {
		return nil
	}

	if lyrics.Artist == "" {
		lyrics.Artist = result.ArtistName
	}
	if lyrics.Title == "" {
		lyrics.Title = result.TrackName
	}
	return lyrics
}

func (s *Source) loadFromCache(artist, title string) (*Lyrics, error) {
	path := s.cachePath(artist, title)
	if path == "" {
		return nil, os.ErrNotExist
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseLRC(f)
}

func (s *Source) cachePath(artist, title string) string {
	if s.cacheDir == "" {
		return ""
	}
	return filepath.Join(s.cacheDir, sanitizeFilename(artist), sanitizeFilename(title)+".lrc")
}

func (s *Source) saveToCache(artist, title, content string) error {
	path := s.cachePath(artist, title)
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o600)
}

var invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

func sanitizeFilename(name string) string {
	name = invalidFilenameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, " .")
	if len(name) > 100 {
		name = name[:100]
	}
	if name == "" {
		name = "_"
	}
	return name
}
