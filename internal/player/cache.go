package player

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

const appName = "resona"

// fetchCache downloads remote audio into a local cache so the decoder
// gets a seekable file. Entries are keyed by URL hash.
type fetchCache struct {
	dir        string
	httpClient *http.Client
}

func newFetchCache(dir string) *fetchCache {
	return &fetchCache{
		dir: dir,
		// Audio files are large; allow slow links
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

// fetch returns a local path for the given audio URL, downloading it on
// first use.
func (c *fetchCache) fetch(rawURL string) (string, error) {
	dest, err := c.pathFor(rawURL)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(dest); err == nil {
		return dest, nil
	}

	resp, err := c.httpClient.Get(rawURL)
	if err != nil {
		return "", fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	// Write to a temp name first so a partial download never looks cached
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".fetch-*")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("download: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}

	return dest, nil
}

// pathFor maps a URL to its cache file path, preserving the extension so
// the decoder can be chosen from it.
func (c *fetchCache) pathFor(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse audio url: %w", err)
	}

	ext := path.Ext(u.Path)
	if ext == "" {
		ext = ".mp3"
	}

	sum := sha256.Sum256([]byte(rawURL))
	name := hex.EncodeToString(sum[:16]) + ext

	if c.dir != "" {
		if err := os.MkdirAll(c.dir, 0o755); err != nil {
			return "", err
		}
		return filepath.Join(c.dir, name), nil
	}
	return xdg.CacheFile(filepath.Join(appName, "audio", name))
}
