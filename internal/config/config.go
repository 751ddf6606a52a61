package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	// Backend holds the hosted service connection settings.
	Backend BackendConfig `koanf:"backend"`

	// Account credentials used for sign-in on startup.
	Account AccountConfig `koanf:"account"`

	// Last.fm scrobbling (enables scrobbling when configured)
	Lastfm LastfmConfig `koanf:"lastfm"`

	// Playback defaults applied on first run (persisted state wins after).
	Playback PlaybackConfig `koanf:"playback"`

	// DesktopNotifications enables D-Bus toasts for pushed notifications.
	DesktopNotifications *bool `koanf:"desktop_notifications"`
}

// BackendConfig holds the hosted backend connection settings.
type BackendConfig struct {
	URL     string `koanf:"url"`      // e.g., "https://abc.backend.example"
	AnonKey string `koanf:"anon_key"` // public API key sent with every request
}

// AccountConfig holds sign-in credentials.
type AccountConfig struct {
	Email    string `koanf:"email"`
	Password string `koanf:"password"`
}

// LastfmConfig holds Last.fm scrobbling configuration.
type LastfmConfig struct {
	APIKey    string `koanf:"api_key"`
	APISecret string `koanf:"api_secret"`
}

// PlaybackConfig holds playback defaults.
type PlaybackConfig struct {
	Volume   int    `koanf:"volume"`    // 0-100, default 80
	CacheDir string `koanf:"cache_dir"` // override for the audio fetch cache
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	configPaths := getConfigPaths()

	for _, path := range configPaths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	// Normalize backend URL (remove trailing slash)
	cfg.Backend.URL = strings.TrimSuffix(cfg.Backend.URL, "/")

	// Expand ~ in cache_dir
	if cfg.Playback.CacheDir != "" {
		cfg.Playback.CacheDir = expandPath(cfg.Playback.CacheDir)
	}

	if cfg.Playback.Volume <= 0 || cfg.Playback.Volume > 100 {
		cfg.Playback.Volume = 80
	}

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/resona/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "resona", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// HasBackendConfig returns true if the backend connection is configured.
func (c *Config) HasBackendConfig() bool {
	return c.Backend.URL != "" && c.Backend.AnonKey != ""
}

// HasAccountConfig returns true if sign-in credentials are configured.
func (c *Config) HasAccountConfig() bool {
	return c.Account.Email != "" && c.Account.Password != ""
}

// HasLastfmConfig returns true if Last.fm scrobbling is configured.
func (c *Config) HasLastfmConfig() bool {
	return c.Lastfm.APIKey != "" && c.Lastfm.APISecret != ""
}

// DesktopNotificationsEnabled reports whether toasts should be raised.
// Defaults to true when unset.
func (c *Config) DesktopNotificationsEnabled() bool {
	if c.DesktopNotifications == nil {
		return true
	}
	return *c.DesktopNotifications
}
