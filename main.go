package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jcrosnier/resona/internal/backend"
	"github.com/jcrosnier/resona/internal/config"
	"github.com/jcrosnier/resona/internal/feed"
	"github.com/jcrosnier/resona/internal/logging"
	"github.com/jcrosnier/resona/internal/mpris"
	"github.com/jcrosnier/resona/internal/notifications"
	"github.com/jcrosnier/resona/internal/notify"
	"github.com/jcrosnier/resona/internal/playback"
	"github.com/jcrosnier/resona/internal/player"
	"github.com/jcrosnier/resona/internal/queue"
	"github.com/jcrosnier/resona/internal/scrobble"
	"github.com/jcrosnier/resona/internal/session"
	"github.com/jcrosnier/resona/internal/state"
	"github.com/jcrosnier/resona/internal/stderr"
	"github.com/jcrosnier/resona/internal/ui"
)

const signInTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	lastfmAuth := flag.Bool("lastfm-auth", false, "authorize Last.fm scrobbling and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *lastfmAuth {
		return runLastfmAuth(cfg)
	}
	if !cfg.HasBackendConfig() {
		return fmt.Errorf("backend not configured: set backend.url and backend.anon_key in config.toml")
	}
	if !cfg.HasAccountConfig() {
		return fmt.Errorf("account not configured: set account.email and account.password in config.toml")
	}

	log, err := logging.New(os.Getenv("RESONA_DEBUG") != "")
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer log.Sync() //nolint:errcheck // nothing to do about a failed final flush

	if err := stderr.Capture(log); err != nil {
		log.Warn("stderr capture unavailable", zap.Error(err))
	}
	defer stderr.Restore()

	stateMgr, err := state.Open()
	if err != nil {
		return fmt.Errorf("open state: %w", err)
	}
	defer stateMgr.Close()

	client := backend.NewClient(cfg.Backend.URL, cfg.Backend.AnonKey, log)
	sessions := session.NewManager(log)
	defer sessions.Close()

	// Saved prefs win over config defaults; config wins on first run.
	volume := cfg.Playback.Volume
	prefs, err := stateMgr.GetPlayerPrefs()
	if err != nil {
		log.Warn("player prefs unreadable", zap.Error(err))
	}
	if prefs != nil {
		volume = prefs.Volume
	}

	engine := playback.New(player.New(cfg.Playback.CacheDir), queue.New(), volume, log)
	defer engine.Close()
	if prefs != nil {
		engine.SetRepeatMode(playback.RepeatMode(prefs.RepeatMode))
		engine.SetShuffle(prefs.Shuffle)
	}
	if qs, err := stateMgr.GetQueue(); err == nil && qs != nil {
		engine.RestoreQueue(qs.Tracks, qs.CurrentTrackID)
	}
	engine.WatchSession(sessions.Subscribe())

	sync := notifications.NewSynchronizer(notifications.WrapClient(client), log)
	sync.WatchSession(sessions.Subscribe())
	defer sync.Close()

	fd := feed.New(feed.WrapClient(client), log)
	fd.WatchSession(sessions.Subscribe())
	defer fd.Stop()

	if mp, err := mpris.New(engine); err == nil {
		defer mp.Close()
	} else {
		log.Warn("mpris unavailable", zap.Error(err))
	}

	startScrobbler(cfg, stateMgr, engine, log)
	watchPlays(client, engine.Subscribe(), log)

	if cfg.DesktopNotificationsEnabled() {
		if notifier, err := notify.New(); err == nil {
			notify.WatchAlerts(notifier, sync.SubscribeAlerts(), log)
		} else {
			log.Warn("desktop notifications unavailable", zap.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), signInTimeout)
	profileID, err := client.SignIn(ctx, cfg.Account.Email, cfg.Account.Password)
	cancel()
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	sessions.SignedIn(profileID)

	prog := tea.NewProgram(ui.New(engine, sync, fd, log), tea.WithAltScreen())
	if _, err := prog.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}

	persistPlayback(stateMgr, engine, log)
	return nil
}

// runLastfmAuth walks the desktop auth flow on the terminal: the user
// authorizes a token in the browser, then the token is exchanged for a
// session key and stored.
func runLastfmAuth(cfg *config.Config) error {
	if !cfg.HasLastfmConfig() {
		return fmt.Errorf("lastfm not configured: set lastfm.api_key and lastfm.api_secret in config.toml")
	}

	stateMgr, err := state.Open()
	if err != nil {
		return fmt.Errorf("open state: %w", err)
	}
	defer stateMgr.Close()

	lfm := scrobble.New(cfg.Lastfm.APIKey, cfg.Lastfm.APISecret)
	token, err := lfm.GetToken()
	if err != nil {
		return fmt.Errorf("request token: %w", err)
	}

	fmt.Println("Open this URL in a browser and authorize the application:")
	fmt.Println()
	fmt.Println("  " + lfm.GetAuthURL(token))
	fmt.Println()
	fmt.Print("Press Enter once you have authorized... ")
	_, _ = fmt.Scanln()

	username, sessionKey, err := lfm.GetSession(token)
	if err != nil {
		return fmt.Errorf("exchange token: %w", err)
	}
	if err := stateMgr.SaveLastfmSession(username, sessionKey); err != nil {
		return fmt.Errorf("store session: %w", err)
	}

	fmt.Printf("Authorized as %s. Scrobbling is now enabled.\n", username)
	return nil
}

// startScrobbler wires Last.fm scrobbling when the API keys are
// configured and a stored session key exists.
func startScrobbler(cfg *config.Config, stateMgr *state.Manager, engine *playback.Engine, log *zap.Logger) {
	if !cfg.HasLastfmConfig() {
		return
	}

	lfm := scrobble.New(cfg.Lastfm.APIKey, cfg.Lastfm.APISecret)
	sess, err := stateMgr.GetLastfmSession()
	if err != nil {
		log.Warn("lastfm session unreadable", zap.Error(err))
		return
	}
	if sess == nil {
		log.Info("lastfm configured but not authenticated, scrobbling disabled")
		return
	}

	lfm.SetSessionKey(sess.SessionKey)
	scrobble.NewWatcher(lfm, log).Watch(engine.Subscribe())
	log.Info("scrobbling enabled", zap.String("lastfm_user", sess.Username))
}

// watchPlays bumps the backend play counter every time a new track
// starts.
func watchPlays(client *backend.Client, sub *playback.Subscription, log *zap.Logger) {
	go func() {
		for {
			select {
			case tc := <-sub.TrackChanged:
				if tc.Current == nil {
					continue
				}
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				if err := client.IncrementTrackPlays(ctx, tc.Current.ID); err != nil {
					log.Warn("play count update failed", zap.String("track_id", tc.Current.ID), zap.Error(err))
				}
				cancel()
			case <-sub.Done:
				return
			}
		}
	}()
}

// persistPlayback saves the playback preferences and the queue snapshot
// on exit.
func persistPlayback(stateMgr *state.Manager, engine *playback.Engine, log *zap.Logger) {
	snap := engine.Snapshot()

	err := stateMgr.SavePlayerPrefs(state.PlayerPrefs{
		Volume:     snap.Volume,
		RepeatMode: int(snap.RepeatMode),
		Shuffle:    snap.Shuffled,
	})
	if err != nil {
		log.Warn("save player prefs failed", zap.Error(err))
	}

	var currentID string
	if snap.CurrentTrack != nil {
		currentID = snap.CurrentTrack.ID
	}
	stateMgr.SaveQueue(state.QueueState{
		CurrentTrackID: currentID,
		Tracks:         engine.QueueTracks(),
	})
}
