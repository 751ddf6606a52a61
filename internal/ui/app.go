// Package ui is the terminal front end: a feed tab, a notifications
// tab with an unread badge, transient toasts and the persistent
// mini-player bar.
package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/jcrosnier/resona/internal/backend"
	"github.com/jcrosnier/resona/internal/errmsg"
	"github.com/jcrosnier/resona/internal/feed"
	"github.com/jcrosnier/resona/internal/lyrics"
	"github.com/jcrosnier/resona/internal/notifications"
	"github.com/jcrosnier/resona/internal/playback"
	"github.com/jcrosnier/resona/internal/queue"
)

const (
	toastDuration = 4 * time.Second
	seekStep      = 5.0
	volumeStep    = 5
)

// Tab identifies the visible pane.
type Tab int

const (
	TabFeed Tab = iota
	TabNotifications
)

type (
	refreshMsg     struct{}
	playbackMsg    struct{}
	syncChangedMsg struct{}
	feedChangedMsg struct{}
	toastMsg       struct{ text string }
	clearToastMsg  struct{}
	errMsg         struct{ text string }
	lyricsMsg      struct {
		trackID string
		lyrics  *lyrics.Lyrics
	}
	playbackErrMsg struct{ err error }
)

// Model is the bubbletea application model.
type Model struct {
	engine *playback.Engine
	sync   *notifications.Synchronizer
	feed   *feed.Feed
	log    *zap.Logger

	playbackSub *playback.Subscription
	alerts      <-chan notifications.Alert

	lyricsSource *lyrics.Source
	lyricsTrack  string
	lyrics       *lyrics.Lyrics

	tab         Tab
	feedCursor  int
	notifCursor int
	width       int
	height      int
	toast       string
	errText     string
}

// New creates the application model.
func New(engine *playback.Engine, sync *notifications.Synchronizer, fd *feed.Feed, log *zap.Logger) *Model {
	return &Model{
		engine:       engine,
		sync:         sync,
		feed:         fd,
		log:          log,
		playbackSub:  engine.Subscribe(),
		alerts:       sync.SubscribeAlerts(),
		lyricsSource: lyrics.NewSource(),
		width:        80,
		height:       24,
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		waitPlayback(m.playbackSub),
		waitChanged(m.sync.Changed(), syncChangedMsg{}),
		waitChanged(m.feed.Changed(), feedChangedMsg{}),
		waitAlert(m.alerts),
	)
}

// waitPlayback coalesces playback events into a redraw. It is re-armed
// after each message so exactly one waiter exists per source.
func waitPlayback(sub *playback.Subscription) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-sub.StateChanged:
			return playbackMsg{}
		case <-sub.TrackChanged:
			return playbackMsg{}
		case <-sub.ProgressChanged:
			return playbackMsg{}
		case <-sub.ModeChanged:
			return playbackMsg{}
		case ev := <-sub.Error:
			return playbackErrMsg{err: ev.Err}
		case <-sub.Done:
			return nil
		}
	}
}

func waitChanged(ch <-chan struct{}, msg tea.Msg) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return msg
	}
}

func waitAlert(ch <-chan notifications.Alert) tea.Cmd {
	return func() tea.Msg {
		alert := <-ch
		return toastMsg{text: alert.Text}
	}
}

// fetchLyricsIfNeeded starts a lyrics fetch when the expanded player is
// visible and the loaded track has none yet.
func (m *Model) fetchLyricsIfNeeded() tea.Cmd {
	snap := m.engine.Snapshot()
	if !snap.Expanded || !snap.HasTrack() {
		return nil
	}
	track := *snap.CurrentTrack
	if track.ID == m.lyricsTrack {
		return nil
	}
	m.lyricsTrack = track.ID
	m.lyrics = nil
	src := m.lyricsSource
	log := m.log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		res := src.Fetch(ctx, track)
		if res.Err != nil {
			log.Debug("lyrics fetch failed",
				zap.String("track", track.Title), zap.Error(res.Err))
		}
		return lyricsMsg{trackID: track.ID, lyrics: res.Lyrics}
	}
}

func clearToastAfter() tea.Cmd {
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return clearToastMsg{}
	})
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case refreshMsg:
		m.clampCursors()
		return m, nil

	case playbackMsg:
		m.clampCursors()
		return m, tea.Batch(waitPlayback(m.playbackSub), m.fetchLyricsIfNeeded())

	case syncChangedMsg:
		m.clampCursors()
		return m, waitChanged(m.sync.Changed(), syncChangedMsg{})

	case feedChangedMsg:
		m.clampCursors()
		return m, waitChanged(m.feed.Changed(), feedChangedMsg{})

	case toastMsg:
		m.toast = msg.text
		return m, tea.Batch(waitAlert(m.alerts), clearToastAfter())

	case clearToastMsg:
		m.toast = ""
		return m, nil

	case errMsg:
		m.errText = msg.text
		return m, nil

	case lyricsMsg:
		if msg.trackID == m.lyricsTrack {
			m.lyrics = msg.lyrics
		}
		return m, nil

	case playbackErrMsg:
		m.errText = errmsg.Format(errmsg.OpPlaybackStart, msg.err)
		return m, waitPlayback(m.playbackSub)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Tab):
		if m.tab == TabFeed {
			m.tab = TabNotifications
		} else {
			m.tab = TabFeed
		}
		return m, nil

	case key.Matches(msg, keys.Up):
		m.moveCursor(-1)
		return m, nil

	case key.Matches(msg, keys.Down):
		m.moveCursor(1)
		return m, nil

	case key.Matches(msg, keys.Select):
		return m, m.selectCurrent()

	case key.Matches(msg, keys.Refresh):
		return m, func() tea.Msg {
			if err := m.feed.Refresh(context.Background()); err != nil {
				return errMsg{text: errmsg.Format(errmsg.OpFeedRefresh, err)}
			}
			return refreshMsg{}
		}

	case key.Matches(msg, keys.MarkAllRead):
		return m, func() tea.Msg {
			if err := m.sync.MarkAllRead(context.Background()); err != nil {
				return errMsg{text: errmsg.Format(errmsg.OpMarkAllRead, err)}
			}
			return refreshMsg{}
		}

	case key.Matches(msg, keys.Toggle):
		m.engine.Toggle()
		return m, nil

	case key.Matches(msg, keys.Next):
		// Runs as a command: binding a track downloads audio and must
		// not stall the event loop
		return m, func() tea.Msg {
			if err := m.engine.Next(); err != nil {
				return errMsg{text: errmsg.Format(errmsg.OpPlaybackStart, err)}
			}
			return nil
		}

	case key.Matches(msg, keys.Previous):
		return m, func() tea.Msg {
			if err := m.engine.Previous(); err != nil {
				return errMsg{text: errmsg.Format(errmsg.OpPlaybackStart, err)}
			}
			return nil
		}

	case key.Matches(msg, keys.SeekBack):
		m.engine.SeekToPercent(m.engine.Snapshot().Progress - seekStep)
		return m, nil

	case key.Matches(msg, keys.SeekForward):
		m.engine.SeekToPercent(m.engine.Snapshot().Progress + seekStep)
		return m, nil

	case key.Matches(msg, keys.VolumeUp):
		m.engine.SetVolume(m.engine.Snapshot().Volume + volumeStep)
		return m, nil

	case key.Matches(msg, keys.VolumeDown):
		m.engine.SetVolume(m.engine.Snapshot().Volume - volumeStep)
		return m, nil

	case key.Matches(msg, keys.Repeat):
		m.engine.CycleRepeatMode()
		return m, nil

	case key.Matches(msg, keys.Shuffle):
		m.engine.ToggleShuffle()
		return m, nil

	case key.Matches(msg, keys.Expand):
		m.engine.SetExpanded(!m.engine.Snapshot().Expanded)
		return m, m.fetchLyricsIfNeeded()
	}
	return m, nil
}

// selectCurrent acts on the highlighted row: play an audio post from
// the feed, mark a notification read.
func (m *Model) selectCurrent() tea.Cmd {
	switch m.tab {
	case TabFeed:
		posts := m.feed.Posts()
		if m.feedCursor >= len(posts) {
			return nil
		}
		tracks, start := playableTracks(posts, m.feedCursor)
		if len(tracks) == 0 {
			return nil
		}
		return func() tea.Msg {
			if err := m.engine.PlayTracks(tracks, start); err != nil {
				return errMsg{text: errmsg.Format(errmsg.OpPlaybackStart, err)}
			}
			return nil
		}

	case TabNotifications:
		list := m.sync.Notifications()
		if m.notifCursor >= len(list) {
			return nil
		}
		id := list[m.notifCursor].ID
		return func() tea.Msg {
			if err := m.sync.MarkRead(context.Background(), id); err != nil {
				return errMsg{text: errmsg.Format(errmsg.OpMarkRead, err)}
			}
			return refreshMsg{}
		}
	}
	return nil
}

// playableTracks collects the audio posts into a queue, returning the
// queue index of the selected post (or -1 when it is not playable).
func playableTracks(posts []backend.Post, selected int) ([]queue.Track, int) {
	var tracks []queue.Track
	start := -1
	for i, post := range posts {
		if post.Type != "audio" || post.Track == nil {
			continue
		}
		if i == selected {
			start = len(tracks)
		}
		tracks = append(tracks, queue.FromBackendTrack(*post.Track))
	}
	if start < 0 {
		return nil, -1
	}
	return tracks, start
}

func (m *Model) moveCursor(delta int) {
	switch m.tab {
	case TabFeed:
		m.feedCursor += delta
	case TabNotifications:
		m.notifCursor += delta
	}
	m.clampCursors()
}

func (m *Model) clampCursors() {
	m.feedCursor = clampIndex(m.feedCursor, len(m.feed.Posts()))
	m.notifCursor = clampIndex(m.notifCursor, len(m.sync.Notifications()))
}

func clampIndex(i, n int) int {
	if n == 0 {
		return 0
	}
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func (m *Model) View() string {
	snap := m.engine.Snapshot()

	header := applyGradient("resona", colorPrimary, colorSecondary)
	tabs := m.renderTabs()

	bar := renderPlayerBar(snap, m.width)
	barHeight := lipgloss.Height(bar)
	if bar == "" {
		barHeight = 0
	}

	statusLine := ""
	switch {
	case m.errText != "":
		statusLine = errorStyle.Render(m.errText)
	case m.toast != "":
		statusLine = toastStyle.Render(m.toast)
	}

	bodyHeight := max(m.height-4-barHeight, 1)
	var body string
	switch {
	case snap.Expanded && snap.HasTrack():
		body = renderExpanded(snap, m.lyrics, m.width, bodyHeight)
	case m.tab == TabFeed:
		body = renderFeed(m.feed.Posts(), m.feedCursor, m.feed.Stale(), m.width, bodyHeight)
	default:
		body = renderNotifications(m.sync.Notifications(), m.notifCursor, m.width, bodyHeight)
	}

	sections := []string{header + "  " + tabs, body}
	if statusLine != "" {
		sections = append(sections, statusLine)
	}
	if bar != "" {
		sections = append(sections, bar)
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderTabs() string {
	feedTab := "feed"
	notifTab := "notifications"
	if unread := m.sync.UnreadCount(); unread > 0 {
		notifTab += " " + unreadBadgeStyle.Render(fmt.Sprint(unread))
	}

	if m.tab == TabFeed {
		return tabActiveStyle.Render(feedTab) + "   " + tabInactiveStyle.Render(notifTab)
	}
	return tabInactiveStyle.Render(feedTab) + "   " + tabActiveStyle.Render(notifTab)
}
