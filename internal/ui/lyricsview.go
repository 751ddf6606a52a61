package ui

import (
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jcrosnier/resona/internal/lyrics"
	"github.com/jcrosnier/resona/internal/playback"
)

// contextLines is how many lyric lines show above and below the active
// one in the expanded player.
const contextLines = 6

// renderExpanded draws the full-screen player: the track header plus a
// lyrics pane centered on the line matching the playback position.
func renderExpanded(snap playback.Snapshot, ly *lyrics.Lyrics, width, height int) string {
	track := snap.CurrentTrack

	title := applyGradient(truncate(track.Title, width-2), colorPrimary, colorSecondary)
	artist := mutedStyle.Render(truncate(track.ArtistName, width-2))
	header := lipgloss.JoinVertical(lipgloss.Center, title, artist)

	body := renderLyricsPane(snap, ly, width, max(height-3, 1))

	pane := lipgloss.JoinVertical(lipgloss.Center, header, "", body)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Top, pane)
}

func renderLyricsPane(snap playback.Snapshot, ly *lyrics.Lyrics, width, height int) string {
	if ly == nil || len(ly.Lines) == 0 {
		return subtleStyle.Render("no lyrics")
	}

	active := -1
	if ly.IsSynced() && snap.CurrentTrack.Duration > 0 {
		pos := time.Duration(snap.Progress / 100 * float64(snap.CurrentTrack.Duration))
		active = ly.LineAt(pos)
	}

	// Window the lines around the active one so the pane fits the screen
	window := min(height, 2*contextLines+1)
	start := 0
	if active >= 0 {
		start = active - window/2
	}
	start = clampIndex(start, max(len(ly.Lines)-window, 0)+1)
	end := min(start+window, len(ly.Lines))

	rows := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		text := truncate(ly.Lines[i].Text, width-4)
		if i == active {
			rows = append(rows, accentStyle.Render(text))
		} else {
			rows = append(rows, mutedStyle.Render(text))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Center, rows...)
}
