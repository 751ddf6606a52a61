package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jcrosnier/resona/internal/playback"
)

const (
	playSymbol  = "▶"
	pauseSymbol = "⏸"
	filledBlock = "▓"
	emptyBlock  = "░"
)

// renderPlayerBar renders the persistent mini-player line. Returns ""
// when no track is loaded or the mini-player is hidden.
func renderPlayerBar(snap playback.Snapshot, width int) string {
	if !snap.HasTrack() || !snap.MiniPlayer {
		return ""
	}

	status := playSymbol
	if !snap.IsPlaying {
		status = pauseSymbol
	}

	title := snap.CurrentTrack.Title
	if title == "" {
		title = "Unknown Track"
	}
	artist := snap.CurrentTrack.ArtistName

	modes := renderModes(snap)
	volume := subtleStyle.Render(fmt.Sprintf("%3d%%", snap.Volume))
	pct := mutedStyle.Render(fmt.Sprintf("%3.0f%%", snap.Progress))

	separator := "   "
	innerWidth := max(width-6, 0)

	fixed := lipgloss.Width(status) + 2 +
		lipgloss.Width(pct) + lipgloss.Width(volume) +
		lipgloss.Width(modes) + lipgloss.Width(separator)*4

	// Title and artist share what the bar does not need
	minBarWidth := 10
	availableForContent := innerWidth - fixed - minBarWidth

	var content string
	titleW := lipgloss.Width(title)
	artistW := lipgloss.Width(artist)
	sepW := lipgloss.Width(separator)
	usedContent := 0

	switch {
	case artist != "" && titleW+sepW+artistW <= availableForContent:
		content = titleStyle.Render(title) + separator + mutedStyle.Render(artist)
		usedContent = titleW + sepW + artistW
	case titleW <= availableForContent:
		content = titleStyle.Render(title)
		usedContent = titleW
	default:
		maxTitle := max(availableForContent, 8)
		content = titleStyle.Render(truncate(title, maxTitle))
		usedContent = min(titleW, maxTitle)
	}

	barWidth := max(innerWidth-fixed-usedContent, 5)
	bar := renderProgressBlocks(snap.Progress, barWidth)

	line := content + separator +
		status + "  " + bar + separator +
		pct + separator + modes + separator + volume

	return barStyle.Padding(0, 2).Width(width - 2).Render(line)
}

// renderProgressBlocks renders a 0-100 value as a block bar.
func renderProgressBlocks(progress float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := min(int(float64(width)*progress/100), width)
	return accentStyle.Render(strings.Repeat(filledBlock, filled)) +
		subtleStyle.Render(strings.Repeat(emptyBlock, width-filled))
}

// renderModes renders the shuffle and repeat indicators.
func renderModes(snap playback.Snapshot) string {
	shuffle := "shuf"
	if !snap.Shuffled {
		shuffle = subtleStyle.Render(shuffle)
	} else {
		shuffle = accentStyle.Render(shuffle)
	}

	var repeat string
	switch snap.RepeatMode {
	case playback.RepeatAll:
		repeat = accentStyle.Render("rep")
	case playback.RepeatOne:
		repeat = accentStyle.Render("rep1")
	default:
		repeat = subtleStyle.Render("rep")
	}

	return shuffle + " " + repeat
}
