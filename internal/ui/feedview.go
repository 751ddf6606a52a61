package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jcrosnier/resona/internal/backend"
)

// renderFeed renders the post list, one line per post.
func renderFeed(posts []backend.Post, cursor int, stale bool, width, height int) string {
	var b strings.Builder

	if stale {
		b.WriteString(accentStyle.Render("new posts available, press r to refresh"))
		b.WriteString("\n")
		height--
	}

	if len(posts) == 0 {
		b.WriteString(subtleStyle.Render("no posts yet"))
		return b.String()
	}

	for i, post := range posts {
		if i >= height {
			break
		}
		line := feedLine(post, width)
		if i == cursor {
			line = cursorStyle.Width(width).Render(line)
		}
		b.WriteString(line)
		if i < len(posts)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func feedLine(post backend.Post, width int) string {
	author := "someone"
	if post.Author != nil {
		author = post.Author.DisplayName()
	}

	var body string
	switch {
	case post.Type == "audio" && post.Track != nil:
		body = fmt.Sprintf("♪ %s", post.Track.Title)
		if post.Track.Plays > 0 {
			body += fmt.Sprintf("  %s plays", humanize.Comma(int64(post.Track.Plays)))
		}
	case post.Type == "image":
		body = "shared a photo"
	case post.Type == "video":
		body = "shared a video"
	default:
		body = post.Caption
	}
	if body == "" {
		body = post.Caption
	}

	age := humanize.Time(post.CreatedAt)
	avail := width - lipgloss.Width(author) - lipgloss.Width(age) - 4
	body = truncate(body, avail)
	return titleStyle.Render(author) + "  " + body + "  " + subtleStyle.Render(age)
}
