package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jcrosnier/resona/internal/notifications"
)

// renderNotifications renders the notification list, newest first.
func renderNotifications(list []notifications.Notification, cursor int, width, height int) string {
	if len(list) == 0 {
		return subtleStyle.Render("no notifications")
	}

	var b strings.Builder
	for i, n := range list {
		if i >= height {
			break
		}
		line := notificationLine(n, width)
		if i == cursor {
			line = cursorStyle.Width(width).Render(line)
		}
		b.WriteString(line)
		if i < len(list)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func notificationLine(n notifications.Notification, width int) string {
	marker := "●"
	if n.Read {
		marker = " "
	}

	text := n.AlertText()
	age := humanize.Time(n.CreatedAt)

	avail := width - lipgloss.Width(age) - 4
	text = truncate(text, avail)

	styled := text
	if !n.Read {
		styled = titleStyle.Render(text)
	} else {
		styled = mutedStyle.Render(text)
	}
	return accentStyle.Render(marker) + " " + styled + "  " + subtleStyle.Render(age)
}
