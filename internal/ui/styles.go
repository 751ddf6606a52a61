package ui

import (
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/rivo/uniseg"
)

var (
	colorPrimary   = lipgloss.Color("#a78bfa")
	colorSecondary = lipgloss.Color("#f59e0b")
	colorFgBase    = lipgloss.Color("252")
	colorFgMuted   = lipgloss.Color("245")
	colorFgSubtle  = lipgloss.Color("240")
	colorError     = lipgloss.Color("#ef4444")

	titleStyle  = lipgloss.NewStyle().Foreground(colorFgBase).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorFgMuted)
	subtleStyle = lipgloss.NewStyle().Foreground(colorFgSubtle)
	accentStyle = lipgloss.NewStyle().Foreground(colorPrimary)
	errorStyle  = lipgloss.NewStyle().Foreground(colorError)

	cursorStyle = lipgloss.NewStyle().
			Foreground(colorFgBase).
			Background(lipgloss.Color("236")).
			Bold(true)

	unreadBadgeStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("232")).
				Background(colorSecondary).
				Padding(0, 1).
				Bold(true)

	tabActiveStyle   = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true).Underline(true)
	tabInactiveStyle = lipgloss.NewStyle().Foreground(colorFgSubtle)

	toastStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("232")).
			Background(colorPrimary).
			Padding(0, 1)

	barStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorFgSubtle)
)

// applyGradient renders bold text with a horizontal color gradient,
// blended in HCL space for perceptually uniform transitions.
func applyGradient(text string, from, to lipgloss.Color) string {
	if text == "" {
		return ""
	}

	var clusters []string
	gr := uniseg.NewGraphemes(text)
	for gr.Next() {
		clusters = append(clusters, gr.Str())
	}
	if len(clusters) == 0 {
		return ""
	}
	if len(clusters) == 1 {
		return lipgloss.NewStyle().Foreground(from).Bold(true).Render(text)
	}

	colors := blendColors(len(clusters), from, to)

	var b strings.Builder
	for i, cluster := range clusters {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(colorToHex(colors[i]))).Bold(true)
		b.WriteString(style.Render(cluster))
	}
	return b.String()
}

func blendColors(size int, from, to lipgloss.Color) []color.Color {
	if size < 2 {
		return []color.Color{lipglossToColor(from)}
	}

	c1, _ := colorful.MakeColor(lipglossToColor(from))
	c2, _ := colorful.MakeColor(lipglossToColor(to))

	colors := make([]color.Color, size)
	for i := range size {
		t := float64(i) / float64(size-1)
		colors[i] = c1.BlendHcl(c2, t)
	}
	return colors
}

func lipglossToColor(c lipgloss.Color) color.Color {
	hex := string(c)
	if len(hex) == 7 && hex[0] == '#' {
		if col, err := colorful.Hex(hex); err == nil {
			return col
		}
	}
	return color.RGBA{R: 128, G: 128, B: 128, A: 255}
}

func colorToHex(c color.Color) string {
	if cf, ok := c.(colorful.Color); ok {
		return cf.Hex()
	}
	r, g, b, _ := c.RGBA()
	return colorful.Color{
		R: float64(r) / 65535.0,
		G: float64(g) / 65535.0,
		B: float64(b) / 65535.0,
	}.Hex()
}

// truncate shortens s to maxWidth cells with a trailing ellipsis.
func truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	if maxWidth == 1 {
		return "…"
	}

	var b strings.Builder
	width := 0
	gr := uniseg.NewGraphemes(s)
	for gr.Next() {
		w := gr.Width()
		if width+w > maxWidth-1 {
			break
		}
		b.WriteString(gr.Str())
		width += w
	}
	return b.String() + "…"
}
