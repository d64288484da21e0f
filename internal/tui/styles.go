package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/metcalfc/lector/internal/glossary"
	"github.com/metcalfc/lector/internal/settings"
)

// palette holds the colors that differ between themes.
type palette struct {
	text     string
	status   string
	dim      string
	sentence string
	accent   string
	light    bool
}

var palettes = map[string]palette{
	settings.ThemeDark:  {text: "#FFFFFF", status: "#888888", dim: "#666666", sentence: "#303030", accent: "#FFD75F"},
	settings.ThemeLight: {text: "#1C1C1C", status: "#585858", dim: "#8A8A8A", sentence: "#E4E4E4", accent: "#AF5F00", light: true},
}

// lightTheme inverts the gray ramp.
var lightTheme bool

var (
	erpStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF0000"))

	wordStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Padding(0, 1)

	crumbStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5f87af")).
			Padding(0, 1)

	pausedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFAA00")).
			Bold(true)

	completeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5555"))

	activeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#000000")).
			Background(lipgloss.Color("#FFD75F")).
			Bold(true)

	sentenceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#303030"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#5f87af")).
			Padding(0, 1)

	panelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFD75F"))
)

// applyTheme restyles the theme-dependent styles. Unknown names fall back
// to dark.
func applyTheme(name string) {
	p, ok := palettes[name]
	if !ok {
		p = palettes[settings.ThemeDark]
	}
	lightTheme = p.light
	wordStyle = wordStyle.Foreground(lipgloss.Color(p.text))
	statusStyle = statusStyle.Foreground(lipgloss.Color(p.status))
	dimStyle = dimStyle.Foreground(lipgloss.Color(p.dim))
	sentenceStyle = sentenceStyle.
		Foreground(lipgloss.Color(p.text)).
		Background(lipgloss.Color(p.sentence))
	panelTitleStyle = panelTitleStyle.Foreground(lipgloss.Color(p.accent))
}

// glossaryStyle renders a highlighted word with its entry's style.
func glossaryStyle(s glossary.Style) lipgloss.Style {
	st := lipgloss.NewStyle().
		Bold(s.Bold).
		Italic(s.Italic).
		Underline(s.Underline)
	if s.Color != "" {
		st = st.Foreground(lipgloss.Color(s.Color))
	}
	return st
}

// gray returns a gray level in [0, 1] as a terminal color.
func gray(level float64) lipgloss.Color {
	if lightTheme {
		level = 1 - level
	}
	v := int(40 + level*215)
	v = max(0, min(v, 255))
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", v, v, v))
}
