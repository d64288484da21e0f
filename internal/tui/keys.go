package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/metcalfc/lector/internal/settings"
)

type keyMap struct {
	Toggle       key.Binding
	Faster       key.Binding
	Slower       key.Binding
	PrevSentence key.Binding
	NextSentence key.Binding
	Back         key.Binding
	Forward      key.Binding
	Mode         key.Binding
	Voice        key.Binding
	TOC          key.Binding
	Define       key.Binding
	Highlight    key.Binding
	Unhighlight  key.Binding
	Copy         key.Binding
	Summarize    key.Binding
	FontUp       key.Binding
	FontDown     key.Binding
	Library      key.Binding
	Help         key.Binding
	Quit         key.Binding
}

var actionHelp = map[string]string{
	"toggle":        "play/pause",
	"faster":        "faster",
	"slower":        "slower",
	"prev-sentence": "prev sentence",
	"next-sentence": "next sentence",
	"back":          "back 10",
	"forward":       "forward 10",
	"mode":          "mode",
	"voice":         "voice",
	"toc":           "contents",
	"define":        "define",
	"highlight":     "highlight",
	"unhighlight":   "unhighlight",
	"copy":          "copy sentence",
	"summarize":     "summarize",
	"font-up":       "larger",
	"font-down":     "smaller",
	"library":       "library",
	"help":          "help",
	"quit":          "quit",
}

var keyNames = map[string]string{
	" ":     "space",
	"up":    "↑",
	"down":  "↓",
	"left":  "←",
	"right": "→",
}

// newKeyMap builds bindings from the user's settings. Actions missing from
// bindings keep their defaults.
func newKeyMap(bindings map[string][]string) keyMap {
	defaults := settings.DefaultKeyBindings()
	b := func(action string) key.Binding {
		keys := bindings[action]
		if len(keys) == 0 {
			keys = defaults[action]
		}
		names := make([]string, len(keys))
		for i, k := range keys {
			if n, ok := keyNames[k]; ok {
				k = n
			}
			names[i] = k
		}
		return key.NewBinding(
			key.WithKeys(keys...),
			key.WithHelp(strings.Join(names, "/"), actionHelp[action]),
		)
	}
	return keyMap{
		Toggle:       b("toggle"),
		Faster:       b("faster"),
		Slower:       b("slower"),
		PrevSentence: b("prev-sentence"),
		NextSentence: b("next-sentence"),
		Back:         b("back"),
		Forward:      b("forward"),
		Mode:         b("mode"),
		Voice:        b("voice"),
		TOC:          b("toc"),
		Define:       b("define"),
		Highlight:    b("highlight"),
		Unhighlight:  b("unhighlight"),
		Copy:         b("copy"),
		Summarize:    b("summarize"),
		FontUp:       b("font-up"),
		FontDown:     b("font-down"),
		Library:      b("library"),
		Help:         b("help"),
		Quit:         b("quit"),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Faster, k.PrevSentence, k.NextSentence, k.Mode, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Faster, k.Slower, k.PrevSentence, k.NextSentence, k.Back, k.Forward},
		{k.Mode, k.Voice, k.FontUp, k.FontDown, k.TOC, k.Library},
		{k.Define, k.Highlight, k.Unhighlight, k.Copy, k.Summarize, k.Help, k.Quit},
	}
}
