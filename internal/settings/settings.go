// Package settings defines the two process-wide configuration values, App
// and Voice. Both are plain values: callers replace them wholesale and the
// owning session persists them.
package settings

import (
	"maps"
	"slices"
	"time"
)

// Mode is a reading presentation.
type Mode string

const (
	ModeScroll    Mode = "scroll"
	ModePaginated Mode = "paginated"
	ModeSpritz    Mode = "spritz"
	ModeWheel     Mode = "wheel"
	ModeViral     Mode = "viral"
)

// Modes lists every presentation in cycling order.
var Modes = []Mode{ModeScroll, ModePaginated, ModeSpritz, ModeWheel, ModeViral}

// Next returns the mode after m in cycling order.
func (m Mode) Next() Mode {
	i := slices.Index(Modes, m)
	return Modes[(i+1)%len(Modes)]
}

// HighlightScope selects what the active highlight covers.
type HighlightScope string

const (
	HighlightWord     HighlightScope = "word"
	HighlightSentence HighlightScope = "sentence"
)

// AutoScroll is the granularity scroll and paginated modes follow the
// active token with.
type AutoScroll string

const (
	ScrollOff        AutoScroll = "off"
	ScrollLine       AutoScroll = "line"
	ScrollSentence   AutoScroll = "sentence"
	ScrollParagraph  AutoScroll = "paragraph"
	ScrollPage       AutoScroll = "page"
	ScrollContinuous AutoScroll = "continuous"
)

// RepeatMode is the unit voiced playback speaks and repeats.
type RepeatMode string

const (
	RepeatOff      RepeatMode = ""
	RepeatWord     RepeatMode = "word"
	RepeatPhrase   RepeatMode = "phrase"
	RepeatSentence RepeatMode = "sentence"
)

// Color themes.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

const (
	MinWPM = 50
	MaxWPM = 1500
)

// ModeSettings configures one presentation.
type ModeSettings struct {
	FontSize        int            `json:"fontSize"`
	WPM             int            `json:"wpm"`
	Highlight       HighlightScope `json:"highlight"`
	HighlightWords  int            `json:"highlightWords"`
	AmbientSentence bool           `json:"ambientSentence"`
	AutoScroll      AutoScroll     `json:"autoScroll"`
	ChunkSize       int            `json:"chunkSize"`
	SentenceChunks  bool           `json:"sentenceChunks"`
	Continuous      bool           `json:"continuous"`
}

// App is the visual and behavioral configuration.
type App struct {
	Mode        Mode                  `json:"mode"`
	Modes       map[Mode]ModeSettings `json:"modes"`
	LeadTimeMS  int                   `json:"leadTimeMs"`
	Theme       string                `json:"theme"`
	KeyBindings map[string][]string   `json:"keyBindings"`
}

// Voice is the speech configuration.
type Voice struct {
	VoiceName   string        `json:"voiceName"`
	Rate        float64       `json:"rate"`
	Pitch       float64       `json:"pitch"`
	Enabled     map[Mode]bool `json:"enabled"`
	Favorites   []string      `json:"favorites"`
	Repeat      RepeatMode    `json:"repeat"`
	RepeatTimes int           `json:"repeatTimes"`
	ChunkWords  int           `json:"chunkWords"`
}

func defaultModeSettings(m Mode) ModeSettings {
	s := ModeSettings{
		FontSize:       18,
		WPM:            300,
		Highlight:      HighlightWord,
		HighlightWords: 1,
		AutoScroll:     ScrollLine,
		ChunkSize:      4,
	}
	switch m {
	case ModePaginated:
		s.AutoScroll = ScrollPage
	case ModeSpritz:
		s.FontSize = 48
	case ModeWheel:
		s.FontSize = 32
		s.Continuous = true
	case ModeViral:
		s.FontSize = 36
		s.SentenceChunks = true
	}
	return s
}

// DefaultKeyBindings maps reader actions to keys.
func DefaultKeyBindings() map[string][]string {
	return map[string][]string{
		"toggle":        {" "},
		"faster":        {"up", "+"},
		"slower":        {"down", "-"},
		"prev-sentence": {"left"},
		"next-sentence": {"right"},
		"back":          {"["},
		"forward":       {"]"},
		"mode":          {"m"},
		"voice":         {"v"},
		"toc":           {"t"},
		"define":        {"d"},
		"highlight":     {"h"},
		"unhighlight":   {"H"},
		"copy":          {"c"},
		"summarize":     {"s"},
		"font-up":       {">"},
		"font-down":     {"<"},
		"library":       {"esc"},
		"help":          {"?"},
		"quit":          {"q", "ctrl+c"},
	}
}

// DefaultApp returns the initial App settings.
func DefaultApp() App {
	a := App{
		Mode:        ModeSpritz,
		Modes:       make(map[Mode]ModeSettings, len(Modes)),
		LeadTimeMS:  0,
		Theme:       ThemeDark,
		KeyBindings: DefaultKeyBindings(),
	}
	for _, m := range Modes {
		a.Modes[m] = defaultModeSettings(m)
	}
	return a
}

// DefaultVoice returns the initial Voice settings.
func DefaultVoice() Voice {
	return Voice{
		Rate:        1,
		Pitch:       1,
		Enabled:     make(map[Mode]bool),
		RepeatTimes: 1,
		ChunkWords:  200,
	}
}

// Current returns the settings of the active mode.
func (a App) Current() ModeSettings {
	if s, ok := a.Modes[a.Mode]; ok {
		return s
	}
	return defaultModeSettings(a.Mode)
}

// LeadTime is how far the visual highlight runs ahead of audio.
func (a App) LeadTime() time.Duration {
	return time.Duration(a.LeadTimeMS) * time.Millisecond
}

// Clone returns a deep copy.
func (a App) Clone() App {
	out := a
	out.Modes = maps.Clone(a.Modes)
	out.KeyBindings = make(map[string][]string, len(a.KeyBindings))
	for k, v := range a.KeyBindings {
		out.KeyBindings[k] = slices.Clone(v)
	}
	return out
}

// WithMode returns a copy with m active.
func (a App) WithMode(m Mode) App {
	out := a.Clone()
	out.Mode = m
	return out
}

// WithCurrent returns a copy with the active mode's settings replaced.
func (a App) WithCurrent(s ModeSettings) App {
	out := a.Clone()
	if out.Modes == nil {
		out.Modes = make(map[Mode]ModeSettings)
	}
	out.Modes[out.Mode] = s
	return out.Normalize()
}

// Normalize fills missing modes and key bindings and clamps values to
// their valid ranges.
func (a App) Normalize() App {
	out := a.Clone()
	if !slices.Contains(Modes, out.Mode) {
		out.Mode = ModeSpritz
	}
	if out.Modes == nil {
		out.Modes = make(map[Mode]ModeSettings, len(Modes))
	}
	for _, m := range Modes {
		s, ok := out.Modes[m]
		if !ok {
			s = defaultModeSettings(m)
		}
		s.WPM = clampInt(s.WPM, MinWPM, MaxWPM)
		s.FontSize = clampInt(s.FontSize, 8, 200)
		s.HighlightWords = clampInt(s.HighlightWords, 1, 20)
		s.ChunkSize = clampInt(s.ChunkSize, 1, 12)
		if s.Highlight != HighlightSentence {
			s.Highlight = HighlightWord
		}
		if s.AutoScroll == "" {
			s.AutoScroll = ScrollLine
		}
		out.Modes[m] = s
	}
	if out.LeadTimeMS < 0 {
		out.LeadTimeMS = 0
	}
	if out.Theme != ThemeLight {
		out.Theme = ThemeDark
	}
	defaults := DefaultKeyBindings()
	for action, keys := range defaults {
		if len(out.KeyBindings[action]) == 0 {
			out.KeyBindings[action] = keys
		}
	}
	return out
}

// Clone returns a deep copy.
func (v Voice) Clone() Voice {
	out := v
	out.Enabled = maps.Clone(v.Enabled)
	out.Favorites = slices.Clone(v.Favorites)
	return out
}

// EnabledFor reports whether voiced playback is on for mode m.
func (v Voice) EnabledFor(m Mode) bool {
	return v.Enabled[m]
}

// WithEnabled returns a copy with voice toggled for mode m.
func (v Voice) WithEnabled(m Mode, on bool) Voice {
	out := v.Clone()
	if out.Enabled == nil {
		out.Enabled = make(map[Mode]bool)
	}
	out.Enabled[m] = on
	return out
}

// ToggleFavorite adds or removes a voice from the favorites list.
func (v Voice) ToggleFavorite(name string) Voice {
	out := v.Clone()
	if i := slices.Index(out.Favorites, name); i >= 0 {
		out.Favorites = slices.Delete(out.Favorites, i, i+1)
	} else {
		out.Favorites = append(out.Favorites, name)
	}
	return out
}

// Normalize clamps values to their valid ranges.
func (v Voice) Normalize() Voice {
	out := v.Clone()
	if out.Rate <= 0 {
		out.Rate = 1
	}
	out.Rate = clampFloat(out.Rate, 0.1, 10)
	out.Pitch = clampFloat(out.Pitch, 0, 2)
	if out.RepeatTimes < 1 {
		out.RepeatTimes = 1
	}
	if out.ChunkWords <= 0 {
		out.ChunkWords = 200
	}
	switch out.Repeat {
	case RepeatOff, RepeatWord, RepeatPhrase, RepeatSentence:
	default:
		out.Repeat = RepeatOff
	}
	if out.Enabled == nil {
		out.Enabled = make(map[Mode]bool)
	}
	return out
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func clampFloat(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}
