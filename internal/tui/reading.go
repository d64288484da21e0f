package tui

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/metcalfc/lector/internal/glossary"
	"github.com/metcalfc/lector/internal/lookup"
	"github.com/metcalfc/lector/internal/playback"
	"github.com/metcalfc/lector/internal/render"
	"github.com/metcalfc/lector/internal/session"
	"github.com/metcalfc/lector/internal/settings"
)

const (
	frameInterval = time.Second / 30
	wpmStep       = 50
	seekStep      = 10
	lookupTimeout = 90 * time.Second
)

var clipboardWrite = clipboard.WriteAll

type (
	eventMsg        playback.Event
	eventsClosedMsg struct{}
	frameMsg        time.Time
	defineMsg       struct {
		entry glossary.Entry
		err   error
	}
	summaryMsg struct {
		text string
		err  error
	}
	statusMsg struct {
		text string
		err  error
	}
)

type overlay int

const (
	overlayNone overlay = iota
	overlayTOC
	overlayPanel
	overlayHelp
)

type nav int

const (
	navStay nav = iota
	navLibrary
	navQuit
)

type panel struct {
	title   string
	body    string
	entry   *glossary.Entry
	loading bool
}

// readingModel is the reading screen of one open session.
type readingModel struct {
	sess   *session.Session
	keys   keyMap
	help   help.Model
	width  int
	height int

	overlay overlay
	toc     list.Model
	panel   panel

	status    string
	statusErr bool
	finished  bool

	wheel     *render.Interpolator
	creep     *render.Creep
	topTok    int // first token of the top line in flow modes, -1 to recenter
	winStart  int
	framing   bool
	lastFrame time.Time
}

func newReadingModel(sess *session.Session, width, height int) *readingModel {
	return &readingModel{
		sess:   sess,
		keys:   newKeyMap(sess.App().KeyBindings),
		help:   help.New(),
		width:  width,
		height: height,
		wheel:  render.NewInterpolator(sess.Playback().Index()),
		creep:  render.NewCreep(0),
		topTok: -1,
	}
}

func waitEvent(ch <-chan playback.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg(ev)
	}
}

func frame() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (m *readingModel) init() tea.Cmd {
	m.follow(0)
	return tea.Batch(waitEvent(m.sess.Events()), m.startFrames())
}

// startFrames starts the animation loop if something needs it and it is
// not already running.
func (m *readingModel) startFrames() tea.Cmd {
	if m.framing || !m.animating() {
		return nil
	}
	m.framing = true
	m.lastFrame = time.Now()
	return frame()
}

func (m *readingModel) animating() bool {
	p := m.sess.Playback()
	app := m.sess.App()
	if app.Mode == settings.ModeWheel && !app.Current().Continuous {
		return false
	}
	if p.State().Playing() {
		return true
	}
	switch m.sess.App().Mode {
	case settings.ModeWheel:
		return math.Abs(m.wheel.Current-float64(p.VisualIndex())) > 0.01
	case settings.ModeScroll:
		return m.sess.App().Current().AutoScroll == settings.ScrollContinuous
	}
	return false
}

func (m *readingModel) bodyHeight() int {
	return max(m.height-3, 1)
}

func (m *readingModel) textWidth() int {
	return max(m.width-2, 10)
}

func (m *readingModel) setStatus(format string, args ...any) {
	m.status = fmt.Sprintf(format, args...)
	m.statusErr = false
}

func (m *readingModel) setError(err error) {
	switch {
	case errors.Is(err, lookup.ErrNotConfigured):
		m.status = "lookups need ANTHROPIC_API_KEY"
	case errors.Is(err, session.ErrNoWord):
		m.status = "no word here"
	default:
		m.status = err.Error()
	}
	m.statusErr = true
}

func (m *readingModel) update(msg tea.Msg) (tea.Cmd, nav) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.topTok = -1
		if m.overlay == overlayTOC {
			m.toc.SetSize(m.width, m.bodyHeight())
		}
		m.follow(0)
		return nil, navStay

	case eventMsg:
		ev := playback.Event(msg)
		if ev.State == playback.Stopped && ev.Index == m.sess.Playback().Len()-1 {
			m.finished = true
		}
		m.follow(0)
		return tea.Batch(waitEvent(m.sess.Events()), m.startFrames()), navStay

	case eventsClosedMsg:
		return nil, navStay

	case frameMsg:
		now := time.Time(msg)
		dt := now.Sub(m.lastFrame)
		m.lastFrame = now
		m.follow(dt)
		if !m.animating() {
			m.framing = false
			return nil, navStay
		}
		return frame(), navStay

	case defineMsg:
		if m.overlay != overlayPanel {
			return nil, navStay
		}
		if msg.err != nil {
			m.overlay = overlayNone
			m.setError(msg.err)
			return nil, navStay
		}
		e := msg.entry
		m.panel = panel{title: e.Word, body: definitionText(e), entry: &e}
		return nil, navStay

	case summaryMsg:
		if m.overlay != overlayPanel {
			return nil, navStay
		}
		if msg.err != nil {
			m.overlay = overlayNone
			m.setError(msg.err)
			return nil, navStay
		}
		m.panel = panel{title: "Summary", body: msg.text}
		return nil, navStay

	case statusMsg:
		if msg.err != nil {
			m.setError(msg.err)
		} else {
			m.setStatus("%s", msg.text)
		}
		return nil, navStay

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.overlay == overlayTOC {
		var cmd tea.Cmd
		m.toc, cmd = m.toc.Update(msg)
		return cmd, navStay
	}
	return nil, navStay
}

func (m *readingModel) handleKey(msg tea.KeyMsg) (tea.Cmd, nav) {
	switch m.overlay {
	case overlayTOC:
		if m.toc.FilterState() != list.Filtering {
			switch msg.String() {
			case "esc":
				m.overlay = overlayNone
				return nil, navStay
			case "enter":
				if it, ok := m.toc.SelectedItem().(tocItem); ok {
					m.seek(func(p *playback.Synchronizer) { p.Seek(it.index) })
				}
				m.overlay = overlayNone
				return nil, navStay
			}
		}
		var cmd tea.Cmd
		m.toc, cmd = m.toc.Update(msg)
		return cmd, navStay

	case overlayPanel, overlayHelp:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return nil, navQuit
		case key.Matches(msg, m.keys.Highlight) && m.panel.entry != nil && m.overlay == overlayPanel:
			return m.store(*m.panel.entry), navStay
		case msg.String() == "esc", msg.String() == "enter",
			key.Matches(msg, m.keys.Help), key.Matches(msg, m.keys.Define), key.Matches(msg, m.keys.Summarize):
			m.overlay = overlayNone
		}
		return nil, navStay
	}

	p := m.sess.Playback()
	switch {
	case key.Matches(msg, m.keys.Quit):
		return nil, navQuit
	case key.Matches(msg, m.keys.Library):
		return nil, navLibrary
	case key.Matches(msg, m.keys.Toggle):
		p.Toggle()
		m.finished = false
	case key.Matches(msg, m.keys.Faster):
		m.setStatus("%d WPM", m.sess.AdjustWPM(wpmStep))
	case key.Matches(msg, m.keys.Slower):
		m.setStatus("%d WPM", m.sess.AdjustWPM(-wpmStep))
	case key.Matches(msg, m.keys.PrevSentence):
		m.seek((*playback.Synchronizer).PrevSentence)
	case key.Matches(msg, m.keys.NextSentence):
		m.seek((*playback.Synchronizer).NextSentence)
	case key.Matches(msg, m.keys.Back):
		m.seek(func(p *playback.Synchronizer) { p.SeekDelta(-seekStep) })
	case key.Matches(msg, m.keys.Forward):
		m.seek(func(p *playback.Synchronizer) { p.SeekDelta(seekStep) })
	case key.Matches(msg, m.keys.Mode):
		m.setStatus("%s mode", m.sess.CycleMode())
		m.wheel.Current = float64(p.VisualIndex())
		m.topTok = -1
		m.follow(0)
	case key.Matches(msg, m.keys.Voice):
		if m.sess.ToggleVoice() {
			m.setStatus("voice on")
		} else {
			m.setStatus("voice off")
		}
	case key.Matches(msg, m.keys.FontUp):
		m.setStatus("font size %d", m.sess.AdjustFontSize(2))
	case key.Matches(msg, m.keys.FontDown):
		m.setStatus("font size %d", m.sess.AdjustFontSize(-2))
	case key.Matches(msg, m.keys.TOC):
		m.openTOC()
	case key.Matches(msg, m.keys.Define):
		return m.define(), navStay
	case key.Matches(msg, m.keys.Highlight):
		return m.highlightCurrent(), navStay
	case key.Matches(msg, m.keys.Unhighlight):
		return m.unhighlightCurrent(), navStay
	case key.Matches(msg, m.keys.Copy):
		m.copySentence()
	case key.Matches(msg, m.keys.Summarize):
		return m.summarize(), navStay
	case key.Matches(msg, m.keys.Help):
		m.overlay = overlayHelp
	}
	return m.startFrames(), navStay
}

// seek applies a seek and snaps the animated views to the new position.
func (m *readingModel) seek(fn func(*playback.Synchronizer)) {
	p := m.sess.Playback()
	fn(p)
	m.finished = false
	m.wheel.Current = float64(p.VisualIndex())
	m.follow(0)
}

func (m *readingModel) openTOC() {
	entries := m.sess.TOC()
	if len(entries) == 0 {
		m.setStatus("no table of contents")
		return
	}
	items := make([]list.Item, len(entries))
	cur := 0
	for i, e := range entries {
		items[i] = tocItem{
			title:   strings.Repeat("  ", e.Level) + e.Title,
			preview: e.Preview,
			index:   e.WordIndex,
		}
		if e.WordIndex <= m.sess.Playback().Index() {
			cur = i
		}
	}
	m.toc = list.New(items, list.NewDefaultDelegate(), m.width, m.bodyHeight())
	m.toc.Title = "Contents"
	m.toc.Filter = fuzzyFilter
	m.toc.DisableQuitKeybindings()
	m.toc.Select(cur)
	m.overlay = overlayTOC
}

func (m *readingModel) define() tea.Cmd {
	i := m.sess.Playback().VisualIndex()
	word, err := m.sess.WordAt(i)
	if err != nil {
		m.setError(err)
		return nil
	}
	m.overlay = overlayPanel
	m.panel = panel{title: word, loading: true}

	sess := m.sess
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
		defer cancel()
		e, err := sess.Define(ctx, i)
		return defineMsg{entry: e, err: err}
	}
}

func (m *readingModel) summarize() tea.Cmd {
	m.overlay = overlayPanel
	m.panel = panel{title: "Summary", loading: true}

	sess := m.sess
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
		defer cancel()
		text, err := sess.Summarize(ctx)
		return summaryMsg{text: text, err: err}
	}
}

// store writes e to the glossary off the UI loop.
func (m *readingModel) store(e glossary.Entry) tea.Cmd {
	m.overlay = overlayNone
	sess := m.sess
	return func() tea.Msg {
		err := sess.Highlight(context.Background(), e)
		return statusMsg{text: "highlighted " + e.Word, err: err}
	}
}

func (m *readingModel) highlightCurrent() tea.Cmd {
	word, err := m.sess.WordAt(m.sess.Playback().VisualIndex())
	if err != nil {
		m.setError(err)
		return nil
	}
	e, ok := m.sess.Glossary().Lookup(word)
	if !ok {
		e = glossary.Entry{Word: word, Style: glossary.DefaultStyle}
	}
	return m.store(e)
}

func (m *readingModel) unhighlightCurrent() tea.Cmd {
	word, err := m.sess.WordAt(m.sess.Playback().VisualIndex())
	if err != nil {
		m.setError(err)
		return nil
	}
	sess := m.sess
	return func() tea.Msg {
		err := sess.Unhighlight(context.Background(), word)
		return statusMsg{text: "removed " + word, err: err}
	}
}

func (m *readingModel) copySentence() {
	text := m.sess.SentenceText(m.sess.Playback().VisualIndex())
	if text == "" {
		m.setStatus("nothing to copy")
		return
	}
	if err := clipboardWrite(text); err != nil {
		m.setError(fmt.Errorf("clipboard copy failed: %w", err))
		return
	}
	m.setStatus("sentence copied")
}

func definitionText(e glossary.Entry) string {
	var parts []string
	head := strings.TrimSpace(strings.Join([]string{e.Phonetic, e.PartOfSpeech}, "  "))
	if head != "" {
		parts = append(parts, head)
	}
	if e.Definition != "" {
		parts = append(parts, e.Definition)
	}
	if e.Translation != "" {
		parts = append(parts, "→ "+e.Translation)
	}
	if e.Example != "" {
		parts = append(parts, "“"+e.Example+"”")
	}
	return strings.Join(parts, "\n\n")
}

// follow advances the animated views by dt and keeps the flow layout on
// the active token.
func (m *readingModel) follow(dt time.Duration) {
	app := m.sess.App()
	ms := app.Current()
	p := m.sess.Playback()
	tokens := m.sess.Tokens()
	if len(tokens) == 0 {
		return
	}

	switch app.Mode {
	case settings.ModeWheel:
		if !ms.Continuous {
			m.wheel.Current = float64(p.VisualIndex())
			return
		}
		rate := 0.0
		if p.State().Playing() {
			wpm := float64(ms.WPM)
			if opts := p.Options(); opts.Voiced {
				wpm = playback.NominalSpeechWPM * opts.Rate
			}
			i := p.Index()
			rate = wpm / 60 * render.NewStrip(tokens, i-wheelReach, i+wheelReach+1).SpeedFactor(i)
		}
		m.wheel.Step(p.VisualIndex(), rate, dt)

	case settings.ModeScroll, settings.ModePaginated:
		v := p.VisualIndex()
		start, lines := m.flowLines()
		if len(lines) == 0 {
			return
		}
		height := m.bodyHeight()
		if start != m.winStart {
			m.winStart = start
			m.topTok = -1
		}

		g := ms.AutoScroll
		if app.Mode == settings.ModePaginated {
			g = settings.ScrollPage
		}

		var top int
		if m.topTok < 0 {
			top = max(0, render.LineOf(lines, v)-height/3)
			m.creep = render.NewCreep(top)
		} else {
			top = render.LineOf(lines, m.topTok)
		}
		target := render.Follow(lines, tokens, v, top, height, g)
		if g == settings.ScrollContinuous {
			target = m.creep.Step(target, height, dt)
		}
		target = max(0, min(target, len(lines)-1))
		m.topTok = lines[target].Start
	}
}

func (m *readingModel) flowLines() (int, []render.Line) {
	tokens := m.sess.Tokens()
	start, end := render.Window(len(tokens), m.sess.Playback().VisualIndex(), render.WindowSize)
	return start, render.Wrap(tokens, start, end, m.textWidth())
}

func (m *readingModel) view() string {
	height := m.bodyHeight()
	var body string
	switch m.overlay {
	case overlayTOC:
		body = m.toc.View()
	case overlayPanel:
		body = m.panelView(height)
	case overlayHelp:
		h := m.help
		h.ShowAll = true
		body = lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center, h.View(m.keys))
	default:
		body = m.body(height)
	}
	body = lipgloss.NewStyle().Height(height).MaxHeight(height).Render(body)

	return m.statusLine() + "\n" + m.crumbLine() + "\n" + body + "\n" + m.help.View(m.keys)
}

func (m *readingModel) body(height int) string {
	tokens := m.sess.Tokens()
	if len(tokens) == 0 {
		return "No text to read."
	}
	app := m.sess.App()
	ms := app.Current()
	v := m.sess.Playback().VisualIndex()

	switch app.Mode {
	case settings.ModeSpritz:
		return lipgloss.PlaceVertical(height, lipgloss.Center, spritzView(tokens[v], m.width, m.sess.Glossary()))
	case settings.ModeWheel:
		return lipgloss.PlaceVertical(height, lipgloss.Center, wheelView(tokens, m.wheel.Current, m.width))
	case settings.ModeViral:
		return lipgloss.PlaceVertical(height, lipgloss.Center, viralView(tokens, v, ms, m.width))
	}

	_, lines := m.flowLines()
	top := 0
	if m.topTok >= 0 {
		top = render.LineOf(lines, m.topTok)
	}
	h := render.NewHighlighter(tokens, float64(v), ms, m.sess.Glossary())
	return flowView(lines, top, height, h)
}

func (m *readingModel) panelView(height int) string {
	width := min(m.width-4, 72)
	text := m.panel.body
	if m.panel.loading {
		text = dimStyle.Render("looking up…")
	}
	content := panelTitleStyle.Render(m.panel.title) + "\n\n" + wordwrap.String(text, max(width-4, 10))
	if m.panel.entry != nil {
		content += "\n\n" + dimStyle.Render(m.keys.Highlight.Help().Key+": save to glossary · esc: close")
	}
	return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center, panelStyle.Width(width).Render(content))
}

func (m *readingModel) statusLine() string {
	p := m.sess.Playback()
	app := m.sess.App()
	ms := app.Current()

	var flags []string
	flags = append(flags, string(app.Mode))
	if m.sess.Voice().EnabledFor(app.Mode) {
		flags = append(flags, "voice")
	}
	suffix := ""
	switch {
	case m.finished:
		suffix = completeStyle.Render(" Reading complete!")
	case !p.State().Playing():
		suffix = pausedStyle.Render(" [PAUSED]")
	}

	return statusStyle.Render(fmt.Sprintf("%s | Word %d/%d | %d WPM | %s%s",
		m.sess.Document().Title,
		p.Index()+1,
		p.Len(),
		ms.WPM,
		strings.Join(flags, " "),
		suffix,
	))
}

func (m *readingModel) crumbLine() string {
	var titles []string
	for _, ch := range m.sess.Breadcrumb() {
		titles = append(titles, ch.Title)
	}
	line := crumbStyle.Render(strings.Join(titles, " › "))
	if m.status != "" {
		st := dimStyle
		if m.statusErr {
			st = errorStyle
		}
		line += "  " + st.Render(m.status)
	}
	return line
}
