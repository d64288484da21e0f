// Package tui is lector's terminal interface: a library screen and a
// reading screen for every presentation mode.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/metcalfc/lector/internal/glossary"
	"github.com/metcalfc/lector/internal/session"
	"github.com/metcalfc/lector/internal/settings"
	"github.com/metcalfc/lector/internal/speech"
	"github.com/metcalfc/lector/internal/state"
)

// Library is the storage the TUI reads documents from and sessions write
// through.
type Library interface {
	ListDocuments(ctx context.Context) ([]state.Document, error)
	GetDocument(ctx context.Context, id string) (state.Document, error)
	session.Store
}

// Deps are the TUI's collaborators.
type Deps struct {
	Library  Library
	Engine   speech.Engine
	Lookup   session.Lookup // nil disables define and summarize
	Saver    *settings.Saver
	Glossary *glossary.Index
	Log      zerolog.Logger

	App              settings.App
	Voice            settings.Voice
	Language         string
	ProgressInterval time.Duration
}

type (
	libraryMsg struct {
		docs []state.Document
		err  error
	}
	openMsg struct {
		doc state.Document
		err error
	}
)

// Model is the root bubbletea model.
type Model struct {
	deps    Deps
	app     settings.App
	voice   settings.Voice
	openID  string
	library list.Model
	reading *readingModel
	width   int
	height  int
	err     error
}

// New returns the root model. With a non-empty openID the document opens
// straight away; otherwise the library is shown.
func New(deps Deps, openID string) Model {
	applyTheme(deps.App.Theme)
	return Model{
		deps:    deps,
		app:     deps.App.Normalize(),
		voice:   deps.Voice.Normalize(),
		openID:  openID,
		library: newLibraryList(nil, 80, 23),
		width:   80,
		height:  24,
	}
}

func (m Model) Init() tea.Cmd {
	if m.openID != "" {
		return m.open(m.openID)
	}
	return m.loadLibrary()
}

func (m Model) loadLibrary() tea.Cmd {
	lib := m.deps.Library
	return func() tea.Msg {
		docs, err := lib.ListDocuments(context.Background())
		return libraryMsg{docs: docs, err: err}
	}
}

func (m Model) open(id string) tea.Cmd {
	lib := m.deps.Library
	return func() tea.Msg {
		doc, err := lib.GetDocument(context.Background(), id)
		return openMsg{doc: doc, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.library.SetSize(msg.Width, msg.Height-1)

	case libraryMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		items := make([]list.Item, len(msg.docs))
		for i, d := range msg.docs {
			items[i] = docItem{d}
		}
		return m, m.library.SetItems(items)

	case openMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.deps.Log.Info().Str("document", msg.doc.ID).Str("title", msg.doc.Title).Msg("open")
		sess := session.Open(msg.doc, m.app, m.voice, session.Deps{
			Store:            m.deps.Library,
			Engine:           m.deps.Engine,
			Lookup:           m.deps.Lookup,
			Saver:            m.deps.Saver,
			Glossary:         m.deps.Glossary,
			Log:              m.deps.Log,
			ProgressInterval: m.deps.ProgressInterval,
			Language:         m.deps.Language,
		})
		m.reading = newReadingModel(sess, m.width, m.height)
		return m, m.reading.init()
	}

	if m.reading != nil {
		cmd, next := m.reading.update(msg)
		switch next {
		case navLibrary:
			m.closeSession()
			return m, m.loadLibrary()
		case navQuit:
			m.closeSession()
			return m, tea.Quit
		}
		return m, cmd
	}

	if msg, ok := msg.(tea.KeyMsg); ok && m.library.FilterState() != list.Filtering {
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "enter":
			if it, ok := m.library.SelectedItem().(docItem); ok {
				return m, m.open(it.doc.ID)
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.library, cmd = m.library.Update(msg)
	return m, cmd
}

// closeSession ends the open session, keeping its settings for the next
// document.
func (m *Model) closeSession() {
	if m.reading == nil {
		return
	}
	sess := m.reading.sess
	m.reading = nil
	m.app, m.voice = sess.App(), sess.Voice()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sess.Close(ctx); err != nil {
		m.deps.Log.Error().Err(err).Msg("close session")
	}
}

func (m Model) View() string {
	if m.err != nil {
		return errorStyle.Render("Error: "+m.err.Error()) + "\n"
	}
	if m.reading != nil {
		return m.reading.view()
	}
	return m.library.View()
}

// Run starts the TUI and blocks until it exits.
func Run(deps Deps, openID string) error {
	p := tea.NewProgram(New(deps, openID), tea.WithAltScreen())
	final, err := p.Run()
	if m, ok := final.(Model); ok {
		m.closeSession()
	}
	return err
}
