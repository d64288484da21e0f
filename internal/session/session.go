// Package session is the controller for one open document: it owns the
// playback synchronizer, applies settings changes and persists progress.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/metcalfc/lector/internal/glossary"
	"github.com/metcalfc/lector/internal/lookup"
	"github.com/metcalfc/lector/internal/playback"
	"github.com/metcalfc/lector/internal/reader"
	"github.com/metcalfc/lector/internal/settings"
	"github.com/metcalfc/lector/internal/speech"
	"github.com/metcalfc/lector/internal/state"
	"github.com/metcalfc/lector/internal/token"
)

// ErrNoWord is returned when a lookup targets a break or punctuation.
var ErrNoWord = errors.New("no word at position")

// Store is the persistence a session writes through.
type Store interface {
	SetPosition(ctx context.Context, id string, pos int) error
	PutGlossary(ctx context.Context, e glossary.Entry) error
	DeleteGlossary(ctx context.Context, word string) error
}

// Lookup resolves definitions and summaries.
type Lookup interface {
	GetDefinition(ctx context.Context, word, passage, lang string) (lookup.Definition, error)
	Summarize(ctx context.Context, text string) (string, error)
}

// Deps are a session's collaborators.
type Deps struct {
	Store    Store
	Engine   speech.Engine
	Lookup   Lookup
	Saver    *settings.Saver
	Glossary *glossary.Index
	Log      zerolog.Logger

	// ProgressInterval is how often progress is written while playing.
	ProgressInterval time.Duration
	// Language is the translation target for definitions.
	Language string
}

// Session is one open document.
type Session struct {
	doc    state.Document
	tokens []string
	sync   *playback.Synchronizer
	deps   Deps
	log    zerolog.Logger

	mu    sync.Mutex
	app   settings.App
	voice settings.Voice
	saved int

	stop   chan struct{}
	done   chan struct{}
	closed bool
}

// Open starts a session on doc at its saved position.
func Open(doc state.Document, app settings.App, voice settings.Voice, deps Deps) *Session {
	if deps.Glossary == nil {
		deps.Glossary = glossary.NewIndex(nil)
	}
	if deps.ProgressInterval <= 0 {
		deps.ProgressInterval = 5 * time.Second
	}
	tokens := doc.Tokens()
	app, voice = app.Normalize(), voice.Normalize()
	log := deps.Log.With().Str("document", doc.ID).Logger()

	s := &Session{
		doc:    doc,
		tokens: tokens,
		sync:   playback.New(tokens, doc.Position, deps.Engine, playback.OptionsFrom(app, voice), log),
		deps:   deps,
		log:    log,
		app:    app,
		voice:  voice,
		saved:  doc.Position,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go s.persistProgress()
	return s
}

func (s *Session) Document() state.Document         { return s.doc }
func (s *Session) Tokens() []string                 { return s.tokens }
func (s *Session) Playback() *playback.Synchronizer { return s.sync }
func (s *Session) Glossary() *glossary.Index        { return s.deps.Glossary }
func (s *Session) Events() <-chan playback.Event    { return s.sync.Events() }
func (s *Session) TOC() []reader.TOCEntry           { return reader.Flatten(s.doc.Chapters, s.tokens) }
func (s *Session) Breadcrumb() []reader.Chapter {
	return reader.ActiveChapter(s.doc.Chapters, s.sync.Index())
}

// App returns the current visual settings.
func (s *Session) App() settings.App {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.app
}

// Voice returns the current voice settings.
func (s *Session) Voice() settings.Voice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.voice
}

// SetApp replaces the visual settings.
func (s *Session) SetApp(app settings.App) {
	s.apply(func(_ settings.App, v settings.Voice) (settings.App, settings.Voice) { return app, v })
}

// SetVoice replaces the voice settings.
func (s *Session) SetVoice(voice settings.Voice) {
	s.apply(func(a settings.App, _ settings.Voice) (settings.App, settings.Voice) { return a, voice })
}

// apply swaps in new settings, pushes them to playback and schedules a
// debounced save.
func (s *Session) apply(fn func(settings.App, settings.Voice) (settings.App, settings.Voice)) {
	s.mu.Lock()
	app, voice := fn(s.app, s.voice)
	s.app, s.voice = app.Normalize(), voice.Normalize()
	app, voice = s.app, s.voice
	s.mu.Unlock()

	s.sync.SetOptions(playback.OptionsFrom(app, voice))
	if s.deps.Saver != nil {
		s.deps.Saver.Schedule(app, voice)
	}
}

// CycleMode switches to the next presentation mode.
func (s *Session) CycleMode() settings.Mode {
	s.apply(func(a settings.App, v settings.Voice) (settings.App, settings.Voice) {
		return a.WithMode(a.Mode.Next()), v
	})
	return s.App().Mode
}

// AdjustWPM changes the active mode's speed by delta.
func (s *Session) AdjustWPM(delta int) int {
	s.apply(func(a settings.App, v settings.Voice) (settings.App, settings.Voice) {
		cur := a.Current()
		cur.WPM += delta
		return a.WithCurrent(cur), v
	})
	return s.App().Current().WPM
}

// AdjustFontSize changes the active mode's font size by delta.
func (s *Session) AdjustFontSize(delta int) int {
	s.apply(func(a settings.App, v settings.Voice) (settings.App, settings.Voice) {
		cur := a.Current()
		cur.FontSize += delta
		return a.WithCurrent(cur), v
	})
	return s.App().Current().FontSize
}

// ToggleVoice flips voiced playback for the active mode.
func (s *Session) ToggleVoice() bool {
	s.apply(func(a settings.App, v settings.Voice) (settings.App, settings.Voice) {
		return a, v.WithEnabled(a.Mode, !v.EnabledFor(a.Mode))
	})
	return s.Voice().EnabledFor(s.App().Mode)
}

// ToggleHighlightScope switches between word and sentence highlighting.
func (s *Session) ToggleHighlightScope() settings.HighlightScope {
	s.apply(func(a settings.App, v settings.Voice) (settings.App, settings.Voice) {
		cur := a.Current()
		if cur.Highlight == settings.HighlightWord {
			cur.Highlight = settings.HighlightSentence
		} else {
			cur.Highlight = settings.HighlightWord
		}
		return a.WithCurrent(cur), v
	})
	return s.App().Current().Highlight
}

// SentenceText returns the sentence containing index i.
func (s *Session) SentenceText(i int) string {
	if len(s.tokens) == 0 {
		return ""
	}
	r := token.SentenceRange(s.tokens, i)
	return strings.TrimSpace(token.Join(s.tokens[r.Start : r.End+1]))
}

// WordAt returns the token at i stripped of surrounding punctuation.
func (s *Session) WordAt(i int) (string, error) {
	if i < 0 || i >= len(s.tokens) || token.IsBreak(s.tokens[i]) {
		return "", ErrNoWord
	}
	w := strings.TrimFunc(s.tokens[i], isTrim)
	if glossary.NormalizeKey(w) == "" {
		return "", ErrNoWord
	}
	return w, nil
}

// Define looks up the word at index i in its sentence. Nothing is stored;
// pass the entry to Highlight to keep it.
func (s *Session) Define(ctx context.Context, i int) (glossary.Entry, error) {
	word, err := s.WordAt(i)
	if err != nil {
		return glossary.Entry{}, err
	}
	if e, ok := s.deps.Glossary.Lookup(word); ok && e.Definition != "" {
		return e, nil
	}
	if s.deps.Lookup == nil {
		return glossary.Entry{}, lookup.ErrNotConfigured
	}
	def, err := s.deps.Lookup.GetDefinition(ctx, word, s.SentenceText(i), s.deps.Language)
	if err != nil {
		return glossary.Entry{}, fmt.Errorf("define %q: %w", word, err)
	}
	return glossary.Entry{
		Word:         word,
		Definition:   def.Definition,
		Translation:  def.Translation,
		PartOfSpeech: def.PartOfSpeech,
		Example:      def.Example,
		Phonetic:     def.Phonetic,
		Style:        glossary.DefaultStyle,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// Highlight stores e in the glossary.
func (s *Session) Highlight(ctx context.Context, e glossary.Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if err := s.deps.Store.PutGlossary(ctx, e); err != nil {
		return err
	}
	s.deps.Glossary.Set(e)
	return nil
}

// Unhighlight removes word from the glossary.
func (s *Session) Unhighlight(ctx context.Context, word string) error {
	if err := s.deps.Store.DeleteGlossary(ctx, word); err != nil {
		return err
	}
	s.deps.Glossary.Remove(word)
	return nil
}

// ChapterSpan returns the token span of the innermost chapter at i, or the
// whole document when it has no chapters.
func (s *Session) ChapterSpan(i int) (start, end int) {
	end = len(s.tokens)
	chain := reader.ActiveChapter(s.doc.Chapters, i)
	if len(chain) == 0 {
		return 0, end
	}
	start = chain[len(chain)-1].Position
	for _, e := range reader.Flatten(s.doc.Chapters, nil) {
		if e.WordIndex > start && e.WordIndex < end {
			end = e.WordIndex
		}
	}
	return start, end
}

// Summarize summarizes the chapter being read.
func (s *Session) Summarize(ctx context.Context) (string, error) {
	if s.deps.Lookup == nil {
		return "", lookup.ErrNotConfigured
	}
	start, end := s.ChapterSpan(s.sync.Index())
	text := token.Join(s.tokens[start:end])
	if strings.TrimSpace(text) == "" {
		return "", ErrNoWord
	}
	summary, err := s.deps.Lookup.Summarize(ctx, text)
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	return summary, nil
}

// persistProgress writes the position periodically while it changes.
func (s *Session) persistProgress() {
	defer close(s.done)
	t := time.NewTicker(s.deps.ProgressInterval)
	defer t.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-t.C:
			if err := s.saveProgress(context.Background()); err != nil {
				s.log.Warn().Err(err).Msg("save progress")
			}
		}
	}
}

func (s *Session) saveProgress(ctx context.Context) error {
	pos := s.sync.Index()
	s.mu.Lock()
	unchanged := pos == s.saved
	s.mu.Unlock()
	if unchanged || s.deps.Store == nil {
		return nil
	}
	if err := s.deps.Store.SetPosition(ctx, s.doc.ID, pos); err != nil {
		return err
	}
	s.mu.Lock()
	s.saved = pos
	s.mu.Unlock()
	return nil
}

// Close stops playback, writes the final position and flushes pending
// settings.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.stop)
	<-s.done
	s.sync.Close()

	var errs []error
	if s.deps.Store != nil {
		if err := s.deps.Store.SetPosition(ctx, s.doc.ID, s.sync.Index()); err != nil {
			errs = append(errs, fmt.Errorf("final progress: %w", err))
		}
	}
	if s.deps.Saver != nil {
		if err := s.deps.Saver.Flush(); err != nil {
			errs = append(errs, fmt.Errorf("flush settings: %w", err))
		}
	}
	return errors.Join(errs...)
}

func isTrim(r rune) bool {
	return strings.ContainsRune(`"'“”‘’«»()[]{}.,;:!?…—–-`, r)
}
