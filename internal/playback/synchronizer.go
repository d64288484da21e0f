// Package playback advances the reading position through a document, either
// on a fixed timer or driven by speech synthesis, with a single writer on
// the current index.
package playback

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/metcalfc/lector/internal/settings"
	"github.com/metcalfc/lector/internal/speech"
	"github.com/metcalfc/lector/internal/token"
)

// State is the synchronizer's playback state.
type State int

const (
	Stopped State = iota
	PlayingSilent
	PlayingVoiced
)

func (s State) String() string {
	switch s {
	case PlayingSilent:
		return "playing"
	case PlayingVoiced:
		return "speaking"
	default:
		return "stopped"
	}
}

// Playing reports whether s is either playing state.
func (s State) Playing() bool {
	return s != Stopped
}

// NominalSpeechWPM is the speaking rate of a voice at rate 1.
const NominalSpeechWPM = speech.NominalWPM

// maxInFlight bounds how many utterances are queued on the engine.
const maxInFlight = 2

// Options are the playback-relevant parts of the settings.
type Options struct {
	WPM         int
	LeadTime    time.Duration
	Voiced      bool
	Voice       string
	Rate        float64
	Pitch       float64
	Repeat      settings.RepeatMode
	RepeatTimes int
	ChunkWords  int
}

// OptionsFrom extracts Options for the active mode.
func OptionsFrom(app settings.App, voice settings.Voice) Options {
	return Options{
		WPM:         app.Current().WPM,
		LeadTime:    app.LeadTime(),
		Voiced:      voice.EnabledFor(app.Mode),
		Voice:       voice.VoiceName,
		Rate:        voice.Rate,
		Pitch:       voice.Pitch,
		Repeat:      voice.Repeat,
		RepeatTimes: voice.RepeatTimes,
		ChunkWords:  voice.ChunkWords,
	}
}

// Event reports an index or state change.
type Event struct {
	Index int
	State State
}

type tickerFunc func(d time.Duration) (<-chan time.Time, func())

func realTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// Synchronizer owns the current index of one document. Every transition
// bumps a generation counter; timer ticks and speech callbacks carrying an
// older generation are dropped, so only one advance source ever writes the
// index.
type Synchronizer struct {
	tokens []string
	engine speech.Engine
	log    zerolog.Logger
	ticker tickerFunc

	mu       sync.Mutex
	index    int
	state    State
	gen      uint64
	opts     Options
	stopTick chan struct{}
	run      *voicedRun
	events   chan Event
	closed   bool
}

// voicedRun tracks the speech queue of one voiced playback generation.
type voicedRun struct {
	gen         uint64
	voice       string
	next        int
	cur         Chunk
	repeatsLeft int
	inFlight    int
}

// New returns a stopped synchronizer positioned at start.
func New(tokens []string, start int, engine speech.Engine, opts Options, log zerolog.Logger) *Synchronizer {
	return &Synchronizer{
		tokens: tokens,
		engine: engine,
		log:    log,
		ticker: realTicker,
		index:  token.Clamp(start, len(tokens)),
		opts:   opts,
		events: make(chan Event, 64),
	}
}

// Events delivers index and state changes. It is closed by Close.
func (s *Synchronizer) Events() <-chan Event {
	return s.events
}

// Index returns the authoritative current index.
func (s *Synchronizer) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// State returns the current playback state.
func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Options returns the active options.
func (s *Synchronizer) Options() Options {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opts
}

// Len returns the number of tokens.
func (s *Synchronizer) Len() int {
	return len(s.tokens)
}

// VisualIndex is the index highlighting should use: the current index
// advanced by the lead time at the effective speed, clamped to the
// document. It never feeds back into the current index.
func (s *Synchronizer) VisualIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visualIndexLocked()
}

func (s *Synchronizer) visualIndexLocked() int {
	if !s.state.Playing() || s.opts.LeadTime <= 0 {
		return s.index
	}
	wpm := float64(s.opts.WPM)
	if s.state == PlayingVoiced {
		wpm = NominalSpeechWPM * s.opts.Rate
	}
	lead := int(math.Round(s.opts.LeadTime.Seconds() * wpm / 60))
	return token.Clamp(s.index+lead, len(s.tokens))
}

// Play starts playback from the current index. Voiced playback is chosen
// when the options enable voice. Playing from the last token rewinds to
// the start.
func (s *Synchronizer) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playLocked()
}

// Pause stops playback, keeping the current index.
func (s *Synchronizer) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pauseLocked()
}

// Toggle plays when stopped and pauses when playing. The state is read and
// changed under one lock so a concurrent stop cannot flip the outcome.
func (s *Synchronizer) Toggle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Playing() {
		s.pauseLocked()
	} else {
		s.playLocked()
	}
}

func (s *Synchronizer) playLocked() {
	if s.closed || s.state.Playing() || len(s.tokens) == 0 {
		return
	}
	if s.index >= len(s.tokens)-1 {
		s.index = 0
	}
	s.startLocked()
}

func (s *Synchronizer) pauseLocked() {
	if s.closed || !s.state.Playing() {
		return
	}
	s.stopLocked()
	s.emitLocked()
}

// Seek moves to index i, clamped to the document. In-flight speech is
// canceled and playback restarts from i if it was running.
func (s *Synchronizer) Seek(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seekLocked(i)
}

// SeekDelta moves n tokens forward or backward.
func (s *Synchronizer) SeekDelta(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seekLocked(s.index + n)
}

// NextSentence seeks to the start of the following sentence.
func (s *Synchronizer) NextSentence() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seekLocked(token.NextSentence(s.tokens, s.index))
}

// PrevSentence seeks back to the start of the current sentence, or to the
// previous one when within its first two tokens.
func (s *Synchronizer) PrevSentence() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seekLocked(token.PrevSentence(s.tokens, s.index))
}

func (s *Synchronizer) seekLocked(i int) {
	if s.closed {
		return
	}
	playing := s.state.Playing()
	s.stopLocked()
	s.index = token.Clamp(i, len(s.tokens))
	if playing {
		s.startLocked()
	} else {
		s.emitLocked()
	}
}

// SetOptions replaces the options. Running playback restarts from the
// current index when a change affects pacing or voice.
func (s *Synchronizer) SetOptions(opts Options) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.opts
	s.opts = opts
	if s.closed || !s.state.Playing() || !restartNeeded(old, opts) {
		return
	}
	s.stopLocked()
	s.startLocked()
}

func restartNeeded(a, b Options) bool {
	a.LeadTime, b.LeadTime = 0, 0
	return a != b
}

// Close cancels all playback and closes the event channel.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.stopLocked()
	s.closed = true
	close(s.events)
}

// stopLocked ends the current generation: the silent ticker stops and
// speech is canceled.
func (s *Synchronizer) stopLocked() {
	s.gen++
	if s.stopTick != nil {
		close(s.stopTick)
		s.stopTick = nil
	}
	if s.run != nil {
		s.run = nil
		s.engine.CancelAll()
	}
	s.state = Stopped
}

func (s *Synchronizer) startLocked() {
	s.gen++
	if s.opts.Voiced && s.engine != nil {
		s.state = PlayingVoiced
		s.emitLocked()
		go s.startVoiced(s.gen)
		return
	}
	s.state = PlayingSilent
	s.emitLocked()
	s.stopTick = make(chan struct{})
	c, stopTicker := s.ticker(wordInterval(s.opts.WPM))
	go s.tick(s.gen, s.stopTick, c, stopTicker)
}

func wordInterval(wpm int) time.Duration {
	wpm = max(settings.MinWPM, min(wpm, settings.MaxWPM))
	return time.Minute / time.Duration(wpm)
}

func (s *Synchronizer) emitLocked() {
	if s.closed {
		return
	}
	select {
	case s.events <- Event{Index: s.index, State: s.state}:
	default:
		s.log.Debug().Int("index", s.index).Msg("event dropped")
	}
}

func (s *Synchronizer) tick(gen uint64, stop <-chan struct{}, c <-chan time.Time, stopTicker func()) {
	defer stopTicker()
	for {
		select {
		case <-stop:
			return
		case <-c:
		}

		s.mu.Lock()
		if gen != s.gen {
			s.mu.Unlock()
			return
		}
		if s.index >= len(s.tokens)-1 {
			s.stopLocked()
			s.emitLocked()
			s.mu.Unlock()
			return
		}
		s.index++
		s.emitLocked()
		s.mu.Unlock()
	}
}

// startVoiced re-reads the engine's voices, then fills the speech queue.
func (s *Synchronizer) startVoiced(gen uint64) {
	voices, err := s.engine.Voices(context.Background())
	if err != nil {
		s.log.Warn().Err(err).Msg("list voices")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return
	}
	run := &voicedRun{gen: gen, next: s.index}
	if v, ok := speech.FindVoice(voices, s.opts.Voice); ok {
		run.voice = v.Name
	} else if s.opts.Voice != "" {
		s.log.Info().Str("voice", s.opts.Voice).Str("fallback", v.Name).Msg("voice unavailable")
		run.voice = v.Name
	}
	s.run = run
	s.fillLocked(run)
}

// fillLocked enqueues utterances until maxInFlight are pending. With
// nothing left to speak and nothing in flight, playback stops.
func (s *Synchronizer) fillLocked(run *voicedRun) {
	for run.inFlight < maxInFlight {
		c, ok := s.nextUtteranceLocked(run)
		if !ok {
			break
		}
		run.inFlight++
		s.engine.Speak(s.utterance(run, c))
	}
	if run.inFlight == 0 {
		s.run = nil
		s.gen++
		s.state = Stopped
		s.emitLocked()
	}
}

func (s *Synchronizer) nextUtteranceLocked(run *voicedRun) (Chunk, bool) {
	if run.repeatsLeft > 0 {
		run.repeatsLeft--
		return run.cur, true
	}
	for run.next < len(s.tokens) {
		c := NextChunk(s.tokens, run.next, s.opts.Repeat, s.opts.ChunkWords)
		run.next = c.End
		if c.Empty() {
			continue
		}
		run.cur = c
		if s.opts.Repeat != settings.RepeatOff {
			run.repeatsLeft = max(1, s.opts.RepeatTimes) - 1
		}
		return c, true
	}
	return Chunk{}, false
}

func (s *Synchronizer) utterance(run *voicedRun, c Chunk) speech.Utterance {
	gen := run.gen
	done := func(err error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if gen != s.gen || s.run != run {
			return
		}
		if err != nil && !speech.IsExpected(err) {
			s.log.Warn().Err(err).Int("start", c.Start).Msg("utterance dropped")
		}
		run.inFlight--
		s.fillLocked(run)
	}
	return speech.Utterance{
		Text:  c.Text,
		Voice: run.voice,
		Rate:  s.opts.Rate,
		Pitch: s.opts.Pitch,
		OnBoundary: func(offset int) {
			s.mu.Lock()
			defer s.mu.Unlock()
			if gen != s.gen {
				return
			}
			s.index = c.TokenAt(offset)
			s.emitLocked()
		},
		OnEnd:   func() { done(nil) },
		OnError: done,
	}
}
