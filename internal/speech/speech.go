// Package speech is the boundary to a text-to-speech engine. Engines queue
// utterances and report progress through callbacks that always run on the
// engine's own goroutine, never inside Speak or CancelAll.
package speech

import (
	"context"
	"errors"
	"sync"
	"unicode"
)

var (
	// ErrInterrupted is reported for the utterance that was speaking when
	// CancelAll ran.
	ErrInterrupted = errors.New("speech interrupted")
	// ErrCanceled is reported for queued utterances dropped by CancelAll.
	ErrCanceled = errors.New("speech canceled")
)

// IsExpected reports whether err is the normal result of canceling speech.
func IsExpected(err error) bool {
	return errors.Is(err, ErrInterrupted) || errors.Is(err, ErrCanceled)
}

// Voice describes a synthesizer voice.
type Voice struct {
	Name     string `json:"name"`
	Language string `json:"language"`
	Default  bool   `json:"default,omitempty"`
}

// Utterance is one piece of text to speak. Boundary offsets are byte
// offsets into Text.
type Utterance struct {
	Text  string
	Voice string
	Rate  float64
	Pitch float64

	OnStart    func()
	OnBoundary func(offset int)
	OnEnd      func()
	OnError    func(err error)
}

func (u Utterance) start() {
	if u.OnStart != nil {
		u.OnStart()
	}
}

func (u Utterance) boundary(offset int) {
	if u.OnBoundary != nil {
		u.OnBoundary(offset)
	}
}

func (u Utterance) end() {
	if u.OnEnd != nil {
		u.OnEnd()
	}
}

func (u Utterance) fail(err error) {
	if u.OnError != nil {
		u.OnError(err)
	}
}

// Engine speaks utterances in the order they were queued.
type Engine interface {
	Voices(ctx context.Context) ([]Voice, error)
	Speak(u Utterance)
	CancelAll()
}

// FindVoice returns the voice named name, or the default voice when it is
// not installed.
func FindVoice(voices []Voice, name string) (Voice, bool) {
	var fallback Voice
	found := false
	for _, v := range voices {
		if v.Name == name {
			return v, true
		}
		if v.Default || !found {
			fallback, found = v, true
		}
	}
	return fallback, false
}

// WordOffsets returns the byte offset of every word in text.
func WordOffsets(text string) []int {
	var out []int
	inWord := false
	for i, r := range text {
		if unicode.IsSpace(r) {
			inWord = false
			continue
		}
		if !inWord {
			out = append(out, i)
			inWord = true
		}
	}
	return out
}

// speakFunc speaks one utterance, returning early with ErrInterrupted
// when stop closes.
type speakFunc func(u Utterance, stop <-chan struct{}) error

// queue serializes utterances onto a single worker goroutine.
type queue struct {
	speak speakFunc

	mu      sync.Mutex
	pending []Utterance
	running bool
	stop    chan struct{}
}

func newQueue(speak speakFunc) *queue {
	return &queue{speak: speak, stop: make(chan struct{})}
}

func (q *queue) Speak(u Utterance) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, u)
	if !q.running {
		q.running = true
		go q.run()
	}
}

func (q *queue) CancelAll() {
	q.mu.Lock()
	dropped := q.pending
	q.pending = nil
	close(q.stop)
	q.stop = make(chan struct{})
	q.mu.Unlock()

	if len(dropped) > 0 {
		go func() {
			for _, u := range dropped {
				u.fail(ErrCanceled)
			}
		}()
	}
}

func (q *queue) run() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.running = false
			q.mu.Unlock()
			return
		}
		u := q.pending[0]
		q.pending = q.pending[1:]
		stop := q.stop
		q.mu.Unlock()

		u.start()
		if err := q.speak(u, stop); err != nil {
			u.fail(err)
			continue
		}
		u.end()
	}
}
