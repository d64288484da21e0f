package settings

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// SaveFunc persists one settings snapshot.
type SaveFunc func(App, Voice) error

// Saver coalesces rapid settings changes into a single write issued once
// changes stop for the debounce delay.
type Saver struct {
	delay time.Duration
	save  SaveFunc
	log   zerolog.Logger

	mu      sync.Mutex
	timer   *time.Timer
	pending *snapshot
}

type snapshot struct {
	app   App
	voice Voice
}

// NewSaver returns a Saver that calls save at most once per quiet period.
func NewSaver(delay time.Duration, save SaveFunc, log zerolog.Logger) *Saver {
	return &Saver{delay: delay, save: save, log: log}
}

// Schedule records the latest settings and restarts the debounce timer.
func (s *Saver) Schedule(app App, voice Voice) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = &snapshot{app: app.Clone(), voice: voice.Clone()}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, func() {
		if err := s.Flush(); err != nil {
			s.log.Error().Err(err).Msg("save settings")
		}
	})
}

// Flush writes any pending settings immediately.
func (s *Saver) Flush() error {
	s.mu.Lock()
	p := s.pending
	s.pending = nil
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	if p == nil {
		return nil
	}
	return s.save(p.app, p.voice)
}
