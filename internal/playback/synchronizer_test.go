package playback

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/metcalfc/lector/internal/settings"
	"github.com/metcalfc/lector/internal/speech"
	"github.com/metcalfc/lector/internal/token"
)

// manualTicker hands out tick channels the test drives by hand.
type manualTicker struct {
	mu    sync.Mutex
	chans []chan time.Time
	last  time.Duration
}

func (m *manualTicker) new(d time.Duration) (<-chan time.Time, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := make(chan time.Time)
	m.chans = append(m.chans, c)
	m.last = d
	return c, func() {}
}

func (m *manualTicker) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.chans)
}

// tick fires the most recent ticker.
func (m *manualTicker) tick(t *testing.T) {
	t.Helper()
	waitFor(t, func() bool { return m.count() > 0 })
	m.mu.Lock()
	c := m.chans[len(m.chans)-1]
	m.mu.Unlock()
	select {
	case c <- time.Now():
	case <-time.After(2 * time.Second):
		t.Fatal("ticker not being read")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached")
		}
		time.Sleep(time.Millisecond)
	}
}

func words(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = "word"
	}
	return out
}

func newSilent(tokens []string, start int, opts Options) (*Synchronizer, *manualTicker) {
	s := New(tokens, start, nil, opts, zerolog.Nop())
	m := &manualTicker{}
	s.ticker = m.new
	return s, m
}

func TestSilentAdvance(t *testing.T) {
	s, m := newSilent(words(10), 0, Options{WPM: 300})
	defer s.Close()

	s.Play()
	if s.State() != PlayingSilent {
		t.Fatalf("State = %v, want playing", s.State())
	}
	for range 3 {
		m.tick(t)
	}
	waitFor(t, func() bool { return s.Index() == 3 })
	if m.last != 200*time.Millisecond {
		t.Errorf("tick interval = %v, want 200ms", m.last)
	}
}

func TestSilentStopsAtEnd(t *testing.T) {
	s, m := newSilent(words(3), 1, Options{WPM: 300})
	defer s.Close()

	s.Play()
	m.tick(t)
	waitFor(t, func() bool { return s.Index() == 2 })
	m.tick(t)
	waitFor(t, func() bool { return s.State() == Stopped })
	if s.Index() != 2 {
		t.Errorf("Index = %d, want 2", s.Index())
	}

	// Playing again from the end rewinds.
	s.Play()
	if s.Index() != 0 {
		t.Errorf("Index after replay = %d, want 0", s.Index())
	}
}

func TestToggle(t *testing.T) {
	s, m := newSilent(words(3), 1, Options{WPM: 300})
	defer s.Close()

	s.Toggle()
	if s.State() != PlayingSilent {
		t.Fatalf("State = %v, want playing", s.State())
	}
	s.Toggle()
	if s.State() != Stopped || s.Index() != 1 {
		t.Fatalf("after pause State = %v Index = %d, want stopped at 1", s.State(), s.Index())
	}

	// Run to the end; the next toggle rewinds and plays.
	s.Toggle()
	m.tick(t)
	m.tick(t)
	waitFor(t, func() bool { return s.State() == Stopped })
	s.Toggle()
	if s.State() != PlayingSilent || s.Index() != 0 {
		t.Errorf("after end State = %v Index = %d, want playing at 0", s.State(), s.Index())
	}
}

func TestToggleConcurrent(t *testing.T) {
	s, _ := newSilent(words(50), 0, Options{WPM: 300})
	defer s.Close()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 25 {
				s.Toggle()
			}
		}()
	}
	wg.Wait()
	// 200 toggles from stopped end stopped.
	if s.State() != Stopped {
		t.Errorf("State = %v, want stopped after an even number of toggles", s.State())
	}
}

func TestSilentRealTime(t *testing.T) {
	if testing.Short() {
		t.Skip("real-time test")
	}
	s := New(words(1000), 0, nil, Options{WPM: 300}, zerolog.Nop())
	defer s.Close()

	s.Play()
	time.Sleep(2 * time.Second)
	got := s.Index()
	s.Pause()
	if got < 9 || got > 11 {
		t.Errorf("after 2s at 300 WPM index = %d, want 10±1", got)
	}
}

func TestSeekClamps(t *testing.T) {
	s, _ := newSilent(words(5), 0, Options{WPM: 300})
	defer s.Close()

	tests := []struct {
		seek, want int
	}{
		{3, 3},
		{99, 4},
		{-7, 0},
	}
	for _, tt := range tests {
		s.Seek(tt.seek)
		if got := s.Index(); got != tt.want {
			t.Errorf("Seek(%d) -> %d, want %d", tt.seek, got, tt.want)
		}
	}
	s.Seek(2)
	s.SeekDelta(-10)
	if s.Index() != 0 {
		t.Errorf("SeekDelta clamp = %d", s.Index())
	}
	s.SeekDelta(2)
	if s.Index() != 2 {
		t.Errorf("SeekDelta(2) = %d", s.Index())
	}
}

func TestSeekWhilePlayingRestarts(t *testing.T) {
	s, m := newSilent(words(20), 0, Options{WPM: 300})
	defer s.Close()

	s.Play()
	m.tick(t)
	waitFor(t, func() bool { return s.Index() == 1 })

	s.Seek(10)
	if s.State() != PlayingSilent {
		t.Fatalf("State after seek = %v", s.State())
	}
	if m.count() != 2 {
		t.Fatalf("tickers = %d, want a fresh one after seek", m.count())
	}
	m.tick(t)
	waitFor(t, func() bool { return s.Index() == 11 })
}

func TestSentenceSeek(t *testing.T) {
	tokens := token.Tokenize("One two three four. Five six seven eight.")
	s, _ := newSilent(tokens, 7, Options{WPM: 300})
	defer s.Close()

	s.PrevSentence()
	if s.Index() != 4 {
		t.Errorf("PrevSentence from 7 = %d, want 4", s.Index())
	}
	s.PrevSentence()
	if s.Index() != 0 {
		t.Errorf("PrevSentence from 4 = %d, want 0", s.Index())
	}
	s.NextSentence()
	if s.Index() != 4 {
		t.Errorf("NextSentence from 0 = %d, want 4", s.Index())
	}
}

func TestVisualIndex(t *testing.T) {
	s, _ := newSilent(words(100), 10, Options{WPM: 300, LeadTime: time.Second})
	defer s.Close()

	if got := s.VisualIndex(); got != 10 {
		t.Errorf("stopped VisualIndex = %d, want 10", got)
	}
	s.Play()
	if got := s.VisualIndex(); got != 15 {
		t.Errorf("playing VisualIndex = %d, want 15", got)
	}
	if s.Index() != 10 {
		t.Errorf("VisualIndex moved the index to %d", s.Index())
	}

	s.Seek(98)
	if got := s.VisualIndex(); got != 99 {
		t.Errorf("VisualIndex near end = %d, want 99", got)
	}
}

func TestSetOptionsRestart(t *testing.T) {
	s, m := newSilent(words(50), 0, Options{WPM: 300})
	defer s.Close()
	s.Play()

	s.SetOptions(Options{WPM: 300, LeadTime: time.Second})
	if m.count() != 1 {
		t.Errorf("lead time change restarted playback")
	}
	s.SetOptions(Options{WPM: 600, LeadTime: time.Second})
	if m.count() != 2 {
		t.Fatalf("WPM change did not restart playback")
	}
	if m.last != 100*time.Millisecond {
		t.Errorf("new interval = %v, want 100ms", m.last)
	}
}

func TestCloseStopsEvents(t *testing.T) {
	s, _ := newSilent(words(5), 0, Options{WPM: 300})
	s.Play()
	s.Close()
	s.Close()

	for range s.Events() {
	}
	s.Play()
	s.Seek(3)
	if s.State() != Stopped {
		t.Errorf("State after Close = %v", s.State())
	}
}

// recordingEngine wraps a fast paced engine, recording what is spoken and
// how many utterances are queued at once.
type recordingEngine struct {
	*speech.Paced

	mu          sync.Mutex
	texts       []string
	voiceCalls  int
	inFlight    int
	maxInFlight int
}

func newRecordingEngine() *recordingEngine {
	return &recordingEngine{Paced: speech.NewPaced(60000)}
}

func (r *recordingEngine) Voices(ctx context.Context) ([]speech.Voice, error) {
	r.mu.Lock()
	r.voiceCalls++
	r.mu.Unlock()
	return r.Paced.Voices(ctx)
}

func (r *recordingEngine) Speak(u speech.Utterance) {
	r.mu.Lock()
	r.texts = append(r.texts, u.Text)
	r.inFlight++
	r.maxInFlight = max(r.maxInFlight, r.inFlight)
	r.mu.Unlock()

	release := func() {
		r.mu.Lock()
		r.inFlight--
		r.mu.Unlock()
	}
	onEnd, onErr := u.OnEnd, u.OnError
	u.OnEnd = func() { release(); onEnd() }
	u.OnError = func(err error) { release(); onErr(err) }
	r.Paced.Speak(u)
}

func (r *recordingEngine) spoken() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.texts...)
}

func TestVoicedPlaysToEnd(t *testing.T) {
	tokens := token.Tokenize("One two. Three four.\nFive six.")
	eng := newRecordingEngine()
	s := New(tokens, 0, eng, Options{WPM: 300, Voiced: true, Rate: 1, ChunkWords: 2}, zerolog.Nop())
	defer s.Close()

	s.Play()
	if s.State() != PlayingVoiced {
		t.Fatalf("State = %v, want speaking", s.State())
	}
	waitFor(t, func() bool { return s.State() == Stopped })

	if got := s.Index(); got != len(tokens)-1 {
		t.Errorf("final index = %d, want %d", got, len(tokens)-1)
	}
	want := []string{"One two.", "Three four.", "Five six."}
	if got := eng.spoken(); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("spoken = %q, want %q", got, want)
	}
	eng.mu.Lock()
	defer eng.mu.Unlock()
	if eng.maxInFlight > maxInFlight {
		t.Errorf("max in flight = %d, want <= %d", eng.maxInFlight, maxInFlight)
	}
	if eng.voiceCalls != 1 {
		t.Errorf("voices read %d times, want 1", eng.voiceCalls)
	}
}

func TestVoicedRepeat(t *testing.T) {
	tokens := token.Tokenize("a b c")
	eng := newRecordingEngine()
	s := New(tokens, 0, eng, Options{
		Voiced:      true,
		Rate:        1,
		Repeat:      settings.RepeatWord,
		RepeatTimes: 2,
	}, zerolog.Nop())
	defer s.Close()

	s.Play()
	waitFor(t, func() bool { return s.State() == Stopped })
	if got := strings.Join(eng.spoken(), " "); got != "a a b b c c" {
		t.Errorf("spoken = %q", got)
	}
}

func TestVoicedSeekCancels(t *testing.T) {
	tokens := words(40)
	eng := &recordingEngine{Paced: speech.NewPaced(60)} // one word per second
	s := New(tokens, 0, eng, Options{Voiced: true, Rate: 1, ChunkWords: 5}, zerolog.Nop())
	defer s.Close()

	s.Play()
	waitFor(t, func() bool { return len(eng.spoken()) == 2 })

	s.Seek(30)
	waitFor(t, func() bool { return len(eng.spoken()) == 4 })
	if s.Index() < 30 {
		t.Errorf("index %d moved back after seek", s.Index())
	}
	eng.mu.Lock()
	calls := eng.voiceCalls
	eng.mu.Unlock()
	if calls != 2 {
		t.Errorf("voices read %d times, want once per start", calls)
	}
}
