package speech

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestWordOffsets(t *testing.T) {
	tests := []struct {
		text string
		want []int
	}{
		{"", nil},
		{"one", []int{0}},
		{"one two  three", []int{0, 4, 9}},
		{"  lead\ttab", []int{2, 7}},
		{"héllo wörld", []int{0, 7}},
	}
	for _, tt := range tests {
		if got := WordOffsets(tt.text); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("WordOffsets(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestIsExpected(t *testing.T) {
	if !IsExpected(fmt.Errorf("wrap: %w", ErrInterrupted)) || !IsExpected(ErrCanceled) {
		t.Error("cancellation errors should be expected")
	}
	if IsExpected(errors.New("synth crashed")) {
		t.Error("other errors should not be expected")
	}
}

func TestFindVoice(t *testing.T) {
	voices := []Voice{{Name: "a"}, {Name: "b", Default: true}, {Name: "c"}}
	if v, ok := FindVoice(voices, "c"); !ok || v.Name != "c" {
		t.Errorf("FindVoice(c) = %v, %v", v, ok)
	}
	if v, ok := FindVoice(voices, "missing"); ok || v.Name != "b" {
		t.Errorf("FindVoice(missing) = %v, %v, want default b", v, ok)
	}
	if _, ok := FindVoice(nil, "x"); ok {
		t.Error("FindVoice on empty list should fail")
	}
}

type recorder struct {
	mu         sync.Mutex
	boundaries []int
	ended      bool
	err        error
	done       chan struct{}
}

func newRecorder() *recorder {
	return &recorder{done: make(chan struct{})}
}

func (r *recorder) utterance(text string) Utterance {
	return Utterance{
		Text: text,
		Rate: 1,
		OnBoundary: func(off int) {
			r.mu.Lock()
			r.boundaries = append(r.boundaries, off)
			r.mu.Unlock()
		},
		OnEnd: func() {
			r.mu.Lock()
			r.ended = true
			r.mu.Unlock()
			close(r.done)
		},
		OnError: func(err error) {
			r.mu.Lock()
			r.err = err
			r.mu.Unlock()
			close(r.done)
		},
	}
}

func (r *recorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(5 * time.Second):
		t.Fatal("utterance never finished")
	}
}

func TestPacedSpeaksInOrder(t *testing.T) {
	p := NewPaced(60000) // 1ms per word
	first, second := newRecorder(), newRecorder()
	p.Speak(first.utterance("a b c"))
	p.Speak(second.utterance("d e"))

	first.wait(t)
	second.wait(t)
	if !reflect.DeepEqual(first.boundaries, []int{0, 2, 4}) || !first.ended {
		t.Errorf("first: boundaries %v ended %v", first.boundaries, first.ended)
	}
	if !reflect.DeepEqual(second.boundaries, []int{0, 2}) || !second.ended {
		t.Errorf("second: boundaries %v ended %v", second.boundaries, second.ended)
	}
}

func TestPacedCancelAll(t *testing.T) {
	p := NewPaced(60) // 1s per word
	current, queued := newRecorder(), newRecorder()

	started := make(chan struct{})
	u := current.utterance("long running text")
	u.OnStart = func() { close(started) }
	p.Speak(u)
	p.Speak(queued.utterance("never spoken"))

	<-started
	p.CancelAll()
	current.wait(t)
	queued.wait(t)

	if !errors.Is(current.err, ErrInterrupted) {
		t.Errorf("current err = %v, want ErrInterrupted", current.err)
	}
	if !errors.Is(queued.err, ErrCanceled) {
		t.Errorf("queued err = %v, want ErrCanceled", queued.err)
	}
	if len(queued.boundaries) != 0 {
		t.Errorf("queued utterance spoke %v", queued.boundaries)
	}

	// The engine keeps working after a cancel.
	after := newRecorder()
	p.Speak(after.utterance("ok"))
	after.wait(t)
	if !after.ended {
		t.Error("speech after cancel did not finish")
	}
}

func TestCallbacksNotSynchronous(t *testing.T) {
	p := NewPaced(60000)
	var mu sync.Mutex
	inSpeak := true
	synchronous := false
	done := make(chan struct{})

	mu.Lock()
	p.Speak(Utterance{
		Text: "x",
		OnBoundary: func(int) {
			mu.Lock()
			synchronous = synchronous || inSpeak
			mu.Unlock()
		},
		OnEnd: func() { close(done) },
	})
	inSpeak = false
	mu.Unlock()

	<-done
	if synchronous {
		t.Error("boundary callback ran inside Speak")
	}
}

func TestParseVoices(t *testing.T) {
	out := []byte(`Pty Language       Age/Gender VoiceName          File                 Other Languages
 5  af              --/M      Afrikaans          gmw/af
 2  en-us           --/M      English_(America)  gmw/en-US            (en 3)
`)
	got := parseVoices(out)
	want := []Voice{
		{Name: "Afrikaans", Language: "af"},
		{Name: "English_(America)", Language: "en-us", Default: true},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseVoices = %+v, want %+v", got, want)
	}
}

func TestCommandArgs(t *testing.T) {
	c := &Command{path: "espeak-ng"}
	got := c.args(Utterance{Text: "hi there", Voice: "en", Rate: 2, Pitch: 1})
	want := []string{"-s", "360", "-p", "50", "-v", "en", "--", "hi there"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("args = %v, want %v", got, want)
	}
}

func TestCommandVoicesMissingBinary(t *testing.T) {
	c := NewCommand("/nonexistent/espeak-ng", zerolog.Nop())
	if c.Available() {
		t.Skip("binary unexpectedly present")
	}
	if _, err := c.Voices(context.Background()); err == nil {
		t.Error("Voices should fail without a binary")
	}
}
