package speech

import (
	"context"
	"time"
)

// Paced is a silent engine that reports word boundaries at a fixed speaking
// rate. It stands in for a synthesizer where none is installed.
type Paced struct {
	*queue
	wpm float64
}

// NominalWPM is the words per minute a synthesizer speaks at rate 1.
const NominalWPM = 180

// NewPaced returns an engine speaking wpm words per minute at rate 1.
func NewPaced(wpm float64) *Paced {
	p := &Paced{wpm: wpm}
	p.queue = newQueue(p.speak)
	return p
}

// WPM is the pace at rate 1.
func (p *Paced) WPM() float64 { return p.wpm }

func (p *Paced) Voices(ctx context.Context) ([]Voice, error) {
	return []Voice{{Name: "paced", Language: "und", Default: true}}, nil
}

func (p *Paced) speak(u Utterance, stop <-chan struct{}) error {
	return paceWords(u, p.wpm, stop)
}

// paceWords emits a boundary for every word of u spaced by the word
// duration at the utterance rate.
func paceWords(u Utterance, wpm float64, stop <-chan struct{}) error {
	rate := u.Rate
	if rate <= 0 {
		rate = 1
	}
	interval := time.Duration(float64(time.Minute) / (wpm * rate))

	timer := time.NewTimer(interval)
	defer timer.Stop()
	for i, off := range WordOffsets(u.Text) {
		u.boundary(off)
		if i > 0 {
			timer.Reset(interval)
		}
		select {
		case <-stop:
			return ErrInterrupted
		case <-timer.C:
		}
	}
	return nil
}
