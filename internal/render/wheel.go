package render

import (
	"math"
	"time"

	"github.com/metcalfc/lector/internal/token"
)

// Strip is a run of tokens laid out as one line of characters, words
// separated by single spaces, with each token's pivot column recorded.
type Strip struct {
	Start  int // token index of the first token
	runes  []rune
	owner  []int     // token index of every rune, -1 for separators
	pivots []float64 // rune column of each token's pivot
}

// NewStrip lays out tokens[start:end]. Breaks become a pilcrow so the
// reader sees paragraph boundaries pass by.
func NewStrip(tokens []string, start, end int) *Strip {
	start = max(start, 0)
	end = min(end, len(tokens))
	s := &Strip{Start: start}
	for i := start; i < end; i++ {
		if i > start {
			s.runes = append(s.runes, ' ')
			s.owner = append(s.owner, -1)
		}
		word := tokens[i]
		if token.IsBreak(word) {
			word = "¶"
		}
		s.pivots = append(s.pivots, float64(len(s.runes)+Pivot(word)))
		for _, r := range word {
			s.runes = append(s.runes, r)
			s.owner = append(s.owner, i)
		}
	}
	return s
}

// Len returns the number of tokens in the strip.
func (s *Strip) Len() int {
	return len(s.pivots)
}

// PivotColumn returns the fractional column for fractional token index f,
// interpolating between neighbouring pivots.
func (s *Strip) PivotColumn(f float64) float64 {
	if len(s.pivots) == 0 {
		return 0
	}
	local := f - float64(s.Start)
	if local <= 0 {
		return s.pivots[0]
	}
	last := len(s.pivots) - 1
	if local >= float64(last) {
		return s.pivots[last]
	}
	i := int(local)
	t := local - float64(i)
	return s.pivots[i] + t*(s.pivots[i+1]-s.pivots[i])
}

// PivotDistance is the column distance from token i's pivot to the next
// token's pivot.
func (s *Strip) PivotDistance(i int) float64 {
	local := i - s.Start
	if local < 0 || local+1 >= len(s.pivots) {
		return s.meanDistance()
	}
	return s.pivots[local+1] - s.pivots[local]
}

func (s *Strip) meanDistance() float64 {
	if len(s.pivots) < 2 {
		return 1
	}
	return (s.pivots[len(s.pivots)-1] - s.pivots[0]) / float64(len(s.pivots)-1)
}

// SpeedFactor scales a token rate so the wheel turns at an even character
// speed: short hops between pivots pass quickly, long ones slowly.
func (s *Strip) SpeedFactor(i int) float64 {
	d := s.PivotDistance(i)
	if d <= 0 {
		return 1
	}
	return s.meanDistance() / d
}

// Glyph is one character placed on the wheel.
type Glyph struct {
	Rune  rune
	Token int // -1 for separators
	// Distance is the signed column distance from the focal point.
	Distance float64
	// Angle is in degrees; 0 faces the reader.
	Angle float64
}

// Wheel places the characters within span columns of the pivot at
// fractional index f. Each glyph's angle grows with its distance, degPerCol
// degrees per column; glyphs past ±90° are hidden behind the wheel.
func Wheel(s *Strip, f float64, span int, degPerCol float64) []Glyph {
	if len(s.runes) == 0 {
		return nil
	}
	center := s.PivotColumn(f)
	lo := max(0, int(math.Floor(center))-span)
	hi := min(len(s.runes)-1, int(math.Ceil(center))+span)

	var out []Glyph
	for col := lo; col <= hi; col++ {
		d := float64(col) - center
		angle := d * degPerCol
		if math.Abs(angle) > 90 {
			continue
		}
		out = append(out, Glyph{
			Rune:     s.runes[col],
			Token:    s.owner[col],
			Distance: d,
			Angle:    angle,
		})
	}
	return out
}

// DefaultSnapThreshold is how far, in tokens, the interpolated position may
// trail the true index before it jumps instead of chasing.
const DefaultSnapThreshold = 1.5

// Interpolator smooths the wheel's fractional position between discrete
// index updates. It advances at the playback rate and is pulled toward the
// authoritative index by a proportional correction.
type Interpolator struct {
	Current       float64
	Gain          float64
	SnapThreshold float64
}

// NewInterpolator starts at index i.
func NewInterpolator(i int) *Interpolator {
	return &Interpolator{Current: float64(i), Gain: 4, SnapThreshold: DefaultSnapThreshold}
}

// Step advances the position by dt. rate is in tokens per second, already
// scaled by the strip's SpeedFactor, and zero while paused. It returns
// whether the step snapped.
func (ip *Interpolator) Step(target int, rate float64, dt time.Duration) bool {
	t := float64(target)
	diff := t - ip.Current
	if math.Abs(diff) > ip.SnapThreshold {
		ip.Current = t
		return true
	}
	sec := dt.Seconds()
	ip.Current += rate*sec + ip.Gain*diff*sec
	// Never run ahead of the next token or behind the current one by more
	// than the threshold.
	ip.Current = math.Min(ip.Current, t+1)
	ip.Current = math.Max(ip.Current, t-ip.SnapThreshold)
	return false
}
