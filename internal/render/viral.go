package render

import (
	"math"

	"github.com/metcalfc/lector/internal/token"
)

// ViralChunk returns the chunk of size tokens containing i. Fixed chunks
// are aligned to multiples of size; sentence chunks restart at every
// sentence start and never cross a sentence end.
func ViralChunk(tokens []string, i, size int, sentences bool) token.Range {
	n := len(tokens)
	if n == 0 {
		return token.Range{}
	}
	size = max(size, 1)
	i = token.Clamp(i, n)

	base, limit := 0, n-1
	if sentences {
		r := token.SentenceRange(tokens, i)
		base, limit = r.Start, r.End
	}
	start := base + (i-base)/size*size
	return token.Range{Start: start, End: min(start+size-1, limit)}
}

// ViralStyle is the per-token look of the build-up mode.
type ViralStyle struct {
	Scale    float64 // 0.8 to 1.6
	Color    string
	Rotation float64 // degrees, -12 to 12
	OffsetX  float64 // -1 to 1
	OffsetY  float64 // -1 to 1
}

var viralPalette = []string{
	"#ffffff", "#ffe14d", "#ff4d6d", "#4dd2ff", "#7cff4d", "#ff9f1c", "#c77dff",
}

// hash01 is a sine-based hash of (i, k) in [0, 1).
func hash01(i, k int) float64 {
	v := math.Sin(float64(i)*12.9898+float64(k)*78.233) * 43758.5453
	return v - math.Floor(v)
}

// StyleFor returns the style of token i. It depends only on i.
func StyleFor(i int) ViralStyle {
	return ViralStyle{
		Scale:    0.8 + 0.8*hash01(i, 1),
		Color:    viralPalette[int(hash01(i, 2)*float64(len(viralPalette)))%len(viralPalette)],
		Rotation: -12 + 24*hash01(i, 3),
		OffsetX:  -1 + 2*hash01(i, 4),
		OffsetY:  -1 + 2*hash01(i, 5),
	}
}
