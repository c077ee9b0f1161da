package charts

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Colorscale maps [0, 1] onto evenly spaced colour stops
type Colorscale []colorful.Color

// OrRd is the sequential orange-red scale
var OrRd = mustScale(
	"#fff7ec", "#fee8c8", "#fdd49e", "#fdbb84", "#fc8d59",
	"#ef6548", "#d7301f", "#b30000", "#7f0000",
)

func mustScale(hexes ...string) Colorscale {
	s := make(Colorscale, len(hexes))
	for i, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			panic(err)
		}
		s[i] = c
	}
	return s
}

// At interpolates the scale at t, clamped to [0, 1]
func (s Colorscale) At(t float64) colorful.Color {
	if len(s) == 0 {
		return colorful.Color{}
	}
	if math.IsNaN(t) || t <= 0 {
		return s[0]
	}
	if t >= 1 {
		return s[len(s)-1]
	}
	pos := t * float64(len(s)-1)
	i := int(pos)
	return s[i].BlendRgb(s[i+1], pos-float64(i)).Clamped()
}

// Normalize maps v from [lo, hi] to [0, 1]; a flat range maps to 0.5
func Normalize(v, lo, hi float64) float64 {
	if hi <= lo {
		return 0.5
	}
	return (v - lo) / (hi - lo)
}

// textColorOn picks black or white text for readability on bg
func textColorOn(bg colorful.Color) colorful.Color {
	l, _, _ := bg.Lab()
	if l > 0.6 {
		return colorful.Color{R: 0.15, G: 0.15, B: 0.15}
	}
	return colorful.Color{R: 1, G: 1, B: 1}
}
