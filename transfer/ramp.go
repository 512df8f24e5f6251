// Package transfer holds the user-edited color ramp and the 1D texture the
// ray caster samples it through.
package transfer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chewxy/math32"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// RGBA is a color with straight alpha, components in [0,1].
type RGBA [4]float32

// Stop is one control point of a ramp.
type Stop struct {
	Pos   float32 `yaml:"pos"`
	Color RGBA    `yaml:"color,flow"`
}

// Interpolation selects how colors blend between two stops.
type Interpolation int

const (
	Linear Interpolation = iota
	Constant
	Ease
)

var interpolationNames = []string{"linear", "constant", "ease"}

func (i Interpolation) String() string {
	if int(i) < len(interpolationNames) {
		return interpolationNames[i]
	}
	return fmt.Sprintf("Interpolation(%d)", int(i))
}

// ParseInterpolation accepts the names printed by Interpolation.String.
func ParseInterpolation(s string) (Interpolation, error) {
	for i, n := range interpolationNames {
		if strings.EqualFold(s, n) {
			return Interpolation(i), nil
		}
	}
	return Linear, fmt.Errorf("unknown ramp interpolation %q", s)
}

// ColorMode selects the color space colors blend in.
type ColorMode int

const (
	RGB ColorMode = iota
	HSV
	HSL
	Lab
)

var colorModeNames = []string{"rgb", "hsv", "hsl", "lab"}

func (m ColorMode) String() string {
	if int(m) < len(colorModeNames) {
		return colorModeNames[m]
	}
	return fmt.Sprintf("ColorMode(%d)", int(m))
}

// ParseColorMode accepts the names printed by ColorMode.String.
func ParseColorMode(s string) (ColorMode, error) {
	for i, n := range colorModeNames {
		if strings.EqualFold(s, n) {
			return ColorMode(i), nil
		}
	}
	return RGB, fmt.Errorf("unknown ramp color mode %q", s)
}

// Ramp is a piecewise color function over [0,1]. Positions outside the stop
// range take the color of the nearest end stop. Every edit notifies the
// functions registered with OnEdit.
type Ramp struct {
	stops     []Stop
	interp    Interpolation
	mode      ColorMode
	listeners []func()
}

// NewRamp returns a linear RGB ramp through the given stops. With no stops
// the ramp goes from opaque black to opaque white.
func NewRamp(stops ...Stop) *Ramp {
	r := &Ramp{}
	if len(stops) == 0 {
		stops = []Stop{{Pos: 0, Color: RGBA{0, 0, 0, 1}}, {Pos: 1, Color: RGBA{1, 1, 1, 1}}}
	}
	r.stops = append(r.stops, stops...)
	for i := range r.stops {
		r.stops[i].Pos = clamp01(r.stops[i].Pos)
	}
	r.sort()
	return r
}

// OnEdit registers fn to run after every edit.
func (r *Ramp) OnEdit(fn func()) {
	r.listeners = append(r.listeners, fn)
}

func (r *Ramp) edited() {
	for _, fn := range r.listeners {
		fn()
	}
}

func (r *Ramp) sort() {
	sort.SliceStable(r.stops, func(i, j int) bool { return r.stops[i].Pos < r.stops[j].Pos })
}

// Stops returns a copy of the stops ordered by position.
func (r *Ramp) Stops() []Stop {
	return append([]Stop(nil), r.stops...)
}

func (r *Ramp) Interpolation() Interpolation { return r.interp }
func (r *Ramp) ColorMode() ColorMode         { return r.mode }

// SetInterpolation changes the blend between stops.
func (r *Ramp) SetInterpolation(i Interpolation) {
	r.interp = i
	r.edited()
}

// SetColorMode changes the color space used for blending.
func (r *Ramp) SetColorMode(m ColorMode) {
	r.mode = m
	r.edited()
}

// AddStop inserts a stop and returns its index after ordering.
func (r *Ramp) AddStop(pos float32, c RGBA) int {
	s := Stop{Pos: clamp01(pos), Color: c}
	i := sort.Search(len(r.stops), func(i int) bool { return r.stops[i].Pos > s.Pos })
	r.stops = append(r.stops, Stop{})
	copy(r.stops[i+1:], r.stops[i:])
	r.stops[i] = s
	r.edited()
	return i
}

// RemoveStop deletes stop i. The last remaining stop cannot be removed.
func (r *Ramp) RemoveStop(i int) error {
	if i < 0 || i >= len(r.stops) {
		return fmt.Errorf("ramp stop %d out of range [0,%d)", i, len(r.stops))
	}
	if len(r.stops) == 1 {
		return fmt.Errorf("ramp needs at least one stop")
	}
	r.stops = append(r.stops[:i], r.stops[i+1:]...)
	r.edited()
	return nil
}

// MoveStop changes the position of stop i and returns its new index.
func (r *Ramp) MoveStop(i int, pos float32) (int, error) {
	if i < 0 || i >= len(r.stops) {
		return i, fmt.Errorf("ramp stop %d out of range [0,%d)", i, len(r.stops))
	}
	moved := r.stops[i]
	moved.Pos = clamp01(pos)
	r.stops = append(r.stops[:i], r.stops[i+1:]...)
	j := sort.Search(len(r.stops), func(k int) bool { return r.stops[k].Pos > moved.Pos })
	r.stops = append(r.stops, Stop{})
	copy(r.stops[j+1:], r.stops[j:])
	r.stops[j] = moved
	r.edited()
	return j, nil
}

// SetColor changes the color of stop i.
func (r *Ramp) SetColor(i int, c RGBA) error {
	if i < 0 || i >= len(r.stops) {
		return fmt.Errorf("ramp stop %d out of range [0,%d)", i, len(r.stops))
	}
	r.stops[i].Color = c
	r.edited()
	return nil
}

// Replace swaps every stop and setting for those of other.
func (r *Ramp) Replace(other *Ramp) {
	r.stops = other.Stops()
	r.interp = other.interp
	r.mode = other.mode
	r.edited()
}

// Evaluate returns the ramp color at pos.
func (r *Ramp) Evaluate(pos float32) RGBA {
	n := len(r.stops)
	if n == 0 {
		return RGBA{}
	}
	pos = clamp01(pos)
	if pos <= r.stops[0].Pos {
		return r.stops[0].Color
	}
	if pos >= r.stops[n-1].Pos {
		return r.stops[n-1].Color
	}
	// First stop strictly right of pos; the stop before it is at or left of pos.
	hi := sort.Search(n, func(i int) bool { return r.stops[i].Pos > pos })
	a, b := r.stops[hi-1], r.stops[hi]

	var t float32
	if span := b.Pos - a.Pos; span > 0 {
		t = (pos - a.Pos) / span
	}
	switch r.interp {
	case Constant:
		return a.Color
	case Ease:
		t = t * t * (3 - 2*t)
	}
	return blend(a.Color, b.Color, t, r.mode)
}

func blend(a, b RGBA, t float32, mode ColorMode) RGBA {
	alpha := a[3] + (b[3]-a[3])*t
	if mode == RGB {
		return RGBA{
			a[0] + (b[0]-a[0])*t,
			a[1] + (b[1]-a[1])*t,
			a[2] + (b[2]-a[2])*t,
			alpha,
		}
	}

	ca := colorful.Color{R: float64(a[0]), G: float64(a[1]), B: float64(a[2])}
	cb := colorful.Color{R: float64(b[0]), G: float64(b[1]), B: float64(b[2])}
	var c colorful.Color
	switch mode {
	case HSV:
		c = ca.BlendHsv(cb, float64(t))
	case HSL:
		h1, s1, l1 := ca.Hsl()
		h2, s2, l2 := cb.Hsl()
		tt := float64(t)
		c = colorful.Hsl(lerpHue(h1, h2, tt), s1+(s2-s1)*tt, l1+(l2-l1)*tt)
	case Lab:
		c = ca.BlendLab(cb, float64(t))
	}
	c = c.Clamped()
	return RGBA{float32(c.R), float32(c.G), float32(c.B), alpha}
}

// lerpHue interpolates hue in degrees along the shorter arc.
func lerpHue(a, b, t float64) float64 {
	d := b - a
	if d > 180 {
		d -= 360
	} else if d < -180 {
		d += 360
	}
	h := a + d*t
	if h < 0 {
		h += 360
	} else if h >= 360 {
		h -= 360
	}
	return h
}

func clamp01(v float32) float32 {
	return math32.Max(0, math32.Min(1, v))
}
