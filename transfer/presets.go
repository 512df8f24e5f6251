package transfer

import (
	"fmt"
	"sort"
)

var presets = map[string]func() *Ramp{
	// The compositor's stock ramp.
	"default": func() *Ramp { return NewRamp() },
	"grayscale": func() *Ramp {
		return NewRamp(
			Stop{Pos: 0, Color: RGBA{0, 0, 0, 0}},
			Stop{Pos: 1, Color: RGBA{1, 1, 1, 1}},
		)
	},
	"bone": func() *Ramp {
		r := NewRamp(
			Stop{Pos: 0, Color: RGBA{0, 0, 0, 0}},
			Stop{Pos: 0.3, Color: RGBA{0.55, 0.25, 0.15, 0}},
			Stop{Pos: 0.45, Color: RGBA{0.85, 0.55, 0.4, 0.2}},
			Stop{Pos: 0.7, Color: RGBA{1, 0.95, 0.85, 0.8}},
			Stop{Pos: 1, Color: RGBA{1, 1, 1, 1}},
		)
		r.interp = Ease
		return r
	},
	"hot": func() *Ramp {
		return NewRamp(
			Stop{Pos: 0, Color: RGBA{0, 0, 0, 0}},
			Stop{Pos: 0.35, Color: RGBA{0.9, 0, 0, 0.3}},
			Stop{Pos: 0.7, Color: RGBA{1, 0.85, 0, 0.7}},
			Stop{Pos: 1, Color: RGBA{1, 1, 1, 1}},
		)
	},
	"spectrum": func() *Ramp {
		r := NewRamp(
			Stop{Pos: 0, Color: RGBA{0, 0, 1, 0}},
			Stop{Pos: 1, Color: RGBA{1, 0, 0, 1}},
		)
		r.mode = HSV
		return r
	},
	"red": func() *Ramp {
		return NewRamp(Stop{Pos: 0, Color: RGBA{1, 0, 0, 1}})
	},
}

// Preset returns a fresh ramp for a named preset.
func Preset(name string) (*Ramp, error) {
	fn, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("unknown ramp preset %q", name)
	}
	return fn(), nil
}

// PresetNames lists the preset names in order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
