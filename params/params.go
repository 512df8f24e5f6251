// Package params defines the user-tunable rendering parameters of the
// display proxy and pushes their values into shader uniforms.
package params

import (
	"fmt"

	"github.com/chewxy/math32"
)

// ID names one rendering parameter.
type ID int

const (
	Azimuth ID = iota
	Elevation
	ClipPlaneDepth
	Clip
	Dither
	OpacityFactor
	LightFactor

	Count int = iota
)

// Kind is the value kind shown to the user. Both kinds reach the shader as
// floats; booleans as 0 or 1.
type Kind int

const (
	Float Kind = iota
	Bool
)

// Spec describes one parameter.
type Spec struct {
	ID          ID
	Name        string
	Label       string
	Description string
	Kind        Kind
	Min, Max    float32
	Default     float32
}

// Specs is indexed by ID.
var Specs = [Count]Spec{
	{ID: Azimuth, Name: "azimuth", Label: "Azimuth", Description: "View rotation around the vertical axis, degrees", Kind: Float, Min: -360, Max: 360, Default: 90},
	{ID: Elevation, Name: "elevation", Label: "Elevation", Description: "View elevation, degrees", Kind: Float, Min: -360, Max: 360, Default: 125},
	{ID: ClipPlaneDepth, Name: "clipPlaneDepth", Label: "Clip Plane Depth", Description: "Depth of the clip plane along the view axis", Kind: Float, Min: -1, Max: 1, Default: 0.03},
	{ID: Clip, Name: "clip", Label: "Clip", Description: "Use Clip Plane", Kind: Bool, Min: 0, Max: 1, Default: 0},
	{ID: Dither, Name: "dither", Label: "Dither", Description: "Jitter ray start to hide banding", Kind: Bool, Min: 0, Max: 1, Default: 0},
	{ID: OpacityFactor, Name: "opacityFactor", Label: "Opacity Factor", Description: "Opacity scale applied per sample", Kind: Float, Min: 0, Max: 256, Default: 25},
	{ID: LightFactor, Name: "lightFactor", Label: "Light Factor", Description: "Gradient lighting strength", Kind: Float, Min: 0, Max: 100, Default: 10},
}

func (id ID) String() string {
	if id >= 0 && int(id) < Count {
		return Specs[id].Name
	}
	return fmt.Sprintf("ID(%d)", int(id))
}

// Spec returns the description of id.
func (id ID) Spec() Spec { return Specs[id] }

// Clamp limits v to the parameter range; booleans snap to 0 or 1. NaN
// becomes the default.
func (id ID) Clamp(v float32) float32 {
	s := Specs[id]
	if math32.IsNaN(v) {
		return s.Default
	}
	if s.Kind == Bool {
		if v >= 0.5 {
			return 1
		}
		return 0
	}
	return math32.Max(s.Min, math32.Min(s.Max, v))
}

// Lookup finds a parameter by name.
func Lookup(name string) (ID, bool) {
	for _, s := range Specs {
		if s.Name == name {
			return s.ID, true
		}
	}
	return -1, false
}

// Values holds one value per parameter, indexed by ID.
type Values [Count]float32

// Defaults returns every parameter at its default.
func Defaults() Values {
	var v Values
	for _, s := range Specs {
		v[s.ID] = s.Default
	}
	return v
}

// Bool reports a boolean parameter as set.
func (v Values) Bool(id ID) bool { return v[id] >= 0.5 }

// Clamped returns a copy with every value inside its range.
func (v Values) Clamped() Values {
	for id := range v {
		v[id] = ID(id).Clamp(v[id])
	}
	return v
}

// FromMap builds values from name/value pairs on top of the defaults.
// Unknown names are an error.
func FromMap(m map[string]float32) (Values, error) {
	v := Defaults()
	for name, val := range m {
		id, ok := Lookup(name)
		if !ok {
			return v, fmt.Errorf("unknown render parameter %q", name)
		}
		v[id] = id.Clamp(val)
	}
	return v, nil
}

// Map returns the values keyed by name.
func (v Values) Map() map[string]float32 {
	m := make(map[string]float32, Count)
	for _, s := range Specs {
		m[s.Name] = v[s.ID]
	}
	return m
}

// BoolValue converts a boolean to its uniform value.
func BoolValue(b bool) float32 {
	if b {
		return 1
	}
	return 0
}
