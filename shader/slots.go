package shader

// Slot binds a uniform name in the fragment source to its fixed location.
type Slot struct {
	Name     string
	Location int32
}

// SlotTable is the hand-maintained contract between the control plane and the
// shader sources. Locations are declared with layout(location = N) in GLSL
// and are never looked up by name at runtime. Bump Version on any change.
type SlotTable struct {
	Version       int
	Parameters    []Slot
	VolumeSampler Slot
	RampSampler   Slot
}

// Slots is the table matching the built-in sources.
var Slots = SlotTable{
	Version: 1,
	Parameters: []Slot{
		{Name: "azimuth", Location: 20},
		{Name: "elevation", Location: 21},
		{Name: "clipPlaneDepth", Location: 22},
		{Name: "clip", Location: 23},
		{Name: "dither", Location: 24},
		{Name: "opacityFactor", Location: 25},
		{Name: "lightFactor", Location: 26},
	},
	VolumeSampler: Slot{Name: "volumeTex", Location: 27},
	RampSampler:   Slot{Name: "rampTex", Location: 28},
}

// Location returns the slot of the named parameter.
func (t *SlotTable) Location(name string) (int32, bool) {
	for _, s := range t.Parameters {
		if s.Name == name {
			return s.Location, true
		}
	}
	return -1, false
}

// All returns every slot in the table, parameters first.
func (t *SlotTable) All() []Slot {
	all := make([]Slot, 0, len(t.Parameters)+2)
	all = append(all, t.Parameters...)
	return append(all, t.VolumeSampler, t.RampSampler)
}

// Missing returns the slots whose location is not among the active uniforms
// of a linked program.
func (t *SlotTable) Missing(active map[int32]string) []Slot {
	var missing []Slot
	for _, s := range t.All() {
		if _, ok := active[s.Location]; !ok {
			missing = append(missing, s)
		}
	}
	return missing
}
