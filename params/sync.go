package params

import (
	"log"

	"github.com/richinsley/volrender/gpu"
	"github.com/richinsley/volrender/shader"
)

// Sync writes parameter values into the fixed uniform slots of a program.
// Every push is an independent GPU write; only the redraw that follows is
// deferred. Writing to a program that lacks the uniform is not detected.
type Sync struct {
	dev    gpu.Device
	locs   [Count]int32
	redraw func()
}

// NewSync resolves the slot of every parameter from table. redraw is called
// after every push; it may be nil.
func NewSync(dev gpu.Device, table *shader.SlotTable, redraw func()) *Sync {
	s := &Sync{dev: dev, redraw: redraw}
	for _, spec := range Specs {
		loc, ok := table.Location(spec.Name)
		if !ok {
			log.Printf("Warning: slot table v%d has no slot for %s, pushes are dropped", table.Version, spec.Name)
		}
		s.locs[spec.ID] = loc
	}
	return s
}

// Location returns the uniform slot of id, -1 if the table has none.
func (s *Sync) Location(id ID) int32 { return s.locs[id] }

// Push writes v to the slot of id on program.
func (s *Sync) Push(program uint32, id ID, v float32) {
	loc := s.locs[id]
	if loc < 0 {
		return
	}
	s.dev.UseProgram(program)
	s.dev.Uniform1f(loc, v)
	s.dev.UseProgram(0)
	if s.redraw != nil {
		s.redraw()
	}
}

// PushAll writes every value in order of ID.
func (s *Sync) PushAll(program uint32, v Values) {
	for id := range v {
		s.Push(program, ID(id), v[id])
	}
}

// PushAzimuth writes the view azimuth in degrees.
func (s *Sync) PushAzimuth(program uint32, deg float32) {
	s.Push(program, Azimuth, deg)
}

// PushElevation writes the view elevation in degrees.
func (s *Sync) PushElevation(program uint32, deg float32) {
	s.Push(program, Elevation, deg)
}

func (s *Sync) PushClipPlaneDepth(program uint32, depth float32) {
	s.Push(program, ClipPlaneDepth, depth)
}

func (s *Sync) PushClip(program uint32, on bool) {
	s.Push(program, Clip, BoolValue(on))
}

func (s *Sync) PushDither(program uint32, on bool) {
	s.Push(program, Dither, BoolValue(on))
}

func (s *Sync) PushOpacityFactor(program uint32, factor float32) {
	s.Push(program, OpacityFactor, factor)
}

func (s *Sync) PushLightFactor(program uint32, factor float32) {
	s.Push(program, LightFactor, factor)
}
