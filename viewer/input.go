package viewer

import (
	glfw "github.com/go-gl/glfw/v3.3/glfw"

	"github.com/richinsley/volrender/params"
)

// keyBinding changes one parameter per key press. Booleans toggle.
type keyBinding struct {
	key   glfw.Key
	id    params.ID
	delta float32
}

var keyBindings = []keyBinding{
	{glfw.KeyLeft, params.Azimuth, -5},
	{glfw.KeyRight, params.Azimuth, 5},
	{glfw.KeyDown, params.Elevation, -5},
	{glfw.KeyUp, params.Elevation, 5},
	{glfw.KeyLeftBracket, params.ClipPlaneDepth, -0.02},
	{glfw.KeyRightBracket, params.ClipPlaneDepth, 0.02},
	{glfw.KeyC, params.Clip, 0},
	{glfw.KeyD, params.Dither, 0},
	{glfw.KeyMinus, params.OpacityFactor, -1},
	{glfw.KeyEqual, params.OpacityFactor, 1},
	{glfw.KeyK, params.LightFactor, -1},
	{glfw.KeyL, params.LightFactor, 1},
}

// nudge returns the value of id after one press.
func nudge(v params.Values, id params.ID, delta float32) float32 {
	if id.Spec().Kind == params.Bool {
		return params.BoolValue(!v.Bool(id))
	}
	return id.Clamp(v[id] + delta)
}

// dragDegrees is the rotation per framebuffer pixel of mouse drag.
const dragDegrees = 0.4

// orbitDrag tracks a left-button drag from successive GetMouseInput samples
// and turns it into azimuth and elevation deltas.
type orbitDrag struct {
	active bool
	last   [2]float32
}

func (d *orbitDrag) update(mouse [4]float32) (dAz, dEl float32, moved bool) {
	down := mouse[2] > 0 || mouse[3] > 0
	pos := [2]float32{mouse[0], mouse[1]}
	if !down {
		d.active = false
		return 0, 0, false
	}
	if !d.active {
		d.active = true
		d.last = pos
		return 0, 0, false
	}
	dx, dy := pos[0]-d.last[0], pos[1]-d.last[1]
	d.last = pos
	if dx == 0 && dy == 0 {
		return 0, 0, false
	}
	return -dx * dragDegrees, dy * dragDegrees, true
}
