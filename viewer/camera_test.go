package viewer

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func project(m mgl32.Mat4, p mgl32.Vec3) mgl32.Vec2 {
	c := m.Mul4x1(p.Vec4(1))
	return mgl32.Vec2{c.X() / c.W(), c.Y() / c.W()}
}

func TestOrbitEye(t *testing.T) {
	eye := OrbitEye(0, 0)
	assert.InDelta(t, 0, eye.X(), 1e-5)
	assert.InDelta(t, 0, eye.Y(), 1e-5)
	assert.InDelta(t, 2.5, eye.Z(), 1e-5)

	eye = OrbitEye(90, 0)
	assert.InDelta(t, 2.5, eye.X(), 1e-5)
	assert.InDelta(t, 2.5, eye.Len(), 1e-5)
}

func TestOrbitMVPMatchesRayCaster(t *testing.T) {
	m := OrbitMVP(0, 0)
	center := project(m, mgl32.Vec3{})
	assert.InDelta(t, 0, center.X(), 1e-5)
	assert.InDelta(t, 0, center.Y(), 1e-5)

	// A point at x=0.5 in the plane of the origin lies 2.5 in front of the
	// eye, so the ray caster reaches it at ndc x = 0.5*1.5/2.5.
	right := project(m, mgl32.Vec3{0.5, 0, 0})
	assert.InDelta(t, 0.3, right.X(), 1e-4)
	up := project(m, mgl32.Vec3{0, 0.5, 0})
	assert.InDelta(t, 0.3, up.Y(), 1e-4)
}
