package viewer

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Orbit camera constants matching the ray caster: eye distance 2.5 and a
// focal length of 1.5 in normalized device units.
const (
	eyeDistance = 2.5
	focalLength = 1.5
	nearPlane   = 0.1
	farPlane    = 10
)

// OrbitEye returns the eye position for the given angles in degrees.
func OrbitEye(azimuth, elevation float32) mgl32.Vec3 {
	az := mgl32.DegToRad(azimuth)
	el := mgl32.DegToRad(elevation)
	cosEl := float32(math.Cos(float64(el)))
	return mgl32.Vec3{
		cosEl * float32(math.Sin(float64(az))),
		float32(math.Sin(float64(el))),
		cosEl * float32(math.Cos(float64(az))),
	}.Mul(eyeDistance)
}

// OrbitMVP returns the transform that draws the unit proxy cube exactly
// where the ray caster finds the volume, so every covered pixel casts a ray.
func OrbitMVP(azimuth, elevation float32) mgl32.Mat4 {
	eye := OrbitEye(azimuth, elevation)
	fovy := float32(2 * math.Atan(1/focalLength))
	proj := mgl32.Perspective(fovy, 1, nearPlane, farPlane)
	view := mgl32.LookAtV(eye, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	return proj.Mul4(view)
}
