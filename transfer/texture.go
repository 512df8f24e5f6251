package transfer

import (
	"log"

	"github.com/richinsley/volrender/gpu"
)

// SampleCount is the number of texels in the transfer-function texture.
const SampleCount = 256

// Step is the distance between two consecutive sample positions.
const Step = float32(1) / float32(SampleCount-1)

// Curve maps a scalar intensity in [0,1] to a color.
type Curve interface {
	Evaluate(pos float32) RGBA
}

// Sample evaluates curve at SampleCount evenly spaced positions,
// i/(SampleCount-1).
func Sample(curve Curve) []RGBA {
	out := make([]RGBA, SampleCount)
	for i := range out {
		out[i] = curve.Evaluate(float32(i) / float32(SampleCount-1))
	}
	return out
}

// Texture owns the 1D ramp texture. The handle is created once; Rebuild
// overwrites all of its texels.
type Texture struct {
	dev    gpu.Device
	handle uint32
	unit   uint32
	redraw func()
}

// NewTexture returns an empty ramp texture bound to unit on rebuild. redraw
// is called after every upload; it may be nil.
func NewTexture(dev gpu.Device, unit uint32, redraw func()) *Texture {
	return &Texture{dev: dev, unit: unit, redraw: redraw}
}

// Handle returns the current handle, 0 if none was created.
func (t *Texture) Handle() uint32 { return t.handle }

// Unit returns the texture unit the ramp is bound to.
func (t *Texture) Unit() uint32 { return t.unit }

// EnsureHandle creates the texture with clamp wrapping and linear filtering
// the first time it is called. created reports whether this call made it, in
// which case the caller must Rebuild before the texture is sampled.
func (t *Texture) EnsureHandle() (handle uint32, created bool) {
	if t.handle == 0 {
		t.handle = t.dev.CreateTexture()
		t.dev.AllocateTexture1D(t.handle, SampleCount)
		log.Printf("Ramp: created %d-texel 1D texture %d", SampleCount, t.handle)
		created = true
	}
	return t.handle, created
}

// Rebuild samples curve and uploads the whole sequence into handle, then
// requests a redraw. It returns the uploaded samples.
func (t *Texture) Rebuild(handle uint32, curve Curve) []RGBA {
	samples := Sample(curve)
	pixels := make([]float32, 0, len(samples)*4)
	for _, c := range samples {
		pixels = append(pixels, c[:]...)
	}

	t.dev.BindTextureUnit(t.unit, gpu.Texture1D, handle)
	t.dev.UpdateTexture1D(handle, pixels)
	if t.redraw != nil {
		t.redraw()
	}
	return samples
}

// Read returns the texels currently stored in the texture.
func (t *Texture) Read() []RGBA {
	if t.handle == 0 {
		return nil
	}
	pixels := make([]float32, SampleCount*4)
	t.dev.ReadTexture1D(t.handle, pixels)
	out := make([]RGBA, SampleCount)
	for i := range out {
		copy(out[i][:], pixels[i*4:i*4+4])
	}
	return out
}

// Release deletes the texture if one exists.
func (t *Texture) Release() {
	if t.handle != 0 {
		t.dev.DeleteTexture(t.handle)
		log.Printf("Ramp: deleted 1D texture %d", t.handle)
		t.handle = 0
	}
}
