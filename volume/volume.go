// Package volume owns the GPU 3D texture holding decoded voxel data.
package volume

import (
	"fmt"
	"log"

	"github.com/richinsley/volrender/gpu"
)

// Voxels is a decoded voxel grid, x fastest, then y, then z.
type Voxels struct {
	Width  int
	Height int
	Depth  int
	Format gpu.VoxelFormat
	Data   []byte
	// Spacing is the physical size of one voxel along x, y and z.
	Spacing [3]float32
}

// Len returns the byte size the grid dimensions call for.
func (v *Voxels) Len() int {
	return v.Width * v.Height * v.Depth * v.Format.BytesPerVoxel()
}

// Descriptor describes the GPU-side representation of the loaded volume.
type Descriptor struct {
	Width   int
	Height  int
	Depth   int
	Texture uint32
	Spacing [3]float32
}

// Extent returns the physical size of the volume.
func (d Descriptor) Extent() [3]float32 {
	return [3]float32{
		float32(d.Width) * d.Spacing[0],
		float32(d.Height) * d.Spacing[1],
		float32(d.Depth) * d.Spacing[2],
	}
}

// Slot holds the one 3D texture of the process. The handle is created on
// first use and reused by every later load.
type Slot struct {
	dev    gpu.Device
	handle uint32
}

// NewSlot returns an empty slot; no GPU object exists until EnsureHandle.
func NewSlot(dev gpu.Device) *Slot {
	return &Slot{dev: dev}
}

// Handle returns the current handle, 0 if none was created.
func (s *Slot) Handle() uint32 {
	return s.handle
}

// EnsureHandle creates the 3D texture the first time it is called and returns
// the same handle on every later call.
func (s *Slot) EnsureHandle() uint32 {
	if s.handle == 0 {
		s.handle = s.dev.CreateTexture()
		log.Printf("Volume: created 3D texture %d", s.handle)
	}
	return s.handle
}

// Upload stores vox in the texture named by handle. EnsureHandle must have
// been called first.
func (s *Slot) Upload(handle uint32, vox *Voxels) (Descriptor, error) {
	if vox == nil {
		return Descriptor{}, fmt.Errorf("volume: nil voxel buffer")
	}
	if err := s.dev.UploadTexture3D(handle, vox.Format, vox.Width, vox.Height, vox.Depth, vox.Data); err != nil {
		return Descriptor{}, fmt.Errorf("volume: upload to texture %d: %w", handle, err)
	}
	return Descriptor{
		Width:   vox.Width,
		Height:  vox.Height,
		Depth:   vox.Depth,
		Texture: handle,
		Spacing: vox.Spacing,
	}, nil
}

// Read copies the texture back into a new buffer of the descriptor's size.
func (s *Slot) Read(d Descriptor, format gpu.VoxelFormat) ([]byte, error) {
	buf := make([]byte, d.Width*d.Height*d.Depth*format.BytesPerVoxel())
	if err := s.dev.ReadTexture3D(d.Texture, format, buf); err != nil {
		return nil, fmt.Errorf("volume: read texture %d: %w", d.Texture, err)
	}
	return buf, nil
}

// Release deletes the texture if one exists.
func (s *Slot) Release() {
	if s.handle != 0 {
		s.dev.DeleteTexture(s.handle)
		log.Printf("Volume: deleted 3D texture %d", s.handle)
		s.handle = 0
	}
}
