package control

import (
	"log"

	"github.com/richinsley/volrender/gpu"
	"github.com/richinsley/volrender/transfer"
	"github.com/richinsley/volrender/volume"
)

// Resources owns the GPU objects of one rendering session: the volume
// texture, the ramp texture and the handle of the bound program.
type Resources struct {
	Volume     *volume.Slot
	Ramp       *transfer.Texture
	Descriptor volume.Descriptor
	// Program is the last linked program, 0 before the first bind. It
	// belongs to the host and is never deleted here.
	Program uint32
}

// NewResources returns empty resources; no GPU object exists yet.
func NewResources(dev gpu.Device, rampUnit uint32, redraw func()) *Resources {
	return &Resources{
		Volume: volume.NewSlot(dev),
		Ramp:   transfer.NewTexture(dev, rampUnit, redraw),
	}
}

// Release deletes the textures that exist and forgets the program.
func (r *Resources) Release() {
	r.Ramp.Release()
	r.Volume.Release()
	if r.Program != 0 {
		log.Printf("Resources: leaving program %d to its owner", r.Program)
	}
	r.Program = 0
	r.Descriptor = volume.Descriptor{}
}
