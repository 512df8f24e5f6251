package volume

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinsley/volrender/gpu"
	"github.com/richinsley/volrender/gpu/gputest"
)

func synthetic(w, h, d int) *Voxels {
	data := make([]byte, w*h*d)
	for i := range data {
		data[i] = byte(i * 7)
	}
	return &Voxels{Width: w, Height: h, Depth: d, Format: gpu.R8, Data: data, Spacing: [3]float32{0.1, 0.1, 0.2}}
}

func TestEnsureHandleCreatesOnce(t *testing.T) {
	dev := gputest.NewFakeDevice()
	slot := NewSlot(dev)
	assert.Zero(t, slot.Handle())

	first := slot.EnsureHandle()
	require.NotZero(t, first)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, slot.EnsureHandle())
	}
	assert.Equal(t, 1, dev.Created)
}

func TestUploadRoundTrip(t *testing.T) {
	dev := gputest.NewFakeDevice()
	slot := NewSlot(dev)
	vox := synthetic(16, 8, 4)

	desc, err := slot.Upload(slot.EnsureHandle(), vox)
	require.NoError(t, err)
	assert.Equal(t, Descriptor{Width: 16, Height: 8, Depth: 4, Texture: slot.Handle(), Spacing: vox.Spacing}, desc)

	back, err := slot.Read(desc, gpu.R8)
	require.NoError(t, err)
	assert.Equal(t, vox.Data, back)
}

func TestReuploadKeepsHandle(t *testing.T) {
	dev := gputest.NewFakeDevice()
	slot := NewSlot(dev)

	_, err := slot.Upload(slot.EnsureHandle(), synthetic(4, 4, 4))
	require.NoError(t, err)
	second := synthetic(8, 8, 2)
	desc, err := slot.Upload(slot.EnsureHandle(), second)
	require.NoError(t, err)

	assert.Equal(t, 1, dev.LiveTextures())
	assert.Equal(t, 2, dev.TextureUploads(desc.Texture))
	back, err := slot.Read(desc, gpu.R8)
	require.NoError(t, err)
	assert.Equal(t, second.Data, back)
}

func TestUploadShortBuffer(t *testing.T) {
	slot := NewSlot(gputest.NewFakeDevice())
	vox := synthetic(4, 4, 4)
	vox.Depth = 8

	_, err := slot.Upload(slot.EnsureHandle(), vox)
	assert.Error(t, err)
}

func TestRelease(t *testing.T) {
	dev := gputest.NewFakeDevice()
	slot := NewSlot(dev)
	h := slot.EnsureHandle()

	slot.Release()
	assert.Zero(t, slot.Handle())
	assert.False(t, dev.IsTexture(h))

	slot.Release()
	assert.NotEqual(t, h, slot.EnsureHandle())
}

func TestExtent(t *testing.T) {
	d := Descriptor{Width: 10, Height: 20, Depth: 5, Spacing: [3]float32{0.5, 0.5, 2}}
	assert.Equal(t, [3]float32{5, 10, 10}, d.Extent())
}
