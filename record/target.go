package record

import (
	"fmt"
	"log"

	gl "github.com/go-gl/gl/v4.3-core/gl"
)

// Target is an offscreen RGBA8 framebuffer with a depth buffer, read back
// through a pixel-pack buffer.
type Target struct {
	fbo               uint32
	textureID         uint32
	depthRenderbuffer uint32
	pbo               uint32
	width             int
	height            int
}

// NewTarget creates the framebuffer.
func NewTarget(width, height int) (*Target, error) {
	t := &Target{width: width, height: height}

	gl.GenFramebuffers(1, &t.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
	gl.GenTextures(1, &t.textureID)
	gl.BindTexture(gl.TEXTURE_2D, t.textureID)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(width), int32(height), 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, t.textureID, 0)
	gl.GenRenderbuffers(1, &t.depthRenderbuffer)
	gl.BindRenderbuffer(gl.RENDERBUFFER, t.depthRenderbuffer)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, int32(width), int32(height))
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, t.depthRenderbuffer)
	if gl.CheckFramebufferStatus(gl.FRAMEBUFFER) != gl.FRAMEBUFFER_COMPLETE {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		t.Destroy()
		return nil, fmt.Errorf("offscreen fbo is not complete")
	}

	gl.GenBuffers(1, &t.pbo)
	gl.BindBuffer(gl.PIXEL_PACK_BUFFER, t.pbo)
	gl.BufferData(gl.PIXEL_PACK_BUFFER, t.frameSize(), nil, gl.STREAM_READ)
	gl.BindBuffer(gl.PIXEL_PACK_BUFFER, 0)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	log.Printf("Offscreen FBO: %dx%d RGBA8", width, height)
	return t, nil
}

func (t *Target) frameSize() int { return t.width * t.height * 4 }

// Size returns the framebuffer size.
func (t *Target) Size() (int, int) { return t.width, t.height }

// Bind makes the target the draw framebuffer.
func (t *Target) Bind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
	gl.Viewport(0, 0, int32(t.width), int32(t.height))
}

// Unbind restores the default framebuffer.
func (t *Target) Unbind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

// ReadPixels returns the current contents, bottom row first.
func (t *Target) ReadPixels() ([]byte, error) {
	size := t.frameSize()
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, t.fbo)
	gl.ReadBuffer(gl.COLOR_ATTACHMENT0)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.BindBuffer(gl.PIXEL_PACK_BUFFER, t.pbo)
	gl.ReadPixels(0, 0, int32(t.width), int32(t.height), gl.RGBA, gl.UNSIGNED_BYTE, nil)

	ptr := gl.MapBufferRange(gl.PIXEL_PACK_BUFFER, 0, size, gl.MAP_READ_BIT)
	defer func() {
		gl.BindBuffer(gl.PIXEL_PACK_BUFFER, 0)
		gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
	}()
	if ptr == nil {
		return nil, fmt.Errorf("failed to map PBO")
	}
	pixels := make([]byte, size)
	copy(pixels, (*[1 << 30]byte)(ptr)[:size:size])
	gl.UnmapBuffer(gl.PIXEL_PACK_BUFFER)
	return pixels, nil
}

// Destroy deletes the GL objects.
func (t *Target) Destroy() {
	gl.DeleteFramebuffers(1, &t.fbo)
	gl.DeleteTextures(1, &t.textureID)
	gl.DeleteRenderbuffers(1, &t.depthRenderbuffer)
	if t.pbo != 0 {
		gl.DeleteBuffers(1, &t.pbo)
	}
}
