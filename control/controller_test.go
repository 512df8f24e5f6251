package control

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinsley/volrender/decoder"
	"github.com/richinsley/volrender/gpu"
	"github.com/richinsley/volrender/gpu/gputest"
	"github.com/richinsley/volrender/host"
	"github.com/richinsley/volrender/params"
	"github.com/richinsley/volrender/program"
	"github.com/richinsley/volrender/transfer"
	"github.com/richinsley/volrender/volume"
)

type fakeDecoder struct {
	voxels *volume.Voxels
	err    error
	calls  int
}

func (d *fakeDecoder) DecodeImageStack(req decoder.ImageStackRequest) (*volume.Voxels, error) {
	d.calls++
	return d.voxels, d.err
}

func (d *fakeDecoder) DecodeDICOMSeries(req decoder.DICOMRequest) (*volume.Voxels, error) {
	d.calls++
	return d.voxels, d.err
}

func cube(w, h, depth int) *volume.Voxels {
	data := make([]byte, w*h*depth)
	for i := range data {
		data[i] = byte(i)
	}
	return &volume.Voxels{Width: w, Height: h, Depth: depth, Format: gpu.R8, Data: data, Spacing: [3]float32{0.1, 0.1, 0.1}}
}

type fixture struct {
	dev   *gputest.FakeDevice
	scene *host.MemoryScene
	dirty *host.DirtyFlag
	dec   *fakeDecoder
	ctl   *Controller
}

func newFixture(opts Options) *fixture {
	f := &fixture{
		dev:   gputest.NewFakeDevice(),
		scene: host.NewMemoryScene(),
		dirty: &host.DirtyFlag{},
		dec:   &fakeDecoder{voxels: cube(64, 64, 32)},
	}
	f.scene.OnCreate = func(*host.Proxy) error {
		f.dev.AddProgram("placeholder", "placeholder")
		return nil
	}
	f.ctl = New(f.dev, Host{Scene: f.scene, Viewport: f.dirty}, f.dec, nil, opts)
	return f
}

func TestEndToEnd(t *testing.T) {
	f := newFixture(DefaultOptions())
	ctl := f.ctl
	assert.Equal(t, Idle, ctl.State())

	d, err := ctl.LoadImageStack(decoder.NewImageStackRequest("stack"))
	require.NoError(t, err)
	assert.Equal(t, VolumeLoaded, ctl.State())
	assert.Equal(t, 64, d.Width)
	assert.Equal(t, 32, d.Depth)
	got, err := ctl.Resources().Volume.Read(d, gpu.R8)
	require.NoError(t, err)
	assert.Equal(t, f.dec.voxels.Data, got)

	require.NoError(t, ctl.BindShader())
	assert.Equal(t, Ready, ctl.State())
	prog := ctl.Resources().Program
	require.NotZero(t, prog)
	assert.Equal(t, float32(90), f.dev.GetUniformf(prog, 20))
	assert.Equal(t, float32(25), f.dev.GetUniformf(prog, 25))
	assert.Equal(t, int32(0), f.dev.GetUniformi(prog, 27))
	assert.Equal(t, int32(1), f.dev.GetUniformi(prog, 28))

	_, err = ctl.SetParameter("azimuth", 45)
	require.NoError(t, err)
	assert.Equal(t, float32(45), f.dev.GetUniformf(prog, 20))
	v, _ := ctl.Proxy().Get("azimuth")
	assert.Equal(t, float32(45), v)

	red, err := transfer.Preset("red")
	require.NoError(t, err)
	ctl.Ramp().Replace(red)
	samples := ctl.Resources().Ramp.Read()
	require.Len(t, samples, transfer.SampleCount)
	for _, s := range samples {
		assert.Equal(t, transfer.RGBA{1, 0, 0, 1}, s)
	}
	assert.True(t, f.dirty.Take())

	rampTex := ctl.Resources().Ramp.Handle()
	volTex := ctl.Resources().Volume.Handle()
	ctl.Shutdown()
	assert.Equal(t, Idle, ctl.State())
	assert.False(t, f.dev.IsTexture(rampTex))
	assert.False(t, f.dev.IsTexture(volTex))
	assert.True(t, f.dev.IsProgram(prog))
}

func TestBindBeforeLoad(t *testing.T) {
	f := newFixture(DefaultOptions())
	assert.ErrorIs(t, f.ctl.BindShader(), ErrNoVolume)
	assert.Equal(t, Idle, f.ctl.State())
	assert.Zero(t, f.dev.Created)
}

func TestDecodeFailureKeepsState(t *testing.T) {
	f := newFixture(DefaultOptions())
	f.dec.err = &decoder.DecodeError{Path: "x", Err: errors.New("bad slice")}

	_, err := f.ctl.LoadDICOMSeries(decoder.NewDICOMRequest("x"))
	var de *decoder.DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, Idle, f.ctl.State())
	assert.Zero(t, f.dev.Created)
	assert.Zero(t, f.scene.Len())
}

func TestReloadReusesTextureAndProxy(t *testing.T) {
	f := newFixture(DefaultOptions())
	_, err := f.ctl.LoadImageStack(decoder.NewImageStackRequest("a"))
	require.NoError(t, err)
	require.NoError(t, f.ctl.BindShader())
	h := f.ctl.Resources().Volume.Handle()

	f.dec.voxels = cube(16, 16, 8)
	d, err := f.ctl.LoadDICOMSeries(decoder.NewDICOMRequest("b"))
	require.NoError(t, err)
	assert.Equal(t, h, d.Texture)
	assert.Equal(t, Ready, f.ctl.State())
	assert.Equal(t, 1, f.scene.Len())
	assert.Equal(t, 2, f.dev.TextureUploads(h))
}

func TestBindFailuresKeepState(t *testing.T) {
	f := newFixture(DefaultOptions())
	f.scene.OnCreate = nil
	_, err := f.ctl.LoadImageStack(decoder.NewImageStackRequest("a"))
	require.NoError(t, err)

	assert.ErrorIs(t, f.ctl.BindShader(), program.ErrProgramNotFound)
	assert.Equal(t, VolumeLoaded, f.ctl.State())

	f.dev.AddProgram("placeholder", "placeholder")
	src := DefaultOptions().Sources
	src.Fragment = "void main() {"
	f.ctl.SetSources(src)
	err = f.ctl.BindShader()
	var ce *program.CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, gpu.StageFragment, ce.Stage)
	assert.Equal(t, VolumeLoaded, f.ctl.State())
	assert.Zero(t, f.ctl.Resources().Ramp.Handle())
}

func TestSetParameterBeforeReady(t *testing.T) {
	f := newFixture(DefaultOptions())
	v, err := f.ctl.SetParameter("lightFactor", 500)
	require.NoError(t, err)
	assert.Equal(t, float32(100), v)
	assert.Zero(t, f.dev.UniformCalls)

	_, err = f.ctl.SetParameter("gamma", 1)
	assert.ErrorIs(t, err, ErrUnknownParameter)

	_, err = f.ctl.LoadImageStack(decoder.NewImageStackRequest("a"))
	require.NoError(t, err)
	got, _ := f.ctl.Proxy().Get("lightFactor")
	assert.Equal(t, float32(100), got)

	require.NoError(t, f.ctl.BindShader())
	assert.Equal(t, float32(100), f.dev.GetUniformf(f.ctl.Resources().Program, 26))
}

func TestHostProgramPreferred(t *testing.T) {
	f := newFixture(DefaultOptions())
	want := f.dev.AddProgram("placeholder", "placeholder")
	f.dev.AddProgram("other", "other")
	f.ctl.host.Programs = host.StaticProvider{Program: want}

	_, err := f.ctl.LoadImageStack(decoder.NewImageStackRequest("a"))
	require.NoError(t, err)
	require.NoError(t, f.ctl.BindShader())
	assert.Equal(t, want, f.ctl.Resources().Program)
}

func TestProxyEditPushes(t *testing.T) {
	f := newFixture(DefaultOptions())
	_, err := f.ctl.LoadImageStack(decoder.NewImageStackRequest("a"))
	require.NoError(t, err)
	require.NoError(t, f.ctl.BindShader())

	calls := f.dev.UniformCalls
	_, err = f.ctl.Proxy().Set("clip", 1)
	require.NoError(t, err)
	assert.Equal(t, calls+1, f.dev.UniformCalls)
	assert.Equal(t, float32(1), f.dev.GetUniformf(f.ctl.Resources().Program, 23))
	assert.Equal(t, float32(1), f.ctl.Values()[params.Clip])
}

func readyFixture(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(DefaultOptions())
	_, err := f.ctl.LoadImageStack(decoder.NewImageStackRequest("a"))
	require.NoError(t, err)
	require.NoError(t, f.ctl.BindShader())
	require.Equal(t, Ready, f.ctl.State())
	return f
}

func TestRebindFromReady(t *testing.T) {
	f := readyFixture(t)
	prog := f.ctl.Resources().Program
	_, err := f.ctl.SetParameter("azimuth", 45)
	require.NoError(t, err)
	created := f.dev.Created
	for _, sh := range f.dev.Program(prog).Shaders {
		require.True(t, f.dev.Shader(sh).Deleted)
	}

	require.NoError(t, f.ctl.BindShader())
	assert.Equal(t, Ready, f.ctl.State())
	assert.Equal(t, prog, f.ctl.Resources().Program)
	assert.Equal(t, created, f.dev.Created)
	assert.Equal(t, 2, f.dev.Program(prog).LinkCount)
	assert.Equal(t, float32(45), f.dev.GetUniformf(prog, 20))
	assert.Equal(t, float32(125), f.dev.GetUniformf(prog, 21))
	assert.Equal(t, int32(0), f.dev.GetUniformi(prog, 27))
	assert.Equal(t, int32(1), f.dev.GetUniformi(prog, 28))
}

func TestRebindCompileErrorKeepsReady(t *testing.T) {
	f := readyFixture(t)
	prog := f.ctl.Resources().Program
	_, err := f.ctl.SetParameter("azimuth", 45)
	require.NoError(t, err)

	src := DefaultOptions().Sources
	src.Fragment = "void main() {"
	f.ctl.SetSources(src)
	err = f.ctl.BindShader()
	var ce *program.CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, gpu.StageFragment, ce.Stage)
	assert.Equal(t, Ready, f.ctl.State())
	assert.True(t, f.dev.Program(prog).Linked)
	assert.Equal(t, 1, f.dev.Program(prog).LinkCount)
	assert.Equal(t, float32(45), f.dev.GetUniformf(prog, 20))

	_, err = f.ctl.SetParameter("opacityFactor", 40)
	require.NoError(t, err)
	assert.Equal(t, float32(40), f.dev.GetUniformf(prog, 25))
}

func TestShutdownThenReload(t *testing.T) {
	f := readyFixture(t)
	f.ctl.Shutdown()
	require.Equal(t, Idle, f.ctl.State())
	assert.Zero(t, f.dev.LiveTextures())

	_, err := f.ctl.LoadImageStack(decoder.NewImageStackRequest("b"))
	require.NoError(t, err)
	assert.Equal(t, VolumeLoaded, f.ctl.State())
	assert.Equal(t, 1, f.scene.Len())

	require.NoError(t, f.ctl.BindShader())
	assert.Equal(t, Ready, f.ctl.State())
	assert.Equal(t, 2, f.dev.LiveTextures())
	assert.Equal(t, 4, f.dev.Created)
	prog := f.ctl.Resources().Program
	assert.Equal(t, float32(90), f.dev.GetUniformf(prog, 20))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "ShaderBound", ShaderBound.String())
	assert.Equal(t, "State(9)", State(9).String())
}
