// Package control drives the volume rendering session: loading voxels,
// binding the ray-casting program and keeping its uniforms in sync.
package control

import (
	"errors"
	"fmt"
	"log"

	"github.com/richinsley/volrender/decoder"
	"github.com/richinsley/volrender/gpu"
	"github.com/richinsley/volrender/host"
	"github.com/richinsley/volrender/params"
	"github.com/richinsley/volrender/program"
	"github.com/richinsley/volrender/shader"
	"github.com/richinsley/volrender/transfer"
	"github.com/richinsley/volrender/volume"
)

var (
	// ErrNoVolume is returned by BindShader before any volume was loaded.
	ErrNoVolume = errors.New("no volume loaded")
	// ErrUnknownParameter is returned by SetParameter for names outside
	// params.Specs.
	ErrUnknownParameter = host.ErrUnknownParameter
)

// State is the stage of the rendering session.
type State int

const (
	Idle State = iota
	VolumeLoaded
	ShaderBound
	Ready
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case VolumeLoaded:
		return "VolumeLoaded"
	case ShaderBound:
		return "ShaderBound"
	case Ready:
		return "Ready"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Decoder turns a load request into voxels.
type Decoder interface {
	DecodeImageStack(req decoder.ImageStackRequest) (*volume.Voxels, error)
	DecodeDICOMSeries(req decoder.DICOMRequest) (*volume.Voxels, error)
}

// Host bundles the collaborators the application provides. Programs may be
// nil, in which case the program is always discovered.
type Host struct {
	Scene    host.Scene
	Programs host.ProgramProvider
	Viewport host.Viewport
}

// Options are the fixed settings of a session.
type Options struct {
	UpperBound uint32
	VolumeUnit uint32
	RampUnit   uint32
	ProxyName  string
	Sources    shader.Sources
	Slots      *shader.SlotTable
	Parameters params.Values
}

// DefaultOptions returns the built-in shaders on units 0 and 1.
func DefaultOptions() Options {
	return Options{
		UpperBound: program.DefaultUpperBound,
		VolumeUnit: 0,
		RampUnit:   1,
		ProxyName:  host.ProxyName,
		Sources:    shader.Default(),
		Slots:      &shader.Slots,
		Parameters: params.Defaults(),
	}
}

// Controller is the state machine Idle, VolumeLoaded, ShaderBound, Ready.
// A failed transition leaves the state as it was. Every method must run on
// the thread owning the GL context.
type Controller struct {
	dev     gpu.Device
	host    Host
	decoder Decoder
	opts    Options

	res    *Resources
	binder *program.Binder
	sync   *params.Sync
	ramp   *transfer.Ramp

	state    State
	proxy    *host.Proxy
	values   params.Values
	watching *host.Proxy
}

// New returns an Idle controller. Edits of ramp are forwarded to the ramp
// texture once it exists.
func New(dev gpu.Device, h Host, dec Decoder, ramp *transfer.Ramp, opts Options) *Controller {
	if opts.Slots == nil {
		opts.Slots = &shader.Slots
	}
	if opts.ProxyName == "" {
		opts.ProxyName = host.ProxyName
	}
	if ramp == nil {
		ramp = transfer.NewRamp()
	}
	c := &Controller{
		dev:     dev,
		host:    h,
		decoder: dec,
		opts:    opts,
		binder:  program.NewBinder(dev, opts.Slots),
		ramp:    ramp,
		values:  opts.Parameters.Clamped(),
	}
	c.res = NewResources(dev, opts.RampUnit, c.tagRedraw)
	c.sync = params.NewSync(dev, opts.Slots, c.tagRedraw)
	ramp.OnEdit(c.RampEdited)
	return c
}

func (c *Controller) tagRedraw() {
	if c.host.Viewport != nil {
		c.host.Viewport.TagRedraw()
	}
}

// State returns the current state.
func (c *Controller) State() State { return c.state }

// Resources returns the GPU objects of the session.
func (c *Controller) Resources() *Resources { return c.res }

// Proxy returns the display proxy, nil before the first load.
func (c *Controller) Proxy() *host.Proxy { return c.proxy }

// Ramp returns the color ramp feeding the transfer texture.
func (c *Controller) Ramp() *transfer.Ramp { return c.ramp }

// Values returns the current parameter values.
func (c *Controller) Values() params.Values { return c.values }

// SetSources replaces the sources used by the next BindShader.
func (c *Controller) SetSources(src shader.Sources) { c.opts.Sources = src }

// LoadImageStack decodes an image stack and uploads it.
func (c *Controller) LoadImageStack(req decoder.ImageStackRequest) (volume.Descriptor, error) {
	v, err := c.decoder.DecodeImageStack(req)
	if err != nil {
		log.Printf("Error: image stack %s: %v", req.Path, err)
		return volume.Descriptor{}, err
	}
	return c.install(v)
}

// LoadDICOMSeries decodes a DICOM series and uploads it.
func (c *Controller) LoadDICOMSeries(req decoder.DICOMRequest) (volume.Descriptor, error) {
	v, err := c.decoder.DecodeDICOMSeries(req)
	if err != nil {
		log.Printf("Error: DICOM series %s: %v", req.Path, err)
		return volume.Descriptor{}, err
	}
	return c.install(v)
}

// install uploads into the one volume texture. Reloading after a bind keeps
// the state: the handle does not change, so the program still samples it.
func (c *Controller) install(v *volume.Voxels) (volume.Descriptor, error) {
	handle := c.res.Volume.EnsureHandle()
	d, err := c.res.Volume.Upload(handle, v)
	if err != nil {
		log.Printf("Error: volume upload: %v", err)
		return volume.Descriptor{}, err
	}
	c.res.Descriptor = d

	if err := c.ensureProxy(); err != nil {
		log.Printf("Error: display proxy: %v", err)
		return d, err
	}
	if c.state == Idle {
		c.state = VolumeLoaded
	}
	c.tagRedraw()
	return d, nil
}

func (c *Controller) ensureProxy() error {
	p, created, err := c.host.Scene.EnsureProxy(c.opts.ProxyName)
	if err != nil {
		return err
	}
	if created {
		p.Replace(c.values)
	} else {
		c.values = p.Values()
	}
	c.proxy = p
	if c.watching != p {
		p.OnChange(c.parameterChanged)
		c.watching = p
	}
	return nil
}

// BindShader patches the host program with the ray caster, binds both
// textures and pushes every parameter.
func (c *Controller) BindShader() error {
	if c.state == Idle {
		log.Printf("Error: bind shader: %v", ErrNoVolume)
		return ErrNoVolume
	}
	prog, err := c.binder.Resolve(c.host.Programs, c.proxy, c.opts.UpperBound)
	if err != nil {
		log.Printf("Error: bind shader: %v", err)
		return err
	}
	prog, err = c.binder.PatchAndLink(prog, c.opts.Sources, c.res.Volume.Handle(), c.opts.VolumeUnit)
	if err != nil {
		log.Printf("Error: bind shader: %v", err)
		return err
	}
	c.res.Program = prog

	rampTex, _ := c.res.Ramp.EnsureHandle()
	c.res.Ramp.Rebuild(rampTex, c.ramp)
	c.binder.BindRamp(prog, rampTex, c.opts.RampUnit)
	c.state = ShaderBound

	c.sync.PushAll(prog, c.values)
	c.state = Ready
	log.Printf("Controller: program %d ready", prog)
	return nil
}

// SetParameter stores a parameter value, clamped to its range, and pushes
// it when the program is ready. It returns the stored value.
func (c *Controller) SetParameter(name string, v float32) (float32, error) {
	id, ok := params.Lookup(name)
	if !ok {
		err := fmt.Errorf("%w: %q", ErrUnknownParameter, name)
		log.Printf("Error: %v", err)
		return 0, err
	}
	if c.proxy != nil {
		return c.proxy.SetID(id, v), nil
	}
	v = id.Clamp(v)
	c.values[id] = v
	return v, nil
}

func (c *Controller) parameterChanged(id params.ID, v float32) {
	c.values[id] = v
	if c.state == Ready {
		c.sync.Push(c.res.Program, id, v)
	}
}

// RampEdited rebuilds the transfer texture if it exists.
func (c *Controller) RampEdited() {
	if h := c.res.Ramp.Handle(); h != 0 {
		c.res.Ramp.Rebuild(h, c.ramp)
	}
}

// Shutdown releases the textures and returns to Idle. The program stays
// with the host.
func (c *Controller) Shutdown() {
	c.res.Release()
	c.state = Idle
	log.Println("Controller: shut down")
}
