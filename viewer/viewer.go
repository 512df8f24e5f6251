// Package viewer is a standalone host for the volume control plane: a GLFW
// window with a scene holding the display proxy, a frame loop, keyboard and
// mouse controls, and turntable recording.
package viewer

import (
	"fmt"
	"log"
	"sync"

	gl "github.com/go-gl/gl/v4.3-core/gl"
	glfw "github.com/go-gl/glfw/v3.3/glfw"

	"github.com/richinsley/volrender/config"
	"github.com/richinsley/volrender/control"
	"github.com/richinsley/volrender/decoder"
	"github.com/richinsley/volrender/glfwcontext"
	"github.com/richinsley/volrender/gpu"
	"github.com/richinsley/volrender/graphics"
	"github.com/richinsley/volrender/headless"
	"github.com/richinsley/volrender/params"
	"github.com/richinsley/volrender/record"
	"github.com/richinsley/volrender/shader"
	"github.com/richinsley/volrender/transfer"
)

var glInitOnce sync.Once

// Viewer owns the GL context, the scene and the controller.
type Viewer struct {
	cfg     *config.Config
	context graphics.Context
	window  *glfwcontext.Context // nil when headless
	scene   *Scene
	ctl     *control.Controller
	cube    *cubeMesh
	watcher *config.Watcher
	drag    orbitDrag
	presets []string
	preset  int
}

// New opens the window and prepares an Idle controller. With visible false
// it renders offscreen, on an EGL pbuffer where available and otherwise in a
// hidden window.
func New(cfg *config.Config, visible bool) (*Viewer, error) {
	v := &Viewer{cfg: cfg}
	var err error
	if !visible {
		h, err := headless.New(cfg.Window.Width, cfg.Window.Height)
		if err != nil {
			log.Printf("Warning: headless context unavailable, using a hidden window: %v", err)
		} else {
			v.context = h
		}
	}
	if v.context == nil {
		v.window, err = glfwcontext.New(glfwcontext.Options{
			Width:  cfg.Window.Width,
			Height: cfg.Window.Height,
			Title:  cfg.Window.Title,
		}, visible)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize glfw context: %w", err)
		}
		v.context = v.window
	}
	v.context.MakeCurrent()

	var initErr error
	glInitOnce.Do(func() {
		initErr = gl.Init()
	})
	if initErr != nil {
		v.context.Shutdown()
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", initErr)
	}
	log.Printf("OpenGL version: %s", gl.GoStr(gl.GetString(gl.VERSION)))

	v.scene = NewScene(newMaterial)
	v.cube = newCubeMesh()
	v.presets = transfer.PresetNames()
	if err := v.initController(); err != nil {
		v.Shutdown()
		return nil, err
	}
	v.registerKeys()

	if cfg.Watch.Shaders && cfg.Render.ShaderDir != "" {
		v.watcher, err = config.NewWatcher(cfg.Render.ShaderDir, shader.VertexFile, shader.FragmentFile)
		if err != nil {
			log.Printf("Warning: shader hot reload disabled: %v", err)
		}
	}
	return v, nil
}

func (v *Viewer) initController() error {
	values, err := v.cfg.RenderParameters()
	if err != nil {
		return err
	}
	ramp, err := v.cfg.BuildRamp()
	if err != nil {
		return err
	}
	sources, err := shader.Load(v.cfg.Render.ShaderDir)
	if err != nil {
		return err
	}

	opts := control.DefaultOptions()
	opts.UpperBound = v.cfg.Render.SearchUpperBound
	opts.VolumeUnit = v.cfg.Render.VolumeUnit
	opts.RampUnit = v.cfg.Render.RampUnit
	opts.ProxyName = v.cfg.Render.ProxyName
	opts.Sources = sources
	opts.Parameters = values

	hostSide := control.Host{Scene: v.scene, Programs: v.scene, Viewport: v.scene}
	v.ctl = control.New(gpu.NewGLDevice(), hostSide, decoder.Files{}, ramp, opts)
	return nil
}

// Controller returns the session controller.
func (v *Viewer) Controller() *control.Controller { return v.ctl }

// Load decodes path as a DICOM series or an image stack, binds the shader
// and returns once the volume is ready to draw.
func (v *Viewer) Load(path string, dicom bool) error {
	var err error
	if dicom {
		_, err = v.ctl.LoadDICOMSeries(v.cfg.DICOMRequest(path))
	} else {
		_, err = v.ctl.LoadImageStack(v.cfg.ImageStackRequest(path))
	}
	if err != nil {
		return err
	}
	return v.ctl.BindShader()
}

func (v *Viewer) registerKeys() {
	if v.window == nil {
		return
	}
	for _, b := range keyBindings {
		v.window.RegisterKeyCallback(b.key, func() {
			if v.ctl.Proxy() == nil {
				return
			}
			v.ctl.SetParameter(b.id.String(), nudge(v.ctl.Values(), b.id, b.delta))
		})
	}
	v.window.RegisterKeyCallback(glfw.KeyB, func() {
		if err := v.ctl.BindShader(); err != nil {
			log.Printf("Error: rebind: %v", err)
		}
	})
	v.window.RegisterKeyCallback(glfw.KeyP, v.nextPreset)
}

// nextPreset swaps the ramp for the next built-in preset; the ramp edit
// reaches the transfer texture through the controller.
func (v *Viewer) nextPreset() {
	if len(v.presets) == 0 {
		return
	}
	v.preset = (v.preset + 1) % len(v.presets)
	r, err := transfer.Preset(v.presets[v.preset])
	if err != nil {
		log.Printf("Error: %v", err)
		return
	}
	v.ctl.Ramp().Replace(r)
	log.Printf("Ramp preset: %s", v.presets[v.preset])
}

// reloadShaders reads the override files again and rebinds.
func (v *Viewer) reloadShaders() {
	src, err := shader.Load(v.cfg.Render.ShaderDir)
	if err != nil {
		log.Printf("Error: shader reload: %v", err)
		return
	}
	v.ctl.SetSources(src)
	if v.ctl.State() == control.Idle {
		return
	}
	if err := v.ctl.BindShader(); err != nil {
		log.Printf("Error: shader reload: %v", err)
	}
}

// Run is the interactive loop. Frames are drawn only after a redraw was
// requested.
func (v *Viewer) Run() {
	v.scene.TagRedraw()
	for !v.context.ShouldClose() {
		if v.watcher != nil && v.watcher.Drain() {
			v.reloadShaders()
		}
		if dAz, dEl, moved := v.drag.update(v.context.GetMouseInput()); moved && v.ctl.Proxy() != nil {
			vals := v.ctl.Values()
			v.ctl.SetParameter("azimuth", params.Azimuth.Clamp(vals[params.Azimuth]+dAz))
			v.ctl.SetParameter("elevation", params.Elevation.Clamp(vals[params.Elevation]+dEl))
		}

		if v.scene.Take() {
			fbWidth, fbHeight := v.context.GetFramebufferSize()
			gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
			v.draw(fbWidth, fbHeight)
			v.context.SetTitle(fmt.Sprintf("%s [%s]", v.cfg.Window.Title, v.ctl.State()))
			v.context.EndFrame()
		} else if v.window != nil {
			glfw.WaitEventsTimeout(0.05)
		}
	}
}

// draw renders every proxy into the bound framebuffer.
func (v *Viewer) draw(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
	gl.ClearColor(0.08, 0.08, 0.1, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.ONE, gl.ONE_MINUS_SRC_ALPHA)

	res := v.ctl.Resources()
	vals := v.ctl.Values()
	mvp := OrbitMVP(vals[params.Azimuth], vals[params.Elevation])

	for _, prog := range v.scene.Materials() {
		gl.UseProgram(prog)
		if loc := gl.GetUniformLocation(prog, gl.Str("u_mvp\x00")); loc != -1 {
			gl.UniformMatrix4fv(loc, 1, false, &mvp[0])
		}
		if prog == res.Program && v.ctl.State() == control.Ready {
			gl.ActiveTexture(gl.TEXTURE0 + v.cfg.Render.VolumeUnit)
			gl.BindTexture(gl.TEXTURE_3D, res.Volume.Handle())
			gl.ActiveTexture(gl.TEXTURE0 + v.cfg.Render.RampUnit)
			gl.BindTexture(gl.TEXTURE_1D, res.Ramp.Handle())
		}
		v.cube.draw()
	}
	gl.UseProgram(0)
	gl.Disable(gl.BLEND)
}

// Record renders a turntable sweep offscreen and encodes it with ffmpeg.
func (v *Viewer) Record(opts record.Options, t record.Turntable) error {
	target, err := record.NewTarget(opts.Width, opts.Height)
	if err != nil {
		return fmt.Errorf("failed to create offscreen renderer: %w", err)
	}
	defer target.Destroy()
	return record.Record(&recordScene{v: v, target: target}, t, opts, record.RunEncoder)
}

type recordScene struct {
	v      *Viewer
	target *record.Target
}

func (s *recordScene) SetParameter(name string, val float32) (float32, error) {
	return s.v.ctl.SetParameter(name, val)
}

func (s *recordScene) RenderFrame() ([]byte, error) {
	s.target.Bind()
	s.v.draw(s.target.Size())
	s.target.Unbind()
	s.v.scene.Take()
	return s.target.ReadPixels()
}

// Shutdown releases the controller's textures, the scene's programs and the
// window.
func (v *Viewer) Shutdown() {
	if v.watcher != nil {
		v.watcher.Close()
	}
	if v.ctl != nil {
		v.ctl.Shutdown()
	}
	for _, prog := range v.scene.Materials() {
		gl.DeleteProgram(prog)
	}
	v.cube.destroy()
	v.context.Shutdown()
}
