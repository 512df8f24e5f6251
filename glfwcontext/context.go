package glfwcontext

import (
	"log"
	"runtime"

	glfw "github.com/go-gl/glfw/v3.3/glfw"

	"github.com/richinsley/volrender/graphics"
)

// Options size and name the window.
type Options struct {
	Width  int
	Height int
	Title  string
}

// Context is a GLFW window with a GL 4.3 core context. It tracks mouse state
// for GetMouseInput and dispatches registered key callbacks.
type Context struct {
	window          *glfw.Window
	lastMouseClickX float64
	lastMouseClickY float64
	mouseWasDown    bool
	keyCallbacks    map[glfw.Key]func()
}

var _ graphics.Context = (*Context)(nil)

// New creates a window. An invisible window still owns a working context,
// which is what record mode draws into.
func New(opts Options, visible bool) (*Context, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.DepthBits, 24)

	if visible {
		glfw.WindowHint(glfw.Resizable, glfw.True)
	} else {
		glfw.WindowHint(glfw.Visible, glfw.False)
	}

	title := opts.Title
	if title == "" {
		title = "volrender"
	}
	win, err := glfw.CreateWindow(opts.Width, opts.Height, title, nil, nil)
	if err != nil {
		return nil, err
	}

	c := &Context{
		window:       win,
		keyCallbacks: make(map[glfw.Key]func()),
	}
	win.SetKeyCallback(c.glfwKeyCallback)
	return c, nil
}

// RegisterKeyCallback runs f whenever key is pressed or held.
func (c *Context) RegisterKeyCallback(key glfw.Key, f func()) {
	c.keyCallbacks[key] = f
}

func (c *Context) glfwKeyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if key == glfw.KeyEscape && action == glfw.Press {
		w.SetShouldClose(true)
	}
	if action == glfw.Press || action == glfw.Repeat {
		if callback, ok := c.keyCallbacks[key]; ok {
			callback()
		}
	}
}

// GetMouseInput implements graphics.Context.
func (c *Context) GetMouseInput() [4]float32 {
	var mouseData [4]float32
	if c.window == nil {
		return mouseData
	}

	fbWidth, fbHeight := c.GetFramebufferSize()
	winWidth, winHeight := c.window.GetSize()
	var scaleX, scaleY float64 = 1.0, 1.0
	if winWidth > 0 && winHeight > 0 {
		scaleX = float64(fbWidth) / float64(winWidth)
		scaleY = float64(fbHeight) / float64(winHeight)
	}

	cursorX, cursorY := c.window.GetCursorPos()
	pixelX := cursorX * scaleX
	pixelY := cursorY * scaleY

	isMouseDown := c.window.GetMouseButton(glfw.MouseButtonLeft) == glfw.Press
	if isMouseDown && !c.mouseWasDown {
		c.lastMouseClickX = pixelX
		c.lastMouseClickY = pixelY
	}
	c.mouseWasDown = isMouseDown

	clickX := float32(c.lastMouseClickX)
	clickY := float32(fbHeight) - float32(c.lastMouseClickY)
	if !isMouseDown {
		clickX = -clickX
		clickY = -clickY
	}
	mouseData = [4]float32{float32(pixelX), float32(fbHeight) - float32(pixelY), clickX, clickY}
	return mouseData
}

// MakeCurrent makes the context current for the calling goroutine.
func (c *Context) MakeCurrent() {
	c.window.MakeContextCurrent()
}

func (c *Context) Shutdown() {
	c.window.Destroy()
}

func (c *Context) ShouldClose() bool {
	return c.window.ShouldClose()
}

func (c *Context) EndFrame() {
	c.window.SwapBuffers()
	glfw.PollEvents()
}

func (c *Context) GetFramebufferSize() (int, int) {
	return c.window.GetFramebufferSize()
}

func (c *Context) Time() float64 {
	return glfw.GetTime()
}

func (c *Context) SetTitle(title string) {
	c.window.SetTitle(title)
}

// Window returns the underlying *glfw.Window.
func (c *Context) Window() *glfw.Window {
	return c.window
}

// InitGraphics initializes GLFW. Must be called from the main thread.
func InitGraphics() error {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return err
	}
	log.Printf("GLFW Initialized")
	return nil
}

// TerminateGraphics shuts GLFW down. Must be called from the main thread.
func TerminateGraphics() {
	glfw.Terminate()
	log.Printf("GLFW Terminated")
}
