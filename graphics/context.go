package graphics

// Context defines the interface for the OpenGL context the viewer draws into.
type Context interface {
	MakeCurrent()
	Shutdown()
	ShouldClose() bool
	EndFrame()
	GetFramebufferSize() (int, int)
	Time() float64
	// GetMouseInput returns the current mouse state: x, y, clickX, clickY.
	// The click coordinates are negative while the button is up.
	GetMouseInput() [4]float32
	SetTitle(title string)
}
