// Package host holds the contracts between the control plane and the
// application that owns the scene and the viewport.
package host

import (
	"errors"
	"fmt"
	"sync"

	"github.com/richinsley/volrender/params"
)

// ProxyName is the name of the display proxy the volume is drawn on.
const ProxyName = "VolCube"

// ProxyLocation is where a new display proxy is placed.
var ProxyLocation = [3]float32{0, 3, 0}

// ErrUnknownParameter is returned for a parameter name outside params.Specs.
var ErrUnknownParameter = errors.New("unknown render parameter")

// Proxy is the scene object carrying the material program and the render
// parameters. Values are clamped to their ranges when set.
type Proxy struct {
	Name     string
	Location [3]float32

	mu        sync.Mutex
	values    params.Values
	listeners []func(id params.ID, v float32)
}

// NewProxy returns a proxy with every parameter at its default.
func NewProxy(name string) *Proxy {
	return &Proxy{Name: name, Location: ProxyLocation, values: params.Defaults()}
}

// Values returns a copy of the current parameter values.
func (p *Proxy) Values() params.Values {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.values
}

// Get returns the current value of the named parameter.
func (p *Proxy) Get(name string) (float32, error) {
	id, ok := params.Lookup(name)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownParameter, name)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.values[id], nil
}

// Set stores the clamped value and notifies listeners. It returns the stored
// value.
func (p *Proxy) Set(name string, v float32) (float32, error) {
	id, ok := params.Lookup(name)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownParameter, name)
	}
	return p.SetID(id, v), nil
}

// SetID is Set by parameter ID.
func (p *Proxy) SetID(id params.ID, v float32) float32 {
	v = id.Clamp(v)
	p.mu.Lock()
	p.values[id] = v
	listeners := append([]func(params.ID, float32){}, p.listeners...)
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(id, v)
	}
	return v
}

// Replace sets every value at once without notifying.
func (p *Proxy) Replace(v params.Values) {
	p.mu.Lock()
	p.values = v.Clamped()
	p.mu.Unlock()
}

// OnChange registers fn to run after every Set.
func (p *Proxy) OnChange(fn func(id params.ID, v float32)) {
	p.mu.Lock()
	p.listeners = append(p.listeners, fn)
	p.mu.Unlock()
}

// Scene finds or creates the display proxy.
type Scene interface {
	// EnsureProxy returns the named proxy, creating it with its material
	// when it does not exist. created reports whether this call made it.
	EnsureProxy(name string) (proxy *Proxy, created bool, err error)
	// Proxy returns the named proxy if it exists.
	Proxy(name string) (*Proxy, bool)
}

// ProgramProvider gives the program of the proxy's material directly.
type ProgramProvider interface {
	ActiveProgram(proxy *Proxy) (program uint32, ok bool)
}

// Viewport receives the deferred repaint request.
type Viewport interface {
	TagRedraw()
}
