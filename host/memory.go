package host

import (
	"log"
	"sync"
	"sync/atomic"
)

// MemoryScene is a Scene keeping proxies in a map. It is the scene of
// headless runs and tests.
type MemoryScene struct {
	mu      sync.Mutex
	proxies map[string]*Proxy
	// OnCreate runs after a proxy is created; it may attach a material.
	OnCreate func(p *Proxy) error
}

// NewMemoryScene returns an empty scene.
func NewMemoryScene() *MemoryScene {
	return &MemoryScene{proxies: make(map[string]*Proxy)}
}

func (s *MemoryScene) EnsureProxy(name string) (*Proxy, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.proxies[name]; ok {
		return p, false, nil
	}
	p := NewProxy(name)
	if s.OnCreate != nil {
		if err := s.OnCreate(p); err != nil {
			return nil, false, err
		}
	}
	s.proxies[name] = p
	log.Printf("Scene: created proxy %q at %v", name, p.Location)
	return p, true, nil
}

func (s *MemoryScene) Proxy(name string) (*Proxy, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.proxies[name]
	return p, ok
}

// Len returns the number of proxies.
func (s *MemoryScene) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.proxies)
}

// StaticProvider hands out one fixed program for every proxy. A zero
// Program means the host has none.
type StaticProvider struct {
	Program uint32
}

func (p StaticProvider) ActiveProgram(*Proxy) (uint32, bool) {
	return p.Program, p.Program != 0
}

// DirtyFlag is a Viewport that records redraw requests until the next frame
// takes them.
type DirtyFlag struct {
	dirty atomic.Bool
	count atomic.Int64
}

func (d *DirtyFlag) TagRedraw() {
	d.dirty.Store(true)
	d.count.Add(1)
}

// Take reports whether a redraw was requested since the last call and clears
// the request.
func (d *DirtyFlag) Take() bool {
	return d.dirty.Swap(false)
}

// Requests returns the total number of redraw requests.
func (d *DirtyFlag) Requests() int64 {
	return d.count.Load()
}
