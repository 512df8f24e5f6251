package viewer

import (
	"fmt"
	"log"
	"sync"

	"github.com/richinsley/volrender/host"
)

// Scene is the viewer's scene graph: display proxies, each with its own
// material program. It is the host side the controller talks to.
type Scene struct {
	*host.MemoryScene
	host.DirtyFlag

	mu          sync.Mutex
	materials   map[*host.Proxy]uint32
	newMaterial func() (uint32, error)
}

// NewScene returns an empty scene. newMaterial creates the program of every
// new proxy; its shaders must stay attached.
func NewScene(newMaterial func() (uint32, error)) *Scene {
	s := &Scene{
		MemoryScene: host.NewMemoryScene(),
		materials:   make(map[*host.Proxy]uint32),
		newMaterial: newMaterial,
	}
	s.OnCreate = s.attachMaterial
	return s
}

func (s *Scene) attachMaterial(p *host.Proxy) error {
	prog, err := s.newMaterial()
	if err != nil {
		return fmt.Errorf("failed to create material for %s: %w", p.Name, err)
	}
	s.mu.Lock()
	s.materials[p] = prog
	s.mu.Unlock()
	log.Printf("Scene: proxy %q uses material program %d", p.Name, prog)
	s.TagRedraw()
	return nil
}

// ActiveProgram implements host.ProgramProvider.
func (s *Scene) ActiveProgram(p *host.Proxy) (uint32, bool) {
	if p == nil {
		return 0, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prog, ok := s.materials[p]
	return prog, ok
}

// Materials returns every proxy with its program.
func (s *Scene) Materials() map[*host.Proxy]uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[*host.Proxy]uint32, len(s.materials))
	for p, prog := range s.materials {
		out[p] = prog
	}
	return out
}

var (
	_ host.Scene           = (*Scene)(nil)
	_ host.ProgramProvider = (*Scene)(nil)
	_ host.Viewport        = (*Scene)(nil)
)
