//go:build !linux

package headless

import (
	"fmt"

	"github.com/richinsley/volrender/graphics"
)

// Headless is unavailable off Linux.
type Headless struct {
	graphics.Context
}

func New(width, height int) (*Headless, error) {
	return nil, fmt.Errorf("egl headless rendering is not supported on this platform")
}
