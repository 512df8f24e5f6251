package program

import (
	"errors"
	"fmt"

	"github.com/richinsley/volrender/gpu"
)

// ErrProgramNotFound is returned when no valid program exists in the
// searched handle range.
var ErrProgramNotFound = errors.New("no shader program found")

// CompileError carries the compiler log of the stage that failed.
type CompileError struct {
	Stage gpu.Stage
	Log   string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("failed to compile %s shader: %s", e.Stage, e.Log)
}

// LinkError carries the linker log.
type LinkError struct {
	Program uint32
	Log     string
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("failed to link program %d: %s", e.Program, e.Log)
}
