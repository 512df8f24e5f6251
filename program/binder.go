// Package program finds the host's shader program, replaces its sources with
// the volume ray caster and binds the volume texture to it.
package program

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/richinsley/volrender/gpu"
	"github.com/richinsley/volrender/host"
	"github.com/richinsley/volrender/shader"
)

// DefaultUpperBound is the default end of the handle scan.
const DefaultUpperBound = 32767

// Binder patches programs through a gpu.Device.
type Binder struct {
	dev   gpu.Device
	slots *shader.SlotTable
}

// NewBinder returns a binder writing samplers to the slots of table.
func NewBinder(dev gpu.Device, table *shader.SlotTable) *Binder {
	return &Binder{dev: dev, slots: table}
}

// Discover scans handles 0..upperBound-1 and returns the highest one that
// names a program object.
//
// The highest handle is taken to be the most recently created program, which
// is the material of the proxy just made. It picks the wrong program when
// anything else created one afterwards, and it never goes back down when
// programs are deleted. Prefer Resolve when the host can name the program.
func (b *Binder) Discover(upperBound uint32) (uint32, error) {
	for h := int64(upperBound) - 1; h > 0; h-- {
		if b.dev.IsProgram(uint32(h)) {
			return uint32(h), nil
		}
	}
	return 0, fmt.Errorf("%w in handles below %d", ErrProgramNotFound, upperBound)
}

// Resolve asks provider for the program of proxy and falls back to
// Discover when the host has none.
func (b *Binder) Resolve(provider host.ProgramProvider, proxy *host.Proxy, upperBound uint32) (uint32, error) {
	if provider != nil {
		if p, ok := provider.ActiveProgram(proxy); ok && b.dev.IsProgram(p) {
			return p, nil
		}
	}
	p, err := b.Discover(upperBound)
	if err != nil {
		return 0, err
	}
	log.Printf("Binder: host supplied no program, using discovered program %d", p)
	return p, nil
}

// PatchAndLink replaces the sources of the shaders attached to program,
// compiles and links them, then binds volumeTex to volumeUnit and writes the
// unit to the volume sampler slot. On a compile error nothing is linked or
// bound. The attached shaders are deleted after a successful link.
func (b *Binder) PatchAndLink(program uint32, src shader.Sources, volumeTex, volumeUnit uint32) (uint32, error) {
	var vs, fs uint32
	for _, sh := range b.dev.AttachedShaders(program) {
		switch b.dev.ShaderStage(sh) {
		case gpu.StageVertex:
			vs = sh
		case gpu.StageFragment:
			fs = sh
		}
	}
	if vs == 0 || fs == 0 {
		return 0, fmt.Errorf("program %d lacks a vertex or fragment shader", program)
	}

	vsOK, vsLog := b.dev.CompileShader(vs, src.Vertex)
	fsOK, fsLog := b.dev.CompileShader(fs, src.Fragment)
	if !vsOK {
		return 0, &CompileError{Stage: gpu.StageVertex, Log: vsLog}
	}
	if !fsOK {
		return 0, &CompileError{Stage: gpu.StageFragment, Log: fsLog}
	}

	if ok, linkLog := b.dev.LinkProgram(program); !ok {
		return 0, &LinkError{Program: program, Log: linkLog}
	}
	b.dev.DeleteShader(vs)
	b.dev.DeleteShader(fs)

	b.dev.BindTextureUnit(volumeUnit, gpu.Texture3D, volumeTex)
	b.dev.UseProgram(program)
	b.dev.Uniform1i(b.slots.VolumeSampler.Location, int32(volumeUnit))
	b.dev.UseProgram(0)

	if missing := b.slots.Missing(b.dev.ActiveUniforms(program)); len(missing) > 0 {
		log.Printf("Warning: program %d has no active uniform for %s", program, slotNames(missing))
	}
	log.Printf("Binder: linked program %d, volume texture %d on unit %d", program, volumeTex, volumeUnit)
	return program, nil
}

// BindRamp binds the ramp texture to unit and writes the unit to the ramp
// sampler slot of program.
func (b *Binder) BindRamp(program, rampTex, unit uint32) {
	b.dev.BindTextureUnit(unit, gpu.Texture1D, rampTex)
	b.dev.UseProgram(program)
	b.dev.Uniform1i(b.slots.RampSampler.Location, int32(unit))
	b.dev.UseProgram(0)
}

func slotNames(slots []shader.Slot) string {
	names := make([]string, len(slots))
	for i, s := range slots {
		names[i] = fmt.Sprintf("%s@%d", s.Name, s.Location)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
