// Package gputest provides an in-memory gpu.Device for tests.
package gputest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/richinsley/volrender/gpu"
)

// Program is the fake state of one program object.
type Program struct {
	Shaders   []uint32
	Linked    bool
	LinkCount int
	Uniforms  map[int32]float32
	Ints      map[int32]int32
	Active    map[int32]string
}

// Shader is the fake state of one shader object.
type Shader struct {
	Stage    gpu.Stage
	Source   string
	Compiled bool
	Deleted  bool
}

type texture struct {
	target  gpu.TextureTarget
	format  gpu.VoxelFormat
	dims    [3]int
	data    []byte
	rgba    []float32
	clamp   bool
	linear  bool
	uploads int
	deleted bool
}

// Binding records one BindTextureUnit call.
type Binding struct {
	Unit    uint32
	Target  gpu.TextureTarget
	Texture uint32
}

// FakeDevice is a gpu.Device keeping every object in maps. Handles come from
// one shared counter, so textures and programs never collide.
type FakeDevice struct {
	next     uint32
	textures map[uint32]*texture
	programs map[uint32]*Program
	shaders  map[uint32]*Shader
	current  uint32

	// Compile decides whether a source compiles. The default rejects empty
	// sources and unbalanced braces.
	Compile func(stage gpu.Stage, source string) (bool, string)
	// FailLink makes every LinkProgram call fail.
	FailLink bool

	Bindings     []Binding
	UniformCalls int
	Created      int
}

// NewFakeDevice returns an empty device whose first handle is 1.
func NewFakeDevice() *FakeDevice {
	return &FakeDevice{
		next:     1,
		textures: make(map[uint32]*texture),
		programs: make(map[uint32]*Program),
		shaders:  make(map[uint32]*Shader),
		Compile:  DefaultCompile,
	}
}

// DefaultCompile accepts any non-empty source with balanced braces and parentheses.
func DefaultCompile(stage gpu.Stage, source string) (bool, string) {
	if strings.TrimSpace(source) == "" {
		return false, "0(0) : error C0000: empty " + stage.String() + " shader"
	}
	if strings.Count(source, "{") != strings.Count(source, "}") ||
		strings.Count(source, "(") != strings.Count(source, ")") {
		return false, "0(1) : error C0000: syntax error, unexpected end of file"
	}
	return true, ""
}

func (d *FakeDevice) alloc() uint32 {
	h := d.next
	d.next++
	return h
}

// AddProgram registers a program with a vertex and a fragment shader attached
// and returns its handle.
func (d *FakeDevice) AddProgram(vertex, fragment string) uint32 {
	vs := d.alloc()
	d.shaders[vs] = &Shader{Stage: gpu.StageVertex, Source: vertex, Compiled: true}
	fs := d.alloc()
	d.shaders[fs] = &Shader{Stage: gpu.StageFragment, Source: fragment, Compiled: true}
	p := d.alloc()
	d.programs[p] = &Program{
		Shaders:  []uint32{vs, fs},
		Linked:   true,
		Uniforms: make(map[int32]float32),
		Ints:     make(map[int32]int32),
		Active:   map[int32]string{},
	}
	return p
}

// AddProgramAt registers a program under a fixed handle. The attached shaders
// get handles above any handle used so far.
func (d *FakeDevice) AddProgramAt(handle uint32) {
	if handle >= d.next {
		d.next = handle + 1
	}
	vs := d.alloc()
	d.shaders[vs] = &Shader{Stage: gpu.StageVertex, Compiled: true}
	fs := d.alloc()
	d.shaders[fs] = &Shader{Stage: gpu.StageFragment, Compiled: true}
	d.programs[handle] = &Program{
		Shaders:  []uint32{vs, fs},
		Uniforms: make(map[int32]float32),
		Ints:     make(map[int32]int32),
		Active:   map[int32]string{},
	}
}

// Program returns the fake state of a program.
func (d *FakeDevice) Program(handle uint32) *Program {
	return d.programs[handle]
}

// Shader returns the fake state of a shader.
func (d *FakeDevice) Shader(handle uint32) *Shader {
	return d.shaders[handle]
}

// LiveTextures returns the number of textures not deleted.
func (d *FakeDevice) LiveTextures() int {
	n := 0
	for _, t := range d.textures {
		if !t.deleted {
			n++
		}
	}
	return n
}

// TextureUploads returns how many times texture received data.
func (d *FakeDevice) TextureUploads(handle uint32) int {
	if t, ok := d.textures[handle]; ok {
		return t.uploads
	}
	return 0
}

// TextureSampling reports the wrap and filter state of a 1D texture.
func (d *FakeDevice) TextureSampling(handle uint32) (clamp, linear bool) {
	if t, ok := d.textures[handle]; ok {
		return t.clamp, t.linear
	}
	return false, false
}

func (d *FakeDevice) CreateTexture() uint32 {
	h := d.alloc()
	d.textures[h] = &texture{}
	d.Created++
	return h
}

func (d *FakeDevice) DeleteTexture(handle uint32) {
	if t, ok := d.textures[handle]; ok {
		t.deleted = true
	}
}

func (d *FakeDevice) IsTexture(handle uint32) bool {
	t, ok := d.textures[handle]
	return ok && !t.deleted
}

func (d *FakeDevice) live(handle uint32) (*texture, error) {
	t, ok := d.textures[handle]
	if !ok || t.deleted {
		return nil, fmt.Errorf("texture %d does not exist", handle)
	}
	return t, nil
}

func (d *FakeDevice) UploadTexture3D(handle uint32, f gpu.VoxelFormat, width, height, depth int, data []byte) error {
	if err := f.Validate(); err != nil {
		return err
	}
	t, err := d.live(handle)
	if err != nil {
		return err
	}
	want := width * height * depth * f.BytesPerVoxel()
	if len(data) < want {
		return fmt.Errorf("voxel buffer holds %d bytes, needs %d", len(data), want)
	}
	t.target = gpu.Texture3D
	t.format = f
	t.dims = [3]int{width, height, depth}
	t.data = append(t.data[:0], data[:want]...)
	t.clamp, t.linear = true, true
	t.uploads++
	return nil
}

func (d *FakeDevice) ReadTexture3D(handle uint32, f gpu.VoxelFormat, dst []byte) error {
	t, err := d.live(handle)
	if err != nil {
		return err
	}
	if f != t.format {
		return fmt.Errorf("texture %d holds %v, read as %v", handle, t.format, f)
	}
	copy(dst, t.data)
	return nil
}

func (d *FakeDevice) AllocateTexture1D(handle uint32, width int) {
	t, err := d.live(handle)
	if err != nil {
		return
	}
	t.target = gpu.Texture1D
	t.dims = [3]int{width, 1, 1}
	t.rgba = make([]float32, width*4)
	t.clamp, t.linear = true, true
}

func (d *FakeDevice) UpdateTexture1D(handle uint32, rgba []float32) {
	t, err := d.live(handle)
	if err != nil {
		return
	}
	copy(t.rgba, rgba)
	t.uploads++
}

func (d *FakeDevice) ReadTexture1D(handle uint32, dst []float32) {
	if t, err := d.live(handle); err == nil {
		copy(dst, t.rgba)
	}
}

func (d *FakeDevice) BindTextureUnit(unit uint32, target gpu.TextureTarget, handle uint32) {
	d.Bindings = append(d.Bindings, Binding{Unit: unit, Target: target, Texture: handle})
}

func (d *FakeDevice) IsProgram(handle uint32) bool {
	_, ok := d.programs[handle]
	return ok
}

func (d *FakeDevice) AttachedShaders(handle uint32) []uint32 {
	if p, ok := d.programs[handle]; ok {
		return append([]uint32(nil), p.Shaders...)
	}
	return nil
}

func (d *FakeDevice) ShaderStage(handle uint32) gpu.Stage {
	if s, ok := d.shaders[handle]; ok {
		return s.Stage
	}
	return gpu.StageUnknown
}

func (d *FakeDevice) CompileShader(handle uint32, source string) (bool, string) {
	s, ok := d.shaders[handle]
	if !ok {
		return false, fmt.Sprintf("shader %d does not exist", handle)
	}
	s.Source = source
	ok, infoLog := d.Compile(s.Stage, source)
	s.Compiled = ok
	return ok, infoLog
}

var locationRe = regexp.MustCompile(`layout\s*\(\s*location\s*=\s*(\d+)\s*\)\s*uniform\s+\w+\s+(\w+)`)

func (d *FakeDevice) LinkProgram(handle uint32) (bool, string) {
	p, ok := d.programs[handle]
	if !ok {
		return false, fmt.Sprintf("program %d does not exist", handle)
	}
	p.LinkCount++
	if d.FailLink {
		p.Linked = false
		return false, "error: fragment shader output not linked"
	}
	p.Active = map[int32]string{}
	for _, sh := range p.Shaders {
		s := d.shaders[sh]
		if !s.Compiled {
			p.Linked = false
			return false, "error: attached shader not compiled"
		}
		for _, m := range locationRe.FindAllStringSubmatch(s.Source, -1) {
			loc, _ := strconv.Atoi(m[1])
			p.Active[int32(loc)] = m[2]
		}
	}
	p.Linked = true
	p.Uniforms = make(map[int32]float32)
	p.Ints = make(map[int32]int32)
	return true, ""
}

func (d *FakeDevice) DeleteShader(handle uint32) {
	if s, ok := d.shaders[handle]; ok {
		s.Deleted = true
	}
}

func (d *FakeDevice) ActiveUniforms(handle uint32) map[int32]string {
	out := map[int32]string{}
	if p, ok := d.programs[handle]; ok {
		for loc, name := range p.Active {
			out[loc] = name
		}
	}
	return out
}

func (d *FakeDevice) UseProgram(handle uint32) {
	d.current = handle
}

// Current returns the program made current by the last UseProgram call.
func (d *FakeDevice) Current() uint32 {
	return d.current
}

func (d *FakeDevice) Uniform1f(location int32, v float32) {
	d.UniformCalls++
	if p, ok := d.programs[d.current]; ok {
		p.Uniforms[location] = v
	}
}

func (d *FakeDevice) Uniform1i(location int32, v int32) {
	d.UniformCalls++
	if p, ok := d.programs[d.current]; ok {
		p.Ints[location] = v
	}
}

func (d *FakeDevice) GetUniformf(handle uint32, location int32) float32 {
	if p, ok := d.programs[handle]; ok {
		return p.Uniforms[location]
	}
	return 0
}

func (d *FakeDevice) GetUniformi(handle uint32, location int32) int32 {
	if p, ok := d.programs[handle]; ok {
		return p.Ints[location]
	}
	return 0
}

var _ gpu.Device = (*FakeDevice)(nil)
