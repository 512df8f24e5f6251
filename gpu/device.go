// Package gpu is the narrow seam between the volume control plane and the
// OpenGL context. Every GL call the control plane makes goes through Device,
// so the same code runs against a live context or gputest.FakeDevice.
package gpu

import "fmt"

// Stage identifies a shader stage attached to a program.
type Stage int

const (
	StageUnknown Stage = iota
	StageVertex
	StageFragment
)

func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	default:
		return "unknown"
	}
}

// TextureTarget is the texture binding point a texture is used with.
type TextureTarget int

const (
	Texture1D TextureTarget = iota
	Texture3D
)

// ScalarType is the component type of voxel data.
type ScalarType int

const (
	Uint8 ScalarType = iota
	Uint16
	Float32
)

// Size returns the number of bytes of one component.
func (t ScalarType) Size() int {
	switch t {
	case Uint16:
		return 2
	case Float32:
		return 4
	default:
		return 1
	}
}

func (t ScalarType) String() string {
	switch t {
	case Uint16:
		return "uint16"
	case Float32:
		return "float32"
	default:
		return "uint8"
	}
}

// VoxelFormat describes the layout of one voxel in an uploaded buffer.
type VoxelFormat struct {
	Channels int
	Type     ScalarType
}

// R8 is single channel 8-bit intensity, the format both decoders produce.
var R8 = VoxelFormat{Channels: 1, Type: Uint8}

// BytesPerVoxel returns the size of one voxel in bytes.
func (f VoxelFormat) BytesPerVoxel() int {
	return f.Channels * f.Type.Size()
}

// Validate reports formats no GL upload path exists for.
func (f VoxelFormat) Validate() error {
	if f.Channels < 1 || f.Channels > 4 {
		return fmt.Errorf("unsupported channel count for %s volume: %d", f.Type, f.Channels)
	}
	if f.Type == Uint16 && f.Channels != 1 {
		return fmt.Errorf("unsupported channel count for 16-bit volume: %d", f.Channels)
	}
	return nil
}

// Device is the set of graphics operations the control plane depends on.
// Handles are GL object names; 0 never names a live object.
// All methods must be called on the thread that owns the GL context.
type Device interface {
	// Textures.
	CreateTexture() uint32
	DeleteTexture(texture uint32)
	IsTexture(texture uint32) bool
	// UploadTexture3D replaces the storage of a 3D texture with the given voxels.
	UploadTexture3D(texture uint32, format VoxelFormat, width, height, depth int, data []byte) error
	// ReadTexture3D copies the level 0 image of a 3D texture into dst.
	ReadTexture3D(texture uint32, format VoxelFormat, dst []byte) error
	// AllocateTexture1D sets clamp wrapping and linear filtering and
	// allocates RGBA8 storage for width texels.
	AllocateTexture1D(texture uint32, width int)
	// UpdateTexture1D uploads RGBA float texels starting at texel 0.
	UpdateTexture1D(texture uint32, rgba []float32)
	// ReadTexture1D copies the RGBA texels of a 1D texture into dst.
	ReadTexture1D(texture uint32, dst []float32)
	// BindTextureUnit binds texture to target on the given texture unit and
	// restores unit 0 as the active unit.
	BindTextureUnit(unit uint32, target TextureTarget, texture uint32)

	// Programs and shaders.
	IsProgram(program uint32) bool
	AttachedShaders(program uint32) []uint32
	ShaderStage(shader uint32) Stage
	// CompileShader replaces the source of shader and compiles it in place.
	CompileShader(shader uint32, source string) (ok bool, infoLog string)
	LinkProgram(program uint32) (ok bool, infoLog string)
	DeleteShader(shader uint32)
	// ActiveUniforms maps the location of every active uniform of a linked
	// program to its name.
	ActiveUniforms(program uint32) map[int32]string

	// Uniforms.
	UseProgram(program uint32)
	Uniform1f(location int32, v float32)
	Uniform1i(location int32, v int32)
	GetUniformf(program uint32, location int32) float32
	GetUniformi(program uint32, location int32) int32
}
