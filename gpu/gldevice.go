package gpu

import (
	"fmt"
	"log"
	"strings"

	"github.com/go-gl/gl/v4.3-core/gl"
)

// GLDevice implements Device on the current OpenGL context.
// gl.Init must have been called on the context's thread.
type GLDevice struct{}

// NewGLDevice returns a Device backed by the current GL context.
func NewGLDevice() *GLDevice {
	return &GLDevice{}
}

func glTarget(t TextureTarget) uint32 {
	if t == Texture1D {
		return gl.TEXTURE_1D
	}
	return gl.TEXTURE_3D
}

// getVolumeFormat translates a voxel format into OpenGL upload constants.
func getVolumeFormat(f VoxelFormat) (internalFormat int32, format uint32, typ uint32, err error) {
	if err = f.Validate(); err != nil {
		return
	}
	switch f.Type {
	case Uint8:
		typ = gl.UNSIGNED_BYTE
		internalFormat, format = [...]int32{gl.R8, gl.RG8, gl.RGB8, gl.RGBA8}[f.Channels-1], channelFormat(f.Channels)
	case Uint16:
		typ = gl.UNSIGNED_SHORT
		internalFormat, format = gl.R16, gl.RED
	case Float32:
		typ = gl.FLOAT
		internalFormat, format = [...]int32{gl.R32F, gl.RG32F, gl.RGB32F, gl.RGBA32F}[f.Channels-1], channelFormat(f.Channels)
	default:
		err = fmt.Errorf("unsupported voxel type: %s", f.Type)
	}
	return
}

func channelFormat(channels int) uint32 {
	return [...]uint32{gl.RED, gl.RG, gl.RGB, gl.RGBA}[channels-1]
}

func (d *GLDevice) CreateTexture() uint32 {
	var texture uint32
	gl.GenTextures(1, &texture)
	return texture
}

func (d *GLDevice) DeleteTexture(texture uint32) {
	gl.DeleteTextures(1, &texture)
}

func (d *GLDevice) IsTexture(texture uint32) bool {
	return gl.IsTexture(texture)
}

func (d *GLDevice) UploadTexture3D(texture uint32, f VoxelFormat, width, height, depth int, data []byte) error {
	internalFormat, format, typ, err := getVolumeFormat(f)
	if err != nil {
		return err
	}
	want := width * height * depth * f.BytesPerVoxel()
	if len(data) < want {
		return fmt.Errorf("voxel buffer holds %d bytes, %dx%dx%d %s needs %d", len(data), width, height, depth, f.Type, want)
	}

	log.Printf("Volume: Uploading %dx%dx%d texture %d. InternalFormat: 0x%X, Format: 0x%X, Type: 0x%X",
		width, height, depth, texture, internalFormat, format, typ)

	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.BindTexture(gl.TEXTURE_3D, texture)
	gl.TexParameteri(gl.TEXTURE_3D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_3D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_3D, gl.TEXTURE_WRAP_R, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_3D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_3D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexImage3D(
		gl.TEXTURE_3D,
		0, // level
		internalFormat,
		int32(width),
		int32(height),
		int32(depth),
		0, // border, must be 0
		format,
		typ,
		gl.Ptr(data),
	)
	gl.BindTexture(gl.TEXTURE_3D, 0)
	return nil
}

func (d *GLDevice) ReadTexture3D(texture uint32, f VoxelFormat, dst []byte) error {
	_, format, typ, err := getVolumeFormat(f)
	if err != nil {
		return err
	}
	if len(dst) == 0 {
		return nil
	}
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.BindTexture(gl.TEXTURE_3D, texture)
	gl.GetTexImage(gl.TEXTURE_3D, 0, format, typ, gl.Ptr(dst))
	gl.BindTexture(gl.TEXTURE_3D, 0)
	return nil
}

func (d *GLDevice) AllocateTexture1D(texture uint32, width int) {
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.BindTexture(gl.TEXTURE_1D, texture)
	gl.TexParameteri(gl.TEXTURE_1D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_1D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_1D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexImage1D(gl.TEXTURE_1D, 0, gl.RGBA8, int32(width), 0, gl.RGBA, gl.FLOAT, nil)
	gl.BindTexture(gl.TEXTURE_1D, 0)
}

func (d *GLDevice) UpdateTexture1D(texture uint32, rgba []float32) {
	if len(rgba) == 0 {
		return
	}
	gl.BindTexture(gl.TEXTURE_1D, texture)
	gl.TexSubImage1D(gl.TEXTURE_1D, 0, 0, int32(len(rgba)/4), gl.RGBA, gl.FLOAT, gl.Ptr(rgba))
	gl.BindTexture(gl.TEXTURE_1D, 0)
}

func (d *GLDevice) ReadTexture1D(texture uint32, dst []float32) {
	if len(dst) == 0 {
		return
	}
	gl.BindTexture(gl.TEXTURE_1D, texture)
	gl.GetTexImage(gl.TEXTURE_1D, 0, gl.RGBA, gl.FLOAT, gl.Ptr(dst))
	gl.BindTexture(gl.TEXTURE_1D, 0)
}

func (d *GLDevice) BindTextureUnit(unit uint32, target TextureTarget, texture uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	gl.BindTexture(glTarget(target), texture)
	gl.ActiveTexture(gl.TEXTURE0)
}

func (d *GLDevice) IsProgram(program uint32) bool {
	return gl.IsProgram(program)
}

func (d *GLDevice) AttachedShaders(program uint32) []uint32 {
	var count int32
	gl.GetProgramiv(program, gl.ATTACHED_SHADERS, &count)
	if count <= 0 {
		return nil
	}
	shaders := make([]uint32, count)
	gl.GetAttachedShaders(program, count, &count, &shaders[0])
	return shaders[:count]
}

func (d *GLDevice) ShaderStage(shader uint32) Stage {
	var typ int32
	gl.GetShaderiv(shader, gl.SHADER_TYPE, &typ)
	switch uint32(typ) {
	case gl.VERTEX_SHADER:
		return StageVertex
	case gl.FRAGMENT_SHADER:
		return StageFragment
	default:
		return StageUnknown
	}
}

func (d *GLDevice) CompileShader(shader uint32, source string) (bool, string) {
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		logText := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(logText))
		return false, strings.TrimRight(logText, "\x00")
	}
	return true, ""
}

func (d *GLDevice) LinkProgram(program uint32) (bool, string) {
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		logText := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(logText))
		return false, strings.TrimRight(logText, "\x00")
	}
	return true, ""
}

func (d *GLDevice) DeleteShader(shader uint32) {
	gl.DeleteShader(shader)
}

func (d *GLDevice) ActiveUniforms(program uint32) map[int32]string {
	var count, maxLength int32
	gl.GetProgramiv(program, gl.ACTIVE_UNIFORMS, &count)
	gl.GetProgramiv(program, gl.ACTIVE_UNIFORM_MAX_LENGTH, &maxLength)

	uniforms := make(map[int32]string, count)
	if count <= 0 || maxLength <= 0 {
		return uniforms
	}
	name := make([]uint8, maxLength+1)
	for i := uint32(0); i < uint32(count); i++ {
		var length, size int32
		var typ uint32
		gl.GetActiveUniform(program, i, maxLength, &length, &size, &typ, &name[0])
		uniformName := string(name[:length])
		location := gl.GetUniformLocation(program, gl.Str(uniformName+"\x00"))
		if location >= 0 {
			uniforms[location] = uniformName
		}
	}
	return uniforms
}

func (d *GLDevice) UseProgram(program uint32) {
	gl.UseProgram(program)
}

func (d *GLDevice) Uniform1f(location int32, v float32) {
	gl.Uniform1f(location, v)
}

func (d *GLDevice) Uniform1i(location int32, v int32) {
	gl.Uniform1i(location, v)
}

func (d *GLDevice) GetUniformf(program uint32, location int32) float32 {
	var v float32
	gl.GetUniformfv(program, location, &v)
	return v
}

func (d *GLDevice) GetUniformi(program uint32, location int32) int32 {
	var v int32
	gl.GetUniformiv(program, location, &v)
	return v
}
