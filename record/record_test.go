package record

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTurntableAzimuth(t *testing.T) {
	tt := Turntable{Start: 90, Sweep: 360, Frames: 4}
	assert.Equal(t, []float32{90, 180, 270, 0}, []float32{tt.Azimuth(0), tt.Azimuth(1), tt.Azimuth(2), tt.Azimuth(3)})

	back := Turntable{Start: 0, Sweep: -360, Frames: 4}
	assert.Equal(t, float32(-90), back.Azimuth(1))
	assert.Equal(t, float32(30), Turntable{Start: 30}.Azimuth(5))
}

type fakeScene struct {
	azimuths []float32
	failAt   int
}

func (s *fakeScene) SetParameter(name string, v float32) (float32, error) {
	if name != "azimuth" {
		return 0, errors.New("unexpected parameter")
	}
	s.azimuths = append(s.azimuths, v)
	return v, nil
}

func (s *fakeScene) RenderFrame() ([]byte, error) {
	if s.failAt > 0 && len(s.azimuths) == s.failAt {
		return nil, errors.New("lost context")
	}
	return []byte{byte(len(s.azimuths))}, nil
}

func collect(into *[]*Frame) Encoder {
	return func(opts Options, frames <-chan *Frame, done chan<- error) {
		for f := range frames {
			*into = append(*into, f)
		}
		done <- nil
	}
}

func TestRecordDrivesAzimuth(t *testing.T) {
	scene := &fakeScene{}
	var frames []*Frame
	err := Record(scene, Turntable{Start: 0, Sweep: 360, Frames: 8}, Options{Output: "x.mp4"}, collect(&frames))
	require.NoError(t, err)

	require.Len(t, frames, 8)
	for i, f := range frames {
		assert.Equal(t, int64(i), f.PTS)
		assert.Equal(t, []byte{byte(i + 1)}, f.Pixels)
	}
	assert.Equal(t, float32(45), scene.azimuths[1])
}

func TestRecordStopsOnRenderError(t *testing.T) {
	scene := &fakeScene{failAt: 3}
	var frames []*Frame
	err := Record(scene, Turntable{Sweep: 360, Frames: 10}, Options{}, collect(&frames))
	assert.EqualError(t, err, "lost context")
	assert.Len(t, frames, 2)
}

func TestRecordNeedsFrames(t *testing.T) {
	var frames []*Frame
	assert.Error(t, Record(&fakeScene{}, Turntable{}, Options{}, collect(&frames)))
}

func TestGetArgs(t *testing.T) {
	in, out := getArgs(Options{Output: "spin.mp4", Width: 640, Height: 480, FPS: 24, Codec: "hevc"})
	assert.Equal(t, "rawvideo", in["f"])
	assert.Equal(t, "rgba", in["pix_fmt"])
	assert.Equal(t, "640x480", in["s"])
	assert.Equal(t, 24, in["framerate"])
	assert.Equal(t, "vflip", out["vf"])
	assert.Equal(t, "hvc1", out["tag:v"])
	assert.Contains(t, []interface{}{"libx265", "hevc_videotoolbox"}, out["c:v"])

	_, out = getArgs(Options{Output: "spin.mkv", Codec: "h264"})
	assert.NotContains(t, out, "tag:v")
}
