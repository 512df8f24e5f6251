package record

import (
	"fmt"
	"log"
	"math"
)

// Turntable sweeps the azimuth over Frames frames starting at Start.
type Turntable struct {
	Start  float32
	Sweep  float32
	Frames int
}

// Azimuth returns the azimuth of frame i, wrapped into (-360, 360).
func (t Turntable) Azimuth(i int) float32 {
	if t.Frames <= 0 {
		return t.Start
	}
	a := float64(t.Start) + float64(t.Sweep)*float64(i)/float64(t.Frames)
	return float32(math.Mod(a, 360))
}

// Scene is what a turntable drives: a parameter to turn and a way to render
// and read back one frame.
type Scene interface {
	SetParameter(name string, v float32) (float32, error)
	RenderFrame() ([]byte, error)
}

// Record renders every frame of t and hands it to enc. It returns the
// encoder's result, or the first render error.
func Record(scene Scene, t Turntable, opts Options, enc Encoder) error {
	if t.Frames <= 0 {
		return fmt.Errorf("turntable needs at least one frame, got %d", t.Frames)
	}
	log.Printf("Recording %d frames to %s", t.Frames, opts.Output)
	frameChan := make(chan *Frame, numBuffers)
	encoderDoneChan := make(chan error, 1)

	go enc(opts, frameChan, encoderDoneChan)

	var renderErr error
	for i := 0; i < t.Frames; i++ {
		if _, err := scene.SetParameter("azimuth", t.Azimuth(i)); err != nil {
			renderErr = err
			break
		}
		pixels, err := scene.RenderFrame()
		if err != nil {
			log.Printf("Error reading pixels on frame %d: %v", i, err)
			renderErr = err
			break
		}
		frameChan <- &Frame{Pixels: pixels, PTS: int64(i)}
	}
	close(frameChan)

	encErr := <-encoderDoneChan
	if renderErr != nil {
		return renderErr
	}
	return encErr
}
