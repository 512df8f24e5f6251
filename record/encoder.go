// Package record renders turntable sweeps of the volume and pipes the frames
// to ffmpeg.
package record

import (
	"fmt"
	"io"
	"log"
	"path/filepath"
	"runtime"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// numBuffers is the depth of the frame channel between producer and encoder.
const numBuffers = 3

// Frame is one rendered frame of tightly packed RGBA pixels, bottom row first.
type Frame struct {
	Pixels []byte
	PTS    int64
}

// Options configure the encoder.
type Options struct {
	Output     string
	Width      int
	Height     int
	FPS        int
	Codec      string
	FFmpegPath string
}

// Encoder consumes frames until the channel closes, then sends its result
// on done exactly once.
type Encoder func(opts Options, frames <-chan *Frame, done chan<- error)

// getArgs builds the ffmpeg arguments for raw RGBA input.
func getArgs(opts Options) (inputArgs ffmpeg.KwArgs, outputArgs ffmpeg.KwArgs) {
	inputArgs = ffmpeg.KwArgs{
		"f":         "rawvideo",
		"pix_fmt":   "rgba",
		"s":         fmt.Sprintf("%dx%d", opts.Width, opts.Height),
		"framerate": opts.FPS,
	}

	// GL rows start at the bottom.
	outputArgs = ffmpeg.KwArgs{
		"vf":      "vflip",
		"pix_fmt": "yuv420p",
	}

	hevc := opts.Codec == "hevc"
	switch runtime.GOOS {
	case "darwin":
		log.Println("Using macOS (VideoToolbox) hardware acceleration.")
		if hevc {
			outputArgs["c:v"] = "hevc_videotoolbox"
		} else {
			outputArgs["c:v"] = "h264_videotoolbox"
		}
	default:
		log.Println("Using software encoding pipeline.")
		if hevc {
			outputArgs["c:v"] = "libx265"
		} else {
			outputArgs["c:v"] = "libx264"
		}
	}
	outputArgs["b:v"] = "8M"

	if hevc && strings.EqualFold(filepath.Ext(opts.Output), ".mp4") {
		outputArgs["tag:v"] = "hvc1"
	}
	return
}

// RunEncoder is the ffmpeg Encoder. Frames are written to ffmpeg's stdin.
func RunEncoder(opts Options, frames <-chan *Frame, done chan<- error) {
	pipeReader, pipeWriter := io.Pipe()
	inputArgs, outputArgs := getArgs(opts)

	ffmpegCmd := ffmpeg.Input("pipe:", inputArgs).
		Output(opts.Output, outputArgs).
		OverWriteOutput().WithInput(pipeReader).ErrorToStdOut()
	if opts.FFmpegPath != "" {
		ffmpegCmd = ffmpegCmd.SetFfmpegPath(opts.FFmpegPath)
	}

	errc := make(chan error, 1)
	go func() {
		err := ffmpegCmd.Run()
		// unblock writers if ffmpeg exits early
		pipeReader.CloseWithError(io.ErrClosedPipe)
		errc <- err
	}()

	frameSize := opts.Width * opts.Height * 4
	for frame := range frames {
		if len(frame.Pixels) != frameSize {
			log.Printf("Error: frame %d holds %d bytes, expected %d", frame.PTS, len(frame.Pixels), frameSize)
			continue
		}
		if _, err := pipeWriter.Write(frame.Pixels); err != nil {
			log.Printf("Error writing frame %d to FFmpeg: %v", frame.PTS, err)
			for range frames {
			}
			break
		}
	}
	pipeWriter.Close()
	done <- <-errc
}
