package main

import (
	"flag"
	"fmt"
	"log"
	"runtime"

	"github.com/richinsley/volrender/config"
	"github.com/richinsley/volrender/glfwcontext"
	"github.com/richinsley/volrender/params"
	"github.com/richinsley/volrender/record"
	"github.com/richinsley/volrender/viewer"
)

func runViewer(cfg *config.Config, path string, dicom bool, bind bool, rec bool) {
	// If recording, the window will be hidden
	v, err := viewer.New(cfg, !rec)
	if err != nil {
		log.Fatalf("Failed to create viewer: %v", err)
	}
	defer v.Shutdown()

	if path != "" {
		if bind {
			err = v.Load(path, dicom)
		} else if dicom {
			_, err = v.Controller().LoadDICOMSeries(cfg.DICOMRequest(path))
		} else {
			_, err = v.Controller().LoadImageStack(cfg.ImageStackRequest(path))
		}
		if err != nil {
			log.Fatalf("Failed to load volume: %v", err)
		}
	}

	if rec {
		if path == "" {
			log.Fatalf("Recording needs a volume, use -stack or -dicom")
		}
		opts := record.Options{
			Output:     cfg.Record.Output,
			Width:      cfg.Window.Width,
			Height:     cfg.Window.Height,
			FPS:        cfg.Record.FPS,
			Codec:      cfg.Record.Codec,
			FFmpegPath: cfg.Record.FFmpeg,
		}
		turntable := record.Turntable{
			Start:  v.Controller().Values()[params.Azimuth],
			Sweep:  cfg.Record.Sweep,
			Frames: cfg.Record.Frames,
		}
		log.Println("Starting turntable recording...")
		if err := v.Record(opts, turntable); err != nil {
			log.Fatalf("Recording failed: %v", err)
		}
		log.Printf("Successfully rendered to %s", opts.Output)
		return
	}

	log.Println("Starting interactive render loop...")
	v.Run()
}

func init() {
	runtime.LockOSThread()
}

func main() {
	var configPath = flag.String("config", "", "Path to a YAML config file")
	var stack = flag.String("stack", "", "Directory or file of image slices to load")
	var dicom = flag.String("dicom", "", "Directory or file of DICOM slices to load")
	var bind = flag.Bool("bind", true, "Bind the volume shader after loading")
	var shaderDir = flag.String("shaders", "", "Directory with volume.vert and volume.frag overrides")
	var help = flag.Bool("help", false, "Show help message")

	// Recording flags
	var rec = flag.Bool("record", false, "Record a turntable sweep instead of opening a window")
	var frames = flag.Int("frames", 0, "Number of frames to record")
	var fps = flag.Int("fps", 0, "Frames per second for recording")
	var width = flag.Int("width", 0, "Width of the window or output")
	var height = flag.Int("height", 0, "Height of the window or output")
	var outputFile = flag.String("output", "", "Output file name for recording")
	var ffmpegPath = flag.String("ffmpeg", "", "Path to ffmpeg executable")

	flag.Parse()

	if *help {
		fmt.Println("Volume Viewer/Recorder")
		flag.PrintDefaults()
		return
	}

	cfg := config.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("Error loading config: %v", err)
		}
	}
	if *shaderDir != "" {
		cfg.Render.ShaderDir = *shaderDir
	}
	if *width > 0 {
		cfg.Window.Width = *width
	}
	if *height > 0 {
		cfg.Window.Height = *height
	}
	if *frames > 0 {
		cfg.Record.Frames = *frames
	}
	if *fps > 0 {
		cfg.Record.FPS = *fps
	}
	if *outputFile != "" {
		cfg.Record.Output = *outputFile
	}
	if *ffmpegPath != "" {
		cfg.Record.FFmpeg = *ffmpegPath
	}

	path, isDICOM := *stack, false
	if *dicom != "" {
		if path != "" {
			log.Fatalf("Use only one of -stack and -dicom")
		}
		path, isDICOM = *dicom, true
	}

	// Record mode can run without a display on an EGL pbuffer.
	if err := glfwcontext.InitGraphics(); err != nil {
		if !*rec {
			log.Fatalf("Failed to initialize graphics: %v", err)
		}
		log.Printf("Warning: GLFW unavailable: %v", err)
	} else {
		defer glfwcontext.TerminateGraphics()
	}

	runViewer(cfg, path, isDICOM, *bind, *rec)
}
