// Package config provides configuration loading and management for volrender.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/richinsley/volrender/decoder"
	"github.com/richinsley/volrender/host"
	"github.com/richinsley/volrender/params"
	"github.com/richinsley/volrender/program"
	"github.com/richinsley/volrender/transfer"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	Window struct {
		Width  int    `yaml:"width"`
		Height int    `yaml:"height"`
		Title  string `yaml:"title"`
	} `yaml:"window"`

	Render struct {
		// SearchUpperBound ends the program handle scan used when the host
		// cannot name the program.
		SearchUpperBound uint32 `yaml:"searchUpperBound"`
		VolumeUnit       uint32 `yaml:"volumeUnit"`
		RampUnit         uint32 `yaml:"rampUnit"`
		ProxyName        string `yaml:"proxyName"`
		// ShaderDir holds volume.vert and volume.frag overrides.
		ShaderDir string `yaml:"shaderDir"`
	} `yaml:"render"`

	// Parameters are the initial render parameters keyed by name.
	Parameters map[string]float32 `yaml:"parameters"`

	Import struct {
		MaxSlices      int     `yaml:"maxSlices"`
		StartSlice     int     `yaml:"startSlice"`
		PixelWidth     float32 `yaml:"pixelWidth"`
		PixelHeight    float32 `yaml:"pixelHeight"`
		SliceThickness float32 `yaml:"sliceThickness"`
	} `yaml:"import"`

	Ramp struct {
		// Preset names a built-in ramp; Stops are used when it is empty.
		Preset        string          `yaml:"preset"`
		Interpolation string          `yaml:"interpolation"`
		ColorMode     string          `yaml:"colorMode"`
		Stops         []transfer.Stop `yaml:"stops"`
	} `yaml:"ramp"`

	Record struct {
		Output string  `yaml:"output"`
		FPS    int     `yaml:"fps"`
		Frames int     `yaml:"frames"`
		Sweep  float32 `yaml:"sweep"`
		Codec  string  `yaml:"codec"`
		FFmpeg string  `yaml:"ffmpeg"`
	} `yaml:"record"`

	Watch struct {
		// Shaders rebinds the program when an override file changes.
		Shaders bool `yaml:"shaders"`
	} `yaml:"watch"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Window.Width = 800
	cfg.Window.Height = 600
	cfg.Window.Title = "volrender"

	cfg.Render.SearchUpperBound = program.DefaultUpperBound
	cfg.Render.VolumeUnit = 0
	cfg.Render.RampUnit = 1
	cfg.Render.ProxyName = host.ProxyName

	cfg.Parameters = params.Defaults().Map()

	cfg.Import.MaxSlices = decoder.DefaultMaxSlices
	cfg.Import.StartSlice = decoder.DefaultStartSlice
	cfg.Import.PixelWidth = decoder.DefaultPixelSize
	cfg.Import.PixelHeight = decoder.DefaultPixelSize
	cfg.Import.SliceThickness = decoder.DefaultPixelSize

	cfg.Ramp.Preset = "default"

	cfg.Record.Output = "turntable.mp4"
	cfg.Record.FPS = 30
	cfg.Record.Frames = 120
	cfg.Record.Sweep = 360
	cfg.Record.Codec = "h264"
	cfg.Record.FFmpeg = "ffmpeg"

	cfg.Watch.Shaders = true
	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	if _, err := cfg.RenderParameters(); err != nil {
		return nil, fmt.Errorf("error in config file: %w", err)
	}
	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}

// RenderParameters returns the configured parameters on top of the defaults.
func (c *Config) RenderParameters() (params.Values, error) {
	return params.FromMap(c.Parameters)
}

// BuildRamp returns the configured color ramp.
func (c *Config) BuildRamp() (*transfer.Ramp, error) {
	var r *transfer.Ramp
	if c.Ramp.Preset != "" {
		var err error
		if r, err = transfer.Preset(c.Ramp.Preset); err != nil {
			return nil, err
		}
	} else {
		r = transfer.NewRamp(c.Ramp.Stops...)
	}
	if c.Ramp.Interpolation != "" {
		i, err := transfer.ParseInterpolation(c.Ramp.Interpolation)
		if err != nil {
			return nil, err
		}
		r.SetInterpolation(i)
	}
	if c.Ramp.ColorMode != "" {
		m, err := transfer.ParseColorMode(c.Ramp.ColorMode)
		if err != nil {
			return nil, err
		}
		r.SetColorMode(m)
	}
	return r, nil
}

// ImageStackRequest returns an image-stack request for path with the
// configured import options.
func (c *Config) ImageStackRequest(path string) decoder.ImageStackRequest {
	return decoder.ImageStackRequest{
		Path:           path,
		MaxSlices:      c.Import.MaxSlices,
		StartSlice:     c.Import.StartSlice,
		PixelWidth:     c.Import.PixelWidth,
		PixelHeight:    c.Import.PixelHeight,
		SliceThickness: c.Import.SliceThickness,
	}
}

// DICOMRequest returns a DICOM request for path with the configured import
// options.
func (c *Config) DICOMRequest(path string) decoder.DICOMRequest {
	return decoder.DICOMRequest{Path: path, MaxSlices: c.Import.MaxSlices, StartSlice: c.Import.StartSlice}
}
