package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinsley/volrender/params"
	"github.com/richinsley/volrender/shader"
	"github.com/richinsley/volrender/transfer"
)

func TestLoadMissingReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, "VolCube", cfg.Render.ProxyName)
	assert.Equal(t, uint32(32767), cfg.Render.SearchUpperBound)
	assert.Equal(t, 500, cfg.Import.MaxSlices)

	v, err := cfg.RenderParameters()
	require.NoError(t, err)
	assert.Equal(t, params.Defaults(), v)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "volrender.yaml")
	cfg := DefaultConfig()
	cfg.Parameters["azimuth"] = 45
	cfg.Ramp.Preset = ""
	cfg.Ramp.ColorMode = "hsv"
	cfg.Ramp.Stops = []transfer.Stop{
		{Pos: 0, Color: transfer.RGBA{1, 0, 0, 1}},
		{Pos: 1, Color: transfer.RGBA{0, 0, 1, 1}},
	}
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	r, err := loaded.BuildRamp()
	require.NoError(t, err)
	assert.Equal(t, transfer.HSV, r.ColorMode())
	assert.Len(t, r.Stops(), 2)
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "volrender.yaml")
	data := "window:\n  width: 1024\nparameters:\n  lightFactor: 5\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 1024, cfg.Window.Width)
	assert.Equal(t, 600, cfg.Window.Height)

	v, err := cfg.RenderParameters()
	require.NoError(t, err)
	assert.Equal(t, float32(5), v[params.LightFactor])
	assert.Equal(t, float32(90), v[params.Azimuth])
}

func TestLoadRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("window: [1, 2"), 0o644))
	_, err := LoadConfig(bad)
	assert.Error(t, err)

	unknown := filepath.Join(dir, "unknown.yaml")
	require.NoError(t, os.WriteFile(unknown, []byte("parameters:\n  gamma: 2\n"), 0o644))
	_, err = LoadConfig(unknown)
	assert.Error(t, err)
}

func TestBuildRampPreset(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Ramp.Preset = "bone"
	r, err := cfg.BuildRamp()
	require.NoError(t, err)
	assert.Equal(t, transfer.Ease, r.Interpolation())

	cfg.Ramp.Interpolation = "constant"
	r, err = cfg.BuildRamp()
	require.NoError(t, err)
	assert.Equal(t, transfer.Constant, r.Interpolation())

	cfg.Ramp.Preset = "plasma"
	_, err = cfg.BuildRamp()
	assert.Error(t, err)
}

func TestRequests(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Import.StartSlice = 4
	req := cfg.ImageStackRequest("/data/stack")
	assert.Equal(t, "/data/stack", req.Path)
	assert.Equal(t, 4, req.StartSlice)
	assert.Equal(t, float32(0.1), req.SliceThickness)
	assert.Equal(t, 500, cfg.DICOMRequest("/data/ct").MaxSlices)
}

func TestWatcherReportsShaderWrites(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir, shader.FragmentFile)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, shader.FragmentFile), []byte("void main() {}"), 0o644))

	select {
	case path := <-w.Changes():
		assert.Equal(t, shader.FragmentFile, filepath.Base(path))
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestWatcherMissingDir(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
