package transfer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertColor(t *testing.T, want, got RGBA) {
	t.Helper()
	for i := range want {
		assert.InDeltaf(t, want[i], got[i], 1e-4, "component %d of %v", i, got)
	}
}

func TestDefaultRamp(t *testing.T) {
	r := NewRamp()
	assertColor(t, RGBA{0, 0, 0, 1}, r.Evaluate(0))
	assertColor(t, RGBA{0.5, 0.5, 0.5, 1}, r.Evaluate(0.5))
	assertColor(t, RGBA{1, 1, 1, 1}, r.Evaluate(1))
}

func TestEvaluateOutsideStops(t *testing.T) {
	r := NewRamp(
		Stop{Pos: 0.25, Color: RGBA{1, 0, 0, 1}},
		Stop{Pos: 0.75, Color: RGBA{0, 0, 1, 0.5}},
	)
	assertColor(t, RGBA{1, 0, 0, 1}, r.Evaluate(0))
	assertColor(t, RGBA{1, 0, 0, 1}, r.Evaluate(0.25))
	assertColor(t, RGBA{0.5, 0, 0.5, 0.75}, r.Evaluate(0.5))
	assertColor(t, RGBA{0, 0, 1, 0.5}, r.Evaluate(1))
	assertColor(t, RGBA{0, 0, 1, 0.5}, r.Evaluate(2))
}

func TestInterpolationModes(t *testing.T) {
	r := NewRamp(
		Stop{Pos: 0, Color: RGBA{0, 0, 0, 0}},
		Stop{Pos: 1, Color: RGBA{1, 1, 1, 1}},
	)

	r.SetInterpolation(Constant)
	assertColor(t, RGBA{0, 0, 0, 0}, r.Evaluate(0.9))

	r.SetInterpolation(Ease)
	got := r.Evaluate(0.25)
	assert.InDelta(t, 0.15625, got[0], 1e-5)
	assertColor(t, RGBA{0.5, 0.5, 0.5, 0.5}, r.Evaluate(0.5))
}

func TestColorModes(t *testing.T) {
	r := NewRamp(
		Stop{Pos: 0, Color: RGBA{1, 0, 0, 1}},
		Stop{Pos: 1, Color: RGBA{0, 0, 1, 1}},
	)
	assertColor(t, RGBA{0.5, 0, 0.5, 1}, r.Evaluate(0.5))

	r.SetColorMode(HSV)
	assertColor(t, RGBA{1, 0, 1, 1}, r.Evaluate(0.5))

	r.SetColorMode(HSL)
	assertColor(t, RGBA{1, 0, 1, 1}, r.Evaluate(0.5))

	r.SetColorMode(Lab)
	mid := r.Evaluate(0.5)
	assert.Greater(t, mid[0], float32(0))
	assert.Greater(t, mid[2], float32(0))
	assertColor(t, RGBA{1, 0, 0, 1}, r.Evaluate(0))
}

func TestEditsKeepOrderAndNotify(t *testing.T) {
	r := NewRamp()
	edits := 0
	r.OnEdit(func() { edits++ })

	i := r.AddStop(0.5, RGBA{1, 0, 0, 1})
	assert.Equal(t, 1, i)
	require.NoError(t, r.SetColor(1, RGBA{0, 1, 0, 1}))
	j, err := r.MoveStop(1, 0.9)
	require.NoError(t, err)
	assert.Equal(t, 1, j)
	j, err = r.MoveStop(0, 0.95)
	require.NoError(t, err)
	assert.Equal(t, 1, j)

	stops := r.Stops()
	require.Len(t, stops, 3)
	assert.Equal(t, []float32{0.9, 0.95, 1}, []float32{stops[0].Pos, stops[1].Pos, stops[2].Pos})

	require.NoError(t, r.RemoveStop(0))
	assert.Equal(t, 5, edits)
}

func TestRemoveLastStop(t *testing.T) {
	r := NewRamp(Stop{Pos: 0.5, Color: RGBA{1, 1, 1, 1}})
	assert.Error(t, r.RemoveStop(0))
	assert.Error(t, r.RemoveStop(3))
	_, err := r.MoveStop(-1, 0)
	assert.Error(t, err)
}

func TestParseNames(t *testing.T) {
	i, err := ParseInterpolation("Ease")
	require.NoError(t, err)
	assert.Equal(t, Ease, i)
	_, err = ParseInterpolation("cardinal")
	assert.Error(t, err)

	m, err := ParseColorMode("hsl")
	require.NoError(t, err)
	assert.Equal(t, HSL, m)
	assert.Equal(t, "lab", Lab.String())
}

func TestPresets(t *testing.T) {
	for _, name := range PresetNames() {
		r, err := Preset(name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, r.Stops(), name)
	}
	_, err := Preset("plasma")
	assert.Error(t, err)
}
