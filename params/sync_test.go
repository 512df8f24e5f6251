package params

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinsley/volrender/gpu/gputest"
	"github.com/richinsley/volrender/shader"
)

func TestDefaultsAndRanges(t *testing.T) {
	v := Defaults()
	assert.Equal(t, float32(90), v[Azimuth])
	assert.Equal(t, float32(125), v[Elevation])
	assert.Equal(t, float32(0.03), v[ClipPlaneDepth])
	assert.False(t, v.Bool(Clip))
	assert.False(t, v.Bool(Dither))
	assert.Equal(t, float32(25), v[OpacityFactor])
	assert.Equal(t, float32(10), v[LightFactor])

	assert.Equal(t, float32(360), Azimuth.Clamp(500))
	assert.Equal(t, float32(-1), ClipPlaneDepth.Clamp(-3))
	assert.Equal(t, float32(256), OpacityFactor.Clamp(1000))
	assert.Equal(t, float32(1), Clip.Clamp(0.7))
	assert.Equal(t, float32(0), Dither.Clamp(0.2))
}

func TestClampNaNUsesDefault(t *testing.T) {
	nan := math32.NaN()
	for _, s := range Specs {
		assert.Equal(t, s.Default, s.ID.Clamp(nan), s.Name)
	}
	v, err := FromMap(map[string]float32{"lightFactor": nan})
	require.NoError(t, err)
	assert.Equal(t, float32(10), v[LightFactor])
}

func TestLookup(t *testing.T) {
	for _, s := range Specs {
		id, ok := Lookup(s.Name)
		require.True(t, ok, s.Name)
		assert.Equal(t, s.ID, id)
		assert.Equal(t, s.Name, id.String())
	}
	_, ok := Lookup("gamma")
	assert.False(t, ok)
}

func TestFromMap(t *testing.T) {
	v, err := FromMap(map[string]float32{"azimuth": 45, "lightFactor": 400})
	require.NoError(t, err)
	assert.Equal(t, float32(45), v[Azimuth])
	assert.Equal(t, float32(100), v[LightFactor])
	assert.Equal(t, float32(125), v[Elevation])

	_, err = FromMap(map[string]float32{"gamma": 1})
	assert.Error(t, err)

	again, err := FromMap(v.Map())
	require.NoError(t, err)
	assert.Equal(t, v, again)
}

func TestSlotsMatchTable(t *testing.T) {
	s := NewSync(gputest.NewFakeDevice(), &shader.Slots, nil)
	for i, want := range []int32{20, 21, 22, 23, 24, 25, 26} {
		assert.Equal(t, want, s.Location(ID(i)))
	}
}

func TestPushWritesSlotAndRedraws(t *testing.T) {
	dev := gputest.NewFakeDevice()
	prog := dev.AddProgram("void main(){}", "void main(){}")
	redraws := 0
	s := NewSync(dev, &shader.Slots, func() { redraws++ })

	s.PushAzimuth(prog, 45)
	s.PushClip(prog, true)
	s.PushDither(prog, false)

	assert.Equal(t, float32(45), dev.GetUniformf(prog, 20))
	assert.Equal(t, float32(1), dev.GetUniformf(prog, 23))
	assert.Equal(t, float32(0), dev.GetUniformf(prog, 24))
	assert.Equal(t, 3, redraws)
	assert.Zero(t, dev.Current())
}

func TestPushAll(t *testing.T) {
	dev := gputest.NewFakeDevice()
	prog := dev.AddProgram("void main(){}", "void main(){}")
	s := NewSync(dev, &shader.Slots, nil)

	v := Defaults()
	v[Clip] = 1
	s.PushAll(prog, v)

	assert.Equal(t, Count, dev.UniformCalls)
	for _, spec := range Specs {
		assert.Equal(t, v[spec.ID], dev.GetUniformf(prog, s.Location(spec.ID)), spec.Name)
	}
}

func TestPushToMissingSlotIsDropped(t *testing.T) {
	dev := gputest.NewFakeDevice()
	prog := dev.AddProgram("void main(){}", "void main(){}")
	table := shader.SlotTable{Version: 0, Parameters: shader.Slots.Parameters[:1]}
	redraws := 0
	s := NewSync(dev, &table, func() { redraws++ })

	s.PushLightFactor(prog, 5)
	assert.Zero(t, dev.UniformCalls)
	assert.Zero(t, redraws)
	s.PushAzimuth(prog, 10)
	assert.Equal(t, 1, dev.UniformCalls)
}
