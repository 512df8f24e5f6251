package host

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinsley/volrender/params"
)

func TestProxySetClampsAndNotifies(t *testing.T) {
	p := NewProxy(ProxyName)
	var got []params.ID
	p.OnChange(func(id params.ID, v float32) { got = append(got, id) })

	v, err := p.Set("opacityFactor", 300)
	require.NoError(t, err)
	assert.Equal(t, float32(256), v)
	v, err = p.Set("clip", 1)
	require.NoError(t, err)
	assert.Equal(t, float32(1), v)

	assert.Equal(t, []params.ID{params.OpacityFactor, params.Clip}, got)
	cur, err := p.Get("opacityFactor")
	require.NoError(t, err)
	assert.Equal(t, float32(256), cur)

	_, err = p.Set("gamma", 1)
	assert.True(t, errors.Is(err, ErrUnknownParameter))
	_, err = p.Get("gamma")
	assert.ErrorIs(t, err, ErrUnknownParameter)
}

func TestProxyDefaults(t *testing.T) {
	p := NewProxy("x")
	assert.Equal(t, params.Defaults(), p.Values())
	assert.Equal(t, [3]float32{0, 3, 0}, p.Location)
}

func TestEnsureProxyOnce(t *testing.T) {
	s := NewMemoryScene()
	materials := 0
	s.OnCreate = func(*Proxy) error { materials++; return nil }

	p, created, err := s.EnsureProxy(ProxyName)
	require.NoError(t, err)
	assert.True(t, created)
	again, created, err := s.EnsureProxy(ProxyName)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, p, again)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 1, materials)

	_, ok := s.Proxy("Other")
	assert.False(t, ok)
}

func TestEnsureProxyMaterialFailure(t *testing.T) {
	s := NewMemoryScene()
	s.OnCreate = func(*Proxy) error { return errors.New("no material") }
	_, _, err := s.EnsureProxy(ProxyName)
	assert.Error(t, err)
	assert.Zero(t, s.Len())
}

func TestDirtyFlag(t *testing.T) {
	var d DirtyFlag
	assert.False(t, d.Take())
	d.TagRedraw()
	d.TagRedraw()
	assert.True(t, d.Take())
	assert.False(t, d.Take())
	assert.Equal(t, int64(2), d.Requests())
}

func TestStaticProvider(t *testing.T) {
	_, ok := StaticProvider{}.ActiveProgram(nil)
	assert.False(t, ok)
	prog, ok := StaticProvider{Program: 7}.ActiveProgram(nil)
	assert.True(t, ok)
	assert.Equal(t, uint32(7), prog)
}
