package viewer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinsley/volrender/host"
)

func TestSceneMaterials(t *testing.T) {
	next := uint32(10)
	s := NewScene(func() (uint32, error) { next++; return next, nil })

	p, created, err := s.EnsureProxy(host.ProxyName)
	require.NoError(t, err)
	require.True(t, created)
	_, created, err = s.EnsureProxy(host.ProxyName)
	require.NoError(t, err)
	assert.False(t, created)

	prog, ok := s.ActiveProgram(p)
	assert.True(t, ok)
	assert.Equal(t, uint32(11), prog)
	assert.Len(t, s.Materials(), 1)
	assert.True(t, s.Take())

	_, ok = s.ActiveProgram(host.NewProxy("other"))
	assert.False(t, ok)
	_, ok = s.ActiveProgram(nil)
	assert.False(t, ok)
}

func TestSceneMaterialFailure(t *testing.T) {
	s := NewScene(func() (uint32, error) { return 0, errors.New("no context") })
	_, _, err := s.EnsureProxy(host.ProxyName)
	assert.Error(t, err)
	assert.Empty(t, s.Materials())
	assert.Zero(t, s.Len())
}
