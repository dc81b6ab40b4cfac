package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingHooks struct {
	configured int
	rebuilt    int
	aspects    []float32
	rebuildErr error
}

func (h *countingHooks) ConfigureSurface(w, hgt uint32) error { h.configured++; return nil }

func (h *countingHooks) RebuildTargets(w, hgt uint32) error {
	if h.rebuildErr != nil {
		return h.rebuildErr
	}
	h.rebuilt++
	return nil
}

func (h *countingHooks) SetAspect(a float32) { h.aspects = append(h.aspects, a) }

func TestLifecycle_ResizeIdempotent(t *testing.T) {
	hooks := &countingHooks{}
	lc := NewLifecycle(hooks)

	require.NoError(t, lc.Resize(800, 600))
	require.NoError(t, lc.Resize(800, 600))

	assert.Equal(t, 2, hooks.configured)
	assert.Equal(t, 1, hooks.rebuilt)
	assert.Equal(t, 1, lc.Generation)
	assert.Equal(t, []float32{800.0 / 600.0}, hooks.aspects)
}

func TestLifecycle_ZeroSizeIsNoop(t *testing.T) {
	hooks := &countingHooks{}
	lc := NewLifecycle(hooks)
	require.NoError(t, lc.Resize(640, 480))

	require.NoError(t, lc.Resize(0, 480))
	require.NoError(t, lc.Resize(640, 0))
	require.NoError(t, lc.Resize(-5, -5))

	assert.Equal(t, 1, hooks.configured)
	assert.Equal(t, 1, hooks.rebuilt)
	assert.Len(t, hooks.aspects, 1)
	assert.Equal(t, uint32(640), lc.Width)
}

func TestLifecycle_ResizeChangesTargets(t *testing.T) {
	hooks := &countingHooks{}
	lc := NewLifecycle(hooks)
	require.NoError(t, lc.Resize(640, 480))
	require.NoError(t, lc.Resize(1024, 512))

	assert.Equal(t, 2, hooks.rebuilt)
	assert.Equal(t, []float32{640.0 / 480.0, 2}, hooks.aspects)
}

func TestLifecycle_Rebuild(t *testing.T) {
	hooks := &countingHooks{}
	lc := NewLifecycle(hooks)
	require.NoError(t, lc.Rebuild())
	assert.Equal(t, 0, hooks.rebuilt)

	require.NoError(t, lc.Resize(10, 10))
	require.NoError(t, lc.Rebuild())
	assert.Equal(t, 2, hooks.rebuilt)
	assert.Equal(t, 2, lc.Generation)
}

func TestLifecycle_RebuildError(t *testing.T) {
	boom := errors.New("boom")
	lc := NewLifecycle(&countingHooks{rebuildErr: boom})
	err := lc.Resize(10, 10)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, uint32(0), lc.Width)
}
