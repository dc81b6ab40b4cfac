package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextAtlas(t *testing.T) {
	atlas, err := NewTextAtlas(14)
	require.NoError(t, err)

	assert.True(t, atlas.Has('A'))
	assert.True(t, atlas.Has('9'))
	assert.False(t, atlas.Has('é'))
	assert.Greater(t, atlas.LineHeight(), float32(0))

	verts := atlas.Layout("fps 60\nn=4", 8, 8, [4]float32{1, 1, 1, 1}, 800, 600)
	// spaces produce no quad
	assert.Len(t, verts, 8*6)
	for _, v := range verts {
		assert.GreaterOrEqual(t, v.Pos[0], float32(-1))
		assert.LessOrEqual(t, v.Pos[0], float32(1))
		assert.GreaterOrEqual(t, v.UV[0], float32(0))
		assert.LessOrEqual(t, v.UV[1], float32(1))
	}
	assert.Len(t, TextVertexBytes(verts), len(verts)*TextVertexSize)
	assert.Nil(t, atlas.Layout("x", 0, 0, [4]float32{}, 0, 10))
}
