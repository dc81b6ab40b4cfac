package core

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrbitCamera_Eye(t *testing.T) {
	cam := NewOrbitCamera(1.5, 0.5, 1.25, 60, 16.0/9.0)
	assert.InDelta(t, 1.5, cam.Eye().Len(), 1e-5)

	flat := NewOrbitCamera(2, 0, 0, 60, 1)
	assert.InDelta(t, 2.0, flat.Eye()[0], 1e-6)
	assert.InDelta(t, 0.0, flat.Eye()[1], 1e-6)
}

func TestOrbitCamera_DepthRange(t *testing.T) {
	cam := NewOrbitCamera(1.5, 0.5, 1.25, 60, 1)
	vp := cam.ViewProj()

	clip := vp.Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	require.Greater(t, clip[3], float32(0))
	ndc := clip.Vec3().Mul(1 / clip[3])
	assert.InDelta(t, 0.0, ndc[0], 1e-5)
	assert.InDelta(t, 0.0, ndc[1], 1e-5)
	assert.Greater(t, ndc[2], float32(0))
	assert.Less(t, ndc[2], float32(1))
}

func TestOrbitCamera_Clamps(t *testing.T) {
	cam := NewOrbitCamera(1.5, 0, 0, 60, 1)
	cam.Orbit(0, 10)
	assert.InDelta(t, maxPitch, cam.Pitch, 1e-6)
	cam.Orbit(0, -20)
	assert.InDelta(t, -maxPitch, cam.Pitch, 1e-6)

	cam.Zoom(2)
	assert.Equal(t, float32(minDistance), cam.Distance)

	cam.Orbit(float32(3*math.Pi), 0)
	assert.Less(t, cam.Yaw, float32(2*math.Pi))
}

func TestOrbitCamera_SetAspectIgnoresZero(t *testing.T) {
	cam := NewOrbitCamera(1.5, 0.5, 1.25, 60, 2)
	cam.SetAspect(0)
	assert.Equal(t, float32(2), cam.Aspect)
	cam.SetAspect(0.5)
	assert.Equal(t, float32(0.5), cam.Aspect)
}

func TestCameraUniform_StableAcrossFrames(t *testing.T) {
	cam := NewOrbitCamera(1.5, 0.5, 1.25, 60, 16.0/9.0)
	first := CameraUniform(cam.ViewProj())
	second := CameraUniform(cam.ViewProj())

	require.Len(t, first, CameraUniformSize)
	assert.Equal(t, first, second)

	cam.Orbit(0.0025, 0)
	assert.NotEqual(t, first, CameraUniform(cam.ViewProj()))
}
