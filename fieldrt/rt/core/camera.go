package core

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	minDistance = 0.05
	maxDistance = 50.0
	maxPitch    = math.Pi/2 - 0.01
)

// glToWGPU remaps OpenGL clip depth [-1,1] to the [0,1] range WebGPU expects.
var glToWGPU = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// OrbitCamera circles Target at Distance. Y is up.
type OrbitCamera struct {
	Target   mgl32.Vec3
	Distance float32
	Yaw      float32
	Pitch    float32
	Aspect   float32
	FovY     float32 // radians
	Near     float32
	Far      float32
}

func NewOrbitCamera(distance, pitch, yaw, fovDegrees, aspect float32) *OrbitCamera {
	c := &OrbitCamera{
		Distance: distance,
		Yaw:      yaw,
		Pitch:    pitch,
		Aspect:   aspect,
		FovY:     mgl32.DegToRad(fovDegrees),
		Near:     0.01,
		Far:      100.0,
	}
	c.clamp()
	return c
}

func (c *OrbitCamera) Eye() mgl32.Vec3 {
	cp := float32(math.Cos(float64(c.Pitch)))
	sp := float32(math.Sin(float64(c.Pitch)))
	cy := float32(math.Cos(float64(c.Yaw)))
	sy := float32(math.Sin(float64(c.Yaw)))
	return c.Target.Add(mgl32.Vec3{cp * cy, sp, cp * sy}.Mul(c.Distance))
}

func (c *OrbitCamera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Eye(), c.Target, mgl32.Vec3{0, 1, 0})
}

func (c *OrbitCamera) Projection() mgl32.Mat4 {
	return glToWGPU.Mul4(mgl32.Perspective(c.FovY, c.Aspect, c.Near, c.Far))
}

func (c *OrbitCamera) ViewProj() mgl32.Mat4 {
	return c.Projection().Mul4(c.View())
}

func (c *OrbitCamera) Orbit(dyaw, dpitch float32) {
	c.Yaw += dyaw
	c.Pitch += dpitch
	c.clamp()
}

// Zoom scales the distance by (1 - delta).
func (c *OrbitCamera) Zoom(delta float32) {
	c.Distance *= 1 - delta
	c.clamp()
}

func (c *OrbitCamera) SetAspect(aspect float32) {
	if aspect > 0 {
		c.Aspect = aspect
	}
}

func (c *OrbitCamera) clamp() {
	c.Pitch = mgl32.Clamp(c.Pitch, -maxPitch, maxPitch)
	c.Distance = mgl32.Clamp(c.Distance, minDistance, maxDistance)
	c.Yaw = float32(math.Mod(float64(c.Yaw), 2*math.Pi))
}

const CameraUniformSize = 64

// CameraUniform packs the view-projection matrix column-major, as the
// uniform buffer expects it.
func CameraUniform(viewProj mgl32.Mat4) []byte {
	buf := make([]byte, CameraUniformSize)
	for i, v := range viewProj {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}
