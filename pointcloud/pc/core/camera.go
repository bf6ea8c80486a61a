package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// OrbitCamera orbits a target point. Rotate and Zoom accumulate deltas and
// Update applies them with damping, so motion eases out after input stops.
type OrbitCamera struct {
	Target   mgl32.Vec3
	Distance float32
	Yaw      float32 // radians around +Y
	Pitch    float32 // radians, clamped short of the poles

	Damping     float32 // fraction of the pending delta applied per update
	Sensitivity float32 // radians per pixel of drag
	ZoomSpeed   float32

	MinDistance float32
	MaxDistance float32

	FovY float32 // degrees
	Near float32
	Far  float32

	yawDelta   float32
	pitchDelta float32
	zoomScale  float32
}

const maxPitch = math.Pi/2 - 0.01

// clipGLToWGPU remaps OpenGL clip depth [-1,1] to the WebGPU range [0,1].
var clipGLToWGPU = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

func NewOrbitCamera(distance float32) *OrbitCamera {
	return &OrbitCamera{
		Target:      mgl32.Vec3{0, 0, 0},
		Distance:    distance,
		Damping:     0.25,
		Sensitivity: 0.005,
		ZoomSpeed:   0.95,
		MinDistance: 0.1,
		MaxDistance: 5000,
		FovY:        60,
		Near:        0.1,
		Far:         10000,
		zoomScale:   1,
	}
}

// Rotate queues a drag of dx, dy pixels.
func (c *OrbitCamera) Rotate(dx, dy float32) {
	c.yawDelta -= dx * c.Sensitivity
	c.pitchDelta += dy * c.Sensitivity
}

// Zoom queues scroll steps; positive steps move closer.
func (c *OrbitCamera) Zoom(steps float32) {
	if steps == 0 {
		return
	}
	c.zoomScale *= float32(math.Pow(float64(c.ZoomSpeed), float64(steps)))
}

// Update applies the pending deltas.
func (c *OrbitCamera) Update() {
	damping := c.Damping
	if damping <= 0 || damping > 1 {
		damping = 1
	}

	c.Yaw += c.yawDelta * damping
	c.Pitch = mgl32.Clamp(c.Pitch+c.pitchDelta*damping, -maxPitch, maxPitch)
	c.yawDelta *= 1 - damping
	c.pitchDelta *= 1 - damping

	if c.zoomScale != 1 {
		step := 1 + (c.zoomScale-1)*damping
		c.Distance = mgl32.Clamp(c.Distance*step, c.MinDistance, c.MaxDistance)
		c.zoomScale /= step
		if math.Abs(float64(c.zoomScale-1)) < 1e-4 {
			c.zoomScale = 1
		}
	}
}

func (c *OrbitCamera) Eye() mgl32.Vec3 {
	cp := float32(math.Cos(float64(c.Pitch)))
	offset := mgl32.Vec3{
		c.Distance * cp * float32(math.Sin(float64(c.Yaw))),
		c.Distance * float32(math.Sin(float64(c.Pitch))),
		c.Distance * cp * float32(math.Cos(float64(c.Yaw))),
	}
	return c.Target.Add(offset)
}

func (c *OrbitCamera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Eye(), c.Target, mgl32.Vec3{0, 1, 0})
}

func (c *OrbitCamera) Projection(aspect float32) mgl32.Mat4 {
	if aspect <= 0 {
		aspect = 1
	}
	return clipGLToWGPU.Mul4(mgl32.Perspective(mgl32.DegToRad(c.FovY), aspect, c.Near, c.Far))
}

func (c *OrbitCamera) ViewProj(aspect float32) mgl32.Mat4 {
	return c.Projection(aspect).Mul4(c.View())
}
