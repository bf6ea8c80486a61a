package core

import "github.com/go-gl/mathgl/mgl32"

// InputState is the per-frame input handed to the simulation and render
// steps.
type InputState struct {
	// Pointer in normalized device coordinates, y up.
	Pointer  mgl32.Vec2
	ViewProj mgl32.Mat4
	Viewport [2]float32
}

// PointerNDC converts window coordinates to normalized device coordinates.
func PointerNDC(x, y float64, width, height int) mgl32.Vec2 {
	if width <= 0 || height <= 0 {
		return mgl32.Vec2{}
	}
	return mgl32.Vec2{
		float32(x/float64(width))*2 - 1,
		-float32(y/float64(height))*2 + 1,
	}
}
