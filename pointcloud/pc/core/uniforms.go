package core

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

var ErrInvalidUniforms = errors.New("invalid uniforms")

// SimulationUniforms matches SimParams in the simulation shaders.
//
//	struct SimParams {
//	  time: f32,        -- 0
//	  elapsed: f32,     -- 4
//	  duration: f32,    -- 8
//	  amplitude: f32,   -- 12
//	  pointer: vec2f,   -- 16
//	  radius: f32,      -- 24
//	  dt: f32,          -- 28
//	} -> 32 bytes
type SimulationUniforms struct {
	Time      float32 // seconds since the pipeline started
	Elapsed   float32 // seconds since the active source became active
	Duration  float32 // settle window in seconds
	Amplitude float32
	Pointer   mgl32.Vec2
	Radius    float32
	Dt        float32
}

const SimulationUniformsSize = 32

func (u SimulationUniforms) Validate() error {
	for name, v := range map[string]float32{
		"time": u.Time, "elapsed": u.Elapsed, "duration": u.Duration,
		"amplitude": u.Amplitude, "radius": u.Radius, "dt": u.Dt,
		"pointer.x": u.Pointer[0], "pointer.y": u.Pointer[1],
	} {
		if !finite(v) {
			return fmt.Errorf("%w: %s is %v", ErrInvalidUniforms, name, v)
		}
	}
	if u.Duration < 0 {
		return fmt.Errorf("%w: negative duration %v", ErrInvalidUniforms, u.Duration)
	}
	if u.Dt < 0 {
		return fmt.Errorf("%w: negative dt %v", ErrInvalidUniforms, u.Dt)
	}
	return nil
}

func (u SimulationUniforms) Bytes() []byte {
	buf := make([]byte, SimulationUniformsSize)
	putF32(buf, 0, u.Time)
	putF32(buf, 4, u.Elapsed)
	putF32(buf, 8, u.Duration)
	putF32(buf, 12, u.Amplitude)
	putF32(buf, 16, u.Pointer[0])
	putF32(buf, 20, u.Pointer[1])
	putF32(buf, 24, u.Radius)
	putF32(buf, 28, u.Dt)
	return buf
}

// RenderUniforms matches RenderParams in points.wgsl.
//
//	struct RenderParams {
//	  view_proj: mat4x4f, -- 0
//	  viewport: vec2f,    -- 64
//	  point_size: f32,    -- 72
//	  alpha: f32,         -- 76
//	  time: f32,          -- 80
//	  (pad)               -- 84
//	  pointer: vec2f,     -- 88
//	} -> 96 bytes
type RenderUniforms struct {
	ViewProj  mgl32.Mat4
	Viewport  [2]float32
	PointSize float32
	Alpha     float32
	Time      float32
	Pointer   mgl32.Vec2
}

const RenderUniformsSize = 96

func (u RenderUniforms) Validate() error {
	if u.PointSize <= 0 || !finite(u.PointSize) {
		return fmt.Errorf("%w: point size %v", ErrInvalidUniforms, u.PointSize)
	}
	if u.Alpha < 0 || u.Alpha > 1 {
		return fmt.Errorf("%w: alpha %v", ErrInvalidUniforms, u.Alpha)
	}
	if u.Viewport[0] <= 0 || u.Viewport[1] <= 0 {
		return fmt.Errorf("%w: viewport %v", ErrInvalidUniforms, u.Viewport)
	}
	for i, v := range u.ViewProj {
		if !finite(v) {
			return fmt.Errorf("%w: view_proj[%d] is %v", ErrInvalidUniforms, i, v)
		}
	}
	return nil
}

func (u RenderUniforms) Bytes() []byte {
	buf := make([]byte, RenderUniformsSize)
	// mgl32 matrices are column-major, like WGSL.
	for i, v := range u.ViewProj {
		putF32(buf, i*4, v)
	}
	putF32(buf, 64, u.Viewport[0])
	putF32(buf, 68, u.Viewport[1])
	putF32(buf, 72, u.PointSize)
	putF32(buf, 76, u.Alpha)
	putF32(buf, 80, u.Time)
	putF32(buf, 88, u.Pointer[0])
	putF32(buf, 92, u.Pointer[1])
	return buf
}

func putF32(buf []byte, offset int, v float32) {
	binary.LittleEndian.PutUint32(buf[offset:], math.Float32bits(v))
}

func finite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
