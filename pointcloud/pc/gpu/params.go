package gpu

import (
	"errors"
	"fmt"
	"time"

	"github.com/gekko3d/depthcloud/pointcloud/pc/core"
)

// Options select the simulation variant and the look of the point pass.
type Options struct {
	Motion core.Motion
	// Photo draws opaque points with a depth test instead of additive glow.
	Photo     bool
	PointSize float32
	Alpha     float32
	Radius    float32
	Amplitude float32
	// Settle is the window over which MotionSettle decays to rest.
	Settle time.Duration
}

func DefaultOptions() Options {
	return Options{
		Motion:    core.MotionWave,
		PointSize: 2,
		Alpha:     0.4,
		Radius:    1,
		Amplitude: 0.1,
		Settle:    5 * time.Second,
	}
}

var ErrInvalidOptions = errors.New("invalid fbo options")

func (o Options) Validate() error {
	if _, err := simEntryPoint(o.Motion); err != nil {
		return err
	}
	if o.PointSize <= 0 {
		return fmt.Errorf("%w: point size %v", ErrInvalidOptions, o.PointSize)
	}
	if o.Alpha < 0 || o.Alpha > 1 {
		return fmt.Errorf("%w: alpha %v", ErrInvalidOptions, o.Alpha)
	}
	if o.Settle < 0 {
		return fmt.Errorf("%w: negative settle duration", ErrInvalidOptions)
	}
	return nil
}

func simEntryPoint(m core.Motion) (string, error) {
	switch m {
	case core.MotionPassThrough:
		return "fs_passthrough", nil
	case core.MotionWave:
		return "fs_wave", nil
	case core.MotionSettle:
		return "fs_settle", nil
	}
	return "", fmt.Errorf("%w: no shader for %v", ErrInvalidOptions, m)
}

// maxFrameStep caps dt so a stalled frame does not fling particles.
const maxFrameStep = 100 * time.Millisecond

type frameClock struct {
	start time.Time
	last  time.Time
	now   time.Time
}

func newFrameClock(now time.Time) frameClock {
	return frameClock{start: now, last: now, now: now}
}

// tick advances the clock and returns seconds since start and the step.
func (c *frameClock) tick(now time.Time) (t, dt float32) {
	step := now.Sub(c.last)
	if step < 0 {
		step = 0
	}
	if step > maxFrameStep {
		step = maxFrameStep
	}
	c.last, c.now = now, now
	return c.seconds(), float32(step.Seconds())
}

func (c *frameClock) seconds() float32 {
	return float32(c.now.Sub(c.start).Seconds())
}

func (o Options) simulation(src core.Source, in core.InputState, t, dt float32, now time.Time) core.SimulationUniforms {
	return core.SimulationUniforms{
		Time:      t,
		Elapsed:   float32(src.Elapsed(now).Seconds()),
		Duration:  float32(o.Settle.Seconds()),
		Amplitude: o.Amplitude,
		Pointer:   in.Pointer,
		Radius:    o.Radius,
		Dt:        dt,
	}
}

func (o Options) render(in core.InputState, t float32) core.RenderUniforms {
	alpha := o.Alpha
	if o.Photo {
		alpha = 1
	}
	return core.RenderUniforms{
		ViewProj:  in.ViewProj,
		Viewport:  in.Viewport,
		PointSize: o.PointSize,
		Alpha:     alpha,
		Time:      t,
		Pointer:   in.Pointer,
	}
}
