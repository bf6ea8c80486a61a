package gpu

import (
	"strings"
	"testing"
	"time"

	"github.com/gekko3d/depthcloud/pointcloud/pc/core"
	"github.com/gekko3d/depthcloud/pointcloud/pc/shaders"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryMotionHasShaderEntryPoint(t *testing.T) {
	for _, m := range []core.Motion{core.MotionPassThrough, core.MotionWave, core.MotionSettle} {
		entry, err := simEntryPoint(m)
		require.NoError(t, err)
		assert.True(t, strings.Contains(shaders.SimulateWGSL, "fn "+entry+"("), "missing %s", entry)
	}
	_, err := simEntryPoint(core.Motion(42))
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestOptionsValidate(t *testing.T) {
	require.NoError(t, DefaultOptions().Validate())

	o := DefaultOptions()
	o.PointSize = 0
	assert.ErrorIs(t, o.Validate(), ErrInvalidOptions)

	o = DefaultOptions()
	o.Alpha = 1.5
	assert.ErrorIs(t, o.Validate(), ErrInvalidOptions)

	o = DefaultOptions()
	o.Settle = -time.Second
	assert.ErrorIs(t, o.Validate(), ErrInvalidOptions)
}

func TestFrameClock(t *testing.T) {
	start := time.Unix(100, 0)
	c := newFrameClock(start)

	tt, dt := c.tick(start.Add(16 * time.Millisecond))
	assert.InDelta(t, 0.016, tt, 1e-6)
	assert.InDelta(t, 0.016, dt, 1e-6)

	// A long stall is capped.
	tt, dt = c.tick(start.Add(5 * time.Second))
	assert.InDelta(t, 5, tt, 1e-6)
	assert.InDelta(t, maxFrameStep.Seconds(), dt, 1e-6)
	assert.InDelta(t, 5, c.seconds(), 1e-6)
}

func TestSimulationUniformsFollowSource(t *testing.T) {
	o := DefaultOptions()
	o.Motion = core.MotionSettle
	o.Settle = 2 * time.Second

	since := time.Unix(10, 0)
	src, err := core.ProceduralSource(since).Activate(1, since.Add(time.Second))
	require.NoError(t, err)

	in := core.InputState{Pointer: mgl32.Vec2{0.5, -0.25}}
	u := o.simulation(src, in, 3, 0.016, since.Add(2*time.Second))
	require.NoError(t, u.Validate())
	assert.InDelta(t, 1, u.Elapsed, 1e-6)
	assert.InDelta(t, 2, u.Duration, 1e-6)
	assert.Equal(t, in.Pointer, u.Pointer)
	assert.Equal(t, o.Radius, u.Radius)
	assert.Equal(t, float32(3), u.Time)
}

func TestRenderUniformsAlpha(t *testing.T) {
	in := core.InputState{ViewProj: mgl32.Ident4(), Viewport: [2]float32{800, 600}}
	o := DefaultOptions()

	u := o.render(in, 1)
	require.NoError(t, u.Validate())
	assert.Equal(t, float32(0.4), u.Alpha)

	o.Photo = true
	assert.Equal(t, float32(1), o.render(in, 1).Alpha)
}
