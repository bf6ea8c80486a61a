package core

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f32At(b []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[off:]))
}

func TestSimulationUniformsLayout(t *testing.T) {
	u := SimulationUniforms{Time: 1, Elapsed: 2, Duration: 3, Amplitude: 4, Pointer: mgl32.Vec2{5, 6}, Radius: 7, Dt: 8}
	require.NoError(t, u.Validate())
	b := u.Bytes()
	require.Len(t, b, SimulationUniformsSize)
	for i := 0; i < 8; i++ {
		assert.Equal(t, float32(i+1), f32At(b, i*4))
	}
}

func TestSimulationUniformsValidate(t *testing.T) {
	assert.ErrorIs(t, SimulationUniforms{Duration: -1}.Validate(), ErrInvalidUniforms)
	assert.ErrorIs(t, SimulationUniforms{Dt: float32(math.NaN())}.Validate(), ErrInvalidUniforms)
}

func TestRenderUniformsLayout(t *testing.T) {
	u := RenderUniforms{
		ViewProj:  mgl32.Ident4(),
		Viewport:  [2]float32{800, 600},
		PointSize: 2,
		Alpha:     0.4,
		Time:      9,
		Pointer:   mgl32.Vec2{-0.5, 0.25},
	}
	require.NoError(t, u.Validate())
	b := u.Bytes()
	require.Len(t, b, RenderUniformsSize)
	assert.Equal(t, float32(1), f32At(b, 0))
	assert.Equal(t, float32(1), f32At(b, 20))
	assert.Equal(t, float32(800), f32At(b, 64))
	assert.Equal(t, float32(600), f32At(b, 68))
	assert.Equal(t, float32(2), f32At(b, 72))
	assert.Equal(t, float32(0.4), f32At(b, 76))
	assert.Equal(t, float32(9), f32At(b, 80))
	assert.Equal(t, float32(-0.5), f32At(b, 88))
	assert.Equal(t, float32(0.25), f32At(b, 92))
}

func TestRenderUniformsValidate(t *testing.T) {
	base := RenderUniforms{ViewProj: mgl32.Ident4(), Viewport: [2]float32{1, 1}, PointSize: 1, Alpha: 1}
	require.NoError(t, base.Validate())

	bad := base
	bad.PointSize = 0
	assert.ErrorIs(t, bad.Validate(), ErrInvalidUniforms)

	bad = base
	bad.Alpha = 2
	assert.ErrorIs(t, bad.Validate(), ErrInvalidUniforms)

	bad = base
	bad.Viewport = [2]float32{0, 1}
	assert.ErrorIs(t, bad.Validate(), ErrInvalidUniforms)
}
