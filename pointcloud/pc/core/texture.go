package core

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// TexelChannels is the number of float32 channels per texel (RGBA32F).
const TexelChannels = 4

// BytesPerTexel is the size of one RGBA32F texel.
const BytesPerTexel = TexelChannels * 4

var (
	ErrInvalidSize = errors.New("position texture: invalid size")
	ErrNonFinite   = errors.New("position texture: non-finite position")
	ErrBadPacked   = errors.New("position texture: packed color out of range")
)

// PositionTexture is the CPU side of the particle state: one texel per
// particle, row-major, holding (x, y, z, packedColor).
type PositionTexture struct {
	Width  int
	Height int
	Texels []float32
}

func NewPositionTexture(width, height int) (*PositionTexture, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	return &PositionTexture{
		Width:  width,
		Height: height,
		Texels: make([]float32, width*height*TexelChannels),
	}, nil
}

// Len returns the particle count.
func (t *PositionTexture) Len() int {
	return t.Width * t.Height
}

func (t *PositionTexture) At(i int) [4]float32 {
	o := i * TexelChannels
	return [4]float32{t.Texels[o], t.Texels[o+1], t.Texels[o+2], t.Texels[o+3]}
}

func (t *PositionTexture) Position(i int) mgl32.Vec3 {
	o := i * TexelChannels
	return mgl32.Vec3{t.Texels[o], t.Texels[o+1], t.Texels[o+2]}
}

func (t *PositionTexture) Packed(i int) float32 {
	return t.Texels[i*TexelChannels+3]
}

func (t *PositionTexture) Set(i int, p mgl32.Vec3, packed float32) {
	o := i * TexelChannels
	t.Texels[o] = p[0]
	t.Texels[o+1] = p[1]
	t.Texels[o+2] = p[2]
	t.Texels[o+3] = packed
}

// Validate checks the texel invariants: finite positions and a packed color
// that is a non-negative integer below 2^24.
func (t *PositionTexture) Validate() error {
	if t.Width <= 0 || t.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, t.Width, t.Height)
	}
	if len(t.Texels) != t.Len()*TexelChannels {
		return fmt.Errorf("%w: %d floats for %dx%d texels", ErrInvalidSize, len(t.Texels), t.Width, t.Height)
	}
	for i := 0; i < t.Len(); i++ {
		v := t.At(i)
		for c := 0; c < 3; c++ {
			f := float64(v[c])
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return fmt.Errorf("%w: texel %d channel %d", ErrNonFinite, i, c)
			}
		}
		w := v[3]
		if w < 0 || w > maxPacked || w != float32(math.Trunc(float64(w))) {
			return fmt.Errorf("%w: texel %d value %v", ErrBadPacked, i, w)
		}
	}
	return nil
}

// Bytes serializes the texels little-endian, ready for queue.WriteTexture.
func (t *PositionTexture) Bytes() []byte {
	buf := make([]byte, len(t.Texels)*4)
	for i, v := range t.Texels {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func (t *PositionTexture) BytesPerRow() uint32 {
	return uint32(t.Width * BytesPerTexel)
}

func (t *PositionTexture) Clone() *PositionTexture {
	texels := make([]float32, len(t.Texels))
	copy(texels, t.Texels)
	return &PositionTexture{Width: t.Width, Height: t.Height, Texels: texels}
}
