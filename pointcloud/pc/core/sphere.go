package core

import (
	"math/rand"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// RandomSphere fills a texture with particles spread uniformly over a sphere
// surface of the given radius. Each particle's color encodes its direction,
// which also gives the simulation a distinct seed per region.
func RandomSphere(width, height int, radius float32, rng *rand.Rand) (*PositionTexture, error) {
	tex, err := NewPositionTexture(width, height)
	if err != nil {
		return nil, err
	}
	for i := 0; i < tex.Len(); i++ {
		theta := rng.Float32() * math32.Pi * 2
		phi := math32.Acos(rng.Float32()*2 - 1)
		dir := mgl32.Vec3{
			math32.Sin(phi) * math32.Cos(theta),
			math32.Sin(phi) * math32.Sin(theta),
			math32.Cos(phi),
		}
		tex.Set(i, dir.Mul(radius), PackColor(channel(dir[0]), channel(dir[1]), channel(dir[2])))
	}
	return tex, nil
}

// channel maps [-1,1] to [0,255].
func channel(v float32) uint8 {
	c := (v*0.5 + 0.5) * 255
	if c < 0 {
		return 0
	}
	if c > 255 {
		return 255
	}
	return uint8(c)
}
