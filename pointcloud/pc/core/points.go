package core

import (
	"encoding/binary"
	"math"
)

// PointSet holds one texture coordinate per particle. The render pass draws
// one point per entry and uses the coordinate to fetch that particle's texel.
type PointSet struct {
	Width  int
	Height int
	UV     [][2]float32
}

func NewPointSet(width, height int) *PointSet {
	n := width * height
	uv := make([][2]float32, n)
	for i := 0; i < n; i++ {
		uv[i] = [2]float32{
			float32(i%width) / float32(width),
			float32(i/width) / float32(height),
		}
	}
	return &PointSet{Width: width, Height: height, UV: uv}
}

func (p *PointSet) Len() int {
	return len(p.UV)
}

// Texel maps entry i back to integer texel coordinates, rounding to the
// nearest texel the same way points.wgsl does.
func (p *PointSet) Texel(i int) (x, y int) {
	uv := p.UV[i]
	return int(uv[0]*float32(p.Width) + 0.5), int(uv[1]*float32(p.Height) + 0.5)
}

func (p *PointSet) Bytes() []byte {
	buf := make([]byte, len(p.UV)*8)
	for i, uv := range p.UV {
		binary.LittleEndian.PutUint32(buf[i*8:], math.Float32bits(uv[0]))
		binary.LittleEndian.PutUint32(buf[i*8+4:], math.Float32bits(uv[1]))
	}
	return buf
}
