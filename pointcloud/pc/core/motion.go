package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Motion selects the simulation shader variant.
type Motion int

const (
	MotionPassThrough Motion = iota
	MotionWave
	MotionSettle
)

// WaveFrequency is the angular frequency of the sphere surface wave.
const WaveFrequency = 6

var motionNames = map[Motion]string{
	MotionPassThrough: "passthrough",
	MotionWave:        "wave",
	MotionSettle:      "settle",
}

func (m Motion) String() string {
	if s, ok := motionNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Motion(%d)", int(m))
}

func ParseMotion(s string) (Motion, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for m, name := range motionNames {
		if name == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown motion %q", s)
}

// DecayFactor is the amplitude multiplier of the settle motion:
// 1 - clamp(elapsed/duration, 0, 1).
func DecayFactor(elapsed, duration time.Duration) float32 {
	if duration <= 0 {
		return 0
	}
	return decay(float32(elapsed.Seconds()), float32(duration.Seconds()))
}

func decay(elapsed, duration float32) float32 {
	if duration <= 0 {
		return 0
	}
	t := elapsed / duration
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return 1 - t
}

// hash32 is a PCG-style integer hash, identical to hash32 in the WGSL shaders.
func hash32(v uint32) uint32 {
	state := v*747796405 + 2891336453
	word := ((state >> ((state >> 28) + 4)) ^ state) * 277803737
	return (word >> 22) ^ word
}

// ParticleSeed combines the packed color with the texel index so particles
// sharing a color still move out of sync.
func ParticleSeed(index int, packed float32) uint32 {
	return hash32(uint32(packed) ^ hash32(uint32(index)))
}

func unitFloat(v uint32) float32 {
	return float32(v&0xFFFFFF) / float32(0xFFFFFF)
}

// SeedVelocity derives a unit direction from a particle seed.
func SeedVelocity(seed uint32) mgl32.Vec3 {
	a := unitFloat(seed)
	b := unitFloat(hash32(seed))
	theta := a * math32.Pi * 2
	z := b*2 - 1
	r := math32.Sqrt(math32.Max(0, 1-z*z))
	return mgl32.Vec3{r * math32.Cos(theta), r * math32.Sin(theta), z}
}

// Advance runs one simulation step on the CPU. It mirrors the WGSL
// simulation shaders and writes src advanced by u into dst.
func Advance(m Motion, src, dst *PositionTexture, u SimulationUniforms) {
	for i := 0; i < src.Len(); i++ {
		p := src.Position(i)
		w := src.Packed(i)
		switch m {
		case MotionWave:
			p = waveStep(p, ParticleSeed(i, w), u)
		case MotionSettle:
			p = settleStep(p, ParticleSeed(i, w), u)
		}
		dst.Set(i, p, w)
	}
}

func waveStep(p mgl32.Vec3, seed uint32, u SimulationUniforms) mgl32.Vec3 {
	r := p.Len()
	if r == 0 {
		return p
	}
	dir := p.Mul(1 / r)
	theta := math32.Atan2(dir[1], dir[0])
	phi := math32.Acos(mgl32.Clamp(dir[2], -1, 1))
	phase := unitFloat(seed)*math32.Pi*0.5 + u.Pointer[0]*math32.Pi
	offset := u.Amplitude * math32.Sin(WaveFrequency*theta+u.Time+phase) * math32.Cos(WaveFrequency*phi+u.Time)
	return dir.Mul(u.Radius + offset)
}

func settleStep(p mgl32.Vec3, seed uint32, u SimulationUniforms) mgl32.Vec3 {
	k := decay(u.Elapsed, u.Duration)
	if k == 0 {
		return p
	}
	return p.Add(SeedVelocity(seed).Mul(u.Amplitude * k * u.Dt))
}
