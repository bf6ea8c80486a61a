package core

// PackColor encodes an 8-bit RGB triple into the float stored in a texel's
// fourth channel: r + g*256 + b*65536. Every value fits the 24-bit mantissa
// of a float32, so the encoding is exact.
func PackColor(r, g, b uint8) float32 {
	return float32(uint32(r) | uint32(g)<<8 | uint32(b)<<16)
}

// UnpackColor reverses PackColor the same way the point shader does.
func UnpackColor(packed float32) (r, g, b uint8) {
	c := uint32(packed)
	return uint8(c & 0xFF), uint8((c >> 8) & 0xFF), uint8((c >> 16) & 0xFF)
}

// UnpackColorNormalized returns the packed color with each component in [0,1].
func UnpackColorNormalized(packed float32) [3]float32 {
	r, g, b := UnpackColor(packed)
	return [3]float32{float32(r) / 255.0, float32(g) / 255.0, float32(b) / 255.0}
}

const maxPacked = 1<<24 - 1
