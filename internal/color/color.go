// Package color provides the sRGB transfer functions used by the GUI mesh
// shading stage, on float vectors and on 8-bit channels.
package color

// Vec4 is a four component float color. Whether the RGB channels are gamma
// or linear encoded is decided by context. Alpha is never gamma encoded.
type Vec4 [4]float32

// Mul returns the component-wise product of v and o, alpha included.
func (v Vec4) Mul(o Vec4) Vec4 {
	return Vec4{v[0] * o[0], v[1] * o[1], v[2] * o[2], v[3] * o[3]}
}

// FromBytes maps 8-bit channels [0,255] to [0,1] without any transfer function.
// This is what a Unorm8x4 vertex attribute fetch produces.
func FromBytes(r, g, b, a uint8) Vec4 {
	return Vec4{
		float32(r) / 255.0,
		float32(g) / 255.0,
		float32(b) / 255.0,
		float32(a) / 255.0,
	}
}

// ToByte maps a [0,1] float to [0,255] with rounding. Values outside the
// range are clamped.
func ToByte(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255.0 + 0.5)
}
