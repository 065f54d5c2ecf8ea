package guipaint

import (
	"encoding/binary"
	"math"
)

// TransformSize is the size of the encoded Transform uniform in bytes.
const TransformSize = 16

// Transform maps logical GUI points to clip space: clip = pos*Scale + Translation.
type Transform struct {
	Scale       [2]float32
	Translation [2]float32
}

// NewTransform returns the transform for a target of width×height physical
// pixels drawn at scaleFactor pixels per point. Points have their origin at
// the top-left corner and y growing down; clip space has y growing up.
func NewTransform(width, height uint32, scaleFactor float32) Transform {
	return Transform{
		Scale: [2]float32{
			2.0 / (float32(width) / scaleFactor),
			-2.0 / (float32(height) / scaleFactor),
		},
		Translation: [2]float32{-1.0, 1.0},
	}
}

// Apply returns the clip-space position (x, y, 0, 1) of pos.
func (t Transform) Apply(pos [2]float32) Vec4 {
	return Vec4{
		pos[0]*t.Scale[0] + t.Translation[0],
		pos[1]*t.Scale[1] + t.Translation[1],
		0,
		1,
	}
}

// Bytes returns the uniform buffer encoding: scale.xy then translation.xy,
// little-endian f32.
func (t Transform) Bytes() []byte {
	var b [TransformSize]byte
	binary.LittleEndian.PutUint32(b[0:4], math.Float32bits(t.Scale[0]))
	binary.LittleEndian.PutUint32(b[4:8], math.Float32bits(t.Scale[1]))
	binary.LittleEndian.PutUint32(b[8:12], math.Float32bits(t.Translation[0]))
	binary.LittleEndian.PutUint32(b[12:16], math.Float32bits(t.Translation[1]))
	return b[:]
}
