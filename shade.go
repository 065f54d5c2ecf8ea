package guipaint

import "github.com/gogpu/guipaint/internal/color"

// Vec4 is a four component float vector used for clip positions and colors.
type Vec4 = color.Vec4

// Varyings are the vertex stage outputs interpolated across a triangle.
type Varyings struct {
	Position Vec4
	UV       [2]float32
	// Color is the vertex color normalized to [0,1] and still gamma
	// encoded. It is interpolated in gamma space.
	Color Vec4
}

// VertexStage runs the vertex stage for one vertex.
func VertexStage(t Transform, v Vertex) Varyings {
	return Varyings{
		Position: t.Apply(v.Pos),
		UV:       v.UV,
		Color:    color.FromBytes(v.Color[0], v.Color[1], v.Color[2], v.Color[3]),
	}
}

// Shade runs the fragment stage on a linear texture sample and the
// interpolated gamma-space vertex color. The sample is moved to gamma space,
// multiplied with the color on all four channels, and the RGB part is moved
// back to linear. Alpha is never transformed.
func Shade(sample, vertexColor Vec4) Vec4 {
	gamma := color.GammaFromLinearRGBA(sample)
	return color.LinearFromGammaRGB(gamma.Mul(vertexColor))
}
