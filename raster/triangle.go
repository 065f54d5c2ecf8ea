// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package raster

import (
	"image"
	"math"

	"github.com/gogpu/guipaint"
	"github.com/gogpu/guipaint/internal/blend"
	"github.com/gogpu/guipaint/internal/color"
)

// screenVertex is a vertex stage output mapped to target pixels.
type screenVertex struct {
	x, y  float64
	uv    [2]float32
	color color.Vec4
}

func toScreen(v guipaint.Varyings, w, h float64) screenVertex {
	return screenVertex{
		x:     (float64(v.Position[0]) + 1) * 0.5 * w,
		y:     (1 - float64(v.Position[1])) * 0.5 * h,
		uv:    v.UV,
		color: v.Color,
	}
}

// edge is the edge function of a→b at p. With y pointing down it is
// positive on the interior side of a clockwise triangle.
func edge(a, b *screenVertex, px, py float64) float64 {
	return (b.x-a.x)*(py-a.y) - (b.y-a.y)*(px-a.x)
}

// topLeft reports whether a→b is a top or left edge of a clockwise
// triangle. Pixel centers exactly on such edges are covered.
func topLeft(a, b *screenVertex) bool {
	dx, dy := b.x-a.x, b.y-a.y
	return (dy == 0 && dx > 0) || dy < 0
}

func covered(w float64, isTopLeft bool) bool {
	return w > 0 || (w == 0 && isTopLeft)
}

// drawTriangle shades the pixels of triangle v0 v1 v2 whose centers fall
// inside clip, blending over dst with over. clip is in target pixel coordinates
// relative to dst.Bounds().Min.
func drawTriangle(dst *image.RGBA, clip image.Rectangle, v0, v1, v2 *screenVertex, s *sampler, over blend.Func) {
	area := edge(v0, v1, v2.x, v2.y)
	if area == 0 || math.IsNaN(area) {
		return
	}
	if area < 0 {
		v1, v2 = v2, v1
		area = -area
	}

	bbox := image.Rect(
		int(math.Floor(min(v0.x, v1.x, v2.x))),
		int(math.Floor(min(v0.y, v1.y, v2.y))),
		int(math.Ceil(max(v0.x, v1.x, v2.x)))+1,
		int(math.Ceil(max(v0.y, v1.y, v2.y)))+1,
	).Intersect(clip)
	if bbox.Empty() {
		return
	}

	tl0, tl1, tl2 := topLeft(v1, v2), topLeft(v2, v0), topLeft(v0, v1)

	// Barycentric gradients; uv is affine across the triangle.
	inv := 1 / area
	d0x, d0y := -(v2.y-v1.y)*inv, (v2.x-v1.x)*inv
	d1x, d1y := -(v0.y-v2.y)*inv, (v0.x-v2.x)*inv
	d2x, d2y := -(v1.y-v0.y)*inv, (v1.x-v0.x)*inv
	var duvdx, duvdy [2]float64
	for i := 0; i < 2; i++ {
		duvdx[i] = d0x*float64(v0.uv[i]) + d1x*float64(v1.uv[i]) + d2x*float64(v2.uv[i])
		duvdy[i] = d0y*float64(v0.uv[i]) + d1y*float64(v1.uv[i]) + d2y*float64(v2.uv[i])
	}
	filter := s.filterFor(duvdx, duvdy)

	origin := dst.Bounds().Min
	for y := bbox.Min.Y; y < bbox.Max.Y; y++ {
		py := float64(y) + 0.5
		for x := bbox.Min.X; x < bbox.Max.X; x++ {
			px := float64(x) + 0.5
			w0 := edge(v1, v2, px, py)
			w1 := edge(v2, v0, px, py)
			w2 := edge(v0, v1, px, py)
			if !covered(w0, tl0) || !covered(w1, tl1) || !covered(w2, tl2) {
				continue
			}
			l0 := float32(w0 * inv)
			l1 := float32(w1 * inv)
			l2 := float32(w2 * inv)

			uv := [2]float32{
				l0*v0.uv[0] + l1*v1.uv[0] + l2*v2.uv[0],
				l0*v0.uv[1] + l1*v1.uv[1] + l2*v2.uv[1],
			}
			var vc color.Vec4
			for i := range vc {
				vc[i] = l0*v0.color[i] + l1*v1.color[i] + l2*v2.color[i]
			}

			frag := guipaint.Shade(s.sample(uv, filter), vc)

			off := dst.PixOffset(origin.X+x, origin.Y+y)
			p := dst.Pix[off : off+4 : off+4]
			under := color.Vec4{
				color.LinearFromGammaByte(p[0]),
				color.LinearFromGammaByte(p[1]),
				color.LinearFromGammaByte(p[2]),
				float32(p[3]) / 255.0,
			}
			out := over(frag, under)
			p[0] = color.GammaByteFromLinear(out[0])
			p[1] = color.GammaByteFromLinear(out[1])
			p[2] = color.GammaByteFromLinear(out[2])
			p[3] = color.ToByte(out[3])
		}
	}
}
