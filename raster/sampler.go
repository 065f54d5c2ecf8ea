// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package raster

import (
	"image"
	"math"

	"github.com/gogpu/guipaint"
	"github.com/gogpu/guipaint/internal/color"
)

// sampler reads an unmultiplied sRGB texture the way an Rgba8UnormSrgb
// texture is sampled: texels are decoded to linear before filtering.
type sampler struct {
	img  *image.NRGBA
	w, h int
	opts guipaint.TextureOptions
}

func newSampler(t guipaint.Texture) *sampler {
	s := &sampler{opts: t.Options}
	if t.Image != nil {
		s.img = t.Image
		s.w = t.Image.Bounds().Dx()
		s.h = t.Image.Bounds().Dy()
	}
	return s
}

// wrapIndex resolves texel index i of an axis of n texels.
func wrapIndex(i, n int, mode guipaint.WrapMode) int {
	switch mode {
	case guipaint.WrapRepeat:
		i %= n
		if i < 0 {
			i += n
		}
		return i
	case guipaint.WrapMirroredRepeat:
		period := 2 * n
		k := i % period
		if k < 0 {
			k += period
		}
		if k >= n {
			k = period - 1 - k
		}
		return k
	default:
		return min(max(i, 0), n-1)
	}
}

func (s *sampler) texel(x, y int) color.Vec4 {
	x = wrapIndex(x, s.w, s.opts.Wrap)
	y = wrapIndex(y, s.h, s.opts.Wrap)
	b := s.img.Bounds()
	p := s.img.Pix[s.img.PixOffset(b.Min.X+x, b.Min.Y+y):]
	return color.Vec4{
		color.LinearFromGammaByte(p[0]),
		color.LinearFromGammaByte(p[1]),
		color.LinearFromGammaByte(p[2]),
		float32(p[3]) / 255.0,
	}
}

// sample returns the filtered linear color at normalized uv.
func (s *sampler) sample(uv [2]float32, filter guipaint.Filter) color.Vec4 {
	if s.w == 0 || s.h == 0 {
		return color.Vec4{}
	}
	u := float64(uv[0]) * float64(s.w)
	v := float64(uv[1]) * float64(s.h)

	if filter == guipaint.FilterNearest {
		return s.texel(int(math.Floor(u)), int(math.Floor(v)))
	}

	u -= 0.5
	v -= 0.5
	x0 := int(math.Floor(u))
	y0 := int(math.Floor(v))
	fx := float32(u - float64(x0))
	fy := float32(v - float64(y0))

	c00 := s.texel(x0, y0)
	c10 := s.texel(x0+1, y0)
	c01 := s.texel(x0, y0+1)
	c11 := s.texel(x0+1, y0+1)

	var out color.Vec4
	for i := range out {
		top := c00[i] + (c10[i]-c00[i])*fx
		bottom := c01[i] + (c11[i]-c01[i])*fx
		out[i] = top + (bottom-top)*fy
	}
	return out
}

// filterFor picks the minification or magnification filter from the
// texel footprint of one pixel step.
func (s *sampler) filterFor(duvdx, duvdy [2]float64) guipaint.Filter {
	if s.opts.Magnification == s.opts.Minification {
		return s.opts.Magnification
	}
	w, h := float64(s.w), float64(s.h)
	rx := duvdx[0]*duvdx[0]*w*w + duvdx[1]*duvdx[1]*h*h
	ry := duvdy[0]*duvdy[0]*w*w + duvdy[1]*duvdy[1]*h*h
	if max(rx, ry) > 1 {
		return s.opts.Minification
	}
	return s.opts.Magnification
}
