package color

import "math"

// LinearFromGamma decodes one sRGB encoded channel to linear light.
// Formula: if c < 0.04045: c/12.92; else: pow((c+0.055)/1.055, 2.4)
//
// No clamping is applied. Negative inputs take the linear toe and values
// above 1 extrapolate along the curve.
func LinearFromGamma(c float32) float32 {
	if c < 0.04045 {
		return c / 12.92
	}
	return float32(math.Pow(float64((c+0.055)/1.055), 2.4))
}

// GammaFromLinear encodes one linear channel to sRGB.
// Formula: if c < 0.0031308: c*12.92; else: 1.055*pow(c, 1/2.4)-0.055
//
// Negative inputs take the linear toe, so only NaN propagates through.
func GammaFromLinear(c float32) float32 {
	if c < 0.0031308 {
		return c * 12.92
	}
	return 1.055*float32(math.Pow(float64(c), 1.0/2.4)) - 0.055
}

// LinearFromGammaRGB decodes the RGB channels of v. Alpha is passed through.
func LinearFromGammaRGB(v Vec4) Vec4 {
	return Vec4{
		LinearFromGamma(v[0]),
		LinearFromGamma(v[1]),
		LinearFromGamma(v[2]),
		v[3],
	}
}

// GammaFromLinearRGBA encodes the RGB channels of v. Alpha is passed through.
func GammaFromLinearRGBA(v Vec4) Vec4 {
	return Vec4{
		GammaFromLinear(v[0]),
		GammaFromLinear(v[1]),
		GammaFromLinear(v[2]),
		v[3],
	}
}

// Unmultiply converts a premultiplied 8-bit sRGB pixel to straight alpha.
// GUI textures are uploaded unmultiplied; the fragment stage multiplies the
// vertex color back in.
func Unmultiply(r, g, b, a uint8) (uint8, uint8, uint8, uint8) {
	switch a {
	case 0:
		return 0, 0, 0, 0
	case 255:
		return r, g, b, a
	}
	unmul := func(c uint8) uint8 {
		v := (int(c)*255 + int(a)/2) / int(a)
		if v > 255 {
			v = 255
		}
		return uint8(v) //nolint:gosec // clamped to [0,255]
	}
	return unmul(r), unmul(g), unmul(b), a
}
