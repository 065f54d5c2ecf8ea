package color

import "math"

// linearFromByteLUT decodes an sRGB byte to linear float32.
// This is what the sampler returns for Rgba8UnormSrgb texels.
var linearFromByteLUT [256]float32

// byteFromLinearLUT encodes linear [0,1] to an sRGB byte.
// 4096 entries give 12-bit precision, enough for 8-bit output.
var byteFromLinearLUT [4096]uint8

func init() {
	for i := 0; i < 256; i++ {
		linearFromByteLUT[i] = linearFromByteSlow(uint8(i))
	}
	for i := 0; i < 4096; i++ {
		byteFromLinearLUT[i] = byteFromLinearSlow(float32(float64(i) / 4095.0))
	}
}

// LinearFromGammaByte decodes an sRGB byte to linear light using a table.
//
// Example:
//
//	l := LinearFromGammaByte(128) // ~0.2159
func LinearFromGammaByte(s uint8) float32 {
	return linearFromByteLUT[s]
}

// GammaByteFromLinear encodes linear light to an sRGB byte using a table.
// The input is clamped to [0,1].
//
// Example:
//
//	s := GammaByteFromLinear(0.5) // 188
func GammaByteFromLinear(l float32) uint8 {
	if !(l > 0) {
		return 0
	}
	if l > 1 {
		l = 1
	}
	index := int(l*4095.0 + 0.5)
	if index > 4095 {
		index = 4095
	}
	return byteFromLinearLUT[index]
}

// linearFromByteSlow is the math.Pow reference for LinearFromGammaByte.
func linearFromByteSlow(s uint8) float32 {
	sf := float64(s) / 255.0
	if sf < 0.04045 {
		return float32(sf / 12.92)
	}
	return float32(math.Pow((sf+0.055)/1.055, 2.4))
}

// byteFromLinearSlow is the math.Pow reference for GammaByteFromLinear.
func byteFromLinearSlow(l float32) uint8 {
	lf := float64(l)
	if lf < 0 {
		lf = 0
	}
	if lf > 1 {
		lf = 1
	}
	var s float64
	if lf < 0.0031308 {
		s = lf * 12.92
	} else {
		s = 1.055*math.Pow(lf, 1.0/2.4) - 0.055
	}
	v := int(s*255.0 + 0.5)
	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}
	//nolint:gosec // G115: v is clamped to [0,255] range
	return uint8(v)
}
