// Package blend evaluates WebGPU blend states on linear float colors, so the
// CPU renderer composites exactly as the GPU pipeline is configured to.
package blend

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/guipaint/internal/color"
)

// Premultiplied is the GUI blend state: source-over for colors whose RGB is
// already multiplied by alpha, on both color and alpha.
func Premultiplied() gputypes.BlendState {
	return gputypes.BlendStatePremultiplied()
}

// Apply blends src over dst with state s. Both colors are linear RGBA.
// Unsupported factors and operations evaluate to zero and to addition.
func Apply(s gputypes.BlendState, src, dst color.Vec4) color.Vec4 {
	var out color.Vec4
	for i := 0; i < 3; i++ {
		sf := factor(s.Color.SrcFactor, i, src, dst)
		df := factor(s.Color.DstFactor, i, src, dst)
		out[i] = operate(s.Color.Operation, src[i]*sf, dst[i]*df)
	}
	sf := factor(s.Alpha.SrcFactor, 3, src, dst)
	df := factor(s.Alpha.DstFactor, 3, src, dst)
	out[3] = operate(s.Alpha.Operation, src[3]*sf, dst[3]*df)
	return out
}

// Func blends a linear source color over a linear destination color.
type Func func(src, dst color.Vec4) color.Vec4

// For returns the blend function of state s, SourceOver for the
// Premultiplied state and Apply otherwise.
func For(s gputypes.BlendState) Func {
	if s == Premultiplied() {
		return SourceOver
	}
	return func(src, dst color.Vec4) color.Vec4 {
		return Apply(s, src, dst)
	}
}

// SourceOver is Apply with the Premultiplied state, unrolled.
func SourceOver(src, dst color.Vec4) color.Vec4 {
	inv := 1 - src[3]
	return color.Vec4{
		src[0] + dst[0]*inv,
		src[1] + dst[1]*inv,
		src[2] + dst[2]*inv,
		src[3] + dst[3]*inv,
	}
}

func factor(f gputypes.BlendFactor, ch int, src, dst color.Vec4) float32 {
	switch f {
	case gputypes.BlendFactorZero:
		return 0
	case gputypes.BlendFactorOne:
		return 1
	case gputypes.BlendFactorSrc:
		return src[ch]
	case gputypes.BlendFactorOneMinusSrc:
		return 1 - src[ch]
	case gputypes.BlendFactorSrcAlpha:
		return src[3]
	case gputypes.BlendFactorOneMinusSrcAlpha:
		return 1 - src[3]
	case gputypes.BlendFactorDst:
		return dst[ch]
	case gputypes.BlendFactorOneMinusDst:
		return 1 - dst[ch]
	case gputypes.BlendFactorDstAlpha:
		return dst[3]
	case gputypes.BlendFactorOneMinusDstAlpha:
		return 1 - dst[3]
	case gputypes.BlendFactorSrcAlphaSaturated:
		if ch == 3 {
			return 1
		}
		return min(src[3], 1-dst[3])
	default:
		return 0
	}
}

func operate(op gputypes.BlendOperation, s, d float32) float32 {
	switch op {
	case gputypes.BlendOperationSubtract:
		return s - d
	case gputypes.BlendOperationReverseSubtract:
		return d - s
	case gputypes.BlendOperationMin:
		return min(s, d)
	case gputypes.BlendOperationMax:
		return max(s, d)
	default:
		return s + d
	}
}
