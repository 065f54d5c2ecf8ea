//go:build !nogpu

package gpu

import "github.com/gogpu/guipaint/shader"

// Option configures a Renderer.
type Option func(*options)

type options struct {
	variant      shader.Variant
	target       uint64
	minVertexCap uint64
	minIndexCap  uint64
	label        string
	waitOnSubmit bool
}

func defaultOptions() options {
	return options{
		minVertexCap: 64 * 1024,
		minIndexCap:  32 * 1024,
		label:        "guipaint",
		waitOnSubmit: true,
	}
}

// WithBindless requests the bindless shader variant with the given number
// of texture slots per bind group.
func WithBindless(slots uint32) Option {
	return func(o *options) {
		o.variant = shader.BindlessVariant(slots)
	}
}

// WithTarget sets the render target key used to look textures up in a
// guipaint.TextureManager. The default is 0.
func WithTarget(target uint64) Option {
	return func(o *options) {
		o.target = target
	}
}

// WithLabel sets the prefix of every GPU object label.
func WithLabel(label string) Option {
	return func(o *options) {
		if label != "" {
			o.label = label
		}
	}
}

// WithBufferCapacity sets the initial vertex and index buffer sizes in bytes.
func WithBufferCapacity(vertexBytes, indexBytes uint64) Option {
	return func(o *options) {
		if vertexBytes > 0 {
			o.minVertexCap = vertexBytes
		}
		if indexBytes > 0 {
			o.minIndexCap = indexBytes
		}
	}
}

// WithoutSubmitWait makes Render return right after submission instead of
// waiting for the device to go idle. Surface rendering does not need to
// wait; presentation synchronizes.
func WithoutSubmitWait() Option {
	return func(o *options) {
		o.waitOnSubmit = false
	}
}
