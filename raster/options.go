package raster

import "github.com/gogpu/guipaint/shader"

// Option configures a Renderer.
//
// Example:
//
//	r, err := raster.New(raster.WithWorkers(4), raster.WithBindless(16))
type Option func(*options)

type options struct {
	workers     int
	minBandRows int
	variant     shader.Variant
}

func defaultOptions() options {
	return options{
		workers:     0, // GOMAXPROCS
		minBandRows: 16,
		variant:     shader.Single,
	}
}

// WithWorkers sets the number of shading goroutines. Zero or negative uses
// GOMAXPROCS; one shades on the calling goroutine only.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithMinBandRows sets the smallest band of rows handed to one worker.
func WithMinBandRows(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.minBandRows = n
		}
	}
}

// WithBindless selects the bindless variant with the given number of
// texture slots per group.
func WithBindless(slots uint32) Option {
	return func(o *options) {
		o.variant = shader.BindlessVariant(slots)
	}
}
