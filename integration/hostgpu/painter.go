//go:build !nogpu

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package hostgpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/guipaint"
	"github.com/gogpu/guipaint/gpu"
	"github.com/gogpu/wgpu/hal"
)

// Common errors returned by Painter operations.
var (
	// ErrNilProvider is returned when a nil DeviceProvider is passed.
	ErrNilProvider = errors.New("hostgpu: nil DeviceProvider")

	// ErrNoHAL is returned when the provider does not expose a hal.Device
	// and hal.Queue.
	ErrNoHAL = errors.New("hostgpu: provider does not expose HAL device and queue")

	// ErrPainterClosed is returned when operations are attempted on a
	// closed painter.
	ErrPainterClosed = errors.New("hostgpu: painter is closed")
)

// halProvider is implemented by providers that share their HAL objects.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// Option configures a Painter.
type Option func(*config)

type config struct {
	format gputypes.TextureFormat
	target uint64
	gpu    []gpu.Option
}

// WithFormat overrides the provider's surface format.
func WithFormat(f gputypes.TextureFormat) Option {
	return func(c *config) { c.format = f }
}

// WithTarget sets the texture manager key of the painted target, for hosts
// that paint several viewports.
func WithTarget(target uint64) Option {
	return func(c *config) { c.target = target }
}

// WithRendererOptions passes options through to gpu.New.
func WithRendererOptions(opts ...gpu.Option) Option {
	return func(c *config) { c.gpu = append(c.gpu, opts...) }
}

// Painter draws GUI output on a host device.
//
// Painter is NOT safe for concurrent use. Paint from the goroutine that
// owns the host's render loop.
type Painter struct {
	provider gpucontext.DeviceProvider
	renderer *gpu.Renderer
	textures *guipaint.TextureManager
	user     *guipaint.UserTextures[hal.TextureView]
	target   uint64
	closed   bool
}

// New creates a Painter on the provider's device.
func New(provider gpucontext.DeviceProvider, opts ...Option) (*Painter, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok {
		return nil, fmt.Errorf("%w: HalDevice is %T", ErrNoHAL, hp.HalDevice())
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok {
		return nil, fmt.Errorf("%w: HalQueue is %T", ErrNoHAL, hp.HalQueue())
	}

	c := config{format: provider.SurfaceFormat()}
	for _, opt := range opts {
		opt(&c)
	}
	if c.format == gputypes.TextureFormatUndefined {
		// Headless provider.
		c.format = gputypes.TextureFormatRGBA8UnormSrgb
	}

	info := provider.AdapterInfo()
	if info.Type == gpucontext.AdapterTypeSoftware {
		guipaint.Logger().Info("hostgpu: software adapter, consider the raster package",
			"adapter", info.Name)
	}

	r, err := gpu.New(device, queue, c.format, append(c.gpu, gpu.WithTarget(c.target))...)
	if err != nil {
		return nil, fmt.Errorf("hostgpu: %w", err)
	}
	return &Painter{
		provider: provider,
		renderer: r,
		textures: guipaint.NewTextureManager(),
		user:     guipaint.NewUserTextures[hal.TextureView](),
		target:   c.target,
	}, nil
}

// MustNew is like New but panics on error.
func MustNew(provider gpucontext.DeviceProvider, opts ...Option) *Painter {
	p, err := New(provider, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// Renderer returns the underlying renderer, for hosts that record into
// their own render pass.
func (p *Painter) Renderer() *gpu.Renderer {
	return p.renderer
}

// Textures returns the managed texture state of the painted target.
func (p *Painter) Textures() *guipaint.TextureManager {
	return p.textures
}

// Paint applies the texture sets of delta, draws prims into view and then
// applies the frees of delta. Texture update failures are logged and
// returned joined with any render error; the frame is still drawn.
func (p *Painter) Paint(view hal.TextureView, prims []guipaint.ClippedPrimitive, params guipaint.FrameParams,
	delta guipaint.TexturesDelta, clearColor *gputypes.Color) error {
	if p.closed {
		return ErrPainterClosed
	}

	var errs []error
	if err := p.textures.Apply(p.target, guipaint.TexturesDelta{Set: delta.Set}); err != nil {
		errs = append(errs, err)
	}
	if err := p.renderer.SyncTextures(p.textures); err != nil {
		errs = append(errs, err)
	}

	frame := guipaint.PrepareFrame(prims, params)
	if err := p.renderer.Render(view, frame, clearColor); err != nil {
		errs = append(errs, err)
	}

	if len(delta.Free) > 0 {
		if err := p.textures.Apply(p.target, guipaint.TexturesDelta{Free: delta.Free}); err != nil {
			errs = append(errs, err)
		}
		if err := p.renderer.SyncTextures(p.textures); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RegisterView makes a host texture view drawable and returns its user
// texture id. Registering the same view again returns the same id.
func (p *Painter) RegisterView(view hal.TextureView, opts guipaint.TextureOptions) (guipaint.TextureID, error) {
	if p.closed {
		return guipaint.TextureID{}, ErrPainterClosed
	}
	if view == nil {
		return guipaint.TextureID{}, gpu.ErrNilView
	}
	if id, ok := p.user.ID(view); ok {
		return id, nil
	}
	id := p.user.Add(view)
	if err := p.renderer.RegisterView(id, view, opts); err != nil {
		p.user.Remove(view)
		return guipaint.TextureID{}, err
	}
	return id, nil
}

// UnregisterView releases the bind group of view. The view itself stays
// owned by the host.
func (p *Painter) UnregisterView(view hal.TextureView) {
	if id, ok := p.user.Remove(view); ok && !p.closed {
		p.renderer.FreeTexture(id)
	}
}

// Close releases the GPU resources of the painter. The shared device is
// left alone. Safe to call multiple times.
func (p *Painter) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	p.renderer.Destroy()
	return nil
}
