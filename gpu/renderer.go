//go:build !nogpu

// Package gpu paints prepared GUI frames through the gogpu WebGPU HAL.
//
// A Renderer owns the mesh pipeline for one target format, the textures the
// GUI draws with, and the vertex, index and transform buffers. Each frame:
//
//	r.SyncTextures(manager)        // upload changed GUI textures
//	r.Render(view, frame, &clear)  // encode, submit, wait
//
// Hosts that own the render pass call Prepare and Record instead of Render.
package gpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/guipaint"
	"github.com/gogpu/wgpu/hal"
)

// Renderer errors.
var (
	// ErrNilDevice is returned when New is called without a device or queue.
	ErrNilDevice = errors.New("gpu: nil device or queue")

	// ErrBindlessUnsupported is returned for the bindless variant: the HAL
	// exposes neither texture binding arrays nor a push constant setter.
	ErrBindlessUnsupported = errors.New("gpu: bindless textures not supported by the HAL")

	// ErrNilView is returned when a nil texture view is registered or
	// rendered to.
	ErrNilView = errors.New("gpu: nil texture view")

	// ErrEmptyTexture is returned when uploading a texture without pixels.
	ErrEmptyTexture = errors.New("gpu: empty texture")

	// ErrDestroyed is returned by a Renderer after Destroy.
	ErrDestroyed = errors.New("gpu: renderer destroyed")

	// ErrLayoutMismatch is returned when the shader's resources do not
	// match the bind group layouts the renderer creates.
	ErrLayoutMismatch = errors.New("gpu: shader does not match pipeline layout")
)

// Renderer draws guipaint frames with a render pipeline.
//
// Renderer is safe for concurrent use; frames are recorded one at a time.
type Renderer struct {
	device hal.Device
	queue  hal.Queue
	format gputypes.TextureFormat
	opts   options

	shader          hal.ShaderModule
	transformLayout hal.BindGroupLayout
	textureLayout   hal.BindGroupLayout
	pipeLayout      hal.PipelineLayout
	pipeline        hal.RenderPipeline

	uniform      hal.Buffer
	uniformGroup hal.BindGroup
	vertices     growBuffer
	indices      growBuffer

	mu        sync.Mutex
	samplers  map[guipaint.TextureOptions]hal.Sampler
	textures  map[guipaint.TextureID]*gpuTexture
	destroyed bool
}

// New creates a Renderer drawing to textures of the given format. The mesh
// shader outputs linear color, so format should be an sRGB format; other
// formats are accepted and logged.
func New(device hal.Device, queue hal.Queue, format gputypes.TextureFormat, opts ...Option) (*Renderer, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.variant.Validate(); err != nil {
		return nil, err
	}
	if o.variant.Bindless {
		return nil, fmt.Errorf("%w: %s", ErrBindlessUnsupported, o.variant)
	}
	if !format.IsSrgb() {
		guipaint.Logger().Warn("gpu: target format is not sRGB, output will look too dark",
			"format", format.String())
	}

	r := &Renderer{
		device:   device,
		queue:    queue,
		format:   format,
		opts:     o,
		samplers: make(map[guipaint.TextureOptions]hal.Sampler),
		textures: make(map[guipaint.TextureID]*gpuTexture),
		vertices: growBuffer{
			label:    o.label + "_vertices",
			usage:    gputypes.BufferUsageVertex,
			minBytes: o.minVertexCap,
		},
		indices: growBuffer{
			label:    o.label + "_indices",
			usage:    gputypes.BufferUsageIndex,
			minBytes: o.minIndexCap,
		},
	}
	if err := r.createPipeline(); err != nil {
		r.destroyLocked()
		return nil, err
	}
	if err := r.createUniform(); err != nil {
		r.destroyLocked()
		return nil, err
	}
	guipaint.Logger().Info("gpu: renderer created",
		"format", format.String(), "variant", o.variant.String())
	return r, nil
}

func (r *Renderer) label(name string) string {
	return r.opts.label + "_" + name
}

// Format returns the target format the pipeline was built for.
func (r *Renderer) Format() gputypes.TextureFormat {
	return r.format
}

func (r *Renderer) createUniform() error {
	buf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: r.label("transform"),
		Size:  guipaint.TransformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create transform buffer: %w", err)
	}
	r.uniform = buf

	group, err := r.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  r.label("transform_bind"),
		Layout: r.transformLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: buf.NativeHandle(), Offset: 0, Size: guipaint.TransformSize,
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("create transform bind group: %w", err)
	}
	r.uniformGroup = group
	return nil
}

// PrepareContext is the CallbackInfo.Target of PaintCallback.Prepare hooks
// run by the gpu renderer.
type PrepareContext struct {
	Device hal.Device
	Queue  hal.Queue
}

// Prepare uploads the transform, vertices and indices of f and runs the
// Prepare hooks of its paint callbacks. It must be called before Record for
// the same frame.
func (r *Renderer) Prepare(f *guipaint.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.prepareLocked(f)
}

func (r *Renderer) prepareLocked(f *guipaint.Frame) error {
	if r.destroyed {
		return ErrDestroyed
	}
	if f == nil || f.Empty() {
		return nil
	}
	if err := r.queue.WriteBuffer(r.uniform, 0, f.Transform.Bytes()); err != nil {
		return fmt.Errorf("write transform: %w", err)
	}
	if err := r.vertices.write(r.device, r.queue, f.Vertices); err != nil {
		return err
	}
	if err := r.indices.write(r.device, r.queue, f.IndexBytes()); err != nil {
		return err
	}
	f.PrepareCallbacks(&PrepareContext{Device: r.device, Queue: r.queue})
	return nil
}

// Record encodes the draws of f into rp. Meshes whose texture is not bound
// are skipped. Paint callbacks are invoked with the viewport set to their
// rectangle and CallbackInfo.Target set to rp; the pipeline state is bound
// again afterwards. Record returns the number of meshes drawn.
func (r *Renderer) Record(rp hal.RenderPassEncoder, f *guipaint.Frame) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recordLocked(rp, f)
}

func (r *Renderer) recordLocked(rp hal.RenderPassEncoder, f *guipaint.Frame) int {
	if r.destroyed || f == nil || f.Empty() || r.vertices.buf == nil || r.indices.buf == nil {
		return 0
	}
	vp := f.Params.Viewport

	bindState := func() {
		rp.SetViewport(0, 0, float32(vp.Width), float32(vp.Height), 0, 1)
		rp.SetPipeline(r.pipeline)
		rp.SetBindGroup(0, r.uniformGroup, nil)
		rp.SetVertexBuffer(0, r.vertices.buf, 0)
		rp.SetIndexBuffer(r.indices.buf, gputypes.IndexFormatUint32, 0)
	}
	bindState()

	var scissor guipaint.URect
	haveScissor := false
	setScissor := func(s guipaint.URect) {
		if haveScissor && s == scissor {
			return
		}
		rp.SetScissorRect(s.X, s.Y, s.W, s.H)
		scissor, haveScissor = s, true
	}

	drawn, skipped := 0, 0
	for i := range f.Commands {
		cmd := &f.Commands[i]
		switch cmd.Kind {
		case guipaint.DrawMesh:
			tex, ok := r.textures[cmd.Texture]
			if !ok || tex.group == nil {
				skipped++
				continue
			}
			setScissor(cmd.Scissor)
			rp.SetBindGroup(1, tex.group, nil)
			rp.DrawIndexed(cmd.IndexCount, 1, cmd.IndexStart, 0, 0)
			drawn++

		case guipaint.DrawCallback:
			cv := cmd.CallbackViewport
			if cmd.Callback == nil || cmd.Callback.Paint == nil || cv.Empty() {
				continue
			}
			rp.SetViewport(float32(cv.X), float32(cv.Y), float32(cv.W), float32(cv.H), 0, 1)
			setScissor(cmd.Scissor)
			cmd.Callback.Paint(guipaint.CallbackInfo{
				Viewport:       cv,
				Scissor:        cmd.Scissor,
				PixelsPerPoint: f.Params.PixelsPerPoint,
				Target:         rp,
			})
			bindState()
			haveScissor = false
		}
	}

	if skipped > 0 {
		guipaint.Logger().Warn("gpu: draws skipped, texture not bound", "count", skipped)
	}
	return drawn
}

// Render uploads f and draws it into view in its own render pass. A nil
// clearColor loads the existing contents.
func (r *Renderer) Render(view hal.TextureView, f *guipaint.Frame, clearColor *gputypes.Color) error {
	if view == nil {
		return ErrNilView
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.prepareLocked(f); err != nil {
		return err
	}

	encoder, err := r.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: r.label("encoder"),
	})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(r.label("frame")); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	attachment := hal.RenderPassColorAttachment{
		View:    view,
		LoadOp:  gputypes.LoadOpLoad,
		StoreOp: gputypes.StoreOpStore,
	}
	if clearColor != nil {
		attachment.LoadOp = gputypes.LoadOpClear
		attachment.ClearValue = *clearColor
	}
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label:            r.label("pass"),
		ColorAttachments: []hal.RenderPassColorAttachment{attachment},
	})
	drawn := r.recordLocked(rp, f)
	rp.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer r.device.FreeCommandBuffer(cmdBuf)

	if _, err := r.queue.Submit([]hal.CommandBuffer{cmdBuf}); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	if r.opts.waitOnSubmit {
		if err := r.device.WaitIdle(); err != nil {
			return fmt.Errorf("wait idle: %w", err)
		}
	}
	guipaint.Logger().Debug("gpu: frame rendered", "draws", drawn)
	return nil
}

// Destroy releases every GPU object owned by the renderer. Host views
// registered with RegisterView are left alone. Safe to call multiple times.
func (r *Renderer) Destroy() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.destroyLocked()
}

func (r *Renderer) destroyLocked() {
	if r.destroyed {
		return
	}
	r.destroyed = true
	for id, t := range r.textures {
		r.destroyTexture(t)
		delete(r.textures, id)
	}
	for o, s := range r.samplers {
		r.device.DestroySampler(s)
		delete(r.samplers, o)
	}
	r.vertices.destroy(r.device)
	r.indices.destroy(r.device)
	if r.uniformGroup != nil {
		r.device.DestroyBindGroup(r.uniformGroup)
		r.uniformGroup = nil
	}
	if r.uniform != nil {
		r.device.DestroyBuffer(r.uniform)
		r.uniform = nil
	}
	r.destroyPipeline()
}
