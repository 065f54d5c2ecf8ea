// Package raster renders prepared GUI frames on the CPU.
//
// The renderer evaluates the same vertex and fragment stages as the GPU
// pipeline for every covered pixel center, samples textures as an
// Rgba8UnormSrgb texture would be sampled, and blends premultiplied linear
// color over an *image.RGBA holding sRGB encoded bytes. It is the reference
// the GPU path is checked against and a fallback where no GPU is available.
package raster

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/guipaint"
	"github.com/gogpu/guipaint/internal/blend"
	"github.com/gogpu/guipaint/internal/parallel"
	"github.com/gogpu/guipaint/shader"
)

var (
	// ErrNilTarget is returned when Render is called without a target.
	ErrNilTarget = errors.New("raster: nil target")

	// ErrTargetSize is returned when the target does not match the
	// viewport the frame was prepared for.
	ErrTargetSize = errors.New("raster: target size does not match frame viewport")
)

// Renderer is a CPU renderer for GUI frames.
//
// A Renderer may be used from several goroutines, but concurrent Render
// calls must not share a target.
type Renderer struct {
	opts  options
	pool  *parallel.Pool
	blend blend.Func
}

// New returns a renderer. Close releases its workers.
func New(opts ...Option) (*Renderer, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.variant.Validate(); err != nil {
		return nil, fmt.Errorf("raster: %w", err)
	}
	return &Renderer{
		opts:  o,
		pool:  parallel.NewPool(o.workers),
		blend: blend.For(blend.Premultiplied()),
	}, nil
}

// Variant returns the texture selection variant the renderer emulates.
func (r *Renderer) Variant() shader.Variant {
	return r.opts.variant
}

// Close stops the shading workers. The renderer keeps working afterwards
// on the calling goroutine.
func (r *Renderer) Close() {
	r.pool.Close()
}

// NewTarget allocates a transparent target for a viewport.
func NewTarget(size guipaint.Size) *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, int(size.Width), int(size.Height)))
}

// Clear fills dst with c.
func Clear(dst *image.RGBA, c guipaint.Color32) {
	b := dst.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := dst.Pix[dst.PixOffset(b.Min.X, y):dst.PixOffset(b.Max.X, y)]
		for i := 0; i < len(row); i += 4 {
			copy(row[i:i+4], c[:])
		}
	}
}

// Render draws f over dst. Mesh draws whose texture cannot be resolved
// through textures are skipped. Paint callbacks run on the calling
// goroutine, in order, with CallbackInfo.Target set to dst.
func (r *Renderer) Render(dst *image.RGBA, f *guipaint.Frame, textures guipaint.TextureSource) error {
	if dst == nil {
		return ErrNilTarget
	}
	if f == nil || f.Empty() {
		return nil
	}
	b := dst.Bounds()
	vp := f.Params.Viewport
	if b.Dx() != int(vp.Width) || b.Dy() != int(vp.Height) {
		return fmt.Errorf("%w: target %dx%d, viewport %dx%d",
			ErrTargetSize, b.Dx(), b.Dy(), vp.Width, vp.Height)
	}

	f.PrepareCallbacks(dst)
	verts := r.vertexStage(f)
	samplers := r.bindTextures(f, textures)

	var segment []int
	flush := func() {
		if len(segment) == 0 {
			return
		}
		r.pool.ForEachBand(b.Dy(), r.opts.minBandRows, func(band parallel.Band) {
			for _, ci := range segment {
				drawMesh(dst, band, f, &f.Commands[ci], verts, samplers[ci], r.blend)
			}
		})
		segment = segment[:0]
	}

	skipped := 0
	for i := range f.Commands {
		cmd := &f.Commands[i]
		switch cmd.Kind {
		case guipaint.DrawMesh:
			if samplers[i] == nil {
				skipped++
				continue
			}
			segment = append(segment, i)
		case guipaint.DrawCallback:
			flush()
			runCallback(dst, f, cmd)
		}
	}
	flush()

	if skipped > 0 {
		guipaint.Logger().Warn("raster: draws skipped, texture not bound", "count", skipped)
	}
	guipaint.Logger().Debug("raster: frame rendered",
		"commands", len(f.Commands), "vertices", f.VertexCount, "variant", r.opts.variant.String())
	return nil
}

func (r *Renderer) vertexStage(f *guipaint.Frame) []screenVertex {
	w := float64(f.Params.Viewport.Width)
	h := float64(f.Params.Viewport.Height)
	verts := make([]screenVertex, f.VertexCount)
	for i := range verts {
		v := f.Vertex(uint32(i)) //nolint:gosec // bounded by VertexCount
		verts[i] = toScreen(guipaint.VertexStage(f.Transform, v), w, h)
	}
	return verts
}

// bindTextures resolves the sampler of every mesh command. With the bindless
// variant textures are first packed into groups and each draw reads
// group[offset], as the GPU variant does through its push constant.
func (r *Renderer) bindTextures(f *guipaint.Frame, textures guipaint.TextureSource) []*sampler {
	out := make([]*sampler, len(f.Commands))
	if textures == nil {
		return out
	}

	resolved := make(map[guipaint.TextureID]*sampler)
	var ids []guipaint.TextureID
	for _, id := range f.Textures() {
		if tex, ok := textures.Texture(id); ok {
			resolved[id] = newSampler(tex)
			ids = append(ids, id)
		}
	}

	if !r.opts.variant.Bindless {
		for i := range f.Commands {
			if f.Commands[i].Kind == guipaint.DrawMesh {
				out[i] = resolved[f.Commands[i].Texture]
			}
		}
		return out
	}

	plan := guipaint.PlanBindings(ids, r.opts.variant.Slots)
	groups := make([][]*sampler, len(plan.Groups))
	for g, members := range plan.Groups {
		groups[g] = make([]*sampler, r.opts.variant.Slots)
		for slot, id := range members {
			groups[g][slot] = resolved[id]
		}
	}
	for i := range f.Commands {
		cmd := &f.Commands[i]
		if cmd.Kind != guipaint.DrawMesh {
			continue
		}
		if bind, ok := plan.Lookup(cmd.Texture); ok {
			out[i] = groups[bind.Group][bind.Offset]
		}
	}
	return out
}

func drawMesh(dst *image.RGBA, band parallel.Band, f *guipaint.Frame, cmd *guipaint.DrawCommand, verts []screenVertex, s *sampler, over blend.Func) {
	sc := cmd.Scissor
	clip := image.Rect(int(sc.X), int(sc.Y), int(sc.X+sc.W), int(sc.Y+sc.H)).
		Intersect(image.Rect(0, band.Y0, int(f.Params.Viewport.Width), band.Y1))
	if clip.Empty() {
		return
	}

	n := uint32(len(verts)) //nolint:gosec // bounded by VertexCount
	end := cmd.IndexStart + cmd.IndexCount
	for t := cmd.IndexStart; t+2 < end; t += 3 {
		i0, i1, i2 := f.Indices[t], f.Indices[t+1], f.Indices[t+2]
		if i0 >= n || i1 >= n || i2 >= n {
			continue
		}
		drawTriangle(dst, clip, &verts[i0], &verts[i1], &verts[i2], s, over)
	}
}

func runCallback(dst *image.RGBA, f *guipaint.Frame, cmd *guipaint.DrawCommand) {
	if cmd.Callback == nil || cmd.Callback.Paint == nil {
		return
	}
	if cmd.CallbackViewport.Empty() {
		return
	}
	cmd.Callback.Paint(guipaint.CallbackInfo{
		Viewport:       cmd.CallbackViewport,
		Scissor:        cmd.Scissor,
		PixelsPerPoint: f.Params.PixelsPerPoint,
		Target:         dst,
	})
}
