package guipaint

import (
	"encoding/binary"
	"math"
	"math/bits"
)

// Size is a physical target size in pixels.
type Size struct {
	Width, Height uint32
}

// Empty reports whether s has no pixels.
func (s Size) Empty() bool {
	return s.Width == 0 || s.Height == 0
}

// FrameParams describes the target a frame is prepared for.
type FrameParams struct {
	// PixelsPerPoint is the number of physical pixels per logical point.
	PixelsPerPoint float32
	// Viewport is the physical size of the target.
	Viewport Size
}

// DrawKind tells how a DrawCommand is executed.
type DrawKind uint8

const (
	// DrawMesh draws IndexCount indices starting at IndexStart.
	DrawMesh DrawKind = iota
	// DrawCallback runs a PaintCallback.
	DrawCallback
)

// DrawCommand is one step of a prepared frame.
type DrawCommand struct {
	Kind DrawKind
	// Scissor is the clip rectangle in physical pixels, intersected with
	// the viewport. Never empty.
	Scissor URect

	// Mesh draws.
	IndexStart uint32
	IndexCount uint32
	Texture    TextureID

	// Callback draws.
	Callback *PaintCallback
	// CallbackViewport is the callback rectangle in physical pixels,
	// clamped to the target. Never empty.
	CallbackViewport URect
}

// Frame is a GUI frame ready to be recorded by a renderer: all meshes merged
// into one vertex and one index stream, and the draw commands in paint order.
type Frame struct {
	Params    FrameParams
	Transform Transform

	// Vertices holds VertexCount vertices in the layout of Vertex.Encode.
	Vertices    []byte
	VertexCount uint32
	// Indices address Vertices directly; each mesh's indices have been
	// offset by the number of vertices before it.
	Indices  []uint32
	Commands []DrawCommand
}

// Empty reports whether the frame draws nothing.
func (f *Frame) Empty() bool {
	return len(f.Commands) == 0
}

// IndexBytes returns Indices as little-endian u32 bytes.
func (f *Frame) IndexBytes() []byte {
	b := make([]byte, 4*len(f.Indices))
	for i, idx := range f.Indices {
		binary.LittleEndian.PutUint32(b[i*4:], idx)
	}
	return b
}

// Vertex decodes vertex i of the merged stream.
func (f *Frame) Vertex(i uint32) Vertex {
	return DecodeVertex(f.Vertices[int(i)*VertexSize:])
}

// Textures returns the distinct textures referenced by mesh draws.
func (f *Frame) Textures() []TextureID {
	seen := make(map[TextureID]struct{})
	var ids []TextureID
	for i := range f.Commands {
		c := &f.Commands[i]
		if c.Kind != DrawMesh {
			continue
		}
		if _, ok := seen[c.Texture]; ok {
			continue
		}
		seen[c.Texture] = struct{}{}
		ids = append(ids, c.Texture)
	}
	return ids
}

// PrepareCallbacks runs the Prepare hook of every paint callback in f, in
// paint order, with CallbackInfo.Target set to target.
func (f *Frame) PrepareCallbacks(target any) {
	for i := range f.Commands {
		c := &f.Commands[i]
		if c.Kind != DrawCallback || c.Callback == nil || c.Callback.Prepare == nil {
			continue
		}
		c.Callback.Prepare(CallbackInfo{
			Viewport:       c.CallbackViewport,
			Scissor:        c.Scissor,
			PixelsPerPoint: f.Params.PixelsPerPoint,
			Target:         target,
		})
	}
}

// PrepareFrame merges the primitives of a GUI frame into a Frame.
//
// Clip rectangles are converted to physical pixels by rounding each edge of
// rect*PixelsPerPoint. Primitives whose clip rectangle misses the viewport
// are dropped, as are meshes without indices, meshes that fail Validate and
// callbacks whose rectangle lies outside the target. A zero-sized viewport
// yields an empty frame.
func PrepareFrame(prims []ClippedPrimitive, p FrameParams) *Frame {
	f := &Frame{Params: p}
	if p.Viewport.Empty() || !(p.PixelsPerPoint > 0) {
		return f
	}
	f.Transform = NewTransform(p.Viewport.Width, p.Viewport.Height, p.PixelsPerPoint)
	viewport := URect{W: p.Viewport.Width, H: p.Viewport.Height}

	for i := range prims {
		prim := &prims[i]
		scissor := ToPixels(prim.ClipRect, p.PixelsPerPoint).Intersect(viewport)
		if scissor.Empty() {
			continue
		}

		switch {
		case prim.Callback != nil:
			cv := ToPixels(prim.Callback.Rect, p.PixelsPerPoint).Intersect(viewport)
			if cv.Empty() {
				continue
			}
			f.Commands = append(f.Commands, DrawCommand{
				Kind:             DrawCallback,
				Scissor:          scissor,
				Callback:         prim.Callback,
				CallbackViewport: cv,
			})

		case prim.Mesh != nil && len(prim.Mesh.Indices) > 0:
			m := prim.Mesh
			if err := m.Validate(); err != nil {
				Logger().Warn("guipaint: invalid mesh dropped",
					"primitive", i, "texture", m.Texture.String(), "err", err)
				continue
			}
			start := uint32(len(f.Indices)) //nolint:gosec // frame sizes fit in uint32
			for _, idx := range m.Indices {
				f.Indices = append(f.Indices, idx+f.VertexCount)
			}
			f.Vertices = EncodeVertices(f.Vertices, m.Vertices)
			f.VertexCount += uint32(len(m.Vertices)) //nolint:gosec // frame sizes fit in uint32

			f.Commands = append(f.Commands, DrawCommand{
				Kind:       DrawMesh,
				Scissor:    scissor,
				IndexStart: start,
				IndexCount: uint32(len(m.Indices)), //nolint:gosec // mesh sizes fit in uint32
				Texture:    m.Texture,
			})
		}
	}
	return f
}

// ToPixels converts a rectangle in points to physical pixels, rounding each
// edge to the nearest pixel. Negative coordinates saturate to zero.
func ToPixels(r Rect, pixelsPerPoint float32) URect {
	x0 := roundPixel(r.Min[0] * pixelsPerPoint)
	y0 := roundPixel(r.Min[1] * pixelsPerPoint)
	x1 := roundPixel(r.Max[0] * pixelsPerPoint)
	y1 := roundPixel(r.Max[1] * pixelsPerPoint)
	if x1 <= x0 || y1 <= y0 {
		return URect{X: x0, Y: y0}
	}
	return URect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

func roundPixel(v float32) uint32 {
	r := math.Round(float64(v))
	switch {
	case !(r > 0):
		return 0
	case r >= math.MaxUint32:
		return math.MaxUint32
	default:
		return uint32(r)
	}
}

// GrowCapacity returns the buffer capacity needed to hold need bytes given
// the current capacity. The capacity only grows, and always to a power of two.
func GrowCapacity(current, need uint64) uint64 {
	if need <= current {
		return current
	}
	if need <= 1 {
		return 1
	}
	return 1 << bits.Len64(need-1)
}
