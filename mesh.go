package guipaint

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// VertexSize is the size of one encoded Vertex in bytes:
// position (2×f32), uv (2×f32), color (4×u8).
const VertexSize = 20

// ErrIndexOutOfRange is returned by Mesh.Validate when an index does not
// address a vertex of the mesh.
var ErrIndexOutOfRange = errors.New("guipaint: mesh index out of range")

// Color32 is an sRGB encoded color with premultiplied alpha, one byte per
// channel in RGBA order. It is what the GUI library stores per vertex.
type Color32 [4]uint8

// Common colors.
var (
	Transparent = Color32{0, 0, 0, 0}
	White       = Color32{255, 255, 255, 255}
	Black       = Color32{0, 0, 0, 255}
)

// RGBA returns a fully specified color.
func RGBA(r, g, b, a uint8) Color32 {
	return Color32{r, g, b, a}
}

// Gray returns an opaque gray with the given sRGB level.
func Gray(l uint8) Color32 {
	return Color32{l, l, l, 255}
}

// Vertex is a GUI mesh vertex. Pos is in logical points with the origin at
// the top-left corner of the target, UV is normalized texture space.
type Vertex struct {
	Pos   [2]float32
	UV    [2]float32
	Color Color32
}

// Encode writes the vertex in its 20-byte GPU layout to dst.
// dst must be at least VertexSize bytes long.
func (v Vertex) Encode(dst []byte) {
	_ = dst[VertexSize-1]
	binary.LittleEndian.PutUint32(dst[0:4], math.Float32bits(v.Pos[0]))
	binary.LittleEndian.PutUint32(dst[4:8], math.Float32bits(v.Pos[1]))
	binary.LittleEndian.PutUint32(dst[8:12], math.Float32bits(v.UV[0]))
	binary.LittleEndian.PutUint32(dst[12:16], math.Float32bits(v.UV[1]))
	copy(dst[16:20], v.Color[:])
}

// DecodeVertex reads one vertex in the layout written by Encode.
func DecodeVertex(src []byte) Vertex {
	_ = src[VertexSize-1]
	var v Vertex
	v.Pos[0] = math.Float32frombits(binary.LittleEndian.Uint32(src[0:4]))
	v.Pos[1] = math.Float32frombits(binary.LittleEndian.Uint32(src[4:8]))
	v.UV[0] = math.Float32frombits(binary.LittleEndian.Uint32(src[8:12]))
	v.UV[1] = math.Float32frombits(binary.LittleEndian.Uint32(src[12:16]))
	copy(v.Color[:], src[16:20])
	return v
}

// EncodeVertices appends the GPU layout of vs to dst and returns the
// extended slice.
func EncodeVertices(dst []byte, vs []Vertex) []byte {
	off := len(dst)
	dst = append(dst, make([]byte, len(vs)*VertexSize)...)
	for i := range vs {
		vs[i].Encode(dst[off+i*VertexSize:])
	}
	return dst
}

// TextureKind tells who owns a texture.
type TextureKind uint8

const (
	// TextureManaged textures are created, patched and freed by the GUI
	// library through texture deltas.
	TextureManaged TextureKind = iota
	// TextureUser textures are owned by the host and registered through
	// UserTextures.
	TextureUser
)

// String returns the kind name.
func (k TextureKind) String() string {
	switch k {
	case TextureManaged:
		return "managed"
	case TextureUser:
		return "user"
	default:
		return fmt.Sprintf("TextureKind(%d)", k)
	}
}

// TextureID identifies the texture a mesh samples from.
type TextureID struct {
	Kind TextureKind
	ID   uint64
}

// ManagedTexture returns the id of a GUI-managed texture.
func ManagedTexture(id uint64) TextureID {
	return TextureID{Kind: TextureManaged, ID: id}
}

// UserTexture returns the id of a host-registered texture.
func UserTexture(id uint64) TextureID {
	return TextureID{Kind: TextureUser, ID: id}
}

// Less orders ids by kind, then by number.
func (t TextureID) Less(o TextureID) bool {
	if t.Kind != o.Kind {
		return t.Kind < o.Kind
	}
	return t.ID < o.ID
}

func (t TextureID) String() string {
	return fmt.Sprintf("%s:%d", t.Kind, t.ID)
}

// Rect is an axis-aligned rectangle in logical points.
type Rect struct {
	Min, Max [2]float32
}

// RectFromSize returns the rectangle at (x, y) with the given size.
func RectFromSize(x, y, w, h float32) Rect {
	return Rect{Min: [2]float32{x, y}, Max: [2]float32{x + w, y + h}}
}

// Width returns the width of r, negative when r is inverted.
func (r Rect) Width() float32 { return r.Max[0] - r.Min[0] }

// Height returns the height of r, negative when r is inverted.
func (r Rect) Height() float32 { return r.Max[1] - r.Min[1] }

// Mesh is an indexed triangle list sampling one texture.
type Mesh struct {
	Indices  []uint32
	Vertices []Vertex
	Texture  TextureID
}

// Validate checks that every index addresses a vertex and that the index
// count is a multiple of three.
func (m *Mesh) Validate() error {
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("guipaint: %d indices is not a triangle list", len(m.Indices))
	}
	n := uint32(len(m.Vertices)) //nolint:gosec // mesh sizes fit in uint32
	for i, idx := range m.Indices {
		if idx >= n {
			return fmt.Errorf("%w: indices[%d]=%d, %d vertices", ErrIndexOutOfRange, i, idx, n)
		}
	}
	return nil
}

// AddTriangle appends a triangle referencing existing vertices.
func (m *Mesh) AddTriangle(a, b, c uint32) {
	m.Indices = append(m.Indices, a, b, c)
}

// AddRect appends an axis-aligned quad mapping rect to uv with one color.
func (m *Mesh) AddRect(rect, uv Rect, c Color32) {
	base := uint32(len(m.Vertices)) //nolint:gosec // mesh sizes fit in uint32
	m.Vertices = append(m.Vertices,
		Vertex{Pos: rect.Min, UV: uv.Min, Color: c},
		Vertex{Pos: [2]float32{rect.Max[0], rect.Min[1]}, UV: [2]float32{uv.Max[0], uv.Min[1]}, Color: c},
		Vertex{Pos: rect.Max, UV: uv.Max, Color: c},
		Vertex{Pos: [2]float32{rect.Min[0], rect.Max[1]}, UV: [2]float32{uv.Min[0], uv.Max[1]}, Color: c},
	)
	m.AddTriangle(base, base+1, base+2)
	m.AddTriangle(base, base+2, base+3)
}

// URect is a rectangle in physical pixels.
type URect struct {
	X, Y, W, H uint32
}

// Empty reports whether r covers no pixels.
func (r URect) Empty() bool {
	return r.W == 0 || r.H == 0
}

// Intersect returns the overlap of r and o, or the zero URect.
func (r URect) Intersect(o URect) URect {
	x0 := max(r.X, o.X)
	y0 := max(r.Y, o.Y)
	x1 := min(r.X+r.W, o.X+o.W)
	y1 := min(r.Y+r.H, o.Y+o.H)
	if x1 <= x0 || y1 <= y0 {
		return URect{}
	}
	return URect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// CallbackInfo is passed to a PaintCallback.
type CallbackInfo struct {
	// Viewport is the callback rectangle in physical pixels.
	Viewport URect
	// Scissor is the clip rectangle in physical pixels, already
	// intersected with the target.
	Scissor        URect
	PixelsPerPoint float32
	// Target is the renderer specific drawing surface: a
	// hal.RenderPassEncoder for the gpu renderer, an *image.RGBA for the
	// raster renderer.
	Target any
}

// PaintCallback lets the host draw custom content inside a GUI rectangle.
type PaintCallback struct {
	Rect Rect
	// Prepare, if set, runs once per frame before any draw is recorded,
	// for uploads the callback needs during Paint. Its Target is a
	// *gpu.PrepareContext for the gpu renderer and the target image for
	// the raster renderer.
	Prepare func(CallbackInfo)
	Paint   func(CallbackInfo)
}

// ClippedPrimitive is a mesh or a paint callback with its clip rectangle.
// Exactly one of Mesh and Callback is set.
type ClippedPrimitive struct {
	ClipRect Rect
	Mesh     *Mesh
	Callback *PaintCallback
}
