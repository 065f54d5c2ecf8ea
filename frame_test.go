package guipaint

import (
	"encoding/binary"
	"testing"
)

func quadMesh(tex TextureID, x, y float32) *Mesh {
	m := &Mesh{Texture: tex}
	m.AddRect(RectFromSize(x, y, 10, 10), Rect{Max: [2]float32{1, 1}}, White)
	return m
}

func fullClip() Rect {
	return RectFromSize(0, 0, 1000, 1000)
}

func TestPrepareFrameRebasesIndices(t *testing.T) {
	prims := []ClippedPrimitive{
		{ClipRect: fullClip(), Mesh: quadMesh(ManagedTexture(0), 0, 0)},
		{ClipRect: fullClip(), Mesh: quadMesh(UserTexture(3), 20, 20)},
	}
	f := PrepareFrame(prims, FrameParams{PixelsPerPoint: 1, Viewport: Size{100, 100}})

	if f.VertexCount != 8 {
		t.Fatalf("VertexCount = %d, want 8", f.VertexCount)
	}
	if len(f.Vertices) != 8*VertexSize {
		t.Fatalf("len(Vertices) = %d", len(f.Vertices))
	}
	if len(f.Commands) != 2 {
		t.Fatalf("len(Commands) = %d, want 2", len(f.Commands))
	}
	second := f.Commands[1]
	if second.IndexStart != 6 || second.IndexCount != 6 {
		t.Errorf("second draw = [%d,+%d), want [6,+6)", second.IndexStart, second.IndexCount)
	}
	for _, idx := range f.Indices[6:] {
		if idx < 4 || idx > 7 {
			t.Errorf("second mesh index %d not rebased", idx)
		}
	}
	if second.Texture != UserTexture(3) {
		t.Errorf("Texture = %v", second.Texture)
	}
	if v := f.Vertex(4); v.Pos != [2]float32{20, 20} {
		t.Errorf("Vertex(4).Pos = %v", v.Pos)
	}

	b := f.IndexBytes()
	if got := binary.LittleEndian.Uint32(b[6*4:]); got != f.Indices[6] {
		t.Errorf("IndexBytes()[6] = %d, want %d", got, f.Indices[6])
	}
}

func TestPrepareFrameClipRects(t *testing.T) {
	tests := []struct {
		name     string
		clip     Rect
		ppp      float32
		want     URect
		wantDraw bool
	}{
		{"inside", RectFromSize(10, 10, 20, 20), 1, URect{10, 10, 20, 20}, true},
		{"scaled", RectFromSize(10, 10, 20, 20), 2, URect{20, 20, 40, 40}, true},
		{"rounded", Rect{Min: [2]float32{0.4, 0.6}, Max: [2]float32{10.5, 10.4}}, 1, URect{0, 1, 11, 9}, true},
		{"clamped to viewport", RectFromSize(90, 90, 50, 50), 1, URect{90, 90, 10, 10}, true},
		{"negative origin", RectFromSize(-10, -10, 30, 30), 1, URect{0, 0, 20, 20}, true},
		{"outside", RectFromSize(200, 200, 10, 10), 1, URect{}, false},
		{"empty", RectFromSize(10, 10, 0, 10), 1, URect{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prims := []ClippedPrimitive{{ClipRect: tt.clip, Mesh: quadMesh(ManagedTexture(0), 0, 0)}}
			f := PrepareFrame(prims, FrameParams{PixelsPerPoint: tt.ppp, Viewport: Size{100, 100}})
			if !tt.wantDraw {
				if !f.Empty() {
					t.Fatalf("expected culled primitive, got %+v", f.Commands)
				}
				if f.VertexCount != 0 {
					t.Errorf("culled primitive contributed %d vertices", f.VertexCount)
				}
				return
			}
			if len(f.Commands) != 1 {
				t.Fatalf("len(Commands) = %d", len(f.Commands))
			}
			if got := f.Commands[0].Scissor; got != tt.want {
				t.Errorf("Scissor = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPrepareFrameEmptyViewport(t *testing.T) {
	prims := []ClippedPrimitive{{ClipRect: fullClip(), Mesh: quadMesh(ManagedTexture(0), 0, 0)}}
	for _, vp := range []Size{{0, 100}, {100, 0}, {0, 0}} {
		f := PrepareFrame(prims, FrameParams{PixelsPerPoint: 1, Viewport: vp})
		if !f.Empty() || len(f.Vertices) != 0 {
			t.Errorf("viewport %v: frame not empty", vp)
		}
	}
}

func TestPrepareFrameSkipsEmptyMeshes(t *testing.T) {
	prims := []ClippedPrimitive{
		{ClipRect: fullClip(), Mesh: &Mesh{Vertices: make([]Vertex, 3)}},
		{ClipRect: fullClip()},
	}
	f := PrepareFrame(prims, FrameParams{PixelsPerPoint: 1, Viewport: Size{10, 10}})
	if !f.Empty() {
		t.Errorf("Commands = %+v, want none", f.Commands)
	}
}

func TestPrepareFrameCallback(t *testing.T) {
	cb := &PaintCallback{Rect: RectFromSize(5, 5, 10, 10), Paint: func(CallbackInfo) {}}
	prims := []ClippedPrimitive{
		{ClipRect: fullClip(), Mesh: quadMesh(ManagedTexture(0), 0, 0)},
		{ClipRect: RectFromSize(0, 0, 12, 12), Callback: cb},
		{ClipRect: fullClip(), Mesh: quadMesh(ManagedTexture(0), 0, 0)},
	}
	f := PrepareFrame(prims, FrameParams{PixelsPerPoint: 2, Viewport: Size{100, 100}})
	if len(f.Commands) != 3 {
		t.Fatalf("len(Commands) = %d", len(f.Commands))
	}
	c := f.Commands[1]
	if c.Kind != DrawCallback || c.Callback != cb {
		t.Fatalf("command 1 = %+v", c)
	}
	if c.CallbackViewport != (URect{10, 10, 20, 20}) {
		t.Errorf("CallbackViewport = %+v", c.CallbackViewport)
	}
	if c.Scissor != (URect{0, 0, 24, 24}) {
		t.Errorf("Scissor = %+v", c.Scissor)
	}
	if f.Commands[2].IndexStart != 6 {
		t.Errorf("callback shifted index stream: IndexStart = %d", f.Commands[2].IndexStart)
	}
}

func TestPrepareFrameCallbackClampedToTarget(t *testing.T) {
	paint := func(CallbackInfo) {}
	tests := []struct {
		name string
		rect Rect
		want URect
		drop bool
	}{
		{"inside", RectFromSize(10, 10, 20, 20), URect{10, 10, 20, 20}, false},
		{"past bottom right", RectFromSize(80, 80, 64, 64), URect{80, 80, 20, 20}, false},
		{"past top left", RectFromSize(-10, -20, 30, 40), URect{0, 0, 20, 20}, false},
		{"outside", RectFromSize(120, 0, 10, 10), URect{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prims := []ClippedPrimitive{
				{ClipRect: fullClip(), Callback: &PaintCallback{Rect: tt.rect, Paint: paint}},
			}
			f := PrepareFrame(prims, FrameParams{PixelsPerPoint: 1, Viewport: Size{100, 100}})
			if tt.drop {
				if !f.Empty() {
					t.Fatalf("Commands = %+v, want none", f.Commands)
				}
				return
			}
			if len(f.Commands) != 1 {
				t.Fatalf("len(Commands) = %d", len(f.Commands))
			}
			if got := f.Commands[0].CallbackViewport; got != tt.want {
				t.Errorf("CallbackViewport = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPrepareFrameDropsInvalidMeshes(t *testing.T) {
	bad := &Mesh{Indices: []uint32{0, 1, 9}, Vertices: make([]Vertex, 3)}
	partial := &Mesh{Indices: []uint32{0, 1}, Vertices: make([]Vertex, 3)}
	prims := []ClippedPrimitive{
		{ClipRect: fullClip(), Mesh: quadMesh(ManagedTexture(0), 0, 0)},
		{ClipRect: fullClip(), Mesh: bad},
		{ClipRect: fullClip(), Mesh: partial},
		{ClipRect: fullClip(), Mesh: quadMesh(ManagedTexture(1), 0, 0)},
	}
	f := PrepareFrame(prims, FrameParams{PixelsPerPoint: 1, Viewport: Size{10, 10}})
	if len(f.Commands) != 2 {
		t.Fatalf("len(Commands) = %d, want 2", len(f.Commands))
	}
	if f.VertexCount != 8 {
		t.Errorf("VertexCount = %d, want 8", f.VertexCount)
	}
	for _, idx := range f.Indices {
		if idx >= f.VertexCount {
			t.Errorf("index %d out of range", idx)
		}
	}
	if f.Commands[1].Texture != ManagedTexture(1) || f.Commands[1].IndexStart != 6 {
		t.Errorf("command 1 = %+v", f.Commands[1])
	}
}

func TestFramePrepareCallbacks(t *testing.T) {
	var order []int
	var got []CallbackInfo
	hook := func(n int) func(CallbackInfo) {
		return func(ci CallbackInfo) {
			order = append(order, n)
			got = append(got, ci)
		}
	}
	prims := []ClippedPrimitive{
		{ClipRect: fullClip(), Callback: &PaintCallback{Rect: RectFromSize(0, 0, 5, 5), Prepare: hook(1)}},
		{ClipRect: fullClip(), Mesh: quadMesh(ManagedTexture(0), 0, 0)},
		{ClipRect: fullClip(), Callback: &PaintCallback{Rect: RectFromSize(5, 5, 5, 5)}},
		{ClipRect: fullClip(), Callback: &PaintCallback{Rect: RectFromSize(2, 2, 4, 4), Prepare: hook(3)}},
	}
	f := PrepareFrame(prims, FrameParams{PixelsPerPoint: 2, Viewport: Size{40, 40}})
	f.PrepareCallbacks("target")

	if len(order) != 2 || order[0] != 1 || order[1] != 3 {
		t.Fatalf("order = %v, want [1 3]", order)
	}
	if got[1].Viewport != (URect{4, 4, 8, 8}) || got[1].PixelsPerPoint != 2 || got[1].Target != "target" {
		t.Errorf("CallbackInfo = %+v", got[1])
	}
}

func TestFrameTextures(t *testing.T) {
	prims := []ClippedPrimitive{
		{ClipRect: fullClip(), Mesh: quadMesh(ManagedTexture(1), 0, 0)},
		{ClipRect: fullClip(), Mesh: quadMesh(ManagedTexture(0), 0, 0)},
		{ClipRect: fullClip(), Mesh: quadMesh(ManagedTexture(1), 0, 0)},
	}
	f := PrepareFrame(prims, FrameParams{PixelsPerPoint: 1, Viewport: Size{10, 10}})
	got := f.Textures()
	if len(got) != 2 || got[0] != ManagedTexture(1) || got[1] != ManagedTexture(0) {
		t.Errorf("Textures() = %v", got)
	}
}

func TestGrowCapacity(t *testing.T) {
	tests := []struct {
		current, need, want uint64
	}{
		{0, 0, 0},
		{0, 1, 1},
		{0, 5, 8},
		{0, 8, 8},
		{8, 9, 16},
		{16, 9, 16},
		{64, 1000, 1024},
		{3, 3, 3},
	}
	for _, tt := range tests {
		if got := GrowCapacity(tt.current, tt.need); got != tt.want {
			t.Errorf("GrowCapacity(%d, %d) = %d, want %d", tt.current, tt.need, got, tt.want)
		}
	}
}
