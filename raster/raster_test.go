package raster

import (
	"bytes"
	"errors"
	"image"
	stdcolor "image/color"
	"testing"

	"github.com/gogpu/guipaint"
	"github.com/gogpu/guipaint/shader"
)

type mapSource map[guipaint.TextureID]guipaint.Texture

func (m mapSource) Texture(id guipaint.TextureID) (guipaint.Texture, bool) {
	t, ok := m[id]
	return t, ok
}

func solidTexture(r, g, b, a uint8) guipaint.Texture {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.SetNRGBA(0, 0, stdcolor.NRGBA{R: r, G: g, B: b, A: a})
	return guipaint.Texture{Image: img}
}

func quad(tex guipaint.TextureID, x, y, w, h float32, c guipaint.Color32) *guipaint.Mesh {
	m := &guipaint.Mesh{Texture: tex}
	m.AddRect(guipaint.RectFromSize(x, y, w, h), guipaint.Rect{Max: [2]float32{1, 1}}, c)
	return m
}

func everywhere() guipaint.Rect {
	return guipaint.RectFromSize(0, 0, 1e4, 1e4)
}

func prepare(size uint32, prims ...guipaint.ClippedPrimitive) *guipaint.Frame {
	return guipaint.PrepareFrame(prims, guipaint.FrameParams{
		PixelsPerPoint: 1,
		Viewport:       guipaint.Size{Width: size, Height: size},
	})
}

func newRenderer(t *testing.T, opts ...Option) *Renderer {
	t.Helper()
	r, err := New(opts...)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(r.Close)
	return r
}

func render(t *testing.T, r *Renderer, f *guipaint.Frame, src guipaint.TextureSource) *image.RGBA {
	t.Helper()
	dst := NewTarget(f.Params.Viewport)
	if err := r.Render(dst, f, src); err != nil {
		t.Fatal(err)
	}
	return dst
}

func pixel(img *image.RGBA, x, y int) [4]uint8 {
	c := img.RGBAAt(x, y)
	return [4]uint8{c.R, c.G, c.B, c.A}
}

var white = guipaint.ManagedTexture(0)

func whiteSource() mapSource {
	return mapSource{white: solidTexture(255, 255, 255, 255)}
}

func TestRenderWhiteTexelGrayVertex(t *testing.T) {
	r := newRenderer(t)
	f := prepare(8, guipaint.ClippedPrimitive{ClipRect: everywhere(), Mesh: quad(white, 0, 0, 8, 8, guipaint.Gray(128))})
	img := render(t, r, f, whiteSource())

	// Gray 128 is 0.216 in linear light and encodes back to 128.
	for _, p := range [][2]int{{0, 0}, {3, 4}, {7, 7}} {
		if got := pixel(img, p[0], p[1]); got != [4]uint8{128, 128, 128, 255} {
			t.Errorf("pixel %v = %v, want [128 128 128 255]", p, got)
		}
	}
}

func TestRenderCoverageAndSharedEdge(t *testing.T) {
	r := newRenderer(t)
	// Half transparent red: a pixel blended twice along the shared
	// diagonal would come out darker.
	c := guipaint.RGBA(128, 0, 0, 128)
	f := prepare(8, guipaint.ClippedPrimitive{ClipRect: everywhere(), Mesh: quad(white, 2, 2, 4, 4, c)})
	img := render(t, r, f, whiteSource())

	inside := 0
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			got := pixel(img, x, y)
			in := x >= 2 && x < 6 && y >= 2 && y < 6
			switch {
			case in && got != [4]uint8{128, 0, 0, 128}:
				t.Errorf("pixel (%d,%d) = %v, want [128 0 0 128]", x, y, got)
			case !in && got != [4]uint8{}:
				t.Errorf("pixel (%d,%d) = %v outside the quad", x, y, got)
			case in:
				inside++
			}
		}
	}
	if inside != 16 {
		t.Errorf("covered %d pixels, want 16", inside)
	}
}

func TestRenderWindingIndependent(t *testing.T) {
	r := newRenderer(t)
	cw := quad(white, 0, 0, 8, 8, guipaint.White)
	ccw := quad(white, 0, 0, 8, 8, guipaint.White)
	for i := 0; i < len(ccw.Indices); i += 3 {
		ccw.Indices[i+1], ccw.Indices[i+2] = ccw.Indices[i+2], ccw.Indices[i+1]
	}
	a := render(t, r, prepare(8, guipaint.ClippedPrimitive{ClipRect: everywhere(), Mesh: cw}), whiteSource())
	b := render(t, r, prepare(8, guipaint.ClippedPrimitive{ClipRect: everywhere(), Mesh: ccw}), whiteSource())
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Error("triangle winding changed coverage")
	}
}

func TestRenderScissor(t *testing.T) {
	r := newRenderer(t)
	f := prepare(8, guipaint.ClippedPrimitive{
		ClipRect: guipaint.RectFromSize(0, 0, 3, 8),
		Mesh:     quad(white, 0, 0, 8, 8, guipaint.White),
	})
	img := render(t, r, f, whiteSource())
	if got := pixel(img, 2, 5); got[3] != 255 {
		t.Errorf("pixel inside scissor = %v", got)
	}
	if got := pixel(img, 3, 5); got != [4]uint8{} {
		t.Errorf("pixel outside scissor = %v", got)
	}
}

func TestRenderMissingTextureSkipsDraw(t *testing.T) {
	r := newRenderer(t)
	f := prepare(4,
		guipaint.ClippedPrimitive{ClipRect: everywhere(), Mesh: quad(guipaint.UserTexture(9), 0, 0, 4, 4, guipaint.White)},
		guipaint.ClippedPrimitive{ClipRect: everywhere(), Mesh: quad(white, 0, 0, 2, 4, guipaint.White)},
	)
	img := render(t, r, f, whiteSource())
	if got := pixel(img, 3, 0); got != [4]uint8{} {
		t.Errorf("unbound draw painted %v", got)
	}
	if got := pixel(img, 0, 0); got != [4]uint8{255, 255, 255, 255} {
		t.Errorf("following draw = %v", got)
	}

	empty := render(t, r, f, nil)
	for _, v := range empty.Pix {
		if v != 0 {
			t.Fatal("nil texture source must skip every draw")
		}
	}
}

func TestRenderBlendsOverDestination(t *testing.T) {
	r := newRenderer(t)
	f := prepare(2, guipaint.ClippedPrimitive{ClipRect: everywhere(), Mesh: quad(white, 0, 0, 2, 2, guipaint.Transparent)})
	dst := NewTarget(f.Params.Viewport)
	Clear(dst, guipaint.RGBA(10, 200, 30, 255))
	if err := r.Render(dst, f, whiteSource()); err != nil {
		t.Fatal(err)
	}
	if got := pixel(dst, 1, 1); got != [4]uint8{10, 200, 30, 255} {
		t.Errorf("transparent draw changed destination: %v", got)
	}
}

func TestRenderBindlessMatchesSingle(t *testing.T) {
	src := mapSource{}
	var prims []guipaint.ClippedPrimitive
	colors := [][4]uint8{
		{255, 0, 0, 255}, {0, 255, 0, 255}, {0, 0, 255, 200},
		{90, 90, 20, 255}, {255, 255, 255, 64},
	}
	for i, c := range colors {
		id := guipaint.ManagedTexture(uint64(i))
		if i == 4 {
			id = guipaint.UserTexture(0)
		}
		src[id] = solidTexture(c[0], c[1], c[2], c[3])
		prims = append(prims, guipaint.ClippedPrimitive{
			ClipRect: everywhere(),
			Mesh:     quad(id, float32(i*3), float32(i*2), 9, 7, guipaint.RGBA(200, 180, 160, 230)),
		})
	}
	f := prepare(24, prims...)

	want := render(t, newRenderer(t), f, src)
	for _, slots := range []uint32{1, 2, 3, 8} {
		r := newRenderer(t, WithBindless(slots))
		if !r.Variant().Bindless {
			t.Fatal("WithBindless did not select the bindless variant")
		}
		got := render(t, r, f, src)
		if !bytes.Equal(got.Pix, want.Pix) {
			t.Errorf("bindless(%d) output differs from single binding", slots)
		}
	}
}

func TestRenderWorkerCountIndependent(t *testing.T) {
	var prims []guipaint.ClippedPrimitive
	for i := 0; i < 6; i++ {
		prims = append(prims, guipaint.ClippedPrimitive{
			ClipRect: everywhere(),
			Mesh:     quad(white, float32(i*5), float32(i*7), 30, 11, guipaint.RGBA(uint8(i*40), 100, 200, 180)),
		})
	}
	f := prepare(64, prims...)

	want := render(t, newRenderer(t, WithWorkers(1)), f, whiteSource())
	got := render(t, newRenderer(t, WithWorkers(4), WithMinBandRows(3)), f, whiteSource())
	if !bytes.Equal(got.Pix, want.Pix) {
		t.Error("band-parallel output differs from serial output")
	}
}

func TestRenderCallbackOrder(t *testing.T) {
	r := newRenderer(t)
	blue := stdcolor.RGBA{B: 255, A: 255}
	var info guipaint.CallbackInfo
	calls := 0
	cb := &guipaint.PaintCallback{
		Rect: guipaint.RectFromSize(0, 0, 4, 4),
		Paint: func(ci guipaint.CallbackInfo) {
			calls++
			info = ci
			img := ci.Target.(*image.RGBA)
			for y := 0; y < 4; y++ {
				for x := 0; x < 4; x++ {
					img.SetRGBA(x, y, blue)
				}
			}
		},
	}
	f := prepare(4,
		guipaint.ClippedPrimitive{ClipRect: everywhere(), Mesh: quad(white, 0, 0, 4, 4, guipaint.White)},
		guipaint.ClippedPrimitive{ClipRect: everywhere(), Callback: cb},
		guipaint.ClippedPrimitive{ClipRect: everywhere(), Mesh: quad(white, 0, 0, 2, 4, guipaint.White)},
	)
	img := render(t, r, f, whiteSource())

	if calls != 1 {
		t.Fatalf("callback ran %d times", calls)
	}
	if info.Viewport != (guipaint.URect{W: 4, H: 4}) || info.PixelsPerPoint != 1 {
		t.Errorf("CallbackInfo = %+v", info)
	}
	if got := pixel(img, 3, 0); got != [4]uint8{0, 0, 255, 255} {
		t.Errorf("callback output overwritten: %v", got)
	}
	if got := pixel(img, 0, 0); got != [4]uint8{255, 255, 255, 255} {
		t.Errorf("draw after callback missing: %v", got)
	}
}

func TestRenderRunsPrepareBeforeDrawing(t *testing.T) {
	r := newRenderer(t)
	var events []string
	var before [4]uint8
	cb := &guipaint.PaintCallback{
		Rect: guipaint.RectFromSize(0, 0, 2, 2),
		Prepare: func(ci guipaint.CallbackInfo) {
			events = append(events, "prepare")
			before = pixel(ci.Target.(*image.RGBA), 0, 0)
		},
		Paint: func(guipaint.CallbackInfo) {
			events = append(events, "paint")
		},
	}
	f := prepare(4,
		guipaint.ClippedPrimitive{ClipRect: everywhere(), Mesh: quad(white, 0, 0, 4, 4, guipaint.White)},
		guipaint.ClippedPrimitive{ClipRect: everywhere(), Callback: cb},
	)
	render(t, r, f, whiteSource())

	if len(events) != 2 || events[0] != "prepare" || events[1] != "paint" {
		t.Fatalf("events = %v, want [prepare paint]", events)
	}
	if before != ([4]uint8{}) {
		t.Errorf("Prepare saw a drawn target: %v", before)
	}
}

func TestRenderErrors(t *testing.T) {
	r := newRenderer(t)
	f := prepare(4, guipaint.ClippedPrimitive{ClipRect: everywhere(), Mesh: quad(white, 0, 0, 4, 4, guipaint.White)})

	if err := r.Render(nil, f, whiteSource()); !errors.Is(err, ErrNilTarget) {
		t.Errorf("nil target: %v", err)
	}
	wrong := image.NewRGBA(image.Rect(0, 0, 5, 4))
	if err := r.Render(wrong, f, whiteSource()); !errors.Is(err, ErrTargetSize) {
		t.Errorf("size mismatch: %v", err)
	}
	if err := r.Render(wrong, nil, whiteSource()); err != nil {
		t.Errorf("nil frame: %v", err)
	}
}

func TestNewRejectsEmptyBindless(t *testing.T) {
	if _, err := New(WithBindless(0)); !errors.Is(err, shader.ErrNoSlots) {
		t.Errorf("New(WithBindless(0)) = %v, want ErrNoSlots", err)
	}
}

func TestRenderAfterClose(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatal(err)
	}
	r.Close()
	f := prepare(4, guipaint.ClippedPrimitive{ClipRect: everywhere(), Mesh: quad(white, 0, 0, 4, 4, guipaint.White)})
	img := render(t, r, f, whiteSource())
	if got := pixel(img, 2, 2); got[3] != 255 {
		t.Errorf("pixel = %v after Close", got)
	}
}

func BenchmarkRender(b *testing.B) {
	var prims []guipaint.ClippedPrimitive
	for i := 0; i < 50; i++ {
		prims = append(prims, guipaint.ClippedPrimitive{
			ClipRect: everywhere(),
			Mesh:     quad(white, float32(i*7%400), float32(i*13%300), 120, 40, guipaint.RGBA(40, 40, 40, 240)),
		})
	}
	f := guipaint.PrepareFrame(prims, guipaint.FrameParams{PixelsPerPoint: 1, Viewport: guipaint.Size{Width: 512, Height: 384}})
	r, _ := New()
	defer r.Close()
	dst := NewTarget(f.Params.Viewport)
	src := whiteSource()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = r.Render(dst, f, src)
	}
}
