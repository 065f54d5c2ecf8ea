package main

import (
	"image"
	stdcolor "image/color"

	"github.com/gogpu/guipaint"
)

// demoFrame is one GUI frame's worth of output: primitives, the texture
// changes they depend on, and where to resolve user textures.
type demoFrame struct {
	prims  []guipaint.ClippedPrimitive
	delta  guipaint.TexturesDelta
	params guipaint.FrameParams
	users  *guipaint.UserTextures[*guipaint.UserImage]
}

const fontTexture = 0

// gradientImage returns a premultiplied color image fading from a to b
// horizontally and to transparent vertically.
func gradientImage(w, h int, a, b guipaint.Color32) *guipaint.ColorImage {
	img := guipaint.NewColorImage(w, h)
	for y := 0; y < h; y++ {
		fade := 1 - float32(y)/float32(h)
		for x := 0; x < w; x++ {
			t := float32(x) / float32(w-1)
			var c guipaint.Color32
			for i := range c {
				v := (float32(a[i])*(1-t) + float32(b[i])*t) * fade
				c[i] = uint8(v + 0.5)
			}
			img.Pixels[y*w+x] = c
		}
	}
	return img
}

// buildDemo lays out a small window with a title bar, three buttons, a
// label, a user image and a custom painted swatch.
func buildDemo(cfg Config, atlas *fontAtlas) *demoFrame {
	ppp := cfg.PixelsPerPoint
	w := float32(cfg.Width) / ppp
	h := float32(cfg.Height) / ppp
	font := guipaint.ManagedTexture(fontTexture)
	screen := guipaint.RectFromSize(0, 0, w, h)

	users := guipaint.NewUserTextures[*guipaint.UserImage]()
	gradient := &guipaint.UserImage{Texture: guipaint.Texture{
		Image: gradientImage(64, 64, guipaint.RGBA(230, 90, 40, 255), guipaint.RGBA(40, 120, 230, 255)).NRGBA(),
	}}
	gradientID := users.Add(gradient)

	d := &demoFrame{
		params: guipaint.FrameParams{
			PixelsPerPoint: ppp,
			Viewport:       guipaint.Size{Width: uint32(cfg.Width), Height: uint32(cfg.Height)}, //nolint:gosec // validated
		},
		delta: guipaint.TexturesDelta{Set: []guipaint.TextureSet{{
			ID:    font,
			Delta: guipaint.ImageDelta{Image: atlas.image, Options: guipaint.TextureNearest},
		}}},
		users: users,
	}

	// Window frame and title bar.
	win := guipaint.RectFromSize(16, 16, w-32, h-32)
	frame := &guipaint.Mesh{Texture: font}
	atlas.solidRect(frame, win, guipaint.RGBA(40, 40, 44, 255))
	atlas.solidRect(frame, guipaint.RectFromSize(win.Min[0], win.Min[1], win.Width(), 22), guipaint.RGBA(58, 62, 74, 255))
	border := guipaint.Gray(90)
	atlas.solidRect(frame, guipaint.RectFromSize(win.Min[0], win.Min[1], win.Width(), 1), border)
	atlas.solidRect(frame, guipaint.RectFromSize(win.Min[0], win.Max[1]-1, win.Width(), 1), border)
	atlas.solidRect(frame, guipaint.RectFromSize(win.Min[0], win.Min[1], 1, win.Height()), border)
	atlas.solidRect(frame, guipaint.RectFromSize(win.Max[0]-1, win.Min[1], 1, win.Height()), border)
	atlas.textMesh(frame, [2]float32{win.Min[0] + 8, win.Min[1] + 5}, "guipaint demo", guipaint.Gray(230))
	d.prims = append(d.prims, guipaint.ClippedPrimitive{ClipRect: screen, Mesh: frame})

	content := guipaint.Rect{
		Min: [2]float32{win.Min[0] + 1, win.Min[1] + 22},
		Max: [2]float32{win.Max[0] - 1, win.Max[1] - 1},
	}

	// Buttons; the second one is hovered and gets a translucent highlight.
	buttons := &guipaint.Mesh{Texture: font}
	x := content.Min[0] + 12
	y := content.Min[1] + 12
	for i, label := range []string{"Open", "Save", "Quit"} {
		bw := float32(len(label))*7 + 20
		r := guipaint.RectFromSize(x, y, bw, 24)
		atlas.solidRect(buttons, r, guipaint.RGBA(70, 74, 86, 255))
		if i == 1 {
			atlas.solidRect(buttons, r, guipaint.RGBA(30, 50, 80, 96))
		}
		atlas.textMesh(buttons, [2]float32{x + 10, y + 6}, label, guipaint.White)
		x += bw + 8
	}
	label := &guipaint.Mesh{Texture: font}
	atlas.textMesh(label, [2]float32{content.Min[0] + 12, y + 40}, "Texts are sampled from a coverage atlas.", guipaint.Gray(180))
	d.prims = append(d.prims,
		guipaint.ClippedPrimitive{ClipRect: content, Mesh: buttons},
		guipaint.ClippedPrimitive{ClipRect: content, Mesh: label},
	)

	// User image, clipped to the left half of its own rectangle.
	img := &guipaint.Mesh{Texture: gradientID}
	imgRect := guipaint.RectFromSize(content.Min[0]+12, y+64, 128, 96)
	img.AddRect(imgRect, guipaint.Rect{Max: [2]float32{1, 1}}, guipaint.White)
	clip := imgRect
	clip.Max[0] = imgRect.Min[0] + imgRect.Width()/2
	d.prims = append(d.prims, guipaint.ClippedPrimitive{ClipRect: clip, Mesh: img})

	// Custom painted checkerboard, drawn straight into the target.
	swatch := guipaint.RectFromSize(imgRect.Max[0]+16, imgRect.Min[1], 96, 96)
	d.prims = append(d.prims, guipaint.ClippedPrimitive{
		ClipRect: content,
		Callback: &guipaint.PaintCallback{Rect: swatch, Paint: paintChecker},
	})

	// Overlay drawn after the callback, half over the swatch.
	overlay := &guipaint.Mesh{Texture: font}
	atlas.solidRect(overlay, guipaint.RectFromSize(swatch.Min[0]+48, swatch.Min[1]+48, 64, 24), guipaint.RGBA(0, 96, 48, 160))
	atlas.textMesh(overlay, [2]float32{swatch.Min[0] + 52, swatch.Min[1] + 54}, "over", guipaint.White)
	d.prims = append(d.prims, guipaint.ClippedPrimitive{ClipRect: content, Mesh: overlay})
	return d
}

// paintChecker fills the callback viewport with an 8 pixel checkerboard
// when the target is a CPU image.
func paintChecker(info guipaint.CallbackInfo) {
	dst, ok := info.Target.(*image.RGBA)
	if !ok {
		return
	}
	vp, sc := info.Viewport, info.Scissor
	r := image.Rect(int(vp.X), int(vp.Y), int(vp.X+vp.W), int(vp.Y+vp.H)).
		Intersect(image.Rect(int(sc.X), int(sc.Y), int(sc.X+sc.W), int(sc.Y+sc.H))).
		Intersect(dst.Bounds())
	light := stdcolor.RGBA{R: 200, G: 200, B: 200, A: 255}
	dark := stdcolor.RGBA{R: 90, G: 90, B: 90, A: 255}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c := dark
			if ((x-int(vp.X))/8+(y-int(vp.Y))/8)%2 == 0 {
				c = light
			}
			dst.SetRGBA(x, y, c)
		}
	}
}
