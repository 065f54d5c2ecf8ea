// Package guipaint paints the output of an immediate-mode GUI library onto a
// render target.
//
// # Overview
//
// A GUI frame arrives as a list of clipped primitives: indexed triangle
// meshes with per-vertex position, texture coordinate and sRGB color, plus
// optional paint callbacks, together with a texture delta describing which
// GUI textures were created, patched or freed. guipaint turns this into
// draw commands and shades every fragment with one fixed formula:
//
//	out.rgb = linear(gamma(sample.rgb) * color.rgb)
//	out.a   = sample.a * color.a
//
// where sample is the linear texture sample and color is the vertex color
// interpolated in gamma space. The GUI library authors its colors in gamma
// space, so blending them there keeps the output identical to its own
// reference renderer.
//
// # Packages
//
//   - guipaint: mesh data model, Transform, Shade, PrepareFrame, texture
//     bookkeeping, bind-group planning
//   - shader: the WGSL program, its variants and naga compilation
//   - raster: CPU renderer evaluating the shading contract per pixel
//   - gpu: WebGPU HAL renderer (build tag !nogpu)
//   - integration/hostgpu: drawing into a host application's GPU device
//   - cmd/guipaint: demo renderer and shader dump tool
//
// # Quick Start
//
//	frame := guipaint.PrepareFrame(prims, guipaint.FrameParams{
//	    PixelsPerPoint: 2,
//	    Viewport:       guipaint.Size{Width: 1600, Height: 1200},
//	})
//	r, err := raster.New()
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//	img := raster.NewTarget(frame.Params.Viewport)
//	err = r.Render(img, frame, manager.Source(0, nil))
package guipaint
