// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package hostgpu paints GUI frames on a GPU device shared by a host
// application.
//
// The host hands over its device through a gpucontext.DeviceProvider that
// also exposes the underlying HAL objects:
//
//	HalDevice() any // hal.Device
//	HalQueue() any  // hal.Queue
//
// A Painter owns the texture state of one render target and a gpu.Renderer
// built for the provider's surface format. The data flow per frame is:
//
//	TexturesDelta.Set -> upload -> draw primitives -> TexturesDelta.Free
//
// # Usage
//
//	p, err := hostgpu.New(app.GPUContextProvider())
//	if err != nil {
//		return err
//	}
//	defer p.Close()
//
//	// Every frame:
//	err = p.Paint(view, output.Primitives, params, output.Textures, &clear)
//
// Host textures are drawn by registering their views:
//
//	id, err := p.RegisterView(view, guipaint.TextureLinear)
//	mesh.Texture = id
package hostgpu
