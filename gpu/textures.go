//go:build !nogpu

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/guipaint"
	"github.com/gogpu/wgpu/hal"
)

// gpuTexture is a texture the pipeline can bind. Managed textures own their
// texture and view; user textures registered by view only own the bind group.
type gpuTexture struct {
	texture hal.Texture
	view    hal.TextureView
	group   hal.BindGroup
	size    image.Point
	options guipaint.TextureOptions
}

func (r *Renderer) destroyTexture(t *gpuTexture) {
	if t.group != nil {
		r.device.DestroyBindGroup(t.group)
	}
	if t.texture == nil {
		return
	}
	if t.view != nil {
		r.device.DestroyTextureView(t.view)
	}
	r.device.DestroyTexture(t.texture)
}

// SyncTextures uploads the managed textures of the renderer's target that
// changed in m since the last sync, and releases the ones freed.
func (r *Renderer) SyncTextures(m *guipaint.TextureManager) error {
	if m == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	updated, freed := m.Dirty(r.opts.target)
	for _, id := range freed {
		r.freeLocked(id)
	}

	var errs []error
	for _, id := range updated {
		tex, ok := m.Texture(r.opts.target, id.ID)
		if !ok {
			continue
		}
		if err := r.uploadLocked(id, tex); err != nil {
			guipaint.Logger().Warn("gpu: texture upload failed", "texture", id, "err", err)
			errs = append(errs, err)
		}
	}
	m.MarkClean(r.opts.target)
	if len(updated)+len(freed) > 0 {
		guipaint.Logger().Debug("gpu: textures synced",
			"updated", len(updated), "freed", len(freed), "live", len(r.textures))
	}
	return errors.Join(errs...)
}

// UploadTexture uploads tex under id, replacing any texture already there.
// Use it for user textures backed by CPU images.
func (r *Renderer) UploadTexture(id guipaint.TextureID, tex guipaint.Texture) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.uploadLocked(id, tex)
}

// RegisterView binds a host owned texture view as the user texture id. The
// renderer never destroys view.
func (r *Renderer) RegisterView(id guipaint.TextureID, view hal.TextureView, opts guipaint.TextureOptions) error {
	if view == nil {
		return ErrNilView
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	group, err := r.textureBindGroup(view, opts)
	if err != nil {
		return err
	}
	r.freeLocked(id)
	r.textures[id] = &gpuTexture{view: view, group: group, options: opts}
	return nil
}

// FreeTexture releases the GPU resources of id.
func (r *Renderer) FreeTexture(id guipaint.TextureID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.freeLocked(id)
}

// HasTexture reports whether id can be drawn.
func (r *Renderer) HasTexture(id guipaint.TextureID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.textures[id]
	return ok
}

// TextureCount returns the number of bound textures.
func (r *Renderer) TextureCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.textures)
}

func (r *Renderer) freeLocked(id guipaint.TextureID) {
	if t, ok := r.textures[id]; ok {
		r.destroyTexture(t)
		delete(r.textures, id)
	}
}

// uploadLocked writes tex to the GPU. A texture of the same size is written
// in place; the bind group is rebuilt only when the sampler changes.
func (r *Renderer) uploadLocked(id guipaint.TextureID, tex guipaint.Texture) error {
	img := tex.Image
	if img == nil || img.Rect.Empty() {
		return fmt.Errorf("%w: %s", ErrEmptyTexture, id)
	}
	size := img.Rect.Size()

	t, ok := r.textures[id]
	if ok && (t.texture == nil || t.size != size) {
		r.freeLocked(id)
		ok = false
	}
	if !ok {
		created, err := r.createTexture(id, size)
		if err != nil {
			return err
		}
		t = created
		r.textures[id] = t
	}

	if err := r.writePixels(t.texture, img); err != nil {
		return err
	}

	if t.group == nil || t.options != tex.Options {
		group, err := r.textureBindGroup(t.view, tex.Options)
		if err != nil {
			return err
		}
		if t.group != nil {
			r.device.DestroyBindGroup(t.group)
		}
		t.group = group
		t.options = tex.Options
	}
	return nil
}

// createTexture allocates an Rgba8UnormSrgb texture. The sampler decodes
// texels to linear light.
func (r *Renderer) createTexture(id guipaint.TextureID, size image.Point) (*gpuTexture, error) {
	texture, err := r.device.CreateTexture(&hal.TextureDescriptor{
		Label: r.label("texture_" + id.String()),
		Size: hal.Extent3D{
			Width:              uint32(size.X), //nolint:gosec // image bounds are non-negative
			Height:             uint32(size.Y), //nolint:gosec // image bounds are non-negative
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8UnormSrgb,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create texture %s: %w", id, err)
	}
	view, err := r.device.CreateTextureView(texture, &hal.TextureViewDescriptor{
		Label:         r.label("texture_view_" + id.String()),
		Format:        gputypes.TextureFormatRGBA8UnormSrgb,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		r.device.DestroyTexture(texture)
		return nil, fmt.Errorf("create texture view %s: %w", id, err)
	}
	return &gpuTexture{texture: texture, view: view, size: size}, nil
}

func (r *Renderer) writePixels(texture hal.Texture, img *image.NRGBA) error {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	pix := img.Pix
	if img.Stride != 4*w || img.Rect.Min != (image.Point{}) {
		pix = make([]byte, 4*w*h)
		for y := 0; y < h; y++ {
			row := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
			copy(pix[y*4*w:(y+1)*4*w], img.Pix[row:row+4*w])
		}
	}
	err := r.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: texture, Aspect: gputypes.TextureAspectAll},
		pix,
		&hal.ImageDataLayout{BytesPerRow: uint32(4 * w), RowsPerImage: uint32(h)}, //nolint:gosec // image bounds are non-negative
		&hal.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1}, //nolint:gosec // image bounds are non-negative
	)
	if err != nil {
		return fmt.Errorf("write texture: %w", err)
	}
	return nil
}

func (r *Renderer) textureBindGroup(view hal.TextureView, opts guipaint.TextureOptions) (hal.BindGroup, error) {
	s, err := r.sampler(opts)
	if err != nil {
		return nil, err
	}
	group, err := r.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  r.label("texture_bind"),
		Layout: r.textureLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.TextureViewBinding{TextureView: view.NativeHandle()}},
			{Binding: 1, Resource: gputypes.SamplerBinding{Sampler: s.NativeHandle()}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create texture bind group: %w", err)
	}
	return group, nil
}
