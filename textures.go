package guipaint

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"math"
	"sort"
	"sync"

	"github.com/gogpu/guipaint/internal/color"
)

// Texture management errors.
var (
	// ErrPartialUpdateMissing is reported when a delta patches a texture
	// that was never set for the target.
	ErrPartialUpdateMissing = errors.New("guipaint: partial update of a missing texture")

	// ErrPartialUpdateBounds is reported when a patch does not fit inside
	// the texture it updates.
	ErrPartialUpdateBounds = errors.New("guipaint: partial update out of bounds")
)

// FontGamma is the exponent applied to font coverage before it becomes
// alpha. Values below 1 make thin glyph edges more opaque.
const FontGamma = 0.55

// Filter is a texture sampling filter.
type Filter uint8

const (
	FilterLinear Filter = iota
	FilterNearest
)

// WrapMode tells how texture coordinates outside [0,1] are resolved.
type WrapMode uint8

const (
	WrapClampToEdge WrapMode = iota
	WrapRepeat
	WrapMirroredRepeat
)

// TextureOptions selects the sampler used for a texture.
// The zero value is linear filtering with clamp-to-edge wrapping.
type TextureOptions struct {
	Magnification Filter
	Minification  Filter
	Wrap          WrapMode
}

// Common texture options.
var (
	TextureLinear  = TextureOptions{}
	TextureNearest = TextureOptions{Magnification: FilterNearest, Minification: FilterNearest}
)

// ImageData is the pixel payload of an ImageDelta: a *ColorImage or a
// *FontImage.
type ImageData interface {
	// Size returns the image width and height in pixels.
	Size() (int, int)
	// NRGBA converts the image to unmultiplied sRGB bytes, the layout GUI
	// textures are uploaded in.
	NRGBA() *image.NRGBA
}

// ColorImage is an sRGB image with premultiplied alpha, row-major.
type ColorImage struct {
	Width, Height int
	Pixels        []Color32
}

// NewColorImage returns a transparent image of the given size.
func NewColorImage(w, h int) *ColorImage {
	return &ColorImage{Width: w, Height: h, Pixels: make([]Color32, w*h)}
}

// Size implements ImageData.
func (c *ColorImage) Size() (int, int) { return c.Width, c.Height }

// NRGBA implements ImageData by unmultiplying every pixel.
func (c *ColorImage) NRGBA() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, c.Width, c.Height))
	for i, p := range c.Pixels {
		o := i * 4
		img.Pix[o], img.Pix[o+1], img.Pix[o+2], img.Pix[o+3] = color.Unmultiply(p[0], p[1], p[2], p[3])
	}
	return img
}

// FontImage is a single channel coverage image in [0,1], row-major.
type FontImage struct {
	Width, Height int
	Coverage      []float32
}

// NewFontImage returns an empty coverage image of the given size.
func NewFontImage(w, h int) *FontImage {
	return &FontImage{Width: w, Height: h, Coverage: make([]float32, w*h)}
}

// Size implements ImageData.
func (f *FontImage) Size() (int, int) { return f.Width, f.Height }

// NRGBA implements ImageData. Each texel becomes white with alpha
// coverage^FontGamma; fully uncovered texels are transparent black.
func (f *FontImage) NRGBA() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, f.Width, f.Height))
	for i, c := range f.Coverage {
		a := color.ToByte(float32(math.Pow(float64(max(c, 0)), FontGamma)))
		if a == 0 {
			continue
		}
		o := i * 4
		img.Pix[o], img.Pix[o+1], img.Pix[o+2], img.Pix[o+3] = 255, 255, 255, a
	}
	return img
}

// ImageDelta creates or patches one texture.
type ImageDelta struct {
	Image ImageData
	// Pos is the top-left corner of a partial update. Nil replaces the
	// whole texture.
	Pos     *image.Point
	Options TextureOptions
}

// TextureSet is one entry of TexturesDelta.Set.
type TextureSet struct {
	ID    TextureID
	Delta ImageDelta
}

// TexturesDelta is the texture part of a GUI frame output. Sets are
// applied before frees.
type TexturesDelta struct {
	Set  []TextureSet
	Free []TextureID
}

// Texture is a resolved texture: unmultiplied sRGB pixels and the options
// to sample them with.
type Texture struct {
	Image   *image.NRGBA
	Options TextureOptions
}

// TextureSource resolves texture ids at draw time.
type TextureSource interface {
	Texture(id TextureID) (Texture, bool)
}

type managedKey struct {
	target uint64
	id     uint64
}

// TextureManager keeps the CPU copy of every GUI-managed texture, keyed by
// render target and texture id, and records which ones changed since the
// renderer last synchronized.
//
// TextureManager is safe for concurrent use.
type TextureManager struct {
	mu       sync.RWMutex
	textures map[managedKey]Texture
	updated  map[managedKey]struct{}
	freed    map[managedKey]struct{}
}

// NewTextureManager returns an empty manager.
func NewTextureManager() *TextureManager {
	return &TextureManager{
		textures: make(map[managedKey]Texture),
		updated:  make(map[managedKey]struct{}),
		freed:    make(map[managedKey]struct{}),
	}
}

// Apply applies a frame's texture delta for target. Sets of user textures
// are ignored: the host owns those. A partial update that cannot be applied
// is logged and skipped; the returned error joins every such failure and
// the rest of the delta is still applied.
func (m *TextureManager) Apply(target uint64, delta TexturesDelta) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for _, set := range delta.Set {
		if set.ID.Kind != TextureManaged || set.Delta.Image == nil {
			continue
		}
		key := managedKey{target: target, id: set.ID.ID}
		if err := m.setLocked(key, set.Delta); err != nil {
			Logger().Warn("guipaint: texture update skipped",
				"target", target, "texture", set.ID, "err", err)
			errs = append(errs, err)
			continue
		}
		m.updated[key] = struct{}{}
		delete(m.freed, key)
	}

	for _, id := range delta.Free {
		if id.Kind != TextureManaged {
			continue
		}
		key := managedKey{target: target, id: id.ID}
		if _, ok := m.textures[key]; !ok {
			continue
		}
		delete(m.textures, key)
		delete(m.updated, key)
		m.freed[key] = struct{}{}
	}
	return errors.Join(errs...)
}

func (m *TextureManager) setLocked(key managedKey, d ImageDelta) error {
	if d.Pos == nil {
		m.textures[key] = Texture{Image: d.Image.NRGBA(), Options: d.Options}
		return nil
	}

	tex, ok := m.textures[key]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrPartialUpdateMissing, key.id)
	}
	w, h := d.Image.Size()
	dst := image.Rectangle{Min: *d.Pos, Max: d.Pos.Add(image.Pt(w, h))}
	if !dst.In(tex.Image.Bounds()) {
		return fmt.Errorf("%w: %v in %v", ErrPartialUpdateBounds, dst, tex.Image.Bounds())
	}
	draw.Draw(tex.Image, dst, d.Image.NRGBA(), image.Point{}, draw.Src)
	tex.Options = d.Options
	m.textures[key] = tex
	return nil
}

// Texture returns the managed texture id of target.
func (m *TextureManager) Texture(target, id uint64) (Texture, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.textures[managedKey{target: target, id: id}]
	return t, ok
}

// Len returns the number of live managed textures across all targets.
func (m *TextureManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.textures)
}

// Dirty returns the textures of target set or patched, and those freed,
// since the last MarkClean. Both lists are sorted.
func (m *TextureManager) Dirty(target uint64) (updated, freed []TextureID) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	collect := func(set map[managedKey]struct{}) []TextureID {
		var ids []TextureID
		for k := range set {
			if k.target == target {
				ids = append(ids, ManagedTexture(k.id))
			}
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
		return ids
	}
	return collect(m.updated), collect(m.freed)
}

// MarkClean forgets the pending changes of target.
func (m *TextureManager) MarkClean(target uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.updated {
		if k.target == target {
			delete(m.updated, k)
		}
	}
	for k := range m.freed {
		if k.target == target {
			delete(m.freed, k)
		}
	}
}

// Source returns a TextureSource resolving managed ids of target through m
// and user ids through user, which may be nil.
func (m *TextureManager) Source(target uint64, user TextureSource) TextureSource {
	return &targetSource{m: m, target: target, user: user}
}

type targetSource struct {
	m      *TextureManager
	target uint64
	user   TextureSource
}

func (s *targetSource) Texture(id TextureID) (Texture, bool) {
	if id.Kind == TextureManaged {
		return s.m.Texture(s.target, id.ID)
	}
	if s.user == nil {
		return Texture{}, false
	}
	return s.user.Texture(id)
}
