package guipaint

import "sync"

// UserTextures assigns GUI texture ids to host-owned textures of handle
// type H. Released ids are reused before new ones are minted.
//
// UserTextures is safe for concurrent use.
type UserTextures[H comparable] struct {
	mu       sync.Mutex
	ids      map[H]uint64
	handles  map[uint64]H
	freeList []uint64
}

// NewUserTextures returns an empty registry. The first id handed out is 0.
func NewUserTextures[H comparable]() *UserTextures[H] {
	return &UserTextures[H]{
		ids:      make(map[H]uint64),
		handles:  make(map[uint64]H),
		freeList: []uint64{0},
	}
}

// Add registers h and returns its texture id. Adding a handle twice returns
// the id it already has.
func (u *UserTextures[H]) Add(h H) TextureID {
	u.mu.Lock()
	defer u.mu.Unlock()

	if id, ok := u.ids[h]; ok {
		return UserTexture(id)
	}
	last := len(u.freeList) - 1
	id := u.freeList[last]
	u.freeList = u.freeList[:last]
	if len(u.freeList) == 0 {
		u.freeList = append(u.freeList, id+1)
	}
	u.ids[h] = id
	u.handles[id] = h
	return UserTexture(id)
}

// Remove unregisters h and returns the id it had.
func (u *UserTextures[H]) Remove(h H) (TextureID, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()

	id, ok := u.ids[h]
	if !ok {
		return TextureID{}, false
	}
	delete(u.ids, h)
	delete(u.handles, id)
	u.freeList = append(u.freeList, id)
	return UserTexture(id), true
}

// ID returns the texture id of h.
func (u *UserTextures[H]) ID(h H) (TextureID, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	id, ok := u.ids[h]
	if !ok {
		return TextureID{}, false
	}
	return UserTexture(id), true
}

// Handle returns the handle registered under id.
func (u *UserTextures[H]) Handle(id TextureID) (H, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	var zero H
	if id.Kind != TextureUser {
		return zero, false
	}
	h, ok := u.handles[id.ID]
	return h, ok
}

// Len returns the number of registered handles.
func (u *UserTextures[H]) Len() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.ids)
}

// UserImage is a host image registered as a user texture.
type UserImage struct {
	Texture
}

// UserImageSource adapts a registry of host images to a TextureSource.
func UserImageSource(u *UserTextures[*UserImage]) TextureSource {
	return userImageSource{u}
}

type userImageSource struct {
	u *UserTextures[*UserImage]
}

func (s userImageSource) Texture(id TextureID) (Texture, bool) {
	img, ok := s.u.Handle(id)
	if !ok || img == nil {
		return Texture{}, false
	}
	return img.Texture, true
}
