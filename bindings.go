package guipaint

import "sort"

// TextureBinding locates a texture in a BindingPlan.
type TextureBinding struct {
	// Group indexes BindingPlan.Groups.
	Group int
	// Offset is the slot inside the group's texture array. Always zero
	// without bindless.
	Offset uint32
}

// BindingPlan assigns textures to texture bind groups.
type BindingPlan struct {
	// Slots is the bindless array size; zero means one texture per group.
	Slots uint32
	// Groups lists the textures of each bind group in slot order.
	Groups [][]TextureID
	// Bindings maps every planned texture to its group and slot.
	Bindings map[TextureID]TextureBinding
}

// Bindless reports whether the plan packs several textures per group.
func (p BindingPlan) Bindless() bool {
	return p.Slots > 0
}

// Lookup returns the binding of id.
func (p BindingPlan) Lookup(id TextureID) (TextureBinding, bool) {
	b, ok := p.Bindings[id]
	return b, ok
}

// PlanBindings assigns ids to bind groups. With slots == 0 every texture
// gets its own group. Otherwise ids are chunked into groups of slots
// textures and each texture's offset is its index within the chunk.
// Duplicates are ignored and ids are sorted first so that the same set of
// textures always yields the same plan.
func PlanBindings(ids []TextureID, slots uint32) BindingPlan {
	sorted := make([]TextureID, 0, len(ids))
	seen := make(map[TextureID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		sorted = append(sorted, id)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })

	plan := BindingPlan{
		Slots:    slots,
		Bindings: make(map[TextureID]TextureBinding, len(sorted)),
	}
	chunk := 1
	if slots > 0 {
		chunk = int(slots)
	}
	for start := 0; start < len(sorted); start += chunk {
		group := sorted[start:min(start+chunk, len(sorted))]
		gi := len(plan.Groups)
		plan.Groups = append(plan.Groups, group)
		for off, id := range group {
			plan.Bindings[id] = TextureBinding{Group: gi, Offset: uint32(off)} //nolint:gosec // off < slots
		}
	}
	return plan
}
