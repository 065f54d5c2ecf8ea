package guipaint

import "testing"

func TestPlanBindingsSingle(t *testing.T) {
	ids := []TextureID{UserTexture(1), ManagedTexture(2), ManagedTexture(0), ManagedTexture(2)}
	plan := PlanBindings(ids, 0)

	if plan.Bindless() {
		t.Error("Bindless() with zero slots")
	}
	if len(plan.Groups) != 3 {
		t.Fatalf("len(Groups) = %d, want 3", len(plan.Groups))
	}
	want := []TextureID{ManagedTexture(0), ManagedTexture(2), UserTexture(1)}
	for i, w := range want {
		b, ok := plan.Lookup(w)
		if !ok || b.Group != i || b.Offset != 0 {
			t.Errorf("Lookup(%v) = %+v, %v; want group %d offset 0", w, b, ok, i)
		}
	}
}

func TestPlanBindingsBindless(t *testing.T) {
	var ids []TextureID
	for i := uint64(0); i < 5; i++ {
		ids = append(ids, ManagedTexture(4-i))
	}
	plan := PlanBindings(ids, 2)

	if !plan.Bindless() {
		t.Error("Bindless() = false")
	}
	if len(plan.Groups) != 3 {
		t.Fatalf("len(Groups) = %d, want 3", len(plan.Groups))
	}
	tests := []struct {
		id     TextureID
		group  int
		offset uint32
	}{
		{ManagedTexture(0), 0, 0},
		{ManagedTexture(1), 0, 1},
		{ManagedTexture(2), 1, 0},
		{ManagedTexture(3), 1, 1},
		{ManagedTexture(4), 2, 0},
	}
	for _, tt := range tests {
		b, ok := plan.Lookup(tt.id)
		if !ok || b.Group != tt.group || b.Offset != tt.offset {
			t.Errorf("Lookup(%v) = %+v, want {%d %d}", tt.id, b, tt.group, tt.offset)
		}
		if plan.Groups[b.Group][b.Offset] != tt.id {
			t.Errorf("Groups[%d][%d] = %v, want %v", b.Group, b.Offset, plan.Groups[b.Group][b.Offset], tt.id)
		}
	}
}

func TestPlanBindingsDeterministic(t *testing.T) {
	a := PlanBindings([]TextureID{ManagedTexture(3), UserTexture(0), ManagedTexture(1)}, 4)
	b := PlanBindings([]TextureID{ManagedTexture(1), ManagedTexture(3), UserTexture(0)}, 4)
	for id, ba := range a.Bindings {
		if bb := b.Bindings[id]; ba != bb {
			t.Errorf("%v: %+v vs %+v", id, ba, bb)
		}
	}
}

func TestPlanBindingsEmpty(t *testing.T) {
	plan := PlanBindings(nil, 8)
	if len(plan.Groups) != 0 || len(plan.Bindings) != 0 {
		t.Errorf("plan = %+v", plan)
	}
}
