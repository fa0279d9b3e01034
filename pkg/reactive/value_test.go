package reactive

import "testing"

func TestValueSetPublishes(t *testing.T) {
	v := NewValue(Sync(), "red")
	var evs []Event[string, *Value[string]]
	if _, err := v.Subscribe(func(ev Event[string, *Value[string]]) { evs = append(evs, ev) }); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if !v.Set("blue") {
		t.Fatalf("change must report true")
	}
	if v.Get() != "blue" {
		t.Fatalf("value not applied")
	}
	if len(evs) != 1 {
		t.Fatalf("want one update event, got %d", len(evs))
	}
	ev := evs[0]
	if ev.OldEntities[v.ID()].Get() != "red" || ev.Entities[v.ID()].Get() != "blue" {
		t.Fatalf("before/after wrong: %v -> %v", ev.OldEntities[v.ID()], ev.Entities[v.ID()])
	}
}

func TestValueSetSameIsSilent(t *testing.T) {
	v := NewValue(Sync(), 42)
	calls := 0
	if _, err := v.Subscribe(func(Event[string, *Value[int]]) { calls++ }); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if v.Set(42) {
		t.Fatalf("same value must be a no-op")
	}
	if calls != 0 {
		t.Fatalf("no event expected")
	}
}

func TestValueIDsAreUnique(t *testing.T) {
	a := NewValue(Sync(), 0)
	b := NewValue(Sync(), 0)
	if a.ID() == b.ID() {
		t.Fatalf("generated ids collide: %s", a.ID())
	}
	if a.UniqueID() != a.ID() {
		t.Fatalf("value unique id equals its id")
	}
}
