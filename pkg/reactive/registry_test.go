package reactive

import (
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
)

// person is the entity used across the package tests.
type person struct {
	Key  int    `json:"id"`
	Name string `json:"name"`
	Age  int    `json:"age"`
}

func (p *person) ID() int          { return p.Key }
func (p *person) UniqueID() string { return "person:" + strconv.Itoa(p.Key) }
func (p *person) Clone() *person   { cp := *p; return &cp }
func (p *person) Equal(o *person) bool {
	return o != nil && *p == *o
}

// recordingSubscriber collects events for assertions; delivery must be driven
// by the Sync scheduler for deterministic reads.
type recording struct {
	mu     sync.Mutex
	events []Event[int, *person]
}

func (r *recording) add(ev Event[int, *person]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recording) all() []Event[int, *person] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event[int, *person]{}, r.events...)
}

func newTestRegistry(t *testing.T) (*Registry[int, *person], *recording) {
	t.Helper()
	reg := NewRegistry[int, *person](Sync())
	rec := &recording{}
	sub := NewSubscriber[int, *person]().
		AddOnNextEventAction(rec.add, AllKinds()...)
	if _, err := reg.Subscribe(sub); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	return reg, rec
}

func TestRunForSingleChangePostsOneUpdate(t *testing.T) {
	reg, rec := newTestRegistry(t)
	reg.Insert(&person{Key: 1, Name: "Alice"})

	if !reg.RunForSingle(1, func(p *person) { p.Name = "Bob" }) {
		t.Fatalf("expected change to be reported")
	}
	evs := rec.all()
	if len(evs) != 1 || evs[0].Type != Update {
		t.Fatalf("want exactly one update event, got %v", evs)
	}
	if evs[0].OldEntities[1].Name != "Alice" || evs[0].Entities[1].Name != "Bob" {
		t.Fatalf("old/new mismatch: old=%v new=%v", evs[0].OldEntities[1], evs[0].Entities[1])
	}
}

func TestRunForSingleNoopPostsNothing(t *testing.T) {
	reg, rec := newTestRegistry(t)
	reg.Insert(&person{Key: 1, Name: "Alice"})

	if reg.RunForSingle(1, func(p *person) { p.Name = "Alice" }) {
		t.Fatalf("no-op mutation must report false")
	}
	if reg.RunForSingle(99, func(p *person) { p.Name = "X" }) {
		t.Fatalf("missing id must report false")
	}
	if len(rec.all()) != 0 {
		t.Fatalf("no events expected, got %v", rec.all())
	}
}

func TestRunForManyBatchesExactlyChanged(t *testing.T) {
	reg, rec := newTestRegistry(t)
	reg.Insert(
		&person{Key: 1, Name: "a", Age: 10},
		&person{Key: 2, Name: "b", Age: 40},
		&person{Key: 3, Name: "c", Age: 15},
	)

	// Only the under-18s change.
	changed := reg.RunForMany([]int{1, 2, 3, 99}, func(p *person) {
		if p.Age < 18 {
			p.Age++
		}
	})
	if !changed {
		t.Fatalf("expected changes")
	}
	evs := rec.all()
	if len(evs) != 1 || evs[0].Type != Update {
		t.Fatalf("want one batched update, got %v", evs)
	}
	if len(evs[0].Entities) != 2 {
		t.Fatalf("update must carry exactly the changed entities, got %d", len(evs[0].Entities))
	}
	if _, ok := evs[0].Entities[2]; ok {
		t.Fatalf("unchanged entity leaked into update event")
	}
	if evs[0].OldEntities[1].Age != 10 || evs[0].Entities[1].Age != 11 {
		t.Fatalf("before/after pair wrong: %v -> %v", evs[0].OldEntities[1], evs[0].Entities[1])
	}
}

func TestRunForManyNothingChanged(t *testing.T) {
	reg, rec := newTestRegistry(t)
	reg.Insert(&person{Key: 1, Age: 30})
	if reg.RunForMany([]int{1}, func(p *person) {}) {
		t.Fatalf("expected false when action changes nothing")
	}
	if len(rec.all()) != 0 {
		t.Fatalf("no events expected")
	}
}

func TestRunMatchingPostsReadThenUpdate(t *testing.T) {
	reg, rec := newTestRegistry(t)
	reg.Insert(&person{Key: 1, Age: 10}, &person{Key: 2, Age: 50})

	ok := reg.RunMatching(
		func(p *person) bool { return p.Age < 18 },
		func(p *person) { p.Age = 18 },
	)
	if !ok {
		t.Fatalf("expected a change")
	}
	evs := rec.all()
	if len(evs) != 2 || evs[0].Type != Read || evs[1].Type != Update {
		t.Fatalf("want [read update], got %v", evs)
	}
	if len(evs[0].Entities) != 1 || evs[0].Entities[1] == nil {
		t.Fatalf("read event must carry the matched set")
	}
}

func TestRunForAll(t *testing.T) {
	reg, rec := newTestRegistry(t)
	reg.Insert(&person{Key: 1, Age: 1}, &person{Key: 2, Age: 2})
	if !reg.RunForAll(func(p *person) { p.Age++ }) {
		t.Fatalf("expected changes")
	}
	evs := rec.all()
	if len(evs) != 1 || len(evs[0].Entities) != 2 {
		t.Fatalf("want one update with both entities, got %v", evs)
	}
}

func TestSearchPostsReadOnlyWhenNonEmpty(t *testing.T) {
	reg, rec := newTestRegistry(t)
	reg.Insert(&person{Key: 1, Name: "x"})

	if got := reg.Search(func(p *person) bool { return p.Name == "nope" }); len(got) != 0 {
		t.Fatalf("want empty result")
	}
	if len(rec.all()) != 0 {
		t.Fatalf("empty search must not post a read event")
	}

	if got := reg.Search(func(p *person) bool { return true }); len(got) != 1 {
		t.Fatalf("want one match")
	}
	evs := rec.all()
	if len(evs) != 1 || evs[0].Type != Read {
		t.Fatalf("want one read event, got %v", evs)
	}
}

func TestFindOperations(t *testing.T) {
	reg, rec := newTestRegistry(t)
	reg.Insert(&person{Key: 7, Name: "g"})

	if _, ok := reg.FindByID(7); !ok {
		t.Fatalf("find by id failed")
	}
	if _, ok := reg.FindByID(8); ok {
		t.Fatalf("unexpected hit")
	}
	if e, ok := reg.FindByUniqueID("person:7"); !ok || e.Key != 7 {
		t.Fatalf("find by unique id failed")
	}
	if _, ok := reg.FindFirst(func(p *person) bool { return false }); ok {
		t.Fatalf("unexpected first match")
	}
	// Found lookups post read events; misses post nothing.
	evs := rec.all()
	if len(evs) != 2 {
		t.Fatalf("want 2 read events, got %d", len(evs))
	}
	for _, ev := range evs {
		if ev.Type != Read {
			t.Fatalf("want read events only, got %v", ev.Type)
		}
	}
}

func TestContainsAreSilent(t *testing.T) {
	reg, rec := newTestRegistry(t)
	reg.Insert(&person{Key: 1})
	if !reg.ContainsID(1) || reg.ContainsID(2) {
		t.Fatalf("contains by id wrong")
	}
	if !reg.Contains(func(p *person) bool { return p.Key == 1 }) {
		t.Fatalf("contains by predicate wrong")
	}
	if len(rec.all()) != 0 {
		t.Fatalf("pure lookups must not post events")
	}
}

func TestRegisterDeregisterEvents(t *testing.T) {
	reg, rec := newTestRegistry(t)

	if n := reg.Register(&person{Key: 1}, &person{Key: 2}); n != 2 {
		t.Fatalf("want 2 added, got %d", n)
	}
	if n := reg.Register(&person{Key: 1}); n != 0 {
		t.Fatalf("duplicate id must be skipped")
	}
	if n := reg.Deregister(1, 42); n != 1 {
		t.Fatalf("want 1 removed, got %d", n)
	}
	evs := rec.all()
	if len(evs) != 2 || evs[0].Type != Create || evs[1].Type != Delete {
		t.Fatalf("want [create delete], got %v", evs)
	}
	if len(evs[0].Entities) != 2 {
		t.Fatalf("create must carry both entities")
	}
	if evs[1].OldEntities[1] == nil {
		t.Fatalf("delete must carry the removed entity as old state")
	}
}

func TestInsertIsSilent(t *testing.T) {
	reg, rec := newTestRegistry(t)
	reg.Insert(&person{Key: 1}, &person{Key: 2})
	if reg.Size() != 2 || reg.IsEmpty() {
		t.Fatalf("size bookkeeping wrong")
	}
	if len(rec.all()) != 0 {
		t.Fatalf("bulk load must not post events")
	}
}

func TestRegistryEqual(t *testing.T) {
	a := NewRegistry[int, *person](Sync())
	b := NewRegistry[int, *person](Sync())
	a.Insert(&person{Key: 1, Name: "x"})
	b.Insert(&person{Key: 1, Name: "x"})
	if !a.Equal(b) {
		t.Fatalf("registries with equal maps must be equal")
	}
	b.Insert(&person{Key: 2})
	if a.Equal(b) {
		t.Fatalf("different sizes must not be equal")
	}
}

func TestCloneRoundTrip(t *testing.T) {
	p := &person{Key: 1, Name: "a", Age: 2}
	c := p.Clone()
	if !p.Equal(c) {
		t.Fatalf("clone must equal original")
	}
	c.Name = "b"
	if p.Equal(c) || p.Name != "a" {
		t.Fatalf("clone must be independent")
	}
}

func TestCloseDeliversCompleteUnderAsync(t *testing.T) {
	// Close flushes each subscription before cancelling, so the complete
	// event must be observed by the time Close returns, every time.
	for i := 0; i < 100; i++ {
		reg := NewRegistry[int, *person](Async())
		var completed atomic.Bool
		sub := NewSubscriber[int, *person]().
			AddOnCompleteEventAction(func() { completed.Store(true) })
		if _, err := reg.Subscribe(sub); err != nil {
			t.Fatalf("subscribe: %v", err)
		}
		reg.Close()
		if !completed.Load() {
			t.Fatalf("complete event lost on iteration %d", i)
		}
	}
}

func TestConcurrentSingleEntityMutationsSerialize(t *testing.T) {
	reg := NewRegistry[int, *person](Async())
	reg.Insert(&person{Key: 1, Age: 0})

	const n = 100
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			reg.RunForSingle(1, func(p *person) { p.Age++ })
		}()
	}
	wg.Wait()
	e, _ := reg.FindByID(1)
	if e.Age != n {
		t.Fatalf("lost updates: want %d, got %d", n, e.Age)
	}
}
