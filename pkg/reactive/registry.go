package reactive

import (
	"cmp"
	"maps"
	"slices"
	"sync"

	logpkg "github.com/rzbill/revent/pkg/log"
)

// Registry stores entities keyed by id and publishes CRUD events about them.
// It is the sole owner of the entities it stores: callers mutate them only
// through the Run* operations, which detect change by cloning before the
// mutation action and comparing structural equality after it. Exactly one
// update event is posted per logical operation, batching every entity that
// actually changed.
//
// Map structure (insert/remove) is serialized; mutation actions on distinct
// entities may run concurrently, but a single entity is never the target of
// two concurrent actions (per-id locks, acquired in sorted order for
// multi-entity operations).
type Registry[K cmp.Ordered, T Entity[K, T]] struct {
	*Publisher[K, T]

	logger logpkg.Logger

	mu       sync.RWMutex
	entities map[K]T
	locks    map[K]*sync.Mutex
}

// NewRegistry returns an empty registry using a default logger. All reserved
// event kinds start active.
func NewRegistry[K cmp.Ordered, T Entity[K, T]](sched Scheduler) *Registry[K, T] {
	return NewRegistryWithLogger[K, T](sched, logpkg.NewLogger().WithComponent("registry"))
}

// NewRegistryWithLogger constructs the registry with an injected logger.
func NewRegistryWithLogger[K cmp.Ordered, T Entity[K, T]](sched Scheduler, logger logpkg.Logger) *Registry[K, T] {
	if logger == nil {
		logger = logpkg.NewLogger().WithComponent("registry")
	}
	r := &Registry[K, T]{
		Publisher: NewPublisher[K, T](sched),
		logger:    logger,
		entities:  map[K]T{},
		locks:     map[K]*sync.Mutex{},
	}
	_ = r.ActivateEvents(AllKinds()...)
	return r
}

// Insert adds entities without posting events. This is the bulk-load path
// used by persistence collaborators when populating a registry from storage.
func (r *Registry[K, T]) Insert(entities ...T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range entities {
		r.entities[e.ID()] = e
	}
}

// Register adds entities that are not yet present and posts a single create
// event for them. Entities whose id is already registered are skipped.
// Returns the number actually added.
func (r *Registry[K, T]) Register(entities ...T) int {
	added := make([]T, 0, len(entities))
	r.mu.Lock()
	for _, e := range entities {
		if _, ok := r.entities[e.ID()]; ok {
			continue
		}
		r.entities[e.ID()] = e
		added = append(added, e)
	}
	r.mu.Unlock()
	if len(added) > 0 {
		r.PutCreateEvent(added...)
	}
	return len(added)
}

// Deregister removes the entities with the given ids and posts a single
// delete event for those that existed. Returns the number removed.
func (r *Registry[K, T]) Deregister(ids ...K) int {
	removed := make([]T, 0, len(ids))
	r.mu.Lock()
	for _, id := range ids {
		e, ok := r.entities[id]
		if !ok {
			continue
		}
		delete(r.entities, id)
		delete(r.locks, id)
		removed = append(removed, e)
	}
	r.mu.Unlock()
	if len(removed) > 0 {
		r.PutDeleteEvent(removed...)
	}
	return len(removed)
}

// entityLock returns the mutex serializing mutation of one entity id.
func (r *Registry[K, T]) entityLock(id K) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lk, ok := r.locks[id]
	if !ok {
		lk = &sync.Mutex{}
		r.locks[id] = lk
	}
	return lk
}

// RunForSingle runs action against the entity with the given id. If the
// action changed the entity (structural comparison against a pre-action
// clone), one update event is posted and true is returned. A missing id or a
// no-op action returns false without an event.
func (r *Registry[K, T]) RunForSingle(id K, action func(T)) bool {
	lk := r.entityLock(id)
	lk.Lock()
	defer lk.Unlock()

	r.mu.RLock()
	e, ok := r.entities[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}

	before := e.Clone()
	action(e)
	if e.Equal(before) {
		return false
	}
	r.logger.Debug("registry.update", logpkg.Int("changed", 1))
	_, _ = r.PutUpdateEvent(map[K]T{id: e}, map[K]T{id: before})
	return true
}

// RunForMany runs action against every existing entity among ids, then posts
// a single update event batching exactly the entities the action changed.
// Returns false when nothing changed or no id matched.
func (r *Registry[K, T]) RunForMany(ids []K, action func(T)) bool {
	targets := r.resolve(ids)
	return r.mutate(targets, action)
}

// RunMatching selects the entities satisfying pred (posting a read event for
// the matched set, as Search does), then applies the same clone/compare/batch
// logic as RunForMany.
func (r *Registry[K, T]) RunMatching(pred Predicate[T], action func(T)) bool {
	matched := r.Search(pred)
	ids := make([]K, 0, len(matched))
	for _, e := range matched {
		ids = append(ids, e.ID())
	}
	return r.mutate(ids, action)
}

// RunForAll applies the clone/compare/batch-update logic to every stored
// entity.
func (r *Registry[K, T]) RunForAll(action func(T)) bool {
	r.mu.RLock()
	ids := make([]K, 0, len(r.entities))
	for id := range r.entities {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	return r.mutate(ids, action)
}

// resolve filters ids down to those present, deduplicated.
func (r *Registry[K, T]) resolve(ids []K) []K {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[K]struct{}, len(ids))
	out := make([]K, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := r.entities[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// mutate is the shared clone/act/compare path. Entity locks are taken in
// sorted id order so concurrent multi-entity operations cannot deadlock. All
// mutations complete before the single batched event is posted: the event
// always reflects a complete snapshot of what changed in this call.
func (r *Registry[K, T]) mutate(ids []K, action func(T)) bool {
	if len(ids) == 0 {
		return false
	}
	slices.Sort(ids)

	locks := make([]*sync.Mutex, len(ids))
	for i, id := range ids {
		locks[i] = r.entityLock(id)
		locks[i].Lock()
	}
	defer func() {
		for i := len(locks) - 1; i >= 0; i-- {
			locks[i].Unlock()
		}
	}()

	changed := map[K]T{}
	old := map[K]T{}
	for _, id := range ids {
		r.mu.RLock()
		e, ok := r.entities[id]
		r.mu.RUnlock()
		if !ok {
			continue
		}
		before := e.Clone()
		action(e)
		if !e.Equal(before) {
			changed[id] = e
			old[id] = before
		}
	}
	if len(changed) == 0 {
		return false
	}
	r.logger.Debug("registry.update", logpkg.Int("changed", len(changed)))
	_, _ = r.PutUpdateEvent(changed, old)
	return true
}

// ContainsID reports whether an entity with the given id is stored. No event.
func (r *Registry[K, T]) ContainsID(id K) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entities[id]
	return ok
}

// Contains reports whether any stored entity satisfies pred. No event.
func (r *Registry[K, T]) Contains(pred Predicate[T]) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entities {
		if pred(e) {
			return true
		}
	}
	return false
}

// Search returns the entities satisfying pred and posts a read event carrying
// that set. An empty match set posts no event: read events always carry at
// least one entity.
func (r *Registry[K, T]) Search(pred Predicate[T]) []T {
	r.mu.RLock()
	out := make([]T, 0)
	for _, e := range r.entities {
		if pred(e) {
			out = append(out, e)
		}
	}
	r.mu.RUnlock()
	if len(out) > 0 {
		r.PutReadEvent(out...)
	}
	return out
}

// FindFirst returns one entity satisfying pred, posting a read event for it
// only when found. Which entity is returned is unspecified when several
// match.
func (r *Registry[K, T]) FindFirst(pred Predicate[T]) (T, bool) {
	r.mu.RLock()
	var found T
	ok := false
	for _, e := range r.entities {
		if pred(e) {
			found = e
			ok = true
			break
		}
	}
	r.mu.RUnlock()
	if ok {
		r.PutReadEvent(found)
	}
	return found, ok
}

// FindByID returns the entity with the given id, posting a read event only
// when found.
func (r *Registry[K, T]) FindByID(id K) (T, bool) {
	r.mu.RLock()
	e, ok := r.entities[id]
	r.mu.RUnlock()
	if ok {
		r.PutReadEvent(e)
	}
	return e, ok
}

// FindByUniqueID returns the entity whose UniqueID matches uid, posting a
// read event only when found.
func (r *Registry[K, T]) FindByUniqueID(uid string) (T, bool) {
	return r.FindFirst(func(e T) bool { return e.UniqueID() == uid })
}

// Size returns the number of stored entities.
func (r *Registry[K, T]) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entities)
}

// IsEmpty reports whether the registry stores nothing.
func (r *Registry[K, T]) IsEmpty() bool { return r.Size() == 0 }

// Snapshot returns a copy of the id-to-entity map. No event.
func (r *Registry[K, T]) Snapshot() map[K]T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.entities)
}

// Equal reports structural equality of two registries over their id-to-entity
// maps. Used by tests and cache keys, not identity.
func (r *Registry[K, T]) Equal(other *Registry[K, T]) bool {
	if other == nil {
		return false
	}
	a := r.Snapshot()
	b := other.Snapshot()
	if len(a) != len(b) {
		return false
	}
	for id, e := range a {
		oe, ok := b[id]
		if !ok || !e.Equal(oe) {
			return false
		}
	}
	return true
}

// Close posts a complete event, waits for every subscription to deliver its
// queue, then cancels all subscriptions. The flush guarantees subscribers
// observe the complete event before the cancel discards anything. The registry
// remains usable as a plain store afterwards but nothing is delivered.
func (r *Registry[K, T]) Close() {
	r.PutCompleteEvent()
	r.flushAll()
	r.CancelAll()
}
