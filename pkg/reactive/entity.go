package reactive

import "cmp"

// Entity is the capability registries and publishers require of stored
// objects. T is the entity's own concrete type (usually a pointer), so Clone
// and Equal stay fully typed.
//
// Clone must produce a deep, independent copy: equal to the original at the
// moment of cloning and unaffected by later mutation of either side. Equal is
// structural, never identity. The clone/compare pair is what drives dirty
// checking in the registry.
type Entity[K cmp.Ordered, T any] interface {
	// ID returns the entity id used as the registry key.
	ID() K
	// UniqueID returns a derived string usable for id-independent lookup.
	UniqueID() string
	// Clone returns a deep, independent copy of the entity.
	Clone() T
	// Equal reports structural equality with another entity.
	Equal(other T) bool
}

// Predicate selects entities, e.g. in Search and RunMatching.
type Predicate[T any] func(T) bool
