package reactive

import "github.com/rzbill/revent/pkg/id"

var valueIDs = id.NewGenerator()

// Value wraps a single comparable value in a reactive entity: Set publishes
// an update event when, and only when, the value actually changes. It is the
// thin-adapter shape domains use for reactive primitives.
type Value[V comparable] struct {
	*Object[string, *Value[V]] `json:"-"`

	Key string `json:"id"`
	Val V      `json:"value"`
}

// NewValue returns a reactive wrapper around initial with a generated id.
func NewValue[V comparable](sched Scheduler, initial V) *Value[V] {
	v := &Value[V]{Key: valueIDs.Next().String(), Val: initial}
	v.Object = NewObject[string, *Value[V]](v, sched)
	return v
}

// ID returns the generated id.
func (v *Value[V]) ID() string { return v.Key }

// UniqueID returns the generated id; for values the two coincide.
func (v *Value[V]) UniqueID() string { return v.Key }

// Clone returns an inert deep copy used for before/after comparison.
func (v *Value[V]) Clone() *Value[V] { return &Value[V]{Key: v.Key, Val: v.Val} }

// Equal reports structural equality.
func (v *Value[V]) Equal(other *Value[V]) bool {
	return other != nil && v.Key == other.Key && v.Val == other.Val
}

// Get returns the current value.
func (v *Value[V]) Get() V { return v.Val }

// Set updates the value through SetAndNotify. Returns true when an update
// event was posted, false when next equalled the current value.
func (v *Value[V]) Set(next V) bool {
	return SetAndNotify(v.Object, next, v.Val, func(nv V) { v.Val = nv })
}
