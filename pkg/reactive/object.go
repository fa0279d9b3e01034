package reactive

import (
	"cmp"
	"sync"
	"time"
)

// Object is the reactive entity base: an entity that publishes update events
// about itself. Its publisher is restricted to Update at construction, so
// subscribing for any other kind is rejected. Embed a *Object in the entity
// type and point it back at the entity:
//
//	type counter struct {
//	    *reactive.Object[string, *counter] `json:"-"`
//	    Key string `json:"id"`
//	    N   int    `json:"n"`
//	}
//
//	c := &counter{Key: "c1"}
//	c.Object = reactive.NewObject[string, *counter](c, reactive.Async())
//
// Every governed property setter must route through SetAndNotify.
type Object[K cmp.Ordered, T Entity[K, T]] struct {
	self T
	pub  *Publisher[K, T]

	mu           sync.Mutex
	lastModified time.Time
}

// NewObject builds the reactive base for self. The publisher accepts Update
// only and starts with it active.
func NewObject[K cmp.Ordered, T Entity[K, T]](self T, sched Scheduler) *Object[K, T] {
	o := &Object[K, T]{
		self: self,
		pub:  NewPublisher[K, T](sched, Update),
	}
	_ = o.pub.ActivateEvents(Update)
	return o
}

// Publisher exposes the underlying update-only publisher.
func (o *Object[K, T]) Publisher() *Publisher[K, T] { return o.pub }

// Subscribe attaches an action for update events and returns the resulting
// subscription. The subscription rejects pull-style requests like any other.
func (o *Object[K, T]) Subscribe(action func(Event[K, T])) (*Subscription[K, T], error) {
	sub := NewSubscriber[K, T]().AddOnNextEventAction(action, Update)
	return o.pub.Subscribe(sub)
}

// SubscribeWith attaches a prepared subscriber. Subscribers registered for
// kinds other than Update are rejected.
func (o *Object[K, T]) SubscribeWith(sub *Subscriber[K, T]) (*Subscription[K, T], error) {
	return o.pub.Subscribe(sub)
}

// LastModified returns the time of the last effective SetAndNotify. It is
// monotonically non-decreasing and moves exactly once per call that actually
// changed a value.
func (o *Object[K, T]) LastModified() time.Time {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastModified
}

// SetAndNotify is the single mutation primitive for reactive properties.
// When newValue equals oldValue nothing happens. Otherwise the entity is
// cloned to capture the pre-change state, apply mutates the governed
// property, LastModified is refreshed, and one update event is posted pairing
// the live entity with its pre-change clone. The clone/apply window runs under
// the object's mutex, so concurrent calls on one object cannot produce torn
// before/after pairs.
func SetAndNotify[K cmp.Ordered, T Entity[K, T], V comparable](o *Object[K, T], newValue, oldValue V, apply func(V)) bool {
	if newValue == oldValue {
		return false
	}
	o.mu.Lock()
	before := o.self.Clone()
	apply(newValue)
	if now := time.Now(); now.After(o.lastModified) {
		o.lastModified = now
	}
	o.mu.Unlock()
	_, _ = o.pub.PutUpdateEvent(
		map[K]T{o.self.ID(): o.self},
		map[K]T{before.ID(): before},
	)
	return true
}
