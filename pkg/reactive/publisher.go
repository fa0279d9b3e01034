package reactive

import (
	"cmp"
	"fmt"
	"sync"

	"github.com/rzbill/revent/pkg/id"
)

// ErrKindNotAllowed is returned when an operation touches an event kind the
// publisher was restricted away from at construction.
var ErrKindNotAllowed = fmt.Errorf("reactive: event kind not allowed on this publisher")

// Publisher is the event publication base. It tracks which event kinds are
// currently active, builds immutable events on the Put*Event operations, and
// pushes them to every live subscription through the injected Scheduler.
//
// Posting is asynchronous relative to the caller: Put*Event returns once the
// event is queued on each subscription, not after callbacks complete. Events
// reach a single subscription in posting order. Posting an inactive kind, or
// posting while nothing is subscribed, is a safe no-op.
type Publisher[K cmp.Ordered, T Entity[K, T]] struct {
	sched Scheduler
	gen   *id.Generator

	mu      sync.Mutex
	allowed map[EventType]struct{} // nil means unrestricted
	active  map[EventType]struct{}
	subs    map[*Subscriber[K, T]]*Subscription[K, T]
}

// NewPublisher returns a publisher with all kinds inactive. When restrictTo
// is non-empty, only those kinds may ever be activated or subscribed for;
// anything else is rejected (the reactive entity base uses this to pin itself
// to Update).
func NewPublisher[K cmp.Ordered, T Entity[K, T]](sched Scheduler, restrictTo ...EventType) *Publisher[K, T] {
	if sched == nil {
		sched = Async()
	}
	p := &Publisher[K, T]{
		sched:  sched,
		gen:    id.NewGenerator(),
		active: map[EventType]struct{}{},
		subs:   map[*Subscriber[K, T]]*Subscription[K, T]{},
	}
	if len(restrictTo) > 0 {
		p.allowed = map[EventType]struct{}{}
		for _, k := range restrictTo {
			p.allowed[k] = struct{}{}
		}
	}
	return p
}

// ActivateEvents marks kinds as active. Idempotent. Fails if any kind falls
// outside the publisher's restriction.
func (p *Publisher[K, T]) ActivateEvents(kinds ...EventType) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, k := range kinds {
		if err := p.checkAllowed(k); err != nil {
			return err
		}
	}
	for _, k := range kinds {
		p.active[k] = struct{}{}
	}
	return nil
}

// DisableEvents marks kinds as inactive. Idempotent.
func (p *Publisher[K, T]) DisableEvents(kinds ...EventType) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, k := range kinds {
		delete(p.active, k)
	}
}

// EventActive reports whether kind is currently active.
func (p *Publisher[K, T]) EventActive(kind EventType) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.active[kind]
	return ok
}

func (p *Publisher[K, T]) checkAllowed(kind EventType) error {
	if p.allowed == nil {
		return nil
	}
	if _, ok := p.allowed[kind]; !ok {
		return fmt.Errorf("%w: %s", ErrKindNotAllowed, kind)
	}
	return nil
}

// Subscribe creates and registers a Subscription for sub, fires sub's
// on-subscribe actions with it, and returns it. Fails when the subscriber has
// next-actions for kinds outside the publisher's restriction.
func (p *Publisher[K, T]) Subscribe(sub *Subscriber[K, T]) (*Subscription[K, T], error) {
	p.mu.Lock()
	for _, k := range sub.nextKinds() {
		if err := p.checkAllowed(k); err != nil {
			p.mu.Unlock()
			return nil, err
		}
	}
	if existing, ok := p.subs[sub]; ok {
		p.mu.Unlock()
		return existing, nil
	}
	subscription := &Subscription[K, T]{src: p, sub: sub}
	subscription.idle = sync.NewCond(&subscription.mu)
	p.subs[sub] = subscription
	p.mu.Unlock()

	sub.subscribed(subscription)
	return subscription, nil
}

// Subscriptions returns the number of live subscriptions.
func (p *Publisher[K, T]) Subscriptions() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}

// remove detaches a cancelled subscription.
func (p *Publisher[K, T]) remove(sub *Subscriber[K, T]) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.subs, sub)
}

// CancelAll cancels every live subscription.
func (p *Publisher[K, T]) CancelAll() {
	for _, s := range p.subscriptionList() {
		s.Cancel()
	}
}

// flushAll blocks until every live subscription has delivered its queue.
func (p *Publisher[K, T]) flushAll() {
	for _, s := range p.subscriptionList() {
		s.flush()
	}
}

func (p *Publisher[K, T]) subscriptionList() []*Subscription[K, T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	subs := make([]*Subscription[K, T], 0, len(p.subs))
	for _, s := range p.subs {
		subs = append(subs, s)
	}
	return subs
}

// post stamps ev and queues it on every live subscription if its kind is
// active. Reports whether the event was pushed anywhere.
func (p *Publisher[K, T]) post(ev Event[K, T]) bool {
	p.mu.Lock()
	if _, ok := p.active[ev.Type]; !ok {
		p.mu.Unlock()
		return false
	}
	ev.ID = p.gen.Next()
	subs := make([]*Subscription[K, T], 0, len(p.subs))
	for _, s := range p.subs {
		subs = append(subs, s)
	}
	p.mu.Unlock()

	for _, s := range subs {
		s.enqueue(ev)
	}
	return len(subs) > 0
}

// PutCreateEvent posts a create event for the given entities. Empty input is
// a no-op.
func (p *Publisher[K, T]) PutCreateEvent(entities ...T) bool {
	if len(entities) == 0 {
		return false
	}
	return p.post(newEvent(Create, entityMap[K](entities), nil))
}

// PutReadEvent posts a read event for the given entities. Empty input is a
// no-op.
func (p *Publisher[K, T]) PutReadEvent(entities ...T) bool {
	if len(entities) == 0 {
		return false
	}
	return p.post(newEvent(Read, entityMap[K](entities), nil))
}

// PutUpdateEvent posts an update event carrying the post-mutation entities
// and their pre-mutation counterparts. The two maps must have identical id
// sets; a mismatch is a contract error.
func (p *Publisher[K, T]) PutUpdateEvent(entities, oldEntities map[K]T) (bool, error) {
	if len(entities) == 0 {
		if len(oldEntities) != 0 {
			return false, ErrKeySetMismatch
		}
		return false, nil
	}
	ev, err := newUpdateEvent(entities, oldEntities)
	if err != nil {
		return false, err
	}
	return p.post(ev), nil
}

// PutDeleteEvent posts a delete event. The removed entities appear in both
// Entities and OldEntities: the pre-delete state is the only state they have.
func (p *Publisher[K, T]) PutDeleteEvent(entities ...T) bool {
	if len(entities) == 0 {
		return false
	}
	m := entityMap[K](entities)
	return p.post(newEvent(Delete, m, m))
}

// PutCompleteEvent signals that no further events will be posted.
func (p *Publisher[K, T]) PutCompleteEvent() bool {
	return p.post(newEvent[K, T](Complete, nil, nil))
}

// PutErrorEvent posts an error event carrying err.
func (p *Publisher[K, T]) PutErrorEvent(err error) bool {
	ev := newEvent[K, T](Error, nil, nil)
	ev.Err = err
	return p.post(ev)
}
