package reactive

import (
	"cmp"
	"sync"
)

// Subscriber holds the callbacks to run when events arrive. Actions are
// registered per event kind; multiple actions per kind all run in
// registration order. Receiving an event whose kind has no registered action
// is a silent no-op.
//
// Failures inside actions are the subscriber's responsibility to contain; by
// the time callbacks run, the publishing side has already finished mutation
// and change detection.
type Subscriber[K cmp.Ordered, T Entity[K, T]] struct {
	mu          sync.Mutex
	next        map[EventType][]func(Event[K, T])
	onSubscribe []func(*Subscription[K, T])
	onError     []func(error)
	onComplete  []func()
}

// NewSubscriber returns an empty subscriber.
func NewSubscriber[K cmp.Ordered, T Entity[K, T]]() *Subscriber[K, T] {
	return &Subscriber[K, T]{next: map[EventType][]func(Event[K, T]){}}
}

// AddOnNextEventAction registers action for each of the listed kinds.
// Returns the subscriber for chaining.
func (s *Subscriber[K, T]) AddOnNextEventAction(action func(Event[K, T]), kinds ...EventType) *Subscriber[K, T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range kinds {
		s.next[k] = append(s.next[k], action)
	}
	return s
}

// AddOnSubscribeEventAction registers action to run when a subscription is
// created for this subscriber.
func (s *Subscriber[K, T]) AddOnSubscribeEventAction(action func(*Subscription[K, T])) *Subscriber[K, T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSubscribe = append(s.onSubscribe, action)
	return s
}

// AddOnErrorEventAction registers action for error events and local OnError
// calls.
func (s *Subscriber[K, T]) AddOnErrorEventAction(action func(error)) *Subscriber[K, T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onError = append(s.onError, action)
	return s
}

// AddOnCompleteEventAction registers action for complete events.
func (s *Subscriber[K, T]) AddOnCompleteEventAction(action func()) *Subscriber[K, T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onComplete = append(s.onComplete, action)
	return s
}

// OnError reports an out-of-band error to this subscriber alone. It triggers
// the registered error actions and nothing else; the error never reaches the
// publisher or other subscribers.
func (s *Subscriber[K, T]) OnError(err error) {
	for _, action := range s.errorActions() {
		action(err)
	}
}

// ClearSubscriptionActions removes all registered callbacks immediately. It
// does not cancel any underlying Subscription.
func (s *Subscriber[K, T]) ClearSubscriptionActions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next = map[EventType][]func(Event[K, T]){}
	s.onSubscribe = nil
	s.onError = nil
	s.onComplete = nil
}

// nextKinds lists the kinds the subscriber currently has next-actions for.
func (s *Subscriber[K, T]) nextKinds() []EventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	kinds := make([]EventType, 0, len(s.next))
	for k := range s.next {
		kinds = append(kinds, k)
	}
	return kinds
}

func (s *Subscriber[K, T]) errorActions() []func(error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]func(error){}, s.onError...)
}

// dispatch runs the callbacks matching ev. Error events additionally trigger
// error actions, complete events the complete actions.
func (s *Subscriber[K, T]) dispatch(ev Event[K, T]) {
	s.mu.Lock()
	actions := append([]func(Event[K, T]){}, s.next[ev.Type]...)
	var errActions []func(error)
	var doneActions []func()
	if ev.Type == Error {
		errActions = append(errActions, s.onError...)
	}
	if ev.Type == Complete {
		doneActions = append(doneActions, s.onComplete...)
	}
	s.mu.Unlock()

	for _, action := range actions {
		action(ev)
	}
	for _, action := range errActions {
		action(ev.Err)
	}
	for _, action := range doneActions {
		action()
	}
}

// subscribed runs the on-subscribe actions for a freshly created subscription.
func (s *Subscriber[K, T]) subscribed(sub *Subscription[K, T]) {
	s.mu.Lock()
	actions := append([]func(*Subscription[K, T]){}, s.onSubscribe...)
	s.mu.Unlock()
	for _, action := range actions {
		action(sub)
	}
}
