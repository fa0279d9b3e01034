package reactive

import (
	"cmp"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrPullNotSupported is returned by Subscription.Request: the model is
// strictly push-based and has no backpressure negotiation.
var ErrPullNotSupported = errors.New("reactive: on-demand requests not supported on push-only subscriptions")

// Subscription binds one Subscriber to one Publisher. It owns the ordered
// dispatch queue for that pair: events posted by the publisher are appended
// here and drained by at most one dispatch task at a time, so a single
// subscriber always observes events in posting order.
type Subscription[K cmp.Ordered, T Entity[K, T]] struct {
	src *Publisher[K, T]
	sub *Subscriber[K, T]

	mu       sync.Mutex
	idle     *sync.Cond
	queue    []Event[K, T]
	draining bool

	cancelled atomic.Bool
}

// Source returns the publisher this subscription is attached to. Lookup only;
// the subscription never owns the publisher.
func (s *Subscription[K, T]) Source() *Publisher[K, T] { return s.src }

// Cancelled reports whether Cancel has been called.
func (s *Subscription[K, T]) Cancelled() bool { return s.cancelled.Load() }

// Request always fails: subscriptions deliver by push only.
func (s *Subscription[K, T]) Request(n int) error { return ErrPullNotSupported }

// Cancel stops delivery and detaches the subscription from its publisher.
// Irreversible. Events still queued at cancel time are discarded; an event
// whose callbacks have already started runs to completion, so handlers must
// tolerate at most one delivery racing a concurrent cancel. When Cancel
// happens-before a post, non-delivery is guaranteed.
func (s *Subscription[K, T]) Cancel() {
	if s.cancelled.Swap(true) {
		return
	}
	s.mu.Lock()
	s.queue = nil
	s.idle.Broadcast()
	s.mu.Unlock()
	s.src.remove(s.sub)
}

// flush blocks until every queued event has been dispatched. Returns
// immediately on a cancelled subscription.
func (s *Subscription[K, T]) flush() {
	s.mu.Lock()
	for !s.cancelled.Load() && (len(s.queue) > 0 || s.draining) {
		s.idle.Wait()
	}
	s.mu.Unlock()
}

// enqueue appends ev and starts a drain task if none is running. Never blocks
// on subscriber callbacks (the scheduler decides where drain runs).
func (s *Subscription[K, T]) enqueue(ev Event[K, T]) {
	if s.cancelled.Load() {
		return
	}
	s.mu.Lock()
	s.queue = append(s.queue, ev)
	start := !s.draining
	s.draining = true
	s.mu.Unlock()
	if start {
		s.src.sched.Dispatch(s.drain)
	}
}

// drain delivers queued events in order until the queue is empty. Only one
// drain runs per subscription at a time, which is what gives the per-
// subscription ordering guarantee.
func (s *Subscription[K, T]) drain() {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 || s.cancelled.Load() {
			s.queue = nil
			s.draining = false
			s.idle.Broadcast()
			s.mu.Unlock()
			return
		}
		ev := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()
		s.sub.dispatch(ev)
	}
}
