package reactive

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestRequestIsRejected(t *testing.T) {
	p := NewPublisher[int, *person](Sync())
	sub := NewSubscriber[int, *person]()
	s, err := p.Subscribe(sub)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := s.Request(1); !errors.Is(err, ErrPullNotSupported) {
		t.Fatalf("want ErrPullNotSupported, got %v", err)
	}
}

func TestCancelStopsDelivery(t *testing.T) {
	p := NewPublisher[int, *person](Sync())
	_ = p.ActivateEvents(Create)
	rec := &recording{}
	sub := NewSubscriber[int, *person]().AddOnNextEventAction(rec.add, Create)
	s, err := p.Subscribe(sub)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	p.PutCreateEvent(&person{Key: 1})
	s.Cancel()
	// Cancel happened before this post: non-delivery is deterministic.
	p.PutCreateEvent(&person{Key: 2})

	if got := len(rec.all()); got != 1 {
		t.Fatalf("want 1 event before cancel, got %d", got)
	}
	if !s.Cancelled() {
		t.Fatalf("cancelled flag not set")
	}
	if p.Subscriptions() != 0 {
		t.Fatalf("cancelled subscription must detach from publisher")
	}
	// Irreversible: cancelling again is a no-op.
	s.Cancel()
}

func TestCancelDiscardsQueuedEventsUnderAsync(t *testing.T) {
	p := NewPublisher[int, *person](Async())
	_ = p.ActivateEvents(Create)

	entered := make(chan struct{})
	release := make(chan struct{})
	var delivered atomic.Int32
	sub := NewSubscriber[int, *person]().
		AddOnNextEventAction(func(Event[int, *person]) {
			delivered.Add(1)
			entered <- struct{}{}
			<-release
		}, Create)
	s, err := p.Subscribe(sub)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	p.PutCreateEvent(&person{Key: 1})
	// The drain task is now blocked inside the first callback; everything
	// posted from here on stays queued.
	<-entered
	for i := 2; i <= 5; i++ {
		p.PutCreateEvent(&person{Key: i})
	}
	s.Cancel()
	close(release)

	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		if n := delivered.Load(); n != 1 {
			t.Fatalf("queued events must be discarded on cancel, delivered %d", n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestResubscribeReturnsSameSubscription(t *testing.T) {
	p := NewPublisher[int, *person](Sync())
	sub := NewSubscriber[int, *person]()
	s1, _ := p.Subscribe(sub)
	s2, _ := p.Subscribe(sub)
	if s1 != s2 {
		t.Fatalf("re-subscribing the same subscriber must return the existing subscription")
	}
	if p.Subscriptions() != 1 {
		t.Fatalf("want a single live subscription")
	}
}
