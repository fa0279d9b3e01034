// Package reactive implements revent's push-only entity event engine.
//
// # Overview
//
// Entities expose their lifecycle as a stream of typed events (create, read,
// update, delete, complete, error). A Publisher tracks which kinds are active
// and pushes events to Subscriptions; a Subscriber registers per-kind
// callbacks; a Registry stores entities keyed by id and turns mutation into
// update events via clone-before/compare-after dirty checking; an Object is a
// single entity publishing updates about itself. Consumers can never pull:
// Subscription.Request always fails, delivery is push-only, ordered per
// subscription, and asynchronous relative to the posting caller.
//
// API surface
//
//	reg := reactive.NewRegistry[int, *user](reactive.Async())
//	reg.Register(&user{Key: 1, Name: "Alice"})
//
//	sub := reactive.NewSubscriber[int, *user]().
//	    AddOnNextEventAction(func(ev reactive.Event[int, *user]) {
//	        // ev.OldEntities[1].Name == "Alice", ev.Entities[1].Name == "Bob"
//	    }, reactive.Update)
//	subscription, _ := reg.Subscribe(sub)
//	defer subscription.Cancel()
//
//	changed := reg.RunForSingle(1, func(u *user) { u.Name = "Bob" })
//	_ = changed // true; exactly one update event was posted
//
// Predicates may be plain functions or compiled CEL expressions:
//
//	adults, _ := reactive.NewExprPredicate[int, *user](`json.age >= 18`)
//	_ = reg.Search(adults)
//
// # Scheduling
//
// Publishers take a Scheduler at construction. Async (production) runs
// dispatch on goroutines so posting never blocks on subscriber callbacks;
// Sync delivers inline for deterministic tests. Per-subscription ordering
// holds under both.
package reactive
