package reactive

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/rzbill/revent/pkg/id"
)

// EventType identifies the kind of a published event. Codes are stable and
// safe to persist.
type EventType int

// Reserved event kinds.
const (
	Create EventType = iota + 1
	Read
	Update
	Delete
	Complete
	Error
)

// CustomBase is the first code available for domain-defined event kinds.
// Codes below it are reserved.
const CustomBase EventType = 100

// String returns the kind name; custom codes render as "custom(n)".
func (t EventType) String() string {
	switch t {
	case Create:
		return "create"
	case Read:
		return "read"
	case Update:
		return "update"
	case Delete:
		return "delete"
	case Complete:
		return "complete"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("custom(%d)", int(t))
	}
}

// AllKinds returns the reserved kinds in declaration order.
func AllKinds() []EventType {
	return []EventType{Create, Read, Update, Delete, Complete, Error}
}

// ErrKeySetMismatch is returned when an update event is built from new/old
// entity sets whose ids differ.
var ErrKeySetMismatch = errors.New("reactive: new and old entity id sets differ")

// Event is an immutable notification snapshot. Entities holds the subjects
// after the operation keyed by id; OldEntities holds the prior state for
// update and delete events. Maps are copied at construction and must not be
// mutated by receivers.
type Event[K cmp.Ordered, T Entity[K, T]] struct {
	// ID is a per-publisher monotonic stamp; events posted by one publisher
	// carry strictly increasing ids in posting order.
	ID   id.ID
	Type EventType
	// AtMs is the wall-clock time the event was built, in Unix milliseconds.
	AtMs        int64
	Entities    map[K]T
	OldEntities map[K]T
	// Err is set for Error events only.
	Err error
}

func newEvent[K cmp.Ordered, T Entity[K, T]](kind EventType, entities, old map[K]T) Event[K, T] {
	return Event[K, T]{
		Type:        kind,
		AtMs:        time.Now().UnixMilli(),
		Entities:    maps.Clone(entities),
		OldEntities: maps.Clone(old),
	}
}

// newUpdateEvent validates the update invariant before building the event.
func newUpdateEvent[K cmp.Ordered, T Entity[K, T]](entities, old map[K]T) (Event[K, T], error) {
	if len(entities) != len(old) {
		return Event[K, T]{}, ErrKeySetMismatch
	}
	for k := range entities {
		if _, ok := old[k]; !ok {
			return Event[K, T]{}, ErrKeySetMismatch
		}
	}
	return newEvent(Update, entities, old), nil
}

// entityMap keys entities by their own ids.
func entityMap[K cmp.Ordered, T Entity[K, T]](entities []T) map[K]T {
	m := make(map[K]T, len(entities))
	for _, e := range entities {
		m[e.ID()] = e
	}
	return m
}
