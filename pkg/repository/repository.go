package repository

import (
	"cmp"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"

	pebblestore "github.com/rzbill/revent/internal/storage/pebble"
	"github.com/rzbill/revent/pkg/log"
	"github.com/rzbill/revent/pkg/reactive"
)

// ErrEntityNotFound is returned by Get for ids with no stored snapshot.
var ErrEntityNotFound = errors.New("repository: entity not found")

// Repository persists one collection of entities as JSON snapshots plus an
// append-only CRUD journal. It sits beside a Registry as a storage
// collaborator: Load populates a registry silently, Attach subscribes to one
// and mirrors its events into storage. The repository never posts events of
// its own.
type Repository[K cmp.Ordered, T reactive.Entity[K, T]] struct {
	store     *Store
	col       string
	newEntity func() T
	logger    log.Logger

	seqMu   sync.Mutex
	lastSeq uint64
}

// OpenCollection binds a typed repository to the named collection, creating
// its meta record on first use. newEntity must return a decodable zero entity.
func OpenCollection[K cmp.Ordered, T reactive.Entity[K, T]](store *Store, name string, newEntity func() T) (*Repository[K, T], error) {
	if newEntity == nil {
		return nil, errors.New("repository: newEntity constructor is required")
	}
	if _, err := store.ensureCollection(name); err != nil {
		return nil, err
	}
	r := &Repository[K, T]{
		store:     store,
		col:       name,
		newEntity: newEntity,
		logger:    store.logger.With(log.Str("collection", name)),
	}
	if b, err := store.db.Get(keyJournalMeta(name)); err == nil && len(b) == 8 {
		r.lastSeq = binary.BigEndian.Uint64(b)
	}
	return r, nil
}

// Collection returns the collection name.
func (r *Repository[K, T]) Collection() string { return r.col }

func (r *Repository[K, T]) entityKey(id K) []byte {
	return keyEntity(r.col, fmt.Sprint(id))
}

// Save writes JSON snapshots for the given entities in one batch.
func (r *Repository[K, T]) Save(entities ...T) error {
	if len(entities) == 0 {
		return nil
	}
	b := r.store.db.NewBatch()
	defer b.Close()
	for _, e := range entities {
		data, err := codec.Marshal(e)
		if err != nil {
			return fmt.Errorf("repository: encode %v: %w", e.ID(), err)
		}
		if err := b.Set(r.entityKey(e.ID()), data, nil); err != nil {
			return err
		}
	}
	return r.store.db.CommitBatch(context.Background(), b)
}

// Remove deletes the snapshots for the given ids in one batch.
func (r *Repository[K, T]) Remove(ids ...K) error {
	if len(ids) == 0 {
		return nil
	}
	b := r.store.db.NewBatch()
	defer b.Close()
	for _, id := range ids {
		if err := b.Delete(r.entityKey(id), nil); err != nil {
			return err
		}
	}
	return r.store.db.CommitBatch(context.Background(), b)
}

// Get decodes the stored snapshot for id. Missing ids return
// ErrEntityNotFound.
func (r *Repository[K, T]) Get(id K) (T, error) {
	var zero T
	data, err := r.store.db.Get(r.entityKey(id))
	if errors.Is(err, pebblestore.ErrNotFound) {
		return zero, ErrEntityNotFound
	}
	if err != nil {
		return zero, err
	}
	e := r.newEntity()
	if err := codec.Unmarshal(data, e); err != nil {
		return zero, fmt.Errorf("repository: decode %v: %w", id, err)
	}
	return e, nil
}

// List decodes every stored snapshot in the collection.
func (r *Repository[K, T]) List() ([]T, error) {
	prefix := keyEntityPrefix(r.col)
	it, err := r.store.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	})
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var out []T
	for it.First(); it.Valid(); it.Next() {
		e := r.newEntity()
		if err := codec.Unmarshal(it.Value(), e); err != nil {
			r.logger.Warn("repository.decode_skip", log.Str("key", string(it.Key())), log.Err(err))
			continue
		}
		out = append(out, e)
	}
	return out, it.Error()
}

// Load bulk-inserts every stored entity into reg without firing events.
func (r *Repository[K, T]) Load(reg *reactive.Registry[K, T]) error {
	entities, err := r.List()
	if err != nil {
		return err
	}
	reg.Insert(entities...)
	return nil
}

// SaveAll snapshots the registry's full contents into storage.
func (r *Repository[K, T]) SaveAll(reg *reactive.Registry[K, T]) error {
	snapshot := reg.Snapshot()
	entities := make([]T, 0, len(snapshot))
	for _, e := range snapshot {
		entities = append(entities, e)
	}
	return r.Save(entities...)
}

// Attach subscribes to reg and mirrors its events into storage: create and
// update events re-persist the affected entities, delete events remove them,
// and every received event is journaled. Persistence errors are logged, not
// propagated; the event stream has no error channel back to the caller.
func (r *Repository[K, T]) Attach(reg *reactive.Registry[K, T]) (*reactive.Subscription[K, T], error) {
	sub := reactive.NewSubscriber[K, T]().
		AddOnNextEventAction(func(ev reactive.Event[K, T]) {
			r.journal(ev)
			switch ev.Type {
			case reactive.Create, reactive.Update:
				entities := make([]T, 0, len(ev.Entities))
				for _, e := range ev.Entities {
					entities = append(entities, e)
				}
				if err := r.Save(entities...); err != nil {
					r.logger.Error("repository.persist", log.Err(err))
					return
				}
				r.logger.Debug("repository.persist",
					log.Str("kind", ev.Type.String()),
					log.Int("entities", len(entities)))
			case reactive.Delete:
				ids := make([]K, 0, len(ev.OldEntities))
				for id := range ev.OldEntities {
					ids = append(ids, id)
				}
				if err := r.Remove(ids...); err != nil {
					r.logger.Error("repository.remove", log.Err(err))
					return
				}
				r.logger.Debug("repository.remove", log.Int("entities", len(ids)))
			}
		}, reactive.Create, reactive.Read, reactive.Update, reactive.Delete)
	return reg.Subscribe(sub)
}

// journal appends one record describing ev.
func (r *Repository[K, T]) journal(ev reactive.Event[K, T]) {
	ids := make([]string, 0, len(ev.Entities))
	for id := range ev.Entities {
		ids = append(ids, fmt.Sprint(id))
	}
	entry := JournalEntry{
		Kind: ev.Type.String(),
		AtMs: time.Now().UnixMilli(),
		IDs:  ids,
	}

	r.seqMu.Lock()
	defer r.seqMu.Unlock()
	entry.Seq = r.lastSeq + 1

	data, err := codec.Marshal(entry)
	if err != nil {
		r.logger.Error("repository.journal", log.Err(err))
		return
	}
	b := r.store.db.NewBatch()
	defer b.Close()
	var seqBuf [8]byte
	binary.BigEndian.PutUint64(seqBuf[:], entry.Seq)
	if err := b.Set(keyJournal(r.col, entry.Seq), data, nil); err == nil {
		_ = b.Set(keyJournalMeta(r.col), seqBuf[:], nil)
	}
	if err := r.store.db.CommitBatch(context.Background(), b); err != nil {
		r.logger.Error("repository.journal", log.Err(err))
		return
	}
	r.lastSeq = entry.Seq
}

// Journal returns up to limit of the newest journal records, oldest first.
// limit <= 0 means no limit.
func (r *Repository[K, T]) Journal(limit int) ([]JournalEntry, error) {
	return r.store.RawJournal(r.col, limit)
}

// TrimJournal deletes all but the newest keep records. keep <= 0 clears the
// journal entirely.
func (r *Repository[K, T]) TrimJournal(keep int) error {
	entries, err := r.store.RawJournal(r.col, 0)
	if err != nil {
		return err
	}
	drop := len(entries) - keep
	if keep <= 0 {
		drop = len(entries)
	}
	if drop <= 0 {
		return nil
	}
	b := r.store.db.NewBatch()
	defer b.Close()
	for _, e := range entries[:drop] {
		if err := b.Delete(keyJournal(r.col, e.Seq), nil); err != nil {
			return err
		}
	}
	if err := r.store.db.CommitBatch(context.Background(), b); err != nil {
		return err
	}
	r.logger.Debug("repository.journal_trim", log.Int("dropped", drop))
	return nil
}
