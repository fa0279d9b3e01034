package repository

import (
	"errors"
	"time"

	"github.com/cockroachdb/pebble"
	jsoniter "github.com/json-iterator/go"

	pebblestore "github.com/rzbill/revent/internal/storage/pebble"
	"github.com/rzbill/revent/pkg/log"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// Meta holds collection metadata.
type Meta struct {
	Name        string `json:"name"`
	CreatedAtMs int64  `json:"createdAtMs"`
}

// JournalEntry is one persisted CRUD journal record.
type JournalEntry struct {
	Seq  uint64   `json:"seq"`
	Kind string   `json:"kind"`
	AtMs int64    `json:"atMs"`
	IDs  []string `json:"ids,omitempty"`
}

// RawEntity is an entity snapshot as stored, without decoding. Used by
// inspection tooling that does not know the entity type.
type RawEntity struct {
	ID   string
	Data []byte
}

// Options configures a Store.
type Options struct {
	// DataDir is the Pebble database directory.
	DataDir string
	// Fsync selects the WAL sync policy.
	Fsync pebblestore.FsyncMode
	// FsyncInterval applies when Fsync is interval mode.
	FsyncInterval time.Duration
	// Logger is optional; a default logger is built when nil.
	Logger log.Logger
}

// Store owns one Pebble database holding any number of entity collections.
// Typed access goes through OpenCollection; the Raw* methods serve tooling
// that inspects collections without knowing their entity types.
type Store struct {
	db     *pebblestore.DB
	logger log.Logger
}

// Open creates or opens the store at opts.DataDir.
func Open(opts Options) (*Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewLogger().WithComponent("repository")
	}
	db, err := pebblestore.Open(pebblestore.Options{
		DataDir:       opts.DataDir,
		Fsync:         opts.Fsync,
		FsyncInterval: opts.FsyncInterval,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}
	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

// ensureCollection creates the collection meta record if absent, returning
// the effective meta. Idempotent.
func (s *Store) ensureCollection(name string) (Meta, error) {
	if name == "" {
		return Meta{}, errors.New("repository: collection name is required")
	}
	key := keyCollectionMeta(name)
	if b, err := s.db.Get(key); err == nil && len(b) > 0 {
		var m Meta
		if err := codec.Unmarshal(b, &m); err == nil {
			return m, nil
		}
		// fallthrough to rewrite if corrupted
	}
	m := Meta{Name: name, CreatedAtMs: time.Now().UnixMilli()}
	b, err := codec.Marshal(m)
	if err != nil {
		return Meta{}, err
	}
	if err := s.db.Set(key, b); err != nil {
		return Meta{}, err
	}
	return m, nil
}

// Collections lists every collection meta record, in name order.
func (s *Store) Collections() ([]Meta, error) {
	it, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: colMetaPrefix,
		UpperBound: prefixUpperBound(colMetaPrefix),
	})
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var out []Meta
	for it.First(); it.Valid(); it.Next() {
		var m Meta
		if err := codec.Unmarshal(it.Value(), &m); err != nil {
			continue
		}
		out = append(out, m)
	}
	return out, it.Error()
}

// RawEntities returns every entity snapshot in col without decoding.
func (s *Store) RawEntities(col string) ([]RawEntity, error) {
	prefix := keyEntityPrefix(col)
	it, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	})
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var out []RawEntity
	for it.First(); it.Valid(); it.Next() {
		out = append(out, RawEntity{
			ID:   string(it.Key()[len(prefix):]),
			Data: append([]byte(nil), it.Value()...),
		})
	}
	return out, it.Error()
}

// RawJournal returns up to limit of the newest journal records for col, oldest
// first. limit <= 0 means no limit.
func (s *Store) RawJournal(col string, limit int) ([]JournalEntry, error) {
	prefix := keyJournalPrefix(col)
	it, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	})
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var out []JournalEntry
	for it.Last(); it.Valid(); it.Prev() {
		var e JournalEntry
		if err := codec.Unmarshal(it.Value(), &e); err != nil {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	if err := it.Error(); err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Compact requests compaction of the whole keyspace.
func (s *Store) Compact() error {
	return s.db.CompactRange([]byte{0x00}, []byte{0xff})
}
