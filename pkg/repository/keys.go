package repository

import (
	"encoding/binary"
)

// Keyspace helpers for Pebble keys.
//
// Layout (byte-wise, lexicographically sortable):
// - colmeta/{collection}
// - col/{collection}/ent/{id}
// - col/{collection}/jrn/{seq_be8}
// - col/{collection}/jrnmeta

var (
	colMetaPrefix = []byte("colmeta/")
	colPrefix     = []byte("col/")
	entSeg        = []byte("/ent/")
	jrnSeg        = []byte("/jrn/")
	jrnMetaSuffix = []byte("/jrnmeta")
)

func appendBE8(dst []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(dst, b[:]...)
}

// keyCollectionMeta builds the collection metadata key.
func keyCollectionMeta(col string) []byte {
	k := make([]byte, 0, len(colMetaPrefix)+len(col))
	k = append(k, colMetaPrefix...)
	k = append(k, col...)
	return k
}

// keyEntity builds the entity snapshot key.
func keyEntity(col, id string) []byte {
	k := make([]byte, 0, len(col)+len(id)+16)
	k = append(k, colPrefix...)
	k = append(k, col...)
	k = append(k, entSeg...)
	k = append(k, id...)
	return k
}

// keyEntityPrefix returns the range prefix covering every entity in col.
func keyEntityPrefix(col string) []byte {
	k := make([]byte, 0, len(col)+16)
	k = append(k, colPrefix...)
	k = append(k, col...)
	k = append(k, entSeg...)
	return k
}

// keyJournal builds the journal record key with a big-endian sequence for
// proper ordering.
func keyJournal(col string, seq uint64) []byte {
	k := make([]byte, 0, len(col)+24)
	k = append(k, colPrefix...)
	k = append(k, col...)
	k = append(k, jrnSeg...)
	k = appendBE8(k, seq)
	return k
}

// keyJournalPrefix returns the range prefix covering the journal of col.
func keyJournalPrefix(col string) []byte {
	k := make([]byte, 0, len(col)+16)
	k = append(k, colPrefix...)
	k = append(k, col...)
	k = append(k, jrnSeg...)
	return k
}

// keyJournalMeta builds the key holding the last issued journal sequence.
func keyJournalMeta(col string) []byte {
	k := make([]byte, 0, len(col)+16)
	k = append(k, colPrefix...)
	k = append(k, col...)
	k = append(k, jrnMetaSuffix...)
	return k
}

// prefixUpperBound returns the smallest key greater than every key with the
// given prefix, for use as an iterator upper bound.
func prefixUpperBound(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
