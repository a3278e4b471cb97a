// Package recency implements the keyspace's recency ordering: a doubly
// linked list of live keys from most- to least-recently touched, paired
// with an auxiliary map for O(1) lookup, giving O(1) move-to-front and
// evict-tail (spec.md 4.3). The index carries no locking of its own -- it is
// consulted and mutated only under the keyspace's write lock, mirroring the
// access discipline in mem/storage.go's EntStorage.
package recency

import (
	"container/list"
	"errors"
)

// ErrEmpty is returned by Oldest when the index holds no keys.
var ErrEmpty = errors.New("recency: index is empty")

// Index is a newest-first ordering over a set of string keys.
type Index struct {
	l *list.List
	m map[string]*list.Element
}

// New creates an empty recency index.
func New() *Index {
	return &Index{l: list.New(), m: make(map[string]*list.Element)}
}

// Touch records a use of key: if already present it is moved to the head;
// otherwise it is inserted at the head.
func (ix *Index) Touch(key string) {
	if el, ok := ix.m[key]; ok {
		ix.l.MoveToFront(el)
		return
	}
	ix.m[key] = ix.l.PushFront(key)
}

// Forget removes key from the ordering. No-op if key is not present.
func (ix *Index) Forget(key string) {
	el, ok := ix.m[key]
	if !ok {
		return
	}
	ix.l.Remove(el)
	delete(ix.m, key)
}

// Oldest returns the key at the tail -- the next eviction candidate.
func (ix *Index) Oldest() (string, error) {
	el := ix.l.Back()
	if el == nil {
		return "", ErrEmpty
	}
	return el.Value.(string), nil
}

// Contains reports whether key is present in the ordering.
func (ix *Index) Contains(key string) bool {
	_, ok := ix.m[key]
	return ok
}

// Len returns the number of keys in the ordering.
func (ix *Index) Len() int { return ix.l.Len() }
