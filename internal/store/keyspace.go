// Package store implements the keyspace: the authoritative key -> Value map,
// coordinated with the recency index and membership filter under a single
// readers-writer lock (spec.md 4.4, 5). Mutation paths and the
// string-specific GET both take the exclusive lock and touch recency;
// every other inspection path takes the shared lock and leaves recency
// alone, per the "approximate LRU" resolution in spec.md 5 and 9.
package store

import (
	"errors"
	"sync"

	"github.com/rsms/blinkdb/internal/bloom"
	"github.com/rsms/blinkdb/internal/recency"
	"github.com/rsms/blinkdb/internal/value"
	log "github.com/rsms/go-log"
)

// ErrWrongType is returned when a command's expected variant does not match
// the variant a key is already bound to. Its text matches the wire reply
// verbatim (minus the leading '-'), per spec.md's end-to-end scenario 2.
var ErrWrongType = errors.New("WRONGTYPE Operation against a key holding the wrong kind of value")

const defaultCapacity = 1000

// Keyspace owns the live key->Value map together with its recency ordering
// and membership filter sidecars.
type Keyspace struct {
	mu       sync.RWMutex
	m        map[string]*value.Value
	recency  *recency.Index
	filter   *bloom.Filter
	capacity int
	logger   *log.Logger
}

// New creates a Keyspace with the given capacity (<=0 uses the spec
// default of 1000) and filter width in bits. logger may be nil.
func New(capacity int, filterBits uint64, logger *log.Logger) *Keyspace {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Keyspace{
		m:        make(map[string]*value.Value, capacity),
		recency:  recency.New(),
		filter:   bloom.New(filterBits),
		capacity: capacity,
		logger:   logger,
	}
}

// evictIfNeeded removes recency-tail keys until the live count is within
// capacity. Called with mu already held exclusively. Eviction is not
// transactional with the write that triggered it: the triggering write
// always succeeds; only a different, coldest key is ejected (spec.md 4.4).
func (k *Keyspace) evictIfNeeded() {
	for k.recency.Len() > k.capacity {
		oldest, err := k.recency.Oldest()
		if err != nil {
			return
		}
		delete(k.m, oldest)
		k.recency.Forget(oldest)
		if k.logger != nil {
			k.logger.Debug("evicted %q (capacity %d)", oldest, k.capacity)
		}
	}
}

// removeIfEmpty deletes key if its bound aggregate has become empty, per
// the "no empty aggregate stays bound" invariant. Called with mu held.
func (k *Keyspace) removeIfEmpty(key string, v *value.Value) {
	if v.IsEmpty() {
		delete(k.m, key)
		k.recency.Forget(key)
	}
}

// -----------------------------------------------------------------------
// String

// Get returns the string bound to key. found is false if absent. Unlike
// other inspection paths, GET is defined as a mutating touch for LRU
// fidelity (spec.md 5) and so takes the exclusive lock.
func (k *Keyspace) Get(key string) (val []byte, found bool, err error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.filter.MaybePresent([]byte(key)) {
		return nil, false, nil
	}
	v, ok := k.m[key]
	if !ok {
		return nil, false, nil
	}
	if v.Kind() != value.KindString {
		return nil, false, ErrWrongType
	}
	k.recency.Touch(key)
	return v.Get(), true, nil
}

// Set unconditionally binds key to a String value, replacing any prior
// binding regardless of its variant (the one exception to type immutability,
// per spec.md 3 invariant 5).
func (k *Keyspace) Set(key string, val []byte) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.m[key] = value.NewString(val)
	k.filter.Add([]byte(key))
	k.recency.Touch(key)
	k.evictIfNeeded()
}

// -----------------------------------------------------------------------
// Keyspace-wide

// Del removes key, if present. It always returns true (the command-level
// reply is unconditionally ":1", per spec.md 6's DEL row).
func (k *Keyspace) Del(key string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	if _, ok := k.m[key]; ok {
		delete(k.m, key)
		k.recency.Forget(key)
	}
	return true
}

// Type returns the variant name bound to key, or "none" if absent. Pure
// inspection: takes the shared lock and does not touch recency.
func (k *Keyspace) Type(key string) string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if !k.filter.MaybePresent([]byte(key)) {
		return "none"
	}
	v, ok := k.m[key]
	if !ok {
		return "none"
	}
	return v.Kind().String()
}

// getOrCreate returns the value bound to key, creating and binding a new
// value of kind via makeEmpty if key is absent. Returns ErrWrongType if key
// is bound to a different variant. Called with mu held exclusively.
func (k *Keyspace) getOrCreate(key string, kind value.Kind, makeEmpty func() *value.Value) (*value.Value, error) {
	v, ok := k.m[key]
	if !ok {
		v = makeEmpty()
		k.m[key] = v
		k.filter.Add([]byte(key))
		return v, nil
	}
	if v.Kind() != kind {
		return nil, ErrWrongType
	}
	return v, nil
}

// -----------------------------------------------------------------------
// List

func (k *Keyspace) push(key string, val []byte, front bool) (int64, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	v, err := k.getOrCreate(key, value.KindList, value.NewList)
	if err != nil {
		return 0, err
	}
	var n int
	if front {
		n = v.PushFront(val)
	} else {
		n = v.PushBack(val)
	}
	k.recency.Touch(key)
	k.evictIfNeeded()
	return int64(n), nil
}

// LPush prepends val to the list at key, creating it if absent.
func (k *Keyspace) LPush(key string, val []byte) (int64, error) { return k.push(key, val, true) }

// RPush appends val to the list at key, creating it if absent.
func (k *Keyspace) RPush(key string, val []byte) (int64, error) { return k.push(key, val, false) }

func (k *Keyspace) pop(key string, front bool) (val []byte, found bool, err error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.filter.MaybePresent([]byte(key)) {
		return nil, false, nil
	}
	v, ok := k.m[key]
	if !ok {
		return nil, false, nil
	}
	if v.Kind() != value.KindList {
		return nil, false, ErrWrongType
	}
	if front {
		val, found = v.PopFront()
	} else {
		val, found = v.PopBack()
	}
	if !found {
		return nil, false, nil
	}
	k.recency.Touch(key)
	k.removeIfEmpty(key, v)
	return val, true, nil
}

// LPop removes and returns the head of the list at key.
func (k *Keyspace) LPop(key string) ([]byte, bool, error) { return k.pop(key, true) }

// RPop removes and returns the tail of the list at key.
func (k *Keyspace) RPop(key string) ([]byte, bool, error) { return k.pop(key, false) }

// LIndex returns the element at position idx (negative counts from the
// tail). Pure inspection.
func (k *Keyspace) LIndex(key string, idx int64) (val []byte, found bool, err error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if !k.filter.MaybePresent([]byte(key)) {
		return nil, false, nil
	}
	v, ok := k.m[key]
	if !ok {
		return nil, false, nil
	}
	if v.Kind() != value.KindList {
		return nil, false, ErrWrongType
	}
	val, found = v.Index(int(idx))
	return
}

// LLen returns the length of the list at key, or 0 if absent.
func (k *Keyspace) LLen(key string) (int64, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if !k.filter.MaybePresent([]byte(key)) {
		return 0, nil
	}
	v, ok := k.m[key]
	if !ok {
		return 0, nil
	}
	if v.Kind() != value.KindList {
		return 0, ErrWrongType
	}
	return int64(v.Len()), nil
}

// LRange returns elements [start,end] of the list at key (both inclusive,
// both signed, normalized per spec.md 4.1).
func (k *Keyspace) LRange(key string, start, end int64) ([][]byte, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if !k.filter.MaybePresent([]byte(key)) {
		return nil, nil
	}
	v, ok := k.m[key]
	if !ok {
		return nil, nil
	}
	if v.Kind() != value.KindList {
		return nil, ErrWrongType
	}
	return v.Range(int(start), int(end)), nil
}

// -----------------------------------------------------------------------
// Set

// SAdd adds val to the set at key, creating it if absent. Returns true if
// val was not already a member.
func (k *Keyspace) SAdd(key string, val []byte) (bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	v, err := k.getOrCreate(key, value.KindSet, value.NewSet)
	if err != nil {
		return false, err
	}
	added := v.Add(val)
	k.recency.Touch(key)
	k.evictIfNeeded()
	return added, nil
}

// SIsMember reports whether val is a member of the set at key.
func (k *Keyspace) SIsMember(key string, val []byte) (bool, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if !k.filter.MaybePresent([]byte(key)) {
		return false, nil
	}
	v, ok := k.m[key]
	if !ok {
		return false, nil
	}
	if v.Kind() != value.KindSet {
		return false, ErrWrongType
	}
	return v.Contains(val), nil
}

// SRem removes val from the set at key. Returns true if it was present. An
// emptied set is removed entirely.
func (k *Keyspace) SRem(key string, val []byte) (bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.filter.MaybePresent([]byte(key)) {
		return false, nil
	}
	v, ok := k.m[key]
	if !ok {
		return false, nil
	}
	if v.Kind() != value.KindSet {
		return false, ErrWrongType
	}
	removed := v.Remove(val)
	if removed {
		k.recency.Touch(key)
		k.removeIfEmpty(key, v)
	}
	return removed, nil
}

// SCard returns the cardinality of the set at key, or 0 if absent.
func (k *Keyspace) SCard(key string) (int64, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if !k.filter.MaybePresent([]byte(key)) {
		return 0, nil
	}
	v, ok := k.m[key]
	if !ok {
		return 0, nil
	}
	if v.Kind() != value.KindSet {
		return 0, ErrWrongType
	}
	return int64(v.Card()), nil
}

// SMembers returns all members of the set at key.
func (k *Keyspace) SMembers(key string) ([][]byte, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if !k.filter.MaybePresent([]byte(key)) {
		return nil, nil
	}
	v, ok := k.m[key]
	if !ok {
		return nil, nil
	}
	if v.Kind() != value.KindSet {
		return nil, ErrWrongType
	}
	return v.Members(), nil
}

// -----------------------------------------------------------------------
// Hash

// HSet binds field to val in the hash at key, creating it if absent.
// Returns true if field is new.
func (k *Keyspace) HSet(key string, field, val []byte) (bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	v, err := k.getOrCreate(key, value.KindHash, value.NewHash)
	if err != nil {
		return false, err
	}
	isNew := v.HSet(field, val)
	k.recency.Touch(key)
	k.evictIfNeeded()
	return isNew, nil
}

// HGet returns the value bound to field in the hash at key.
func (k *Keyspace) HGet(key string, field []byte) (val []byte, found bool, err error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if !k.filter.MaybePresent([]byte(key)) {
		return nil, false, nil
	}
	v, ok := k.m[key]
	if !ok {
		return nil, false, nil
	}
	if v.Kind() != value.KindHash {
		return nil, false, ErrWrongType
	}
	val, found = v.HGet(field)
	return
}

// HExists reports whether field is bound in the hash at key.
func (k *Keyspace) HExists(key string, field []byte) (bool, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if !k.filter.MaybePresent([]byte(key)) {
		return false, nil
	}
	v, ok := k.m[key]
	if !ok {
		return false, nil
	}
	if v.Kind() != value.KindHash {
		return false, ErrWrongType
	}
	return v.HExists(field), nil
}

// HDel removes field from the hash at key. An emptied hash is removed
// entirely.
func (k *Keyspace) HDel(key string, field []byte) (bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.filter.MaybePresent([]byte(key)) {
		return false, nil
	}
	v, ok := k.m[key]
	if !ok {
		return false, nil
	}
	if v.Kind() != value.KindHash {
		return false, ErrWrongType
	}
	removed := v.HDel(field)
	if removed {
		k.recency.Touch(key)
		k.removeIfEmpty(key, v)
	}
	return removed, nil
}

// HLen returns the number of fields in the hash at key, or 0 if absent.
func (k *Keyspace) HLen(key string) (int64, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if !k.filter.MaybePresent([]byte(key)) {
		return 0, nil
	}
	v, ok := k.m[key]
	if !ok {
		return 0, nil
	}
	if v.Kind() != value.KindHash {
		return 0, ErrWrongType
	}
	return int64(v.HLen()), nil
}

// HKeys returns all field names of the hash at key.
func (k *Keyspace) HKeys(key string) ([][]byte, error) {
	return k.hashProject(key, (*value.Value).HKeys)
}

// HVals returns all field values of the hash at key.
func (k *Keyspace) HVals(key string) ([][]byte, error) {
	return k.hashProject(key, (*value.Value).HVals)
}

// HGetAll returns field/value pairs of the hash at key, flattened.
func (k *Keyspace) HGetAll(key string) ([][]byte, error) {
	return k.hashProject(key, (*value.Value).HEntries)
}

func (k *Keyspace) hashProject(key string, project func(*value.Value) [][]byte) ([][]byte, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if !k.filter.MaybePresent([]byte(key)) {
		return nil, nil
	}
	v, ok := k.m[key]
	if !ok {
		return nil, nil
	}
	if v.Kind() != value.KindHash {
		return nil, ErrWrongType
	}
	return project(v), nil
}

// -----------------------------------------------------------------------
// Introspection / persistence support

// Len returns the number of live keys.
func (k *Keyspace) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.m)
}

// Capacity returns the configured eviction threshold.
func (k *Keyspace) Capacity() int { return k.capacity }

// FilterDensity returns the membership filter's current load factor.
func (k *Keyspace) FilterDensity() float64 {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.filter.Density()
}

// FilterBits returns the membership filter's configured width. The width is
// fixed at construction time, but read under the lock for consistency with
// every other filter access.
func (k *Keyspace) FilterBits() uint64 {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.filter.Bits()
}

// Record is a (key, on-disk tag, encoded body) triple, the unit the
// persist package reads and writes.
type Record struct {
	Key  string
	Tag  byte
	Body []byte
}

// Snapshot returns a point-in-time copy of every live key for persistence.
func (k *Keyspace) Snapshot() []Record {
	k.mu.RLock()
	defer k.mu.RUnlock()
	out := make([]Record, 0, len(k.m))
	for key, v := range k.m {
		out = append(out, Record{Key: key, Tag: v.Tag(), Body: v.Encode()})
	}
	return out
}

// LoadRecord installs a single decoded value during start-of-process load,
// bypassing the get-or-create/WrongType machinery (the file is assumed to
// have been produced by a prior clean Snapshot). Successive calls establish
// the initial recency order in call order, oldest first, per spec.md 4.5.
func (k *Keyspace) LoadRecord(key string, v *value.Value) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.m[key] = v
	k.filter.Add([]byte(key))
	k.recency.Touch(key)
	k.evictIfNeeded()
}
