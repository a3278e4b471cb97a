// Package value implements the tagged-variant value model: every key in the
// keyspace is bound to exactly one of {String, List, Set, Hash}. A Value
// carries its own kind tag and exposes a capability set of {Kind, Encode,
// Decode} to callers outside this package; every other operation is
// variant-private and must only be invoked after the caller has checked Kind
// (the keyspace does this once, at the top of each command).
package value

import (
	"container/list"
	"fmt"
)

// Kind identifies which of the four variants a Value holds.
type Kind byte

const (
	KindString Kind = iota
	KindList
	KindSet
	KindHash
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindSet:
		return "set"
	case KindHash:
		return "hash"
	default:
		return "none"
	}
}

// Value is a sum type over the four variants. Exactly one of the backing
// fields is meaningful for a given Kind; which one is determined by kind.
type Value struct {
	kind Kind
	str  []byte
	list *list.List          // elements are []byte
	set  map[string]struct{} // member -> {}
	hash map[string][]byte   // field -> value
}

// NewString creates a String value. b is retained, not copied.
func NewString(b []byte) *Value { return &Value{kind: KindString, str: b} }

// NewList creates an empty List value.
func NewList() *Value { return &Value{kind: KindList, list: list.New()} }

// NewSet creates an empty Set value.
func NewSet() *Value { return &Value{kind: KindSet, set: make(map[string]struct{})} }

// NewHash creates an empty Hash value.
func NewHash() *Value { return &Value{kind: KindHash, hash: make(map[string][]byte)} }

// Kind returns the variant this Value holds.
func (v *Value) Kind() Kind { return v.kind }

func (v *Value) mustBe(k Kind) {
	if v.kind != k {
		panic(fmt.Sprintf("value: operation requires kind %v, got %v", k, v.kind))
	}
}

// -----------------------------------------------------------------------
// String

// Get returns the string's bytes. Panics if Kind() != KindString.
func (v *Value) Get() []byte {
	v.mustBe(KindString)
	return v.str
}

// Set replaces the string's bytes in place.
func (v *Value) Set(b []byte) {
	v.mustBe(KindString)
	v.str = b
}

// -----------------------------------------------------------------------
// List

// PushFront prepends b and returns the new length.
func (v *Value) PushFront(b []byte) int {
	v.mustBe(KindList)
	v.list.PushFront(b)
	return v.list.Len()
}

// PushBack appends b and returns the new length.
func (v *Value) PushBack(b []byte) int {
	v.mustBe(KindList)
	v.list.PushBack(b)
	return v.list.Len()
}

// PopFront removes and returns the head element. ok is false if empty.
func (v *Value) PopFront() (b []byte, ok bool) {
	v.mustBe(KindList)
	e := v.list.Front()
	if e == nil {
		return nil, false
	}
	v.list.Remove(e)
	return e.Value.([]byte), true
}

// PopBack removes and returns the tail element. ok is false if empty.
func (v *Value) PopBack() (b []byte, ok bool) {
	v.mustBe(KindList)
	e := v.list.Back()
	if e == nil {
		return nil, false
	}
	v.list.Remove(e)
	return e.Value.([]byte), true
}

// Index returns the element at position i (negative counts from the tail).
// ok is false when i is out of range -- this is a signal, not an error.
func (v *Value) Index(i int) (b []byte, ok bool) {
	v.mustBe(KindList)
	n := v.list.Len()
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return nil, false
	}
	e := v.list.Front()
	for ; i > 0; i-- {
		e = e.Next()
	}
	return e.Value.([]byte), true
}

// Range returns elements [start,end], both inclusive and both normalized by
// adding the length when negative, then clamped to [0,len-1]. start>end after
// normalization yields an empty (non-nil-vs-nil unspecified) result.
func (v *Value) Range(start, end int) [][]byte {
	v.mustBe(KindList)
	n := v.list.Len()
	if start < 0 {
		start += n
	}
	if end < 0 {
		end += n
	}
	if start < 0 {
		start = 0
	}
	if end > n-1 {
		end = n - 1
	}
	if start > end || n == 0 {
		return nil
	}
	out := make([][]byte, 0, end-start+1)
	e := v.list.Front()
	for i := 0; i < start; i++ {
		e = e.Next()
	}
	for i := start; i <= end; i++ {
		out = append(out, e.Value.([]byte))
		e = e.Next()
	}
	return out
}

// Len returns the number of elements (List), members (Set), or fields
// (Hash). Panics on String.
func (v *Value) Len() int {
	switch v.kind {
	case KindList:
		return v.list.Len()
	case KindSet:
		return len(v.set)
	case KindHash:
		return len(v.hash)
	default:
		panic("value: Len() requires an aggregate kind")
	}
}

// IsEmpty reports whether an aggregate value has zero members. Used by the
// keyspace to enforce the "no empty aggregate stays bound" invariant.
func (v *Value) IsEmpty() bool { return v.Len() == 0 }

// -----------------------------------------------------------------------
// Set

// Add inserts member b, returning true if it was not already present.
func (v *Value) Add(b []byte) bool {
	v.mustBe(KindSet)
	k := string(b)
	if _, ok := v.set[k]; ok {
		return false
	}
	v.set[k] = struct{}{}
	return true
}

// Contains reports whether b is a member.
func (v *Value) Contains(b []byte) bool {
	v.mustBe(KindSet)
	_, ok := v.set[string(b)]
	return ok
}

// Remove deletes member b, returning true if it was present.
func (v *Value) Remove(b []byte) bool {
	v.mustBe(KindSet)
	k := string(b)
	if _, ok := v.set[k]; !ok {
		return false
	}
	delete(v.set, k)
	return true
}

// Card returns the number of members.
func (v *Value) Card() int {
	v.mustBe(KindSet)
	return len(v.set)
}

// Members returns all members. Iteration order is unspecified but stable
// for the lifetime of the returned slice.
func (v *Value) Members() [][]byte {
	v.mustBe(KindSet)
	out := make([][]byte, 0, len(v.set))
	for m := range v.set {
		out = append(out, []byte(m))
	}
	return out
}

// -----------------------------------------------------------------------
// Hash

// HSet binds field to val, returning true if the field is new.
func (v *Value) HSet(field, val []byte) bool {
	v.mustBe(KindHash)
	k := string(field)
	_, existed := v.hash[k]
	v.hash[k] = val
	return !existed
}

// HGet returns the value bound to field, if any.
func (v *Value) HGet(field []byte) (val []byte, ok bool) {
	v.mustBe(KindHash)
	val, ok = v.hash[string(field)]
	return
}

// HLen returns the number of fields.
func (v *Value) HLen() int {
	v.mustBe(KindHash)
	return len(v.hash)
}

// HExists reports whether field is bound.
func (v *Value) HExists(field []byte) bool {
	v.mustBe(KindHash)
	_, ok := v.hash[string(field)]
	return ok
}

// HDel removes field, returning true if it was present.
func (v *Value) HDel(field []byte) bool {
	v.mustBe(KindHash)
	k := string(field)
	if _, ok := v.hash[k]; !ok {
		return false
	}
	delete(v.hash, k)
	return true
}

// HKeys returns all field names. Order is unspecified.
func (v *Value) HKeys() [][]byte {
	v.mustBe(KindHash)
	out := make([][]byte, 0, len(v.hash))
	for f := range v.hash {
		out = append(out, []byte(f))
	}
	return out
}

// HVals returns all values. Order is unspecified and is not guaranteed to
// match the order of a separate HKeys call; use HEntries for aligned pairs.
func (v *Value) HVals() [][]byte {
	v.mustBe(KindHash)
	out := make([][]byte, 0, len(v.hash))
	for _, val := range v.hash {
		out = append(out, val)
	}
	return out
}

// HEntries returns field/value pairs, flattened as [field0, val0, field1, val1, ...].
func (v *Value) HEntries() [][]byte {
	v.mustBe(KindHash)
	out := make([][]byte, 0, len(v.hash)*2)
	for f, val := range v.hash {
		out = append(out, []byte(f), val)
	}
	return out
}
