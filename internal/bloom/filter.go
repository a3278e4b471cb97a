// Package bloom implements the keyspace's membership filter: a fixed-width,
// additive-only bit array answering "definitely absent" / "possibly
// present" for a key. Bits are derived from a single hash function and are
// never cleared, even when the key they were set for is later deleted --
// the filter is only ever consulted as a pre-check ahead of the definitive
// map lookup, so a stale positive costs a wasted lookup, never a wrong
// answer (spec.md 4.2).
package bloom

import (
	"github.com/cespare/xxhash/v2"
	bits "github.com/rsms/go-bits"
)

const wordBits = 64

// Filter is a fixed-size bit array of m bits.
type Filter struct {
	words []uint64
	m     uint64
}

// New creates a filter with m bits (m == 0 is treated as 1). The backing
// storage is rounded up to a whole number of 64-bit words, but only the
// first m bits are ever used and Bits reports m itself.
func New(m uint64) *Filter {
	if m == 0 {
		m = 1
	}
	nwords := (m + wordBits - 1) / wordBits
	return &Filter{words: make([]uint64, nwords), m: m}
}

// Add sets the bit derived from key. Never clears a bit.
func (f *Filter) Add(key []byte) {
	i := f.index(key)
	f.words[i/wordBits] |= 1 << (i % wordBits)
}

// MaybePresent reports whether key's bit is set. false means key is
// definitely absent from the keyspace; true means it might be present and
// the caller must fall through to the authoritative map lookup.
func (f *Filter) MaybePresent(key []byte) bool {
	i := f.index(key)
	return f.words[i/wordBits]&(1<<(i%wordBits)) != 0
}

func (f *Filter) index(key []byte) uint64 {
	return xxhash.Sum64(key) % f.m
}

// Bits returns the configured bit-array width.
func (f *Filter) Bits() uint64 { return f.m }

// Density returns the fraction of bits currently set, a coarse load-factor
// diagnostic surfaced by the INFO command. It is not used for correctness
// anywhere in the filter's own logic.
func (f *Filter) Density() float64 {
	var set int
	for _, w := range f.words {
		set += bits.PopcountUint64(w)
	}
	return float64(set) / float64(f.m)
}
