// Package auxmap provides the auxiliary primary map: a fast hash map from
// 64 KiB-aligned base addresses to shadow pages, for the portion of the
// guest address space above the direct-indexed primary map's reach.
//
// It is adapted from a fast integer-keyed hash map originally used to look
// up in-memory pages by 32-bit page number; here the key is widened to a
// 64-bit page-aligned address and the value is an opaque pointer to a
// shadow page, open-addressed with fibonacci hashing exactly as before.
package auxmap

import "unsafe"

// Map is a fast hash map from 64 KiB-aligned base address to a page
// pointer. Uses open addressing with linear probing and fibonacci
// hashing, which spreads the page-aligned (low-bits-zero) keys this map
// actually sees far better than a naive mod-table-size hash would.
type Map struct {
	buckets []bucket
	count   int
	mask    uint64
}

type bucket struct {
	key   uint64
	value unsafe.Pointer
	used  bool
}

// fibHash64 is the 64-bit fibonacci hashing constant: 2^64 / golden ratio.
const fibHash64 = 11400714819323198485

// hash spreads a page-aligned key (whose low 16 bits are always zero)
// across the table.
func (m *Map) hash(key uint64) uint64 {
	return (key >> 16) * fibHash64
}

// Get returns the entry for base, or (nil, false) if absent.
func (m *Map) Get(base uint64) (unsafe.Pointer, bool) {
	if len(m.buckets) == 0 {
		return nil, false
	}
	idx := m.hash(base) & m.mask
	for {
		b := &m.buckets[idx]
		if !b.used {
			return nil, false
		}
		if b.key == base {
			return b.value, true
		}
		idx = (idx + 1) & m.mask
	}
}

// Set stores the page pointer for base, inserting a new entry if needed.
func (m *Map) Set(base uint64, value unsafe.Pointer) {
	if len(m.buckets) == 0 {
		m.buckets = make([]bucket, 16)
		m.mask = 15
	} else if m.count >= len(m.buckets)*3/4 {
		m.grow()
	}

	idx := m.hash(base) & m.mask
	for {
		b := &m.buckets[idx]
		if !b.used {
			b.key = base
			b.value = value
			b.used = true
			m.count++
			return
		}
		if b.key == base {
			b.value = value
			return
		}
		idx = (idx + 1) & m.mask
	}
}

func (m *Map) grow() {
	old := m.buckets
	newSize := len(old) * 2
	m.buckets = make([]bucket, newSize)
	m.mask = uint64(newSize - 1)
	m.count = 0
	for i := range old {
		if old[i].used {
			m.Set(old[i].key, old[i].value)
		}
	}
}

// Clear removes all entries but keeps the backing array.
func (m *Map) Clear() {
	clear(m.buckets)
	m.count = 0
}

// Len returns the number of entries.
func (m *Map) Len() int {
	return m.count
}

// ForEach iterates over all (base, value) pairs in unspecified order.
func (m *Map) ForEach(fn func(base uint64, value unsafe.Pointer)) {
	for i := range m.buckets {
		if m.buckets[i].used {
			fn(m.buckets[i].key, m.buckets[i].value)
		}
	}
}
