package objgrind

import "math/bits"

// occupancy is a bitset recording which primary-map slots currently hold a
// privately-allocated (copy-on-written) page rather than a shared
// distinguished page. It lets ShadowMemory.Census answer "how many private
// pages exist" in O(words) instead of walking all PrimaryMapSize pointers,
// which matters once PrimaryBits is 20 (a million entries).
type occupancy struct {
	words []uint64
}

func newOccupancy(numSlots int) occupancy {
	return occupancy{words: make([]uint64, (numSlots+63)/64)}
}

// markPrivate records that slot now holds a privately-allocated page.
func (o occupancy) markPrivate(slot uint64) {
	o.words[slot/64] |= 1 << (slot % 64)
}

// markShared records that slot has reverted to a shared distinguished page
// (a full-page paint replaced a private page).
func (o occupancy) markShared(slot uint64) {
	o.words[slot/64] &^= 1 << (slot % 64)
}

// count returns the number of slots currently marked private.
func (o occupancy) count() int {
	var n int
	for _, w := range o.words {
		n += bits.OnesCount64(w)
	}
	return n
}
