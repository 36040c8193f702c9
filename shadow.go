package objgrind

import (
	"math/bits"
	"unsafe"

	"github.com/authorNari/objgrind/internal/auxmap"
)

// PrimaryBits is log2 of the number of primary-map entries: 16 on 32-bit
// targets (covering the whole address space) and 20 on 64-bit targets
// (covering the first 64 GiB). Derived from the host word size the
// way alignToSysPageSize derives file-size alignment from the host page
// size: at runtime-constant, architecture-dependent arithmetic.
const PrimaryBits = 16 + (bits.UintSize-32)/32*4

// PrimaryMapSize is the number of entries in the primary map.
const PrimaryMapSize = 1 << PrimaryBits

// MaxPrimaryAddress is the highest address covered by the primary map;
// addresses above this fall through to the auxiliary map.
const MaxPrimaryAddress = uint64(PageSize)*PrimaryMapSize - 1

// frontCacheSize is the number of entries in the auxiliary map's
// self-organising front-cache.
const frontCacheSize = 24

// frontCacheInsertRank is the index at which a fresh auxiliary-map hit is
// installed into the front-cache, per spec.md's AUXMAP_L1_INSERT_IX.
const frontCacheInsertRank = 12

type frontCacheEntry struct {
	base uint64
	page *tagPage
}

// ShadowMemory is the two-bit-per-byte tag store: a direct-indexed primary
// map for the low address range, an auxiliary hash map with a
// self-organising front-cache for everything above it, and copy-on-write
// distinguished pages shared across all untouched regions.
//
// Not safe for concurrent use: spec.md's concurrency model is
// single-threaded cooperative execution under the instrumentation host,
// and no locking is implemented here.
type ShadowMemory struct {
	primary []*tagPage
	aux     auxmap.Map
	cache   [frontCacheSize]frontCacheEntry

	occupancy occupancy
}

// NewShadowMemory creates a tag store with every byte of the address space
// initially tagged NoCheck via the distinguished NoCheck page.
func NewShadowMemory() *ShadowMemory {
	sm := &ShadowMemory{
		primary: make([]*tagPage, PrimaryMapSize),
	}
	for i := range sm.primary {
		sm.primary[i] = distinguishedNoCheck
	}
	sm.occupancy = newOccupancy(PrimaryMapSize)
	return sm
}

// GetTag returns the tag currently recorded for address a. Total: unmapped
// regions read back as NoCheck via the distinguished page.
func (sm *ShadowMemory) GetTag(a uint64) Tag {
	p := sm.PageForRead(a)
	return p.get(a)
}

// SetTag sets the tag for a single address, performing a copy-on-write if
// the backing page is currently a distinguished shared page.
func (sm *ShadowMemory) SetTag(a uint64, t Tag) {
	p := sm.PageForWrite(a)
	p.set(a, t)
}

// PageForRead returns the page backing address a. The result may be one of
// the three distinguished shared pages; callers must not mutate it.
func (sm *ShadowMemory) PageForRead(a uint64) *tagPage {
	if a <= MaxPrimaryAddress {
		return sm.primary[a>>PageBits]
	}
	return sm.pageForReadHigh(a)
}

func (sm *ShadowMemory) pageForReadHigh(a uint64) *tagPage {
	if p, ok := sm.findInAux(pageBase(a)); ok {
		return p
	}
	return sm.findOrAlloc(a)
}

// PageForWrite returns a writable page backing address a, performing
// copy-on-write if the current page is a distinguished shared page. The
// result is never one of the three distinguished singletons.
func (sm *ShadowMemory) PageForWrite(a uint64) *tagPage {
	if a <= MaxPrimaryAddress {
		idx := a >> PageBits
		p := sm.primary[idx]
		if isDistinguished(p) {
			p = copyForWriting(p)
			sm.primary[idx] = p
			sm.occupancy.markPrivate(idx)
		}
		return p
	}
	return sm.pageForWriteHigh(a)
}

func (sm *ShadowMemory) pageForWriteHigh(a uint64) *tagPage {
	base := pageBase(a)
	p := sm.findOrAlloc(a)
	if isDistinguished(p) {
		p = copyForWriting(p)
		sm.setAux(base, p)
	}
	return p
}

// MaybePage returns the page currently backing address a, without
// allocating an auxiliary entry if one does not already exist. Used by
// collaborators (e.g. a leak checker) that must not perturb the tag store.
func (sm *ShadowMemory) MaybePage(a uint64) (*tagPage, bool) {
	if a <= MaxPrimaryAddress {
		return sm.primary[a>>PageBits], true
	}
	return sm.findInAux(pageBase(a))
}

// findOrAlloc implements find_or_alloc_in_auxmap: look the page up via the
// front-cache/auxiliary map, allocating a fresh NoCheck-backed entry on
// total miss.
func (sm *ShadowMemory) findOrAlloc(a uint64) *tagPage {
	base := pageBase(a)
	if p, ok := sm.findInAux(base); ok {
		return p
	}
	p := distinguishedNoCheck
	sm.setAux(base, p)
	return p
}

// findInAux implements maybe_find_in_auxmap: the front-cache fast paths
// followed by a full front-cache scan and, on total miss there, a lookup
// in the auxiliary hash map (which is promoted into the front-cache on
// hit).
func (sm *ShadowMemory) findInAux(base uint64) (*tagPage, bool) {
	if sm.cache[0].base == base && sm.cache[0].page != nil {
		return sm.cache[0].page, true
	}
	if sm.cache[1].base == base && sm.cache[1].page != nil {
		sm.cache[0], sm.cache[1] = sm.cache[1], sm.cache[0]
		return sm.cache[0].page, true
	}

	for i := 2; i < frontCacheSize; i++ {
		if sm.cache[i].base == base && sm.cache[i].page != nil {
			sm.cache[i-1], sm.cache[i] = sm.cache[i], sm.cache[i-1]
			return sm.cache[i-1].page, true
		}
	}

	if v, ok := sm.aux.Get(base); ok {
		p := (*tagPage)(v)
		sm.insertIntoCache(frontCacheInsertRank, base, p)
		return p, true
	}
	return nil, false
}

// insertIntoCache shifts entries at and beyond rank down by one slot and
// installs (base, p) at rank, matching insert_into_auxmap_L1_at.
func (sm *ShadowMemory) insertIntoCache(rank int, base uint64, p *tagPage) {
	for i := frontCacheSize - 1; i > rank; i-- {
		sm.cache[i] = sm.cache[i-1]
	}
	sm.cache[rank] = frontCacheEntry{base: base, page: p}
}

// setAux installs p as the page for the 64 KiB region starting at base,
// in both the auxiliary map and the front-cache.
func (sm *ShadowMemory) setAux(base uint64, p *tagPage) {
	sm.aux.Set(base, unsafe.Pointer(p))
	for i := range sm.cache {
		if sm.cache[i].base == base {
			sm.cache[i].page = p
			return
		}
	}
	sm.insertIntoCache(frontCacheInsertRank, base, p)
}

// Census reports the number of primary-map slots holding a
// privately-allocated (copy-on-written) page, versus a shared distinguished
// page, without walking the entire primary map.
func (sm *ShadowMemory) Census() (private, distinguished int) {
	private = sm.occupancy.count()
	distinguished = PrimaryMapSize - private
	return private, distinguished
}
