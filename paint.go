package objgrind

// maxSingleWarnRange is the range length above which Paint emits a
// large-range warning (spec.md §4.2: 256 MiB).
const maxSingleWarnRange = 256 * 1024 * 1024

// Paint sets every byte in [base, base+length) to t, in three phases: a
// possibly-partial leading page, zero or more whole pages installed by a
// pointer swap to a shared distinguished page rather than by writing their
// contents, and a possibly-partial trailing page. Mirrors
// set_address_range_perms.
func (sm *ShadowMemory) Paint(cfg *Config, base uint64, length uint64, t paintableTag) {
	if length == 0 {
		return
	}
	if length > maxSingleWarnRange {
		cfg.warnf("Warning: set address range perms: large range [0x%x, 0x%x) (%s)\n",
			base, base+length, t.tag())
	}

	dist := distinguishedFor(t)

	a := base
	aNext := pageBase(a) + PageSize
	lenToNext := aNext - a

	var lenA, lenB uint64
	skipLeading := false
	switch {
	case isPageBase(a) && length >= PageSize:
		lenA, lenB = 0, length
		skipLeading = true
	case length <= lenToNext:
		lenA, lenB = length, 0
	default:
		lenA = lenToNext
		lenB = length - lenA
	}

	if !skipLeading {
		p := sm.pagePtrAlloc(a)
		if p == dist {
			// Already painted the way we want for this page; skip past it.
			a = aNext
		} else {
			if isDistinguished(p) {
				p = sm.installCOW(a, p)
			}
			paintBytesInPage(p, a, lenA, t)
			a += lenA
		}
		if lenB == 0 {
			return
		}
	}

	for lenB >= PageSize {
		sm.installWholePage(a, dist)
		lenB -= PageSize
		a += PageSize
	}
	if lenB == 0 {
		return
	}

	p := sm.pagePtrAlloc(a)
	if p == dist {
		return
	}
	if isDistinguished(p) {
		p = sm.installCOW(a, p)
	}
	paintBytesInPage(p, a, lenB, t)
}

// paintBytesInPage writes t across [a, a+length) within a single page, in
// three phases: byte-at-a-time until 8-byte aligned, 8-byte aligned
// repeated-pattern writes, then a byte-at-a-time tail. The caller
// guarantees the whole range lies within p.
func paintBytesInPage(p *tagPage, a, length uint64, t paintableTag) {
	tag := t.tag()
	for length > 0 && a&7 != 0 {
		p.set(a, tag)
		a++
		length--
	}
	for length >= 8 {
		p.fillAligned8(a, t)
		a += 8
		length -= 8
	}
	for length > 0 {
		p.set(a, tag)
		a++
		length--
	}
}

// pagePtrAlloc returns the page currently backing a, allocating a fresh
// auxiliary entry (defaulted to NoCheck) if a falls above the primary
// region and has never been touched. Never performs a copy-on-write.
// Mirrors get_secmap_ptr.
func (sm *ShadowMemory) pagePtrAlloc(a uint64) *tagPage {
	if a <= MaxPrimaryAddress {
		return sm.primary[a>>PageBits]
	}
	return sm.findOrAlloc(a)
}

// installCOW replaces the distinguished page dist backing a with a private
// copy and returns it.
func (sm *ShadowMemory) installCOW(a uint64, dist *tagPage) *tagPage {
	p := copyForWriting(dist)
	if a <= MaxPrimaryAddress {
		idx := a >> PageBits
		sm.primary[idx] = p
		sm.occupancy.markPrivate(idx)
	} else {
		sm.setAux(pageBase(a), p)
	}
	return p
}

// installWholePage installs dist as the page backing the whole 64 KiB
// region starting at a, discarding any previously-installed private page.
// Go's garbage collector reclaims the discarded page once unreferenced; no
// explicit free is needed here, unlike the host tool's VG_(free) call.
func (sm *ShadowMemory) installWholePage(a uint64, dist *tagPage) {
	if a <= MaxPrimaryAddress {
		idx := a >> PageBits
		if !isDistinguished(sm.primary[idx]) {
			sm.occupancy.markShared(idx)
		}
		sm.primary[idx] = dist
	} else {
		sm.setAux(pageBase(a), dist)
	}
}
