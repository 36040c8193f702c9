package objgrind

import "github.com/authorNari/objgrind/report"

// HostWordBits is the instrumented guest program's host word width, 32 or
// 64. It governs the asymmetric splitting store_check64 applies on a
// 32-bit host: the 64-bit store is checked as two independent 32-bit
// UNWRITABLE checks with no reference check performed, a deliberate
// limitation carried over from the original store_check64.
type HostWordBits int

const (
	// HostWord32 selects the 32-bit-host splitting behaviour.
	HostWord32 HostWordBits = 32
	// HostWord64 selects the direct 64-bit check.
	HostWord64 HostWordBits = 64
)

// Checker is the store-checking hot path: size-specialised callbacks that
// the instrumentation adapter wires in before every store. It holds the
// tag store it checks against and the reporter it submits violations to.
type Checker struct {
	mem      *ShadowMemory
	reporter report.Reporter
	hostBits HostWordBits
}

// NewChecker builds a Checker over mem, submitting violations to reporter.
func NewChecker(mem *ShadowMemory, reporter report.Reporter, hostBits HostWordBits) *Checker {
	return &Checker{mem: mem, reporter: reporter, hostBits: hostBits}
}

// Check8 checks a 1-byte store to addr. data is unused, mirroring
// OG_(store_check8)'s unused data8 parameter: the destination's tag is
// the only thing that can make a store of any width unwritable.
func (c *Checker) Check8(tid uint64, addr uint64, data uint8) {
	c.checkUnwritableOnly(tid, addr)
}

// Check16 checks a 2-byte store to addr.
func (c *Checker) Check16(tid uint64, addr uint64, data uint16) {
	c.checkUnwritableOnly(tid, addr)
}

// Check32 checks a 4-byte store to addr, additionally reference-checking
// data as an address when addr is tagged RefCheck.
func (c *Checker) Check32(tid uint64, addr uint64, data uint32) {
	c.checkUnwritableOrRefCheck(tid, addr, uint64(data))
}

// Check64 checks an 8-byte store to addr. On a 32-bit host this splits
// into two independent 32-bit UNWRITABLE-only checks against the same
// addr — one per 32-bit half of data — matching OG_(store_check64)'s
// wordSize==32 branch, which never advances the address: a 64-bit value
// stored from a 32-bit host still lands at a single address, checked
// twice for its low and high halves.
func (c *Checker) Check64(tid uint64, addr uint64, data uint64) {
	if c.hostBits == HostWord32 {
		c.checkUnwritableOnly(tid, addr)
		c.checkUnwritableOnly(tid, addr)
		return
	}
	c.checkUnwritableOrRefCheck(tid, addr, data)
}

func (c *Checker) checkUnwritableOnly(tid uint64, addr uint64) {
	if c.mem.GetTag(addr) == Unwritable {
		c.reporter.Submit(tid, report.UnwritableErr, addr)
	}
}

// checkUnwritableOrRefCheck implements the shared body of store_check32
// and store_check64's 64-bit path: an UNWRITABLE destination is always a
// violation; otherwise, if the destination is RefCheck, the stored value
// itself is treated as an address and checked for Unreferable.
func (c *Checker) checkUnwritableOrRefCheck(tid uint64, addr uint64, data uint64) {
	switch c.mem.GetTag(addr) {
	case Unwritable:
		c.reporter.Submit(tid, report.UnwritableErr, addr)
	case RefCheck:
		if c.mem.GetTag(data) == Unreferable {
			c.reporter.Submit(tid, report.UnreferableErr, data)
		}
	}
}
