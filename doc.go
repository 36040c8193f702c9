// Package objgrind is a standalone, embeddable shadow-memory engine for
// building per-byte memory-access-discipline checkers: the same
// two-bit-per-byte tag store, copy-on-write distinguished pages, and
// store-checking discipline as a Valgrind-style dynamic binary
// instrumentation tool, exposed as a Go library instead of a compiled
// tool plugin.
//
// A ShadowMemory maps every byte of an address space to one of four
// Tag values (NoCheck, Unwritable, Unreferable, RefCheck). Paint sets a
// tag over a range efficiently, aliasing whole untouched pages to one of
// three shared distinguished pages rather than allocating storage for
// them. A Checker, wired in by Instrument ahead of every store in an
// ir.Block, flags violations to a report.Reporter.
//
// Basic usage:
//
//	mem := objgrind.NewShadowMemory()
//	cfg := objgrind.DefaultConfig()
//	mem.Paint(cfg, base, length, objgrind.PaintUnwritable)
//
//	rep := report.NewDefaultReporter(false)
//	checker := objgrind.NewChecker(mem, rep, objgrind.HostWord64)
//	checker.Check32(tid, addr, data)
package objgrind
