// Package report models the error-reporter collaborator a host tool
// consumes: a kind taxonomy, a deduplicating submission sink, and
// plain/XML pretty-printers. Mirrors the registration og_error.c performs
// against the Valgrind error-management core (og_compare_error_contexts,
// og_tool_error_pp, og_is_recognized_suppression), except here the core
// is a plain Go interface the store checker calls into, rather than a
// callback table installed with VG_(needs_tool_errors).
package report

import (
	"fmt"
	"io"
)

// Kind identifies which policy an error violates.
type Kind int

const (
	// UnwritableErr is a store to an address tagged Unwritable.
	UnwritableErr Kind = iota + 1
	// UnreferableErr is a RefCheck store whose stored value names an
	// address tagged Unreferable.
	UnreferableErr
)

// String names a Kind the way STR_UnwritableError/STR_UnreferableError
// name OgErrorKind in og_error.h.
func (k Kind) String() string {
	switch k {
	case UnwritableErr:
		return "UnwritableMemoryError"
	case UnreferableErr:
		return "UnreferableError"
	default:
		return "unknown Objgrind error code"
	}
}

// KindFromSuppressionName recognises a suppression-file kind name,
// mirroring og_is_recognized_suppression.
func KindFromSuppressionName(name string) (Kind, bool) {
	switch name {
	case "UnwritableMemoryError":
		return UnwritableErr, true
	case "UnreferableError":
		return UnreferableErr, true
	default:
		return 0, false
	}
}

// SuppressionName is the inverse of KindFromSuppressionName.
func (k Kind) SuppressionName() string {
	return k.String()
}

// Reporter is the error-submission sink the core calls into. A host
// embedding ShadowMemory supplies its own implementation (e.g. to route
// into its own diagnostics UI); DefaultReporter is a ready-to-use one for
// tests and standalone use.
type Reporter interface {
	Submit(tid uint64, kind Kind, addr uint64)
}

// entry is one deduplicated error record.
type entry struct {
	tid  uint64
	kind Kind
	addr uint64
}

// dedupKey is entry's identity for deduplication purposes: og_compare_
// error_contexts compares only kind and address, never the thread ID, so
// the seen-set must be keyed on dedupKey, not entry, or a second
// submission with a different tid would never match the first.
type dedupKey struct {
	kind Kind
	addr uint64
}

// DefaultReporter accumulates submitted errors, deduplicating by
// (kind, addr) exactly as og_compare_error_contexts does — the thread ID
// of the first report wins, matching VG_(maybe_record_error)'s semantics
// of recording an error context once per distinct (kind, address) pair.
type DefaultReporter struct {
	xml     bool
	entries []entry
	seen    map[dedupKey]struct{}
}

// NewDefaultReporter returns an empty reporter. xml selects XML-flavoured
// pretty-printing, mirroring VG_(clo_xml).
func NewDefaultReporter(xml bool) *DefaultReporter {
	return &DefaultReporter{xml: xml, seen: make(map[dedupKey]struct{})}
}

// Submit records an error, ignoring it if an error of the same kind at
// the same address has already been submitted.
func (r *DefaultReporter) Submit(tid uint64, kind Kind, addr uint64) {
	key := dedupKey{kind: kind, addr: addr}
	if _, dup := r.seen[key]; dup {
		return
	}
	r.seen[key] = struct{}{}
	r.entries = append(r.entries, entry{tid: tid, kind: kind, addr: addr})
}

// Len returns the number of distinct errors recorded so far.
func (r *DefaultReporter) Len() int {
	return len(r.entries)
}

// Errors returns the recorded errors in submission order. The slice is
// owned by the caller.
func (r *DefaultReporter) Errors() []Record {
	out := make([]Record, len(r.entries))
	for i, e := range r.entries {
		out[i] = Record{TID: e.tid, Kind: e.kind, Addr: e.addr}
	}
	return out
}

// Record is a caller-facing copy of one deduplicated error.
type Record struct {
	TID  uint64
	Kind Kind
	Addr uint64
}

// PrintTo writes every recorded error to w, in the plain or XML style
// selected at construction, mirroring og_tool_error_pp/emit_WRK.
func (r *DefaultReporter) PrintTo(w io.Writer) {
	for _, e := range r.entries {
		if r.xml {
			fmt.Fprintf(w, "<error><kind>%s</kind><addr>0x%x</addr></error>\n", e.kind, e.addr)
		} else {
			fmt.Fprintf(w, "%s\n", e.kind)
		}
	}
}

// Register is the Go analogue of OG_(register_error_handlers): it exists
// so a tool's setup code has a single call that documents which kinds,
// comparator, and suppression names this package contributes. Since
// DefaultReporter already implements comparison (by construction,
// Submit's dedup key) and both pretty-printers, Register returns r
// unchanged as a Reporter and performs no checks of its own.
func Register(r *DefaultReporter) Reporter {
	return r
}
