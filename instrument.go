package objgrind

import (
	"github.com/authorNari/objgrind/ir"
	"github.com/authorNari/objgrind/report"
)

// Instrument rewrites block, the Go-native equivalent of og_instrument: a
// checker call is inserted immediately before every store statement, CAS
// statements and everything else pass through unmodified. 128-bit stores
// split into two 64-bit lane checks (offsets 0 and 8); 256-bit stores
// split into four (offsets 0, 8, 16, 24), exactly as insert_store_checker
// does for Ity_V128/Ity_V256. Guarded stores propagate their guard into
// the inserted checker call(s).
//
// Unlike a real translator, this IR carries concrete runtime values
// rather than symbolic temporaries, so there is no separate codegen step:
// the inserted checker calls run against mem/reporter immediately, and
// the returned block additionally records a StmtCheckerCall marker ahead
// of each store for callers that want to inspect what was checked.
func Instrument(cfg *Config, reporter report.Reporter, mem *ShadowMemory, block *ir.Block) *ir.Block {
	hostBits := cfg.HostWordBits
	if hostBits == 0 {
		hostBits = HostWord64
	}
	checker := NewChecker(mem, reporter, hostBits)

	out := &ir.Block{TID: block.TID}
	for _, st := range block.Stmts {
		switch st.Kind {
		case ir.StmtStore:
			emitStoreChecks(out, checker, block.TID, st, nil)
			out.Stmts = append(out.Stmts, st)
		case ir.StmtStoreG:
			emitStoreChecks(out, checker, block.TID, st, st.Guard)
			out.Stmts = append(out.Stmts, st)
		case ir.StmtCAS:
			// TODO(objgrind): CAS destinations are never checked.
			out.Stmts = append(out.Stmts, st)
		default:
			out.Stmts = append(out.Stmts, st)
		}
	}
	return out
}

// emitStoreChecks appends a StmtCheckerCall marker (and runs the
// corresponding Checker call) for every lane of a store statement. When
// guard is non-nil and currently false, the store — and its checks — are
// skipped entirely, matching a guarded store that does not fire.
func emitStoreChecks(out *ir.Block, checker *Checker, tid uint64, st ir.Stmt, guard *bool) {
	if guard != nil && !*guard {
		return
	}

	switch st.Type {
	case ir.I8:
		checker.Check8(tid, st.Addr, uint8(st.Data))
		appendMarker(out, 8, st.Addr, st.Data, guard)
	case ir.I16:
		checker.Check16(tid, st.Addr, uint16(st.Data))
		appendMarker(out, 16, st.Addr, st.Data, guard)
	case ir.I32:
		checker.Check32(tid, st.Addr, uint32(st.Data))
		appendMarker(out, 32, st.Addr, st.Data, guard)
	case ir.I64:
		checker.Check64(tid, st.Addr, st.Data)
		appendMarker(out, 64, st.Addr, st.Data, guard)
	case ir.V128:
		for i, off := range [2]uint64{0, 8} {
			checker.Check64(tid, st.Addr+off, st.Lanes[i])
			appendMarker(out, 64, st.Addr+off, st.Lanes[i], guard)
		}
	case ir.V256:
		for i, off := range [4]uint64{0, 8, 16, 24} {
			checker.Check64(tid, st.Addr+off, st.Lanes[i])
			appendMarker(out, 64, st.Addr+off, st.Lanes[i], guard)
		}
	}
}

func appendMarker(out *ir.Block, bits int, addr, data uint64, guard *bool) {
	out.Stmts = append(out.Stmts, ir.Stmt{
		Kind:       ir.StmtCheckerCall,
		CheckBits:  bits,
		CheckAddr:  addr,
		CheckData:  data,
		CheckGuard: guard,
	})
}
