package objgrind

import (
	"testing"

	"github.com/authorNari/objgrind/ir"
	"github.com/authorNari/objgrind/report"
)

func countKind(b *ir.Block, k ir.StmtKind) int {
	n := 0
	for _, st := range b.Stmts {
		if st.Kind == k {
			n++
		}
	}
	return n
}

func TestInstrumentPlainStoreInsertsOneCheck(t *testing.T) {
	mem := NewShadowMemory()
	mem.Paint(DefaultConfig(), 0x1000, 8, PaintUnwritable)
	rep := report.NewDefaultReporter(false)

	block := &ir.Block{TID: 1, Stmts: []ir.Stmt{
		ir.Other(),
		ir.Store(ir.I32, 0x1000, 0xabcd),
	}}
	out := Instrument(DefaultConfig(), rep, mem, block)

	if countKind(out, ir.StmtCheckerCall) != 1 {
		t.Fatalf("expected exactly one checker-call marker, got %d", countKind(out, ir.StmtCheckerCall))
	}
	if rep.Len() != 1 {
		t.Fatalf("expected the store to trip the checker, got %d errors", rep.Len())
	}
	if countKind(out, ir.StmtOther) != 1 || countKind(out, ir.StmtStore) != 1 {
		t.Error("original statements must still be present in the output block")
	}
}

func TestInstrumentV128SplitsIntoTwoLaneChecks(t *testing.T) {
	mem := NewShadowMemory()
	mem.Paint(DefaultConfig(), 0x2008, 8, PaintUnwritable)
	rep := report.NewDefaultReporter(false)

	block := &ir.Block{Stmts: []ir.Stmt{
		ir.VectorStore(ir.V128, 0x2000, []uint64{0x1, 0x2}),
	}}
	out := Instrument(DefaultConfig(), rep, mem, block)

	if countKind(out, ir.StmtCheckerCall) != 2 {
		t.Fatalf("expected two lane checks, got %d", countKind(out, ir.StmtCheckerCall))
	}
	if rep.Len() != 1 {
		t.Fatalf("only the high lane at 0x2008 should trip, got %d errors", rep.Len())
	}
}

func TestInstrumentV256SplitsIntoFourLaneChecks(t *testing.T) {
	mem := NewShadowMemory()
	rep := report.NewDefaultReporter(false)

	block := &ir.Block{Stmts: []ir.Stmt{
		ir.VectorStore(ir.V256, 0x3000, []uint64{1, 2, 3, 4}),
	}}
	out := Instrument(DefaultConfig(), rep, mem, block)

	if countKind(out, ir.StmtCheckerCall) != 4 {
		t.Fatalf("expected four lane checks, got %d", countKind(out, ir.StmtCheckerCall))
	}
}

func TestInstrumentCASPassesThroughUnchecked(t *testing.T) {
	mem := NewShadowMemory()
	mem.Paint(DefaultConfig(), 0x4000, 8, PaintUnwritable)
	rep := report.NewDefaultReporter(false)

	block := &ir.Block{Stmts: []ir.Stmt{ir.CAS(0x4000)}}
	out := Instrument(DefaultConfig(), rep, mem, block)

	if countKind(out, ir.StmtCheckerCall) != 0 {
		t.Error("CAS must never get a checker call inserted")
	}
	if rep.Len() != 0 {
		t.Error("CAS to an unwritable address must not be flagged")
	}
	if len(out.Stmts) != 1 || out.Stmts[0].Kind != ir.StmtCAS {
		t.Error("CAS statement must be passed through unchanged")
	}
}

func TestInstrumentStoreGRespectsGuard(t *testing.T) {
	mem := NewShadowMemory()
	mem.Paint(DefaultConfig(), 0x5000, 4, PaintUnwritable)
	rep := report.NewDefaultReporter(false)

	falseGuard := false
	block := &ir.Block{Stmts: []ir.Stmt{
		ir.StoreG(ir.I32, 0x5000, 0, &falseGuard),
	}}
	out := Instrument(DefaultConfig(), rep, mem, block)

	if rep.Len() != 0 {
		t.Error("a false guard must suppress the checker call entirely")
	}
	if countKind(out, ir.StmtCheckerCall) != 0 {
		t.Error("a false guard must suppress the inserted marker too")
	}

	trueGuard := true
	block2 := &ir.Block{Stmts: []ir.Stmt{
		ir.StoreG(ir.I32, 0x5000, 0, &trueGuard),
	}}
	Instrument(DefaultConfig(), rep, mem, block2)
	if rep.Len() != 1 {
		t.Error("a true guard must let the checker call run")
	}
}
