package objgrind

import "testing"

func TestDistinguishedPagesAreSingletonsByIdentity(t *testing.T) {
	if distinguishedFor(PaintNoCheck) != distinguishedNoCheck {
		t.Error("distinguishedFor(PaintNoCheck) is not the singleton")
	}
	if distinguishedFor(PaintUnwritable) != distinguishedUnwritable {
		t.Error("distinguishedFor(PaintUnwritable) is not the singleton")
	}
	if distinguishedFor(PaintUnreferable) != distinguishedUnreferable {
		t.Error("distinguishedFor(PaintUnreferable) is not the singleton")
	}
	if distinguishedNoCheck == distinguishedUnwritable || distinguishedUnwritable == distinguishedUnreferable {
		t.Error("distinguished pages are not distinct instances")
	}
}

func TestDistinguishedPageContentsUniform(t *testing.T) {
	cases := []struct {
		p    *tagPage
		tag  Tag
		name string
	}{
		{distinguishedNoCheck, NoCheck, "NoCheck"},
		{distinguishedUnwritable, Unwritable, "Unwritable"},
		{distinguishedUnreferable, Unreferable, "Unreferable"},
	}
	for _, c := range cases {
		for a := uint64(0); a < PageSize; a += 997 {
			if got := c.p.get(a); got != c.tag {
				t.Fatalf("%s page: get(%#x) = %v, want %v", c.name, a, got, c.tag)
			}
		}
	}
}

// Property 4: COW isolation. Writing into a page COW'd from a
// distinguished page must never mutate the distinguished singleton's
// backing bytes.
func TestCOWIsolation(t *testing.T) {
	var wantNoCheck, wantUnwritable, wantUnreferable tagPage
	wantNoCheck = *distinguishedNoCheck
	wantUnwritable = *distinguishedUnwritable
	wantUnreferable = *distinguishedUnreferable

	sm := NewShadowMemory()
	sm.SetTag(0x1000, Unwritable)
	sm.Paint(DefaultConfig(), 0x50000, 3*PageSize, PaintUnreferable)
	sm.SetTag(0x90000, RefCheck)

	if *distinguishedNoCheck != wantNoCheck {
		t.Error("distinguishedNoCheck mutated")
	}
	if *distinguishedUnwritable != wantUnwritable {
		t.Error("distinguishedUnwritable mutated")
	}
	if *distinguishedUnreferable != wantUnreferable {
		t.Error("distinguishedUnreferable mutated")
	}
}

func TestCopyForWritingIsIndependent(t *testing.T) {
	cp := copyForWriting(distinguishedUnwritable)
	if cp == distinguishedUnwritable {
		t.Fatal("copyForWriting returned the distinguished pointer itself")
	}
	cp.set(0, NoCheck)
	if distinguishedUnwritable.get(0) != Unwritable {
		t.Error("mutating the copy perturbed the distinguished original")
	}
}

func TestPageBaseAndIsPageBase(t *testing.T) {
	if !isPageBase(0) {
		t.Error("0 should be a page base")
	}
	if !isPageBase(PageSize) {
		t.Error("PageSize should be a page base")
	}
	if isPageBase(PageSize + 1) {
		t.Error("PageSize+1 should not be a page base")
	}
	if pageBase(PageSize+100) != PageSize {
		t.Errorf("pageBase(PageSize+100) = %#x, want %#x", pageBase(PageSize+100), PageSize)
	}
}
