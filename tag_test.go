package objgrind

import "testing"

// Property 1: tag roundtrip. set_tag(a, t); get_tag(a) == t, and a
// neighbouring address in a different 4-byte group is unaffected.
func TestTagRoundtrip(t *testing.T) {
	tags := []paintableTag{PaintNoCheck, PaintUnwritable, PaintUnreferable}
	addrs := []uint64{0, 1, 3, 4, 4095, 0x10000, 0x123456}

	for _, pt := range tags {
		for _, a := range addrs {
			sm := NewShadowMemory()
			sm.SetTag(a, pt.tag())
			if got := sm.GetTag(a); got != pt.tag() {
				t.Errorf("SetTag(%#x, %v); GetTag = %v", a, pt.tag(), got)
			}

			neighbor := a + 4 // guaranteed to fall in a different 4-byte group
			if got := sm.GetTag(neighbor); got != NoCheck {
				t.Errorf("neighbor %#x of %#x perturbed: got %v, want NoCheck", neighbor, a, got)
			}
		}
	}
}

func TestTagRoundtripRefCheckSingleByte(t *testing.T) {
	sm := NewShadowMemory()
	sm.SetTag(0x2000, RefCheck)
	if got := sm.GetTag(0x2000); got != RefCheck {
		t.Errorf("GetTag = %v, want RefCheck", got)
	}
	if got := sm.GetTag(0x2001); got != NoCheck {
		t.Errorf("neighbor perturbed: got %v", got)
	}
}

func TestBitPackingAllFourLanes(t *testing.T) {
	// Exercise all four 2-bit lanes within one packed byte.
	sm := NewShadowMemory()
	base := uint64(0x30000)
	want := []Tag{Unwritable, NoCheck, Unreferable, RefCheck}
	for i, tag := range want {
		sm.SetTag(base+uint64(i), tag)
	}
	for i, tag := range want {
		if got := sm.GetTag(base + uint64(i)); got != tag {
			t.Errorf("lane %d: GetTag = %v, want %v", i, got, tag)
		}
	}
}

func TestTagString(t *testing.T) {
	cases := map[Tag]string{
		NoCheck:     "NoCheck",
		Unwritable:  "Unwritable",
		Unreferable: "Unreferable",
		RefCheck:    "RefCheck",
		Tag(0xff):   "Tag(invalid)",
	}
	for tag, want := range cases {
		if got := tag.String(); got != want {
			t.Errorf("Tag(%d).String() = %q, want %q", tag, got, want)
		}
	}
}
