package objgrind

import "testing"

func TestDispatchMakeUnwritableThenCheck(t *testing.T) {
	mem := NewShadowMemory()
	cfg := DefaultConfig()

	ret, ok := Dispatch(cfg, mem, ClientRequest{Code: ReqMakeUnwritable, Arg1: 0x1000, Arg2: 16})
	if !ok || ret != 0 {
		t.Fatalf("MakeUnwritable: ret=%d ok=%v", ret, ok)
	}

	val, ok := CheckUnwritable(cfg, mem, 0x1000)
	if !ok || val != 1 {
		t.Errorf("CheckUnwritable on painted range: val=%d ok=%v", val, ok)
	}
	val, ok = CheckUnwritable(cfg, mem, 0x9000)
	if !ok || val != 0 {
		t.Errorf("CheckUnwritable on NoCheck address: val=%d ok=%v", val, ok)
	}
}

func TestDispatchRefCheckFieldLifecycle(t *testing.T) {
	mem := NewShadowMemory()
	cfg := DefaultConfig()

	Dispatch(cfg, mem, ClientRequest{Code: ReqAddRefCheckField, Arg1: 0x2000})
	if got := mem.GetTag(0x2000); got != RefCheck {
		t.Fatalf("expected RefCheck, got %v", got)
	}
	Dispatch(cfg, mem, ClientRequest{Code: ReqRemoveRefCheckField, Arg1: 0x2000})
	if got := mem.GetTag(0x2000); got != NoCheck {
		t.Fatalf("expected NoCheck after removal, got %v", got)
	}
}

func TestDispatchOutsideReservedNamespaceIgnored(t *testing.T) {
	mem := NewShadowMemory()
	cfg := DefaultConfig()

	_, ok := Dispatch(cfg, mem, ClientRequest{Code: RequestCode(0x12340000), Arg1: 1})
	if ok {
		t.Error("codes outside the reserved namespace must be ignored, not handled")
	}
}

func TestDispatchUnknownCodeInsideNamespace(t *testing.T) {
	mem := NewShadowMemory()
	cfg := DefaultConfig()

	unknown := reservedBase + 0xff
	_, ok := Dispatch(cfg, mem, ClientRequest{Code: unknown})
	if ok {
		t.Error("unrecognised in-namespace code should report handled=false")
	}
}
