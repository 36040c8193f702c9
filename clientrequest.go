package objgrind

// RequestCode identifies a client request, matching Vg_ObjgrindClientRequest.
type RequestCode uint32

// reservedBase is this tool's slice of the client-request namespace,
// analogous to VG_USERREQ_TOOL_BASE('O','G'). Real ABI marshalling from a
// guest process is out of scope (spec.md §1); codes are compared
// directly rather than decoded from a ('O','G') character pair.
const reservedBase RequestCode = 0x4f470000

const (
	// ReqMakeNoCheck marks a range NoCheck.
	ReqMakeNoCheck RequestCode = reservedBase + iota
	// ReqMakeUnwritable marks a range Unwritable.
	ReqMakeUnwritable
	// ReqMakeUnreferable marks a range Unreferable.
	ReqMakeUnreferable
	// ReqAddRefCheckField tags a single field RefCheck.
	ReqAddRefCheckField
	// ReqRemoveRefCheckField clears a single field back to NoCheck.
	ReqRemoveRefCheckField
	// ReqCheckUnwritable queries whether an address is tagged Unwritable.
	ReqCheckUnwritable
)

// inReservedNamespace reports whether code falls within this tool's
// reserved request-code block, mirroring VG_IS_TOOL_USERREQ('O','G',...).
func inReservedNamespace(code RequestCode) bool {
	return code >= reservedBase && code < reservedBase+0x10000
}

// ClientRequest holds the first four words of the five-word argument
// vector a guest issues, modeled after Valgrind's UWord arg[] convention:
// Code is arg[0], Arg1/Arg2/Arg3 are arg[1..3]; arg[4] is not carried.
// Only Code, Arg1, and Arg2 are used by any request this tool defines.
type ClientRequest struct {
	Code RequestCode
	Arg1 uint64
	Arg2 uint64
	Arg3 uint64
}

// Dispatch handles req against mem, mirroring og_handle_client_request.
// handled reports whether the code was recognised; codes outside the
// reserved namespace are silently ignored (handled=false, no warning),
// while unrecognised codes inside the namespace emit an "unknown client
// request" warning through cfg and are also reported as unhandled.
func Dispatch(cfg *Config, mem *ShadowMemory, req ClientRequest) (ret uint64, handled bool) {
	if !inReservedNamespace(req.Code) {
		return 0, false
	}

	switch req.Code {
	case ReqMakeNoCheck:
		mem.Paint(cfg, req.Arg1, req.Arg2, PaintNoCheck)
		return 0, true
	case ReqMakeUnwritable:
		mem.Paint(cfg, req.Arg1, req.Arg2, PaintUnwritable)
		return 0, true
	case ReqMakeUnreferable:
		mem.Paint(cfg, req.Arg1, req.Arg2, PaintUnreferable)
		return 0, true
	case ReqAddRefCheckField:
		mem.SetTag(req.Arg1, RefCheck)
		return 0, true
	case ReqRemoveRefCheckField:
		mem.SetTag(req.Arg1, NoCheck)
		return 0, true
	case ReqCheckUnwritable:
		if mem.GetTag(req.Arg1) == Unwritable {
			return 1, true
		}
		return 0, true
	default:
		cfg.warnf("Warning: unknown objgrind client request code %x\n", uint32(req.Code))
		return 0, false
	}
}

// CheckUnwritable is a typed convenience wrapper around the
// ReqCheckUnwritable request: it returns the checked value, and whether
// the request was recognised at all, so "not handled" (ok=false) is
// distinguishable from "handled, and not unwritable" (val=0, ok=true).
func CheckUnwritable(cfg *Config, mem *ShadowMemory, addr uint64) (val uint64, ok bool) {
	return Dispatch(cfg, mem, ClientRequest{Code: ReqCheckUnwritable, Arg1: addr})
}
