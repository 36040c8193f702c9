// Package guestmem provides real addressable memory for tests and demos
// to paint and store into, adapted from the teacher's file-backed mmap
// package. A guest process is out of scope for this module (spec.md §1),
// so the "guest address space" scenario tests exercise is simply a
// process-local anonymous mapping: its base address, read back via
// Addr, is a real pointer a ShadowMemory can key tags against and a real
// region of writable bytes the test can store through.
package guestmem

import "unsafe"

func addrOf(b []byte) uint64 {
	if len(b) == 0 {
		panic("guestmem: Addr of an empty or closed mapping")
	}
	return uint64(uintptr(unsafe.Pointer(&b[0])))
}

// Map represents one mapped memory region, either file-backed (New) or
// anonymous (NewAnon).
type Map struct {
	data     []byte
	fd       int
	size     int64
	writable bool
	// Windows-specific handles (only used on Windows, zero on Unix).
	handle  uintptr
	mapping uintptr
}

// Data returns the mapped byte slice.
func (m *Map) Data() []byte {
	return m.data
}

// Size returns the mapped size in bytes.
func (m *Map) Size() int64 {
	return m.size
}

// Writable reports whether the mapping was made with write permission.
func (m *Map) Writable() bool {
	return m.writable
}

// Addr returns the guest address of the mapping's first byte: the real
// process address of data[0], widened to a uint64 the way a 32-bit guest
// address would be. Panics if the mapping is empty or already closed.
func (m *Map) Addr() uint64 {
	return addrOf(m.data)
}

// Error represents a guestmem error.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return "guestmem: " + e.Op + ": " + e.Err.Error()
	}
	return "guestmem: " + e.Op
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Common errors.
var (
	ErrInvalidSize = &Error{Op: "invalid size"}
	ErrNotMapped   = &Error{Op: "not mapped"}
	ErrEmptyFile   = &Error{Op: "empty file"}
)
