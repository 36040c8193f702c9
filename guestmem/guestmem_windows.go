//go:build windows

package guestmem

import (
	"os"
	"unsafe"

	"golang.org/x/sys/windows"
)

// New creates a file-backed mapping for fd.
func New(fd int, offset int64, length int, writable bool) (*Map, error) {
	if length <= 0 {
		return nil, ErrInvalidSize
	}

	handle := windows.Handle(fd)
	prot := uint32(windows.PAGE_READONLY)
	access := uint32(windows.FILE_MAP_READ)
	if writable {
		prot = windows.PAGE_READWRITE
		access = windows.FILE_MAP_WRITE
	}

	mapping, err := windows.CreateFileMapping(handle, nil, prot, uint32(uint64(length)>>32), uint32(length), nil)
	if err != nil {
		return nil, &Error{Op: "CreateFileMapping", Err: err}
	}

	addr, err := windows.MapViewOfFile(mapping, access, uint32(uint64(offset)>>32), uint32(offset), uintptr(length))
	if err != nil {
		windows.CloseHandle(mapping)
		return nil, &Error{Op: "MapViewOfFile", Err: err}
	}

	return &Map{
		data:     sliceFromAddr(addr, length),
		fd:       fd,
		size:     int64(length),
		writable: writable,
		handle:   uintptr(handle),
		mapping:  uintptr(mapping),
	}, nil
}

// NewAnon creates an anonymous mapping backed by the system page file,
// the guest-memory equivalent of the literal mmap(5P, rw) calls in the
// scenario tests.
func NewAnon(length int, writable bool) (*Map, error) {
	if length <= 0 {
		return nil, ErrInvalidSize
	}

	prot := uint32(windows.PAGE_READONLY)
	access := uint32(windows.FILE_MAP_READ)
	if writable {
		prot = windows.PAGE_READWRITE
		access = windows.FILE_MAP_WRITE
	}

	mapping, err := windows.CreateFileMapping(windows.InvalidHandle, nil, prot, uint32(uint64(length)>>32), uint32(length), nil)
	if err != nil {
		return nil, &Error{Op: "CreateFileMapping anon", Err: err}
	}

	addr, err := windows.MapViewOfFile(mapping, access, 0, 0, uintptr(length))
	if err != nil {
		windows.CloseHandle(mapping)
		return nil, &Error{Op: "MapViewOfFile anon", Err: err}
	}

	return &Map{
		data:     sliceFromAddr(addr, length),
		fd:       -1,
		size:     int64(length),
		writable: writable,
		mapping:  uintptr(mapping),
	}, nil
}

// MapFile opens a file and maps its entire contents.
func MapFile(path string, writable bool) (*Map, error) {
	flag := os.O_RDONLY
	if writable {
		flag = os.O_RDWR
	}

	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}

	size := fi.Size()
	if size == 0 {
		return nil, ErrEmptyFile
	}

	return New(int(f.Fd()), 0, int(size), writable)
}

// Close releases the mapping.
func (m *Map) Close() error {
	if m.data == nil {
		return nil
	}

	addr := uintptr(unsafe.Pointer(&m.data[0]))
	if err := windows.UnmapViewOfFile(addr); err != nil {
		return &Error{Op: "UnmapViewOfFile", Err: err}
	}
	if m.mapping != 0 {
		windows.CloseHandle(windows.Handle(m.mapping))
		m.mapping = 0
	}
	m.data = nil
	m.size = 0
	return nil
}

func sliceFromAddr(addr uintptr, length int) []byte {
	var data []byte
	sh := (*struct {
		Data uintptr
		Len  int
		Cap  int
	})(unsafe.Pointer(&data))
	sh.Data = addr
	sh.Len = length
	sh.Cap = length
	return data
}
