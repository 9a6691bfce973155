// Package gcheap implements the heap object header, the heap registry, and the allocator that backs the conservative mark-and-sweep
// collector in package gcollector.
package gcheap

import "unsafe"

// objHeader is the fixed prefix stored in front of every GC-managed
// allocation. It is never scanned by the collector; only the fields below
// are touched, and only by the registry and the collector.
type objHeader struct {
	next   *objHeader
	size   uintptr
	marked bool
}

// headerSize is the number of bytes the header occupies in front of every
// payload.
const headerSize = unsafe.Sizeof(objHeader{})

// headerOf returns the header belonging to a payload pointer previously
// returned by Registry.Alloc.
func headerOf(payload unsafe.Pointer) *objHeader {
	return (*objHeader)(unsafe.Pointer(uintptr(payload) - headerSize))
}

// payloadOf returns the payload pointer for a header.
func payloadOf(h *objHeader) unsafe.Pointer {
	return unsafe.Pointer(uintptr(unsafe.Pointer(h)) + headerSize)
}

// addr is the numeric identity of a header, used by the collector's
// conservative pointer resolution (address equality against the intrusive
// list, see Registry.Resolve).
func (h *objHeader) addr() uintptr {
	return uintptr(unsafe.Pointer(h))
}
