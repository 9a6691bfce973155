// Package gcroots implements the root set of spec §4.3: a bounded vector
// of pointer-to-pointer entries registered by the mutator, each of which
// must be treated as live on every collection cycle.
package gcroots

import (
	"fmt"
	"io"
	"os"
	"unsafe"
)

// MaxRoots is the hard capacity of a Set, per spec §3/§4.3/§9.
const MaxRoots = 4096

// Set is a capacity-bounded, ordering-stable vector of root slots. The
// zero value is a valid, empty set.
type Set struct {
	slots []unsafe.Pointer

	// diagnostics is where Add writes its single soft-fail line when the
	// set is already at MaxRoots. Defaults to os.Stderr; tests substitute
	// a buffer, the same injection idiom used by package gcheap for its
	// fatal paths.
	diagnostics io.Writer
}

// Frame is the token returned by PushFrame and consumed by PopFrame.
type Frame int

func (s *Set) writer() io.Writer {
	if s.diagnostics == nil {
		return os.Stderr
	}
	return s.diagnostics
}

// SetDiagnosticsWriter overrides where Add's overflow diagnostic is
// written. Intended for tests.
func (s *Set) SetDiagnosticsWriter(w io.Writer) {
	s.diagnostics = w
}

// Add appends a root slot. Per spec §4.3, duplicate registrations are
// permitted. If the set is already at MaxRoots, Add drops the root and
// writes a single diagnostic line instead of failing: the program keeps
// running, but anything reachable only through the dropped root may be
// collected prematurely.
func (s *Set) Add(slot unsafe.Pointer) {
	if len(s.slots) >= MaxRoots {
		fmt.Fprintf(s.writer(), "gc: root set full (%d entries), dropping new root\n", MaxRoots)
		return
	}
	s.slots = append(s.slots, slot)
}

// Remove deletes the first occurrence of slot (compared by identity),
// shifting the tail down so ordering is preserved and no gap remains. It
// reports whether a matching entry was found.
func (s *Set) Remove(slot unsafe.Pointer) bool {
	for i, got := range s.slots {
		if got == slot {
			s.slots = append(s.slots[:i], s.slots[i+1:]...)
			return true
		}
	}
	return false
}

// PushFrame captures the current root count so a later PopFrame can unwind
// back to it.
func (s *Set) PushFrame() Frame {
	return Frame(len(s.slots))
}

// PopFrame truncates the set back to the count captured by f, undoing any
// roots added since. Truncating, rather than tracking individual slots, is
// what makes the "register all of a call frame's roots, unwind them on
// return" discipline cheap.
func (s *Set) PopFrame(f Frame) {
	if int(f) < len(s.slots) {
		s.slots = s.slots[:f]
	}
}

// Len returns the current number of registered roots.
func (s *Set) Len() int {
	return len(s.slots)
}

// At returns the i'th root slot.
func (s *Set) At(i int) unsafe.Pointer {
	return s.slots[i]
}
