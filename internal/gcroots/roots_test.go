package gcroots

import (
	"bytes"
	"strings"
	"testing"
	"unsafe"
)

func slotOf(v *int) unsafe.Pointer { return unsafe.Pointer(v) }

func TestAddAndLen(t *testing.T) {
	var s Set
	a, b := 1, 2
	s.Add(slotOf(&a))
	s.Add(slotOf(&b))
	if s.Len() != 2 {
		t.Fatalf("want len 2, got %d", s.Len())
	}
}

func TestDuplicateRootsPermitted(t *testing.T) {
	var s Set
	a := 1
	s.Add(slotOf(&a))
	s.Add(slotOf(&a))
	if s.Len() != 2 {
		t.Fatalf("want two entries for duplicate root, got %d", s.Len())
	}
}

func TestRemoveFirstOccurrencePreservesOrder(t *testing.T) {
	var s Set
	a, b, c := 1, 2, 3
	s.Add(slotOf(&a))
	s.Add(slotOf(&b))
	s.Add(slotOf(&a))
	s.Add(slotOf(&c))

	if !s.Remove(slotOf(&a)) {
		t.Fatalf("expected Remove to find a match")
	}
	if s.Len() != 3 {
		t.Fatalf("want 3 remaining roots, got %d", s.Len())
	}
	if s.At(0) != slotOf(&b) || s.At(1) != slotOf(&a) || s.At(2) != slotOf(&c) {
		t.Fatalf("remove did not preserve contiguous-suffix ordering")
	}
}

func TestRemoveMissingReturnsFalse(t *testing.T) {
	var s Set
	a, b := 1, 2
	s.Add(slotOf(&a))
	if s.Remove(slotOf(&b)) {
		t.Fatalf("expected Remove to report no match")
	}
}

func TestPushPopFrameRestoresCount(t *testing.T) {
	var s Set
	a, b := 1, 2
	s.Add(slotOf(&a))

	frame := s.PushFrame()
	s.Add(slotOf(&b))
	s.Add(slotOf(&b))
	if s.Len() != 3 {
		t.Fatalf("want 3 roots mid-frame, got %d", s.Len())
	}

	s.PopFrame(frame)
	if s.Len() != 1 {
		t.Fatalf("want root count restored to 1 after PopFrame, got %d", s.Len())
	}
}

func TestAddPastCapacityDropsAndWarns(t *testing.T) {
	var s Set
	var buf bytes.Buffer
	s.SetDiagnosticsWriter(&buf)

	v := 1
	slot := slotOf(&v)
	for i := 0; i < MaxRoots; i++ {
		s.Add(slot)
	}
	if s.Len() != MaxRoots {
		t.Fatalf("want exactly MaxRoots roots, got %d", s.Len())
	}

	s.Add(slot)
	if s.Len() != MaxRoots {
		t.Fatalf("root set grew past MaxRoots")
	}
	if !strings.Contains(buf.String(), "root set full") {
		t.Fatalf("expected overflow diagnostic, got %q", buf.String())
	}
}
