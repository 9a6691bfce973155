package gcheap

import (
	"fmt"
	"io"
	"os"
	"unsafe"
)

// Stats is a read-only snapshot of the registry's running totals, returned
// by Registry.Stats. Root count is layered on top by the caller (package
// corevm), since roots live in package gcroots.
type Stats struct {
	LiveBytes      uintptr
	TotalCollected uintptr
	Cycles         uintptr
	Threshold      uintptr
}

// Registry is the heap registry described in spec §3/§4.2, one per
// corevm.VM (each New call builds an independent registry): it owns
// the intrusive list of all live headers, the running totals, the
// allocation-since-last-GC counter, the adaptive threshold, and the
// optional hard memory ceiling.
//
// The zero value is not usable; construct with New.
type Registry struct {
	head *objHeader

	allocSinceGC   uintptr
	threshold      uintptr
	totalAllocated uintptr
	totalCollected uintptr
	cycles         uintptr
	ceiling        uintptr

	// collect is invoked by Alloc whenever a cycle must run before the
	// allocation can proceed. It is wired by gcollector.New when the
	// collector is constructed, breaking the import cycle that
	// would otherwise exist between gcheap and gcollector. A Registry
	// with no collector attached never triggers a cycle on its own.
	collect func()
}

const initialThreshold = 1024

// New returns a freshly initialised registry: empty heap list, threshold at
// its initial value, all totals zero, and no memory ceiling.
func New() *Registry {
	return &Registry{threshold: initialThreshold}
}

// SetCollector wires the callback Alloc uses to run a collection cycle.
// Called once by gcollector.New when it constructs a collector around this
// registry.
func (r *Registry) SetCollector(collect func()) {
	r.collect = collect
}

// Shutdown walks the list, releasing every header and adding its size to
// the cumulative collected total, and resets every other field to the state
// New would produce (the collected total keeps its value). Per spec §9's
// Open Question resolution,
// every payload pointer previously handed out — reachable or not — is
// dangling the instant Shutdown returns.
func (r *Registry) Shutdown() {
	for h := r.head; h != nil; {
		next := h.next
		r.totalCollected += h.size
		h = next
	}
	r.head = nil
	r.allocSinceGC = 0
	r.totalAllocated = 0
	r.cycles = 0
	r.threshold = initialThreshold
	r.ceiling = 0
}

// SetMemoryLimit sets or clears (0) the hard ceiling on total-allocated
// bytes.
func (r *Registry) SetMemoryLimit(n uintptr) {
	r.ceiling = n
}

// Alloc implements the allocation path of spec §4.2: trigger a collection
// if the threshold has been reached, trigger one (and fail hard if it
// doesn't help) if the ceiling would be crossed, request memory from the
// host allocator (retrying once after a collection on failure), link the
// new header in, and bump the running totals.
func (r *Registry) Alloc(n uintptr) unsafe.Pointer {
	if r.allocSinceGC >= r.threshold {
		r.runCollection()
	}

	if r.ceiling > 0 && r.totalAllocated+n > r.ceiling {
		r.runCollection()
		if r.totalAllocated+n > r.ceiling {
			fatalCeiling(r.totalAllocated, r.ceiling, n)
			// fatalCeiling calls osExit, which never returns in
			// production. The explicit return keeps this path safe
			// under test, where osExit is stubbed out.
			return nil
		}
	}

	buf := hostAlloc(headerSize + n)
	if buf == nil {
		r.runCollection()
		buf = hostAlloc(headerSize + n)
		if buf == nil {
			fatalAllocator(n)
			return nil
		}
	}

	h := (*objHeader)(buf)
	h.next = r.head
	h.size = n
	h.marked = false
	r.head = h

	r.allocSinceGC++
	r.totalAllocated += n
	return payloadOf(h)
}

func (r *Registry) runCollection() {
	if r.collect != nil {
		r.collect()
	}
}

// Free is the explicit manual-release escape hatch of spec §4.2. It unlinks
// the header naming payload, if the registry has one, and releases the
// backing storage either way (best-effort, mirroring the C original's
// fallthrough to the host free on a miss).
func (r *Registry) Free(payload unsafe.Pointer) {
	if payload == nil {
		return
	}
	target := headerOf(payload)

	if r.head == target {
		r.head = target.next
		r.totalAllocated -= target.size
		return
	}
	for h := r.head; h != nil; h = h.next {
		if h.next == target {
			h.next = target.next
			r.totalAllocated -= target.size
			return
		}
	}
	// Not found in the registry: best-effort release anyway, per spec.
}

// Stats returns a read-only snapshot of the running totals.
func (r *Registry) Stats() Stats {
	return Stats{
		LiveBytes:      r.totalAllocated,
		TotalCollected: r.totalCollected,
		Cycles:         r.cycles,
		Threshold:      r.threshold,
	}
}

// AllocSinceGC exposes the allocation-since-last-GC counter that Alloc
// compares against the threshold.
func (r *Registry) AllocSinceGC() uintptr { return r.allocSinceGC }

// Resolve is the conservative pointer-resolution primitive of spec §4.4: a
// candidate word is "maybe a pointer" if, after subtracting headerSize, it
// names the address of some header currently on the intrusive list. The
// walk is linear by design (spec §9 reserves a sorted index for a future,
// larger-scale implementation).
func (r *Registry) Resolve(candidate uintptr) (Handle, bool) {
	if candidate < headerSize {
		return Handle{}, false
	}
	want := candidate - headerSize
	for h := r.head; h != nil; h = h.next {
		if h.addr() == want {
			return Handle{h}, true
		}
	}
	return Handle{}, false
}

// Sweep walks the intrusive list once: objects with a clear mark bit are
// unlinked and released to the host allocator; objects with a set mark bit
// have it cleared (restoring invariant H3) and survive. It returns the
// number of bytes freed and the number of surviving objects.
func (r *Registry) Sweep() (freedBytes uintptr, survivors int) {
	cursor := &r.head
	for *cursor != nil {
		h := *cursor
		if !h.marked {
			*cursor = h.next
			r.totalAllocated -= h.size
			r.totalCollected += h.size
			freedBytes += h.size
			continue
		}
		h.marked = false
		survivors++
		cursor = &h.next
	}
	return freedBytes, survivors
}

// FinishCycle applies the post-cycle bookkeeping of spec §4.4: the
// allocation-since-last-GC counter resets, the cycle counter increments,
// and the threshold doubles when the surviving set is more than half of
// it — an adaptive policy that amortises the cost of future collections
// against a large live set.
func (r *Registry) FinishCycle(survivors int) {
	r.allocSinceGC = 0
	r.cycles++
	if uintptr(survivors) > r.threshold/2 {
		r.threshold *= 2
	}
}

// Handle is an opaque reference to a live header, handed out by Resolve so
// that package gcollector can drive marking without reaching into
// unexported header fields directly.
type Handle struct {
	h *objHeader
}

// Valid reports whether the handle names a real header.
func (hd Handle) Valid() bool { return hd.h != nil }

// Marked reports the header's mark bit.
func (hd Handle) Marked() bool { return hd.h.marked }

// SetMarked sets the header's mark bit.
func (hd Handle) SetMarked(v bool) { hd.h.marked = v }

// Words returns the payload as a slice of pointer-sized, pointer-aligned
// words, for the collector's body-scanning step. The slice rounds the
// payload size down to a whole number of words, per spec §4.4.
func (hd Handle) Words() []uintptr {
	return payloadWords(hd.h)
}

// fatalAllocator implements the allocator-exhaustion error kind of spec §7:
// fatal after one retry, single-line stderr message, exit code 1.
func fatalAllocator(requested uintptr) {
	fmt.Fprintf(stderr(), "gc: out of memory: host allocator failed twice while allocating %d bytes\n", requested)
	osExit(1)
}

// fatalCeiling implements the ceiling-exhaustion error kind of spec §7:
// fatal after a collection failed to bring usage back under the limit,
// three-line stderr message naming allocated/limit/requested, exit code
// 137.
func fatalCeiling(allocated, limit, requested uintptr) {
	fmt.Fprintf(stderr(),
		"gc: memory ceiling exceeded\n"+
			"  allocated is %d bytes, limit is %d bytes\n"+
			"  requested %d more bytes\n",
		allocated, limit, requested)
	osExit(137)
}

// osExit and stderrWriter are indirections over os.Exit/os.Stderr so the
// fatal paths above can be exercised by tests without killing the test
// binary, the standard Go idiom of swapping a process-level effect behind a
// package variable.
var osExit = os.Exit
var stderrWriter io.Writer = os.Stderr

func stderr() io.Writer { return stderrWriter }
