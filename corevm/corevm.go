// Package corevm is the mutator-facing façade over the conservative
// mark-and-sweep core: heap registry (internal/gcheap), root set
// (internal/gcroots), and collector (internal/gcollector). It implements
// the external API of spec §6.
package corevm

import (
	"unsafe"

	"github.com/GustavoHSCruz/gglang/internal/gcheap"
	"github.com/GustavoHSCruz/gglang/internal/gcollector"
	"github.com/GustavoHSCruz/gglang/internal/gcroots"
)

// Stats is the read-only snapshot returned by Stats/VM.Stats: current byte
// total, cumulative collected bytes, cycle count, threshold, and root
// count.
type Stats struct {
	LiveBytes      uintptr
	TotalCollected uintptr
	Cycles         uintptr
	Threshold      uintptr
	RootCount      int
}

// VM is an explicit handle over one registry/root-set/collector trio.
// Spec §9 names two viable re-architectures of the source's global mutable
// state: a process-wide cell, or an explicit handle threaded through the
// mutator. VM is the explicit-handle form, chosen because it composes
// better with testing; the package-level Init/Shutdown/Alloc/... functions
// below wrap a single default VM for callers that just want the
// single-global API spec §6 describes.
type VM struct {
	registry  *gcheap.Registry
	roots     gcroots.Set
	collector *gcollector.Collector
}

// NewVM constructs a fresh, empty VM: no heap, no roots, threshold at its
// initial value, no memory ceiling.
func NewVM() *VM {
	v := &VM{registry: gcheap.New()}
	v.collector = gcollector.New(v.registry, &v.roots)
	return v
}

// Alloc allocates n zero-initialised bytes tracked by the collector,
// returning the payload pointer. It may trigger a synchronous collection
// first (threshold reached, or the memory ceiling would otherwise be
// crossed); see spec §4.2.
func (v *VM) Alloc(n uintptr) unsafe.Pointer {
	return v.registry.Alloc(n)
}

// Free explicitly releases payload, unlinking it from the registry. It is
// the manual escape hatch of spec §4.2; calling it on a payload the
// mutator still references elsewhere is a mutator bug, not a core error.
func (v *VM) Free(payload unsafe.Pointer) {
	v.registry.Free(payload)
}

// AddRoot registers slot as a root: *slot, a heap pointer or nil, is
// treated as live on every future collection until the root is removed.
func (v *VM) AddRoot(slot unsafe.Pointer) {
	v.roots.Add(slot)
}

// RemoveRoot removes the first root registration matching slot by
// identity, reporting whether one was found.
func (v *VM) RemoveRoot(slot unsafe.Pointer) bool {
	return v.roots.Remove(slot)
}

// PushFrame captures the current root count for a later PopFrame.
func (v *VM) PushFrame() gcroots.Frame {
	return v.roots.PushFrame()
}

// PopFrame truncates the root set back to the point captured by f,
// unregistering everything added since.
func (v *VM) PopFrame(f gcroots.Frame) {
	v.roots.PopFrame(f)
}

// Collect forces a mark-and-sweep cycle now.
func (v *VM) Collect() {
	v.collector.Collect()
}

// SetMemoryLimit sets or clears (0) the hard ceiling on total allocated
// bytes.
func (v *VM) SetMemoryLimit(n uintptr) {
	v.registry.SetMemoryLimit(n)
}

// Shutdown releases every live object unconditionally and resets the VM to
// its post-NewVM state, except that the cumulative collected total keeps
// counting (the released bytes are added to it). Per spec §9's Open Question resolution, every
// payload pointer handed out before Shutdown — reachable or not — is
// dangling the instant it returns.
func (v *VM) Shutdown() {
	v.registry.Shutdown()
	v.roots = gcroots.Set{}
}

// Stats returns a read-only snapshot of the VM's current state.
func (v *VM) Stats() Stats {
	s := v.registry.Stats()
	return Stats{
		LiveBytes:      s.LiveBytes,
		TotalCollected: s.TotalCollected,
		Cycles:         s.Cycles,
		Threshold:      s.Threshold,
		RootCount:      v.roots.Len(),
	}
}

// WriteBarrier is the write-barrier hook of spec §5/§9: reserved for a
// future generational collector, a plain slot assignment today.
func WriteBarrier(slot *unsafe.Pointer, val unsafe.Pointer) {
	*slot = val
}

// global is the default VM backing the package-level functions below.
var global = NewVM()

// Init (re)initialises the default VM. The entry-point contract of spec
// §6 requires this to run before any mutator code.
func Init() {
	global = NewVM()
}

// Shutdown releases the default VM's heap. Called once after the
// surrounding program's main returns.
func Shutdown() {
	global.Shutdown()
}

// Alloc allocates through the default VM. See VM.Alloc.
func Alloc(n uintptr) unsafe.Pointer {
	return global.Alloc(n)
}

// Free releases through the default VM. See VM.Free.
func Free(payload unsafe.Pointer) {
	global.Free(payload)
}

// AddRoot registers a root on the default VM. See VM.AddRoot.
func AddRoot(slot unsafe.Pointer) {
	global.AddRoot(slot)
}

// RemoveRoot removes a root from the default VM. See VM.RemoveRoot.
func RemoveRoot(slot unsafe.Pointer) bool {
	return global.RemoveRoot(slot)
}

// PushFrame captures the default VM's root count. See VM.PushFrame.
func PushFrame() gcroots.Frame {
	return global.PushFrame()
}

// PopFrame unwinds the default VM's root set. See VM.PopFrame.
func PopFrame(f gcroots.Frame) {
	global.PopFrame(f)
}

// Collect forces a cycle on the default VM. See VM.Collect.
func Collect() {
	global.Collect()
}

// SetMemoryLimit sets the default VM's ceiling. See VM.SetMemoryLimit.
func SetMemoryLimit(n uintptr) {
	global.SetMemoryLimit(n)
}

// Stats snapshots the default VM. See VM.Stats.
func Stats() Stats {
	return global.Stats()
}
