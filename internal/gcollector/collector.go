// Package gcollector implements the mark-and-sweep algorithm of spec §4.4,
// consuming a heap registry (package gcheap) and a root set (package
// gcroots).
package gcollector

import (
	"unsafe"

	"github.com/GustavoHSCruz/gglang/internal/gcheap"
	"github.com/GustavoHSCruz/gglang/internal/gcroots"
)

// State is the collector's per-cycle state machine of spec §4.4: Idle,
// Marking, Sweeping. Transitions are unconditional and in order; there is
// no abort or rollback.
type State int

const (
	Idle State = iota
	Marking
	Sweeping
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Marking:
		return "marking"
	case Sweeping:
		return "sweeping"
	default:
		return "!err"
	}
}

// Collector ties a heap registry to a root set and runs collection cycles
// over them.
type Collector struct {
	registry *gcheap.Registry
	roots    *gcroots.Set
	state    State
}

// New builds a collector over registry and roots, and wires it as
// registry's auto-collection hook (see gcheap.Registry.SetCollector) so
// that Alloc can trigger a cycle on its own.
func New(registry *gcheap.Registry, roots *gcroots.Set) *Collector {
	c := &Collector{registry: registry, roots: roots, state: Idle}
	registry.SetCollector(c.Collect)
	return c
}

// State reports the collector's current phase.
func (c *Collector) State() State {
	return c.state
}

// Collect runs one full mark-and-sweep cycle to completion. There is no
// partial or cancelled cycle: Collect always finishes what it starts.
func (c *Collector) Collect() {
	c.state = Marking
	c.mark()

	c.state = Sweeping
	_, survivors := c.registry.Sweep()
	c.registry.FinishCycle(survivors)

	c.state = Idle
}

// mark walks every root, conservatively resolving each as a candidate heap
// pointer, and transitively marks everything reachable from it. Marking
// uses an explicit worklist rather than recursing on the call stack (spec
// §9 mandates this conversion to avoid overflowing on deep object graphs).
func (c *Collector) mark() {
	var worklist []gcheap.Handle

	for i := 0; i < c.roots.Len(); i++ {
		slot := c.roots.At(i)
		if slot == nil {
			continue
		}
		candidate := *(*unsafe.Pointer)(slot)
		if candidate == nil {
			continue
		}
		if h, ok := c.registry.Resolve(uintptr(candidate)); ok && !h.Marked() {
			h.SetMarked(true)
			worklist = append(worklist, h)
		}
	}

	for len(worklist) > 0 {
		last := len(worklist) - 1
		h := worklist[last]
		worklist = worklist[:last]

		for _, word := range h.Words() {
			if word == 0 {
				continue
			}
			if child, ok := c.registry.Resolve(word); ok && !child.Marked() {
				child.SetMarked(true)
				worklist = append(worklist, child)
			}
		}
	}
}
