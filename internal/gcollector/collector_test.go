package gcollector

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GustavoHSCruz/gglang/internal/gcheap"
	"github.com/GustavoHSCruz/gglang/internal/gcroots"
)

// newFixture builds a registry/roots/collector trio the way package corevm
// wires them, without importing corevm (which would create a cycle).
func newFixture() (*gcheap.Registry, *gcroots.Set, *Collector) {
	r := gcheap.New()
	roots := &gcroots.Set{}
	c := New(r, roots)
	return r, roots, c
}

func TestUnreachedAllocationIsFreed(t *testing.T) {
	r, _, c := newFixture()
	r.Alloc(64)

	c.Collect()

	assert.Equal(t, uintptr(0), r.Stats().LiveBytes)
	assert.Equal(t, Idle, c.State())
}

func TestRootedAllocationSurvives(t *testing.T) {
	r, roots, c := newFixture()
	slot := r.Alloc(64)
	roots.Add(unsafe.Pointer(&slot))

	c.Collect()

	require.Equal(t, uintptr(64), r.Stats().LiveBytes)
	_, ok := r.Resolve(uintptr(slot))
	assert.True(t, ok, "rooted payload must still resolve after collect")
}

func TestCycleOfTwoObjectsIsCollectedWhenUnrooted(t *testing.T) {
	r, _, c := newFixture()
	a := r.Alloc(unsafe.Sizeof(uintptr(0)))
	b := r.Alloc(unsafe.Sizeof(uintptr(0)))

	// A's payload holds a pointer to B, and vice versa; neither is rooted.
	*(*unsafe.Pointer)(a) = b
	*(*unsafe.Pointer)(b) = a

	c.Collect()

	assert.Equal(t, uintptr(0), r.Stats().LiveBytes, "a root-less cycle must be collected")
}

func TestRemoveRootThenCollectFreesSingleRootedObject(t *testing.T) {
	r, roots, c := newFixture()
	slot := r.Alloc(32)
	roots.Add(unsafe.Pointer(&slot))

	roots.Remove(unsafe.Pointer(&slot))
	c.Collect()

	assert.Equal(t, uintptr(0), r.Stats().LiveBytes)
}

func TestAdaptiveThresholdGrowsWhenSurvivorsAreLarge(t *testing.T) {
	r, roots, _ := newFixture()
	before := r.Stats().Threshold

	count := int(before) + 1
	// Preallocate so the backing array never moves: each root below is a
	// pointer to a fixed slot, per spec §4.3's requirement that root
	// storage stay valid for as long as it is registered.
	anchors := make([]unsafe.Pointer, 0, count)
	frame := roots.PushFrame()
	defer roots.PopFrame(frame)

	for i := 0; i < count; i++ {
		p := r.Alloc(8)
		anchors = append(anchors, p)
		roots.Add(unsafe.Pointer(&anchors[len(anchors)-1]))
	}

	require.Equal(t, before*2, r.Stats().Threshold)
}

func TestSweepClearsMarkBitsOnSurvivors(t *testing.T) {
	r, roots, c := newFixture()
	slot := r.Alloc(16)
	roots.Add(unsafe.Pointer(&slot))

	c.Collect()

	h, ok := r.Resolve(uintptr(slot))
	require.True(t, ok)
	assert.False(t, h.Marked(), "invariant H3: surviving objects must have mark bit 0 after collect")
}

func TestCollectorStateReturnsToIdleAfterCollect(t *testing.T) {
	_, _, c := newFixture()
	c.Collect()
	assert.Equal(t, Idle, c.State())
	assert.Equal(t, "idle", c.State().String())
}
