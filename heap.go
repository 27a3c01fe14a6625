package lowgc

import (
	"log/slog"
	"os"
)

// DefaultCollectInterval is spec.md §6's tuning default: trigger a
// collection once roughly this many bytes have been allocated since
// the last one.
const DefaultCollectInterval = 8 * 1024 * 1024

// Stats is the bookkeeping spec.md's distillation omits but
// original_source/gc.c keeps (SPEC_FULL.md §4 "Supplemented
// features"): running totals of collections run, bytes reclaimed,
// bytes ever allocated, and a rough live-byte estimate, exposed for
// callers (and tests) that want to observe collector behavior without
// reaching into page/pool internals.
type Stats struct {
	NumCollections uint64
	BytesSwept     uint64
	BytesAllocated uint64
	LiveBytes      uint64
}

// Heap is component E (spec.md §4.E): the collector driver that owns
// every pool, the big-object list, the page allocator, and the
// allocate/collect orchestration. Grounded on kv.go's KV struct, which
// composes a pager, a free list, and a B-tree into one top-level handle
// with the same kind of "allocate, occasionally compact" lifecycle.
type Heap struct {
	pools [numSizeClasses]*pool
	big   *bigObjList

	pageAlloc *pageAllocator

	bytesSinceCollect uint64
	collectInterval   uint64

	runtime Runtime
	roots   func() *RootSet

	logger *slog.Logger
	stats  Stats
}

// NewHeap wires up a Heap ready to allocate. rt supplies the type and
// field introspection the tracer needs; rootsFn is called once per
// collection to obtain the current root set (spec.md §4.D), since roots
// like CurrentTask change between collections.
func NewHeap(rt Runtime, rootsFn func() *RootSet) *Heap {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	pageAlloc := newPageAllocator(logger)

	h := &Heap{
		pageAlloc:       pageAlloc,
		collectInterval: DefaultCollectInterval,
		runtime:         rt,
		roots:           rootsFn,
		logger:          logger,
		big:             newBigObjList(logger),
	}
	for i, size := range payloadSizes {
		h.pools[i] = newPool(i, size, pageAlloc, logger)
	}
	return h
}

// SetCollectInterval overrides DefaultCollectInterval — tests use a
// small value to force collections deterministically (spec.md §8
// scenario 5 "Trigger threshold").
func (h *Heap) SetCollectInterval(n uint64) {
	h.collectInterval = n
}

func (h *Heap) Stats() Stats {
	return h.stats
}

// Allocate implements spec.md §4.E "Allocation entry point": route to a
// pool or to the big-object list by size, triggering a collection first
// if the byte budget since the last one has been exceeded.
func (h *Heap) Allocate(n int) Value {
	if h.bytesSinceCollect > h.collectInterval {
		h.Collect()
	}
	h.bytesSinceCollect += uint64(n)

	h.stats.BytesAllocated += uint64(n)
	h.stats.LiveBytes += uint64(n)

	if n > PoolThreshold {
		return h.big.alloc(n)
	}
	class, ok := classForSize(n)
	assert(ok, "size %d should have resolved to a pool class", n)
	return h.pools[class].alloc()
}

// Collect runs one full stop-the-world cycle: mark from roots, then
// sweep every pool and the big-object list (spec.md §4.E "Collection
// cycle"). The caller is responsible for ensuring no other goroutine
// touches the heap while this runs — lowgc itself has no internal
// locking, matching the source's single-threaded, stop-the-world
// assumption (spec.md §1).
func (h *Heap) Collect() {
	rs := h.roots()
	assert(rs != nil, "root set unavailable")

	h.logger.Debug("collection starting", "bytes_since_collect", h.bytesSinceCollect)

	t := newTracer(h.runtime, h.logger)
	t.markRoots(rs)

	var swept uint64
	swept += h.big.sweep()
	for _, p := range h.pools {
		swept += p.sweep()
	}

	h.bytesSinceCollect = 0
	h.stats.NumCollections++
	h.stats.BytesSwept += swept
	if swept > h.stats.LiveBytes {
		h.stats.LiveBytes = 0
	} else {
		h.stats.LiveBytes -= swept
	}

	h.logger.Debug("collection finished", "swept_bytes", swept)
}

// MarkValue marks v and everything reachable from it outside of a full
// collection cycle — spec.md §6 lists mark_value as a standalone
// collector-to-runtime entry point, used e.g. when the runtime hands
// the collector a value it must treat as freshly rooted.
func (h *Heap) MarkValue(v Value) {
	t := newTracer(h.runtime, h.logger)
	t.enqueue(v)
	t.drain()
}
