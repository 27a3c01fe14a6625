package lowgc

import (
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/google/btree"
	"golang.org/x/sys/unix"
)

// addrItem lets raw addresses sit in a github.com/google/btree ordered
// index (roots.go uses the same library for module bindings).
type addrItem uintptr

func (a addrItem) Less(other btree.Item) bool {
	return a < other.(addrItem)
}

// bigObjSize tracks both the requested payload size (what sweep
// reports as bytes reclaimed, commensurate with Heap.Allocate's
// payload-based bookkeeping) and the page-rounded mapping size actually
// handed to munmap, which is ordinarily larger than payload plus the
// two header words.
type bigObjSize struct {
	payload int
	mapped  int
}

// bigObjList is component C (spec.md §4.C): allocations whose payload
// exceeds PoolThreshold get their own host mapping instead of living in
// a pool page, linked together so sweep can walk them independently of
// any pool. Grounded on free_list.go's singly-linked free-list splice
// for the link-and-unlink shape, and on pager.go's MmapPager.appended
// *btree.BTree for keeping a second, ordered view of live allocations —
// here used purely as an off-hot-path debug ledger that alloc and sweep
// keep in step with sizes; sizes does the size lookups, and nothing in
// the package reads the ledger back or walks it during sweep.
type bigObjList struct {
	head   uintptr // address of the first mapping's link word, 0 = none
	sizes  map[uintptr]bigObjSize
	ledger *btree.BTree
	logger *slog.Logger
}

func newBigObjList(logger *slog.Logger) *bigObjList {
	return &bigObjList{
		sizes:  make(map[uintptr]bigObjSize),
		ledger: btree.New(8),
		logger: logger,
	}
}

func nextLinkPtr(addr uintptr) *uintptr {
	return (*uintptr)(unsafe.Pointer(addr))
}

// roundUpPage rounds n up to the next multiple of PageSize, since the
// host only hands out page-granular mappings.
func roundUpPage(n int) int {
	if n%PageSize == 0 {
		return n
	}
	return (n/PageSize + 1) * PageSize
}

// alloc implements spec.md §4.C "Allocation": one mapping holds the
// link word, the cell header, and the payload, in that order.
func (bl *bigObjList) alloc(n int) Value {
	total := headerWordSize + headerWordSize + n
	mapped := roundUpPage(total)
	mem, err := mmapAnon(mapped)
	if err != nil {
		bl.logger.Error("big object allocation failed", "size", n, "err", err)
		fatal(ErrOutOfMemory, fmt.Errorf("mmapAnon(%d): %w", mapped, err))
	}

	addr := uintptr(unsafe.Pointer(&mem[0]))
	*nextLinkPtr(addr) = bl.head
	bl.head = addr

	cellAddr := addr + uintptr(headerWordSize)
	zeroLive(cellAddr)

	bl.sizes[addr] = bigObjSize{payload: n, mapped: mapped}
	bl.ledger.ReplaceOrInsert(addrItem(addr))
	bl.logger.Debug("big object allocated", "bytes", n, "addr", addr)
	return Value(payloadAddr(cellAddr))
}

// sweep implements spec.md §4.C "Sweep": unmarked mappings are spliced
// out of the link list and released back to the host; survivors have
// their mark bit cleared for the next cycle. Returns payload bytes
// reclaimed.
func (bl *bigObjList) sweep() uint64 {
	var freed uint64
	prevLink := &bl.head
	addr := bl.head
	for addr != 0 {
		cellAddr := addr + uintptr(headerWordSize)
		next := *nextLinkPtr(addr)

		if isMarked(cellAddr) {
			clearMark(cellAddr)
			prevLink = nextLinkPtr(addr)
			addr = next
			continue
		}

		*prevLink = next
		size := bl.sizes[addr]
		delete(bl.sizes, addr)
		bl.ledger.Delete(addrItem(addr))
		freed += uint64(size.payload)

		mem := unsafe.Slice((*byte)(unsafe.Pointer(addr)), size.mapped)
		if err := unix.Munmap(mem); err != nil {
			bl.logger.Error("big object release failed", "addr", addr, "err", err)
			fatal(ErrOutOfMemory, fmt.Errorf("unix.Munmap: %w", err))
		}
		addr = next
	}
	return freed
}
