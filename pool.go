package lowgc

import (
	"log/slog"
	"sort"
	"unsafe"
)

// payloadSizes is spec.md §3's 16-class size table.
var payloadSizes = [...]int{8, 16, 24, 32, 48, 64, 96, 128, 192, 256, 384, 512, 768, 1024, 1536, 2048}

const numSizeClasses = len(payloadSizes)

// PoolThreshold is the payload size above which an allocation bypasses
// the pools entirely and becomes a big object (spec.md §3, §6).
const PoolThreshold = 2048

// classForSize returns the smallest size class whose payload size is
// >= n (spec.md §4.B "Class selection"); ok is false when n belongs to
// the big-object path instead. payloadSizes is sorted and tiny, so the
// binary search sort.SearchInts performs is, in practice, the
// constant-time "fixed branching tree (or table lookup)" spec.md asks
// for, without hand-unrolling 16 comparisons.
func classForSize(n int) (class int, ok bool) {
	if n <= 0 || n > PoolThreshold {
		return 0, false
	}
	return sort.SearchInts(payloadSizes[:], n), true
}

// poolPage is a single 16 KiB buffer (spec.md §3 "Page"): a next-page
// link word followed by a data area carved into uniform cells of one
// class.
type poolPage struct {
	mem []byte
}

func pageAt(addr uintptr) poolPage {
	return poolPage{mem: unsafe.Slice((*byte)(unsafe.Pointer(addr)), PageSize)}
}

func (p poolPage) addr() uintptr {
	return uintptr(unsafe.Pointer(&p.mem[0]))
}

func (p poolPage) nextAddr() uintptr {
	return *(*uintptr)(unsafe.Pointer(&p.mem[0]))
}

func (p poolPage) setNextAddr(addr uintptr) {
	*(*uintptr)(unsafe.Pointer(&p.mem[0])) = addr
}

func (p poolPage) dataArea() []byte {
	return p.mem[headerWordSize:]
}

// pool is component B (spec.md §4.B): per size class, a singly-linked
// list of owned pages and a singly-linked free list threading cells
// across pages. Grounded on free_list.go's freeList (push/pop free
// pointers, writePtrs threading new nodes onto fl.head), generalized
// from one on-disk free list to 16 in-memory ones, one per class.
type pool struct {
	class    int
	cellSize int // payload size + header word (spec.md §3)

	pages    uintptr // address of the first owned page, 0 = none
	freeHead uintptr // address of the first free cell, 0 = none

	pageAlloc *pageAllocator
	logger    *slog.Logger
}

func newPool(class, payloadSize int, pageAlloc *pageAllocator, logger *slog.Logger) *pool {
	return &pool{
		class:     class,
		cellSize:  payloadSize + headerWordSize,
		pageAlloc: pageAlloc,
		logger:    logger,
	}
}

// alloc implements spec.md §4.B "Allocation".
func (p *pool) alloc() Value {
	if p.freeHead == 0 {
		p.addPage()
	}
	cellAddr := p.freeHead
	p.freeHead = nextFree(cellAddr)
	zeroLive(cellAddr)
	return Value(payloadAddr(cellAddr))
}

// addPage obtains one new page, carves it into cells, and splices them
// onto the head of the free list in ascending address order, with the
// final carved cell's next-link continuing into whatever the free list
// was before (spec.md §4.B "Carving order").
//
// The source's add_page assigns `p->pages = pg->next` right after
// setting `pg->next = p->pages` — a self-assignment that leaves the
// page list's head unchanged, almost certainly a typo for
// `p->pages = pg` (spec.md §9 open question). This implements the
// obviously intended form: the new page becomes the list's head.
func (p *pool) addPage() {
	mem := p.pageAlloc.obtain()
	pg := poolPage{mem: mem}
	pg.setNextAddr(p.pages)
	p.pages = pg.addr()

	data := pg.dataArea()
	ncells := len(data) / p.cellSize
	assert(ncells > 0, "class %d: cell size %d does not fit in a %d-byte page", p.class, p.cellSize, PageSize)

	base := uintptr(unsafe.Pointer(&data[0]))
	next := p.freeHead
	for i := ncells - 1; i >= 0; i-- {
		addr := base + uintptr(i*p.cellSize)
		setNextFree(addr, next)
		next = addr
	}
	p.freeHead = next
}

// sweep implements spec.md §4.B "Sweep". It returns the number of
// payload bytes reclaimed this cycle (cells found garbage, excluding
// cells that were already free before this sweep began), feeding
// Heap.Stats.
func (p *pool) sweep() uint64 {
	var freed uint64
	var newFreeHead, newPagesHead uintptr

	pageAddr := p.pages
	for pageAddr != 0 {
		pg := pageAt(pageAddr)
		nextPage := pg.nextAddr()

		data := pg.dataArea()
		ncells := len(data) / p.cellSize
		base := uintptr(unsafe.Pointer(&data[0]))

		// If this page turns out to contain no live cell, newFreeHead
		// is rewound to this value so none of its cells' links dangle
		// once the page is released (spec.md §4.B sweep step 3).
		freeHeadBeforePage := newFreeHead
		anyLive := false

		for i := ncells - 1; i >= 0; i-- {
			addr := base + uintptr(i*p.cellSize)
			switch {
			case isFreePattern(addr):
				setNextFree(addr, newFreeHead)
				newFreeHead = addr
			case !isMarked(addr):
				setNextFree(addr, newFreeHead)
				newFreeHead = addr
				freed += uint64(p.cellSize - headerWordSize)
			default:
				clearMark(addr)
				anyLive = true
			}
		}

		if anyLive {
			pg.setNextAddr(newPagesHead)
			newPagesHead = pageAddr
		} else {
			newFreeHead = freeHeadBeforePage
			p.pageAlloc.release(pg.mem)
		}

		pageAddr = nextPage
	}

	p.pages = newPagesHead
	p.freeHead = newFreeHead
	return freed
}
