package lowgc

import "unsafe"

// headerWordSize is the size in bytes of one machine word — the unit
// spec.md's object header, free-list pointers, and generic struct field
// slots are all expressed in (spec.md §3, §4.D "Other" row).
const headerWordSize = int(unsafe.Sizeof(uintptr(0)))

const (
	markBit     uintptr = 1 << 0
	finalizeBit uintptr = 1 << 1 // reserved (spec.md §9); never set by this core
	flagBits            = 2
)

// Every allocated object — pool cell or big-object record — starts with
// one header word immediately before its payload (spec.md §3 "Object
// header"). cellAddr always names the address of that header word;
// payloadAddr names the address one word past it, which is the pointer
// the mutator and tracer actually hold. The two conversions below are
// each other's inverse.

func payloadAddr(cellAddr uintptr) uintptr {
	return cellAddr + uintptr(headerWordSize)
}

func cellAddrOf(payload uintptr) uintptr {
	return payload - uintptr(headerWordSize)
}

func headerPtr(cellAddr uintptr) *uintptr {
	return (*uintptr)(unsafe.Pointer(cellAddr))
}

// freeListEnd is the header value stored in the last cell of a free
// list, in place of a literal null next-pointer. A literal zero there
// would be bit-for-bit identical to a live, unmarked cell's header
// (spec.md §3's free-detection predicate only looks at the bits above
// the two flag bits), so sweep could not tell "already on the free
// list" from "garbage found this cycle" for that one cell — it would
// double-count it when computing bytes reclaimed. freeListEnd reads as
// free-shaped (its bits above flagBits are non-zero) while never
// colliding with a real page address, which is always far below the
// top of the address space.
const freeListEnd uintptr = ^uintptr(0)

// isFreePattern implements spec.md §3's free-detection predicate: a
// cell is free when the bits above the two flag bits are non-zero, i.e.
// the header looks like a real pointer (or freeListEnd) rather than a
// small live-header value. Every live header is one of 0-3 (mark/
// finalize only; the finalize bit is reserved and never set by this
// core), while every free-list header is either a real, much larger
// address or freeListEnd — so the two states never collide.
func isFreePattern(cellAddr uintptr) bool {
	return *headerPtr(cellAddr)>>flagBits != 0
}

func isMarked(cellAddr uintptr) bool {
	return *headerPtr(cellAddr)&markBit != 0
}

func setMark(cellAddr uintptr) {
	*headerPtr(cellAddr) |= markBit
}

func clearMark(cellAddr uintptr) {
	*headerPtr(cellAddr) &^= markBit
}

// zeroLive resets a cell's header to the live-unmarked pattern, clearing
// mark, finalize, and any stale upper bits left over from its time as a
// free-list pointer (spec.md §4.B "Allocation").
func zeroLive(cellAddr uintptr) {
	*headerPtr(cellAddr) = 0
}

// nextFree reads cellAddr's free-list link, decoding freeListEnd back
// to the 0 callers use to mean "no more free cells".
func nextFree(cellAddr uintptr) uintptr {
	raw := *headerPtr(cellAddr)
	if raw == freeListEnd {
		return 0
	}
	return raw
}

// setNextFree threads cellAddr onto a free list by overwriting its
// entire header word with next's address, or with freeListEnd when
// next is 0 (see freeListEnd's doc comment for why the terminator
// can't just be a literal zero). A non-zero next is always word-
// aligned (spec.md §3 "Free" invariant), so its two low bits are zero
// and the write can never accidentally look like a live header with
// flags set.
func setNextFree(cellAddr uintptr, next uintptr) {
	if next == 0 {
		*headerPtr(cellAddr) = freeListEnd
		return
	}
	assert(next&uintptr(headerWordSize-1) == 0, "free-list pointer %#x is not word aligned", next)
	*headerPtr(cellAddr) = next
}
