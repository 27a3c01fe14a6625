package lowgc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassForSizeBoundaries(t *testing.T) {
	testCases := []struct {
		name      string
		size      int
		wantClass int
		wantOK    bool
	}{
		{"exact smallest class", 8, 0, true},
		{"just above smallest class", 9, 1, true},
		{"exact second class", 16, 1, true},
		{"just above second class", 17, 2, true},
		{"exact largest class", 2048, 15, true},
		{"just above largest class falls to big object", 2049, 0, false},
		{"zero size rejected", 0, 0, false},
		{"negative size rejected", -1, 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			class, ok := classForSize(tc.size)
			require.Equal(t, tc.wantOK, ok)
			if tc.wantOK {
				require.Equal(t, tc.wantClass, class)
			}
		})
	}
}

func TestPoolAllocCarvesPageOnDemand(t *testing.T) {
	pa := newPageAllocator(newSilentLogger())
	p := newPool(0, payloadSizes[0], pa, newSilentLogger())

	require.Zero(t, p.pages)
	v := p.alloc()
	require.NotZero(t, v)
	require.NotZero(t, p.pages, "first allocation must carve a page")
}

func TestPoolAllocReusesFreedCells(t *testing.T) {
	pa := newPageAllocator(newSilentLogger())
	p := newPool(0, payloadSizes[0], pa, newSilentLogger())

	// keep is marked so its page survives sweep; the test then relies
	// only on free-list ordering, never on the host handing back the
	// same address after an munmap+mmap round trip (which the OS does
	// not guarantee).
	keep := p.alloc()
	setMark(cellAddrOf(uintptr(keep)))

	v1 := p.alloc()
	cell1 := cellAddrOf(uintptr(v1))

	freed := p.sweep()
	require.Equal(t, uint64(p.cellSize-headerWordSize), freed)
	require.NotZero(t, p.pages, "the page holding the marked cell must survive sweep")

	v2 := p.alloc()
	require.Equal(t, cell1, cellAddrOf(uintptr(v2)), "sweep should make the reclaimed cell available again")
}

func TestPoolSweepReleasesFullyEmptyPage(t *testing.T) {
	pa := newPageAllocator(newSilentLogger())
	p := newPool(0, payloadSizes[0], pa, newSilentLogger())

	p.alloc() // one page, entirely unmarked
	require.NotZero(t, p.pages)

	p.sweep()
	require.Zero(t, p.pages, "a page with no live cell must be released")
	require.EqualValues(t, 1, pa.released)
}

func TestPoolSweepKeepsPageWithLiveCell(t *testing.T) {
	pa := newPageAllocator(newSilentLogger())
	p := newPool(0, payloadSizes[0], pa, newSilentLogger())

	live := p.alloc()
	p.alloc() // garbage

	setMark(cellAddrOf(uintptr(live)))
	p.sweep()

	require.NotZero(t, p.pages, "a page with one live cell must survive sweep")
	require.False(t, isMarked(cellAddrOf(uintptr(live))), "sweep must clear the mark bit of survivors")
}

func TestPoolSweepIsIdempotentOnAlreadyFreeCells(t *testing.T) {
	pa := newPageAllocator(newSilentLogger())
	p := newPool(0, payloadSizes[0], pa, newSilentLogger())

	p.alloc()
	first := p.sweep()
	second := p.sweep()
	require.Zero(t, second, "nothing new became garbage between the two sweeps")
	require.NotZero(t, first)
}
