package lowgc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBigObjListAllocTracksSize(t *testing.T) {
	bl := newBigObjList(newSilentLogger())
	v := bl.alloc(4096)
	require.NotZero(t, v)

	addr := bl.head
	require.Contains(t, bl.sizes, addr)
	require.Equal(t, 4096, bl.sizes[addr].payload)
	require.GreaterOrEqual(t, bl.sizes[addr].mapped, 4096)
}

func TestBigObjListSweepOrderSurvivesAndReclaims(t *testing.T) {
	bl := newBigObjList(newSilentLogger())

	keep := bl.alloc(4096)
	drop := bl.alloc(8192)
	_ = drop

	setMark(cellAddrOf(uintptr(keep)))

	freed := bl.sweep()
	require.Equal(t, uint64(8192), freed)
	require.Equal(t, 1, len(bl.sizes), "only the surviving allocation should remain tracked")
	require.False(t, isMarked(cellAddrOf(uintptr(keep))), "sweep must clear the mark bit of survivors")

	keepLink := cellAddrOf(uintptr(keep)) - uintptr(headerWordSize)
	require.Equal(t, keepLink, bl.head, "the survivor must become the list head")
	require.Zero(t, *nextLinkPtr(bl.head), "the survivor must be the only list entry")
}

func TestBigObjListSweepReclaimsAll(t *testing.T) {
	bl := newBigObjList(newSilentLogger())
	bl.alloc(4096)
	bl.alloc(8192)

	bl.sweep()
	require.Zero(t, bl.head)
	require.Empty(t, bl.sizes)
	require.Zero(t, bl.ledger.Len())
}
