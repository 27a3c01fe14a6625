package lowgc

import (
	"fmt"
	"log/slog"

	"golang.org/x/sys/unix"
)

// PageSize is the fixed size of a raw page obtained from the host
// (spec.md §3 "Page", §6 "Tuning constants").
const PageSize = 16384

// mmapAnon obtains n bytes of anonymous, zero-filled, word-aligned
// memory from the host. Both the page allocator below and the
// big-object list (bigobj.go) use it as their single point of contact
// with the OS — generalized from pager.go's file-backed syscall.Mmap
// to an anonymous mapping, since the collector has no backing file of
// its own (spec.md §4.A, §4.C).
func mmapAnon(n int) ([]byte, error) {
	return unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
}

// pageAllocator is component A (spec.md §4.A): it obtains and releases
// page-sized blocks of raw memory from the host, with no caching layer.
// Failure to obtain a page is fatal (spec.md §7 OutOfMemory) — the
// collector cannot make progress without backing memory.
type pageAllocator struct {
	logger *slog.Logger

	// allocated/released are purely instrumentation, so tests can
	// observe reclamation (spec.md §8 scenario 2 "page reclamation").
	allocated uint64
	released  uint64
}

func newPageAllocator(logger *slog.Logger) *pageAllocator {
	return &pageAllocator{logger: logger}
}

func (a *pageAllocator) obtain() []byte {
	mem, err := mmapAnon(PageSize)
	if err != nil {
		a.logger.Error("page allocation failed", "err", err)
		fatal(ErrOutOfMemory, fmt.Errorf("mmapAnon(%d): %w", PageSize, err))
	}
	a.allocated++
	return mem
}

func (a *pageAllocator) release(mem []byte) {
	if err := unix.Munmap(mem); err != nil {
		a.logger.Error("page release failed", "err", err)
		fatal(ErrOutOfMemory, fmt.Errorf("unix.Munmap: %w", err))
	}
	a.released++
}
