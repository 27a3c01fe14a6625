package lowgc

import "fmt"

// FatalErrorClass enumerates the collector's three fatal error
// categories (spec.md §7). None are recoverable: a GC-origin error is
// never surfaced to the mutator as an ordinary error value.
type FatalErrorClass string

const (
	// ErrOutOfMemory: a page or big-object backing allocation failed.
	ErrOutOfMemory FatalErrorClass = "out_of_memory"
	// ErrRootCorruption: a traced value failed a runtime-provided
	// invariant (null where non-null expected, a required field
	// missing). Indicates heap corruption.
	ErrRootCorruption FatalErrorClass = "root_corruption"
	// ErrClassMismatch: an internal assertion — a requested pool class
	// does not match its cell size. Programmer error.
	ErrClassMismatch FatalErrorClass = "class_mismatch"
)

// FatalError is panicked by the collector when it runs out of memory or
// finds root corruption. No code path raises ErrClassMismatch: internal
// assertions, including the pool-class checks, panic through assert with
// a plain message instead. The embedding runtime is expected to
// let this propagate to its own top-level recovery and abort the
// process with a diagnostic, exactly as spec.md §7 "Propagation"
// describes — there is no recoverable path.
type FatalError struct {
	Class FatalErrorClass
	Err   error
}

func (e FatalError) Error() string {
	return fmt.Sprintf("lowgc: fatal %s: %v", e.Class, e.Err)
}

func (e FatalError) Unwrap() error {
	return e.Err
}

func fatal(class FatalErrorClass, err error) {
	panic(FatalError{Class: class, Err: err})
}
