package lowgc

import "fmt"

// assert panics with a formatted message when v is false. The collector
// treats every invariant violation as fatal (spec.md §7); there is no
// recoverable path from a corrupted heap.
func assert(v bool, format string, args ...interface{}) {
	if !v {
		panic(fmt.Sprintf(format, args...))
	}
}
