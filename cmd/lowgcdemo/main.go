// Command lowgcdemo wires a minimal fake runtime to lowgc.Heap and runs
// a few allocate/collect cycles, mirroring the teacher's cmd/main.go
// smoke-test style: exercise the public API end to end and print what
// happened rather than asserting anything.
package main

import (
	"fmt"
	"log"

	"github.com/lowlang/lowgc"
)

// demoRuntime is a toy stand-in for a language runtime's type system,
// just enough to drive lowgc.Heap.Collect: every allocated value is
// treated as a plain two-field generic struct, so KindOf always answers
// KindGeneric and GenericFieldCount is always 2.
type demoRuntime struct{}

func (demoRuntime) TypeOf(v lowgc.Value) lowgc.Type         { return 0 }
func (demoRuntime) IsBitsType(t lowgc.Type) bool            { return false }
func (demoRuntime) KindOf(t lowgc.Type) lowgc.Kind          { return lowgc.KindGeneric }
func (demoRuntime) GenericFieldCount(v lowgc.Value) int     { return 2 }
func (demoRuntime) MarkTypeCache(mark func(lowgc.Value))    {}

func (demoRuntime) ArrayFields(v lowgc.Value) lowgc.ArrayFields           { return lowgc.ArrayFields{} }
func (demoRuntime) TupleElems(v lowgc.Value) []lowgc.Value                { return nil }
func (demoRuntime) LambdaInfoFields(v lowgc.Value) lowgc.LambdaInfoFields { return lowgc.LambdaInfoFields{} }
func (demoRuntime) FuncFields(v lowgc.Value) lowgc.FuncFields             { return lowgc.FuncFields{} }
func (demoRuntime) TypeNameFields(v lowgc.Value) lowgc.TypeNameFields     { return lowgc.TypeNameFields{} }
func (demoRuntime) TagTypeFields(v lowgc.Value) lowgc.TagTypeFields       { return lowgc.TagTypeFields{} }
func (demoRuntime) StructTypeFields(v lowgc.Value) lowgc.StructTypeFields { return lowgc.StructTypeFields{} }
func (demoRuntime) BitsTypeFields(v lowgc.Value) lowgc.BitsTypeFields     { return lowgc.BitsTypeFields{} }
func (demoRuntime) MTableFields(v lowgc.Value) lowgc.MTableFields         { return lowgc.MTableFields{} }
func (demoRuntime) TaskFields(v lowgc.Value) lowgc.TaskFields             { return lowgc.TaskFields{} }

func main() {
	var rt demoRuntime

	var root lowgc.Value
	rootSet := func() *lowgc.RootSet {
		return &lowgc.RootSet{CurrentTask: root}
	}

	heap := lowgc.NewHeap(rt, rootSet)
	heap.SetCollectInterval(4096)

	root = heap.Allocate(16)
	fmt.Printf("allocated root pair at %#x\n", root)

	for i := 0; i < 1000; i++ {
		v := heap.Allocate(16)
		if v == 0 {
			log.Fatal("allocate returned null")
		}
	}

	heap.Collect()
	stats := heap.Stats()
	fmt.Printf("collections: %d, bytes swept: %d, bytes allocated: %d\n",
		stats.NumCollections, stats.BytesSwept, stats.BytesAllocated)
}
