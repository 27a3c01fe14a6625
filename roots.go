package lowgc

import "github.com/google/btree"

// Binding is one entry of a module's symbol table (spec.md §6 "Module
// binding-table layout"): both the binding record itself and its Value
// and Type fields are roots (spec.md §4.D root #2). Record is the
// binding record's own heap address; it is zero only for a synthetic
// binding that has no backing heap allocation (e.g. in tests).
type Binding struct {
	Symbol string
	Record Value
	Value  Value
	Type   Value
}

func (b *Binding) Less(other btree.Item) bool {
	return b.Symbol < other.(*Binding).Symbol
}

// Module holds the bindings of one of the system or user modules
// (spec.md §4.D root #2). The source represents this as an
// open-addressed array with a NOT_FOUND sentinel at each unused slot —
// that hashtable implementation is explicitly out of scope for this
// core to reimplement (spec.md §1 "Out of scope"). Module stands in
// for it with github.com/google/btree, the teacher's own ordered-index
// dependency (pager.go's MmapPager.appended), which gives root
// enumeration a deterministic order independent of map iteration or
// slot layout — useful for tests asserting exactly which roots got
// marked.
type Module struct {
	bindings *btree.BTree
}

func NewModule() *Module {
	return &Module{bindings: btree.New(8)}
}

func (m *Module) Bind(symbol string, record, value, typ Value) {
	m.bindings.ReplaceOrInsert(&Binding{Symbol: symbol, Record: record, Value: value, Type: typ})
}

func (m *Module) Unbind(symbol string) {
	m.bindings.Delete(&Binding{Symbol: symbol})
}

func (m *Module) Len() int {
	return m.bindings.Len()
}

// Each enumerates every binding in ascending symbol order.
func (m *Module) Each(fn func(*Binding)) {
	m.bindings.Ascend(func(item btree.Item) bool {
		fn(item.(*Binding))
		return true
	})
}

// RootSet is the process-wide enumeration of tracing entry points
// spec.md §4.D describes. The host runtime owns it and must not mutate
// it while a collection is in progress (spec.md §5 "Shared resources").
type RootSet struct {
	CurrentTask Value
	RootTask    Value

	SystemModule *Module
	UserModule   *Module

	// Well-known runtime singletons (spec.md §4.D root #3).
	MethodTableType Value
	BottomFunc      Value
	AnyType         Value
	NullValue       Value
	True            Value
	False           Value
}
