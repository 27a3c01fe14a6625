package lowgc

import "unsafe"

// fakeObject is a tiny heap-resident node the test runtime below
// understands: a kind tag plus up to four Value-typed fields, enough to
// exercise every row of the tracer's kind dispatch without needing a
// real type system.
type fakeObject struct {
	kind   Kind
	fields [4]Value

	array     ArrayFields
	tuple     []Value
	lambda    LambdaInfoFields
	fn        FuncFields
	typeName  TypeNameFields
	tagType   TagTypeFields
	structTyp StructTypeFields
	bitsTyp   BitsTypeFields
	mtable    MTableFields
	task      TaskFields
	isBits    bool
}

// testRuntime is the fake Runtime collaborator (spec.md §6) used by
// tracer_test.go and collector_test.go — analogous to btree_node_test.go
// standing up a minimal page source instead of a real pager.
type testRuntime struct {
	objects       map[Value]*fakeObject
	genericFields int
	typeCache     []Value
}

func newTestRuntime() *testRuntime {
	return &testRuntime{objects: make(map[Value]*fakeObject)}
}

// put registers an allocated cell as a fake object and returns its
// payload Value. The memory behind cellAddr must outlive the test;
// allocFakeCell, which backs these cells, keeps it reachable through
// testCellKeepalive.
func (r *testRuntime) put(cellAddr uintptr, obj *fakeObject) Value {
	v := Value(payloadAddr(cellAddr))
	r.objects[v] = obj
	return v
}

func (r *testRuntime) TypeOf(v Value) Type { return Type(v) }

func (r *testRuntime) IsBitsType(t Type) bool {
	obj := r.objects[Value(t)]
	return obj != nil && obj.isBits
}

func (r *testRuntime) KindOf(t Type) Kind {
	obj := r.objects[Value(t)]
	if obj == nil {
		return KindGeneric
	}
	return obj.kind
}

func (r *testRuntime) ArrayFields(v Value) ArrayFields           { return r.objects[v].array }
func (r *testRuntime) TupleElems(v Value) []Value                { return r.objects[v].tuple }
func (r *testRuntime) LambdaInfoFields(v Value) LambdaInfoFields { return r.objects[v].lambda }
func (r *testRuntime) FuncFields(v Value) FuncFields             { return r.objects[v].fn }
func (r *testRuntime) TypeNameFields(v Value) TypeNameFields     { return r.objects[v].typeName }
func (r *testRuntime) TagTypeFields(v Value) TagTypeFields       { return r.objects[v].tagType }
func (r *testRuntime) StructTypeFields(v Value) StructTypeFields { return r.objects[v].structTyp }
func (r *testRuntime) BitsTypeFields(v Value) BitsTypeFields     { return r.objects[v].bitsTyp }
func (r *testRuntime) MTableFields(v Value) MTableFields         { return r.objects[v].mtable }
func (r *testRuntime) TaskFields(v Value) TaskFields             { return r.objects[v].task }

func (r *testRuntime) GenericFieldCount(v Value) int { return r.genericFields }

func (r *testRuntime) MarkTypeCache(mark func(Value)) {
	for _, v := range r.typeCache {
		mark(v)
	}
}

// allocFakeCell carves a standalone word-aligned cell (header + n
// payload words) out of a freshly made byte slice, bypassing the real
// pools — tracer tests only care about header bits and payload layout,
// not page carving.
func allocFakeCell(t interface{ Helper() }, payloadWords int) uintptr {
	t.Helper()
	mem := make([]byte, headerWordSize*(payloadWords+1))
	testCellKeepalive = append(testCellKeepalive, mem)
	return uintptr(unsafe.Pointer(&mem[0]))
}
