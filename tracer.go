package lowgc

import (
	"fmt"
	"log/slog"
	"unsafe"
)

// tracer performs the precise, type-directed marking pass of spec.md
// §4.D from a RootSet. It never recurses on the Go call stack: children
// are marked on enqueue and pushed onto an explicit worklist, the same
// shape as btree_iter.go's IterNodeState stack used for B-tree
// traversal, generalized here so a deep object graph (spec.md §8
// scenario 6, §9 "Recursion in the tracer") can't overflow it.
type tracer struct {
	rt     Runtime
	logger *slog.Logger
	work   []Value
}

func newTracer(rt Runtime, logger *slog.Logger) *tracer {
	return &tracer{rt: rt, logger: logger}
}

// enqueue marks v's header and schedules it for traversal. Already-
// marked values return immediately, which is what makes cyclic and
// shared (DAG) object graphs safe to trace (spec.md §4.D "already
// marked, return immediately").
func (t *tracer) enqueue(v Value) {
	if v == 0 {
		return
	}
	addr := cellAddrOf(uintptr(v))
	if isMarked(addr) {
		return
	}
	setMark(addr)
	t.work = append(t.work, v)
}

func (t *tracer) drain() {
	for len(t.work) > 0 {
		v := t.work[len(t.work)-1]
		t.work = t.work[:len(t.work)-1]
		t.visit(v)
	}
}

// markRoots traces every root spec.md §4.D enumerates, then drains the
// worklist those roots seed.
func (t *tracer) markRoots(rs *RootSet) {
	t.enqueue(rs.CurrentTask)
	t.enqueue(rs.RootTask)
	t.markModule(rs.SystemModule)
	t.markModule(rs.UserModule)
	t.enqueue(rs.MethodTableType)
	t.enqueue(rs.BottomFunc)
	t.enqueue(rs.AnyType)
	t.enqueue(rs.NullValue)
	t.enqueue(rs.True)
	t.enqueue(rs.False)
	t.rt.MarkTypeCache(t.enqueue)
	t.drain()
}

func (t *tracer) markModule(m *Module) {
	if m == nil {
		return
	}
	m.Each(func(b *Binding) {
		t.enqueue(b.Record)
		t.enqueue(b.Value)
		t.enqueue(b.Type)
	})
}

func requireNonNil(v Value, what string) {
	if v == 0 {
		fatal(ErrRootCorruption, fmt.Errorf("%s must not be null", what))
	}
}

// visit dispatches a single already-marked value per spec.md §4.D's
// kind table, enqueuing each reference-valued field it finds.
func (t *tracer) visit(v Value) {
	typ := t.rt.TypeOf(v)
	if t.rt.IsBitsType(typ) {
		return // opaque byte payload, no children (spec.md §4.D)
	}

	switch t.rt.KindOf(typ) {
	case KindArray:
		f := t.rt.ArrayFields(v)
		for _, d := range f.Dims {
			t.enqueue(d)
		}
		if !f.DataInline {
			t.enqueue(f.Data)
		}
		if !f.ElemIsBits {
			for _, e := range f.Elems {
				t.enqueue(e)
			}
		}

	case KindTuple:
		for _, e := range t.rt.TupleElems(v) {
			t.enqueue(e)
		}

	case KindLambdaInfo:
		f := t.rt.LambdaInfoFields(v)
		t.enqueue(f.Ast)
		t.enqueue(f.SParams)
		t.enqueue(f.TFunc)
		t.enqueue(f.Roots)
		t.enqueue(f.SpecTypes)
		t.enqueue(f.Unspecialized)

	case KindFunc:
		f := t.rt.FuncFields(v)
		t.enqueue(f.Env)
		t.enqueue(f.LInfo)

	case KindTypeName:
		f := t.rt.TypeNameFields(v)
		t.enqueue(f.Primary)

	case KindTagType:
		f := t.rt.TagTypeFields(v)
		requireNonNil(f.Name, "tag type name")
		requireNonNil(f.Super, "tag type super")
		t.enqueue(f.Name)
		t.enqueue(f.Super)
		for _, p := range f.Parameters {
			t.enqueue(p)
		}

	case KindStructType:
		f := t.rt.StructTypeFields(v)
		requireNonNil(f.Name, "struct type name")
		requireNonNil(f.Super, "struct type super")
		requireNonNil(f.Names, "struct type names")
		t.enqueue(f.Env)
		t.enqueue(f.LInfo)
		t.enqueue(f.Name)
		t.enqueue(f.Super)
		for _, p := range f.Parameters {
			t.enqueue(p)
		}
		t.enqueue(f.Names)
		for _, ty := range f.Types {
			t.enqueue(ty)
		}
		t.enqueue(f.CtorFactory)
		t.enqueue(f.Instance)

	case KindBitsType:
		f := t.rt.BitsTypeFields(v)
		requireNonNil(f.Name, "bits type name")
		requireNonNil(f.Super, "bits type super")
		t.enqueue(f.Name)
		t.enqueue(f.Super)
		for _, p := range f.Parameters {
			t.enqueue(p)
		}
		t.enqueue(f.NBits)

	case KindMTable:
		f := t.rt.MTableFields(v)
		t.markMethodList(f.Defs)
		t.markMethodList(f.Cache)
		for _, c := range f.CacheArgs {
			t.enqueue(c)
		}

	case KindTask:
		f := t.rt.TaskFields(v)
		t.enqueue(f.OnExit)
		t.enqueue(f.Start)
		t.enqueue(f.Result)
		t.enqueue(f.ExceptionHandler)
		for _, frame := range f.Frames {
			for _, slot := range frame {
				t.enqueue(slot)
			}
		}
		// f.GCFrames and f.OutputStream are intentionally not traced —
		// see TaskFields' doc comment and DESIGN.md.

	default: // KindGeneric: spec.md §4.D "Other" row
		n := t.rt.GenericFieldCount(v)
		base := uintptr(v)
		for i := 0; i < n; i++ {
			field := *(*Value)(unsafe.Pointer(base + uintptr(i*headerWordSize)))
			t.enqueue(field)
		}
	}
}

// markMethodList marks each node's header directly, bypassing KindOf
// dispatch (spec.md §4.D "Method list traversal": "Each node has its
// mark bit set directly ... without going through the type dispatch").
func (t *tracer) markMethodList(nodes []MethodListNode) {
	for _, n := range nodes {
		if n.Addr == 0 {
			continue
		}
		addr := cellAddrOf(uintptr(n.Addr))
		if isMarked(addr) {
			continue
		}
		setMark(addr)
		t.enqueue(n.Sig)
		t.enqueue(n.TVars)
		t.enqueue(n.Func)
	}
}
