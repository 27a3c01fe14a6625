package lowgc

// Value is the address of a heap object's payload — the opaque payload
// pointer spec.md §6 describes flowing out of allocate() and into
// mark_value(). The zero Value stands for null/none throughout the
// field groups below, matching the "(if set)"/"(optional)" qualifiers
// in spec.md §4.D.
type Value uintptr

// Type identifies a value's runtime type. In this model a type is
// itself a heap Value (Julia-style: type descriptors are ordinary
// traceable objects — see KindTypeName/KindTagType/KindStructType/
// KindBitsType below), so Type is a distinct named conversion of Value
// rather than a separate representation.
type Type Value

// Kind is the closed sum type spec.md §9 asks for in place of the
// source's dynamic is_array/is_tuple/... predicate dispatch: the
// runtime resolves a Type to exactly one of these via KindOf, and the
// tracer switches on it instead of re-deriving it from a chain of
// predicate calls. IsBitsType is kept as a separate predicate because
// it is checked before kind dispatch even begins (spec.md §4.D: a bits
// *instance*'s type short-circuits tracing before any Kind is
// consulted at all).
type Kind int

const (
	KindArray Kind = iota
	KindTuple
	KindLambdaInfo
	KindFunc
	KindTypeName
	KindTagType
	KindStructType
	KindBitsType
	KindMTable
	KindTask
	// KindGeneric is the "Other" row of spec.md §4.D's table: a plain
	// struct instance traced by reading GenericFieldCount(v) reference
	// words starting one word past v's header.
	KindGeneric
)

// ArrayFields is spec.md §4.D's "Array" row.
type ArrayFields struct {
	Dims []Value
	// DataInline is false when data points at an out-of-line
	// allocation that must itself be marked (spec.md: "if data is
	// out-of-line ... mark that allocation header").
	DataInline bool
	Data       Value
	// ElemIsBits mirrors "if element type is not a bits type, each
	// non-null element" — Elems is only walked when this is false.
	ElemIsBits bool
	Elems      []Value
}

// LambdaInfoFields is spec.md §4.D's "Lambda info" row.
type LambdaInfoFields struct {
	Ast           Value
	SParams       Value
	TFunc         Value
	Roots         Value
	SpecTypes     Value
	Unspecialized Value // zero when not set
}

// FuncFields is spec.md §4.D's "Function" row.
type FuncFields struct {
	Env   Value // zero when not set
	LInfo Value // zero when not set
}

// TypeNameFields is spec.md §4.D's "Type name" row.
type TypeNameFields struct {
	Primary Value // zero when not set
}

// TagTypeFields is spec.md §4.D's "Tag type" row (env/linfo are
// asserted null at the C layout level in the source; this model has no
// raw overlapping fields for tag types to assert against, so that
// assertion has no analogue here; the tracer instead requires Name and
// Super to be non-null).
type TagTypeFields struct {
	Name       Value
	Super      Value
	Parameters []Value
}

// StructTypeFields is spec.md §4.D's "Struct type" row.
type StructTypeFields struct {
	Env         Value // zero when not set
	LInfo       Value // zero when not set
	Name        Value
	Super       Value
	Parameters  []Value
	Names       Value
	Types       []Value
	CtorFactory Value // zero when not set
	Instance    Value // zero when not set
}

// BitsTypeFields is spec.md §4.D's "Bits type" row — note this traces
// a type *descriptor* (e.g. the Int64 type object), not an instance of
// a bits type, which never reaches kind dispatch at all.
type BitsTypeFields struct {
	Name       Value
	Super      Value
	Parameters []Value
	NBits      Value
}

// MethodListNode is one node of a method table's defs or cache list.
// Method lists are linked outside the normal heap-value kind hierarchy
// (spec.md §4.D "Method list traversal"): the tracer sets each node's
// mark bit directly rather than dispatching it through KindOf, so Addr
// must be the node's own heap address.
type MethodListNode struct {
	Addr  Value
	Sig   Value
	TVars Value
	Func  Value
}

// MTableFields is spec.md §4.D's "Method table" row. Defs and Cache are
// already walked into flat slices by the runtime (mirroring how Task's
// Frames below are pre-walked) so the tracer doesn't need its own
// linked-list cursor for them.
type MTableFields struct {
	Defs      []MethodListNode
	Cache     []MethodListNode
	CacheArgs []Value // single-argument cache array; zero entries are skipped
}

// TaskFields is spec.md §4.D's "Task" row plus the stack traversal
// described just below that table. Frames holds each root frame's
// reference slots, outermost first, with the frame→prev chain already
// walked by the runtime. GCFrames and OutputStream exist only so the
// interface shape matches the source; the tracer never reads them
// (spec.md §4.D: "a currently-disabled hook ... implementers should
// expose the interface but may leave tracing no-op").
type TaskFields struct {
	OnExit           Value
	Start            Value
	Result           Value
	ExceptionHandler Value // zero when not set
	Frames           [][]Value
	GCFrames         [][]Value // exposed, intentionally not traced
	OutputStream     Value     // exposed, intentionally not traced
}

// Runtime is the external collaborator spec.md §6 lists under
// "Collector-to-runtime (consumed)". Everything about value
// representation, the type system, the task scheduler, and module
// loading belongs to the surrounding language runtime and is out of
// scope for this core (spec.md §1) — lowgc only ever calls back into
// it; it never constructs or interprets a Value's contents itself
// except via the field accessors below and the raw-word read used for
// KindGeneric (see tracer.go).
type Runtime interface {
	TypeOf(v Value) Type
	IsBitsType(t Type) bool
	KindOf(t Type) Kind

	ArrayFields(v Value) ArrayFields
	TupleElems(v Value) []Value
	LambdaInfoFields(v Value) LambdaInfoFields
	FuncFields(v Value) FuncFields
	TypeNameFields(v Value) TypeNameFields
	TagTypeFields(v Value) TagTypeFields
	StructTypeFields(v Value) StructTypeFields
	BitsTypeFields(v Value) BitsTypeFields
	MTableFields(v Value) MTableFields
	TaskFields(v Value) TaskFields

	// GenericFieldCount returns the struct type's `names` length for a
	// generic struct instance (spec.md §4.D "Other" row): the number of
	// one-word reference fields starting right after v's header.
	GenericFieldCount(v Value) int

	// MarkTypeCache enumerates the global type cache, calling mark once
	// per entry (spec.md §6 "mark_type_cache()").
	MarkTypeCache(mark func(Value))
}
