package value

// ObjKind discriminates the kinds of heap objects the machine allocates.
type ObjKind uint8

const (
	ObjKindString ObjKind = iota
	ObjKindFunction
	ObjKindNative
	ObjKindClosure
	ObjKindUpvalue
	ObjKindClass
	ObjKindInstance
	ObjKindBoundMethod
)

func (k ObjKind) String() string {
	switch k {
	case ObjKindString:
		return "string"
	case ObjKindFunction:
		return "function"
	case ObjKindNative:
		return "native"
	case ObjKindClosure:
		return "function"
	case ObjKindUpvalue:
		return "upvalue"
	case ObjKindClass:
		return "class"
	case ObjKindInstance:
		return "instance"
	case ObjKindBoundMethod:
		return "function"
	default:
		return "unknown"
	}
}

// Obj is the interface implemented by every heap object kind. It carries
// the common object header (kind tag, GC mark bit, and the intrusive
// next-pointer used by the collector's sweep phase) plus the ability to
// trace its outgoing references and print itself.
type Obj interface {
	ObjKind() ObjKind
	String() string

	// gc header, promoted from the embedded Header in every concrete type.
	Marked() bool
	SetMarked(bool)
	GCNext() Obj
	SetGCNext(Obj)

	// Trace calls mark on every Value this object directly references. The
	// default (Header.Trace) is a no-op, overridden by composite kinds.
	Trace(mark func(Value))

	// Size returns an approximate byte footprint, used to drive the
	// collector's allocation-triggered heuristic.
	Size() uintptr
}

// Header is the common object header embedded as the first field of every
// concrete Obj implementation. It threads the object into the collector's
// intrusive, process-wide allocation list and carries the mark bit.
type Header struct {
	kind   ObjKind
	marked bool
	next   Obj
}

func (h *Header) ObjKind() ObjKind   { return h.kind }
func (h *Header) Marked() bool       { return h.marked }
func (h *Header) SetMarked(b bool)   { h.marked = b }
func (h *Header) GCNext() Obj        { return h.next }
func (h *Header) SetGCNext(o Obj)    { h.next = o }
func (h *Header) Trace(func(Value))  {} // overridden by kinds with references

// Allocator is implemented by the collector. Every heap object constructor
// in this package takes one, so that new allocations are registered with
// the collector's byte count and threaded into its sweep list — this
// package never imports the gc package, keeping the dependency direction
// gc -> value and avoiding an import cycle.
type Allocator interface {
	Register(o Obj, size uintptr)
}
