package value

import (
	"fmt"
	"unsafe"
)

// Function is the immutable, compiled form of a function: its arity,
// upvalue count, and bytecode chunk. It is produced by the compiler and
// never mutated afterwards. The closure, not the function, is the
// callable surface seen by the VM.
type Function struct {
	Header
	Arity        int
	UpvalueCount int
	Chunk        *Chunk
	Name         *String // nil for the top-level script
}

func (f *Function) String() string {
	if f.Name == nil {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", f.Name.Chars)
}

func (f *Function) Size() uintptr { return unsafe.Sizeof(*f) }

func (f *Function) Trace(mark func(Value)) {
	if f.Name != nil {
		mark(FromObj(f.Name))
	}
	for _, c := range f.Chunk.Constants {
		mark(c)
	}
}

// NewFunction allocates an empty Function with the given chunk, registered
// with alloc.
func NewFunction(alloc Allocator, ch *Chunk, name *String) *Function {
	fn := &Function{Chunk: ch, Name: name}
	fn.kind = ObjKindFunction
	alloc.Register(fn, fn.Size())
	return fn
}

// NativeFn is a host-provided callable. It receives the values above it on
// the VM stack and returns a single result, or an error if it fails; a
// failing native must not also panic.
type NativeFn func(args []Value) (Value, error)

// Native wraps a host callable so it can live in a Value and be called
// like any other callable.
type Native struct {
	Header
	Name string
	Fn   NativeFn
}

func (n *Native) String() string { return fmt.Sprintf("<native fn %s>", n.Name) }
func (n *Native) Size() uintptr  { return unsafe.Sizeof(*n) }

func NewNative(alloc Allocator, name string, fn NativeFn) *Native {
	n := &Native{Name: name, Fn: fn}
	n.kind = ObjKindNative
	alloc.Register(n, n.Size())
	return n
}

// Upvalue is a closure's handle onto a variable captured from an enclosing
// function. While open, Location points at the live stack slot; once
// closed (the enclosing frame has returned), Location points at Closed,
// which now owns the value. Next threads the VM's list of currently open
// upvalues, kept sorted by descending stack address.
type Upvalue struct {
	Header
	Location *Value
	Closed   Value
	Next     *Upvalue
}

func (u *Upvalue) String() string { return "upvalue" }
func (u *Upvalue) Size() uintptr  { return unsafe.Sizeof(*u) }

func (u *Upvalue) Trace(mark func(Value)) {
	// Always mark the closed value: a no-op while the upvalue is open,
	// since the open slot is already a root on the VM stack itself.
	mark(u.Closed)
}

// NewUpvalue allocates an open upvalue pointing at slot.
func NewUpvalue(alloc Allocator, slot *Value) *Upvalue {
	u := &Upvalue{Location: slot}
	u.kind = ObjKindUpvalue
	alloc.Register(u, u.Size())
	return u
}

// Close closes the upvalue: it copies the value at Location into Closed
// and repoints Location at it, so reads and writes through the upvalue
// keep working after the owning stack slot is gone.
func (u *Upvalue) Close() {
	u.Closed = *u.Location
	u.Location = &u.Closed
}

// Closure pairs a compiled Function with the vector of Upvalue references
// it captured at creation time. The closure, not the function, is what the
// VM calls.
type Closure struct {
	Header
	Fn       *Function
	Upvalues []*Upvalue
}

func (c *Closure) String() string { return c.Fn.String() }
func (c *Closure) Size() uintptr  { return unsafe.Sizeof(*c) + uintptr(len(c.Upvalues))*unsafe.Sizeof((*Upvalue)(nil)) }

func (c *Closure) Trace(mark func(Value)) {
	mark(FromObj(c.Fn))
	for _, uv := range c.Upvalues {
		if uv != nil {
			mark(FromObj(uv))
		}
	}
}

// NewClosure allocates a closure over fn with UpvalueCount empty upvalue
// slots, to be filled in by the VM's CLOSURE instruction handler.
func NewClosure(alloc Allocator, fn *Function) *Closure {
	c := &Closure{Fn: fn, Upvalues: make([]*Upvalue, fn.UpvalueCount)}
	c.kind = ObjKindClosure
	alloc.Register(c, c.Size())
	return c
}
