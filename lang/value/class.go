package value

import (
	"fmt"
	"unsafe"
)

// Class is a runtime class object: its name and its method table, mapping
// interned method-name Strings to Closure values. Inheritance is resolved
// at class-declaration time by copying the superclass's method table into
// the subclass's (OP_INHERIT), so method lookup never walks a superclass
// chain at call time.
type Class struct {
	Header
	Name    *String
	Methods *Table
}

func (c *Class) String() string { return c.Name.Chars }
func (c *Class) Size() uintptr  { return unsafe.Sizeof(*c) }

func (c *Class) Trace(mark func(Value)) {
	mark(FromObj(c.Name))
	c.Methods.Mark(mark)
}

// NewClass allocates an empty class named name.
func NewClass(alloc Allocator, name *String) *Class {
	c := &Class{Name: name, Methods: NewTable()}
	c.kind = ObjKindClass
	alloc.Register(c, c.Size())
	return c
}

// Instance is a runtime instance of a Class, holding its own field table.
type Instance struct {
	Header
	Class  *Class
	Fields *Table
}

func (i *Instance) String() string { return fmt.Sprintf("%s instance", i.Class.Name.Chars) }
func (i *Instance) Size() uintptr  { return unsafe.Sizeof(*i) }

func (i *Instance) Trace(mark func(Value)) {
	mark(FromObj(i.Class))
	i.Fields.Mark(mark)
}

// NewInstance allocates an instance of class.
func NewInstance(alloc Allocator, class *Class) *Instance {
	i := &Instance{Class: class, Fields: NewTable()}
	i.kind = ObjKindInstance
	alloc.Register(i, i.Size())
	return i
}

// BoundMethod pairs a receiver instance with one of its class's closures, so
// that `instance.method` can be passed around and later called without its
// receiver.
type BoundMethod struct {
	Header
	Receiver Value
	Method   *Closure
}

func (b *BoundMethod) String() string { return b.Method.String() }
func (b *BoundMethod) Size() uintptr  { return unsafe.Sizeof(*b) }

func (b *BoundMethod) Trace(mark func(Value)) {
	mark(b.Receiver)
	mark(FromObj(b.Method))
}

// NewBoundMethod allocates a bound method.
func NewBoundMethod(alloc Allocator, receiver Value, method *Closure) *BoundMethod {
	b := &BoundMethod{Receiver: receiver, Method: method}
	b.kind = ObjKindBoundMethod
	alloc.Register(b, b.Size())
	return b
}
