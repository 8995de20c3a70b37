// Package gc implements the precise, stop-the-world mark-and-sweep
// collector described by the specification: a tri-color mark phase driven
// by an explicit gray worklist, followed by a sweep of an intrusive
// singly-linked object list. It is the value.Allocator that every heap
// allocation goes through (the VM's own Register delegates to it).
package gc

import (
	"os"

	"github.com/wisteria-lang/wisteria/lang/value"
)

// initialNextGC is the byte threshold at which the first collection runs,
// matching the reference implementation's 1 MiB default.
const initialNextGC = 1024 * 1024

// growthFactor is how much nextGC grows, relative to bytes still live
// after a collection, before the next one is triggered.
const growthFactor = 2

// Roots is implemented by the VM to expose every live reference the
// collector must treat as a root: the value stack, call frames' closures,
// open upvalues, the globals table, and anything else reachable without
// going through another heap object.
type Roots interface {
	MarkRoots(mark func(value.Value))
}

// Collector is a tracing mark-sweep garbage collector over value.Obj. It
// implements value.Allocator so that every constructor in the value
// package can register new allocations without that package depending on
// gc (avoiding an import cycle: gc depends on value, never the reverse).
type Collector struct {
	roots Roots

	objects value.Obj // intrusive list head of every live (or about to be
	// swept) object, threaded through each Obj's GCNext.

	strings *value.Table // the interning table; entries whose key goes
	// unmarked are dropped during sweep so interned strings don't leak
	// forever.

	// compilerRoot, when non-nil, marks every function still under
	// construction by an in-progress compiler. The compiler allocates
	// objects (interned identifier/string constants) that can themselves
	// trigger a collection before the function they belong to is reachable
	// from any VM root, so the compiler must register itself as a root for
	// the duration of Compile.
	compilerRoot func(mark func(value.Value))

	bytesAllocated uintptr
	nextGC         uintptr

	gray []value.Obj

	// Stress, when true, forces a collection on every single allocation.
	// Used by tests to shake out marking bugs that would otherwise only
	// show up under memory pressure.
	Stress bool

	// LogGC, when true, writes a one-line trace of each collection to
	// stderr; wired to the VM's debug configuration.
	LogGC bool
}

// New returns a collector rooted at roots, interning through strings.
func New(roots Roots, strings *value.Table) *Collector {
	return &Collector{
		roots:   roots,
		strings: strings,
		nextGC:  initialNextGC,
	}
}

// SetCompilerRoot installs (or, passed nil, removes) an additional root
// source covering functions currently under construction by a compiler.
// The compiler package calls this around every Compile call so that a
// collection triggered mid-compile does not reclaim a function whose only
// reference is a compiler frame, not yet reachable from the VM.
func (c *Collector) SetCompilerRoot(markFn func(mark func(value.Value))) {
	c.compilerRoot = markFn
}

// Register implements value.Allocator: it threads o onto the object list
// and accounts for its size, possibly triggering a collection first.
func (c *Collector) Register(o value.Obj, size uintptr) {
	c.bytesAllocated += size

	if c.Stress || c.bytesAllocated > c.nextGC {
		c.Collect()
	}

	o.SetGCNext(c.objects)
	c.objects = o
}

// Collect runs one full mark-and-sweep cycle.
func (c *Collector) Collect() {
	if c.LogGC {
		os.Stderr.WriteString("-- gc begin\n")
	}

	c.roots.MarkRoots(c.markValue)
	if c.compilerRoot != nil {
		c.compilerRoot(c.markValue)
	}
	c.traceReferences()
	c.strings.RemoveWhite()
	c.sweep()

	c.nextGC = c.bytesAllocated * growthFactor
	if c.nextGC < initialNextGC {
		c.nextGC = initialNextGC
	}

	if c.LogGC {
		os.Stderr.WriteString("-- gc end\n")
	}
}

func (c *Collector) markValue(v value.Value) {
	if !v.IsObj() {
		return
	}
	c.markObject(v.AsObj())
}

func (c *Collector) markObject(o value.Obj) {
	if o == nil || o.Marked() {
		return
	}
	o.SetMarked(true)
	c.gray = append(c.gray, o)
}

func (c *Collector) traceReferences() {
	for len(c.gray) > 0 {
		n := len(c.gray) - 1
		o := c.gray[n]
		c.gray = c.gray[:n]
		o.Trace(c.markValue)
	}
}

// sweep walks the intrusive object list, freeing (unlinking) every
// unmarked object and clearing the mark bit on every survivor so the next
// cycle starts white.
func (c *Collector) sweep() {
	var prev value.Obj
	obj := c.objects
	for obj != nil {
		if obj.Marked() {
			obj.SetMarked(false)
			prev = obj
			obj = obj.GCNext()
			continue
		}

		unreached := obj
		obj = obj.GCNext()
		if prev != nil {
			prev.SetGCNext(obj)
		} else {
			c.objects = obj
		}
		unreached.SetGCNext(nil)
		if c.bytesAllocated >= unreached.Size() {
			c.bytesAllocated -= unreached.Size()
		}
		// unreached is now unlinked from every root-reachable structure;
		// the Go runtime's own collector reclaims it once nothing else
		// still references it through a stale stack slot about to be
		// overwritten.
	}
}
