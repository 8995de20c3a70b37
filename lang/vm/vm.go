// Package vm implements the stack-based bytecode interpreter: the call
// frame stack, the value stack, global and string-interning tables, and
// the dispatch loop itself. Its control flow is a direct translation of
// the reference implementation's vm.c.
package vm

import (
	"fmt"
	"io"

	"github.com/wisteria-lang/wisteria/lang/compiler"
	"github.com/wisteria-lang/wisteria/lang/gc"
	"github.com/wisteria-lang/wisteria/lang/natives"
	"github.com/wisteria-lang/wisteria/lang/value"
)

type frame struct {
	closure *value.Closure
	ip      int
	slots   int // base index into vm.stack for this call's locals
}

// VM is one interpreter instance: its own stack, globals, and heap. VMs
// are not safe for concurrent use.
type VM struct {
	stack    []value.Value
	frames   []frame
	globals  *value.Table
	strings  *value.Table
	initStr  *value.String
	openUpvs *value.Upvalue

	gc  *gc.Collector
	cfg Config

	// lastErr carries a runtime error out of call()/callValue(), which
	// report failure as a bool to mirror the reference implementation's
	// control flow; run() and Interpret read it immediately after a false
	// return and then it is overwritten by the next call.
	lastErr *RuntimeError

	Stdout io.Writer
}

// New returns a ready-to-use VM. If cfg is the zero value, DefaultConfig
// is used instead.
func New(cfg Config, stdout io.Writer) *VM {
	if cfg.FramesMax == 0 {
		cfg = DefaultConfig()
	}
	m := &VM{
		// Preallocated to full capacity and never reallocated: captureUpvalue
		// hands out pointers into m.stack's backing array, and those pointers
		// must stay valid for as long as the upvalue is open. A growing
		// append would silently move the array and detach every open
		// upvalue from the slot it is supposed to alias.
		stack:   make([]value.Value, 0, cfg.StackMax()),
		frames:  make([]frame, 0, cfg.FramesMax),
		globals: value.NewTable(),
		strings: value.NewTable(),
		cfg:     cfg,
		Stdout:  stdout,
	}
	m.gc = gc.New(m, m.strings)
	m.gc.Stress = cfg.StressGC
	m.gc.LogGC = cfg.LogGC
	m.initStr = value.Intern(m.gc, m.strings, "init")
	for _, name := range natives.Names() {
		fn, _ := natives.Lookup(name)
		m.defineNative(name, fn)
	}
	return m
}

// DefineNative registers an additional native function as a global,
// exposed so embedders can extend the global environment beyond clock.
func (m *VM) DefineNative(name string, fn value.NativeFn) { m.defineNative(name, fn) }

// Register implements value.Allocator by delegating to the collector;
// exposed so value.Intern and friends can be called directly against the
// VM where convenient.
func (m *VM) Register(o value.Obj, size uintptr) { m.gc.Register(o, size) }

func (m *VM) push(v value.Value) { m.stack = append(m.stack, v) }

func (m *VM) pop() value.Value {
	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return v
}

func (m *VM) peek(distance int) value.Value { return m.stack[len(m.stack)-1-distance] }

// MarkRoots implements gc.Roots.
func (m *VM) MarkRoots(mark func(value.Value)) {
	for _, v := range m.stack {
		mark(v)
	}
	for _, fr := range m.frames {
		mark(value.FromObj(fr.closure))
	}
	for uv := m.openUpvs; uv != nil; uv = uv.Next {
		mark(value.FromObj(uv))
	}
	m.globals.Mark(mark)
	if m.initStr != nil {
		mark(value.FromObj(m.initStr))
	}
}

func (m *VM) defineNative(name string, fn value.NativeFn) {
	// Mirrors the reference implementation's defineNative: push the name
	// and the native object before inserting, so a GC triggered by the
	// allocation can still find them as roots.
	n := value.Intern(m.gc, m.strings, name)
	m.push(value.FromObj(n))
	native := value.NewNative(m.gc, name, fn)
	m.push(value.FromObj(native))
	m.globals.Set(n, m.stack[len(m.stack)-1])
	m.pop()
	m.pop()
}

// Interpret compiles and runs source to completion, writing any `print`
// output to m.Stdout. It returns a *CompileError for a failed compile, or
// a *RuntimeError for a failure during execution.
func (m *VM) Interpret(source []byte) error {
	fn, errs := compiler.Compile(m.gc, m.strings, source)
	if fn == nil {
		return &CompileError{Messages: errs}
	}

	m.push(value.FromObj(fn))
	closure := value.NewClosure(m.gc, fn)
	m.pop()
	m.push(value.FromObj(closure))

	if !m.call(closure, 0) {
		return m.lastErr
	}
	return m.run()
}

func (m *VM) isFalsey(v value.Value) bool { return !v.Truth() }

func (m *VM) currentFrame() *frame { return &m.frames[len(m.frames)-1] }

func (m *VM) call(closure *value.Closure, argCount int) bool {
	if argCount != closure.Fn.Arity {
		m.runtimeError("Expected %d arguments but got %d.", closure.Fn.Arity, argCount)
		return false
	}
	if len(m.frames) == m.cfg.FramesMax {
		m.runtimeError("Stack overflow.")
		return false
	}
	m.frames = append(m.frames, frame{
		closure: closure,
		ip:      0,
		slots:   len(m.stack) - argCount - 1,
	})
	return true
}

func (m *VM) callValue(callee value.Value, argCount int) bool {
	if callee.IsObj() {
		switch obj := callee.AsObj().(type) {
		case *value.BoundMethod:
			m.stack[len(m.stack)-argCount-1] = obj.Receiver
			return m.call(obj.Method, argCount)
		case *value.Class:
			inst := value.NewInstance(m.gc, obj)
			m.stack[len(m.stack)-argCount-1] = value.FromObj(inst)
			if init, ok := obj.Methods.Get(m.initStr); ok {
				return m.call(init.AsObj().(*value.Closure), argCount)
			} else if argCount != 0 {
				m.runtimeError("Expected 0 arguments but got %d.", argCount)
				return false
			}
			return true
		case *value.Closure:
			return m.call(obj, argCount)
		case *value.Native:
			args := m.stack[len(m.stack)-argCount:]
			result, err := obj.Fn(args)
			m.stack = m.stack[:len(m.stack)-argCount-1]
			if err != nil {
				m.runtimeError("%s", err.Error())
				return false
			}
			m.push(result)
			return true
		}
	}
	m.runtimeError("Can only call functions and classes.")
	return false
}

func (m *VM) invokeFromClass(class *value.Class, name *value.String, argCount int) bool {
	method, ok := class.Methods.Get(name)
	if !ok {
		m.runtimeError("Undefined property '%s'.", name.Chars)
		return false
	}
	return m.call(method.AsObj().(*value.Closure), argCount)
}

func (m *VM) invoke(name *value.String, argCount int) bool {
	receiver := m.peek(argCount)
	inst, ok := receiver.AsObj().(*value.Instance)
	if !ok {
		m.runtimeError("Only instances have methods.")
		return false
	}

	if v, ok := inst.Fields.Get(name); ok {
		m.stack[len(m.stack)-argCount-1] = v
		return m.callValue(v, argCount)
	}
	return m.invokeFromClass(inst.Class, name, argCount)
}

func (m *VM) bindMethod(class *value.Class, name *value.String) bool {
	method, ok := class.Methods.Get(name)
	if !ok {
		m.runtimeError("Undefined property '%s'.", name.Chars)
		return false
	}
	bound := value.NewBoundMethod(m.gc, m.peek(0), method.AsObj().(*value.Closure))
	m.pop()
	m.push(value.FromObj(bound))
	return true
}

func (m *VM) captureUpvalue(localIdx int) *value.Upvalue {
	var prev *value.Upvalue
	uv := m.openUpvs
	for uv != nil && uv.Location != &m.stack[localIdx] {
		// Open upvalues are kept sorted by descending stack address so
		// that later captures of lower slots stop the walk early, matching
		// the reference implementation's pointer-ordered list.
		if slotIndex(m.stack, uv.Location) < localIdx {
			break
		}
		prev = uv
		uv = uv.Next
	}
	if uv != nil && uv.Location == &m.stack[localIdx] {
		return uv
	}

	created := value.NewUpvalue(m.gc, &m.stack[localIdx])
	created.Next = uv
	if prev == nil {
		m.openUpvs = created
	} else {
		prev.Next = created
	}
	return created
}

func slotIndex(stack []value.Value, p *value.Value) int {
	for i := range stack {
		if &stack[i] == p {
			return i
		}
	}
	return -1
}

func (m *VM) closeUpvalues(lastIdx int) {
	for m.openUpvs != nil && slotIndex(m.stack, m.openUpvs.Location) >= lastIdx {
		uv := m.openUpvs
		uv.Close()
		m.openUpvs = uv.Next
	}
}

func (m *VM) defineMethod(name *value.String) {
	method := m.peek(0)
	class := m.peek(1).AsObj().(*value.Class)
	class.Methods.Set(name, method)
	m.pop()
}

func (m *VM) concatenate() {
	b := m.peek(0).AsObj().(*value.String)
	a := m.peek(1).AsObj().(*value.String)
	result := value.Intern(m.gc, m.strings, a.Chars+b.Chars)
	m.pop()
	m.pop()
	m.push(value.FromObj(result))
}

func (m *VM) runtimeError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	trace := make([]string, 0, len(m.frames))
	for i := len(m.frames) - 1; i >= 0; i-- {
		fr := &m.frames[i]
		fn := fr.closure.Fn
		line := 0
		if fr.ip-1 >= 0 && fr.ip-1 < len(fn.Chunk.Lines) {
			line = fn.Chunk.Lines[fr.ip-1]
		}
		if fn.Name == nil {
			trace = append(trace, fmt.Sprintf("[line %d] in script", line))
		} else {
			trace = append(trace, fmt.Sprintf("[line %d] in %s()", line, fn.Name.Chars))
		}
	}

	m.lastErr = &RuntimeError{Message: msg, Trace: trace}
	m.resetStack()
}

func (m *VM) resetStack() {
	m.stack = m.stack[:0]
	m.frames = m.frames[:0]
	m.openUpvs = nil
}

func (m *VM) run() error {
	m.lastErr = nil
	fr := m.currentFrame()
	code := fr.closure.Fn.Chunk.Code

	readByte := func() byte {
		b := code[fr.ip]
		fr.ip++
		return b
	}
	readShort := func() int {
		hi := code[fr.ip]
		lo := code[fr.ip+1]
		fr.ip += 2
		return int(hi)<<8 | int(lo)
	}
	readConstant := func() value.Value {
		return fr.closure.Fn.Chunk.Constants[readByte()]
	}
	readString := func() *value.String {
		return readConstant().AsObj().(*value.String)
	}

	for {
		op := value.OpCode(readByte())
		switch op {
		case value.OpConstant:
			m.push(readConstant())

		case value.OpNil:
			m.push(value.Nil)
		case value.OpTrue:
			m.push(value.True)
		case value.OpFalse:
			m.push(value.False)
		case value.OpPop:
			m.pop()

		case value.OpGetLocal:
			slot := int(readByte())
			m.push(m.stack[fr.slots+slot])
		case value.OpSetLocal:
			slot := int(readByte())
			m.stack[fr.slots+slot] = m.peek(0)

		case value.OpGetGlobal:
			name := readString()
			v, ok := m.globals.Get(name)
			if !ok {
				m.runtimeError("Undefined variable '%s'.", name.Chars)
				return m.lastErr
			}
			m.push(v)
		case value.OpDefineGlobal:
			name := readString()
			m.globals.Set(name, m.peek(0))
			m.pop()
		case value.OpSetGlobal:
			name := readString()
			if m.globals.Set(name, m.peek(0)) {
				m.globals.Delete(name)
				m.runtimeError("Undefined variable '%s'.", name.Chars)
				return m.lastErr
			}

		case value.OpGetUpvalue:
			slot := int(readByte())
			m.push(*fr.closure.Upvalues[slot].Location)
		case value.OpSetUpvalue:
			slot := int(readByte())
			*fr.closure.Upvalues[slot].Location = m.peek(0)

		case value.OpGetProperty:
			inst, ok := m.peek(0).AsObj().(*value.Instance)
			if !ok {
				m.runtimeError("Only instances have properties.")
				return m.lastErr
			}
			name := readString()
			if v, ok := inst.Fields.Get(name); ok {
				m.pop()
				m.push(v)
				break
			}
			if !m.bindMethod(inst.Class, name) {
				return m.lastErr
			}

		case value.OpSetProperty:
			inst, ok := m.peek(1).AsObj().(*value.Instance)
			if !ok {
				m.runtimeError("Only instances have fields.")
				return m.lastErr
			}
			inst.Fields.Set(readString(), m.peek(0))
			v := m.pop()
			m.pop()
			m.push(v)

		case value.OpGetSuper:
			name := readString()
			super := m.pop().AsObj().(*value.Class)
			if !m.bindMethod(super, name) {
				return m.lastErr
			}

		case value.OpEqual:
			b := m.pop()
			a := m.pop()
			m.push(value.Bool(value.Equal(a, b)))
		case value.OpGreater:
			if !m.binaryNumberOp(func(a, b float64) value.Value { return value.Bool(a > b) }) {
				return m.lastErr
			}
		case value.OpLess:
			if !m.binaryNumberOp(func(a, b float64) value.Value { return value.Bool(a < b) }) {
				return m.lastErr
			}

		case value.OpAdd:
			_, aIsStr := m.peek(1).AsObj().(*value.String)
			_, bIsStr := m.peek(0).AsObj().(*value.String)
			switch {
			case aIsStr && bIsStr:
				m.concatenate()
			case m.peek(0).IsNumber() && m.peek(1).IsNumber():
				b := m.pop().AsNumber()
				a := m.pop().AsNumber()
				m.push(value.Number(a + b))
			default:
				m.runtimeError("Operands must be two numbers or two strings.")
				return m.lastErr
			}
		case value.OpSubtract:
			if !m.binaryNumberOp(func(a, b float64) value.Value { return value.Number(a - b) }) {
				return m.lastErr
			}
		case value.OpMultiply:
			if !m.binaryNumberOp(func(a, b float64) value.Value { return value.Number(a * b) }) {
				return m.lastErr
			}
		case value.OpDivide:
			if !m.binaryNumberOp(func(a, b float64) value.Value { return value.Number(a / b) }) {
				return m.lastErr
			}

		case value.OpNot:
			m.push(value.Bool(m.isFalsey(m.pop())))
		case value.OpNegate:
			if !m.peek(0).IsNumber() {
				m.runtimeError("Operand must be a number.")
				return m.lastErr
			}
			m.push(value.Number(-m.pop().AsNumber()))

		case value.OpPrint:
			fmt.Fprintln(m.Stdout, m.pop().String())

		case value.OpJump:
			offset := readShort()
			fr.ip += offset
		case value.OpJumpIfFalse:
			offset := readShort()
			if m.isFalsey(m.peek(0)) {
				fr.ip += offset
			}
		case value.OpLoop:
			offset := readShort()
			fr.ip -= offset

		case value.OpCall:
			argCount := int(readByte())
			if !m.callValue(m.peek(argCount), argCount) {
				return m.lastErr
			}
			fr = m.currentFrame()
			code = fr.closure.Fn.Chunk.Code

		case value.OpInvoke:
			method := readString()
			argCount := int(readByte())
			if !m.invoke(method, argCount) {
				return m.lastErr
			}
			fr = m.currentFrame()
			code = fr.closure.Fn.Chunk.Code

		case value.OpSuperInvoke:
			method := readString()
			argCount := int(readByte())
			super := m.pop().AsObj().(*value.Class)
			if !m.invokeFromClass(super, method, argCount) {
				return m.lastErr
			}
			fr = m.currentFrame()
			code = fr.closure.Fn.Chunk.Code

		case value.OpClosure:
			fn := readConstant().AsObj().(*value.Function)
			closure := value.NewClosure(m.gc, fn)
			m.push(value.FromObj(closure))
			for i := 0; i < closure.Fn.UpvalueCount; i++ {
				isLocal := readByte()
				index := int(readByte())
				if isLocal != 0 {
					closure.Upvalues[i] = m.captureUpvalue(fr.slots + index)
				} else {
					closure.Upvalues[i] = fr.closure.Upvalues[index]
				}
			}

		case value.OpCloseUpvalue:
			m.closeUpvalues(len(m.stack) - 1)
			m.pop()

		case value.OpReturn:
			result := m.pop()
			m.closeUpvalues(fr.slots)
			m.frames = m.frames[:len(m.frames)-1]
			if len(m.frames) == 0 {
				m.pop()
				return nil
			}
			m.stack = m.stack[:fr.slots]
			m.push(result)
			fr = m.currentFrame()
			code = fr.closure.Fn.Chunk.Code

		case value.OpClass:
			m.push(value.FromObj(value.NewClass(m.gc, readString())))

		case value.OpInherit:
			super, ok := m.peek(1).AsObj().(*value.Class)
			if !ok {
				m.runtimeError("Superclass must be a class.")
				return m.lastErr
			}
			sub := m.peek(0).AsObj().(*value.Class)
			sub.Methods.AddAll(super.Methods)
			m.pop()

		case value.OpMethod:
			m.defineMethod(readString())
		}
	}
}

func (m *VM) binaryNumberOp(combine func(a, b float64) value.Value) bool {
	if !m.peek(0).IsNumber() || !m.peek(1).IsNumber() {
		m.runtimeError("Operands must be numbers.")
		return false
	}
	b := m.pop().AsNumber()
	a := m.pop().AsNumber()
	m.push(combine(a, b))
	return true
}
