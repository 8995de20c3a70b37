// Package compiler implements the single-pass Pratt compiler: it consumes
// tokens from a scanner.Scanner and emits bytecode directly into a
// value.Chunk, with no intermediate AST. Its structure follows the
// reference implementation's compiler.c closely: one compiler state per
// function body, chained through enclosing to resolve locals and
// upvalues in lexically enclosing scopes.
package compiler

import (
	"fmt"
	"strconv"

	"github.com/dolthub/swiss"

	"github.com/wisteria-lang/wisteria/lang/scanner"
	"github.com/wisteria-lang/wisteria/lang/token"
	"github.com/wisteria-lang/wisteria/lang/value"
)

// maxLocals bounds both the locals array and the upvalues array: the
// operand that addresses either is a single byte.
const maxLocals = 256

// functionType distinguishes the four syntactic contexts a compiled
// function body may appear in, each with slightly different emitted code
// around entry (the implicit receiver slot) and return (initializers
// return `this`, not nil).
type functionType int

const (
	typeFunction functionType = iota
	typeInitializer
	typeMethod
	typeScript
)

type local struct {
	name       token.Token
	depth      int // -1 while the initializer is still being compiled
	isCaptured bool
}

type upvalueRef struct {
	index   byte
	isLocal bool
}

// state is one function body's compiler frame, chained through enclosing
// to give resolveLocal/resolveUpvalue access to lexically enclosing
// scopes without a separate symbol-table pass.
type state struct {
	enclosing *state
	function  *value.Function
	typ       functionType

	locals     []local
	upvalues   []upvalueRef
	scopeDepth int

	// constNames dedupes identifierConstant within this function body: the
	// same name (a global, a field, a method) is frequently referenced many
	// times in one function, and without this cache each reference would
	// waste a slot in the 256-entry constant pool on a repeat of a string
	// already sitting in it.
	constNames *swiss.Map[string, byte]
}

type classState struct {
	enclosing     *classState
	hasSuperclass bool
}

// Compiler turns wisteria source into a top-level value.Function. One
// Compiler compiles one source unit; it is not reusable across calls to
// Compile.
type Compiler struct {
	scanner *scanner.Scanner
	current token.Token
	prev    token.Token

	hadError  bool
	panicMode bool
	errs      []string

	alloc   value.Allocator
	strings *value.Table

	cur   *state
	class *classState
}

// compilerRootSetter is implemented by *gc.Collector. The compiler depends
// only on value.Allocator, never on the gc package, so this is expressed as
// a narrow local interface and satisfied by duck typing rather than an
// import of lang/gc, so that compiler and gc each depend only on value and
// neither imports the other.
type compilerRootSetter interface {
	SetCompilerRoot(func(mark func(value.Value)))
}

// Compile compiles source into a top-level script function. On failure it
// returns a nil function and the accumulated compile-time error messages,
// each already formatted as "[line N] Error at X: message" to match the
// reference implementation's diagnostics.
func Compile(alloc value.Allocator, strings *value.Table, source []byte) (*value.Function, []string) {
	c := &Compiler{
		scanner: scanner.New(source),
		alloc:   alloc,
		strings: strings,
	}
	c.pushState(typeScript)

	// Register the in-progress function chain as a GC root for the
	// duration of compilation: identifierConstant/emitConstant intern
	// strings through alloc, which may itself trigger a collection before
	// c.cur.function is reachable from anything the VM's own roots cover.
	if setter, ok := alloc.(compilerRootSetter); ok {
		setter.SetCompilerRoot(c.MarkRoots)
		defer setter.SetCompilerRoot(nil)
	}

	c.advance()
	for !c.match(token.EOF) {
		c.declaration()
	}

	fn := c.endCompiler()
	if c.hadError {
		return nil, c.errs
	}
	return fn, nil
}

// MarkRoots marks every function currently under construction, walked
// outward through the enclosing chain, per the specification's GC roots
// list (§4.5).
func (c *Compiler) MarkRoots(mark func(value.Value)) {
	for s := c.cur; s != nil; s = s.enclosing {
		mark(value.FromObj(s.function))
	}
}

func (c *Compiler) pushState(typ functionType) {
	fn := value.NewFunction(c.alloc, value.NewChunk(), nil)
	s := &state{enclosing: c.cur, function: fn, typ: typ, constNames: swiss.NewMap[string, byte](8)}

	// Slot 0 is reserved for the receiver in methods/initializers, and for
	// an unnameable empty-string placeholder in plain functions; either way
	// it can never be referenced by source-level identifier lookup.
	recv := local{depth: 0}
	if typ != typeFunction {
		recv.name = token.Token{Lexeme: "this"}
	}
	s.locals = append(s.locals, recv)

	c.cur = s

	// Every function except the top-level script is named after the
	// identifier just consumed (the function or method name). Interning
	// happens after c.cur is set so that fn is already a compiler root if
	// the allocation triggers a collection.
	if typ != typeScript {
		fn.Name = value.Intern(c.alloc, c.strings, c.prev.Lexeme)
	}
}

func (c *Compiler) endCompiler() *value.Function {
	c.emitReturn()
	fn := c.cur.function
	c.cur = c.cur.enclosing
	return fn
}

func (c *Compiler) currentChunk() *value.Chunk { return c.cur.function.Chunk }

// --- token stream plumbing ---

func (c *Compiler) advance() {
	c.prev = c.current
	for {
		c.current = c.scanner.Scan()
		if c.current.Kind != token.ERROR {
			break
		}
		c.errorAtCurrent(c.current.Lexeme)
	}
}

func (c *Compiler) check(k token.Kind) bool { return c.current.Kind == k }

func (c *Compiler) match(k token.Kind) bool {
	if !c.check(k) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(k token.Kind, message string) {
	if c.current.Kind == k {
		c.advance()
		return
	}
	c.errorAtCurrent(message)
}

func (c *Compiler) errorAtCurrent(message string) { c.errorAt(&c.current, message) }
func (c *Compiler) error(message string)          { c.errorAt(&c.prev, message) }

func (c *Compiler) errorAt(tok *token.Token, message string) {
	if c.panicMode {
		return
	}
	c.panicMode = true

	loc := ""
	switch tok.Kind {
	case token.EOF:
		loc = " at end"
	case token.ERROR:
		// nothing
	default:
		loc = fmt.Sprintf(" at '%s'", tok.Lexeme)
	}
	c.errs = append(c.errs, fmt.Sprintf("[line %d] Error%s: %s", tok.Line, loc, message))
	c.hadError = true
}

// --- bytecode emission ---

func (c *Compiler) emitByte(b byte) { c.currentChunk().Write(b, c.prev.Line) }

func (c *Compiler) emitBytes(b1, b2 byte) {
	c.emitByte(b1)
	c.emitByte(b2)
}

func (c *Compiler) emitOp(op value.OpCode) { c.emitByte(byte(op)) }

func (c *Compiler) emitOpByte(op value.OpCode, b byte) { c.emitBytes(byte(op), b) }

func (c *Compiler) emitLoop(loopStart int) {
	c.emitOp(value.OpLoop)
	offset := len(c.currentChunk().Code) - loopStart + 2
	if offset > 0xffff {
		c.error("Loop body too large.")
	}
	c.emitByte(byte((offset >> 8) & 0xff))
	c.emitByte(byte(offset & 0xff))
}

func (c *Compiler) emitJump(instr value.OpCode) int {
	c.emitOp(instr)
	c.emitByte(0xff)
	c.emitByte(0xff)
	return len(c.currentChunk().Code) - 2
}

func (c *Compiler) patchJump(offset int) {
	jump := len(c.currentChunk().Code) - offset - 2
	if jump > 0xffff {
		c.error("Too much code to jump over.")
	}
	c.currentChunk().Code[offset] = byte((jump >> 8) & 0xff)
	c.currentChunk().Code[offset+1] = byte(jump & 0xff)
}

func (c *Compiler) emitReturn() {
	if c.cur.typ == typeInitializer {
		c.emitOpByte(value.OpGetLocal, 0)
	} else {
		c.emitOp(value.OpNil)
	}
	c.emitOp(value.OpReturn)
}

func (c *Compiler) makeConstant(v value.Value) byte {
	idx := c.currentChunk().AddConstant(v)
	if idx > 0xff {
		c.error("Too many constants in one chunk.")
		return 0
	}
	return byte(idx)
}

func (c *Compiler) emitConstant(v value.Value) {
	c.emitOpByte(value.OpConstant, c.makeConstant(v))
}

func (c *Compiler) identifierConstant(tok *token.Token) byte {
	if idx, ok := c.cur.constNames.Get(tok.Lexeme); ok {
		return idx
	}
	s := value.Intern(c.alloc, c.strings, tok.Lexeme)
	idx := c.makeConstant(value.FromObj(s))
	c.cur.constNames.Put(tok.Lexeme, idx)
	return idx
}

func identifiersEqual(a, b *token.Token) bool { return a.Lexeme == b.Lexeme }

// --- scopes, locals, upvalues ---

func (c *Compiler) beginScope() { c.cur.scopeDepth++ }

func (c *Compiler) endScope() {
	c.cur.scopeDepth--
	for len(c.cur.locals) > 0 && c.cur.locals[len(c.cur.locals)-1].depth > c.cur.scopeDepth {
		last := c.cur.locals[len(c.cur.locals)-1]
		if last.isCaptured {
			c.emitOp(value.OpCloseUpvalue)
		} else {
			c.emitOp(value.OpPop)
		}
		c.cur.locals = c.cur.locals[:len(c.cur.locals)-1]
	}
}

func resolveLocal(s *state, name *token.Token) int {
	for i := len(s.locals) - 1; i >= 0; i-- {
		if identifiersEqual(name, &s.locals[i].name) {
			return i
		}
	}
	return -1
}

func (c *Compiler) resolveLocal(s *state, name *token.Token) int {
	idx := resolveLocal(s, name)
	if idx != -1 && s.locals[idx].depth == -1 {
		c.error("Can't read local variable in its own initializer.")
	}
	return idx
}

func (c *Compiler) addUpvalue(s *state, index byte, isLocal bool) int {
	for i, uv := range s.upvalues {
		if uv.index == index && uv.isLocal == isLocal {
			return i
		}
	}
	if len(s.upvalues) == maxLocals {
		c.error("Too many closure variables in function.")
		return 0
	}
	s.upvalues = append(s.upvalues, upvalueRef{index: index, isLocal: isLocal})
	s.function.UpvalueCount = len(s.upvalues)
	return len(s.upvalues) - 1
}

func (c *Compiler) resolveUpvalue(s *state, name *token.Token) int {
	if s.enclosing == nil {
		return -1
	}
	if local := c.resolveLocal(s.enclosing, name); local != -1 {
		s.enclosing.locals[local].isCaptured = true
		return c.addUpvalue(s, byte(local), true)
	}
	if uv := c.resolveUpvalue(s.enclosing, name); uv != -1 {
		return c.addUpvalue(s, byte(uv), false)
	}
	return -1
}

func (c *Compiler) addLocal(name token.Token) {
	if len(c.cur.locals) == maxLocals {
		c.error("Too many local variables in function.")
		return
	}
	c.cur.locals = append(c.cur.locals, local{name: name, depth: -1})
}

func (c *Compiler) declareVariable() {
	if c.cur.scopeDepth == 0 {
		return
	}
	name := &c.prev
	for i := len(c.cur.locals) - 1; i >= 0; i-- {
		l := &c.cur.locals[i]
		if l.depth != -1 && l.depth < c.cur.scopeDepth {
			break
		}
		if identifiersEqual(name, &l.name) {
			c.error("Already a variable with this name in this scope.")
		}
	}
	c.addLocal(*name)
}

func (c *Compiler) parseVariable(errMsg string) byte {
	c.consume(token.IDENTIFIER, errMsg)
	c.declareVariable()
	if c.cur.scopeDepth > 0 {
		return 0
	}
	return c.identifierConstant(&c.prev)
}

func (c *Compiler) markInitialized() {
	if c.cur.scopeDepth == 0 {
		return
	}
	c.cur.locals[len(c.cur.locals)-1].depth = c.cur.scopeDepth
}

func (c *Compiler) defineVariable(global byte) {
	if c.cur.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitOpByte(value.OpDefineGlobal, global)
}

func (c *Compiler) argumentList() byte {
	var argCount int
	if !c.check(token.RIGHT_PAREN) {
		for {
			c.expression()
			if argCount == 255 {
				c.error("Can't have more than 255 arguments.")
			}
			argCount++
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RIGHT_PAREN, "Expect ')' after arguments.")
	return byte(argCount)
}

// --- expressions ---

func (c *Compiler) parsePrecedence(prec precedence) {
	c.advance()
	prefix := getRule(c.prev.Kind).prefix
	if prefix == nil {
		c.error("Expect expression.")
		return
	}
	canAssign := prec <= precAssignment
	prefix(c, canAssign)

	for prec <= getRule(c.current.Kind).precedence {
		c.advance()
		infix := getRule(c.prev.Kind).infix
		infix(c, canAssign)
	}

	if canAssign && c.match(token.EQUAL) {
		c.error("Invalid assignment target.")
	}
}

func (c *Compiler) expression() { c.parsePrecedence(precAssignment) }

func (c *Compiler) and_(canAssign bool) {
	endJump := c.emitJump(value.OpJumpIfFalse)
	c.emitOp(value.OpPop)
	c.parsePrecedence(precAnd)
	c.patchJump(endJump)
}

func (c *Compiler) or_(canAssign bool) {
	elseJump := c.emitJump(value.OpJumpIfFalse)
	endJump := c.emitJump(value.OpJump)
	c.patchJump(elseJump)
	c.emitOp(value.OpPop)
	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}

func (c *Compiler) binary(canAssign bool) {
	opType := c.prev.Kind
	rule := getRule(opType)
	c.parsePrecedence(rule.precedence + 1)

	switch opType {
	case token.BANG_EQUAL:
		c.emitBytes(byte(value.OpEqual), byte(value.OpNot))
	case token.EQUAL_EQUAL:
		c.emitOp(value.OpEqual)
	case token.GREATER:
		c.emitOp(value.OpGreater)
	case token.GREATER_EQUAL:
		c.emitBytes(byte(value.OpLess), byte(value.OpNot))
	case token.LESS:
		c.emitOp(value.OpLess)
	case token.LESS_EQUAL:
		c.emitBytes(byte(value.OpGreater), byte(value.OpNot))
	case token.PLUS:
		c.emitOp(value.OpAdd)
	case token.MINUS:
		c.emitOp(value.OpSubtract)
	case token.STAR:
		c.emitOp(value.OpMultiply)
	case token.SLASH:
		c.emitOp(value.OpDivide)
	}
}

func (c *Compiler) call(canAssign bool) {
	argCount := c.argumentList()
	c.emitOpByte(value.OpCall, argCount)
}

func (c *Compiler) dot(canAssign bool) {
	c.consume(token.IDENTIFIER, "Expect property name after '.'.")
	name := c.identifierConstant(&c.prev)

	switch {
	case canAssign && c.match(token.EQUAL):
		c.expression()
		c.emitOpByte(value.OpSetProperty, name)
	case c.match(token.LEFT_PAREN):
		argCount := c.argumentList()
		c.emitOpByte(value.OpInvoke, name)
		c.emitByte(argCount)
	default:
		c.emitOpByte(value.OpGetProperty, name)
	}
}

func (c *Compiler) literal(canAssign bool) {
	switch c.prev.Kind {
	case token.FALSE:
		c.emitOp(value.OpFalse)
	case token.NIL:
		c.emitOp(value.OpNil)
	case token.TRUE:
		c.emitOp(value.OpTrue)
	}
}

func (c *Compiler) grouping(canAssign bool) {
	c.expression()
	c.consume(token.RIGHT_PAREN, "Expect ')' after expression.")
}

func (c *Compiler) number(canAssign bool) {
	n, err := strconv.ParseFloat(c.prev.Lexeme, 64)
	if err != nil {
		c.error("Invalid number literal.")
		return
	}
	c.emitConstant(value.Number(n))
}

func (c *Compiler) string_(canAssign bool) {
	// Lexeme includes the surrounding quotes.
	raw := c.prev.Lexeme[1 : len(c.prev.Lexeme)-1]
	s := value.Intern(c.alloc, c.strings, raw)
	c.emitConstant(value.FromObj(s))
}

func (c *Compiler) namedVariable(name token.Token, canAssign bool) {
	var getOp, setOp value.OpCode
	arg := c.resolveLocal(c.cur, &name)
	if arg != -1 {
		getOp, setOp = value.OpGetLocal, value.OpSetLocal
	} else if arg = c.resolveUpvalue(c.cur, &name); arg != -1 {
		getOp, setOp = value.OpGetUpvalue, value.OpSetUpvalue
	} else {
		arg = int(c.identifierConstant(&name))
		getOp, setOp = value.OpGetGlobal, value.OpSetGlobal
	}

	if canAssign && c.match(token.EQUAL) {
		c.expression()
		c.emitOpByte(setOp, byte(arg))
	} else {
		c.emitOpByte(getOp, byte(arg))
	}
}

func (c *Compiler) variable(canAssign bool) { c.namedVariable(c.prev, canAssign) }

func syntheticToken(text string) token.Token { return token.Token{Lexeme: text} }

func (c *Compiler) super_(canAssign bool) {
	if c.class == nil {
		c.error("Can't use 'super' outside of a class.")
	} else if !c.class.hasSuperclass {
		c.error("Can't use 'super' in a class with no superclass.")
	}

	c.consume(token.DOT, "Expect '.' after 'super'.")
	c.consume(token.IDENTIFIER, "Expect superclass method name.")
	name := c.identifierConstant(&c.prev)

	c.namedVariable(syntheticToken("this"), false)
	if c.match(token.LEFT_PAREN) {
		argCount := c.argumentList()
		c.namedVariable(syntheticToken("super"), false)
		c.emitOpByte(value.OpSuperInvoke, name)
		c.emitByte(argCount)
	} else {
		c.namedVariable(syntheticToken("super"), false)
		c.emitOpByte(value.OpGetSuper, name)
	}
}

func (c *Compiler) this_(canAssign bool) {
	if c.class == nil {
		c.error("Can't use 'this' outside of a class.")
		return
	}
	c.variable(false)
}

func (c *Compiler) unary(canAssign bool) {
	opType := c.prev.Kind
	c.parsePrecedence(precUnary)
	switch opType {
	case token.BANG:
		c.emitOp(value.OpNot)
	case token.MINUS:
		c.emitOp(value.OpNegate)
	}
}

// --- statements ---

func (c *Compiler) block() {
	for !c.check(token.RIGHT_BRACE) && !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.RIGHT_BRACE, "Expect '}' after block.")
}

func (c *Compiler) function(typ functionType) {
	c.pushState(typ)
	c.beginScope()

	c.consume(token.LEFT_PAREN, "Expect '(' after function name.")
	if !c.check(token.RIGHT_PAREN) {
		for {
			c.cur.function.Arity++
			if c.cur.function.Arity > 255 {
				c.errorAtCurrent("Can't have more than 255 parameters.")
			}
			constant := c.parseVariable("Expect parameter name.")
			c.defineVariable(constant)
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RIGHT_PAREN, "Expect ')' after parameters.")
	c.consume(token.LEFT_BRACE, "Expect '{' before function body.")
	c.block()

	compiled := c.cur
	fn := c.endCompiler()
	c.emitOpByte(value.OpClosure, c.makeConstant(value.FromObj(fn)))

	for _, uv := range compiled.upvalues {
		if uv.isLocal {
			c.emitByte(1)
		} else {
			c.emitByte(0)
		}
		c.emitByte(uv.index)
	}
}

func (c *Compiler) method() {
	c.consume(token.IDENTIFIER, "Expect method name.")
	constant := c.identifierConstant(&c.prev)

	typ := typeMethod
	if c.prev.Lexeme == "init" {
		typ = typeInitializer
	}
	c.function(typ)
	c.emitOpByte(value.OpMethod, constant)
}

func (c *Compiler) funDeclaration() {
	global := c.parseVariable("Expect function name.")
	c.markInitialized()
	c.function(typeFunction)
	c.defineVariable(global)
}

func (c *Compiler) classDeclaration() {
	c.consume(token.IDENTIFIER, "Expect class name.")
	className := c.prev
	nameConstant := c.identifierConstant(&c.prev)
	c.declareVariable()

	c.emitOpByte(value.OpClass, nameConstant)
	c.defineVariable(nameConstant)

	cs := &classState{enclosing: c.class}
	c.class = cs

	if c.match(token.LESS) {
		c.consume(token.IDENTIFIER, "Expect superclass name.")
		c.variable(false)

		if identifiersEqual(&className, &c.prev) {
			c.error("A class can't inherit from itself.")
		}

		c.beginScope()
		c.addLocal(syntheticToken("super"))
		c.defineVariable(0)

		c.namedVariable(className, false)
		c.emitOp(value.OpInherit)
		cs.hasSuperclass = true
	}

	c.namedVariable(className, false)
	c.consume(token.LEFT_BRACE, "Expect '{' before class body.")
	for !c.check(token.RIGHT_BRACE) && !c.check(token.EOF) {
		c.method()
	}
	c.consume(token.RIGHT_BRACE, "Expect '}' after class body.")
	c.emitOp(value.OpPop)

	if cs.hasSuperclass {
		c.endScope()
	}
	c.class = c.class.enclosing
}

func (c *Compiler) varDeclaration() {
	global := c.parseVariable("Expect variable name.")
	if c.match(token.EQUAL) {
		c.expression()
	} else {
		c.emitOp(value.OpNil)
	}
	c.consume(token.SEMICOLON, "Expect ';' after variable declaration.")
	c.defineVariable(global)
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after expression.")
	c.emitOp(value.OpPop)
}

func (c *Compiler) forStatement() {
	c.beginScope()
	c.consume(token.LEFT_PAREN, "Expect '(' after 'for'.")
	switch {
	case c.match(token.SEMICOLON):
		// no initializer
	case c.match(token.VAR):
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := len(c.currentChunk().Code)
	exitJump := -1
	if !c.match(token.SEMICOLON) {
		c.expression()
		c.consume(token.SEMICOLON, "Expect ';' after loop condition.")
		exitJump = c.emitJump(value.OpJumpIfFalse)
		c.emitOp(value.OpPop)
	}

	if !c.match(token.RIGHT_PAREN) {
		bodyJump := c.emitJump(value.OpJump)
		incrementStart := len(c.currentChunk().Code)
		c.expression()
		c.emitOp(value.OpPop)
		c.consume(token.RIGHT_PAREN, "Expect ')' after for clauses.")

		c.emitLoop(loopStart)
		loopStart = incrementStart
		c.patchJump(bodyJump)
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitOp(value.OpPop)
	}
	c.endScope()
}

func (c *Compiler) ifStatement() {
	c.consume(token.LEFT_PAREN, "Expect '(' after 'if'.")
	c.expression()
	c.consume(token.RIGHT_PAREN, "Expect ')' after condition.")

	thenJump := c.emitJump(value.OpJumpIfFalse)
	c.emitOp(value.OpPop)
	c.statement()

	elseJump := c.emitJump(value.OpJump)
	c.patchJump(thenJump)
	c.emitOp(value.OpPop)
	if c.match(token.ELSE) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after value.")
	c.emitOp(value.OpPrint)
}

func (c *Compiler) returnStatement() {
	if c.cur.typ == typeScript {
		c.error("Can't return from top-level code.")
	}
	if c.match(token.SEMICOLON) {
		c.emitReturn()
		return
	}
	if c.cur.typ == typeInitializer {
		c.error("Can't return a value from an initializer.")
	}
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after return value.")
	c.emitOp(value.OpReturn)
}

func (c *Compiler) whileStatement() {
	loopStart := len(c.currentChunk().Code)
	c.consume(token.LEFT_PAREN, "Expect '(' after 'while'.")
	c.expression()
	c.consume(token.RIGHT_PAREN, "Expect ')' after condition.")

	exitJump := c.emitJump(value.OpJumpIfFalse)
	c.emitOp(value.OpPop)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOp(value.OpPop)
}

func (c *Compiler) synchronize() {
	c.panicMode = false
	for c.current.Kind != token.EOF {
		if c.prev.Kind == token.SEMICOLON {
			return
		}
		switch c.current.Kind {
		case token.CLASS, token.FUN, token.VAR, token.FOR, token.IF, token.WHILE, token.PRINT, token.RETURN:
			return
		}
		c.advance()
	}
}

func (c *Compiler) declaration() {
	switch {
	case c.match(token.CLASS):
		c.classDeclaration()
	case c.match(token.FUN):
		c.funDeclaration()
	case c.match(token.VAR):
		c.varDeclaration()
	default:
		c.statement()
	}

	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) statement() {
	switch {
	case c.match(token.PRINT):
		c.printStatement()
	case c.match(token.FOR):
		c.forStatement()
	case c.match(token.IF):
		c.ifStatement()
	case c.match(token.RETURN):
		c.returnStatement()
	case c.match(token.WHILE):
		c.whileStatement()
	case c.match(token.LEFT_BRACE):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}
