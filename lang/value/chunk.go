package value

// OpCode is a single bytecode instruction tag. Most opcodes are followed
// by one or more operand bytes in the instruction stream; see the comment
// on each constant for its operand shape.
type OpCode byte

const (
	OpConstant OpCode = iota // u8 constant index
	OpNil
	OpTrue
	OpFalse
	OpPop
	OpGetLocal     // u8 slot
	OpSetLocal     // u8 slot
	OpGetGlobal    // u8 constant index (name)
	OpDefineGlobal // u8 constant index (name)
	OpSetGlobal    // u8 constant index (name)
	OpGetUpvalue   // u8 upvalue index
	OpSetUpvalue   // u8 upvalue index
	OpGetProperty  // u8 constant index (name)
	OpSetProperty  // u8 constant index (name)
	OpGetSuper     // u8 constant index (method name)
	OpEqual
	OpGreater
	OpLess
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpNot
	OpNegate
	OpPrint
	OpJump        // u16 forward offset
	OpJumpIfFalse // u16 forward offset
	OpLoop        // u16 backward offset
	OpCall        // u8 arg count
	OpInvoke      // u8 constant index (method name), u8 arg count
	OpSuperInvoke // u8 constant index (method name), u8 arg count
	OpClosure     // u8 constant index (function); then per upvalue: u8 isLocal, u8 index
	OpCloseUpvalue
	OpReturn
	OpClass  // u8 constant index (name)
	OpInherit
	OpMethod // u8 constant index (name)
)

var opNames = map[OpCode]string{
	OpConstant:     "OP_CONSTANT",
	OpNil:          "OP_NIL",
	OpTrue:         "OP_TRUE",
	OpFalse:        "OP_FALSE",
	OpPop:          "OP_POP",
	OpGetLocal:     "OP_GET_LOCAL",
	OpSetLocal:     "OP_SET_LOCAL",
	OpGetGlobal:    "OP_GET_GLOBAL",
	OpDefineGlobal: "OP_DEFINE_GLOBAL",
	OpSetGlobal:    "OP_SET_GLOBAL",
	OpGetUpvalue:   "OP_GET_UPVALUE",
	OpSetUpvalue:   "OP_SET_UPVALUE",
	OpGetProperty:  "OP_GET_PROPERTY",
	OpSetProperty:  "OP_SET_PROPERTY",
	OpGetSuper:     "OP_GET_SUPER",
	OpEqual:        "OP_EQUAL",
	OpGreater:      "OP_GREATER",
	OpLess:         "OP_LESS",
	OpAdd:          "OP_ADD",
	OpSubtract:     "OP_SUBTRACT",
	OpMultiply:     "OP_MULTIPLY",
	OpDivide:       "OP_DIVIDE",
	OpNot:          "OP_NOT",
	OpNegate:       "OP_NEGATE",
	OpPrint:        "OP_PRINT",
	OpJump:         "OP_JUMP",
	OpJumpIfFalse:  "OP_JUMP_IF_FALSE",
	OpLoop:         "OP_LOOP",
	OpCall:         "OP_CALL",
	OpInvoke:       "OP_INVOKE",
	OpSuperInvoke:  "OP_SUPER_INVOKE",
	OpClosure:      "OP_CLOSURE",
	OpCloseUpvalue: "OP_CLOSE_UPVALUE",
	OpReturn:       "OP_RETURN",
	OpClass:        "OP_CLASS",
	OpInherit:      "OP_INHERIT",
	OpMethod:       "OP_METHOD",
}

func (op OpCode) String() string {
	if n, ok := opNames[op]; ok {
		return n
	}
	return "OP_UNKNOWN"
}

// MaxConstants is the number of distinct constants a single chunk may hold:
// the constant index operand is one byte wide.
const MaxConstants = 256

// Chunk is one function's compiled bytecode: a flat instruction stream, a
// line number recorded per byte (for runtime error reporting), and the
// pool of constant Values the instructions index into.
//
// Chunk lives in this package, not a separate one, because Function embeds
// a *Chunk directly and Chunk's constant pool holds Values: splitting the
// two into separate packages produces an import cycle (mirrored in the
// reference implementation, where ObjFunction simply embeds a Chunk by
// value with no translation-unit boundary between them).
type Chunk struct {
	Code      []byte
	Lines     []int
	Constants []Value
}

// NewChunk returns an empty chunk.
func NewChunk() *Chunk { return &Chunk{} }

// Write appends a single byte with its source line.
func (c *Chunk) Write(b byte, line int) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
}

// AddConstant appends v to the constant pool and returns its index. Callers
// are responsible for checking against MaxConstants before emitting an
// OP_CONSTANT-family instruction; this method itself is total for simplicity
// during intermediate compiler bookkeeping (e.g. probing existing values).
func (c *Chunk) AddConstant(v Value) int {
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}
