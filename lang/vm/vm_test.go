package vm_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wisteria-lang/wisteria/lang/vm"
)

func run(t *testing.T, src string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	m := vm.New(vm.DefaultConfig(), &out)
	err := m.Interpret([]byte(src))
	return out.String(), err
}

func TestArithmeticPrecedence(t *testing.T) {
	out, err := run(t, `print 1 + 2 * 3;`)
	require.NoError(t, err)
	assert.Equal(t, "7\n", out)
}

func TestStringConcatenation(t *testing.T) {
	out, err := run(t, `print "foo" + "bar";`)
	require.NoError(t, err)
	assert.Equal(t, "foobar\n", out)
}

func TestGlobalAndLocalVariables(t *testing.T) {
	out, err := run(t, `
var a = 1;
{
  var a = 2;
  print a;
}
print a;
`)
	require.NoError(t, err)
	assert.Equal(t, "2\n1\n", out)
}

func TestUninitializedVariableIsNil(t *testing.T) {
	out, err := run(t, `
var a;
print a;
`)
	require.NoError(t, err)
	assert.Equal(t, "nil\n", out)
}

func TestClosureCounter(t *testing.T) {
	out, err := run(t, `
fun makeCounter() {
  var i = 0;
  fun count() {
    i = i + 1;
    print i;
  }
  return count;
}
var counter = makeCounter();
counter();
counter();
counter();
`)
	require.NoError(t, err)
	assert.Equal(t, "1\n2\n3\n", out)
}

func TestIfElse(t *testing.T) {
	out, err := run(t, `
if (1 < 2) {
  print "yes";
} else {
  print "no";
}
`)
	require.NoError(t, err)
	assert.Equal(t, "yes\n", out)
}

func TestWhileLoop(t *testing.T) {
	out, err := run(t, `
var i = 0;
while (i < 3) {
  print i;
  i = i + 1;
}
`)
	require.NoError(t, err)
	assert.Equal(t, "0\n1\n2\n", out)
}

func TestForLoop(t *testing.T) {
	out, err := run(t, `
for (var i = 0; i < 3; i = i + 1) {
  print i;
}
`)
	require.NoError(t, err)
	assert.Equal(t, "0\n1\n2\n", out)
}

func TestClassesAndInheritance(t *testing.T) {
	out, err := run(t, `
class Animal {
  init(name) {
    this.name = name;
  }
  speak() {
    print this.name + " makes a sound.";
  }
}
class Dog < Animal {
  speak() {
    print this.name + " barks.";
    super.speak();
  }
}
var d = Dog("Rex");
d.speak();
`)
	require.NoError(t, err)
	assert.Equal(t, "Rex barks.\nRex makes a sound.\n", out)
}

func TestRuntimeTypeErrorExits(t *testing.T) {
	_, err := run(t, `print 1 + "a";`)
	require.Error(t, err)
	var rerr *vm.RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Contains(t, rerr.Message, "Operands must be two numbers or two strings.")
	require.NotEmpty(t, rerr.Trace)
	assert.True(t, strings.HasSuffix(rerr.Trace[0], "in script"))
}

func TestCompileErrorReturnsCompileError(t *testing.T) {
	_, err := run(t, `print 1 +;`)
	require.Error(t, err)
	var cerr *vm.CompileError
	require.ErrorAs(t, err, &cerr)
}

func TestUndefinedVariableIsRuntimeError(t *testing.T) {
	_, err := run(t, `print missing;`)
	require.Error(t, err)
	var rerr *vm.RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Contains(t, rerr.Message, "Undefined variable 'missing'.")
}

func TestClockNativeReturnsNumber(t *testing.T) {
	out, err := run(t, `print clock() >= 0;`)
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)
}

func TestCallDepthExactlyFramesMaxSucceeds(t *testing.T) {
	var out bytes.Buffer
	cfg := vm.DefaultConfig()
	cfg.FramesMax = 5 // script frame + rec(3),rec(2),rec(1),rec(0) = 5, exactly at cap
	m := vm.New(cfg, &out)

	err := m.Interpret([]byte(`
fun rec(n) {
  if (n == 0) return 0;
  return rec(n - 1);
}
print rec(3);
`))
	require.NoError(t, err)
	assert.Equal(t, "0\n", out.String())
}

func TestCallDepthOneMoreThanFramesMaxOverflows(t *testing.T) {
	var out bytes.Buffer
	cfg := vm.DefaultConfig()
	cfg.FramesMax = 5
	m := vm.New(cfg, &out)

	err := m.Interpret([]byte(`
fun rec(n) {
  if (n == 0) return 0;
  return rec(n - 1);
}
print rec(10);
`))
	require.Error(t, err)
	var rerr *vm.RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Contains(t, rerr.Message, "Stack overflow.")
}

func TestClosuresSharingUpvalueSeeEachOthersMutations(t *testing.T) {
	out, err := run(t, `
fun pair() {
  var shared = 0;
  fun get() { return shared; }
  fun set(v) { shared = v; }
  set(42);
  print get();
}
pair();
`)
	require.NoError(t, err)
	assert.Equal(t, "42\n", out)
}

func TestCompilingUnderGCStressSurvives(t *testing.T) {
	// StressGC forces a collection on every single heap allocation,
	// including the ones the compiler itself makes while interning
	// identifiers and literals. A collection mid-compile must not reclaim
	// a function the compiler is still building but that no VM root yet
	// points at.
	var out bytes.Buffer
	cfg := vm.DefaultConfig()
	cfg.StressGC = true
	m := vm.New(cfg, &out)

	err := m.Interpret([]byte(`
class Shape {
  init(name) { this.name = name; }
  describe() { return "a " + this.name; }
}
class Circle < Shape {
  describe() { return super.describe() + " circle"; }
}
fun twice(f, x) { return f(f(x)); }
fun inc(x) { return x + 1; }
print Circle("round").describe();
print twice(inc, 10);
`))
	require.NoError(t, err)
	assert.Equal(t, "a round circle\n12\n", out.String())
}

func TestUpvalueSurvivesEnclosingReturn(t *testing.T) {
	out, err := run(t, `
fun make() {
  var n = 10;
  fun bump() { n = n + 1; return n; }
  return bump;
}
var b = make();
print b();
print b();
`)
	require.NoError(t, err)
	assert.Equal(t, "11\n12\n", out)
}
