package maincmd_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/kylelemons/godebug/diff"
	"github.com/mna/mainer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wisteria-lang/wisteria/internal/maincmd"
)

func newStdio() (mainer.Stdio, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return mainer.Stdio{Stdin: bytes.NewReader(nil), Stdout: &out, Stderr: &errOut}, &out, &errOut
}

func TestRunFileSuccess(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.wist")
	require.NoError(t, os.WriteFile(path, []byte(`print 1 + 1;`), 0o644))

	stdio, out, _ := newStdio()
	c := &maincmd.Cmd{}
	code := c.Main([]string{"wisteria", path}, stdio)

	assert.Equal(t, maincmd.ExitSuccess, code)
	assert.Equal(t, "2\n", out.String())
}

func TestRunFileCompileError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.wist")
	require.NoError(t, os.WriteFile(path, []byte(`print 1 +;`), 0o644))

	stdio, _, _ := newStdio()
	c := &maincmd.Cmd{}
	code := c.Main([]string{"wisteria", path}, stdio)

	assert.Equal(t, maincmd.ExitCompileError, code)
}

func TestRunFileRuntimeError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.wist")
	require.NoError(t, os.WriteFile(path, []byte(`print 1 + "a";`), 0o644))

	stdio, _, _ := newStdio()
	c := &maincmd.Cmd{}
	code := c.Main([]string{"wisteria", path}, stdio)

	assert.Equal(t, maincmd.ExitRuntimeError, code)
}

func TestMissingFileIsIOError(t *testing.T) {
	stdio, _, _ := newStdio()
	c := &maincmd.Cmd{}
	code := c.Main([]string{"wisteria", filepath.Join(t.TempDir(), "nope.wist")}, stdio)

	assert.Equal(t, maincmd.ExitIOError, code)
}

func TestTooManyArgumentsIsUsageError(t *testing.T) {
	stdio, _, _ := newStdio()
	c := &maincmd.Cmd{}
	code := c.Main([]string{"wisteria", "a", "b"}, stdio)

	assert.Equal(t, maincmd.ExitUsage, code)
}

func TestReplEchoesResultsUntilEOF(t *testing.T) {
	var out, errOut bytes.Buffer
	stdio := mainer.Stdio{
		Stdin:  bytes.NewReader([]byte("print 1 + 1;\nprint 2 + 2;\n")),
		Stdout: &out,
		Stderr: &errOut,
	}
	c := &maincmd.Cmd{}
	code := c.Main([]string{"wisteria"}, stdio)

	assert.Equal(t, maincmd.ExitSuccess, code)
	assert.Contains(t, out.String(), "2\n")
	assert.Contains(t, out.String(), "4\n")
}

// TestReplTranscriptMatchesGolden pins the exact prompt/output interleaving
// of a short REPL session, diffed with the same library the reference
// maincmd test harness uses for golden-file comparisons.
func TestReplTranscriptMatchesGolden(t *testing.T) {
	var out, errOut bytes.Buffer
	stdio := mainer.Stdio{
		Stdin:  bytes.NewReader([]byte("print \"hi\";\nprint 6 * 7;\n")),
		Stdout: &out,
		Stderr: &errOut,
	}
	c := &maincmd.Cmd{}
	code := c.Main([]string{"wisteria"}, stdio)
	require.Equal(t, maincmd.ExitSuccess, code)

	want := "> hi\n> 42\n> \n"
	if patch := diff.Diff(want, out.String()); patch != "" {
		t.Errorf("REPL transcript mismatch:\n%s", patch)
	}
}
