// Package maincmd implements the wisteria command-line entry point: a
// REPL when invoked with no arguments, a file interpreter when given
// exactly one path, and a usage error otherwise. It follows the teacher
// repository's mainer-based plumbing (Stdio injection, signal-aware
// context, structured exit codes) collapsed to this simpler command
// surface.
package maincmd

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/wisteria-lang/wisteria/lang/vm"
)

const binName = "wisteria"

// Exit codes follow the BSD sysexits.h convention used by the reference
// implementation's CLI (EX_USAGE, EX_DATAERR, EX_SOFTWARE, EX_IOERR).
const (
	ExitSuccess      mainer.ExitCode = 0
	ExitUsage        mainer.ExitCode = 64
	ExitCompileError mainer.ExitCode = 65
	ExitRuntimeError mainer.ExitCode = 70
	ExitIOError      mainer.ExitCode = 74
)

var shortUsage = fmt.Sprintf("usage: %s [path]\n", binName)

// Cmd is the mainer.Parser target: flags plus the positional args.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	args []string
}

func (c *Cmd) SetArgs(args []string)         { c.args = args }
func (c *Cmd) SetFlags(map[string]bool)      {}
func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}
	if len(c.args) > 1 {
		return fmt.Errorf("too many arguments")
	}
	return nil
}

// Main is the program entry point, wired from cmd/wisteria/main.go.
func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{EnvVars: false, EnvPrefix: binName + "_"}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return ExitUsage
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, shortUsage)
		return ExitSuccess
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return ExitSuccess
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)

	cfg, err := vm.LoadConfig()
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s\n", err)
		return ExitUsage
	}

	switch len(c.args) {
	case 0:
		return repl(ctx, stdio, cfg)
	case 1:
		return runFile(ctx, stdio, cfg, c.args[0])
	default:
		fmt.Fprint(stdio.Stderr, shortUsage)
		return ExitUsage
	}
}

func runFile(ctx context.Context, stdio mainer.Stdio, cfg vm.Config, path string) mainer.ExitCode {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s\n", err)
		return ExitIOError
	}

	m := vm.New(cfg, stdio.Stdout)
	return interpret(m, src, stdio)
}

// repl reads lines up to 1024 bytes each, matching the reference
// implementation's fixed-size REPL input buffer, interpreting each line
// as a standalone program until EOF.
func repl(ctx context.Context, stdio mainer.Stdio, cfg vm.Config) mainer.ExitCode {
	m := vm.New(cfg, stdio.Stdout)
	scan := bufio.NewScanner(stdio.Stdin)
	scan.Buffer(make([]byte, 1024), 1024)

	for {
		if ctx.Err() != nil {
			return ExitSuccess
		}
		fmt.Fprint(stdio.Stdout, "> ")
		if !scan.Scan() {
			fmt.Fprintln(stdio.Stdout)
			return ExitSuccess
		}
		interpret(m, scan.Bytes(), stdio)
	}
}

func interpret(m *vm.VM, src []byte, stdio mainer.Stdio) mainer.ExitCode {
	if err := m.Interpret(src); err != nil {
		fmt.Fprintf(stdio.Stderr, "%s\n", err)
		switch err.(type) {
		case *vm.CompileError:
			return ExitCompileError
		default:
			return ExitRuntimeError
		}
	}
	return ExitSuccess
}
