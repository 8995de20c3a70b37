package vm

import "strings"

// CompileError wraps the diagnostics produced by the compiler when a
// source unit fails to compile. Each message is already formatted as
// "[line N] Error ...: reason".
type CompileError struct {
	Messages []string
}

func (e *CompileError) Error() string { return strings.Join(e.Messages, "\n") }

// RuntimeError wraps a failure raised while executing bytecode, with the
// call-stack trace the reference implementation prints to stderr:
// "[line N] in name()\n" per frame, innermost first, ending either in
// "script\n" for the top-level frame or nothing if the error escaped a
// native call before any frame was pushed.
type RuntimeError struct {
	Message string
	Trace   []string
}

func (e *RuntimeError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	for _, line := range e.Trace {
		b.WriteByte('\n')
		b.WriteString(line)
	}
	return b.String()
}
