// Package natives implements the native (host-provided) functions exposed
// to wisteria programs as ordinary global callables.
package natives

import (
	"time"

	"github.com/dolthub/swiss"

	"github.com/wisteria-lang/wisteria/lang/value"
)

var start = time.Now()

// Clock returns the number of seconds elapsed since the process started,
// mirroring the reference implementation's clock() native (which reports
// CPU time via C's clock()/CLOCKS_PER_SEC; wall-clock elapsed time is the
// closest portable equivalent available without cgo).
func Clock(args []value.Value) (value.Value, error) {
	return value.Number(time.Since(start).Seconds()), nil
}

// registry is the set of built-in natives, keyed by the global name they
// are installed under. It is a bookkeeping structure internal to this
// package, distinct from the spec-mandated runtime Table used for globals,
// fields, and interning: nothing about its probing strategy is observable
// from wisteria source, so it is free to use a throughput-oriented map
// instead of the open-addressed table those user-visible structures require.
var registry = buildRegistry()

// names lists every registered native in a fixed, deterministic order, so
// callers that install them as globals (lang/vm) don't depend on iteration
// order over the underlying map implementation.
var names = []string{"clock"}

func buildRegistry() *swiss.Map[string, value.NativeFn] {
	m := swiss.NewMap[string, value.NativeFn](uint32(len(names)))
	m.Put("clock", Clock)
	return m
}

// Names returns the names of every built-in native function.
func Names() []string { return names }

// Lookup returns the native function registered under name, if any.
func Lookup(name string) (value.NativeFn, bool) { return registry.Get(name) }
