package gc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wisteria-lang/wisteria/lang/gc"
	"github.com/wisteria-lang/wisteria/lang/value"
)

// rootSet is a minimal gc.Roots that marks exactly the values it is given,
// so tests can control what survives a collection precisely.
type rootSet struct {
	roots []value.Value
}

func (r *rootSet) MarkRoots(mark func(value.Value)) {
	for _, v := range r.roots {
		mark(v)
	}
}

func TestUnreachableStringIsCollectable(t *testing.T) {
	strs := value.NewTable()
	roots := &rootSet{}
	c := gc.New(roots, strs)

	value.Intern(c, strs, "garbage")
	require.Equal(t, 1, strs.Len())

	c.Collect()

	assert.Equal(t, 0, strs.Len(), "an unrooted interned string must be dropped from the interning table")
}

func TestReachableStringSurvivesCollection(t *testing.T) {
	strs := value.NewTable()
	roots := &rootSet{}
	c := gc.New(roots, strs)

	s := value.Intern(c, strs, "kept")
	roots.roots = []value.Value{value.FromObj(s)}

	c.Collect()

	again := value.Intern(c, strs, "kept")
	assert.Same(t, s, again, "marked string must not be re-allocated")
}

func TestMarkBitsClearedAfterSweep(t *testing.T) {
	strs := value.NewTable()
	roots := &rootSet{}
	c := gc.New(roots, strs)

	s := value.Intern(c, strs, "x")
	roots.roots = []value.Value{value.FromObj(s)}

	c.Collect()
	require.False(t, s.Marked(), "sweep must clear the mark bit on survivors")

	// a second collection must not crash or lose the still-rooted object.
	c.Collect()
	again := value.Intern(c, strs, "x")
	assert.Same(t, s, again)
}

func TestStressModeCollectsOnEveryAllocation(t *testing.T) {
	strs := value.NewTable()
	roots := &rootSet{}
	c := gc.New(roots, strs)
	c.Stress = true

	for i := 0; i < 50; i++ {
		value.Intern(c, strs, string(rune('a'+i%26)))
	}

	// each allocation collected the previous, unrooted string, so only the
	// last one interned is still in the table.
	assert.Equal(t, 1, strs.Len())
}
