package value_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wisteria-lang/wisteria/lang/value"
)

// fakeAllocator satisfies value.Allocator without running a GC, letting
// these tests allocate Strings directly.
type fakeAllocator struct{}

func (fakeAllocator) Register(value.Obj, uintptr) {}

func TestTableSetGetDelete(t *testing.T) {
	tbl := value.NewTable()
	strs := value.NewTable()
	alloc := fakeAllocator{}

	a := value.Intern(alloc, strs, "alpha")
	b := value.Intern(alloc, strs, "beta")

	assert.True(t, tbl.Set(a, value.Number(1)))
	assert.True(t, tbl.Set(b, value.Number(2)))
	assert.False(t, tbl.Set(a, value.Number(3)), "re-setting an existing key is not new")

	v, ok := tbl.Get(a)
	require.True(t, ok)
	assert.Equal(t, 3.0, v.AsNumber())

	require.True(t, tbl.Delete(a))
	_, ok = tbl.Get(a)
	assert.False(t, ok)

	// the tombstone left by Delete must not break the probe chain to b
	v, ok = tbl.Get(b)
	require.True(t, ok)
	assert.Equal(t, 2.0, v.AsNumber())
}

func TestTableDeleteThenReinsert(t *testing.T) {
	tbl := value.NewTable()
	strs := value.NewTable()
	alloc := fakeAllocator{}

	k := value.Intern(alloc, strs, "k")
	tbl.Set(k, value.Number(1))
	tbl.Delete(k)

	assert.True(t, tbl.Set(k, value.Number(2)), "key was deleted, so re-adding it is new")
	v, ok := tbl.Get(k)
	require.True(t, ok)
	assert.Equal(t, 2.0, v.AsNumber())
	assert.Equal(t, 1, tbl.Len())
}

func TestTableGrowsAndKeepsAllEntries(t *testing.T) {
	tbl := value.NewTable()
	strs := value.NewTable()
	alloc := fakeAllocator{}

	const n = 500
	keys := make([]*value.String, n)
	for i := 0; i < n; i++ {
		keys[i] = value.Intern(alloc, strs, string(rune('a'+i%26))+string(rune('0'+i/26)))
		tbl.Set(keys[i], value.Number(float64(i)))
	}

	assert.Equal(t, n, tbl.Len())
	for i, k := range keys {
		v, ok := tbl.Get(k)
		require.True(t, ok)
		assert.Equal(t, float64(i), v.AsNumber())
	}
}

func TestInterningDeduplicates(t *testing.T) {
	strs := value.NewTable()
	alloc := fakeAllocator{}

	a := value.Intern(alloc, strs, "shared")
	b := value.Intern(alloc, strs, "shared")
	assert.Same(t, a, b)
	assert.True(t, value.Equal(value.FromObj(a), value.FromObj(b)))
}

func TestAddAll(t *testing.T) {
	src := value.NewTable()
	dst := value.NewTable()
	strs := value.NewTable()
	alloc := fakeAllocator{}

	a := value.Intern(alloc, strs, "a")
	b := value.Intern(alloc, strs, "b")
	src.Set(a, value.Number(1))
	src.Set(b, value.Number(2))

	dst.Set(a, value.Number(99))
	dst.AddAll(src)

	v, _ := dst.Get(a)
	assert.Equal(t, 1.0, v.AsNumber(), "AddAll overwrites existing keys")
	v, _ = dst.Get(b)
	assert.Equal(t, 2.0, v.AsNumber())
}
