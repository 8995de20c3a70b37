package value

const maxLoad = 0.75

type entry struct {
	key   *String
	value Value
}

// Table is an open-addressed, linear-probe hash table with power-of-two
// capacity. Keys are always interned String references. A deleted entry
// (a tombstone) is represented by a nil key paired with a boolean-true
// value, distinct from a genuine empty slot (nil key, Nil value), so that
// deletion never breaks a probe chain.
//
// The same structure backs the string-interning table, the globals table,
// every class's method table, and every instance's field table.
type Table struct {
	count    int // occupied slots, live entries and tombstones alike (drives the load factor)
	entries  []entry
}

// NewTable returns an empty table.
func NewTable() *Table { return &Table{} }

// Get returns the value for key, and whether it was found.
func (t *Table) Get(key *String) (Value, bool) {
	if t.count == 0 {
		return Value{}, false
	}
	e := t.find(key)
	if e.key == nil {
		return Value{}, false
	}
	return e.value, true
}

// Set inserts or updates key to value, and reports whether key is new to
// the table (as opposed to overwriting an existing live entry).
func (t *Table) Set(key *String, v Value) bool {
	if float64(t.count+1) > float64(len(t.entries))*maxLoad {
		t.grow(growCapacity(len(t.entries)))
	}

	e := t.find(key)
	isNew := e.key == nil
	if isNew && e.value.IsNil() {
		// a brand-new slot, not a reused tombstone
		t.count++
	}
	e.key = key
	e.value = v
	return isNew
}

// Delete removes key, leaving a tombstone so that later probes for other
// keys that once collided with it still find them. It reports whether key
// was present.
func (t *Table) Delete(key *String) bool {
	if t.count == 0 {
		return false
	}
	e := t.find(key)
	if e.key == nil {
		return false
	}
	e.key = nil
	e.value = True // tombstone sentinel, distinguishes from an empty slot
	return true
}

// AddAll copies every live entry of src into t, overwriting existing keys.
func (t *Table) AddAll(src *Table) {
	for i := range src.entries {
		e := &src.entries[i]
		if e.key != nil {
			t.Set(e.key, e.value)
		}
	}
}

// findString looks up a string by content rather than by object identity,
// used exclusively by the interning constructor (Intern) to
// deduplicate on insertion.
func (t *Table) findString(chars string, hash uint32) *String {
	if t.count == 0 || len(t.entries) == 0 {
		return nil
	}
	mask := uint32(len(t.entries) - 1)
	idx := hash & mask
	for {
		e := &t.entries[idx]
		if e.key == nil {
			if e.value.IsNil() {
				return nil
			}
			// tombstone, keep probing
		} else if e.key.Hash == hash && e.key.Chars == chars {
			return e.key
		}
		idx = (idx + 1) & mask
	}
}

// RemoveWhite deletes every entry whose key has not been marked. Called by
// the collector immediately before sweep, the only point at which the
// table may safely be mutated while white objects still exist.
func (t *Table) RemoveWhite() {
	for i := range t.entries {
		e := &t.entries[i]
		if e.key != nil && !e.key.Marked() {
			e.key = nil
			e.value = True
		}
	}
}

// Mark marks every live key and value in the table, as part of a GC trace.
func (t *Table) Mark(mark func(Value)) {
	for i := range t.entries {
		e := &t.entries[i]
		if e.key != nil {
			mark(FromObj(e.key))
			mark(e.value)
		}
	}
}

// Len reports the number of live (non-tombstone) entries.
func (t *Table) Len() int {
	n := 0
	for i := range t.entries {
		if t.entries[i].key != nil {
			n++
		}
	}
	return n
}

// find locates the slot for key: either its live entry, or the slot where
// it should be inserted (a tombstone is preferred over a virgin slot so
// that probe chains stay as short as possible). Callers must ensure the
// table has non-zero capacity.
func (t *Table) find(key *String) *entry {
	mask := uint32(len(t.entries) - 1)
	idx := key.Hash & mask
	var tombstone *entry
	for {
		e := &t.entries[idx]
		switch {
		case e.key == nil:
			if e.value.IsNil() {
				// genuine empty slot
				if tombstone != nil {
					return tombstone
				}
				return e
			}
			if tombstone == nil {
				tombstone = e
			}
		case e.key == key:
			return e
		}
		idx = (idx + 1) & mask
	}
}

func (t *Table) grow(capacity int) {
	newEntries := make([]entry, capacity)
	// tombstones are not carried over: the new table's count starts at 0 and
	// only live entries are reinserted.
	old := t.entries
	t.entries = newEntries
	t.count = 0
	for i := range old {
		e := &old[i]
		if e.key == nil {
			continue
		}
		dest := t.find(e.key)
		dest.key = e.key
		dest.value = e.value
		t.count++
	}
}

func growCapacity(capacity int) int {
	if capacity < 8 {
		return 8
	}
	return capacity * 2
}
