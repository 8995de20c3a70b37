package value

import "unsafe"

// String is an interned, immutable sequence of bytes. At most one live
// String object exists per distinct byte sequence; reference equality
// therefore implies content equality.
type String struct {
	Header
	Chars string
	Hash  uint32
}

func (s *String) String() string  { return s.Chars }
func (s *String) Size() uintptr   { return unsafe.Sizeof(*s) + uintptr(len(s.Chars)) }

// hashString is the FNV-1a variant used by the reference implementation.
func hashString(s string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}

// Intern returns the canonical String object for chars, allocating and
// registering a new one via alloc only if chars has never been seen by
// table before. table is the VM's interning table (see Table in table.go);
// it is the single source of truth for string identity.
func Intern(alloc Allocator, table *Table, chars string) *String {
	h := hashString(chars)
	if s := table.findString(chars, h); s != nil {
		return s
	}

	s := &String{Chars: chars, Hash: h}
	s.kind = ObjKindString
	alloc.Register(s, s.Size())

	// The interning table holds the string as both key and a dummy Nil
	// value; see table.go and the specification's §3 Hash table note that
	// the interning table is the same structure used for globals etc.
	table.Set(s, Nil)
	return s
}
