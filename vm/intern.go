package vm

import "hash/fnv"

// hashString computes the 32-bit FNV-1a hash of s. hash/fnv is the
// standard library's implementation of the exact algorithm the
// interner is specified to use; there is no third-party hashing
// concern here to justify pulling in an external package.
func hashString(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

// InternString canonicalizes s against the intern table, allocating a
// new ObjString only the first time a given byte sequence is seen.
// Two calls with equal content always return the identical *ObjString,
// which is what lets string equality collapse to pointer comparison.
//
// Designs with mutable byte buffers typically split this into two
// entry points: one for a caller-owned buffer that must be copied,
// another for a buffer whose ownership transfers in (and is released
// if the content was already interned). Go strings are immutable
// values with no separate backing buffer to free, so both cases
// collapse to this one function.
func InternString(strings *Table, heap *Heap, chars string) *ObjString {
	hash := hashString(chars)
	if interned := strings.FindString(chars, hash); interned != nil {
		return interned
	}
	s := &ObjString{Chars: chars, Hash: hash}
	heap.track(s)
	strings.Set(s, Nil())
	return s
}
