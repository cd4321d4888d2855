// Package intern implements the string interner shared by every symbol and
// key in a Spore VM.
//
// Interning maps an arbitrary byte-string to a small, dense integer id so
// that later comparisons (macro-head lookup, local-vs-global resolution,
// module binding) reduce to integer equality instead of byte comparison.
// Ids are never reused and never reclaimed: once a name has been seen by a
// VM it stays resolvable for the VM's entire lifetime, even if every value
// that once referenced it is gone.
package intern

// ID identifies a single interned byte-string. Ids are stable for the life
// of the Interner that produced them and fit comfortably in 30 bits, which
// is what lets an interned symbol pack its 2-bit quote count alongside an
// id into a single 32-bit word.
type ID uint32

// maxID is the largest id an Interner will hand out. 30 bits leaves two
// bits free for a symbol's quote count.
const maxID = 1<<30 - 1

// Interner owns the byte storage for every name it has seen and maps each
// distinct name to a dense ID.
type Interner struct {
	strings []string
	index   map[string]ID
}

// New returns an empty Interner.
func New() *Interner {
	return &Interner{
		index: make(map[string]ID),
	}
}

// Intern returns the id for s, allocating a new one (and copying s into
// owned storage) if s has not been seen before.
func (in *Interner) Intern(s string) ID {
	if id, ok := in.index[s]; ok {
		return id
	}
	id := ID(len(in.strings))
	if id > maxID {
		panic("intern: interner exhausted (more than 2^30 distinct names)")
	}
	owned := string([]byte(s)) // force a copy, independent of caller's backing array
	in.strings = append(in.strings, owned)
	in.index[owned] = id
	return id
}

// Resolve returns the byte-string for id, or false if id was never handed
// out by this Interner.
func (in *Interner) Resolve(id ID) (string, bool) {
	if int(id) < 0 || int(id) >= len(in.strings) {
		return "", false
	}
	return in.strings[id], true
}

// Len reports how many distinct names have been interned so far.
func (in *Interner) Len() int {
	return len(in.strings)
}
