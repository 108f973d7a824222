// Package primitive holds the fixed index<->name binding table
// consulted by C2 (resolving a bare global name to a primitive) and
// C6 (dispatching CALLP/CALLTP). The table itself never changes at
// runtime; it is not user-extensible.
package primitive

// Index identifies one primitive in the fixed table.
type Index int32

const (
	Print   Index = 5
	Abs     Index = 10
	Min     Index = 20
	Max     Index = 21
	Pow     Index = 22
	Sqrt    Index = 23
	Floor   Index = 24
	Ceil    Index = 25
	Round   Index = 26
)

// entry records a primitive's name and arity. Arity -1 means
// variadic.
type entry struct {
	name  string
	arity int
}

var byIndex = map[Index]entry{
	Print: {"print", -1},
	Abs:   {"abs", 1},
	Min:   {"min", -1},
	Max:   {"max", -1},
	Pow:   {"pow", 2},
	Sqrt:  {"sqrt", 1},
	Floor: {"floor", 1},
	Ceil:  {"ceil", 1},
	Round: {"round", 1},
}

var byName map[string]Index

func init() {
	byName = make(map[string]Index, len(byIndex))
	for idx, e := range byIndex {
		byName[e.name] = idx
	}
	// display is an alias for print, bound to the same index.
	byName["display"] = Print
}

// Lookup returns the primitive index bound to name and whether it
// exists.
func Lookup(name string) (Index, bool) {
	idx, ok := byName[name]
	return idx, ok
}

// Name returns the primitive's name, or "" if idx is not a known
// primitive.
func Name(idx Index) string {
	return byIndex[idx].name
}

// Arity returns the primitive's fixed argument count, or -1 if it is
// variadic. The second return value is false for an unknown index.
func Arity(idx Index) (int, bool) {
	e, ok := byIndex[idx]
	if !ok {
		return 0, false
	}
	return e.arity, true
}

// Known reports whether idx names a primitive in the table.
func Known(idx Index) bool {
	_, ok := byIndex[idx]
	return ok
}
