package svm

// StringPool deduplicates the string constants referenced by LGCS
// instructions: each distinct string is stored once and referred
// to everywhere else by its index.
type StringPool struct {
	values []string
	index  map[string]int32
}

// NewStringPool returns an empty pool.
func NewStringPool() *StringPool {
	return &StringPool{index: make(map[string]int32)}
}

// Intern returns the index of s in the pool, adding it if this is the
// first time s has been seen.
func (p *StringPool) Intern(s string) int32 {
	if i, ok := p.index[s]; ok {
		return i
	}
	i := int32(len(p.values))
	p.values = append(p.values, s)
	p.index[s] = i
	return i
}

// At returns the string at the given index. It panics if the index is
// out of range, matching the container-format invariant that indices
// are only ever produced by Intern or by decoding a well-formed
// binary (§6.2 of the wire format).
func (p *StringPool) At(index int32) string {
	return p.values[index]
}

// Len returns the number of distinct strings in the pool.
func (p *StringPool) Len() int { return len(p.values) }

// All returns the pool's strings in index order. The caller must not
// mutate the returned slice.
func (p *StringPool) All() []string { return p.values }
