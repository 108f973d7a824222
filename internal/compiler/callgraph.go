package compiler

import "github.com/svmlang/svmc/internal/builder"

// detectRecursion runs Tarjan's strongly-connected-components algorithm
// over the call graph collected while compiling (c.edges), marking
// isRecursive for every builder that calls itself directly or
// transitively. When memoization is also enabled, needsMemo is set for
// every recursive builder whose arity is within the configured
// threshold.
func (c *compiler) detectRecursion(order []*builder.Builder, opts Options) {
	t := &tarjan{
		compiler: c,
		index:    make(map[*builder.Builder]int),
		low:      make(map[*builder.Builder]int),
		onStack:  make(map[*builder.Builder]bool),
	}
	for _, b := range order {
		if _, seen := t.index[b]; !seen {
			t.strongConnect(b)
		}
	}

	if !opts.EnableMemoization {
		return
	}
	for _, b := range order {
		if c.isRecursive[b] && b.NumParams <= opts.MemoizationParamThreshold {
			c.needsMemo[b] = true
		}
	}
}

// tarjan holds the algorithm's working state across strongConnect calls.
type tarjan struct {
	compiler *compiler
	counter  int
	index    map[*builder.Builder]int
	low      map[*builder.Builder]int
	onStack  map[*builder.Builder]bool
	stack    []*builder.Builder
}

func (t *tarjan) strongConnect(v *builder.Builder) {
	t.index[v] = t.counter
	t.low[v] = t.counter
	t.counter++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	for w := range t.compiler.edges[v] {
		if _, seen := t.index[w]; !seen {
			t.strongConnect(w)
			if t.low[w] < t.low[v] {
				t.low[v] = t.low[w]
			}
		} else if t.onStack[w] {
			if t.index[w] < t.low[v] {
				t.low[v] = t.index[w]
			}
		}
	}

	if t.low[v] != t.index[v] {
		return
	}

	var scc []*builder.Builder
	for {
		n := len(t.stack) - 1
		w := t.stack[n]
		t.stack = t.stack[:n]
		t.onStack[w] = false
		scc = append(scc, w)
		if w == v {
			break
		}
	}

	if len(scc) > 1 {
		for _, b := range scc {
			t.compiler.isRecursive[b] = true
		}
		return
	}

	// Singleton component: recursive only if it has a direct self-loop.
	if t.compiler.edges[v][v] {
		t.compiler.isRecursive[v] = true
	}
}
