// Package resolver implements C2: given the root AST, it produces the
// environment-map and annotates every identifier use with its
// resolved (kind, index, env_level) coordinate, per two passes per
// function scope (Declare, then Resolve).
package resolver

import (
	"github.com/svmlang/svmc/internal/ast"
	"github.com/svmlang/svmc/internal/primitive"
	"github.com/svmlang/svmc/internal/report"
)

// Kind distinguishes a primitive binding from a user-declared one.
type Kind int

const (
	KindUser Kind = iota
	KindPrimitive
)

// Coordinate is the resolved location of a name reference.
type Coordinate struct {
	Kind     Kind
	Index    int32 // slot in the owning scope, or primitive.Index for KindPrimitive
	EnvLevel int32 // parent hops from the reference to the owning scope
}

// Scope is one function's environment: its declared names (in
// source-declaration order) and a pointer to its enclosing scope.
type Scope struct {
	Parent *Scope
	Node   ast.Node // the FunctionDef/FunctionLiteral/Program this scope belongs to

	names     []string
	slotOf    map[string]int32
	nonlocal  map[string]bool // global/nonlocal-declared: excluded from Declare
	Children  []*Scope
}

func newScope(parent *Scope, node ast.Node) *Scope {
	return &Scope{
		Parent:   parent,
		Node:     node,
		slotOf:   make(map[string]int32),
		nonlocal: make(map[string]bool),
	}
}

// declare assigns a fresh slot to name if it hasn't been declared in
// this scope yet, matching the Declare pass' "duplicates reuse the
// same slot" rule. It is a no-op if name has been marked
// global/nonlocal.
func (s *Scope) declare(name string) {
	if s.nonlocal[name] {
		return
	}
	if _, ok := s.slotOf[name]; ok {
		return
	}
	idx := int32(len(s.names))
	s.names = append(s.names, name)
	s.slotOf[name] = idx
}

func (s *Scope) markNonlocal(names []string) {
	for _, n := range names {
		s.nonlocal[n] = true
		delete(s.slotOf, n)
	}
}

// NumSlots returns the number of local slots this scope owns.
func (s *Scope) NumSlots() int { return len(s.names) }

// lookup searches this scope and its ancestors, innermost first, for
// name. It returns the owning scope, the slot within it, the number
// of parent hops, and whether it was found.
func (s *Scope) lookup(name string) (*Scope, int32, int32, bool) {
	level := int32(0)
	for cur := s; cur != nil; cur = cur.Parent {
		if idx, ok := cur.slotOf[name]; ok {
			return cur, idx, level, true
		}
		level++
	}
	return nil, 0, 0, false
}

// Result is the environment-map produced by Resolve: a coordinate per
// resolved identifier node, plus the per-node scope so the compiler
// can read NumSlots when emitting a function.
type Result struct {
	Coordinates map[*ast.Identifier]Coordinate
	ScopeOf     map[ast.Node]*Scope
}

// Resolve runs C2 over the whole program: builds the scope tree and
// attaches a Coordinate to every identifier use it can resolve.
// Undefined names produce a *report.CompileError.
func Resolve(prog *ast.Program) (*Result, error) {
	r := &Result{
		Coordinates: make(map[*ast.Identifier]Coordinate),
		ScopeOf:     make(map[ast.Node]*Scope),
	}
	root := newScope(nil, prog)
	r.ScopeOf[prog] = root

	if err := declareBlock(root, prog.Statements); err != nil {
		return nil, err
	}
	if err := resolveBlock(r, root, prog.Statements); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Result) resolveIdent(scope *Scope, id *ast.Identifier) error {
	_, idx, level, ok := scope.lookup(id.Name)
	if ok {
		r.Coordinates[id] = Coordinate{Kind: KindUser, Index: idx, EnvLevel: level}
		return nil
	}
	if pidx, ok := primitive.Lookup(id.Name); ok {
		r.Coordinates[id] = Coordinate{Kind: KindPrimitive, Index: int32(pidx)}
		return nil
	}
	return report.NewCompileError(
		report.Position{Line: id.Token.Line, Column: id.Token.Column},
		"undefined name %q", id.Name,
	)
}
