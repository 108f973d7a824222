// Package compiler implements C4: it walks the AST (already annotated
// by the resolver with per-identifier coordinates) and lowers it into
// an SVMProgram via the builder package, recording a call graph along
// the way so recursive and memoizable functions can be flagged once
// every function has been compiled. Each block's def statements and
// lambda-valued assignments are predeclared (predeclareBlock) before
// any of their bodies are compiled, mirroring the resolver's own
// declare-then-resolve split, so a call to a sibling function defined
// later in the same block still resolves to a call-graph edge.
package compiler

import (
	"github.com/svmlang/svmc/internal/ast"
	"github.com/svmlang/svmc/internal/builder"
	"github.com/svmlang/svmc/internal/config"
	"github.com/svmlang/svmc/internal/opcode"
	"github.com/svmlang/svmc/internal/resolver"
	"github.com/svmlang/svmc/internal/svm"
)

// Options controls the optional instrumentation passes, resolving the
// design note that cycle detection must only run when explicitly
// enabled, and its output only consulted when memoization is too.
type Options struct {
	EnableRecursionDetection  bool
	EnableMemoization         bool
	MemoizationParamThreshold int
}

// DefaultOptions turns both instrumentation passes on with the
// default parameter threshold.
func DefaultOptions() Options {
	return Options{
		EnableRecursionDetection:  true,
		EnableMemoization:         true,
		MemoizationParamThreshold: config.DefaultMemoizationParamThreshold,
	}
}

// compiler carries the state shared across the whole compilation: the
// resolver's output, the call graph under construction, and the
// slot->builder table used to turn a call's callee coordinate into a
// call-graph edge.
type compiler struct {
	res  *resolver.Result
	opts Options

	// funcSlots[scope][slot] is the builder for the function literal
	// stored in that slot, populated by predeclareBlock before any
	// statement in that scope is compiled.
	funcSlots map[*resolver.Scope]map[int32]*builder.Builder

	// scopeOfBuilder is the inverse of resolver.Result.ScopeOf,
	// keyed by the builder created for that scope's function.
	scopeOfBuilder map[*builder.Builder]*resolver.Scope

	edges map[*builder.Builder]map[*builder.Builder]bool

	isRecursive map[*builder.Builder]bool
	needsMemo   map[*builder.Builder]bool

	pendingNewC []newcFixup

	// predeclared maps a def/lambda-assignment's function node to the
	// child builder predeclareBlock already created for it, so that
	// lowerFunctionLiteral reuses that builder instead of creating a
	// second one. This is what lets a call site earlier in a block
	// resolve a call-graph edge to a sibling function defined later in
	// the same block (mutual recursion), mirroring the resolver's own
	// declare-then-resolve split.
	predeclared map[ast.Node]*builder.Builder

	strings *svm.StringPool
}

// newcFixup records a NEWC instruction emitted before the target
// builder's function index was known; PatchArg1 backfills it once
// builder.AssignIndices has run.
type newcFixup struct {
	instrBuilder *builder.Builder
	instrIndex   int
	target       *builder.Builder
}

// CompileProgram produces a fully relocated SVMProgram from the root
// AST. The AST must already have been resolved by internal/resolver.
func CompileProgram(prog *ast.Program, res *resolver.Result, opts Options) (*svm.SVMProgram, error) {
	c := &compiler{
		res:            res,
		opts:           opts,
		funcSlots:      make(map[*resolver.Scope]map[int32]*builder.Builder),
		scopeOfBuilder: make(map[*builder.Builder]*resolver.Scope),
		edges:          make(map[*builder.Builder]map[*builder.Builder]bool),
		isRecursive:    make(map[*builder.Builder]bool),
		needsMemo:      make(map[*builder.Builder]bool),
		predeclared:    make(map[ast.Node]*builder.Builder),
		strings:        svm.NewStringPool(),
	}

	rootScope := res.ScopeOf[prog]
	entry := builder.New("<entry>", 0, 0)
	c.scopeOfBuilder[entry] = rootScope

	c.predeclareBlock(entry, rootScope, prog.Statements)
	if err := c.compileBlock(entry, rootScope, prog.Statements); err != nil {
		return nil, err
	}
	entry.EmitNullary(opcode.RETG)

	order := builder.AssignIndices(entry)

	for _, f := range c.pendingNewC {
		f.instrBuilder.PatchArg1(f.instrIndex, f.target.Index())
	}

	if opts.EnableRecursionDetection {
		c.detectRecursion(order, opts)
	}

	functions := make([]*svm.SVMFunction, len(order))
	for i, b := range order {
		fn := b.Build()
		optimize(fn)
		if scope, ok := c.scopeOfBuilder[b]; ok {
			fn.NumLocals = scope.NumSlots()
		}
		fn.IsRecursive = c.isRecursive[b]
		fn.NeedsMemoization = c.needsMemo[b]
		functions[i] = fn
	}

	return &svm.SVMProgram{
		Functions: functions,
		Entry:     entry.Index(),
		Strings:   c.strings,
	}, nil
}

func (c *compiler) addEdge(from, to *builder.Builder) {
	if c.edges[from] == nil {
		c.edges[from] = make(map[*builder.Builder]bool)
	}
	c.edges[from][to] = true
}

// funcBuilderAt resolves a coordinate (scope reached from currentScope
// by walking EnvLevel parents, then Index as slot) to the builder
// registered for that slot, if any is known statically.
func (c *compiler) funcBuilderAt(currentScope *resolver.Scope, coord resolver.Coordinate) *builder.Builder {
	owner := currentScope
	for i := int32(0); i < coord.EnvLevel && owner != nil; i++ {
		owner = owner.Parent
	}
	if owner == nil {
		return nil
	}
	slots, ok := c.funcSlots[owner]
	if !ok {
		return nil
	}
	return slots[coord.Index]
}

func (c *compiler) registerFuncSlot(scope *resolver.Scope, slot int32, b *builder.Builder) {
	if c.funcSlots[scope] == nil {
		c.funcSlots[scope] = make(map[int32]*builder.Builder)
	}
	c.funcSlots[scope][slot] = b
}

// predeclareBlock creates and registers a child builder for every
// def statement and lambda-valued assignment declared directly in
// this block (descending into if/while bodies but not into nested
// function bodies), before any of their bodies are compiled. Without
// this, a call site compiled earlier in the block to a function
// defined later in the same block (e.g. mutually recursive siblings)
// would find no builder yet registered for the callee and the
// call-graph edge would be lost. Mirrors resolver.declareBlock.
func (c *compiler) predeclareBlock(b *builder.Builder, scope *resolver.Scope, stmts []ast.Statement) {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.FunctionDef:
			c.predeclareFunc(b, scope, s, s.Name, s.Params)
		case *ast.AssignStatement:
			if lit, ok := s.Value.(*ast.FunctionLiteral); ok {
				c.predeclareFunc(b, scope, lit, s.Target, lit.Params)
			}
		case *ast.IfStatement:
			c.predeclareBlock(b, scope, s.Then)
			c.predeclareBlock(b, scope, s.Else)
		case *ast.WhileStatement:
			c.predeclareBlock(b, scope, s.Body)
		}
	}
}

func (c *compiler) predeclareFunc(b *builder.Builder, scope *resolver.Scope, node ast.Node, target *ast.Identifier, params []*ast.Identifier) {
	child := b.CreateChild(target.Name, len(params), 0)
	c.scopeOfBuilder[child] = c.res.ScopeOf[node]
	c.predeclared[node] = child
	coord := c.res.Coordinates[target]
	c.registerFuncSlot(scope, coord.Index, child)
}
