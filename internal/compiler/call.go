package compiler

import (
	"github.com/svmlang/svmc/internal/ast"
	"github.com/svmlang/svmc/internal/builder"
	"github.com/svmlang/svmc/internal/opcode"
	"github.com/svmlang/svmc/internal/primitive"
	"github.com/svmlang/svmc/internal/report"
	"github.com/svmlang/svmc/internal/resolver"
)

// compileFunctionLiteral lowers a lambda into a child builder and
// pushes the resulting closure, without registering it in funcSlots
// (that only happens when the caller can name a slot it is stored
// into, e.g. `f = lambda(x): ...` or `def f(x): ...`).
func (c *compiler) compileFunctionLiteral(b *builder.Builder, scope *resolver.Scope, e *ast.FunctionLiteral) error {
	_, err := c.lowerFunctionLiteral(b, scope, "<lambda>", e.Params, e.Body, e, true)
	return err
}

// lowerFunctionLiteral compiles a function body into a child builder
// and emits the NEWC that closes over it. isLambda distinguishes a
// lambda's body — always the single expression parser.parseFunctionLiteral
// wraps in an ExpressionStatement — from a def's body: a lambda's
// trailing block value is its return value (RETG), while a def falls
// off the end of its block, discards that value, and returns undefined
// via RETU unless an explicit return already ran.
func (c *compiler) lowerFunctionLiteral(b *builder.Builder, scope *resolver.Scope, name string, params []*ast.Identifier, body []ast.Statement, node ast.Node, isLambda bool) (*builder.Builder, error) {
	childScope := c.res.ScopeOf[node]
	child, ok := c.predeclared[node]
	if !ok {
		child = b.CreateChild(name, len(params), 0)
		c.scopeOfBuilder[child] = childScope
	} else {
		delete(c.predeclared, node)
	}

	c.predeclareBlock(child, childScope, body)
	if err := c.compileBlock(child, childScope, body); err != nil {
		return nil, err
	}
	if isLambda {
		child.EmitNullary(opcode.RETG)
	} else {
		// The block rule leaves the body's last statement value on the
		// stack; falling off the end of a function without an explicit
		// return discards it and yields undefined, so the frame's stack
		// is empty when RETU synthesises the return value.
		child.EmitNullary(opcode.POPG)
		child.EmitNullary(opcode.RETU)
	}

	idx := b.EmitUnary(opcode.NEWC, 0)
	c.pendingNewC = append(c.pendingNewC, newcFixup{instrBuilder: b, instrIndex: idx, target: child})
	return child, nil
}

// compileCall lowers a call expression: load the callee (unless it is
// a primitive), push arguments left to right, and emit CALL/CALLP or,
// if e.IsTail was set by compileReturn, the CALLT/CALLTP variant.
func (c *compiler) compileCall(b *builder.Builder, scope *resolver.Scope, e *ast.CallExpr) error {
	callee, ok := e.Callee.(*ast.Identifier)
	if !ok {
		return report.NewCompileError(
			report.Position{Line: e.Token.Line, Column: e.Token.Column},
			"call target must be a name",
		)
	}
	coord := c.res.Coordinates[callee]

	if coord.Kind == resolver.KindPrimitive {
		primIdx := primitive.Index(coord.Index)
		if arity, ok := primitive.Arity(primIdx); ok && arity >= 0 && arity != len(e.Args) {
			return report.NewCompileError(
				report.Position{Line: e.Token.Line, Column: e.Token.Column},
				"primitive %q expects %d arguments, got %d", primitive.Name(primIdx), arity, len(e.Args),
			)
		}
		for _, a := range e.Args {
			if err := c.compileExpr(b, scope, a); err != nil {
				return err
			}
		}
		op := opcode.CALLP
		if e.IsTail {
			op = opcode.CALLTP
		}
		b.EmitCallPrim(op, int32(primIdx), int32(len(e.Args)))
		return nil
	}

	// Track a call-graph edge from the enclosing builder to the
	// statically-known target builder, if any.
	if target := c.funcBuilderAt(scope, coord); target != nil {
		c.addEdge(b, target)
	}

	if coord.EnvLevel == 0 {
		b.EmitUnary(opcode.LDLG, coord.Index)
	} else {
		b.EmitBinary(opcode.LDPG, coord.Index, coord.EnvLevel)
	}
	for _, a := range e.Args {
		if err := c.compileExpr(b, scope, a); err != nil {
			return err
		}
	}
	op := opcode.CALL
	if e.IsTail {
		op = opcode.CALLT
	}
	b.EmitCall(op, int32(len(e.Args)))
	return nil
}
