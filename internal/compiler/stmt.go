package compiler

import (
	"github.com/svmlang/svmc/internal/ast"
	"github.com/svmlang/svmc/internal/builder"
	"github.com/svmlang/svmc/internal/opcode"
	"github.com/svmlang/svmc/internal/report"
	"github.com/svmlang/svmc/internal/resolver"
)

// compileBlock implements the block rule: every statement leaves
// exactly one value on the operand stack; N-1 POPG instructions are
// emitted after the first N-1 statements. An empty block emits a
// single LGCU.
func (c *compiler) compileBlock(b *builder.Builder, scope *resolver.Scope, stmts []ast.Statement) error {
	if len(stmts) == 0 {
		b.EmitNullary(opcode.LGCU)
		return nil
	}
	for i, stmt := range stmts {
		if err := c.compileStatement(b, scope, stmt); err != nil {
			return err
		}
		if i != len(stmts)-1 {
			b.EmitNullary(opcode.POPG)
		}
	}
	return nil
}

func (c *compiler) compileStatement(b *builder.Builder, scope *resolver.Scope, stmt ast.Statement) error {
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		return c.compileExpr(b, scope, s.Expr)

	case *ast.AssignStatement:
		coord := c.res.Coordinates[s.Target]
		if lit, ok := s.Value.(*ast.FunctionLiteral); ok {
			// predeclareBlock already created and registered this
			// lambda's builder before this block's statements were
			// compiled; lowerFunctionLiteral reuses it.
			if _, err := c.lowerFunctionLiteral(b, scope, s.Target.Name, lit.Params, lit.Body, lit, true); err != nil {
				return err
			}
		} else if err := c.compileExpr(b, scope, s.Value); err != nil {
			return err
		}
		if coord.EnvLevel == 0 {
			b.EmitUnary(opcode.STLG, coord.Index)
		} else {
			b.EmitBinary(opcode.STPG, coord.Index, coord.EnvLevel)
		}
		b.EmitNullary(opcode.LGCU)
		return nil

	case *ast.FunctionDef:
		coord := c.res.Coordinates[s.Name]
		// predeclareBlock already created and registered this def's
		// builder before this block's statements were compiled;
		// lowerFunctionLiteral reuses it.
		if _, err := c.lowerFunctionLiteral(b, scope, s.Name.Name, s.Params, s.Body, s, false); err != nil {
			return err
		}

		if coord.EnvLevel == 0 {
			b.EmitUnary(opcode.STLG, coord.Index)
		} else {
			b.EmitBinary(opcode.STPG, coord.Index, coord.EnvLevel)
		}
		b.EmitNullary(opcode.LGCU)
		return nil

	case *ast.IfStatement:
		return c.compileIf(b, scope, s.Cond, s.Then, s.Else)

	case *ast.WhileStatement:
		loop := b.MarkLabel()
		if err := c.compileExpr(b, scope, s.Cond); err != nil {
			return err
		}
		end := b.EmitJump(opcode.BRF, -1)
		if err := c.compileBlock(b, scope, s.Body); err != nil {
			return err
		}
		b.EmitNullary(opcode.POPG) // discard body's block value; loop is a statement
		b.EmitJump(opcode.BR, loop)
		b.MarkLabelAt(end)
		b.EmitNullary(opcode.LGCU)
		return nil

	case *ast.ReturnStatement:
		return c.compileReturn(b, scope, s)

	case *ast.PassStatement:
		b.EmitNullary(opcode.LGCU)
		return nil

	case *ast.GlobalStatement, *ast.NonlocalStatement:
		b.EmitNullary(opcode.LGCU)
		return nil

	default:
		return report.NewCompileError(
			report.Position{Line: stmt.GetToken().Line, Column: stmt.GetToken().Column},
			"unsupported statement construct",
		)
	}
}

func (c *compiler) compileIf(b *builder.Builder, scope *resolver.Scope, cond ast.Expression, then, els []ast.Statement) error {
	return c.compileConditional(b, scope, cond,
		func() error { return c.compileBlock(b, scope, then) },
		func() error {
			if len(els) == 0 {
				b.EmitNullary(opcode.LGCU)
				return nil
			}
			return c.compileBlock(b, scope, els)
		},
	)
}

// compileReturn lowers a return statement. A bare `return` synthesises
// RETU. If the returned value is itself a call expression, that call
// is marked as a tail call: CALLT/CALLTP is emitted instead of CALL/
// CALLP, then RETG pops its single result. For CALLT the RETG runs
// only when the callee's memo cache already holds a result for the
// arguments: the interpreter then pushes the cached value onto the
// current frame instead of reusing it. Otherwise the frame is reused
// in place and pc is reset before the RETG is fetched. It also keeps
// every function's code ending in a RET*, matching the invariant
// checked by Builder.Build. For CALLTP it is load-bearing:
// primitives never touch frames, so the RETG is what actually returns
// the primitive's result from the current frame.
func (c *compiler) compileReturn(b *builder.Builder, scope *resolver.Scope, s *ast.ReturnStatement) error {
	if s.Value == nil {
		b.EmitNullary(opcode.RETU)
		return nil
	}
	if call, ok := s.Value.(*ast.CallExpr); ok {
		call.IsTail = true
		if err := c.compileCall(b, scope, call); err != nil {
			return err
		}
		b.EmitNullary(opcode.RETG)
		return nil
	}
	if err := c.compileExpr(b, scope, s.Value); err != nil {
		return err
	}
	b.EmitNullary(opcode.RETG)
	return nil
}
