package compiler

import (
	"math"

	"github.com/svmlang/svmc/internal/ast"
	"github.com/svmlang/svmc/internal/builder"
	"github.com/svmlang/svmc/internal/opcode"
	"github.com/svmlang/svmc/internal/report"
	"github.com/svmlang/svmc/internal/resolver"
)

var binaryOps = map[string]opcode.Opcode{
	"+":  opcode.ADDG,
	"-":  opcode.SUBG,
	"*":  opcode.MULG,
	"/":  opcode.DIVG,
	"%":  opcode.MODG,
	"<":  opcode.LTG,
	">":  opcode.GTG,
	"<=": opcode.LEG,
	">=": opcode.GEG,
	"==": opcode.EQG,
	"!=": opcode.NEQG,
}

func (c *compiler) compileExpr(b *builder.Builder, scope *resolver.Scope, expr ast.Expression) error {
	switch e := expr.(type) {
	case *ast.IntLiteral:
		if e.Value >= math.MinInt32 && e.Value <= math.MaxInt32 {
			b.EmitUnary(opcode.LGCI, int32(e.Value))
		} else {
			b.EmitFloat(float64(e.Value))
		}
		return nil

	case *ast.FloatLiteral:
		b.EmitFloat(e.Value)
		return nil

	case *ast.BoolLiteral:
		if e.Value {
			b.EmitNullary(opcode.LGCB1)
		} else {
			b.EmitNullary(opcode.LGCB0)
		}
		return nil

	case *ast.NoneLiteral:
		b.EmitNullary(opcode.LGCN)
		return nil

	case *ast.StringLiteral:
		idx := c.strings.Intern(e.Value)
		b.EmitUnary(opcode.LGCS, idx)
		return nil

	case *ast.Identifier:
		coord := c.res.Coordinates[e]
		if coord.Kind == resolver.KindPrimitive {
			return report.NewCompileError(
				report.Position{Line: e.Token.Line, Column: e.Token.Column},
				"primitive %q must be called, not read as a value", e.Name,
			)
		}
		if coord.EnvLevel == 0 {
			b.EmitUnary(opcode.LDLG, coord.Index)
		} else {
			b.EmitBinary(opcode.LDPG, coord.Index, coord.EnvLevel)
		}
		return nil

	case *ast.UnaryExpr:
		if err := c.compileExpr(b, scope, e.Right); err != nil {
			return err
		}
		switch e.Op {
		case "-":
			b.EmitNullary(opcode.NEGG)
		case "not":
			b.EmitNullary(opcode.NOTG)
		default:
			return report.NewCompileError(
				report.Position{Line: e.Token.Line, Column: e.Token.Column},
				"unsupported unary operator %q", e.Op,
			)
		}
		return nil

	case *ast.BinaryExpr:
		return c.compileBinary(b, scope, e)

	case *ast.CallExpr:
		return c.compileCall(b, scope, e)

	case *ast.FunctionLiteral:
		return c.compileFunctionLiteral(b, scope, e)

	case *ast.ConditionalExpr:
		return c.compileConditional(b, scope, e.Cond,
			func() error { return c.compileExpr(b, scope, e.Then) },
			func() error { return c.compileExpr(b, scope, e.Else) },
		)

	default:
		return report.NewCompileError(
			report.Position{Line: expr.GetToken().Line, Column: expr.GetToken().Column},
			"unsupported expression construct",
		)
	}
}

// compileConditional lowers the shared "cond ? then-arm : else-arm"
// shape: compile cond, branch over the then-arm when it's false, jump
// past the else-arm once the then-arm has run. if/else statements,
// the ternary expression, and "and"/"or" (below) all share this one
// lowering rather than each emitting their own BRF/BR pair.
func (c *compiler) compileConditional(b *builder.Builder, scope *resolver.Scope, cond ast.Expression, thenArm, elseArm func() error) error {
	if err := c.compileExpr(b, scope, cond); err != nil {
		return err
	}
	elseLabel := b.EmitJump(opcode.BRF, -1)
	if err := thenArm(); err != nil {
		return err
	}
	endLabel := b.EmitJump(opcode.BR, -1)
	b.MarkLabelAt(elseLabel)
	if err := elseArm(); err != nil {
		return err
	}
	b.MarkLabelAt(endLabel)
	return nil
}

func (c *compiler) compileBinary(b *builder.Builder, scope *resolver.Scope, e *ast.BinaryExpr) error {
	switch e.Op {
	case "and":
		// a and b == a ? b : false
		return c.compileConditional(b, scope, e.Left,
			func() error { return c.compileExpr(b, scope, e.Right) },
			func() error { b.EmitNullary(opcode.LGCB0); return nil },
		)
	case "or":
		// a or b == a ? true : b
		return c.compileConditional(b, scope, e.Left,
			func() error { b.EmitNullary(opcode.LGCB1); return nil },
			func() error { return c.compileExpr(b, scope, e.Right) },
		)
	}

	op, ok := binaryOps[e.Op]
	if !ok {
		return report.NewCompileError(
			report.Position{Line: e.Token.Line, Column: e.Token.Column},
			"unsupported binary operator %q", e.Op,
		)
	}
	if err := c.compileExpr(b, scope, e.Left); err != nil {
		return err
	}
	if err := c.compileExpr(b, scope, e.Right); err != nil {
		return err
	}
	b.EmitNullary(op)
	return nil
}

