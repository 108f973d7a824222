package resolver

import (
	"github.com/svmlang/svmc/internal/ast"
	"github.com/svmlang/svmc/internal/report"
)

func resolveBlock(r *Result, scope *Scope, stmts []ast.Statement) error {
	for _, stmt := range stmts {
		if err := resolveStatement(r, scope, stmt); err != nil {
			return err
		}
	}
	return nil
}

func resolveStatement(r *Result, scope *Scope, stmt ast.Statement) error {
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		return resolveExpr(r, scope, s.Expr)

	case *ast.AssignStatement:
		if err := resolveExpr(r, scope, s.Value); err != nil {
			return err
		}
		return resolveTarget(r, scope, s.Target)

	case *ast.FunctionDef:
		if err := resolveTarget(r, scope, s.Name); err != nil {
			return err
		}
		return resolveFunctionBody(r, scope, s, s.Params, s.Body)

	case *ast.IfStatement:
		if err := resolveExpr(r, scope, s.Cond); err != nil {
			return err
		}
		if err := resolveBlock(r, scope, s.Then); err != nil {
			return err
		}
		return resolveBlock(r, scope, s.Else)

	case *ast.WhileStatement:
		if err := resolveExpr(r, scope, s.Cond); err != nil {
			return err
		}
		return resolveBlock(r, scope, s.Body)

	case *ast.ReturnStatement:
		if s.Value == nil {
			return nil
		}
		return resolveExpr(r, scope, s.Value)

	case *ast.PassStatement, *ast.GlobalStatement, *ast.NonlocalStatement:
		return nil

	default:
		return report.NewCompileError(
			report.Position{Line: stmt.GetToken().Line, Column: stmt.GetToken().Column},
			"unsupported statement kind",
		)
	}
}

func resolveTarget(r *Result, scope *Scope, target *ast.Identifier) error {
	_, idx, level, ok := scope.lookup(target.Name)
	if !ok {
		return report.NewCompileError(
			report.Position{Line: target.Token.Line, Column: target.Token.Column},
			"undefined name %q", target.Name,
		)
	}
	r.Coordinates[target] = Coordinate{Kind: KindUser, Index: idx, EnvLevel: level}
	return nil
}

func resolveExpr(r *Result, scope *Scope, expr ast.Expression) error {
	switch e := expr.(type) {
	case nil:
		return nil
	case *ast.IntLiteral, *ast.FloatLiteral, *ast.StringLiteral, *ast.BoolLiteral, *ast.NoneLiteral:
		return nil
	case *ast.Identifier:
		return r.resolveIdent(scope, e)
	case *ast.UnaryExpr:
		return resolveExpr(r, scope, e.Right)
	case *ast.BinaryExpr:
		if err := resolveExpr(r, scope, e.Left); err != nil {
			return err
		}
		return resolveExpr(r, scope, e.Right)
	case *ast.CallExpr:
		if err := resolveExpr(r, scope, e.Callee); err != nil {
			return err
		}
		for _, a := range e.Args {
			if err := resolveExpr(r, scope, a); err != nil {
				return err
			}
		}
		return nil
	case *ast.FunctionLiteral:
		return resolveFunctionBody(r, scope, e, e.Params, e.Body)
	case *ast.ConditionalExpr:
		if err := resolveExpr(r, scope, e.Cond); err != nil {
			return err
		}
		if err := resolveExpr(r, scope, e.Then); err != nil {
			return err
		}
		return resolveExpr(r, scope, e.Else)
	default:
		return report.NewCompileError(
			report.Position{Line: expr.GetToken().Line, Column: expr.GetToken().Column},
			"unsupported expression kind",
		)
	}
}

// resolveFunctionBody creates a child scope for a def/lambda, declares
// its parameters as slots 0..n-1, runs Declare then Resolve on its
// body, and links the child into the parent's scope tree.
func resolveFunctionBody(r *Result, parent *Scope, node ast.Node, params []*ast.Identifier, body []ast.Statement) error {
	child := newScope(parent, node)
	for _, p := range params {
		child.declare(p.Name)
	}
	parent.Children = append(parent.Children, child)
	r.ScopeOf[node] = child

	if err := declareBlock(child, body); err != nil {
		return err
	}
	return resolveBlock(r, child, body)
}
