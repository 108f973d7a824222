package resolver

import "github.com/svmlang/svmc/internal/ast"

// declareBlock implements the Declare pass for one function scope:
// collect every assignment target and nested def/lambda name declared
// directly in this scope (if/while bodies are the same scope; nested
// function bodies are not descended into), in source order.
func declareBlock(scope *Scope, stmts []ast.Statement) error {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.AssignStatement:
			scope.declare(s.Target.Name)
		case *ast.FunctionDef:
			scope.declare(s.Name.Name)
		case *ast.GlobalStatement:
			scope.markNonlocal(s.Names)
		case *ast.NonlocalStatement:
			scope.markNonlocal(s.Names)
		case *ast.IfStatement:
			if err := declareBlock(scope, s.Then); err != nil {
				return err
			}
			if err := declareBlock(scope, s.Else); err != nil {
				return err
			}
		case *ast.WhileStatement:
			if err := declareBlock(scope, s.Body); err != nil {
				return err
			}
		}
	}
	return nil
}
