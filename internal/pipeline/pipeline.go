// Package pipeline wires the front end and C2-C4 together: source
// text in, a compiled SVMProgram out. It exists so cmd/svmc and
// cmd/svmi share exactly one lex-parse-resolve-compile path instead of
// each reimplementing it.
package pipeline

import (
	"github.com/svmlang/svmc/internal/compiler"
	"github.com/svmlang/svmc/internal/lexer"
	"github.com/svmlang/svmc/internal/parser"
	"github.com/svmlang/svmc/internal/report"
	"github.com/svmlang/svmc/internal/resolver"
	"github.com/svmlang/svmc/internal/svm"
)

// CompileSource lexes, parses, resolves and compiles src, returning
// the first error encountered. Parse errors and resolver/compiler
// errors both surface as *report.CompileError, matching spec.md §7's
// "CompileError raised by C2/C4" (a parse failure is folded into the
// same non-recoverable category since there is no separate parse-
// error kind in the three-kind error design).
func CompileSource(src string, opts compiler.Options) (*svm.SVMProgram, error) {
	p := parser.New(lexer.New(src))
	prog := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		return nil, errs[0]
	}

	res, err := resolver.Resolve(prog)
	if err != nil {
		return nil, err
	}

	program, err := compiler.CompileProgram(prog, res, opts)
	if err != nil {
		return nil, err
	}
	return program, nil
}

// ExitCodeFor classifies an error into the CLI exit-code contract of
// spec.md §6.1.
func ExitCodeFor(err error) int {
	switch err.(type) {
	case nil:
		return 0
	case *report.CompileError, *report.AssembleError, *report.DisassembleError:
		return 1
	case *report.RuntimeError:
		return 2
	default:
		return 3
	}
}
