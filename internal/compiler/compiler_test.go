package compiler

import (
	"testing"

	"github.com/svmlang/svmc/internal/lexer"
	"github.com/svmlang/svmc/internal/opcode"
	"github.com/svmlang/svmc/internal/parser"
	"github.com/svmlang/svmc/internal/resolver"
)

func TestDirectRecursionDetected(t *testing.T) {
	src := `
		def fact(n) {
			if n <= 1 { return 1; } else { return n * fact(n-1); }
		}
		fact(5);
	`
	p := parser.New(lexer.New(src))
	prog := p.ParseProgram()
	res, err := resolver.Resolve(prog)
	if err != nil {
		t.Fatalf("resolve error: %s", err)
	}
	out, err := CompileProgram(prog, res, DefaultOptions())
	if err != nil {
		t.Fatalf("compile error: %s", err)
	}

	var found bool
	for _, fn := range out.Functions {
		if fn.Name == "fact" {
			found = true
			if !fn.IsRecursive {
				t.Error("fact should be flagged is_recursive")
			}
			if !fn.NeedsMemoization {
				t.Error("fact has 1 param, under the default threshold, so it should need memoization")
			}
		}
	}
	if !found {
		t.Fatal("fact function not found in compiled program")
	}
}

func TestMutualRecursionFormsOneSCC(t *testing.T) {
	src := `
		def is_even(n) {
			if n == 0 { return True; } else { return is_odd(n-1); }
		}
		def is_odd(n) {
			if n == 0 { return False; } else { return is_even(n-1); }
		}
		is_even(6);
	`
	p := parser.New(lexer.New(src))
	prog := p.ParseProgram()
	res, err := resolver.Resolve(prog)
	if err != nil {
		t.Fatalf("resolve error: %s", err)
	}
	out, err := CompileProgram(prog, res, DefaultOptions())
	if err != nil {
		t.Fatalf("compile error: %s", err)
	}

	seen := map[string]bool{}
	for _, fn := range out.Functions {
		if fn.Name == "is_even" || fn.Name == "is_odd" {
			seen[fn.Name] = true
			if !fn.IsRecursive {
				t.Errorf("%s should be flagged is_recursive as part of a mutual-recursion cycle", fn.Name)
			}
			if !fn.NeedsMemoization {
				t.Errorf("%s has 1 param, under the default threshold, so it should need memoization", fn.Name)
			}
		}
	}
	if !seen["is_even"] || !seen["is_odd"] {
		t.Fatal("is_even/is_odd not both found in compiled program")
	}
}

func TestNonRecursiveFunctionNotFlagged(t *testing.T) {
	src := `
		def add(x, y) { return x + y; }
		add(1, 2);
	`
	p := parser.New(lexer.New(src))
	prog := p.ParseProgram()
	res, err := resolver.Resolve(prog)
	if err != nil {
		t.Fatalf("resolve error: %s", err)
	}
	out, err := CompileProgram(prog, res, DefaultOptions())
	if err != nil {
		t.Fatalf("compile error: %s", err)
	}
	for _, fn := range out.Functions {
		if fn.Name == "add" && fn.IsRecursive {
			t.Error("add is not recursive and should not be flagged")
		}
	}
}

func TestPeepholeDropsDeadPush(t *testing.T) {
	src := `
		def f(x) {
			pass;
			return x;
		}
		f(9);
	`
	p := parser.New(lexer.New(src))
	prog := p.ParseProgram()
	res, err := resolver.Resolve(prog)
	if err != nil {
		t.Fatalf("resolve error: %s", err)
	}
	out, err := CompileProgram(prog, res, DefaultOptions())
	if err != nil {
		t.Fatalf("compile error: %s", err)
	}
	for _, fn := range out.Functions {
		if fn.Name != "f" {
			continue
		}
		for i, instr := range fn.Code {
			if instr.Op == opcode.LGCU && i+1 < len(fn.Code) && fn.Code[i+1].Op == opcode.POPG {
				t.Errorf("peephole pass should have removed the dead LGCU/POPG pair, found at %d", i)
			}
		}
	}
}
