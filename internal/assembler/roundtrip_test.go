package assembler_test

import (
	"testing"

	"github.com/svmlang/svmc/internal/assembler"
	"github.com/svmlang/svmc/internal/compiler"
	"github.com/svmlang/svmc/internal/pipeline"
	"github.com/svmlang/svmc/internal/svm"
)

func compileOrFatal(t *testing.T, src string) *svm.SVMProgram {
	t.Helper()
	prog, err := pipeline.CompileSource(src, compiler.DefaultOptions())
	if err != nil {
		t.Fatalf("compile error: %s", err)
	}
	return prog
}

// assertSameShape checks the round-trip property named by the wire
// format: same function count, and per-function (max_stack, env_size,
// num_params, instruction sequence) survives assemble+disassemble.
func assertSameShape(t *testing.T, want, got *svm.SVMProgram) {
	t.Helper()
	if len(want.Functions) != len(got.Functions) {
		t.Fatalf("function count: got %d, want %d", len(got.Functions), len(want.Functions))
	}
	for i := range want.Functions {
		wf, gf := want.Functions[i], got.Functions[i]
		if wf.MaxStack != gf.MaxStack || wf.NumLocals != gf.NumLocals || wf.NumParams != gf.NumParams {
			t.Fatalf("function %d header mismatch: got (%d,%d,%d), want (%d,%d,%d)",
				i, gf.MaxStack, gf.NumLocals, gf.NumParams, wf.MaxStack, wf.NumLocals, wf.NumParams)
		}
		if len(wf.Code) != len(gf.Code) {
			t.Fatalf("function %d: got %d instructions, want %d", i, len(gf.Code), len(wf.Code))
		}
		for j := range wf.Code {
			if wf.Code[j].Op != gf.Code[j].Op {
				t.Fatalf("function %d instr %d: got opcode %v, want %v", i, j, gf.Code[j].Op, wf.Code[j].Op)
			}
		}
	}
}

func TestAssembleDisassembleRoundTrip(t *testing.T) {
	prog := compileOrFatal(t, `
		def greet(name) {
			print("hello", name);
			return name;
		}
		greet("world");
	`)

	data, err := assembler.Assemble(prog)
	if err != nil {
		t.Fatalf("assemble error: %s", err)
	}
	reloaded, err := assembler.Disassemble(data)
	if err != nil {
		t.Fatalf("disassemble error: %s", err)
	}
	assertSameShape(t, prog, reloaded)
}

func TestAssembleDisassembleRoundTripWithClosures(t *testing.T) {
	prog := compileOrFatal(t, `
		def make_adder(x) {
			return lambda(y): x + y;
		}
		add5 = make_adder(5);
		add5(3);
	`)

	data, err := assembler.Assemble(prog)
	if err != nil {
		t.Fatalf("assemble error: %s", err)
	}
	reloaded, err := assembler.Disassemble(data)
	if err != nil {
		t.Fatalf("disassemble error: %s", err)
	}
	assertSameShape(t, prog, reloaded)
}

func TestDisassembleRejectsBadMagic(t *testing.T) {
	data := make([]byte, assembler.HeaderSize)
	if _, err := assembler.Disassemble(data); err == nil {
		t.Fatal("expected an error for a zeroed header")
	}
}

func TestDisassembleRejectsTruncatedInput(t *testing.T) {
	prog := compileOrFatal(t, `def f() { return 1; } f();`)
	data, err := assembler.Assemble(prog)
	if err != nil {
		t.Fatalf("assemble error: %s", err)
	}
	if _, err := assembler.Disassemble(data[:len(data)-2]); err == nil {
		t.Fatal("expected an error for truncated input")
	}
}
