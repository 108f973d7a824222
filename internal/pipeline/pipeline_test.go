package pipeline

import (
	"strings"
	"testing"

	"github.com/svmlang/svmc/internal/assembler"
	"github.com/svmlang/svmc/internal/compiler"
	"github.com/svmlang/svmc/internal/config"
	"github.com/svmlang/svmc/internal/interpreter"
)

func runSource(t *testing.T, src string) interpreter.Result {
	t.Helper()
	program, err := CompileSource(src, compiler.DefaultOptions())
	if err != nil {
		t.Fatalf("compile error: %s", err)
	}
	it := interpreter.New(program, config.DefaultLimits())
	result, err := it.Run()
	if err != nil {
		t.Fatalf("runtime error: %s", err)
	}
	return result
}

// runSourceViaContainer round-trips through the binary container:
// compile, assemble, disassemble, run. Used where a scenario also
// wants to exercise the binary format end to end.
func runSourceViaContainer(t *testing.T, src string) interpreter.Result {
	t.Helper()
	program, err := CompileSource(src, compiler.DefaultOptions())
	if err != nil {
		t.Fatalf("compile error: %s", err)
	}
	data, err := assembler.Assemble(program)
	if err != nil {
		t.Fatalf("assemble error: %s", err)
	}
	reloaded, err := assembler.Disassemble(data)
	if err != nil {
		t.Fatalf("disassemble error: %s", err)
	}
	it := interpreter.New(reloaded, config.DefaultLimits())
	result, err := it.Run()
	if err != nil {
		t.Fatalf("runtime error: %s", err)
	}
	return result
}

func TestScenarioArithmeticReturn(t *testing.T) {
	result := runSource(t, `
		def add(x, y) {
			return x + y;
		}
		add(5, 3);
	`)
	if result.Value.Kind != interpreter.KindInt || result.Value.Int != 8 {
		t.Fatalf("got %s, want int 8", result.Value.String())
	}
}

func TestScenarioRecursiveFib(t *testing.T) {
	result := runSourceViaContainer(t, `
		def fib(n) {
			if n <= 1 { return n; } else { return fib(n-1) + fib(n-2); }
		}
		fib(10);
	`)
	if result.Value.Kind != interpreter.KindInt || result.Value.Int != 55 {
		t.Fatalf("got %s, want int 55", result.Value.String())
	}
}

func TestScenarioMutualRecursion(t *testing.T) {
	result := runSource(t, `
		def is_even(n) {
			if n == 0 { return True; } else { return is_odd(n-1); }
		}
		def is_odd(n) {
			if n == 0 { return False; } else { return is_even(n-1); }
		}
		is_even(6);
	`)
	if result.Value.Kind != interpreter.KindBool || !result.Value.Bool {
		t.Fatalf("got %s, want True", result.Value.String())
	}
}

func TestScenarioNestedCallsAndPrimitives(t *testing.T) {
	result := runSource(t, `
		def sq(x) { return x*x; }
		def sos(a, b) { return sq(a) + sq(b); }
		sos(3, 4);
	`)
	if result.Value.Kind != interpreter.KindInt || result.Value.Int != 25 {
		t.Fatalf("got %s, want int 25", result.Value.String())
	}

	cases := []struct {
		src  string
		want int64
	}{
		{"abs(-5);", 5},
		{"max(3, 7, 2, 9);", 9},
		{"min(3, 7, 2, 9);", 2},
	}
	for _, c := range cases {
		r := runSource(t, c.src)
		if r.Value.Kind != interpreter.KindInt || r.Value.Int != c.want {
			t.Errorf("%s: got %s, want int %d", c.src, r.Value.String(), c.want)
		}
	}
}

func TestScenarioTailRecursiveCountdown(t *testing.T) {
	result := runSource(t, `
		def loop(n) {
			if n == 0 { return 0; } else { return loop(n-1); }
		}
		loop(100000);
	`)
	if result.Value.Kind != interpreter.KindInt || result.Value.Int != 0 {
		t.Fatalf("got %s, want int 0", result.Value.String())
	}
}

func TestScenarioRuntimeTypeError(t *testing.T) {
	program, err := CompileSource(`1 + "";`, compiler.DefaultOptions())
	if err != nil {
		t.Fatalf("compile error: %s", err)
	}
	it := interpreter.New(program, config.DefaultLimits())
	result, err := it.Run()
	if err == nil {
		t.Fatalf("expected a runtime error, got value %s", result.Value.String())
	}
	if !strings.Contains(err.Error(), "UnsupportedOperandType") {
		t.Fatalf("got error %q, want UnsupportedOperandType", err.Error())
	}
	if result.Stdout != "" {
		t.Fatalf("expected no stdout before the error, got %q", result.Stdout)
	}
}

func TestPrintPrimitive(t *testing.T) {
	result := runSource(t, `print(1, "two", 3);`)
	if result.Stdout != "1 two 3\n" {
		t.Fatalf("got stdout %q", result.Stdout)
	}
}

func TestExitCodeFor(t *testing.T) {
	if got := ExitCodeFor(nil); got != 0 {
		t.Errorf("nil error: got %d, want 0", got)
	}
	if _, err := CompileSource(`def (`, compiler.DefaultOptions()); err != nil {
		if got := ExitCodeFor(err); got != 1 {
			t.Errorf("compile error: got %d, want 1", got)
		}
	} else {
		t.Fatal("expected a compile error for malformed source")
	}
}
