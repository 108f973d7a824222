package assembler

import (
	"fmt"
	"strings"

	"github.com/svmlang/svmc/internal/opcode"
	"github.com/svmlang/svmc/internal/svm"
)

// DisassembleText renders a program as a human-readable listing, one
// function per block, used by `svmc -f text` and by tests that want
// to eyeball the compiler's output without a hex dump.
func DisassembleText(prog *svm.SVMProgram) string {
	var sb strings.Builder
	for _, fn := range prog.Functions {
		name := fn.Name
		if name == "" {
			name = fmt.Sprintf("fn%d", fn.Index)
		}
		fmt.Fprintf(&sb, "function %d %q (params=%d locals=%d max_stack=%d recursive=%v memo=%v)\n",
			fn.Index, name, fn.NumParams, fn.NumLocals, fn.MaxStack, fn.IsRecursive, fn.NeedsMemoization)
		if int(prog.Entry) == int(fn.Index) {
			sb.WriteString("  ; entry\n")
		}
		for i, instr := range fn.Code {
			fmt.Fprintf(&sb, "  %4d  %s", i, instr.Op.String())
			writeOperands(&sb, instr, prog)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func writeOperands(sb *strings.Builder, instr svm.Instruction, prog *svm.SVMProgram) {
	switch instr.Op {
	case opcode.LGCI:
		fmt.Fprintf(sb, " %d", instr.Arg1)
	case opcode.LGCF64:
		fmt.Fprintf(sb, " %g", instr.Imm)
	case opcode.LGCS:
		fmt.Fprintf(sb, " %q", prog.Strings.At(instr.Arg1))
	case opcode.NEWC:
		fmt.Fprintf(sb, " fn%d", instr.Arg1)
	case opcode.LDLG, opcode.STLG, opcode.CALL, opcode.CALLT:
		fmt.Fprintf(sb, " %d", instr.Arg1)
	case opcode.LDPG, opcode.STPG:
		fmt.Fprintf(sb, " slot=%d level=%d", instr.Arg1, instr.Arg2)
	case opcode.CALLP, opcode.CALLTP:
		fmt.Fprintf(sb, " prim=%d args=%d", instr.Arg1, instr.Arg2)
	case opcode.BR, opcode.BRT, opcode.BRF:
		fmt.Fprintf(sb, " %+d", instr.Arg1)
	}
}
