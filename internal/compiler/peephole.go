package compiler

import (
	"github.com/svmlang/svmc/internal/opcode"
	"github.com/svmlang/svmc/internal/svm"
)

// optimize runs a single dead-code peephole pass over a built function:
// an LGCU or LGCN immediately followed by a POPG produces no observable
// effect (push then immediately discard) and is erased. Since erasing
// instructions shifts every later index, branch targets are recomputed
// from the original absolute targets rather than patched incrementally.
func optimize(fn *svm.SVMFunction) {
	code := fn.Code
	n := len(code)
	if n < 2 {
		return
	}

	deleted := make([]bool, n)
	for i := 0; i < n-1; i++ {
		if deleted[i] {
			continue
		}
		op := code[i].Op
		if (op == opcode.LGCU || op == opcode.LGCN) && code[i+1].Op == opcode.POPG {
			deleted[i] = true
			deleted[i+1] = true
			i++
		}
	}

	// newIndexOf[i] is the position a jump to old index i resolves to
	// in the compacted stream; newIndexOf[n] is the new length.
	newIndexOf := make([]int, n+1)
	count := 0
	for i := 0; i < n; i++ {
		newIndexOf[i] = count
		if !deleted[i] {
			count++
		}
	}
	newIndexOf[n] = count

	newCode := make([]svm.Instruction, 0, count)
	origIndex := make([]int, 0, count)
	for i, instr := range code {
		if deleted[i] {
			continue
		}
		newCode = append(newCode, instr)
		origIndex = append(origIndex, i)
	}

	for j, instr := range newCode {
		if !instr.Op.IsBranch() {
			continue
		}
		oldTarget := origIndex[j] + 1 + int(instr.Arg1)
		newTarget := newIndexOf[oldTarget]
		newCode[j].Arg1 = int32(newTarget - (j + 1))
	}

	fn.Code = newCode
}
