// Package svm holds the data model that flows between the resolver,
// builder, compiler, assembler and interpreter: instructions, function
// records and whole programs. It has no control flow of its own and
// depends on nothing else in this module, so every other package can
// import it without creating a cycle.
package svm

import "github.com/svmlang/svmc/internal/opcode"

// Instruction is one bytecode instruction: an opcode plus up to two
// operands. Not every opcode uses both operands; unused operands are
// zero.
type Instruction struct {
	Op   opcode.Opcode
	Arg1 int32
	Arg2 int32
	// Imm carries a full 64-bit float immediate for LGCF64, which
	// does not fit in Arg1/Arg2. Every other opcode leaves it zero.
	Imm float64
}

// SVMFunction is a single compiled function: its instruction stream,
// its arity, the number of local variable slots it needs, and the
// metadata computed by the resolver and compiler.
type SVMFunction struct {
	Index int32 // pre-order index assigned at linkage time

	Name       string
	NumParams  int
	NumLocals  int // includes params
	MaxStack   int
	Code       []Instruction

	IsRecursive      bool // calls itself, directly or through a cycle
	NeedsMemoization bool // IsRecursive && NumParams <= memoization threshold

	// EnvLevel is copied from the builder that produced this function.
	// The compiler creates every builder with 0, so it is 0 for nested
	// functions too; nothing in the assembler or interpreter reads it.
	EnvLevel int
}

// SVMProgram is a whole compiled unit: every function, indexed by the
// pre-order DFS numbering the builder assigns at linkage time, plus
// the entry point and the deduplicated string pool referenced by
// LGCS instructions.
type SVMProgram struct {
	Functions []*SVMFunction
	Entry     int32
	Strings   *StringPool
}

// FunctionAt returns the function with the given index, or nil if the
// index is out of range.
func (p *SVMProgram) FunctionAt(index int32) *SVMFunction {
	if index < 0 || int(index) >= len(p.Functions) {
		return nil
	}
	return p.Functions[index]
}
