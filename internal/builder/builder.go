// Package builder implements C3: a per-function instruction
// accumulator that tracks operand-stack depth as it emits, manages
// forward/backward jump labels via a fixup list, and links nested
// function builders into a tree so the compiler can assign function
// indices once, at linkage time, in pre-order DFS (definition) order.
package builder

import (
	"fmt"

	"github.com/svmlang/svmc/internal/opcode"
	"github.com/svmlang/svmc/internal/svm"
)

type fixup struct {
	instrIndex int
	label      int
}

// Builder accumulates one function's instruction stream.
type Builder struct {
	Name      string
	NumParams int
	EnvLevel  int

	code []svm.Instruction

	currentStack int
	maxStack     int

	nextLabel int
	labelPos  map[int]int // label id -> instruction index, once marked
	fixups    []fixup

	Parent   *Builder
	Children []*Builder

	// index is assigned by AssignIndices, valid only after linkage.
	index int32
}

// New returns a top-level (or nested) Builder with no parent.
func New(name string, numParams, envLevel int) *Builder {
	return &Builder{
		Name:      name,
		NumParams: numParams,
		EnvLevel:  envLevel,
		labelPos:  make(map[int]int),
	}
}

// CreateChild produces a builder for a nested function and links it
// into this builder's tree.
func (b *Builder) CreateChild(name string, numParams, envLevel int) *Builder {
	child := New(name, numParams, envLevel)
	child.Parent = b
	b.Children = append(b.Children, child)
	return child
}

func (b *Builder) applyDelta(delta int) {
	b.currentStack += delta
	if b.currentStack > b.maxStack {
		b.maxStack = b.currentStack
	}
}

// Len returns the number of instructions emitted so far.
func (b *Builder) Len() int { return len(b.code) }

// PatchArg1 overwrites the first operand of an already-emitted
// instruction, used to back-fill a NEWC's function index once
// AssignIndices has run over the whole builder tree.
func (b *Builder) PatchArg1(instrIndex int, val int32) {
	b.code[instrIndex].Arg1 = val
}

// EmitNullary appends a zero-operand instruction.
func (b *Builder) EmitNullary(op opcode.Opcode) int {
	return b.emit(op, 0, 0)
}

// EmitUnary appends a one-operand instruction.
func (b *Builder) EmitUnary(op opcode.Opcode, arg1 int32) int {
	return b.emit(op, arg1, 0)
}

// EmitBinary appends a two-operand instruction.
func (b *Builder) EmitBinary(op opcode.Opcode, arg1, arg2 int32) int {
	return b.emit(op, arg1, arg2)
}

// EmitFloat appends an LGCF64 instruction carrying a 64-bit float
// immediate, which does not fit in the int32 Arg1/Arg2 fields.
func (b *Builder) EmitFloat(v float64) int {
	b.code = append(b.code, svm.Instruction{Op: opcode.LGCF64, Imm: v})
	b.applyDelta(opcode.LGCF64.DeltaStack())
	return len(b.code) - 1
}

func (b *Builder) emit(op opcode.Opcode, arg1, arg2 int32) int {
	b.code = append(b.code, svm.Instruction{Op: op, Arg1: arg1, Arg2: arg2})
	b.applyDelta(op.DeltaStack())
	return len(b.code) - 1
}

// EmitCall appends CALL or CALLT with the given argument count.
func (b *Builder) EmitCall(op opcode.Opcode, nArgs int32) int {
	idx := b.emitRaw(op, nArgs, 0)
	b.applyDelta(opcode.CallDeltaStack(op, int(nArgs)))
	return idx
}

// EmitCallPrim appends CALLP or CALLTP with the given primitive index
// and argument count.
func (b *Builder) EmitCallPrim(op opcode.Opcode, primIndex, nArgs int32) int {
	idx := b.emitRaw(op, primIndex, nArgs)
	b.applyDelta(opcode.CallDeltaStack(op, int(nArgs)))
	return idx
}

func (b *Builder) emitRaw(op opcode.Opcode, arg1, arg2 int32) int {
	b.code = append(b.code, svm.Instruction{Op: op, Arg1: arg1, Arg2: arg2})
	return len(b.code) - 1
}

// MarkLabel returns a fresh label id bound to the current instruction
// index.
func (b *Builder) MarkLabel() int {
	id := b.nextLabel
	b.nextLabel++
	b.labelPos[id] = len(b.code)
	return id
}

// MarkLabelAt binds an already-allocated label id to the current
// instruction index (used for forward references created by
// EmitJump before the target is known).
func (b *Builder) MarkLabelAt(label int) {
	b.labelPos[label] = len(b.code)
}

// NewLabel allocates a label id without binding it yet.
func (b *Builder) NewLabel() int {
	id := b.nextLabel
	b.nextLabel++
	return id
}

// EmitJump emits a branch (BR/BRT/BRF) with a placeholder operand,
// remembering the fixup for Build to resolve. If label is -1, a fresh
// unbound label is allocated and returned; the caller must eventually
// call MarkLabelAt on it.
func (b *Builder) EmitJump(op opcode.Opcode, label int) int {
	if label < 0 {
		label = b.NewLabel()
	}
	idx := b.emit(op, 0, 0)
	b.fixups = append(b.fixups, fixup{instrIndex: idx, label: label})
	return label
}

// Build resolves every branch fixup to a relative instruction offset
// (measured from the instruction following the branch) and returns
// the finished function record. It panics if any referenced label was
// never marked, or if the function does not end in a RET* — both are
// programmer errors in the compiler, not user-facing failures.
func (b *Builder) Build() *svm.SVMFunction {
	for _, f := range b.fixups {
		target, ok := b.labelPos[f.label]
		if !ok {
			panic(fmt.Sprintf("builder %q: label %d referenced but never marked", b.Name, f.label))
		}
		rel := int32(target - (f.instrIndex + 1))
		b.code[f.instrIndex].Arg1 = rel
	}
	if len(b.code) == 0 || !b.code[len(b.code)-1].Op.IsReturn() {
		panic(fmt.Sprintf("builder %q: function does not end in a RET*", b.Name))
	}

	return &svm.SVMFunction{
		Index:     b.index,
		Name:      b.Name,
		NumParams: b.NumParams,
		NumLocals: 0, // filled in by the compiler once slot count is known
		MaxStack:  b.maxStack,
		Code:      b.code,
		EnvLevel:  b.EnvLevel,
	}
}

// AssignIndices walks the builder tree rooted at b in pre-order DFS
// (definition order) and assigns each builder a stable function
// index, replacing the source's global mutable counter with a single
// pass performed once all builders exist ("at linkage time").
func AssignIndices(root *Builder) []*Builder {
	var order []*Builder
	var walk func(*Builder)
	walk = func(n *Builder) {
		n.index = int32(len(order))
		order = append(order, n)
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(root)
	return order
}

// Index returns the builder's function index. Only valid after
// AssignIndices has run over its tree.
func (b *Builder) Index() int32 { return b.index }
