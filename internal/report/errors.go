// Package report defines the three disjoint error kinds raised by the
// compiler, assembler and interpreter: CompileError, AssembleError
// (and its mirror DisassembleError) and RuntimeError. Each carries
// enough context to identify where and why it happened without the
// caller needing to inspect the underlying Go error chain.
package report

import "fmt"

// Position is a source location, attached to every CompileError.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// CompileError is raised by the resolver and compiler: undefined
// names, duplicate declarations in conflicting kinds, unsupported
// syntax, unsupported literals. Non-recoverable; surfaces to the
// embedder.
type CompileError struct {
	Pos     Position
	Message string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile error at %s: %s", e.Pos, e.Message)
}

// NewCompileError builds a CompileError at the given position.
func NewCompileError(pos Position, format string, args ...any) *CompileError {
	return &CompileError{Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// AssembleError is raised by the assembler: reserved opcode emitted,
// unresolved string or function reference, or any other structural
// problem discovered while serialising an SVMProgram.
type AssembleError struct {
	Message string
}

func (e *AssembleError) Error() string { return "assemble error: " + e.Message }

// NewAssembleError builds an AssembleError.
func NewAssembleError(format string, args ...any) *AssembleError {
	return &AssembleError{Message: fmt.Sprintf(format, args...)}
}

// DisassembleError is raised by the disassembler: bad magic,
// unsupported version, unknown opcode, truncated instruction,
// unresolved string offset, or a misaligned function.
type DisassembleError struct {
	Offset  int
	Message string
}

func (e *DisassembleError) Error() string {
	return fmt.Sprintf("disassemble error at offset 0x%x: %s", e.Offset, e.Message)
}

// NewDisassembleError builds a DisassembleError at the given byte
// offset into the container.
func NewDisassembleError(offset int, format string, args ...any) *DisassembleError {
	return &DisassembleError{Offset: offset, Message: fmt.Sprintf(format, args...)}
}

// RuntimeErrorTag distinguishes the fatal runtime error kinds named
// in the error handling design: type mismatches, division/modulo by
// zero, arity mismatch, calling a non-closure, array bounds, stack
// overflow, call-depth exceeded, instruction-limit exceeded and
// unknown primitive.
type RuntimeErrorTag string

const (
	UnsupportedOperandType RuntimeErrorTag = "UnsupportedOperandType"
	DivisionByZero         RuntimeErrorTag = "DivisionByZero"
	ModuloByZero           RuntimeErrorTag = "ModuloByZero"
	ArityMismatch          RuntimeErrorTag = "ArityMismatch"
	NotCallable            RuntimeErrorTag = "NotCallable"
	IndexOutOfBounds       RuntimeErrorTag = "IndexOutOfBounds"
	StackOverflow          RuntimeErrorTag = "StackOverflow"
	CallDepthExceeded      RuntimeErrorTag = "CallDepthExceeded"
	InstructionLimitExceeded RuntimeErrorTag = "InstructionLimitExceeded"
	UnknownPrimitive       RuntimeErrorTag = "UnknownPrimitive"
	UnknownOpcode          RuntimeErrorTag = "UnknownOpcode"
	InvalidSlot            RuntimeErrorTag = "InvalidSlot"
)

// RuntimeError is raised by the interpreter. It is non-recoverable
// within the current run: the interpreter halts with this error as
// the result of execution.
type RuntimeError struct {
	Tag     RuntimeErrorTag
	Message string
	// Limit/Value are populated for the three fuel-cap tags, so the
	// embedder can report which cap was hit and by how much.
	Limit int
	Value int
}

func (e *RuntimeError) Error() string {
	if e.Limit != 0 || e.Value != 0 {
		return fmt.Sprintf("runtime error [%s]: %s (limit=%d, value=%d)", e.Tag, e.Message, e.Limit, e.Value)
	}
	return fmt.Sprintf("runtime error [%s]: %s", e.Tag, e.Message)
}

// NewRuntimeError builds a RuntimeError with no cap accounting.
func NewRuntimeError(tag RuntimeErrorTag, format string, args ...any) *RuntimeError {
	return &RuntimeError{Tag: tag, Message: fmt.Sprintf(format, args...)}
}

// NewLimitError builds a RuntimeError for one of the three fuel caps.
func NewLimitError(tag RuntimeErrorTag, capName string, limit, value int) *RuntimeError {
	return &RuntimeError{
		Tag:     tag,
		Message: fmt.Sprintf("exceeded %s", capName),
		Limit:   limit,
		Value:   value,
	}
}
