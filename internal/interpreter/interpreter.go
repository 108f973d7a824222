package interpreter

import (
	"strings"

	"github.com/svmlang/svmc/internal/config"
	"github.com/svmlang/svmc/internal/opcode"
	"github.com/svmlang/svmc/internal/primitive"
	"github.com/svmlang/svmc/internal/report"
	"github.com/svmlang/svmc/internal/svm"
)

// Frame is one call frame: the closure being executed, its program
// counter, its environment, its own operand stack, and the arguments
// it was called with (kept around only so a memoized function can
// record its result against them on return).
type Frame struct {
	Closure *Closure
	PC      int
	Env     *Env
	Stack   []Value
	Args    []Value
}

func (f *Frame) push(v Value) { f.Stack = append(f.Stack, v) }

func (f *Frame) pop() Value {
	n := len(f.Stack) - 1
	v := f.Stack[n]
	f.Stack = f.Stack[:n]
	return v
}

// Interpreter executes a single SVMProgram to completion. It is not
// safe for concurrent use by multiple goroutines, but a read-only
// SVMProgram (and its string pool) may back any number of concurrent
// Interpreters.
type Interpreter struct {
	program *svm.SVMProgram
	limits  config.Limits
	stdout  strings.Builder

	instrCount int
	frames     []*Frame
}

// New returns an Interpreter ready to run program under the given
// resource limits.
func New(program *svm.SVMProgram, limits config.Limits) *Interpreter {
	return &Interpreter{program: program, limits: limits}
}

// Result is what Run returns: the program's final value and every
// byte written by the print/display primitive, in program order.
type Result struct {
	Value  Value
	Stdout string
}

// Run executes the program to completion: either the entry frame
// returns (halting with that value as the result), or a configured
// limit is exceeded, or a fatal RuntimeError is raised.
func (it *Interpreter) Run() (Result, error) {
	entryFn := it.program.FunctionAt(it.program.Entry)
	if entryFn == nil {
		return Result{}, report.NewRuntimeError(report.InvalidSlot, "entry function index %d not found", it.program.Entry)
	}
	entryClosure := NewClosure(it.program.Entry, nil, entryFn.NeedsMemoization)
	entryEnv := NewEnv(entryFn.NumLocals, nil)
	it.frames = []*Frame{{Closure: entryClosure, Env: entryEnv}}

	for {
		frame := it.frames[len(it.frames)-1]
		fn := it.program.FunctionAt(frame.Closure.FunctionIndex)
		if fn == nil {
			return Result{}, report.NewRuntimeError(report.InvalidSlot, "call to undefined function index %d", frame.Closure.FunctionIndex)
		}
		if frame.PC < 0 || frame.PC >= len(fn.Code) {
			return Result{}, report.NewRuntimeError(report.InvalidSlot, "program counter %d out of range in function %q", frame.PC, fn.Name)
		}

		it.instrCount++
		if it.instrCount > it.limits.MaxInstructions {
			return Result{}, report.NewLimitError(report.InstructionLimitExceeded, "max_instructions", it.limits.MaxInstructions, it.instrCount)
		}

		instr := fn.Code[frame.PC]
		frame.PC++

		result, halted, err := it.execute(frame, instr)
		if err != nil {
			return Result{}, err
		}
		if halted {
			return Result{Value: result, Stdout: it.stdout.String()}, nil
		}
		if top := it.frames[len(it.frames)-1]; len(top.Stack) > it.limits.MaxOperandSize {
			return Result{}, report.NewLimitError(report.StackOverflow, "max_operand_size", it.limits.MaxOperandSize, len(top.Stack))
		}
	}
}

// execute dispatches a single instruction against frame, mutating
// it.frames in place for CALL*/RET*. It returns (value, true, nil)
// only when the entry frame has just returned, halting the program.
func (it *Interpreter) execute(frame *Frame, instr svm.Instruction) (Value, bool, error) {
	switch instr.Op {
	case opcode.LGCI:
		frame.push(IntValue(int64(instr.Arg1)))
	case opcode.LGCF64:
		frame.push(FloatValue(instr.Imm))
	case opcode.LGCB0:
		frame.push(BoolValue(false))
	case opcode.LGCB1:
		frame.push(BoolValue(true))
	case opcode.LGCU:
		frame.push(UndefinedValue())
	case opcode.LGCN:
		frame.push(NullValue())
	case opcode.LGCS:
		frame.push(StringValue(it.program.Strings.At(instr.Arg1)))

	case opcode.LDLG:
		v, ok := frame.Env.Get(instr.Arg1, 0)
		if !ok {
			return Value{}, false, report.NewRuntimeError(report.InvalidSlot, "LDLG: slot %d out of range", instr.Arg1)
		}
		frame.push(v)
	case opcode.STLG:
		v := frame.pop()
		if !frame.Env.Set(instr.Arg1, 0, v) {
			return Value{}, false, report.NewRuntimeError(report.InvalidSlot, "STLG: slot %d out of range", instr.Arg1)
		}
	case opcode.LDPG:
		v, ok := frame.Env.Get(instr.Arg1, instr.Arg2)
		if !ok {
			return Value{}, false, report.NewRuntimeError(report.InvalidSlot, "LDPG: slot %d level %d out of range", instr.Arg1, instr.Arg2)
		}
		frame.push(v)
	case opcode.STPG:
		v := frame.pop()
		if !frame.Env.Set(instr.Arg1, instr.Arg2, v) {
			return Value{}, false, report.NewRuntimeError(report.InvalidSlot, "STPG: slot %d level %d out of range", instr.Arg1, instr.Arg2)
		}

	case opcode.ADDG, opcode.SUBG, opcode.MULG, opcode.DIVG, opcode.MODG,
		opcode.LTG, opcode.GTG, opcode.LEG, opcode.GEG, opcode.EQG, opcode.NEQG:
		right := frame.pop()
		left := frame.pop()
		v, err := binaryOp(instr.Op, left, right)
		if err != nil {
			return Value{}, false, err
		}
		frame.push(v)
	case opcode.NOTG:
		v := frame.pop()
		frame.push(BoolValue(!v.IsTruthy()))
	case opcode.NEGG:
		v := frame.pop()
		r, err := opNeg(v)
		if err != nil {
			return Value{}, false, err
		}
		frame.push(r)

	case opcode.POPG:
		frame.pop()
	case opcode.DUP:
		top := frame.Stack[len(frame.Stack)-1]
		frame.push(top)

	case opcode.BR:
		frame.PC += int(instr.Arg1)
	case opcode.BRT:
		if frame.pop().IsTruthy() {
			frame.PC += int(instr.Arg1)
		}
	case opcode.BRF:
		if !frame.pop().IsTruthy() {
			frame.PC += int(instr.Arg1)
		}

	case opcode.NEWC:
		target := it.program.FunctionAt(instr.Arg1)
		if target == nil {
			return Value{}, false, report.NewRuntimeError(report.InvalidSlot, "NEWC: function index %d not found", instr.Arg1)
		}
		frame.push(ClosureValue(NewClosure(instr.Arg1, frame.Env, target.NeedsMemoization)))

	case opcode.CALL, opcode.CALLT:
		return Value{}, false, it.doCall(frame, instr.Op == opcode.CALLT, int(instr.Arg1))
	case opcode.CALLP, opcode.CALLTP:
		return Value{}, false, it.doCallPrim(frame, int(instr.Arg1), int(instr.Arg2))

	case opcode.RETG, opcode.RETU, opcode.RETN:
		return it.doReturn(frame, instr.Op)

	case opcode.NEWA:
		size := frame.pop()
		if size.Kind != KindInt {
			return Value{}, false, report.NewRuntimeError(report.UnsupportedOperandType, "NEWA: size must be an int")
		}
		frame.push(ArrayValue(NewArray(int(size.Int))))
	case opcode.LDAG:
		idx := frame.pop()
		arr := frame.pop()
		if arr.Kind != KindArray || idx.Kind != KindInt {
			return Value{}, false, report.NewRuntimeError(report.UnsupportedOperandType, "LDAG: expected array and int index")
		}
		v, ok := arr.Array.Get(idx.Int)
		if !ok {
			return Value{}, false, report.NewRuntimeError(report.IndexOutOfBounds, "index %d out of bounds for array of length %d", idx.Int, arr.Array.Len())
		}
		frame.push(v)
	case opcode.STAG:
		val := frame.pop()
		idx := frame.pop()
		arr := frame.pop()
		if arr.Kind != KindArray || idx.Kind != KindInt {
			return Value{}, false, report.NewRuntimeError(report.UnsupportedOperandType, "STAG: expected array and int index")
		}
		if !arr.Array.Set(idx.Int, val) {
			return Value{}, false, report.NewRuntimeError(report.IndexOutOfBounds, "index %d out of bounds for array of length %d", idx.Int, arr.Array.Len())
		}

	default:
		return Value{}, false, report.NewRuntimeError(report.UnknownOpcode, "unknown or reserved opcode %v", instr.Op)
	}
	return Value{}, false, nil
}

func binaryOp(op opcode.Opcode, left, right Value) (Value, error) {
	switch op {
	case opcode.ADDG:
		return opAdd(left, right)
	case opcode.SUBG:
		return opSub(left, right)
	case opcode.MULG:
		return opMul(left, right)
	case opcode.DIVG:
		return opDiv(left, right)
	case opcode.MODG:
		return opMod(left, right)
	case opcode.EQG:
		return BoolValue(left.Equal(right)), nil
	case opcode.NEQG:
		return BoolValue(!left.Equal(right)), nil
	}
	c, err := compare(op.String(), left, right)
	if err != nil {
		return Value{}, err
	}
	switch op {
	case opcode.LTG:
		return BoolValue(c < 0), nil
	case opcode.GTG:
		return BoolValue(c > 0), nil
	case opcode.LEG:
		return BoolValue(c <= 0), nil
	case opcode.GEG:
		return BoolValue(c >= 0), nil
	}
	return Value{}, report.NewRuntimeError(report.UnknownOpcode, "unhandled binary opcode %v", op)
}

// popArgs pops n values off frame's operand stack, restoring their
// original left-to-right order (argument n-1 was pushed last, so it
// is popped first).
func popArgs(frame *Frame, n int) []Value {
	args := make([]Value, n)
	for i := n - 1; i >= 0; i-- {
		args[i] = frame.pop()
	}
	return args
}

// doCall implements CALL/CALLT (spec §4.6): pop arguments then the
// closure, validate arity, consult the memo cache, and either push a
// fresh frame (CALL) or reuse the current one in place (CALLT) so
// call-stack depth stays O(1) for tail-recursive loops.
func (it *Interpreter) doCall(frame *Frame, tail bool, nArgs int) error {
	args := popArgs(frame, nArgs)
	callee := frame.pop()
	if callee.Kind != KindClosure {
		return report.NewRuntimeError(report.NotCallable, "attempted to call a %s value", callee.Kind)
	}
	closure := callee.Closure
	fn := it.program.FunctionAt(closure.FunctionIndex)
	if fn == nil {
		return report.NewRuntimeError(report.InvalidSlot, "call to undefined function index %d", closure.FunctionIndex)
	}
	if len(args) != fn.NumParams {
		return report.NewRuntimeError(report.ArityMismatch, "%s expects %d arguments, got %d", fn.Name, fn.NumParams, len(args))
	}
	if cached, ok := closure.Lookup(args); ok {
		frame.push(cached)
		return nil
	}

	env := NewEnv(fn.NumLocals, closure.ParentEnv)
	for i, a := range args {
		env.Set(int32(i), 0, a)
	}

	if tail {
		frame.Closure = closure
		frame.PC = 0
		frame.Env = env
		frame.Stack = frame.Stack[:0]
		frame.Args = args
		return nil
	}

	if len(it.frames) >= it.limits.MaxCallDepth {
		return report.NewLimitError(report.CallDepthExceeded, "max_call_depth", it.limits.MaxCallDepth, len(it.frames))
	}
	it.frames = append(it.frames, &Frame{Closure: closure, Env: env, Args: args})
	return nil
}

// doCallPrim implements CALLP/CALLTP: primitives are atomic and never
// touch the frame stack, so the tail/non-tail distinction has no
// runtime effect here beyond what the compiler already arranged (a
// RETG immediately follows a tail primitive call).
func (it *Interpreter) doCallPrim(frame *Frame, primIdx, nArgs int) error {
	args := popArgs(frame, nArgs)
	v, err := it.callPrimitive(primitive.Index(primIdx), args)
	if err != nil {
		return err
	}
	frame.push(v)
	return nil
}

// doReturn implements RETG/RETU/RETN: pop (or synthesise) the return
// value, record it in the closure's memo cache if applicable, then
// restore the caller frame and push the value onto its stack.
// Returning from the entry frame halts execution.
func (it *Interpreter) doReturn(frame *Frame, op opcode.Opcode) (Value, bool, error) {
	var ret Value
	switch op {
	case opcode.RETG:
		ret = frame.pop()
	case opcode.RETU:
		ret = UndefinedValue()
	case opcode.RETN:
		ret = NullValue()
	}

	if frame.Closure.Memoized {
		frame.Closure.Store(frame.Args, ret)
	}

	it.frames = it.frames[:len(it.frames)-1]
	if len(it.frames) == 0 {
		return ret, true, nil
	}
	it.frames[len(it.frames)-1].push(ret)
	return Value{}, false, nil
}
