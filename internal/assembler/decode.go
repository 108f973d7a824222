package assembler

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/svmlang/svmc/internal/opcode"
	"github.com/svmlang/svmc/internal/report"
	"github.com/svmlang/svmc/internal/svm"
)

// pendingNEWC records a NEWC instruction decoded with its target left
// as a raw byte offset, patched to a function index once every
// reachable function has been discovered and indices are assigned.
type pendingNEWC struct {
	fn        *svm.SVMFunction
	instrIdx  int
	targetOff uint32
}

// Disassemble parses a binary container back into an SVMProgram.
// Functions are not recorded by count or offset table; they are
// discovered by following NEWC targets reachable from the entry
// offset (transitive closure), then assigned indices in ascending
// byte-offset order.
func Disassemble(data []byte) (*svm.SVMProgram, error) {
	if len(data) < HeaderSize {
		return nil, report.NewDisassembleError(0, "truncated header")
	}
	magic := binary.LittleEndian.Uint32(data[0:4])
	if magic != Magic {
		return nil, report.NewDisassembleError(0, "bad magic 0x%x", magic)
	}
	major := binary.LittleEndian.Uint16(data[4:6])
	minor := binary.LittleEndian.Uint16(data[6:8])
	if major != MajorVersion || minor != MinorVersion {
		return nil, report.NewDisassembleError(4, "unsupported version %d.%d", major, minor)
	}
	entryOff := binary.LittleEndian.Uint32(data[8:12])
	numStrings := binary.LittleEndian.Uint32(data[12:16])

	pool := svm.NewStringPool()
	strAt := make(map[uint32]int32, numStrings)
	pos := HeaderSize
	for i := uint32(0); i < numStrings; i++ {
		pos = align4(pos)
		if pos+6 > len(data) {
			return nil, report.NewDisassembleError(pos, "truncated string record")
		}
		tag := binary.LittleEndian.Uint16(data[pos : pos+2])
		if tag != stringTag {
			return nil, report.NewDisassembleError(pos, "bad string tag %d", tag)
		}
		size := binary.LittleEndian.Uint32(data[pos+2 : pos+6])
		start := pos + 6
		end := start + int(size)
		if end+1 > len(data) || data[end] != 0 {
			return nil, report.NewDisassembleError(pos, "malformed or unterminated string")
		}
		s := string(data[start:end])
		strAt[uint32(pos)] = pool.Intern(s)
		pos = end + 1
	}

	funcs := make(map[uint32]*svm.SVMFunction)
	var pendings []pendingNEWC
	visited := map[uint32]bool{entryOff: true}
	queue := []uint32{entryOff}
	for len(queue) > 0 {
		off := queue[0]
		queue = queue[1:]
		if off%4 != 0 {
			return nil, report.NewDisassembleError(int(off), "misaligned function start")
		}
		fn, newTargets, pend, err := decodeFunction(data, off, strAt)
		if err != nil {
			return nil, err
		}
		funcs[off] = fn
		pendings = append(pendings, pend...)
		for _, t := range newTargets {
			if !visited[t] {
				visited[t] = true
				queue = append(queue, t)
			}
		}
	}

	offsets := make([]uint32, 0, len(funcs))
	for off := range funcs {
		offsets = append(offsets, off)
	}
	sort.Slice(offsets, func(i, j int) bool { return offsets[i] < offsets[j] })

	indexOf := make(map[uint32]int32, len(offsets))
	ordered := make([]*svm.SVMFunction, len(offsets))
	for i, off := range offsets {
		indexOf[off] = int32(i)
		fn := funcs[off]
		fn.Index = int32(i)
		ordered[i] = fn
	}

	for _, p := range pendings {
		idx, ok := indexOf[p.targetOff]
		if !ok {
			return nil, report.NewDisassembleError(int(p.targetOff), "NEWC target is not a discovered function start")
		}
		p.fn.Code[p.instrIdx].Arg1 = idx
	}

	entryIdx, ok := indexOf[entryOff]
	if !ok {
		return nil, report.NewDisassembleError(int(entryOff), "entry offset is not a valid function start")
	}

	return &svm.SVMProgram{Functions: ordered, Entry: entryIdx, Strings: pool}, nil
}

// decodeFunction parses one function's header and instruction stream
// starting at off, stopping at the first RET* instruction (every
// well-formed function ends in exactly one). It returns the decoded
// function, the raw byte offsets of any NEWC targets it references
// (for the discovery worklist), and the NEWC instructions themselves
// deferred for index patching.
func decodeFunction(data []byte, off uint32, strAt map[uint32]int32) (*svm.SVMFunction, []uint32, []pendingNEWC, error) {
	base := int(off)
	if base+4 > len(data) {
		return nil, nil, nil, report.NewDisassembleError(base, "truncated function header")
	}
	maxStack := int(data[base])
	numLocals := int(data[base+1])
	numParams := int(data[base+2])

	pos := base + 4
	var code []svm.Instruction
	var instrOffsets []int
	type pendingBranch struct {
		instrIdx int
		relEnd   int // byte offset (relative to instr stream start) of the instruction following the branch
		delta    int32
	}
	var branches []pendingBranch
	var newTargets []uint32
	var pend []pendingNEWC

	fn := &svm.SVMFunction{NumParams: numParams, NumLocals: numLocals, MaxStack: maxStack}

	for {
		if pos >= len(data) {
			return nil, nil, nil, report.NewDisassembleError(pos, "truncated instruction stream")
		}
		instrStart := pos
		instrOffsets = append(instrOffsets, instrStart-(base+4))
		op := opcode.Opcode(data[pos])
		if !op.Valid() {
			return nil, nil, nil, report.NewDisassembleError(pos, "unknown or reserved opcode 0x%x", data[pos])
		}
		pos++

		instr := svm.Instruction{Op: op}
		switch op {
		case opcode.LGCI:
			v, err := readU32(data, pos)
			if err != nil {
				return nil, nil, nil, err
			}
			instr.Arg1 = int32(v)
			pos += 4
		case opcode.LGCF64:
			if pos+8 > len(data) {
				return nil, nil, nil, report.NewDisassembleError(pos, "truncated f64 immediate")
			}
			instr.Imm = math.Float64frombits(binary.LittleEndian.Uint64(data[pos : pos+8]))
			pos += 8
		case opcode.LGCS:
			byteOff, err := readU32(data, pos)
			if err != nil {
				return nil, nil, nil, err
			}
			idx, ok := strAt[byteOff]
			if !ok {
				return nil, nil, nil, report.NewDisassembleError(pos, "unresolved string offset 0x%x", byteOff)
			}
			instr.Arg1 = idx
			pos += 4
		case opcode.NEWC:
			byteOff, err := readU32(data, pos)
			if err != nil {
				return nil, nil, nil, err
			}
			newTargets = append(newTargets, byteOff)
			pend = append(pend, pendingNEWC{fn: fn, instrIdx: len(code), targetOff: byteOff})
			pos += 4
		case opcode.LDLG, opcode.STLG, opcode.CALL, opcode.CALLT:
			if pos+1 > len(data) {
				return nil, nil, nil, report.NewDisassembleError(pos, "truncated u8 operand")
			}
			instr.Arg1 = int32(data[pos])
			pos++
		case opcode.LDPG, opcode.STPG, opcode.CALLP, opcode.CALLTP:
			if pos+2 > len(data) {
				return nil, nil, nil, report.NewDisassembleError(pos, "truncated u8,u8 operand")
			}
			instr.Arg1 = int32(data[pos])
			instr.Arg2 = int32(data[pos+1])
			pos += 2
		case opcode.BR, opcode.BRT, opcode.BRF:
			delta, err := readU32(data, pos)
			if err != nil {
				return nil, nil, nil, err
			}
			pos += 4
			branches = append(branches, pendingBranch{instrIdx: len(code), relEnd: pos - (base + 4), delta: int32(delta)})
		}

		code = append(code, instr)
		if op.IsReturn() {
			break
		}
	}

	byteToInstr := make(map[int]int, len(instrOffsets))
	for i, o := range instrOffsets {
		byteToInstr[o] = i
	}
	for _, br := range branches {
		targetByte := br.relEnd + int(br.delta)
		targetInstr, ok := byteToInstr[targetByte]
		if !ok {
			return nil, nil, nil, report.NewDisassembleError(base, "branch targets a non-instruction boundary")
		}
		code[br.instrIdx].Arg1 = int32(targetInstr - (br.instrIdx + 1))
	}

	fn.Code = code
	return fn, newTargets, pend, nil
}

func readU32(data []byte, pos int) (uint32, error) {
	if pos+4 > len(data) {
		return 0, report.NewDisassembleError(pos, "truncated u32 operand")
	}
	return binary.LittleEndian.Uint32(data[pos : pos+4]), nil
}
