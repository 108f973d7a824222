package assembler

import (
	"encoding/binary"
	"math"

	"github.com/svmlang/svmc/internal/opcode"
	"github.com/svmlang/svmc/internal/report"
	"github.com/svmlang/svmc/internal/svm"
)

// hole is a not-yet-known function byte offset (a NEWC operand) inside
// an already-serialised function body, patched once every function's
// final layout offset is known.
type hole struct {
	pos    int   // byte position within body
	target int32 // target function index
}

type funcBytes struct {
	header [4]byte
	body   []byte
	holes  []hole
}

// Assemble serialises a compiled program into the binary container
// format: header, deduplicated string table, then 4-byte-aligned
// function records.
func Assemble(prog *svm.SVMProgram) ([]byte, error) {
	strOffsets, strBuf, err := layoutStrings(prog.Strings)
	if err != nil {
		return nil, err
	}

	funcs := make([]funcBytes, len(prog.Functions))
	for i, fn := range prog.Functions {
		fb, err := encodeFunction(fn, strOffsets)
		if err != nil {
			return nil, err
		}
		funcs[i] = fb
	}

	// Lay out functions 4-byte aligned after the string table,
	// recording each one's final absolute byte offset.
	offset := HeaderSize + len(strBuf)
	funcOffsets := make([]int, len(funcs))
	var laidOut []byte
	for i, fb := range funcs {
		padded := align4(offset) - offset
		laidOut = append(laidOut, make([]byte, padded)...)
		offset += padded
		funcOffsets[i] = offset
		laidOut = append(laidOut, fb.header[:]...)
		laidOut = append(laidOut, fb.body...)
		offset += 4 + len(fb.body)
	}

	// Patch NEWC holes now that every function's offset is known.
	for _, fb := range funcs {
		for _, h := range fb.holes {
			if _, ok := funcIndex(prog, h.target); !ok {
				return nil, report.NewAssembleError("NEWC references unknown function index %d", h.target)
			}
		}
	}
	patchHoles(laidOut, funcs, funcOffsets, HeaderSize+len(strBuf))

	if int(prog.Entry) < 0 || int(prog.Entry) >= len(funcOffsets) {
		return nil, report.NewAssembleError("entry function index %d out of range", prog.Entry)
	}

	out := make([]byte, HeaderSize, HeaderSize+len(strBuf)+len(laidOut))
	binary.LittleEndian.PutUint32(out[0:4], Magic)
	binary.LittleEndian.PutUint16(out[4:6], MajorVersion)
	binary.LittleEndian.PutUint16(out[6:8], MinorVersion)
	binary.LittleEndian.PutUint32(out[8:12], uint32(funcOffsets[prog.Entry]))
	binary.LittleEndian.PutUint32(out[12:16], uint32(prog.Strings.Len()))
	out = append(out, strBuf...)
	out = append(out, laidOut...)
	return out, nil
}

// patchHoles overwrites every NEWC placeholder with its target
// function's final absolute offset. funcOffsets holds absolute
// offsets into the whole container; base is where buf (the function
// section only) begins, so it is subtracted to index into buf.
func patchHoles(buf []byte, funcs []funcBytes, funcOffsets []int, base int) {
	for i, fb := range funcs {
		bodyStart := funcOffsets[i] + 4 - base // header is 4 bytes
		for _, h := range fb.holes {
			target := funcOffsets[h.target]
			binary.LittleEndian.PutUint32(buf[bodyStart+h.pos:], uint32(target))
		}
	}
}

func funcIndex(prog *svm.SVMProgram, target int32) (int32, bool) {
	if target < 0 || int(target) >= len(prog.Functions) {
		return 0, false
	}
	return target, true
}

// layoutStrings serialises the deduplicated string pool into the wire
// format's string table, recording each string's record-start byte
// offset (relative to the start of the whole container, i.e. already
// including HeaderSize).
func layoutStrings(pool *svm.StringPool) (map[int32]uint32, []byte, error) {
	offsets := make(map[int32]uint32, pool.Len())
	var buf []byte
	offset := HeaderSize
	for i, s := range pool.All() {
		padded := align4(offset) - offset
		buf = append(buf, make([]byte, padded)...)
		offset += padded

		offsets[int32(i)] = uint32(offset)

		var rec [6]byte
		binary.LittleEndian.PutUint16(rec[0:2], stringTag)
		binary.LittleEndian.PutUint32(rec[2:6], uint32(len(s)))
		buf = append(buf, rec[:]...)
		buf = append(buf, []byte(s)...)
		buf = append(buf, 0) // trailing NUL
		offset += 6 + len(s) + 1
	}
	return offsets, buf, nil
}

// encodeFunction serialises one function's header and instruction
// stream, converting instruction-relative branch offsets to byte
// deltas and resolving LGCS operands to their string byte offset.
// NEWC operands are left as holes, patched once every function's
// final layout offset is known.
func encodeFunction(fn *svm.SVMFunction, strOffsets map[int32]uint32) (funcBytes, error) {
	instrOffsets := make([]int, len(fn.Code)+1)
	pos := 0
	for i, instr := range fn.Code {
		instrOffsets[i] = pos
		w1, w2 := instr.Op.WireWidths()
		pos += 1 + w1 + w2
	}
	instrOffsets[len(fn.Code)] = pos

	body := make([]byte, 0, pos)
	var holes []hole
	for i, instr := range fn.Code {
		if !instr.Op.Valid() {
			return funcBytes{}, report.NewAssembleError("function %q: reserved or unknown opcode %v", fn.Name, instr.Op)
		}
		body = append(body, byte(instr.Op))
		switch instr.Op {
		case opcode.LGCI:
			body = appendU32(body, uint32(instr.Arg1))
		case opcode.LGCF64:
			body = appendU64(body, math.Float64bits(instr.Imm))
		case opcode.LGCS:
			off, ok := strOffsets[instr.Arg1]
			if !ok {
				return funcBytes{}, report.NewAssembleError("function %q: LGCS references unknown string index %d", fn.Name, instr.Arg1)
			}
			body = appendU32(body, off)
		case opcode.NEWC:
			holes = append(holes, hole{pos: len(body), target: instr.Arg1})
			body = appendU32(body, 0)
		case opcode.LDLG, opcode.STLG, opcode.CALL, opcode.CALLT:
			body = append(body, byte(instr.Arg1))
		case opcode.LDPG, opcode.STPG:
			body = append(body, byte(instr.Arg1), byte(instr.Arg2))
		case opcode.CALLP, opcode.CALLTP:
			body = append(body, byte(instr.Arg1), byte(instr.Arg2))
		case opcode.BR, opcode.BRT, opcode.BRF:
			targetInstr := i + 1 + int(instr.Arg1)
			if targetInstr < 0 || targetInstr >= len(instrOffsets) {
				return funcBytes{}, report.NewAssembleError("function %q: branch target %d out of range", fn.Name, targetInstr)
			}
			delta := int32(instrOffsets[targetInstr] - instrOffsets[i+1])
			body = appendU32(body, uint32(delta))
		default:
			// No operands.
		}
	}

	var header [4]byte
	header[0] = byte(fn.MaxStack)
	header[1] = byte(fn.NumLocals)
	header[2] = byte(fn.NumParams)
	header[3] = 0
	return funcBytes{header: header, body: body, holes: holes}, nil
}

func appendU32(b []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(b, tmp[:]...)
}

func appendU64(b []byte, v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return append(b, tmp[:]...)
}
