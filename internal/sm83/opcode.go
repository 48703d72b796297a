package sm83

// codePoint is one row of the opcode table: the operation, its operand
// template and the derived instruction length. At most one operand is an
// immediate placeholder, its position drives both the length and which
// argument the context resolver treats as the instruction's value.
type codePoint struct {
	op       Operation
	args     []Operand
	length   int
	valuePos int  // 1-based position of the decoded immediate, 0 if none
	bitwise  bool // meta entry dispatching into the CB sub-table
}

func row(op Operation, args ...Operand) codePoint {
	return codePoint{op: op, args: args}
}

// unassigned opcodes decode to Invalid, length 1
func bad() codePoint {
	return codePoint{op: Invalid}
}

// param extracts the immediate placeholder of a template operand.
func param(arg Operand) (immediate, bool) {
	switch a := arg.(type) {
	case immediate:
		return a, true
	case Indirect:
		return param(a.Target)
	case HighIndirect:
		return param(a.Target)
	default:
		return 0, false
	}
}

var opcodes = [256]codePoint{
	0x00: row(Nop),
	0x01: row(Load, BC, immWord),
	0x02: row(Load, Indirect{BC}, A),
	0x03: row(Increment, BC),
	0x04: row(Increment, B),
	0x05: row(Decrement, B),
	0x06: row(Load, B, immByte),
	0x07: row(ARotLeft),
	0x08: row(Load, Indirect{immWord}, SP),
	0x09: row(Add, HL, BC),
	0x0a: row(Load, A, Indirect{BC}),
	0x0b: row(Decrement, BC),
	0x0c: row(Increment, C),
	0x0d: row(Decrement, C),
	0x0e: row(Load, C, immByte),
	0x0f: row(ARotRight),

	0x10: row(Stop),
	0x11: row(Load, DE, immWord),
	0x12: row(Load, Indirect{DE}, A),
	0x13: row(Increment, DE),
	0x14: row(Increment, D),
	0x15: row(Decrement, D),
	0x16: row(Load, D, immByte),
	0x17: row(ARotLeftCarry),
	0x18: row(RelJump, immSigned),
	0x19: row(Add, HL, DE),
	0x1a: row(Load, A, Indirect{DE}),
	0x1b: row(Decrement, DE),
	0x1c: row(Increment, E),
	0x1d: row(Decrement, E),
	0x1e: row(Load, E, immByte),
	0x1f: row(ARotRightCarry),

	0x20: row(RelJump, CondNZ, immSigned),
	0x21: row(Load, HL, immWord),
	0x22: row(LoadInc, Indirect{HL}, A),
	0x23: row(Increment, HL),
	0x24: row(Increment, H),
	0x25: row(Decrement, H),
	0x26: row(Load, H, immByte),
	0x27: row(DecimalAdjust),
	0x28: row(RelJump, CondZ, immSigned),
	0x29: row(Add, HL, HL),
	0x2a: row(LoadInc, A, Indirect{HL}),
	0x2b: row(Decrement, HL),
	0x2c: row(Increment, L),
	0x2d: row(Decrement, L),
	0x2e: row(Load, L, immByte),
	0x2f: row(Complement),

	0x30: row(RelJump, CondNC, immSigned),
	0x31: row(Load, SP, immWord),
	0x32: row(LoadDec, Indirect{HL}, A),
	0x33: row(Increment, SP),
	0x34: row(Increment, Indirect{HL}),
	0x35: row(Decrement, Indirect{HL}),
	0x36: row(Load, Indirect{HL}, immByte),
	0x37: row(SetCarry),
	0x38: row(RelJump, CondC, immSigned),
	0x39: row(Add, HL, SP),
	0x3a: row(LoadDec, A, Indirect{HL}),
	0x3b: row(Decrement, SP),
	0x3c: row(Increment, A),
	0x3d: row(Decrement, A),
	0x3e: row(Load, A, immByte),
	0x3f: row(InvCarry),

	0x40: row(Load, B, B),
	0x41: row(Load, B, C),
	0x42: row(Load, B, D),
	0x43: row(Load, B, E),
	0x44: row(Load, B, H),
	0x45: row(Load, B, L),
	0x46: row(Load, B, Indirect{HL}),
	0x47: row(Load, B, A),
	0x48: row(Load, C, B),
	0x49: row(Load, C, C),
	0x4a: row(Load, C, D),
	0x4b: row(Load, C, E),
	0x4c: row(Load, C, H),
	0x4d: row(Load, C, L),
	0x4e: row(Load, C, Indirect{HL}),
	0x4f: row(Load, C, A),

	0x50: row(Load, D, B),
	0x51: row(Load, D, C),
	0x52: row(Load, D, D),
	0x53: row(Load, D, E),
	0x54: row(Load, D, H),
	0x55: row(Load, D, L),
	0x56: row(Load, D, Indirect{HL}),
	0x57: row(Load, D, A),
	0x58: row(Load, E, B),
	0x59: row(Load, E, C),
	0x5a: row(Load, E, D),
	0x5b: row(Load, E, E),
	0x5c: row(Load, E, H),
	0x5d: row(Load, E, L),
	0x5e: row(Load, E, Indirect{HL}),
	0x5f: row(Load, E, A),

	0x60: row(Load, H, B),
	0x61: row(Load, H, C),
	0x62: row(Load, H, D),
	0x63: row(Load, H, E),
	0x64: row(Load, H, H),
	0x65: row(Load, H, L),
	0x66: row(Load, H, Indirect{HL}),
	0x67: row(Load, H, A),
	0x68: row(Load, L, B),
	0x69: row(Load, L, C),
	0x6a: row(Load, L, D),
	0x6b: row(Load, L, E),
	0x6c: row(Load, L, H),
	0x6d: row(Load, L, L),
	0x6e: row(Load, L, Indirect{HL}),
	0x6f: row(Load, L, A),

	0x70: row(Load, Indirect{HL}, B),
	0x71: row(Load, Indirect{HL}, C),
	0x72: row(Load, Indirect{HL}, D),
	0x73: row(Load, Indirect{HL}, E),
	0x74: row(Load, Indirect{HL}, H),
	0x75: row(Load, Indirect{HL}, L),
	0x76: row(Halt),
	0x77: row(Load, Indirect{HL}, A),
	0x78: row(Load, A, B),
	0x79: row(Load, A, C),
	0x7a: row(Load, A, D),
	0x7b: row(Load, A, E),
	0x7c: row(Load, A, H),
	0x7d: row(Load, A, L),
	0x7e: row(Load, A, Indirect{HL}),
	0x7f: row(Load, A, A),

	0x80: row(Add, A, B),
	0x81: row(Add, A, C),
	0x82: row(Add, A, D),
	0x83: row(Add, A, E),
	0x84: row(Add, A, H),
	0x85: row(Add, A, L),
	0x86: row(Add, A, Indirect{HL}),
	0x87: row(Add, A, A),
	0x88: row(AddWithCarry, A, B),
	0x89: row(AddWithCarry, A, C),
	0x8a: row(AddWithCarry, A, D),
	0x8b: row(AddWithCarry, A, E),
	0x8c: row(AddWithCarry, A, H),
	0x8d: row(AddWithCarry, A, L),
	0x8e: row(AddWithCarry, A, Indirect{HL}),
	0x8f: row(AddWithCarry, A, A),

	0x90: row(Subtract, A, B),
	0x91: row(Subtract, A, C),
	0x92: row(Subtract, A, D),
	0x93: row(Subtract, A, E),
	0x94: row(Subtract, A, H),
	0x95: row(Subtract, A, L),
	0x96: row(Subtract, A, Indirect{HL}),
	0x97: row(Subtract, A, A),
	0x98: row(SubtractWithCarry, A, B),
	0x99: row(SubtractWithCarry, A, C),
	0x9a: row(SubtractWithCarry, A, D),
	0x9b: row(SubtractWithCarry, A, E),
	0x9c: row(SubtractWithCarry, A, H),
	0x9d: row(SubtractWithCarry, A, L),
	0x9e: row(SubtractWithCarry, A, Indirect{HL}),
	0x9f: row(SubtractWithCarry, A, A),

	0xa0: row(And, A, B),
	0xa1: row(And, A, C),
	0xa2: row(And, A, D),
	0xa3: row(And, A, E),
	0xa4: row(And, A, H),
	0xa5: row(And, A, L),
	0xa6: row(And, A, Indirect{HL}),
	0xa7: row(And, A, A),
	0xa8: row(Xor, A, B),
	0xa9: row(Xor, A, C),
	0xaa: row(Xor, A, D),
	0xab: row(Xor, A, E),
	0xac: row(Xor, A, H),
	0xad: row(Xor, A, L),
	0xae: row(Xor, A, Indirect{HL}),
	0xaf: row(Xor, A, A),

	0xb0: row(Or, A, B),
	0xb1: row(Or, A, C),
	0xb2: row(Or, A, D),
	0xb3: row(Or, A, E),
	0xb4: row(Or, A, H),
	0xb5: row(Or, A, L),
	0xb6: row(Or, A, Indirect{HL}),
	0xb7: row(Or, A, A),
	0xb8: row(Compare, A, B),
	0xb9: row(Compare, A, C),
	0xba: row(Compare, A, D),
	0xbb: row(Compare, A, E),
	0xbc: row(Compare, A, H),
	0xbd: row(Compare, A, L),
	0xbe: row(Compare, A, Indirect{HL}),
	0xbf: row(Compare, A, A),

	0xc0: row(Return, CondNZ),
	0xc1: row(Pop, BC),
	0xc2: row(AbsJump, CondNZ, immWord),
	0xc3: row(AbsJump, immWord),
	0xc4: row(Call, CondNZ, immWord),
	0xc5: row(Push, BC),
	0xc6: row(Add, A, immByte),
	0xc7: row(Vector, VectorTarget(0x00)),
	0xc8: row(Return, CondZ),
	0xc9: row(Return),
	0xca: row(AbsJump, CondZ, immWord),
	0xcb: {bitwise: true, length: 2},
	0xcc: row(Call, CondZ, immWord),
	0xcd: row(Call, immWord),
	0xce: row(AddWithCarry, A, immByte),
	0xcf: row(Vector, VectorTarget(0x08)),

	0xd0: row(Return, CondNC),
	0xd1: row(Pop, DE),
	0xd2: row(AbsJump, CondNC, immWord),
	0xd3: bad(),
	0xd4: row(Call, CondNC, immWord),
	0xd5: row(Push, DE),
	0xd6: row(Subtract, A, immByte),
	0xd7: row(Vector, VectorTarget(0x10)),
	0xd8: row(Return, CondC),
	0xd9: row(ReturnIntEnable),
	0xda: row(AbsJump, CondC, immWord),
	0xdb: bad(),
	0xdc: row(Call, CondC, immWord),
	0xdd: bad(),
	0xde: row(SubtractWithCarry, A, immByte),
	0xdf: row(Vector, VectorTarget(0x18)),

	0xe0: row(LoadFast, HighIndirect{immByte}, A),
	0xe1: row(Pop, HL),
	0xe2: row(LoadFast, HighIndirect{C}, A),
	0xe3: bad(),
	0xe4: bad(),
	0xe5: row(Push, HL),
	0xe6: row(And, A, immByte),
	0xe7: row(Vector, VectorTarget(0x20)),
	0xe8: row(Add, SP, immSigned),
	0xe9: row(AbsJump, HL),
	0xea: row(Load, Indirect{immWord}, A),
	0xeb: bad(),
	0xec: bad(),
	0xed: bad(),
	0xee: row(Xor, A, immByte),
	0xef: row(Vector, VectorTarget(0x28)),

	0xf0: row(LoadFast, A, HighIndirect{immByte}),
	0xf1: row(Pop, AF),
	0xf2: row(LoadFast, A, HighIndirect{C}),
	0xf3: row(IntDisable),
	0xf4: bad(),
	0xf5: row(Push, AF),
	0xf6: row(Or, A, immByte),
	0xf7: row(Vector, VectorTarget(0x30)),
	0xf8: row(Load, HL, immSPOffset),
	0xf9: row(Load, SP, HL),
	0xfa: row(Load, A, Indirect{immWord}),
	0xfb: row(IntEnable),
	0xfc: bad(),
	0xfd: bad(),
	0xfe: row(Compare, A, immByte),
	0xff: row(Vector, VectorTarget(0x38)),
}

// bitwiseOpcodes is the secondary table behind the $cb prefix byte. Its
// layout is fully regular and derived instead of spelled out.
var bitwiseOpcodes [256]codePoint

func init() {
	// derive length and value position from the operand templates
	for i := range opcodes {
		cp := &opcodes[i]
		if cp.bitwise {
			continue
		}
		cp.length = 1
		for pos, arg := range cp.args {
			if imm, ok := param(arg); ok {
				cp.length = 1 + imm.width()
				cp.valuePos = pos + 1
				break
			}
		}
		// the fixed target of a reset vector is the instruction's value
		if cp.op == Vector {
			cp.valuePos = 1
		}
	}

	operands := []Operand{B, C, D, E, H, L, Indirect{HL}, A}
	simpleOps := []Operation{
		RotLeft, RotRight,
		RotLeftCarry, RotRightCarry,
		ShiftLeftZero, ShiftRightCopy,
		SwapNibbles, ShiftRightZero,
	}
	bitOps := []Operation{Invalid, GetBit, ResetBit, SetBit}

	for code := range bitwiseOpcodes {
		group, reg := code/8, code%8
		var cp codePoint
		if group < 8 {
			cp = row(simpleOps[group], operands[reg])
		} else {
			cp = row(bitOps[group/8], BitIndex(group%8), operands[reg])
		}
		cp.length = 2
		bitwiseOpcodes[code] = cp
	}
}
