package sm83

import (
	"strings"

	"github.com/retroenv/gbdisasm/internal/address"
)

// Instruction is one decoded instruction. It is produced fresh by every
// Decode call and never mutated.
type Instruction struct {
	Operation Operation
	Args      []Operand
	Address   address.Address
	Length    int
	Bytes     []byte

	// ValuePos is the 1-based position of the argument holding the
	// decoded immediate, 0 if the instruction has none.
	ValuePos int
}

// NextAddress returns the address right after the instruction.
func (ins Instruction) NextAddress() address.Address {
	return ins.Address.Add(ins.Length)
}

// Contains reports whether the address falls inside the instruction.
func (ins Instruction) Contains(addr address.Address) bool {
	return !addr.Before(ins.Address) && addr.Before(ins.NextAddress())
}

// IsConditional reports whether the instruction is guarded by a flag
// condition.
func (ins Instruction) IsConditional() bool {
	for _, arg := range ins.Args {
		if _, ok := arg.(Condition); ok {
			return true
		}
	}
	return false
}

// EndsFlow reports whether straight-line execution can not continue past
// the instruction: an unconditional jump or return. Conditional variants
// fall through.
func (ins Instruction) EndsFlow() bool {
	if ins.IsConditional() {
		return false
	}
	return ins.Operation.IsJump() || ins.Operation.IsReturn()
}

// Value returns the argument at the value position.
func (ins Instruction) Value() (Operand, bool) {
	if ins.ValuePos <= 0 || ins.ValuePos > len(ins.Args) {
		return nil, false
	}
	return ins.Args[ins.ValuePos-1], true
}

// String renders the instruction in assembler notation, lower case.
func (ins Instruction) String() string {
	parts := make([]string, 0, len(ins.Args))
	for _, arg := range ins.Args {
		parts = append(parts, arg.String())
	}
	out := ins.Operation.String()
	if len(parts) > 0 {
		out += " " + strings.Join(parts, ", ")
	}
	return strings.ToLower(out)
}

// invalid covers bytes that do not form a complete instruction.
func invalid(addr address.Address, raw []byte) Instruction {
	return Instruction{
		Operation: Invalid,
		Address:   addr,
		Length:    len(raw),
		Bytes:     raw,
	}
}

// Decode decodes the instruction at the start of data. It never fails:
// unassigned opcodes decode to an Invalid instruction of length 1 and
// truncated trailing data to an Invalid instruction covering the bytes
// that remain.
func Decode(addr address.Address, data []byte) Instruction {
	if len(data) == 0 {
		return invalid(addr, nil)
	}

	cp := opcodes[data[0]]
	if cp.bitwise {
		if len(data) < 2 {
			return invalid(addr, data[:1])
		}
		cp = bitwiseOpcodes[data[1]]
		return Instruction{
			Operation: cp.op,
			Args:      cp.args,
			Address:   addr,
			Length:    2,
			Bytes:     data[:2],
		}
	}

	if cp.op == Invalid {
		return invalid(addr, data[:1])
	}
	if len(data) < cp.length {
		return invalid(addr, data)
	}

	var param uint16
	for i := cp.length - 1; i > 0; i-- {
		param = param<<8 | uint16(data[i])
	}

	args := make([]Operand, len(cp.args))
	for i, tmpl := range cp.args {
		arg, _ := substitute(tmpl, param)
		args[i] = arg
	}

	return Instruction{
		Operation: cp.op,
		Args:      args,
		Address:   addr,
		Length:    cp.length,
		Bytes:     data[:cp.length],
		ValuePos:  cp.valuePos,
	}
}

// InstructionLength returns the encoded length of the instruction
// starting with the given opcode byte.
func InstructionLength(opcode byte) int {
	return opcodes[opcode].length
}
