package sm83

import "fmt"

// Operand is one argument of an instruction. The set of implementations
// is closed: registers, register pairs, conditions, decoded immediates,
// indirect wrappers, bit indexes and reset vector targets.
type Operand interface {
	fmt.Stringer
	operand()
}

// Register is one of the 8-bit CPU registers.
type Register uint8

// 8-bit registers.
const (
	A Register = iota
	B
	C
	D
	E
	H
	L
)

func (r Register) operand() {}

func (r Register) String() string {
	return [...]string{"A", "B", "C", "D", "E", "H", "L"}[r]
}

// RegisterPair is one of the 16-bit register pairs.
type RegisterPair uint8

// 16-bit register pairs.
const (
	AF RegisterPair = iota
	BC
	DE
	HL
	SP
)

func (r RegisterPair) operand() {}

func (r RegisterPair) String() string {
	return [...]string{"AF", "BC", "DE", "HL", "SP"}[r]
}

// Condition guards conditional jumps, calls and returns.
type Condition uint8

// Flag conditions.
const (
	CondZ Condition = iota
	CondNZ
	CondC
	CondNC
)

func (c Condition) operand() {}

func (c Condition) String() string {
	return [...]string{"Z", "NZ", "C", "NC"}[c]
}

// Byte is a decoded 8-bit immediate.
type Byte uint8

func (b Byte) operand() {}

func (b Byte) String() string {
	return fmt.Sprintf("$%02x", uint8(b))
}

// Word is a decoded 16-bit immediate.
type Word uint16

func (w Word) operand() {}

func (w Word) String() string {
	return fmt.Sprintf("$%04x", uint16(w))
}

// Displacement is a decoded signed 8-bit jump offset.
type Displacement int8

func (d Displacement) operand() {}

func (d Displacement) String() string {
	if d < 0 {
		return fmt.Sprintf("-$%02x", -int(d))
	}
	return fmt.Sprintf("+$%02x", int(d))
}

// SPOffset is a decoded signed offset relative to the stack pointer.
type SPOffset int8

func (s SPOffset) operand() {}

func (s SPOffset) String() string {
	return "SP" + Displacement(s).String()
}

// Indirect marks an operand used as a memory address.
type Indirect struct {
	Target Operand
}

func (i Indirect) operand() {}

func (i Indirect) String() string {
	return fmt.Sprintf("[%s]", i.Target)
}

// HighIndirect marks an operand used as an address in the $ff00 high
// page, as accessed by the fast LDH loads.
type HighIndirect struct {
	Target Operand
}

func (h HighIndirect) operand() {}

func (h HighIndirect) String() string {
	if b, ok := h.Target.(Byte); ok {
		return fmt.Sprintf("[%s]", Word(0xff00+uint16(b)))
	}
	return fmt.Sprintf("[$ff00+%s]", h.Target)
}

// BitIndex selects the bit operated on by the BIT/SET/RES family.
type BitIndex uint8

func (b BitIndex) operand() {}

func (b BitIndex) String() string {
	return fmt.Sprintf("%d", uint8(b))
}

// VectorTarget is the fixed low-ROM target of an RST instruction.
type VectorTarget uint8

func (v VectorTarget) operand() {}

func (v VectorTarget) String() string {
	return fmt.Sprintf("$%02x", uint8(v))
}

// immediate is a placeholder in the opcode table that is substituted by
// the decoded parameter bytes.
type immediate uint8

const (
	immByte immediate = iota
	immWord
	immSigned
	immSPOffset
)

func (i immediate) operand() {}

func (i immediate) String() string {
	return [...]string{"n8", "n16", "e8", "SP+e8"}[i]
}

// width returns the number of parameter bytes the placeholder consumes.
func (i immediate) width() int {
	if i == immWord {
		return 2
	}
	return 1
}

// substitute fills the decoded parameter into a template operand. The
// second return value reports whether the operand held a placeholder.
func substitute(tmpl Operand, param uint16) (Operand, bool) {
	switch arg := tmpl.(type) {
	case immediate:
		switch arg {
		case immByte:
			return Byte(param), true
		case immWord:
			return Word(param), true
		case immSigned:
			return Displacement(int8(param)), true
		case immSPOffset:
			return SPOffset(int8(param)), true
		}
	case Indirect:
		if target, ok := substitute(arg.Target, param); ok {
			return Indirect{Target: target}, true
		}
	case HighIndirect:
		if target, ok := substitute(arg.Target, param); ok {
			return HighIndirect{Target: target}, true
		}
	}
	return tmpl, false
}
