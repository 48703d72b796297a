// Package sm83 implements a table driven instruction decoder for the
// Sharp SM83 CPU core used by the Game Boy. Decoding never fails: bytes
// that do not form a complete instruction decode to an Invalid
// instruction covering the bytes that were available.
package sm83

// Operation identifies the kind of an instruction.
type Operation uint8

// All SM83 operations.
const (
	Invalid Operation = iota

	// CPU commands
	Nop
	Stop
	Halt
	IntEnable
	IntDisable
	InvCarry
	SetCarry

	// Jump/call commands
	AbsJump
	RelJump
	Call
	Return
	ReturnIntEnable
	Vector

	// Loading data
	Load
	LoadFast
	LoadInc
	LoadDec
	Push
	Pop

	// Arithmetics
	Add
	AddWithCarry
	Subtract
	SubtractWithCarry
	And
	Xor
	Or
	Compare
	Increment
	Decrement
	DecimalAdjust
	Complement

	// Bitwise operations
	GetBit
	SetBit
	ResetBit
	ARotLeft
	ARotLeftCarry
	ARotRight
	ARotRightCarry
	RotLeft
	RotLeftCarry
	RotRight
	RotRightCarry
	ShiftLeftZero
	ShiftRightZero
	ShiftRightCopy
	SwapNibbles
)

var mnemonics = map[Operation]string{
	Invalid:           "INVALID",
	Nop:               "NOP",
	Stop:              "STOP",
	Halt:              "HALT",
	IntEnable:         "EI",
	IntDisable:        "DI",
	InvCarry:          "CCF",
	SetCarry:          "SCF",
	AbsJump:           "JP",
	RelJump:           "JR",
	Call:              "CALL",
	Return:            "RET",
	ReturnIntEnable:   "RETI",
	Vector:            "RST",
	Load:              "LD",
	LoadFast:          "LDH",
	LoadInc:           "LDI",
	LoadDec:           "LDD",
	Push:              "PUSH",
	Pop:               "POP",
	Add:               "ADD",
	AddWithCarry:      "ADC",
	Subtract:          "SUB",
	SubtractWithCarry: "SBC",
	And:               "AND",
	Xor:               "XOR",
	Or:                "OR",
	Compare:           "CP",
	Increment:         "INC",
	Decrement:         "DEC",
	DecimalAdjust:     "DAA",
	Complement:        "CPL",
	GetBit:            "BIT",
	SetBit:            "SET",
	ResetBit:          "RES",
	ARotLeft:          "RLCA",
	ARotLeftCarry:     "RLA",
	ARotRight:         "RRCA",
	ARotRightCarry:    "RRA",
	RotLeft:           "RLC",
	RotLeftCarry:      "RL",
	RotRight:          "RRC",
	RotRightCarry:     "RR",
	ShiftLeftZero:     "SLA",
	ShiftRightZero:    "SRL",
	ShiftRightCopy:    "SRA",
	SwapNibbles:       "SWAP",
}

// String returns the assembler mnemonic of the operation.
func (op Operation) String() string {
	return mnemonics[op]
}

// IsCall reports whether the operation transfers control and pushes a
// return address.
func (op Operation) IsCall() bool {
	return op == Call || op == Vector
}

// IsJump reports whether the operation is an absolute or relative jump.
func (op Operation) IsJump() bool {
	return op == AbsJump || op == RelJump
}

// IsReturn reports whether the operation returns from a call.
func (op Operation) IsReturn() bool {
	return op == Return || op == ReturnIntEnable
}
