// Package options contains the program options.
package options

// Parameters contains file path options.
type Parameters struct {
	Input       string // input ROM file
	Output      string // output listing file, stdout if empty
	Project     string // project file to replay before disassembling
	SaveProject string // project file to write after disassembling
}

// Flags contains behavior options.
type Flags struct {
	NoEmptyBanks bool // skip the empty bank detection
	NoIndex      bool // skip building the cross-reference graph
	Debug        bool // enable debug logging
	Quiet        bool // quiet mode
}

// Program options of the disassembler.
type Program struct {
	Parameters
	Flags
}
