// Package command defines the canonical mutation command form shared by
// all managers. Replaying a manager's saved commands in order against an
// empty database reconstructs its exact state.
package command

import (
	"strconv"
	"strings"
)

// Command is one canonical mutation command: a verb path followed by its
// arguments, all pre-rendered as text tokens. Tokens never contain
// whitespace, free-form text is carried base64 encoded.
type Command []string

// New builds a command from its tokens.
func New(tokens ...string) Command {
	return Command(tokens)
}

// String renders the command as a single line.
func (c Command) String() string {
	return strings.Join(c, " ")
}

// Parse splits a rendered command line back into tokens.
func Parse(line string) Command {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	return Command(fields)
}

// Int renders an integer argument token.
func Int(v int) string {
	return strconv.Itoa(v)
}
