// Package writer renders the disassembly database as a textual listing,
// bank by bank.
package writer

import (
	"fmt"
	"io"
	"strings"

	"github.com/retroenv/gbdisasm/internal/address"
	"github.com/retroenv/gbdisasm/internal/context"
	"github.com/retroenv/gbdisasm/internal/disasm"
	"github.com/retroenv/gbdisasm/internal/sm83"
)

const indent = "    "

// Listing writes the disassembled ROM as a text listing.
type Listing struct {
	dis *disasm.Disassembler
	out io.Writer
}

// New creates a listing writer for the disassembler.
func New(dis *disasm.Disassembler, out io.Writer) *Listing {
	return &Listing{dis: dis, out: out}
}

// Write renders all ROM banks.
func (l *Listing) Write() error {
	for bank := 0; bank < l.dis.ROM().Banks(); bank++ {
		if err := l.writeBank(bank); err != nil {
			return fmt.Errorf("writing bank %x: %w", bank, err)
		}
	}
	return nil
}

func (l *Listing) writeBank(bank int) error {
	addr := address.New(address.ROM, bank, 0)
	bankEnd := addr.BankEnd()

	if _, err := fmt.Fprintf(l.out, "\n; bank %x\n", bank); err != nil {
		return err
	}

	for {
		elem, err := l.dis.Lookup(addr)
		if err != nil {
			return err
		}
		if err := l.writeElement(elem); err != nil {
			return err
		}

		info := elem.Common()
		size := info.Size
		if size < 1 {
			size = 1
		}
		addr = info.Address.Add(size)
		if addr.After(bankEnd) {
			return nil
		}
	}
}

func (l *Listing) writeElement(elem disasm.Element) error {
	info := elem.Common()

	for _, line := range info.BlockComment {
		if err := l.line("; " + line); err != nil {
			return err
		}
	}
	if info.HasSection {
		if err := l.line(fmt.Sprintf("\n; SECTION %s", info.Section.Name)); err != nil {
			return err
		}
	}
	for _, lbl := range info.Labels {
		name := lbl.Name() + ":"
		if lbl.IsLocal() {
			name = indent + "." + lbl.LocalName + ":"
		}
		if err := l.line(name); err != nil {
			return err
		}
	}
	if len(info.XRefs.CalledBy) > 0 {
		if err := l.line(indent + "; called by " + joinAddresses(info.XRefs.CalledBy)); err != nil {
			return err
		}
	}
	if len(info.XRefs.JumpedBy) > 0 {
		if err := l.line(indent + "; jumped to by " + joinAddresses(info.XRefs.JumpedBy)); err != nil {
			return err
		}
	}

	body := l.body(elem)
	if body == "" {
		return nil
	}
	if info.Comment != "" {
		body += " ; " + info.Comment
	}
	return l.line(indent + body)
}

func (l *Listing) body(elem disasm.Element) string {
	switch e := elem.(type) {
	case disasm.Instruction:
		if e.Instruction.Operation == sm83.Invalid {
			return "db " + joinBytes(e.Instruction.Bytes)
		}
		body := e.Instruction.String()
		if ref := symbolicRef(e.Value); ref != "" {
			body += " ; -> " + ref
		}
		return body

	case disasm.DataRow:
		parts := make([]string, len(e.Values))
		for i, v := range e.Values {
			parts[i] = v.String()
		}
		body := "db " + strings.Join(parts, ", ")
		if e.Row == 0 {
			body += " ; " + e.Segment.Describe()
		}
		return body

	case disasm.DataBlock:
		return fmt.Sprintf("ds %d ; %s", e.Segment.Size, e.Segment.Describe())

	default:
		return ""
	}
}

// symbolicRef renders the resolved form of an operand when it adds
// information over the raw instruction text.
func symbolicRef(value context.Value) string {
	switch value.(type) {
	case nil, context.Scalar:
		return ""
	default:
		return value.String()
	}
}

func (l *Listing) line(text string) error {
	_, err := fmt.Fprintln(l.out, text)
	return err
}

func joinAddresses(addrs []address.Address) string {
	parts := make([]string, len(addrs))
	for i, addr := range addrs {
		parts[i] = addr.String()
	}
	return strings.Join(parts, ", ")
}

func joinBytes(raw []byte) string {
	parts := make([]string, len(raw))
	for i, b := range raw {
		parts[i] = fmt.Sprintf("$%02x", b)
	}
	return strings.Join(parts, ", ")
}
