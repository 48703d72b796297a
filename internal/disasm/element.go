package disasm

import (
	"github.com/retroenv/gbdisasm/internal/address"
	"github.com/retroenv/gbdisasm/internal/context"
	"github.com/retroenv/gbdisasm/internal/data"
	"github.com/retroenv/gbdisasm/internal/label"
	"github.com/retroenv/gbdisasm/internal/section"
	"github.com/retroenv/gbdisasm/internal/sm83"
	"github.com/retroenv/gbdisasm/internal/xref"
)

// Element is the combined per-address record a lookup returns. The set
// of implementations is closed: Instruction, DataRow, DataBlock and RAM.
type Element interface {
	element()

	// Common returns the annotations shared by every element kind.
	Common() Info
}

// Info carries the annotations attached to every element.
type Info struct {
	Address address.Address
	Size    int

	Labels     []label.Label
	Scope      label.Label
	HasScope   bool
	Section    section.Section
	HasSection bool
	XRefs      xref.XRefs

	Comment      string
	BlockComment []string
}

func (i Info) Common() Info { return i }

// Instruction is one decoded code instruction with its resolved operand.
type Instruction struct {
	Info

	Instruction sm83.Instruction
	Value       context.Value
	Dest        address.Address
	HasDest     bool
}

func (Instruction) element() {}

// DataRow is one display row of a structured data segment.
type DataRow struct {
	Info

	Segment *data.Segment
	Row     int
	Bytes   []byte
	Values  []context.Value
	Dest    address.Address
	HasDest bool
}

func (DataRow) element() {}

// DataBlock is a data segment displayed as a single unit, the cartridge
// header and empty filler.
type DataBlock struct {
	Info

	Segment *data.Segment
}

func (DataBlock) element() {}

// RAM is an address in one of the RAM zones, outside the ROM image.
type RAM struct {
	Info
}

func (RAM) element() {}
