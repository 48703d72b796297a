// Package data catalogs the byte ranges of the ROM that hold data
// instead of code: raw blocks, structured tables, compressed blobs, the
// cartridge header and empty filler. Segments never overlap.
package data

import (
	"fmt"
	"strings"

	"github.com/retroenv/gbdisasm/internal/address"
)

// Kind tags the segment variants.
type Kind uint8

// Segment kinds.
const (
	Basic Kind = iota
	Table
	RLE
	Header
	Jumptable
	Empty
)

// Value is one decoded cell of a data row.
type Value interface {
	fmt.Stringer
	dataValue()
}

// Byte is a single data byte.
type Byte uint8

func (b Byte) dataValue() {}

func (b Byte) String() string { return fmt.Sprintf("$%02x", uint8(b)) }

// Word is a 16-bit data value.
type Word uint16

func (w Word) dataValue() {}

func (w Word) String() string { return fmt.Sprintf("$%04x", uint16(w)) }

// Color is a CGB 15-bit RGB color.
type Color uint16

func (c Color) dataValue() {}

func (c Color) String() string {
	r := uint8(c) & 0x1f
	g := uint8(c>>5) & 0x1f
	b := uint8(c>>10) & 0x1f
	return fmt.Sprintf("#%02x%02x%02x", r<<3, g<<3, b<<3)
}

// Addr is an address stored in a table cell.
type Addr address.Address

func (a Addr) dataValue() {}

func (a Addr) String() string { return address.Address(a).String() }

// CellType describes one cell of a table row layout.
type CellType struct {
	Name      string
	Bytes     int
	BigEndian bool
	decode    func(uint16) Value
}

var cellTypes = []CellType{
	{Name: "db", Bytes: 1, decode: func(v uint16) Value { return Byte(v) }},
	{Name: "dw", Bytes: 2, decode: func(v uint16) Value { return Word(v) }},
	{Name: "dw_be", Bytes: 2, BigEndian: true, decode: func(v uint16) Value { return Word(v) }},
	{Name: "addr", Bytes: 2, decode: decodeAddr},
	{Name: "addr_be", Bytes: 2, BigEndian: true, decode: decodeAddr},
	{Name: "color", Bytes: 2, decode: func(v uint16) Value { return Color(v) }},
	{Name: "color_be", Bytes: 2, BigEndian: true, decode: func(v uint16) Value { return Color(v) }},
}

func decodeAddr(v uint16) Value {
	return Addr(address.FromMemoryAddress(v))
}

// CellTypeByName resolves a cell type from its layout name.
func CellTypeByName(name string) (CellType, bool) {
	for _, t := range cellTypes {
		if t.Name == name {
			return t, true
		}
	}
	return CellType{}, false
}

// ParseLayout resolves a comma separated row layout like "db,addr,color".
func ParseLayout(layout string) ([]CellType, error) {
	parts := strings.Split(layout, ",")
	cells := make([]CellType, 0, len(parts))
	for _, part := range parts {
		cell, ok := CellTypeByName(part)
		if !ok {
			return nil, fmt.Errorf("unknown cell type %q", part)
		}
		cells = append(cells, cell)
	}
	return cells, nil
}

// LayoutName renders a row layout back into its textual form.
func LayoutName(layout []CellType) string {
	names := make([]string, len(layout))
	for i, cell := range layout {
		names[i] = cell.Name
	}
	return strings.Join(names, ",")
}

// defaultRowSize groups unstructured data into rows for display.
const defaultRowSize = 8

// Segment is one cataloged data range. Raw always holds the ROM bytes
// the segment covers, Decoded the processed form where one exists (RLE
// decompression, the full header block).
type Segment struct {
	Address address.Address
	Kind    Kind
	Size    int
	Raw     []byte
	Decoded []byte
	Layout  []CellType
}

// NextAddress returns the address right after the segment.
func (s *Segment) NextAddress() address.Address {
	return s.Address.Add(s.Size)
}

// Contains reports whether the address falls inside the segment.
func (s *Segment) Contains(addr address.Address) bool {
	return !addr.Before(s.Address) && addr.Before(s.NextAddress())
}

// Data returns the decoded bytes if the segment has a processed form,
// the raw ROM bytes otherwise.
func (s *Segment) Data() []byte {
	if len(s.Decoded) > 0 {
		return s.Decoded
	}
	return s.Raw
}

// RowSize returns the byte width of one display row.
func (s *Segment) RowSize() int {
	if len(s.Layout) == 0 {
		return defaultRowSize
	}
	width := 0
	for _, cell := range s.Layout {
		width += cell.Bytes
	}
	return width
}

// Rows returns the number of rows the segment spans.
func (s *Segment) Rows() int {
	if s.Size == 0 {
		return 0
	}
	return 1 + (s.Size-1)/s.RowSize()
}

// RowIndex returns the row containing the address, -1 if outside.
func (s *Segment) RowIndex(addr address.Address) int {
	if !s.Contains(addr) {
		return -1
	}
	return (addr.Offset - s.Address.Offset) / s.RowSize()
}

// RowBytes returns the raw bytes of one row.
func (s *Segment) RowBytes(row int) ([]byte, error) {
	if row < 0 || row >= s.Rows() {
		return nil, fmt.Errorf("row index %d out of range", row)
	}
	width := s.RowSize()
	start := width * row
	end := start + width
	if end > len(s.Raw) {
		end = len(s.Raw)
	}
	return s.Raw[start:end], nil
}

// Row decodes the cells of one row. Unstructured segments decode to
// plain bytes.
func (s *Segment) Row(row int) ([]Value, error) {
	raw, err := s.RowBytes(row)
	if err != nil {
		return nil, err
	}

	if len(s.Layout) == 0 {
		values := make([]Value, len(raw))
		for i, b := range raw {
			values[i] = Byte(b)
		}
		return values, nil
	}

	values := make([]Value, 0, len(s.Layout))
	pos := 0
	for _, cell := range s.Layout {
		var v uint16
		if cell.BigEndian {
			for i := 0; i < cell.Bytes; i++ {
				v = v<<8 | uint16(raw[pos+i])
			}
		} else {
			for i := cell.Bytes - 1; i >= 0; i-- {
				v = v<<8 | uint16(raw[pos+i])
			}
		}
		values = append(values, cell.decode(v))
		pos += cell.Bytes
	}
	return values, nil
}

// Describe returns a short human readable summary of the segment.
func (s *Segment) Describe() string {
	switch s.Kind {
	case Table:
		return fmt.Sprintf("Table: %d x %s", s.Rows(), LayoutName(s.Layout))
	case RLE:
		return fmt.Sprintf("RLE: %d bytes decompressed", len(s.Decoded))
	case Header:
		return "Cartridge Header"
	case Jumptable:
		return fmt.Sprintf("Jump Table: %d entries", s.Rows())
	case Empty:
		return "Empty Space"
	default:
		return "Data"
	}
}
