package data

import (
	"errors"
	"fmt"

	"github.com/retroenv/gbdisasm/internal/address"
	"github.com/retroenv/gbdisasm/internal/command"
	"github.com/retroenv/gbdisasm/internal/ordered"
	"github.com/retroenv/gbdisasm/internal/rom"
)

// ErrOverlap is returned when a new segment would overlap a cataloged one.
var ErrOverlap = errors.New("data overlap detected")

// Manager catalogs the data segments of the ROM. Segments are keyed by
// their start address, a sorted start index answers containment queries.
type Manager struct {
	rom *rom.Image

	inventory map[address.Address]*Segment
	starts    *ordered.Map[address.Address, int]
}

// NewManager creates an empty segment catalog for the ROM image.
func NewManager(img *rom.Image) *Manager {
	return &Manager{
		rom:       img,
		inventory: map[address.Address]*Segment{},
		starts:    ordered.NewAddressMap[int](),
	}
}

// Reset drops all cataloged segments.
func (m *Manager) Reset() {
	m.inventory = map[address.Address]*Segment{}
	m.starts.Clear()
}

// Create catalogs a raw data segment of fixed size.
func (m *Manager) Create(addr address.Address, size int) error {
	return m.insert(&Segment{Address: addr, Kind: Basic, Size: size})
}

// CreateTable catalogs a structured table of rows times the row layout.
func (m *Manager) CreateTable(addr address.Address, rows int, layout []CellType) error {
	if len(layout) == 0 {
		return errors.New("table needs a row layout")
	}
	seg := &Segment{Address: addr, Kind: Table, Layout: layout}
	seg.Size = rows * seg.RowSize()
	return m.insert(seg)
}

// CreatePalette catalogs a CGB palette table, rows of 4 colors each.
func (m *Manager) CreatePalette(addr address.Address, rows int) error {
	color, _ := CellTypeByName("color")
	return m.CreateTable(addr, rows, []CellType{color, color, color, color})
}

// CreateRLE catalogs a run-length encoded block. Its compressed and
// decompressed sizes are derived by walking the packet stream up to its
// zero terminator.
func (m *Manager) CreateRLE(addr address.Address) error {
	return m.insert(&Segment{Address: addr, Kind: RLE})
}

// CreateJumptable catalogs a table of code addresses. With rows <= 0 the
// row count is auto-detected.
func (m *Manager) CreateJumptable(addr address.Address, rows int) error {
	cell, _ := CellTypeByName("addr")
	seg := &Segment{Address: addr, Kind: Jumptable, Layout: []CellType{cell}}
	seg.Size = rows * 2
	return m.insert(seg)
}

// CreateHeader catalogs the cartridge header. Its position and size are
// fixed by the hardware.
func (m *Manager) CreateHeader() error {
	return m.insert(&Segment{
		Address: address.FromROMOffset(rom.HeaderOffset),
		Kind:    Header,
	})
}

// CreateEmpty catalogs zero filler. With size <= 0 the run of zero bytes
// is auto-detected.
func (m *Manager) CreateEmpty(addr address.Address, size int) error {
	return m.insert(&Segment{Address: addr, Kind: Empty, Size: size})
}

// Delete removes the segment starting exactly at the address.
func (m *Manager) Delete(addr address.Address) error {
	if _, ok := m.inventory[addr]; !ok {
		return fmt.Errorf("no data segment starts at %s", addr)
	}
	delete(m.inventory, addr)
	m.starts.Delete(addr)
	return nil
}

// Get returns the segment containing the address.
func (m *Manager) Get(addr address.Address) (*Segment, bool) {
	start, size, ok := m.starts.Floor(addr)
	if !ok || !addr.Before(start.Add(size)) {
		return nil, false
	}
	return m.inventory[start], true
}

// Next returns the first segment starting at or after the address.
func (m *Manager) Next(addr address.Address) (*Segment, bool) {
	start, _, ok := m.starts.Ceil(addr)
	if !ok {
		return nil, false
	}
	return m.inventory[start], true
}

// StartsAt reports whether a segment starts exactly at the address.
func (m *Manager) StartsAt(addr address.Address) bool {
	_, ok := m.inventory[addr]
	return ok
}

// insert populates the segment from the ROM and catalogs it. All
// preconditions are checked before any state changes.
func (m *Manager) insert(seg *Segment) error {
	if err := m.populate(seg); err != nil {
		return err
	}
	if seg.Size <= 0 {
		return fmt.Errorf("cannot create empty data at %s", seg.Address)
	}

	if prev, ok := m.Get(seg.Address); ok && seg.Address.Before(prev.NextAddress()) {
		return fmt.Errorf("%w: %s overlaps %s", ErrOverlap, seg.Address, prev.Address)
	}
	if next, ok := m.Next(seg.Address); ok && next.Address.Before(seg.NextAddress()) {
		return fmt.Errorf("%w: %s overlaps %s", ErrOverlap, seg.Address, next.Address)
	}

	m.inventory[seg.Address] = seg
	m.starts.Set(seg.Address, seg.Size)
	return nil
}

func (m *Manager) populate(seg *Segment) error {
	switch seg.Kind {
	case RLE:
		if err := m.unpackRLE(seg); err != nil {
			return err
		}
	case Jumptable:
		if seg.Size <= 0 {
			size, err := m.detectJumptable(seg.Address)
			if err != nil {
				return err
			}
			seg.Size = size
		}
	case Header:
		offset, err := seg.Address.FileOffset()
		if err != nil || offset != rom.HeaderOffset {
			return fmt.Errorf("cartridge header can only be at ROM.0:%04x", rom.HeaderOffset)
		}
		seg.Size = rom.HeaderSize
	case Empty:
		if seg.Size <= 0 {
			size, err := m.detectEmpty(seg.Address)
			if err != nil {
				return err
			}
			seg.Size = size
		}
	}

	offset, err := seg.Address.FileOffset()
	if err != nil {
		return err
	}
	seg.Raw = m.rom.Slice(offset, seg.Size)
	return nil
}

// unpackRLE walks the packet stream at the segment address. Each packet
// starts with a control byte: bit 7 set copies the following count bytes
// verbatim, bit 7 clear repeats the single next byte count times. A zero
// control byte terminates the stream.
func (m *Manager) unpackRLE(seg *Segment) error {
	start, err := seg.Address.FileOffset()
	if err != nil {
		return err
	}

	var out []byte
	pos := start
	for {
		if pos >= m.rom.Size() {
			return fmt.Errorf("unterminated RLE stream at %s", seg.Address)
		}
		control := m.rom.Byte(pos)
		if control == 0 {
			break
		}
		pos++

		count := int(control & 0x7f)
		if control&0x80 != 0 {
			out = append(out, m.rom.Slice(pos, count)...)
			pos += count
		} else {
			value := m.rom.Byte(pos)
			for range count {
				out = append(out, value)
			}
			pos++
		}
	}

	seg.Size = pos - start + 1
	seg.Decoded = out
	return nil
}

// detectJumptable grows the table until a just-read entry points at or
// beyond the lowest target seen so far, which means the table has run
// into its own destinations.
func (m *Manager) detectJumptable(addr address.Address) (int, error) {
	start := int(addr.MemoryAddress())
	minTarget := 0xffff
	rows := 0

	for start+rows*2 < minTarget {
		offset, err := addr.Add(rows * 2).FileOffset()
		if err != nil {
			return 0, err
		}
		rows++
		target := int(m.rom.Word(offset))
		if target > start && target < minTarget {
			minTarget = target
		}
	}

	if rows == 0 {
		return 0, fmt.Errorf("failed to detect jump table at %s", addr)
	}
	return rows * 2, nil
}

// detectEmpty scans for the end of a zero byte run. The scan is bounded
// by the bank window and stops at the entry point no-op, which is code.
func (m *Manager) detectEmpty(addr address.Address) (int, error) {
	start, err := addr.FileOffset()
	if err != nil {
		return 0, err
	}
	end, err := addr.BankEnd().FileOffset()
	if err != nil {
		return 0, err
	}

	pos := start
	for pos <= end {
		if m.rom.Byte(pos) != 0 || pos == rom.EntryPointOffset {
			break
		}
		pos++
	}
	return pos - start, nil
}

// SaveItems enumerates the commands that recreate the catalog, in
// address order.
func (m *Manager) SaveItems() []command.Command {
	items := make([]command.Command, 0, m.starts.Len())
	for addr := range m.starts.All() {
		seg := m.inventory[addr]
		switch seg.Kind {
		case Table:
			items = append(items, command.New("data", "create", "table",
				addr.String(), command.Int(seg.Rows()), LayoutName(seg.Layout)))
		case RLE:
			items = append(items, command.New("data", "create", "rle", addr.String()))
		case Header:
			items = append(items, command.New("data", "create", "header"))
		case Jumptable:
			items = append(items, command.New("data", "create", "jumptable",
				addr.String(), command.Int(seg.Rows())))
		case Empty:
			items = append(items, command.New("data", "create", "empty",
				addr.String(), command.Int(seg.Size)))
		default:
			items = append(items, command.New("data", "create", "basic",
				addr.String(), command.Int(seg.Size)))
		}
	}
	return items
}
