// Package disasm combines the managers of the disassembly database into
// a single record per address and offers the mutation surface the UI and
// the project replay drive.
package disasm

import (
	"fmt"

	"github.com/retroenv/gbdisasm/internal/address"
	"github.com/retroenv/gbdisasm/internal/command"
	"github.com/retroenv/gbdisasm/internal/comment"
	"github.com/retroenv/gbdisasm/internal/context"
	"github.com/retroenv/gbdisasm/internal/data"
	"github.com/retroenv/gbdisasm/internal/label"
	"github.com/retroenv/gbdisasm/internal/rom"
	"github.com/retroenv/gbdisasm/internal/section"
	"github.com/retroenv/gbdisasm/internal/xref"
	"github.com/retroenv/retrogolib/log"
)

// Disassembler owns all managers of one loaded ROM.
type Disassembler struct {
	logger *log.Logger
	rom    *rom.Image

	Data     *data.Manager
	Labels   *label.Manager
	Sections *section.Manager
	Comments *comment.Manager
	Context  *context.Manager
	XRefs    *xref.Manager
}

// New creates a disassembler for the ROM image.
func New(logger *log.Logger, img *rom.Image) *Disassembler {
	dis := &Disassembler{
		logger:   logger,
		rom:      img,
		Data:     data.NewManager(img),
		Labels:   label.NewManager(),
		Sections: section.NewManager(),
		Comments: comment.NewManager(),
	}
	dis.Context = context.NewManager(dis.Labels)
	dis.XRefs = xref.NewManager(img, dis.Data, dis.Labels, dis.Context)
	return dis
}

// ROM returns the loaded ROM image.
func (dis *Disassembler) ROM() *rom.Image {
	return dis.rom
}

// Reset drops the state of all managers.
func (dis *Disassembler) Reset() {
	dis.Data.Reset()
	dis.Labels.Reset()
	dis.Sections.Reset()
	dis.Comments.Reset()
	dis.Context.Reset()
	dis.XRefs.Reset()
}

// SetupNewROM seeds a fresh database: the entry point label, the
// cartridge header segment and the main label the entry point jumps to.
func (dis *Disassembler) SetupNewROM() error {
	entryPoint := address.FromROMOffset(rom.EntryPointOffset)
	if len(dis.Labels.At(entryPoint)) == 0 {
		if err := dis.Labels.Create(entryPoint, "entry_point"); err != nil {
			return fmt.Errorf("creating entry point label: %w", err)
		}
	}

	headerStart := address.FromROMOffset(rom.HeaderOffset)
	if _, ok := dis.Data.Get(headerStart); !ok {
		if err := dis.Data.CreateHeader(); err != nil {
			return fmt.Errorf("creating header segment: %w", err)
		}
	}

	main, ok := dis.rom.MainEntry()
	if ok && len(dis.Labels.At(main)) == 0 {
		if err := dis.Labels.Create(main, "main"); err != nil {
			return fmt.Errorf("creating main label: %w", err)
		}
	}
	return nil
}

// DetectEmptyBanks catalogs all ROM banks that contain only zero bytes
// as empty filler.
func (dis *Disassembler) DetectEmptyBanks() {
	for bank := 1; bank < dis.rom.Banks(); bank++ {
		chunk := dis.rom.Slice(bank*address.ROMBankSize, address.ROMBankSize)
		empty := true
		for _, b := range chunk {
			if b != 0 {
				empty = false
				break
			}
		}
		if !empty {
			continue
		}

		bankStart := address.New(address.ROM, bank, 0)
		if _, ok := dis.Data.Get(bankStart); ok {
			continue
		}
		if err := dis.Data.CreateEmpty(bankStart, address.ROMBankSize); err != nil {
			dis.logger.Error("Marking empty bank failed",
				log.Int("bank", bank), log.Err(err))
			continue
		}
		dis.logger.Debug("Detected empty bank", log.Int("bank", bank))
	}
}

// Index builds the cross-reference graph of every ROM bank.
func (dis *Disassembler) Index() {
	for bank := 0; bank < dis.rom.Banks(); bank++ {
		dis.XRefs.Index(bank)
	}
}

// SetForceScalar marks the instruction at the address to keep its value
// operand in raw numeric form and refreshes its links.
func (dis *Disassembler) SetForceScalar(addr address.Address) {
	dis.Context.SetForceScalar(addr)
	dis.XRefs.IndexAt(addr)
}

// SetBankOverride pins the bank that references made from the address
// resolve to and refreshes its links.
func (dis *Disassembler) SetBankOverride(addr address.Address, bank int) {
	dis.Context.SetBankOverride(addr, bank)
	dis.XRefs.IndexAt(addr)
}

// ClearContext removes the resolution overrides at the address and
// refreshes its links.
func (dis *Disassembler) ClearContext(addr address.Address) {
	dis.Context.Clear(addr)
	dis.XRefs.IndexAt(addr)
}

// DeleteData removes the data segment starting at the address, including
// all links recorded for it.
func (dis *Disassembler) DeleteData(addr address.Address) error {
	if err := dis.Data.Delete(addr); err != nil {
		return err
	}
	dis.XRefs.Clear(addr)
	return nil
}

// info collects the annotations every element carries.
func (dis *Disassembler) info(addr address.Address) Info {
	info := Info{
		Address:      addr,
		Labels:       dis.Labels.At(addr),
		XRefs:        dis.XRefs.XRefsAt(addr),
		Comment:      dis.Comments.Inline(addr),
		BlockComment: dis.Comments.Block(addr),
	}
	if sec, ok := dis.Sections.Get(addr); ok {
		info.Section = sec
		info.HasSection = true
	}
	if scopeAddr, names, ok := dis.Labels.ScopeAt(addr); ok {
		info.Scope = label.Label{Address: scopeAddr, GlobalName: names[len(names)-1]}
		info.HasScope = true
	}
	return info
}

// Lookup combines all managers into the tagged record for one address.
func (dis *Disassembler) Lookup(addr address.Address) (Element, error) {
	info := dis.info(addr)

	if seg, ok := dis.Data.Get(addr); ok {
		if seg.Kind == data.Header || seg.Kind == data.Empty {
			info.Size = seg.Size
			return DataBlock{Info: info, Segment: seg}, nil
		}

		row := seg.RowIndex(addr)
		raw, err := seg.RowBytes(row)
		if err != nil {
			return nil, err
		}
		cells, err := seg.Row(row)
		if err != nil {
			return nil, err
		}

		rowAddr := seg.Address.Add(row * seg.RowSize())
		values, dest, hasDest := dis.Context.RowContext(rowAddr, cells)
		info.Address = rowAddr
		info.Size = len(raw)
		return DataRow{
			Info:    info,
			Segment: seg,
			Row:     row,
			Bytes:   raw,
			Values:  values,
			Dest:    dest,
			HasDest: hasDest,
		}, nil
	}

	if addr.Zone == address.ROM {
		ins, err := dis.rom.DecodeInstruction(addr)
		if err != nil {
			return nil, err
		}
		value, dest, hasDest := dis.Context.InstructionContext(ins)
		info.Size = ins.Length
		return Instruction{
			Info:        info,
			Instruction: ins,
			Value:       value,
			Dest:        dest,
			HasDest:     hasDest,
		}, nil
	}

	info.Size = 1
	return RAM{Info: info}, nil
}

// SaveItems enumerates the canonical mutation commands of all managers.
// Replaying them in order against an empty database reconstructs the
// exact current state. Context changes replay before xref declarations:
// applying a context command re-indexes the links of its instruction,
// which must not erase a manually declared link.
func (dis *Disassembler) SaveItems() []command.Command {
	var items []command.Command
	items = append(items, dis.Data.SaveItems()...)
	items = append(items, dis.Labels.SaveItems()...)
	items = append(items, dis.Context.SaveItems()...)
	items = append(items, dis.XRefs.SaveItems()...)
	items = append(items, dis.Comments.SaveItems()...)
	items = append(items, dis.Sections.SaveItems()...)
	return items
}
