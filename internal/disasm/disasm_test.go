package disasm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/retroenv/gbdisasm/internal/address"
	"github.com/retroenv/gbdisasm/internal/command"
	"github.com/retroenv/gbdisasm/internal/data"
	"github.com/retroenv/gbdisasm/internal/rom"
	"github.com/retroenv/gbdisasm/internal/xref"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

func rm(bank, offset int) address.Address {
	return address.New(address.ROM, bank, offset)
}

// testDisasm builds a database over a 2 bank ROM with a valid header, an
// entry point jumping to $0150 and a small code block there.
func testDisasm(t *testing.T) *Disassembler {
	t.Helper()
	raw := make([]byte, 2*address.ROMBankSize)

	// entry point: nop, jp $0150
	raw[rom.EntryPointOffset+1] = 0xc3
	raw[rom.EntryPointOffset+2] = 0x50
	raw[rom.EntryPointOffset+3] = 0x01

	copy(raw[0x150:], []byte{
		0xcd, 0x00, 0x02, // call $0200
		0xea, 0x00, 0xc0, // ld [$c000], a
		0xc9, // ret
	})
	raw[0x200] = 0xc9

	// table data at $0300
	raw[0x300] = 0x34
	raw[0x301] = 0x12
	raw[0x302] = 0x07

	return New(log.NewTestLogger(t), rom.New(raw))
}

func TestSetupNewROM(t *testing.T) {
	dis := testDisasm(t)
	assert.NoError(t, dis.SetupNewROM())

	labels := dis.Labels.At(rm(0, rom.EntryPointOffset))
	assert.Len(t, labels, 1)
	assert.Equal(t, "entry_point", labels[0].Name())

	labels = dis.Labels.At(rm(0, 0x150))
	assert.Len(t, labels, 1)
	assert.Equal(t, "main", labels[0].Name())

	seg, ok := dis.Data.Get(rm(0, rom.HeaderOffset))
	assert.True(t, ok)
	assert.Equal(t, data.Header, seg.Kind)

	t.Run("repeated setup is a no-op", func(t *testing.T) {
		assert.NoError(t, dis.SetupNewROM())
		assert.Len(t, dis.Labels.At(rm(0, 0x150)), 1)
	})
}

func TestDetectEmptyBanks(t *testing.T) {
	dis := testDisasm(t)
	dis.DetectEmptyBanks()

	seg, ok := dis.Data.Get(rm(1, 0))
	assert.True(t, ok)
	assert.Equal(t, data.Empty, seg.Kind)
	assert.Equal(t, address.ROMBankSize, seg.Size)

	// the fixed bank holds code and is never marked
	_, ok = dis.Data.Get(rm(0, 0))
	assert.False(t, ok)
}

func TestLookup(t *testing.T) {
	dis := testDisasm(t)
	assert.NoError(t, dis.SetupNewROM())
	layout, err := data.ParseLayout("dw,db")
	assert.NoError(t, err)
	assert.NoError(t, dis.Data.CreateTable(rm(0, 0x300), 2, layout))

	t.Run("instruction", func(t *testing.T) {
		elem, err := dis.Lookup(rm(0, 0x150))
		assert.NoError(t, err)
		ins, ok := elem.(Instruction)
		assert.True(t, ok)
		assert.Equal(t, 3, ins.Size)
		assert.True(t, ins.HasDest)
		assert.Equal(t, rm(0, 0x200), ins.Dest)
		assert.Equal(t, "main", ins.Labels[0].Name())
	})

	t.Run("scope of an unlabeled instruction", func(t *testing.T) {
		elem, err := dis.Lookup(rm(0, 0x153))
		assert.NoError(t, err)
		info := elem.Common()
		assert.True(t, info.HasScope)
		assert.Equal(t, "main", info.Scope.Name())
	})

	t.Run("data row", func(t *testing.T) {
		// an address inside the second row resolves to the row start
		elem, err := dis.Lookup(rm(0, 0x304))
		assert.NoError(t, err)
		row, ok := elem.(DataRow)
		assert.True(t, ok)
		assert.Equal(t, 1, row.Row)
		assert.Equal(t, rm(0, 0x303), row.Common().Address)
		assert.Equal(t, 3, row.Size)

		elem, err = dis.Lookup(rm(0, 0x300))
		assert.NoError(t, err)
		row = elem.(DataRow)
		assert.Equal(t, "$1234", row.Values[0].String())
		assert.Equal(t, "$07", row.Values[1].String())
	})

	t.Run("data block", func(t *testing.T) {
		elem, err := dis.Lookup(rm(0, rom.HeaderOffset))
		assert.NoError(t, err)
		block, ok := elem.(DataBlock)
		assert.True(t, ok)
		assert.Equal(t, data.Header, block.Segment.Kind)
		assert.Equal(t, rom.HeaderSize, block.Size)
	})

	t.Run("ram", func(t *testing.T) {
		elem, err := dis.Lookup(address.FromMemoryAddress(0xc000))
		assert.NoError(t, err)
		_, ok := elem.(RAM)
		assert.True(t, ok)
		assert.Equal(t, 1, elem.Common().Size)
	})

	t.Run("unresolved bank fails", func(t *testing.T) {
		_, err := dis.Lookup(rm(address.UnknownBank, 0x100))
		assert.Error(t, err)
	})
}

func TestLookupXRefs(t *testing.T) {
	dis := testDisasm(t)
	assert.NoError(t, dis.SetupNewROM())
	dis.Index()

	elem, err := dis.Lookup(rm(0, 0x200))
	assert.NoError(t, err)
	info := elem.Common()
	assert.Equal(t, []address.Address{rm(0, 0x150)}, info.XRefs.CalledBy)

	elem, err = dis.Lookup(address.FromMemoryAddress(0xc000))
	assert.NoError(t, err)
	assert.Equal(t, []address.Address{rm(0, 0x153)}, elem.Common().XRefs.WrittenBy)
}

func TestContextChanges(t *testing.T) {
	dis := testDisasm(t)
	dis.Index()
	assert.Len(t, dis.XRefs.XRefsAt(rm(0, 0x200)).CalledBy, 0)

	assert.NoError(t, dis.Labels.Create(rm(0, 0x150), "main"))
	dis.Index()
	assert.Len(t, dis.XRefs.XRefsAt(rm(0, 0x200)).CalledBy, 1)

	t.Run("forcing a scalar drops the link", func(t *testing.T) {
		dis.SetForceScalar(rm(0, 0x150))
		assert.Len(t, dis.XRefs.XRefsAt(rm(0, 0x200)).CalledBy, 0)

		dis.ClearContext(rm(0, 0x150))
		assert.Len(t, dis.XRefs.XRefsAt(rm(0, 0x200)).CalledBy, 1)
	})
}

func TestDeleteData(t *testing.T) {
	dis := testDisasm(t)
	assert.NoError(t, dis.Data.Create(rm(0, 0x300), 8))
	dis.XRefs.Declare(xref.Call, rm(0, 0x150), rm(0, 0x300))

	assert.NoError(t, dis.DeleteData(rm(0, 0x300)))
	_, ok := dis.Data.Get(rm(0, 0x300))
	assert.False(t, ok)
	assert.Len(t, dis.XRefs.XRefsAt(rm(0, 0x300)).CalledBy, 0)

	assert.Error(t, dis.DeleteData(rm(0, 0x300)))
}

func TestSaveAndReplay(t *testing.T) {
	dis := testDisasm(t)
	assert.NoError(t, dis.SetupNewROM())
	dis.DetectEmptyBanks()
	dis.Index()

	layout, err := data.ParseLayout("dw,db")
	assert.NoError(t, err)
	assert.NoError(t, dis.Data.CreateTable(rm(0, 0x300), 2, layout))
	assert.NoError(t, dis.Labels.Create(rm(0, 0x200), "helper"))
	assert.NoError(t, dis.Labels.Create(rm(0, 0x153), ".store"))
	assert.NoError(t, dis.Sections.Create(rm(0, 0x150), "Game"))
	dis.Comments.SetInline(rm(0, 0x150), "entry code")
	dis.Comments.AppendBlock(rm(0, 0x200), "shared helper")
	dis.Context.SetBankOverride(rm(0, 0x153), 1)

	var buf bytes.Buffer
	assert.NoError(t, dis.Save(&buf))
	saved := buf.String()
	assert.Contains(t, saved, "label create ROM.0:0153 main.store")
	assert.Contains(t, saved, "section create ROM.0:0150 Game")

	fresh := testDisasm(t)
	assert.NoError(t, fresh.Load(strings.NewReader(saved)))

	var replayed bytes.Buffer
	assert.NoError(t, fresh.Save(&replayed))
	assert.Equal(t, saved, replayed.String())
}

func TestSaveKeepsDeclaredLinkUnderForcedScalar(t *testing.T) {
	dis := testDisasm(t)
	dis.SetForceScalar(rm(0, 0x150))
	dis.XRefs.Declare(xref.Call, rm(0, 0x150), rm(1, 0x100))

	var buf bytes.Buffer
	assert.NoError(t, dis.Save(&buf))
	saved := buf.String()
	assert.Contains(t, saved, "context set scalar ROM.0:0150")
	assert.Contains(t, saved, "xref declare call ROM.0:0150 ROM.1:4100")
	// the context change replays first, the declared link last
	assert.True(t, strings.Index(saved, "context set scalar") <
		strings.Index(saved, "xref declare call"))

	fresh := testDisasm(t)
	assert.NoError(t, fresh.Load(strings.NewReader(saved)))
	assert.Equal(t, []address.Address{rm(0, 0x150)},
		fresh.XRefs.XRefsAt(rm(1, 0x100)).CalledBy)

	var replayed bytes.Buffer
	assert.NoError(t, fresh.Save(&replayed))
	assert.Equal(t, saved, replayed.String())
}

func TestLoadErrors(t *testing.T) {
	dis := testDisasm(t)

	t.Run("comments and blank lines are skipped", func(t *testing.T) {
		project := "# project file\n\nlabel create ROM.0:0150 main\n"
		assert.NoError(t, dis.Load(strings.NewReader(project)))
		assert.True(t, dis.Labels.Has("main"))
	})

	t.Run("failures name the line", func(t *testing.T) {
		err := dis.Load(strings.NewReader("# header\nbogus command\n"))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "line 2")
	})
}

func TestExecuteErrors(t *testing.T) {
	dis := testDisasm(t)

	for _, line := range []string{
		"frobnicate",
		"data create",
		"data create basic nonsense 8",
		"data create basic ROM.0:0300",
		"data create table ROM.0:0300 2",
		"label create ROM.0:0150",
		"label rename onlyone",
		"section create ROM.0:0150",
		"comment inline ROM.0:0150 not*base64",
		"context set scalar",
		"context set bank ROM.0:0150",
		"xref declare call ROM.0:0150",
		"xref declare bogus ROM.0:0150 ROM.0:0200",
	} {
		err := dis.Execute(command.Parse(line))
		assert.Error(t, err, line)
	}

	assert.NoError(t, dis.Execute(nil))
}
