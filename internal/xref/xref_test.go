package xref

import (
	"testing"

	"github.com/retroenv/gbdisasm/internal/address"
	"github.com/retroenv/gbdisasm/internal/context"
	"github.com/retroenv/gbdisasm/internal/data"
	"github.com/retroenv/gbdisasm/internal/label"
	"github.com/retroenv/gbdisasm/internal/rom"
	"github.com/retroenv/retrogolib/assert"
)

func rm(bank, offset int) address.Address {
	return address.New(address.ROM, bank, offset)
}

// testManager builds a graph over a 2 bank ROM with a small code block:
//
//	$0150: call $0200
//	$0153: ld [$c000], a
//	$0156: ldh a, [$ff44]
//	$0158: rst $28
//	$0159: jp $0200
//	$0200: ret
func testManager(t *testing.T) (*Manager, *label.Manager, *data.Manager) {
	t.Helper()
	raw := make([]byte, 2*address.ROMBankSize)
	copy(raw[0x150:], []byte{
		0xcd, 0x00, 0x02,
		0xea, 0x00, 0xc0,
		0xf0, 0x44,
		0xef,
		0xc3, 0x00, 0x02,
	})
	raw[0x200] = 0xc9

	img := rom.New(raw)
	labels := label.NewManager()
	dataMgr := data.NewManager(img)
	resolver := context.NewManager(labels)
	return NewManager(img, dataMgr, labels, resolver), labels, dataMgr
}

func TestDeclare(t *testing.T) {
	m, _, _ := testManager(t)
	from := rm(0, 0x150)

	m.Declare(Call, from, rm(0, 0x200))
	refs := m.XRefsAt(rm(0, 0x200))
	assert.Equal(t, []address.Address{from}, refs.CalledBy)

	t.Run("redeclare replaces the destination", func(t *testing.T) {
		m.Declare(Call, from, rm(0, 0x300))
		assert.Equal(t, 0, len(m.XRefsAt(rm(0, 0x200)).CalledBy))

		refs := m.XRefsAt(from)
		assert.NotNil(t, refs.Calls)
		assert.Equal(t, rm(0, 0x300), *refs.Calls)
	})

	t.Run("kinds are independent", func(t *testing.T) {
		m.Declare(Jump, from, rm(0, 0x400))
		refs := m.XRefsAt(from)
		assert.NotNil(t, refs.Calls)
		assert.NotNil(t, refs.Jumps)
		assert.Nil(t, refs.Reads)
	})
}

func TestClear(t *testing.T) {
	m, _, _ := testManager(t)
	addr := rm(0, 0x200)

	m.Declare(Call, rm(0, 0x150), addr)
	m.Declare(Call, rm(0, 0x160), addr)
	m.Declare(Jump, addr, rm(0, 0x300))

	m.Clear(addr)
	refs := m.XRefsAt(addr)
	assert.Equal(t, 0, len(refs.CalledBy))
	assert.Nil(t, refs.Jumps)

	// the far ends are cleaned up as well
	assert.Nil(t, m.XRefsAt(rm(0, 0x150)).Calls)
	assert.Equal(t, 0, len(m.XRefsAt(rm(0, 0x300)).JumpedBy))
}

func TestIndexFrom(t *testing.T) {
	m, _, _ := testManager(t)

	end := m.IndexFrom(rm(0, 0x150))
	assert.Equal(t, rm(0, 0x15c), end)

	t.Run("call link", func(t *testing.T) {
		refs := m.XRefsAt(rm(0, 0x200))
		assert.Equal(t, []address.Address{rm(0, 0x150)}, refs.CalledBy)
		assert.Equal(t, []address.Address{rm(0, 0x159)}, refs.JumpedBy)
	})

	t.Run("memory access links", func(t *testing.T) {
		written := m.XRefsAt(address.FromMemoryAddress(0xc000))
		assert.Equal(t, []address.Address{rm(0, 0x153)}, written.WrittenBy)

		read := m.XRefsAt(address.FromMemoryAddress(0xff44))
		assert.Equal(t, []address.Address{rm(0, 0x156)}, read.ReadBy)
	})

	t.Run("reset vector counts as a call", func(t *testing.T) {
		refs := m.XRefsAt(rm(0, 0x28))
		assert.Equal(t, []address.Address{rm(0, 0x158)}, refs.CalledBy)
	})
}

func TestIndexFromStops(t *testing.T) {
	t.Run("at a data segment", func(t *testing.T) {
		m, _, dataMgr := testManager(t)
		assert.NoError(t, dataMgr.Create(rm(0, 0x400), 8))

		// two nops run straight into the segment
		end := m.IndexFrom(rm(0, 0x3fe))
		assert.Equal(t, rm(0, 0x400), end)
	})

	t.Run("at an invalid opcode", func(t *testing.T) {
		img := rom.New([]byte{0x00, 0xd3})
		labels := label.NewManager()
		m := NewManager(img, data.NewManager(img), labels, context.NewManager(labels))

		end := m.IndexFrom(rm(0, 0))
		assert.Equal(t, rm(0, 1), end)
	})

	t.Run("at the bank end", func(t *testing.T) {
		m, _, _ := testManager(t)
		end := m.IndexFrom(rm(0, 0x3ffe))
		assert.Equal(t, rm(0, 0x4000), end)
	})

	t.Run("after an unconditional return", func(t *testing.T) {
		m, _, _ := testManager(t)
		end := m.IndexFrom(rm(0, 0x200))
		assert.Equal(t, rm(0, 0x201), end)
	})
}

func TestIndexFromKeepsDeclaredLinks(t *testing.T) {
	m, _, _ := testManager(t)

	// a manual link at an address the sweep cannot resolve survives
	m.Declare(Jump, rm(0, 0x200), rm(1, 0x100))
	m.IndexFrom(rm(0, 0x200))

	refs := m.XRefsAt(rm(0, 0x200))
	assert.NotNil(t, refs.Jumps)
	assert.Equal(t, rm(1, 0x100), *refs.Jumps)
}

func TestIndexAt(t *testing.T) {
	m, _, _ := testManager(t)

	m.IndexAt(rm(0, 0x150))
	refs := m.XRefsAt(rm(0, 0x150))
	assert.NotNil(t, refs.Calls)
	assert.Equal(t, rm(0, 0x200), *refs.Calls)

	t.Run("stale links are dropped", func(t *testing.T) {
		m.Declare(Jump, rm(0, 0x150), rm(0, 0x300))
		m.IndexAt(rm(0, 0x150))
		assert.Nil(t, m.XRefsAt(rm(0, 0x150)).Jumps)
	})

	t.Run("data start produces no links", func(t *testing.T) {
		m, _, dataMgr := testManager(t)
		assert.NoError(t, dataMgr.Create(rm(0, 0x150), 8))

		m.IndexAt(rm(0, 0x150))
		assert.Nil(t, m.XRefsAt(rm(0, 0x150)).Calls)
	})
}

func TestIndex(t *testing.T) {
	m, labels, _ := testManager(t)
	assert.NoError(t, labels.Create(rm(0, 0x150), "main"))
	// inside the straight-line run of the first seed
	assert.NoError(t, labels.Create(rm(0, 0x156), "poll"))
	assert.NoError(t, labels.Create(rm(0, 0x200), "helper"))

	m.Index(0)

	// edges from both covered seeds and the separate sweep are present
	assert.Equal(t, 1, len(m.XRefsAt(rm(0, 0x200)).CalledBy))
	assert.Equal(t, 1, len(m.XRefsAt(address.FromMemoryAddress(0xff44)).ReadBy))
	assert.Equal(t, 1, len(m.XRefsAt(rm(0, 0x28)).CalledBy))
}

func TestSaveItems(t *testing.T) {
	m, _, _ := testManager(t)
	m.Declare(Write, rm(0, 0x153), address.FromMemoryAddress(0xc000))
	m.Declare(Call, rm(0, 0x150), rm(0, 0x200))

	items := m.SaveItems()
	assert.Equal(t, 2, len(items))
	assert.Equal(t, "xref declare call ROM.0:0150 ROM.0:0200", items[0].String())
	assert.Equal(t, "xref declare write ROM.0:0153 WRAM.0:c000", items[1].String())
}
