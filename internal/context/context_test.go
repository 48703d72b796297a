package context

import (
	"testing"

	"github.com/retroenv/gbdisasm/internal/address"
	"github.com/retroenv/gbdisasm/internal/data"
	"github.com/retroenv/gbdisasm/internal/label"
	"github.com/retroenv/gbdisasm/internal/sm83"
	"github.com/retroenv/retrogolib/assert"
)

func rom(bank, offset int) address.Address {
	return address.New(address.ROM, bank, offset)
}

func decodeAt(t *testing.T, addr address.Address, raw ...byte) sm83.Instruction {
	t.Helper()
	ins := sm83.Decode(addr, raw)
	assert.True(t, ins.Operation != sm83.Invalid)
	return ins
}

func TestResolveBank(t *testing.T) {
	labels := label.NewManager()
	m := NewManager(labels)

	t.Run("resolved references pass through", func(t *testing.T) {
		ref := rom(3, 0x100)
		assert.Equal(t, ref, m.ResolveBank(rom(1, 0), ref))
	})

	t.Run("same bank assumed for ROM references", func(t *testing.T) {
		ref := rom(address.UnknownBank, 0x123)
		assert.Equal(t, rom(2, 0x123), m.ResolveBank(rom(2, 0), ref))
	})

	t.Run("no assumption from the fixed bank", func(t *testing.T) {
		ref := rom(address.UnknownBank, 0x123)
		assert.Equal(t, ref, m.ResolveBank(rom(0, 0x150), ref))
	})

	t.Run("no assumption for other zones", func(t *testing.T) {
		ref := address.New(address.WRAM, address.UnknownBank, 0x10)
		assert.Equal(t, ref, m.ResolveBank(rom(2, 0), ref))
	})

	t.Run("manual override wins", func(t *testing.T) {
		m.SetBankOverride(rom(0, 0x150), 5)
		ref := rom(address.UnknownBank, 0x123)
		assert.Equal(t, rom(5, 0x123), m.ResolveBank(rom(0, 0x150), ref))

		m.SetBankOverride(rom(0, 0x150), -1)
		assert.Equal(t, ref, m.ResolveBank(rom(0, 0x150), ref))
	})
}

func TestAddressContext(t *testing.T) {
	labels := label.NewManager()
	assert.NoError(t, labels.Create(rom(0, 0x150), "main"))
	assert.NoError(t, labels.Create(rom(0, 0x160), ".loop"))
	m := NewManager(labels)

	t.Run("label at the target", func(t *testing.T) {
		value := m.AddressContext(rom(0, 0), rom(0, 0x150), false)
		lbl, ok := value.(LabelValue)
		assert.True(t, ok)
		assert.Equal(t, "main", label.Label(lbl).Name())
	})

	t.Run("plain address without label", func(t *testing.T) {
		value := m.AddressContext(rom(0, 0), rom(0, 0x200), false)
		assert.Equal(t, AddressValue(rom(0, 0x200)), value)
	})

	t.Run("relative resolves into the scope", func(t *testing.T) {
		value := m.AddressContext(rom(0, 0), rom(0, 0x155), true)
		off, ok := value.(LabelOffset)
		assert.True(t, ok)
		assert.Equal(t, 5, off.Offset)
		assert.Equal(t, "main", off.Label.Name())
		assert.Equal(t, "main+$05", value.String())
	})
}

func TestInstructionContext(t *testing.T) {
	labels := label.NewManager()
	assert.NoError(t, labels.Create(rom(0, 0x150), "main"))
	m := NewManager(labels)

	t.Run("call resolves to the label", func(t *testing.T) {
		ins := decodeAt(t, rom(0, 0x100), 0xcd, 0x50, 0x01)
		value, dest, ok := m.InstructionContext(ins)
		assert.True(t, ok)
		assert.Equal(t, rom(0, 0x150), dest)
		assert.Equal(t, "main", value.String())
	})

	t.Run("relative jump target from the next address", func(t *testing.T) {
		ins := decodeAt(t, rom(0, 0x100), 0x18, 0x10)
		_, dest, ok := m.InstructionContext(ins)
		assert.True(t, ok)
		assert.Equal(t, rom(0, 0x112), dest)

		ins = decodeAt(t, rom(0, 0x100), 0x18, 0xfe)
		_, dest, ok = m.InstructionContext(ins)
		assert.True(t, ok)
		assert.Equal(t, rom(0, 0x100), dest)
	})

	t.Run("reset vector targets low ROM", func(t *testing.T) {
		ins := decodeAt(t, rom(0, 0x100), 0xef)
		_, dest, ok := m.InstructionContext(ins)
		assert.True(t, ok)
		assert.Equal(t, rom(0, 0x28), dest)
	})

	t.Run("high page access widens to the IO space", func(t *testing.T) {
		ins := decodeAt(t, rom(0, 0x100), 0xf0, 0x44)
		_, dest, ok := m.InstructionContext(ins)
		assert.True(t, ok)
		assert.Equal(t, address.FromMemoryAddress(0xff44), dest)
	})

	t.Run("memory read in switched bank keeps the bank", func(t *testing.T) {
		ins := decodeAt(t, rom(2, 0x100), 0xfa, 0x00, 0x50)
		_, dest, ok := m.InstructionContext(ins)
		assert.True(t, ok)
		assert.Equal(t, rom(2, 0x1000), dest)
	})

	t.Run("bank switch write detected as special register", func(t *testing.T) {
		ins := decodeAt(t, rom(2, 0x100), 0xea, 0x00, 0x21)
		value, _, ok := m.InstructionContext(ins)
		assert.False(t, ok)
		assert.Equal(t, SpecialRegister("ROM_BANK_L"), value)
	})

	t.Run("reading a latch address is not special", func(t *testing.T) {
		ins := decodeAt(t, rom(2, 0x100), 0xfa, 0x00, 0x21)
		_, dest, ok := m.InstructionContext(ins)
		assert.True(t, ok)
		assert.Equal(t, rom(0, 0x2100), dest)
	})

	t.Run("register operands stay scalar", func(t *testing.T) {
		ins := decodeAt(t, rom(0, 0x100), 0x3e, 0x42)
		value, _, ok := m.InstructionContext(ins)
		assert.False(t, ok)
		_, isScalar := value.(Scalar)
		assert.True(t, isScalar)
	})

	t.Run("stack pointer adjustment stays scalar", func(t *testing.T) {
		ins := decodeAt(t, rom(0, 0x100), 0xe8, 0x10)
		value, _, ok := m.InstructionContext(ins)
		assert.False(t, ok)
		_, isScalar := value.(Scalar)
		assert.True(t, isScalar)
	})

	t.Run("no value operand", func(t *testing.T) {
		ins := decodeAt(t, rom(0, 0x100), 0x00)
		value, _, ok := m.InstructionContext(ins)
		assert.False(t, ok)
		assert.Nil(t, value)
	})

	t.Run("forced scalar", func(t *testing.T) {
		m.SetForceScalar(rom(0, 0x100))
		ins := decodeAt(t, rom(0, 0x100), 0xcd, 0x50, 0x01)
		value, _, ok := m.InstructionContext(ins)
		assert.False(t, ok)
		assert.Equal(t, "$0150", value.String())

		m.Clear(rom(0, 0x100))
		_, _, ok = m.InstructionContext(ins)
		assert.True(t, ok)
	})
}

func TestRowContext(t *testing.T) {
	labels := label.NewManager()
	assert.NoError(t, labels.Create(rom(0, 0x150), "main"))
	m := NewManager(labels)

	t.Run("single address cell", func(t *testing.T) {
		cells := []data.Value{data.Byte(1), data.Addr(rom(0, 0x150))}
		values, dest, ok := m.RowContext(rom(0, 0x300), cells)
		assert.True(t, ok)
		assert.Equal(t, rom(0, 0x150), dest)
		assert.Equal(t, 2, len(values))
		assert.Equal(t, "$01", values[0].String())
		assert.Equal(t, "main", values[1].String())
	})

	t.Run("several address cells have no single target", func(t *testing.T) {
		cells := []data.Value{data.Addr(rom(0, 0x150)), data.Addr(rom(0, 0x160))}
		_, _, ok := m.RowContext(rom(0, 0x300), cells)
		assert.False(t, ok)
	})
}

func TestHasContextAndSaveItems(t *testing.T) {
	m := NewManager(label.NewManager())
	assert.False(t, m.HasContext(rom(0, 0x100)))

	m.SetForceScalar(rom(0, 0x200))
	m.SetBankOverride(rom(0, 0x100), 3)
	m.SetBankOverride(rom(0, 0x200), 4)
	assert.True(t, m.HasContext(rom(0, 0x100)))

	items := m.SaveItems()
	assert.Equal(t, 3, len(items))
	assert.Equal(t, "context set bank ROM.0:0100 3", items[0].String())
	assert.Equal(t, "context set scalar ROM.0:0200", items[1].String())
	assert.Equal(t, "context set bank ROM.0:0200 4", items[2].String())

	m.Reset()
	assert.Equal(t, 0, len(m.SaveItems()))
}
