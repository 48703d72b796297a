// Package context resolves the raw numeric target of a decoded operand
// or data cell into its symbolic form: a label, a label plus offset, a
// bank-resolved address, a hardware control register or the raw value as
// a last resort.
package context

import (
	"fmt"

	"github.com/retroenv/gbdisasm/internal/address"
	"github.com/retroenv/gbdisasm/internal/command"
	"github.com/retroenv/gbdisasm/internal/data"
	"github.com/retroenv/gbdisasm/internal/label"
	"github.com/retroenv/gbdisasm/internal/ordered"
	"github.com/retroenv/gbdisasm/internal/sm83"
)

// Value is the symbolic form of an operand or data cell.
type Value interface {
	fmt.Stringer
	contextValue()
}

// Scalar is a value kept in its raw numeric form, either because it does
// not reference memory or because the user forced it.
type Scalar struct {
	Value fmt.Stringer
}

func (s Scalar) contextValue() {}

func (s Scalar) String() string { return s.Value.String() }

// AddressValue is a resolved address without a label.
type AddressValue address.Address

func (a AddressValue) contextValue() {}

func (a AddressValue) String() string { return address.Address(a).String() }

// LabelValue is a label found exactly at the resolved address.
type LabelValue label.Label

func (l LabelValue) contextValue() {}

func (l LabelValue) String() string { return label.Label(l).Name() }

// LabelOffset is a reference into the scope of a label, at a byte offset
// from its address.
type LabelOffset struct {
	Label  label.Label
	Offset int
}

func (l LabelOffset) contextValue() {}

func (l LabelOffset) String() string {
	if l.Offset < 0 {
		return fmt.Sprintf("%s-$%02x", l.Label.Name(), -l.Offset)
	}
	return fmt.Sprintf("%s+$%02x", l.Label.Name(), l.Offset)
}

// SpecialRegister is one of the memory mapped cartridge control latches
// in the lower ROM window. Writes to them switch banks instead of
// storing data.
type SpecialRegister string

func (s SpecialRegister) contextValue() {}

func (s SpecialRegister) String() string { return string(s) }

// specialRegister detects the control latch a ROM space write hits.
func specialRegister(target address.Address) (SpecialRegister, bool) {
	if target.Zone != address.ROM {
		return "", false
	}
	switch ma := target.MemoryAddress(); {
	case ma < 0x2000:
		return "SRAM_ENABLE", true
	case ma < 0x3000:
		return "ROM_BANK_L", true
	case ma < 0x4000:
		return "ROM_BANK_9", true
	case ma < 0x6000:
		return "SRAM_BANK", true
	default:
		return "", false
	}
}

// Manager holds the per-address resolution overrides and implements the
// symbolic resolution rules on top of the symbol table.
type Manager struct {
	labels *label.Manager

	forceScalar  *ordered.Map[address.Address, bool]
	bankOverride *ordered.Map[address.Address, int]
}

// NewManager creates a resolver on top of the symbol table.
func NewManager(labels *label.Manager) *Manager {
	return &Manager{
		labels:       labels,
		forceScalar:  ordered.NewAddressMap[bool](),
		bankOverride: ordered.NewAddressMap[int](),
	}
}

// Reset drops all overrides.
func (m *Manager) Reset() {
	m.forceScalar.Clear()
	m.bankOverride.Clear()
}

// SetForceScalar marks the instruction at the address to keep its value
// operand in raw numeric form.
func (m *Manager) SetForceScalar(addr address.Address) {
	m.forceScalar.Set(addr, true)
}

// SetBankOverride pins the bank that unresolved references made from the
// address resolve to. A negative bank removes the override.
func (m *Manager) SetBankOverride(addr address.Address, bank int) {
	if bank < 0 {
		m.bankOverride.Delete(addr)
		return
	}
	m.bankOverride.Set(addr, bank)
}

// Clear removes all overrides at the address.
func (m *Manager) Clear(addr address.Address) {
	m.forceScalar.Delete(addr)
	m.bankOverride.Delete(addr)
}

// HasContext reports whether any override is set at the address.
func (m *Manager) HasContext(addr address.Address) bool {
	return m.forceScalar.Has(addr) || m.bankOverride.Has(addr)
}

// ResolveBank fills in the bank of an unresolved reference made from pos:
// a manual override wins, otherwise a ROM reference made from inside a
// switched bank is assumed to stay in that bank.
func (m *Manager) ResolveBank(pos, ref address.Address) address.Address {
	if ref.Bank >= 0 {
		return ref
	}

	bank, ok := m.bankOverride.Get(pos)
	if !ok {
		bank = address.UnknownBank
	}
	if bank < 0 && pos.Bank > 0 && ref.Zone == address.ROM {
		bank = pos.Bank
	}

	if bank < 0 {
		return ref
	}
	return address.New(ref.Zone, bank, ref.Offset)
}

// AddressContext resolves a target referenced from pos into its symbolic
// form. With allowRelative a target inside a label scope resolves to that
// label plus the byte offset.
func (m *Manager) AddressContext(pos, target address.Address, allowRelative bool) Value {
	target = m.ResolveBank(pos, target)

	targetLabels := m.labels.At(target)
	if allowRelative {
		var scope label.Label
		found := false
		if len(targetLabels) > 0 {
			scope = targetLabels[len(targetLabels)-1]
			found = true
		} else if scopeAddr, names, ok := m.labels.ScopeAt(target); ok {
			scope = label.Label{Address: scopeAddr, GlobalName: names[len(names)-1]}
			found = true
		}
		if found {
			return LabelOffset{Label: scope, Offset: target.Offset - scope.Address.Offset}
		}
	}

	if len(targetLabels) > 0 {
		return LabelValue(targetLabels[len(targetLabels)-1])
	}
	return AddressValue(target)
}

// InstructionContext resolves the value operand of an instruction. The
// returned address is the resolved reference target where one exists,
// reported false for plain scalars and control latch writes.
func (m *Manager) InstructionContext(ins sm83.Instruction) (Value, address.Address, bool) {
	arg, ok := ins.Value()
	if !ok {
		return nil, address.Address{}, false
	}
	if m.forceScalar.Has(ins.Address) {
		return Scalar{Value: arg}, address.Address{}, false
	}

	var target address.Address
	switch a := arg.(type) {
	case sm83.Word:
		target = address.FromMemoryAddress(uint16(a))
	case sm83.Displacement:
		if ins.Operation != sm83.RelJump {
			return Scalar{Value: arg}, address.Address{}, false
		}
		target = ins.NextAddress().Add(int(a))
	case sm83.HighIndirect:
		b, ok := a.Target.(sm83.Byte)
		if !ok {
			return Scalar{Value: arg}, address.Address{}, false
		}
		target = address.FromMemoryAddress(0xff00 + uint16(b))
	case sm83.Indirect:
		w, ok := a.Target.(sm83.Word)
		if !ok {
			return Scalar{Value: arg}, address.Address{}, false
		}
		target = address.FromMemoryAddress(uint16(w))
	case sm83.VectorTarget:
		target = address.New(address.ROM, 0, int(a))
	default:
		return Scalar{Value: arg}, address.Address{}, false
	}

	// Writes into the ROM space hit the mapper latches, not memory.
	if ins.Operation == sm83.Load && ins.ValuePos == 1 {
		if special, ok := specialRegister(target); ok {
			return special, address.Address{}, false
		}
	}

	target = m.ResolveBank(ins.Address, target)
	return m.AddressContext(ins.Address, target, false), target, true
}

// RowContext resolves the address cells of a decoded data row. The
// returned address is the row's single reference target, reported false
// when the row holds none or several.
func (m *Manager) RowContext(rowAddr address.Address, cells []data.Value) ([]Value, address.Address, bool) {
	values := make([]Value, 0, len(cells))
	var dest address.Address
	refs := 0

	for _, cell := range cells {
		if a, ok := cell.(data.Addr); ok {
			target := address.Address(a)
			refs++
			if refs == 1 {
				dest = target
			}
			values = append(values, m.AddressContext(rowAddr, target, false))
		} else {
			values = append(values, Scalar{Value: cell})
		}
	}

	if refs != 1 {
		return values, address.Address{}, false
	}
	return values, m.ResolveBank(rowAddr, dest), true
}

// SaveItems enumerates the commands that recreate the overrides, in
// address order with the scalar flag before the bank override.
func (m *Manager) SaveItems() []command.Command {
	var items []command.Command
	seen := map[address.Address]bool{}

	add := func(addr address.Address) {
		if seen[addr] {
			return
		}
		seen[addr] = true
		if m.forceScalar.Has(addr) {
			items = append(items, command.New("context", "set", "scalar", addr.String()))
		}
		if bank, ok := m.bankOverride.Get(addr); ok {
			items = append(items, command.New("context", "set", "bank",
				addr.String(), command.Int(bank)))
		}
	}

	scalars := m.forceScalar.Keys()
	banks := m.bankOverride.Keys()
	for len(scalars) > 0 || len(banks) > 0 {
		switch {
		case len(banks) == 0 || (len(scalars) > 0 && !banks[0].Before(scalars[0])):
			add(scalars[0])
			scalars = scalars[1:]
		default:
			add(banks[0])
			banks = banks[1:]
		}
	}
	return items
}
