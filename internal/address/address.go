package address

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// UnknownBank marks an address whose bank could not be resolved yet.
const UnknownBank = -1

// ErrUnresolvedBank is returned when a file offset is requested for an
// address whose bank is not known.
var ErrUnresolvedBank = errors.New("bank is unresolved")

// Address is an unambiguous location: a zone, a bank inside that zone and
// an offset inside the bank window. It is an immutable value type,
// arithmetic never rolls over into the next bank.
type Address struct {
	Zone   Zone
	Bank   int
	Offset int
}

// New creates an address from its raw parts.
func New(zone Zone, bank, offset int) Address {
	return Address{Zone: zone, Bank: bank, Offset: offset}
}

// FromROMOffset converts a ROM file offset into a banked ROM address.
func FromROMOffset(offset int) Address {
	return Address{
		Zone:   ROM,
		Bank:   offset / ROMBankSize,
		Offset: offset % ROMBankSize,
	}
}

// FromMemoryAddress converts a 16-bit address as seen by the CPU. For
// addresses inside a switchable bank window the bank is unknown.
func FromMemoryAddress(addr uint16) Address {
	zone := ROM
	for _, z := range Zones() {
		if int(addr) >= int(z.Base()) && int(addr) < z.End() {
			zone = z
			break
		}
	}

	offset := int(addr) - int(zone.Base())
	bank := 0
	if zone.Banked() && offset >= zone.BankStart() {
		bank = UnknownBank
		offset -= zone.BankStart()
	}
	return Address{Zone: zone, Bank: bank, Offset: offset}
}

// MemoryAddress returns the address as seen by the CPU, assuming the bank
// is mapped into its switchable window.
func (a Address) MemoryAddress() uint16 {
	offset := a.Offset + int(a.Zone.Base())
	if a.Zone.Banked() && a.Bank != 0 {
		offset += a.Zone.BankStart()
	}
	return uint16(offset)
}

// FileOffset returns the offset of the address in the ROM file.
func (a Address) FileOffset() (int, error) {
	if a.Zone != ROM {
		return 0, fmt.Errorf("%s is not a ROM address", a)
	}
	if a.Bank < 0 {
		return 0, fmt.Errorf("file offset of %s: %w", a, ErrUnresolvedBank)
	}
	return a.Bank*ROMBankSize + a.Offset, nil
}

// BankEnd returns the last address of the bank window the address lives in.
func (a Address) BankEnd() Address {
	size := a.Zone.Size()
	if a.Zone.Banked() {
		switch start := a.Zone.BankStart(); {
		case start == 0:
			// whole zone switchable
		case a.Bank == 0:
			size = start
		default:
			size -= start
		}
	}
	return Address{Zone: a.Zone, Bank: a.Bank, Offset: size - 1}
}

// IsValid reports whether the bank is resolved and the offset lies inside
// the bank window.
func (a Address) IsValid() bool {
	if a.Bank < 0 {
		return false
	}
	size := a.Zone.Size()
	if a.Zone.Banked() && a.Zone.BankStart() > 0 {
		if a.Bank > 0 {
			size -= a.Zone.BankStart()
		} else {
			size = a.Zone.BankStart()
		}
	}
	return a.Offset >= 0 && a.Offset < size
}

// Add returns the address moved by the given number of bytes. The bank
// never changes.
func (a Address) Add(n int) Address {
	return Address{Zone: a.Zone, Bank: a.Bank, Offset: a.Offset + n}
}

// Sub returns the address moved back by the given number of bytes.
func (a Address) Sub(n int) Address {
	return a.Add(-n)
}

// Compare orders addresses by zone, then bank, then offset.
func (a Address) Compare(b Address) int {
	switch {
	case a.Zone != b.Zone:
		if a.Zone < b.Zone {
			return -1
		}
		return 1
	case a.Bank != b.Bank:
		if a.Bank < b.Bank {
			return -1
		}
		return 1
	case a.Offset != b.Offset:
		if a.Offset < b.Offset {
			return -1
		}
		return 1
	default:
		return 0
	}
}

// Before reports whether a sorts before b.
func (a Address) Before(b Address) bool {
	return a.Compare(b) < 0
}

// After reports whether a sorts after b.
func (a Address) After(b Address) bool {
	return a.Compare(b) > 0
}

// String renders the canonical textual form, for example ROM.2:4123 or
// HRAM:ff85. Parse accepts the output unchanged.
func (a Address) String() string {
	bank := ""
	if a.Zone.Banked() {
		if a.Bank >= 0 {
			bank = fmt.Sprintf(".%x", a.Bank)
		} else {
			bank = ".X"
		}
	}
	return fmt.Sprintf("%s%s:%04x", a.Zone, bank, a.MemoryAddress())
}

// Textual address grammar: an optional zone abbreviation and hex bank
// number (or X for an unknown bank) before a colon, or a bare $/0x hex
// literal meaning a plain 16-bit memory address. Offsets are limited to
// 4 hex digits.
var addrRe = regexp.MustCompile(
	`(?i)^(?:0x|\$|(?:([A-Z]{3,4})?\.?([0-9A-F]+|X)?:))([0-9A-F]{1,4})$`)

// Parse converts the textual form back into an address.
func Parse(s string) (Address, error) {
	match := addrRe.FindStringSubmatch(s)
	if match == nil {
		return Address{}, fmt.Errorf("invalid address %q", s)
	}
	zoneName, bankStr := match[1], match[2]

	offset64, err := strconv.ParseInt(match[3], 16, 32)
	if err != nil {
		return Address{}, fmt.Errorf("invalid address offset %q: %w", s, err)
	}
	offset := int(offset64)

	if zoneName == "" && bankStr == "" {
		if offset > 0xffff {
			return Address{}, fmt.Errorf("address %q out of range", s)
		}
		return FromMemoryAddress(uint16(offset)), nil
	}

	bank := UnknownBank
	if bankStr != "" && !strings.EqualFold(bankStr, "X") {
		bank64, err := strconv.ParseInt(bankStr, 16, 32)
		if err != nil {
			return Address{}, fmt.Errorf("invalid bank in %q: %w", s, err)
		}
		bank = int(bank64)
	}

	zone := ROM
	if zoneName != "" {
		var ok bool
		zone, ok = zoneByName(strings.ToUpper(zoneName))
		if !ok {
			return Address{}, fmt.Errorf("unknown memory zone in %q", s)
		}
	}

	offset -= int(zone.Base())
	if offset < 0 || offset >= zone.Size() {
		return Address{}, fmt.Errorf("offset not in range for %s", zone)
	}

	if start := zone.BankStart(); zone.Banked() && start > 0 {
		switch {
		case bank != 0 && offset < start:
			return Address{}, fmt.Errorf(
				"offset not in the banked %s, did you mean %s.0:%04x?",
				zone, zone, offset+int(zone.Base()))
		case bank == 0 && offset >= start:
			return Address{}, errors.New("offset too large for bank 0")
		case bank != 0:
			offset -= start
		}
	} else if !zone.Banked() {
		bank = 0
	}

	return Address{Zone: zone, Bank: bank, Offset: offset}, nil
}
