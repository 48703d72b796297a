// Package address models the overlapping address spaces of a Game Boy
// cartridge: raw ROM file offsets, the banked ROM window and the 16-bit
// address space visible to the CPU. An Address is an unambiguous global
// location that can be converted between those spaces where defined.
package address

// Zone is a named region of the 16-bit memory map.
type Zone uint8

// Memory zones in ascending memory map order. The order is also the
// primary sort key for addresses.
const (
	ROM Zone = iota // cartridge ROM, banked
	VRAM
	SRAM
	WRAM
	Echo
	OAM
	Reserved
	IOR
	HRAM
)

const (
	// ROMBankSize is the size of one switchable ROM bank.
	ROMBankSize = 0x4000

	// MaxROMBanks is the largest bank count an MBC can address.
	MaxROMBanks = 512
)

type zoneInfo struct {
	name string
	base uint16
	size int

	// banked zones only: offset inside the zone at which the switchable
	// window starts. A window starting at 0 means the whole zone is
	// switchable and a plain memory address can not identify the bank.
	bankStart int
	banked    bool
}

var zones = [...]zoneInfo{
	ROM:      {name: "ROM", base: 0x0000, size: 0x8000, bankStart: 0x4000, banked: true},
	VRAM:     {name: "VRAM", base: 0x8000, size: 0x2000, bankStart: 0, banked: true},
	SRAM:     {name: "SRAM", base: 0xa000, size: 0x2000, bankStart: 0, banked: true},
	WRAM:     {name: "WRAM", base: 0xc000, size: 0x2000, bankStart: 0x1000, banked: true},
	Echo:     {name: "ECHO", base: 0xe000, size: 0x1e00},
	OAM:      {name: "OAM", base: 0xfe00, size: 0xa0},
	Reserved: {name: "RSV", base: 0xfea0, size: 0x60},
	IOR:      {name: "IOR", base: 0xff00, size: 0x80},
	HRAM:     {name: "HRAM", base: 0xff80, size: 0x80},
}

// Zones lists all memory zones in memory map order.
func Zones() []Zone {
	all := make([]Zone, len(zones))
	for i := range zones {
		all[i] = Zone(i)
	}
	return all
}

// String returns the zone abbreviation used in the textual address form.
func (z Zone) String() string {
	return zones[z].name
}

// Base returns the first memory address of the zone.
func (z Zone) Base() uint16 {
	return zones[z].base
}

// Size returns the zone size in bytes.
func (z Zone) Size() int {
	return zones[z].size
}

// End returns the first memory address after the zone.
func (z Zone) End() int {
	return int(zones[z].base) + zones[z].size
}

// Banked reports whether the zone maps switchable banks.
func (z Zone) Banked() bool {
	return zones[z].banked
}

// BankStart returns the offset inside the zone at which the switchable
// window begins. Only meaningful for banked zones.
func (z Zone) BankStart() int {
	return zones[z].bankStart
}

// zoneByName resolves a zone abbreviation, case already folded to upper.
func zoneByName(name string) (Zone, bool) {
	for i, info := range zones {
		if info.name == name {
			return Zone(i), true
		}
	}
	return 0, false
}
