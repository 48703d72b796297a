package rom

import (
	"strings"

	"github.com/retroenv/gbdisasm/internal/address"
)

// Header locations in the ROM file.
const (
	EntryPointOffset = 0x100
	HeaderOffset     = 0x104
	HeaderSize       = 0x4c

	titleOffset    = 0x134
	cgbFlagOffset  = 0x143
	sgbFlagOffset  = 0x146
	cartTypeOffset = 0x147
	romSizeOffset  = 0x148
	ramSizeOffset  = 0x149
	versionOffset  = 0x14c
	checksumOffset = 0x14d
)

// Header is the decoded cartridge header metadata.
type Header struct {
	Title         string
	CGB           byte
	SGB           bool
	CartridgeType byte
	ROMBanks      int
	RAMSizeCode   byte
	Version       byte
	ChecksumOK    bool
}

// Header decodes the cartridge header of the image.
func (img *Image) Header() Header {
	title := img.Slice(titleOffset, 15)
	if cut := strings.IndexByte(string(title), 0); cut >= 0 {
		title = title[:cut]
	}

	var checksum byte
	for offset := titleOffset; offset < checksumOffset; offset++ {
		checksum = checksum - img.Byte(offset) - 1
	}

	return Header{
		Title:         strings.TrimRight(string(title), " "),
		CGB:           img.Byte(cgbFlagOffset),
		SGB:           img.Byte(sgbFlagOffset) == 0x03,
		CartridgeType: img.Byte(cartTypeOffset),
		ROMBanks:      2 << img.Byte(romSizeOffset),
		RAMSizeCode:   img.Byte(ramSizeOffset),
		Version:       img.Byte(versionOffset),
		ChecksumOK:    checksum == img.Byte(checksumOffset),
	}
}

// MainEntry returns the address the cartridge entry point jumps to. The
// common convention is a nop followed by jp at $0100, a bare jp is also
// accepted.
func (img *Image) MainEntry() (address.Address, bool) {
	switch {
	case img.Byte(EntryPointOffset) == 0xc3:
		return address.FromMemoryAddress(img.Word(EntryPointOffset + 1)), true
	case img.Byte(EntryPointOffset) == 0x00 && img.Byte(EntryPointOffset+1) == 0xc3:
		return address.FromMemoryAddress(img.Word(EntryPointOffset + 2)), true
	default:
		return address.Address{}, false
	}
}
