// Package rom holds the raw cartridge ROM image and decodes bytes,
// words and instructions at global addresses.
package rom

import (
	"fmt"
	"io"

	"github.com/retroenv/gbdisasm/internal/address"
	"github.com/retroenv/gbdisasm/internal/sm83"
)

// Image is the raw ROM file, fully kept in memory.
type Image struct {
	data []byte
}

// New wraps an already loaded ROM dump.
func New(data []byte) *Image {
	return &Image{data: data}
}

// Load reads a full ROM image from the reader.
func Load(r io.Reader) (*Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading ROM: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty ROM file")
	}
	return New(data), nil
}

// Size returns the image size in bytes.
func (img *Image) Size() int {
	return len(img.data)
}

// Banks returns the number of 16 KiB ROM banks in the image.
func (img *Image) Banks() int {
	return (len(img.data) + address.ROMBankSize - 1) / address.ROMBankSize
}

// Byte returns the byte at the file offset, 0 past the end of the image.
func (img *Image) Byte(offset int) byte {
	if offset < 0 || offset >= len(img.data) {
		return 0
	}
	return img.data[offset]
}

// Word returns the little-endian word at the file offset.
func (img *Image) Word(offset int) uint16 {
	return uint16(img.Byte(offset)) | uint16(img.Byte(offset+1))<<8
}

// Slice returns a copy of the bytes in [offset, offset+size), clamped to
// the image.
func (img *Image) Slice(offset, size int) []byte {
	if offset < 0 || offset >= len(img.data) || size <= 0 {
		return nil
	}
	end := offset + size
	if end > len(img.data) {
		end = len(img.data)
	}
	out := make([]byte, end-offset)
	copy(out, img.data[offset:end])
	return out
}

// Contains reports whether the address maps to a byte of the image.
func (img *Image) Contains(addr address.Address) bool {
	offset, err := addr.FileOffset()
	return err == nil && offset < len(img.data)
}

// DecodeInstruction decodes the instruction starting at the address.
// Decoding never fails, malformed input yields an Invalid instruction.
func (img *Image) DecodeInstruction(addr address.Address) (sm83.Instruction, error) {
	offset, err := addr.FileOffset()
	if err != nil {
		return sm83.Instruction{}, err
	}
	if offset >= len(img.data) {
		return sm83.Instruction{}, fmt.Errorf("offset %06x is outside the ROM", offset)
	}

	end := offset + 3 // longest encoding
	if end > len(img.data) {
		end = len(img.data)
	}
	return sm83.Decode(addr, img.data[offset:end]), nil
}
