// Package comment stores the free-form annotations of the database:
// inline comments rendered next to an element and block comments rendered
// above it.
package comment

import (
	"encoding/base64"
	"strings"
	"unicode"

	"github.com/retroenv/gbdisasm/internal/address"
	"github.com/retroenv/gbdisasm/internal/command"
	"github.com/retroenv/gbdisasm/internal/ordered"
)

// Manager stores comments keyed by address.
type Manager struct {
	inline *ordered.Map[address.Address, string]
	blocks *ordered.Map[address.Address, []string]
}

// NewManager creates an empty comment store.
func NewManager() *Manager {
	return &Manager{
		inline: ordered.NewAddressMap[string](),
		blocks: ordered.NewAddressMap[[]string](),
	}
}

// Reset drops all comments.
func (m *Manager) Reset() {
	m.inline.Clear()
	m.blocks.Clear()
}

// Clear removes all comments at the address.
func (m *Manager) Clear(addr address.Address) {
	m.inline.Delete(addr)
	m.blocks.Delete(addr)
}

// normalize replaces exotic whitespace and line breaks with plain spaces,
// comments are always single lines.
func normalize(text string) string {
	text = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		return r
	}, text)
	return strings.TrimRight(text, " ")
}

// SetInline sets the inline comment at the address, an empty comment
// removes it.
func (m *Manager) SetInline(addr address.Address, text string) {
	text = normalize(text)
	if text == "" {
		m.inline.Delete(addr)
		return
	}
	m.inline.Set(addr, text)
}

// Inline returns the inline comment at the address.
func (m *Manager) Inline(addr address.Address) string {
	text, _ := m.inline.Get(addr)
	return text
}

// AppendBlock appends one line to the block comment at the address.
func (m *Manager) AppendBlock(addr address.Address, text string) {
	m.InsertBlockLine(addr, -1, text)
}

// InsertBlockLine inserts one line into the block comment at the address.
// Out of range indexes append.
func (m *Manager) InsertBlockLine(addr address.Address, index int, text string) {
	text = normalize(text)
	block, _ := m.blocks.Get(addr)
	if index < 0 || index > len(block) {
		index = len(block)
	}
	block = append(block[:index], append([]string{text}, block[index:]...)...)
	m.blocks.Set(addr, block)
}

// RemoveBlockLine removes one line from the block comment at the address.
// Out of range indexes remove the last line, empty blocks are dropped.
func (m *Manager) RemoveBlockLine(addr address.Address, index int) {
	block, ok := m.blocks.Get(addr)
	if !ok || len(block) == 0 {
		m.blocks.Delete(addr)
		return
	}
	if index < 0 || index >= len(block) {
		index = len(block) - 1
	}
	block = append(block[:index], block[index+1:]...)
	if len(block) == 0 {
		m.blocks.Delete(addr)
		return
	}
	m.blocks.Set(addr, block)
}

// Block returns the block comment lines at the address.
func (m *Manager) Block(addr address.Address) []string {
	block, _ := m.blocks.Get(addr)
	return block
}

// Encode renders comment text as a single save command token.
func Encode(text string) string {
	return base64.StdEncoding.EncodeToString([]byte(text))
}

// Decode converts a save command token back into comment text.
func Decode(token string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// SaveItems enumerates the commands that recreate the comment store.
// Comment text is carried base64 encoded since command tokens cannot
// contain whitespace, empty lines carry no token at all.
func (m *Manager) SaveItems() []command.Command {
	var items []command.Command
	add := func(verb string, addr address.Address, text string) {
		cmd := command.New("comment", verb, addr.String())
		if text != "" {
			cmd = append(cmd, Encode(text))
		}
		items = append(items, cmd)
	}

	for addr, text := range m.inline.All() {
		add("inline", addr, text)
	}
	for addr, block := range m.blocks.All() {
		for _, line := range block {
			add("append", addr, line)
		}
	}
	return items
}
