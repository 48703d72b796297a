// Package section manages named anchors in the address space. Sections
// split the output listing into named parts, independent of labels and
// data segments.
package section

import (
	"fmt"
	"strings"

	"github.com/retroenv/gbdisasm/internal/address"
	"github.com/retroenv/gbdisasm/internal/command"
	"github.com/retroenv/gbdisasm/internal/ordered"
)

// Section is a named anchor at an address.
type Section struct {
	Address address.Address
	Name    string
}

// Manager maps addresses to section names. Both the address and the name
// of a section are unique.
type Manager struct {
	sections *ordered.Map[address.Address, string]
}

// NewManager creates an empty section table.
func NewManager() *Manager {
	return &Manager{sections: ordered.NewAddressMap[string]()}
}

// Reset drops all sections.
func (m *Manager) Reset() {
	m.sections.Clear()
}

// Create registers a section. Recreating an identical section is a no-op.
func (m *Manager) Create(addr address.Address, name string) error {
	if name == "" || strings.ContainsAny(name, "\" \t") {
		return fmt.Errorf("invalid section name %q", name)
	}

	if existing, ok := m.sections.Get(addr); ok {
		if existing == name {
			return nil
		}
		return fmt.Errorf("there is already a section at %s", addr)
	}
	for _, existing := range m.sections.All() {
		if existing == name {
			return fmt.Errorf("there is already a section named %s", name)
		}
	}

	m.sections.Set(addr, name)
	return nil
}

// Delete removes the section starting exactly at the address.
func (m *Manager) Delete(addr address.Address) error {
	if !m.sections.Delete(addr) {
		return fmt.Errorf("no section starts at %s", addr)
	}
	return nil
}

// Get returns the section starting exactly at the address.
func (m *Manager) Get(addr address.Address) (Section, bool) {
	name, ok := m.sections.Get(addr)
	if !ok {
		return Section{}, false
	}
	return Section{Address: addr, Name: name}, true
}

// List returns all sections in address order.
func (m *Manager) List() []Section {
	out := make([]Section, 0, m.sections.Len())
	for addr, name := range m.sections.All() {
		out = append(out, Section{Address: addr, Name: name})
	}
	return out
}

// SaveItems enumerates the commands that recreate the section table.
func (m *Manager) SaveItems() []command.Command {
	items := make([]command.Command, 0, m.sections.Len())
	for addr, name := range m.sections.All() {
		items = append(items, command.New("section", "create", addr.String(), name))
	}
	return items
}
