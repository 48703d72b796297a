package label

import (
	"fmt"
	"strings"

	"github.com/retroenv/gbdisasm/internal/address"
	"github.com/retroenv/gbdisasm/internal/command"
	"github.com/retroenv/gbdisasm/internal/ordered"
)

// Manager is the symbol table. Globals and locals are stored separately,
// the combined per-address and per-name views are derived indexes that
// are rebuilt from scratch after every mutation: moving or removing a
// global label can shift the scope of local labels anywhere after it, so
// incremental patching is not worth the risk at this data scale.
type Manager struct {
	globals *ordered.Map[address.Address, []string]
	locals  *ordered.Map[address.Address, []string]

	all    *ordered.Map[address.Address, []Label]
	byName *ordered.StringMap[address.Address]
}

// NewManager creates an empty symbol table.
func NewManager() *Manager {
	return &Manager{
		globals: ordered.NewAddressMap[[]string](),
		locals:  ordered.NewAddressMap[[]string](),
		all:     ordered.NewAddressMap[[]Label](),
		byName:  ordered.NewStringMap[address.Address](),
	}
}

// Reset drops all labels.
func (m *Manager) Reset() {
	m.globals.Clear()
	m.locals.Clear()
	m.all.Clear()
	m.byName.Clear()
}

func (m *Manager) rebuild() {
	m.all.Clear()
	m.byName.Clear()

	for addr, names := range m.globals.All() {
		for _, name := range names {
			m.appendAll(addr, Label{Address: addr, GlobalName: name})
			m.byName.Set(name, addr)
		}
	}

	for addr, names := range m.locals.All() {
		_, scopeNames, ok := m.globals.Floor(addr)
		if !ok {
			continue
		}
		scope := scopeNames[len(scopeNames)-1]

		for _, name := range names {
			l := Label{Address: addr, GlobalName: scope, LocalName: name}
			m.appendAll(addr, l)
			m.byName.Set(l.Name(), addr)
		}
	}
}

func (m *Manager) appendAll(addr address.Address, l Label) {
	labels, _ := m.all.Get(addr)
	m.all.Set(addr, append(labels, l))
}

// At returns all labels placed exactly at the address.
func (m *Manager) At(addr address.Address) []Label {
	labels, _ := m.all.Get(addr)
	return labels
}

// Lookup resolves a qualified name into its label.
func (m *Manager) Lookup(name string) (Label, bool) {
	addr, ok := m.byName.Get(name)
	if !ok {
		return Label{}, false
	}
	global, local, _ := strings.Cut(name, Separator)
	return Label{Address: addr, GlobalName: global, LocalName: local}, true
}

// Has reports whether a label with the qualified name exists.
func (m *Manager) Has(name string) bool {
	return m.byName.Has(name)
}

// List returns all labels in address order.
func (m *Manager) List() []Label {
	var out []Label
	for _, labels := range m.all.All() {
		out = append(out, labels...)
	}
	return out
}

// Search yields the label names starting with the prefix. An unqualified
// prefix matches only global names, a prefix containing the separator
// only qualified local names, keeping the two namespaces apart.
func (m *Manager) Search(prefix string) []string {
	searchLocal := strings.Contains(prefix, Separator)
	var out []string
	for name := range m.byName.Search(prefix) {
		if searchLocal == strings.Contains(name, Separator) {
			out = append(out, name)
		}
	}
	return out
}

// ScopeAt returns the global label names whose scope covers the address:
// the closest global at or before it in the same zone and bank.
func (m *Manager) ScopeAt(addr address.Address) (address.Address, []string, bool) {
	scopeAddr, names, ok := m.globals.Floor(addr)
	if !ok {
		return address.Address{}, nil, false
	}
	if scopeAddr.Zone != addr.Zone || scopeAddr.Bank != addr.Bank {
		return address.Address{}, nil, false
	}
	return scopeAddr, names, true
}

// GlobalsIn returns the addresses of all global labels in one ROM bank,
// in ascending order.
func (m *Manager) GlobalsIn(zone address.Zone, bank int) []address.Address {
	var out []address.Address
	for addr := range m.globals.From(address.New(zone, bank, 0)) {
		if addr.Zone != zone || addr.Bank != bank {
			break
		}
		out = append(out, addr)
	}
	return out
}

// localEntry is one local label of a scope.
type localEntry struct {
	addr address.Address
	name string
}

// localsAt collects the local labels between the address and the next
// global label.
func (m *Manager) localsAt(addr address.Address) []localEntry {
	scopeEnd, _, bounded := m.globals.Higher(addr)

	var out []localEntry
	for pos, names := range m.locals.From(addr) {
		if bounded && !pos.Before(scopeEnd) {
			break
		}
		for _, name := range names {
			out = append(out, localEntry{addr: pos, name: name})
		}
	}
	return out
}

// LocalsAt returns the local labels between the address and the next
// global label.
func (m *Manager) LocalsAt(addr address.Address) []Label {
	entries := m.localsAt(addr)
	out := make([]Label, 0, len(entries))
	for _, e := range entries {
		out = append(out, Label{Address: e.addr, LocalName: e.name})
	}
	return out
}

// Create registers a label. Names containing the separator create local
// labels inside the covering scope, plain names create global labels.
func (m *Manager) Create(addr address.Address, name string) error {
	if strings.Contains(name, Separator) {
		return m.addLocal(addr, name)
	}
	return m.addGlobal(addr, name)
}

// AutoCreate registers a label with a derived name.
func (m *Manager) AutoCreate(addr address.Address, local bool) error {
	name, err := AutoName(addr, local)
	if err != nil {
		return err
	}
	return m.Create(addr, name)
}

func (m *Manager) addLocal(addr address.Address, name string) error {
	global, local, _ := strings.Cut(name, Separator)
	if local == "" || strings.Contains(local, Separator) {
		return fmt.Errorf("invalid label name %q", name)
	}

	scopeStart, scopeNames, ok := m.ScopeAt(addr)
	if !ok {
		return fmt.Errorf("local labels must be in scope of a global label")
	}
	if global != "" && !contains(scopeNames, global) {
		return fmt.Errorf("global label %s not in scope at %s", global, addr)
	}

	scopeName := scopeNames[len(scopeNames)-1]
	for _, e := range m.localsAt(scopeStart) {
		if e.name == local {
			return fmt.Errorf("label %s%s%s already exists", scopeName, Separator, local)
		}
	}

	names, _ := m.locals.Get(addr)
	m.locals.Set(addr, append(names, local))
	m.rebuild()
	return nil
}

func (m *Manager) addGlobal(addr address.Address, name string) error {
	if name == "" {
		return fmt.Errorf("empty label name")
	}

	if existing, ok := m.byName.Get(name); ok {
		if existing == addr {
			return nil
		}
		return fmt.Errorf("label %s already exists at %s", name, existing)
	}

	names, _ := m.globals.Get(addr)
	m.globals.Set(addr, append(names, name))
	m.rebuild()
	return nil
}

// Rename changes the name of an existing label. Global renames swap the
// stored name, local renames keep the label in its scope and take the
// new name as a bare separator-prefixed suffix.
func (m *Manager) Rename(oldName, newName string) error {
	addr, ok := m.byName.Get(oldName)
	if !ok {
		return fmt.Errorf("label %s not found", oldName)
	}
	if oldName == newName {
		return nil
	}
	if m.byName.Has(newName) {
		return fmt.Errorf("label %s already exists", newName)
	}

	if strings.Contains(oldName, Separator) {
		if err := m.renameLocal(addr, oldName, newName); err != nil {
			return err
		}
	} else {
		if strings.Contains(newName, Separator) {
			return fmt.Errorf("global labels cannot contain %q", Separator)
		}
		globalsHere, _ := m.globals.Get(addr)
		replace(globalsHere, oldName, newName)
	}

	m.rebuild()
	return nil
}

func (m *Manager) renameLocal(addr address.Address, oldName, newName string) error {
	_, oldLocal, _ := strings.Cut(oldName, Separator)
	newGlobal, newLocal, hasSep := strings.Cut(newName, Separator)
	if !hasSep || newLocal == "" || strings.Contains(newLocal, Separator) {
		return fmt.Errorf("invalid local label name %q", newName)
	}
	if newGlobal != "" {
		return fmt.Errorf("local label rename must use %s<name>", Separator)
	}

	scopeStart, _, ok := m.ScopeAt(addr)
	if !ok {
		return fmt.Errorf("label %s has no scope", oldName)
	}
	for _, e := range m.localsAt(scopeStart) {
		if e.name == newLocal {
			return fmt.Errorf("label %s%s already exists in scope", Separator, newLocal)
		}
	}

	localsHere, _ := m.locals.Get(addr)
	replace(localsHere, oldLocal, newLocal)
	return nil
}

// Delete removes the label with the qualified name. Deleting the sole
// global label of an address that still owns local labels is only legal
// when a previous global label in the same zone and bank can inherit
// them without name conflicts.
func (m *Manager) Delete(name string) error {
	addr, ok := m.byName.Get(name)
	if !ok {
		return fmt.Errorf("label %s not found", name)
	}

	if strings.Contains(name, Separator) {
		_, local, _ := strings.Cut(name, Separator)
		localsHere, _ := m.locals.Get(addr)
		if len(localsHere) == 1 {
			m.locals.Delete(addr)
		} else {
			m.locals.Set(addr, remove(localsHere, local))
		}
		m.rebuild()
		return nil
	}

	globalsHere, _ := m.globals.Get(addr)
	localsHere := m.localsAt(addr)

	if len(localsHere) > 0 && len(globalsHere) == 1 {
		// The locals have to be transplanted into the previous scope.
		// The new scope is looked up one byte before the deleted
		// global, so a local sitting exactly on the boundary moves
		// with the rest.
		if addr.Offset == 0 {
			return fmt.Errorf("no new global label found for locals of %s", name)
		}
		newScope, _, ok := m.ScopeAt(addr.Sub(1))
		if !ok {
			return fmt.Errorf("no new global label found for locals of %s", name)
		}

		var conflicts []string
		for _, have := range m.localsAt(newScope) {
			for _, moved := range localsHere {
				if have.name == moved.name {
					conflicts = append(conflicts, have.name)
				}
			}
		}
		if len(conflicts) > 0 {
			return fmt.Errorf(
				"local labels with same names already exist in the new scope: %s",
				strings.Join(conflicts, ", "))
		}
	}

	if len(globalsHere) == 1 {
		m.globals.Delete(addr)
	} else {
		m.globals.Set(addr, remove(globalsHere, name))
	}
	m.rebuild()
	return nil
}

// SaveItems enumerates the commands that recreate the symbol table, in
// address order with globals before their locals.
func (m *Manager) SaveItems() []command.Command {
	var items []command.Command
	for addr, labels := range m.all.All() {
		for _, l := range labels {
			items = append(items, command.New("label", "create", addr.String(), l.Name()))
		}
	}
	return items
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func replace(names []string, old, new string) {
	for i, n := range names {
		if n == old {
			names[i] = new
			return
		}
	}
}

func remove(names []string, name string) []string {
	for i, n := range names {
		if n == name {
			return append(names[:i], names[i+1:]...)
		}
	}
	return names
}
