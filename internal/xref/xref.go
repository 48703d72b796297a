// Package xref builds and stores the static cross-reference graph: who
// calls, jumps to, reads and writes an address. The graph is built by a
// best-effort linear sweep, missed edges are expected and can be declared
// manually, invented edges are not tolerated.
package xref

import (
	"github.com/retroenv/gbdisasm/internal/address"
	"github.com/retroenv/gbdisasm/internal/command"
	"github.com/retroenv/gbdisasm/internal/context"
	"github.com/retroenv/gbdisasm/internal/data"
	"github.com/retroenv/gbdisasm/internal/label"
	"github.com/retroenv/gbdisasm/internal/ordered"
	"github.com/retroenv/gbdisasm/internal/rom"
	"github.com/retroenv/gbdisasm/internal/sm83"
	"golang.org/x/exp/slices"
)

// Kind tags the link collections of the graph.
type Kind uint8

// Link kinds.
const (
	Call Kind = iota
	Jump
	Read
	Write
)

var kindNames = [...]string{"call", "jump", "read", "write"}

func (k Kind) String() string {
	return kindNames[k]
}

// KindByName resolves a link kind from its save command name.
func KindByName(name string) (Kind, bool) {
	for i, n := range kindNames {
		if n == name {
			return Kind(i), true
		}
	}
	return 0, false
}

// links is one bidirectional adjacency: every origin has at most one
// destination, a destination can have any number of origins.
type links struct {
	out *ordered.Map[address.Address, address.Address]
	in  *ordered.Map[address.Address, []address.Address]
}

func newLinks() *links {
	return &links{
		out: ordered.NewAddressMap[address.Address](),
		in:  ordered.NewAddressMap[[]address.Address](),
	}
}

func (l *links) clear() {
	l.out.Clear()
	l.in.Clear()
}

// set links origin to destination, replacing any previous link from the
// same origin.
func (l *links) set(from, to address.Address) {
	l.dropOut(from)
	l.out.Set(from, to)

	origins, _ := l.in.Get(to)
	pos, found := slices.BinarySearchFunc(origins, from, address.Address.Compare)
	if !found {
		l.in.Set(to, slices.Insert(origins, pos, from))
	}
}

// dropOut removes the outgoing link of the origin, including its reverse
// entry.
func (l *links) dropOut(from address.Address) {
	to, ok := l.out.Get(from)
	if !ok {
		return
	}
	l.out.Delete(from)

	origins, _ := l.in.Get(to)
	pos, found := slices.BinarySearchFunc(origins, from, address.Address.Compare)
	if !found {
		return
	}
	origins = slices.Delete(origins, pos, pos+1)
	if len(origins) == 0 {
		l.in.Delete(to)
	} else {
		l.in.Set(to, origins)
	}
}

// dropIn removes all links targeting the destination.
func (l *links) dropIn(to address.Address) {
	origins, ok := l.in.Get(to)
	if !ok {
		return
	}
	for _, from := range slices.Clone(origins) {
		l.out.Delete(from)
	}
	l.in.Delete(to)
}

func (l *links) target(from address.Address) (address.Address, bool) {
	return l.out.Get(from)
}

func (l *links) origins(to address.Address) []address.Address {
	origins, _ := l.in.Get(to)
	return slices.Clone(origins)
}

// XRefs are all links touching one address, in both directions.
type XRefs struct {
	Address address.Address

	CalledBy  []address.Address
	JumpedBy  []address.Address
	ReadBy    []address.Address
	WrittenBy []address.Address

	Calls  *address.Address
	Jumps  *address.Address
	Reads  *address.Address
	Writes *address.Address
}

// Manager holds the four link collections and runs the indexing sweeps.
type Manager struct {
	rom      *rom.Image
	data     *data.Manager
	labels   *label.Manager
	resolver *context.Manager

	collections [4]*links
}

// NewManager creates an empty cross-reference graph over the ROM image
// and its managers.
func NewManager(img *rom.Image, dataMgr *data.Manager, labels *label.Manager,
	resolver *context.Manager) *Manager {

	m := &Manager{
		rom:      img,
		data:     dataMgr,
		labels:   labels,
		resolver: resolver,
	}
	for i := range m.collections {
		m.collections[i] = newLinks()
	}
	return m
}

// Reset drops all links.
func (m *Manager) Reset() {
	for _, c := range m.collections {
		c.clear()
	}
}

// Declare inserts one manual link, replacing any previous link of the
// same kind from the same origin.
func (m *Manager) Declare(kind Kind, from, to address.Address) {
	m.collections[kind].set(from, to)
}

// Clear removes every link touching the address, in all collections and
// both directions.
func (m *Manager) Clear(addr address.Address) {
	for _, c := range m.collections {
		c.dropOut(addr)
		c.dropIn(addr)
	}
}

// XRefsAt returns all links touching the address.
func (m *Manager) XRefsAt(addr address.Address) XRefs {
	refs := XRefs{
		Address:   addr,
		CalledBy:  m.collections[Call].origins(addr),
		JumpedBy:  m.collections[Jump].origins(addr),
		ReadBy:    m.collections[Read].origins(addr),
		WrittenBy: m.collections[Write].origins(addr),
	}
	targets := []**address.Address{&refs.Calls, &refs.Jumps, &refs.Reads, &refs.Writes}
	for kind, c := range m.collections {
		if to, ok := c.target(addr); ok {
			*targets[kind] = &to
		}
	}
	return refs
}

// IndexAt rebuilds the outgoing links of the single instruction at the
// address, used after its resolution context changed.
func (m *Manager) IndexAt(addr address.Address) {
	for _, c := range m.collections {
		c.dropOut(addr)
	}
	if m.data.StartsAt(addr) {
		return
	}
	ins, err := m.rom.DecodeInstruction(addr)
	if err != nil || ins.Operation == sm83.Invalid {
		return
	}
	m.record(ins)
}

// record derives the outgoing link of one decoded instruction. Only
// concretely resolved targets produce links, and relative jumps none at
// all since their targets are implied by adjacency.
func (m *Manager) record(ins sm83.Instruction) {
	_, target, ok := m.resolver.InstructionContext(ins)
	if !ok {
		return
	}

	arg, _ := ins.Value()
	switch {
	case ins.Operation.IsCall():
		m.collections[Call].set(ins.Address, target)
	case ins.Operation == sm83.AbsJump:
		m.collections[Jump].set(ins.Address, target)
	case ins.Operation == sm83.Load || ins.Operation == sm83.LoadFast:
		switch arg.(type) {
		case sm83.Indirect, sm83.HighIndirect:
			if ins.ValuePos == 1 {
				m.collections[Write].set(ins.Address, target)
			} else {
				m.collections[Read].set(ins.Address, target)
			}
		}
	}
}

// IndexFrom sweeps straight-line code starting at the address and records
// the links of every instruction on the way. The sweep stops at a data
// segment, an invalid decode, an unconditional control transfer or the
// bank end. It returns the first address past the swept range.
func (m *Manager) IndexFrom(start address.Address) address.Address {
	bankEnd := start.BankEnd()
	pos := start

	for {
		if m.data.StartsAt(pos) {
			return pos
		}
		ins, err := m.rom.DecodeInstruction(pos)
		if err != nil || ins.Operation == sm83.Invalid {
			return pos
		}
		m.record(ins)

		pos = ins.NextAddress()
		if ins.EndsFlow() || pos.After(bankEnd) {
			return pos
		}
	}
}

// Index sweeps one ROM bank, seeding a sweep at every global label in it.
// Seeds already covered by the furthest point an earlier sweep reached
// are skipped, straight-line regions are never decoded twice.
func (m *Manager) Index(bank int) {
	var reached address.Address
	covered := false

	for _, seed := range m.labels.GlobalsIn(address.ROM, bank) {
		if covered && seed.Before(reached) {
			continue
		}
		end := m.IndexFrom(seed)
		if !covered || reached.Before(end) {
			reached = end
			covered = true
		}
	}
}

// SaveItems enumerates the commands that recreate the graph, grouped by
// kind in origin address order.
func (m *Manager) SaveItems() []command.Command {
	var items []command.Command
	for kind, c := range m.collections {
		for from, to := range c.out.All() {
			items = append(items, command.New("xref", "declare",
				Kind(kind).String(), from.String(), to.String()))
		}
	}
	return items
}
