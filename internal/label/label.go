// Package label maintains the two-level symbol namespace of the
// database. Global labels are unique across the whole program, local
// labels only inside their scope: the address range from one global
// label up to the next global label in the same zone and bank.
package label

import (
	"fmt"

	"github.com/retroenv/gbdisasm/internal/address"
)

// Separator splits a global scope name from a local suffix.
const Separator = "."

// Label is one symbol at an address. Local labels carry the name of the
// global label whose scope they live in.
type Label struct {
	Address    address.Address
	GlobalName string
	LocalName  string
}

// Name returns the qualified name of the label.
func (l Label) Name() string {
	if l.LocalName != "" {
		return l.GlobalName + Separator + l.LocalName
	}
	return l.GlobalName
}

// IsLocal reports whether the label is a local one.
func (l Label) IsLocal() bool {
	return l.LocalName != ""
}

func (l Label) String() string {
	return l.Name()
}

// AutoName derives the name for an automatically created label.
func AutoName(addr address.Address, local bool) (string, error) {
	if addr.Bank < 0 {
		return "", fmt.Errorf("cannot place label at unknown bank %s", addr)
	}
	name := fmt.Sprintf("auto_%s_%x_%04x", addr.Zone, addr.Bank, addr.MemoryAddress())
	if local {
		name = Separator + name
	}
	return name, nil
}
