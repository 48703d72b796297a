// Package ordered provides a sorted key/value map with predecessor,
// successor and prefix queries. It backs every address- or name-keyed
// index of the disassembly database.
package ordered

import (
	"iter"
	"strings"

	"github.com/retroenv/gbdisasm/internal/address"
	"golang.org/x/exp/slices"
)

// Map is a key/value store kept sorted on every mutation. Keys and values
// live in two parallel slices, lookups are binary searches.
type Map[K, V any] struct {
	cmp    func(a, b K) int
	keys   []K
	values []V
}

// NewMap creates an empty map ordered by the given comparison function.
func NewMap[K, V any](cmp func(a, b K) int) *Map[K, V] {
	return &Map[K, V]{cmp: cmp}
}

// NewAddressMap creates an empty map keyed by addresses in their total
// order.
func NewAddressMap[V any]() *Map[address.Address, V] {
	return NewMap[address.Address, V](address.Address.Compare)
}

// Len returns the number of entries.
func (m *Map[K, V]) Len() int {
	return len(m.keys)
}

// Clear removes all entries.
func (m *Map[K, V]) Clear() {
	m.keys = m.keys[:0]
	m.values = m.values[:0]
}

// Get returns the value stored at the exact key.
func (m *Map[K, V]) Get(key K) (V, bool) {
	pos, found := slices.BinarySearchFunc(m.keys, key, m.cmp)
	if !found {
		var zero V
		return zero, false
	}
	return m.values[pos], true
}

// Has reports whether the exact key is present.
func (m *Map[K, V]) Has(key K) bool {
	_, found := slices.BinarySearchFunc(m.keys, key, m.cmp)
	return found
}

// Set stores the value at the key, replacing any previous value.
func (m *Map[K, V]) Set(key K, value V) {
	pos, found := slices.BinarySearchFunc(m.keys, key, m.cmp)
	if found {
		m.values[pos] = value
		return
	}
	m.keys = slices.Insert(m.keys, pos, key)
	m.values = slices.Insert(m.values, pos, value)
}

// Delete removes the entry at the exact key and reports whether one
// existed.
func (m *Map[K, V]) Delete(key K) bool {
	pos, found := slices.BinarySearchFunc(m.keys, key, m.cmp)
	if !found {
		return false
	}
	m.keys = slices.Delete(m.keys, pos, pos+1)
	m.values = slices.Delete(m.values, pos, pos+1)
	return true
}

// Floor returns the entry with the largest key <= the given key.
func (m *Map[K, V]) Floor(key K) (K, V, bool) {
	pos, found := slices.BinarySearchFunc(m.keys, key, m.cmp)
	if !found {
		pos--
	}
	return m.at(pos)
}

// Ceil returns the entry with the smallest key >= the given key.
func (m *Map[K, V]) Ceil(key K) (K, V, bool) {
	pos, _ := slices.BinarySearchFunc(m.keys, key, m.cmp)
	return m.at(pos)
}

// Higher returns the entry with the smallest key > the given key.
func (m *Map[K, V]) Higher(key K) (K, V, bool) {
	pos, found := slices.BinarySearchFunc(m.keys, key, m.cmp)
	if found {
		pos++
	}
	return m.at(pos)
}

func (m *Map[K, V]) at(pos int) (K, V, bool) {
	if pos < 0 || pos >= len(m.keys) {
		var k K
		var v V
		return k, v, false
	}
	return m.keys[pos], m.values[pos], true
}

// All iterates over all entries in ascending key order.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	var start K
	if len(m.keys) > 0 {
		start = m.keys[0]
	}
	return m.From(start)
}

// From iterates in ascending key order, starting at the smallest key >=
// start. The sequence is restartable and reads the live map, entries
// inserted behind the cursor during iteration are not revisited.
func (m *Map[K, V]) From(start K) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		pos, _ := slices.BinarySearchFunc(m.keys, start, m.cmp)
		for ; pos < len(m.keys); pos++ {
			if !yield(m.keys[pos], m.values[pos]) {
				return
			}
		}
	}
}

// Keys returns a copy of all keys in ascending order.
func (m *Map[K, V]) Keys() []K {
	return slices.Clone(m.keys)
}

// StringMap is an ordered map with string keys that supports prefix
// searches, used for the label name index.
type StringMap[V any] struct {
	Map[string, V]
}

// NewStringMap creates an empty string-keyed map.
func NewStringMap[V any]() *StringMap[V] {
	return &StringMap[V]{Map: Map[string, V]{cmp: strings.Compare}}
}

// Search yields all keys starting with the given prefix, in order.
func (m *StringMap[V]) Search(prefix string) iter.Seq[string] {
	return func(yield func(string) bool) {
		pos, _ := slices.BinarySearchFunc(m.keys, prefix, m.cmp)
		for ; pos < len(m.keys); pos++ {
			key := m.keys[pos]
			if !strings.HasPrefix(key, prefix) {
				return
			}
			if !yield(key) {
				return
			}
		}
	}
}
