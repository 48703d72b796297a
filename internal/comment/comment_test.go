package comment

import (
	"testing"

	"github.com/retroenv/gbdisasm/internal/address"
	"github.com/retroenv/retrogolib/assert"
)

func TestInline(t *testing.T) {
	m := NewManager()
	addr := address.FromROMOffset(0x150)

	m.SetInline(addr, "game entry point")
	assert.Equal(t, "game entry point", m.Inline(addr))
	assert.Equal(t, "", m.Inline(addr.Add(1)))

	t.Run("whitespace is normalized", func(t *testing.T) {
		m.SetInline(addr, "line\nbreak\ttab  ")
		assert.Equal(t, "line break tab", m.Inline(addr))
	})

	t.Run("empty comment removes", func(t *testing.T) {
		m.SetInline(addr, "   ")
		assert.Equal(t, "", m.Inline(addr))
		assert.Equal(t, 0, len(m.SaveItems()))
	})
}

func TestBlock(t *testing.T) {
	m := NewManager()
	addr := address.FromROMOffset(0x150)

	m.AppendBlock(addr, "first")
	m.AppendBlock(addr, "third")
	m.InsertBlockLine(addr, 1, "second")
	assert.Equal(t, []string{"first", "second", "third"}, m.Block(addr))

	t.Run("out of range insert appends", func(t *testing.T) {
		m.InsertBlockLine(addr, 99, "last")
		assert.Equal(t, 4, len(m.Block(addr)))
		assert.Equal(t, "last", m.Block(addr)[3])
	})

	t.Run("remove lines", func(t *testing.T) {
		m.RemoveBlockLine(addr, 3)
		m.RemoveBlockLine(addr, 0)
		assert.Equal(t, []string{"second", "third"}, m.Block(addr))

		// out of range removes the last line
		m.RemoveBlockLine(addr, 99)
		assert.Equal(t, []string{"second"}, m.Block(addr))

		// dropping the final line drops the block
		m.RemoveBlockLine(addr, 0)
		assert.Equal(t, 0, len(m.Block(addr)))
	})
}

func TestClear(t *testing.T) {
	m := NewManager()
	addr := address.FromROMOffset(0x150)
	m.SetInline(addr, "inline")
	m.AppendBlock(addr, "block")

	m.Clear(addr)
	assert.Equal(t, "", m.Inline(addr))
	assert.Equal(t, 0, len(m.Block(addr)))
}

func TestEncodeDecode(t *testing.T) {
	token := Encode("two words")
	text, err := Decode(token)
	assert.NoError(t, err)
	assert.Equal(t, "two words", text)

	_, err = Decode("not*base64")
	assert.Error(t, err)
}

func TestSaveItems(t *testing.T) {
	m := NewManager()
	first := address.FromROMOffset(0x150)
	second := address.FromROMOffset(0x200)

	m.SetInline(second, "hi")
	m.AppendBlock(first, "setup")
	m.AppendBlock(first, "")

	items := m.SaveItems()
	assert.Equal(t, 3, len(items))
	assert.Equal(t, "comment inline ROM.0:0200 "+Encode("hi"), items[0].String())
	assert.Equal(t, "comment append ROM.0:0150 "+Encode("setup"), items[1].String())
	assert.Equal(t, "comment append ROM.0:0150", items[2].String())
}
