package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/andrascorp/exahost/internal/program"
)

func TestIPCSendBlocksWhenFull(t *testing.T) {
	m := NewIPCModule()
	assert.True(t, m.TrySend(DefaultChannelID, program.Number(1)))
	assert.False(t, m.TrySend(DefaultChannelID, program.Number(2)), "a full slot must refuse a second send")
}

func TestIPCRecvEmptiesSlot(t *testing.T) {
	m := NewIPCModule()
	m.TrySend(DefaultChannelID, program.Number(7))
	assert.True(t, m.Readable(DefaultChannelID))

	v, ok := m.TryRecv(DefaultChannelID)
	assert.True(t, ok)
	assert.Equal(t, 7, v.Int())
	assert.False(t, m.Readable(DefaultChannelID))

	_, ok = m.TryRecv(DefaultChannelID)
	assert.False(t, ok, "an empty slot must refuse a recv")
}

func TestIPCChannelsAreIndependent(t *testing.T) {
	m := NewIPCModule()
	m.TrySend(1, program.Number(10))
	assert.False(t, m.Readable(2))
	assert.True(t, m.Readable(1))
}
