package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/andrascorp/exahost/internal/vm"
)

func TestBridgeCapacityInvariant(t *testing.T) {
	b := NewBridge(5)
	assert.True(t, b.HasSpace())

	b.AddOutgoing(1, 3, vm.PackedExa{Name: "a"})
	b.PushIncoming(vm.PackedExa{Name: "b"})
	b.UpdateCapacity(2) // two live agents

	assert.Equal(t, 1, b.OutgoingLen())
	assert.True(t, b.HasSpace(), "4 < 5 capacity")

	b.RemoveOutgoing(1)
	entries := b.OutgoingKeys()
	assert.Empty(t, entries)
}

func TestBridgeFullRejectsFurtherInsertion(t *testing.T) {
	b := NewBridge(1)
	b.PushIncoming(vm.PackedExa{Name: "only"})
	assert.True(t, b.IsFull())
}

func TestOutgoingLinkIDLookup(t *testing.T) {
	b := NewBridge(5)
	b.AddOutgoing(7, 99, vm.PackedExa{Name: "x"})
	id, ok := b.OutgoingLinkID(7)
	assert.True(t, ok)
	assert.EqualValues(t, 99, id)

	_, ok = b.OutgoingLinkID(999)
	assert.False(t, ok)
}
