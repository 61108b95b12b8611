// Package scheduler owns the live agent pool (the VM, one tick = one step
// per agent) and the bridge that hands suspended agents to and from the
// link layer.
package scheduler

import (
	"sync"

	"github.com/andrascorp/exahost/internal/vm"
)

// outgoingEntry is one agent queued to leave for another host.
type outgoingEntry struct {
	LinkID int16
	Packed vm.PackedExa
}

// Bridge mediates between the scheduler and the link layer. Every operation
// takes the single lock; the scheduler and the link protocol are its only
// two clients, matching the "shared queue, one mutex" concurrency model.
type Bridge struct {
	mu       sync.Mutex
	outgoing map[int]outgoingEntry
	incoming []vm.PackedExa

	maxCapacity     int
	currentCapacity int
}

// NewBridge creates a bridge capped at maxCapacity total suspended-plus-live
// agents.
func NewBridge(maxCapacity int) *Bridge {
	return &Bridge{
		outgoing:    make(map[int]outgoingEntry),
		maxCapacity: maxCapacity,
	}
}

// AddOutgoing inserts a freshly-suspended agent and counts it against
// capacity.
func (b *Bridge) AddOutgoing(key int, linkID int16, packed vm.PackedExa) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.outgoing[key] = outgoingEntry{LinkID: linkID, Packed: packed}
	b.currentCapacity++
}

// RemoveOutgoing drops an outgoing entry and frees its capacity slot.
func (b *Bridge) RemoveOutgoing(key int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.outgoing[key]; ok {
		delete(b.outgoing, key)
		b.currentCapacity--
	}
}

// TxferToOutgoing moves an agent that already counted against capacity (for
// example one leaving the scheduler's live pool) into the outgoing map
// without double-counting it.
func (b *Bridge) TxferToOutgoing(key int, linkID int16, packed vm.PackedExa) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.outgoing[key] = outgoingEntry{LinkID: linkID, Packed: packed}
}

// TxferFromOutgoing removes and returns an outgoing entry without
// decrementing capacity, for a caller that is about to move it elsewhere
// (onto the wire) rather than discard it.
func (b *Bridge) TxferFromOutgoing(key int) (outgoingEntry, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.outgoing[key]
	if ok {
		delete(b.outgoing, key)
	}
	return e, ok
}

// PushIncoming appends a freshly-received agent and counts it against
// capacity.
func (b *Bridge) PushIncoming(packed vm.PackedExa) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.incoming = append(b.incoming, packed)
	b.currentCapacity++
}

// CollectIncoming drains every pending incoming agent for the scheduler to
// adopt, freeing their capacity slots.
func (b *Bridge) CollectIncoming() []vm.PackedExa {
	b.mu.Lock()
	defer b.mu.Unlock()
	drained := b.incoming
	b.incoming = nil
	b.currentCapacity -= len(drained)
	return drained
}

// TxferFromIncoming drains the incoming list without adjusting capacity,
// for a caller that is about to hand the agents straight to the scheduler's
// live pool (which will itself be reflected in UpdateCapacity).
func (b *Bridge) TxferFromIncoming() []vm.PackedExa {
	b.mu.Lock()
	defer b.mu.Unlock()
	drained := b.incoming
	b.incoming = nil
	return drained
}

// UpdateCapacity recomputes current as |outgoing| + |incoming| + liveAgents.
func (b *Bridge) UpdateCapacity(liveAgents int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.currentCapacity = len(b.outgoing) + len(b.incoming) + liveAgents
}

// HasSpace reports whether one more agent may be admitted anywhere in the
// live+outgoing+incoming pool.
func (b *Bridge) HasSpace() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentCapacity < b.maxCapacity
}

// IsFull is the complement of HasSpace.
func (b *Bridge) IsFull() bool {
	return !b.HasSpace()
}

// OutgoingLen reports the size of the outgoing pool, used by the scheduler's
// proportional Kill selection.
func (b *Bridge) OutgoingLen() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.outgoing)
}

// OutgoingKeys returns a snapshot of the scheduler keys currently queued to
// migrate out.
func (b *Bridge) OutgoingKeys() []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	keys := make([]int, 0, len(b.outgoing))
	for k := range b.outgoing {
		keys = append(keys, k)
	}
	return keys
}

// OutgoingLinkID reports the destination link id an outgoing entry is
// queued for, without removing it.
func (b *Bridge) OutgoingLinkID(key int) (int16, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.outgoing[key]
	if !ok {
		return 0, false
	}
	return e.LinkID, true
}
