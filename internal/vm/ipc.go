package vm

import (
	"sync"

	"github.com/andrascorp/exahost/internal/program"
)

// DefaultChannelID is the host-lifetime channel that exists before any
// agent dials another.
const DefaultChannelID int16 = 0

// channel is a single-slot rendezvous cell. A nil slot means empty.
type channel struct {
	mu   sync.Mutex
	slot *program.Value
}

// IPCModule owns every channel on one host, keyed by channel id.
// One lock per channel, per the fine-grained locking policy: each operation
// takes the module's lock only to look the channel up, releases it, and then
// takes that channel's own lock, so the two are never held together.
type IPCModule struct {
	mu       sync.Mutex
	channels map[int16]*channel
}

// NewIPCModule creates an IPC module with the default channel pre-seeded.
func NewIPCModule() *IPCModule {
	m := &IPCModule{channels: make(map[int16]*channel)}
	m.channels[DefaultChannelID] = &channel{}
	return m
}

func (m *IPCModule) dial(id int16) *channel {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.channels[id]
	if !ok {
		ch = &channel{}
		m.channels[id] = ch
	}
	return ch
}

// TrySend stores v into the channel if empty. Returns false if the slot is
// already full, signaling Block(Send) to the caller.
func (m *IPCModule) TrySend(id int16, v program.Value) bool {
	ch := m.dial(id)
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if ch.slot != nil {
		return false
	}
	cp := v
	ch.slot = &cp
	return true
}

// TryRecv takes the value from the channel if present, emptying the slot.
// Returns false if the slot is empty, signaling Block(Recv).
func (m *IPCModule) TryRecv(id int16) (program.Value, bool) {
	ch := m.dial(id)
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if ch.slot == nil {
		return program.Value{}, false
	}
	v := *ch.slot
	ch.slot = nil
	return v, true
}

// Readable reports whether a read on the channel would not block.
func (m *IPCModule) Readable(id int16) bool {
	ch := m.dial(id)
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.slot != nil
}
