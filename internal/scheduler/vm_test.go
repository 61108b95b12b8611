package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrascorp/exahost/internal/compiler"
	"github.com/andrascorp/exahost/internal/vm"
	"github.com/andrascorp/exahost/internal/xlog"
)

func compileOrFail(t *testing.T, src []string) *vm.Agent {
	t.Helper()
	prog, errs := compiler.New(compiler.DefaultConfig()).Compile(src)
	require.Empty(t, errs)
	rt := vm.NewRuntime("test-host", 9, 7, func(string) {})
	return vm.NewAgent("a", prog, rt)
}

// TestReplSpawnsUpToCapacity exercises §8 scenario 3: repeated ticks of a
// self-replicating agent grow the pool up to the bridge's capacity and no
// further.
func TestReplSpawnsUpToCapacity(t *testing.T) {
	bridge := NewBridge(4)
	sched := New(bridge, xlog.Root)

	agent := compileOrFail(t, []string{"mark loop", "repl loop", "noop"})
	sched.AddAgent(agent)

	for i := 0; i < 10; i++ {
		sched.Tick()
	}
	assert.LessOrEqual(t, sched.Len(), 4, "pool must never exceed bridge capacity")
	assert.Greater(t, sched.Len(), 0, "repl must keep producing live agents")
}

// TestSimultaneousReplsRespectCapacity drives several replicating agents
// through one tick: each admission must see the capacity the previous
// admission left behind, not a shared pre-tick snapshot.
func TestSimultaneousReplsRespectCapacity(t *testing.T) {
	bridge := NewBridge(4)
	sched := New(bridge, xlog.Root)

	for i := 0; i < 3; i++ {
		sched.AddAgent(compileOrFail(t, []string{"mark loop", "repl loop", "noop"}))
	}

	sched.Tick()
	assert.Equal(t, 4, sched.Len(), "three repls with one free slot must admit exactly one clone")

	for i := 0; i < 10; i++ {
		sched.Tick()
		assert.LessOrEqual(t, sched.Len(), 4)
	}
}

func TestKillRemovesOneOtherAgent(t *testing.T) {
	bridge := NewBridge(10)
	sched := New(bridge, xlog.Root)

	killer := compileOrFail(t, []string{"kill"})
	victim := compileOrFail(t, []string{"noop", "noop", "noop"})
	sched.AddAgent(killer)
	sched.AddAgent(victim)

	require.Equal(t, 2, sched.Len())
	sched.Tick()
	assert.Equal(t, 1, sched.Len(), "exactly one other agent must be removed")
}

func TestLinkMovesAgentIntoOutgoing(t *testing.T) {
	bridge := NewBridge(10)
	sched := New(bridge, xlog.Root)

	agent := compileOrFail(t, []string{"link 3", "noop"})
	key := sched.AddAgent(agent)

	sched.Tick()
	assert.Equal(t, 0, sched.Len(), "a linking agent must leave the live pool")

	entry, ok := bridge.TxferFromOutgoing(key)
	require.True(t, ok)
	assert.EqualValues(t, 3, entry.LinkID)
	assert.EqualValues(t, 1, entry.Packed.InstrPtr, "the agent resumes after the link instruction")
}

func TestSameTickSendRecvRendezvous(t *testing.T) {
	bridge := NewBridge(10)
	sched := New(bridge, xlog.Root)

	rt := vm.NewRuntime("test-host", 9, 11, func(string) {})
	progSend, errs := compiler.New(compiler.DefaultConfig()).Compile([]string{"copy 7 m"})
	require.Empty(t, errs)
	progRecv, errs := compiler.New(compiler.DefaultConfig()).Compile([]string{"copy m x"})
	require.Empty(t, errs)

	sender := vm.NewAgent("S", progSend, rt)
	receiver := vm.NewAgent("R", progRecv, rt)
	sched.AddAgent(sender)
	sched.AddAgent(receiver)

	// The Recv retry guarantees the pair completes within one tick no
	// matter which agent the map iteration visits first.
	sched.Tick()
	assert.Equal(t, 7, receiver.RegX.Int())
	assert.EqualValues(t, 1, receiver.InstrPtr)
	assert.EqualValues(t, 1, sender.InstrPtr)
}

func TestAdoptIncomingAdmitsFromBridge(t *testing.T) {
	bridge := NewBridge(10)
	sched := New(bridge, xlog.Root)
	rt := vm.NewRuntime("host-b", 9, 3, func(string) {})

	prog, errs := compiler.New(compiler.DefaultConfig()).Compile([]string{"noop"})
	require.Empty(t, errs)
	agent := vm.NewAgent("migrant", prog, vm.NewRuntime("host-a", 9, 1, func(string) {}))

	bridge.PushIncoming(agent.Pack())
	require.Equal(t, 0, sched.Len())

	sched.AdoptIncoming(rt)
	assert.Equal(t, 1, sched.Len())
}
