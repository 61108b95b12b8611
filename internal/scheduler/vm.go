package scheduler

import (
	"sync"

	"github.com/andrascorp/exahost/internal/vm"
	"github.com/andrascorp/exahost/internal/xlog"
)

// tickResult pairs a scheduler key with the status its agent reported on
// one step, for any status other than plain success.
type tickResult struct {
	key    int
	status vm.Status
}

// Scheduler owns the live agent pool and runs it one tick at a time: every
// live agent executes exactly one instruction, then the scheduler applies
// whatever blocks and side effects came back. It is the "VM" of the design
// document, renamed to avoid colliding with the vm package it drives.
type Scheduler struct {
	mu      sync.Mutex
	agents  map[int]*vm.Agent
	nextKey int

	bridge *Bridge
	log    *xlog.Logger
}

// New creates a Scheduler bounded by the given bridge's capacity policy.
func New(bridge *Bridge, log *xlog.Logger) *Scheduler {
	return &Scheduler{
		agents: make(map[int]*vm.Agent),
		bridge: bridge,
		log:    log,
	}
}

// AddAgent admits a into the live pool under a freshly allocated key and
// returns that key.
func (s *Scheduler) AddAgent(a *vm.Agent) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.nextKey
	s.nextKey++
	s.agents[key] = a
	s.bridge.UpdateCapacity(len(s.agents))
	return key
}

// Len reports the number of live agents.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.agents)
}

// Agents returns a snapshot slice of the live pool, for inspection by tests
// and the host console.
func (s *Scheduler) Agents() []*vm.Agent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*vm.Agent, 0, len(s.agents))
	for _, a := range s.agents {
		out = append(out, a)
	}
	return out
}

// Tick runs one scheduler iteration: one step per live agent, then applies
// every non-success status in iteration order. An empty pool is a no-op.
func (s *Scheduler) Tick() {
	s.mu.Lock()
	if len(s.agents) == 0 {
		s.mu.Unlock()
		return
	}

	results := make([]tickResult, 0, len(s.agents))
	for key, a := range s.agents {
		st := a.Step()
		if st.Kind != vm.StatusOK {
			results = append(results, tickResult{key: key, status: st})
		}
	}
	s.mu.Unlock()

	for _, r := range results {
		s.apply(r)
	}

	s.bridge.UpdateCapacity(s.Len())
}

// apply dispatches one non-success status to its scheduler-level effect.
func (s *Scheduler) apply(r tickResult) {
	switch r.status.Kind {
	case vm.StatusBlock:
		switch r.status.Block {
		case vm.BlockRecv:
			s.retryRecv(r.key)
		case vm.BlockRepl:
			s.spawnClone(r.key, r.status.ReplTarget)
		case vm.BlockSend, vm.BlockJump:
			// Pointer already moved (Jump) or will be retried next tick
			// (Send); neither needs scheduler-level action.
		}
	case vm.StatusSideEffect:
		switch r.status.Side {
		case vm.SideKill:
			s.killOne(r.key)
		case vm.SideLink:
			s.migrateOut(r.key, r.status.LinkID)
		}
	case vm.StatusError:
		s.removeWithError(r.key, r.status.Err)
	}
}

// retryRecv is the one opcode given a second attempt within the same tick:
// it models the receiver being unparked the instant a producer's write
// lands earlier in this same tick's agent iteration.
func (s *Scheduler) retryRecv(key int) {
	s.mu.Lock()
	a, ok := s.agents[key]
	s.mu.Unlock()
	if !ok {
		return
	}
	st := a.Step()
	if st.Kind != vm.StatusOK {
		s.apply(tickResult{key: key, status: st})
	}
}

// spawnClone admits a Repl clone if the bridge has room, then advances the
// parent past its repl instruction regardless. Capacity is resynced on each
// admission so several Repl results in one tick cannot all squeeze past the
// same pre-tick snapshot.
func (s *Scheduler) spawnClone(key int, target uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	parent, ok := s.agents[key]
	if !ok {
		return
	}
	if s.bridge.HasSpace() {
		clone := parent.Clone(target)
		s.agents[s.nextKey] = clone
		s.nextKey++
		s.bridge.UpdateCapacity(len(s.agents))
	}
	parent.InstrPtr++
}

// killOne removes one other agent chosen uniformly at random between the
// live pool (excluding the killer) and the bridge's outgoing pool, weighted
// by their relative sizes. The killer itself is never a candidate.
func (s *Scheduler) killOne(killer int) {
	s.mu.Lock()
	killerAgent, ok := s.agents[killer]
	liveCandidates := make([]int, 0, len(s.agents))
	for k := range s.agents {
		if k != killer {
			liveCandidates = append(liveCandidates, k)
		}
	}
	s.mu.Unlock()
	if !ok {
		return
	}

	killerAgent.InstrPtr++

	outgoing := s.bridge.OutgoingKeys()
	if len(liveCandidates)+len(outgoing) == 0 {
		return
	}

	if killerAgent.RT.KillChoice(len(liveCandidates), len(outgoing)) && len(outgoing) > 0 {
		idx := killerAgent.RT.RandRange(0, len(outgoing)-1)
		s.bridge.RemoveOutgoing(outgoing[idx])
		return
	}
	if len(liveCandidates) == 0 {
		return
	}
	idx := killerAgent.RT.RandRange(0, len(liveCandidates)-1)
	s.mu.Lock()
	delete(s.agents, liveCandidates[idx])
	live := len(s.agents)
	s.mu.Unlock()
	s.bridge.UpdateCapacity(live)
}

// migrateOut removes the agent from the live pool, packs it, and hands it
// to the bridge's outgoing map under destination linkID. The agent already
// counted against capacity while live, so its slot transfers rather than
// being re-added.
func (s *Scheduler) migrateOut(key int, linkID int16) {
	s.mu.Lock()
	a, ok := s.agents[key]
	if ok {
		delete(s.agents, key)
	}
	s.mu.Unlock()
	if !ok {
		return
	}
	// The agent resumes on the receiving host at the instruction after link.
	a.InstrPtr++
	s.bridge.TxferToOutgoing(key, linkID, a.Pack())
}

// removeWithError drops a fatally-errored agent and logs it by name.
func (s *Scheduler) removeWithError(key int, err vm.RuntimeError) {
	s.mu.Lock()
	a, ok := s.agents[key]
	if ok {
		delete(s.agents, key)
	}
	live := len(s.agents)
	s.mu.Unlock()
	if !ok {
		return
	}
	s.bridge.UpdateCapacity(live)
	if s.log != nil {
		s.log.Debug("agent terminated", "name", a.Name, "err", err.Error())
	}
}

// AdoptIncoming drains the bridge's incoming queue and hydrates every
// packed agent against rt, admitting each into the live pool.
func (s *Scheduler) AdoptIncoming(rt *vm.Runtime) {
	packed := s.bridge.CollectIncoming()
	if len(packed) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range packed {
		a := p.Hydrate(rt)
		s.agents[s.nextKey] = a
		s.nextKey++
	}
	s.bridge.UpdateCapacity(len(s.agents))
}
