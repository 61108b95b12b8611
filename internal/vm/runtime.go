package vm

import (
	"math/rand"
	"sync"
)

// Runtime holds everything shared among every agent on one host: hostname,
// RNG, the file table, IPC channels, and the hardware-register map. One
// Runtime exists per host; every Agent holds the same pointer. Each
// submodule (rng, fs, ipc, hw) carries its own lock so an agent never holds
// two of the host's locks at once.
type Runtime struct {
	Hostname string

	rngMu sync.Mutex
	rng   *rand.Rand

	FS  *FileSystem
	IPC *IPCModule
	HW  *HWMap
}

// NewRuntime creates a Runtime for hostname, with a print register
// pre-bound under #DBG and a hash register under #HASH, the two hardware
// registers every host provides out of the box.
func NewRuntime(hostname string, maxFiles int, seed int64, printOut func(string)) *Runtime {
	rt := &Runtime{
		Hostname: hostname,
		rng:      rand.New(rand.NewSource(seed)),
		FS:       NewFileSystem(maxFiles, seed),
		IPC:      NewIPCModule(),
		HW:       NewHWMap(),
	}
	rt.HW.Bind("DBG", NewPrintRegister(printOut))
	rt.HW.Bind("HASH", NewHashRegister())
	return rt
}

// RandRange returns a uniform integer in [lo, hi] inclusive, swapping the
// bounds if given in reverse order.
func (rt *Runtime) RandRange(lo, hi int) int {
	if lo > hi {
		lo, hi = hi, lo
	}
	rt.rngMu.Lock()
	defer rt.rngMu.Unlock()
	return lo + rt.rng.Intn(hi-lo+1)
}

// KillChoice draws a boolean weighted by the two pool sizes, used by the
// scheduler's Kill side effect to pick between the live-agent pool and the
// outgoing-migration pool. true selects the outgoing pool.
func (rt *Runtime) KillChoice(liveLen, outgoingLen int) bool {
	total := liveLen + outgoingLen
	if total <= 0 {
		return false
	}
	rt.rngMu.Lock()
	defer rt.rngMu.Unlock()
	return rt.rng.Intn(total) >= liveLen
}
