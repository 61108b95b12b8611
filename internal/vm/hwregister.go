package vm

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/sha3"

	"github.com/andrascorp/exahost/internal/program"
)

// ErrInvalidHWRegisterAccess is returned when a register is read or written
// in a direction it does not support, or when no register is bound under
// the requested name.
var ErrInvalidHWRegisterAccess = errors.New("vm: invalid hardware register access")

// HardwareRegister is the plug-in contract every externally-bound H(name)
// register must satisfy.
type HardwareRegister interface {
	Read(agentName string) (program.Value, error)
	Write(agentName string, v program.Value) error
}

// HWMap is the uppercased-name registry of bound hardware registers, behind
// its own lock.
type HWMap struct {
	mu   sync.Mutex
	regs map[string]HardwareRegister
}

// NewHWMap creates an empty registry.
func NewHWMap() *HWMap {
	return &HWMap{regs: make(map[string]HardwareRegister)}
}

// Bind registers r under the uppercased name.
func (h *HWMap) Bind(name string, r HardwareRegister) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.regs[strings.ToUpper(name)] = r
}

func (h *HWMap) lookup(name string) (HardwareRegister, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.regs[strings.ToUpper(name)]
	return r, ok
}

// Read delegates to the bound register, or returns ErrInvalidHWRegisterAccess
// if nothing is bound under name.
func (h *HWMap) Read(name, agentName string) (program.Value, error) {
	r, ok := h.lookup(name)
	if !ok {
		return program.Value{}, ErrInvalidHWRegisterAccess
	}
	return r.Read(agentName)
}

// Write delegates to the bound register, or returns ErrInvalidHWRegisterAccess
// if nothing is bound under name.
func (h *HWMap) Write(name, agentName string, v program.Value) error {
	r, ok := h.lookup(name)
	if !ok {
		return ErrInvalidHWRegisterAccess
	}
	return r.Write(agentName, v)
}

// PrintRegister is a write-only console sink bound under "#DBG" by default,
// used by the prnt opcode and by interactive debugging.
type PrintRegister struct {
	mu  sync.Mutex
	out func(line string)
}

// NewPrintRegister creates a PrintRegister that calls out for every write.
func NewPrintRegister(out func(line string)) *PrintRegister {
	return &PrintRegister{out: out}
}

func (p *PrintRegister) Read(agentName string) (program.Value, error) {
	return program.Value{}, ErrInvalidHWRegisterAccess
}

func (p *PrintRegister) Write(agentName string, v program.Value) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.out(fmt.Sprintf("%s> %s", agentName, v))
	return nil
}

// HashRegister is a hardware register bound under "#HASH". A write stores,
// for the writing agent, the SHA3-256 digest of the value written (a
// keyword's text or a number's decimal form); a read returns that agent's
// last digest folded into a Number by summing its bytes modulo 10000, and
// fails if the agent has not written yet. EXA has no byte-array value type,
// so this is the closest contract-compatible surface for a cryptographic
// hardware register.
type HashRegister struct {
	mu      sync.Mutex
	last    program.Value
	digests map[string][32]byte
}

// NewHashRegister creates an empty HashRegister.
func NewHashRegister() *HashRegister {
	return &HashRegister{digests: make(map[string][32]byte)}
}

func (h *HashRegister) Write(agentName string, v program.Value) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	var data []byte
	if v.IsKeyword() {
		data = []byte(v.Str())
	} else {
		data = []byte(fmt.Sprintf("%d", v.Int()))
	}
	h.digests[agentName] = sha3.Sum256(data)
	h.last = v
	return nil
}

func (h *HashRegister) Read(agentName string) (program.Value, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	digest, ok := h.digests[agentName]
	if !ok {
		return program.Value{}, ErrInvalidHWRegisterAccess
	}
	sum := 0
	for _, b := range digest {
		sum += int(b)
	}
	return program.Number(sum % (int(program.NumberMax) + 1)), nil
}
