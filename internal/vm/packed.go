package vm

import (
	"strconv"

	"github.com/andrascorp/exahost/internal/program"
)

// PackedExa is the serializable subset of an Agent used for migration and
// cloning across the wire: everything but the live Runtime reference.
type PackedExa struct {
	Name        string
	Program     *program.Program
	InstrPtr    uint8
	ReplCounter uint16
	RegX        program.Value
	RegT        program.Value
	HeldID      int16 // 0 and HasFile=false means no file held
	HasFile     bool
	FileContent []program.Value
	FilePtr     int16
}

// Pack produces a PackedExa snapshot of the agent. The program is shared by
// reference since it is immutable; the held file, if any, is deep-copied.
func (a *Agent) Pack() PackedExa {
	p := PackedExa{
		Name:        a.Name,
		Program:     a.Program,
		InstrPtr:    a.InstrPtr,
		ReplCounter: a.ReplCounter,
		RegX:        a.RegX,
		RegT:        a.RegT,
	}
	if a.Held != nil {
		p.HasFile = true
		p.HeldID = a.Held.ID
		p.FileContent = append([]program.Value(nil), a.Held.File.Content...)
		p.FilePtr = a.Held.File.Ptr
	}
	return p
}

// Hydrate reattaches a PackedExa to a live Runtime, yielding an executable
// Agent. All fields are equal to the original except the Runtime reference,
// satisfying the pack/hydrate round-trip.
func (p PackedExa) Hydrate(rt *Runtime) *Agent {
	a := &Agent{
		Name:        p.Name,
		Program:     p.Program,
		InstrPtr:    p.InstrPtr,
		ReplCounter: p.ReplCounter,
		RegX:        p.RegX,
		RegT:        p.RegT,
		RT:          rt,
	}
	if p.HasFile {
		a.Held = &HeldFile{
			ID:   p.HeldID,
			File: &File{Content: append([]program.Value(nil), p.FileContent...), Ptr: p.FilePtr},
		}
	}
	return a
}

// Clone produces a new agent sharing the parent's program, with registers
// and held file copied, instr_ptr set to target (the Repl jump label), and
// repl_counter zeroed. The clone's name is the parent's name with ":N"
// appended, where N is the parent's repl_counter before it is incremented.
func (a *Agent) Clone(target uint8) *Agent {
	suffixN := a.ReplCounter
	a.ReplCounter++

	clone := &Agent{
		Name:     cloneName(a.Name, suffixN),
		Program:  a.Program,
		InstrPtr: target,
		RegX:     a.RegX,
		RegT:     a.RegT,
		RT:       a.RT,
	}
	if a.Held != nil {
		clone.Held = &HeldFile{ID: a.Held.ID, File: a.Held.File.Clone()}
	}
	return clone
}

func cloneName(parent string, n uint16) string {
	return parent + ":" + strconv.Itoa(int(n))
}
