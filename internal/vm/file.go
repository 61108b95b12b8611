// Package vm implements the EXA runtime: per-agent execution, the shared
// file table, IPC channels, and the hardware-register plug-in surface.
package vm

import "github.com/andrascorp/exahost/internal/program"

// File is a bounded, ordered sequence of values with a cursor. It is
// acquirable by exactly one agent at a time; the table that owns it is the
// FileSystem.
type File struct {
	Content []program.Value
	Ptr     int16
}

// NewFile creates an empty file.
func NewFile() *File {
	return &File{}
}

// IsEOF reports whether the cursor sits at the end of the content.
func (f *File) IsEOF() bool {
	return int(f.Ptr) == len(f.Content)
}

// Read returns the value at the cursor and advances it by one, clamped to
// len(Content). At end of file it returns false and leaves the cursor where
// it is; the agent turns that into InvalidFileAccess.
func (f *File) Read() (program.Value, bool) {
	if f.IsEOF() {
		return program.Value{}, false
	}
	v := f.Content[f.Ptr]
	f.advance(1)
	return v, true
}

// Write stores v at the cursor, overwriting in place if the cursor is
// within bounds or appending if it sits at the end, then advances the
// cursor by one.
func (f *File) Write(v program.Value) {
	if int(f.Ptr) == len(f.Content) {
		f.Content = append(f.Content, v)
	} else {
		f.Content[f.Ptr] = v
	}
	f.advance(1)
}

// Seek shifts the cursor by a signed amount, clamped to [0, len(Content)].
func (f *File) Seek(amount int) {
	np := int(f.Ptr) + amount
	if np < 0 {
		np = 0
	}
	if np > len(f.Content) {
		np = len(f.Content)
	}
	f.Ptr = int16(np)
}

func (f *File) advance(n int) {
	np := int(f.Ptr) + n
	if np > len(f.Content) {
		np = len(f.Content)
	}
	f.Ptr = int16(np)
}

// Clone returns a deep copy, used when a held file travels with a migrating
// or cloned agent.
func (f *File) Clone() *File {
	cp := &File{Ptr: f.Ptr, Content: make([]program.Value, len(f.Content))}
	copy(cp.Content, f.Content)
	return cp
}
