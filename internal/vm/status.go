package vm

import "fmt"

// RuntimeErrorKind enumerates every fatal-to-the-agent runtime error.
type RuntimeErrorKind uint8

const (
	ErrHalted RuntimeErrorKind = iota
	ErrOutOfInstructions
	ErrFileNotFoundKind
	ErrNoFileHeld
	ErrAlreadyHoldingFile
	ErrInvalidFileAccess
	ErrStorageFullKind
	ErrInvalidArgument
	ErrNumericValueRequired
	ErrInvalidHWRegisterAccessKind
	ErrUnknownInstructionKind
)

var runtimeErrNames = [...]string{
	ErrHalted:                      "Halted",
	ErrOutOfInstructions:           "OutOfInstructions",
	ErrFileNotFoundKind:            "FileNotFound",
	ErrNoFileHeld:                  "NoFileHeld",
	ErrAlreadyHoldingFile:          "AlreadyHoldingFile",
	ErrInvalidFileAccess:           "InvalidFileAccess",
	ErrStorageFullKind:             "StorageFull",
	ErrInvalidArgument:             "InvalidArgument",
	ErrNumericValueRequired:        "NumericValueRequired",
	ErrInvalidHWRegisterAccessKind: "InvalidHWRegisterAccess",
	ErrUnknownInstructionKind:      "UnknownInstruction",
}

func (k RuntimeErrorKind) String() string {
	if int(k) < len(runtimeErrNames) {
		return runtimeErrNames[k]
	}
	return fmt.Sprintf("runtimeerr(%d)", k)
}

// RuntimeError pairs a fatal error kind with free-form context.
type RuntimeError struct {
	Kind    RuntimeErrorKind
	Context string
}

func (e RuntimeError) Error() string {
	if e.Context == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Context)
}

// BlockKind enumerates the control-flow suspension signals. Blocks are not
// errors: they tell the scheduler how to treat the tick, not that the agent
// failed.
type BlockKind uint8

const (
	BlockSend BlockKind = iota
	BlockRecv
	BlockJump
	BlockRepl
)

// SideEffectKind enumerates the two effects the scheduler must apply outside
// of the agent's own step.
type SideEffectKind uint8

const (
	SideKill SideEffectKind = iota
	SideLink
)

// StatusKind discriminates the four shapes a Step result can take.
type StatusKind uint8

const (
	StatusOK StatusKind = iota
	StatusBlock
	StatusSideEffect
	StatusError
)

// Status is the uniform result of one Agent.Step call.
type Status struct {
	Kind StatusKind

	Block      BlockKind
	ReplTarget uint8 // valid when Block == BlockRepl

	Side   SideEffectKind
	LinkID int16 // valid when Side == SideLink

	Err RuntimeError
}

func okStatus() Status                       { return Status{Kind: StatusOK} }
func blockStatus(b BlockKind) Status          { return Status{Kind: StatusBlock, Block: b} }
func replStatus(target uint8) Status         { return Status{Kind: StatusBlock, Block: BlockRepl, ReplTarget: target} }
func killStatus() Status                      { return Status{Kind: StatusSideEffect, Side: SideKill} }
func linkStatus(id int16) Status              { return Status{Kind: StatusSideEffect, Side: SideLink, LinkID: id} }
func errStatus(kind RuntimeErrorKind, ctx string) Status {
	return Status{Kind: StatusError, Err: RuntimeError{Kind: kind, Context: ctx}}
}
