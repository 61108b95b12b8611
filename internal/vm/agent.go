package vm

import (
	"github.com/andrascorp/exahost/internal/program"
)

// HeldFile pairs a grabbed or newly made file with the id it is filed
// under, so Drop can return it to the same slot it came from.
type HeldFile struct {
	ID   int16
	File *File
}

// Agent is one live EXA: its program pointer, its two general registers,
// any file it holds, and a reference to the host Runtime it executes
// against. The zero Agent is not usable; use NewAgent.
type Agent struct {
	Name        string
	Program     *program.Program
	InstrPtr    uint8
	ReplCounter uint16
	RegX        program.Value
	RegT        program.Value
	Held        *HeldFile
	RT          *Runtime
}

// NewAgent creates a fresh agent bound to prog and rt, registers zeroed.
func NewAgent(name string, prog *program.Program, rt *Runtime) *Agent {
	return &Agent{Name: name, Program: prog, RT: rt}
}

// Step executes exactly one instruction. Per the execution model: on
// success InstrPtr advances by one; on Block(Jump)/Block(Repl) the pointer
// has already been updated (Jump) or is left alone pending the scheduler's
// decision (Repl); on any other Block, SideEffect, or Error the pointer is
// left untouched.
func (a *Agent) Step() Status {
	if int(a.InstrPtr) >= a.Program.Len() {
		return errStatus(ErrOutOfInstructions, "")
	}
	instr, _ := a.Program.At(int(a.InstrPtr))
	status := a.execute(instr)
	if status.Kind == StatusOK {
		a.InstrPtr++
	}
	return status
}

func (a *Agent) execute(instr program.Instruction) Status {
	switch instr.Op {
	case program.OpCopy:
		v, st := a.read(instr.Args[0])
		if st != nil {
			return *st
		}
		return a.write(regOf(instr.Args[1]), v)

	case program.OpVoid:
		reg := regOf(instr.Args[0])
		switch reg.Kind {
		case program.RegX:
			a.RegX = program.Number(0)
		case program.RegT:
			a.RegT = program.Number(0)
		case program.RegF:
			return a.write(reg, program.Keyword(""))
		case program.RegM:
			if _, ok := a.RT.IPC.TryRecv(DefaultChannelID); !ok {
				return blockStatus(BlockRecv)
			}
		case program.RegH:
			return a.write(reg, program.Number(0))
		}
		return okStatus()

	case program.OpAddi, program.OpSubi, program.OpMuli, program.OpDivi, program.OpModi:
		x, st := a.readNumber(instr.Args[0])
		if st != nil {
			return *st
		}
		y, st := a.readNumber(instr.Args[1])
		if st != nil {
			return *st
		}
		var result int
		switch instr.Op {
		case program.OpAddi:
			result = x + y
		case program.OpSubi:
			result = x - y
		case program.OpMuli:
			result = x * y
		case program.OpDivi:
			if y == 0 {
				return errStatus(ErrInvalidArgument, "division by zero")
			}
			result = x / y
		case program.OpModi:
			if y == 0 {
				return errStatus(ErrInvalidArgument, "modulo by zero")
			}
			result = x % y
		}
		return a.write(regOf(instr.Args[2]), program.Number(result))

	case program.OpSwiz:
		x, st := a.readNumber(instr.Args[0])
		if st != nil {
			return *st
		}
		y, st := a.readNumber(instr.Args[1])
		if st != nil {
			return *st
		}
		return a.write(regOf(instr.Args[2]), program.Number(swiz(x, y)))

	case program.OpRand:
		x, st := a.readNumber(instr.Args[0])
		if st != nil {
			return *st
		}
		y, st := a.readNumber(instr.Args[1])
		if st != nil {
			return *st
		}
		return a.write(regOf(instr.Args[2]), program.Number(a.RT.RandRange(x, y)))

	case program.OpTest:
		left, st := a.read(instr.Args[0])
		if st != nil {
			return *st
		}
		right, st := a.read(instr.Args[2])
		if st != nil {
			return *st
		}
		ordering, ok := left.Compare(right)
		truth := ok && instr.Args[1].Comp.Eval(ordering)
		return a.write(program.RegLabel{Kind: program.RegT}, boolValue(truth))

	case program.OpTestMrd:
		return a.write(program.RegLabel{Kind: program.RegT}, boolValue(a.RT.IPC.Readable(DefaultChannelID)))

	case program.OpTestEof:
		if a.Held == nil {
			return errStatus(ErrNoFileHeld, "")
		}
		return a.write(program.RegLabel{Kind: program.RegT}, boolValue(a.Held.File.IsEOF()))

	case program.OpJump:
		a.InstrPtr = instr.Args[0].Jump
		return blockStatus(BlockJump)

	case program.OpTjmp:
		if a.RegT.Truthy() {
			a.InstrPtr = instr.Args[0].Jump
			return blockStatus(BlockJump)
		}
		return okStatus()

	case program.OpFjmp:
		if !a.RegT.Truthy() {
			a.InstrPtr = instr.Args[0].Jump
			return blockStatus(BlockJump)
		}
		return okStatus()

	case program.OpMake:
		if a.Held != nil {
			return errStatus(ErrAlreadyHoldingFile, "")
		}
		id, err := a.RT.FS.Make()
		if err != nil {
			return errStatus(ErrStorageFullKind, err.Error())
		}
		f, _ := a.RT.FS.Grab(id)
		a.Held = &HeldFile{ID: id, File: f}
		return okStatus()

	case program.OpGrab:
		if a.Held != nil {
			return errStatus(ErrAlreadyHoldingFile, "")
		}
		id, st := a.readNumber(instr.Args[0])
		if st != nil {
			return *st
		}
		f, err := a.RT.FS.Grab(int16(id))
		if err != nil {
			return errStatus(ErrFileNotFoundKind, "")
		}
		a.Held = &HeldFile{ID: int16(id), File: f}
		return okStatus()

	case program.OpFile:
		if a.Held == nil {
			return errStatus(ErrNoFileHeld, "")
		}
		return a.write(regOf(instr.Args[0]), program.Number(int(a.Held.ID)))

	case program.OpSeek:
		if a.Held == nil {
			return errStatus(ErrNoFileHeld, "")
		}
		amount, st := a.readNumber(instr.Args[0])
		if st != nil {
			return *st
		}
		a.Held.File.Seek(amount)
		return okStatus()

	case program.OpDrop:
		if a.Held == nil {
			return errStatus(ErrNoFileHeld, "")
		}
		a.RT.FS.Return(a.Held.ID, a.Held.File)
		a.Held = nil
		return okStatus()

	case program.OpWipe:
		if a.Held == nil {
			return errStatus(ErrNoFileHeld, "")
		}
		a.Held = nil
		return okStatus()

	case program.OpLink:
		id, st := a.readNumber(instr.Args[0])
		if st != nil {
			return *st
		}
		return linkStatus(int16(id))

	case program.OpRepl:
		return replStatus(instr.Args[0].Jump)

	case program.OpHalt:
		return errStatus(ErrHalted, "")

	case program.OpKill:
		return killStatus()

	case program.OpNoop:
		return okStatus()

	case program.OpHost:
		return a.write(regOf(instr.Args[0]), program.Keyword(a.RT.Hostname))

	case program.OpPrnt:
		v, st := a.read(instr.Args[0])
		if st != nil {
			return *st
		}
		if err := a.RT.HW.Write("DBG", a.Name, v); err != nil {
			return errStatus(ErrInvalidHWRegisterAccessKind, "")
		}
		return okStatus()

	default:
		return errStatus(ErrUnknownInstructionKind, instr.Op.String())
	}
}

func regOf(arg program.Argument) program.RegLabel {
	return arg.Reg
}

func boolValue(b bool) program.Value {
	if b {
		return program.Number(1)
	}
	return program.Number(0)
}

// read evaluates an argument to a value: a literal stands for itself; a
// register label dereferences through readReg, which may block or error.
func (a *Agent) read(arg program.Argument) (program.Value, *Status) {
	switch arg.Kind {
	case program.ArgNumber:
		return program.Number(int(arg.Number)), nil
	case program.ArgKeyword:
		return program.Keyword(arg.Text), nil
	case program.ArgReg:
		return a.readReg(arg.Reg)
	default:
		st := errStatus(ErrInvalidArgument, "")
		return program.Value{}, &st
	}
}

func (a *Agent) readReg(reg program.RegLabel) (program.Value, *Status) {
	switch reg.Kind {
	case program.RegX:
		return a.RegX, nil
	case program.RegT:
		return a.RegT, nil
	case program.RegF:
		if a.Held == nil {
			st := errStatus(ErrNoFileHeld, "")
			return program.Value{}, &st
		}
		v, ok := a.Held.File.Read()
		if !ok {
			st := errStatus(ErrInvalidFileAccess, "read past end of file")
			return program.Value{}, &st
		}
		return v, nil
	case program.RegM:
		v, ok := a.RT.IPC.TryRecv(DefaultChannelID)
		if !ok {
			st := blockStatus(BlockRecv)
			return program.Value{}, &st
		}
		return v, nil
	case program.RegH:
		v, err := a.RT.HW.Read(reg.Name, a.Name)
		if err != nil {
			st := errStatus(ErrInvalidHWRegisterAccessKind, reg.Name)
			return program.Value{}, &st
		}
		return v, nil
	default:
		st := errStatus(ErrInvalidArgument, "")
		return program.Value{}, &st
	}
}

// write stores v into the named register. Number values are saturated into
// the Number domain by program.Number before reaching here.
func (a *Agent) write(reg program.RegLabel, v program.Value) Status {
	switch reg.Kind {
	case program.RegX:
		a.RegX = v
		return okStatus()
	case program.RegT:
		a.RegT = v
		return okStatus()
	case program.RegF:
		if a.Held == nil {
			return errStatus(ErrNoFileHeld, "")
		}
		a.Held.File.Write(v)
		return okStatus()
	case program.RegM:
		if !a.RT.IPC.TrySend(DefaultChannelID, v) {
			return blockStatus(BlockSend)
		}
		return okStatus()
	case program.RegH:
		if err := a.RT.HW.Write(reg.Name, a.Name, v); err != nil {
			return errStatus(ErrInvalidHWRegisterAccessKind, reg.Name)
		}
		return okStatus()
	default:
		return errStatus(ErrInvalidArgument, "")
	}
}

// readNumber is read specialized to require a Number operand, as addi/subi/
// muli/divi/modi/swiz/rand/seek/grab/link all do.
func (a *Agent) readNumber(arg program.Argument) (int, *Status) {
	v, st := a.read(arg)
	if st != nil {
		return 0, st
	}
	if v.IsKeyword() {
		s := errStatus(ErrNumericValueRequired, "")
		return 0, &s
	}
	return v.Int(), nil
}

// swiz implements the digit-permutation rule: for each decimal position
// k=1..4 of |b| (1=thousands place, 4=ones place), its digit d selects the
// d-th decimal digit of |a| (same position convention) to place at position
// k of the result; d outside 1..4 leaves that position zero. The result's
// sign is sign(a)*sign(b). With b=1234 every position maps to itself, so
// swiz x 1234 y reproduces x unchanged.
func swiz(a, b int) int {
	absA, absB := abs(a), abs(b)
	result := 0
	for k := 1; k <= 4; k++ {
		d := digitAt(absB, k)
		if d >= 1 && d <= 4 {
			result += digitAt(absA, d) * pow10(4-k)
		}
	}
	sign := signOf(a) * signOf(b)
	return sign * result
}

// digitAt returns the decimal digit of n at position pos (1=thousands place,
// 4=ones place).
func digitAt(n, pos int) int {
	return (n / pow10(4-pos)) % 10
}

func pow10(n int) int {
	r := 1
	for i := 0; i < n; i++ {
		r *= 10
	}
	return r
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func signOf(n int) int {
	if n < 0 {
		return -1
	}
	return 1
}
