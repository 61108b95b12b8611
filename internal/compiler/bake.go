package compiler

import "github.com/andrascorp/exahost/internal/program"

// bakeLabels runs stage (d): strips Mark pseudo-instructions into a label
// map, then resolves every Jump/Tjmp/Fjmp/Repl label reference against it.
func bakeLabels(pending []pendingInstr) (*program.Program, []*Error) {
	var errs []*Error
	labelMap := make(map[string]int)
	var stripped []pendingInstr

	for _, instr := range pending {
		if instr.Op == program.OpMark {
			label := instr.Args[0].label
			if _, dup := labelMap[label]; dup {
				errs = append(errs, newErr(instr.Row, 1, ErrDuplicateLabel, label))
				continue
			}
			labelMap[label] = len(stripped)
			continue
		}
		stripped = append(stripped, instr)
	}

	instructions := make([]program.Instruction, len(stripped))
	for i, instr := range stripped {
		args := make([]program.Argument, len(instr.Args))
		for j, pa := range instr.Args {
			if !pa.isLabel {
				args[j] = pa.resolved
				continue
			}
			if !needsJumpTarget(instr.Op) {
				// A bareword JumpLabel in a non-jump position never reaches
				// bake with isLabel set; typecheck would have rejected it.
				args[j] = pa.resolved
				continue
			}
			idx, ok := labelMap[pa.label]
			if !ok {
				errs = append(errs, newErr(instr.Row, 1, ErrUndefinedLabel, pa.label))
				continue
			}
			args[j] = program.JumpIndexArg(uint8(idx))
		}
		instructions[i] = program.Instruction{Op: instr.Op, Args: args}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return program.NewProgram(instructions), nil
}

func needsJumpTarget(op program.Opcode) bool {
	switch op {
	case program.OpJump, program.OpTjmp, program.OpFjmp, program.OpRepl:
		return true
	default:
		return false
	}
}
