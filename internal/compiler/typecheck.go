package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/andrascorp/exahost/internal/program"
)

// pendingArg is an Argument that may still be waiting on label resolution.
type pendingArg struct {
	resolved program.Argument
	label    string
	isLabel  bool
}

// pendingInstr is one type-checked instruction prior to label baking.
type pendingInstr struct {
	Row  int
	Op   program.Opcode
	Args []pendingArg
}

// typecheckAndLower runs stage (c): signature validation, then immediately
// lowers every well-typed line into a pendingInstr so bakeLabels has a single
// flat list to resolve.
func typecheckAndLower(lines []*Line, cfg Config) ([]pendingInstr, []*Error) {
	sigs := signatureSet(cfg)
	var out []pendingInstr
	var errs []*Error

	for _, l := range lines {
		if l.hasError() {
			continue // already reported by the caller from the tokenize pass
		}
		opTok, ok := l.opToken()
		if !ok || opTok.Type == TComment {
			continue
		}
		if opTok.Type != TOpCode {
			continue
		}

		mnemonic := opTok.Content
		if mnemonic == "prnt" && !cfg.ExtraInstructions {
			errs = append(errs, newErr(l.Row, opTok.Col, ErrInstructionNotAllowed, mnemonic))
			continue
		}
		op, ok := program.LookupMnemonic(mnemonic, cfg.ExtraInstructions)
		if !ok {
			errs = append(errs, newErr(l.Row, opTok.Col, ErrUnknownInstruction, mnemonic))
			continue
		}
		sig, ok := sigs[op]
		if !ok {
			errs = append(errs, newErr(l.Row, opTok.Col, ErrUnknownInstruction, mnemonic))
			continue
		}

		args := l.Tokens[1:]
		if len(args) != len(sig) {
			errs = append(errs, newErr(l.Row, opTok.Col, ErrSignatureMismatch,
				fmt.Sprintf("%s: expected %d args, found %d", mnemonic, len(sig), len(args))))
			continue
		}

		lineOK := true
		mCount := 0
		pendArgs := make([]pendingArg, len(args))
		for i, tok := range args {
			if !sig[i][tok.Type] {
				errs = append(errs, newErr(l.Row, tok.Col, ErrArgTypeMismatch, tok.Content))
				lineOK = false
				continue
			}
			if tok.Type == TNumber {
				n, err := strconv.Atoi(tok.Content)
				if err != nil || n < int(program.NumberMin) || n > int(program.NumberMax) {
					errs = append(errs, newErr(l.Row, tok.Col, ErrNumberOutOfBounds, tok.Content))
					lineOK = false
					continue
				}
			}
			pa, err := toPendingArg(tok, cfg)
			if err != nil {
				errs = append(errs, err)
				lineOK = false
				continue
			}
			pendArgs[i] = pa
			if tok.Type == TRegisterLabel && strings.ToUpper(tok.Content) == "M" {
				mCount++
			}
		}
		if mCount > 1 {
			errs = append(errs, newErr(l.Row, opTok.Col, ErrMultiMUse, mnemonic))
			lineOK = false
		}
		if !lineOK {
			continue
		}
		out = append(out, pendingInstr{Row: l.Row, Op: op, Args: pendArgs})
	}
	return out, errs
}

func toPendingArg(tok Token, cfg Config) (pendingArg, *Error) {
	switch tok.Type {
	case TJumpLabel:
		return pendingArg{isLabel: true, label: tok.Content}, nil
	case TNumber:
		n, _ := strconv.Atoi(tok.Content)
		return pendingArg{resolved: program.NumberArg(program.Clamp(n))}, nil
	case TComparison:
		c, ok := program.ParseComp(tok.Content, cfg.FullComparisons)
		if !ok {
			return pendingArg{}, newErr(tok.Row, tok.Col, ErrInvalidComparison, tok.Content)
		}
		return pendingArg{resolved: program.CompArg(c)}, nil
	case TKeyword:
		inner := tok.Content
		if len(inner) >= 2 {
			inner = inner[1 : len(inner)-1]
		}
		return pendingArg{resolved: program.KeywordArg(inner)}, nil
	case TRegisterLabel:
		return pendingArg{resolved: program.RegArg(parseRegLabel(tok.Content))}, nil
	default:
		return pendingArg{}, newErr(tok.Row, tok.Col, ErrArgTypeMismatch, tok.Content)
	}
}

func parseRegLabel(s string) program.RegLabel {
	if strings.HasPrefix(s, "#") {
		return program.RegLabel{Kind: program.RegH, Name: strings.ToUpper(s[1:])}
	}
	switch strings.ToUpper(s) {
	case "X":
		return program.RegLabel{Kind: program.RegX}
	case "T":
		return program.RegLabel{Kind: program.RegT}
	case "F":
		return program.RegLabel{Kind: program.RegF}
	case "M":
		return program.RegLabel{Kind: program.RegM}
	default:
		return program.RegLabel{Kind: program.RegH, Name: strings.ToUpper(s)}
	}
}
