package compiler

import "github.com/andrascorp/exahost/internal/program"

// position is the set of token types accepted at one argument slot.
type position map[TokenType]bool

func posOf(types ...TokenType) position {
	p := make(position, len(types))
	for _, t := range types {
		p[t] = true
	}
	return p
}

// Signature lists, per argument position, the acceptable token types.
type Signature []position

// signatureSet builds the opcode -> Signature table for one Config. R, RN, V,
// C and L below mirror the argument-type sets named in the instruction table:
// R={RegisterLabel}, RN={RegisterLabel,Number}, V=RN (+Keyword under
// KeywordLiterals), C={Comparison}, L={JumpLabel}.
func signatureSet(cfg Config) map[program.Opcode]Signature {
	r := posOf(TRegisterLabel)
	rn := posOf(TRegisterLabel, TNumber)
	v := posOf(TRegisterLabel, TNumber)
	if cfg.KeywordLiterals {
		v = posOf(TRegisterLabel, TNumber, TKeyword)
	}
	c := posOf(TComparison)
	l := posOf(TJumpLabel)

	sigs := map[program.Opcode]Signature{
		program.OpCopy:    {v, r},
		program.OpVoid:    {r},
		program.OpAddi:    {rn, rn, r},
		program.OpSubi:    {rn, rn, r},
		program.OpMuli:    {rn, rn, r},
		program.OpDivi:    {rn, rn, r},
		program.OpModi:    {rn, rn, r},
		program.OpSwiz:    {rn, rn, r},
		program.OpRand:    {rn, rn, r},
		program.OpTest:    {v, c, v},
		program.OpTestMrd: {},
		program.OpTestEof: {},
		program.OpMark:    {l},
		program.OpJump:    {l},
		program.OpTjmp:    {l},
		program.OpFjmp:    {l},
		program.OpMake:    {},
		program.OpGrab:    {rn},
		program.OpFile:    {r},
		program.OpSeek:    {rn},
		program.OpDrop:    {},
		program.OpWipe:    {},
		program.OpLink:    {rn},
		program.OpRepl:    {l},
		program.OpHalt:    {},
		program.OpKill:    {},
		program.OpNoop:    {},
		program.OpHost:    {r},
	}
	if cfg.ExtraInstructions {
		sigs[program.OpPrnt] = Signature{v}
	}
	return sigs
}
