package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrascorp/exahost/internal/program"
)

func compileOK(t *testing.T, cfg Config, src []string) *program.Program {
	t.Helper()
	prog, errs := New(cfg).Compile(src)
	require.Empty(t, errs, "unexpected compile errors: %v", errs)
	require.NotNil(t, prog)
	return prog
}

func TestCompileCountdownProgram(t *testing.T) {
	prog := compileOK(t, DefaultConfig(), []string{
		"copy 5 x",
		"mark loop",
		"subi x 1 x",
		"test x = 0",
		"fjmp loop",
		"halt",
	})
	// mark is erased at bake time; five executable instructions remain.
	assert.Equal(t, 5, prog.Len())
	last, ok := prog.At(prog.Len() - 1)
	require.True(t, ok)
	assert.Equal(t, program.OpHalt, last.Op)
}

func TestCompileSaturatingMultiply(t *testing.T) {
	prog := compileOK(t, DefaultConfig(), []string{"muli 9999 9999 x"})
	require.Equal(t, 1, prog.Len())
	instr, _ := prog.At(0)
	assert.Equal(t, program.OpMuli, instr.Op)
}

func TestMacroExpansionMatchesLiteralRepetition(t *testing.T) {
	expanded := compileOK(t, DefaultConfig(), []string{
		"@rep 3",
		"addi 1 x x",
		"@end",
	})
	literal := compileOK(t, DefaultConfig(), []string{
		"addi 1 x x",
		"addi 1 x x",
		"addi 1 x x",
	})

	require.Equal(t, literal.Len(), expanded.Len())
	for i := 0; i < literal.Len(); i++ {
		want, _ := literal.At(i)
		got, _ := expanded.At(i)
		assert.Equal(t, want, got)
	}
}

func TestCompileAccumulatesAllErrors(t *testing.T) {
	_, errs := New(DefaultConfig()).Compile([]string{
		"bogus line that is not a known opcode",
		"copy 1", // wrong arity
	})
	assert.GreaterOrEqual(t, len(errs), 2, "errors must accumulate across every bad line, not stop at the first")
}

func TestLabelErrorsAccumulateAlongsideEarlierStages(t *testing.T) {
	_, errs := New(DefaultConfig()).Compile([]string{
		"copy 1",
		"jump nowhere",
	})
	kinds := make(map[ErrorKind]bool, len(errs))
	for _, e := range errs {
		kinds[e.Kind] = true
	}
	assert.True(t, kinds[ErrSignatureMismatch], "the arity error must be reported: %v", errs)
	assert.True(t, kinds[ErrUndefinedLabel], "label baking must still run and report the undefined label: %v", errs)
}

func TestNumberOutOfBoundsRejected(t *testing.T) {
	_, errs := New(DefaultConfig()).Compile([]string{"copy 20000 x"})
	require.NotEmpty(t, errs)
}

func TestDuplicateLabelRejected(t *testing.T) {
	_, errs := New(DefaultConfig()).Compile([]string{
		"mark loop",
		"mark loop",
		"jump loop",
	})
	require.NotEmpty(t, errs)
}

func TestUndefinedLabelRejected(t *testing.T) {
	_, errs := New(DefaultConfig()).Compile([]string{"jump nowhere"})
	require.NotEmpty(t, errs)
}

func TestMultiMUseRejected(t *testing.T) {
	_, errs := New(DefaultConfig()).Compile([]string{"addi m m x"})
	require.NotEmpty(t, errs)
}

func TestExtendedConfigAllowsPrntAndKeywords(t *testing.T) {
	prog := compileOK(t, ExtendedConfig(), []string{"copy 'hi' x", "prnt x"})
	require.Equal(t, 2, prog.Len())
	instr, _ := prog.At(1)
	assert.Equal(t, program.OpPrnt, instr.Op)
}
