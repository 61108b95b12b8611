package program

import (
	"bytes"
	"encoding/gob"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgramFreezesInput(t *testing.T) {
	src := []Instruction{{Op: OpNoop}}
	p := NewProgram(src)
	src[0] = Instruction{Op: OpHalt}

	got, ok := p.At(0)
	require.True(t, ok)
	assert.Equal(t, OpNoop, got.Op, "NewProgram must copy, not alias, its input")
}

func TestProgramAtBounds(t *testing.T) {
	p := NewProgram([]Instruction{{Op: OpNoop}})
	_, ok := p.At(-1)
	assert.False(t, ok)
	_, ok = p.At(1)
	assert.False(t, ok)
	_, ok = p.At(0)
	assert.True(t, ok)
	assert.Equal(t, 1, p.Len())
}

func TestProgramGobRoundTrip(t *testing.T) {
	p := NewProgram([]Instruction{
		{Op: OpCopy, Args: []Argument{NumberArg(5), RegArg(RegLabel{Kind: RegX})}},
		{Op: OpAddi, Args: []Argument{RegArg(RegLabel{Kind: RegX}), NumberArg(1), RegArg(RegLabel{Kind: RegX})}},
		{Op: OpJump, Args: []Argument{JumpIndexArg(0)}},
	})

	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(p))

	out := &Program{}
	require.NoError(t, gob.NewDecoder(&buf).Decode(out))

	require.Equal(t, p.Len(), out.Len(), spew.Sdump(p, out))
	for i := 0; i < p.Len(); i++ {
		want, _ := p.At(i)
		got, _ := out.At(i)
		assert.Equal(t, want, got)
	}
}
