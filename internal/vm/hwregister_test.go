package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrascorp/exahost/internal/program"
)

func TestHWMapUnboundNameErrors(t *testing.T) {
	m := NewHWMap()
	_, err := m.Read("NOPE", "agent")
	assert.ErrorIs(t, err, ErrInvalidHWRegisterAccess)
}

func TestHWMapBindIsCaseInsensitive(t *testing.T) {
	m := NewHWMap()
	m.Bind("dbg", NewPrintRegister(func(string) {}))
	err := m.Write("DBG", "agent", program.Number(1))
	assert.NoError(t, err)
}

func TestPrintRegisterIsWriteOnly(t *testing.T) {
	var got string
	r := NewPrintRegister(func(line string) { got = line })
	require.NoError(t, r.Write("A", program.Keyword("hi")))
	assert.Contains(t, got, "A>")

	_, err := r.Read("A")
	assert.ErrorIs(t, err, ErrInvalidHWRegisterAccess)
}

func TestHashRegisterRequiresWriteBeforeRead(t *testing.T) {
	r := NewHashRegister()
	_, err := r.Read("A")
	assert.ErrorIs(t, err, ErrInvalidHWRegisterAccess)

	require.NoError(t, r.Write("A", program.Keyword("hello")))
	v, err := r.Read("A")
	require.NoError(t, err)
	assert.False(t, v.IsKeyword())
	assert.GreaterOrEqual(t, v.Int(), 0)
	assert.LessOrEqual(t, v.Int(), int(program.NumberMax))
}

func TestHashRegisterPerAgentIsolation(t *testing.T) {
	r := NewHashRegister()
	require.NoError(t, r.Write("A", program.Keyword("x")))
	_, err := r.Read("B")
	assert.ErrorIs(t, err, ErrInvalidHWRegisterAccess, "B never wrote, so it must not see A's digest")
}
