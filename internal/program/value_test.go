package program

import (
	"bytes"
	"encoding/gob"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumberSaturates(t *testing.T) {
	assert.Equal(t, 9999, Number(20000).Int())
	assert.Equal(t, -9999, Number(-20000).Int())
	assert.Equal(t, 42, Number(42).Int())
}

func TestClampFuzzStaysInBounds(t *testing.T) {
	f := fuzz.New()
	for i := 0; i < 500; i++ {
		var n int
		f.Fuzz(&n)
		got := Clamp(n)
		assert.GreaterOrEqual(t, got, NumberMin)
		assert.LessOrEqual(t, got, NumberMax)
		if n >= int(NumberMin) && n <= int(NumberMax) {
			assert.EqualValues(t, n, got)
		}
	}
}

func TestValueTruthy(t *testing.T) {
	assert.False(t, Number(0).Truthy())
	assert.True(t, Number(1).Truthy())
	assert.True(t, Number(-1).Truthy())
	assert.False(t, Keyword("").Truthy())
	assert.True(t, Keyword("a").Truthy())
}

func TestValueEqualAcrossKinds(t *testing.T) {
	assert.False(t, Number(0).Equal(Keyword("")))
	assert.True(t, Number(5).Equal(Number(5)))
	assert.True(t, Keyword("hi").Equal(Keyword("hi")))
}

func TestValueCompareUndefinedAcrossKinds(t *testing.T) {
	_, ok := Number(1).Compare(Keyword("a"))
	assert.False(t, ok)

	ord, ok := Number(1).Compare(Number(2))
	require.True(t, ok)
	assert.Negative(t, ord)

	ord, ok = Keyword("b").Compare(Keyword("a"))
	require.True(t, ok)
	assert.Positive(t, ord)
}

func TestCompEval(t *testing.T) {
	cases := []struct {
		c    Comp
		ord  int
		want bool
	}{
		{CompEq, 0, true},
		{CompEq, 1, false},
		{CompGt, 1, true},
		{CompLt, -1, true},
		{CompGe, 0, true},
		{CompLe, 0, true},
		{CompNe, 0, false},
		{CompNe, 1, true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.c.Eval(tc.ord), "comp=%v ord=%d", tc.c, tc.ord)
	}
}

func TestParseComp(t *testing.T) {
	_, ok := ParseComp(">=", false)
	assert.False(t, ok, "extended comparisons must be rejected without full_comparisons")

	c, ok := ParseComp(">=", true)
	require.True(t, ok)
	assert.Equal(t, CompGe, c)

	c, ok = ParseComp("=", false)
	require.True(t, ok)
	assert.Equal(t, CompEq, c)
}

func TestValueGobRoundTrip(t *testing.T) {
	values := []Value{Number(-9999), Number(0), Number(9999), Keyword("hello")}
	for _, v := range values {
		var buf bytes.Buffer
		require.NoError(t, gob.NewEncoder(&buf).Encode(v))

		var out Value
		require.NoError(t, gob.NewDecoder(&buf).Decode(&out))
		assert.True(t, v.Equal(out), "round trip mismatch for %v", v)
	}
}
