package xlog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LvlWarn)

	l.Debug("should be dropped")
	assert.Empty(t, buf.String())

	l.Warn("should appear")
	assert.Contains(t, buf.String(), "should appear")
	assert.Contains(t, buf.String(), "WARN")
}

func TestWithAppendsContextWithoutMutatingParent(t *testing.T) {
	var buf bytes.Buffer
	root := New(&buf, LvlInfo)
	child := root.With("host", "alpha")

	child.Info("hello")
	root.Info("bare")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require := assert.New(t)
	require.Len(lines, 2)
	require.Contains(lines[0], "host=alpha")
	require.NotContains(lines[1], "host=alpha")
}

func TestKeyValuePairsRendered(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LvlInfo)
	l.Info("agent terminated", "name", "A:1", "err", "Halted")
	out := buf.String()
	assert.Contains(t, out, "name=A:1")
	assert.Contains(t, out, "err=Halted")
}
