package host

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrascorp/exahost/internal/hostconfig"
)

func TestCompileExaThenAddExaThenStep(t *testing.T) {
	h, err := New(hostconfig.Default("test-host"))
	require.NoError(t, err)

	packed, errs := h.CompileExa("counter", []string{
		"copy 3 x",
		"mark loop",
		"subi x 1 x",
		"test x = 0",
		"fjmp loop",
		"halt",
	})
	require.Empty(t, errs)

	h.AddExa(packed)
	require.Equal(t, 1, h.Sched.Len())

	for i := 0; i < 20 && h.Sched.Len() > 0; i++ {
		h.Step()
	}
	assert.Equal(t, 0, h.Sched.Len(), "the agent must halt and be removed")
}

func TestCompileExaReportsErrorsWithoutPanicking(t *testing.T) {
	h, err := New(hostconfig.Default("test-host"))
	require.NoError(t, err)

	_, errs := h.CompileExa("bad", []string{"copy 1"})
	assert.NotEmpty(t, errs)
}

func TestCompileExaCachesRepeatedSource(t *testing.T) {
	h, err := New(hostconfig.Default("test-host"))
	require.NoError(t, err)

	src := []string{"noop"}
	first, errs := h.CompileExa("one", src)
	require.Empty(t, errs)
	second, errs := h.CompileExa("two", src)
	require.Empty(t, errs)

	assert.Same(t, first.Program, second.Program, "identical source must reuse the cached compiled program")
}

func TestSaveConfigRoundTrip(t *testing.T) {
	h, err := New(hostconfig.Default("test-host"))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "host.toml")
	require.NoError(t, h.SaveConfig(path))

	loaded, err := hostconfig.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "test-host", loaded.Hostname)
}
