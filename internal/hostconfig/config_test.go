package hostconfig

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cfg := Default("alpha")
	cfg.VMConfig.MaxExas = 12

	var buf bytes.Buffer
	require.NoError(t, cfg.Encode(&buf))

	got, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, cfg.Hostname, got.Hostname)
	assert.Equal(t, cfg.VMConfig, got.VMConfig)
	assert.Equal(t, cfg.CompilerConfig, got.CompilerConfig)
}

func TestDefaultVMConfig(t *testing.T) {
	vmcfg := DefaultVMConfig()
	assert.Equal(t, 9, vmcfg.MaxExas)
	assert.Equal(t, 9, vmcfg.MaxFiles)
}
