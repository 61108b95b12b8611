// Package hostconfig serializes a Host's policy surface to and from the
// TOML configuration file format, mirroring the compiler and VM policy
// knobs a running host exposes.
package hostconfig

import (
	"bytes"
	"io"
	"os"

	"github.com/naoina/toml"

	"github.com/andrascorp/exahost/internal/compiler"
)

// VMConfig bounds the two capacity limits the scheduler and bridge enforce.
type VMConfig struct {
	MaxExas  int `toml:"max_exas"`
	MaxFiles int `toml:"max_files"`
}

// DefaultVMConfig matches the original implementation's conservative
// default of nine live agents and nine files.
func DefaultVMConfig() VMConfig {
	return VMConfig{MaxExas: 9, MaxFiles: 9}
}

// Config is the top-level serialized host configuration: hostname plus the
// compiler and VM policy sections.
type Config struct {
	Hostname       string          `toml:"hostname"`
	CompilerConfig compiler.Config `toml:"compiler_config"`
	VMConfig       VMConfig        `toml:"vm_config"`
}

// Default returns the conservative preset used when no config file exists.
func Default(hostname string) Config {
	return Config{
		Hostname:       hostname,
		CompilerConfig: compiler.DefaultConfig(),
		VMConfig:       DefaultVMConfig(),
	}
}

// Load parses a TOML configuration file from path.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses TOML configuration from an arbitrary reader, used directly
// by tests that don't want to touch the filesystem.
func Decode(r io.Reader) (Config, error) {
	var cfg Config
	dec := toml.NewDecoder(r)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes cfg to path as TOML, truncating any existing file.
func (c Config) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return c.Encode(f)
}

// Encode writes cfg as TOML to w.
func (c Config) Encode(w io.Writer) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}
