// Package config loads the optional .tdd-ratchet.yaml project file,
// which overrides how the test harness is invoked and where the status
// ledger lives.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"ratchet/internal/runner"
	"ratchet/internal/status"
)

// DefaultFileName is the config location relative to the project root.
const DefaultFileName = ".tdd-ratchet.yaml"

// Config is the resolved project configuration.
type Config struct {
	Harness    runner.Harness
	LedgerPath string // relative to the project root
}

// configFile is the YAML structure. Decoding is strict: unknown fields
// are an error.
type configFile struct {
	Harness *harnessEntry `yaml:"harness"`
	Ledger  string        `yaml:"ledger"`
}

type harnessEntry struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
	Format  string   `yaml:"format"`
}

// Default returns the configuration used when no config file exists:
// `go test ./... -json` with the ledger at its well-known path.
func Default() Config {
	return Config{
		Harness:    runner.Default(),
		LedgerPath: status.DefaultPath,
	}
}

// Parse decodes YAML config content, applying defaults for anything
// left unset.
func Parse(content []byte) (Config, error) {
	var cf configFile
	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)
	if err := dec.Decode(&cf); err != nil {
		if errors.Is(err, io.EOF) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	cfg := Default()
	if cf.Harness != nil {
		// Args only make sense relative to a command; applying them to
		// the default `go test` invocation would be a silent surprise.
		if cf.Harness.Args != nil && cf.Harness.Command == "" {
			return Config{}, errors.New("harness.args requires harness.command")
		}
		if cf.Harness.Command != "" {
			cfg.Harness.Command = cf.Harness.Command
			cfg.Harness.Args = cf.Harness.Args
		}
		if cf.Harness.Format != "" {
			format := runner.Format(cf.Harness.Format)
			if format != runner.FormatJSON && format != runner.FormatVerbose {
				return Config{}, fmt.Errorf("unknown harness format '%s' (expected json or verbose)", cf.Harness.Format)
			}
			cfg.Harness.Format = format
		}
	}
	if cf.Ledger != "" {
		cfg.LedgerPath = cf.Ledger
	}
	return cfg, nil
}

// Load reads the config file at path. A missing file yields the
// defaults; an unreadable or malformed one is an error.
func Load(path string) (Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("cannot read config %s: %w", path, err)
	}

	cfg, err := Parse(content)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadDir loads the config from its default location under dir.
func LoadDir(dir string) (Config, error) {
	return Load(filepath.Join(dir, DefaultFileName))
}
