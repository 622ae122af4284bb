package driver

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config mirrors quench.yaml. Zero values compile a project in place
// with external source maps disabled.
type Config struct {
	// EcmaTarget names the emit target. Only "es5" is supported; the
	// field exists so configs fail loudly instead of silently emitting
	// the wrong dialect.
	EcmaTarget string `yaml:"ecmaTarget"`

	// Module selects import/export lowering: "commonjs" or "none".
	Module string `yaml:"module"`

	// OutDir receives the generated files. Empty writes next to the
	// inputs.
	OutDir string `yaml:"outDir"`

	// Include lists the source files to compile.
	Include []string `yaml:"include"`

	IncludeSourceMap    bool `yaml:"includeSourceMap"`
	InlineSourceMap     bool `yaml:"inlineSourceMap"`
	EmbedSourcesContent bool `yaml:"embedSourcesContent"`

	// Concurrency caps parallel file compiles. Zero means GOMAXPROCS.
	Concurrency int `yaml:"concurrency"`
}

// DefaultConfig returns the settings used when no quench.yaml exists.
func DefaultConfig() Config {
	return Config{
		EcmaTarget: "es5",
		Module:     "commonjs",
	}
}

// LoadConfig reads and validates a quench.yaml.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects settings the pipeline cannot honor.
func (c Config) Validate() error {
	if c.EcmaTarget != "" && c.EcmaTarget != "es5" {
		return fmt.Errorf("unsupported ecmaTarget %q (only es5)", c.EcmaTarget)
	}
	switch c.Module {
	case "", "commonjs", "none":
	default:
		return fmt.Errorf("unsupported module %q (commonjs or none)", c.Module)
	}
	if c.InlineSourceMap && c.IncludeSourceMap {
		return fmt.Errorf("inlineSourceMap and includeSourceMap are mutually exclusive")
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must be >= 0")
	}
	return nil
}
