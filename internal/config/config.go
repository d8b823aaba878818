// Package config loads the engine's tunables: the partial evaluator's
// unroll/inline budgets (spec.md §9, "Partial evaluation termination"), the
// VM's initial value-stack size (spec.md §4.6), and the reference source
// loader's cache size (SPEC_FULL.md §5). A host embedding the engine is not
// required to use this package at all — simplify.Budget and
// host.MemoryLoader also accept an explicit value, and vm.Machine takes no
// stack size — but it gives cmd/flitterctl and tests a single YAML-shaped
// place to tune them.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable the engine reads at startup.
type Config struct {
	// MaxUnrollIterations caps how many iterations a single literal-source
	// `For` loop may be unrolled into during partial evaluation.
	MaxUnrollIterations int `yaml:"max_unroll_iterations"`
	// MaxInlineDepth caps how many nested known-function calls the partial
	// evaluator will inline before leaving a Call node as-is.
	MaxInlineDepth int `yaml:"max_inline_depth"`
	// InitialStackSize is loaded and defaulted here, but no engine package
	// reads it: vm.Machine's stacks start empty and grow on demand.
	InitialStackSize int `yaml:"initial_stack_size"`
	// LoaderCacheSize bounds the reference in-memory SourceLoader's cache.
	LoaderCacheSize int `yaml:"loader_cache_size"`
	// Debug is loaded from YAML, but no engine package reads it: it does
	// not stamp Node.DebugID or change flog's verbosity.
	Debug bool `yaml:"debug"`
}

// Default returns the configuration the engine ships with absent any
// override file.
func Default() Config {
	return Config{
		MaxUnrollIterations: 4096,
		MaxInlineDepth:      64,
		InitialStackSize:    256,
		LoaderCacheSize:     128,
		Debug:               false,
	}
}

// Load reads a YAML file at path and overlays it onto Default(). A missing
// file is not an error: it simply yields the defaults, since most embeddings
// never need to tune these.
func Load(path string) (Config, error) {
	cfg := Default()

	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
