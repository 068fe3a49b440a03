package translator

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config carries the hand-maintained translation policy: which externally
// defined types may be imported from the companion type-definition module,
// which types are plain-data shapes that collapse to structural literals, and
// the watch-mode debounce window.
type Config struct {
	// CompanionModule is the import specifier of the shared type-definition
	// module referenced by generated import blocks.
	CompanionModule string `yaml:"companionModule"`
	// ImportAllowList names the only types an import may be emitted for.
	ImportAllowList []string `yaml:"importAllowList"`
	// PlainDataTypes names types whose member-initializer creation collapses
	// to a bare structural literal.
	PlainDataTypes []string `yaml:"plainDataTypes"`
	// DebounceMs is the watch-mode debounce window in milliseconds.
	DebounceMs int `yaml:"debounceMs"`

	allowSet map[string]struct{}
	plainSet map[string]struct{}
}

// DefaultConfig returns the built-in policy for the worker type set.
func DefaultConfig() *Config {
	cfg := &Config{
		CompanionModule: "./worker-types",
		ImportAllowList: []string{
			"Vec2",
			"TrajectoryPoint",
			"GridCell",
			"WorkerMessage",
			"WorkerResult",
			"PathRequest",
			"PathResponse",
		},
		PlainDataTypes: []string{
			"Vec2",
			"TrajectoryPoint",
			"GridCell",
		},
		DebounceMs: 250,
	}
	cfg.finalize()
	return cfg
}

// LoadConfig reads a YAML policy file over the defaults. Fields absent from
// the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.finalize()
	return cfg, nil
}

func (c *Config) finalize() {
	c.allowSet = make(map[string]struct{}, len(c.ImportAllowList))
	for _, name := range c.ImportAllowList {
		c.allowSet[name] = struct{}{}
	}
	c.plainSet = make(map[string]struct{}, len(c.PlainDataTypes))
	for _, name := range c.PlainDataTypes {
		c.plainSet[name] = struct{}{}
	}
}

func (c *Config) allowsImport(name string) bool {
	_, ok := c.allowSet[name]
	return ok
}

func (c *Config) isPlainData(name string) bool {
	_, ok := c.plainSet[name]
	return ok
}
