package main

import (
	"fmt"
	"os"

	"github.com/inhies/go-bytesize"
	"gopkg.in/yaml.v2"
)

// SessionConfig is the optional YAML file loaded with -config. It lets a
// caller describe a GC session declaratively instead of typing commands at
// the REPL: an initial memory ceiling and a list of commands to run before
// handing control to the interactive prompt (or exiting, with -script).
type SessionConfig struct {
	// Limit is a human-readable byte size ("64MB", "256KiB") or the
	// literal "auto" to size off a fraction of total system memory.
	Limit string `yaml:"limit"`

	// Script is a list of debug commands, each tokenized the same way a
	// REPL line is (see repl.go), run in order before any interactive
	// input is read.
	Script []string `yaml:"script"`
}

// loadSessionConfig reads and parses a YAML session file. A missing path
// is not an error: callers get a zero-value config and fall back to flags.
func loadSessionConfig(path string) (*SessionConfig, error) {
	if path == "" {
		return &SessionConfig{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading session config %q: %w", path, err)
	}
	cfg := &SessionConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing session config %q: %w", path, err)
	}
	return cfg, nil
}

// resolveLimit turns a -limit flag or config Limit value into a byte count.
// "" or "0" means no ceiling. "auto" sizes off autoLimitFraction of total system
// memory, as reported by sysTotalMemory (see sysmem_*.go).
const autoLimitFraction = 4 // use 1/4 of total system memory, if known

func resolveLimit(raw string) (uint64, error) {
	switch raw {
	case "", "0":
		return 0, nil
	case "auto":
		total, ok := sysTotalMemory()
		if !ok {
			return 0, fmt.Errorf("-limit=auto: could not determine total system memory on this platform")
		}
		return total / autoLimitFraction, nil
	default:
		size, err := bytesize.Parse([]byte(raw))
		if err != nil {
			return 0, fmt.Errorf("invalid -limit %q: %w", raw, err)
		}
		return uint64(size), nil
	}
}
