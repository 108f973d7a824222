package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Limits are the interpreter's configurable fuel caps (spec §4.6
// "Limits and safety"). They can be tuned per embedder without a
// recompile by loading a YAML file with LoadLimits.
type Limits struct {
	MaxCallDepth   int `yaml:"max_call_depth"`
	MaxOperandSize int `yaml:"max_operand_size"`
	MaxInstructions int `yaml:"max_instructions"`
}

// DefaultLimits returns the interpreter's built-in caps, used when no
// limits file is supplied.
func DefaultLimits() Limits {
	return Limits{
		MaxCallDepth:    4096,
		MaxOperandSize:  1 << 16,
		MaxInstructions: 50_000_000,
	}
}

// LoadLimits reads a YAML limits file, overlaying it onto
// DefaultLimits so a partial file only overrides the fields it sets.
func LoadLimits(path string) (Limits, error) {
	limits := DefaultLimits()
	data, err := os.ReadFile(path)
	if err != nil {
		return limits, fmt.Errorf("read limits file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &limits); err != nil {
		return limits, fmt.Errorf("parse limits file %s: %w", path, err)
	}
	return limits, nil
}
