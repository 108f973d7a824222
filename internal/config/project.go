package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Project is the optional svmc.toml project file: entry source, output
// path and format, and a limits file path. cmd/svmc reads it and
// applies only the output path and format.
type Project struct {
	Source struct {
		Entry string `toml:"entry"`
	} `toml:"source"`
	Output struct {
		Path   string `toml:"path"`
		Format string `toml:"format"` // "binary" or "text"
	} `toml:"output"`
	Limits struct {
		File string `toml:"file"` // path to a YAML limits file
	} `toml:"limits"`
}

// LoadProject parses an svmc.toml project file.
func LoadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project file %s: %w", path, err)
	}
	var p Project
	if _, err := toml.Decode(string(data), &p); err != nil {
		return nil, fmt.Errorf("parse project file %s: %w", path, err)
	}
	return &p, nil
}
