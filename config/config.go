package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileLists references .f files listing sources.
type FileLists struct {
	// Paths are the filelist files, relative to the workspace root unless
	// written as absolute paths.
	Paths []string `yaml:"Paths"`

	// Absolute controls how entries inside the filelists resolve: true
	// means entries are absolute paths; false (default) resolves them
	// relative to the filelist's own directory.
	Absolute bool `yaml:"Absolute"`
}

// Condition is the optional If: path filter. A file is included iff it
// matches some PathMatch pattern (or the list is empty) and matches no
// PathExclude pattern.
type Condition struct {
	PathMatch   StringList `yaml:"PathMatch"`
	PathExclude StringList `yaml:"PathExclude"`
}

// SlangdConfig is the parsed .slangd file.
type SlangdConfig struct {
	// Files lists explicit source files.
	Files []string `yaml:"Files"`

	// FileLists references .f files.
	FileLists FileLists `yaml:"FileLists"`

	// IncludeDirs are `include search directories.
	IncludeDirs []string `yaml:"IncludeDirs"`

	// Defines are NAME or NAME=value macro definitions.
	Defines []string `yaml:"Defines"`

	// If is the optional path filter.
	If Condition `yaml:"If"`

	// AutoDiscover enables the recursive workspace scan when no explicit
	// sources are configured. Defaults to true; the pointer distinguishes
	// "absent" from "false".
	AutoDiscover *bool `yaml:"AutoDiscover"`
}

// StringList accepts a YAML scalar or sequence of scalars.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var one string
		if err := node.Decode(&one); err != nil {
			return err
		}
		*s = StringList{one}
		return nil
	case yaml.SequenceNode:
		var many []string
		if err := node.Decode(&many); err != nil {
			return err
		}
		*s = StringList(many)
		return nil
	default:
		return fmt.Errorf("config: expected string or list, got yaml kind %d", node.Kind)
	}
}

// Default returns the configuration used when no .slangd file exists:
// auto-discovery over the workspace.
func Default() *SlangdConfig {
	return &SlangdConfig{}
}

// AutoDiscoverEnabled reports the effective AutoDiscover setting.
func (c *SlangdConfig) AutoDiscoverEnabled() bool {
	if c.AutoDiscover == nil {
		return true
	}
	return *c.AutoDiscover
}

// HasExplicitSources reports whether the config names sources directly,
// which switches discovery from the workspace scan to the filelist path.
func (c *SlangdConfig) HasExplicitSources() bool {
	return len(c.Files) > 0 || len(c.FileLists.Paths) > 0
}

// LoadFile reads and parses a .slangd file. A missing file returns
// (nil, nil): the caller falls back to Default. A malformed file returns an
// error; the caller keeps its previous configuration.
func LoadFile(path string) (*SlangdConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}

	var cfg SlangdConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}
	return &cfg, nil
}
