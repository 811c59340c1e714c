// Package config loads .sexpfmt.toml files.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/vito/sexpfmt/pkg/sexp"
)

// FileName is the name of the configuration file searched for.
const FileName = ".sexpfmt.toml"

// DefaultAddr is the listen address of the HTTP service.
const DefaultAddr = "127.0.0.1:8080"

// Config represents a .sexpfmt.toml file.
type Config struct {
	// MaxWidth is the target maximum line length.
	MaxWidth int `toml:"max_width"`

	// IndentSize is the number of columns per nesting level.
	IndentSize int `toml:"indent_size"`

	// Extensions lists the file suffixes formatted when a directory is
	// given, e.g. [".sexp", ".scm"].
	Extensions []string `toml:"extensions,omitempty"`

	Server ServerConfig `toml:"server"`
}

// ServerConfig configures `sexpfmt serve`.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	opts := sexp.DefaultOptions()
	return &Config{
		MaxWidth:   opts.MaxWidth,
		IndentSize: opts.IndentSize,
		Server: ServerConfig{
			Addr: DefaultAddr,
		},
	}
}

// Options returns the layout options described by the config.
func (c *Config) Options() sexp.Options {
	return sexp.Options{
		MaxWidth:   c.MaxWidth,
		IndentSize: c.IndentSize,
	}
}

// Load loads a config file from path. Keys missing from the file keep their
// default values.
func Load(path string) (*Config, error) {
	config := Default()
	md, err := toml.DecodeFile(path, config)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("parsing %s: unknown key %q", path, undecoded[0].String())
	}

	// an explicit empty addr means "use the default", not "listen nowhere"
	if md.IsDefined("server", "addr") && config.Server.Addr == "" {
		config.Server.Addr = DefaultAddr
	}

	if err := config.Options().Validate(); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return config, nil
}

// Find searches for a config file starting from dir and walking up to parent
// directories, stopping at a .git boundary. It returns the path and the
// parsed config, or ("", nil, nil) if none is found.
func Find(dir string) (string, *Config, error) {
	return FindWithin(dir, "")
}

// FindWithin is Find, but also stops after searching root. An empty root
// leaves only the .git boundary.
func FindWithin(dir, root string) (string, *Config, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", nil, err
	}
	if root != "" {
		if root, err = filepath.Abs(root); err != nil {
			return "", nil, err
		}
	}
	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			config, err := Load(path)
			if err != nil {
				return "", nil, err
			}
			return path, config, nil
		}

		// Stop at .git boundary
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return "", nil, nil
		}
		if dir == root {
			return "", nil, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil, nil
		}
		dir = parent
	}
}
