// Package ignore filters database objects out of a sync run based on an
// optional .pgsyncignore file in the working directory.
package ignore

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/pgsync/pgsync/internal/errs"
)

// FileName is the default name of the ignore file.
const FileName = ".pgsyncignore"

// Config holds glob patterns per object category. Patterns use
// filepath.Match syntax; a leading '!' negates, and negations win over
// matches. A nil *Config ignores nothing, so callers never need to check.
type Config struct {
	Tables     section `toml:"tables"`
	Functions  section `toml:"functions"`
	Procedures section `toml:"procedures"`
	Triggers   section `toml:"triggers"`
	Sequences  section `toml:"sequences"`
}

type section struct {
	Patterns []string `toml:"patterns"`
}

// Load reads FileName from the current directory. A missing file is not an
// error; filtering is optional.
func Load() (*Config, error) {
	return LoadPath(FileName)
}

// LoadPath reads an ignore file from an explicit path. A missing file
// yields a nil config.
func LoadPath(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, errs.Wrapf(errs.KindConfig, err, "failed to access ignore file %s", path)
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, errs.Wrapf(errs.KindConfig, err, "failed to parse ignore file %s", path)
	}
	return &cfg, nil
}

// Table reports whether a table name is ignored.
func (c *Config) Table(name string) bool {
	if c == nil {
		return false
	}
	return shouldIgnore(name, c.Tables.Patterns)
}

// Function reports whether a function name is ignored.
func (c *Config) Function(name string) bool {
	if c == nil {
		return false
	}
	return shouldIgnore(name, c.Functions.Patterns)
}

// Procedure reports whether a procedure name is ignored.
func (c *Config) Procedure(name string) bool {
	if c == nil {
		return false
	}
	return shouldIgnore(name, c.Procedures.Patterns)
}

// Trigger reports whether a trigger name is ignored.
func (c *Config) Trigger(name string) bool {
	if c == nil {
		return false
	}
	return shouldIgnore(name, c.Triggers.Patterns)
}

// Sequence reports whether a sequence name is ignored.
func (c *Config) Sequence(name string) bool {
	if c == nil {
		return false
	}
	return shouldIgnore(name, c.Sequences.Patterns)
}

func shouldIgnore(name string, patterns []string) bool {
	matched := false
	for _, pattern := range patterns {
		if strings.HasPrefix(pattern, "!") {
			continue
		}
		if matchPattern(pattern, name) {
			matched = true
			break
		}
	}

	// Negations win regardless of where they appear in the list.
	for _, pattern := range patterns {
		if !strings.HasPrefix(pattern, "!") {
			continue
		}
		if matchPattern(pattern[1:], name) {
			return false
		}
	}

	return matched
}

// matchPattern matches a glob-style pattern; an invalid pattern falls back
// to a literal comparison.
func matchPattern(pattern, name string) bool {
	matched, err := filepath.Match(pattern, name)
	if err != nil {
		return pattern == name
	}
	return matched
}
