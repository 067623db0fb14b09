package util

import (
	"github.com/spf13/cobra"

	"github.com/pgsync/pgsync/internal/errs"
	"github.com/pgsync/pgsync/internal/ignore"
)

// LoadIgnoreForCommand resolves the root --config flag and loads the
// ignore configuration it points at. Commands running without the root
// command fall back to the default file.
func LoadIgnoreForCommand(cmd *cobra.Command) (*ignore.Config, error) {
	path := ""
	if f := cmd.Flag("config"); f != nil {
		path = f.Value.String()
	}
	return LoadIgnoreFile(path)
}

// LoadIgnoreFile loads the ignore configuration. An empty path means the
// optional default file in the working directory; an explicit path must
// exist.
func LoadIgnoreFile(path string) (*ignore.Config, error) {
	if path == "" {
		return ignore.Load()
	}
	cfg, err := ignore.LoadPath(path)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, errs.Newf(errs.KindConfig, "ignore file %s does not exist", path)
	}
	return cfg, nil
}
