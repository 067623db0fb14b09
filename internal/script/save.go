package script

import (
	"os"
	"path/filepath"

	"github.com/pgsync/pgsync/internal/errs"
)

// Save writes a script to path, creating parent directories as needed.
func Save(path, content string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errs.Wrapf(errs.KindConfig, err, "failed to create directory %s", dir)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return errs.Wrapf(errs.KindConfig, err, "failed to write %s", path)
	}
	return nil
}
