package util

import (
	"fmt"

	"github.com/pgsync/pgsync/internal/script"
)

// WriteOutput writes content to the given path, or to stdout when the path
// is empty.
func WriteOutput(path, content string) error {
	if path == "" {
		fmt.Print(content)
		return nil
	}
	return script.Save(path, content)
}
