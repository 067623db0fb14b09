package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/pgsync/pgsync/internal/errs"
)

func writeIgnoreFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ignore.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write ignore file: %v", err)
	}
	return path
}

func TestLoadIgnoreFileExplicitPath(t *testing.T) {
	path := writeIgnoreFile(t, `[tables]
patterns = ["tmp_*", "!tmp_keep"]

[triggers]
patterns = ["audit_*"]
`)

	cfg, err := LoadIgnoreFile(path)
	if err != nil {
		t.Fatalf("LoadIgnoreFile failed: %v", err)
	}
	if cfg == nil {
		t.Fatal("Expected a config, got nil")
	}

	if !cfg.Table("tmp_sessions") {
		t.Error("Expected tmp_sessions to be ignored")
	}
	if cfg.Table("tmp_keep") {
		t.Error("Expected the negation to keep tmp_keep")
	}
	if cfg.Table("users") {
		t.Error("Expected users to pass through")
	}
	if !cfg.Trigger("audit_users") {
		t.Error("Expected audit_users trigger to be ignored")
	}
}

func TestLoadIgnoreFileMissingExplicitPath(t *testing.T) {
	_, err := LoadIgnoreFile(filepath.Join(t.TempDir(), "missing.toml"))
	if err == nil {
		t.Fatal("Expected an error for a missing explicit path")
	}
	if !errs.IsConfig(err) {
		t.Errorf("Expected a config error, got %v", err)
	}
	if !strings.Contains(err.Error(), "does not exist") {
		t.Errorf("Expected error to say the file does not exist, got %q", err.Error())
	}
}

func TestLoadIgnoreFileDefaultMissing(t *testing.T) {
	// The default file is optional, so an empty working directory loads
	// a nil config without error.
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("Failed to change directory: %v", err)
	}
	defer os.Chdir(cwd)

	cfg, err := LoadIgnoreFile("")
	if err != nil {
		t.Fatalf("Expected a missing default file to be fine, got %v", err)
	}
	if cfg != nil {
		t.Errorf("Expected nil config when no default file exists, got %+v", cfg)
	}
}

func TestLoadIgnoreForCommand(t *testing.T) {
	path := writeIgnoreFile(t, `[sequences]
patterns = ["legacy_*"]
`)

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("config", "", "")
	if err := cmd.Flags().Set("config", path); err != nil {
		t.Fatalf("Failed to set flag: %v", err)
	}

	cfg, err := LoadIgnoreForCommand(cmd)
	if err != nil {
		t.Fatalf("LoadIgnoreForCommand failed: %v", err)
	}
	if cfg == nil || !cfg.Sequence("legacy_id_seq") {
		t.Error("Expected the config from the --config flag to be loaded")
	}
}

func TestLoadIgnoreForCommandWithoutFlag(t *testing.T) {
	// A command wired up without the root command has no --config flag at
	// all; the loader falls back to the optional default file.
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("Failed to change directory: %v", err)
	}
	defer os.Chdir(cwd)

	cfg, err := LoadIgnoreForCommand(&cobra.Command{Use: "bare"})
	if err != nil {
		t.Fatalf("Expected no error without a --config flag, got %v", err)
	}
	if cfg != nil {
		t.Errorf("Expected nil config, got %+v", cfg)
	}
}
