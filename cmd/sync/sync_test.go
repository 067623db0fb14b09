package sync

import (
	"os"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/pgsync/pgsync/internal/errs"
)

// newSideCmd builds a command with one side's flag group bound to local
// variables so tests never touch the real command's flag state.
func newSideCmd(flagPrefix string) (*cobra.Command, *string, *int, *string, *string, *string, *string) {
	var host, db, user, password, dir string
	var port int
	cmd := &cobra.Command{Use: "sync"}
	cmd.Flags().StringVar(&host, flagPrefix+"host", "localhost", "")
	cmd.Flags().IntVar(&port, flagPrefix+"port", 5432, "")
	cmd.Flags().StringVar(&db, flagPrefix+"db", "", "")
	cmd.Flags().StringVar(&user, flagPrefix+"user", "", "")
	cmd.Flags().StringVar(&password, flagPrefix+"password", "", "")
	cmd.Flags().StringVar(&dir, flagPrefix+"dir", "", "")
	return cmd, &host, &port, &db, &user, &password, &dir
}

func clearConnEnv() {
	for _, name := range []string{
		"PGHOST", "PGPORT", "PGDATABASE", "PGUSER", "PGPASSWORD", "PGAPPNAME",
		"SOURCE_HOST", "SOURCE_PORT", "SOURCE_DB", "SOURCE_USER", "SOURCE_PASSWORD",
		"TARGET_HOST", "TARGET_PORT", "TARGET_DB", "TARGET_USER", "TARGET_PASSWORD",
	} {
		os.Unsetenv(name)
	}
}

func TestResolveSideRejectsMixedFlags(t *testing.T) {
	clearConnEnv()
	cmd, host, port, db, user, password, dir := newSideCmd("source-")
	if err := cmd.ParseFlags([]string{"--source-dir", "schemas", "--source-host", "db.example.com"}); err != nil {
		t.Fatalf("Failed to parse flags: %v", err)
	}

	err := resolveSide(cmd, "source-", "SOURCE_", *dir, host, port, db, user, password)
	if err == nil {
		t.Fatal("Expected an error when mixing --source-dir with connection flags")
	}
	if !errs.IsValidation(err) {
		t.Errorf("Expected a validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "--source-dir cannot be combined with --source-host") {
		t.Errorf("Expected error to name both flags, got %q", err.Error())
	}
}

func TestResolveSideDirIgnoresEnvironment(t *testing.T) {
	clearConnEnv()
	defer clearConnEnv()
	os.Setenv("SOURCE_DB", "envdb")
	os.Setenv("SOURCE_USER", "envuser")

	cmd, host, port, db, user, password, dir := newSideCmd("source-")
	if err := cmd.ParseFlags([]string{"--source-dir", "schemas"}); err != nil {
		t.Fatalf("Failed to parse flags: %v", err)
	}

	if err := resolveSide(cmd, "source-", "SOURCE_", *dir, host, port, db, user, password); err != nil {
		t.Fatalf("Expected a directory side to skip connection validation, got %v", err)
	}
	if *db != "" {
		t.Errorf("Expected a directory side to leave connection values alone, got db %q", *db)
	}
}

func TestResolveSideEnvFallback(t *testing.T) {
	clearConnEnv()
	defer clearConnEnv()
	os.Setenv("TARGET_DB", "proddb")
	os.Setenv("PGUSER", "deploy")

	cmd, host, port, db, user, password, dir := newSideCmd("target-")
	if err := cmd.ParseFlags(nil); err != nil {
		t.Fatalf("Failed to parse flags: %v", err)
	}

	if err := resolveSide(cmd, "target-", "TARGET_", *dir, host, port, db, user, password); err != nil {
		t.Fatalf("Expected the environment to satisfy validation, got %v", err)
	}
	if *db != "proddb" {
		t.Errorf("Expected db 'proddb' from TARGET_DB, got %q", *db)
	}
	if *user != "deploy" {
		t.Errorf("Expected user 'deploy' from the PGUSER fallback, got %q", *user)
	}
}

func TestResolveSideMissingDatabase(t *testing.T) {
	clearConnEnv()
	cmd, host, port, db, user, password, dir := newSideCmd("source-")
	if err := cmd.ParseFlags(nil); err != nil {
		t.Fatalf("Failed to parse flags: %v", err)
	}

	err := resolveSide(cmd, "source-", "SOURCE_", *dir, host, port, db, user, password)
	if err == nil {
		t.Fatal("Expected an error with no database configured")
	}
	if !errs.IsConfig(err) {
		t.Errorf("Expected a config error, got %v", err)
	}
	if !strings.Contains(err.Error(), "--source-db flag or SOURCE_DB environment variable") {
		t.Errorf("Expected error to point at the flag and variable, got %q", err.Error())
	}
}

func TestPreRunSyncWithDirectories(t *testing.T) {
	clearConnEnv()
	defer ResetFlags()

	sourceDir = t.TempDir()
	targetDir = t.TempDir()
	if err := preRunSync(SyncCmd, nil); err != nil {
		t.Errorf("Expected two directory sides to pass pre-run checks, got %v", err)
	}
}

func TestSyncCommandFlags(t *testing.T) {
	for _, name := range []string{
		"source-host", "source-port", "source-db", "source-user", "source-password", "source-schema", "source-dir",
		"target-host", "target-port", "target-db", "target-user", "target-password", "target-schema", "target-dir",
		"file", "application-name", "password-prompt", "no-color",
	} {
		if SyncCmd.Flags().Lookup(name) == nil {
			t.Errorf("expected flag --%s to be registered", name)
		}
	}

	if SyncCmd.Flags().Lookup("source-schema").DefValue != "public" {
		t.Error("expected --source-schema to default to public")
	}
	if SyncCmd.Flags().Lookup("application-name").DefValue != "pgsync" {
		t.Error("expected --application-name to default to pgsync")
	}
}
