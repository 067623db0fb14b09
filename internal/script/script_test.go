package script

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pgsync/pgsync/internal/diff"
	"github.com/pgsync/pgsync/internal/errs"
)

func TestBuilderDocumentShape(t *testing.T) {
	b := NewBuilder("inventory", "inventory_replica", time.Date(2024, 3, 9, 14, 30, 5, 0, time.UTC))
	b.Section("TABLE OPERATIONS", []diff.Statement{
		{SQL: "CREATE TABLE inventory_replica.widgets (\n    \"id\" integer NOT NULL\n);"},
	})
	b.Section("COLUMN OPERATIONS", nil)

	got := b.String()

	wantHeader := `-- Schema Sync Script
-- Source: inventory
-- Target: inventory_replica
-- Generated: 2024-03-09 14:30:05
-- ================================================
`
	if !strings.HasPrefix(got, wantHeader) {
		t.Errorf("header mismatch:\n%s", got)
	}
	for _, want := range []string{
		"-- TABLE OPERATIONS\n-- ================================================\n",
		"CREATE TABLE inventory_replica.widgets",
		"-- COLUMN OPERATIONS",
		"-- No changes detected.",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("script missing %q:\n%s", want, got)
		}
	}
	if !strings.HasSuffix(got, EndMarker+"\n") {
		t.Errorf("script must end with the closing marker:\n%s", got)
	}
}

func TestBuilderAttachesCommentsBeforeStatements(t *testing.T) {
	b := NewBuilder("a", "b", time.Now())
	b.Section("CONSTRAINT OPERATIONS", []diff.Statement{
		{
			Comment: "-- TODO: drop dropped constraint orders_x_backup_20240309143005 on orders after verifying the sync",
			SQL:     "ALTER TABLE b.orders RENAME CONSTRAINT orders_x TO orders_x_backup_20240309143005;",
		},
	})

	got := b.String()
	commentAt := strings.Index(got, "-- TODO: drop dropped constraint")
	sqlAt := strings.Index(got, "ALTER TABLE b.orders")
	if commentAt == -1 || sqlAt == -1 || commentAt > sqlAt {
		t.Errorf("comment must precede its statement:\n%s", got)
	}
}

func TestBuilderCounts(t *testing.T) {
	b := NewBuilder("a", "b", time.Now())
	b.Section("TABLE OPERATIONS", []diff.Statement{
		{SQL: "CREATE TABLE b.t ();"},
		{Comment: "-- TODO: column t.x has no data type; add it manually"},
		{Comment: "-- TODO: backfill first", SQL: "ALTER TABLE b.t ADD COLUMN \"y\" integer NOT NULL;"},
	})
	b.Section("TRIGGER OPERATIONS", []diff.Statement{
		{SQL: "DROP TRIGGER IF EXISTS \"t_touch\" ON b.t;"},
	})

	if got := b.Statements(); got != 3 {
		t.Errorf("Statements() = %d, want 3", got)
	}
	if got := b.Todos(); got != 2 {
		t.Errorf("Todos() = %d, want 2", got)
	}
	if got := b.Drops(); got != 1 {
		t.Errorf("Drops() = %d, want 1", got)
	}
}

func TestBuilderSkipsEmptyStatements(t *testing.T) {
	b := NewBuilder("a", "b", time.Now())
	b.Section("INDEX OPERATIONS", []diff.Statement{{}})

	if got := b.String(); !strings.Contains(got, "-- No changes detected.") {
		t.Errorf("all-empty section should read as no changes:\n%s", got)
	}
}

func TestSaveCreatesParentDirectories(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out", "sync.sql")

	if err := Save(path, "-- Schema Sync Script\n"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "-- Schema Sync Script\n" {
		t.Errorf("content = %q", data)
	}
}

func TestSaveReportsUnusableParent(t *testing.T) {
	parent := filepath.Join(t.TempDir(), "plain")
	if err := os.WriteFile(parent, []byte("not a directory"), 0644); err != nil {
		t.Fatal(err)
	}

	err := Save(filepath.Join(parent, "sync.sql"), "-- Schema Sync Script\n")
	if !errs.IsConfig(err) {
		t.Fatalf("expected a config failure when the parent path is a file, got %v", err)
	}
}
