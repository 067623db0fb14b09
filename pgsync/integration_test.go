package pgsync_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pgsync/pgsync/pgsync"
	"github.com/pgsync/pgsync/testutil"
)

func liveEndpoint(info *testutil.ContainerInfo, database string) pgsync.Endpoint {
	return pgsync.Endpoint{DatabaseConfig: pgsync.DatabaseConfig{
		Host:     info.Host,
		Port:     info.Port,
		Database: database,
		User:     "testuser",
		Password: "testpass",
	}}
}

func TestIntegrationSyncAddsMissingColumn(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	source, target := testutil.SetupPostgresPair(ctx, t)
	defer source.Terminate(ctx, t)
	defer target.Terminate(ctx, t)

	if _, err := source.Conn.ExecContext(ctx, `
CREATE TABLE users (
    id integer PRIMARY KEY,
    email character varying(255) NOT NULL
);`); err != nil {
		t.Fatalf("seed source: %v", err)
	}
	if _, err := target.Conn.ExecContext(ctx, `
CREATE TABLE users (
    id integer PRIMARY KEY
);`); err != nil {
		t.Fatalf("seed target: %v", err)
	}

	client := pgsync.NewClient(pgsync.DatabaseConfig{})
	opts := pgsync.SyncOptions{
		Source: liveEndpoint(source, "sourcedb"),
		Target: liveEndpoint(target, "targetdb"),
	}

	result, err := client.Sync(ctx, opts)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}

	if result.Statements != 1 {
		t.Fatalf("got %d statements, want exactly the added column:\n%s", result.Statements, result.Script)
	}
	want := `ALTER TABLE public.users ADD COLUMN "email" character varying NOT NULL;`
	if !strings.Contains(result.Script, want) {
		t.Errorf("script missing %q:\n%s", want, result.Script)
	}
	if result.Todos != 1 {
		t.Errorf("got %d todos, want the NOT NULL backfill marker:\n%s", result.Todos, result.Script)
	}
	if result.Drops != 0 {
		t.Errorf("got %d drops, want 0:\n%s", result.Drops, result.Script)
	}

	tableStart := strings.Index(result.Script, "-- TABLE OPERATIONS")
	columnStart := strings.Index(result.Script, "-- COLUMN OPERATIONS")
	if tableStart < 0 || columnStart < tableStart {
		t.Fatalf("script sections out of order:\n%s", result.Script)
	}
	if !strings.Contains(result.Script[tableStart:columnStart], "No changes detected.") {
		t.Errorf("table phase should be empty when both sides have the table:\n%s",
			result.Script[tableStart:columnStart])
	}

	// The script is plain SQL: comment lines are legal, so it applies as-is.
	if _, err := target.Conn.ExecContext(ctx, result.Script); err != nil {
		t.Fatalf("apply script: %v\n%s", err, result.Script)
	}

	again, err := client.Sync(ctx, opts)
	if err != nil {
		t.Fatalf("re-sync: %v", err)
	}
	if again.Statements != 0 || again.Todos != 0 {
		t.Errorf("schemas should match after applying the script, got %d statements and %d todos:\n%s",
			again.Statements, again.Todos, again.Script)
	}
}

// The generated file set must parse back into descriptors identical to the
// live schema it was rendered from, so a dir-vs-live sync right after gen
// reports nothing to do.
func TestIntegrationGenerateRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	source := testutil.SetupPostgresContainer(ctx, t)
	defer source.Terminate(ctx, t)

	seed := `
CREATE SEQUENCE invoice_numbers INCREMENT BY 5 START WITH 1000;

CREATE TABLE customers (
    id bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    email character varying(100) NOT NULL UNIQUE,
    name text NOT NULL,
    tags text[],
    created_at timestamp with time zone DEFAULT now() NOT NULL
);

CREATE TABLE orders (
    id bigint GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
    customer_id bigint NOT NULL REFERENCES customers (id) ON DELETE CASCADE,
    status text DEFAULT 'new' NOT NULL,
    total numeric(12,2) DEFAULT 0 NOT NULL,
    updated_at timestamp(3) without time zone,
    CONSTRAINT orders_total_check CHECK (total >= 0)
);

CREATE TABLE order_notes (
    id integer GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    order_id bigint REFERENCES orders (id) ON UPDATE RESTRICT ON DELETE SET NULL,
    body text NOT NULL
);

CREATE UNIQUE INDEX customers_name_idx ON customers (name) WHERE (created_at IS NOT NULL);
CREATE INDEX orders_status_idx ON orders (status);

CREATE FUNCTION order_total(order_id bigint) RETURNS numeric LANGUAGE sql STABLE
AS $$ SELECT total FROM orders WHERE id = order_id $$;

CREATE FUNCTION touch_updated() RETURNS trigger LANGUAGE plpgsql
AS $$ BEGIN NEW.updated_at := now(); RETURN NEW; END $$;

CREATE TRIGGER orders_touch BEFORE UPDATE ON orders FOR EACH ROW
WHEN (old.total IS DISTINCT FROM new.total) EXECUTE FUNCTION touch_updated();
`
	if _, err := source.Conn.ExecContext(ctx, seed); err != nil {
		t.Fatalf("seed source: %v", err)
	}

	client := pgsync.NewClient(pgsync.DatabaseConfig{
		Host:     source.Host,
		Port:     source.Port,
		Database: "testdb",
		User:     "testuser",
		Password: "testpass",
	})

	dir := filepath.Join(t.TempDir(), "defs")
	gen, err := client.Generate(ctx, pgsync.GenerateOptions{OutDir: dir})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if gen.TableCount != 3 || gen.SequenceCount != 1 || gen.RoutineCount != 2 || gen.TriggerCount != 1 {
		t.Errorf("unexpected object counts: %d tables, %d sequences, %d routines, %d triggers",
			gen.TableCount, gen.SequenceCount, gen.RoutineCount, gen.TriggerCount)
	}

	result, err := client.Sync(ctx, pgsync.SyncOptions{
		Source: pgsync.Endpoint{Dir: dir},
		Target: pgsync.Endpoint{},
	})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if result.Statements != 0 || result.Todos != 0 {
		t.Errorf("generated files should diff clean against their own database, got %d statements and %d todos:\n%s",
			result.Statements, result.Todos, result.Script)
	}
}
