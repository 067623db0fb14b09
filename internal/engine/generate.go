package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pgsync/pgsync/internal/descriptor"
	"github.com/pgsync/pgsync/internal/diff"
	"github.com/pgsync/pgsync/internal/errs"
	"github.com/pgsync/pgsync/internal/inspect"
	"github.com/pgsync/pgsync/internal/script"
)

// GenResult holds the rendered contents of the three definition files plus
// the object counts the CLI reports. File names are fixed by the adapter
// contract (inspect.SchemaFileName and friends).
type GenResult struct {
	Schema   string
	Routines string
	Triggers string

	TableCount    int
	SequenceCount int
	RoutineCount  int
	TriggerCount  int
}

// WriteFiles writes the three definition files into dir, creating the
// directory as needed. The resulting file set parses back into the same
// descriptors it was rendered from.
func (r *GenResult) WriteFiles(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errs.Wrapf(errs.KindConfig, err, "failed to create %s", dir)
	}
	files := []struct {
		name    string
		content string
	}{
		{inspect.SchemaFileName, r.Schema},
		{inspect.RoutinesFileName, r.Routines},
		{inspect.TriggersFileName, r.Triggers},
	}
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := os.WriteFile(path, []byte(f.content), 0644); err != nil {
			return errs.Wrapf(errs.KindConfig, err, "failed to write %s", path)
		}
	}
	return nil
}

// Generate introspects one source and renders its schema as the file set
// the sync file adapter reads back. It takes ownership of the source and
// closes it before returning.
func Generate(ctx context.Context, source inspect.Source, opts Options) (*GenResult, error) {
	defer closeSource(source)

	if err := validate(ctx, source); err != nil {
		return nil, err
	}

	tables, err := source.Tables(ctx)
	if err != nil {
		return nil, err
	}
	tables = filterTables(tables, opts.Ignore)
	if len(tables) == 0 {
		return nil, errs.Newf(errs.KindValidation,
			"schema %q contains no tables; check the schema name or generate against a populated database", source.SchemaName())
	}

	sequences, err := source.Sequences(ctx)
	if err != nil {
		return nil, err
	}
	sequences = filterSequences(sequences, opts.Ignore)

	routines, err := source.Functions(ctx)
	if err != nil {
		return nil, err
	}
	routines = filterRoutines(routines, opts.Ignore)

	triggers, err := source.Triggers(ctx)
	if err != nil {
		return nil, err
	}
	triggers = filterTriggers(triggers, opts.Ignore)

	schema := source.SchemaName()
	now := opts.now()
	emitter := diff.NewEmitter(schema, schema)
	emitter.Now = now

	return &GenResult{
		Schema:        renderSchema(emitter, schema, tables, sequences, now),
		Routines:      renderRoutines(emitter, schema, routines, now),
		Triggers:      renderTriggers(emitter, schema, triggers, now),
		TableCount:    len(tables),
		SequenceCount: len(sequences),
		RoutineCount:  len(routines),
		TriggerCount:  len(triggers),
	}, nil
}

// renderSchema writes sequences, then tables in dependency order, each
// followed by its non-FK constraints and indexes. Foreign keys come last
// so a cycle-broken table order can never reference a key that does not
// exist yet.
func renderSchema(e *diff.Emitter, schema string, tables []*descriptor.Table, sequences []*descriptor.Sequence, now time.Time) string {
	var b strings.Builder
	writeFileHeader(&b, "Schema definitions", schema, now)

	for _, seq := range sequences {
		writeStatement(&b, e.CreateSequence(seq))
	}

	sorted := diff.SortTables(tables)
	for _, t := range sorted {
		writeStatement(&b, e.CreateTable(t))
		for _, c := range t.Constraints {
			if c.Kind != descriptor.ConstraintForeignKey {
				writeStatement(&b, e.AddConstraint(c))
			}
		}
		for _, idx := range t.Indexes {
			writeStatement(&b, e.CreateIndex(idx))
		}
	}
	for _, t := range sorted {
		for _, c := range t.Constraints {
			if c.Kind == descriptor.ConstraintForeignKey {
				writeStatement(&b, e.AddConstraint(c))
			}
		}
	}
	return b.String()
}

func renderRoutines(e *diff.Emitter, schema string, routines []*descriptor.Function, now time.Time) string {
	var b strings.Builder
	writeFileHeader(&b, "Routine definitions", schema, now)
	for _, f := range routines {
		writeStatement(&b, e.CreateRoutine(f))
	}
	return b.String()
}

func renderTriggers(e *diff.Emitter, schema string, triggers []*descriptor.Trigger, now time.Time) string {
	var b strings.Builder
	writeFileHeader(&b, "Trigger definitions", schema, now)
	for _, t := range triggers {
		writeStatement(&b, e.CreateTrigger(t))
	}
	return b.String()
}

func writeFileHeader(b *strings.Builder, title, schema string, now time.Time) {
	fmt.Fprintf(b, "-- %s for schema %s\n", title, schema)
	fmt.Fprintf(b, "-- Generated: %s\n", now.Format(script.TimeFormat))
}

func writeStatement(b *strings.Builder, s diff.Statement) {
	if s.Comment == "" && s.SQL == "" {
		return
	}
	b.WriteString("\n")
	if s.Comment != "" {
		b.WriteString(s.Comment + "\n")
	}
	if s.SQL != "" {
		b.WriteString(s.SQL + "\n")
	}
}
