// Package engine orchestrates sync and generation runs. It pulls
// descriptors from acquisition sources, diffs them category by category,
// and assembles the resulting DDL into the script document.
//
// A sync run is strictly sequential. Six phases execute in a fixed order
// because later phases assume earlier ones already reshaped the target:
// tables first, then columns, routines, constraints, indexes, triggers.
// There is no fan-out between phases or between the two sources; each
// phase queries both sources and waits before diffing.
package engine

import (
	"context"
	"time"

	"github.com/pgsync/pgsync/internal/descriptor"
	"github.com/pgsync/pgsync/internal/diff"
	"github.com/pgsync/pgsync/internal/ignore"
	"github.com/pgsync/pgsync/internal/inspect"
	"github.com/pgsync/pgsync/internal/logger"
	"github.com/pgsync/pgsync/internal/script"
)

// Options carries the run-level knobs shared by Sync and Generate.
type Options struct {
	// Ignore removes matching objects from both sides before any diffing
	// or rendering. Nil ignores nothing.
	Ignore *ignore.Config

	// Now stamps the document header and every backup name. The zero
	// value means the wall clock.
	Now time.Time
}

func (o Options) now() time.Time {
	if o.Now.IsZero() {
		return time.Now()
	}
	return o.Now
}

// SyncResult is the assembled script plus the counts the CLI reports.
type SyncResult struct {
	Script     string
	Statements int
	Todos      int
	Drops      int
}

// validator is the optional pre-flight check a source can run before
// acquisition starts. The live adapter verifies its schema exists; the
// file adapter already failed construction if its file set was unreadable.
type validator interface {
	Validate(ctx context.Context) error
}

// Sync diffs source against target and returns the script that reshapes
// the target. It takes ownership of both sources and closes them before
// returning, whether the run succeeded or not.
func Sync(ctx context.Context, source, target inspect.Source, opts Options) (*SyncResult, error) {
	defer closeSource(source)
	defer closeSource(target)

	if err := validate(ctx, source); err != nil {
		return nil, err
	}
	if err := validate(ctx, target); err != nil {
		return nil, err
	}

	now := opts.now()
	emitter := diff.NewEmitter(source.SchemaName(), target.SchemaName())
	emitter.Now = now
	doc := script.NewBuilder(source.Label(), target.Label(), now)
	log := logger.Get()

	srcTables, tgtTables, err := acquire(ctx, source, target, inspect.Source.Tables)
	if err != nil {
		return nil, err
	}
	tables := diff.Tables(filterTables(srcTables, opts.Ignore), filterTables(tgtTables, opts.Ignore))
	doc.Section("TABLE OPERATIONS", emitter.TableStatements(tables))
	log.Debug("table phase done", "create", len(tables.ToCreate), "drop", len(tables.ToDrop))

	// Tables created or renamed wholesale carry their own columns, and a
	// renamed table keeps its constraints, indexes and triggers; diffing
	// those again would point ALTER and DROP statements at names the
	// table phase already moved.
	wholesale := map[string]bool{}
	renamed := map[string]bool{}
	for _, t := range tables.ToCreate {
		wholesale[t.Name] = true
	}
	for _, t := range tables.ToDrop {
		wholesale[t.Name] = true
		renamed[t.Name] = true
	}

	srcColumns, tgtColumns, err := acquire(ctx, source, target, inspect.Source.Columns)
	if err != nil {
		return nil, err
	}
	columns := diff.Columns(filterColumns(srcColumns, opts.Ignore), filterColumns(tgtColumns, opts.Ignore), wholesale)
	doc.Section("COLUMN OPERATIONS", emitter.ColumnStatements(columns))

	srcRoutines, tgtRoutines, err := acquire(ctx, source, target, inspect.Source.Functions)
	if err != nil {
		return nil, err
	}
	routines := diff.Routines(filterRoutines(srcRoutines, opts.Ignore), filterRoutines(tgtRoutines, opts.Ignore))
	doc.Section("FUNCTION OPERATIONS", emitter.RoutineStatements(routines))

	srcConstraints, tgtConstraints, err := acquire(ctx, source, target, inspect.Source.Constraints)
	if err != nil {
		return nil, err
	}
	constraints := diff.Constraints(
		filterConstraints(srcConstraints, opts.Ignore),
		withoutTables(filterConstraints(tgtConstraints, opts.Ignore), renamed, func(c *descriptor.Constraint) string { return c.Table }),
	)
	doc.Section("CONSTRAINT OPERATIONS", emitter.ConstraintStatements(constraints))

	srcIndexes, tgtIndexes, err := acquire(ctx, source, target, inspect.Source.Indexes)
	if err != nil {
		return nil, err
	}
	indexes := diff.Indexes(
		filterIndexes(srcIndexes, opts.Ignore),
		withoutTables(filterIndexes(tgtIndexes, opts.Ignore), renamed, func(i *descriptor.Index) string { return i.Table }),
	)
	doc.Section("INDEX OPERATIONS", emitter.IndexStatements(indexes))

	srcTriggers, tgtTriggers, err := acquire(ctx, source, target, inspect.Source.Triggers)
	if err != nil {
		return nil, err
	}
	triggers := diff.Triggers(
		filterTriggers(srcTriggers, opts.Ignore),
		withoutTables(filterTriggers(tgtTriggers, opts.Ignore), renamed, func(t *descriptor.Trigger) string { return t.Table }),
	)
	doc.Section("TRIGGER OPERATIONS", emitter.TriggerStatements(triggers))

	result := &SyncResult{
		Script:     doc.String(),
		Statements: doc.Statements(),
		Todos:      doc.Todos(),
		Drops:      doc.Drops(),
	}
	log.Debug("sync complete", "statements", result.Statements, "todos", result.Todos, "drops", result.Drops)
	return result, nil
}

// acquire fetches one descriptor category from both sources in sequence.
func acquire[T any](ctx context.Context, source, target inspect.Source, list func(inspect.Source, context.Context) ([]T, error)) ([]T, []T, error) {
	src, err := list(source, ctx)
	if err != nil {
		return nil, nil, err
	}
	tgt, err := list(target, ctx)
	if err != nil {
		return nil, nil, err
	}
	return src, tgt, nil
}

func validate(ctx context.Context, s inspect.Source) error {
	if v, ok := s.(validator); ok {
		return v.Validate(ctx)
	}
	return nil
}

// closeSource releases a source unconditionally. Close failures are
// logged, never returned, so teardown cannot mask the run's own error.
func closeSource(s inspect.Source) {
	if err := s.Close(); err != nil {
		logger.Get().Warn("failed to close source", "source", s.Label(), "error", err)
	}
}

// withoutTables drops entries belonging to tables the table phase renamed
// away; the rename carried them along.
func withoutTables[T any](items []T, renamed map[string]bool, table func(T) string) []T {
	if len(renamed) == 0 {
		return items
	}
	kept := make([]T, 0, len(items))
	for _, item := range items {
		if !renamed[table(item)] {
			kept = append(kept, item)
		}
	}
	return kept
}

func filterTables(tables []*descriptor.Table, ign *ignore.Config) []*descriptor.Table {
	kept := make([]*descriptor.Table, 0, len(tables))
	for _, t := range tables {
		if !ign.Table(t.Name) {
			kept = append(kept, t)
		}
	}
	return kept
}

func filterColumns(columns []*descriptor.Column, ign *ignore.Config) []*descriptor.Column {
	kept := make([]*descriptor.Column, 0, len(columns))
	for _, c := range columns {
		if !ign.Table(c.Table) {
			kept = append(kept, c)
		}
	}
	return kept
}

func filterConstraints(constraints []*descriptor.Constraint, ign *ignore.Config) []*descriptor.Constraint {
	kept := make([]*descriptor.Constraint, 0, len(constraints))
	for _, c := range constraints {
		if !ign.Table(c.Table) {
			kept = append(kept, c)
		}
	}
	return kept
}

func filterIndexes(indexes []*descriptor.Index, ign *ignore.Config) []*descriptor.Index {
	kept := make([]*descriptor.Index, 0, len(indexes))
	for _, i := range indexes {
		if !ign.Table(i.Table) {
			kept = append(kept, i)
		}
	}
	return kept
}

func filterRoutines(routines []*descriptor.Function, ign *ignore.Config) []*descriptor.Function {
	kept := make([]*descriptor.Function, 0, len(routines))
	for _, f := range routines {
		ignored := ign.Function(f.Name)
		if f.Kind() == descriptor.RoutineProcedure {
			ignored = ign.Procedure(f.Name)
		}
		if !ignored {
			kept = append(kept, f)
		}
	}
	return kept
}

func filterTriggers(triggers []*descriptor.Trigger, ign *ignore.Config) []*descriptor.Trigger {
	kept := make([]*descriptor.Trigger, 0, len(triggers))
	for _, t := range triggers {
		if !ign.Table(t.Table) && !ign.Trigger(t.Name) {
			kept = append(kept, t)
		}
	}
	return kept
}

func filterSequences(sequences []*descriptor.Sequence, ign *ignore.Config) []*descriptor.Sequence {
	kept := make([]*descriptor.Sequence, 0, len(sequences))
	for _, s := range sequences {
		if !ign.Sequence(s.Name) {
			kept = append(kept, s)
		}
	}
	return kept
}
