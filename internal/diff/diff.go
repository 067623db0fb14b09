// Package diff computes the difference between two schema snapshots and
// renders it as DDL. Six comparators share one generic core; what varies
// per object category is the identity key, the change signature, and the
// statement rendering.
package diff

import (
	"fmt"
	"sort"

	"github.com/pgsync/pgsync/internal/descriptor"
)

// Pair couples the source and target versions of one matched object.
type Pair[T any] struct {
	Source T
	Target T
}

// Result partitions two object lists. Order is preserved: ToCreate and
// ToModify follow source order, ToDrop follows target order, so identical
// inputs always produce identical scripts.
type Result[T any] struct {
	ToCreate []T
	ToDrop   []T
	ToModify []Pair[T]
}

// Empty reports whether the result carries no work.
func (r Result[T]) Empty() bool {
	return len(r.ToCreate) == 0 && len(r.ToDrop) == 0 && len(r.ToModify) == 0
}

// Compute diffs source against target. key must uniquely identify an object
// within one snapshot; signature selects the fields whose change counts as
// a modification. A nil signature marks a create/drop-only category.
func Compute[T any](source, target []T, key func(T) string, signature func(T) string) Result[T] {
	sourceByKey := make(map[string]T, len(source))
	for _, item := range source {
		sourceByKey[key(item)] = item
	}
	targetByKey := make(map[string]T, len(target))
	for _, item := range target {
		targetByKey[key(item)] = item
	}

	var result Result[T]
	for _, item := range source {
		if _, ok := targetByKey[key(item)]; !ok {
			result.ToCreate = append(result.ToCreate, item)
		}
	}
	for _, item := range target {
		if _, ok := sourceByKey[key(item)]; !ok {
			result.ToDrop = append(result.ToDrop, item)
		}
	}
	if signature == nil {
		return result
	}
	for _, item := range source {
		counterpart, ok := targetByKey[key(item)]
		if !ok {
			continue
		}
		if signature(item) != signature(counterpart) {
			result.ToModify = append(result.ToModify, Pair[T]{Source: item, Target: counterpart})
		}
	}
	return result
}

// Statement is one script entry: an optional comment line rendered above
// the SQL text. SQL keeps its trailing semicolon; a statement may also be
// comment-only when the formatter degraded into a TODO marker.
type Statement struct {
	Comment string
	SQL     string
}

// Tables computes the table-level diff. Tables are create/drop only;
// everything inside a surviving table is covered by the other comparators.
func Tables(source, target []*descriptor.Table) Result[*descriptor.Table] {
	return Compute(source, target, func(t *descriptor.Table) string { return t.Name }, nil)
}

// Columns computes the column diff. Columns belonging to tables being
// created or dropped wholesale are excluded: those tables are handled once,
// at the table level.
func Columns(source, target []*descriptor.Column, excludedTables map[string]bool) Result[*descriptor.Column] {
	return Compute(
		filterColumns(source, excludedTables),
		filterColumns(target, excludedTables),
		func(c *descriptor.Column) string { return c.Table + "." + c.Name },
		columnSignature,
	)
}

// Constraints computes the constraint diff, keyed by constraint name.
func Constraints(source, target []*descriptor.Constraint) Result[*descriptor.Constraint] {
	return Compute(source, target,
		func(c *descriptor.Constraint) string { return c.Name },
		constraintSignature,
	)
}

// Indexes computes the index diff, keyed by name. Indexes are create/drop
// only: a definition change surfaces only when it arrives under a new name.
func Indexes(source, target []*descriptor.Index) Result[*descriptor.Index] {
	return Compute(source, target, func(i *descriptor.Index) string { return i.Name }, nil)
}

// Routines computes the function/procedure diff. Identity is name plus
// routine kind so a function and a procedure sharing a name never match
// each other. Bodies are normalized before comparison: renaming the schema
// alone must not register as a change.
func Routines(source, target []*descriptor.Function) Result[*descriptor.Function] {
	return Compute(source, target,
		func(f *descriptor.Function) string { return f.Name + "|" + string(f.Kind()) },
		func(f *descriptor.Function) string { return routineSignature(f) },
	)
}

// Triggers computes the trigger diff, keyed by trigger name.
func Triggers(source, target []*descriptor.Trigger) Result[*descriptor.Trigger] {
	return Compute(source, target,
		func(t *descriptor.Trigger) string { return t.Name },
		triggerSignature,
	)
}

func filterColumns(columns []*descriptor.Column, excludedTables map[string]bool) []*descriptor.Column {
	if len(excludedTables) == 0 {
		return columns
	}
	kept := make([]*descriptor.Column, 0, len(columns))
	for _, c := range columns {
		if !excludedTables[c.Table] {
			kept = append(kept, c)
		}
	}
	return kept
}

func columnSignature(c *descriptor.Column) string {
	def := ""
	if c.Default != nil {
		def = canonicalExpr(*c.Default)
	}
	return fmt.Sprintf("%s|%s|%s,%s|%t|%s|%s",
		c.DataType,
		intOrEmpty(c.MaxLength),
		intOrEmpty(c.Precision), intOrEmpty(c.Scale),
		c.Nullable,
		def,
		c.Identity,
	)
}

func constraintSignature(c *descriptor.Constraint) string {
	return fmt.Sprintf("%s|%s|%s.%s|%s|%s",
		c.Kind,
		joinLower(c.Columns),
		c.ForeignTable, joinLower(c.ForeignColumns),
		c.UpdateRule, c.DeleteRule,
	)
}

func routineSignature(f *descriptor.Function) string {
	return fmt.Sprintf("%s|%s|%s", f.Kind(), f.Returns, normalizeBody(f.Body, f.Schema))
}

func triggerSignature(t *descriptor.Trigger) string {
	events := make([]string, 0, len(t.Events))
	for _, e := range t.Events {
		events = append(events, string(e))
	}
	// Acquisition paths report events in different orders; INSERT OR UPDATE
	// and UPDATE OR INSERT are the same trigger. The WHEN clause goes
	// through the expression canonicalizer because one adapter reports it
	// parenthesized and the other does not.
	sort.Strings(events)
	return fmt.Sprintf("%s|%s|%s|%s", t.Timing, joinLower(events), t.Function, canonicalExpr(t.When))
}

func intOrEmpty(v *int) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%d", *v)
}
