package diff

import (
	"fmt"
	"strings"

	"github.com/pgsync/pgsync/internal/descriptor"
	"github.com/pgsync/pgsync/internal/names"
	"github.com/pgsync/pgsync/internal/sqlfmt"
)

// ColumnStatements renders the column phase: additions, coalesced
// alterations, then rename-to-backup for columns the source no longer has.
func (e *Emitter) ColumnStatements(r Result[*descriptor.Column]) []Statement {
	var stmts []Statement
	for _, c := range r.ToCreate {
		stmts = append(stmts, e.addColumn(c))
	}
	for _, p := range r.ToModify {
		stmts = append(stmts, e.alterColumn(p.Source, p.Target))
	}
	for _, c := range r.ToDrop {
		stmts = append(stmts, e.renameColumn(c))
	}
	return stmts
}

func (e *Emitter) addColumn(c *descriptor.Column) Statement {
	if c.DataType == "" {
		return Statement{Comment: sqlfmt.TodoComment("column %s.%s has no data type; add it manually", c.Table, c.Name)}
	}

	stmt := Statement{
		SQL: fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s;", e.target(c.Table), e.columnDefinition(c)),
	}
	if !c.Nullable && c.Default == nil && c.Identity == descriptor.IdentityNone {
		stmt.Comment = sqlfmt.TodoComment("new NOT NULL column %s.%s has no default; backfill existing rows before applying", c.Table, c.Name)
	}
	return stmt
}

// alterColumn coalesces every detected change into a single ALTER TABLE so
// the script takes one round trip per column instead of one per clause.
func (e *Emitter) alterColumn(source, target *descriptor.Column) Statement {
	col := sqlfmt.QuoteColumn(source.Name)
	var actions []string

	if typeChanged(source, target) {
		actions = append(actions, fmt.Sprintf("ALTER COLUMN %s TYPE %s", col, sqlfmt.FormatType(source)))
	}

	if source.Nullable != target.Nullable {
		if source.Nullable {
			actions = append(actions, fmt.Sprintf("ALTER COLUMN %s DROP NOT NULL", col))
		} else {
			actions = append(actions, fmt.Sprintf("ALTER COLUMN %s SET NOT NULL", col))
		}
	}

	if defaultChanged(source, target) {
		if source.Default == nil {
			actions = append(actions, fmt.Sprintf("ALTER COLUMN %s DROP DEFAULT", col))
		} else {
			actions = append(actions, fmt.Sprintf("ALTER COLUMN %s SET DEFAULT %s", col, *source.Default))
		}
	}

	if source.Identity != target.Identity {
		switch {
		case source.Identity == descriptor.IdentityNone:
			actions = append(actions, fmt.Sprintf("ALTER COLUMN %s DROP IDENTITY IF EXISTS", col))
		case target.Identity == descriptor.IdentityNone:
			actions = append(actions, fmt.Sprintf("ALTER COLUMN %s ADD GENERATED %s AS IDENTITY", col, source.Identity))
		default:
			actions = append(actions, fmt.Sprintf("ALTER COLUMN %s SET GENERATED %s", col, source.Identity))
		}
	}

	if len(actions) == 0 {
		// Signature differed on something the emitter cannot express, for
		// example precision reported by only one acquisition path.
		return Statement{Comment: sqlfmt.TodoComment("column %s.%s differs between source and target; review manually", source.Table, source.Name)}
	}

	return Statement{
		SQL: fmt.Sprintf("ALTER TABLE %s %s;", e.target(source.Table), strings.Join(actions, ", ")),
	}
}

func (e *Emitter) renameColumn(c *descriptor.Column) Statement {
	backup := names.Backup(c.Name, e.Now)
	return Statement{
		Comment: sqlfmt.TodoComment("drop column %s.%s (renamed to %s) after verifying the sync", c.Table, c.Name, backup),
		SQL: fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s;",
			e.target(c.Table), sqlfmt.QuoteColumn(c.Name), sqlfmt.QuoteColumn(backup)),
	}
}

func typeChanged(a, b *descriptor.Column) bool {
	return !strings.EqualFold(a.DataType, b.DataType) ||
		intDiffers(a.MaxLength, b.MaxLength) ||
		intDiffers(a.Precision, b.Precision) ||
		intDiffers(a.Scale, b.Scale)
}

func defaultChanged(a, b *descriptor.Column) bool {
	if (a.Default == nil) != (b.Default == nil) {
		return true
	}
	if a.Default == nil {
		return false
	}
	return canonicalExpr(*a.Default) != canonicalExpr(*b.Default)
}

func intDiffers(a, b *int) bool {
	if (a == nil) != (b == nil) {
		return true
	}
	return a != nil && *a != *b
}
