package diff

import (
	"fmt"
	"strings"

	"github.com/pgsync/pgsync/internal/descriptor"
	"github.com/pgsync/pgsync/internal/names"
	"github.com/pgsync/pgsync/internal/sqlfmt"
)

// TableStatements renders the table phase: creates in dependency order so
// referenced tables exist before their referents, then rename-to-backup
// for tables that disappeared from the source.
func (e *Emitter) TableStatements(r Result[*descriptor.Table]) []Statement {
	var stmts []Statement
	for _, t := range SortTables(r.ToCreate) {
		stmts = append(stmts, e.CreateTable(t))
	}
	for _, t := range r.ToDrop {
		stmts = append(stmts, e.renameTable(t))
	}
	return stmts
}

func (e *Emitter) CreateTable(t *descriptor.Table) Statement {
	var b strings.Builder
	var todos []string

	fmt.Fprintf(&b, "CREATE TABLE %s (", e.target(t.Name))
	first := true
	for _, col := range t.Columns {
		if col.DataType == "" {
			todos = append(todos, sqlfmt.TodoComment("column %s.%s has no data type; add it manually", t.Name, col.Name))
			continue
		}
		if !first {
			b.WriteString(",")
		}
		first = false
		b.WriteString("\n    ")
		b.WriteString(e.columnDefinition(col))
	}
	b.WriteString("\n);")

	return Statement{Comment: strings.Join(todos, "\n"), SQL: b.String()}
}

func (e *Emitter) renameTable(t *descriptor.Table) Statement {
	backup := names.Backup(t.Name, e.Now)
	return Statement{
		Comment: sqlfmt.TodoComment("drop table %s after verifying the sync", backup),
		SQL: fmt.Sprintf("ALTER TABLE %s RENAME TO %s;",
			e.target(t.Name), sqlfmt.QuoteIdentifier(backup)),
	}
}

// columnDefinition renders one column for CREATE TABLE or ADD COLUMN.
func (e *Emitter) columnDefinition(c *descriptor.Column) string {
	parts := []string{sqlfmt.QuoteColumn(c.Name), sqlfmt.FormatType(c)}

	switch {
	case c.Generated == descriptor.GeneratedStored && c.Default != nil:
		// Generated columns carry their expression in Default.
		parts = append(parts, fmt.Sprintf("GENERATED ALWAYS AS (%s) STORED", *c.Default))
	case c.Identity != descriptor.IdentityNone:
		parts = append(parts, fmt.Sprintf("GENERATED %s AS IDENTITY", c.Identity))
	case c.Default != nil:
		parts = append(parts, "DEFAULT "+*c.Default)
	}

	if !c.Nullable {
		parts = append(parts, "NOT NULL")
	}
	return strings.Join(parts, " ")
}
