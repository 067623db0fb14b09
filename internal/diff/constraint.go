package diff

import (
	"fmt"
	"strings"

	"github.com/pgsync/pgsync/internal/descriptor"
	"github.com/pgsync/pgsync/internal/names"
	"github.com/pgsync/pgsync/internal/sqlfmt"
)

// ConstraintStatements renders the constraint phase. A modified constraint
// becomes a rename of the old definition plus a create of the new one; the
// old definition stays reachable under its backup name until a human drops
// it.
func (e *Emitter) ConstraintStatements(r Result[*descriptor.Constraint]) []Statement {
	var stmts []Statement
	for _, c := range r.ToCreate {
		stmts = append(stmts, e.AddConstraint(c))
	}
	for _, p := range r.ToModify {
		stmts = append(stmts, e.renameConstraint(p.Target, "replaced"))
		stmts = append(stmts, e.AddConstraint(p.Source))
	}
	for _, c := range r.ToDrop {
		stmts = append(stmts, e.renameConstraint(c, "dropped"))
	}
	return stmts
}

func (e *Emitter) AddConstraint(c *descriptor.Constraint) Statement {
	name := names.Synthesize(c.Name, c.Kind, c.Table, c.Columns)

	// NOT NULL is expressed as a column property, not an ADD CONSTRAINT.
	if c.Kind == descriptor.ConstraintNotNull {
		if len(c.Columns) == 0 {
			return Statement{Comment: sqlfmt.TodoComment("NOT NULL constraint %s on %s names no column; add it manually", name, c.Table)}
		}
		return Statement{
			SQL: fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET NOT NULL;",
				e.target(c.Table), sqlfmt.QuoteColumn(c.Columns[0])),
		}
	}

	definition, todo := e.constraintDefinition(c)
	if todo != "" {
		return Statement{Comment: todo}
	}

	return Statement{
		SQL: fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s %s;",
			e.target(c.Table), sqlfmt.QuoteIdentifier(name), definition),
	}
}

// constraintDefinition renders the definition after the constraint name.
// Descriptors missing a required piece degrade into a TODO marker instead
// of failing the run.
func (e *Emitter) constraintDefinition(c *descriptor.Constraint) (string, string) {
	switch c.Kind {
	case descriptor.ConstraintPrimaryKey:
		return fmt.Sprintf("PRIMARY KEY (%s)", columnList(c.Columns)), ""

	case descriptor.ConstraintUnique:
		return fmt.Sprintf("UNIQUE (%s)", columnList(c.Columns)), ""

	case descriptor.ConstraintForeignKey:
		if c.ForeignTable == "" {
			return "", sqlfmt.TodoComment("foreign key %s on %s is missing its referenced table; add it manually", c.Name, c.Table)
		}
		var b strings.Builder
		fmt.Fprintf(&b, "FOREIGN KEY (%s) REFERENCES %s (%s)",
			columnList(c.Columns), e.foreignTarget(c), columnList(c.ForeignColumns))
		if rule := strings.ToUpper(c.UpdateRule); rule != "" && rule != "NO ACTION" {
			fmt.Fprintf(&b, " ON UPDATE %s", rule)
		}
		if rule := strings.ToUpper(c.DeleteRule); rule != "" && rule != "NO ACTION" {
			fmt.Fprintf(&b, " ON DELETE %s", rule)
		}
		if c.Deferrable {
			b.WriteString(" DEFERRABLE")
			if c.InitiallyDeferred {
				b.WriteString(" INITIALLY DEFERRED")
			}
		}
		return b.String(), ""

	case descriptor.ConstraintCheck:
		if strings.TrimSpace(c.CheckClause) == "" {
			return "", sqlfmt.TodoComment("check constraint %s on %s has no expression; add it manually", c.Name, c.Table)
		}
		return fmt.Sprintf("CHECK %s", ensureParens(c.CheckClause)), ""
	}

	return "", sqlfmt.TodoComment("constraint %s on %s has unsupported kind %s", c.Name, c.Table, c.Kind)
}

func (e *Emitter) renameConstraint(c *descriptor.Constraint, reason string) Statement {
	backup := names.Backup(c.Name, e.Now)
	return Statement{
		Comment: sqlfmt.TodoComment("drop %s constraint %s on %s after verifying the sync", reason, backup, c.Table),
		SQL: fmt.Sprintf("ALTER TABLE %s RENAME CONSTRAINT %s TO %s;",
			e.target(c.Table), sqlfmt.QuoteIdentifier(c.Name), sqlfmt.QuoteIdentifier(backup)),
	}
}

// foreignTarget picks the schema to qualify the referenced table with.
// References into the synced schema follow the rename to the target schema;
// references elsewhere keep their own schema.
func (e *Emitter) foreignTarget(c *descriptor.Constraint) string {
	if c.ForeignSchema == "" || c.ForeignSchema == e.SourceSchema || c.ForeignSchema == e.TargetSchema {
		return e.target(c.ForeignTable)
	}
	return sqlfmt.QualifyName(c.ForeignSchema, c.ForeignTable)
}

func columnList(columns []string) string {
	quoted := make([]string, 0, len(columns))
	for _, c := range columns {
		quoted = append(quoted, sqlfmt.QuoteColumn(c))
	}
	return strings.Join(quoted, ", ")
}

func ensureParens(expr string) string {
	trimmed := strings.TrimSpace(expr)
	if strings.HasPrefix(trimmed, "(") && strings.HasSuffix(trimmed, ")") {
		return trimmed
	}
	return "(" + trimmed + ")"
}
