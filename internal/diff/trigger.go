package diff

import (
	"fmt"
	"strings"

	"github.com/pgsync/pgsync/internal/descriptor"
	"github.com/pgsync/pgsync/internal/sqlfmt"
)

// TriggerStatements renders the trigger phase. Triggers carry no data, so
// modification is a direct drop-and-recreate and removal a direct drop.
func (e *Emitter) TriggerStatements(r Result[*descriptor.Trigger]) []Statement {
	var stmts []Statement
	for _, t := range r.ToCreate {
		stmts = append(stmts, e.CreateTrigger(t))
	}
	for _, p := range r.ToModify {
		stmts = append(stmts, e.dropTrigger(p.Target))
		stmts = append(stmts, e.CreateTrigger(p.Source))
	}
	for _, t := range r.ToDrop {
		stmts = append(stmts, e.dropTrigger(t))
	}
	return stmts
}

func (e *Emitter) CreateTrigger(t *descriptor.Trigger) Statement {
	if t.Function == "" {
		return Statement{Comment: sqlfmt.TodoComment("trigger %s on %s names no function; add it manually", t.Name, t.Table)}
	}
	if len(t.Events) == 0 {
		return Statement{Comment: sqlfmt.TodoComment("trigger %s on %s has no firing events; add it manually", t.Name, t.Table)}
	}

	events := make([]string, 0, len(t.Events))
	for _, ev := range t.Events {
		events = append(events, string(ev))
	}

	level := t.Level
	if level == "" {
		level = descriptor.TriggerRow
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TRIGGER %s %s %s ON %s",
		sqlfmt.QuoteIdentifier(t.Name), t.Timing, strings.Join(events, " OR "), e.target(t.Table))
	fmt.Fprintf(&b, " FOR EACH %s", level)
	if t.When != "" {
		fmt.Fprintf(&b, " WHEN %s", ensureParens(t.When))
	}
	fmt.Fprintf(&b, " EXECUTE FUNCTION %s();", e.functionRef(t.Function))

	return Statement{SQL: b.String()}
}

// functionRef qualifies the invoked function with the target schema. Both
// adapters strip the schema from same-schema references and keep it on
// cross-schema ones, so an already-qualified name passes through.
func (e *Emitter) functionRef(name string) string {
	name = strings.TrimSuffix(name, "()")
	if strings.Contains(name, ".") {
		return name
	}
	return e.target(name)
}

func (e *Emitter) dropTrigger(t *descriptor.Trigger) Statement {
	return Statement{
		SQL: fmt.Sprintf("DROP TRIGGER IF EXISTS %s ON %s;",
			sqlfmt.QuoteIdentifier(t.Name), e.target(t.Table)),
	}
}
