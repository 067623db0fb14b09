package diff

import (
	"fmt"
	"strings"

	"github.com/pgsync/pgsync/internal/descriptor"
	"github.com/pgsync/pgsync/internal/sqlfmt"
)

// IndexStatements renders the index phase. Indexes carry no data, so
// dropped ones are dropped directly instead of renamed.
func (e *Emitter) IndexStatements(r Result[*descriptor.Index]) []Statement {
	var stmts []Statement
	for _, idx := range r.ToCreate {
		stmts = append(stmts, e.CreateIndex(idx))
	}
	for _, idx := range r.ToDrop {
		stmts = append(stmts, e.dropIndex(idx))
	}
	return stmts
}

func (e *Emitter) CreateIndex(idx *descriptor.Index) Statement {
	if len(idx.Columns) == 0 {
		return Statement{Comment: sqlfmt.TodoComment("index %s on %s names no columns; add it manually", idx.Name, idx.Table)}
	}

	var b strings.Builder
	b.WriteString("CREATE ")
	if idx.Unique {
		b.WriteString("UNIQUE ")
	}
	fmt.Fprintf(&b, "INDEX %s ON %s", sqlfmt.QuoteIdentifier(idx.Name), e.target(idx.Table))
	if method := strings.ToLower(idx.Method); method != "" && method != "btree" {
		fmt.Fprintf(&b, " USING %s", method)
	}
	fmt.Fprintf(&b, " (%s)", indexKeyList(idx.Columns))
	if idx.Predicate != "" {
		fmt.Fprintf(&b, " WHERE %s", strings.TrimSpace(idx.Predicate))
	}
	b.WriteString(";")

	return Statement{SQL: b.String()}
}

// indexKeyList renders index keys. Unlike constraint columns, an index key
// may be an expression or carry an ordering suffix, and both adapters
// deliver those pre-rendered; only plain names get column quoting.
func indexKeyList(keys []string) string {
	rendered := make([]string, 0, len(keys))
	for _, k := range keys {
		if strings.ContainsAny(k, `( "`) {
			rendered = append(rendered, k)
		} else {
			rendered = append(rendered, sqlfmt.QuoteColumn(k))
		}
	}
	return strings.Join(rendered, ", ")
}

func (e *Emitter) dropIndex(idx *descriptor.Index) Statement {
	return Statement{
		SQL: fmt.Sprintf("DROP INDEX IF EXISTS %s;", e.target(idx.Name)),
	}
}
