package diff

import (
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// schemaPlaceholder stands in for the owning schema name inside routine
// bodies during comparison. Source and target bodies that differ only in
// the schema they qualify with therefore compare equal.
const schemaPlaceholder = "__schema__"

// normalizeBody prepares a routine body for textual comparison: schema
// qualifier tokens become a placeholder, then whitespace is collapsed.
// Comparison stays textual; the tool never checks routine semantics.
func normalizeBody(body, schema string) string {
	return collapseWhitespace(ReplaceSchemaRefs(body, schema, schemaPlaceholder))
}

// ReplaceSchemaRefs rewrites references to one schema into another inside a
// SQL text. Quoted and dotted forms are handled first so the replacement
// never produces "to". out of `"from".`; the bare name alone is left
// untouched because it could be a substring of an unrelated identifier.
func ReplaceSchemaRefs(text, from, to string) string {
	if from == "" || from == to {
		return text
	}
	replacer := strings.NewReplacer(
		`"`+from+`".`, to+".",
		from+".", to+".",
		`"`+from+`"`, to,
	)
	return replacer.Replace(text)
}

// canonicalExpr renders an expression in the canonical form the server
// would report, so spellings like "0" and "(0)" or varying cast syntax do
// not register as changes. Expressions the parser rejects fall back to
// whitespace-collapsed text.
func canonicalExpr(expr string) string {
	if strings.TrimSpace(expr) == "" {
		return ""
	}
	parsed, err := pg_query.Parse("SELECT " + expr)
	if err != nil {
		return collapseWhitespace(expr)
	}
	out, err := pg_query.Deparse(parsed)
	if err != nil {
		return collapseWhitespace(expr)
	}
	return strings.TrimPrefix(out, "SELECT ")
}

// collapseWhitespace reduces every whitespace run to one space.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func joinLower(items []string) string {
	lowered := make([]string, 0, len(items))
	for _, item := range items {
		lowered = append(lowered, strings.ToLower(item))
	}
	return strings.Join(lowered, ",")
}
