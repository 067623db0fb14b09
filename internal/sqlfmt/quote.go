// Package sqlfmt renders identifiers, literals, types, and routine bodies
// as PostgreSQL DDL text. Everything here is a pure function; descriptors
// that cannot be rendered degrade into TODO comment placeholders rather
// than errors so one bad object never loses the rest of the script.
package sqlfmt

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/lib/pq"
)

// PostgreSQL reserved words that force quoting even when the identifier is
// otherwise plain. Per the keyword appendix of the PostgreSQL documentation.
var reservedWords = map[string]bool{
	"all": true, "analyse": true, "analyze": true, "and": true, "any": true,
	"array": true, "as": true, "asc": true, "asymmetric": true,
	"authorization": true, "between": true, "bigint": true, "binary": true,
	"boolean": true, "both": true, "by": true, "case": true, "cast": true,
	"char": true, "character": true, "check": true, "collate": true,
	"collation": true, "column": true, "constraint": true, "create": true,
	"cross": true, "current_catalog": true, "current_date": true,
	"current_role": true, "current_schema": true, "current_time": true,
	"current_timestamp": true, "current_user": true, "default": true,
	"deferrable": true, "delete": true, "desc": true, "distinct": true,
	"do": true, "else": true, "end": true, "except": true, "exists": true,
	"false": true, "fetch": true, "filter": true, "for": true,
	"foreign": true, "freeze": true, "from": true, "full": true,
	"grant": true, "group": true, "having": true, "ilike": true, "in": true,
	"initially": true, "inner": true, "insert": true, "intersect": true,
	"into": true, "is": true, "isnull": true, "join": true, "lateral": true,
	"leading": true, "left": true, "like": true, "limit": true,
	"localtime": true, "localtimestamp": true, "natural": true, "not": true,
	"notnull": true, "null": true, "of": true, "offset": true, "on": true,
	"only": true, "or": true, "order": true, "outer": true, "overlaps": true,
	"placing": true, "primary": true, "references": true, "returning": true,
	"right": true, "select": true, "session_user": true, "similar": true,
	"some": true, "symmetric": true, "system_user": true, "table": true,
	"tablesample": true, "then": true, "to": true, "trailing": true,
	"true": true, "union": true, "unique": true, "update": true,
	"user": true, "using": true, "variadic": true, "verbose": true,
	"when": true, "where": true, "window": true, "with": true,
}

// NeedsQuoting reports whether an identifier cannot be emitted bare. Bare
// identifiers match [A-Za-z_][A-Za-z0-9_]* and are not reserved words;
// uppercase letters also force quoting because PostgreSQL folds unquoted
// identifiers to lowercase.
func NeedsQuoting(identifier string) bool {
	if identifier == "" {
		return false
	}

	if reservedWords[strings.ToLower(identifier)] {
		return true
	}

	for i, r := range identifier {
		if unicode.IsUpper(r) {
			return true
		}
		if i == 0 {
			if !isIdentStart(r) {
				return true
			}
			continue
		}
		if !isIdentStart(r) && !(r >= '0' && r <= '9') {
			return true
		}
	}

	return false
}

func isIdentStart(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
}

// QuoteIdentifier returns the identifier bare when it can be emitted bare,
// and double-quoted with internal quotes doubled otherwise.
func QuoteIdentifier(identifier string) string {
	if !NeedsQuoting(identifier) {
		return identifier
	}
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}

// QuoteColumn always double-quotes a column name. Column names inside
// ALTER TABLE ... ADD/ALTER/RENAME COLUMN statements are quoted
// unconditionally so generated scripts survive columns named after
// keywords introduced by later PostgreSQL releases.
func QuoteColumn(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteLiteral renders a string literal with internal single quotes
// doubled. Backslash handling follows lib/pq, which switches to an E''
// literal when the value contains backslashes.
func QuoteLiteral(value string) string {
	return pq.QuoteLiteral(value)
}

// QualifyName returns schema.name with each part quoted as needed.
func QualifyName(schema, name string) string {
	if schema == "" {
		return QuoteIdentifier(name)
	}
	return QuoteIdentifier(schema) + "." + QuoteIdentifier(name)
}

// TodoComment renders the manual-review marker embedded in scripts when a
// descriptor is missing something the formatter needs, or when a backup
// object awaits a human decision.
func TodoComment(format string, args ...any) string {
	return "-- TODO: " + fmt.Sprintf(format, args...)
}
