// Package names derives PostgreSQL-convention object names. Matching the
// server's own conventions matters: target databases frequently contain
// convention-named constraints already, and those must be matched rather
// than duplicated under a second name.
package names

import (
	"strings"
	"time"
	"unicode"

	"github.com/pgsync/pgsync/internal/descriptor"
)

// MaxIdentifierLength is the server-side identifier limit (NAMEDATALEN-1).
// Anything longer would be truncated by the server silently, so names are
// clamped here instead.
const MaxIdentifierLength = 63

const stampLayout = "20060102150405"

// Stamp renders the compact timestamp embedded in synthesized CHECK names
// and in backup names.
func Stamp(t time.Time) string {
	return t.Format(stampLayout)
}

// IsValid reports whether an existing constraint name can be kept: it must
// be non-empty, fit the identifier limit, and start with a letter or an
// underscore.
func IsValid(name string) bool {
	if name == "" || len(name) > MaxIdentifierLength {
		return false
	}
	first := []rune(name)[0]
	return unicode.IsLetter(first) || first == '_'
}

// Synthesize returns a usable constraint name. Valid user-chosen names pass
// through unchanged; everything else gets a convention name derived from
// the table, columns, and kind. CHECK names embed a timestamp because check
// constraints have no natural unique key and repeated runs must not collide.
func Synthesize(original string, kind descriptor.ConstraintKind, table string, columns []string) string {
	if IsValid(original) {
		return original
	}

	var name string
	switch kind {
	case descriptor.ConstraintPrimaryKey:
		name = table + "_pkey"
	case descriptor.ConstraintUnique:
		name = joinParts(table, columnPart(columns), "key")
	case descriptor.ConstraintForeignKey:
		name = joinParts(table, columnPart(columns), "fkey")
	case descriptor.ConstraintCheck:
		name = joinParts(table, columnPart(columns), "check", Stamp(time.Now()))
	default:
		name = joinParts(table, columnPart(columns), kindPart(kind))
	}

	return Clamp(name)
}

// Backup returns the rename target used instead of dropping an object
// during a sync run.
func Backup(name string, t time.Time) string {
	return Clamp(name + "_backup_" + Stamp(t))
}

// Clamp truncates a name to the identifier limit, which is what the server
// would do on its own, just without the NOTICE.
func Clamp(name string) string {
	if len(name) <= MaxIdentifierLength {
		return name
	}
	return name[:MaxIdentifierLength]
}

func columnPart(columns []string) string {
	if len(columns) == 0 {
		return ""
	}
	lowered := make([]string, 0, len(columns))
	for _, c := range columns {
		lowered = append(lowered, strings.ToLower(c))
	}
	return strings.Join(lowered, "_")
}

func kindPart(kind descriptor.ConstraintKind) string {
	return strings.ReplaceAll(strings.ToLower(string(kind)), " ", "_")
}

func joinParts(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "_")
}
