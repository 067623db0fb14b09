package sqlfmt

import (
	"fmt"
	"strings"

	"github.com/pgsync/pgsync/internal/descriptor"
)

// Per-type default length/precision values. A column whose modifier equals
// the default for its type is rendered without the modifier; re-stating a
// default would make every later diff of the generated files report a
// spurious type change.
var defaultTypeLength = map[string]int{
	"character varying": 255,
	"varchar":           255,
	"character":         1,
	"char":              1,
	"bpchar":            1,
	"bit":               1,
}

// Internal catalog spellings mapped to the names information_schema
// reports. The server's parser resolves keywords like "integer" to catalog
// names like int4; descriptors keep the information_schema spelling so both
// acquisition paths describe a column identically.
var canonicalTypeNames = map[string]string{
	"int2":        "smallint",
	"int4":        "integer",
	"int8":        "bigint",
	"float4":      "real",
	"float8":      "double precision",
	"bool":        "boolean",
	"varchar":     "character varying",
	"bpchar":      "character",
	"varbit":      "bit varying",
	"timestamptz": "timestamp with time zone",
	"timestamp":   "timestamp without time zone",
	"timetz":      "time with time zone",
	"time":        "time without time zone",
}

// CanonicalType maps a parser or catalog type name to its
// information_schema spelling. Unknown names pass through unchanged, minus
// any pg_catalog qualifier.
func CanonicalType(name string) string {
	trimmed := strings.TrimPrefix(strings.TrimSpace(name), "pg_catalog.")
	if canonical, ok := canonicalTypeNames[strings.ToLower(trimmed)]; ok {
		return canonical
	}
	return trimmed
}

// Time-ish types carry a fractional-seconds precision defaulting to 6.
var defaultTimePrecision = map[string]int{
	"time":                        6,
	"time without time zone":      6,
	"time with time zone":         6,
	"timestamp":                   6,
	"timestamp without time zone": 6,
	"timestamp with time zone":    6,
	"timestamptz":                 6,
	"timetz":                      6,
	"interval":                    6,
}

// FormatType renders a column's type with its length/precision/scale
// modifier, eliding modifiers that merely restate the type default.
// NUMERIC has no default precision, so a present precision always renders.
func FormatType(col *descriptor.Column) string {
	base := strings.TrimSpace(col.DataType)
	lower := strings.ToLower(base)

	if def, ok := defaultTypeLength[lower]; ok {
		if col.MaxLength != nil && *col.MaxLength != def {
			return fmt.Sprintf("%s(%d)", base, *col.MaxLength)
		}
		return base
	}

	if def, ok := defaultTimePrecision[lower]; ok {
		if col.Precision != nil && *col.Precision != def {
			return withTimePrecision(base, *col.Precision)
		}
		return base
	}

	switch lower {
	case "numeric", "decimal":
		if col.Precision != nil && *col.Precision > 0 {
			if col.Scale != nil && *col.Scale > 0 {
				return fmt.Sprintf("%s(%d,%d)", base, *col.Precision, *col.Scale)
			}
			return fmt.Sprintf("%s(%d)", base, *col.Precision)
		}
		return base
	}

	// Unlisted types: render any explicit length, since there is no default
	// to elide against.
	if col.MaxLength != nil && *col.MaxLength > 0 {
		return fmt.Sprintf("%s(%d)", base, *col.MaxLength)
	}
	return base
}

// DefaultLength returns the implicit length for types that carry one, so
// acquisition can store a default modifier as absent and keep both
// adapters comparable.
func DefaultLength(dataType string) (int, bool) {
	def, ok := defaultTypeLength[strings.ToLower(strings.TrimSpace(dataType))]
	return def, ok
}

// DefaultTimePrecision returns the implicit fractional-seconds precision
// for time-ish types.
func DefaultTimePrecision(dataType string) (int, bool) {
	def, ok := defaultTimePrecision[strings.ToLower(strings.TrimSpace(dataType))]
	return def, ok
}

// withTimePrecision inserts the precision before a trailing time zone
// qualifier: timestamp(3) without time zone, not timestamp without time
// zone(3).
func withTimePrecision(base string, precision int) string {
	lower := strings.ToLower(base)
	for _, suffix := range []string{" without time zone", " with time zone"} {
		if strings.HasSuffix(lower, suffix) {
			head := base[:len(base)-len(suffix)]
			tail := base[len(base)-len(suffix):]
			return fmt.Sprintf("%s(%d)%s", head, precision, tail)
		}
	}
	return fmt.Sprintf("%s(%d)", base, precision)
}
