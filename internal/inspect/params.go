package inspect

import (
	"strings"

	"github.com/pgsync/pgsync/internal/descriptor"
)

// typeStarters are tokens that can only begin a type name, never a
// parameter name, in the argument lists both adapters read. An unquoted
// first token from this set means the parameter is nameless.
var typeStarters = map[string]bool{
	"anyarray": true, "anyelement": true, "bigint": true, "bigserial": true,
	"bit": true, "bool": true, "boolean": true, "box": true, "bytea": true,
	"char": true, "character": true, "cidr": true, "circle": true,
	"date": true, "decimal": true, "double": true, "float4": true,
	"float8": true, "inet": true, "int": true, "int2": true, "int4": true,
	"int8": true, "integer": true, "interval": true, "json": true,
	"jsonb": true, "line": true, "lseg": true, "macaddr": true,
	"money": true, "numeric": true, "oid": true, "path": true,
	"point": true, "polygon": true, "real": true, "record": true,
	"regclass": true, "serial": true, "smallint": true, "smallserial": true,
	"text": true, "time": true, "timestamp": true, "timestamptz": true,
	"timetz": true, "trigger": true, "tsquery": true, "tsvector": true,
	"uuid": true, "varchar": true, "void": true, "xml": true,
}

var parameterModes = map[string]descriptor.ParameterMode{
	"IN":       descriptor.ParameterIn,
	"OUT":      descriptor.ParameterOut,
	"INOUT":    descriptor.ParameterInOut,
	"VARIADIC": descriptor.ParameterVariadic,
}

// ParseParameterList parses an argument list in the form both
// pg_get_function_arguments and the generated files produce, for example
// `p_id integer, OUT found boolean, "when" timestamp with time zone DEFAULT now()`.
// A quoted first token is always a name; a bare one is a name only if it
// cannot start a type.
func ParseParameterList(list string) []*descriptor.Parameter {
	var params []*descriptor.Parameter
	for _, part := range splitTopLevel(list, ',') {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		p := &descriptor.Parameter{}

		if at := indexWord(part, "DEFAULT"); at >= 0 {
			def := strings.TrimSpace(part[at+len("DEFAULT"):])
			p.Default = &def
			part = strings.TrimSpace(part[:at])
		}

		tokens := strings.Fields(part)
		if len(tokens) == 0 {
			continue
		}

		if mode, ok := parameterModes[tokens[0]]; ok {
			p.Mode = mode
			tokens = tokens[1:]
		}
		if len(tokens) == 0 {
			continue
		}

		switch {
		case strings.HasPrefix(tokens[0], `"`):
			p.Name = strings.Trim(tokens[0], `"`)
			tokens = tokens[1:]
		case len(tokens) >= 2 && !isTypeStarter(tokens[0]):
			p.Name = tokens[0]
			tokens = tokens[1:]
		}

		p.DataType = strings.Join(tokens, " ")
		if p.DataType == "" {
			continue
		}
		params = append(params, p)
	}
	return params
}

func isTypeStarter(token string) bool {
	base := strings.ToLower(token)
	if i := strings.Index(base, "("); i >= 0 {
		base = base[:i]
	}
	base = strings.TrimSuffix(base, "[]")
	return typeStarters[base]
}

// indexWord finds a standalone word outside quotes and parentheses, so a
// DEFAULT inside a string literal or function call never splits the
// parameter.
func indexWord(s, word string) int {
	depth := 0
	inQuote := false
	for i := 0; i+len(word) <= len(s); i++ {
		switch s[i] {
		case '\'':
			inQuote = !inQuote
			continue
		case '(':
			if !inQuote {
				depth++
			}
			continue
		case ')':
			if !inQuote {
				depth--
			}
			continue
		}
		if inQuote || depth != 0 {
			continue
		}
		if s[i:i+len(word)] != word {
			continue
		}
		before := i == 0 || s[i-1] == ' '
		after := i+len(word) == len(s) || s[i+len(word)] == ' '
		if before && after {
			return i
		}
	}
	return -1
}

// splitTopLevel splits on sep, ignoring separators nested in parentheses
// or quoted strings.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	inQuote := false
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\'':
			inQuote = !inQuote
		case '(':
			if !inQuote {
				depth++
			}
		case ')':
			if !inQuote {
				depth--
			}
		case sep:
			if !inQuote && depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}
