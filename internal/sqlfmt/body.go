package sqlfmt

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	parameterRefPattern = regexp.MustCompile(`\$\d+`)
	dollarTagPattern    = regexp.MustCompile(`^\$([A-Za-z_][A-Za-z_0-9]*)?\$`)
)

// WrapFunctionBody returns the routine body dollar-quoted exactly once.
// Trailing semicolons and whitespace are trimmed first; a body that already
// arrives wrapped in a dollar-quote pair is returned untouched so re-running
// generation never nests quoting.
func WrapFunctionBody(body string) string {
	trimmed := strings.TrimSpace(body)
	trimmed = strings.TrimRight(trimmed, ";")
	trimmed = strings.TrimRight(trimmed, " \t\n")

	if _, ok := existingDollarTag(trimmed); ok {
		return trimmed
	}

	tag := dollarQuoteTag(trimmed)
	return fmt.Sprintf("%s\n%s\n%s", tag, trimmed, tag)
}

// existingDollarTag reports whether the body is already a complete
// $tag$...$tag$ block.
func existingDollarTag(body string) (string, bool) {
	m := dollarTagPattern.FindString(body)
	if m == "" {
		return "", false
	}
	if len(body) >= 2*len(m) && strings.HasSuffix(body, m) {
		return m, true
	}
	return "", false
}

// dollarQuoteTag picks a dollar-quote tag that does not occur in the body.
// Plain $$ is preferred; bodies containing $$ or positional parameter
// references fall back to the pg_dump-style candidates, then to numbered
// tags.
func dollarQuoteTag(body string) string {
	needsTagged := strings.Contains(body, "$$") || parameterRefPattern.MatchString(body)
	if !needsTagged {
		return "$$"
	}

	candidates := []string{"$_$", "$function$", "$body$", "$sync$"}
	for _, tag := range candidates {
		if !strings.Contains(body, tag) {
			return tag
		}
	}

	for i := 1; i < 1000; i++ {
		tag := fmt.Sprintf("$tag%d$", i)
		if !strings.Contains(body, tag) {
			return tag
		}
	}

	return "$fallback$"
}
