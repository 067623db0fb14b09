// Package script assembles diff statements into the sync script document.
//
// The document layout is a contract: a header block naming the source and
// target, one delimited section per phase in execution order, and a closing
// marker. Reviewers and downstream tooling rely on this shape staying
// stable.
package script

import (
	"fmt"
	"strings"
	"time"

	"github.com/pgsync/pgsync/internal/diff"
)

// rule delimits the header and each section.
const rule = "-- ================================================"

// EndMarker closes every script.
const EndMarker = "-- END OF SCHEMA SYNC SCRIPT"

// TimeFormat is the timestamp layout used in script and file headers.
const TimeFormat = "2006-01-02 15:04:05"

// Builder accumulates sections in the order they are added. It never
// reorders or rewrites statements; phase ordering is the caller's job.
type Builder struct {
	buf        strings.Builder
	statements int
	todos      int
	drops      int
}

// NewBuilder starts a script with the standard header block. The source and
// target labels are free text: a schema name for live connections, a
// directory for file-based runs.
func NewBuilder(source, target string, generated time.Time) *Builder {
	b := &Builder{}
	fmt.Fprintf(&b.buf, "-- Schema Sync Script\n")
	fmt.Fprintf(&b.buf, "-- Source: %s\n", source)
	fmt.Fprintf(&b.buf, "-- Target: %s\n", target)
	fmt.Fprintf(&b.buf, "-- Generated: %s\n", generated.Format(TimeFormat))
	b.buf.WriteString(rule + "\n")
	return b
}

// Section appends one phase section. Empty sections still appear, annotated
// instead of silently missing, so a reviewer can tell "no changes" from
// "phase never ran".
func (b *Builder) Section(title string, stmts []diff.Statement) {
	fmt.Fprintf(&b.buf, "\n-- %s\n%s\n", title, rule)

	rendered := false
	for _, s := range stmts {
		if s.Comment == "" && s.SQL == "" {
			continue
		}
		rendered = true
		b.buf.WriteString("\n")
		if s.Comment != "" {
			b.buf.WriteString(s.Comment + "\n")
			b.todos += strings.Count(s.Comment, "-- TODO:")
		}
		if s.SQL != "" {
			b.buf.WriteString(s.SQL + "\n")
			b.statements++
			if strings.HasPrefix(s.SQL, "DROP ") {
				b.drops++
			}
		}
	}

	if !rendered {
		b.buf.WriteString("\n-- No changes detected.\n")
	}
}

// String finalizes the document with the closing marker.
func (b *Builder) String() string {
	return b.buf.String() + "\n" + EndMarker + "\n"
}

// Statements reports how many executable statements the script carries.
func (b *Builder) Statements() int { return b.statements }

// Todos reports how many TODO markers the script carries. A script with
// TODOs is still a successful run; the markers point at spots the tool
// could not resolve on its own.
func (b *Builder) Todos() int { return b.todos }

// Drops reports how many statements remove an object outright. The script
// only ever drops triggers and indexes; everything else is renamed aside.
func (b *Builder) Drops() int { return b.drops }
