package diff

import (
	"fmt"
	"strings"

	"github.com/pgsync/pgsync/internal/descriptor"
	"github.com/pgsync/pgsync/internal/sqlfmt"
)

// CreateSequence renders a sequence for the generation side. Sequences
// never participate in diffing; identity columns cover the sync case.
func (e *Emitter) CreateSequence(s *descriptor.Sequence) Statement {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE SEQUENCE %s", e.target(s.Name))
	if s.DataType != "" && !strings.EqualFold(s.DataType, "bigint") {
		fmt.Fprintf(&b, " AS %s", s.DataType)
	}
	if s.Increment != 0 && s.Increment != 1 {
		fmt.Fprintf(&b, " INCREMENT BY %d", s.Increment)
	}
	if s.MinValue != nil {
		fmt.Fprintf(&b, " MINVALUE %d", *s.MinValue)
	}
	if s.MaxValue != nil {
		fmt.Fprintf(&b, " MAXVALUE %d", *s.MaxValue)
	}
	if s.Start != 0 && s.Start != 1 {
		fmt.Fprintf(&b, " START WITH %d", s.Start)
	}
	if s.Cycle {
		b.WriteString(" CYCLE")
	}
	b.WriteString(";")

	return Statement{SQL: b.String()}
}
