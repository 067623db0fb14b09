package diff

import (
	"time"

	"github.com/pgsync/pgsync/internal/sqlfmt"
)

// Emitter renders diff results as DDL against the target schema. One
// emitter serves one run: Now is captured once so every backup name in a
// script shares the same timestamp.
type Emitter struct {
	SourceSchema string
	TargetSchema string
	Now          time.Time
}

// NewEmitter returns an emitter for one sync run.
func NewEmitter(sourceSchema, targetSchema string) *Emitter {
	return &Emitter{
		SourceSchema: sourceSchema,
		TargetSchema: targetSchema,
		Now:          time.Now(),
	}
}

// target qualifies an object name with the target schema.
func (e *Emitter) target(name string) string {
	return sqlfmt.QualifyName(e.TargetSchema, name)
}
