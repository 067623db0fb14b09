// Package inspect acquires schema descriptors from the two supported
// metadata sources: live database connections and pre-generated SQL file
// sets. Both adapters produce the same descriptor shapes, so the diff and
// emission layers never know which one fed them.
package inspect

import (
	"context"

	"github.com/pgsync/pgsync/internal/descriptor"
)

// Source is one side of a sync: a schema reachable over a connection or a
// directory of generated files. Each accessor covers one phase of the run
// and is called independently by the orchestrator.
//
// Tables returns fully assembled descriptors, columns and constraints
// attached, because rendering CREATE TABLE and ordering by foreign keys
// both need them. The flat accessors feed their own phases.
type Source interface {
	// Label names the source for the script header.
	Label() string
	// SchemaName is the schema objects belong to.
	SchemaName() string

	Tables(ctx context.Context) ([]*descriptor.Table, error)
	Columns(ctx context.Context) ([]*descriptor.Column, error)
	Constraints(ctx context.Context) ([]*descriptor.Constraint, error)
	Indexes(ctx context.Context) ([]*descriptor.Index, error)
	Functions(ctx context.Context) ([]*descriptor.Function, error)
	Triggers(ctx context.Context) ([]*descriptor.Trigger, error)
	Sequences(ctx context.Context) ([]*descriptor.Sequence, error)

	// Close releases whatever the source holds. It must be safe to call
	// after a failed run; release is unconditional.
	Close() error
}
