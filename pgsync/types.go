package pgsync

import (
	"github.com/pgsync/pgsync/internal/descriptor"
	"github.com/pgsync/pgsync/internal/engine"
	"github.com/pgsync/pgsync/internal/ignore"
	"github.com/pgsync/pgsync/internal/inspect"
)

// Re-export important types for external consumption

// SyncResult is the assembled sync script plus its statement counts.
type SyncResult = engine.SyncResult

// GenerateResult holds the rendered definition files and object counts.
type GenerateResult = engine.GenResult

// Source is one side of a sync run: a schema reachable over a connection
// or a directory of definition files.
type Source = inspect.Source

// IgnoreConfig filters objects out of a run by name pattern.
type IgnoreConfig = ignore.Config

// Table represents a database table with its columns, constraints, indexes, and sequences.
type Table = descriptor.Table

// Column represents a table column.
type Column = descriptor.Column

// Constraint represents a table constraint (primary key, foreign key, etc.).
type Constraint = descriptor.Constraint

// Index represents a database index.
type Index = descriptor.Index

// Function represents a database function or procedure.
type Function = descriptor.Function

// Parameter represents one routine parameter.
type Parameter = descriptor.Parameter

// Trigger represents a database trigger.
type Trigger = descriptor.Trigger

// Sequence represents a database sequence.
type Sequence = descriptor.Sequence
