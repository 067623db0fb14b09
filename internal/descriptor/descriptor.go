// Package descriptor defines the immutable snapshot records produced by
// metadata acquisition. Every object is schema-qualified; descriptors are
// built once per run and never mutated by the diff engine.
package descriptor

import "strings"

// ConstraintKind identifies the constraint categories understood by the
// diff engine.
type ConstraintKind string

const (
	ConstraintPrimaryKey ConstraintKind = "PRIMARY KEY"
	ConstraintForeignKey ConstraintKind = "FOREIGN KEY"
	ConstraintUnique     ConstraintKind = "UNIQUE"
	ConstraintCheck      ConstraintKind = "CHECK"
	ConstraintNotNull    ConstraintKind = "NOT NULL"
)

// IdentityMode represents the GENERATED ... AS IDENTITY mode of a column.
type IdentityMode string

const (
	IdentityAlways    IdentityMode = "ALWAYS"
	IdentityByDefault IdentityMode = "BY DEFAULT"
	IdentityNone      IdentityMode = ""
)

// GeneratedMode represents the GENERATED ... STORED mode of a column.
type GeneratedMode string

const (
	GeneratedStored GeneratedMode = "STORED"
	GeneratedNone   GeneratedMode = ""
)

// ParameterMode represents a routine parameter mode.
type ParameterMode string

const (
	ParameterIn       ParameterMode = "IN"
	ParameterOut      ParameterMode = "OUT"
	ParameterInOut    ParameterMode = "INOUT"
	ParameterVariadic ParameterMode = "VARIADIC"
)

// RoutineKind distinguishes functions from procedures.
type RoutineKind string

const (
	RoutineFunction  RoutineKind = "FUNCTION"
	RoutineProcedure RoutineKind = "PROCEDURE"
)

// TriggerTiming represents when a trigger fires.
type TriggerTiming string

const (
	TriggerBefore    TriggerTiming = "BEFORE"
	TriggerAfter     TriggerTiming = "AFTER"
	TriggerInsteadOf TriggerTiming = "INSTEAD OF"
)

// TriggerEvent represents the event a trigger fires on.
type TriggerEvent string

const (
	TriggerInsert   TriggerEvent = "INSERT"
	TriggerUpdate   TriggerEvent = "UPDATE"
	TriggerDelete   TriggerEvent = "DELETE"
	TriggerTruncate TriggerEvent = "TRUNCATE"
)

// Table represents a table with everything the diff engine needs to know
// about it. Columns keep their ordinal order as fetched.
type Table struct {
	Schema      string        `json:"schema"`
	Name        string        `json:"name"`
	Columns     []*Column     `json:"columns,omitempty"`
	Constraints []*Constraint `json:"constraints,omitempty"`
	Indexes     []*Index      `json:"indexes,omitempty"`
	Sequences   []*Sequence   `json:"sequences,omitempty"`
	Comment     string        `json:"comment,omitempty"`
}

// Column represents a single table column. Pointer fields are nil when the
// catalog reports no value for them.
type Column struct {
	Table     string        `json:"table"`
	Name      string        `json:"name"`
	Position  int           `json:"position"`
	DataType  string        `json:"data_type"`
	Nullable  bool          `json:"nullable"`
	Default   *string       `json:"default,omitempty"`
	MaxLength *int          `json:"max_length,omitempty"`
	Precision *int          `json:"precision,omitempty"`
	Scale     *int          `json:"scale,omitempty"`
	Identity  IdentityMode  `json:"identity,omitempty"`
	Generated GeneratedMode `json:"generated,omitempty"`
}

// Constraint represents a table constraint. ForeignTable and ForeignColumns
// are set only for FOREIGN KEY constraints; CheckClause only for CHECK.
type Constraint struct {
	Schema            string         `json:"schema"`
	Table             string         `json:"table"`
	Name              string         `json:"name"`
	Kind              ConstraintKind `json:"kind"`
	Columns           []string       `json:"columns,omitempty"`
	ForeignSchema     string         `json:"foreign_schema,omitempty"`
	ForeignTable      string         `json:"foreign_table,omitempty"`
	ForeignColumns    []string       `json:"foreign_columns,omitempty"`
	UpdateRule        string         `json:"update_rule,omitempty"`
	DeleteRule        string         `json:"delete_rule,omitempty"`
	Deferrable        bool           `json:"deferrable,omitempty"`
	InitiallyDeferred bool           `json:"initially_deferred,omitempty"`
	CheckClause       string         `json:"check_clause,omitempty"`
}

// SelfReferencing reports whether the constraint is a foreign key pointing
// back at its own table. Such edges are excluded from dependency sorting and
// emitted only after every table exists.
func (c *Constraint) SelfReferencing() bool {
	return c.Kind == ConstraintForeignKey && strings.EqualFold(c.ForeignTable, c.Table)
}

// Index represents a standalone index. Indexes that back a PRIMARY KEY or
// UNIQUE constraint are excluded at acquisition so their DDL is never
// emitted twice.
type Index struct {
	Schema    string   `json:"schema"`
	Table     string   `json:"table"`
	Name      string   `json:"name"`
	Columns   []string `json:"columns,omitempty"`
	Unique    bool     `json:"unique,omitempty"`
	Method    string   `json:"method,omitempty"`
	Predicate string   `json:"predicate,omitempty"`
}

// Parameter represents a single routine parameter.
type Parameter struct {
	Name     string        `json:"name,omitempty"`
	DataType string        `json:"data_type"`
	Mode     ParameterMode `json:"mode,omitempty"`
	Default  *string       `json:"default,omitempty"`
}

// Function represents a function or procedure. A return type of "void" (or
// none at all) marks a procedure.
type Function struct {
	Schema     string       `json:"schema"`
	Name       string       `json:"name"`
	Parameters []*Parameter `json:"parameters,omitempty"`
	Returns    string       `json:"returns,omitempty"`
	Language   string       `json:"language,omitempty"`
	Body       string       `json:"body,omitempty"`
	Volatility string       `json:"volatility,omitempty"`
	Security   string       `json:"security,omitempty"`
	Comment    string       `json:"comment,omitempty"`
}

// Kind reports whether the routine is a function or a procedure.
func (f *Function) Kind() RoutineKind {
	if f.Returns == "" || strings.EqualFold(f.Returns, "void") {
		return RoutineProcedure
	}
	return RoutineFunction
}

// TriggerLevel represents the FOR EACH granularity of a trigger.
type TriggerLevel string

const (
	TriggerRow       TriggerLevel = "ROW"
	TriggerStatement TriggerLevel = "STATEMENT"
)

// Trigger represents a trigger and the function it invokes. Level defaults
// to ROW when acquisition does not report it.
type Trigger struct {
	Schema   string         `json:"schema"`
	Table    string         `json:"table"`
	Name     string         `json:"name"`
	Timing   TriggerTiming  `json:"timing"`
	Events   []TriggerEvent `json:"events"`
	Level    TriggerLevel   `json:"level,omitempty"`
	Function string         `json:"function"`
	When     string         `json:"when,omitempty"`
}

// Sequence represents a sequence. Sequences participate in generation only,
// never in diffing.
type Sequence struct {
	Schema    string `json:"schema"`
	Name      string `json:"name"`
	DataType  string `json:"data_type,omitempty"`
	Start     int64  `json:"start"`
	Increment int64  `json:"increment"`
	MinValue  *int64 `json:"min_value,omitempty"`
	MaxValue  *int64 `json:"max_value,omitempty"`
	Cycle     bool   `json:"cycle,omitempty"`
}
