package inspect

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/pgsync/pgsync/internal/descriptor"
	"github.com/pgsync/pgsync/internal/errs"
	"github.com/pgsync/pgsync/internal/logger"
	"github.com/pgsync/pgsync/internal/sqlfmt"
)

// DB acquires descriptors from one schema of a live database. It owns the
// connection handle and closes it when the run ends.
type DB struct {
	db     *sql.DB
	schema string
	label  string
}

// NewDB wraps an open connection. The label appears in the script header;
// callers build it from the connection parameters.
func NewDB(db *sql.DB, schema, label string) *DB {
	return &DB{db: db, schema: schema, label: label}
}

func (s *DB) Label() string      { return s.label }
func (s *DB) SchemaName() string { return s.schema }

// Close releases the connection. Safe to call after a failed run.
func (s *DB) Close() error {
	return s.db.Close()
}

// Validate confirms the schema exists before any phase runs, so a typo in
// a schema name fails loudly instead of presenting as an empty schema.
func (s *DB) Validate(ctx context.Context) error {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM pg_namespace WHERE nspname = $1)", s.schema).Scan(&exists)
	if err != nil {
		return errs.Wrapf(errs.KindAcquisition, err, "failed to look up schema %q", s.schema)
	}
	if !exists {
		return errs.Newf(errs.KindValidation, "schema %q does not exist", s.schema)
	}
	return nil
}

// query runs one acquisition query with debug logging around it.
func (s *DB) query(ctx context.Context, description, query string, args ...any) (*sql.Rows, error) {
	isDebug := logger.IsDebug()
	if isDebug {
		logger.Get().Debug("Running acquisition query", "description", description, "schema", s.schema)
	}

	start := time.Now()
	rows, err := s.db.QueryContext(ctx, query, args...)

	if isDebug {
		if err != nil {
			logger.Get().Debug("Acquisition query failed", "description", description, "error", err)
		} else {
			logger.Get().Debug("Acquisition query finished", "description", description, "elapsed", time.Since(start))
		}
	}

	if err != nil {
		return nil, errs.Wrapf(errs.KindAcquisition, err, "failed to read %s for schema %q", description, s.schema)
	}
	return rows, nil
}

// Tables returns table descriptors with columns, constraints, and indexes
// attached, ready for CREATE TABLE rendering and dependency ordering.
func (s *DB) Tables(ctx context.Context) ([]*descriptor.Table, error) {
	rows, err := s.query(ctx, "tables", `
		SELECT c.relname,
		       COALESCE(obj_description(c.oid, 'pg_class'), '')
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE n.nspname = $1
		  AND c.relkind IN ('r', 'p')
		ORDER BY c.relname`, s.schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []*descriptor.Table
	byName := map[string]*descriptor.Table{}
	for rows.Next() {
		t := &descriptor.Table{Schema: s.schema}
		if err := rows.Scan(&t.Name, &t.Comment); err != nil {
			return nil, errs.Wrap(errs.KindAcquisition, "failed to scan table row", err)
		}
		tables = append(tables, t)
		byName[t.Name] = t
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.KindAcquisition, "failed to read table rows", err)
	}

	columns, err := s.Columns(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range columns {
		if t, ok := byName[c.Table]; ok {
			t.Columns = append(t.Columns, c)
		}
	}

	constraints, err := s.Constraints(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range constraints {
		if t, ok := byName[c.Table]; ok {
			t.Constraints = append(t.Constraints, c)
		}
	}

	indexes, err := s.Indexes(ctx)
	if err != nil {
		return nil, err
	}
	for _, idx := range indexes {
		if t, ok := byName[idx.Table]; ok {
			t.Indexes = append(t.Indexes, idx)
		}
	}

	return tables, nil
}

// Columns returns every column in the schema. Modifiers that merely
// restate a type default are stored as absent so descriptors compare the
// same no matter which adapter produced them.
func (s *DB) Columns(ctx context.Context) ([]*descriptor.Column, error) {
	rows, err := s.query(ctx, "columns", `
		SELECT table_name,
		       column_name,
		       ordinal_position,
		       data_type,
		       udt_name,
		       is_nullable,
		       COALESCE(column_default, ''),
		       COALESCE(character_maximum_length, -1),
		       COALESCE(numeric_precision, -1),
		       COALESCE(numeric_scale, -1),
		       COALESCE(datetime_precision, -1),
		       is_identity,
		       COALESCE(identity_generation, ''),
		       is_generated,
		       COALESCE(generation_expression, '')
		FROM information_schema.columns
		WHERE table_schema = $1
		ORDER BY table_name, ordinal_position`, s.schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []*descriptor.Column
	for rows.Next() {
		var c descriptor.Column
		var dataType, udtName, nullable, def string
		var identityYes, identityGen, generatedYes, generationExpr string
		var maxLen, precision, scale, timePre int
		if err := rows.Scan(&c.Table, &c.Name, &c.Position, &dataType, &udtName, &nullable,
			&def, &maxLen, &precision, &scale, &timePre,
			&identityYes, &identityGen, &generatedYes, &generationExpr); err != nil {
			return nil, errs.Wrap(errs.KindAcquisition, "failed to scan column row", err)
		}

		c.DataType = resolveDataType(dataType, udtName)
		c.Nullable = nullable == "YES"

		switch {
		case generatedYes == "ALWAYS":
			c.Generated = descriptor.GeneratedStored
			if generationExpr != "" {
				c.Default = &generationExpr
			}
		case identityYes == "YES":
			c.Identity = descriptor.IdentityMode(identityGen)
		case def != "":
			c.Default = &def
		}

		applyModifiers(&c, maxLen, precision, scale, timePre)
		columns = append(columns, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.KindAcquisition, "failed to read column rows", err)
	}
	return columns, nil
}

// Constraints returns primary keys, uniques, and checks first, then
// foreign keys, so within the constraint phase referenced keys are created
// before the keys referencing them.
func (s *DB) Constraints(ctx context.Context) ([]*descriptor.Constraint, error) {
	plain, err := s.plainConstraints(ctx)
	if err != nil {
		return nil, err
	}
	foreign, err := s.foreignKeys(ctx)
	if err != nil {
		return nil, err
	}
	return append(plain, foreign...), nil
}

func (s *DB) plainConstraints(ctx context.Context) ([]*descriptor.Constraint, error) {
	rows, err := s.query(ctx, "constraints", `
		SELECT rel.relname,
		       con.conname,
		       con.contype::text,
		       pg_get_constraintdef(con.oid),
		       ARRAY(
		           SELECT a.attname
		           FROM unnest(con.conkey) WITH ORDINALITY AS k(attnum, ord)
		           JOIN pg_attribute a ON a.attrelid = con.conrelid AND a.attnum = k.attnum
		           ORDER BY k.ord
		       )::text[]
		FROM pg_constraint con
		JOIN pg_class rel ON rel.oid = con.conrelid
		JOIN pg_namespace n ON n.oid = con.connamespace
		WHERE n.nspname = $1
		  AND con.contype IN ('p', 'u', 'c')
		ORDER BY rel.relname, con.conname`, s.schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var constraints []*descriptor.Constraint
	for rows.Next() {
		var (
			c            descriptor.Constraint
			contype, def string
			columns      []string
		)
		if err := rows.Scan(&c.Table, &c.Name, &contype, &def, pq.Array(&columns)); err != nil {
			return nil, errs.Wrap(errs.KindAcquisition, "failed to scan constraint row", err)
		}
		c.Schema = s.schema
		c.Columns = columns
		switch contype {
		case "p":
			c.Kind = descriptor.ConstraintPrimaryKey
		case "u":
			c.Kind = descriptor.ConstraintUnique
		case "c":
			c.Kind = descriptor.ConstraintCheck
			c.CheckClause = strings.TrimPrefix(def, "CHECK ")
		}
		constraints = append(constraints, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.KindAcquisition, "failed to read constraint rows", err)
	}
	return constraints, nil
}

func (s *DB) foreignKeys(ctx context.Context) ([]*descriptor.Constraint, error) {
	rows, err := s.query(ctx, "foreign keys", `
		SELECT c.conname,
		       r1.relname AS table_name,
		       a1.attname AS column_name,
		       n2.nspname AS foreign_schema,
		       r2.relname AS foreign_table,
		       a2.attname AS foreign_column,
		       CASE c.confupdtype
		           WHEN 'c' THEN 'CASCADE'
		           WHEN 'n' THEN 'SET NULL'
		           WHEN 'd' THEN 'SET DEFAULT'
		           WHEN 'r' THEN 'RESTRICT'
		           ELSE 'NO ACTION'
		       END AS update_rule,
		       CASE c.confdeltype
		           WHEN 'c' THEN 'CASCADE'
		           WHEN 'n' THEN 'SET NULL'
		           WHEN 'd' THEN 'SET DEFAULT'
		           WHEN 'r' THEN 'RESTRICT'
		           ELSE 'NO ACTION'
		       END AS delete_rule,
		       c.condeferrable,
		       c.condeferred
		FROM pg_constraint c
		JOIN pg_class r1 ON r1.oid = c.conrelid
		JOIN pg_class r2 ON r2.oid = c.confrelid
		JOIN pg_namespace n1 ON n1.oid = r1.relnamespace
		JOIN pg_namespace n2 ON n2.oid = r2.relnamespace
		CROSS JOIN unnest(c.conkey, c.confkey) WITH ORDINALITY AS k(key1, key2, ord)
		JOIN pg_attribute a1 ON a1.attrelid = c.conrelid AND a1.attnum = k.key1
		JOIN pg_attribute a2 ON a2.attrelid = c.confrelid AND a2.attnum = k.key2
		WHERE c.contype = 'f'
		  AND n1.nspname = $1
		ORDER BY r1.relname, c.conname, k.ord`, s.schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	// One row per column pair; consecutive rows with the same name belong
	// to the same constraint.
	var constraints []*descriptor.Constraint
	var current *descriptor.Constraint
	for rows.Next() {
		var (
			name, table, column, foreignSchema, foreignTable, foreignColumn string
			updateRule, deleteRule                                          string
			deferrable, initiallyDeferred                                   bool
		)
		if err := rows.Scan(&name, &table, &column, &foreignSchema, &foreignTable, &foreignColumn,
			&updateRule, &deleteRule, &deferrable, &initiallyDeferred); err != nil {
			return nil, errs.Wrap(errs.KindAcquisition, "failed to scan foreign key row", err)
		}

		if current == nil || current.Name != name || current.Table != table {
			current = &descriptor.Constraint{
				Schema:            s.schema,
				Table:             table,
				Name:              name,
				Kind:              descriptor.ConstraintForeignKey,
				ForeignSchema:     foreignSchema,
				ForeignTable:      foreignTable,
				UpdateRule:        updateRule,
				DeleteRule:        deleteRule,
				Deferrable:        deferrable,
				InitiallyDeferred: initiallyDeferred,
			}
			constraints = append(constraints, current)
		}
		current.Columns = append(current.Columns, column)
		current.ForeignColumns = append(current.ForeignColumns, foreignColumn)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.KindAcquisition, "failed to read foreign key rows", err)
	}
	return constraints, nil
}

// Indexes returns secondary indexes. Indexes backing a PRIMARY KEY or
// UNIQUE constraint are excluded; their constraints already cover them and
// emitting both would duplicate DDL.
func (s *DB) Indexes(ctx context.Context) ([]*descriptor.Index, error) {
	rows, err := s.query(ctx, "indexes", `
		SELECT t.relname,
		       i.relname,
		       idx.indisunique,
		       am.amname,
		       COALESCE(pg_get_expr(idx.indpred, idx.indrelid), ''),
		       ARRAY(
		           SELECT pg_get_indexdef(idx.indexrelid, k.i + 1, true)
		           FROM generate_subscripts(idx.indkey, 1) AS k(i)
		           ORDER BY k.i
		       )::text[]
		FROM pg_index idx
		JOIN pg_class i ON i.oid = idx.indexrelid
		JOIN pg_class t ON t.oid = idx.indrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_am am ON am.oid = i.relam
		WHERE n.nspname = $1
		  AND NOT idx.indisprimary
		  AND NOT EXISTS (
		      SELECT 1 FROM pg_constraint c
		      WHERE c.conindid = idx.indexrelid AND c.contype IN ('u', 'p')
		  )
		ORDER BY t.relname, i.relname`, s.schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var indexes []*descriptor.Index
	for rows.Next() {
		var (
			idx     descriptor.Index
			columns []string
		)
		if err := rows.Scan(&idx.Table, &idx.Name, &idx.Unique, &idx.Method, &idx.Predicate, pq.Array(&columns)); err != nil {
			return nil, errs.Wrap(errs.KindAcquisition, "failed to scan index row", err)
		}
		idx.Schema = s.schema
		idx.Columns = columns
		indexes = append(indexes, &idx)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.KindAcquisition, "failed to read index rows", err)
	}
	return indexes, nil
}

// Functions returns functions and procedures, excluding extension-owned
// routines. The body is the bare source text as stored, which is what the
// textual comparison works on.
func (s *DB) Functions(ctx context.Context) ([]*descriptor.Function, error) {
	rows, err := s.query(ctx, "functions", `
		SELECT p.proname,
		       COALESCE(pg_get_function_result(p.oid), ''),
		       pg_get_function_arguments(p.oid),
		       l.lanname,
		       p.prosrc,
		       CASE p.provolatile
		           WHEN 'i' THEN 'IMMUTABLE'
		           WHEN 's' THEN 'STABLE'
		           ELSE 'VOLATILE'
		       END,
		       CASE WHEN p.prosecdef THEN 'DEFINER' ELSE 'INVOKER' END
		FROM pg_proc p
		JOIN pg_namespace n ON n.oid = p.pronamespace
		JOIN pg_language l ON l.oid = p.prolang
		WHERE n.nspname = $1
		  AND p.prokind IN ('f', 'p')
		  AND NOT EXISTS (
		      SELECT 1 FROM pg_depend d WHERE d.objid = p.oid AND d.deptype = 'e'
		  )
		ORDER BY p.proname`, s.schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var functions []*descriptor.Function
	for rows.Next() {
		var (
			f    descriptor.Function
			args string
		)
		if err := rows.Scan(&f.Name, &f.Returns, &args, &f.Language, &f.Body, &f.Volatility, &f.Security); err != nil {
			return nil, errs.Wrap(errs.KindAcquisition, "failed to scan function row", err)
		}
		f.Schema = s.schema
		f.Parameters = ParseParameterList(args)
		functions = append(functions, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.KindAcquisition, "failed to read function rows", err)
	}
	return functions, nil
}

// Triggers returns user triggers. information_schema reports one row per
// firing event; rows are regrouped into one descriptor per trigger.
func (s *DB) Triggers(ctx context.Context) ([]*descriptor.Trigger, error) {
	rows, err := s.query(ctx, "triggers", `
		SELECT event_object_table,
		       trigger_name,
		       action_timing,
		       event_manipulation,
		       action_orientation,
		       COALESCE(action_condition, ''),
		       action_statement
		FROM information_schema.triggers
		WHERE trigger_schema = $1
		ORDER BY event_object_table, trigger_name, event_manipulation`, s.schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var triggers []*descriptor.Trigger
	var current *descriptor.Trigger
	for rows.Next() {
		var table, name, timing, event, orientation, condition, statement string
		if err := rows.Scan(&table, &name, &timing, &event, &orientation, &condition, &statement); err != nil {
			return nil, errs.Wrap(errs.KindAcquisition, "failed to scan trigger row", err)
		}

		if current == nil || current.Name != name || current.Table != table {
			current = &descriptor.Trigger{
				Schema:   s.schema,
				Table:    table,
				Name:     name,
				Timing:   descriptor.TriggerTiming(timing),
				Level:    descriptor.TriggerLevel(orientation),
				When:     condition,
				Function: triggerFunction(statement, s.schema),
			}
			triggers = append(triggers, current)
		}
		current.Events = append(current.Events, descriptor.TriggerEvent(event))
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.KindAcquisition, "failed to read trigger rows", err)
	}
	return triggers, nil
}

// Sequences returns standalone sequences. Sequences owned by a column
// (serial or identity) are excluded; their columns already express them.
func (s *DB) Sequences(ctx context.Context) ([]*descriptor.Sequence, error) {
	rows, err := s.query(ctx, "sequences", `
		SELECT c.relname,
		       format_type(sq.seqtypid, NULL),
		       sq.seqstart,
		       sq.seqincrement,
		       sq.seqmin,
		       sq.seqmax,
		       sq.seqcycle
		FROM pg_sequence sq
		JOIN pg_class c ON c.oid = sq.seqrelid
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE n.nspname = $1
		  AND NOT EXISTS (
		      SELECT 1 FROM pg_depend d
		      WHERE d.objid = sq.seqrelid AND d.deptype IN ('a', 'i')
		  )
		ORDER BY c.relname`, s.schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sequences []*descriptor.Sequence
	for rows.Next() {
		var (
			seq      descriptor.Sequence
			min, max int64
		)
		if err := rows.Scan(&seq.Name, &seq.DataType, &seq.Start, &seq.Increment, &min, &max, &seq.Cycle); err != nil {
			return nil, errs.Wrap(errs.KindAcquisition, "failed to scan sequence row", err)
		}
		seq.Schema = s.schema
		seq.MinValue, seq.MaxValue = sequenceBounds(min, max)
		sequences = append(sequences, &seq)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.KindAcquisition, "failed to read sequence rows", err)
	}
	return sequences, nil
}

// resolveDataType maps information_schema's data_type to the name the
// formatter works with. USER-DEFINED and ARRAY hide the real type behind
// udt_name; array element names come back in catalog spelling and are
// canonicalized so both adapters report the same form.
func resolveDataType(dataType, udtName string) string {
	switch dataType {
	case "USER-DEFINED":
		return udtName
	case "ARRAY":
		return sqlfmt.CanonicalType(strings.TrimPrefix(udtName, "_")) + "[]"
	}
	return dataType
}

// applyModifiers stores length/precision/scale, dropping values that
// restate the type default so both adapters describe such columns
// identically.
func applyModifiers(c *descriptor.Column, maxLen, precision, scale, timePrecision int) {
	if maxLen > 0 {
		if def, ok := sqlfmt.DefaultLength(c.DataType); !ok || maxLen != def {
			c.MaxLength = &maxLen
		}
	}

	lower := strings.ToLower(c.DataType)
	if lower == "numeric" || lower == "decimal" {
		if precision > 0 {
			c.Precision = &precision
		}
		if scale > 0 {
			c.Scale = &scale
		}
		return
	}

	if def, ok := sqlfmt.DefaultTimePrecision(c.DataType); ok && timePrecision >= 0 && timePrecision != def {
		c.Precision = &timePrecision
	}
}

// triggerFunction extracts the routine name from an action statement like
// "EXECUTE FUNCTION public.touch_updated_at()".
func triggerFunction(statement, schema string) string {
	fn := strings.TrimSpace(statement)
	fn = strings.TrimPrefix(fn, "EXECUTE FUNCTION ")
	fn = strings.TrimPrefix(fn, "EXECUTE PROCEDURE ")
	if i := strings.Index(fn, "("); i >= 0 {
		fn = fn[:i]
	}
	fn = strings.ReplaceAll(fn, `"`, "")
	fn = strings.TrimPrefix(fn, schema+".")
	return fn
}

// sequenceBounds hides min/max values that merely restate the defaults of
// an ascending sequence, whatever its integer width.
func sequenceBounds(min, max int64) (*int64, *int64) {
	var minPtr, maxPtr *int64
	if min != 1 {
		minPtr = &min
	}
	switch max {
	case 32767, 2147483647, 9223372036854775807:
	default:
		maxPtr = &max
	}
	return minPtr, maxPtr
}
