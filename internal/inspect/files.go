package inspect

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/pgsync/pgsync/internal/descriptor"
	"github.com/pgsync/pgsync/internal/errs"
	"github.com/pgsync/pgsync/internal/names"
	"github.com/pgsync/pgsync/internal/sqlfmt"
)

// Generated file names. The generation side writes them, the file adapter
// reads them back; together they form the round-trip contract.
const (
	SchemaFileName   = "schema.sql"
	RoutinesFileName = "procs.sql"
	TriggersFileName = "triggers.sql"
)

// Files acquires descriptors from a directory of definition files. The
// files are parsed with the server's own grammar and expressions are
// rendered back through its deparser, so the descriptors carry the same
// spellings the live adapter reports out of the catalogs.
type Files struct {
	dir    string
	schema string

	tables      []*descriptor.Table
	columns     []*descriptor.Column
	constraints []*descriptor.Constraint
	indexes     []*descriptor.Index
	functions   []*descriptor.Function
	triggers    []*descriptor.Trigger
	sequences   []*descriptor.Sequence
}

// NewFiles parses the file set under dir. schema.sql must exist;
// procs.sql and triggers.sql are optional since a schema may have no
// routines or triggers.
func NewFiles(dir, schema string) (*Files, error) {
	s := &Files{dir: dir, schema: schema}

	schemaSQL, err := os.ReadFile(filepath.Join(dir, SchemaFileName))
	if err != nil {
		return nil, errs.Wrapf(errs.KindAcquisition, err, "failed to read %s in %s", SchemaFileName, dir)
	}
	if err := s.parseSchema(string(schemaSQL)); err != nil {
		return nil, err
	}

	routinesSQL, err := readOptional(filepath.Join(dir, RoutinesFileName))
	if err != nil {
		return nil, err
	}
	if err := s.parseRoutines(routinesSQL); err != nil {
		return nil, err
	}

	triggersSQL, err := readOptional(filepath.Join(dir, TriggersFileName))
	if err != nil {
		return nil, err
	}
	if err := s.parseTriggers(triggersSQL); err != nil {
		return nil, err
	}

	return s, nil
}

func readOptional(path string) (string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", errs.Wrapf(errs.KindAcquisition, err, "failed to read %s", path)
	}
	return string(data), nil
}

func (s *Files) Label() string      { return s.dir }
func (s *Files) SchemaName() string { return s.schema }
func (s *Files) Close() error       { return nil }

func (s *Files) Tables(ctx context.Context) ([]*descriptor.Table, error) {
	return s.tables, nil
}

func (s *Files) Columns(ctx context.Context) ([]*descriptor.Column, error) {
	return s.columns, nil
}

func (s *Files) Constraints(ctx context.Context) ([]*descriptor.Constraint, error) {
	return s.constraints, nil
}

func (s *Files) Indexes(ctx context.Context) ([]*descriptor.Index, error) {
	return s.indexes, nil
}

func (s *Files) Functions(ctx context.Context) ([]*descriptor.Function, error) {
	return s.functions, nil
}

func (s *Files) Triggers(ctx context.Context) ([]*descriptor.Trigger, error) {
	return s.triggers, nil
}

func (s *Files) Sequences(ctx context.Context) ([]*descriptor.Sequence, error) {
	return s.sequences, nil
}

// parseNodes splits a definition file into statements and parses each one.
// Statements that fail to parse abort the load: a file set the server
// would reject cannot describe a schema.
func parseNodes(content, file string) ([]*pg_query.Node, error) {
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}

	stmts, err := pg_query.SplitWithParser(content, true)
	if err != nil {
		return nil, errs.Wrapf(errs.KindValidation, err, "failed to split %s into statements", file)
	}

	var nodes []*pg_query.Node
	for _, stmt := range stmts {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		parsed, err := pg_query.Parse(stmt)
		if err != nil {
			return nil, errs.Wrapf(errs.KindValidation, err, "failed to parse statement in %s", file)
		}
		for _, raw := range parsed.Stmts {
			if raw.Stmt != nil {
				nodes = append(nodes, raw.Stmt)
			}
		}
	}
	return nodes, nil
}

func (s *Files) parseSchema(content string) error {
	nodes, err := parseNodes(content, SchemaFileName)
	if err != nil {
		return err
	}

	byName := map[string]*descriptor.Table{}
	for _, node := range nodes {
		switch stmt := node.Node.(type) {
		case *pg_query.Node_CreateStmt:
			s.addTable(stmt.CreateStmt, byName)
		case *pg_query.Node_AlterTableStmt:
			s.applyAlterTable(stmt.AlterTableStmt, byName)
		case *pg_query.Node_IndexStmt:
			s.addIndex(stmt.IndexStmt, byName)
		case *pg_query.Node_CreateSeqStmt:
			s.addSequence(stmt.CreateSeqStmt)
		}
	}

	// CHECK constraints record the columns their expression references,
	// which is how the server fills conkey. Unnamed ones are named only
	// after that so the name picks up the column part.
	for _, c := range s.constraints {
		if c.Kind != descriptor.ConstraintCheck {
			continue
		}
		if t := byName[c.Table]; t != nil {
			c.Columns = referencedColumns(c.CheckClause, t.Columns)
		}
		if c.Name == "" {
			c.Name = checkName(c.Table, c.Columns)
		}
	}

	// The server treats key membership as NOT NULL whether or not the
	// file spells it out, and resolves short-form REFERENCES to the
	// referenced table's primary key.
	for _, c := range s.constraints {
		switch c.Kind {
		case descriptor.ConstraintPrimaryKey:
			for _, col := range c.Columns {
				s.setNullable(c.Table, col, false)
			}
		case descriptor.ConstraintForeignKey:
			if len(c.ForeignColumns) == 0 {
				c.ForeignColumns = primaryKeyColumns(byName[c.ForeignTable])
			}
		}
	}

	return nil
}

func (s *Files) addTable(stmt *pg_query.CreateStmt, byName map[string]*descriptor.Table) {
	if stmt.Relation == nil {
		return
	}
	t := &descriptor.Table{Schema: s.schema, Name: stmt.Relation.Relname}

	for _, elt := range stmt.TableElts {
		switch def := elt.Node.(type) {
		case *pg_query.Node_ColumnDef:
			col := s.buildColumn(t, def.ColumnDef)
			t.Columns = append(t.Columns, col)
			s.columns = append(s.columns, col)
		case *pg_query.Node_Constraint:
			if c := s.buildConstraint(def.Constraint, t.Name, nil); c != nil {
				s.constraints = append(s.constraints, c)
				t.Constraints = append(t.Constraints, c)
			}
		}
	}

	s.tables = append(s.tables, t)
	byName[t.Name] = t
}

func (s *Files) buildColumn(t *descriptor.Table, def *pg_query.ColumnDef) *descriptor.Column {
	col := &descriptor.Column{
		Table:    t.Name,
		Name:     def.Colname,
		Position: len(t.Columns) + 1,
		Nullable: true,
	}
	applyTypeName(col, def.TypeName)
	expandSerial(col, t.Name)

	for _, item := range def.Constraints {
		cons := item.GetConstraint()
		if cons == nil {
			continue
		}
		switch cons.Contype {
		case pg_query.ConstrType_CONSTR_NOTNULL:
			col.Nullable = false

		case pg_query.ConstrType_CONSTR_NULL:
			col.Nullable = true

		case pg_query.ConstrType_CONSTR_DEFAULT:
			if expr := deparseExpr(cons.RawExpr); expr != "" {
				col.Default = &expr
			}

		case pg_query.ConstrType_CONSTR_IDENTITY:
			col.Identity = identityMode(cons.GeneratedWhen)
			col.Nullable = false

		case pg_query.ConstrType_CONSTR_GENERATED:
			if expr := deparseExpr(cons.RawExpr); expr != "" {
				col.Generated = descriptor.GeneratedStored
				col.Default = &expr
			}

		case pg_query.ConstrType_CONSTR_PRIMARY,
			pg_query.ConstrType_CONSTR_UNIQUE,
			pg_query.ConstrType_CONSTR_FOREIGN,
			pg_query.ConstrType_CONSTR_CHECK:
			if c := s.buildConstraint(cons, t.Name, []string{col.Name}); c != nil {
				s.constraints = append(s.constraints, c)
				t.Constraints = append(t.Constraints, c)
			}
		}
	}
	return col
}

// applyTypeName resolves the parsed type to its information_schema
// spelling plus length/precision/scale. Arrays keep no element modifiers
// because the catalogs report none for them either.
func applyTypeName(col *descriptor.Column, typeName *pg_query.TypeName) {
	if typeName == nil {
		return
	}
	base := sqlfmt.CanonicalType(lastName(typeName))
	if len(typeName.ArrayBounds) > 0 {
		col.DataType = base + "[]"
		return
	}
	col.DataType = base
	applyTypmods(col, typeName.Typmods)
}

func applyTypmods(col *descriptor.Column, typmods []*pg_query.Node) {
	mods := make([]int, 0, len(typmods))
	for _, tm := range typmods {
		v, ok := constInt(tm)
		if !ok {
			return
		}
		mods = append(mods, int(v))
	}
	if len(mods) == 0 {
		return
	}

	lower := strings.ToLower(col.DataType)
	if lower == "numeric" || lower == "decimal" {
		if mods[0] > 0 {
			precision := mods[0]
			col.Precision = &precision
		}
		if len(mods) > 1 && mods[1] > 0 {
			scale := mods[1]
			col.Scale = &scale
		}
		return
	}

	if def, ok := sqlfmt.DefaultTimePrecision(lower); ok {
		// interval carries a range mask before the precision; a lone mask
		// is not a precision at all.
		if lower == "interval" && len(mods) != 2 {
			return
		}
		precision := mods[len(mods)-1]
		if precision != def {
			col.Precision = &precision
		}
		return
	}

	length := mods[0]
	if def, ok := sqlfmt.DefaultLength(lower); ok && length == def {
		return
	}
	col.MaxLength = &length
}

// expandSerial rewrites the serial pseudo-types into what the server
// stores: the integer base type, NOT NULL, and an owned-sequence default.
// The sequence itself is not tracked, matching the live adapter, which
// skips owned sequences.
func expandSerial(col *descriptor.Column, table string) {
	var base string
	switch strings.ToLower(col.DataType) {
	case "serial":
		base = "integer"
	case "smallserial":
		base = "smallint"
	case "bigserial":
		base = "bigint"
	default:
		return
	}
	col.DataType = base
	col.Nullable = false
	def := fmt.Sprintf("nextval('%s_%s_seq'::regclass)", table, col.Name)
	col.Default = &def
}

// buildConstraint maps one constraint node onto a descriptor. fallback
// names the column an inline constraint implicitly covers. Unsupported
// kinds return nil and are skipped.
func (s *Files) buildConstraint(cons *pg_query.Constraint, table string, fallback []string) *descriptor.Constraint {
	c := &descriptor.Constraint{
		Schema:            s.schema,
		Table:             table,
		Name:              cons.Conname,
		Deferrable:        cons.Deferrable,
		InitiallyDeferred: cons.Initdeferred,
	}

	switch cons.Contype {
	case pg_query.ConstrType_CONSTR_PRIMARY:
		c.Kind = descriptor.ConstraintPrimaryKey
		c.Columns = stringList(cons.Keys)

	case pg_query.ConstrType_CONSTR_UNIQUE:
		c.Kind = descriptor.ConstraintUnique
		c.Columns = stringList(cons.Keys)

	case pg_query.ConstrType_CONSTR_FOREIGN:
		c.Kind = descriptor.ConstraintForeignKey
		c.Columns = stringList(cons.FkAttrs)
		if cons.Pktable != nil {
			c.ForeignSchema = cons.Pktable.Schemaname
			c.ForeignTable = cons.Pktable.Relname
		}
		if c.ForeignSchema == "" {
			c.ForeignSchema = s.schema
		}
		c.ForeignColumns = stringList(cons.PkAttrs)
		c.UpdateRule = referentialAction(cons.FkUpdAction)
		c.DeleteRule = referentialAction(cons.FkDelAction)

	case pg_query.ConstrType_CONSTR_CHECK:
		c.Kind = descriptor.ConstraintCheck
		expr := deparseExpr(cons.RawExpr)
		if expr == "" {
			return nil
		}
		c.CheckClause = "(" + expr + ")"
		// Columns and, for unnamed checks, the name are filled in a later
		// pass once the whole table is known.
		return c

	default:
		return nil
	}

	if len(c.Columns) == 0 {
		c.Columns = fallback
	}
	if c.Name == "" {
		c.Name = names.Synthesize("", c.Kind, c.Table, c.Columns)
	}
	return c
}

// checkName mirrors the server's naming for unnamed CHECK constraints:
// the table, the first referenced column if any, then the check suffix.
func checkName(table string, columns []string) string {
	name := table
	if len(columns) > 0 {
		name += "_" + strings.ToLower(columns[0])
	}
	return names.Clamp(name + "_check")
}

func primaryKeyColumns(t *descriptor.Table) []string {
	if t == nil {
		return nil
	}
	for _, c := range t.Constraints {
		if c.Kind == descriptor.ConstraintPrimaryKey {
			return c.Columns
		}
	}
	return nil
}

func (s *Files) applyAlterTable(stmt *pg_query.AlterTableStmt, byName map[string]*descriptor.Table) {
	if stmt.Objtype != pg_query.ObjectType_OBJECT_TABLE || stmt.Relation == nil {
		return
	}
	table := stmt.Relation.Relname
	t := byName[table]

	for _, node := range stmt.Cmds {
		cmd := node.GetAlterTableCmd()
		if cmd == nil {
			continue
		}
		switch cmd.Subtype {
		case pg_query.AlterTableType_AT_AddColumn:
			if t == nil {
				continue
			}
			if def := cmd.Def.GetColumnDef(); def != nil {
				col := s.buildColumn(t, def)
				t.Columns = append(t.Columns, col)
				s.columns = append(s.columns, col)
			}

		case pg_query.AlterTableType_AT_AddConstraint:
			if cons := cmd.Def.GetConstraint(); cons != nil {
				if c := s.buildConstraint(cons, table, nil); c != nil {
					s.constraints = append(s.constraints, c)
					if t != nil {
						t.Constraints = append(t.Constraints, c)
					}
				}
			}

		case pg_query.AlterTableType_AT_SetNotNull:
			s.setNullable(table, cmd.Name, false)

		case pg_query.AlterTableType_AT_DropNotNull:
			s.setNullable(table, cmd.Name, true)

		case pg_query.AlterTableType_AT_ColumnDefault:
			s.setDefault(table, cmd.Name, cmd.Def)
		}
	}
}

func (s *Files) setNullable(table, column string, nullable bool) {
	for _, c := range s.columns {
		if c.Table == table && c.Name == column {
			c.Nullable = nullable
		}
	}
}

func (s *Files) setDefault(table, column string, def *pg_query.Node) {
	for _, c := range s.columns {
		if c.Table != table || c.Name != column {
			continue
		}
		if def == nil {
			c.Default = nil
		} else if expr := deparseExpr(def); expr != "" {
			c.Default = &expr
		}
	}
}

func (s *Files) addIndex(stmt *pg_query.IndexStmt, byName map[string]*descriptor.Table) {
	if stmt.Relation == nil {
		return
	}
	idx := &descriptor.Index{
		Schema: s.schema,
		Table:  stmt.Relation.Relname,
		Name:   stmt.Idxname,
		Unique: stmt.Unique,
		Method: strings.ToLower(stmt.AccessMethod),
	}
	if idx.Method == "" {
		idx.Method = "btree"
	}

	for _, p := range stmt.IndexParams {
		elem := p.GetIndexElem()
		if elem == nil {
			continue
		}
		idx.Columns = append(idx.Columns, indexColumn(elem))
	}
	if expr := deparseExpr(stmt.WhereClause); expr != "" {
		idx.Predicate = "(" + expr + ")"
	}

	s.indexes = append(s.indexes, idx)
	if t := byName[idx.Table]; t != nil {
		t.Indexes = append(t.Indexes, idx)
	}
}

// indexColumn renders one index key the way pg_get_indexdef reports it: a
// column name quoted only if necessary, or a deparsed expression, with an
// explicit DESC kept.
func indexColumn(elem *pg_query.IndexElem) string {
	key := sqlfmt.QuoteIdentifier(elem.Name)
	if elem.Name == "" {
		key = deparseExpr(elem.Expr)
	}
	if elem.Ordering == pg_query.SortByDir_SORTBY_DESC {
		key += " DESC"
	}
	return key
}

func (s *Files) addSequence(stmt *pg_query.CreateSeqStmt) {
	if stmt.Sequence == nil {
		return
	}
	seq := &descriptor.Sequence{
		Schema:    s.schema,
		Name:      stmt.Sequence.Relname,
		DataType:  "bigint",
		Start:     1,
		Increment: 1,
	}

	var minValue, maxValue *int64
	for _, node := range stmt.Options {
		opt := node.GetDefElem()
		if opt == nil {
			continue
		}
		switch opt.Defname {
		case "as":
			if tn := opt.Arg.GetTypeName(); tn != nil {
				seq.DataType = sqlfmt.CanonicalType(lastName(tn))
			}
		case "increment":
			if v, ok := constInt(opt.Arg); ok {
				seq.Increment = v
			}
		case "start":
			if v, ok := constInt(opt.Arg); ok {
				seq.Start = v
			}
		case "minvalue":
			// A bare NO MINVALUE arrives with a nil argument.
			if v, ok := constInt(opt.Arg); ok {
				minValue = &v
			}
		case "maxvalue":
			if v, ok := constInt(opt.Arg); ok {
				maxValue = &v
			}
		case "cycle":
			seq.Cycle = boolOpt(opt)
		case "owned_by":
			// Owned sequences ride along with their column; the live
			// adapter does not report them either.
			return
		}
	}

	min, max := defaultedBounds(minValue, maxValue, seq.DataType)
	seq.MinValue, seq.MaxValue = sequenceBounds(min, max)
	s.sequences = append(s.sequences, seq)
}

// defaultedBounds resolves absent bounds to what the server would pick for
// the sequence's type, so the shared elision in sequenceBounds applies
// the same way it does to catalog values.
func defaultedBounds(min, max *int64, dataType string) (int64, int64) {
	resolvedMin := int64(1)
	if min != nil {
		resolvedMin = *min
	}
	resolvedMax := int64(9223372036854775807)
	switch strings.ToLower(dataType) {
	case "smallint":
		resolvedMax = 32767
	case "integer":
		resolvedMax = 2147483647
	}
	if max != nil {
		resolvedMax = *max
	}
	return resolvedMin, resolvedMax
}

func (s *Files) parseRoutines(content string) error {
	nodes, err := parseNodes(content, RoutinesFileName)
	if err != nil {
		return err
	}
	for _, node := range nodes {
		stmt := node.GetCreateFunctionStmt()
		if stmt == nil {
			continue
		}
		if f := s.buildFunction(stmt); f != nil {
			s.functions = append(s.functions, f)
		}
	}
	return nil
}

func (s *Files) buildFunction(stmt *pg_query.CreateFunctionStmt) *descriptor.Function {
	name := stringList(stmt.Funcname)
	if len(name) == 0 {
		return nil
	}
	f := &descriptor.Function{
		Schema:     s.schema,
		Name:       name[len(name)-1],
		Volatility: "VOLATILE",
		Security:   "INVOKER",
	}

	// TABLE(...) result columns arrive as parameters in table mode; they
	// belong to the return type, not the call signature.
	var tableColumns []string
	for _, p := range stmt.Parameters {
		param := p.GetFunctionParameter()
		if param == nil {
			continue
		}
		dataType := parameterType(param.ArgType)
		if param.Mode == pg_query.FunctionParameterMode_FUNC_PARAM_TABLE {
			tableColumns = append(tableColumns, strings.TrimSpace(param.Name+" "+dataType))
			continue
		}
		dp := &descriptor.Parameter{
			Name:     param.Name,
			DataType: dataType,
			Mode:     parameterMode(param.Mode),
		}
		if expr := deparseExpr(param.Defexpr); expr != "" {
			dp.Default = &expr
		}
		f.Parameters = append(f.Parameters, dp)
	}

	if !stmt.IsProcedure {
		f.Returns = returnsText(stmt.ReturnType, tableColumns)
	}

	for _, node := range stmt.Options {
		opt := node.GetDefElem()
		if opt == nil {
			continue
		}
		switch opt.Defname {
		case "language":
			f.Language = strings.ToLower(stringValue(opt.Arg))
		case "as":
			f.Body = bodyText(opt.Arg)
		case "volatility":
			f.Volatility = volatilityText(stringValue(opt.Arg))
		case "security":
			if boolOpt(opt) {
				f.Security = "DEFINER"
			}
		}
	}

	return f
}

func parameterType(tn *pg_query.TypeName) string {
	if tn == nil {
		return ""
	}
	base := sqlfmt.CanonicalType(lastName(tn))
	if len(tn.ArrayBounds) > 0 {
		base += "[]"
	}
	return base
}

// returnsText renders the result the way pg_get_function_result does,
// reconstructing TABLE(...) from table-mode parameters.
func returnsText(ret *pg_query.TypeName, tableColumns []string) string {
	if ret == nil {
		return ""
	}
	base := parameterType(ret)
	if ret.Setof {
		if base == "record" && len(tableColumns) > 0 {
			return "TABLE(" + strings.Join(tableColumns, ", ") + ")"
		}
		return "SETOF " + base
	}
	return base
}

// bodyText extracts the routine body from the AS option. The list form
// carries one string per AS item; C functions would have two, SQL bodies
// have one.
func bodyText(arg *pg_query.Node) string {
	if arg == nil {
		return ""
	}
	if list := arg.GetList(); list != nil {
		parts := make([]string, 0, len(list.Items))
		for _, item := range list.Items {
			parts = append(parts, stringValue(item))
		}
		return strings.Join(parts, "\n")
	}
	return stringValue(arg)
}

func volatilityText(v string) string {
	switch strings.ToLower(v) {
	case "immutable", "i":
		return "IMMUTABLE"
	case "stable", "s":
		return "STABLE"
	default:
		return "VOLATILE"
	}
}

func parameterMode(mode pg_query.FunctionParameterMode) descriptor.ParameterMode {
	switch mode {
	case pg_query.FunctionParameterMode_FUNC_PARAM_OUT:
		return descriptor.ParameterOut
	case pg_query.FunctionParameterMode_FUNC_PARAM_INOUT:
		return descriptor.ParameterInOut
	case pg_query.FunctionParameterMode_FUNC_PARAM_VARIADIC:
		return descriptor.ParameterVariadic
	}
	return ""
}

func (s *Files) parseTriggers(content string) error {
	nodes, err := parseNodes(content, TriggersFileName)
	if err != nil {
		return err
	}
	for _, node := range nodes {
		stmt := node.GetCreateTrigStmt()
		if stmt == nil || stmt.Relation == nil {
			continue
		}

		t := &descriptor.Trigger{
			Schema:   s.schema,
			Table:    stmt.Relation.Relname,
			Name:     stmt.Trigname,
			Timing:   triggerTiming(stmt.Timing),
			Events:   triggerEvents(stmt.Events),
			Level:    descriptor.TriggerStatement,
			When:     deparseExpr(stmt.WhenClause),
			Function: s.routineRef(stmt.Funcname),
		}
		if stmt.Row {
			t.Level = descriptor.TriggerRow
		}
		s.triggers = append(s.triggers, t)
	}
	return nil
}

// Timing and event values per pg_trigger.h: BEFORE is 1<<1, INSTEAD is
// 1<<6, AFTER is the absence of both; events are bits 2 through 5.
func triggerTiming(timing int32) descriptor.TriggerTiming {
	switch timing {
	case 1 << 1:
		return descriptor.TriggerBefore
	case 1 << 6:
		return descriptor.TriggerInsteadOf
	}
	return descriptor.TriggerAfter
}

func triggerEvents(mask int32) []descriptor.TriggerEvent {
	var events []descriptor.TriggerEvent
	if mask&(1<<2) != 0 {
		events = append(events, descriptor.TriggerInsert)
	}
	if mask&(1<<4) != 0 {
		events = append(events, descriptor.TriggerUpdate)
	}
	if mask&(1<<3) != 0 {
		events = append(events, descriptor.TriggerDelete)
	}
	if mask&(1<<5) != 0 {
		events = append(events, descriptor.TriggerTruncate)
	}
	return events
}

// routineRef renders a possibly qualified routine name, dropping the
// adapter's own schema the way the live adapter reports trigger functions.
func (s *Files) routineRef(nameNodes []*pg_query.Node) string {
	parts := stringList(nameNodes)
	if len(parts) == 0 {
		return ""
	}
	if len(parts) > 1 && parts[0] != s.schema {
		return strings.Join(parts, ".")
	}
	return parts[len(parts)-1]
}

// deparseExpr renders a parsed expression back through the server's
// deparser, the same renderer the catalogs use, so both adapters report
// one spelling for the same expression.
func deparseExpr(expr *pg_query.Node) string {
	if expr == nil {
		return ""
	}
	wrapped := &pg_query.ParseResult{
		Stmts: []*pg_query.RawStmt{{
			Stmt: &pg_query.Node{Node: &pg_query.Node_SelectStmt{SelectStmt: &pg_query.SelectStmt{
				TargetList: []*pg_query.Node{{
					Node: &pg_query.Node_ResTarget{ResTarget: &pg_query.ResTarget{Val: expr}},
				}},
			}}},
		}},
	}
	out, err := pg_query.Deparse(wrapped)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(out, "SELECT ")
}

// referencedColumns lists the table columns an expression mentions, in
// column order, replicating the column set the server records for CHECK
// constraints.
func referencedColumns(expr string, columns []*descriptor.Column) []string {
	tokens := map[string]bool{}
	for _, tok := range identifierTokens(expr) {
		tokens[tok] = true
	}
	var referenced []string
	for _, c := range columns {
		if tokens[c.Name] {
			referenced = append(referenced, c.Name)
		}
	}
	return referenced
}

// identifierTokens scans a deparsed expression for identifiers, skipping
// string literals and unwrapping quoted names.
func identifierTokens(expr string) []string {
	var tokens []string
	runes := []rune(expr)
	for i := 0; i < len(runes); i++ {
		switch r := runes[i]; {
		case r == '\'':
			for i++; i < len(runes); i++ {
				if runes[i] == '\'' {
					if i+1 < len(runes) && runes[i+1] == '\'' {
						i++
						continue
					}
					break
				}
			}
		case r == '"':
			start := i + 1
			for i++; i < len(runes); i++ {
				if runes[i] == '"' {
					break
				}
			}
			tokens = append(tokens, string(runes[start:i]))
		case isIdentStart(r):
			start := i
			for i+1 < len(runes) && isIdentPart(runes[i+1]) {
				i++
			}
			tokens = append(tokens, string(runes[start:i+1]))
		}
	}
	return tokens
}

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || (r >= '0' && r <= '9') || r == '$'
}

func identityMode(generatedWhen string) descriptor.IdentityMode {
	switch generatedWhen {
	case "a":
		return descriptor.IdentityAlways
	case "d":
		return descriptor.IdentityByDefault
	}
	return ""
}

// referentialAction maps the parse-tree action characters to the wording
// the catalogs report.
func referentialAction(action string) string {
	switch action {
	case "r":
		return "RESTRICT"
	case "c":
		return "CASCADE"
	case "n":
		return "SET NULL"
	case "d":
		return "SET DEFAULT"
	}
	return "NO ACTION"
}

func stringList(nodes []*pg_query.Node) []string {
	var parts []string
	for _, n := range nodes {
		if sv := n.GetString_(); sv != nil {
			parts = append(parts, sv.Sval)
		}
	}
	return parts
}

func lastName(tn *pg_query.TypeName) string {
	if tn == nil {
		return ""
	}
	parts := stringList(tn.Names)
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

func stringValue(node *pg_query.Node) string {
	if node == nil {
		return ""
	}
	if sv := node.GetString_(); sv != nil {
		return sv.Sval
	}
	return ""
}

// constInt reads an integer constant, either bare (sequence options) or
// wrapped in A_Const (type modifiers). Values beyond int32 arrive from the
// parser as float strings and are parsed back here.
func constInt(node *pg_query.Node) (int64, bool) {
	if node == nil {
		return 0, false
	}
	if iv := node.GetInteger(); iv != nil {
		return int64(iv.Ival), true
	}
	if fv := node.GetFloat(); fv != nil {
		if v, err := strconv.ParseInt(fv.Fval, 10, 64); err == nil {
			return v, true
		}
		return 0, false
	}
	ac := node.GetAConst()
	if ac == nil || ac.Isnull {
		return 0, false
	}
	if iv := ac.GetIval(); iv != nil {
		return int64(iv.Ival), true
	}
	if fv := ac.GetFval(); fv != nil {
		if v, err := strconv.ParseInt(fv.Fval, 10, 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

func boolOpt(opt *pg_query.DefElem) bool {
	if opt.Arg == nil {
		return true
	}
	if b := opt.Arg.GetBoolean(); b != nil {
		return b.Boolval
	}
	if v, ok := constInt(opt.Arg); ok {
		return v != 0
	}
	return strings.EqualFold(stringValue(opt.Arg), "true")
}
