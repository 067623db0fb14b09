package diff

import (
	"fmt"
	"strings"

	"github.com/pgsync/pgsync/internal/descriptor"
	"github.com/pgsync/pgsync/internal/names"
	"github.com/pgsync/pgsync/internal/sqlfmt"
)

// RoutineStatements renders the function/procedure phase. Modified
// routines are re-created with CREATE OR REPLACE when possible; a changed
// return type forces a rename of the old routine first because the server
// refuses OR REPLACE across return types.
func (e *Emitter) RoutineStatements(r Result[*descriptor.Function]) []Statement {
	var stmts []Statement
	for _, f := range r.ToCreate {
		stmts = append(stmts, e.CreateRoutine(f))
	}
	for _, p := range r.ToModify {
		if !strings.EqualFold(p.Source.Returns, p.Target.Returns) {
			stmts = append(stmts, e.renameRoutine(p.Target))
		}
		stmts = append(stmts, e.CreateRoutine(p.Source))
	}
	for _, f := range r.ToDrop {
		stmts = append(stmts, e.renameRoutine(f))
	}
	return stmts
}

func (e *Emitter) CreateRoutine(f *descriptor.Function) Statement {
	if strings.TrimSpace(f.Body) == "" {
		return Statement{Comment: sqlfmt.TodoComment("%s %s has no body text; port it manually", strings.ToLower(string(f.Kind())), f.Name)}
	}

	keyword := "FUNCTION"
	if f.Kind() == descriptor.RoutineProcedure {
		keyword = "PROCEDURE"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE OR REPLACE %s %s(%s)", keyword, e.target(f.Name), e.parameterList(f))
	if f.Kind() == descriptor.RoutineFunction {
		fmt.Fprintf(&b, "\nRETURNS %s", f.Returns)
	}
	fmt.Fprintf(&b, "\nLANGUAGE %s", routineLanguage(f))
	if v := strings.ToUpper(f.Volatility); v == "IMMUTABLE" || v == "STABLE" {
		b.WriteString("\n" + v)
	}
	if strings.EqualFold(f.Security, "DEFINER") {
		b.WriteString("\nSECURITY DEFINER")
	}

	body := ReplaceSchemaRefs(f.Body, e.SourceSchema, e.TargetSchema)
	fmt.Fprintf(&b, "\nAS %s;", sqlfmt.WrapFunctionBody(body))

	return Statement{SQL: b.String()}
}

func (e *Emitter) renameRoutine(f *descriptor.Function) Statement {
	keyword := "FUNCTION"
	if f.Kind() == descriptor.RoutineProcedure {
		keyword = "PROCEDURE"
	}
	backup := names.Backup(f.Name, e.Now)
	return Statement{
		Comment: sqlfmt.TodoComment("drop %s %s after verifying the sync", strings.ToLower(keyword), backup),
		SQL: fmt.Sprintf("ALTER %s %s(%s) RENAME TO %s;",
			keyword, e.target(f.Name), inputTypeList(f), sqlfmt.QuoteIdentifier(backup)),
	}
}

// parameterList renders the full parameter list for CREATE. The IN mode is
// the server default and stays implicit.
func (e *Emitter) parameterList(f *descriptor.Function) string {
	parts := make([]string, 0, len(f.Parameters))
	for _, p := range f.Parameters {
		var b strings.Builder
		if p.Mode != "" && p.Mode != descriptor.ParameterIn {
			b.WriteString(string(p.Mode) + " ")
		}
		if p.Name != "" {
			b.WriteString(sqlfmt.QuoteIdentifier(p.Name) + " ")
		}
		b.WriteString(p.DataType)
		if p.Default != nil {
			b.WriteString(" DEFAULT " + *p.Default)
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, ", ")
}

// inputTypeList renders only the input parameter types, which is how the
// server identifies a routine in ALTER statements.
func inputTypeList(f *descriptor.Function) string {
	var types []string
	for _, p := range f.Parameters {
		if p.Mode == descriptor.ParameterOut {
			continue
		}
		types = append(types, p.DataType)
	}
	return strings.Join(types, ", ")
}

func routineLanguage(f *descriptor.Function) string {
	if f.Language == "" {
		return "plpgsql"
	}
	return strings.ToLower(f.Language)
}
