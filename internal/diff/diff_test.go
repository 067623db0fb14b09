package diff

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pgsync/pgsync/internal/descriptor"
)

func strPtr(s string) *string { return &s }
func intPtr(v int) *int       { return &v }

func testTable(name string, columns ...*descriptor.Column) *descriptor.Table {
	return &descriptor.Table{Schema: "source", Name: name, Columns: columns}
}

func testColumn(table, name, dataType string) *descriptor.Column {
	return &descriptor.Column{Table: table, Name: name, DataType: dataType, Nullable: true}
}

func TestComputePartitionsKeys(t *testing.T) {
	source := []string{"a", "b", "c"}
	target := []string{"b", "c", "d"}

	r := Compute(source, target,
		func(s string) string { return s },
		func(s string) string { return "same" },
	)

	if diff := cmp.Diff([]string{"a"}, r.ToCreate); diff != "" {
		t.Errorf("ToCreate mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"d"}, r.ToDrop); diff != "" {
		t.Errorf("ToDrop mismatch (-want +got):\n%s", diff)
	}
	if len(r.ToModify) != 0 {
		t.Errorf("equal signatures should not modify, got %v", r.ToModify)
	}
}

func TestComputeDetectsModification(t *testing.T) {
	type obj struct{ name, payload string }

	source := []obj{{"a", "v2"}, {"b", "same"}}
	target := []obj{{"a", "v1"}, {"b", "same"}}

	r := Compute(source, target,
		func(o obj) string { return o.name },
		func(o obj) string { return o.payload },
	)

	if len(r.ToCreate) != 0 || len(r.ToDrop) != 0 {
		t.Errorf("matched keys must not appear in create/drop: %+v", r)
	}
	if len(r.ToModify) != 1 || r.ToModify[0].Source.name != "a" {
		t.Errorf("ToModify = %+v, want exactly the changed pair a", r.ToModify)
	}
}

// Every identity key must land in exactly one of the three sets, and keys
// present on both sides with equal signatures in none of them.
func TestComputeCompleteness(t *testing.T) {
	type obj struct{ name, payload string }

	source := []obj{{"only_source", "x"}, {"both_same", "x"}, {"both_diff", "new"}}
	target := []obj{{"only_target", "x"}, {"both_same", "x"}, {"both_diff", "old"}}

	r := Compute(source, target,
		func(o obj) string { return o.name },
		func(o obj) string { return o.payload },
	)

	seen := map[string]int{}
	for _, o := range r.ToCreate {
		seen[o.name]++
	}
	for _, o := range r.ToDrop {
		seen[o.name]++
	}
	for _, p := range r.ToModify {
		seen[p.Source.name]++
	}

	want := map[string]int{"only_source": 1, "only_target": 1, "both_diff": 1}
	if diff := cmp.Diff(want, seen); diff != "" {
		t.Errorf("key partition mismatch (-want +got):\n%s", diff)
	}
}

func TestSelfDiffIsEmptyInEveryCategory(t *testing.T) {
	def := strPtr("now()")
	tables := []*descriptor.Table{testTable("users"), testTable("orders")}
	columns := []*descriptor.Column{
		{Table: "users", Name: "id", DataType: "integer"},
		{Table: "users", Name: "created_at", DataType: "timestamp without time zone", Default: def, Nullable: true},
	}
	constraints := []*descriptor.Constraint{
		{Table: "users", Name: "users_pkey", Kind: descriptor.ConstraintPrimaryKey, Columns: []string{"id"}},
	}
	indexes := []*descriptor.Index{
		{Table: "users", Name: "users_created_idx", Columns: []string{"created_at"}},
	}
	routines := []*descriptor.Function{
		{Schema: "source", Name: "touch", Returns: "trigger", Body: "BEGIN RETURN NEW; END"},
	}
	triggers := []*descriptor.Trigger{
		{Table: "users", Name: "users_touch", Timing: descriptor.TriggerBefore, Events: []descriptor.TriggerEvent{descriptor.TriggerUpdate}, Function: "touch"},
	}

	if r := Tables(tables, tables); !r.Empty() {
		t.Errorf("table self-diff not empty: %+v", r)
	}
	if r := Columns(columns, columns, nil); !r.Empty() {
		t.Errorf("column self-diff not empty: %+v", r)
	}
	if r := Constraints(constraints, constraints); !r.Empty() {
		t.Errorf("constraint self-diff not empty: %+v", r)
	}
	if r := Indexes(indexes, indexes); !r.Empty() {
		t.Errorf("index self-diff not empty: %+v", r)
	}
	if r := Routines(routines, routines); !r.Empty() {
		t.Errorf("routine self-diff not empty: %+v", r)
	}
	if r := Triggers(triggers, triggers); !r.Empty() {
		t.Errorf("trigger self-diff not empty: %+v", r)
	}
}

func TestColumnsExcludesTablesHandledWholesale(t *testing.T) {
	source := []*descriptor.Column{
		testColumn("new_table", "id", "integer"),
		testColumn("shared", "id", "integer"),
		testColumn("shared", "email", "text"),
	}
	target := []*descriptor.Column{
		testColumn("old_table", "id", "integer"),
		testColumn("shared", "id", "integer"),
	}

	excluded := map[string]bool{"new_table": true, "old_table": true}
	r := Columns(source, target, excluded)

	if len(r.ToCreate) != 1 || r.ToCreate[0].Table != "shared" || r.ToCreate[0].Name != "email" {
		t.Errorf("ToCreate = %+v, want only shared.email", r.ToCreate)
	}
	if len(r.ToDrop) != 0 {
		t.Errorf("columns of excluded tables must not be dropped individually: %+v", r.ToDrop)
	}
}

func TestColumnSignatureChanges(t *testing.T) {
	base := func() *descriptor.Column {
		return &descriptor.Column{
			Table: "users", Name: "email",
			DataType: "character varying", MaxLength: intPtr(255), Nullable: true,
		}
	}

	tests := []struct {
		name   string
		mutate func(*descriptor.Column)
		want   bool
	}{
		{"untouched", func(c *descriptor.Column) {}, false},
		{"type change", func(c *descriptor.Column) { c.DataType = "text"; c.MaxLength = nil }, true},
		{"length change", func(c *descriptor.Column) { c.MaxLength = intPtr(100) }, true},
		{"nullability change", func(c *descriptor.Column) { c.Nullable = false }, true},
		{"default added", func(c *descriptor.Column) { c.Default = strPtr("''::character varying") }, true},
		{"identity added", func(c *descriptor.Column) { c.Identity = descriptor.IdentityByDefault }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := base()
			tt.mutate(source)
			r := Columns([]*descriptor.Column{source}, []*descriptor.Column{base()}, nil)
			if got := len(r.ToModify) == 1; got != tt.want {
				t.Errorf("modified = %v, want %v (result %+v)", got, tt.want, r)
			}
		})
	}
}

func TestRoutineDiffIgnoresSchemaRename(t *testing.T) {
	source := &descriptor.Function{
		Schema: "source", Name: "touch", Returns: "trigger",
		Body: `BEGIN UPDATE "source".audit SET at = now(); RETURN NEW; END`,
	}
	target := &descriptor.Function{
		Schema: "target", Name: "touch", Returns: "trigger",
		Body: `BEGIN UPDATE "target".audit SET at = now(); RETURN NEW; END`,
	}

	r := Routines([]*descriptor.Function{source}, []*descriptor.Function{target})
	if len(r.ToModify) != 0 {
		t.Errorf("schema qualifier rename alone must not register as a change: %+v", r.ToModify)
	}
}

func TestRoutineDiffDetectsBodyChange(t *testing.T) {
	source := &descriptor.Function{Schema: "source", Name: "touch", Returns: "trigger", Body: "BEGIN RETURN NEW; END"}
	target := &descriptor.Function{Schema: "target", Name: "touch", Returns: "trigger", Body: "BEGIN RETURN OLD; END"}

	r := Routines([]*descriptor.Function{source}, []*descriptor.Function{target})
	if len(r.ToModify) != 1 {
		t.Errorf("body change must register as a modification: %+v", r)
	}
}

func TestRoutineIdentitySeparatesKinds(t *testing.T) {
	fn := &descriptor.Function{Schema: "source", Name: "cleanup", Returns: "integer", Body: "SELECT 1"}
	proc := &descriptor.Function{Schema: "target", Name: "cleanup", Returns: "void", Body: "BEGIN END"}

	r := Routines([]*descriptor.Function{fn}, []*descriptor.Function{proc})
	if len(r.ToCreate) != 1 || len(r.ToDrop) != 1 {
		t.Errorf("function and procedure sharing a name must not match: %+v", r)
	}
}

func TestTriggerSignature(t *testing.T) {
	base := func() *descriptor.Trigger {
		return &descriptor.Trigger{
			Table:    "users",
			Name:     "users_touch",
			Timing:   descriptor.TriggerBefore,
			Events:   []descriptor.TriggerEvent{descriptor.TriggerInsert, descriptor.TriggerUpdate},
			Function: "touch",
		}
	}

	same := Triggers([]*descriptor.Trigger{base()}, []*descriptor.Trigger{base()})
	if !same.Empty() {
		t.Errorf("identical triggers should not diff: %+v", same)
	}

	changed := base()
	changed.Timing = descriptor.TriggerAfter
	r := Triggers([]*descriptor.Trigger{changed}, []*descriptor.Trigger{base()})
	if len(r.ToModify) != 1 {
		t.Errorf("timing change must register: %+v", r)
	}

	reordered := base()
	reordered.Events = []descriptor.TriggerEvent{descriptor.TriggerUpdate, descriptor.TriggerInsert}
	if r := Triggers([]*descriptor.Trigger{reordered}, []*descriptor.Trigger{base()}); !r.Empty() {
		t.Errorf("event order must not register as a change: %+v", r)
	}

	// The live adapter reports the WHEN clause parenthesized, the file
	// adapter bare.
	parenthesized := base()
	parenthesized.When = "(new.email IS NOT NULL)"
	bare := base()
	bare.When = "new.email IS NOT NULL"
	if r := Triggers([]*descriptor.Trigger{parenthesized}, []*descriptor.Trigger{bare}); !r.Empty() {
		t.Errorf("equivalent WHEN spellings must not register as a change: %+v", r)
	}

	conditioned := base()
	conditioned.When = "new.email IS NOT NULL"
	if r := Triggers([]*descriptor.Trigger{conditioned}, []*descriptor.Trigger{base()}); len(r.ToModify) != 1 {
		t.Errorf("added WHEN clause must register: %+v", r)
	}
}
