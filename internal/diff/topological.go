package diff

import "github.com/pgsync/pgsync/internal/descriptor"

// SortTables orders tables so that referenced tables appear before the
// tables referencing them, using a depth-first topological sort over
// foreign-key edges.
//
// Cycle handling favors termination and completeness over perfect order:
// a "visiting" marker tracks the current descent path, and hitting a table
// already on that path simply stops the descent instead of failing. Every
// table appears exactly once; a cyclic edge is satisfied for whichever
// participant is reached second and broken for the first.
//
// Determinism: roots are visited in input order and a table's outgoing
// edges in constraint order, so identical input always yields an
// identical order.
//
// Self-referencing foreign keys contribute no edge here; they are safe as
// soon as their own table exists. Edges pointing at tables absent from the
// input (other schemas, ignored tables) are skipped.
func SortTables(tables []*descriptor.Table) []*descriptor.Table {
	byName := make(map[string]*descriptor.Table, len(tables))
	for _, t := range tables {
		byName[t.Name] = t
	}

	visited := make(map[string]bool, len(tables))
	visiting := make(map[string]bool, len(tables))
	ordered := make([]*descriptor.Table, 0, len(tables))

	var visit func(t *descriptor.Table)
	visit = func(t *descriptor.Table) {
		if visited[t.Name] || visiting[t.Name] {
			return
		}
		visiting[t.Name] = true

		for _, c := range t.Constraints {
			if c.Kind != descriptor.ConstraintForeignKey || c.SelfReferencing() {
				continue
			}
			if ref, ok := byName[c.ForeignTable]; ok {
				visit(ref)
			}
		}

		visiting[t.Name] = false
		visited[t.Name] = true
		ordered = append(ordered, t)
	}

	for _, t := range tables {
		visit(t)
	}

	return ordered
}
