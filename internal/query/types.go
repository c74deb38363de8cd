// Package query builds parameterized SQL filters from composable clause
// values. A clause renders as a boolean expression with positional
// placeholders and carries its own placeholder values in matching order, so
// stores can splice the pair straight into a statement.
package query

import "github.com/roach88/rollcall/internal/model"

// Clause filters one entity's rows.
//
// This is a sealed interface - only types in this package implement it.
// The marker method pattern prevents external implementations and keeps the
// type switch in Compile exhaustive.
//
// Clause types:
//   - Equals / NotEquals: one column against one literal
//   - And / Or: boolean composition over ordered sub-clauses
//   - RoleIs / RoleIsNot: permission-role match including its scope column
//
// Stores accept a nil Clause to mean "all rows" (no WHERE clause); nil is
// handled before Compile, which rejects it.
type Clause interface {
	clause() // Marker method - seals interface to this package
}

// Equals renders "column = ?" bound to Value.
type Equals struct {
	Column string
	Value  any
}

func (Equals) clause() {}

// NotEquals renders "column != ?" bound to Value.
type NotEquals struct {
	Column string
	Value  any
}

func (NotEquals) clause() {}

// And holds when every sub-clause holds. Sub-clauses render parenthesized
// in order with their bindings concatenated in the same order. The list
// must not be empty.
type And struct {
	Clauses []Clause
}

func (And) clause() {}

// Or holds when any sub-clause holds. Same rendering rules as And.
type Or struct {
	Clauses []Clause
}

func (Or) clause() {}

// RoleIs matches permission rows granting exactly Role. Scoped roles also
// compare their scope column, binding the scope id. The fragment names
// columns through the p alias the permission store gives its table.
type RoleIs struct {
	Role model.Role
}

func (RoleIs) clause() {}

// RoleIsNot matches permission rows granting anything but Role.
type RoleIsNot struct {
	Role model.Role
}

func (RoleIsNot) clause() {}
