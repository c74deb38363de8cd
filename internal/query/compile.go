package query

import (
	"fmt"
	"strings"

	"github.com/roach88/rollcall/internal/model"
)

// Compile renders a clause as a SQL boolean expression and returns the
// values for its placeholders, left to right. The fragment and the values
// are a unit: binding them against any other statement, or interleaving
// other placeholders between them, desyncs placeholder order silently.
//
// All literals are parameterized; Compile never interpolates a caller
// value into the SQL text. Role names are the one exception and come from
// the closed model.Role set, not from callers.
func Compile(c Clause) (string, []any, error) {
	if c == nil {
		return "", nil, fmt.Errorf("cannot compile nil clause")
	}

	switch cl := c.(type) {
	case Equals:
		return fmt.Sprintf("%s = ?", cl.Column), []any{cl.Value}, nil
	case *Equals:
		return fmt.Sprintf("%s = ?", cl.Column), []any{cl.Value}, nil
	case NotEquals:
		return fmt.Sprintf("%s != ?", cl.Column), []any{cl.Value}, nil
	case *NotEquals:
		return fmt.Sprintf("%s != ?", cl.Column), []any{cl.Value}, nil
	case And:
		return compileCompound(" AND ", cl.Clauses)
	case *And:
		return compileCompound(" AND ", cl.Clauses)
	case Or:
		return compileCompound(" OR ", cl.Clauses)
	case *Or:
		return compileCompound(" OR ", cl.Clauses)
	case RoleIs:
		return compileRoleIs(cl.Role)
	case *RoleIs:
		return compileRoleIs(cl.Role)
	case RoleIsNot:
		return compileRoleIsNot(cl.Role)
	case *RoleIsNot:
		return compileRoleIsNot(cl.Role)
	default:
		return "", nil, fmt.Errorf("unsupported clause type: %T", c)
	}
}

// compileCompound renders each sub-clause parenthesized and joins them with
// the operator, concatenating bindings in sub-clause order.
func compileCompound(operator string, clauses []Clause) (string, []any, error) {
	if len(clauses) == 0 {
		return "", nil, fmt.Errorf("compound clause requires at least one sub-clause")
	}

	parts := make([]string, 0, len(clauses))
	var params []any

	for _, sub := range clauses {
		fragment, subParams, err := Compile(sub)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, "("+fragment+")")
		params = append(params, subParams...)
	}

	return strings.Join(parts, operator), params, nil
}

func compileRoleIs(role model.Role) (string, []any, error) {
	switch r := role.(type) {
	case model.ServerAdmin:
		return "p.role = 'SERVER_ADMIN'", nil, nil
	case model.OrganizationAdmin:
		return "p.role = 'ORGANIZATION_ADMIN' AND p.organization = ?", []any{r.Organization}, nil
	case model.OrganizationViewer:
		return "p.role = 'ORGANIZATION_VIEWER' AND p.organization = ?", []any{r.Organization}, nil
	case model.EventAdmin:
		return "p.role = 'EVENT_ADMIN' AND p.event = ?", []any{r.Event}, nil
	case model.EventEditor:
		return "p.role = 'EVENT_EDITOR' AND p.event = ?", []any{r.Event}, nil
	case model.EventViewer:
		return "p.role = 'EVENT_VIEWER' AND p.event = ?", []any{r.Event}, nil
	}
	return "", nil, fmt.Errorf("unsupported role type: %T", role)
}

func compileRoleIsNot(role model.Role) (string, []any, error) {
	switch r := role.(type) {
	case model.ServerAdmin:
		return "p.role != 'SERVER_ADMIN'", nil, nil
	case model.OrganizationAdmin:
		return "p.role != 'ORGANIZATION_ADMIN' OR p.organization != ?", []any{r.Organization}, nil
	case model.OrganizationViewer:
		return "p.role != 'ORGANIZATION_VIEWER' OR p.organization != ?", []any{r.Organization}, nil
	case model.EventAdmin:
		return "p.role != 'EVENT_ADMIN' OR p.event != ?", []any{r.Event}, nil
	case model.EventEditor:
		return "p.role != 'EVENT_EDITOR' OR p.event != ?", []any{r.Event}, nil
	case model.EventViewer:
		return "p.role != 'EVENT_VIEWER' OR p.event != ?", []any{r.Event}, nil
	}
	return "", nil, fmt.Errorf("unsupported role type: %T", role)
}
