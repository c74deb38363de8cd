package store

import "strings"

// Reconciliation helpers shared by the nested upserts. The phases operate
// on positions into the submitted batch rather than on the items
// themselves, so each store keeps its own typed slices and the output
// order falls out of writing results back by position.

// classifyByID partitions batch positions into inserts (empty id) and
// updates (non-empty id). Submission order is preserved within each class.
func classifyByID(ids []string) (inserts, updates []int) {
	for i, id := range ids {
		if id == "" {
			inserts = append(inserts, i)
		} else {
			updates = append(updates, i)
		}
	}
	return inserts, updates
}

// valuesClause renders the placeholder list for a multi-row VALUES
// literal: rows rows of cols columns, e.g. "(?, ?), (?, ?)".
func valuesClause(rows, cols int) string {
	row := "(" + strings.Repeat("?, ", cols-1) + "?)"

	var sb strings.Builder
	for i := 0; i < rows; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(row)
	}
	return sb.String()
}

// absenceClause renders the WHERE clause removing every child row of a
// touched parent whose id is not in that parent's kept set:
//
//	(parent = ? AND id != ? AND id != ?) OR (parent = ?)
//
// keptCounts[i] is the number of kept child ids for parent i; callers bind
// each parent id followed by its kept child ids, in the same order.
func absenceClause(parentColumn string, keptCounts []int) string {
	var sb strings.Builder
	for i, count := range keptCounts {
		if i > 0 {
			sb.WriteString(" OR ")
		}
		sb.WriteString("(")
		sb.WriteString(parentColumn)
		sb.WriteString(" = ?")
		for j := 0; j < count; j++ {
			sb.WriteString(" AND id != ?")
		}
		sb.WriteString(")")
	}
	return sb.String()
}

// equalsAnyClause renders "col = ? OR col = ?" for a batch of n values.
func equalsAnyClause(column string, n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteString(" OR ")
		}
		sb.WriteString(column)
		sb.WriteString(" = ?")
	}
	return sb.String()
}
