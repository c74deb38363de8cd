package store

import (
	"context"
	"strings"
)

// idsInTable verifies that every id in the batch has a row in the named
// table. Duplicates are allowed; an empty batch passes without touching
// the database.
//
// One anti-join query covers the whole batch: the candidate ids form a
// literal table and are left-joined against the target, keeping candidates
// with no match. On failure the reported id is the FIRST missing one by
// input order - the query's result order is never trusted for this, the
// missing set is matched back against the input slice.
//
// Table names come from the callers' fixed set, never from input.
func idsInTable(ctx context.Context, q querier, table string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("WITH valid_ids AS (SELECT column1 FROM ( VALUES ")
	for i := range ids {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?)")
	}
	sb.WriteString(" )) SELECT column1 FROM valid_ids LEFT JOIN ")
	sb.WriteString(table)
	sb.WriteString(" ON ")
	sb.WriteString(table)
	sb.WriteString(".id = valid_ids.column1 WHERE ")
	sb.WriteString(table)
	sb.WriteString(".id IS NULL")

	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := q.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return NewCheckExistsError(err)
	}
	defer rows.Close()

	missing := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return NewCheckExistsError(err)
		}
		missing[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return NewCheckExistsError(err)
	}

	if len(missing) == 0 {
		return nil
	}

	for _, id := range ids {
		if _, ok := missing[id]; ok {
			return NewIDDoesNotExistError(id)
		}
	}

	// The anti-join only ever returns candidates from the input.
	return NewIDDoesNotExistError("")
}
