package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/rollcall/internal/model"
	"github.com/roach88/rollcall/internal/query"
)

// RegistrationIDEquals filters registrations by exact id.
func RegistrationIDEquals(id string) query.Clause {
	return query.Equals{Column: "id", Value: id}
}

// RegistrationIDNotEquals filters registrations excluding one id.
func RegistrationIDNotEquals(id string) query.Clause {
	return query.NotEquals{Column: "id", Value: id}
}

// RegistrationEventEquals filters registrations by event.
func RegistrationEventEquals(eventID string) query.Clause {
	return query.Equals{Column: "event", Value: eventID}
}

// RegistrationEventNotEquals filters registrations excluding one event.
func RegistrationEventNotEquals(eventID string) query.Clause {
	return query.NotEquals{Column: "event", Value: eventID}
}

// Stored value_type column values.
const (
	valueTypeString                 = "StringValue"
	valueTypeBoolean                = "BooleanValue"
	valueTypeUnsignedNumber         = "UnsignedNumberValue"
	valueTypeRepeatedUnsignedNumber = "RepeatedUnsignedNumberValue"
)

// encodeValue returns the value_type and value columns for a typed answer.
// Repeated numbers are comma-joined.
func encodeValue(v model.RegistrationValue) (valueType, value string, err error) {
	switch val := v.(type) {
	case model.StringValue:
		return valueTypeString, string(val), nil
	case model.BooleanValue:
		return valueTypeBoolean, strconv.FormatBool(bool(val)), nil
	case model.UnsignedNumberValue:
		return valueTypeUnsignedNumber, strconv.FormatUint(uint64(val), 10), nil
	case model.RepeatedUnsignedNumberValue:
		parts := make([]string, 0, len(val))
		for _, n := range val {
			parts = append(parts, strconv.FormatUint(uint64(n), 10))
		}
		return valueTypeRepeatedUnsignedNumber, strings.Join(parts, ","), nil
	}
	return "", "", fmt.Errorf("unsupported registration value type: %T", v)
}

// decodeValue rebuilds the typed answer from its stored kind and encoding.
// An unrecognized kind or an undecodable encoding is a column parse error,
// never a silent coercion.
func decodeValue(valueType, value string) (model.RegistrationValue, error) {
	switch valueType {
	case valueTypeString:
		return model.StringValue(value), nil
	case valueTypeBoolean:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, NewColumnParseError("value")
		}
		return model.BooleanValue(b), nil
	case valueTypeUnsignedNumber:
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return nil, NewColumnParseError("value")
		}
		return model.UnsignedNumberValue(n), nil
	case valueTypeRepeatedUnsignedNumber:
		if value == "" {
			return model.RepeatedUnsignedNumberValue{}, nil
		}
		parts := strings.Split(value, ",")
		nums := make([]uint32, 0, len(parts))
		for _, part := range parts {
			n, err := strconv.ParseUint(part, 10, 32)
			if err != nil {
				return nil, NewColumnParseError("value")
			}
			nums = append(nums, uint32(n))
		}
		return model.RepeatedUnsignedNumberValue(nums), nil
	}
	return nil, NewColumnParseError("value_type")
}

// itemRef addresses one submitted child by its parent's position and its
// own position within that parent.
type itemRef struct {
	parent int
	item   int
}

// UpsertRegistrations reconciles submitted registrations and their item
// collections against the store, in one transaction.
//
// Every referenced event id must exist. Parents partition on empty id into
// inserts and updates; update ids must exist. Items of updated parents
// partition the same way; items of inserted parents are always inserts.
// The submitted item collection is the complete desired set for its
// parent: stored items omitted from it are deleted.
//
// Returned registrations keep submission order, items keep their order
// within each parent, and all generated ids are filled in.
func (s *Store) UpsertRegistrations(ctx context.Context, regs []model.Registration) ([]model.Registration, error) {
	if len(regs) == 0 {
		return []model.Registration{}, nil
	}

	// Deep-copy so filling in generated ids never mutates the caller's
	// item slices.
	out := make([]model.Registration, len(regs))
	for i, reg := range regs {
		out[i] = reg
		out[i].Items = make([]model.RegistrationItem, len(reg.Items))
		copy(out[i].Items, reg.Items)
	}

	ids := make([]string, len(out))
	for i := range out {
		ids[i] = out[i].ID
	}
	inserts, updates := classifyByID(ids)

	isInsert := make([]bool, len(out))
	for _, i := range inserts {
		isInsert[i] = true
	}

	tx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() // No-op if committed

	eventIDs := make([]string, 0, len(out))
	for i := range out {
		eventIDs = append(eventIDs, out[i].Event)
	}
	if err := idsInTable(ctx, tx, "events", eventIDs); err != nil {
		return nil, err
	}

	if len(updates) > 0 {
		updateIDs := make([]string, 0, len(updates))
		for _, i := range updates {
			updateIDs = append(updateIDs, out[i].ID)
		}
		if err := idsInTable(ctx, tx, "registrations", updateIDs); err != nil {
			return nil, err
		}
	}

	// Items of an inserted parent cannot exist yet, so they are inserts
	// regardless of any submitted id; items of updated parents partition
	// on their own ids.
	var insertItems, updateItems []itemRef
	for i := range out {
		for j := range out[i].Items {
			if isInsert[i] || out[i].Items[j].ID == "" {
				insertItems = append(insertItems, itemRef{parent: i, item: j})
			} else {
				updateItems = append(updateItems, itemRef{parent: i, item: j})
			}
		}
	}

	if len(updateItems) > 0 {
		itemIDs := make([]string, 0, len(updateItems))
		for _, ref := range updateItems {
			itemIDs = append(itemIDs, out[ref.parent].Items[ref.item].ID)
		}
		if err := idsInTable(ctx, tx, "registration_items", itemIDs); err != nil {
			return nil, err
		}
	}

	// Parent ids first, then item ids in submission order.
	for _, i := range inserts {
		out[i].ID = s.ids.Generate()
	}
	for _, ref := range insertItems {
		out[ref.parent].Items[ref.item].ID = s.ids.Generate()
	}

	if len(inserts) > 0 {
		stmt := "INSERT INTO registrations(id, event) VALUES " + valuesClause(len(inserts), 2)
		args := make([]any, 0, len(inserts)*2)
		for _, i := range inserts {
			args = append(args, out[i].ID, out[i].Event)
		}
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return nil, NewInsertionError(err)
		}
	}

	if len(updates) > 0 {
		stmt := `
			WITH mydata(id, event) AS (VALUES ` + valuesClause(len(updates), 2) + `)
			UPDATE registrations
			SET event = mydata.event
			FROM mydata
			WHERE registrations.id = mydata.id
		`
		args := make([]any, 0, len(updates)*2)
		for _, i := range updates {
			args = append(args, out[i].ID, out[i].Event)
		}
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return nil, NewUpdateError(err)
		}
	}

	if len(insertItems) > 0 {
		stmt := "INSERT INTO registration_items(id, registration, idx, schema_item, value_type, value) VALUES " +
			valuesClause(len(insertItems), 6)
		args := make([]any, 0, len(insertItems)*6)
		for _, ref := range insertItems {
			item := out[ref.parent].Items[ref.item]
			valueType, value, err := encodeValue(item.Value)
			if err != nil {
				return nil, NewInsertionError(err)
			}
			args = append(args, item.ID, out[ref.parent].ID, ref.item, item.SchemaItem, valueType, value)
		}
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return nil, NewInsertionError(err)
		}
	}

	if len(updateItems) > 0 {
		stmt := `
			WITH mydata(id, registration, idx, schema_item, value_type, value) AS (VALUES ` +
			valuesClause(len(updateItems), 6) + `)
			UPDATE registration_items
			SET registration = mydata.registration,
			    idx = mydata.idx,
			    schema_item = mydata.schema_item,
			    value_type = mydata.value_type,
			    value = mydata.value
			FROM mydata
			WHERE registration_items.id = mydata.id
		`
		args := make([]any, 0, len(updateItems)*6)
		for _, ref := range updateItems {
			item := out[ref.parent].Items[ref.item]
			valueType, value, err := encodeValue(item.Value)
			if err != nil {
				return nil, NewUpdateError(err)
			}
			args = append(args, item.ID, out[ref.parent].ID, ref.item, item.SchemaItem, valueType, value)
		}
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return nil, NewUpdateError(err)
		}
	}

	// Whatever wasn't kept or inserted for a touched parent is removed.
	keptCounts := make([]int, len(out))
	for i := range out {
		keptCounts[i] = len(out[i].Items)
	}
	stmt := "DELETE FROM registration_items WHERE " + absenceClause("registration", keptCounts)
	args := make([]any, 0)
	for i := range out {
		args = append(args, out[i].ID)
		for j := range out[i].Items {
			args = append(args, out[i].Items[j].ID)
		}
	}
	if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
		return nil, NewDeleteError(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, NewTransactionCommitError(err)
	}

	return out, nil
}

// QueryRegistrations returns registrations matching the clause, or all
// rows when the clause is nil, with their items attached.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) QueryRegistrations(ctx context.Context, clause query.Clause) ([]model.Registration, error) {
	stmt := "SELECT id, event FROM registrations"
	var args []any
	if clause != nil {
		fragment, params, err := query.Compile(clause)
		if err != nil {
			return nil, NewFetchError(err)
		}
		stmt += " WHERE " + fragment
		args = params
	}

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, NewFetchError(err)
	}
	defer rows.Close()

	var regs []model.Registration
	for rows.Next() {
		var reg model.Registration
		if err := rows.Scan(&reg.ID, &reg.Event); err != nil {
			return nil, NewFetchError(err)
		}
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, NewFetchError(err)
	}

	if len(regs) == 0 {
		return []model.Registration{}, nil
	}

	items, err := s.fetchRegistrationItems(ctx, regs)
	if err != nil {
		return nil, err
	}

	for i := range regs {
		attached, ok := items[regs[i].ID]
		if !ok {
			attached = []model.RegistrationItem{}
		}
		regs[i].Items = attached
	}

	return regs, nil
}

// fetchRegistrationItems loads the items of every given registration in
// one query, keyed by registration id and ordered by position.
func (s *Store) fetchRegistrationItems(ctx context.Context, regs []model.Registration) (map[string][]model.RegistrationItem, error) {
	stmt := "SELECT id, registration, idx, schema_item, value_type, value FROM registration_items WHERE " +
		equalsAnyClause("registration", len(regs)) + " ORDER BY registration, idx"
	args := make([]any, 0, len(regs))
	for i := range regs {
		args = append(args, regs[i].ID)
	}

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, NewFetchError(err)
	}
	defer rows.Close()

	items := make(map[string][]model.RegistrationItem)
	for rows.Next() {
		var item model.RegistrationItem
		var registration, valueType, value string
		var idx int
		if err := rows.Scan(&item.ID, &registration, &idx, &item.SchemaItem, &valueType, &value); err != nil {
			return nil, NewFetchError(err)
		}
		if idx < 0 {
			return nil, NewColumnParseError("idx")
		}
		item.Value, err = decodeValue(valueType, value)
		if err != nil {
			return nil, err
		}
		items[registration] = append(items[registration], item)
	}
	if err := rows.Err(); err != nil {
		return nil, NewFetchError(err)
	}

	return items, nil
}

// DeleteRegistrations removes registrations by id after validating every
// id exists. Their items go with them. Empty input is a no-op success.
func (s *Store) DeleteRegistrations(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback() // No-op if committed

	if err := idsInTable(ctx, tx, "registrations", ids); err != nil {
		return err
	}

	stmt := "DELETE FROM registrations WHERE " + equalsAnyClause("id", len(ids))
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
		return NewDeleteError(err)
	}

	if err := tx.Commit(); err != nil {
		return NewTransactionCommitError(err)
	}

	return nil
}
