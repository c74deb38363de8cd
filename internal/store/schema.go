package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/rollcall/internal/model"
	"github.com/roach88/rollcall/internal/query"
)

// SchemaEventEquals filters registration schemas by event.
func SchemaEventEquals(eventID string) query.Clause {
	return query.Equals{Column: "event", Value: eventID}
}

// SchemaEventNotEquals filters registration schemas excluding one event.
func SchemaEventNotEquals(eventID string) query.Clause {
	return query.NotEquals{Column: "event", Value: eventID}
}

// Stored item_type column values.
const (
	itemTypeText        = "TextType"
	itemTypeCheckbox    = "CheckboxType"
	itemTypeSelect      = "SelectType"
	itemTypeMultiSelect = "MultiSelectType"
)

// appendSchemaItemArgs appends the twelve bound columns of one schema item
// row: id, event, idx, name, item_type, then the per-type columns with
// NULL for every column not matching the item's type.
func appendSchemaItemArgs(args []any, eventID string, idx int, item model.SchemaItem) ([]any, error) {
	args = append(args, item.ID, eventID, idx, item.Name)

	switch t := item.Type.(type) {
	case model.TextType:
		args = append(args, itemTypeText,
			t.Default, string(t.Display), nil, nil, nil, nil, nil)
	case model.CheckboxType:
		args = append(args, itemTypeCheckbox,
			nil, nil, t.Default, nil, nil, nil, nil)
	case model.SelectType:
		args = append(args, itemTypeSelect,
			nil, nil, nil, int64(t.Default), string(t.Display), nil, nil)
	case model.MultiSelectType:
		parts := make([]string, 0, len(t.Defaults))
		for _, n := range t.Defaults {
			parts = append(parts, strconv.FormatUint(uint64(n), 10))
		}
		args = append(args, itemTypeMultiSelect,
			nil, nil, nil, nil, nil, strings.Join(parts, ","), string(t.Display))
	default:
		return nil, fmt.Errorf("unsupported schema item type: %T", item.Type)
	}

	return args, nil
}

// itemOptions returns the option collection carried by an item's type, or
// nil for types without one.
func itemOptions(item model.SchemaItem) []model.SelectOption {
	switch t := item.Type.(type) {
	case model.SelectType:
		return t.Options
	case model.MultiSelectType:
		return t.Options
	}
	return nil
}

// setItemOptions rebuilds the item's type value with the given option
// collection. Types without options are returned unchanged.
func setItemOptions(item model.SchemaItem, options []model.SelectOption) model.SchemaItem {
	switch t := item.Type.(type) {
	case model.SelectType:
		t.Options = options
		item.Type = t
	case model.MultiSelectType:
		t.Options = options
		item.Type = t
	}
	return item
}

// UpsertRegistrationSchemas reconciles event registration forms against
// the store, in one transaction. Schemas key 1:1 by event id: submitting a
// schema for an event that already has one updates it in place.
//
// Every event id must exist. Items partition on empty id into inserts and
// updates; update ids must exist. Options of inserted items are always
// inserts; options of updated items partition on their own ids. Each
// schema's item collection, and each item's option collection, is the
// complete desired set: stored rows omitted from it are deleted. A schema
// submitted with no items removes every stored item for its event.
//
// Returned schemas keep submission order with generated ids filled in.
func (s *Store) UpsertRegistrationSchemas(ctx context.Context, schemas []model.RegistrationSchema) ([]model.RegistrationSchema, error) {
	if len(schemas) == 0 {
		return []model.RegistrationSchema{}, nil
	}

	// Deep-copy items and their option slices so filling in generated ids
	// never mutates the caller's values. optionsOf aliases each cloned
	// option slice for direct mutation; the clone is shared with the
	// rebuilt item type.
	out := make([]model.RegistrationSchema, len(schemas))
	optionsOf := make([][][]model.SelectOption, len(schemas))
	for i, schema := range schemas {
		out[i] = schema
		out[i].Items = make([]model.SchemaItem, len(schema.Items))
		copy(out[i].Items, schema.Items)
		optionsOf[i] = make([][]model.SelectOption, len(schema.Items))
		for j, item := range out[i].Items {
			if options := itemOptions(item); options != nil {
				cloned := make([]model.SelectOption, len(options))
				copy(cloned, options)
				out[i].Items[j] = setItemOptions(item, cloned)
				optionsOf[i][j] = cloned
			}
		}
	}

	var insertItems, updateItems []itemRef
	for i := range out {
		for j := range out[i].Items {
			if out[i].Items[j].ID == "" {
				insertItems = append(insertItems, itemRef{parent: i, item: j})
			} else {
				updateItems = append(updateItems, itemRef{parent: i, item: j})
			}
		}
	}

	// optionRef addresses one option by its item and position.
	type optionRef struct {
		parent, item, option int
	}
	var insertOptions, updateOptions []optionRef
	for i := range out {
		for j := range out[i].Items {
			itemIsInsert := out[i].Items[j].ID == ""
			for k := range optionsOf[i][j] {
				if itemIsInsert || optionsOf[i][j][k].ID == "" {
					insertOptions = append(insertOptions, optionRef{parent: i, item: j, option: k})
				} else {
					updateOptions = append(updateOptions, optionRef{parent: i, item: j, option: k})
				}
			}
		}
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

	if len(updateItems) > 0 {
		itemIDs := make([]string, 0, len(updateItems))
		for _, ref := range updateItems {
			itemIDs = append(itemIDs, out[ref.parent].Items[ref.item].ID)
		}
		if err := idsInTable(ctx, tx, "registration_schema_items", itemIDs); err != nil {
			return nil, err
		}
	}

	if len(updateOptions) > 0 {
		optionIDs := make([]string, 0, len(updateOptions))
		for _, ref := range updateOptions {
			optionIDs = append(optionIDs, optionsOf[ref.parent][ref.item][ref.option].ID)
		}
		if err := idsInTable(ctx, tx, "registration_schema_select_options", optionIDs); err != nil {
			return nil, err
		}
	}

	// Item ids first, then option ids in submission order.
	for _, ref := range insertItems {
		out[ref.parent].Items[ref.item].ID = s.ids.Generate()
	}
	for _, ref := range insertOptions {
		optionsOf[ref.parent][ref.item][ref.option].ID = s.ids.Generate()
	}

	const itemColumns = `
		id,
		event,
		idx,
		name,
		item_type,
		text_type_default,
		text_type_display,
		checkbox_type_default,
		select_type_default,
		select_type_display,
		multi_select_type_defaults,
		multi_select_type_display`

	if len(insertItems) > 0 {
		stmt := "INSERT INTO registration_schema_items(" + itemColumns + "\n\t) VALUES " +
			valuesClause(len(insertItems), 12)
		args := make([]any, 0, len(insertItems)*12)
		for _, ref := range insertItems {
			args, err = appendSchemaItemArgs(args, out[ref.parent].Event, ref.item, out[ref.parent].Items[ref.item])
			if err != nil {
				return nil, NewInsertionError(err)
			}
		}
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return nil, NewInsertionError(err)
		}
	}

	if len(updateItems) > 0 {
		stmt := `
			WITH mydata(` + itemColumns + `
			) AS (VALUES ` + valuesClause(len(updateItems), 12) + `)
			UPDATE registration_schema_items
			SET event = mydata.event,
			    idx = mydata.idx,
			    name = mydata.name,
			    item_type = mydata.item_type,
			    text_type_default = mydata.text_type_default,
			    text_type_display = mydata.text_type_display,
			    checkbox_type_default = mydata.checkbox_type_default,
			    select_type_default = mydata.select_type_default,
			    select_type_display = mydata.select_type_display,
			    multi_select_type_defaults = mydata.multi_select_type_defaults,
			    multi_select_type_display = mydata.multi_select_type_display
			FROM mydata
			WHERE registration_schema_items.id = mydata.id
		`
		args := make([]any, 0, len(updateItems)*12)
		for _, ref := range updateItems {
			args, err = appendSchemaItemArgs(args, out[ref.parent].Event, ref.item, out[ref.parent].Items[ref.item])
			if err != nil {
				return nil, NewUpdateError(err)
			}
		}
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return nil, NewUpdateError(err)
		}
	}

	if len(insertOptions) > 0 {
		stmt := "INSERT INTO registration_schema_select_options(id, schema_item, idx, name, product_id) VALUES " +
			valuesClause(len(insertOptions), 5)
		args := make([]any, 0, len(insertOptions)*5)
		for _, ref := range insertOptions {
			option := optionsOf[ref.parent][ref.item][ref.option]
			args = append(args, option.ID, out[ref.parent].Items[ref.item].ID, ref.option, option.Name, option.ProductID)
		}
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return nil, NewInsertionError(err)
		}
	}

	if len(updateOptions) > 0 {
		stmt := `
			WITH mydata(id, schema_item, idx, name, product_id) AS (VALUES ` +
			valuesClause(len(updateOptions), 5) + `)
			UPDATE registration_schema_select_options
			SET schema_item = mydata.schema_item,
			    idx = mydata.idx,
			    name = mydata.name,
			    product_id = mydata.product_id
			FROM mydata
			WHERE registration_schema_select_options.id = mydata.id
		`
		args := make([]any, 0, len(updateOptions)*5)
		for _, ref := range updateOptions {
			option := optionsOf[ref.parent][ref.item][ref.option]
			args = append(args, option.ID, out[ref.parent].Items[ref.item].ID, ref.option, option.Name, option.ProductID)
		}
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return nil, NewUpdateError(err)
		}
	}

	// Stored items omitted from a submitted schema are removed; their
	// options go with them via the cascading reference. Options omitted
	// from a kept item are removed here, including every option of an
	// item whose type no longer carries any.
	keptItemCounts := make([]int, len(out))
	for i := range out {
		keptItemCounts[i] = len(out[i].Items)
	}
	stmt := "DELETE FROM registration_schema_items WHERE " + absenceClause("event", keptItemCounts)
	args := make([]any, 0)
	for i := range out {
		args = append(args, out[i].Event)
		for j := range out[i].Items {
			args = append(args, out[i].Items[j].ID)
		}
	}
	if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
		return nil, NewDeleteError(err)
	}

	var keptOptionCounts []int
	optionArgs := make([]any, 0)
	for i := range out {
		for j := range out[i].Items {
			keptOptionCounts = append(keptOptionCounts, len(optionsOf[i][j]))
			optionArgs = append(optionArgs, out[i].Items[j].ID)
			for k := range optionsOf[i][j] {
				optionArgs = append(optionArgs, optionsOf[i][j][k].ID)
			}
		}
	}
	if len(keptOptionCounts) > 0 {
		stmt := "DELETE FROM registration_schema_select_options WHERE " + absenceClause("schema_item", keptOptionCounts)
		if _, err := tx.ExecContext(ctx, stmt, optionArgs...); err != nil {
			return nil, NewDeleteError(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, NewTransactionCommitError(err)
	}

	return out, nil
}

// QueryRegistrationSchemas returns schemas matching the clause, or every
// stored schema when the clause is nil. Items come back ordered by their
// persisted position with options attached the same way. An event with no
// stored items has no schema.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) QueryRegistrationSchemas(ctx context.Context, clause query.Clause) ([]model.RegistrationSchema, error) {
	stmt := `
		SELECT ` + schemaItemSelectColumns + `
		FROM registration_schema_items`
	var args []any
	if clause != nil {
		fragment, params, err := query.Compile(clause)
		if err != nil {
			return nil, NewFetchError(err)
		}
		stmt += " WHERE " + fragment
		args = params
	}
	stmt += " ORDER BY event, idx"

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, NewFetchError(err)
	}
	defer rows.Close()

	var schemas []model.RegistrationSchema
	var withOptions []string
	for rows.Next() {
		event, item, err := scanSchemaItem(rows)
		if err != nil {
			return nil, err
		}
		if len(schemas) == 0 || schemas[len(schemas)-1].Event != event {
			schemas = append(schemas, model.RegistrationSchema{Event: event})
		}
		last := len(schemas) - 1
		schemas[last].Items = append(schemas[last].Items, item)

		switch item.Type.(type) {
		case model.SelectType, model.MultiSelectType:
			withOptions = append(withOptions, item.ID)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, NewFetchError(err)
	}

	if len(schemas) == 0 {
		return []model.RegistrationSchema{}, nil
	}

	options := make(map[string][]model.SelectOption)
	if len(withOptions) > 0 {
		options, err = s.fetchSelectOptions(ctx, withOptions)
		if err != nil {
			return nil, err
		}
	}

	for i := range schemas {
		for j, item := range schemas[i].Items {
			switch item.Type.(type) {
			case model.SelectType, model.MultiSelectType:
				attached, ok := options[item.ID]
				if !ok {
					attached = []model.SelectOption{}
				}
				schemas[i].Items[j] = setItemOptions(item, attached)
			}
		}
	}

	return schemas, nil
}

const schemaItemSelectColumns = `id,
		event,
		idx,
		name,
		item_type,
		text_type_default,
		text_type_display,
		checkbox_type_default,
		select_type_default,
		select_type_display,
		multi_select_type_defaults,
		multi_select_type_display`

// scanSchemaItem reads one schema item row and rebuilds its typed field
// definition. A NULL column required by the row's item_type, an
// unrecognized type or display name, or an undecodable default is a
// column parse error.
func scanSchemaItem(rows *sql.Rows) (event string, item model.SchemaItem, err error) {
	var idx int
	var itemType string
	var textDefault, textDisplay sql.NullString
	var checkboxDefault, selectDefault sql.NullInt64
	var selectDisplay, multiDefaults, multiDisplay sql.NullString

	if err := rows.Scan(
		&item.ID, &event, &idx, &item.Name, &itemType,
		&textDefault, &textDisplay,
		&checkboxDefault,
		&selectDefault, &selectDisplay,
		&multiDefaults, &multiDisplay,
	); err != nil {
		return "", model.SchemaItem{}, NewFetchError(err)
	}
	if idx < 0 {
		return "", model.SchemaItem{}, NewColumnParseError("idx")
	}

	switch itemType {
	case itemTypeText:
		if !textDefault.Valid {
			return "", model.SchemaItem{}, NewColumnParseError("text_type_default")
		}
		if !textDisplay.Valid || !model.ValidTextDisplay(textDisplay.String) {
			return "", model.SchemaItem{}, NewColumnParseError("text_type_display")
		}
		item.Type = model.TextType{
			Default: textDefault.String,
			Display: model.TextDisplay(textDisplay.String),
		}

	case itemTypeCheckbox:
		if !checkboxDefault.Valid {
			return "", model.SchemaItem{}, NewColumnParseError("checkbox_type_default")
		}
		item.Type = model.CheckboxType{Default: checkboxDefault.Int64 != 0}

	case itemTypeSelect:
		if !selectDefault.Valid || selectDefault.Int64 < 0 {
			return "", model.SchemaItem{}, NewColumnParseError("select_type_default")
		}
		if !selectDisplay.Valid || !model.ValidSelectDisplay(selectDisplay.String) {
			return "", model.SchemaItem{}, NewColumnParseError("select_type_display")
		}
		item.Type = model.SelectType{
			Default: uint32(selectDefault.Int64),
			Display: model.SelectDisplay(selectDisplay.String),
		}

	case itemTypeMultiSelect:
		if !multiDefaults.Valid {
			return "", model.SchemaItem{}, NewColumnParseError("multi_select_type_defaults")
		}
		var defaults []uint32
		if multiDefaults.String != "" {
			parts := strings.Split(multiDefaults.String, ",")
			defaults = make([]uint32, 0, len(parts))
			for _, part := range parts {
				n, err := strconv.ParseUint(part, 10, 32)
				if err != nil {
					return "", model.SchemaItem{}, NewColumnParseError("multi_select_type_defaults")
				}
				defaults = append(defaults, uint32(n))
			}
		}
		if !multiDisplay.Valid || !model.ValidMultiSelectDisplay(multiDisplay.String) {
			return "", model.SchemaItem{}, NewColumnParseError("multi_select_type_display")
		}
		item.Type = model.MultiSelectType{
			Defaults: defaults,
			Display:  model.MultiSelectDisplay(multiDisplay.String),
		}

	default:
		return "", model.SchemaItem{}, NewColumnParseError("item_type")
	}

	return event, item, nil
}

// fetchSelectOptions loads the options of the given schema items in one
// query, keyed by item id and ordered by persisted position.
func (s *Store) fetchSelectOptions(ctx context.Context, itemIDs []string) (map[string][]model.SelectOption, error) {
	stmt := "SELECT id, schema_item, idx, name, product_id FROM registration_schema_select_options WHERE " +
		equalsAnyClause("schema_item", len(itemIDs)) + " ORDER BY schema_item, idx"
	args := make([]any, 0, len(itemIDs))
	for _, id := range itemIDs {
		args = append(args, id)
	}

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, NewFetchError(err)
	}
	defer rows.Close()

	options := make(map[string][]model.SelectOption)
	for rows.Next() {
		var option model.SelectOption
		var schemaItem string
		var idx int
		if err := rows.Scan(&option.ID, &schemaItem, &idx, &option.Name, &option.ProductID); err != nil {
			return nil, NewFetchError(err)
		}
		if idx < 0 {
			return nil, NewColumnParseError("idx")
		}
		options[schemaItem] = append(options[schemaItem], option)
	}
	if err := rows.Err(); err != nil {
		return nil, NewFetchError(err)
	}

	return options, nil
}

// DeleteRegistrationSchemas removes the schemas of the given events after
// validating every event id exists. Events without a stored schema pass
// through as no-ops. Empty input is a no-op success.
func (s *Store) DeleteRegistrationSchemas(ctx context.Context, eventIDs []string) error {
	if len(eventIDs) == 0 {
		return nil
	}

	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback() // No-op if committed

	if err := idsInTable(ctx, tx, "events", eventIDs); err != nil {
		return err
	}

	stmt := "DELETE FROM registration_schema_items WHERE " + equalsAnyClause("event", len(eventIDs))
	args := make([]any, 0, len(eventIDs))
	for _, id := range eventIDs {
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
