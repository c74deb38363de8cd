package model

// RegistrationSchema is the registrant-facing form definition for one
// event. Schemas are keyed 1:1 by event id; the event id is the schema's
// identity.
type RegistrationSchema struct {
	Event string
	Items []SchemaItem
}

// SchemaItem is one field of a registration form. Exactly one typed
// definition applies, selected by Type.
type SchemaItem struct {
	ID   string
	Name string
	Type ItemType
}

// ItemType is the typed field definition carried by a schema item.
//
// This is a sealed interface - only types in this package implement it.
//
// Item types:
//   - TextType: free-text input
//   - CheckboxType: single checkbox
//   - SelectType: pick one option
//   - MultiSelectType: pick any number of options
type ItemType interface {
	schemaItemType() // Marker method - seals interface to this package
}

// TextType is a free-text input with a default value and a display size.
type TextType struct {
	Default string
	Display TextDisplay
}

func (TextType) schemaItemType() {}

// CheckboxType is a single checkbox with a default state.
type CheckboxType struct {
	Default bool
}

func (CheckboxType) schemaItemType() {}

// SelectType is a pick-one field. Default is an index into Options.
type SelectType struct {
	Default uint32
	Display SelectDisplay
	Options []SelectOption
}

func (SelectType) schemaItemType() {}

// MultiSelectType is a pick-many field. Defaults are indexes into Options.
type MultiSelectType struct {
	Defaults []uint32
	Display  MultiSelectDisplay
	Options  []SelectOption
}

func (MultiSelectType) schemaItemType() {}

// SelectOption is one choice in a select or multi-select field. ProductID
// links the option to an external product catalog entry.
type SelectOption struct {
	ID        string
	Name      string
	ProductID string
}

// TextDisplay selects the rendered input size for a text field.
type TextDisplay string

const (
	TextDisplaySmall TextDisplay = "SMALL"
	TextDisplayLarge TextDisplay = "LARGE"
)

// SelectDisplay selects how a pick-one field renders.
type SelectDisplay string

const (
	SelectDisplayRadio    SelectDisplay = "RADIO"
	SelectDisplayDropdown SelectDisplay = "DROPDOWN"
)

// MultiSelectDisplay selects how a pick-many field renders.
type MultiSelectDisplay string

const (
	MultiSelectDisplayCheckboxes MultiSelectDisplay = "CHECKBOXES"
	MultiSelectDisplayBox        MultiSelectDisplay = "MULTISELECT_BOX"
)

// ValidTextDisplay reports whether s names a known text display style.
func ValidTextDisplay(s string) bool {
	switch TextDisplay(s) {
	case TextDisplaySmall, TextDisplayLarge:
		return true
	}
	return false
}

// ValidSelectDisplay reports whether s names a known select display style.
func ValidSelectDisplay(s string) bool {
	switch SelectDisplay(s) {
	case SelectDisplayRadio, SelectDisplayDropdown:
		return true
	}
	return false
}

// ValidMultiSelectDisplay reports whether s names a known multi-select
// display style.
func ValidMultiSelectDisplay(s string) bool {
	switch MultiSelectDisplay(s) {
	case MultiSelectDisplayCheckboxes, MultiSelectDisplayBox:
		return true
	}
	return false
}
