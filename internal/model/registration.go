package model

// Registration is one submitted registration for an event. Items answer the
// event's schema items and keep their submission order.
type Registration struct {
	ID    string
	Event string
	Items []RegistrationItem
}

// RegistrationItem is one answer within a registration.
type RegistrationItem struct {
	ID         string
	SchemaItem string
	Value      RegistrationValue
}

// RegistrationValue is the typed answer carried by a registration item.
//
// This is a sealed interface - only types in this package implement it.
//
// Value kinds:
//   - StringValue: free text
//   - BooleanValue: checkbox answer
//   - UnsignedNumberValue: select answer (option index)
//   - RepeatedUnsignedNumberValue: multi-select answer (option indexes)
//
// The closed set matters: a stored row whose value kind is not one of these
// is surfaced as a column parse error, never silently coerced.
type RegistrationValue interface {
	registrationValue() // Marker method - seals interface to this package
}

// StringValue is a free-text answer.
type StringValue string

func (StringValue) registrationValue() {}

// BooleanValue is a checkbox answer.
type BooleanValue bool

func (BooleanValue) registrationValue() {}

// UnsignedNumberValue is a single option index.
type UnsignedNumberValue uint32

func (UnsignedNumberValue) registrationValue() {}

// RepeatedUnsignedNumberValue is an ordered list of option indexes.
type RepeatedUnsignedNumberValue []uint32

func (RepeatedUnsignedNumberValue) registrationValue() {}
