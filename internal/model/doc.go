// Package model defines the domain types persisted by the store layer:
// organizations, their events, registration form schemas, submitted
// registrations, users, permissions, and signing keys.
//
// Closed variant sets (registration values, schema item types, password
// states, permission roles) are sealed interfaces: a private marker method
// keeps every implementation in this package so type switches stay
// exhaustive.
//
// The empty string is never a valid persisted id. Stores treat an empty id
// as "not yet persisted" and assign one on insert.
package model
