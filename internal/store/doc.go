// Package store provides SQLite-backed durable storage for the registration
// platform: organizations, events, registration schemas, submitted
// registrations, users, permissions, and signing keys.
//
// Every entity follows the same upsert contract:
//   - An empty id means insert; the store generates the id.
//   - A non-empty id means update and must name an existing row, checked
//     up front for the whole batch with one anti-join query.
//   - Parents owning an ordered child collection (registration items,
//     schema items, select options) are reconciled: the submitted
//     collection is the complete desired set, and previously stored
//     children missing from it are deleted.
//   - Output order mirrors input order, so callers can zip requests to
//     results positionally.
//
// Multi-statement operations run inside a single transaction; any
// validation or write failure rolls the whole batch back. Failures
// surface as *Error values carrying a code from the fixed taxonomy
// (id-does-not-exist, column-parse, and the wrapped statement failures).
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
//
// Row ids come from the injected IDGenerator; production uses UUIDv7 so
// ids sort by creation time.
package store
