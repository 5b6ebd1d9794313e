// Package persist executes CRUD and list queries for registered entity
// types. A Connection wraps a database/sql handle with a dialect tag,
// transaction control, and a count strategy; a Repository[T] turns
// specifications, sort and pagination directives into statements, executes
// them synchronously, and hydrates result rows back into entity values.
//
// Every operation performs one blocking round trip and propagates failures
// as typed errors; nothing is retried internally. The single exception is
// Save, which falls back from update to insert when no row matched. The
// engine is not safe for concurrent use of one entity value; the Connection
// itself may be shared across repositories.
package persist
