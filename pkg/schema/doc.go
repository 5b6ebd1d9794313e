// Package schema maps entity struct types to table metadata. A type is
// registered once with its table name; column definitions are read from
// `db` struct tags, cached per type for the lifetime of the process, and
// never mutated afterward. The persistence engine and the query builder
// consume the cached Table to decide which fields are persisted, which
// columns form the primary key, and how generated values are produced.
package schema
