// Package query defines the value objects a caller hands to the persistence
// engine: Specification (a composable predicate tree describing a WHERE
// condition), Sortable (ordering directives), Pageable (pagination
// directives), and FindOption flags controlling list-query behavior.
//
// All types here are pure builders: they mutate only their own internal
// state, perform no I/O, and are translated into SQL by the engine.
package query
