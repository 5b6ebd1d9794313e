package schema

import "errors"

// Dialect identifies the target database family. It only affects syntax
// emission (placeholder style, quoting, DDL types); all predicate and
// ordering logic upstream of SQL text is dialect-independent.
type Dialect string

// Supported dialects.
const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
)

// ErrDialectUnknown reports an unrecognized dialect name.
var ErrDialectUnknown = errors.New("unknown dialect")

// knownDialects lists the dialects ParseDialect accepts.
var knownDialects = map[Dialect]bool{
	DialectSQLite:   true,
	DialectPostgres: true,
	DialectMySQL:    true,
}

// ParseDialect validates a dialect name from configuration.
func ParseDialect(name string) (Dialect, error) {
	d := Dialect(name)
	if !knownDialects[d] {
		return "", ErrDialectUnknown
	}
	return d, nil
}
