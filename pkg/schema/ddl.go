package schema

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

// CreateTableSQL emits a CREATE TABLE statement for the registered table.
// Declared type= options win; otherwise the SQL type is inferred from the
// Go field type. Intended for test fixtures and bootstrap tooling, not for
// schema migration.
func CreateTableSQL(t *Table, dialect Dialect) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", quoteIdent(t.Name(), dialect))

	pks := t.PrimaryKeys()
	singleAutoPK := len(pks) == 1 && pks[0].AutoIncrement

	for i, col := range t.columns {
		if i > 0 {
			b.WriteString(",\n")
		}
		fmt.Fprintf(&b, "    %s %s", quoteIdent(col.Name, dialect), sqlType(col, dialect))
		if singleAutoPK && col.PrimaryKey {
			b.WriteString(" PRIMARY KEY")
			if dialect == DialectSQLite {
				b.WriteString(" AUTOINCREMENT")
			} else if dialect == DialectMySQL {
				b.WriteString(" AUTO_INCREMENT")
			}
			continue
		}
		if col.NotNull {
			b.WriteString(" NOT NULL")
		}
		if col.Default != "" {
			fmt.Fprintf(&b, " DEFAULT %s", col.Default)
		}
	}

	if !singleAutoPK {
		names := make([]string, len(pks))
		for i, col := range pks {
			names[i] = quoteIdent(col.Name, dialect)
		}
		fmt.Fprintf(&b, ",\n    PRIMARY KEY (%s)", strings.Join(names, ", "))
	}

	b.WriteString("\n);")
	return b.String()
}

func quoteIdent(name string, dialect Dialect) string {
	if dialect == DialectMySQL {
		return "`" + name + "`"
	}
	return `"` + name + `"`
}

var timeType = reflect.TypeOf(time.Time{})

func sqlType(col Column, dialect Dialect) string {
	if col.SQLType != "" {
		return col.SQLType
	}

	typ := col.GoType
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ == timeType {
		// Timestamps are stored as RFC 3339 text on SQLite.
		if dialect == DialectSQLite {
			return "TEXT"
		}
		return "TIMESTAMP"
	}

	switch typ.Kind() {
	case reflect.Bool:
		if dialect == DialectSQLite {
			return "INTEGER"
		}
		return "BOOLEAN"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if col.AutoIncrement && dialect == DialectPostgres {
			return "BIGSERIAL"
		}
		if dialect == DialectSQLite {
			return "INTEGER"
		}
		return "BIGINT"
	case reflect.Float32, reflect.Float64:
		if dialect == DialectPostgres {
			return "DOUBLE PRECISION"
		}
		return "REAL"
	case reflect.Slice:
		if typ.Elem().Kind() == reflect.Uint8 {
			if dialect == DialectPostgres {
				return "BYTEA"
			}
			return "BLOB"
		}
	}
	return "TEXT"
}
