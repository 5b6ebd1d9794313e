package schema

import "reflect"

// Column describes one mapped struct field.
type Column struct {
	Name          string       // database column name
	FieldIndex    int          // index of the struct field
	FieldName     string       // Go field name
	GoType        reflect.Type // declared field type
	SQLType       string       // declared SQL type, empty when inferred
	NotNull       bool         // NOT NULL constraint
	PrimaryKey    bool         // part of the primary key
	AutoIncrement bool         // integer key assigned by the database
	Generated     bool         // string key filled with a UUID on insert
	Default       string       // DDL default expression, empty when none
}

// Table is the cached mapping between an entity type and its table:
// ordered column definitions plus the primary key subset. Immutable after
// construction.
type Table struct {
	name    string
	goType  reflect.Type
	columns []Column
	pks     []Column
	byName  map[string]int
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// GoType returns the registered entity struct type.
func (t *Table) GoType() reflect.Type { return t.goType }

// Columns returns the column definitions in declaration order.
func (t *Table) Columns() []Column {
	out := make([]Column, len(t.columns))
	copy(out, t.columns)
	return out
}

// ColumnNames returns the column names in declaration order.
func (t *Table) ColumnNames() []string {
	out := make([]string, len(t.columns))
	for i, c := range t.columns {
		out[i] = c.Name
	}
	return out
}

// Column looks up a column by database name.
func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.byName[name]
	if !ok {
		return Column{}, false
	}
	return t.columns[i], true
}

// HasColumn reports whether name is a mapped column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.byName[name]
	return ok
}

// PrimaryKeys returns the primary-key columns in declaration order.
func (t *Table) PrimaryKeys() []Column {
	out := make([]Column, len(t.pks))
	copy(out, t.pks)
	return out
}
