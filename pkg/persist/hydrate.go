package persist

import (
	"database/sql"
	"fmt"
	"reflect"
	"time"

	"github.com/mesh-intelligence/shelf/pkg/schema"
)

var timeType = reflect.TypeOf(time.Time{})

// timeLayouts are tried in order when a timestamp column arrives as text.
// RFC 3339 text is the storage convention on SQLite.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// bindValue converts an entity field value into its driver representation.
// Timestamps become RFC 3339 text on SQLite; everything else is handed to
// the driver as is.
func bindValue(dialect schema.Dialect, v any) any {
	switch t := v.(type) {
	case time.Time:
		if dialect == schema.DialectSQLite {
			return t.UTC().Format(time.RFC3339Nano)
		}
		return t
	case *time.Time:
		if t == nil {
			return nil
		}
		if dialect == schema.DialectSQLite {
			return t.UTC().Format(time.RFC3339Nano)
		}
		return *t
	}
	return v
}

// isNullValue reports whether a field value binds as SQL NULL.
func isNullValue(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	}
	return false
}

// hydrateRow materializes the current row of rows into a new entity value.
// Column order must match the table's declared columns.
func hydrateRow[T any](rows *sql.Rows, table *schema.Table) (*T, error) {
	cols := table.Columns()
	raws := make([]any, len(cols))
	holders := make([]any, len(cols))
	for i := range raws {
		holders[i] = &raws[i]
	}
	if err := rows.Scan(holders...); err != nil {
		return nil, fmt.Errorf("scanning %s row: %w", table.Name(), err)
	}

	entity := new(T)
	rv := reflect.ValueOf(entity).Elem()
	for i, col := range cols {
		if err := assignField(rv.Field(col.FieldIndex), raws[i]); err != nil {
			return nil, fmt.Errorf("hydrating %s.%s: %w", table.Name(), col.Name, err)
		}
	}
	return entity, nil
}

// assignField converts a raw driver value into the entity field.
func assignField(field reflect.Value, raw any) error {
	if raw == nil {
		field.Set(reflect.Zero(field.Type()))
		return nil
	}

	if field.Kind() == reflect.Pointer {
		elem := reflect.New(field.Type().Elem())
		if err := assignField(elem.Elem(), raw); err != nil {
			return err
		}
		field.Set(elem)
		return nil
	}

	if field.Type() == timeType {
		t, err := coerceTime(raw)
		if err != nil {
			return err
		}
		field.Set(reflect.ValueOf(t))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		switch v := raw.(type) {
		case string:
			field.SetString(v)
			return nil
		case []byte:
			field.SetString(string(v))
			return nil
		}
	case reflect.Bool:
		switch v := raw.(type) {
		case bool:
			field.SetBool(v)
			return nil
		case int64:
			field.SetBool(v != 0)
			return nil
		}
	}

	rv := reflect.ValueOf(raw)
	if rv.Type().ConvertibleTo(field.Type()) {
		field.Set(rv.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", raw, field.Type())
}

func coerceTime(raw any) (time.Time, error) {
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case string:
		return parseTime(v)
	case []byte:
		return parseTime(string(v))
	case int64:
		return time.Unix(v, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("cannot parse %T as time", raw)
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time value %q", s)
}
