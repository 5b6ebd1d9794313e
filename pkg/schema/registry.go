package schema

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// Registration errors.
var (
	ErrNotRegistered  = errors.New("entity type not registered")
	ErrNotStruct      = errors.New("entity type must be a struct")
	ErrNoColumns      = errors.New("entity type declares no mapped columns")
	ErrNoPrimaryKey   = errors.New("entity type declares no primary key")
	ErrInvalidTag     = errors.New("invalid db tag")
	ErrDuplicateTable = errors.New("entity type already registered")
)

var (
	regMu    sync.RWMutex
	registry = make(map[reflect.Type]*Table)
)

// Option adjusts how Register derives column metadata.
type Option func(*registerConfig)

type registerConfig struct {
	naming func(string) string
}

// WithNaming overrides the column naming strategy applied to fields whose
// tag does not name a column explicitly. The default is SnakeCase.
func WithNaming(fn func(string) string) Option {
	return func(c *registerConfig) { c.naming = fn }
}

// Register builds and caches the Table for entity type T. The `db` tag
// controls mapping:
//
//	ID    string `db:"user_id,pk,gen"`
//	Name  string `db:"name,notnull"`
//	Age   int    `db:"age,type=INTEGER,default=0"`
//	Memo  string `db:"-"`            // not persisted
//	Score int                        // column "score" via naming strategy
//
// Options: pk (primary key), auto (database-assigned integer key), gen
// (UUID filled on insert), notnull, type=SQLTYPE, default=EXPR.
// Re-registering a type under its existing table name is a no-op;
// re-registering under a different name returns ErrDuplicateTable.
func Register[T any](table string, opts ...Option) (*Table, error) {
	cfg := registerConfig{naming: SnakeCase}
	for _, o := range opts {
		o(&cfg)
	}

	var zero T
	typ := reflect.TypeOf(zero)
	if typ == nil || typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %v", ErrNotStruct, typ)
	}

	regMu.Lock()
	defer regMu.Unlock()

	if existing, ok := registry[typ]; ok {
		// Re-registering under the same table name is a no-op.
		if existing.name == table {
			return existing, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrDuplicateTable, typ)
	}

	t, err := buildTable(typ, table, cfg)
	if err != nil {
		return nil, err
	}
	registry[typ] = t
	return t, nil
}

// MustRegister is Register that panics on error, for package-level setup.
func MustRegister[T any](table string, opts ...Option) *Table {
	t, err := Register[T](table, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup returns the cached Table for entity type T.
func Lookup[T any]() (*Table, error) {
	var zero T
	return Of(zero)
}

// Of returns the cached Table for the dynamic type of v, dereferencing
// pointers. Returns ErrNotRegistered when the type was never registered.
func Of(v any) (*Table, error) {
	typ := reflect.TypeOf(v)
	for typ != nil && typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ == nil {
		return nil, ErrNotRegistered
	}
	regMu.RLock()
	defer regMu.RUnlock()
	if t, ok := registry[typ]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotRegistered, typ)
}

func buildTable(typ reflect.Type, table string, cfg registerConfig) (*Table, error) {
	if table == "" {
		return nil, fmt.Errorf("%w: empty table name for %s", ErrInvalidTag, typ)
	}

	t := &Table{
		name:   table,
		goType: typ,
		byName: make(map[string]int),
	}

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if field.PkgPath != "" || field.Anonymous {
			continue
		}
		tag := field.Tag.Get("db")
		if tag == "-" {
			continue
		}

		col, err := parseColumn(field, i, tag, cfg)
		if err != nil {
			return nil, err
		}
		if t.HasColumn(col.Name) {
			return nil, fmt.Errorf("%w: duplicate column %q on %s", ErrInvalidTag, col.Name, typ)
		}
		t.byName[col.Name] = len(t.columns)
		t.columns = append(t.columns, col)
		if col.PrimaryKey {
			t.pks = append(t.pks, col)
		}
	}

	if len(t.columns) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoColumns, typ)
	}
	if len(t.pks) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPrimaryKey, typ)
	}
	return t, nil
}

func parseColumn(field reflect.StructField, index int, tag string, cfg registerConfig) (Column, error) {
	col := Column{
		FieldIndex: index,
		FieldName:  field.Name,
		GoType:     field.Type,
	}

	parts := strings.Split(tag, ",")
	if len(parts) > 0 && parts[0] != "" {
		col.Name = parts[0]
	} else {
		col.Name = cfg.naming(field.Name)
	}

	for _, opt := range parts[1:] {
		switch {
		case opt == "pk":
			col.PrimaryKey = true
			col.NotNull = true
		case opt == "auto":
			col.AutoIncrement = true
		case opt == "gen":
			col.Generated = true
		case opt == "notnull":
			col.NotNull = true
		case strings.HasPrefix(opt, "type="):
			col.SQLType = strings.TrimPrefix(opt, "type=")
		case strings.HasPrefix(opt, "default="):
			col.Default = strings.TrimPrefix(opt, "default=")
		case opt == "":
			// trailing comma, ignore
		default:
			return Column{}, fmt.Errorf("%w: option %q on field %s", ErrInvalidTag, opt, field.Name)
		}
	}

	if col.AutoIncrement {
		switch field.Type.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		default:
			return Column{}, fmt.Errorf("%w: auto column %q requires an integer field", ErrInvalidTag, col.Name)
		}
	}
	if col.Generated && field.Type.Kind() != reflect.String {
		return Column{}, fmt.Errorf("%w: gen column %q requires a string field", ErrInvalidTag, col.Name)
	}
	if col.AutoIncrement && col.Generated {
		return Column{}, fmt.Errorf("%w: column %q cannot be both auto and gen", ErrInvalidTag, col.Name)
	}
	return col, nil
}

// resetRegistry clears the cache. Test helper only.
func resetRegistry() {
	regMu.Lock()
	defer regMu.Unlock()
	registry = make(map[reflect.Type]*Table)
}
