package persist

import (
	"database/sql"
	"reflect"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/shelf/internal/sqlbuild"
	"github.com/mesh-intelligence/shelf/pkg/query"
	"github.com/mesh-intelligence/shelf/pkg/schema"
)

// Repository is the persistence engine for one registered entity type.
// It builds statements from the cached table metadata and the caller's
// query directives, executes them on its Connection, and hydrates result
// rows into new entity values.
type Repository[T any] struct {
	conn    *Connection
	table   *schema.Table
	builder *sqlbuild.Builder
}

// NewRepository returns a Repository bound to conn. The entity type must
// have been registered with the schema package first.
func NewRepository[T any](conn *Connection) (*Repository[T], error) {
	if conn == nil {
		return nil, ErrNoConnection
	}
	table, err := schema.Lookup[T]()
	if err != nil {
		return nil, err
	}
	return &Repository[T]{
		conn:    conn,
		table:   table,
		builder: sqlbuild.New(conn.Dialect()),
	}, nil
}

// Table returns the cached table metadata for the entity type.
func (r *Repository[T]) Table() *schema.Table { return r.table }

// Connection returns the connection the repository executes on.
func (r *Repository[T]) Connection() *Connection { return r.conn }

// Insert writes the entity as a new row. Columns bound to nil field values
// are omitted unless includeNull is set, in which case every mapped column
// is written with an explicit NULL for unset fields. Generated string keys
// are filled with a UUID before the write; database-assigned integer keys
// are backfilled from the statement result where the dialect reports them.
func (r *Repository[T]) Insert(entity *T, includeNull bool) (sql.Result, error) {
	const op = "Repository.Insert"
	if !r.conn.Open() {
		return nil, ErrNoConnection
	}

	r.fillGeneratedKeys(entity)
	values := r.columnValues(entity, includeNull, false)

	sqlText, args, err := r.builder.Insert(r.table, values)
	if err != nil {
		return nil, err
	}
	res, err := r.conn.Exec(sqlText, args...)
	if err != nil {
		return nil, queryErr(op, sqlText, err)
	}
	r.backfillAutoKey(entity, res)
	return res, nil
}

// Update rewrites the row identified by the entity's primary key. Requires
// the key value(s) set; the includeNull contract matches Insert.
func (r *Repository[T]) Update(entity *T, includeNull bool) (sql.Result, error) {
	const op = "Repository.Update"
	if !r.conn.Open() {
		return nil, ErrNoConnection
	}
	keys, set := r.keyValues(entity)
	if !set {
		return nil, ErrMissingPrimaryKey
	}

	values := r.updateValues(entity, includeNull)
	sqlText, args, err := r.builder.Update(r.table, values, keys)
	if err != nil {
		return nil, err
	}
	res, err := r.conn.Exec(sqlText, args...)
	if err != nil {
		return nil, queryErr(op, sqlText, err)
	}
	return res, nil
}

// Save upserts the entity: update by primary key first, falling back to
// insert when the key is unset or no row matched. The fallback is the only
// two-step policy in the engine.
func (r *Repository[T]) Save(entity *T, includeNull bool) (sql.Result, error) {
	if !r.conn.Open() {
		return nil, ErrNoConnection
	}
	if _, set := r.keyValues(entity); !set {
		return r.Insert(entity, includeNull)
	}
	res, err := r.Update(entity, includeNull)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return r.Insert(entity, includeNull)
	}
	return res, nil
}

// Delete removes the row identified by the entity's primary key.
func (r *Repository[T]) Delete(entity *T) (sql.Result, error) {
	const op = "Repository.Delete"
	if !r.conn.Open() {
		return nil, ErrNoConnection
	}
	keys, set := r.keyValues(entity)
	if !set {
		return nil, ErrMissingPrimaryKey
	}
	sqlText, args, err := r.builder.Delete(r.table, keys)
	if err != nil {
		return nil, err
	}
	res, err := r.conn.Exec(sqlText, args...)
	if err != nil {
		return nil, queryErr(op, sqlText, err)
	}
	return res, nil
}

// Select reloads the entity from its current primary-key value, writing
// the fetched column values back into the same instance. Returns
// ErrNotFound when no row matches.
func (r *Repository[T]) Select(entity *T) error {
	keys, set := r.keyValues(entity)
	if !set {
		return ErrMissingPrimaryKey
	}
	return r.findInto("Repository.Select", entity, keys)
}

// SelectIfExists is Select except that ErrNotFound is swallowed and the
// instance is left unmodified.
func (r *Repository[T]) SelectIfExists(entity *T) error {
	return r.ifExists(r.Select(entity))
}

// Find loads the row identified by the explicit primary-key value(s) into
// the entity. Composite keys are matched in declaration order. Returns
// ErrNotFound when no row matches.
func (r *Repository[T]) Find(entity *T, keys ...any) error {
	return r.findInto("Repository.Find", entity, keys)
}

// FindIfExists is Find except that ErrNotFound is swallowed and the
// instance is left unmodified.
func (r *Repository[T]) FindIfExists(entity *T, keys ...any) error {
	return r.ifExists(r.Find(entity, keys...))
}

func (r *Repository[T]) ifExists(err error) error {
	if err == ErrNotFound {
		return nil
	}
	return err
}

func (r *Repository[T]) findInto(op string, entity *T, keys []any) error {
	if !r.conn.Open() {
		return ErrNoConnection
	}
	for i, k := range keys {
		keys[i] = bindValue(r.conn.Dialect(), k)
	}
	sqlText, args, err := r.builder.SelectByKey(r.table, keys)
	if err != nil {
		return err
	}
	rows, err := r.conn.Query(sqlText, args...)
	if err != nil {
		return queryErr(op, sqlText, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return queryErr(op, sqlText, err)
		}
		return ErrNotFound
	}
	fetched, err := hydrateRow[T](rows, r.table)
	if err != nil {
		return err
	}
	*entity = *fetched
	return rows.Err()
}

// FindAll runs the general list query. All directives are optional: a nil
// specification matches every row, a nil pageable fetches the whole match,
// a nil sortable leaves ordering to the backend. Options adjust fetching
// and counting; see query.FindOption.
func (r *Repository[T]) FindAll(spec *query.Specification, pageable *query.Pageable, sortable *query.Sortable, opts ...query.FindOption) (*PageData[T], error) {
	const op = "Repository.FindAll"
	opt := query.Combine(opts...)
	if !r.conn.Open() {
		return nil, ErrNoConnection
	}
	start := time.Now()

	sqlText, args, err := r.builder.Select(r.table, nil, spec, sortable, pageable)
	if err != nil {
		return nil, err
	}
	rows, err := r.conn.Query(sqlText, args...)
	if err != nil {
		return nil, queryErr(op, sqlText, err)
	}

	if opt.Has(query.NoFetchData) {
		total := CountUnknown
		if !opt.Has(query.NoCountData) {
			// The page length is unknown here, so the heuristic cannot
			// apply; count exactly regardless of strategy.
			if total, err = r.countExact(op, spec); err != nil {
				rows.Close()
				return nil, err
			}
		}
		return newLazyPageData(r, rows, total, pageable, opt, time.Since(start)), nil
	}
	defer rows.Close()

	var records []Record[T]
	for rows.Next() {
		entity, err := hydrateRow[T](rows, r.table)
		if err != nil {
			return nil, err
		}
		records = append(records, r.newRecord(entity, opt))
	}
	if err := rows.Err(); err != nil {
		return nil, queryErr(op, sqlText, err)
	}

	total, err := r.totalMatches(op, spec, pageable, opt, len(records))
	if err != nil {
		return nil, err
	}
	return newPageData(records, total, pageable, opt, time.Since(start)), nil
}

// totalMatches resolves the reported total for a fetched page.
func (r *Repository[T]) totalMatches(op string, spec *query.Specification, pageable *query.Pageable, opt query.FindOption, fetched int) (int64, error) {
	if opt.Has(query.NoCountData) || pageable == nil {
		return int64(fetched), nil
	}
	if r.conn.CountStrategy() == HeuristicCount {
		total := int64(pageable.Offset() + fetched)
		if fetched == pageable.Size() {
			// A full page implies at least one more row.
			total++
		}
		return total, nil
	}
	return r.countExact(op, spec)
}

func (r *Repository[T]) countExact(op string, spec *query.Specification) (int64, error) {
	sqlText, args, err := r.builder.Count(r.table, spec)
	if err != nil {
		return CountUnknown, err
	}
	row, err := r.conn.QueryRow(sqlText, args...)
	if err != nil {
		return CountUnknown, err
	}
	var n int64
	if err := row.Scan(&n); err != nil {
		return CountUnknown, queryErr(op, sqlText, err)
	}
	return n, nil
}

// CountAll reports the number of rows matching the specification. Counting
// is deliberately lenient: failures are reduced to CountUnknown instead of
// propagating, so aggregate rendering never dies on a count. The swallowed
// error is surfaced at Warn on the connection logger.
func (r *Repository[T]) CountAll(spec *query.Specification) int64 {
	n, err := r.countExact("Repository.CountAll", spec)
	if err != nil {
		r.conn.logger().Warn("count failed",
			zap.String("table", r.table.Name()), zap.Error(err))
		return CountUnknown
	}
	return n
}

// FindBy lists rows where field equals value. Shorthand for FindAll with a
// single-predicate specification.
func (r *Repository[T]) FindBy(field string, value any, opts ...query.FindOption) (*PageData[T], error) {
	return r.FindAll(query.Where(field, query.OpEq, value), nil, nil, opts...)
}

// FindOneBy returns the first row where field equals value, with no
// defined ordering. Returns ErrNotFound when nothing matches.
func (r *Repository[T]) FindOneBy(field string, value any) (*T, error) {
	return r.findSingle(query.Where(field, query.OpEq, value), nil)
}

// FindOneByIfExists is FindOneBy except a zero match returns (nil, nil).
func (r *Repository[T]) FindOneByIfExists(field string, value any) (*T, error) {
	entity, err := r.FindOneBy(field, value)
	if err == ErrNotFound {
		return nil, nil
	}
	return entity, err
}

// FindFirstBy returns the matching row that sorts first by primary key.
func (r *Repository[T]) FindFirstBy(field string, value any) (*T, error) {
	return r.findSingle(query.Where(field, query.OpEq, value), r.keySort(query.Asc))
}

// FindLastBy returns the matching row that sorts last by primary key.
func (r *Repository[T]) FindLastBy(field string, value any) (*T, error) {
	return r.findSingle(query.Where(field, query.OpEq, value), r.keySort(query.Desc))
}

// CountBy counts rows where field equals value, with CountAll's leniency.
func (r *Repository[T]) CountBy(field string, value any) int64 {
	return r.CountAll(query.Where(field, query.OpEq, value))
}

// ExistsBy reports whether any row has field equal to value.
func (r *Repository[T]) ExistsBy(field string, value any) (bool, error) {
	entity, err := r.FindOneByIfExists(field, value)
	if err != nil {
		return false, err
	}
	return entity != nil, nil
}

// DeleteBy removes every row where field equals value and returns the
// number of rows removed.
func (r *Repository[T]) DeleteBy(field string, value any) (int64, error) {
	const op = "Repository.DeleteBy"
	if !r.conn.Open() {
		return 0, ErrNoConnection
	}
	sqlText, args, err := r.builder.DeleteWhere(r.table, query.Where(field, query.OpEq, value))
	if err != nil {
		return 0, err
	}
	res, err := r.conn.Exec(sqlText, args...)
	if err != nil {
		return 0, queryErr(op, sqlText, err)
	}
	return res.RowsAffected()
}

func (r *Repository[T]) findSingle(spec *query.Specification, sortable *query.Sortable) (*T, error) {
	one, _ := query.NewPageable(1, 1)
	page, err := r.FindAll(spec, one, sortable, query.NoCountData)
	if err != nil {
		return nil, err
	}
	entities := page.Entities()
	if len(entities) == 0 {
		return nil, ErrNotFound
	}
	return entities[0], nil
}

func (r *Repository[T]) keySort(dir query.Direction) *query.Sortable {
	var s *query.Sortable
	for _, col := range r.table.PrimaryKeys() {
		if s == nil {
			s = query.NewSortable(col.Name, dir)
		} else {
			s.Add(col.Name, dir)
		}
	}
	return s
}

func (r *Repository[T]) newRecord(entity *T, opt query.FindOption) Record[T] {
	if opt.Has(query.Passive) {
		return Record[T]{entity: entity}
	}
	return Record[T]{entity: entity, repo: r}
}

// keyValues extracts the primary-key values and reports whether they are
// all set (non-zero).
func (r *Repository[T]) keyValues(entity *T) ([]any, bool) {
	rv := reflect.ValueOf(entity).Elem()
	pks := r.table.PrimaryKeys()
	keys := make([]any, len(pks))
	set := true
	for i, col := range pks {
		field := rv.Field(col.FieldIndex)
		if field.IsZero() {
			set = false
		}
		keys[i] = bindValue(r.conn.Dialect(), field.Interface())
	}
	return keys, set
}

// columnValues builds the ordered insert values for the entity.
func (r *Repository[T]) columnValues(entity *T, includeNull bool, forUpdate bool) []sqlbuild.ColumnValue {
	rv := reflect.ValueOf(entity).Elem()
	var out []sqlbuild.ColumnValue
	for _, col := range r.table.Columns() {
		if forUpdate && col.PrimaryKey {
			continue
		}
		field := rv.Field(col.FieldIndex)
		if col.AutoIncrement && field.IsZero() {
			continue
		}
		v := field.Interface()
		if isNullValue(v) && !includeNull {
			continue
		}
		out = append(out, sqlbuild.ColumnValue{
			Name:  col.Name,
			Value: bindValue(r.conn.Dialect(), v),
		})
	}
	return out
}

func (r *Repository[T]) updateValues(entity *T, includeNull bool) []sqlbuild.ColumnValue {
	return r.columnValues(entity, includeNull, true)
}

// fillGeneratedKeys assigns a UUID to every generated column whose field
// is still empty.
func (r *Repository[T]) fillGeneratedKeys(entity *T) {
	rv := reflect.ValueOf(entity).Elem()
	for _, col := range r.table.Columns() {
		if !col.Generated {
			continue
		}
		field := rv.Field(col.FieldIndex)
		if field.IsZero() {
			field.SetString(newID())
		}
	}
}

// backfillAutoKey copies the database-assigned key into the entity when
// the driver reports one.
func (r *Repository[T]) backfillAutoKey(entity *T, res sql.Result) {
	pks := r.table.PrimaryKeys()
	if len(pks) != 1 || !pks[0].AutoIncrement {
		return
	}
	rv := reflect.ValueOf(entity).Elem()
	field := rv.Field(pks[0].FieldIndex)
	if !field.IsZero() {
		return
	}
	id, err := res.LastInsertId()
	if err != nil || id == 0 {
		return
	}
	switch field.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		field.SetInt(id)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		field.SetUint(uint64(id))
	}
}

// newID generates a UUID v7 with a v4 fallback.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
