// Package sqlbuild assembles parameterized SQL statements from cached table
// metadata plus the caller's specification, sort, and pagination directives.
// Statement text varies per dialect only at syntax-emission points
// (placeholder format); predicate translation and ordering are shared.
package sqlbuild

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/mesh-intelligence/shelf/pkg/query"
	"github.com/mesh-intelligence/shelf/pkg/schema"
)

// ColumnValue is one bind value destined for a named column. Statements
// preserve the order in which column values are supplied.
type ColumnValue struct {
	Name  string
	Value any
}

// Builder produces SQL text and ordered bind values for one dialect.
type Builder struct {
	dialect schema.Dialect
	stmt    sq.StatementBuilderType
}

// New returns a Builder for the given dialect.
func New(dialect schema.Dialect) *Builder {
	stmt := sq.StatementBuilder.PlaceholderFormat(sq.Question)
	if dialect == schema.DialectPostgres {
		stmt = stmt.PlaceholderFormat(sq.Dollar)
	}
	return &Builder{dialect: dialect, stmt: stmt}
}

// Dialect returns the target dialect.
func (b *Builder) Dialect() schema.Dialect { return b.dialect }

// Select builds a SELECT over the table. A nil projection selects every
// mapped column; an explicit projection must name mapped columns only.
// Specification, sortable, and pageable are each optional.
func (b *Builder) Select(t *schema.Table, projection []string, spec *query.Specification, sort *query.Sortable, page *query.Pageable) (string, []any, error) {
	cols, err := b.projection(t, projection)
	if err != nil {
		return "", nil, err
	}

	sb := b.stmt.Select(cols...).From(t.Name())
	sb, err = b.applyWhere(sb, t, spec)
	if err != nil {
		return "", nil, err
	}

	for _, f := range sort.Fields() {
		if !t.HasColumn(f.Field) {
			return "", nil, fmt.Errorf("%w: unknown sort field %q on table %s",
				query.ErrInvalidArgument, f.Field, t.Name())
		}
		sb = sb.OrderBy(f.Field + " " + string(f.Direction))
	}

	if page != nil {
		sb = sb.Limit(uint64(page.Limit())).Offset(uint64(page.Offset()))
	}
	return sb.ToSql()
}

// SelectByKey builds a SELECT matching the primary key. Composite keys
// become an AND of equalities in declaration order.
func (b *Builder) SelectByKey(t *schema.Table, keyVals []any) (string, []any, error) {
	pred, err := b.keyPredicate(t, keyVals)
	if err != nil {
		return "", nil, err
	}
	return b.stmt.Select(t.ColumnNames()...).From(t.Name()).Where(pred).ToSql()
}

// Count builds a COUNT(*) over the table with an optional specification.
func (b *Builder) Count(t *schema.Table, spec *query.Specification) (string, []any, error) {
	sb := b.stmt.Select("COUNT(*)").From(t.Name())
	sb, err := b.applyWhere(sb, t, spec)
	if err != nil {
		return "", nil, err
	}
	return sb.ToSql()
}

// Insert builds an INSERT with the supplied column values, in order.
func (b *Builder) Insert(t *schema.Table, values []ColumnValue) (string, []any, error) {
	if len(values) == 0 {
		return "", nil, fmt.Errorf("%w: no columns to insert on table %s",
			query.ErrInvalidArgument, t.Name())
	}
	cols := make([]string, len(values))
	vals := make([]any, len(values))
	for i, cv := range values {
		cols[i] = cv.Name
		vals[i] = cv.Value
	}
	return b.stmt.Insert(t.Name()).Columns(cols...).Values(vals...).ToSql()
}

// Update builds an UPDATE of the supplied column values restricted to the
// primary key.
func (b *Builder) Update(t *schema.Table, values []ColumnValue, keyVals []any) (string, []any, error) {
	if len(values) == 0 {
		return "", nil, fmt.Errorf("%w: no columns to update on table %s",
			query.ErrInvalidArgument, t.Name())
	}
	pred, err := b.keyPredicate(t, keyVals)
	if err != nil {
		return "", nil, err
	}
	ub := b.stmt.Update(t.Name())
	for _, cv := range values {
		ub = ub.Set(cv.Name, cv.Value)
	}
	return ub.Where(pred).ToSql()
}

// Delete builds a DELETE restricted to the primary key.
func (b *Builder) Delete(t *schema.Table, keyVals []any) (string, []any, error) {
	pred, err := b.keyPredicate(t, keyVals)
	if err != nil {
		return "", nil, err
	}
	return b.stmt.Delete(t.Name()).Where(pred).ToSql()
}

// DeleteWhere builds a DELETE restricted by a specification.
func (b *Builder) DeleteWhere(t *schema.Table, spec *query.Specification) (string, []any, error) {
	db := b.stmt.Delete(t.Name())
	if !spec.IsEmpty() {
		pred, err := b.predicateTree(t, spec)
		if err != nil {
			return "", nil, err
		}
		db = db.Where(pred)
	}
	return db.ToSql()
}

func (b *Builder) projection(t *schema.Table, projection []string) ([]string, error) {
	if len(projection) == 0 {
		return t.ColumnNames(), nil
	}
	for _, name := range projection {
		if !t.HasColumn(name) {
			return nil, fmt.Errorf("%w: unknown projection column %q on table %s",
				query.ErrInvalidArgument, name, t.Name())
		}
	}
	return projection, nil
}

func (b *Builder) applyWhere(sb sq.SelectBuilder, t *schema.Table, spec *query.Specification) (sq.SelectBuilder, error) {
	if spec.IsEmpty() {
		return sb, nil
	}
	pred, err := b.predicateTree(t, spec)
	if err != nil {
		return sb, err
	}
	return sb.Where(pred), nil
}

func (b *Builder) keyPredicate(t *schema.Table, keyVals []any) (sq.Sqlizer, error) {
	pks := t.PrimaryKeys()
	if len(keyVals) != len(pks) {
		return nil, fmt.Errorf("%w: table %s expects %d key value(s), got %d",
			query.ErrInvalidArgument, t.Name(), len(pks), len(keyVals))
	}
	eq := sq.Eq{}
	for i, col := range pks {
		eq[col.Name] = keyVals[i]
	}
	return eq, nil
}
