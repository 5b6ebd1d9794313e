package sqlbuild

import (
	"fmt"
	"reflect"

	sq "github.com/Masterminds/squirrel"

	"github.com/mesh-intelligence/shelf/pkg/query"
	"github.com/mesh-intelligence/shelf/pkg/schema"
)

// predicateTree translates a specification into a squirrel predicate.
// Nodes fold left-associatively over each node's connector, so grouping in
// the generated WHERE clause mirrors the tree structure exactly; nested
// groups render inside their own parentheses.
func (b *Builder) predicateTree(t *schema.Table, spec *query.Specification) (sq.Sqlizer, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	var acc sq.Sqlizer
	for _, n := range spec.Nodes() {
		var part sq.Sqlizer
		var err error
		if n.Group != nil {
			part, err = b.predicateTree(t, n.Group)
		} else {
			part, err = b.leaf(t, n.Predicate)
		}
		if err != nil {
			return nil, err
		}

		switch {
		case acc == nil:
			acc = part
		case n.Connector == query.ConnectorOr:
			acc = sq.Or{acc, part}
		default:
			acc = sq.And{acc, part}
		}
	}
	return acc, nil
}

func (b *Builder) leaf(t *schema.Table, p *query.Predicate) (sq.Sqlizer, error) {
	if !t.HasColumn(p.Field) {
		return nil, fmt.Errorf("%w: unknown column %q on table %s",
			query.ErrInvalidSpecification, p.Field, t.Name())
	}

	switch p.Op {
	case query.OpEq:
		return sq.Eq{p.Field: p.Value}, nil
	case query.OpNotEq:
		return sq.NotEq{p.Field: p.Value}, nil
	case query.OpLt:
		return sq.Lt{p.Field: p.Value}, nil
	case query.OpLtOrEq:
		return sq.LtOrEq{p.Field: p.Value}, nil
	case query.OpGt:
		return sq.Gt{p.Field: p.Value}, nil
	case query.OpGtOrEq:
		return sq.GtOrEq{p.Field: p.Value}, nil
	case query.OpLike:
		return sq.Like{p.Field: p.Value}, nil
	case query.OpIn:
		vals, err := valueSet(p)
		if err != nil {
			return nil, err
		}
		return sq.Eq{p.Field: vals}, nil
	case query.OpNotIn:
		vals, err := valueSet(p)
		if err != nil {
			return nil, err
		}
		return sq.NotEq{p.Field: vals}, nil
	case query.OpIsNull:
		return sq.Eq{p.Field: nil}, nil
	case query.OpIsNotNull:
		return sq.NotEq{p.Field: nil}, nil
	default:
		return nil, fmt.Errorf("%w: unknown operator %q",
			query.ErrInvalidSpecification, p.Op)
	}
}

// valueSet normalizes an IN/NOT IN value into a []any.
func valueSet(p *query.Predicate) ([]any, error) {
	if p.Value == nil {
		return nil, fmt.Errorf("%w: %s requires a value set for column %q",
			query.ErrInvalidSpecification, p.Op, p.Field)
	}
	rv := reflect.ValueOf(p.Value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{p.Value}, nil
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}
