package query

import "fmt"

// Predicate is a single (field, operator, value) comparison.
// For OpIsNull and OpIsNotNull the value is ignored. For OpIn and OpNotIn
// the value must be a slice of candidate values.
type Predicate struct {
	Field string
	Op    Operator
	Value any
}

// Node is one entry of a Specification tree: either a leaf Predicate or a
// nested Group, joined to the preceding entries by Connector. The connector
// of the first node is ignored.
type Node struct {
	Connector Connector
	Predicate *Predicate
	Group     *Specification
}

// Specification is a composable predicate tree describing a filter
// condition. It is built through chained AddAnd/AddOr calls and treated as
// immutable once handed to the engine. A nil or empty Specification matches
// every row.
//
// Combination is left-associative in call order, and nested groups keep
// their own parentheses:
//
//	spec := query.Where("name", query.OpEq, "Alice").
//		AddAndGroup(query.Where("age", query.OpGt, 21).
//			AddOr("vip", query.OpEq, true))
//
// renders as name = ? AND (age > ? OR vip = ?).
type Specification struct {
	nodes []Node
}

// New returns an empty Specification.
func New() *Specification {
	return &Specification{}
}

// Where returns a Specification seeded with a single predicate.
func Where(field string, op Operator, value any) *Specification {
	return New().AddAnd(field, op, value)
}

// AddAnd appends a predicate joined with AND. Returns the receiver for
// chaining.
func (s *Specification) AddAnd(field string, op Operator, value any) *Specification {
	return s.add(ConnectorAnd, field, op, value)
}

// AddOr appends a predicate joined with OR. Returns the receiver for
// chaining.
func (s *Specification) AddOr(field string, op Operator, value any) *Specification {
	return s.add(ConnectorOr, field, op, value)
}

// AddAndGroup appends a nested specification joined with AND. The group is
// parenthesized as a unit when rendered.
func (s *Specification) AddAndGroup(sub *Specification) *Specification {
	s.nodes = append(s.nodes, Node{Connector: ConnectorAnd, Group: sub})
	return s
}

// AddOrGroup appends a nested specification joined with OR.
func (s *Specification) AddOrGroup(sub *Specification) *Specification {
	s.nodes = append(s.nodes, Node{Connector: ConnectorOr, Group: sub})
	return s
}

func (s *Specification) add(conn Connector, field string, op Operator, value any) *Specification {
	s.nodes = append(s.nodes, Node{
		Connector: conn,
		Predicate: &Predicate{Field: field, Op: op, Value: value},
	})
	return s
}

// IsEmpty reports whether the specification holds no predicates. A nil
// receiver is empty.
func (s *Specification) IsEmpty() bool {
	return s == nil || len(s.nodes) == 0
}

// Nodes returns a copy of the top-level tree nodes.
func (s *Specification) Nodes() []Node {
	if s == nil {
		return nil
	}
	out := make([]Node, len(s.nodes))
	copy(out, s.nodes)
	return out
}

// Validate walks the tree and reports the first malformed predicate.
// Field/column existence is checked later against the table schema; this
// only covers structural validity.
func (s *Specification) Validate() error {
	if s == nil {
		return nil
	}
	for _, n := range s.nodes {
		switch {
		case n.Group != nil:
			if n.Group.IsEmpty() {
				return fmt.Errorf("%w: empty group", ErrInvalidSpecification)
			}
			if err := n.Group.Validate(); err != nil {
				return err
			}
		case n.Predicate != nil:
			if n.Predicate.Field == "" {
				return fmt.Errorf("%w: empty field name", ErrInvalidSpecification)
			}
			if !n.Predicate.Op.Valid() {
				return fmt.Errorf("%w: unknown operator %q", ErrInvalidSpecification, n.Predicate.Op)
			}
		default:
			return fmt.Errorf("%w: node without predicate or group", ErrInvalidSpecification)
		}
	}
	return nil
}
