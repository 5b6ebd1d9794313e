package query

// Operator is a comparison operator applied to a single field in a
// Specification predicate.
type Operator string

// Supported predicate operators.
const (
	OpEq        Operator = "="
	OpNotEq     Operator = "<>"
	OpLt        Operator = "<"
	OpLtOrEq    Operator = "<="
	OpGt        Operator = ">"
	OpGtOrEq    Operator = ">="
	OpLike      Operator = "LIKE"
	OpIn        Operator = "IN"
	OpNotIn     Operator = "NOT IN"
	OpIsNull    Operator = "IS NULL"
	OpIsNotNull Operator = "IS NOT NULL"
)

// validOperators is the set of operators accepted in predicates.
var validOperators = map[Operator]bool{
	OpEq:        true,
	OpNotEq:     true,
	OpLt:        true,
	OpLtOrEq:    true,
	OpGt:        true,
	OpGtOrEq:    true,
	OpLike:      true,
	OpIn:        true,
	OpNotIn:     true,
	OpIsNull:    true,
	OpIsNotNull: true,
}

// Valid reports whether op is a recognized operator.
func (op Operator) Valid() bool {
	return validOperators[op]
}

// Connector joins adjacent nodes of a Specification tree.
type Connector string

// Logical connectors.
const (
	ConnectorAnd Connector = "AND"
	ConnectorOr  Connector = "OR"
)
