package query

// Direction orders a sort key ascending or descending.
type Direction string

// Sort directions.
const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// SortField is a single (field, direction) ordering directive.
type SortField struct {
	Field     string
	Direction Direction
}

// Sortable is an ordered list of sort keys. Keys are applied in the order
// they were added; the first added key wins ties.
type Sortable struct {
	fields []SortField
}

// NewSortable returns a Sortable seeded with one sort key.
func NewSortable(field string, dir Direction) *Sortable {
	return (&Sortable{}).Add(field, dir)
}

// Add appends a sort key. Returns the receiver for chaining.
func (s *Sortable) Add(field string, dir Direction) *Sortable {
	if dir != Desc {
		dir = Asc
	}
	s.fields = append(s.fields, SortField{Field: field, Direction: dir})
	return s
}

// Fields returns a copy of the sort keys in priority order.
func (s *Sortable) Fields() []SortField {
	if s == nil {
		return nil
	}
	out := make([]SortField, len(s.fields))
	copy(out, s.fields)
	return out
}

// IsEmpty reports whether no sort keys were added. A nil receiver is empty.
func (s *Sortable) IsEmpty() bool {
	return s == nil || len(s.fields) == 0
}
