package query

import "fmt"

// Pageable selects one page of a result set. Page numbers start at 1.
type Pageable struct {
	page int
	size int
}

// NewPageable returns a Pageable for the given 1-based page number and page
// size. Returns ErrInvalidArgument when either is below 1.
func NewPageable(page, size int) (*Pageable, error) {
	if page < 1 {
		return nil, fmt.Errorf("%w: page number %d, must be >= 1", ErrInvalidArgument, page)
	}
	if size < 1 {
		return nil, fmt.Errorf("%w: page size %d, must be >= 1", ErrInvalidArgument, size)
	}
	return &Pageable{page: page, size: size}, nil
}

// Page returns the 1-based page number.
func (p *Pageable) Page() int { return p.page }

// Size returns the page size.
func (p *Pageable) Size() int { return p.size }

// Limit returns the row limit for the page, equal to the page size.
func (p *Pageable) Limit() int { return p.size }

// Offset returns the number of rows skipped before the page starts.
func (p *Pageable) Offset() int { return (p.page - 1) * p.size }
