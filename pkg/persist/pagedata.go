package persist

import (
	"database/sql"
	"time"

	"github.com/mesh-intelligence/shelf/pkg/query"
)

// PageData wraps one page of list-query results together with the total
// match count, elapsed query time, and the originating pagination state.
//
// In the usual mode the page is fully materialized and Records/Entities
// return it directly. Under query.NoFetchData the wrapper instead holds
// the live cursor: Next hydrates rows one at a time in a single forward
// pass, and Close releases the cursor. The total may be CountUnknown when
// counting was skipped, or approximate under HeuristicCount.
type PageData[T any] struct {
	records  []Record[T]
	total    int64
	elapsed  time.Duration
	pageable *query.Pageable
	opts     query.FindOption

	repo *Repository[T]
	rows *sql.Rows
	next int
	done bool
}

func newPageData[T any](records []Record[T], total int64, pageable *query.Pageable, opts query.FindOption, elapsed time.Duration) *PageData[T] {
	return &PageData[T]{
		records:  records,
		total:    total,
		elapsed:  elapsed,
		pageable: pageable,
		opts:     opts,
	}
}

func newLazyPageData[T any](repo *Repository[T], rows *sql.Rows, total int64, pageable *query.Pageable, opts query.FindOption, elapsed time.Duration) *PageData[T] {
	return &PageData[T]{
		total:    total,
		elapsed:  elapsed,
		pageable: pageable,
		opts:     opts,
		repo:     repo,
		rows:     rows,
	}
}

// Fetched reports whether the page was materialized up front.
func (p *PageData[T]) Fetched() bool { return p.rows == nil }

// Records returns the materialized page. Empty in NoFetchData mode; use
// Next there instead.
func (p *PageData[T]) Records() []Record[T] { return p.records }

// Entities returns the materialized page as plain entity values.
func (p *PageData[T]) Entities() []*T {
	out := make([]*T, len(p.records))
	for i, rec := range p.records {
		out[i] = rec.entity
	}
	return out
}

// TotalMatches returns the total number of matching rows, CountUnknown
// when counting was skipped or failed. Under HeuristicCount the value may
// overshoot the true total by one.
func (p *PageData[T]) TotalMatches() int64 { return p.total }

// Elapsed returns the wall time the query took.
func (p *PageData[T]) Elapsed() time.Duration { return p.elapsed }

// Pageable returns the pagination directive the query ran with, nil when
// the query was unpaginated.
func (p *PageData[T]) Pageable() *query.Pageable { return p.pageable }

// Options returns the find-option flags the query ran with.
func (p *PageData[T]) Options() query.FindOption { return p.opts }

// TotalPages derives the page count from the total and the page size.
// Zero when the query was unpaginated or the total is unknown.
func (p *PageData[T]) TotalPages() int {
	if p.pageable == nil || p.total < 0 {
		return 0
	}
	size := int64(p.pageable.Size())
	return int((p.total + size - 1) / size)
}

// HasPrevious reports whether a page precedes this one.
func (p *PageData[T]) HasPrevious() bool {
	return p.pageable != nil && p.pageable.Page() > 1
}

// HasNext reports whether more matching rows follow this page.
func (p *PageData[T]) HasNext() bool {
	if p.pageable == nil || p.total < 0 {
		return false
	}
	return int64(p.pageable.Page())*int64(p.pageable.Size()) < p.total
}

// Next returns the next record of the result. On a materialized page it
// walks the fetched slice; in NoFetchData mode it pulls and hydrates one
// row from the live cursor. Returns (nil, nil) when the result is
// exhausted, and ErrResultConsumed after the cursor was closed.
func (p *PageData[T]) Next() (*Record[T], error) {
	if p.rows == nil {
		if p.next >= len(p.records) {
			return nil, nil
		}
		rec := &p.records[p.next]
		p.next++
		return rec, nil
	}

	if p.done {
		return nil, ErrResultConsumed
	}
	if !p.rows.Next() {
		err := p.rows.Err()
		p.Close()
		if err != nil {
			return nil, err
		}
		return nil, nil
	}
	entity, err := hydrateRow[T](p.rows, p.repo.table)
	if err != nil {
		p.Close()
		return nil, err
	}
	rec := p.repo.newRecord(entity, p.opts)
	return &rec, nil
}

// Close releases the live cursor. No-op for materialized pages and on
// repeated calls.
func (p *PageData[T]) Close() error {
	if p.rows == nil || p.done {
		return nil
	}
	p.done = true
	return p.rows.Close()
}
