package persist

import "database/sql"

// Record is one hydrated result row. Rows from a non-passive list query
// stay attached to the repository that produced them and can be written
// back independently; rows from a passive query are detached and
// read-only: their write methods fail with ErrNoConnection.
type Record[T any] struct {
	entity *T
	repo   *Repository[T]
}

// Entity returns the hydrated entity value.
func (r Record[T]) Entity() *T { return r.entity }

// Attached reports whether the record can reach a database connection.
func (r Record[T]) Attached() bool { return r.repo != nil }

// Save upserts the record through its attached repository.
func (r Record[T]) Save(includeNull bool) (sql.Result, error) {
	if r.repo == nil {
		return nil, ErrNoConnection
	}
	return r.repo.Save(r.entity, includeNull)
}

// Update rewrites the record's row through its attached repository.
func (r Record[T]) Update(includeNull bool) (sql.Result, error) {
	if r.repo == nil {
		return nil, ErrNoConnection
	}
	return r.repo.Update(r.entity, includeNull)
}

// Delete removes the record's row through its attached repository.
func (r Record[T]) Delete() (sql.Result, error) {
	if r.repo == nil {
		return nil, ErrNoConnection
	}
	return r.repo.Delete(r.entity)
}
