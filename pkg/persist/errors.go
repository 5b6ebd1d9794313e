package persist

import (
	"errors"
	"fmt"
)

// Operation errors.
var (
	// ErrNoConnection reports an operation attempted without an open
	// database connection, including calls on passively hydrated records.
	ErrNoConnection = errors.New("no database connection")

	// ErrNotFound reports a single-record lookup that matched zero rows.
	// Distinct from ErrNoConnection: the query ran, nothing was there.
	ErrNotFound = errors.New("record not found")

	// ErrMissingPrimaryKey reports an update, delete, or select attempted
	// while the entity's primary-key value(s) are unset.
	ErrMissingPrimaryKey = errors.New("primary key value not set")

	// ErrTxActive reports Begin while a transaction is already open.
	ErrTxActive = errors.New("transaction already started")

	// ErrNoTx reports Commit or Rollback without an open transaction.
	ErrNoTx = errors.New("no transaction in progress")

	// ErrResultConsumed reports iteration over a lazy result that was
	// already exhausted or closed.
	ErrResultConsumed = errors.New("result cursor already consumed")
)

// CountUnknown is reported as the total match count when counting was
// skipped or failed.
const CountUnknown int64 = -1

// QueryError wraps a driver error with the operation that issued the
// statement. The underlying error is preserved verbatim for errors.Is/As.
type QueryError struct {
	Op  string // engine operation, e.g. "Repository.FindAll"
	SQL string // statement text that failed
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

func queryErr(op, sql string, err error) error {
	if err == nil {
		return nil
	}
	return &QueryError{Op: op, SQL: sql, Err: err}
}
