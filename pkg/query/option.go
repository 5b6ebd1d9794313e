package query

// FindOption is a bitmask of toggles for list queries.
type FindOption uint

const (
	// NoCountData skips the total-count step. The result reports the
	// fetched page length only and no overall total.
	NoCountData FindOption = 1 << iota

	// NoFetchData prepares and executes the statement but does not
	// materialize rows. The result wraps the live cursor and hydrates rows
	// on demand, in a single forward pass.
	NoFetchData

	// Passive detaches hydrated rows from the originating connection.
	// Detached records are read-only: their Save/Update/Delete fail.
	Passive
)

// Has reports whether flag is set.
func (o FindOption) Has(flag FindOption) bool {
	return o&flag != 0
}

// Combine folds a list of options into one mask.
func Combine(opts ...FindOption) FindOption {
	var out FindOption
	for _, o := range opts {
		out |= o
	}
	return out
}
