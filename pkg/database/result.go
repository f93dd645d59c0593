package database

// ReadResult is the outcome of a lookup. An empty Rows slice means nothing
// matched; callers never inspect the driver's row shape directly.
type ReadResult[T any] struct {
	Rows []T
}

// Empty reports whether the lookup matched nothing.
func (r ReadResult[T]) Empty() bool { return len(r.Rows) == 0 }

// First returns the first row. It panics on an empty result.
func (r ReadResult[T]) First() T { return r.Rows[0] }

// Rows wraps a slice as a ReadResult.
func Rows[T any](rows []T) ReadResult[T] { return ReadResult[T]{Rows: rows} }

// One wraps a single row as a ReadResult.
func One[T any](row T) ReadResult[T] { return ReadResult[T]{Rows: []T{row}} }

// MutationResult is the outcome of an UPDATE or DELETE.
// Affected counts rows matched by the statement's key; Changed counts rows
// whose stored values actually differ afterwards. Changed <= Affected.
type MutationResult struct {
	Affected int64 `db:"affected" json:"affectedRows"`
	Changed  int64 `db:"changed" json:"changedRows"`
}

// Deleted builds the result of a DELETE, where every matched row changes.
func Deleted(n int64) MutationResult {
	return MutationResult{Affected: n, Changed: n}
}
