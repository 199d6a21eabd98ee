package rollup

import "errors"

var (
	// ErrMalformedRow indicates a report row carried an unparsable date.
	// The row is skipped; the batch continues.
	ErrMalformedRow = errors.New("rollup: malformed report row")
	// ErrConcurrentModification indicates a conditional write kept losing to
	// a concurrent writer after the retry budget was spent. Fatal for the one
	// affected record, not for the batch.
	ErrConcurrentModification = errors.New("rollup: concurrent modification")
	// ErrInvalidQuery indicates query parameters were rejected before any
	// store access: unknown period, empty app set, or a bad period key.
	ErrInvalidQuery = errors.New("rollup: invalid query parameters")
)
