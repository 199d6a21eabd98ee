package store

import "errors"

var (
	// ErrNotFound indicates no entity exists for the given key.
	ErrNotFound = errors.New("store: entity not found")
	// ErrEntityExists indicates an insert hit an existing key.
	ErrEntityExists = errors.New("store: entity already exists")
	// ErrPreconditionFailed indicates a conditional update presented a stale etag.
	ErrPreconditionFailed = errors.New("store: etag precondition failed")
)
