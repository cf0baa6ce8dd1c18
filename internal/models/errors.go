package models

import "errors"

// Errors shared by the storage layer and services
var (
	// ErrNotFound indicates the requested record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrStaleObject indicates an optimistic locking conflict: the record
	// was modified by someone else since it was read
	ErrStaleObject = errors.New("record was modified concurrently")
)
