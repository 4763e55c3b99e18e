package vault

import "errors"

var (
	// ErrNotFound is returned when no record or blob exists for an ID.
	ErrNotFound = errors.New("vault: file not found")
	// ErrInvalidID is returned when an ID is not a UUID.
	ErrInvalidID = errors.New("vault: invalid file id")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("vault: closed")
)
