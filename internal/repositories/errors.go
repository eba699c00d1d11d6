package repositories

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates a uniqueness constraint was violated.
	ErrConflict = errors.New("record already exists")
	// ErrStoreClosed indicates a session store was used after Close.
	ErrStoreClosed = errors.New("session store closed")
)
