package database

import "errors"

var (
	// ErrNotFound is returned when a record does not exist or is not
	// owned by the requesting user. Ownership failures are reported the
	// same way so ids belonging to other users are indistinguishable
	// from missing ones.
	ErrNotFound = errors.New("record not found")

	// ErrUsernameTaken is returned when registering a username that
	// already exists.
	ErrUsernameTaken = errors.New("username already registered")

	// ErrConflict is reserved for concurrent-write detection. No current
	// operation returns it; tasks carry no version token and last write
	// wins.
	ErrConflict = errors.New("conflicting write")
)
