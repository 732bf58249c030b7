package repository

import "errors"

// Common repository errors
var (
	// ErrNotFound is returned when a record is not found
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateEmail is returned when trying to create a user with an existing email
	ErrDuplicateEmail = errors.New("user with this email already exists")

	// ErrDuplicateSite is returned when trying to register a site id twice
	ErrDuplicateSite = errors.New("site with this id already exists")

	// ErrDuplicateToken is returned when trying to create a reset token with an existing hash
	ErrDuplicateToken = errors.New("reset token with this hash already exists")
)
