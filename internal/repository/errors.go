// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. Absence of
// a row is reported through the boolean result of Get and Update, not
// through an error; ErrNotFound is reserved for references to rows that do
// not exist (e.g. a review for an unknown movie).
package repository

import "errors"

var (
	// ErrNotFound is returned when an operation references a row that does
	// not exist. Handlers translate it into an HTTP 404 response.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the caller attempts an operation
	// on a resource they do not own. Handlers should translate this
	// into an HTTP 403 response.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict is returned when a create would break a uniqueness rule,
	// such as a second review of the same movie by the same user. Handlers
	// should translate this into an HTTP 409 response.
	ErrConflict = errors.New("conflict")

	// ErrUsernameExists is returned when a username is already taken.
	ErrUsernameExists = errors.New("username already exists")

	// ErrInvalidQuery is returned for criteria that cannot be evaluated,
	// e.g. a movie query giving both a single genre and a genre list.
	ErrInvalidQuery = errors.New("invalid query")
)
