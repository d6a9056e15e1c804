package repo

import "errors"

var (
	// ErrForbidden is returned when the platform denies the operation (missing permission)
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound is returned when the target entity no longer exists (message, channel, user)
	ErrNotFound = errors.New("not found")
)
