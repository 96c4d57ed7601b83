package model

import "errors"

var (
	// ErrNotAuthenticated is returned when an operation needs a user identity and none was supplied.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrNotFound is returned when a referenced id is absent or owned by another user.
	ErrNotFound = errors.New("not found")
	// ErrStoreUnavailable is returned when the backing store cannot be reached or rejects a call.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrValidationFailed is returned for input rejected before any write.
	ErrValidationFailed = errors.New("validation failed")
)
