package matching

import "errors"

var (
	// ErrMissingUserID is a caller error: no user id was supplied.
	ErrMissingUserID = errors.New("user id is required")
	// ErrProfileNotFound means the user or its profile row does not exist.
	ErrProfileNotFound = errors.New("user not found")
	// ErrPreferencesParse means the stored preferences document is not usable.
	ErrPreferencesParse = errors.New("preferences parse error")
	// ErrStoreUnavailable wraps any infrastructure failure of a store call.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrDuplicateUser is returned when creating a user whose email is already taken.
	ErrDuplicateUser = errors.New("user already exists")
)
