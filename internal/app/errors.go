package app

import (
	"errors"

	"shelfmark/pkg/auth"
)

var (
	// ErrInvalidCredentials intentionally does not reveal whether the
	// email exists.
	ErrInvalidCredentials = errors.New("Invalid email or password")

	// ErrUserBanned is returned when a banned account tries to log in.
	ErrUserBanned = errors.New("account is banned")

	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrMessageNotFound    = errors.New("message not found")

	// ErrBookNotFound covers both a missing record and a record owned by
	// someone else; callers cannot distinguish the two.
	ErrBookNotFound = errors.New("Book not found or not authorized")

	ErrTitleLength     = errors.New("title must be between 2 and 50 characters")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidStatus   = errors.New("invalid reading status")
	ErrInvalidRating   = errors.New("rating must be between 0 and 5")
	ErrRatingRequired  = errors.New("rating is required when a review is provided")

	ErrSubjectTooLong = errors.New("subject must not exceed 50 characters")
	ErrMessageTooLong = errors.New("message must not exceed 500 characters")
	ErrMessageFields  = errors.New("name, email, subject and message are required")

	ErrSelfDelete = errors.New("admins cannot delete their own account")
)

// IsValidationError reports whether err should surface as a 400.
func IsValidationError(err error) bool {
	for _, candidate := range []error{
		ErrTitleLength, ErrInvalidCategory, ErrInvalidStatus,
		ErrInvalidRating, ErrRatingRequired, ErrSubjectTooLong,
		ErrMessageTooLong, ErrMessageFields,
		ErrUserFields, ErrInvalidEmail, ErrInvalidRole,
		auth.ErrPasswordTooShort,
	} {
		if errors.Is(err, candidate) {
			return true
		}
	}
	return false
}
