package verification

import "errors"

var (
	// ErrRecordNotFound is returned when no record matches the token.
	ErrRecordNotFound = errors.New("verification record not found")

	// ErrDuplicateToken is returned when the unique constraint on the token
	// column rejects an insert.
	ErrDuplicateToken = errors.New("verification token already exists")

	// ErrResendLimitExceeded is returned when too many tokens were issued for
	// the same address within the resend window.
	ErrResendLimitExceeded = errors.New("too many verification emails sent, please try again later")
)
