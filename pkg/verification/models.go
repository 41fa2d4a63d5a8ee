package verification

import (
	"time"

	"github.com/google/uuid"
)

// VerificationRecord associates a registration with its single-use secret
// token. The token is the only lookup key exposed to the outside; record IDs
// never appear in links or responses.
type VerificationRecord struct {
	ID         uuid.UUID  `json:"id"`
	Token      string     `json:"token"`
	Email      string     `json:"email"`
	Name       string     `json:"name"`
	Subscribed bool       `json:"subscribed"`
	SourceIP   string     `json:"source_ip,omitempty"`
	Verified   bool       `json:"verified"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}

// RegistrationPayload carries the submitted form fields into Issue.
type RegistrationPayload struct {
	Email      string
	Name       string
	Subscribed bool
	SourceIP   string
}

// Outcome is the result of a redemption attempt.
type Outcome int

const (
	// OutcomeVerified means this request flipped the record to verified.
	OutcomeVerified Outcome = iota
	// OutcomeAlreadyVerified means the record was verified before this request.
	OutcomeAlreadyVerified
	// OutcomeNotFound covers unknown tokens and expired unverified tokens.
	// The two cases are logged separately but presented identically.
	OutcomeNotFound
)

func (o Outcome) String() string {
	switch o {
	case OutcomeVerified:
		return "verified"
	case OutcomeAlreadyVerified:
		return "already_verified"
	default:
		return "not_found"
	}
}
