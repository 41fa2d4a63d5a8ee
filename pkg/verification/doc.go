// Package verification implements the token lifecycle for opt-in email
// confirmation.
//
// A registration is persisted together with a single-use secret token. The
// token is emailed to the registrant as a confirmation link; presenting the
// correct token flips the record to verified exactly once.
//
// # Overview
//
// The package provides:
//   - Token issuance with configurable expiry
//   - At-most-once redemption via a store-level conditional update
//   - Enumeration-resistant NotFound handling (unknown and expired tokens
//     are externally indistinguishable)
//   - Resend limiting per email address
//   - Repository pattern for PostgreSQL and file storage
//
// # Basic Usage
//
//	import "github.com/tendant/simple-signup/pkg/verification"
//
//	repo := verification.NewRepository(pool)
//	service := verification.NewVerificationService(
//		repo,
//		notificationManager,
//		"https://signup.example.com",
//		verification.WithTokenExpiry(72*time.Hour),
//	)
//
//	// Issue a token during registration
//	token, err := service.Issue(ctx, verification.RegistrationPayload{
//		Email: "ann@example.com",
//		Name:  "Ann",
//	})
//
//	// Redeem the token from the confirmation link
//	outcome, err := service.Redeem(ctx, token)
//
// The lookup is by token only; no sequential identifier appears in the
// confirmation link.
package verification
