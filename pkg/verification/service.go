package verification

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/tendant/simple-signup/pkg/notification"
	"github.com/tendant/simple-signup/pkg/securetoken"
)

// tokenHexLength is the encoded length of an issued token.
const tokenHexLength = 2 * securetoken.DefaultByteLength

// VerificationService drives the issue/redeem state machine for
// registration records.
type VerificationService struct {
	repo                RegistrationRepository
	notificationManager *notification.NotificationManager
	baseURL             string
	tokenExpiry         time.Duration
	resendLimit         int
	resendWindow        time.Duration
}

// VerificationServiceOption defines configuration options
type VerificationServiceOption func(*VerificationService)

// WithTokenExpiry sets the token expiration duration
func WithTokenExpiry(expiry time.Duration) VerificationServiceOption {
	return func(s *VerificationService) {
		s.tokenExpiry = expiry
	}
}

// WithResendLimit sets the maximum number of emails that can be sent to the
// same address within the resend window
func WithResendLimit(limit int) VerificationServiceOption {
	return func(s *VerificationService) {
		s.resendLimit = limit
	}
}

// WithResendWindow sets the time window for resend limiting
func WithResendWindow(window time.Duration) VerificationServiceOption {
	return func(s *VerificationService) {
		s.resendWindow = window
	}
}

// NewVerificationService creates a new verification service
func NewVerificationService(
	repo RegistrationRepository,
	notificationManager *notification.NotificationManager,
	baseURL string,
	opts ...VerificationServiceOption,
) *VerificationService {
	service := &VerificationService{
		repo:                repo,
		notificationManager: notificationManager,
		baseURL:             baseURL,
		tokenExpiry:         72 * time.Hour,
		resendLimit:         3,
		resendWindow:        1 * time.Hour,
	}

	for _, opt := range opts {
		opt(service)
	}

	return service
}

// Issue generates a token, persists a new unverified record and sends the
// confirmation email. The token is returned for callers that embed it
// themselves (tests, CLI tools).
func (s *VerificationService) Issue(ctx context.Context, payload RegistrationPayload) (string, error) {
	cutoffTime := time.Now().UTC().Add(-s.resendWindow)
	count, err := s.repo.CountRecentByEmail(ctx, payload.Email, cutoffTime)
	if err != nil {
		slog.Error("Failed to count recent registrations", "error", err)
		return "", fmt.Errorf("failed to check resend limit: %w", err)
	}

	if count >= int64(s.resendLimit) {
		slog.Warn("Resend limit exceeded", "count", count, "limit", s.resendLimit)
		return "", ErrResendLimitExceeded
	}

	token, err := securetoken.Generate(securetoken.DefaultByteLength)
	if err != nil {
		slog.Error("Failed to generate verification token", "error", err)
		return "", err
	}

	expiresAt := time.Now().UTC().Add(s.tokenExpiry)

	rec, err := s.repo.Create(ctx, payload, token, expiresAt)
	if err != nil {
		slog.Error("Failed to create verification record", "error", err)
		return "", fmt.Errorf("failed to create verification record: %w", err)
	}

	verificationLink := fmt.Sprintf("%s/verify?t=%s", s.baseURL, token)

	if err := s.sendVerificationEmail(payload.Email, payload.Name, verificationLink); err != nil {
		slog.Error("Failed to send verification email", "record_id", rec.ID, "error", err)
		// Don't return error - record is created, email sending is best effort
	}

	slog.Info("Verification token issued", "record_id", rec.ID, "expires_at", expiresAt)
	return token, nil
}

// Redeem resolves a presented token to an outcome. Unknown tokens and
// expired unverified tokens both resolve to OutcomeNotFound so the external
// response cannot be used to probe which tokens ever existed. The flip to
// verified happens in the store's conditional update; when two redemptions
// race, the loser observes OutcomeAlreadyVerified.
func (s *VerificationService) Redeem(ctx context.Context, token string) (Outcome, error) {
	if !validTokenFormat(token) {
		return OutcomeNotFound, nil
	}

	rec, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		if err == ErrRecordNotFound {
			slog.Info("Verification token not found")
			return OutcomeNotFound, nil
		}
		slog.Error("Failed to get verification record", "error", err)
		return OutcomeNotFound, err
	}

	if rec.Verified {
		slog.Info("Record already verified", "record_id", rec.ID, "verified_at", rec.VerifiedAt)
		return OutcomeAlreadyVerified, nil
	}

	if time.Now().UTC().After(rec.ExpiresAt) {
		slog.Warn("Verification token expired", "record_id", rec.ID, "expires_at", rec.ExpiresAt)
		return OutcomeNotFound, nil
	}

	flipped, err := s.repo.MarkVerified(ctx, token)
	if err != nil {
		slog.Error("Failed to mark record as verified", "record_id", rec.ID, "error", err)
		return OutcomeNotFound, fmt.Errorf("failed to verify record: %w", err)
	}

	if !flipped {
		// Lost the race against a concurrent redemption of the same token.
		slog.Info("Record verified concurrently", "record_id", rec.ID)
		return OutcomeAlreadyVerified, nil
	}

	slog.Info("Record verified successfully", "record_id", rec.ID)
	return OutcomeVerified, nil
}

// CleanupExpired soft deletes all expired unverified records
func (s *VerificationService) CleanupExpired(ctx context.Context) error {
	if err := s.repo.CleanupExpired(ctx); err != nil {
		slog.Error("Failed to cleanup expired records", "error", err)
		return fmt.Errorf("failed to cleanup expired records: %w", err)
	}

	slog.Info("Expired records cleaned up successfully")
	return nil
}

// sendVerificationEmail sends the confirmation email
func (s *VerificationService) sendVerificationEmail(email, name, verificationLink string) error {
	if s.notificationManager == nil {
		slog.Warn("Notification manager not configured, skipping email send")
		return nil
	}

	notificationData := notification.NotificationData{
		To: email,
		Data: map[string]string{
			"Name":             name,
			"VerificationLink": verificationLink,
			"ExpiryHours":      fmt.Sprintf("%.0f", s.tokenExpiry.Hours()),
		},
	}

	if err := s.notificationManager.Send(notification.SignupVerificationNotice, notificationData); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}

	return nil
}

// validTokenFormat rejects obviously malformed tokens before the store is
// consulted. Issued tokens are always 64 lowercase hex characters.
func validTokenFormat(token string) bool {
	if len(token) != tokenHexLength {
		return false
	}
	_, err := hex.DecodeString(token)
	return err == nil
}
