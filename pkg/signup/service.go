package signup

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/tendant/simple-signup/pkg/captcha"
	"github.com/tendant/simple-signup/pkg/csrf"
	"github.com/tendant/simple-signup/pkg/verification"
)

// FormRegistration is the CSRF form name for the registration form.
const FormRegistration = "registration"

// SignupService handles registration business logic
type SignupService struct {
	verificationService *verification.VerificationService
	csrfProtocol        *csrf.Protocol
	captchaVerifier     captcha.Verifier
	registrationEnabled bool
}

// SignupServiceOption is a functional option for configuring SignupService
type SignupServiceOption func(*SignupService)

// NewSignupService creates a new SignupService with the given options
func NewSignupService(opts ...SignupServiceOption) *SignupService {
	s := &SignupService{
		registrationEnabled: true, // Default to enabled
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// WithVerificationService sets the verification service
func WithVerificationService(vs *verification.VerificationService) SignupServiceOption {
	return func(s *SignupService) {
		s.verificationService = vs
	}
}

// WithCsrfProtocol sets the CSRF protocol
func WithCsrfProtocol(p *csrf.Protocol) SignupServiceOption {
	return func(s *SignupService) {
		s.csrfProtocol = p
	}
}

// WithCaptchaVerifier sets the captcha verifier
func WithCaptchaVerifier(v captcha.Verifier) SignupServiceOption {
	return func(s *SignupService) {
		s.captchaVerifier = v
	}
}

// WithRegistrationEnabled sets whether registration is enabled
func WithRegistrationEnabled(enabled bool) SignupServiceOption {
	return func(s *SignupService) {
		s.registrationEnabled = enabled
	}
}

// IssueFormToken issues a fresh CSRF token for the registration form.
func (s *SignupService) IssueFormToken(sessionID string) (string, error) {
	return s.csrfProtocol.IssueToken(sessionID, FormRegistration)
}

// RegisterRequest carries a registration submission into Register.
type RegisterRequest struct {
	SessionID       string
	CsrfToken       string
	CaptchaResponse string
	Name            string
	Email           string
	Subscribed      bool
	SourceIP        string
}

// Register processes a registration submission. The CSRF check runs first
// and rejects hard, before the captcha service, the mailer, or the database
// are touched; a forged request must not trigger side effects.
func (s *SignupService) Register(ctx context.Context, req RegisterRequest) error {
	if !s.registrationEnabled {
		return ErrRegistrationDisabled
	}

	if !s.csrfProtocol.ValidateToken(req.SessionID, FormRegistration, req.CsrfToken, true) {
		slog.Warn("Registration rejected on csrf check", "ip", req.SourceIP)
		return ErrInvalidCsrfToken
	}

	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	if name == "" || email == "" {
		return ErrInvalidInput
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return ErrInvalidInput
	}

	if s.captchaVerifier != nil {
		result, err := s.captchaVerifier.Verify(ctx, req.CaptchaResponse, req.SourceIP)
		if err != nil {
			slog.Error("Captcha verification failed", "error", err)
			return fmt.Errorf("%w: %v", ErrCaptchaUnavailable, err)
		}
		if !result.Success {
			slog.Warn("Captcha rejected", "error_codes", result.ErrorCodes, "ip", req.SourceIP)
			return ErrCaptchaFailed
		}
	}

	_, err := s.verificationService.Issue(ctx, verification.RegistrationPayload{
		Email:      email,
		Name:       name,
		Subscribed: req.Subscribed,
		SourceIP:   req.SourceIP,
	})
	if err != nil {
		return err
	}

	return nil
}
