package signup

import "errors"

var (
	// ErrRegistrationDisabled is returned when registration is turned off
	ErrRegistrationDisabled = errors.New("registration is currently disabled")

	// ErrInvalidCsrfToken is returned when the CSRF check fails. The request
	// is rejected before any external service is consulted.
	ErrInvalidCsrfToken = errors.New("invalid or missing csrf token")

	// ErrInvalidInput is returned when required form fields are missing or malformed
	ErrInvalidInput = errors.New("invalid registration input")

	// ErrCaptchaFailed is returned when the captcha service rejects the response
	ErrCaptchaFailed = errors.New("captcha verification failed")

	// ErrCaptchaUnavailable is returned when the captcha service cannot be reached
	ErrCaptchaUnavailable = errors.New("captcha service unavailable")
)
