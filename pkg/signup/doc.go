// Package signup orchestrates the registration flow: rate limiting and the
// CSRF check happen first, then input validation, then the captcha
// collaborator, and only then is a verification token issued and the
// confirmation email sent.
//
// # Basic Usage
//
//	service := signup.NewSignupService(
//		signup.WithVerificationService(verificationService),
//		signup.WithCsrfProtocol(csrfProtocol),
//		signup.WithCaptchaVerifier(captchaVerifier),
//	)
//
//	err := service.Register(ctx, signup.RegisterRequest{
//		SessionID:       sessionID,
//		CsrfToken:       submittedToken,
//		CaptchaResponse: captchaResponse,
//		Name:            "Ann",
//		Email:           "ann@example.com",
//	})
package signup
