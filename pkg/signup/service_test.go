package signup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-signup/pkg/captcha"
	"github.com/tendant/simple-signup/pkg/csrf"
	"github.com/tendant/simple-signup/pkg/notification"
	"github.com/tendant/simple-signup/pkg/verification"
)

// countingVerifier wraps a stub and records whether Verify was reached.
type countingVerifier struct {
	stub  captcha.StubVerifier
	calls int
}

func (c *countingVerifier) Verify(ctx context.Context, response, remoteIP string) (captcha.Result, error) {
	c.calls++
	return c.stub.Verify(ctx, response, remoteIP)
}

type testHarness struct {
	service      *SignupService
	csrfProtocol *csrf.Protocol
	verifier     *countingVerifier
	notifier     *notification.MockNotifier
}

func setupSignupService(t *testing.T, opts ...SignupServiceOption) *testHarness {
	repo, err := verification.NewFileRegistrationRepository(t.TempDir())
	require.NoError(t, err)

	notifier := &notification.MockNotifier{}
	manager := notification.NewNotificationManager()
	manager.RegisterNotifier(notification.EmailSystem, notifier)
	err = manager.RegisterNotification(notification.SignupVerificationNotice, notification.EmailSystem, notification.NoticeTemplate{
		Subject: "Please confirm your email address",
		Text:    "{{.Name}}: {{.VerificationLink}}",
	})
	require.NoError(t, err)

	verificationService := verification.NewVerificationService(repo, manager, "http://localhost:4000")
	csrfProtocol := csrf.NewProtocol(csrf.NewInMemoryStore())
	verifier := &countingVerifier{
		stub: captcha.StubVerifier{Result: captcha.Result{Success: true}},
	}

	allOpts := append([]SignupServiceOption{
		WithVerificationService(verificationService),
		WithCsrfProtocol(csrfProtocol),
		WithCaptchaVerifier(verifier),
	}, opts...)

	return &testHarness{
		service:      NewSignupService(allOpts...),
		csrfProtocol: csrfProtocol,
		verifier:     verifier,
		notifier:     notifier,
	}
}

func validRequest(t *testing.T, h *testHarness) RegisterRequest {
	token, err := h.service.IssueFormToken("session-1")
	require.NoError(t, err)

	return RegisterRequest{
		SessionID:       "session-1",
		CsrfToken:       token,
		CaptchaResponse: "captcha-ok",
		Name:            "Ann",
		Email:           "ann@example.com",
		Subscribed:      true,
		SourceIP:        "203.0.113.7",
	}
}

func TestRegister(t *testing.T) {
	h := setupSignupService(t)
	ctx := context.Background()

	err := h.service.Register(ctx, validRequest(t, h))
	require.NoError(t, err)

	assert.Equal(t, 1, h.verifier.calls)
	require.Len(t, h.notifier.SentNotifications, 1)
	assert.Equal(t, "ann@example.com", h.notifier.SentNotifications[0].To)
}

func TestRegister_CsrfRejectedBeforeSideEffects(t *testing.T) {
	h := setupSignupService(t)
	ctx := context.Background()

	req := validRequest(t, h)
	req.CsrfToken = "forged"

	err := h.service.Register(ctx, req)
	assert.ErrorIs(t, err, ErrInvalidCsrfToken)

	// Forged submissions must not reach the captcha service or the mailer.
	assert.Equal(t, 0, h.verifier.calls)
	assert.Empty(t, h.notifier.SentNotifications)
}

func TestRegister_CsrfTokenIsOneShot(t *testing.T) {
	h := setupSignupService(t)
	ctx := context.Background()

	req := validRequest(t, h)
	require.NoError(t, h.service.Register(ctx, req))

	req.Email = "replay@example.com"
	err := h.service.Register(ctx, req)
	assert.ErrorIs(t, err, ErrInvalidCsrfToken)
}

func TestRegister_InvalidInput(t *testing.T) {
	h := setupSignupService(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		email string
		user  string
	}{
		{name: "EmptyName", email: "ann@example.com", user: ""},
		{name: "BlankName", email: "ann@example.com", user: "   "},
		{name: "EmptyEmail", email: "", user: "Ann"},
		{name: "MalformedEmail", email: "not-an-address", user: "Ann"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest(t, h)
			req.Name = tc.user
			req.Email = tc.email

			err := h.service.Register(ctx, req)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	assert.Equal(t, 0, h.verifier.calls, "input validation runs before the captcha check")
}

func TestRegister_CaptchaFailed(t *testing.T) {
	h := setupSignupService(t)
	h.verifier.stub = captcha.StubVerifier{Result: captcha.Result{Success: false, ErrorCodes: []string{"invalid-input-response"}}}
	ctx := context.Background()

	err := h.service.Register(ctx, validRequest(t, h))
	assert.ErrorIs(t, err, ErrCaptchaFailed)
	assert.Empty(t, h.notifier.SentNotifications)
}

func TestRegister_CaptchaUnavailable(t *testing.T) {
	h := setupSignupService(t)
	h.verifier.stub = captcha.StubVerifier{Err: assert.AnError}
	ctx := context.Background()

	err := h.service.Register(ctx, validRequest(t, h))
	assert.ErrorIs(t, err, ErrCaptchaUnavailable)
	assert.Empty(t, h.notifier.SentNotifications)
}

func TestRegister_NoCaptchaVerifier(t *testing.T) {
	h := setupSignupService(t)
	h.service.captchaVerifier = nil
	ctx := context.Background()

	err := h.service.Register(ctx, validRequest(t, h))
	require.NoError(t, err)
	assert.Len(t, h.notifier.SentNotifications, 1)
}

func TestRegister_Disabled(t *testing.T) {
	h := setupSignupService(t, WithRegistrationEnabled(false))
	ctx := context.Background()

	err := h.service.Register(ctx, validRequest(t, h))
	assert.ErrorIs(t, err, ErrRegistrationDisabled)
	assert.Equal(t, 0, h.verifier.calls)
}
