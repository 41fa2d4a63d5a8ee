package api

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-signup/pkg/captcha"
	"github.com/tendant/simple-signup/pkg/csrf"
	"github.com/tendant/simple-signup/pkg/notification"
	"github.com/tendant/simple-signup/pkg/secheaders"
	"github.com/tendant/simple-signup/pkg/signup"
	"github.com/tendant/simple-signup/pkg/verification"
	verificationapi "github.com/tendant/simple-signup/pkg/verification/api"
)

var csrfFieldPattern = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)

var verifyLinkPattern = regexp.MustCompile(`\?t=([0-9a-f]{64})`)

func setupTestServer(t *testing.T) (*httptest.Server, *notification.MockNotifier) {
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
	signupService := signup.NewSignupService(
		signup.WithVerificationService(verificationService),
		signup.WithCsrfProtocol(csrf.NewProtocol(csrf.NewInMemoryStore())),
		signup.WithCaptchaVerifier(&captcha.StubVerifier{Result: captcha.Result{Success: true}}),
	)

	policy := secheaders.DefaultPolicy()

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(policy.Middleware)
		r.Use(SessionMiddleware(secheaders.NewCookieSetter()))
		Routes(r, NewHandler(signupService))
		verificationapi.Routes(r, verificationapi.NewHandler(verificationService, false))
	})

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server, notifier
}

func newClient(t *testing.T) *http.Client {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func fetchForm(t *testing.T, client *http.Client, server *httptest.Server) string {
	resp, err := client.Get(server.URL + "/signup")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := readBody(t, resp)
	match := csrfFieldPattern.FindStringSubmatch(body)
	require.Len(t, match, 2, "form must carry a hidden csrf field")
	return match[1]
}

func readBody(t *testing.T, resp *http.Response) string {
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func submitForm(t *testing.T, client *http.Client, server *httptest.Server, form url.Values) *http.Response {
	resp, err := client.PostForm(server.URL+"/signup", form)
	require.NoError(t, err)
	return resp
}

func TestSignupFlow(t *testing.T) {
	server, notifier := setupTestServer(t)
	client := newClient(t)

	csrfToken := fetchForm(t, client, server)

	resp := submitForm(t, client, server, url.Values{
		"csrf_token":       {csrfToken},
		"name":             {"Ann"},
		"email":            {"ann@example.com"},
		"subscribed":       {"on"},
		"captcha_response": {"captcha-ok"},
	})
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), MsgRegistered)

	require.Len(t, notifier.SentNotifications, 1)
	sent := notifier.SentNotifications[0]
	assert.Equal(t, "ann@example.com", sent.To)

	match := verifyLinkPattern.FindStringSubmatch(sent.Data["VerificationLink"])
	require.Len(t, match, 2, "mail must contain a verification link with a 64-hex token")
	token := match[1]

	t.Run("Verify", func(t *testing.T) {
		resp, err := client.Get(server.URL + "/verify?t=" + token)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, readBody(t, resp), verificationapi.MsgVerified)
	})

	t.Run("VerifyAgain", func(t *testing.T) {
		resp, err := client.Get(server.URL + "/verify?t=" + token)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, readBody(t, resp), verificationapi.MsgAlreadyVerified)
	})

	t.Run("VerifyUnknownToken", func(t *testing.T) {
		resp, err := client.Get(server.URL + "/verify?t=" + strings.Repeat("0", 64))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Contains(t, readBody(t, resp), verificationapi.MsgNotFound)
	})
}

func TestSignup_MissingCsrfToken(t *testing.T) {
	server, notifier := setupTestServer(t)
	client := newClient(t)

	fetchForm(t, client, server)

	resp := submitForm(t, client, server, url.Values{
		"name":             {"Ann"},
		"email":            {"ann@example.com"},
		"captcha_response": {"captcha-ok"},
	})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), MsgInvalidSubmission)
	assert.Empty(t, notifier.SentNotifications)
}

func TestSignup_ReplayedCsrfToken(t *testing.T) {
	server, _ := setupTestServer(t)
	client := newClient(t)

	csrfToken := fetchForm(t, client, server)
	form := url.Values{
		"csrf_token":       {csrfToken},
		"name":             {"Ann"},
		"email":            {"ann@example.com"},
		"captcha_response": {"captcha-ok"},
	}

	resp := submitForm(t, client, server, form)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	form.Set("email", "replay@example.com")
	resp = submitForm(t, client, server, form)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestSignup_CsrfBoundToSession(t *testing.T) {
	server, _ := setupTestServer(t)

	victim := newClient(t)
	csrfToken := fetchForm(t, victim, server)

	// A different session presenting the victim's token must be rejected.
	attacker := newClient(t)
	fetchForm(t, attacker, server)

	resp := submitForm(t, attacker, server, url.Values{
		"csrf_token":       {csrfToken},
		"name":             {"Mallory"},
		"email":            {"mallory@example.com"},
		"captcha_response": {"captcha-ok"},
	})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestSignup_InvalidInput(t *testing.T) {
	server, _ := setupTestServer(t)
	client := newClient(t)

	csrfToken := fetchForm(t, client, server)

	resp := submitForm(t, client, server, url.Values{
		"csrf_token":       {csrfToken},
		"name":             {"Ann"},
		"email":            {"not-an-address"},
		"captcha_response": {"captcha-ok"},
	})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), MsgInvalidInput)
}

func TestSignup_SessionCookieIssued(t *testing.T) {
	server, _ := setupTestServer(t)
	client := newClient(t)

	resp, err := client.Get(server.URL + "/signup")
	require.NoError(t, err)
	resp.Body.Close()

	serverURL, err := url.Parse(server.URL)
	require.NoError(t, err)

	found := false
	for _, cookie := range client.Jar.Cookies(serverURL) {
		if cookie.Name == SessionCookieName {
			found = true
		}
	}
	assert.True(t, found, "first visit must set the session cookie")
}

func TestSignup_SecurityHeaders(t *testing.T) {
	server, _ := setupTestServer(t)
	client := newClient(t)

	resp, err := client.Get(server.URL + "/signup")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Contains(t, resp.Header.Get("Content-Security-Policy"), "'nonce-")
	assert.Empty(t, resp.Header.Get("Strict-Transport-Security"), "no HSTS over plaintext")
}
