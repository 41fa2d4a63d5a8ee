package api

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/jinzhu/copier"
	"github.com/tendant/simple-signup/pkg/csrf"
	"github.com/tendant/simple-signup/pkg/ratelimit"
	"github.com/tendant/simple-signup/pkg/secheaders"
	"github.com/tendant/simple-signup/pkg/signup"
	"github.com/tendant/simple-signup/pkg/verification"
)

//go:embed templates/*
var templateFiles embed.FS

var formTemplate = template.Must(template.ParseFS(templateFiles, "templates/signup_form.html"))

// Handler serves the registration form and submission endpoints.
type Handler struct {
	service          *signup.SignupService
	captchaSiteKey   string
	captchaScriptURL string
	debug            bool
}

// HandlerOption defines configuration options
type HandlerOption func(*Handler)

// WithCaptchaWidget sets the site key and script URL rendered into the form
func WithCaptchaWidget(siteKey, scriptURL string) HandlerOption {
	return func(h *Handler) {
		h.captchaSiteKey = siteKey
		h.captchaScriptURL = scriptURL
	}
}

// WithDebug echoes infrastructure errors to the client. Never enable it
// outside development.
func WithDebug(debug bool) HandlerOption {
	return func(h *Handler) {
		h.debug = debug
	}
}

// NewHandler creates a new signup API handler
func NewHandler(service *signup.SignupService, opts ...HandlerOption) *Handler {
	h := &Handler{
		service: service,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Routes mounts the signup endpoints on a router.
func Routes(r chi.Router, h *Handler) {
	r.Get("/signup", h.ShowForm)
	r.Post("/signup", h.Register)
}

// RegisterForm mirrors the submitted form fields.
type RegisterForm struct {
	Name       string
	Email      string
	Subscribed bool
}

type formPage struct {
	CsrfField        template.HTML
	Nonce            string
	CaptchaSiteKey   string
	CaptchaScriptURL string
}

// ShowForm handles GET /signup. Rendering the form issues a fresh CSRF
// token, replacing any previous one for this session.
func (h *Handler) ShowForm(w http.ResponseWriter, r *http.Request) {
	sessionID := SessionID(r.Context())
	if sessionID == "" {
		render.Status(r, http.StatusInternalServerError)
		render.PlainText(w, r, MsgServerError)
		return
	}

	token, err := h.service.IssueFormToken(sessionID)
	if err != nil {
		slog.Error("Failed to issue csrf token", "error", err)
		render.Status(r, http.StatusInternalServerError)
		render.PlainText(w, r, MsgServerError)
		return
	}

	page := formPage{
		CsrfField:        csrf.HiddenField(token),
		Nonce:            secheaders.Nonce(r.Context()),
		CaptchaSiteKey:   h.captchaSiteKey,
		CaptchaScriptURL: h.captchaScriptURL,
	}

	var buf bytes.Buffer
	if err := formTemplate.Execute(&buf, page); err != nil {
		slog.Error("Failed to render signup form", "error", err)
		render.Status(r, http.StatusInternalServerError)
		render.PlainText(w, r, MsgServerError)
		return
	}

	render.Status(r, http.StatusOK)
	render.HTML(w, r, buf.String())
}

// Register handles POST /signup.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.PlainText(w, r, MsgInvalidInput)
		return
	}

	form := RegisterForm{
		Name:       r.PostFormValue("name"),
		Email:      r.PostFormValue("email"),
		Subscribed: r.PostFormValue("subscribed") != "",
	}

	var req signup.RegisterRequest
	if err := copier.Copy(&req, &form); err != nil {
		slog.Error("Failed to copy form fields", "error", err)
		render.Status(r, http.StatusInternalServerError)
		render.PlainText(w, r, MsgServerError)
		return
	}
	req.SessionID = SessionID(r.Context())
	req.CsrfToken = r.PostFormValue(csrf.FormFieldName)
	req.CaptchaResponse = r.PostFormValue("captcha_response")
	req.SourceIP = ratelimit.ClientIP(r)

	err := h.service.Register(r.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		message := MsgServerError

		switch {
		case errors.Is(err, signup.ErrInvalidCsrfToken):
			status = http.StatusForbidden
			message = MsgInvalidSubmission
		case errors.Is(err, signup.ErrInvalidInput):
			status = http.StatusBadRequest
			message = MsgInvalidInput
		case errors.Is(err, signup.ErrCaptchaFailed):
			status = http.StatusBadRequest
			message = MsgCaptchaFailed
		case errors.Is(err, signup.ErrRegistrationDisabled):
			status = http.StatusForbidden
			message = MsgRegistrationDisabled
		case errors.Is(err, verification.ErrResendLimitExceeded):
			status = http.StatusTooManyRequests
			message = MsgTooManyAttempts
		default:
			slog.Error("Failed to process registration", "error", err)
			if h.debug {
				message = err.Error()
			}
		}

		render.Status(r, status)
		render.PlainText(w, r, message)
		return
	}

	render.Status(r, http.StatusOK)
	render.PlainText(w, r, MsgRegistered)
}
