package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/simple-signup/pkg/verification"
)

// Handler serves the verification endpoint.
type Handler struct {
	service *verification.VerificationService
	debug   bool
}

// NewHandler creates a new verification API handler. With debug enabled,
// infrastructure errors are echoed to the client; never enable it outside
// development.
func NewHandler(service *verification.VerificationService, debug bool) *Handler {
	return &Handler{
		service: service,
		debug:   debug,
	}
}

// Routes mounts the verification endpoint on a router.
func Routes(r chi.Router, h *Handler) {
	r.Get("/verify", h.Verify)
}

// Verify handles GET /verify?t=<token>. The only side effect is the one-time
// state flip performed by the service.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("t")
	if token == "" {
		render.Status(r, http.StatusNotFound)
		render.PlainText(w, r, MsgNotFound)
		return
	}

	outcome, err := h.service.Redeem(r.Context(), token)
	if err != nil {
		slog.Error("Failed to redeem verification token", "error", err)
		if h.debug {
			render.Status(r, http.StatusInternalServerError)
			render.PlainText(w, r, err.Error())
			return
		}
		render.Status(r, http.StatusInternalServerError)
		render.PlainText(w, r, MsgServerError)
		return
	}

	switch outcome {
	case verification.OutcomeVerified:
		render.Status(r, http.StatusOK)
		render.PlainText(w, r, MsgVerified)
	case verification.OutcomeAlreadyVerified:
		render.Status(r, http.StatusOK)
		render.PlainText(w, r, MsgAlreadyVerified)
	default:
		render.Status(r, http.StatusNotFound)
		render.PlainText(w, r, MsgNotFound)
	}
}
