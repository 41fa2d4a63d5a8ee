package csrf

import (
	"crypto/subtle"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/tendant/simple-signup/pkg/securetoken"
)

// FormFieldName is the name of the hidden input carrying the token.
const FormFieldName = "csrf_token"

// DefaultExpiry is the validity window for an issued token.
const DefaultExpiry = 3600 * time.Second

const tokenByteLength = 32

// Protocol issues and validates per-form CSRF tokens against a Store.
type Protocol struct {
	store  Store
	expiry time.Duration
}

// ProtocolOption defines configuration options
type ProtocolOption func(*Protocol)

// WithExpiry sets the token validity window
func WithExpiry(expiry time.Duration) ProtocolOption {
	return func(p *Protocol) {
		p.expiry = expiry
	}
}

// NewProtocol creates a CSRF protocol backed by the given store.
func NewProtocol(store Store, opts ...ProtocolOption) *Protocol {
	p := &Protocol{
		store:  store,
		expiry: DefaultExpiry,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// IssueToken generates a fresh token for the form and stores it, replacing
// any prior token under the same name. Call once per form render.
func (p *Protocol) IssueToken(sessionID, formName string) (string, error) {
	token, err := securetoken.GenerateNonce(tokenByteLength)
	if err != nil {
		slog.Error("Failed to generate CSRF token", "error", err)
		return "", err
	}

	p.store.Put(sessionID, formName, Entry{
		Token:    token,
		IssuedAt: time.Now().UTC(),
	})

	return token, nil
}

// ValidateToken checks a submitted candidate against the stored token.
// It fails closed: a missing entry, an expired entry, or a mismatch all
// report false. Expired entries are purged as a side effect. With consume
// set, the check and the delete run as one atomic store operation, so the
// token validates exactly once even against concurrent submissions.
func (p *Protocol) ValidateToken(sessionID, formName, candidate string, consume bool) bool {
	if consume {
		return p.store.Consume(sessionID, formName, candidate, time.Now().UTC().Add(-p.expiry))
	}

	entry, exists := p.store.Get(sessionID, formName)
	if !exists {
		return false
	}

	if time.Since(entry.IssuedAt) > p.expiry {
		p.store.Delete(sessionID, formName)
		slog.Info("CSRF token expired", "form", formName)
		return false
	}

	// Constant-time comparison; a short-circuiting compare would leak the
	// position of the first differing byte.
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(entry.Token)) == 1
}

// CleanupExpired sweeps entries older than the expiry window. Intended to
// run periodically, off the validation hot path.
func (p *Protocol) CleanupExpired() {
	p.store.DeleteExpired(time.Now().UTC().Add(-p.expiry))
}

// HiddenField renders the token as an escaped hidden form input.
func HiddenField(token string) template.HTML {
	return template.HTML(fmt.Sprintf(
		`<input type="hidden" name="%s" value="%s">`,
		FormFieldName, template.HTMLEscapeString(token),
	))
}
