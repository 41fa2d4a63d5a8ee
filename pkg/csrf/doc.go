// Package csrf provides per-form CSRF token issuance and validation.
//
// Tokens are random, session-scoped, and keyed by form name so multiple
// independent forms can coexist in one session. Issuing a token for a form
// replaces the previous one; validation uses a constant-time comparison,
// enforces a 3600 second expiry window, and consumes the token on success
// so each token validates at most once.
package csrf
