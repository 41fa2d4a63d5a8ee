// Package securetoken generates unpredictable secrets for verification
// tokens, CSRF tokens, and per-request CSP nonces.
//
// All output is drawn from crypto/rand. A failure of the underlying entropy
// source is returned as an error; callers must not proceed without a token.
package securetoken
