package securetoken

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// DefaultByteLength gives 256 bits of entropy, encoded as 64 hex characters.
const DefaultByteLength = 32

// Generate returns byteLength random bytes encoded as lowercase hexadecimal.
// The result is safe to embed in URLs and HTML attributes.
func Generate(byteLength int) (string, error) {
	b, err := randomBytes(byteLength)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GenerateNonce returns byteLength random bytes in unpadded base64 URL
// encoding, the shorter form used for CSP nonces and CSRF tokens.
func GenerateNonce(byteLength int) (string, error) {
	b, err := randomBytes(byteLength)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func randomBytes(n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("invalid token length: %d", n)
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %w", err)
	}
	return b, nil
}
