// Package secheaders applies a fixed set of response hardening headers
// (content security policy with a per-request script nonce, anti-framing,
// anti-sniffing, referrer and permissions policies, and conditional HSTS)
// and provides a cookie setter with matching attributes.
package secheaders
