// Package captcha verifies captcha responses against a remote siteverify
// endpoint. The verifier is a collaborator with its own timeout contract;
// callers do not retry it.
package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Result is the outcome reported by the captcha service.
type Result struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes,omitempty"`
}

// Verifier checks a submitted captcha response.
type Verifier interface {
	Verify(ctx context.Context, response, remoteIP string) (Result, error)
}

// HTTPVerifier calls a siteverify-style endpoint over HTTP.
type HTTPVerifier struct {
	endpoint string
	secret   string
	client   *http.Client
}

// NewHTTPVerifier creates a verifier for the given siteverify endpoint.
func NewHTTPVerifier(endpoint, secret string) *HTTPVerifier {
	return &HTTPVerifier{
		endpoint: endpoint,
		secret:   secret,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Verify posts the captcha response to the siteverify endpoint.
func (v *HTTPVerifier) Verify(ctx context.Context, response, remoteIP string) (Result, error) {
	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", response)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return Result{}, fmt.Errorf("failed to build captcha request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("captcha service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("captcha service returned status %d", resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Result{}, fmt.Errorf("failed to decode captcha response: %w", err)
	}

	return result, nil
}

// StubVerifier returns a fixed result. Intended for tests and for
// deployments with the captcha disabled.
type StubVerifier struct {
	Result Result
	Err    error
}

func (s *StubVerifier) Verify(ctx context.Context, response, remoteIP string) (Result, error) {
	return s.Result, s.Err
}
