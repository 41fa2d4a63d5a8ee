package config

import "time"

// SignupConfig holds the registration and verification settings
type SignupConfig struct {
	BaseURL             string        `env:"SIGNUP_BASE_URL" env-default:"http://localhost:4000"`
	PersistenceType     string        `env:"SIGNUP_PERSISTENCE" env-default:"postgres"`
	DataDir             string        `env:"SIGNUP_DATA_DIR" env-default:"./data"`
	TokenExpiry         time.Duration `env:"SIGNUP_TOKEN_EXPIRY" env-default:"72h"`
	CsrfExpiry          time.Duration `env:"SIGNUP_CSRF_EXPIRY" env-default:"1h"`
	ResendLimit         int           `env:"SIGNUP_RESEND_LIMIT" env-default:"3"`
	ResendWindow        time.Duration `env:"SIGNUP_RESEND_WINDOW" env-default:"1h"`
	RegistrationEnabled bool          `env:"SIGNUP_REGISTRATION_ENABLED" env-default:"true"`
	CleanupInterval     time.Duration `env:"SIGNUP_CLEANUP_INTERVAL" env-default:"1h"`
	// Debug reveals infrastructure error detail to clients. Development only.
	Debug bool `env:"SIGNUP_DEBUG" env-default:"false"`
}

// CaptchaConfig holds captcha verifier configuration. With an empty secret
// the captcha check is skipped.
type CaptchaConfig struct {
	Endpoint  string `env:"CAPTCHA_ENDPOINT" env-default:"https://challenges.cloudflare.com/turnstile/v0/siteverify"`
	Secret    string `env:"CAPTCHA_SECRET" env-default:""`
	SiteKey   string `env:"CAPTCHA_SITE_KEY" env-default:""`
	ScriptURL string `env:"CAPTCHA_SCRIPT_URL" env-default:"https://challenges.cloudflare.com/turnstile/v0/api.js"`
}

// RateLimitConfig holds the per-source-address limiter settings
type RateLimitConfig struct {
	Enabled    bool    `env:"RATELIMIT_ENABLED" env-default:"false"`
	Capacity   int     `env:"RATELIMIT_CAPACITY" env-default:"30"`
	RefillRate float64 `env:"RATELIMIT_REFILL_RATE" env-default:"0.5"`
}
