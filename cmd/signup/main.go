package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/tendant/chi-demo/app"
	dbutils "github.com/tendant/db-utils/db"
	"github.com/tendant/simple-signup/pkg/captcha"
	"github.com/tendant/simple-signup/pkg/config"
	"github.com/tendant/simple-signup/pkg/csrf"
	"github.com/tendant/simple-signup/pkg/notice"
	"github.com/tendant/simple-signup/pkg/ratelimit"
	"github.com/tendant/simple-signup/pkg/secheaders"
	"github.com/tendant/simple-signup/pkg/signup"
	signupapi "github.com/tendant/simple-signup/pkg/signup/api"
	"github.com/tendant/simple-signup/pkg/verification"
	verificationapi "github.com/tendant/simple-signup/pkg/verification/api"
)

type Config struct {
	AppConfig       app.AppConfig
	DbConfig        config.DatabaseConfig
	EmailConfig     config.EmailConfig
	SignupConfig    config.SignupConfig
	CaptchaConfig   config.CaptchaConfig
	RateLimitConfig config.RateLimitConfig
}

func main() {

	cfg := Config{}
	cleanenv.ReadEnv(&cfg)

	server := app.DefaultApp()

	app.RoutesHealthz(server.R)
	app.RoutesHealthzReady(server.R)

	// Registration repository: postgres by default, file storage for
	// development setups without a database.
	repoConfig := verification.RepositoryConfig{DataDir: cfg.SignupConfig.DataDir}
	if cfg.SignupConfig.PersistenceType != "file" {
		pool, err := dbutils.NewDbPool(context.Background(), cfg.DbConfig.ToDbConfig())
		if err != nil {
			slog.Error("Failed creating dbpool", "db", cfg.DbConfig.Database, "host", cfg.DbConfig.Host, "port", cfg.DbConfig.Port, "user", cfg.DbConfig.User)
			os.Exit(-1)
		}
		repoConfig.Pool = pool
	}

	repo, err := verification.NewRegistrationRepository(cfg.SignupConfig.PersistenceType, repoConfig)
	if err != nil {
		slog.Error("Failed creating registration repository", "err", err)
		os.Exit(-1)
	}

	notificationManager, err := notice.NewNotificationManager(cfg.EmailConfig.ToSMTPConfig())
	if err != nil {
		slog.Error("Failed creating notification manager", "err", err)
		os.Exit(-1)
	}

	verificationService := verification.NewVerificationService(
		repo,
		notificationManager,
		cfg.SignupConfig.BaseURL,
		verification.WithTokenExpiry(cfg.SignupConfig.TokenExpiry),
		verification.WithResendLimit(cfg.SignupConfig.ResendLimit),
		verification.WithResendWindow(cfg.SignupConfig.ResendWindow),
	)

	csrfProtocol := csrf.NewProtocol(
		csrf.NewInMemoryStore(),
		csrf.WithExpiry(cfg.SignupConfig.CsrfExpiry),
	)

	var captchaVerifier captcha.Verifier
	if cfg.CaptchaConfig.Secret != "" {
		captchaVerifier = captcha.NewHTTPVerifier(cfg.CaptchaConfig.Endpoint, cfg.CaptchaConfig.Secret)
	} else {
		slog.Warn("Captcha secret not configured, captcha check disabled")
	}

	signupService := signup.NewSignupService(
		signup.WithVerificationService(verificationService),
		signup.WithCsrfProtocol(csrfProtocol),
		signup.WithCaptchaVerifier(captchaVerifier),
		signup.WithRegistrationEnabled(cfg.SignupConfig.RegistrationEnabled),
	)

	signupHandler := signupapi.NewHandler(signupService,
		signupapi.WithCaptchaWidget(cfg.CaptchaConfig.SiteKey, cfg.CaptchaConfig.ScriptURL),
		signupapi.WithDebug(cfg.SignupConfig.Debug),
	)
	verificationHandler := verificationapi.NewHandler(verificationService, cfg.SignupConfig.Debug)

	rateLimiter := ratelimit.NewMiddleware(&ratelimit.Config{
		Enabled:    cfg.RateLimitConfig.Enabled,
		Capacity:   cfg.RateLimitConfig.Capacity,
		RefillRate: cfg.RateLimitConfig.RefillRate,
		BucketTTL:  1 * time.Hour,
	})

	policy := secheaders.DefaultPolicy()
	cookieSetter := secheaders.NewCookieSetter()

	server.R.Group(func(r chi.Router) {
		r.Use(policy.Middleware)
		r.Use(rateLimiter.Handler)
		r.Use(signupapi.SessionMiddleware(cookieSetter))
		signupapi.Routes(r, signupHandler)
		verificationapi.Routes(r, verificationHandler)
	})

	// Background maintenance: sweep expired CSRF entries and soft delete
	// expired registrations. Both are idempotent and restartable.
	go func() {
		ticker := time.NewTicker(cfg.SignupConfig.CleanupInterval)
		defer ticker.Stop()
		for range ticker.C {
			csrfProtocol.CleanupExpired()
			if err := verificationService.CleanupExpired(context.Background()); err != nil {
				slog.Error("Cleanup of expired registrations failed", "err", err)
			}
		}
	}()

	server.Run()

}
