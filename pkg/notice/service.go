package notice

import (
	"embed"
	"log/slog"

	"github.com/tendant/simple-signup/pkg/notification"
)

//go:embed templates/*
var templateFiles embed.FS

func loadTemplate(filename string) string {
	content, err := templateFiles.ReadFile(filename)
	if err != nil {
		slog.Error("Error reading template file!", "err", err, "filename", filename)
		return ""
	}
	return string(content)
}

// NewNotificationManager creates a notification manager with the signup
// notice templates registered against an SMTP email notifier.
func NewNotificationManager(smtpConfig notification.SMTPConfig) (*notification.NotificationManager, error) {
	notificationManager := notification.NewNotificationManager()

	emailNotifier, err := notification.NewEmailNotifier(smtpConfig)
	if err != nil {
		return nil, err
	}

	notificationManager.RegisterNotifier(notification.EmailSystem, emailNotifier)

	err = notificationManager.RegisterNotification(notification.SignupVerificationNotice, notification.EmailSystem, notification.NoticeTemplate{
		Subject: "Please confirm your email address",
		Text:    loadTemplate("templates/email/signup_verification.tmpl"),
		Html:    loadTemplate("templates/email/signup_verification.html"),
	})
	if err != nil {
		slog.Error("failed to register signup verification notification", "error", err)
		return nil, err
	}

	return notificationManager, nil
}
