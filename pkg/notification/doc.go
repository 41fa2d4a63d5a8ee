// Package notification provides a unified interface for sending notices.
//
// The package defines the Notifier interface, an SMTP implementation backed
// by go-mail, and a NotificationManager that routes a NoticeType to every
// channel with a registered template. Templates are Go templates rendered
// against the per-send data map.
//
// # Basic Usage
//
//	manager := notification.NewNotificationManager()
//
//	emailNotifier, err := notification.NewEmailNotifier(smtpConfig)
//	if err != nil {
//		return err
//	}
//	manager.RegisterNotifier(notification.EmailSystem, emailNotifier)
//
//	manager.RegisterNotification(notification.SignupVerificationNotice, notification.EmailSystem,
//		notification.NoticeTemplate{
//			Subject: "Confirm your email address",
//			Html:    "<a href=\"{{.VerificationLink}}\">Confirm</a>",
//		})
//
//	err = manager.Send(notification.SignupVerificationNotice, notification.NotificationData{
//		To:   "user@example.com",
//		Data: map[string]string{"VerificationLink": link},
//	})
//
// A MockNotifier is provided for tests.
package notification
