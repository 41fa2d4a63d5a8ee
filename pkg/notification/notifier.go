package notification

// NotificationSystem represents a delivery channel (e.g. email).
type NotificationSystem string

// NoticeType identifies a kind of notice (e.g. "signup_verification").
type NoticeType string

const (
	EmailSystem NotificationSystem = "email"

	// SignupVerificationNotice is sent after a registration is accepted and
	// carries the confirmation link.
	SignupVerificationNotice NoticeType = "signup_verification"
)

// NoticeTemplate holds the renderable parts of a notice. Text and Html are
// Go templates executed against NotificationData.Data.
type NoticeTemplate struct {
	Subject string
	Text    string
	Html    string
}

// NotificationData is the per-send payload.
type NotificationData struct {
	To   string            // Recipient identifier (e.g. email address)
	Data map[string]string // Template data (e.g. Name, VerificationLink)
}

// Notifier sends a rendered notice over one channel.
type Notifier interface {
	Send(noticeType NoticeType, notification NotificationData, template NoticeTemplate) error
}
