package api

// Status messages returned by the registration endpoint. Kept generic on
// purpose: rejection responses must not reveal which check failed beyond
// what the user can act on.
const (
	MsgRegistered           = "Thanks for signing up! Please check your inbox for a confirmation link."
	MsgInvalidSubmission    = "Your form session is invalid or has expired. Please reload the page and try again."
	MsgInvalidInput         = "Please provide a valid name and email address."
	MsgCaptchaFailed        = "Captcha verification failed. Please try again."
	MsgRegistrationDisabled = "Registration is currently closed."
	MsgTooManyAttempts      = "Too many sign-up attempts for this address. Please try again later."
	MsgServerError          = "Something went wrong on our side. Please try again later."
)
