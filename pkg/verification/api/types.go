package api

// Status messages returned by the verification endpoint. The not-found
// message is shared by every failure cause so responses cannot be used to
// probe which tokens exist.
const (
	MsgVerified        = "Your email address has been successfully validated."
	MsgAlreadyVerified = "Your email address has already been validated."
	MsgNotFound        = "This verification link is invalid or has expired."
	MsgServerError     = "Something went wrong on our side. Please try again later."
)
