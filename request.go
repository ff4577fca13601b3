package newsletter

// SignupRequest is the form posted to start a subscription
type SignupRequest struct {
	Name     string `validate:"required,max=100"`
	Email    string `validate:"required,email,max=254"`
	Password string `validate:"required,max=128"`
}

// VerifyRequest is the form posted with the one-time code.
// The email echoed back by the form is not trusted; the pending signup holds it.
type VerifyRequest struct {
	OTP string `validate:"required"`
}

// UnsubscribeRequest is the form posted to delete a subscription
type UnsubscribeRequest struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}
