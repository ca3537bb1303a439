package registration

import "errors"

var (
	ErrInvalid    = errors.New("invalid registration")
	ErrEmailTaken = errors.New("email already registered")
	ErrNotFound   = errors.New("registration not found")
)

// Messages surfaced to the registrant.
const (
	MsgNameMissing  = "Please provide a valid name for registration."
	MsgEmailMissing = "Please provide a valid email address."
	MsgEmailTaken   = "The email you provided is already registered. Please use a different email."
	MsgNotFound     = "Sorry, no registration found with the provided ID. Please verify the ID and try again."
)

// RejectionError is a client-side failure with a human-readable reason.
// It unwraps to ErrInvalid or ErrEmailTaken.
type RejectionError struct {
	Err    error
	Field  string
	Reason string
}

func (e *RejectionError) Error() string {
	return e.Reason
}

func (e *RejectionError) Unwrap() error {
	return e.Err
}

func Invalid(field, reason string) *RejectionError {
	return &RejectionError{Err: ErrInvalid, Field: field, Reason: reason}
}

func EmailTaken() *RejectionError {
	return &RejectionError{Err: ErrEmailTaken, Field: "email", Reason: MsgEmailTaken}
}
