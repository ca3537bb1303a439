package notifications

import (
	"context"

	"github.com/mockskills/collabzone/internal/domain/registration"
)

// Message is what a transport delivers.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
}

// Transport is the outbound sink. Send errors are reported to the caller,
// which decides whether they matter.
type Transport interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

type Outcome string

const (
	OutcomeSent    Outcome = "sent"
	OutcomeFailed  Outcome = "failed"
	OutcomeQueued  Outcome = "queued"
	OutcomeDropped Outcome = "dropped"
)

// Notifier sends the registration confirmation. Implementations never
// return transport errors; the outcome is for logging only.
type Notifier interface {
	SendRegistrationConfirmation(ctx context.Context, reg registration.Registration) Outcome
}

// Discard is a Notifier for processes that never confirm, like the repair worker.
type Discard struct{}

func (Discard) SendRegistrationConfirmation(context.Context, registration.Registration) Outcome {
	return OutcomeDropped
}
