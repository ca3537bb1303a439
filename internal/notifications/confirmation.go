package notifications

import (
	"context"
	"log/slog"
	"time"

	"github.com/mockskills/collabzone/internal/domain/registration"
	"github.com/mockskills/collabzone/internal/observability"
)

// ConfirmationNotifier renders the confirmation and hands it to a transport.
// Failures stop here.
type ConfirmationNotifier struct {
	transport    Transport
	supportEmail string
	log          *slog.Logger
	prom         *observability.Prom
}

func NewConfirmationNotifier(transport Transport, supportEmail string, log *slog.Logger, prom *observability.Prom) *ConfirmationNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &ConfirmationNotifier{
		transport:    transport,
		supportEmail: supportEmail,
		log:          log,
		prom:         prom,
	}
}

func (n *ConfirmationNotifier) SendRegistrationConfirmation(ctx context.Context, reg registration.Registration) Outcome {
	name := n.transport.Name()

	msg, err := BuildConfirmation(reg, n.supportEmail)
	if err != nil {
		n.log.ErrorContext(ctx, "confirmation render failed", "email", reg.Email, "err", err)
		n.prom.ObserveNotification(name, string(OutcomeFailed), 0)
		return OutcomeFailed
	}

	n.log.InfoContext(ctx, "sending confirmation", "email", reg.Email, "transport", name)

	start := time.Now()
	err = n.transport.Send(ctx, msg)
	elapsed := time.Since(start)

	if err != nil {
		n.log.ErrorContext(ctx, "confirmation send failed",
			"email", reg.Email,
			"formatted_id", reg.FormattedID,
			"transport", name,
			"err", err,
		)
		n.prom.ObserveNotification(name, string(OutcomeFailed), elapsed)
		return OutcomeFailed
	}

	n.log.InfoContext(ctx, "confirmation sent", "email", reg.Email, "formatted_id", reg.FormattedID, "transport", name)
	n.prom.ObserveNotification(name, string(OutcomeSent), elapsed)

	return OutcomeSent
}
