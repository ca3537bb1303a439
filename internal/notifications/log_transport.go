package notifications

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

var errSimulatedOutage = errors.New("provider down (simulated)")

// LogTransportConfig lets local runs mimic a slow or failing provider.
type LogTransportConfig struct {
	Delay time.Duration
	Fail  bool
}

// LogTransport writes messages to the log instead of delivering them.
type LogTransport struct {
	log *slog.Logger
	cfg LogTransportConfig
}

func NewLogTransport(log *slog.Logger, cfg LogTransportConfig) *LogTransport {
	if log == nil {
		log = slog.Default()
	}
	return &LogTransport{log: log, cfg: cfg}
}

func (t *LogTransport) Name() string { return "log" }

func (t *LogTransport) Send(ctx context.Context, msg Message) error {
	if t.cfg.Delay > 0 {
		select {
		case <-time.After(t.cfg.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if t.cfg.Fail {
		return errSimulatedOutage
	}

	t.log.InfoContext(ctx, "notification.registration_confirmation",
		"to", msg.To,
		"subject", msg.Subject,
		"body_bytes", len(msg.HTMLBody),
	)
	return nil
}
