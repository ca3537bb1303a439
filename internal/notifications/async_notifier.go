package notifications

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mockskills/collabzone/internal/domain/registration"
	"github.com/mockskills/collabzone/internal/observability"
)

// queued keeps the request's values (trace, request id) without its cancellation.
type queued struct {
	ctx context.Context
	reg registration.Registration
}

// AsyncNotifier hands confirmations to a background goroutine so the caller
// never waits on the transport. A full buffer drops the confirmation.
type AsyncNotifier struct {
	inner   Notifier
	inbox   chan queued
	log     *slog.Logger
	prom    *observability.Prom
	timeout time.Duration

	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
	done      chan struct{}
}

func NewAsyncNotifier(inner Notifier, buffer int, timeout time.Duration, log *slog.Logger, prom *observability.Prom) *AsyncNotifier {
	if buffer <= 0 {
		buffer = 100
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}

	n := &AsyncNotifier{
		inner:   inner,
		inbox:   make(chan queued, buffer),
		log:     log,
		prom:    prom,
		timeout: timeout,
		done:    make(chan struct{}),
	}
	go n.run()

	return n
}

func (n *AsyncNotifier) SendRegistrationConfirmation(ctx context.Context, reg registration.Registration) Outcome {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.closed {
		n.drop(ctx, reg, "notifier closed")
		return OutcomeDropped
	}

	select {
	case n.inbox <- queued{ctx: context.WithoutCancel(ctx), reg: reg}:
		return OutcomeQueued
	default:
		n.drop(ctx, reg, "buffer full")
		return OutcomeDropped
	}
}

func (n *AsyncNotifier) drop(ctx context.Context, reg registration.Registration, reason string) {
	n.log.WarnContext(ctx, "confirmation dropped", "email", reg.Email, "formatted_id", reg.FormattedID, "reason", reason)
	n.prom.ObserveNotification("async", string(OutcomeDropped), 0)
}

func (n *AsyncNotifier) run() {
	defer close(n.done)

	for q := range n.inbox {
		ctx, cancel := context.WithTimeout(q.ctx, n.timeout)
		n.inner.SendRegistrationConfirmation(ctx, q.reg)
		cancel()
	}
}

// Close stops intake and waits for queued confirmations to drain or ctx to end.
func (n *AsyncNotifier) Close(ctx context.Context) error {
	n.closeOnce.Do(func() {
		n.mu.Lock()
		n.closed = true
		close(n.inbox)
		n.mu.Unlock()
	})

	select {
	case <-n.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
