package notifications

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker open")

type ProtectedTransportConfig struct {
	Timeout          time.Duration // hard timeout per send
	FailureThreshold int           // consecutive failures to open circuit
	Cooldown         time.Duration // how long to stay open before half-open
	HalfOpenMaxCalls int           // allow N trial calls in half-open
}

type breakerState string

const (
	stateClosed   breakerState = "closed"
	stateOpen     breakerState = "open"
	stateHalfOpen breakerState = "half_open"
)

// ProtectedTransport bounds each send with a timeout and stops calling a
// failing provider until the cooldown passes.
type ProtectedTransport struct {
	inner Transport
	cfg   ProtectedTransportConfig
	mu    sync.Mutex
	now   func() time.Time

	state breakerState

	consecutiveFailures int
	openedAt            time.Time
	halfOpenInFlight    int
}

func NewProtectedTransport(inner Transport, cfg ProtectedTransportConfig) *ProtectedTransport {
	//defaults
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 15 * time.Second
	}
	if cfg.HalfOpenMaxCalls <= 0 {
		cfg.HalfOpenMaxCalls = 1
	}

	return &ProtectedTransport{
		inner: inner,
		cfg:   cfg,
		now:   time.Now,
		state: stateClosed,
	}
}

func (t *ProtectedTransport) Name() string { return t.inner.Name() }

func (t *ProtectedTransport) Send(ctx context.Context, msg Message) error {
	// fail-fast gate
	if !t.allowRequest() {
		return ErrCircuitOpen
	}

	sendCtx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	err := t.inner.Send(sendCtx, msg)

	t.afterRequest(err)

	return err
}

func (t *ProtectedTransport) State() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.state)
}

func (t *ProtectedTransport) allowRequest() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.state {
	case stateClosed:
		return true
	case stateOpen:
		// cooldown has passed? move to half open
		if t.now().Sub(t.openedAt) >= t.cfg.Cooldown {
			t.state = stateHalfOpen
			t.halfOpenInFlight = 1
			return true
		}
		return false
	case stateHalfOpen:
		if t.halfOpenInFlight >= t.cfg.HalfOpenMaxCalls {
			return false
		}
		t.halfOpenInFlight++
		return true
	default:
		return true
	}
}

func (t *ProtectedTransport) afterRequest(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	// half-open call just finished
	if t.state == stateHalfOpen && t.halfOpenInFlight > 0 {
		t.halfOpenInFlight--
	}

	if err == nil {
		// success => close circuit and reset counters
		t.consecutiveFailures = 0
		t.state = stateClosed
		return
	}

	t.consecutiveFailures++

	// if half-open failed, reopen immediately
	if t.state == stateHalfOpen {
		t.state = stateOpen
		t.openedAt = t.now()
		return
	}

	if t.consecutiveFailures >= t.cfg.FailureThreshold {
		t.state = stateOpen
		t.openedAt = t.now()
	}
}
