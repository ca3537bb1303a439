package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mockskills/collabzone/internal/config"
	"github.com/mockskills/collabzone/internal/notifications"
	"github.com/mockskills/collabzone/internal/observability"
	"github.com/mockskills/collabzone/internal/redisclient"
)

// Notifier dispatches confirmations off the request path through a
// breaker-protected transport.
type Notifier struct {
	*notifications.AsyncNotifier
	redis *redisclient.Client
}

// Redis is nil unless the redis transport is configured.
func (n *Notifier) Redis() *redisclient.Client {
	return n.redis
}

// Close drains pending sends, then releases redis.
func (n *Notifier) Close(ctx context.Context) error {
	err := n.AsyncNotifier.Close(ctx)
	if n.redis != nil {
		_ = n.redis.Close()
	}
	return err
}

func NewNotifier(ctx context.Context, cfg config.Config, log *slog.Logger, prom *observability.Prom) (*Notifier, error) {
	var (
		transport notifications.Transport
		rdb       *redisclient.Client
	)

	switch cfg.Notify.Transport {
	case config.TransportLog:
		transport = notifications.NewLogTransport(log, notifications.LogTransportConfig{
			Delay: time.Duration(cfg.Notify.SimulatedDelayMS) * time.Millisecond,
			Fail:  cfg.Notify.SimulateFailure,
		})

	case config.TransportSMTP:
		smtp, err := notifications.NewSMTPTransport(notifications.SMTPConfig{
			Host:     cfg.Notify.SMTPHost,
			Port:     cfg.Notify.SMTPPort,
			Username: cfg.Notify.SMTPUsername,
			Password: cfg.Notify.SMTPPassword,
			From:     cfg.Notify.From,
		})
		if err != nil {
			return nil, err
		}
		transport = smtp

	case config.TransportRedis:
		c, err := redisclient.Connect(ctx, redisclient.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		rdb = c
		transport = notifications.NewRedisStreamTransport(c.Cmdable(), cfg.Notify.RedisStream)

	default:
		return nil, fmt.Errorf("unknown notify transport %q", cfg.Notify.Transport)
	}

	protected := notifications.NewProtectedTransport(transport, notifications.ProtectedTransportConfig{
		Timeout: cfg.Notify.Timeout,
	})

	confirm := notifications.NewConfirmationNotifier(protected, cfg.Notify.SupportEmail, log, prom)
	async := notifications.NewAsyncNotifier(confirm, cfg.Notify.AsyncBuffer, cfg.Notify.Timeout, log, prom)

	log.Info("notifier ready", "transport", transport.Name())

	return &Notifier{AsyncNotifier: async, redis: rdb}, nil
}
