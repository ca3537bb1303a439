package app

import (
	"context"
	"errors"

	"github.com/mockskills/collabzone/internal/config"
	"github.com/mockskills/collabzone/internal/http/handlers"
)

var errRedisNotConnected = errors.New("redis configured but not connected")

// ReadinessChecks assembles the /readyz dependency checks for cfg.
func ReadinessChecks(cfg config.Config, store Store, n *Notifier) map[string]handlers.PingFunc {
	checks := map[string]handlers.PingFunc{"store": store.Ping}
	if !cfg.NeedsRedis() {
		return checks
	}

	if n == nil || n.Redis() == nil {
		checks["redis"] = func(context.Context) error { return errRedisNotConnected }
		return checks
	}
	checks["redis"] = n.Redis().Ping
	return checks
}
