//go:build integration

package redisclient

import (
	"context"
	"testing"

	"github.com/mockskills/collabzone/internal/testutil/containers"
	"github.com/stretchr/testify/require"
)

func TestConnect(t *testing.T) {
	ctx := context.Background()
	rc := containers.NewRedisContainer(t)

	c, err := Connect(ctx, Config{Addr: rc.Addr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	require.NoError(t, c.Ping(ctx))
	require.NoError(t, c.Cmdable().Set(ctx, "k", "v", 0).Err())
}

func TestConnect_Unreachable(t *testing.T) {
	_, err := Connect(context.Background(), Config{Addr: "127.0.0.1:1"})
	require.Error(t, err)
}
