//go:build integration

package containers

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mockskills/collabzone/internal/db"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// PostgresContainer is a migrated database ready for the registrations repo.
type PostgresContainer struct {
	Container *tcpostgres.PostgresContainer
	DSN       string
	Pool      *pgxpool.Pool
}

func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("collabzone"),
		tcpostgres.WithUsername("collabzone"),
		tcpostgres.WithPassword("collabzone"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	pool, err := db.NewPool(ctx, dsn, 10)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := db.Migrate(ctx, pool); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	return &PostgresContainer{
		Container: container,
		DSN:       dsn,
		Pool:      pool,
	}
}

// Truncate empties the registrations table and resets the id sequence.
func (p *PostgresContainer) Truncate(t *testing.T) {
	t.Helper()

	if _, err := p.Pool.Exec(context.Background(), `TRUNCATE collabzone_joinus_register RESTART IDENTITY`); err != nil {
		t.Fatalf("failed to truncate: %v", err)
	}
}
