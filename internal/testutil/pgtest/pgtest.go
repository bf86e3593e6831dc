// Package pgtest provisions a migrated Postgres database for integration tests.
//
// DATABASE_URL points the tests at an existing server; packages sharing it are
// serialized with a host-wide TCP lock. INTEGRATION_DOCKER=1 starts a throwaway
// container instead. Without either the test is skipped.
package pgtest

import (
	"context"
	"net"
	"os"
	"testing"
	"time"

	"github.com/cartai/ledger/internal/db"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const lockAddr = "127.0.0.1:45432"

// tables are truncated between tests, catalog excluded.
const truncateSQL = `TRUNCATE accounts, pending_payments, packages, pending_withdrawals, withdrawals,
	promo_codes, referrals, ledger_entries, audit_log, idempotency_keys RESTART IDENTITY CASCADE`

// Acquire blocks until this process holds the shared database lock.
func Acquire() func() {
	for {
		ln, err := net.Listen("tcp", lockAddr)
		if err == nil {
			return func() { ln.Close() }
		}
		time.Sleep(50 * time.Millisecond)
	}
}

// Setup returns a pool over an empty, fully migrated schema.
func Setup(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	url := os.Getenv("DATABASE_URL")
	switch {
	case url != "":
		release := Acquire()
		t.Cleanup(release)
	case os.Getenv("INTEGRATION_DOCKER") == "1":
		url = startContainer(t)
	default:
		t.Skip("DATABASE_URL not set and INTEGRATION_DOCKER != 1")
	}

	require.NoError(t, db.MigrateUp(url))
	pool, err := db.Connect(ctx, url, db.PoolOptions{MaxConns: 8})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, truncateSQL)
	require.NoError(t, err)
	return pool
}

func startContainer(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("cartai_test"),
		postgres.WithUsername("cartai"),
		postgres.WithPassword("cartai"),
		postgres.BasicWaitStrategies(),
		testcontainers.WithLabels(map[string]string{
			"test":      "cartai-ledger",
			"test-name": t.Name(),
		}),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return url
}
