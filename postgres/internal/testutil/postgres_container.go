package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	// Register the pgx database/sql driver used by the SQL wait strategy.
	_ "github.com/jackc/pgx/v5/stdlib"
)

var (
	pgOnce sync.Once
	pgDSN  string
	pgErr  error
)

// GetPostgresDSN starts a shared Postgres container on first use and
// returns a DSN pointing at it.
func GetPostgresDSN(t *testing.T) string {
	t.Helper()
	startPostgresOnce(t)
	if pgErr != nil {
		t.Fatalf("starting postgres container: %v", pgErr)
	}
	return pgDSN
}

func startPostgresOnce(t *testing.T) {
	t.Helper()

	pgOnce.Do(func() {
		// Give generous timeout in CI environments
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
		defer cancel()

		postgresC, err := testcontainers.Run(
			ctx, "postgres:16",
			testcontainers.WithExposedPorts("5432/tcp"),
			testcontainers.WithWaitStrategy(
				wait.ForAll(
					// Container is listening
					wait.ForListeningPort("5432/tcp"),
					// Postgres reports readiness in logs
					wait.ForLog("ready to accept connections"),
					// Actively verify SQL connectivity with a simple query using DSN built from mapped host:port
					wait.ForSQL("5432/tcp", "pgx", func(host string, port nat.Port) string {
						return fmt.Sprintf("postgres://stoker:stoker@%s:%s/stoker_test?sslmode=disable", host, port.Port())
					}).WithQuery("SELECT 1"),
				).WithDeadline(2*time.Minute),
			),
			testcontainers.WithEnv(map[string]string{
				"POSTGRES_USER":     "stoker",
				"POSTGRES_PASSWORD": "stoker",
				"POSTGRES_DB":       "stoker_test",
			}),
		)
		if err != nil {
			pgErr = err
			return
		}

		t.Cleanup(func() {
			testcontainers.CleanupContainer(t, postgresC)
		})

		endpoint, err := postgresC.Endpoint(ctx, "")
		if err != nil {
			_ = postgresC.Terminate(context.Background()) // best-effort cleanup
			pgErr = err
			return
		}

		pgDSN = fmt.Sprintf("postgres://stoker:stoker@%s/stoker_test?sslmode=disable", endpoint)
	})
}
