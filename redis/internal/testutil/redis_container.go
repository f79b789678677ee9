package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	redisOnce    sync.Once
	redisAddress string
	redisErr     error
)

// GetRedisAddress starts a shared Redis container on first use and
// returns its host:port address.
func GetRedisAddress(t *testing.T) string {
	t.Helper()
	startRedisOnce(t)
	if redisErr != nil {
		t.Fatalf("starting redis container: %v", redisErr)
	}
	return redisAddress
}

func startRedisOnce(t *testing.T) {
	t.Helper()

	redisOnce.Do(func() {
		// Give generous timeout in CI environments
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
		defer cancel()

		redisC, err := testcontainers.Run(
			ctx, "redis:latest",
			testcontainers.WithExposedPorts("6379/tcp"),
			testcontainers.WithWaitStrategy(
				wait.ForListeningPort("6379/tcp"),
				wait.ForLog("Ready to accept connections"),
			),
		)
		if err != nil {
			redisErr = err
			return
		}

		t.Cleanup(func() {
			testcontainers.CleanupContainer(t, redisC)
		})

		endpoint, err := redisC.Endpoint(ctx, "")
		if err != nil {
			_ = redisC.Terminate(context.Background()) // best-effort cleanup
			redisErr = err
			return
		}

		redisAddress = endpoint
	})
}
