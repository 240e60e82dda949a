package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/logger"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestPostgresStore runs the store tests against a real Postgres. It needs
// Docker and only runs when HITPREDICT_INTEGRATION is set.
func TestPostgresStore(t *testing.T) {
	if os.Getenv("HITPREDICT_INTEGRATION") == "" {
		t.Skip("set HITPREDICT_INTEGRATION to run against postgres")
	}

	ctx := context.Background()
	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("hitpredict_test"),
		postgres.WithUsername("hitpredict_test"),
		postgres.WithPassword("hitpredict_test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	log, _ := logger.NewTestLogger()
	runStoreTests(t, func(t *testing.T) *Store {
		store, err := Open(ctx, DriverPostgres, dsn, log)
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		if err := store.ClearAll(ctx); err != nil {
			t.Fatalf("ClearAll: %v", err)
		}
		t.Cleanup(func() { store.Close() })
		return store
	})
}
