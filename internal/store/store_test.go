package store_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/tracker/internal/db"
	"github.com/persistorai/tracker/internal/dbpool"
	"github.com/persistorai/tracker/internal/models"
	"github.com/persistorai/tracker/internal/store"
)

// testEnv holds shared test infrastructure (single pool across all tests).
type testEnv struct {
	pool *dbpool.Pool
	log  *logrus.Logger
}

var sharedEnv *testEnv

func getTestEnv(t *testing.T) *testEnv {
	t.Helper()

	if sharedEnv != nil {
		return sharedEnv
	}

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()

	pool, err := dbpool.NewPool(ctx, dbURL, 5)
	if err != nil {
		t.Fatalf("connecting to test DB: %v", err)
	}

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	if err := db.RunMigrations(ctx, pool, log); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	sharedEnv = &testEnv{
		pool: pool,
		log:  log,
	}

	return sharedEnv
}

func setupTestBase(t *testing.T) store.Base {
	t.Helper()

	env := getTestEnv(t)

	return store.Base{Pool: env.pool, Log: env.log}
}

// createTestUser inserts a uniquely named user and removes it (and its issues) after the test.
func createTestUser(t *testing.T, base store.Base) *models.User {
	t.Helper()

	ctx := context.Background()
	us := store.NewUserStore(base)

	u, err := us.CreateUser(ctx, models.CreateUserRequest{
		Username: "user-" + uuid.NewString()[:8],
		Email:    "test@example.com",
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	t.Cleanup(func() {
		cleanCtx := context.Background()
		base.Pool.Exec(cleanCtx, "DELETE FROM issues WHERE reporter_id = $1", u.ID) //nolint:errcheck // best-effort cleanup
		base.Pool.Exec(cleanCtx, "DELETE FROM users WHERE id = $1", u.ID)            //nolint:errcheck // best-effort cleanup
	})

	return u
}
