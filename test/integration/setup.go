//go:build integration

package integration

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"commoni-api/internal/app"
	"commoni-api/internal/config"
	"commoni-api/internal/database"
)

const testSecret = "0548a115e749bd446115d6c05e95838b2f7b47568e110186e0fe81fca376e19d"

var (
	pgOnce sync.Once
	pgDSN  string
	pgErr  error
)

// postgresDSN starts one container for the whole package run.
func postgresDSN(t *testing.T) string {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	pgOnce.Do(func() {
		ctx := context.Background()
		container, err := postgres.Run(ctx, "postgres:16-alpine",
			postgres.WithDatabase("commoni"),
			postgres.WithUsername("commoni"),
			postgres.WithPassword("commoni"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second),
			),
		)
		if err != nil {
			pgErr = fmt.Errorf("start postgres container: %w", err)
			return
		}

		pgDSN, pgErr = container.ConnectionString(ctx, "sslmode=disable")
	})

	require.NoError(t, pgErr)
	return pgDSN
}

// newDB returns a migrated pool with an empty users table.
func newDB(t *testing.T) *database.DB {
	t.Helper()

	ctx := context.Background()
	db, err := database.New(ctx, postgresDSN(t), database.PoolOptions{MaxConns: 4, MinConns: 0})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.Migrate(ctx))
	_, err = db.Pool.Exec(ctx, "TRUNCATE users")
	require.NoError(t, err)
	return db
}

// newServer boots the full application against the test database and an
// in-memory Redis.
func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	newDB(t)
	redis := miniredis.RunT(t)
	redisPort, err := strconv.Atoi(redis.Port())
	require.NoError(t, err)

	cfg := &config.Config{
		ServerPort:         "0",
		RequestTimeout:     10 * time.Second,
		ShutdownTimeout:    time.Second,
		DatabaseURL:        postgresDSN(t),
		DBMaxConns:         4,
		DBMinConns:         0,
		AuthSecretKey:      testSecret,
		AuthAlgorithm:      "HS256",
		AccessTokenMinutes: 20,
		RefreshTokenDays:   15,
		RenewWindowDays:    2,
		BcryptCost:         4,
		RedisHost:          redis.Host(),
		RedisPort:          redisPort,
		UserCacheTTL:       time.Minute,
		CORSOrigins:        []string{"*"},
		RateLimitRPM:       1000,
		AuthRateLimitRPM:   1000,
		LogLevel:           "warn",
		LogFormat:          config.LogFormatJSON,
	}
	require.NoError(t, cfg.Validate())

	application, err := app.New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(application.Close)

	server := httptest.NewServer(application.Handler())
	t.Cleanup(server.Close)
	return server
}
