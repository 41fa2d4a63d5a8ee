package verification

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDatabase(t *testing.T) (*pgxpool.Pool, func()) {
	ctx := context.Background()

	dbName := "signup_db"
	dbUser := "signup"
	dbPassword := "pwd"

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithInitScripts(filepath.Join("../../migrations", "signup_db.sql")),
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second)),
	)
	require.NoError(t, err)

	connString, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	poolConfig, err := pgxpool.ParseConfig(connString)
	require.NoError(t, err)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return pool, cleanup
}

func TestRepository_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}

	pool, cleanup := setupTestDatabase(t)
	defer cleanup()

	repo := NewRepository(pool)
	ctx := context.Background()

	expiresAt := time.Now().UTC().Add(time.Hour)

	t.Run("CreateAndGet", func(t *testing.T) {
		rec, err := repo.Create(ctx, testPayload("ann@example.com"), "pg_token_1", expiresAt)
		require.NoError(t, err)
		assert.False(t, rec.Verified)
		assert.Equal(t, "pg_token_1", rec.Token)

		found, err := repo.GetByToken(ctx, "pg_token_1")
		require.NoError(t, err)
		assert.Equal(t, rec.ID, found.ID)
		assert.Equal(t, "ann@example.com", found.Email)
	})

	t.Run("UniqueConstraint", func(t *testing.T) {
		_, err := repo.Create(ctx, testPayload("bob@example.com"), "pg_token_1", expiresAt)
		assert.ErrorIs(t, err, ErrDuplicateToken)
	})

	t.Run("GetUnknownToken", func(t *testing.T) {
		_, err := repo.GetByToken(ctx, "pg_token_unknown")
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("ConditionalFlip", func(t *testing.T) {
		_, err := repo.Create(ctx, testPayload("carol@example.com"), "pg_token_2", expiresAt)
		require.NoError(t, err)

		flipped, err := repo.MarkVerified(ctx, "pg_token_2")
		require.NoError(t, err)
		assert.True(t, flipped)

		flipped, err = repo.MarkVerified(ctx, "pg_token_2")
		require.NoError(t, err)
		assert.False(t, flipped)

		found, err := repo.GetByToken(ctx, "pg_token_2")
		require.NoError(t, err)
		assert.True(t, found.Verified)
		assert.NotNil(t, found.VerifiedAt)
	})

	t.Run("ExpiredNotFlipped", func(t *testing.T) {
		_, err := repo.Create(ctx, testPayload("dave@example.com"), "pg_token_3", time.Now().UTC().Add(-time.Minute))
		require.NoError(t, err)

		flipped, err := repo.MarkVerified(ctx, "pg_token_3")
		require.NoError(t, err)
		assert.False(t, flipped)
	})

	t.Run("ConcurrentFlips", func(t *testing.T) {
		_, err := repo.Create(ctx, testPayload("eve@example.com"), "pg_token_4", expiresAt)
		require.NoError(t, err)

		const attempts = 8
		var wg sync.WaitGroup
		results := make([]bool, attempts)

		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				flipped, err := repo.MarkVerified(ctx, "pg_token_4")
				assert.NoError(t, err)
				results[i] = flipped
			}(i)
		}
		wg.Wait()

		winners := 0
		for _, flipped := range results {
			if flipped {
				winners++
			}
		}
		assert.Equal(t, 1, winners, "conditional update must admit exactly one winner")
	})

	t.Run("CountRecentByEmail", func(t *testing.T) {
		count, err := repo.CountRecentByEmail(ctx, "ann@example.com", time.Now().UTC().Add(-time.Minute))
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("CleanupExpired", func(t *testing.T) {
		err := repo.CleanupExpired(ctx)
		require.NoError(t, err)

		// pg_token_3 expired unverified and is now soft deleted
		_, err = repo.GetByToken(ctx, "pg_token_3")
		assert.ErrorIs(t, err, ErrRecordNotFound)

		// Verified records survive the sweep
		_, err = repo.GetByToken(ctx, "pg_token_2")
		assert.NoError(t, err)
	})
}
