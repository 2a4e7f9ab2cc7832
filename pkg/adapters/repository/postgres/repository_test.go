//go:build integration

package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	testpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
)

func setupTestDatabase(t *testing.T) *PostgresRepository {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := testpostgres.Run(ctx,
		"postgres:16-alpine",
		testpostgres.WithDatabase("testdb"),
		testpostgres.WithUsername("testuser"),
		testpostgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { pgContainer.Terminate(ctx) })

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	repo, err := Open(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	return repo
}

func newLink(code string) *domain.Link {
	return &domain.Link{
		ID:          uuid.NewString(),
		ShortCode:   code,
		OriginalURL: "https://example.com/" + code,
		CreatedAt:   time.Now().UTC(),
	}
}

func TestPostgresRepository(t *testing.T) {
	repo := setupTestDatabase(t)
	ctx := context.Background()

	t.Run("migrate is idempotent", func(t *testing.T) {
		assert.NoError(t, repo.Migrate(ctx))
	})

	t.Run("create and get", func(t *testing.T) {
		link := newLink("abc123")
		link.Preview = &domain.Preview{Title: "Example"}
		require.NoError(t, repo.Create(ctx, link))

		got, err := repo.GetByShortCode(ctx, "abc123")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, link.OriginalURL, got.OriginalURL)
		assert.Equal(t, "Example", got.Preview.Title)
		assert.Nil(t, got.ExpiresAt)

		missing, err := repo.GetByShortCode(ctx, "nope")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("duplicate alias", func(t *testing.T) {
		first := newLink("my-link")
		first.CustomAlias = "my-link"
		require.NoError(t, repo.Create(ctx, first))

		second := newLink("my-link")
		second.CustomAlias = "my-link"
		assert.ErrorIs(t, repo.Create(ctx, second), domain.ErrAliasTaken)
	})

	t.Run("concurrent clicks", func(t *testing.T) {
		link := newLink("hot123")
		require.NoError(t, repo.Create(ctx, link))

		const n = 50
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.RecordVisit(ctx, &domain.Visit{LinkID: link.ID, CreatedAt: time.Now()})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		got, err := repo.GetByShortCode(ctx, "hot123")
		require.NoError(t, err)
		assert.Equal(t, int64(n), got.ClickCount)

		stats, err := repo.GetLinkStats(ctx, link.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(n), stats.TotalClicks)
		assert.Equal(t, int64(n), stats.Referrers["Direct"])
	})

	t.Run("delete", func(t *testing.T) {
		link := newLink("del123")
		require.NoError(t, repo.Create(ctx, link))
		_, err := repo.RecordVisit(ctx, &domain.Visit{LinkID: link.ID, CreatedAt: time.Now()})
		require.NoError(t, err)

		require.NoError(t, repo.Delete(ctx, link.ID))
		assert.ErrorIs(t, repo.Delete(ctx, link.ID), domain.ErrNotFound)
	})

	t.Run("users", func(t *testing.T) {
		user := &domain.User{ID: uuid.NewString(), Username: "alice", PasswordHash: "h", CreatedAt: time.Now()}
		require.NoError(t, repo.CreateUser(ctx, user))

		dup := &domain.User{ID: uuid.NewString(), Username: "alice", PasswordHash: "h", CreatedAt: time.Now()}
		assert.ErrorIs(t, repo.CreateUser(ctx, dup), domain.ErrUserExists)

		owned := newLink("owned1")
		owned.UserID = user.ID
		require.NoError(t, repo.Create(ctx, owned))

		count, err := repo.Count(ctx, map[string]interface{}{"user_id": user.ID, "search": "owned"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		got, err := repo.GetUserByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.Empty(t, got.Email)
	})
}
