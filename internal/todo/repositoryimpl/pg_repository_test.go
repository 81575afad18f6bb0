package repositoryimpl

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TODOGUILD_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TODOGUILD_TEST_DATABASE_URL is not set")
	}
	pool, err := pgxpool.New(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestPgRepository(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	_, err := pool.Exec(ctx, `DROP TABLE IF EXISTS todos`)
	require.NoError(t, err)

	repo := NewPgRepository(pool)
	require.NoError(t, repo.EnsureTable(ctx))
	testRepository(t, repo)
}
