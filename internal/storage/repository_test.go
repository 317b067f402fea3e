package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/ports"
	"fintrack/internal/storage/storetest"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "fintrack.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepositoryContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) ports.Store { return newTestRepo(t) })
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fintrack.db")
	require.NoError(t, RunMigrations(path))
	require.NoError(t, RunMigrations(path))

	v, dirty, err := SchemaVersion(path)
	require.NoError(t, err)
	require.False(t, dirty)
	require.Equal(t, uint(1), v)
}

func TestSetCategoryBudgetKeepsOtherMonths(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	c, err := repo.AddCategory(ctx, core.Category{UserID: "u1", Name: "Food", Icon: "Coffee", CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)

	for i, m := range []core.MonthKey{"2025-01", "2025-02", "2025-03"} {
		require.NoError(t, repo.SetCategoryBudget(ctx, "u1", c.ID, m, core.Cents(int64(i+1)*100), now))
	}
	require.NoError(t, repo.SetCategoryBudget(ctx, "u1", c.ID, "2025-02", core.Cents(0), now))

	got, err := repo.GetCategory(ctx, "u1", c.ID)
	require.NoError(t, err)
	require.Equal(t, map[core.MonthKey]core.Money{
		"2025-01": core.Cents(100),
		"2025-02": core.Cents(0),
		"2025-03": core.Cents(300),
	}, got.MonthlyBudgets)
}

func TestRevokeShareKeepsFirstTimestamp(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	first := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

	sh, err := repo.AddShare(ctx, core.Share{OwnerID: "u1", Email: "x@example.com", AccessLevel: core.ReadOnly, CreatedAt: first})
	require.NoError(t, err)
	require.NoError(t, repo.RevokeShare(ctx, "u1", sh.ID, first))
	require.NoError(t, repo.RevokeShare(ctx, "u1", sh.ID, first.Add(time.Hour)))

	got, err := repo.GetShare(ctx, "u1", sh.ID)
	require.NoError(t, err)
	require.NotNil(t, got.RevokedAt)
	require.True(t, got.RevokedAt.Equal(first))
}
