package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"keybot/keyhub/internal/model"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "keyhub.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, model.AutoMigrate(db))
	return db
}

// eachBackend runs fn once per store variant.
func eachBackend(t *testing.T, fn func(t *testing.T, f UnitOfWorkFactory)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemoryUnitOfWorkFactory(NewMemoryDB()))
	})
	t.Run("sqlite", func(t *testing.T) {
		fn(t, NewSQLUnitOfWorkFactory(openSQLite(t)))
	})
}

// inTx runs fn in a committed unit of work and fails the test on error.
func inTx(t *testing.T, f UnitOfWorkFactory, fn func(ctx context.Context, s InventoryStore) error) {
	t.Helper()
	require.NoError(t, Within(context.Background(), f, fn))
}

func addKey(ctx context.Context, t *testing.T, s InventoryStore, owner, title string, platform model.Platform, code string) model.Key {
	t.Helper()
	_, err := s.GetOrCreateMember(ctx, owner)
	require.NoError(t, err)
	tt, err := s.GetOrCreateTitle(ctx, title)
	require.NoError(t, err)
	key := &model.Key{Platform: platform, TitleID: tt.ID, Title: *tt, Code: code, OwnerID: owner}
	require.NoError(t, s.AddKey(ctx, key))
	return *key
}
