package repo

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/freshmart/api/internal/models"
)

func newTestRepo(t *testing.T) *GormRepo {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.Product{}, &models.Order{}, &models.Feedback{}, &models.PriceHistory{}))

	// Serialize connections so concurrent test transactions queue instead
	// of hitting SQLITE_BUSY.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	return NewGormRepo(db)
}

func createProduct(t *testing.T, r *GormRepo, p models.Product) *models.Product {
	t.Helper()
	if p.Name == "" {
		p.Name = "test product"
	}
	if p.Description == "" {
		p.Description = "test description"
	}
	require.NoError(t, r.CreateProduct(context.Background(), &p))
	return &p
}
