package migrate

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/bulkwear-backend/pkg/config"
	"github.com/angelmondragon/bulkwear-backend/pkg/db"
	"github.com/angelmondragon/bulkwear-backend/pkg/logger"
)

func emptySQLite(t *testing.T) *db.Client {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db.NewFromGorm(conn)
}

func TestMaybeRunDevSkipsOutsideDev(t *testing.T) {
	client := emptySQLite(t)
	cfg := &config.Config{
		App:          config.AppConfig{Env: "prod"},
		FeatureFlags: config.FeatureFlagsConfig{UseSQLite: true, AutoMigrate: true},
	}
	logg := logger.New(logger.Options{ServiceName: "test-migrate", Output: io.Discard})

	require.NoError(t, MaybeRunDev(context.Background(), cfg, logg, client))
	assert.False(t, client.DB().Migrator().HasTable("orders"))
}

func TestMaybeRunDevAutoMigratesSQLite(t *testing.T) {
	client := emptySQLite(t)
	cfg := &config.Config{
		App:          config.AppConfig{Env: "dev"},
		FeatureFlags: config.FeatureFlagsConfig{UseSQLite: true, AutoMigrate: true},
	}
	logg := logger.New(logger.Options{ServiceName: "test-migrate", Output: io.Discard})

	require.NoError(t, MaybeRunDev(context.Background(), cfg, logg, client))
	for _, table := range []string{"products", "product_variants", "carts", "cart_lines", "orders", "order_lines", "payment_transactions", "stock_shortfalls"} {
		assert.True(t, client.DB().Migrator().HasTable(table), table)
	}
}
