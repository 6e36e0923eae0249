package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/bulkwear-backend/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	require.NoError(t, err)
	require.Len(t, matches, 1, "expected one %s migration", suffix)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	return string(data)
}

func TestMigrationsDirIsValid(t *testing.T) {
	require.NoError(t, migrate.ValidateDir("migrations"))
}

func TestMigrationsContainConstraints(t *testing.T) {
	cases := map[string][]string{
		"create_catalog_tables": {
			"CREATE TABLE IF NOT EXISTS products",
			"CREATE TABLE IF NOT EXISTS product_variants",
			"CHECK (stock_quantity >= 0)",
			"CREATE UNIQUE INDEX IF NOT EXISTS ux_product_variants_key ON product_variants (product_id, color, size)",
			"DROP TABLE IF EXISTS product_variants",
		},
		"create_carts_tables": {
			"CHECK ((user_id IS NULL) <> (session_token IS NULL))",
			"PRIMARY KEY (cart_id, product_id, color, size)",
			"CHECK (quantity > 0)",
		},
		"create_orders_tables": {
			"CHECK (total_amount = subtotal + tax_amount + shipping_amount)",
			"CREATE UNIQUE INDEX IF NOT EXISTS ux_orders_gateway_session_id",
			"REFERENCES orders(id) ON DELETE CASCADE",
		},
		"create_payment_transactions": {
			"CREATE UNIQUE INDEX IF NOT EXISTS ux_payment_transactions_session_id ON payment_transactions (session_id)",
		},
		"create_stock_shortfalls": {
			"CREATE TABLE IF NOT EXISTS stock_shortfalls",
			"DROP TABLE IF EXISTS stock_shortfalls",
		},
	}

	for suffix, checks := range cases {
		t.Run(suffix, func(t *testing.T) {
			content := readMigration(t, suffix)
			for _, sub := range checks {
				assert.True(t, strings.Contains(content, sub), "missing expected statement %q", sub)
			}
		})
	}
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001_bad.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	assert.Error(t, migrate.ValidateDir(dir))
}

func TestCreateSQLMigrationSanitizesName(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Order Notes!")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "_add_order_notes.sql"), path)
	require.NoError(t, migrate.ValidateDir(dir))
}
