package migrate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	require.NoError(t, err)
	require.Len(t, matches, 1, "migration %s not found", suffix)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	return string(data)
}

func TestMigrationsDirIsValid(t *testing.T) {
	require.NoError(t, ValidateDir("migrations"))
}

func TestOrdersMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "create_orders")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS order_statuses",
		"('pending', 'Pending', 1)",
		"('returned', 'Returned', 8)",
		"CREATE TABLE IF NOT EXISTS shop_orders",
		"CONSTRAINT shop_orders_order_number_key UNIQUE (order_number)",
		"status text NOT NULL DEFAULT 'pending' REFERENCES order_statuses(code)",
		"CREATE TABLE IF NOT EXISTS order_items",
		"CREATE TABLE IF NOT EXISTS order_status_history",
		"DROP TABLE IF EXISTS shop_orders",
	}
	for _, sub := range checks {
		assert.Contains(t, content, sub)
	}
}

func TestCatalogMigrationContainsUniqueSlugs(t *testing.T) {
	content := readMigration(t, "create_catalog")

	for _, sub := range []string{
		"CONSTRAINT product_categories_slug_key UNIQUE (slug)",
		"CONSTRAINT brands_slug_key UNIQUE (slug)",
		"CONSTRAINT products_slug_key UNIQUE (slug)",
		"CONSTRAINT product_items_sku_key UNIQUE (sku)",
		"price numeric(14,2) NOT NULL",
	} {
		assert.Contains(t, content, sub)
	}
}

func TestReviewsMigrationIsUniquePerUserProduct(t *testing.T) {
	content := readMigration(t, "create_product_reviews")
	assert.Contains(t, content, "CONSTRAINT product_reviews_user_product_key UNIQUE (user_id, product_id)")
	assert.Contains(t, content, "CHECK (rating BETWEEN 1 AND 5)")
}

func TestSQLiteSchemaCoversMigratedTables(t *testing.T) {
	entries, err := os.ReadDir("migrations")
	require.NoError(t, err)

	joined := strings.Join(sqliteSchema, "\n")
	for _, e := range entries {
		data, err := os.ReadFile(filepath.Join("migrations", e.Name()))
		require.NoError(t, err)
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if !strings.HasPrefix(line, "CREATE TABLE IF NOT EXISTS ") {
				continue
			}
			table := strings.Fields(line)[5]
			assert.Contains(t, joined, "CREATE TABLE IF NOT EXISTS "+table+" (", "sqlite schema missing %s", table)
		}
	}
}

func TestApplySQLiteSchemaSeedsLookups(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:migrate_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, ApplySQLiteSchema(context.Background(), conn))
	// idempotent
	require.NoError(t, ApplySQLiteSchema(context.Background(), conn))

	var statuses int64
	require.NoError(t, conn.Table("order_statuses").Count(&statuses).Error)
	assert.Equal(t, int64(8), statuses)

	var roles int64
	require.NoError(t, conn.Table("roles").Count(&roles).Error)
	assert.Equal(t, int64(2), roles)
}
