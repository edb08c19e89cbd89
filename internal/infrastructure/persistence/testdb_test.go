package persistence

import (
	"testing"

	"github.com/boxstock/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB opens an in-memory SQLite database with every table migrated.
// A single connection keeps the in-memory database shared across transactions.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	database, err := Open(sqlite.Open(":memory:"), nil)
	require.NoError(t, err)

	sqlDB, err := database.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.DB.AutoMigrate(
		&models.ProductModel{},
		&models.DistrictModel{},
		&models.WarehouseModel{},
		&models.EmployeeModel{},
		&models.StockRecordModel{},
		&models.ReservationModel{},
		&models.SaleRecordModel{},
		&models.StagnantReturnModel{},
		&models.OrderModel{},
		&models.OrderLineModel{},
	))
	return database.DB
}
