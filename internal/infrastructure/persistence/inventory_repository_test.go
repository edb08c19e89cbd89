package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/boxstock/backend/internal/domain/inventory"
	"github.com/boxstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStockRecord(t *testing.T, quantity int) *inventory.StockRecord {
	t.Helper()
	record, err := inventory.NewStockRecord(uuid.New(), uuid.New())
	require.NoError(t, err)
	record.QuantityBoxes = quantity
	return record
}

func TestGormStockRecordRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("creates and finds a record by pair", func(t *testing.T) {
		repo := NewGormStockRecordRepository(setupTestDB(t))
		record := newStockRecord(t, 12)
		require.NoError(t, repo.Create(ctx, record))

		found, err := repo.FindByProductAndWarehouse(ctx, record.ProductID, record.WarehouseID)
		require.NoError(t, err)
		assert.Equal(t, record.ID, found.ID)
		assert.Equal(t, 12, found.QuantityBoxes)
		assert.Equal(t, 0, found.ReservedBoxes)
		assert.Equal(t, 1, found.Version)

		locked, err := repo.FindByProductAndWarehouseForUpdate(ctx, record.ProductID, record.WarehouseID)
		require.NoError(t, err)
		assert.Equal(t, record.ID, locked.ID)
	})

	t.Run("missing pair is NOT_FOUND", func(t *testing.T) {
		repo := NewGormStockRecordRepository(setupTestDB(t))

		_, err := repo.FindByProductAndWarehouse(ctx, uuid.New(), uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.Equal(t, shared.CodeNotFound, shared.ErrorCode(err))
	})

	t.Run("second record for the same pair is ALREADY_EXISTS", func(t *testing.T) {
		repo := NewGormStockRecordRepository(setupTestDB(t))
		record := newStockRecord(t, 1)
		require.NoError(t, repo.Create(ctx, record))

		dup, err := inventory.NewStockRecord(record.ProductID, record.WarehouseID)
		require.NoError(t, err)

		err = repo.Create(ctx, dup)
		assert.Equal(t, shared.CodeAlreadyExists, shared.ErrorCode(err))
	})

	t.Run("SaveWithLock persists changes and rejects stale versions", func(t *testing.T) {
		repo := NewGormStockRecordRepository(setupTestDB(t))
		record := newStockRecord(t, 10)
		require.NoError(t, repo.Create(ctx, record))

		stale, err := repo.FindByID(ctx, record.ID)
		require.NoError(t, err)

		_, err = record.Reserve(uuid.New(), 1, 4)
		require.NoError(t, err)
		require.NoError(t, repo.SaveWithLock(ctx, record))

		found, err := repo.FindByID(ctx, record.ID)
		require.NoError(t, err)
		assert.Equal(t, 4, found.ReservedBoxes)
		assert.Equal(t, 2, found.Version)

		require.NoError(t, stale.Restock(5))
		err = repo.SaveWithLock(ctx, stale)
		assert.Equal(t, shared.CodeOptimisticLockFailed, shared.ErrorCode(err))
	})

	t.Run("lists by warehouse and product", func(t *testing.T) {
		repo := NewGormStockRecordRepository(setupTestDB(t))
		warehouseID := uuid.New()
		productID := uuid.New()

		a, _ := inventory.NewStockRecord(productID, warehouseID)
		b, _ := inventory.NewStockRecord(uuid.New(), warehouseID)
		c, _ := inventory.NewStockRecord(productID, uuid.New())
		for _, r := range []*inventory.StockRecord{a, b, c} {
			require.NoError(t, repo.Create(ctx, r))
		}

		inWarehouse, err := repo.FindByWarehouse(ctx, warehouseID)
		require.NoError(t, err)
		assert.Len(t, inWarehouse, 2)

		forProduct, err := repo.FindByProduct(ctx, productID)
		require.NoError(t, err)
		assert.Len(t, forProduct, 2)

		exists, err := repo.ExistsForProduct(ctx, productID)
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsForProduct(ctx, uuid.New())
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestGormStockRecordRepository_SaveWithLockSQL(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	record := newStockRecord(t, 3)
	record.Version = 4

	mock.ExpectExec(`UPDATE "stock_records" SET .* WHERE id = \$\d+ AND version = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewGormStockRecordRepository(db.DB).SaveWithLock(context.Background(), record)
	assert.Equal(t, shared.CodeOptimisticLockFailed, shared.ErrorCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormReservationRepository(t *testing.T) {
	ctx := context.Background()
	record := newStockRecord(t, 10)

	t.Run("finds the active reservation of an order line", func(t *testing.T) {
		repo := NewGormReservationRepository(setupTestDB(t))
		orderID := uuid.New()

		first := inventory.NewReservation(record, orderID, 1, 2)
		second := inventory.NewReservation(record, orderID, 2, 3)
		require.NoError(t, repo.Save(ctx, first))
		require.NoError(t, repo.Save(ctx, second))

		found, err := repo.FindActiveByOrderLine(ctx, orderID, 2)
		require.NoError(t, err)
		assert.Equal(t, second.ID, found.ID)
		assert.Equal(t, 3, found.Boxes)

		all, err := repo.FindByOrder(ctx, orderID)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, 1, all[0].LineNo)
		assert.Equal(t, 2, all[1].LineNo)
	})

	t.Run("only one active reservation per order line", func(t *testing.T) {
		repo := NewGormReservationRepository(setupTestDB(t))
		orderID := uuid.New()

		require.NoError(t, repo.Save(ctx, inventory.NewReservation(record, orderID, 1, 2)))
		err := repo.Save(ctx, inventory.NewReservation(record, orderID, 1, 2))
		assert.Equal(t, shared.CodeAlreadyExists, shared.ErrorCode(err))
	})

	t.Run("released line can be reserved again", func(t *testing.T) {
		repo := NewGormReservationRepository(setupTestDB(t))
		orderID := uuid.New()

		r := newStockRecord(t, 10)
		first, err := r.Reserve(orderID, 1, 2)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, first))

		released, err := r.Release(first)
		require.NoError(t, err)
		require.True(t, released)
		require.NoError(t, repo.Save(ctx, first))

		again, err := r.Reserve(orderID, 1, 2)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, again))

		active, err := repo.FindActiveByOrderLine(ctx, orderID, 1)
		require.NoError(t, err)
		assert.Equal(t, again.ID, active.ID)

		stored, err := repo.FindByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, inventory.ReservationReleased, stored.Status)
		assert.NotNil(t, stored.ReleasedAt)
	})

	t.Run("no active reservation is NOT_FOUND", func(t *testing.T) {
		repo := NewGormReservationRepository(setupTestDB(t))

		_, err := repo.FindActiveByOrderLine(ctx, uuid.New(), 1)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormSalesHistoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewGormSalesHistoryRepository(setupTestDB(t))
	record := newStockRecord(t, 100)

	day := func(offset int, hour int) time.Time {
		return time.Date(2026, 3, 10+offset, hour, 0, 0, 0, time.UTC)
	}
	sell := func(boxes int, at time.Time) {
		r := inventory.NewReservation(record, uuid.New(), 1, boxes)
		require.NoError(t, repo.Record(ctx, inventory.NewSaleRecord(r, at)))
	}

	t.Run("never sold has no last sale", func(t *testing.T) {
		last, err := repo.LastSaleAt(ctx, record.ProductID, record.WarehouseID)
		require.NoError(t, err)
		assert.Nil(t, last)
	})

	sell(2, day(0, 9))
	sell(3, day(0, 15))
	sell(5, day(2, 10))
	sell(7, day(9, 10))

	t.Run("groups sales by day and omits empty days", func(t *testing.T) {
		points, err := repo.DailySales(ctx, record.ProductID, record.WarehouseID, day(0, 0), day(3, 0))
		require.NoError(t, err)
		require.Len(t, points, 2)
		assert.Equal(t, day(0, 0), points[0].Day)
		assert.Equal(t, 5, points[0].Boxes)
		assert.Equal(t, day(2, 0), points[1].Day)
		assert.Equal(t, 5, points[1].Boxes)
	})

	t.Run("other pairs are not mixed in", func(t *testing.T) {
		points, err := repo.DailySales(ctx, uuid.New(), record.WarehouseID, day(0, 0), day(10, 0))
		require.NoError(t, err)
		assert.Empty(t, points)
	})

	t.Run("last sale is the latest", func(t *testing.T) {
		last, err := repo.LastSaleAt(ctx, record.ProductID, record.WarehouseID)
		require.NoError(t, err)
		require.NotNil(t, last)
		assert.True(t, last.Equal(day(9, 10)))
	})
}

func TestGormStagnantReturnRepository(t *testing.T) {
	ctx := context.Background()

	newReturn := func(t *testing.T, productID, warehouseID uuid.UUID) *inventory.StagnantReturn {
		t.Helper()
		r, err := inventory.NewStagnantReturn(productID, warehouseID, inventory.ReturnUrgencyHigh, 70, 12, nil)
		require.NoError(t, err)
		return r
	}

	t.Run("finds the open return of a pair", func(t *testing.T) {
		repo := NewGormStagnantReturnRepository(setupTestDB(t))
		r := newReturn(t, uuid.New(), uuid.New())
		require.NoError(t, repo.Create(ctx, r))

		open, err := repo.FindOpen(ctx, r.ProductID, r.WarehouseID)
		require.NoError(t, err)
		assert.Equal(t, r.ID, open.ID)
		assert.Equal(t, inventory.ReturnPending, open.Status)
		assert.Equal(t, inventory.ReturnUrgencyHigh, open.UrgencyLevel)
		assert.Equal(t, 70, open.DaysIdle)
	})

	t.Run("one open return per pair", func(t *testing.T) {
		repo := NewGormStagnantReturnRepository(setupTestDB(t))
		productID, warehouseID := uuid.New(), uuid.New()
		require.NoError(t, repo.Create(ctx, newReturn(t, productID, warehouseID)))

		err := repo.Create(ctx, newReturn(t, productID, warehouseID))
		assert.Equal(t, shared.CodeAlreadyExists, shared.ErrorCode(err))
	})

	t.Run("cancelled return frees the pair", func(t *testing.T) {
		repo := NewGormStagnantReturnRepository(setupTestDB(t))
		productID, warehouseID := uuid.New(), uuid.New()
		first := newReturn(t, productID, warehouseID)
		require.NoError(t, repo.Create(ctx, first))

		require.NoError(t, first.Cancel("sold after all"))
		require.NoError(t, repo.SaveWithLock(ctx, first))

		_, err := repo.FindOpen(ctx, productID, warehouseID)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		require.NoError(t, repo.Create(ctx, newReturn(t, productID, warehouseID)))

		stored, err := repo.FindByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, inventory.ReturnCancelled, stored.Status)
		assert.Equal(t, "sold after all", stored.CancelReason)
	})

	t.Run("stale save is rejected", func(t *testing.T) {
		repo := NewGormStagnantReturnRepository(setupTestDB(t))
		r := newReturn(t, uuid.New(), uuid.New())
		require.NoError(t, repo.Create(ctx, r))

		stale, err := repo.FindByID(ctx, r.ID)
		require.NoError(t, err)

		require.NoError(t, r.Approve(uuid.New()))
		require.NoError(t, repo.SaveWithLock(ctx, r))

		require.NoError(t, stale.Cancel("late"))
		err = repo.SaveWithLock(ctx, stale)
		assert.Equal(t, shared.CodeOptimisticLockFailed, shared.ErrorCode(err))
	})

	t.Run("lists with filters and totals", func(t *testing.T) {
		repo := NewGormStagnantReturnRepository(setupTestDB(t))
		warehouseID := uuid.New()
		for i := 0; i < 3; i++ {
			require.NoError(t, repo.Create(ctx, newReturn(t, uuid.New(), warehouseID)))
		}
		require.NoError(t, repo.Create(ctx, newReturn(t, uuid.New(), uuid.New())))

		items, total, err := repo.FindAll(ctx, inventory.ReturnFilter{
			Filter:      shared.Filter{Page: 1, PageSize: 2},
			WarehouseID: &warehouseID,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, items, 2)

		approved := inventory.ReturnApproved
		items, total, err = repo.FindAll(ctx, inventory.ReturnFilter{Status: &approved})
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, items)
	})
}
