package inventory

import (
	"context"
	"time"

	"github.com/boxstock/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// StockRecordRepository defines the interface for stock record persistence
type StockRecordRepository interface {
	// FindByID finds a stock record by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*StockRecord, error)

	// FindByProductAndWarehouse finds the record for a (product, warehouse) pair
	FindByProductAndWarehouse(ctx context.Context, productID, warehouseID uuid.UUID) (*StockRecord, error)

	// FindByProductAndWarehouseForUpdate is FindByProductAndWarehouse with a
	// row lock held until the surrounding transaction ends
	FindByProductAndWarehouseForUpdate(ctx context.Context, productID, warehouseID uuid.UUID) (*StockRecord, error)

	// FindByProduct returns every warehouse's record for a product
	FindByProduct(ctx context.Context, productID uuid.UUID) ([]StockRecord, error)

	// FindByWarehouse returns every record in a warehouse
	FindByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]StockRecord, error)

	// ExistsForProduct reports whether any record exists for a product
	ExistsForProduct(ctx context.Context, productID uuid.UUID) (bool, error)

	// Create inserts a new record
	Create(ctx context.Context, record *StockRecord) error

	// SaveWithLock updates a record with an optimistic version check.
	// Returns OPTIMISTIC_LOCK_FAILED when the stored version moved.
	SaveWithLock(ctx context.Context, record *StockRecord) error
}

// ReservationRepository defines the interface for reservation persistence
type ReservationRepository interface {
	// FindByID finds a reservation by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Reservation, error)

	// FindActiveByOrderLine finds the active reservation for an order line
	FindActiveByOrderLine(ctx context.Context, orderID uuid.UUID, lineNo int) (*Reservation, error)

	// FindByOrder returns every reservation of an order ordered by line
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]Reservation, error)

	// Save creates or updates a reservation
	Save(ctx context.Context, reservation *Reservation) error
}

// SalesHistoryRepository stores committed outflows and serves them back as
// a daily series
type SalesHistoryRepository interface {
	// Record appends a sale
	Record(ctx context.Context, sale *SaleRecord) error

	// DailySales returns boxes sold per day in [from, to], days without sales omitted
	DailySales(ctx context.Context, productID, warehouseID uuid.UUID, from, to time.Time) ([]SalesPoint, error)

	// LastSaleAt returns the latest sale time, or nil when never sold
	LastSaleAt(ctx context.Context, productID, warehouseID uuid.UUID) (*time.Time, error)
}

// ReturnFilter narrows stagnant return listings
type ReturnFilter struct {
	shared.Filter
	WarehouseID *uuid.UUID
	Status      *ReturnStatus
}

// StagnantReturnRepository defines the interface for stagnant return persistence
type StagnantReturnRepository interface {
	// FindByID finds a return by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*StagnantReturn, error)

	// FindOpen finds the open return for a pair; NOT_FOUND when none
	FindOpen(ctx context.Context, productID, warehouseID uuid.UUID) (*StagnantReturn, error)

	// FindAll lists returns matching the filter, newest first
	FindAll(ctx context.Context, filter ReturnFilter) ([]StagnantReturn, int64, error)

	// Create inserts a new return
	Create(ctx context.Context, r *StagnantReturn) error

	// SaveWithLock updates a return with an optimistic version check
	SaveWithLock(ctx context.Context, r *StagnantReturn) error
}
