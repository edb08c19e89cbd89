package warehouse

import (
	"context"

	"github.com/google/uuid"
)

// WarehouseRepository defines the interface for warehouse persistence
type WarehouseRepository interface {
	ActiveWarehouseLookup

	// FindByID finds a warehouse by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Warehouse, error)

	// FindByCode finds a warehouse by its code
	FindByCode(ctx context.Context, code string) (*Warehouse, error)

	// FindAll lists all warehouses ordered by code
	FindAll(ctx context.Context) ([]Warehouse, error)

	// Save creates or updates a warehouse
	Save(ctx context.Context, warehouse *Warehouse) error

	// ExistsByCode checks if a warehouse code is already taken
	ExistsByCode(ctx context.Context, code string) (bool, error)
}

// DistrictRepository defines the interface for district persistence
type DistrictRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*District, error)
	// FindByIDs returns the districts that exist among ids, in no particular order
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]District, error)
	FindAll(ctx context.Context) ([]District, error)
	Save(ctx context.Context, district *District) error
}

// EmployeeRepository defines the interface for employee persistence
type EmployeeRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Employee, error)
	// FindByWarehouse lists active employees bound to a warehouse
	FindByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]Employee, error)
	Save(ctx context.Context, employee *Employee) error
}
