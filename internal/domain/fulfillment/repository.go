package fulfillment

import (
	"context"

	"github.com/boxstock/backend/internal/domain/shared"
	"github.com/boxstock/backend/internal/domain/warehouse"
	"github.com/google/uuid"
)

// QueueFilter selects the orders shown to one role
type QueueFilter struct {
	shared.Filter
	Role        warehouse.EmployeeRole
	WarehouseID *uuid.UUID
	// Unassigned limits the queue to orders nobody holds yet
	Unassigned bool
}

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	// FindByID loads an order with its lines
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByOrderNumber loads an order by its number
	FindByOrderNumber(ctx context.Context, orderNumber string) (*Order, error)

	// FindWaitingForStock returns WAITING_STOCK orders, oldest first.
	// Nil filters match everything.
	FindWaitingForStock(ctx context.Context, productID, warehouseID *uuid.UUID, limit int) ([]Order, error)

	// FindQueue returns the non-terminal orders owned by a role, oldest first
	FindQueue(ctx context.Context, filter QueueFilter) ([]Order, int64, error)

	// Create inserts a new order with its lines
	Create(ctx context.Context, order *Order) error

	// SaveWithLock updates the order header with an optimistic version check
	SaveWithLock(ctx context.Context, order *Order) error
}
