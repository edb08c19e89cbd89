package event

import (
	"github.com/boxstock/backend/internal/domain/catalog"
	"github.com/boxstock/backend/internal/domain/fulfillment"
	"github.com/boxstock/backend/internal/domain/inventory"
	"github.com/boxstock/backend/internal/domain/warehouse"
)

// RegisterAllEvents registers every domain event type with the serializer
func RegisterAllEvents(serializer *EventSerializer) {
	// Catalog
	serializer.Register(catalog.EventTypeProductCreated, &catalog.ProductCreatedEvent{})
	serializer.Register(catalog.EventTypeProductPriceChanged, &catalog.ProductPriceChangedEvent{})
	serializer.Register(catalog.EventTypeProductPackagingChanged, &catalog.ProductPackagingChangedEvent{})
	serializer.Register(catalog.EventTypeProductStatusChanged, &catalog.ProductStatusChangedEvent{})

	// Warehouses and staff
	serializer.Register(warehouse.EventTypeWarehouseCreated, &warehouse.WarehouseCreatedEvent{})
	serializer.Register(warehouse.EventTypeWarehouseStatusChanged, &warehouse.WarehouseStatusChangedEvent{})
	serializer.Register(warehouse.EventTypeEmployeeBindingChanged, &warehouse.EmployeeBindingChangedEvent{})

	// Stock ledger
	serializer.Register(inventory.EventTypeStockReserved, &inventory.StockReservedEvent{})
	serializer.Register(inventory.EventTypeStockReleased, &inventory.StockReleasedEvent{})
	serializer.Register(inventory.EventTypeStockCommitted, &inventory.StockCommittedEvent{})
	serializer.Register(inventory.EventTypeStockRestocked, &inventory.StockRestockedEvent{})

	// Stagnant returns
	serializer.Register(inventory.EventTypeStagnantReturnFlagged, &inventory.StagnantReturnFlaggedEvent{})
	serializer.Register(inventory.EventTypeStagnantReturnStatusChanged, &inventory.StagnantReturnStatusChangedEvent{})

	// Orders
	serializer.Register(fulfillment.EventTypeOrderPlaced, &fulfillment.OrderPlacedEvent{})
	serializer.Register(fulfillment.EventTypeOrderStatusChanged, &fulfillment.OrderStatusChangedEvent{})
	serializer.Register(fulfillment.EventTypeOrderWaitingStock, &fulfillment.OrderWaitingStockEvent{})
}
