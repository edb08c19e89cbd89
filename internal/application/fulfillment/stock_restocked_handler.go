package fulfillment

import (
	"context"
	"fmt"

	"github.com/boxstock/backend/internal/domain/inventory"
	"github.com/boxstock/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DefaultRestockRetryLimit caps how many waiting orders one restock retries
const DefaultRestockRetryLimit = 50

// StockRestockedHandler handles StockRestockedEvent and retries the orders
// waiting for that product in that warehouse, oldest first. Orders that are
// still short stay in WAITING_STOCK.
type StockRestockedHandler struct {
	orderService *OrderService
	limit        int
	logger       *zap.Logger
}

// NewStockRestockedHandler creates a new handler for stock restocked events
func NewStockRestockedHandler(orderService *OrderService, limit int, logger *zap.Logger) *StockRestockedHandler {
	if limit <= 0 {
		limit = DefaultRestockRetryLimit
	}
	return &StockRestockedHandler{
		orderService: orderService,
		limit:        limit,
		logger:       logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *StockRestockedHandler) EventTypes() []string {
	return []string{inventory.EventTypeStockRestocked}
}

// Handle processes a StockRestockedEvent
func (h *StockRestockedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	restocked, ok := event.(*inventory.StockRestockedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", inventory.EventTypeStockRestocked),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			inventory.EventTypeStockRestocked, event.EventType())
	}

	productID := restocked.ProductID
	warehouseID := restocked.WarehouseID
	result, err := h.orderService.ResumeWaiting(ctx, &productID, &warehouseID, h.limit)
	if err != nil {
		h.logger.Error("failed to retry waiting orders after restock",
			zap.String("product_id", productID.String()),
			zap.String("warehouse_id", warehouseID.String()),
			zap.Error(err),
		)
		return fmt.Errorf("retry waiting orders: %w", err)
	}

	if result.Examined > 0 {
		h.logger.Info("waiting orders retried after restock",
			zap.String("product_id", productID.String()),
			zap.String("warehouse_id", warehouseID.String()),
			zap.Int("delta_boxes", restocked.DeltaBoxes),
			zap.Int("examined", result.Examined),
			zap.Int("resumed", result.Resumed),
			zap.Int("still_waiting", result.Waiting),
			zap.Int("failed", result.Failed),
		)
	}
	return nil
}
