package inventory

import (
	"context"

	"github.com/boxstock/backend/internal/domain/inventory"
)

// loadHistory builds the classifier input for a stock record over window.
// Tracking starts when the record was created.
func loadHistory(
	ctx context.Context,
	salesRepo inventory.SalesHistoryRepository,
	classifier *inventory.StockHealthClassifier,
	record *inventory.StockRecord,
	window inventory.LookbackWindow,
) (inventory.SalesHistory, error) {
	from, to := classifier.HistoryRange(window)
	points, err := salesRepo.DailySales(ctx, record.ProductID, record.WarehouseID, from, to)
	if err != nil {
		return inventory.SalesHistory{}, err
	}
	last, err := salesRepo.LastSaleAt(ctx, record.ProductID, record.WarehouseID)
	if err != nil {
		return inventory.SalesHistory{}, err
	}
	return inventory.SalesHistory{
		Window:       window,
		Points:       points,
		LastSaleAt:   last,
		TrackedSince: record.CreatedAt,
	}, nil
}
