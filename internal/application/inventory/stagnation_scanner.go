package inventory

import (
	"context"
	"errors"

	"github.com/boxstock/backend/internal/domain/inventory"
	"github.com/boxstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StagnationScanner flags every stagnant, non-empty record of a warehouse
type StagnationScanner struct {
	stockRepo inventory.StockRecordRepository
	returns   *StagnantReturnService
	logger    *zap.Logger
}

// NewStagnationScanner creates a new StagnationScanner
func NewStagnationScanner(stockRepo inventory.StockRecordRepository, returns *StagnantReturnService, logger *zap.Logger) *StagnationScanner {
	return &StagnationScanner{stockRepo: stockRepo, returns: returns, logger: logger}
}

// ScanWarehouse flags the warehouse's stagnant records. Failures on single
// records are counted and logged; the scan carries on.
func (s *StagnationScanner) ScanWarehouse(ctx context.Context, warehouseID uuid.UUID) (*ScanResult, error) {
	records, err := s.stockRepo.FindByWarehouse(ctx, warehouseID)
	if err != nil {
		return nil, err
	}

	result := &ScanResult{WarehouseID: warehouseID}
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if rec.QuantityBoxes <= 0 {
			continue
		}
		result.Scanned++

		_, created, err := s.returns.Flag(ctx, FlagReturnRequest{
			ProductID:   rec.ProductID,
			WarehouseID: rec.WarehouseID,
		})
		switch {
		case errors.Is(err, shared.ErrInvalidInput):
			// not stagnant
		case err != nil:
			result.Failed++
			s.logger.Warn("stagnation flag failed",
				zap.String("product_id", rec.ProductID.String()),
				zap.String("warehouse_id", rec.WarehouseID.String()),
				zap.Error(err),
			)
		case created:
			result.Flagged++
		default:
			result.AlreadyOpen++
		}
	}

	s.logger.Info("stagnation scan completed",
		zap.String("warehouse_id", warehouseID.String()),
		zap.Int("scanned", result.Scanned),
		zap.Int("flagged", result.Flagged),
		zap.Int("already_open", result.AlreadyOpen),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}
