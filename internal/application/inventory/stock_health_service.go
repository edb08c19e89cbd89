package inventory

import (
	"context"
	"sort"

	"github.com/boxstock/backend/internal/domain/inventory"
	"github.com/boxstock/backend/internal/domain/warehouse"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HealthMetrics receives per-warehouse urgency counts
type HealthMetrics interface {
	SetStockHealth(warehouseID uuid.UUID, counts map[inventory.Urgency]int)
}

// StockHealthService classifies the stock of a warehouse
type StockHealthService struct {
	stockRepo     inventory.StockRecordRepository
	salesRepo     inventory.SalesHistoryRepository
	warehouseRepo warehouse.WarehouseRepository
	classifier    *inventory.StockHealthClassifier
	window        inventory.LookbackWindow
	metrics       HealthMetrics
	logger        *zap.Logger
}

// NewStockHealthService creates a new StockHealthService
func NewStockHealthService(
	stockRepo inventory.StockRecordRepository,
	salesRepo inventory.SalesHistoryRepository,
	warehouseRepo warehouse.WarehouseRepository,
	classifier *inventory.StockHealthClassifier,
	logger *zap.Logger,
) *StockHealthService {
	return &StockHealthService{
		stockRepo:     stockRepo,
		salesRepo:     salesRepo,
		warehouseRepo: warehouseRepo,
		classifier:    classifier,
		window:        inventory.WindowMonth,
		logger:        logger,
	}
}

// SetDefaultWindow sets the lookback window used when a query names none
func (s *StockHealthService) SetDefaultWindow(w inventory.LookbackWindow) {
	if w != "" {
		s.window = w
	}
}

// SetMetrics sets the gauge sink used by Snapshot
func (s *StockHealthService) SetMetrics(m HealthMetrics) {
	s.metrics = m
}

// Health reports every record of a warehouse, most urgent first. Within an
// urgency tier records that deplete sooner come first; records without a
// turnover estimate go last.
func (s *StockHealthService) Health(ctx context.Context, q HealthQuery) ([]HealthItemResponse, error) {
	if _, err := s.warehouseRepo.FindByID(ctx, q.WarehouseID); err != nil {
		return nil, err
	}
	if q.Window == "" {
		q.Window = s.window
	}

	assessments, err := s.assessWarehouse(ctx, q.WarehouseID, q.Window)
	if err != nil {
		return nil, err
	}

	out := make([]HealthItemResponse, 0, len(assessments))
	for _, a := range assessments {
		if q.Urgency != nil && a.Urgency != *q.Urgency {
			continue
		}
		out = append(out, ToHealthItemResponse(a))
	}
	sortHealthItems(out)
	return out, nil
}

// Assess classifies a single (product, warehouse) pair
func (s *StockHealthService) Assess(ctx context.Context, productID, warehouseID uuid.UUID, window inventory.LookbackWindow) (*HealthItemResponse, error) {
	record, err := s.stockRepo.FindByProductAndWarehouse(ctx, productID, warehouseID)
	if err != nil {
		return nil, err
	}
	if window == "" {
		window = s.window
	}
	h, err := loadHistory(ctx, s.salesRepo, s.classifier, record, window)
	if err != nil {
		return nil, err
	}
	resp := ToHealthItemResponse(s.classifier.Assess(record, h))
	return &resp, nil
}

// Snapshot recomputes the urgency counts of a warehouse and hands them to
// the metrics sink
func (s *StockHealthService) Snapshot(ctx context.Context, warehouseID uuid.UUID) (map[inventory.Urgency]int, error) {
	assessments, err := s.assessWarehouse(ctx, warehouseID, s.window)
	if err != nil {
		return nil, err
	}
	counts := map[inventory.Urgency]int{
		inventory.UrgencyCritical:  0,
		inventory.UrgencyWarning:   0,
		inventory.UrgencyAttention: 0,
		inventory.UrgencyNormal:    0,
	}
	for _, a := range assessments {
		counts[a.Urgency]++
	}
	if s.metrics != nil {
		s.metrics.SetStockHealth(warehouseID, counts)
	}
	s.logger.Debug("stock health snapshot",
		zap.String("warehouse_id", warehouseID.String()),
		zap.Int("records", len(assessments)),
		zap.Int("critical", counts[inventory.UrgencyCritical]),
	)
	return counts, nil
}

func (s *StockHealthService) assessWarehouse(ctx context.Context, warehouseID uuid.UUID, window inventory.LookbackWindow) ([]inventory.HealthAssessment, error) {
	records, err := s.stockRepo.FindByWarehouse(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	out := make([]inventory.HealthAssessment, 0, len(records))
	for i := range records {
		h, err := loadHistory(ctx, s.salesRepo, s.classifier, &records[i], window)
		if err != nil {
			return nil, err
		}
		out = append(out, s.classifier.Assess(&records[i], h))
	}
	return out, nil
}

func sortHealthItems(items []HealthItemResponse) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if ra, rb := a.Urgency.Rank(), b.Urgency.Rank(); ra != rb {
			return ra < rb
		}
		switch {
		case a.TurnoverDays != nil && b.TurnoverDays != nil && *a.TurnoverDays != *b.TurnoverDays:
			return *a.TurnoverDays < *b.TurnoverDays
		case a.TurnoverDays != nil && b.TurnoverDays == nil:
			return true
		case a.TurnoverDays == nil && b.TurnoverDays != nil:
			return false
		}
		if a.AvailableBoxes != b.AvailableBoxes {
			return a.AvailableBoxes < b.AvailableBoxes
		}
		return a.ProductID.String() < b.ProductID.String()
	})
}
