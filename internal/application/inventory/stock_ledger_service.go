package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/boxstock/backend/internal/domain/catalog"
	"github.com/boxstock/backend/internal/domain/inventory"
	"github.com/boxstock/backend/internal/domain/shared"
	"github.com/boxstock/backend/internal/domain/shared/service"
	"github.com/boxstock/backend/internal/domain/warehouse"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultLockWait bounds how long a mutation waits for its stock record
const DefaultLockWait = 3 * time.Second

// Reservation outcomes reported to LedgerMetrics
const (
	OutcomeReserved     = "reserved"
	OutcomeExisting     = "existing"
	OutcomeInsufficient = "insufficient"
	OutcomeConflict     = "conflict"
	OutcomeError        = "error"
)

// RowLocker serializes work on one stock record key. Lock blocks until the
// key is free or ctx is done; the returned func releases the key.
type RowLocker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// LedgerMetrics receives ledger outcomes
type LedgerMetrics interface {
	ObserveReservation(outcome string)
	ObserveLockWait(d time.Duration)
}

// StockKey is the lock key of a (product, warehouse) pair
func StockKey(productID, warehouseID uuid.UUID) string {
	return "stock:" + productID.String() + ":" + warehouseID.String()
}

// StockLedgerService is the single writer of quantity and reservations per
// (product, warehouse). Every mutation holds the row lock for its key, runs
// in one transaction and publishes the record's events after commit.
type StockLedgerService struct {
	stockRepo       inventory.StockRecordRepository
	reservationRepo inventory.ReservationRepository
	productRepo     catalog.ProductRepository
	warehouseRepo   warehouse.WarehouseRepository
	txScope         TransactionScope
	locker          RowLocker
	lockWait        time.Duration
	eventPublisher  shared.EventPublisher
	metrics         LedgerMetrics
	converter       *service.UnitConverter
	logger          *zap.Logger
	now             func() time.Time
}

// StockLedgerOption configures a StockLedgerService
type StockLedgerOption func(*StockLedgerService)

// WithLockWait overrides DefaultLockWait
func WithLockWait(d time.Duration) StockLedgerOption {
	return func(s *StockLedgerService) {
		if d > 0 {
			s.lockWait = d
		}
	}
}

// WithLedgerMetrics reports reservation outcomes and lock waits
func WithLedgerMetrics(m LedgerMetrics) StockLedgerOption {
	return func(s *StockLedgerService) {
		s.metrics = m
	}
}

// WithLedgerClock replaces time.Now for sale timestamps
func WithLedgerClock(now func() time.Time) StockLedgerOption {
	return func(s *StockLedgerService) {
		s.now = now
	}
}

// NewStockLedgerService creates a new StockLedgerService
func NewStockLedgerService(
	stockRepo inventory.StockRecordRepository,
	reservationRepo inventory.ReservationRepository,
	productRepo catalog.ProductRepository,
	warehouseRepo warehouse.WarehouseRepository,
	txScope TransactionScope,
	locker RowLocker,
	logger *zap.Logger,
	opts ...StockLedgerOption,
) *StockLedgerService {
	s := &StockLedgerService{
		stockRepo:       stockRepo,
		reservationRepo: reservationRepo,
		productRepo:     productRepo,
		warehouseRepo:   warehouseRepo,
		txScope:         txScope,
		locker:          locker,
		lockWait:        DefaultLockWait,
		converter:       service.NewUnitConverter(),
		logger:          logger,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *StockLedgerService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Reserve holds boxes for an order line. The call is idempotent per
// (order, line): an active reservation for the line is returned as is.
// A pair with no stock record fails with INSUFFICIENT_STOCK like an empty one.
func (s *StockLedgerService) Reserve(ctx context.Context, req ReserveRequest) (*ReservationResponse, error) {
	if req.Boxes <= 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Reserved boxes must be positive")
	}

	var (
		reservation *inventory.Reservation
		existing    bool
		events      []shared.DomainEvent
	)
	err := s.withRowLock(ctx, req.ProductID, req.WarehouseID, func(ctx context.Context) error {
		return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			found, err := repos.ReservationRepo().FindActiveByOrderLine(ctx, req.OrderID, req.LineNo)
			switch {
			case err == nil:
				if found.ProductID != req.ProductID || found.WarehouseID != req.WarehouseID {
					return shared.NewDomainErrorf(shared.CodeInvalidInput,
						"Order line %d already holds a reservation for another product or warehouse", req.LineNo)
				}
				reservation, existing = found, true
				return nil
			case !errors.Is(err, shared.ErrNotFound):
				return err
			}

			record, err := repos.StockRepo().FindByProductAndWarehouseForUpdate(ctx, req.ProductID, req.WarehouseID)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					return shared.NewDomainErrorf(shared.CodeInsufficientStock,
						"Insufficient stock: requested %d boxes, 0 available", req.Boxes)
				}
				return err
			}

			r, err := record.Reserve(req.OrderID, req.LineNo, req.Boxes)
			if err != nil {
				return err
			}
			if err := repos.StockRepo().SaveWithLock(ctx, record); err != nil {
				return err
			}
			if err := repos.ReservationRepo().Save(ctx, r); err != nil {
				return err
			}
			reservation = r
			events = record.PullDomainEvents()
			return nil
		})
	})
	if err != nil {
		s.observeReservation(reservationOutcome(err))
		if errors.Is(err, shared.ErrInsufficientStock) {
			s.logger.Debug("reservation rejected",
				zap.String("order_id", req.OrderID.String()),
				zap.Int("line_no", req.LineNo),
				zap.String("product_id", req.ProductID.String()),
				zap.String("warehouse_id", req.WarehouseID.String()),
				zap.Int("boxes", req.Boxes),
			)
		}
		return nil, err
	}

	if existing {
		s.observeReservation(OutcomeExisting)
	} else {
		s.observeReservation(OutcomeReserved)
		s.publish(ctx, events)
	}

	s.logger.Debug("stock reserved",
		zap.String("reservation_id", reservation.ID.String()),
		zap.String("order_id", req.OrderID.String()),
		zap.Int("line_no", req.LineNo),
		zap.Int("boxes", reservation.Boxes),
		zap.Bool("existing", existing),
	)
	response := ToReservationResponse(reservation)
	response.Existing = existing
	return &response, nil
}

// Release returns a reservation's boxes to availability. Releasing an
// already released reservation is a no-op and reports false.
func (s *StockLedgerService) Release(ctx context.Context, reservationID uuid.UUID) (bool, error) {
	r, err := s.reservationRepo.FindByID(ctx, reservationID)
	if err != nil {
		return false, err
	}
	if r.Status == inventory.ReservationReleased {
		return false, nil
	}

	var (
		released bool
		events   []shared.DomainEvent
	)
	err = s.withRowLock(ctx, r.ProductID, r.WarehouseID, func(ctx context.Context) error {
		return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			// Reload under the lock: another caller may have settled it meanwhile.
			current, err := repos.ReservationRepo().FindByID(ctx, reservationID)
			if err != nil {
				return err
			}
			record, err := repos.StockRepo().FindByProductAndWarehouseForUpdate(ctx, current.ProductID, current.WarehouseID)
			if err != nil {
				return err
			}
			released, err = record.Release(current)
			if err != nil || !released {
				return err
			}
			if err := repos.StockRepo().SaveWithLock(ctx, record); err != nil {
				return err
			}
			if err := repos.ReservationRepo().Save(ctx, current); err != nil {
				return err
			}
			events = record.PullDomainEvents()
			return nil
		})
	})
	if err != nil {
		return false, err
	}

	s.publish(ctx, events)
	return released, nil
}

// Commit turns a reservation into a permanent deduction and records the sale.
// Committing twice is a no-op.
func (s *StockLedgerService) Commit(ctx context.Context, reservationID uuid.UUID) error {
	r, err := s.reservationRepo.FindByID(ctx, reservationID)
	if err != nil {
		return err
	}
	if r.Status == inventory.ReservationCommitted {
		return nil
	}

	var events []shared.DomainEvent
	err = s.withRowLock(ctx, r.ProductID, r.WarehouseID, func(ctx context.Context) error {
		return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			current, err := repos.ReservationRepo().FindByID(ctx, reservationID)
			if err != nil {
				return err
			}
			record, err := repos.StockRepo().FindByProductAndWarehouseForUpdate(ctx, current.ProductID, current.WarehouseID)
			if err != nil {
				return err
			}
			sale, err := record.Commit(current, s.now())
			if err != nil || sale == nil {
				return err
			}
			if err := repos.StockRepo().SaveWithLock(ctx, record); err != nil {
				return err
			}
			if err := repos.ReservationRepo().Save(ctx, current); err != nil {
				return err
			}
			if err := repos.SalesRepo().Record(ctx, sale); err != nil {
				return err
			}
			events = record.PullDomainEvents()
			return nil
		})
	})
	if err != nil {
		return err
	}

	s.publish(ctx, events)
	return nil
}

// Restock adds boxes to a pair, creating its stock record on first delivery.
// Reservations are untouched.
func (s *StockLedgerService) Restock(ctx context.Context, req RestockRequest) (*StockRecordResponse, error) {
	if req.Boxes <= 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Restock quantity must be positive")
	}
	if _, err := s.productRepo.FindByID(ctx, req.ProductID); err != nil {
		return nil, err
	}
	wh, err := s.warehouseRepo.FindByID(ctx, req.WarehouseID)
	if err != nil {
		return nil, err
	}
	if !wh.IsActive() {
		return nil, shared.NewDomainError(shared.CodeInvalidTransition, "Cannot restock an inactive warehouse")
	}

	var (
		record *inventory.StockRecord
		events []shared.DomainEvent
	)
	err = s.withRowLock(ctx, req.ProductID, req.WarehouseID, func(ctx context.Context) error {
		return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			found, err := repos.StockRepo().FindByProductAndWarehouseForUpdate(ctx, req.ProductID, req.WarehouseID)
			switch {
			case err == nil:
				if err := found.Restock(req.Boxes); err != nil {
					return err
				}
				if err := repos.StockRepo().SaveWithLock(ctx, found); err != nil {
					return err
				}
			case errors.Is(err, shared.ErrNotFound):
				found, err = inventory.NewStockRecord(req.ProductID, req.WarehouseID)
				if err != nil {
					return err
				}
				if err := found.Restock(req.Boxes); err != nil {
					return err
				}
				if err := repos.StockRepo().Create(ctx, found); err != nil {
					return err
				}
			default:
				return err
			}
			record = found
			events = found.PullDomainEvents()
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events)
	s.logger.Info("stock restocked",
		zap.String("product_id", req.ProductID.String()),
		zap.String("warehouse_id", req.WarehouseID.String()),
		zap.Int("delta_boxes", req.Boxes),
		zap.Int("quantity_boxes", record.QuantityBoxes),
	)
	response := ToStockRecordResponse(record)
	return &response, nil
}

// ReservationsForOrder lists an order's reservations by line
func (s *StockLedgerService) ReservationsForOrder(ctx context.Context, orderID uuid.UUID) ([]ReservationResponse, error) {
	rs, err := s.reservationRepo.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	out := make([]ReservationResponse, len(rs))
	for i := range rs {
		out[i] = ToReservationResponse(&rs[i])
	}
	return out, nil
}

// ReleaseForOrder releases every active reservation of an order and returns
// how many were released. It stops at the first failure.
func (s *StockLedgerService) ReleaseForOrder(ctx context.Context, orderID uuid.UUID) (int, error) {
	rs, err := s.reservationRepo.FindByOrder(ctx, orderID)
	if err != nil {
		return 0, err
	}
	released := 0
	for _, r := range rs {
		if !r.IsActive() {
			continue
		}
		ok, err := s.Release(ctx, r.ID)
		if err != nil {
			return released, fmt.Errorf("release reservation %s: %w", r.ID, err)
		}
		if ok {
			released++
		}
	}
	return released, nil
}

// CommitForOrder commits every active reservation of an order and returns
// how many were committed
func (s *StockLedgerService) CommitForOrder(ctx context.Context, orderID uuid.UUID) (int, error) {
	rs, err := s.reservationRepo.FindByOrder(ctx, orderID)
	if err != nil {
		return 0, err
	}
	committed := 0
	for _, r := range rs {
		if !r.IsActive() {
			continue
		}
		if err := s.Commit(ctx, r.ID); err != nil {
			return committed, fmt.Errorf("commit reservation %s: %w", r.ID, err)
		}
		committed++
	}
	return committed, nil
}

// Get returns the stock record of a pair
func (s *StockLedgerService) Get(ctx context.Context, productID, warehouseID uuid.UUID) (*StockRecordResponse, error) {
	record, err := s.stockRepo.FindByProductAndWarehouse(ctx, productID, warehouseID)
	if err != nil {
		return nil, err
	}
	response := ToStockRecordResponse(record)
	return &response, nil
}

// ListByWarehouse returns every stock record of a warehouse
func (s *StockLedgerService) ListByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]StockRecordResponse, error) {
	records, err := s.stockRepo.FindByWarehouse(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	out := make([]StockRecordResponse, len(records))
	for i := range records {
		out[i] = ToStockRecordResponse(&records[i])
	}
	return out, nil
}

// TotalAcrossWarehouses sums quantity and availability over every warehouse
func (s *StockLedgerService) TotalAcrossWarehouses(ctx context.Context, productID uuid.UUID) (*StockTotals, error) {
	records, err := s.stockRepo.FindByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	totals := &StockTotals{ProductID: productID, Warehouses: len(records)}
	for i := range records {
		totals.QuantityBoxes += records[i].QuantityBoxes
		totals.AvailableBoxes += records[i].AvailableBoxes()
	}
	return totals, nil
}

// Availability reports a product's boxes in one warehouse, or summed across
// all warehouses when warehouseID is nil. A pair without a record has none.
func (s *StockLedgerService) Availability(ctx context.Context, productID uuid.UUID, warehouseID *uuid.UUID) (*AvailabilityResponse, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	resp := &AvailabilityResponse{ProductID: productID, WarehouseID: warehouseID}
	if warehouseID == nil {
		totals, err := s.TotalAcrossWarehouses(ctx, productID)
		if err != nil {
			return nil, err
		}
		resp.QuantityBoxes = totals.QuantityBoxes
		resp.AvailableBoxes = totals.AvailableBoxes
	} else {
		record, err := s.stockRepo.FindByProductAndWarehouse(ctx, productID, *warehouseID)
		switch {
		case err == nil:
			resp.QuantityBoxes = record.QuantityBoxes
			resp.AvailableBoxes = record.AvailableBoxes()
		case errors.Is(err, shared.ErrNotFound):
			if _, err := s.warehouseRepo.FindByID(ctx, *warehouseID); err != nil {
				return nil, err
			}
		default:
			return nil, err
		}
	}

	items, err := s.converter.ItemsFromBoxes(resp.AvailableBoxes, product.ItemsPerBox)
	if err != nil {
		return nil, err
	}
	resp.AvailableItems = items
	return resp, nil
}

// withRowLock runs fn while holding the row lock for the pair. Waiting is
// bounded by lockWait; a timeout surfaces as CONCURRENCY_CONFLICT.
func (s *StockLedgerService) withRowLock(ctx context.Context, productID, warehouseID uuid.UUID, fn func(ctx context.Context) error) error {
	if s.locker == nil {
		return fn(ctx)
	}

	key := StockKey(productID, warehouseID)
	lockCtx, cancel := context.WithTimeout(ctx, s.lockWait)
	defer cancel()

	start := time.Now()
	unlock, err := s.locker.Lock(lockCtx, key)
	if s.metrics != nil {
		s.metrics.ObserveLockWait(time.Since(start))
	}
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Warn("stock record lock not acquired",
			zap.String("key", key),
			zap.Duration("wait", s.lockWait),
			zap.Error(err),
		)
		return shared.NewDomainErrorf(shared.CodeConcurrencyConflict,
			"Stock record is busy, try again")
	}
	defer unlock()

	return fn(ctx)
}

// publish sends events after the transaction committed. Errors are logged
// by the event bus, not propagated.
func (s *StockLedgerService) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
}

func (s *StockLedgerService) observeReservation(outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveReservation(outcome)
	}
}

func reservationOutcome(err error) string {
	switch {
	case errors.Is(err, shared.ErrInsufficientStock):
		return OutcomeInsufficient
	case errors.Is(err, shared.ErrConcurrencyConflict), errors.Is(err, shared.ErrOptimisticLock):
		return OutcomeConflict
	default:
		return OutcomeError
	}
}
