package inventory

import (
	"fmt"
	"time"

	"github.com/boxstock/backend/internal/domain/shared"
	"github.com/boxstock/backend/internal/domain/shared/service"
	"github.com/google/uuid"
)

var converter = service.NewUnitConverter()

// StockRecord holds the box count and reservations for one product in one
// warehouse. It is the aggregate root for every ledger mutation.
// Invariant: 0 <= ReservedBoxes <= QuantityBoxes.
type StockRecord struct {
	shared.BaseAggregateRoot
	ProductID       uuid.UUID
	WarehouseID     uuid.UUID
	QuantityBoxes   int
	ReservedBoxes   int
	LastRestockedAt *time.Time
}

// NewStockRecord creates an empty stock record
func NewStockRecord(productID, warehouseID uuid.UUID) (*StockRecord, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Product ID cannot be empty")
	}
	if warehouseID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Warehouse ID cannot be empty")
	}
	return &StockRecord{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProductID:         productID,
		WarehouseID:       warehouseID,
	}, nil
}

// AvailableBoxes is quantity minus reserved, never negative.
// This is the only definition of availability in the system.
func (s *StockRecord) AvailableBoxes() int {
	if avail := s.QuantityBoxes - s.ReservedBoxes; avail > 0 {
		return avail
	}
	return 0
}

// AvailableItems converts available boxes into items
func (s *StockRecord) AvailableItems(itemsPerBox int) (int, error) {
	return converter.ItemsFromBoxes(s.AvailableBoxes(), itemsPerBox)
}

// Reserve holds boxes for an order line. Fails with INSUFFICIENT_STOCK when
// fewer than boxes are available; the record is left unchanged in that case.
func (s *StockRecord) Reserve(orderID uuid.UUID, lineNo, boxes int) (*Reservation, error) {
	if boxes <= 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Reserved boxes must be positive")
	}
	if orderID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Order ID is required")
	}
	if avail := s.AvailableBoxes(); avail < boxes {
		return nil, shared.NewDomainErrorf(shared.CodeInsufficientStock,
			"Insufficient stock: requested %d boxes, %d available", boxes, avail)
	}

	s.ReservedBoxes += boxes
	s.IncrementVersion()

	r := NewReservation(s, orderID, lineNo, boxes)
	s.AddDomainEvent(NewStockReservedEvent(s, r))
	return r, s.checkInvariant()
}

// Release returns a reservation's boxes to availability. Releasing a
// reservation that is already released is a no-op and reports false.
func (s *StockRecord) Release(r *Reservation) (bool, error) {
	if err := s.owns(r); err != nil {
		return false, err
	}
	switch r.Status {
	case ReservationReleased:
		return false, nil
	case ReservationCommitted:
		return false, shared.NewDomainError(shared.CodeInvalidTransition, "Cannot release a committed reservation")
	}

	s.ReservedBoxes -= r.Boxes
	s.IncrementVersion()
	r.markReleased()

	s.AddDomainEvent(NewStockReleasedEvent(s, r))
	return true, s.checkInvariant()
}

// Commit turns a reservation into a permanent deduction: quantity and
// reserved both drop by the reserved amount. Committing twice is a no-op
// that returns a nil sale record.
func (s *StockRecord) Commit(r *Reservation, at time.Time) (*SaleRecord, error) {
	if err := s.owns(r); err != nil {
		return nil, err
	}
	switch r.Status {
	case ReservationCommitted:
		return nil, nil
	case ReservationReleased:
		return nil, shared.NewDomainError(shared.CodeInvalidTransition, "Cannot commit a released reservation")
	}

	s.QuantityBoxes -= r.Boxes
	s.ReservedBoxes -= r.Boxes
	s.IncrementVersion()
	r.markCommitted()

	s.AddDomainEvent(NewStockCommittedEvent(s, r))
	return NewSaleRecord(r, at), s.checkInvariant()
}

// Restock adds boxes. Reservations are untouched.
func (s *StockRecord) Restock(deltaBoxes int) error {
	if deltaBoxes <= 0 {
		return shared.NewDomainError(shared.CodeInvalidInput, "Restock quantity must be positive")
	}

	now := time.Now()
	s.QuantityBoxes += deltaBoxes
	s.LastRestockedAt = &now
	s.IncrementVersion()

	s.AddDomainEvent(NewStockRestockedEvent(s, deltaBoxes))
	return nil
}

func (s *StockRecord) owns(r *Reservation) error {
	if r == nil {
		return shared.NewDomainError(shared.CodeInvalidInput, "Reservation is required")
	}
	if r.StockRecordID != s.ID {
		return shared.NewDomainError(shared.CodeInvalidInput, "Reservation does not belong to this stock record")
	}
	return nil
}

func (s *StockRecord) checkInvariant() error {
	if s.ReservedBoxes < 0 || s.ReservedBoxes > s.QuantityBoxes {
		return fmt.Errorf("stock record %s: reserved %d outside [0, %d]", s.ID, s.ReservedBoxes, s.QuantityBoxes)
	}
	return nil
}
