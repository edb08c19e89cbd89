package inventory

import (
	"github.com/boxstock/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constants
const (
	AggregateTypeStockRecord    = "StockRecord"
	AggregateTypeStagnantReturn = "StagnantReturn"
)

// Event type constants
const (
	EventTypeStockReserved               = "StockReserved"
	EventTypeStockReleased               = "StockReleased"
	EventTypeStockCommitted              = "StockCommitted"
	EventTypeStockRestocked              = "StockRestocked"
	EventTypeStagnantReturnFlagged       = "StagnantReturnFlagged"
	EventTypeStagnantReturnStatusChanged = "StagnantReturnStatusChanged"
)

// StockLevels is the ledger snapshot carried by every stock event
type StockLevels struct {
	StockRecordID  uuid.UUID `json:"stock_record_id"`
	ProductID      uuid.UUID `json:"product_id"`
	WarehouseID    uuid.UUID `json:"warehouse_id"`
	QuantityBoxes  int       `json:"quantity_boxes"`
	ReservedBoxes  int       `json:"reserved_boxes"`
	AvailableBoxes int       `json:"available_boxes"`
}

func levelsOf(s *StockRecord) StockLevels {
	return StockLevels{
		StockRecordID:  s.ID,
		ProductID:      s.ProductID,
		WarehouseID:    s.WarehouseID,
		QuantityBoxes:  s.QuantityBoxes,
		ReservedBoxes:  s.ReservedBoxes,
		AvailableBoxes: s.AvailableBoxes(),
	}
}

// StockReservedEvent is raised when boxes are reserved for an order line
type StockReservedEvent struct {
	shared.BaseDomainEvent
	StockLevels
	ReservationID uuid.UUID `json:"reservation_id"`
	OrderID       uuid.UUID `json:"order_id"`
	LineNo        int       `json:"line_no"`
	Boxes         int       `json:"boxes"`
}

func NewStockReservedEvent(s *StockRecord, r *Reservation) *StockReservedEvent {
	return &StockReservedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockReserved, AggregateTypeStockRecord, s.ID),
		StockLevels:     levelsOf(s),
		ReservationID:   r.ID,
		OrderID:         r.OrderID,
		LineNo:          r.LineNo,
		Boxes:           r.Boxes,
	}
}

// StockReleasedEvent is raised when a reservation is released
type StockReleasedEvent struct {
	shared.BaseDomainEvent
	StockLevels
	ReservationID uuid.UUID `json:"reservation_id"`
	OrderID       uuid.UUID `json:"order_id"`
	Boxes         int       `json:"boxes"`
}

func NewStockReleasedEvent(s *StockRecord, r *Reservation) *StockReleasedEvent {
	return &StockReleasedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockReleased, AggregateTypeStockRecord, s.ID),
		StockLevels:     levelsOf(s),
		ReservationID:   r.ID,
		OrderID:         r.OrderID,
		Boxes:           r.Boxes,
	}
}

// StockCommittedEvent is raised when reserved boxes physically leave the warehouse
type StockCommittedEvent struct {
	shared.BaseDomainEvent
	StockLevels
	ReservationID uuid.UUID `json:"reservation_id"`
	OrderID       uuid.UUID `json:"order_id"`
	Boxes         int       `json:"boxes"`
}

func NewStockCommittedEvent(s *StockRecord, r *Reservation) *StockCommittedEvent {
	return &StockCommittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockCommitted, AggregateTypeStockRecord, s.ID),
		StockLevels:     levelsOf(s),
		ReservationID:   r.ID,
		OrderID:         r.OrderID,
		Boxes:           r.Boxes,
	}
}

// StockRestockedEvent is raised when boxes are added. Orders waiting for
// stock of this product in this warehouse are re-evaluated on it.
type StockRestockedEvent struct {
	shared.BaseDomainEvent
	StockLevels
	DeltaBoxes int `json:"delta_boxes"`
}

func NewStockRestockedEvent(s *StockRecord, delta int) *StockRestockedEvent {
	return &StockRestockedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockRestocked, AggregateTypeStockRecord, s.ID),
		StockLevels:     levelsOf(s),
		DeltaBoxes:      delta,
	}
}

// StagnantReturnFlaggedEvent is raised when a stagnant return is opened
type StagnantReturnFlaggedEvent struct {
	shared.BaseDomainEvent
	ReturnID     uuid.UUID     `json:"return_id"`
	ProductID    uuid.UUID     `json:"product_id"`
	WarehouseID  uuid.UUID     `json:"warehouse_id"`
	UrgencyLevel ReturnUrgency `json:"urgency_level"`
	DaysIdle     int           `json:"days_idle"`
}

func NewStagnantReturnFlaggedEvent(r *StagnantReturn) *StagnantReturnFlaggedEvent {
	return &StagnantReturnFlaggedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStagnantReturnFlagged, AggregateTypeStagnantReturn, r.ID),
		ReturnID:        r.ID,
		ProductID:       r.ProductID,
		WarehouseID:     r.WarehouseID,
		UrgencyLevel:    r.UrgencyLevel,
		DaysIdle:        r.DaysIdle,
	}
}

// StagnantReturnStatusChangedEvent is raised on every return transition
type StagnantReturnStatusChangedEvent struct {
	shared.BaseDomainEvent
	ReturnID  uuid.UUID    `json:"return_id"`
	OldStatus ReturnStatus `json:"old_status"`
	NewStatus ReturnStatus `json:"new_status"`
}

func NewStagnantReturnStatusChangedEvent(r *StagnantReturn, old ReturnStatus) *StagnantReturnStatusChangedEvent {
	return &StagnantReturnStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStagnantReturnStatusChanged, AggregateTypeStagnantReturn, r.ID),
		ReturnID:        r.ID,
		OldStatus:       old,
		NewStatus:       r.Status,
	}
}
