package inventory

import (
	"time"

	"github.com/boxstock/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ReservationStatus is the lifecycle state of a reservation
type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "ACTIVE"
	ReservationReleased  ReservationStatus = "RELEASED"
	ReservationCommitted ReservationStatus = "COMMITTED"
)

// Reservation is a provisional hold of boxes for one order line.
// It is persisted, so (OrderID, LineNo) always resolves to the same handle.
type Reservation struct {
	shared.BaseEntity
	StockRecordID uuid.UUID
	ProductID     uuid.UUID
	WarehouseID   uuid.UUID
	OrderID       uuid.UUID
	LineNo        int
	Boxes         int
	Status        ReservationStatus
	ReleasedAt    *time.Time
	CommittedAt   *time.Time
}

// NewReservation creates an active reservation against a stock record
func NewReservation(record *StockRecord, orderID uuid.UUID, lineNo, boxes int) *Reservation {
	return &Reservation{
		BaseEntity:    shared.NewBaseEntity(),
		StockRecordID: record.ID,
		ProductID:     record.ProductID,
		WarehouseID:   record.WarehouseID,
		OrderID:       orderID,
		LineNo:        lineNo,
		Boxes:         boxes,
		Status:        ReservationActive,
	}
}

// IsActive returns true while the boxes are still held
func (r *Reservation) IsActive() bool {
	return r.Status == ReservationActive
}

func (r *Reservation) markReleased() {
	now := time.Now()
	r.Status = ReservationReleased
	r.ReleasedAt = &now
	r.UpdatedAt = now
}

func (r *Reservation) markCommitted() {
	now := time.Now()
	r.Status = ReservationCommitted
	r.CommittedAt = &now
	r.UpdatedAt = now
}

// SaleRecord is one committed outflow of boxes. The sales history that
// drives stock health is the series of these rows.
type SaleRecord struct {
	shared.BaseEntity
	ProductID   uuid.UUID
	WarehouseID uuid.UUID
	OrderID     uuid.UUID
	Boxes       int
	SoldAt      time.Time
}

// NewSaleRecord creates a sale record for a committed reservation
func NewSaleRecord(r *Reservation, soldAt time.Time) *SaleRecord {
	return &SaleRecord{
		BaseEntity:  shared.NewBaseEntity(),
		ProductID:   r.ProductID,
		WarehouseID: r.WarehouseID,
		OrderID:     r.OrderID,
		Boxes:       r.Boxes,
		SoldAt:      soldAt,
	}
}
