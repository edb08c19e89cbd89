package models

import (
	"time"

	"github.com/boxstock/backend/internal/domain/inventory"
	"github.com/google/uuid"
)

// StockRecordModel is the persistence model for the StockRecord aggregate root.
// One row per (product, warehouse).
type StockRecordModel struct {
	AggregateModel
	ProductID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_stock_record_product_warehouse,priority:1"`
	WarehouseID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_stock_record_product_warehouse,priority:2;index"`
	QuantityBoxes   int       `gorm:"not null;default:0;check:chk_stock_quantity,quantity_boxes >= 0"`
	ReservedBoxes   int       `gorm:"not null;default:0;check:chk_stock_reserved,reserved_boxes >= 0"`
	LastRestockedAt *time.Time
}

// TableName returns the table name for GORM
func (StockRecordModel) TableName() string {
	return "stock_records"
}

// ToDomain converts the persistence model to a domain StockRecord
func (m *StockRecordModel) ToDomain() *inventory.StockRecord {
	return &inventory.StockRecord{
		BaseAggregateRoot: m.ToAggregateRoot(),
		ProductID:         m.ProductID,
		WarehouseID:       m.WarehouseID,
		QuantityBoxes:     m.QuantityBoxes,
		ReservedBoxes:     m.ReservedBoxes,
		LastRestockedAt:   m.LastRestockedAt,
	}
}

// FromDomain populates the persistence model from a domain StockRecord
func (m *StockRecordModel) FromDomain(s *inventory.StockRecord) {
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	m.ProductID = s.ProductID
	m.WarehouseID = s.WarehouseID
	m.QuantityBoxes = s.QuantityBoxes
	m.ReservedBoxes = s.ReservedBoxes
	m.LastRestockedAt = s.LastRestockedAt
}

// StockRecordModelFromDomain creates a new persistence model from a domain StockRecord
func StockRecordModelFromDomain(s *inventory.StockRecord) *StockRecordModel {
	m := &StockRecordModel{}
	m.FromDomain(s)
	return m
}

// ReservationModel is the persistence model for the Reservation entity.
// At most one ACTIVE reservation exists per order line.
type ReservationModel struct {
	BaseModel
	StockRecordID uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductID     uuid.UUID `gorm:"type:uuid;not null"`
	WarehouseID   uuid.UUID `gorm:"type:uuid;not null"`
	OrderID       uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_reservation_active_line,priority:1,where:status = 'ACTIVE'"`
	LineNo        int       `gorm:"not null;uniqueIndex:idx_reservation_active_line,priority:2,where:status = 'ACTIVE'"`
	Boxes         int       `gorm:"not null"`
	Status        string    `gorm:"type:varchar(20);not null;default:'ACTIVE'"`
	ReleasedAt    *time.Time
	CommittedAt   *time.Time
}

// TableName returns the table name for GORM
func (ReservationModel) TableName() string {
	return "reservations"
}

// ToDomain converts the persistence model to a domain Reservation
func (m *ReservationModel) ToDomain() *inventory.Reservation {
	return &inventory.Reservation{
		BaseEntity:    m.BaseModel.ToDomain(),
		StockRecordID: m.StockRecordID,
		ProductID:     m.ProductID,
		WarehouseID:   m.WarehouseID,
		OrderID:       m.OrderID,
		LineNo:        m.LineNo,
		Boxes:         m.Boxes,
		Status:        inventory.ReservationStatus(m.Status),
		ReleasedAt:    m.ReleasedAt,
		CommittedAt:   m.CommittedAt,
	}
}

// ReservationModelFromDomain creates a new persistence model from a domain Reservation
func ReservationModelFromDomain(r *inventory.Reservation) *ReservationModel {
	m := &ReservationModel{
		StockRecordID: r.StockRecordID,
		ProductID:     r.ProductID,
		WarehouseID:   r.WarehouseID,
		OrderID:       r.OrderID,
		LineNo:        r.LineNo,
		Boxes:         r.Boxes,
		Status:        string(r.Status),
		ReleasedAt:    r.ReleasedAt,
		CommittedAt:   r.CommittedAt,
	}
	m.FromDomainBaseEntity(r.BaseEntity)
	return m
}

// SaleRecordModel is one committed outflow, the input of turnover estimates.
type SaleRecordModel struct {
	BaseModel
	ProductID   uuid.UUID `gorm:"type:uuid;not null;index:idx_sale_pair_time,priority:1"`
	WarehouseID uuid.UUID `gorm:"type:uuid;not null;index:idx_sale_pair_time,priority:2"`
	OrderID     uuid.UUID `gorm:"type:uuid;not null"`
	Boxes       int       `gorm:"not null"`
	SoldAt      time.Time `gorm:"not null;index:idx_sale_pair_time,priority:3"`
}

// TableName returns the table name for GORM
func (SaleRecordModel) TableName() string {
	return "sales_history"
}

// ToDomain converts the persistence model to a domain SaleRecord
func (m *SaleRecordModel) ToDomain() *inventory.SaleRecord {
	return &inventory.SaleRecord{
		BaseEntity:  m.BaseModel.ToDomain(),
		ProductID:   m.ProductID,
		WarehouseID: m.WarehouseID,
		OrderID:     m.OrderID,
		Boxes:       m.Boxes,
		SoldAt:      m.SoldAt,
	}
}

// SaleRecordModelFromDomain creates a new persistence model from a domain SaleRecord
func SaleRecordModelFromDomain(s *inventory.SaleRecord) *SaleRecordModel {
	m := &SaleRecordModel{
		ProductID:   s.ProductID,
		WarehouseID: s.WarehouseID,
		OrderID:     s.OrderID,
		Boxes:       s.Boxes,
		SoldAt:      s.SoldAt,
	}
	m.FromDomainBaseEntity(s.BaseEntity)
	return m
}

// StagnantReturnModel is the persistence model for the StagnantReturn aggregate root.
// At most one open return exists per (product, warehouse).
type StagnantReturnModel struct {
	AggregateModel
	ProductID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_stagnant_return_open,priority:1,where:status <> 'COMPLETED' AND status <> 'CANCELLED'"`
	WarehouseID   uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_stagnant_return_open,priority:2,where:status <> 'COMPLETED' AND status <> 'CANCELLED'"`
	UrgencyLevel  string     `gorm:"type:varchar(20);not null"`
	Status        string     `gorm:"type:varchar(20);not null;index"`
	DaysIdle      int        `gorm:"not null"`
	QuantityBoxes int        `gorm:"not null"`
	RequestedBy   *uuid.UUID `gorm:"type:uuid"`
	ApprovedBy    *uuid.UUID `gorm:"type:uuid"`
	ApprovedAt    *time.Time
	StartedAt     *time.Time
	CompletedAt   *time.Time
	CancelledAt   *time.Time
	CancelReason  string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (StagnantReturnModel) TableName() string {
	return "stagnant_returns"
}

// ToDomain converts the persistence model to a domain StagnantReturn
func (m *StagnantReturnModel) ToDomain() *inventory.StagnantReturn {
	return &inventory.StagnantReturn{
		BaseAggregateRoot: m.ToAggregateRoot(),
		ProductID:         m.ProductID,
		WarehouseID:       m.WarehouseID,
		UrgencyLevel:      inventory.ReturnUrgency(m.UrgencyLevel),
		Status:            inventory.ReturnStatus(m.Status),
		DaysIdle:          m.DaysIdle,
		QuantityBoxes:     m.QuantityBoxes,
		RequestedBy:       m.RequestedBy,
		ApprovedBy:        m.ApprovedBy,
		ApprovedAt:        m.ApprovedAt,
		StartedAt:         m.StartedAt,
		CompletedAt:       m.CompletedAt,
		CancelledAt:       m.CancelledAt,
		CancelReason:      m.CancelReason,
	}
}

// FromDomain populates the persistence model from a domain StagnantReturn
func (m *StagnantReturnModel) FromDomain(r *inventory.StagnantReturn) {
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	m.ProductID = r.ProductID
	m.WarehouseID = r.WarehouseID
	m.UrgencyLevel = string(r.UrgencyLevel)
	m.Status = string(r.Status)
	m.DaysIdle = r.DaysIdle
	m.QuantityBoxes = r.QuantityBoxes
	m.RequestedBy = r.RequestedBy
	m.ApprovedBy = r.ApprovedBy
	m.ApprovedAt = r.ApprovedAt
	m.StartedAt = r.StartedAt
	m.CompletedAt = r.CompletedAt
	m.CancelledAt = r.CancelledAt
	m.CancelReason = r.CancelReason
}

// StagnantReturnModelFromDomain creates a new persistence model from a domain StagnantReturn
func StagnantReturnModelFromDomain(r *inventory.StagnantReturn) *StagnantReturnModel {
	m := &StagnantReturnModel{}
	m.FromDomain(r)
	return m
}
