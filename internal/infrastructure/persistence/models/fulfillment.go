package models

import (
	"time"

	"github.com/boxstock/backend/internal/domain/fulfillment"
	"github.com/boxstock/backend/internal/domain/warehouse"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderModel is the persistence model for the Order aggregate root.
type OrderModel struct {
	AggregateModel
	OrderNumber        string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	ClientID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	DeliveryDistrictID *uuid.UUID      `gorm:"type:uuid"`
	WarehouseID        *uuid.UUID      `gorm:"type:uuid;index:idx_order_queue,priority:3"`
	Status             string          `gorm:"type:varchar(30);not null;index:idx_order_queue,priority:2"`
	EmployeeRole       string          `gorm:"type:varchar(20);index:idx_order_queue,priority:1"`
	AssignedEmployeeID *uuid.UUID      `gorm:"type:uuid;index"`
	AcceptedBy         *uuid.UUID      `gorm:"type:uuid"`
	TotalAmount        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Comment            string          `gorm:"type:varchar(1000)"`
	CancelReason       string          `gorm:"type:varchar(500)"`
	BlockingProductID  *uuid.UUID      `gorm:"type:uuid;index"`
	WaitingSince       *time.Time
	AcceptedAt         *time.Time
	CompletedAt        *time.Time
	CancelledAt        *time.Time
	Lines              []OrderLineModel `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order
func (m *OrderModel) ToDomain() *fulfillment.Order {
	o := &fulfillment.Order{
		BaseAggregateRoot:  m.ToAggregateRoot(),
		OrderNumber:        m.OrderNumber,
		ClientID:           m.ClientID,
		DeliveryDistrictID: m.DeliveryDistrictID,
		WarehouseID:        m.WarehouseID,
		Status:             fulfillment.OrderStatus(m.Status),
		EmployeeRole:       warehouse.EmployeeRole(m.EmployeeRole),
		AssignedEmployeeID: m.AssignedEmployeeID,
		AcceptedBy:         m.AcceptedBy,
		Lines:              make([]fulfillment.OrderLine, len(m.Lines)),
		TotalAmount:        m.TotalAmount,
		Comment:            m.Comment,
		CancelReason:       m.CancelReason,
		BlockingProductID:  m.BlockingProductID,
		WaitingSince:       m.WaitingSince,
		AcceptedAt:         m.AcceptedAt,
		CompletedAt:        m.CompletedAt,
		CancelledAt:        m.CancelledAt,
	}
	for i, line := range m.Lines {
		o.Lines[i] = line.ToDomain()
	}
	o.MarkStored()
	return o
}

// FromDomain populates the persistence model from a domain Order, lines included
func (m *OrderModel) FromDomain(o *fulfillment.Order) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.OrderNumber = o.OrderNumber
	m.ClientID = o.ClientID
	m.DeliveryDistrictID = o.DeliveryDistrictID
	m.WarehouseID = o.WarehouseID
	m.Status = string(o.Status)
	m.EmployeeRole = string(o.EmployeeRole)
	m.AssignedEmployeeID = o.AssignedEmployeeID
	m.AcceptedBy = o.AcceptedBy
	m.TotalAmount = o.TotalAmount
	m.Comment = o.Comment
	m.CancelReason = o.CancelReason
	m.BlockingProductID = o.BlockingProductID
	m.WaitingSince = o.WaitingSince
	m.AcceptedAt = o.AcceptedAt
	m.CompletedAt = o.CompletedAt
	m.CancelledAt = o.CancelledAt
	m.Lines = make([]OrderLineModel, len(o.Lines))
	for i, line := range o.Lines {
		m.Lines[i] = OrderLineModelFromDomain(o.ID, line)
	}
}

// OrderModelFromDomain creates a new persistence model from a domain Order
func OrderModelFromDomain(o *fulfillment.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}

// OrderLineModel is one line of an order. Lines never change after checkout.
type OrderLineModel struct {
	OrderID      uuid.UUID       `gorm:"type:uuid;primaryKey"`
	LineNo       int             `gorm:"primaryKey"`
	ProductID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Boxes        int             `gorm:"not null"`
	UnitBoxPrice decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Amount       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (OrderLineModel) TableName() string {
	return "order_lines"
}

// ToDomain converts the persistence model to a domain OrderLine
func (m OrderLineModel) ToDomain() fulfillment.OrderLine {
	return fulfillment.OrderLine{
		LineNo:       m.LineNo,
		ProductID:    m.ProductID,
		Boxes:        m.Boxes,
		UnitBoxPrice: m.UnitBoxPrice,
		Amount:       m.Amount,
	}
}

// OrderLineModelFromDomain creates a persistence line for an order
func OrderLineModelFromDomain(orderID uuid.UUID, l fulfillment.OrderLine) OrderLineModel {
	return OrderLineModel{
		OrderID:      orderID,
		LineNo:       l.LineNo,
		ProductID:    l.ProductID,
		Boxes:        l.Boxes,
		UnitBoxPrice: l.UnitBoxPrice,
		Amount:       l.Amount,
	}
}
