package fulfillment

import (
	"github.com/boxstock/backend/internal/domain/shared"
	"github.com/boxstock/backend/internal/domain/warehouse"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeOrder = "Order"

// Event type constants
const (
	EventTypeOrderPlaced        = "OrderPlaced"
	EventTypeOrderStatusChanged = "OrderStatusChanged"
	EventTypeOrderWaitingStock  = "OrderWaitingStock"
)

// OrderLineInfo represents line information for events
type OrderLineInfo struct {
	LineNo    int       `json:"line_no"`
	ProductID uuid.UUID `json:"product_id"`
	Boxes     int       `json:"boxes"`
}

func lineInfos(lines []OrderLine) []OrderLineInfo {
	out := make([]OrderLineInfo, len(lines))
	for i, l := range lines {
		out[i] = OrderLineInfo{LineNo: l.LineNo, ProductID: l.ProductID, Boxes: l.Boxes}
	}
	return out
}

// OrderPlacedEvent is raised at checkout
type OrderPlacedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	ClientID    uuid.UUID       `json:"client_id"`
	Lines       []OrderLineInfo `json:"lines"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

func NewOrderPlacedEvent(o *Order) *OrderPlacedEvent {
	return &OrderPlacedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderPlaced, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		ClientID:        o.ClientID,
		Lines:           lineInfos(o.Lines),
		TotalAmount:     o.TotalAmount,
	}
}

// OrderStatusChangedEvent is raised on every state machine transition.
// Downstream systems (notifications, courier dispatch) key off NewStatus.
type OrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	OrderID      uuid.UUID              `json:"order_id"`
	OrderNumber  string                 `json:"order_number"`
	OldStatus    OrderStatus            `json:"old_status"`
	NewStatus    OrderStatus            `json:"new_status"`
	Action       OrderAction            `json:"action"`
	EmployeeRole warehouse.EmployeeRole `json:"employee_role,omitempty"`
	ActorID      *uuid.UUID             `json:"actor_id,omitempty"`
	WarehouseID  *uuid.UUID             `json:"warehouse_id,omitempty"`
}

func NewOrderStatusChangedEvent(o *Order, from OrderStatus, action OrderAction, actor Actor) *OrderStatusChangedEvent {
	e := &OrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderStatusChanged, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		OldStatus:       from,
		NewStatus:       o.Status,
		Action:          action,
		EmployeeRole:    o.EmployeeRole,
		WarehouseID:     o.WarehouseID,
	}
	if !actor.IsSystem() {
		id := actor.EmployeeID
		e.ActorID = &id
	}
	return e
}

// OrderWaitingStockEvent is raised when an order is parked for lack of stock
type OrderWaitingStockEvent struct {
	shared.BaseDomainEvent
	OrderID           uuid.UUID  `json:"order_id"`
	WarehouseID       *uuid.UUID `json:"warehouse_id,omitempty"`
	BlockingProductID uuid.UUID  `json:"blocking_product_id"`
}

func NewOrderWaitingStockEvent(o *Order) *OrderWaitingStockEvent {
	e := &OrderWaitingStockEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderWaitingStock, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		WarehouseID:     o.WarehouseID,
	}
	if o.BlockingProductID != nil {
		e.BlockingProductID = *o.BlockingProductID
	}
	return e
}
