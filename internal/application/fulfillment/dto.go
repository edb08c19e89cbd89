package fulfillment

import (
	"time"

	"github.com/boxstock/backend/internal/domain/fulfillment"
	"github.com/boxstock/backend/internal/domain/shared"
	"github.com/boxstock/backend/internal/domain/warehouse"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlaceOrderRequest is a checkout. WarehouseID targets a warehouse directly;
// otherwise the delivery district decides.
type PlaceOrderRequest struct {
	ClientID           uuid.UUID
	DeliveryDistrictID *uuid.UUID
	WarehouseID        *uuid.UUID
	Lines              []PlaceOrderLine
	Comment            string
}

// PlaceOrderLine is one requested product
type PlaceOrderLine struct {
	ProductID uuid.UUID
	Boxes     int
}

// QueueRequest selects a role's work queue
type QueueRequest struct {
	Role        warehouse.EmployeeRole
	WarehouseID *uuid.UUID
	Unassigned  bool
	Page        int
	PageSize    int
}

func (q QueueRequest) toDomain() fulfillment.QueueFilter {
	base := shared.DefaultFilter()
	base.OrderBy = "created_at"
	base.OrderDir = "asc"
	if q.Page > 0 {
		base.Page = q.Page
	}
	if q.PageSize > 0 {
		base.PageSize = q.PageSize
	}
	return fulfillment.QueueFilter{
		Filter:      base,
		Role:        q.Role,
		WarehouseID: q.WarehouseID,
		Unassigned:  q.Unassigned,
	}
}

// OrderLineResponse represents an order line in API responses
type OrderLineResponse struct {
	LineNo       int             `json:"line_no"`
	ProductID    uuid.UUID       `json:"product_id"`
	Boxes        int             `json:"boxes"`
	UnitBoxPrice decimal.Decimal `json:"unit_box_price"`
	Amount       decimal.Decimal `json:"amount"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID                 uuid.UUID               `json:"id"`
	OrderNumber        string                  `json:"order_number"`
	ClientID           uuid.UUID               `json:"client_id"`
	DeliveryDistrictID *uuid.UUID              `json:"delivery_district_id,omitempty"`
	WarehouseID        *uuid.UUID              `json:"warehouse_id,omitempty"`
	Status             fulfillment.OrderStatus `json:"status"`
	EmployeeRole       warehouse.EmployeeRole  `json:"employee_role,omitempty"`
	AssignedEmployeeID *uuid.UUID              `json:"assigned_employee_id,omitempty"`
	AcceptedBy         *uuid.UUID              `json:"accepted_by,omitempty"`
	Lines              []OrderLineResponse     `json:"lines"`
	TotalAmount        decimal.Decimal         `json:"total_amount"`
	Comment            string                  `json:"comment,omitempty"`
	CancelReason       string                  `json:"cancel_reason,omitempty"`
	BlockingProductID  *uuid.UUID              `json:"blocking_product_id,omitempty"`
	WaitingSince       *time.Time              `json:"waiting_since,omitempty"`
	AcceptedAt         *time.Time              `json:"accepted_at,omitempty"`
	CompletedAt        *time.Time              `json:"completed_at,omitempty"`
	CancelledAt        *time.Time              `json:"cancelled_at,omitempty"`
	CreatedAt          time.Time               `json:"created_at"`
	UpdatedAt          time.Time               `json:"updated_at"`
	Version            int                     `json:"version"`
}

// ToOrderResponse converts a domain Order to a response
func ToOrderResponse(o *fulfillment.Order) OrderResponse {
	lines := make([]OrderLineResponse, len(o.Lines))
	for i, l := range o.Lines {
		lines[i] = OrderLineResponse{
			LineNo:       l.LineNo,
			ProductID:    l.ProductID,
			Boxes:        l.Boxes,
			UnitBoxPrice: l.UnitBoxPrice,
			Amount:       l.Amount,
		}
	}
	return OrderResponse{
		ID:                 o.ID,
		OrderNumber:        o.OrderNumber,
		ClientID:           o.ClientID,
		DeliveryDistrictID: o.DeliveryDistrictID,
		WarehouseID:        o.WarehouseID,
		Status:             o.Status,
		EmployeeRole:       o.EmployeeRole,
		AssignedEmployeeID: o.AssignedEmployeeID,
		AcceptedBy:         o.AcceptedBy,
		Lines:              lines,
		TotalAmount:        o.TotalAmount,
		Comment:            o.Comment,
		CancelReason:       o.CancelReason,
		BlockingProductID:  o.BlockingProductID,
		WaitingSince:       o.WaitingSince,
		AcceptedAt:         o.AcceptedAt,
		CompletedAt:        o.CompletedAt,
		CancelledAt:        o.CancelledAt,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
		Version:            o.Version,
	}
}

// SweepResult summarizes a WAITING_STOCK re-evaluation pass
type SweepResult struct {
	Examined int `json:"examined"`
	Resumed  int `json:"resumed"`
	Waiting  int `json:"waiting"`
	Failed   int `json:"failed"`
}
