package inventory

import (
	"time"

	"github.com/boxstock/backend/internal/domain/inventory"
	"github.com/boxstock/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ReserveRequest holds boxes for one order line
type ReserveRequest struct {
	ProductID   uuid.UUID
	WarehouseID uuid.UUID
	OrderID     uuid.UUID
	LineNo      int
	Boxes       int
}

// RestockRequest adds boxes to a (product, warehouse) pair
type RestockRequest struct {
	ProductID   uuid.UUID `json:"product_id" binding:"required"`
	WarehouseID uuid.UUID `json:"warehouse_id" binding:"required"`
	Boxes       int       `json:"boxes" binding:"required,positive_boxes"`
}

// StockRecordResponse represents a stock record in API responses
type StockRecordResponse struct {
	ID              uuid.UUID  `json:"id"`
	ProductID       uuid.UUID  `json:"product_id"`
	WarehouseID     uuid.UUID  `json:"warehouse_id"`
	QuantityBoxes   int        `json:"quantity_boxes"`
	ReservedBoxes   int        `json:"reserved_boxes"`
	AvailableBoxes  int        `json:"available_boxes"`
	LastRestockedAt *time.Time `json:"last_restocked_at,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at"`
	Version         int        `json:"version"`
}

// ToStockRecordResponse converts a domain StockRecord to a response
func ToStockRecordResponse(s *inventory.StockRecord) StockRecordResponse {
	return StockRecordResponse{
		ID:              s.ID,
		ProductID:       s.ProductID,
		WarehouseID:     s.WarehouseID,
		QuantityBoxes:   s.QuantityBoxes,
		ReservedBoxes:   s.ReservedBoxes,
		AvailableBoxes:  s.AvailableBoxes(),
		LastRestockedAt: s.LastRestockedAt,
		UpdatedAt:       s.UpdatedAt,
		Version:         s.Version,
	}
}

// ReservationResponse is a reservation handle
type ReservationResponse struct {
	ID          uuid.UUID                   `json:"id"`
	ProductID   uuid.UUID                   `json:"product_id"`
	WarehouseID uuid.UUID                   `json:"warehouse_id"`
	OrderID     uuid.UUID                   `json:"order_id"`
	LineNo      int                         `json:"line_no"`
	Boxes       int                         `json:"boxes"`
	Status      inventory.ReservationStatus `json:"status"`
	CreatedAt   time.Time                   `json:"created_at"`
	// Existing is set when Reserve found the line already reserved
	Existing bool `json:"existing,omitempty"`
}

// ToReservationResponse converts a domain Reservation to a response
func ToReservationResponse(r *inventory.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:          r.ID,
		ProductID:   r.ProductID,
		WarehouseID: r.WarehouseID,
		OrderID:     r.OrderID,
		LineNo:      r.LineNo,
		Boxes:       r.Boxes,
		Status:      r.Status,
		CreatedAt:   r.CreatedAt,
	}
}

// AvailabilityResponse is what stock.availability returns. WarehouseID is
// nil when the figures are summed across warehouses.
type AvailabilityResponse struct {
	ProductID      uuid.UUID  `json:"product_id"`
	WarehouseID    *uuid.UUID `json:"warehouse_id,omitempty"`
	QuantityBoxes  int        `json:"quantity_boxes"`
	AvailableBoxes int        `json:"available_boxes"`
	AvailableItems int        `json:"available_items"`
}

// StockTotals sums every warehouse row of a product
type StockTotals struct {
	ProductID      uuid.UUID `json:"product_id"`
	QuantityBoxes  int       `json:"quantity_boxes"`
	AvailableBoxes int       `json:"available_boxes"`
	Warehouses     int       `json:"warehouses"`
}

// HealthQuery selects the records stock.health reports on
type HealthQuery struct {
	WarehouseID uuid.UUID
	Urgency     *inventory.Urgency
	Window      inventory.LookbackWindow
}

// HealthItemResponse is one line of a stock health report
type HealthItemResponse struct {
	ProductID        uuid.UUID          `json:"product_id"`
	WarehouseID      uuid.UUID          `json:"warehouse_id"`
	Urgency          inventory.Urgency  `json:"urgency"`
	Movement         inventory.Movement `json:"movement"`
	SalesRate        float64            `json:"sales_rate"`
	TurnoverDays     *float64           `json:"turnover_days"`
	DynamicThreshold float64            `json:"dynamic_threshold"`
	QuantityBoxes    int                `json:"quantity_boxes"`
	AvailableBoxes   int                `json:"available_boxes"`
	DaysIdle         int                `json:"days_idle"`
	Stagnant         bool               `json:"stagnant"`
	ReorderBoxes     int                `json:"reorder_boxes"`
}

// ToHealthItemResponse converts an assessment to a response
func ToHealthItemResponse(a inventory.HealthAssessment) HealthItemResponse {
	return HealthItemResponse{
		ProductID:        a.ProductID,
		WarehouseID:      a.WarehouseID,
		Urgency:          a.Urgency,
		Movement:         a.Movement,
		SalesRate:        a.SalesRate,
		TurnoverDays:     a.TurnoverDays,
		DynamicThreshold: a.DynamicThreshold,
		QuantityBoxes:    a.QuantityBoxes,
		AvailableBoxes:   a.AvailableBoxes,
		DaysIdle:         a.DaysIdle,
		Stagnant:         a.Stagnant,
		ReorderBoxes:     a.ReorderBoxes,
	}
}

// FlagReturnRequest asks for a stagnant return. Urgency overrides the value
// computed from days idle when set.
type FlagReturnRequest struct {
	ProductID   uuid.UUID
	WarehouseID uuid.UUID
	Urgency     *inventory.ReturnUrgency
	RequestedBy *uuid.UUID
}

// ReturnListFilter represents filter options for stagnant return lists
type ReturnListFilter struct {
	WarehouseID *uuid.UUID
	Status      *inventory.ReturnStatus
	Page        int
	PageSize    int
}

func (f ReturnListFilter) toDomain() inventory.ReturnFilter {
	base := shared.DefaultFilter()
	if f.Page > 0 {
		base.Page = f.Page
	}
	if f.PageSize > 0 {
		base.PageSize = f.PageSize
	}
	return inventory.ReturnFilter{Filter: base, WarehouseID: f.WarehouseID, Status: f.Status}
}

// ReturnResponse represents a stagnant return in API responses
type ReturnResponse struct {
	ID            uuid.UUID               `json:"id"`
	ProductID     uuid.UUID               `json:"product_id"`
	WarehouseID   uuid.UUID               `json:"warehouse_id"`
	UrgencyLevel  inventory.ReturnUrgency `json:"urgency_level"`
	Status        inventory.ReturnStatus  `json:"status"`
	DaysIdle      int                     `json:"days_idle"`
	QuantityBoxes int                     `json:"quantity_boxes"`
	RequestedBy   *uuid.UUID              `json:"requested_by,omitempty"`
	ApprovedBy    *uuid.UUID              `json:"approved_by,omitempty"`
	ApprovedAt    *time.Time              `json:"approved_at,omitempty"`
	StartedAt     *time.Time              `json:"started_at,omitempty"`
	CompletedAt   *time.Time              `json:"completed_at,omitempty"`
	CancelledAt   *time.Time              `json:"cancelled_at,omitempty"`
	CancelReason  string                  `json:"cancel_reason,omitempty"`
	CreatedAt     time.Time               `json:"created_at"`
	Version       int                     `json:"version"`
}

// ToReturnResponse converts a domain StagnantReturn to a response
func ToReturnResponse(r *inventory.StagnantReturn) ReturnResponse {
	return ReturnResponse{
		ID:            r.ID,
		ProductID:     r.ProductID,
		WarehouseID:   r.WarehouseID,
		UrgencyLevel:  r.UrgencyLevel,
		Status:        r.Status,
		DaysIdle:      r.DaysIdle,
		QuantityBoxes: r.QuantityBoxes,
		RequestedBy:   r.RequestedBy,
		ApprovedBy:    r.ApprovedBy,
		ApprovedAt:    r.ApprovedAt,
		StartedAt:     r.StartedAt,
		CompletedAt:   r.CompletedAt,
		CancelledAt:   r.CancelledAt,
		CancelReason:  r.CancelReason,
		CreatedAt:     r.CreatedAt,
		Version:       r.Version,
	}
}

// ScanResult summarizes one stagnation scan
type ScanResult struct {
	WarehouseID uuid.UUID `json:"warehouse_id"`
	Scanned     int       `json:"scanned"`
	Flagged     int       `json:"flagged"`
	AlreadyOpen int       `json:"already_open"`
	Failed      int       `json:"failed"`
}
