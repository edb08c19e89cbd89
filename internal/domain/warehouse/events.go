package warehouse

import (
	"github.com/boxstock/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constants
const (
	AggregateTypeWarehouse = "Warehouse"
	AggregateTypeEmployee  = "Employee"
)

// Event type constants
const (
	EventTypeWarehouseCreated       = "WarehouseCreated"
	EventTypeWarehouseStatusChanged = "WarehouseStatusChanged"
	EventTypeEmployeeBindingChanged = "EmployeeBindingChanged"
)

// WarehouseCreatedEvent is published when a new warehouse is created
type WarehouseCreatedEvent struct {
	shared.BaseDomainEvent
	WarehouseID uuid.UUID `json:"warehouse_id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	DistrictID  uuid.UUID `json:"district_id"`
}

func NewWarehouseCreatedEvent(w *Warehouse) *WarehouseCreatedEvent {
	return &WarehouseCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeWarehouseCreated, AggregateTypeWarehouse, w.ID),
		WarehouseID:     w.ID,
		Code:            w.Code,
		Name:            w.Name,
		DistrictID:      w.DistrictID,
	}
}

// WarehouseStatusChangedEvent is published when a warehouse is enabled or disabled
type WarehouseStatusChangedEvent struct {
	shared.BaseDomainEvent
	WarehouseID uuid.UUID       `json:"warehouse_id"`
	OldStatus   WarehouseStatus `json:"old_status"`
	NewStatus   WarehouseStatus `json:"new_status"`
}

func NewWarehouseStatusChangedEvent(w *Warehouse, oldStatus WarehouseStatus) *WarehouseStatusChangedEvent {
	return &WarehouseStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeWarehouseStatusChanged, AggregateTypeWarehouse, w.ID),
		WarehouseID:     w.ID,
		OldStatus:       oldStatus,
		NewStatus:       w.Status,
	}
}

// EmployeeBindingChangedEvent is published when an employee's districts, and
// therefore their warehouse binding, change
type EmployeeBindingChangedEvent struct {
	shared.BaseDomainEvent
	EmployeeID  uuid.UUID   `json:"employee_id"`
	DistrictIDs []uuid.UUID `json:"district_ids"`
	WarehouseID *uuid.UUID  `json:"warehouse_id,omitempty"`
}

func NewEmployeeBindingChangedEvent(e *Employee) *EmployeeBindingChangedEvent {
	return &EmployeeBindingChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeEmployeeBindingChanged, AggregateTypeEmployee, e.ID),
		EmployeeID:      e.ID,
		DistrictIDs:     append([]uuid.UUID(nil), e.DistrictIDs...),
		WarehouseID:     e.WarehouseID,
	}
}
