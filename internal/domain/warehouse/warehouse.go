package warehouse

import (
	"strings"

	"github.com/boxstock/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// WarehouseStatus represents the status of a warehouse
type WarehouseStatus string

const (
	WarehouseStatusActive   WarehouseStatus = "active"
	WarehouseStatusInactive WarehouseStatus = "inactive"
)

// Warehouse is a physical stock location serving one district.
// Only active warehouses take part in district-based auto-assignment,
// but any warehouse may be targeted manually.
type Warehouse struct {
	shared.BaseAggregateRoot
	Code       string
	Name       string
	DistrictID uuid.UUID
	Status     WarehouseStatus
}

// NewWarehouse creates an active warehouse bound to a district
func NewWarehouse(code, name string, districtID uuid.UUID) (*Warehouse, error) {
	if err := validateWarehouseCode(code); err != nil {
		return nil, err
	}
	if err := validateWarehouseName(name); err != nil {
		return nil, err
	}
	if districtID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Warehouse must belong to a district")
	}

	w := &Warehouse{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToUpper(strings.TrimSpace(code)),
		Name:              strings.TrimSpace(name),
		DistrictID:        districtID,
		Status:            WarehouseStatusActive,
	}
	w.AddDomainEvent(NewWarehouseCreatedEvent(w))
	return w, nil
}

// Rename updates the display name
func (w *Warehouse) Rename(name string) error {
	if err := validateWarehouseName(name); err != nil {
		return err
	}
	w.Name = strings.TrimSpace(name)
	w.IncrementVersion()
	return nil
}

// MoveToDistrict rebinds the warehouse to another district
func (w *Warehouse) MoveToDistrict(districtID uuid.UUID) error {
	if districtID == uuid.Nil {
		return shared.NewDomainError(shared.CodeInvalidInput, "Warehouse must belong to a district")
	}
	w.DistrictID = districtID
	w.IncrementVersion()
	return nil
}

// Enable makes the warehouse eligible for auto-assignment
func (w *Warehouse) Enable() error {
	if w.Status == WarehouseStatusActive {
		return shared.NewDomainError(shared.CodeInvalidTransition, "Warehouse is already active")
	}
	old := w.Status
	w.Status = WarehouseStatusActive
	w.IncrementVersion()
	w.AddDomainEvent(NewWarehouseStatusChangedEvent(w, old))
	return nil
}

// Disable removes the warehouse from auto-assignment
func (w *Warehouse) Disable() error {
	if w.Status == WarehouseStatusInactive {
		return shared.NewDomainError(shared.CodeInvalidTransition, "Warehouse is already inactive")
	}
	old := w.Status
	w.Status = WarehouseStatusInactive
	w.IncrementVersion()
	w.AddDomainEvent(NewWarehouseStatusChangedEvent(w, old))
	return nil
}

// IsActive returns true if the warehouse is active
func (w *Warehouse) IsActive() bool {
	return w.Status == WarehouseStatusActive
}

func validateWarehouseCode(code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return shared.NewDomainError(shared.CodeInvalidInput, "Warehouse code cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewDomainError(shared.CodeInvalidInput, "Warehouse code cannot exceed 50 characters")
	}
	for _, r := range code {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewDomainError(shared.CodeInvalidInput, "Warehouse code can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

func validateWarehouseName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError(shared.CodeInvalidInput, "Warehouse name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError(shared.CodeInvalidInput, "Warehouse name cannot exceed 200 characters")
	}
	return nil
}
