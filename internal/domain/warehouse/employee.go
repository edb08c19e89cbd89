package warehouse

import (
	"strings"

	"github.com/boxstock/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// EmployeeRole is the fulfillment stage an employee works on
type EmployeeRole string

const (
	RolePicker  EmployeeRole = "PICKER"
	RolePacker  EmployeeRole = "PACKER"
	RoleCourier EmployeeRole = "COURIER"
	RoleAdmin   EmployeeRole = "ADMIN"
)

// IsValid reports whether r is a known role
func (r EmployeeRole) IsValid() bool {
	switch r {
	case RolePicker, RolePacker, RoleCourier, RoleAdmin:
		return true
	}
	return false
}

// String returns the string representation
func (r EmployeeRole) String() string {
	return string(r)
}

// Employee works one fulfillment stage. DistrictIDs keeps the order in which
// districts were selected; WarehouseID is derived from it and never set directly.
type Employee struct {
	shared.BaseAggregateRoot
	Name        string
	Role        EmployeeRole
	DistrictIDs []uuid.UUID
	WarehouseID *uuid.UUID
	IsActive    bool
}

// NewEmployee creates an active employee with no districts
func NewEmployee(name string, role EmployeeRole) (*Employee, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Employee name cannot be empty")
	}
	if !role.IsValid() {
		return nil, shared.NewDomainErrorf(shared.CodeInvalidInput, "Unknown employee role %q", role)
	}
	return &Employee{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Role:              role,
		IsActive:          true,
	}, nil
}

// AssignDistricts replaces the employee's district selection and the warehouse
// binding derived from it. Duplicate ids keep their first position. A nil
// warehouseID means the binding is deferred.
func (e *Employee) AssignDistricts(districtIDs []uuid.UUID, warehouseID *uuid.UUID) {
	seen := make(map[uuid.UUID]struct{}, len(districtIDs))
	ordered := make([]uuid.UUID, 0, len(districtIDs))
	for _, id := range districtIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ordered = append(ordered, id)
	}

	e.DistrictIDs = ordered
	e.WarehouseID = warehouseID
	e.IncrementVersion()
	e.AddDomainEvent(NewEmployeeBindingChangedEvent(e))
}

// HasRole reports whether the employee is active and works the given role
func (e *Employee) HasRole(role EmployeeRole) bool {
	return e.IsActive && e.Role == role
}

// Deactivate removes the employee from all queues
func (e *Employee) Deactivate() {
	if !e.IsActive {
		return
	}
	e.IsActive = false
	e.IncrementVersion()
}
