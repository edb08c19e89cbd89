package warehouse

import (
	"time"

	"github.com/boxstock/backend/internal/domain/warehouse"
	"github.com/google/uuid"
)

// CreateWarehouseRequest represents a request to create a warehouse
type CreateWarehouseRequest struct {
	Code       string    `json:"code" binding:"required,min=1,max=50"`
	Name       string    `json:"name" binding:"required,min=1,max=100"`
	DistrictID uuid.UUID `json:"district_id" binding:"required"`
}

// UpdateWarehouseRequest renames or moves a warehouse
type UpdateWarehouseRequest struct {
	Name       *string    `json:"name" binding:"omitempty,min=1,max=100"`
	DistrictID *uuid.UUID `json:"district_id"`
}

// WarehouseResponse represents a warehouse in API responses
type WarehouseResponse struct {
	ID         uuid.UUID                 `json:"id"`
	Code       string                    `json:"code"`
	Name       string                    `json:"name"`
	DistrictID uuid.UUID                 `json:"district_id"`
	Status     warehouse.WarehouseStatus `json:"status"`
	CreatedAt  time.Time                 `json:"created_at"`
	UpdatedAt  time.Time                 `json:"updated_at"`
	Version    int                       `json:"version"`
}

// ToWarehouseResponse converts a domain Warehouse to WarehouseResponse
func ToWarehouseResponse(w *warehouse.Warehouse) WarehouseResponse {
	return WarehouseResponse{
		ID:         w.ID,
		Code:       w.Code,
		Name:       w.Name,
		DistrictID: w.DistrictID,
		Status:     w.Status,
		CreatedAt:  w.CreatedAt,
		UpdatedAt:  w.UpdatedAt,
		Version:    w.Version,
	}
}

// CreateDistrictRequest represents a request to create a district
type CreateDistrictRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
}

// DistrictResponse represents a district in API responses
type DistrictResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ToDistrictResponse converts a domain District to DistrictResponse
func ToDistrictResponse(d *warehouse.District) DistrictResponse {
	return DistrictResponse{ID: d.ID, Name: d.Name, CreatedAt: d.CreatedAt}
}

// CreateEmployeeRequest represents a request to create an employee
type CreateEmployeeRequest struct {
	Name        string                 `json:"name" binding:"required,min=1,max=100"`
	Role        warehouse.EmployeeRole `json:"role" binding:"required,oneof=PICKER PACKER COURIER ADMIN"`
	DistrictIDs []uuid.UUID            `json:"district_ids"`
}

// AssignDistrictsRequest replaces an employee's ordered district set
type AssignDistrictsRequest struct {
	DistrictIDs []uuid.UUID `json:"district_ids"`
}

// EmployeeResponse represents an employee in API responses
type EmployeeResponse struct {
	ID          uuid.UUID              `json:"id"`
	Name        string                 `json:"name"`
	Role        warehouse.EmployeeRole `json:"role"`
	DistrictIDs []uuid.UUID            `json:"district_ids"`
	WarehouseID *uuid.UUID             `json:"warehouse_id,omitempty"`
	IsActive    bool                   `json:"is_active"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	Version     int                    `json:"version"`
}

// ToEmployeeResponse converts a domain Employee to EmployeeResponse
func ToEmployeeResponse(e *warehouse.Employee) EmployeeResponse {
	districts := e.DistrictIDs
	if districts == nil {
		districts = []uuid.UUID{}
	}
	return EmployeeResponse{
		ID:          e.ID,
		Name:        e.Name,
		Role:        e.Role,
		DistrictIDs: districts,
		WarehouseID: e.WarehouseID,
		IsActive:    e.IsActive,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
		Version:     e.Version,
	}
}
