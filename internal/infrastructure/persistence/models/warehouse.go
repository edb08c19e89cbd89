package models

import (
	"github.com/boxstock/backend/internal/domain/warehouse"
	"github.com/google/uuid"
)

// WarehouseModel is the persistence model for the Warehouse aggregate root.
type WarehouseModel struct {
	AggregateModel
	Code       string    `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name       string    `gorm:"type:varchar(200);not null"`
	DistrictID uuid.UUID `gorm:"type:uuid;not null;index:idx_warehouse_district_status,priority:1"`
	Status     string    `gorm:"type:varchar(20);not null;default:'active';index:idx_warehouse_district_status,priority:2"`
}

// TableName returns the table name for GORM
func (WarehouseModel) TableName() string {
	return "warehouses"
}

// ToDomain converts the persistence model to a domain Warehouse
func (m *WarehouseModel) ToDomain() *warehouse.Warehouse {
	return &warehouse.Warehouse{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Code:              m.Code,
		Name:              m.Name,
		DistrictID:        m.DistrictID,
		Status:            warehouse.WarehouseStatus(m.Status),
	}
}

// FromDomain populates the persistence model from a domain Warehouse
func (m *WarehouseModel) FromDomain(w *warehouse.Warehouse) {
	m.FromDomainAggregateRoot(w.BaseAggregateRoot)
	m.Code = w.Code
	m.Name = w.Name
	m.DistrictID = w.DistrictID
	m.Status = string(w.Status)
}

// WarehouseModelFromDomain creates a new persistence model from a domain Warehouse
func WarehouseModelFromDomain(w *warehouse.Warehouse) *WarehouseModel {
	m := &WarehouseModel{}
	m.FromDomain(w)
	return m
}

// DistrictModel is the persistence model for the District entity.
type DistrictModel struct {
	BaseModel
	Name string `gorm:"type:varchar(200);not null"`
}

// TableName returns the table name for GORM
func (DistrictModel) TableName() string {
	return "districts"
}

// ToDomain converts the persistence model to a domain District
func (m *DistrictModel) ToDomain() *warehouse.District {
	return &warehouse.District{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
	}
}

// DistrictModelFromDomain creates a new persistence model from a domain District
func DistrictModelFromDomain(d *warehouse.District) *DistrictModel {
	m := &DistrictModel{Name: d.Name}
	m.FromDomainBaseEntity(d.BaseEntity)
	return m
}

// EmployeeModel is the persistence model for the Employee aggregate root.
// DistrictIDs keeps the employee's preference order.
type EmployeeModel struct {
	AggregateModel
	Name        string      `gorm:"type:varchar(200);not null"`
	Role        string      `gorm:"type:varchar(20);not null;index"`
	DistrictIDs []uuid.UUID `gorm:"serializer:json;type:text;not null"`
	WarehouseID *uuid.UUID  `gorm:"type:uuid;index"`
	IsActive    bool        `gorm:"not null"`
}

// TableName returns the table name for GORM
func (EmployeeModel) TableName() string {
	return "employees"
}

// ToDomain converts the persistence model to a domain Employee
func (m *EmployeeModel) ToDomain() *warehouse.Employee {
	districts := m.DistrictIDs
	if districts == nil {
		districts = []uuid.UUID{}
	}
	return &warehouse.Employee{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Name:              m.Name,
		Role:              warehouse.EmployeeRole(m.Role),
		DistrictIDs:       districts,
		WarehouseID:       m.WarehouseID,
		IsActive:          m.IsActive,
	}
}

// FromDomain populates the persistence model from a domain Employee
func (m *EmployeeModel) FromDomain(e *warehouse.Employee) {
	m.FromDomainAggregateRoot(e.BaseAggregateRoot)
	m.Name = e.Name
	m.Role = string(e.Role)
	m.DistrictIDs = e.DistrictIDs
	if m.DistrictIDs == nil {
		m.DistrictIDs = []uuid.UUID{}
	}
	m.WarehouseID = e.WarehouseID
	m.IsActive = e.IsActive
}

// EmployeeModelFromDomain creates a new persistence model from a domain Employee
func EmployeeModelFromDomain(e *warehouse.Employee) *EmployeeModel {
	m := &EmployeeModel{}
	m.FromDomain(e)
	return m
}
