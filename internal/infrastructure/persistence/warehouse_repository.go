package persistence

import (
	"context"
	"strings"

	"github.com/boxstock/backend/internal/domain/warehouse"
	"github.com/boxstock/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormWarehouseRepository implements WarehouseRepository using GORM
type GormWarehouseRepository struct {
	db *gorm.DB
}

// NewGormWarehouseRepository creates a new GormWarehouseRepository
func NewGormWarehouseRepository(db *gorm.DB) *GormWarehouseRepository {
	return &GormWarehouseRepository{db: db}
}

// FindByID finds a warehouse by its ID
func (r *GormWarehouseRepository) FindByID(ctx context.Context, id uuid.UUID) (*warehouse.Warehouse, error) {
	var model models.WarehouseModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "Warehouse")
	}
	return model.ToDomain(), nil
}

// FindByCode finds a warehouse by its code
func (r *GormWarehouseRepository) FindByCode(ctx context.Context, code string) (*warehouse.Warehouse, error) {
	var model models.WarehouseModel
	if err := r.db.WithContext(ctx).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&model).Error; err != nil {
		return nil, translateError(err, "Warehouse")
	}
	return model.ToDomain(), nil
}

// FindAll lists all warehouses ordered by code
func (r *GormWarehouseRepository) FindAll(ctx context.Context) ([]warehouse.Warehouse, error) {
	var rows []models.WarehouseModel
	if err := r.db.WithContext(ctx).Order("code ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toWarehouses(rows), nil
}

// FindActiveByDistricts returns the active warehouses serving any of the
// districts, oldest first with code as the tie-break
func (r *GormWarehouseRepository) FindActiveByDistricts(ctx context.Context, districtIDs []uuid.UUID) ([]warehouse.Warehouse, error) {
	if len(districtIDs) == 0 {
		return []warehouse.Warehouse{}, nil
	}
	var rows []models.WarehouseModel
	if err := r.db.WithContext(ctx).
		Where("district_id IN ? AND status = ?", districtIDs, string(warehouse.WarehouseStatusActive)).
		Order("created_at ASC").
		Order("code ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toWarehouses(rows), nil
}

// Save creates or updates a warehouse
func (r *GormWarehouseRepository) Save(ctx context.Context, w *warehouse.Warehouse) error {
	model := models.WarehouseModelFromDomain(w)
	return translateError(r.db.WithContext(ctx).Save(model).Error, "Warehouse")
}

// ExistsByCode checks if a warehouse code is already taken
func (r *GormWarehouseRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.WarehouseModel{}).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func toWarehouses(rows []models.WarehouseModel) []warehouse.Warehouse {
	out := make([]warehouse.Warehouse, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

// GormDistrictRepository implements DistrictRepository using GORM
type GormDistrictRepository struct {
	db *gorm.DB
}

// NewGormDistrictRepository creates a new GormDistrictRepository
func NewGormDistrictRepository(db *gorm.DB) *GormDistrictRepository {
	return &GormDistrictRepository{db: db}
}

// FindByID finds a district by its ID
func (r *GormDistrictRepository) FindByID(ctx context.Context, id uuid.UUID) (*warehouse.District, error) {
	var model models.DistrictModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "District")
	}
	return model.ToDomain(), nil
}

// FindByIDs returns the districts that exist among ids
func (r *GormDistrictRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]warehouse.District, error) {
	if len(ids) == 0 {
		return []warehouse.District{}, nil
	}
	var rows []models.DistrictModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDistricts(rows), nil
}

// FindAll lists districts by name
func (r *GormDistrictRepository) FindAll(ctx context.Context) ([]warehouse.District, error) {
	var rows []models.DistrictModel
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDistricts(rows), nil
}

// Save creates or updates a district
func (r *GormDistrictRepository) Save(ctx context.Context, d *warehouse.District) error {
	return translateError(r.db.WithContext(ctx).Save(models.DistrictModelFromDomain(d)).Error, "District")
}

func toDistricts(rows []models.DistrictModel) []warehouse.District {
	out := make([]warehouse.District, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

// GormEmployeeRepository implements EmployeeRepository using GORM
type GormEmployeeRepository struct {
	db *gorm.DB
}

// NewGormEmployeeRepository creates a new GormEmployeeRepository
func NewGormEmployeeRepository(db *gorm.DB) *GormEmployeeRepository {
	return &GormEmployeeRepository{db: db}
}

// FindByID finds an employee by its ID
func (r *GormEmployeeRepository) FindByID(ctx context.Context, id uuid.UUID) (*warehouse.Employee, error) {
	var model models.EmployeeModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "Employee")
	}
	return model.ToDomain(), nil
}

// FindByWarehouse lists active employees bound to a warehouse
func (r *GormEmployeeRepository) FindByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]warehouse.Employee, error) {
	var rows []models.EmployeeModel
	if err := r.db.WithContext(ctx).
		Where("warehouse_id = ? AND is_active = ?", warehouseID, true).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]warehouse.Employee, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Save creates or updates an employee
func (r *GormEmployeeRepository) Save(ctx context.Context, e *warehouse.Employee) error {
	return translateError(r.db.WithContext(ctx).Save(models.EmployeeModelFromDomain(e)).Error, "Employee")
}

var (
	_ warehouse.WarehouseRepository = (*GormWarehouseRepository)(nil)
	_ warehouse.DistrictRepository  = (*GormDistrictRepository)(nil)
	_ warehouse.EmployeeRepository  = (*GormEmployeeRepository)(nil)
)
