package persistence

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/boxstock/backend/internal/domain/inventory"
	"github.com/boxstock/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStockRecordRepository implements StockRecordRepository using GORM
type GormStockRecordRepository struct {
	db *gorm.DB
}

// NewGormStockRecordRepository creates a new GormStockRecordRepository
func NewGormStockRecordRepository(db *gorm.DB) *GormStockRecordRepository {
	return &GormStockRecordRepository{db: db}
}

// FindByID finds a stock record by its ID
func (r *GormStockRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockRecord, error) {
	var model models.StockRecordModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "Stock record")
	}
	return model.ToDomain(), nil
}

// FindByProductAndWarehouse finds the record for a (product, warehouse) pair
func (r *GormStockRecordRepository) FindByProductAndWarehouse(ctx context.Context, productID, warehouseID uuid.UUID) (*inventory.StockRecord, error) {
	return r.findPair(r.db.WithContext(ctx), productID, warehouseID)
}

// FindByProductAndWarehouseForUpdate reads the pair with SELECT ... FOR UPDATE.
// The row stays locked until the caller's transaction ends.
func (r *GormStockRecordRepository) FindByProductAndWarehouseForUpdate(ctx context.Context, productID, warehouseID uuid.UUID) (*inventory.StockRecord, error) {
	return r.findPair(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), productID, warehouseID)
}

func (r *GormStockRecordRepository) findPair(query *gorm.DB, productID, warehouseID uuid.UUID) (*inventory.StockRecord, error) {
	var model models.StockRecordModel
	if err := query.
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		First(&model).Error; err != nil {
		return nil, translateError(err, "Stock record")
	}
	return model.ToDomain(), nil
}

// FindByProduct returns every warehouse's record for a product
func (r *GormStockRecordRepository) FindByProduct(ctx context.Context, productID uuid.UUID) ([]inventory.StockRecord, error) {
	var rows []models.StockRecordModel
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toStockRecords(rows), nil
}

// FindByWarehouse returns every record in a warehouse
func (r *GormStockRecordRepository) FindByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]inventory.StockRecord, error) {
	var rows []models.StockRecordModel
	if err := r.db.WithContext(ctx).
		Where("warehouse_id = ?", warehouseID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toStockRecords(rows), nil
}

// ExistsForProduct reports whether any record exists for a product
func (r *GormStockRecordRepository) ExistsForProduct(ctx context.Context, productID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.StockRecordModel{}).
		Where("product_id = ?", productID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts a new record
func (r *GormStockRecordRepository) Create(ctx context.Context, record *inventory.StockRecord) error {
	model := models.StockRecordModelFromDomain(record)
	return translateError(r.db.WithContext(ctx).Create(model).Error, "Stock record")
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormStockRecordRepository) SaveWithLock(ctx context.Context, record *inventory.StockRecord) error {
	result := r.db.WithContext(ctx).
		Model(&models.StockRecordModel{}).
		Where("id = ? AND version = ?", record.ID, record.Version-1).
		Updates(map[string]any{
			"quantity_boxes":    record.QuantityBoxes,
			"reserved_boxes":    record.ReservedBoxes,
			"last_restocked_at": record.LastRestockedAt,
			"version":           record.Version,
			"updated_at":        record.UpdatedAt,
		})

	if result.Error != nil {
		return translateError(result.Error, "Stock record")
	}
	if result.RowsAffected == 0 {
		return optimisticLockFailed("Stock record")
	}
	return nil
}

func toStockRecords(rows []models.StockRecordModel) []inventory.StockRecord {
	out := make([]inventory.StockRecord, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

// GormReservationRepository implements ReservationRepository using GORM
type GormReservationRepository struct {
	db *gorm.DB
}

// NewGormReservationRepository creates a new GormReservationRepository
func NewGormReservationRepository(db *gorm.DB) *GormReservationRepository {
	return &GormReservationRepository{db: db}
}

// FindByID finds a reservation by its ID
func (r *GormReservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Reservation, error) {
	var model models.ReservationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "Reservation")
	}
	return model.ToDomain(), nil
}

// FindActiveByOrderLine finds the active reservation for an order line
func (r *GormReservationRepository) FindActiveByOrderLine(ctx context.Context, orderID uuid.UUID, lineNo int) (*inventory.Reservation, error) {
	var model models.ReservationModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ? AND line_no = ? AND status = ?", orderID, lineNo, string(inventory.ReservationActive)).
		First(&model).Error; err != nil {
		return nil, translateError(err, "Reservation")
	}
	return model.ToDomain(), nil
}

// FindByOrder returns every reservation of an order ordered by line
func (r *GormReservationRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]inventory.Reservation, error) {
	var rows []models.ReservationModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("line_no ASC").
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]inventory.Reservation, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Save creates or updates a reservation. A second ACTIVE reservation for
// the same order line violates idx_reservation_active_line.
func (r *GormReservationRepository) Save(ctx context.Context, reservation *inventory.Reservation) error {
	model := models.ReservationModelFromDomain(reservation)
	return translateError(r.db.WithContext(ctx).Save(model).Error, "Reservation")
}

// GormSalesHistoryRepository implements SalesHistoryRepository using GORM
type GormSalesHistoryRepository struct {
	db *gorm.DB
}

// NewGormSalesHistoryRepository creates a new GormSalesHistoryRepository
func NewGormSalesHistoryRepository(db *gorm.DB) *GormSalesHistoryRepository {
	return &GormSalesHistoryRepository{db: db}
}

// Record appends a sale
func (r *GormSalesHistoryRepository) Record(ctx context.Context, sale *inventory.SaleRecord) error {
	return translateError(r.db.WithContext(ctx).Create(models.SaleRecordModelFromDomain(sale)).Error, "Sale record")
}

// DailySales returns boxes sold per day in [from, to]. Days are calendar
// days in from's location, ascending.
func (r *GormSalesHistoryRepository) DailySales(ctx context.Context, productID, warehouseID uuid.UUID, from, to time.Time) ([]inventory.SalesPoint, error) {
	var rows []models.SaleRecordModel
	if err := r.db.WithContext(ctx).
		Select("boxes", "sold_at").
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		Where("sold_at >= ? AND sold_at <= ?", from, to).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	loc := from.Location()
	byDay := make(map[time.Time]int)
	for _, row := range rows {
		y, m, d := row.SoldAt.In(loc).Date()
		byDay[time.Date(y, m, d, 0, 0, 0, 0, loc)] += row.Boxes
	}

	points := make([]inventory.SalesPoint, 0, len(byDay))
	for day, boxes := range byDay {
		points = append(points, inventory.SalesPoint{Day: day, Boxes: boxes})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Day.Before(points[j].Day) })
	return points, nil
}

// LastSaleAt returns the latest sale time, or nil when never sold
func (r *GormSalesHistoryRepository) LastSaleAt(ctx context.Context, productID, warehouseID uuid.UUID) (*time.Time, error) {
	var model models.SaleRecordModel
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		Order("sold_at DESC").
		Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	soldAt := model.SoldAt
	return &soldAt, nil
}

// GormStagnantReturnRepository implements StagnantReturnRepository using GORM
type GormStagnantReturnRepository struct {
	db *gorm.DB
}

// NewGormStagnantReturnRepository creates a new GormStagnantReturnRepository
func NewGormStagnantReturnRepository(db *gorm.DB) *GormStagnantReturnRepository {
	return &GormStagnantReturnRepository{db: db}
}

var openReturnStatuses = []string{
	string(inventory.ReturnPending),
	string(inventory.ReturnApproved),
	string(inventory.ReturnInProgress),
}

// FindByID finds a return by its ID
func (r *GormStagnantReturnRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StagnantReturn, error) {
	var model models.StagnantReturnModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "Stagnant return")
	}
	return model.ToDomain(), nil
}

// FindOpen finds the open return for a pair
func (r *GormStagnantReturnRepository) FindOpen(ctx context.Context, productID, warehouseID uuid.UUID) (*inventory.StagnantReturn, error) {
	var model models.StagnantReturnModel
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		Where("status IN ?", openReturnStatuses).
		First(&model).Error; err != nil {
		return nil, translateError(err, "Stagnant return")
	}
	return model.ToDomain(), nil
}

// FindAll lists returns matching the filter, newest first unless the filter orders otherwise
func (r *GormStagnantReturnRepository) FindAll(ctx context.Context, filter inventory.ReturnFilter) ([]inventory.StagnantReturn, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.StagnantReturnModel{})
	if filter.WarehouseID != nil {
		query = query.Where("warehouse_id = ?", *filter.WarehouseID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.StagnantReturnModel
	if err := paginate(query, filter.Filter, StagnantReturnSortFields, "created_at").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]inventory.StagnantReturn, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// Create inserts a new return. A second open return for the pair violates
// idx_stagnant_return_open and surfaces as ALREADY_EXISTS.
func (r *GormStagnantReturnRepository) Create(ctx context.Context, ret *inventory.StagnantReturn) error {
	return translateError(r.db.WithContext(ctx).Create(models.StagnantReturnModelFromDomain(ret)).Error, "Stagnant return")
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormStagnantReturnRepository) SaveWithLock(ctx context.Context, ret *inventory.StagnantReturn) error {
	result := r.db.WithContext(ctx).
		Model(&models.StagnantReturnModel{}).
		Where("id = ? AND version = ?", ret.ID, ret.Version-1).
		Updates(map[string]any{
			"urgency_level":  string(ret.UrgencyLevel),
			"status":         string(ret.Status),
			"days_idle":      ret.DaysIdle,
			"quantity_boxes": ret.QuantityBoxes,
			"approved_by":    ret.ApprovedBy,
			"approved_at":    ret.ApprovedAt,
			"started_at":     ret.StartedAt,
			"completed_at":   ret.CompletedAt,
			"cancelled_at":   ret.CancelledAt,
			"cancel_reason":  ret.CancelReason,
			"version":        ret.Version,
			"updated_at":     ret.UpdatedAt,
		})

	if result.Error != nil {
		return translateError(result.Error, "Stagnant return")
	}
	if result.RowsAffected == 0 {
		return optimisticLockFailed("Stagnant return")
	}
	return nil
}

var (
	_ inventory.StockRecordRepository    = (*GormStockRecordRepository)(nil)
	_ inventory.ReservationRepository    = (*GormReservationRepository)(nil)
	_ inventory.SalesHistoryRepository   = (*GormSalesHistoryRepository)(nil)
	_ inventory.StagnantReturnRepository = (*GormStagnantReturnRepository)(nil)
)
