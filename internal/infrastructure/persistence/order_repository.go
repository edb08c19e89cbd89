package persistence

import (
	"context"

	"github.com/boxstock/backend/internal/domain/fulfillment"
	"github.com/boxstock/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

var terminalOrderStatuses = []string{
	string(fulfillment.StatusCompleted),
	string(fulfillment.StatusCancelled),
}

func withLines(db *gorm.DB) *gorm.DB {
	return db.Preload("Lines", func(db *gorm.DB) *gorm.DB {
		return db.Order("line_no ASC")
	})
}

// FindByID loads an order with its lines
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*fulfillment.Order, error) {
	var model models.OrderModel
	if err := withLines(r.db.WithContext(ctx)).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "Order")
	}
	return model.ToDomain(), nil
}

// FindByOrderNumber loads an order by its number
func (r *GormOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*fulfillment.Order, error) {
	var model models.OrderModel
	if err := withLines(r.db.WithContext(ctx)).
		Where("order_number = ?", orderNumber).
		First(&model).Error; err != nil {
		return nil, translateError(err, "Order")
	}
	return model.ToDomain(), nil
}

// FindWaitingForStock returns WAITING_STOCK orders, oldest first
func (r *GormOrderRepository) FindWaitingForStock(ctx context.Context, productID, warehouseID *uuid.UUID, limit int) ([]fulfillment.Order, error) {
	query := withLines(r.db.WithContext(ctx)).
		Where("status = ?", string(fulfillment.StatusWaitingStock))
	if productID != nil {
		query = query.Where("blocking_product_id = ?", *productID)
	}
	if warehouseID != nil {
		query = query.Where("warehouse_id = ?", *warehouseID)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []models.OrderModel
	if err := query.Order("created_at ASC").Order("order_number ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toOrders(rows), nil
}

// FindQueue returns the non-terminal orders owned by a role, oldest first
// unless the filter names another order
func (r *GormOrderRepository) FindQueue(ctx context.Context, filter fulfillment.QueueFilter) ([]fulfillment.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.OrderModel{}).
		Where("employee_role = ?", string(filter.Role)).
		Where("status NOT IN ?", terminalOrderStatuses)
	if filter.WarehouseID != nil {
		query = query.Where("warehouse_id = ?", *filter.WarehouseID)
	}
	if filter.Unassigned {
		query = query.Where("assigned_employee_id IS NULL")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Filter
	if page.OrderBy == "" {
		page.OrderBy, page.OrderDir = "created_at", "asc"
	}

	var rows []models.OrderModel
	if err := paginate(withLines(query), page, OrderSortFields, "created_at").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return toOrders(rows), total, nil
}

// Create inserts a new order with its lines in one transaction
func (r *GormOrderRepository) Create(ctx context.Context, order *fulfillment.Order) error {
	model := models.OrderModelFromDomain(order)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Lines").Create(model).Error; err != nil {
			return err
		}
		if len(model.Lines) == 0 {
			return nil
		}
		return tx.Create(&model.Lines).Error
	})
	if err != nil {
		return translateError(err, "Order")
	}
	order.MarkStored()
	return nil
}

// SaveWithLock updates the order header with an optimistic version check
// against the version the order was loaded with. Lines never change after
// checkout and are not written.
func (r *GormOrderRepository) SaveWithLock(ctx context.Context, order *fulfillment.Order) error {
	result := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("id = ? AND version = ?", order.ID, order.StoredVersion()).
		Updates(map[string]any{
			"warehouse_id":         order.WarehouseID,
			"status":               string(order.Status),
			"employee_role":        string(order.EmployeeRole),
			"assigned_employee_id": order.AssignedEmployeeID,
			"accepted_by":          order.AcceptedBy,
			"cancel_reason":        order.CancelReason,
			"blocking_product_id":  order.BlockingProductID,
			"waiting_since":        order.WaitingSince,
			"accepted_at":          order.AcceptedAt,
			"completed_at":         order.CompletedAt,
			"cancelled_at":         order.CancelledAt,
			"version":              order.Version,
			"updated_at":           order.UpdatedAt,
		})

	if result.Error != nil {
		return translateError(result.Error, "Order")
	}
	if result.RowsAffected == 0 {
		return optimisticLockFailed("Order")
	}
	order.MarkStored()
	return nil
}

func toOrders(rows []models.OrderModel) []fulfillment.Order {
	out := make([]fulfillment.Order, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

var _ fulfillment.OrderRepository = (*GormOrderRepository)(nil)
