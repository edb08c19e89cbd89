package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"time"

	inventoryapp "github.com/boxstock/backend/internal/application/inventory"
	"github.com/boxstock/backend/internal/domain/catalog"
	"github.com/boxstock/backend/internal/domain/fulfillment"
	"github.com/boxstock/backend/internal/domain/shared"
	"github.com/boxstock/backend/internal/domain/warehouse"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StockLedger is the part of the stock ledger the state machine drives
type StockLedger interface {
	Reserve(ctx context.Context, req inventoryapp.ReserveRequest) (*inventoryapp.ReservationResponse, error)
	Release(ctx context.Context, reservationID uuid.UUID) (bool, error)
	ReleaseForOrder(ctx context.Context, orderID uuid.UUID) (int, error)
	CommitForOrder(ctx context.Context, orderID uuid.UUID) (int, error)
	Availability(ctx context.Context, productID uuid.UUID, warehouseID *uuid.UUID) (*inventoryapp.AvailabilityResponse, error)
}

// DefaultOrderLockWait bounds how long a transition waits for its order.
// It covers the stock lock waits of every line reserved under it.
const DefaultOrderLockWait = 10 * time.Second

// OrderKey is the lock key of an order
func OrderKey(orderID uuid.UUID) string {
	return "order:" + orderID.String()
}

// OrderMetrics receives state machine transitions
type OrderMetrics interface {
	ObserveTransition(from, to fulfillment.OrderStatus, action fulfillment.OrderAction)
}

// OrderService runs checkout and the fulfillment state machine. A transition
// holds the order's lock from load to save, so its stock side effects and the
// saved status never interleave with another transition of the same order.
// Stock taken by a transition that cannot be persisted is given back.
type OrderService struct {
	orderRepo      fulfillment.OrderRepository
	productRepo    catalog.ProductRepository
	warehouseRepo  warehouse.WarehouseRepository
	employeeRepo   warehouse.EmployeeRepository
	assigner       *warehouse.WarehouseAssigner
	ledger         StockLedger
	locker         inventoryapp.RowLocker
	lockWait       time.Duration
	eventPublisher shared.EventPublisher
	metrics        OrderMetrics
	logger         *zap.Logger
	now            func() time.Time
}

// NewOrderService creates a new OrderService. locker serializes transitions
// per order; it may share the ledger's locker since the keys differ.
func NewOrderService(
	orderRepo fulfillment.OrderRepository,
	productRepo catalog.ProductRepository,
	warehouseRepo warehouse.WarehouseRepository,
	employeeRepo warehouse.EmployeeRepository,
	ledger StockLedger,
	locker inventoryapp.RowLocker,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		orderRepo:     orderRepo,
		productRepo:   productRepo,
		warehouseRepo: warehouseRepo,
		employeeRepo:  employeeRepo,
		assigner:      warehouse.NewWarehouseAssigner(warehouseRepo),
		ledger:        ledger,
		locker:        locker,
		lockWait:      DefaultOrderLockWait,
		logger:        logger,
		now:           time.Now,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *OrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the transition counter sink
func (s *OrderService) SetMetrics(m OrderMetrics) {
	s.metrics = m
}

// SetLockWait overrides DefaultOrderLockWait
func (s *OrderService) SetLockWait(d time.Duration) {
	if d > 0 {
		s.lockWait = d
	}
}

// PlaceOrder creates a CREATED order priced per box. When the target
// warehouse is known the requested boxes are checked against availability.
func (s *OrderService) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*OrderResponse, error) {
	if len(req.Lines) == 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Order must have at least one line")
	}

	warehouseID, err := s.resolveCheckoutWarehouse(ctx, req)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(req.Lines))
	for i, l := range req.Lines {
		ids[i] = l.ProductID
	}
	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*catalog.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	lines := make([]fulfillment.LineInput, 0, len(req.Lines))
	for i, l := range req.Lines {
		p, ok := byID[l.ProductID]
		if !ok {
			return nil, shared.NewDomainErrorf(shared.CodeNotFound, "Line %d: product %s not found", i+1, l.ProductID)
		}
		if !p.IsActive {
			return nil, shared.NewDomainErrorf(shared.CodeInvalidInput, "Line %d: product %s is not for sale", i+1, p.Code)
		}
		if warehouseID != nil {
			avail, err := s.ledger.Availability(ctx, p.ID, warehouseID)
			if err != nil {
				return nil, err
			}
			if !p.CanOrder(l.Boxes, avail.AvailableBoxes) {
				return nil, shared.NewDomainErrorf(shared.CodeInsufficientStock,
					"Line %d: %d boxes of %s requested, %d available", i+1, l.Boxes, p.Code, avail.AvailableBoxes)
			}
		}
		lines = append(lines, fulfillment.LineInput{
			ProductID:    p.ID,
			Boxes:        l.Boxes,
			UnitBoxPrice: p.BoxPrice,
		})
	}

	order, err := fulfillment.NewOrder(fulfillment.GenerateOrderNumber(s.now()), req.ClientID, lines, req.Comment)
	if err != nil {
		return nil, err
	}
	if req.DeliveryDistrictID != nil {
		order.SetDeliveryDistrict(*req.DeliveryDistrictID)
	}
	if warehouseID != nil {
		if err := order.AssignWarehouse(*warehouseID); err != nil {
			return nil, err
		}
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}
	s.publish(ctx, order)

	s.logger.Info("order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.Int("lines", len(order.Lines)),
		zap.Bool("warehouse_assigned", order.WarehouseID != nil),
	)
	resp := ToOrderResponse(order)
	return &resp, nil
}

// Accept reserves every line and moves the order to PICKING. When any line
// cannot be covered the lines already reserved are released and the order
// is parked in WAITING_STOCK instead; that is not an error for the caller.
func (s *OrderService) Accept(ctx context.Context, orderID, employeeID uuid.UUID) (*OrderResponse, error) {
	actor, err := s.actorFor(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return s.withOrderLock(ctx, orderID, func(ctx context.Context) (*OrderResponse, error) {
		order, err := s.orderRepo.FindByID(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if _, err := order.CheckAction(fulfillment.ActionAccept, actor); err != nil {
			return nil, err
		}
		if err := s.ensureWarehouse(ctx, order); err != nil {
			return nil, err
		}
		return s.reserveAndMove(ctx, order, fulfillment.ActionAccept, actor)
	})
}

// RetryFromWaitingStock re-attempts the reservation of a WAITING_STOCK order.
// If stock is still short the order stays in WAITING_STOCK.
func (s *OrderService) RetryFromWaitingStock(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	actor := fulfillment.SystemActor()
	return s.withOrderLock(ctx, orderID, func(ctx context.Context) (*OrderResponse, error) {
		order, err := s.orderRepo.FindByID(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if _, err := order.CheckAction(fulfillment.ActionRetry, actor); err != nil {
			return nil, err
		}
		if err := s.ensureWarehouse(ctx, order); err != nil {
			return nil, err
		}
		return s.reserveAndMove(ctx, order, fulfillment.ActionRetry, actor)
	})
}

// Advance moves the order to the next stage
func (s *OrderService) Advance(ctx context.Context, orderID, employeeID uuid.UUID) (*OrderResponse, error) {
	actor, err := s.actorFor(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return s.withOrderLock(ctx, orderID, func(ctx context.Context) (*OrderResponse, error) {
		order, err := s.orderRepo.FindByID(ctx, orderID)
		if err != nil {
			return nil, err
		}
		from := order.Status
		if err := order.Advance(actor); err != nil {
			return nil, err
		}
		if err := s.save(ctx, order); err != nil {
			return nil, err
		}
		s.observe(from, order.Status, fulfillment.ActionAdvance)
		return s.respond(ctx, order), nil
	})
}

// Complete commits the order's reservations and marks it COMPLETED.
// Commits are idempotent, so a failed save can be retried safely.
func (s *OrderService) Complete(ctx context.Context, orderID, employeeID uuid.UUID) (*OrderResponse, error) {
	actor, err := s.actorFor(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return s.withOrderLock(ctx, orderID, func(ctx context.Context) (*OrderResponse, error) {
		order, err := s.orderRepo.FindByID(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if _, err := order.CheckAction(fulfillment.ActionComplete, actor); err != nil {
			return nil, err
		}

		committed, err := s.ledger.CommitForOrder(ctx, order.ID)
		if err != nil {
			return nil, fmt.Errorf("commit stock for order %s: %w", order.OrderNumber, err)
		}

		from := order.Status
		if err := order.Complete(actor); err != nil {
			return nil, err
		}
		if err := s.save(ctx, order); err != nil {
			s.logger.Error("order completed in ledger but not saved",
				zap.String("order_id", order.ID.String()),
				zap.Int("committed", committed),
				zap.Error(err),
			)
			return nil, err
		}
		s.observe(from, order.Status, fulfillment.ActionComplete)
		return s.respond(ctx, order), nil
	})
}

// Cancel releases every reservation of the order and marks it CANCELLED.
// The release is done before Cancel returns. A nil employeeID cancels on
// behalf of the system.
func (s *OrderService) Cancel(ctx context.Context, orderID uuid.UUID, employeeID *uuid.UUID, reason string) (*OrderResponse, error) {
	actor := fulfillment.SystemActor()
	if employeeID != nil {
		a, err := s.actorFor(ctx, *employeeID)
		if err != nil {
			return nil, err
		}
		actor = a
	}
	return s.withOrderLock(ctx, orderID, func(ctx context.Context) (*OrderResponse, error) {
		order, err := s.orderRepo.FindByID(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if _, err := order.CheckAction(fulfillment.ActionCancel, actor); err != nil {
			return nil, err
		}

		released, err := s.ledger.ReleaseForOrder(ctx, order.ID)
		if err != nil {
			return nil, fmt.Errorf("release stock for order %s: %w", order.OrderNumber, err)
		}

		from := order.Status
		if err := order.Cancel(actor, reason); err != nil {
			return nil, err
		}
		if err := s.save(ctx, order); err != nil {
			return nil, err
		}

		s.logger.Info("order cancelled",
			zap.String("order_id", order.ID.String()),
			zap.String("from_status", string(from)),
			zap.Int("released_reservations", released),
		)
		s.observe(from, order.Status, fulfillment.ActionCancel)
		return s.respond(ctx, order), nil
	})
}

// Claim lets an employee of the owning role take an unheld order
func (s *OrderService) Claim(ctx context.Context, orderID, employeeID uuid.UUID) (*OrderResponse, error) {
	actor, err := s.actorFor(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return s.withOrderLock(ctx, orderID, func(ctx context.Context) (*OrderResponse, error) {
		order, err := s.orderRepo.FindByID(ctx, orderID)
		if err != nil {
			return nil, err
		}
		before := order.Version
		if err := order.Claim(actor); err != nil {
			return nil, err
		}
		if order.Version != before {
			if err := s.save(ctx, order); err != nil {
				return nil, err
			}
		}
		return s.respond(ctx, order), nil
	})
}

// ReportShortage is the picker finding less on the shelf than the ledger
// says. The order's reservations are released and it waits for stock.
// blockingProductID defaults to the first line's product.
func (s *OrderService) ReportShortage(ctx context.Context, orderID, employeeID uuid.UUID, blockingProductID *uuid.UUID) (*OrderResponse, error) {
	actor, err := s.actorFor(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return s.withOrderLock(ctx, orderID, func(ctx context.Context) (*OrderResponse, error) {
		order, err := s.orderRepo.FindByID(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if _, err := order.CheckAction(fulfillment.ActionReportShortage, actor); err != nil {
			return nil, err
		}

		blocking := order.Lines[0].ProductID
		if blockingProductID != nil {
			if !orderHasProduct(order, *blockingProductID) {
				return nil, shared.NewDomainError(shared.CodeInvalidInput, "Product is not part of this order")
			}
			blocking = *blockingProductID
		}

		if _, err := s.ledger.ReleaseForOrder(ctx, order.ID); err != nil {
			return nil, fmt.Errorf("release stock for order %s: %w", order.OrderNumber, err)
		}

		from := order.Status
		if err := order.ParkForStock(fulfillment.ActionReportShortage, actor, blocking); err != nil {
			return nil, err
		}
		if err := s.save(ctx, order); err != nil {
			return nil, err
		}
		s.observe(from, order.Status, fulfillment.ActionReportShortage)
		return s.respond(ctx, order), nil
	})
}

// AssignWarehouse targets an order at a warehouse by hand
func (s *OrderService) AssignWarehouse(ctx context.Context, orderID, warehouseID uuid.UUID) (*OrderResponse, error) {
	if _, err := s.warehouseRepo.FindByID(ctx, warehouseID); err != nil {
		return nil, err
	}
	return s.withOrderLock(ctx, orderID, func(ctx context.Context) (*OrderResponse, error) {
		order, err := s.orderRepo.FindByID(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if err := order.AssignWarehouse(warehouseID); err != nil {
			return nil, err
		}
		if err := s.save(ctx, order); err != nil {
			return nil, err
		}
		return s.respond(ctx, order), nil
	})
}

// Get retrieves an order by ID
func (s *OrderService) Get(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(order)
	return &resp, nil
}

// ListQueue returns the orders a role currently works on, oldest first
func (s *OrderService) ListQueue(ctx context.Context, req QueueRequest) ([]OrderResponse, int64, error) {
	if !req.Role.IsValid() || req.Role == warehouse.RoleAdmin {
		return nil, 0, shared.NewDomainErrorf(shared.CodeInvalidInput, "Role %q has no order queue", req.Role)
	}
	orders, total, err := s.orderRepo.FindQueue(ctx, req.toDomain())
	if err != nil {
		return nil, 0, err
	}
	out := make([]OrderResponse, len(orders))
	for i := range orders {
		out[i] = ToOrderResponse(&orders[i])
	}
	return out, total, nil
}

// ResumeWaiting retries WAITING_STOCK orders, oldest first. Nil filters
// match every product or warehouse.
func (s *OrderService) ResumeWaiting(ctx context.Context, productID, warehouseID *uuid.UUID, limit int) (*SweepResult, error) {
	orders, err := s.orderRepo.FindWaitingForStock(ctx, productID, warehouseID, limit)
	if err != nil {
		return nil, err
	}

	result := &SweepResult{}
	for _, o := range orders {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Examined++
		resp, err := s.RetryFromWaitingStock(ctx, o.ID)
		switch {
		case err != nil:
			result.Failed++
			s.logger.Warn("waiting order retry failed",
				zap.String("order_id", o.ID.String()),
				zap.Error(err),
			)
		case resp.Status == fulfillment.StatusWaitingStock:
			result.Waiting++
		default:
			result.Resumed++
		}
	}
	return result, nil
}

// reserveAndMove reserves every line of the order for action. All lines
// are reserved or none: a shortage or error partway through releases what
// was taken before the order moves or the error is returned.
func (s *OrderService) reserveAndMove(ctx context.Context, order *fulfillment.Order, action fulfillment.OrderAction, actor fulfillment.Actor) (*OrderResponse, error) {
	from := order.Status
	reserved, blocking, err := s.reserveLines(ctx, order)
	if err != nil {
		return nil, err
	}

	if blocking != nil {
		err = order.ParkForStock(action, actor, *blocking)
	} else if action == fulfillment.ActionRetry {
		err = order.RetryFromWaitingStock(actor)
	} else {
		err = order.Accept(actor)
	}
	if err == nil {
		err = s.save(ctx, order)
	}
	if err != nil {
		s.compensate(ctx, order, reserved)
		return nil, err
	}

	if blocking != nil {
		s.logger.Info("order waiting for stock",
			zap.String("order_id", order.ID.String()),
			zap.String("blocking_product_id", blocking.String()),
			zap.String("action", string(action)),
		)
	}
	s.observe(from, order.Status, action)
	return s.respond(ctx, order), nil
}

// reserveLines reserves each line in order and returns the reservations it
// created. Reservations the order already held are kept out of the list so
// that compensation never gives back stock this call did not take. On
// INSUFFICIENT_STOCK the new reservations are released and the blocking
// product is reported.
func (s *OrderService) reserveLines(ctx context.Context, order *fulfillment.Order) ([]uuid.UUID, *uuid.UUID, error) {
	reserved := make([]uuid.UUID, 0, len(order.Lines))
	for _, line := range order.Lines {
		r, err := s.ledger.Reserve(ctx, inventoryapp.ReserveRequest{
			ProductID:   line.ProductID,
			WarehouseID: *order.WarehouseID,
			OrderID:     order.ID,
			LineNo:      line.LineNo,
			Boxes:       line.Boxes,
		})
		if err != nil {
			s.compensate(ctx, order, reserved)
			if errors.Is(err, shared.ErrInsufficientStock) {
				blocking := line.ProductID
				return nil, &blocking, nil
			}
			return nil, nil, fmt.Errorf("reserve line %d: %w", line.LineNo, err)
		}
		if !r.Existing {
			reserved = append(reserved, r.ID)
		}
	}
	return reserved, nil, nil
}

// compensate releases reservations taken by a transition that did not happen
func (s *OrderService) compensate(ctx context.Context, order *fulfillment.Order, reservationIDs []uuid.UUID) {
	if len(reservationIDs) == 0 {
		return
	}
	s.logger.Info("starting compensation for partial reservation",
		zap.String("order_id", order.ID.String()),
		zap.Int("reservations_to_release", len(reservationIDs)),
	)

	failed := 0
	for _, id := range reservationIDs {
		if _, err := s.ledger.Release(ctx, id); err != nil {
			failed++
			s.logger.Error("compensation failed - could not release reservation",
				zap.String("order_id", order.ID.String()),
				zap.String("reservation_id", id.String()),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("compensation completed",
		zap.String("order_id", order.ID.String()),
		zap.Int("total_reservations", len(reservationIDs)),
		zap.Int("failed_compensations", failed),
	)
}

// withOrderLock runs fn holding the order's lock. Without a locker fn runs
// unserialized and relies on the optimistic version check alone.
func (s *OrderService) withOrderLock(ctx context.Context, orderID uuid.UUID, fn func(ctx context.Context) (*OrderResponse, error)) (*OrderResponse, error) {
	if s.locker == nil {
		return fn(ctx)
	}

	key := OrderKey(orderID)
	lockCtx, cancel := context.WithTimeout(ctx, s.lockWait)
	defer cancel()

	unlock, err := s.locker.Lock(lockCtx, key)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("order lock not acquired",
			zap.String("key", key),
			zap.Duration("wait", s.lockWait),
			zap.Error(err),
		)
		return nil, shared.NewDomainError(shared.CodeConcurrencyConflict, "Order is busy, try again")
	}
	defer unlock()

	return fn(ctx)
}

// ensureWarehouse binds an order without a warehouse through its delivery
// district. WAREHOUSE_NOT_ASSIGNED when none can be found.
func (s *OrderService) ensureWarehouse(ctx context.Context, order *fulfillment.Order) error {
	if order.WarehouseID != nil {
		return nil
	}
	if order.DeliveryDistrictID != nil {
		id, err := s.assigner.AssignForOrder(ctx, *order.DeliveryDistrictID)
		if err != nil {
			return err
		}
		if id != nil {
			return order.AssignWarehouse(*id)
		}
	}
	return shared.NewDomainErrorf(shared.CodeWarehouseUnassigned,
		"Order %s has no warehouse; assign one before accepting", order.OrderNumber)
}

func (s *OrderService) resolveCheckoutWarehouse(ctx context.Context, req PlaceOrderRequest) (*uuid.UUID, error) {
	if req.WarehouseID != nil {
		if _, err := s.warehouseRepo.FindByID(ctx, *req.WarehouseID); err != nil {
			return nil, err
		}
		return req.WarehouseID, nil
	}
	if req.DeliveryDistrictID != nil {
		return s.assigner.AssignForOrder(ctx, *req.DeliveryDistrictID)
	}
	return nil, nil
}

// actorFor loads the employee acting on an order
func (s *OrderService) actorFor(ctx context.Context, employeeID uuid.UUID) (fulfillment.Actor, error) {
	e, err := s.employeeRepo.FindByID(ctx, employeeID)
	if err != nil {
		return fulfillment.Actor{}, err
	}
	if !e.IsActive {
		return fulfillment.Actor{}, shared.NewDomainError(shared.CodeForbidden, "Employee is inactive")
	}
	return fulfillment.Actor{EmployeeID: e.ID, Role: e.Role}, nil
}

func (s *OrderService) save(ctx context.Context, order *fulfillment.Order) error {
	return s.orderRepo.SaveWithLock(ctx, order)
}

// respond publishes the order's pending events and builds the response
func (s *OrderService) respond(ctx context.Context, order *fulfillment.Order) *OrderResponse {
	s.publish(ctx, order)
	resp := ToOrderResponse(order)
	return &resp
}

func (s *OrderService) publish(ctx context.Context, order *fulfillment.Order) {
	events := order.PullDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
}

func (s *OrderService) observe(from, to fulfillment.OrderStatus, action fulfillment.OrderAction) {
	if s.metrics != nil {
		s.metrics.ObserveTransition(from, to, action)
	}
}

func orderHasProduct(order *fulfillment.Order, productID uuid.UUID) bool {
	for _, l := range order.Lines {
		if l.ProductID == productID {
			return true
		}
	}
	return false
}
