package fulfillment

import (
	"context"
	"sort"
	"sync"

	inventoryapp "github.com/boxstock/backend/internal/application/inventory"
	"github.com/boxstock/backend/internal/domain/catalog"
	"github.com/boxstock/backend/internal/domain/fulfillment"
	"github.com/boxstock/backend/internal/domain/inventory"
	"github.com/boxstock/backend/internal/domain/shared"
	"github.com/boxstock/backend/internal/domain/warehouse"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockEventPublisher records published events
type MockEventPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{events: make([]shared.DomainEvent, 0)}
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

func (m *MockEventPublisher) GetEventsByType(eventType string) []shared.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]shared.DomainEvent, 0)
	for _, e := range m.events {
		if e.EventType() == eventType {
			result = append(result, e)
		}
	}
	return result
}

// memOrderRepo keeps copies of orders so that version checks behave like
// the database
type memOrderRepo struct {
	mu      sync.Mutex
	orders  map[uuid.UUID]fulfillment.Order
	saveErr error
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: make(map[uuid.UUID]fulfillment.Order)}
}

func (m *memOrderRepo) put(o *fulfillment.Order) {
	c := *o
	c.ClearDomainEvents()
	m.orders[o.ID] = c
}

func (m *memOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*fulfillment.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &o, nil
}

func (m *memOrderRepo) FindByOrderNumber(ctx context.Context, orderNumber string) (*fulfillment.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.OrderNumber == orderNumber {
			return &o, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memOrderRepo) FindWaitingForStock(ctx context.Context, productID, warehouseID *uuid.UUID, limit int) ([]fulfillment.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]fulfillment.Order, 0)
	for _, o := range m.orders {
		if o.Status != fulfillment.StatusWaitingStock {
			continue
		}
		if productID != nil && (o.BlockingProductID == nil || *o.BlockingProductID != *productID) {
			continue
		}
		if warehouseID != nil && (o.WarehouseID == nil || *o.WarehouseID != *warehouseID) {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memOrderRepo) FindQueue(ctx context.Context, filter fulfillment.QueueFilter) ([]fulfillment.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]fulfillment.Order, 0)
	for _, o := range m.orders {
		if o.EmployeeRole != filter.Role || o.Status.IsTerminal() {
			continue
		}
		if filter.Unassigned && o.AssignedEmployeeID != nil {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, int64(len(out)), nil
}

func (m *memOrderRepo) Create(ctx context.Context, order *fulfillment.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	order.MarkStored()
	m.put(order)
	return nil
}

func (m *memOrderRepo) SaveWithLock(ctx context.Context, order *fulfillment.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	stored, ok := m.orders[order.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Version != order.StoredVersion() {
		return shared.ErrOptimisticLock
	}
	order.MarkStored()
	m.put(order)
	return nil
}

func (m *memOrderRepo) get(id uuid.UUID) fulfillment.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders[id]
}

// fakeLedger keeps available boxes per pair and the reservations taken
// against them
type fakeLedger struct {
	mu           sync.Mutex
	available    map[[2]uuid.UUID]int
	reservations map[uuid.UUID]*fakeReservation
	committed    []uuid.UUID
	reserveErr   error
}

type fakeReservation struct {
	orderID     uuid.UUID
	productID   uuid.UUID
	warehouseID uuid.UUID
	lineNo      int
	boxes       int
	status      inventory.ReservationStatus
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		available:    make(map[[2]uuid.UUID]int),
		reservations: make(map[uuid.UUID]*fakeReservation),
	}
}

func (l *fakeLedger) stock(productID, warehouseID uuid.UUID, boxes int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.available[[2]uuid.UUID{productID, warehouseID}] += boxes
}

func (l *fakeLedger) availableFor(productID, warehouseID uuid.UUID) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.available[[2]uuid.UUID{productID, warehouseID}]
}

func (l *fakeLedger) active(orderID uuid.UUID) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, r := range l.reservations {
		if r.orderID == orderID && r.status == inventory.ReservationActive {
			n++
		}
	}
	return n
}

func (l *fakeLedger) Reserve(ctx context.Context, req inventoryapp.ReserveRequest) (*inventoryapp.ReservationResponse, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.reserveErr != nil {
		return nil, l.reserveErr
	}
	for id, r := range l.reservations {
		if r.orderID == req.OrderID && r.lineNo == req.LineNo && r.status == inventory.ReservationActive {
			return &inventoryapp.ReservationResponse{ID: id, OrderID: r.orderID, LineNo: r.lineNo, Boxes: r.boxes, Existing: true}, nil
		}
	}
	key := [2]uuid.UUID{req.ProductID, req.WarehouseID}
	if l.available[key] < req.Boxes {
		return nil, shared.NewDomainError(shared.CodeInsufficientStock, "Insufficient stock")
	}
	l.available[key] -= req.Boxes
	id := uuid.New()
	l.reservations[id] = &fakeReservation{
		orderID:     req.OrderID,
		productID:   req.ProductID,
		warehouseID: req.WarehouseID,
		lineNo:      req.LineNo,
		boxes:       req.Boxes,
		status:      inventory.ReservationActive,
	}
	return &inventoryapp.ReservationResponse{ID: id, OrderID: req.OrderID, LineNo: req.LineNo, Boxes: req.Boxes}, nil
}

func (l *fakeLedger) Release(ctx context.Context, reservationID uuid.UUID) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r, ok := l.reservations[reservationID]
	if !ok {
		return false, shared.ErrNotFound
	}
	if r.status != inventory.ReservationActive {
		return false, nil
	}
	r.status = inventory.ReservationReleased
	l.available[[2]uuid.UUID{r.productID, r.warehouseID}] += r.boxes
	return true, nil
}

func (l *fakeLedger) ReleaseForOrder(ctx context.Context, orderID uuid.UUID) (int, error) {
	l.mu.Lock()
	ids := make([]uuid.UUID, 0)
	for id, r := range l.reservations {
		if r.orderID == orderID {
			ids = append(ids, id)
		}
	}
	l.mu.Unlock()

	n := 0
	for _, id := range ids {
		released, err := l.Release(ctx, id)
		if err != nil {
			return n, err
		}
		if released {
			n++
		}
	}
	return n, nil
}

func (l *fakeLedger) CommitForOrder(ctx context.Context, orderID uuid.UUID) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for id, r := range l.reservations {
		if r.orderID == orderID && r.status == inventory.ReservationActive {
			r.status = inventory.ReservationCommitted
			l.committed = append(l.committed, id)
			n++
		}
	}
	return n, nil
}

func (l *fakeLedger) Availability(ctx context.Context, productID uuid.UUID, warehouseID *uuid.UUID) (*inventoryapp.AvailabilityResponse, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	boxes := l.available[[2]uuid.UUID{productID, *warehouseID}]
	return &inventoryapp.AvailabilityResponse{
		ProductID:      productID,
		WarehouseID:    warehouseID,
		QuantityBoxes:  boxes,
		AvailableBoxes: boxes,
	}, nil
}

// keyedLocker serializes callers per key and counts acquisitions
type keyedLocker struct {
	mu       sync.Mutex
	held     map[string]chan struct{}
	acquired map[string]int
}

func newKeyedLocker() *keyedLocker {
	return &keyedLocker{held: make(map[string]chan struct{}), acquired: make(map[string]int)}
}

func (l *keyedLocker) Lock(ctx context.Context, key string) (func(), error) {
	for {
		l.mu.Lock()
		busy, ok := l.held[key]
		if !ok {
			done := make(chan struct{})
			l.held[key] = done
			l.acquired[key]++
			l.mu.Unlock()
			return func() {
				l.mu.Lock()
				delete(l.held, key)
				l.mu.Unlock()
				close(done)
			}, nil
		}
		l.mu.Unlock()

		select {
		case <-busy:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (l *keyedLocker) count(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.acquired[key]
}

// busyLocker never grants a lock
type busyLocker struct{}

func (busyLocker) Lock(ctx context.Context, _ string) (func(), error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// staleOrderRepo hands out a fixed snapshot, as seen by a caller that read
// the order before another transition saved it
type staleOrderRepo struct {
	*memOrderRepo
	snapshot fulfillment.Order
}

func (r *staleOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*fulfillment.Order, error) {
	o := r.snapshot
	return &o, nil
}

// MockProductRepository is a mock implementation of catalog.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByCode(ctx context.Context, code string) (*catalog.Product, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, activeOnly bool, filter shared.Filter) ([]catalog.Product, int64, error) {
	args := m.Called(ctx, activeOnly, filter)
	return args.Get(0).([]catalog.Product), args.Get(1).(int64), args.Error(2)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *MockProductRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

// MockWarehouseRepository is a mock implementation of warehouse.WarehouseRepository
type MockWarehouseRepository struct {
	mock.Mock
}

func (m *MockWarehouseRepository) FindActiveByDistricts(ctx context.Context, districtIDs []uuid.UUID) ([]warehouse.Warehouse, error) {
	args := m.Called(ctx, districtIDs)
	return args.Get(0).([]warehouse.Warehouse), args.Error(1)
}

func (m *MockWarehouseRepository) FindByID(ctx context.Context, id uuid.UUID) (*warehouse.Warehouse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*warehouse.Warehouse), args.Error(1)
}

func (m *MockWarehouseRepository) FindByCode(ctx context.Context, code string) (*warehouse.Warehouse, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*warehouse.Warehouse), args.Error(1)
}

func (m *MockWarehouseRepository) FindAll(ctx context.Context) ([]warehouse.Warehouse, error) {
	args := m.Called(ctx)
	return args.Get(0).([]warehouse.Warehouse), args.Error(1)
}

func (m *MockWarehouseRepository) Save(ctx context.Context, w *warehouse.Warehouse) error {
	return m.Called(ctx, w).Error(0)
}

func (m *MockWarehouseRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

// memEmployees is a fixed employee directory
type memEmployees map[uuid.UUID]*warehouse.Employee

func (m memEmployees) add(role warehouse.EmployeeRole) *warehouse.Employee {
	e, _ := warehouse.NewEmployee(string(role)+" one", role)
	m[e.ID] = e
	return e
}

func (m memEmployees) FindByID(ctx context.Context, id uuid.UUID) (*warehouse.Employee, error) {
	if e, ok := m[id]; ok {
		return e, nil
	}
	return nil, shared.ErrNotFound
}

func (m memEmployees) FindByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]warehouse.Employee, error) {
	return nil, nil
}

func (m memEmployees) Save(ctx context.Context, e *warehouse.Employee) error {
	m[e.ID] = e
	return nil
}

type mockOrderMetrics struct {
	mu          sync.Mutex
	transitions []string
}

func (m *mockOrderMetrics) ObserveTransition(from, to fulfillment.OrderStatus, action fulfillment.OrderAction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions = append(m.transitions, string(from)+">"+string(to))
}

func newTestProduct(code string, itemsPerBox int, pricePerItem int64) *catalog.Product {
	price := decimal.NewFromInt(pricePerItem)
	p, _ := catalog.NormalizeProduct(catalog.ProductDraft{
		Code:         code,
		Name:         "Test " + code,
		ItemsPerBox:  &itemsPerBox,
		PricePerItem: &price,
	})
	return p
}
