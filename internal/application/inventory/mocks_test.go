package inventory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/boxstock/backend/internal/domain/catalog"
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

// memLedger is an in-memory stock, reservation and sales store. It hands out
// copies so that optimistic version checks behave like the database.
type memLedger struct {
	mu           sync.Mutex
	records      map[uuid.UUID]inventory.StockRecord
	reservations map[uuid.UUID]inventory.Reservation
	sales        []inventory.SaleRecord
}

func newMemLedger() *memLedger {
	return &memLedger{
		records:      make(map[uuid.UUID]inventory.StockRecord),
		reservations: make(map[uuid.UUID]inventory.Reservation),
	}
}

func (m *memLedger) seed(productID, warehouseID uuid.UUID, quantity int) *inventory.StockRecord {
	rec, _ := inventory.NewStockRecord(productID, warehouseID)
	rec.QuantityBoxes = quantity
	m.mu.Lock()
	m.records[rec.ID] = detach(rec)
	m.mu.Unlock()
	return rec
}

func (m *memLedger) seedAt(productID, warehouseID uuid.UUID, quantity int, createdAt time.Time) *inventory.StockRecord {
	rec := m.seed(productID, warehouseID, quantity)
	rec.CreatedAt = createdAt
	m.mu.Lock()
	m.records[rec.ID] = detach(rec)
	m.mu.Unlock()
	return rec
}

func (m *memLedger) sell(productID, warehouseID uuid.UUID, boxes int, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sales = append(m.sales, inventory.SaleRecord{ProductID: productID, WarehouseID: warehouseID, Boxes: boxes, SoldAt: at})
}

func detach(r *inventory.StockRecord) inventory.StockRecord {
	c := *r
	c.ClearDomainEvents()
	return c
}

func (m *memLedger) record(productID, warehouseID uuid.UUID) inventory.StockRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ProductID == productID && r.WarehouseID == warehouseID {
			return r
		}
	}
	return inventory.StockRecord{}
}

// stock repository

type memStockRepo struct{ *memLedger }

func (m memStockRepo) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &r, nil
}

func (m memStockRepo) FindByProductAndWarehouse(ctx context.Context, productID, warehouseID uuid.UUID) (*inventory.StockRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ProductID == productID && r.WarehouseID == warehouseID {
			c := r
			return &c, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m memStockRepo) FindByProductAndWarehouseForUpdate(ctx context.Context, productID, warehouseID uuid.UUID) (*inventory.StockRecord, error) {
	return m.FindByProductAndWarehouse(ctx, productID, warehouseID)
}

func (m memStockRepo) FindByProduct(ctx context.Context, productID uuid.UUID) ([]inventory.StockRecord, error) {
	return m.filter(func(r inventory.StockRecord) bool { return r.ProductID == productID }), nil
}

func (m memStockRepo) FindByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]inventory.StockRecord, error) {
	return m.filter(func(r inventory.StockRecord) bool { return r.WarehouseID == warehouseID }), nil
}

func (m memStockRepo) filter(keep func(inventory.StockRecord) bool) []inventory.StockRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]inventory.StockRecord, 0)
	for _, r := range m.records {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID.String() < out[j].ProductID.String() })
	return out
}

func (m memStockRepo) ExistsForProduct(ctx context.Context, productID uuid.UUID) (bool, error) {
	rs, _ := m.FindByProduct(ctx, productID)
	return len(rs) > 0, nil
}

func (m memStockRepo) Create(ctx context.Context, record *inventory.StockRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ProductID == record.ProductID && r.WarehouseID == record.WarehouseID {
			return shared.ErrAlreadyExists
		}
	}
	m.records[record.ID] = detach(record)
	return nil
}

func (m memStockRepo) SaveWithLock(ctx context.Context, record *inventory.StockRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.records[record.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Version != record.Version-1 {
		return shared.ErrOptimisticLock
	}
	m.records[record.ID] = detach(record)
	return nil
}

// reservation repository

type memReservationRepo struct{ *memLedger }

func (m memReservationRepo) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reservations[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &r, nil
}

func (m memReservationRepo) FindActiveByOrderLine(ctx context.Context, orderID uuid.UUID, lineNo int) (*inventory.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reservations {
		if r.OrderID == orderID && r.LineNo == lineNo && r.IsActive() {
			c := r
			return &c, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m memReservationRepo) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]inventory.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]inventory.Reservation, 0)
	for _, r := range m.reservations {
		if r.OrderID == orderID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LineNo < out[j].LineNo })
	return out, nil
}

func (m memReservationRepo) Save(ctx context.Context, r *inventory.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reservations[r.ID] = *r
	return nil
}

// sales history repository

type memSalesRepo struct{ *memLedger }

func (m memSalesRepo) Record(ctx context.Context, sale *inventory.SaleRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sales = append(m.sales, *sale)
	return nil
}

func (m memSalesRepo) DailySales(ctx context.Context, productID, warehouseID uuid.UUID, from, to time.Time) ([]inventory.SalesPoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byDay := map[time.Time]int{}
	for _, s := range m.sales {
		if s.ProductID != productID || s.WarehouseID != warehouseID || s.SoldAt.Before(from) || s.SoldAt.After(to) {
			continue
		}
		y, mo, d := s.SoldAt.Date()
		byDay[time.Date(y, mo, d, 0, 0, 0, 0, s.SoldAt.Location())] += s.Boxes
	}
	out := make([]inventory.SalesPoint, 0, len(byDay))
	for day, boxes := range byDay {
		out = append(out, inventory.SalesPoint{Day: day, Boxes: boxes})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out, nil
}

func (m memSalesRepo) LastSaleAt(ctx context.Context, productID, warehouseID uuid.UUID) (*time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var last *time.Time
	for _, s := range m.sales {
		if s.ProductID == productID && s.WarehouseID == warehouseID && (last == nil || s.SoldAt.After(*last)) {
			at := s.SoldAt
			last = &at
		}
	}
	return last, nil
}

// keyedLocker is an in-process RowLocker
type keyedLocker struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func newKeyedLocker() *keyedLocker {
	return &keyedLocker{locks: make(map[string]chan struct{})}
}

func (l *keyedLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	ch, ok := l.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[key] = ch
	}
	l.mu.Unlock()

	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
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

// MockEmployeeRepository is a mock implementation of warehouse.EmployeeRepository
type MockEmployeeRepository struct {
	mock.Mock
}

func (m *MockEmployeeRepository) FindByID(ctx context.Context, id uuid.UUID) (*warehouse.Employee, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*warehouse.Employee), args.Error(1)
}

func (m *MockEmployeeRepository) FindByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]warehouse.Employee, error) {
	args := m.Called(ctx, warehouseID)
	return args.Get(0).([]warehouse.Employee), args.Error(1)
}

func (m *MockEmployeeRepository) Save(ctx context.Context, e *warehouse.Employee) error {
	return m.Called(ctx, e).Error(0)
}

// MockStagnantReturnRepository is a mock implementation of inventory.StagnantReturnRepository
type MockStagnantReturnRepository struct {
	mock.Mock
}

func (m *MockStagnantReturnRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StagnantReturn, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.StagnantReturn), args.Error(1)
}

func (m *MockStagnantReturnRepository) FindOpen(ctx context.Context, productID, warehouseID uuid.UUID) (*inventory.StagnantReturn, error) {
	args := m.Called(ctx, productID, warehouseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.StagnantReturn), args.Error(1)
}

func (m *MockStagnantReturnRepository) FindAll(ctx context.Context, filter inventory.ReturnFilter) ([]inventory.StagnantReturn, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]inventory.StagnantReturn), args.Get(1).(int64), args.Error(2)
}

func (m *MockStagnantReturnRepository) Create(ctx context.Context, r *inventory.StagnantReturn) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockStagnantReturnRepository) SaveWithLock(ctx context.Context, r *inventory.StagnantReturn) error {
	return m.Called(ctx, r).Error(0)
}

func newTestProduct(itemsPerBox int, pricePerItem int64) *catalog.Product {
	price := decimal.NewFromInt(pricePerItem)
	p, _ := catalog.NormalizeProduct(catalog.ProductDraft{
		Code:         "SKU-1",
		Name:         "Test product",
		ItemsPerBox:  &itemsPerBox,
		PricePerItem: &price,
	})
	return p
}

func newTestWarehouse() *warehouse.Warehouse {
	w, _ := warehouse.NewWarehouse("WH-1", "Main", uuid.New())
	return w
}
