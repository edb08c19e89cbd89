//go:build integration

package integration

import (
	"context"
	"net/http"
	"testing"
	"time"

	catalogapp "github.com/boxstock/backend/internal/application/catalog"
	fulfillmentapp "github.com/boxstock/backend/internal/application/fulfillment"
	inventoryapp "github.com/boxstock/backend/internal/application/inventory"
	warehouseapp "github.com/boxstock/backend/internal/application/warehouse"
	"github.com/boxstock/backend/internal/domain/inventory"
	"github.com/boxstock/backend/internal/infrastructure/cache"
	"github.com/boxstock/backend/internal/infrastructure/event"
	"github.com/boxstock/backend/internal/infrastructure/metrics"
	"github.com/boxstock/backend/internal/infrastructure/persistence"
	"github.com/boxstock/backend/internal/interfaces/http/handler"
	"github.com/boxstock/backend/internal/interfaces/http/router"
	"github.com/boxstock/backend/tests/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// app is the full service graph over one test database, wired the way
// cmd/server wires it but with a synchronous event bus.
type app struct {
	db      *TestDB
	handler http.Handler
	events  *testutil.EventRecorder
	metrics *metrics.Metrics

	warehouses *warehouseapp.WarehouseService
	products   *catalogapp.ProductService
	ledger     *inventoryapp.StockLedgerService
	health     *inventoryapp.StockHealthService
	returns    *inventoryapp.StagnantReturnService
	orders     *fulfillmentapp.OrderService
}

type appOptions struct {
	locker inventoryapp.RowLocker
}

func newApp(t *testing.T, opts ...func(*appOptions)) *app {
	t.Helper()

	o := appOptions{locker: cache.NewLocalRowLocker()}
	for _, opt := range opts {
		opt(&o)
	}

	tdb := NewTestDB(t)
	log := zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel))
	promMetrics := metrics.New()

	productRepo := persistence.NewGormProductRepository(tdb.DB)
	warehouseRepo := persistence.NewGormWarehouseRepository(tdb.DB)
	districtRepo := persistence.NewGormDistrictRepository(tdb.DB)
	employeeRepo := persistence.NewGormEmployeeRepository(tdb.DB)
	stockRepo := persistence.NewGormStockRecordRepository(tdb.DB)
	reservationRepo := persistence.NewGormReservationRepository(tdb.DB)
	salesRepo := persistence.NewGormSalesHistoryRepository(tdb.DB)
	returnRepo := persistence.NewGormStagnantReturnRepository(tdb.DB)
	orderRepo := persistence.NewGormOrderRepository(tdb.DB)

	bus := event.NewInMemoryEventBus(log)
	recorder := testutil.NewEventRecorder()
	bus.Subscribe(recorder)

	a := &app{db: tdb, events: recorder, metrics: promMetrics}

	a.warehouses = warehouseapp.NewWarehouseService(warehouseRepo, districtRepo, employeeRepo, log)
	a.warehouses.SetEventPublisher(bus)

	a.products = catalogapp.NewProductService(productRepo, stockRepo, log)
	a.products.SetEventPublisher(bus)

	a.ledger = inventoryapp.NewStockLedgerService(
		stockRepo, reservationRepo, productRepo, warehouseRepo,
		persistence.NewGormTransactionScope(tdb.DB), o.locker, log,
		inventoryapp.WithLockWait(5*time.Second),
		inventoryapp.WithLedgerMetrics(promMetrics),
	)
	a.ledger.SetEventPublisher(bus)

	classifier := inventory.NewStockHealthClassifier(inventory.DefaultHealthThresholds(), time.Now)
	a.health = inventoryapp.NewStockHealthService(stockRepo, salesRepo, warehouseRepo, classifier, log)
	a.health.SetMetrics(promMetrics)

	a.returns = inventoryapp.NewStagnantReturnService(
		returnRepo, stockRepo, salesRepo, employeeRepo, classifier, inventory.DefaultReturnUrgencyThresholds(), log,
	)
	a.returns.SetEventPublisher(bus)

	a.orders = fulfillmentapp.NewOrderService(orderRepo, productRepo, warehouseRepo, employeeRepo, a.ledger, o.locker, log)
	a.orders.SetEventPublisher(bus)
	a.orders.SetMetrics(promMetrics)

	bus.Subscribe(fulfillmentapp.NewStockRestockedHandler(a.orders, 100, log))
	require.NoError(t, bus.Start(context.Background()))
	t.Cleanup(func() { _ = bus.Stop(context.Background()) })

	engine := router.NewEngine(router.EngineOptions{
		ServiceName:    "boxstock-test",
		Logger:         log,
		MetricsPath:    "/metrics",
		MetricsHandler: promMetrics.Handler(),
	})
	r := router.NewRouter(engine)
	r.RegisterRoot(handler.NewHealthHandler("test"))
	r.Register(
		handler.NewOrderHandler(a.orders),
		handler.NewStockHandler(a.ledger, a.health),
		handler.NewReturnHandler(a.returns),
		handler.NewProductHandler(a.products),
		handler.NewAdminHandler(a.warehouses),
	)
	r.Setup()
	a.handler = engine

	return a
}

// do calls the API and fails the test on transport errors only
func (a *app) do(t *testing.T, req testutil.Request) (int, testutil.Envelope) {
	t.Helper()
	w, env := testutil.Do(t, a.handler, req)
	return w.Code, env
}

func assertError(t *testing.T, status int, env testutil.Envelope, wantStatus int, code string) {
	t.Helper()
	require.Equal(t, wantStatus, status)
	require.NotNil(t, env.Error)
	require.Equal(t, code, env.Error.Code)
}
