//go:build integration

package integration

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	catalogapp "github.com/boxstock/backend/internal/application/catalog"
	inventoryapp "github.com/boxstock/backend/internal/application/inventory"
	warehouseapp "github.com/boxstock/backend/internal/application/warehouse"
	"github.com/boxstock/backend/internal/domain/shared"
	"github.com/boxstock/backend/internal/infrastructure/cache"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

// newRedisClient starts a throwaway Redis container
func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start Redis container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

// seedPair creates one product and one warehouse holding boxes
func seedPair(t *testing.T, a *app, boxes int) (productID, warehouseID uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	district, err := a.warehouses.CreateDistrict(ctx, warehouseapp.CreateDistrictRequest{Name: "Harbour"})
	require.NoError(t, err)
	wh, err := a.warehouses.CreateWarehouse(ctx, warehouseapp.CreateWarehouseRequest{
		Code: "WH-HB", Name: "Harbour", DistrictID: district.ID,
	})
	require.NoError(t, err)

	perBox := 6
	price := decimal.RequireFromString("1.20")
	product, err := a.products.Create(ctx, catalogapp.CreateProductRequest{
		Code: "OAT-1KG", Name: "Oats", ItemsPerBox: &perBox, PricePerItem: &price,
	})
	require.NoError(t, err)

	_, err = a.ledger.Restock(ctx, inventoryapp.RestockRequest{ProductID: product.ID, WarehouseID: wh.ID, Boxes: boxes})
	require.NoError(t, err)
	return product.ID, wh.ID
}

func TestStockLedger_ConcurrentReservationsNeverOversell(t *testing.T) {
	lockers := map[string]func(t *testing.T) inventoryapp.RowLocker{
		"local": func(*testing.T) inventoryapp.RowLocker { return cache.NewLocalRowLocker() },
		"redis": func(t *testing.T) inventoryapp.RowLocker {
			return cache.NewRedisRowLocker(newRedisClient(t), zap.NewNop())
		},
	}

	for name, newLocker := range lockers {
		t.Run(name, func(t *testing.T) {
			locker := newLocker(t)
			a := newApp(t, func(o *appOptions) { o.locker = locker })
			productID, warehouseID := seedPair(t, a, 10)

			const callers = 25
			var (
				wg        sync.WaitGroup
				succeeded atomic.Int32
				short     atomic.Int32
				other     = make(chan error, callers)
			)
			for i := 0; i < callers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := a.ledger.Reserve(context.Background(), inventoryapp.ReserveRequest{
						ProductID: productID, WarehouseID: warehouseID, OrderID: uuid.New(), LineNo: 1, Boxes: 1,
					})
					switch {
					case err == nil:
						succeeded.Add(1)
					case errors.Is(err, shared.ErrInsufficientStock):
						short.Add(1)
					default:
						other <- err
					}
				}()
			}
			wg.Wait()
			close(other)

			for err := range other {
				t.Errorf("unexpected reserve error: %v", err)
			}
			assert.Equal(t, int32(10), succeeded.Load())
			assert.Equal(t, int32(callers-10), short.Load())

			record, err := a.ledger.Get(context.Background(), productID, warehouseID)
			require.NoError(t, err)
			assert.Equal(t, 10, record.QuantityBoxes)
			assert.Equal(t, 10, record.ReservedBoxes)
			assert.Equal(t, 0, record.AvailableBoxes)
		})
	}
}

func TestStockLedger_ReleaseAndCommit(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()
	productID, warehouseID := seedPair(t, a, 5)
	orderID := uuid.New()

	first, err := a.ledger.Reserve(ctx, inventoryapp.ReserveRequest{
		ProductID: productID, WarehouseID: warehouseID, OrderID: orderID, LineNo: 1, Boxes: 2,
	})
	require.NoError(t, err)
	second, err := a.ledger.Reserve(ctx, inventoryapp.ReserveRequest{
		ProductID: productID, WarehouseID: warehouseID, OrderID: orderID, LineNo: 2, Boxes: 3,
	})
	require.NoError(t, err)

	released, err := a.ledger.Release(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, released)
	released, err = a.ledger.Release(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, released, "second release is a no-op")

	require.NoError(t, a.ledger.Commit(ctx, second.ID))
	require.NoError(t, a.ledger.Commit(ctx, second.ID), "double commit is a no-op")

	_, err = a.ledger.Release(ctx, second.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidTransition)

	record, err := a.ledger.Get(ctx, productID, warehouseID)
	require.NoError(t, err)
	assert.Equal(t, 2, record.QuantityBoxes)
	assert.Equal(t, 0, record.ReservedBoxes)
}
