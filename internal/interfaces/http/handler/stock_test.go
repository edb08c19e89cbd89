package handler

import (
	"context"
	"net/http"
	"testing"

	inventoryapp "github.com/boxstock/backend/internal/application/inventory"
	"github.com/boxstock/backend/internal/domain/inventory"
	"github.com/boxstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLedger struct {
	availabilityProduct   uuid.UUID
	availabilityWarehouse *uuid.UUID
	restocked             *inventoryapp.RestockRequest
	err                   error
}

func (f *fakeLedger) Availability(_ context.Context, productID uuid.UUID, warehouseID *uuid.UUID) (*inventoryapp.AvailabilityResponse, error) {
	f.availabilityProduct, f.availabilityWarehouse = productID, warehouseID
	if f.err != nil {
		return nil, f.err
	}
	return &inventoryapp.AvailabilityResponse{ProductID: productID, WarehouseID: warehouseID, QuantityBoxes: 10, AvailableBoxes: 7, AvailableItems: 84}, nil
}

func (f *fakeLedger) Restock(_ context.Context, req inventoryapp.RestockRequest) (*inventoryapp.StockRecordResponse, error) {
	f.restocked = &req
	if f.err != nil {
		return nil, f.err
	}
	return &inventoryapp.StockRecordResponse{ProductID: req.ProductID, WarehouseID: req.WarehouseID}, nil
}

func (f *fakeLedger) ListByWarehouse(_ context.Context, warehouseID uuid.UUID) ([]inventoryapp.StockRecordResponse, error) {
	return []inventoryapp.StockRecordResponse{{WarehouseID: warehouseID}}, f.err
}

func (f *fakeLedger) ReservationsForOrder(_ context.Context, _ uuid.UUID) ([]inventoryapp.ReservationResponse, error) {
	return []inventoryapp.ReservationResponse{}, f.err
}

type fakeHealth struct {
	query *inventoryapp.HealthQuery
}

func (f *fakeHealth) Health(_ context.Context, q inventoryapp.HealthQuery) ([]inventoryapp.HealthItemResponse, error) {
	f.query = &q
	return []inventoryapp.HealthItemResponse{{WarehouseID: q.WarehouseID, Urgency: inventory.UrgencyCritical}}, nil
}

func TestStockHandler_Availability(t *testing.T) {
	product, wh := uuid.New(), uuid.New()

	t.Run("per warehouse", func(t *testing.T) {
		ledger := &fakeLedger{}
		engine := newTestRouter(NewStockHandler(ledger, &fakeHealth{}))

		w, resp := do(t, engine, call{method: http.MethodGet, path: "/api/v1/stock/availability?product_id=" + product.String() + "&warehouse_id=" + wh.String()})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, product, ledger.availabilityProduct)
		assert.Equal(t, &wh, ledger.availabilityWarehouse)

		got := decodeData[inventoryapp.AvailabilityResponse](t, resp)
		assert.Equal(t, 7, got.AvailableBoxes)
		assert.Equal(t, 84, got.AvailableItems)
	})

	t.Run("across warehouses", func(t *testing.T) {
		ledger := &fakeLedger{}
		engine := newTestRouter(NewStockHandler(ledger, &fakeHealth{}))

		w, _ := do(t, engine, call{method: http.MethodGet, path: "/api/v1/stock/availability?product_id=" + product.String()})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Nil(t, ledger.availabilityWarehouse)
	})

	t.Run("product required", func(t *testing.T) {
		engine := newTestRouter(NewStockHandler(&fakeLedger{}, &fakeHealth{}))
		w, resp := do(t, engine, call{method: http.MethodGet, path: "/api/v1/stock/availability"})
		assertError(t, w, resp, http.StatusBadRequest, "INVALID_INPUT")
	})

	t.Run("malformed warehouse", func(t *testing.T) {
		engine := newTestRouter(NewStockHandler(&fakeLedger{}, &fakeHealth{}))
		w, resp := do(t, engine, call{method: http.MethodGet, path: "/api/v1/stock/availability?product_id=" + product.String() + "&warehouse_id=main"})
		assertError(t, w, resp, http.StatusBadRequest, "INVALID_INPUT")
	})
}

func TestStockHandler_Restock(t *testing.T) {
	product, wh := uuid.New(), uuid.New()

	t.Run("adds boxes", func(t *testing.T) {
		ledger := &fakeLedger{}
		engine := newTestRouter(NewStockHandler(ledger, &fakeHealth{}))

		w, _ := do(t, engine, call{method: http.MethodPost, path: "/api/v1/stock/restock", body: map[string]any{
			"product_id": product, "warehouse_id": wh, "boxes": 12,
		}})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		require.NotNil(t, ledger.restocked)
		assert.Equal(t, 12, ledger.restocked.Boxes)
	})

	for name, boxes := range map[string]any{"zero": 0, "negative": -3} {
		t.Run(name+" boxes", func(t *testing.T) {
			ledger := &fakeLedger{}
			engine := newTestRouter(NewStockHandler(ledger, &fakeHealth{}))

			w, resp := do(t, engine, call{method: http.MethodPost, path: "/api/v1/stock/restock", body: map[string]any{
				"product_id": product, "warehouse_id": wh, "boxes": boxes,
			}})
			assertError(t, w, resp, http.StatusBadRequest, "VALIDATION_ERROR")
			require.NotEmpty(t, resp.Error.Details)
			assert.Equal(t, "boxes", resp.Error.Details[0].Field)
			assert.Nil(t, ledger.restocked)
		})
	}

	t.Run("unknown product", func(t *testing.T) {
		engine := newTestRouter(NewStockHandler(&fakeLedger{err: shared.NewDomainError(shared.CodeNotFound, "Product not found")}, &fakeHealth{}))
		w, resp := do(t, engine, call{method: http.MethodPost, path: "/api/v1/stock/restock", body: map[string]any{
			"product_id": product, "warehouse_id": wh, "boxes": 1,
		}})
		assertError(t, w, resp, http.StatusNotFound, "NOT_FOUND")
	})
}

func TestStockHandler_Listings(t *testing.T) {
	engine := newTestRouter(NewStockHandler(&fakeLedger{}, &fakeHealth{}))

	w, resp := do(t, engine, call{method: http.MethodGet, path: "/api/v1/stock/records"})
	assertError(t, w, resp, http.StatusBadRequest, "INVALID_INPUT")

	wh := uuid.New()
	w, resp = do(t, engine, call{method: http.MethodGet, path: "/api/v1/stock/records?warehouse_id=" + wh.String()})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeData[[]inventoryapp.StockRecordResponse](t, resp), 1)

	w, resp = do(t, engine, call{method: http.MethodGet, path: "/api/v1/stock/reservations"})
	assertError(t, w, resp, http.StatusBadRequest, "INVALID_INPUT")

	w, _ = do(t, engine, call{method: http.MethodGet, path: "/api/v1/stock/reservations?order_id=" + uuid.NewString()})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStockHandler_Health(t *testing.T) {
	wh := uuid.New()

	t.Run("filters pass through", func(t *testing.T) {
		health := &fakeHealth{}
		engine := newTestRouter(NewStockHandler(&fakeLedger{}, health))

		w, resp := do(t, engine, call{method: http.MethodGet, path: "/api/v1/stock/health?warehouse_id=" + wh.String() + "&urgency=critical&window=week"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		require.NotNil(t, health.query)
		assert.Equal(t, wh, health.query.WarehouseID)
		require.NotNil(t, health.query.Urgency)
		assert.Equal(t, inventory.UrgencyCritical, *health.query.Urgency)
		assert.Equal(t, inventory.WindowWeek, health.query.Window)

		items := decodeData[[]inventoryapp.HealthItemResponse](t, resp)
		assert.Equal(t, inventory.UrgencyCritical, items[0].Urgency)
	})

	t.Run("window left to the service", func(t *testing.T) {
		health := &fakeHealth{}
		engine := newTestRouter(NewStockHandler(&fakeLedger{}, health))

		w, _ := do(t, engine, call{method: http.MethodGet, path: "/api/v1/stock/health?warehouse_id=" + wh.String()})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Nil(t, health.query.Urgency)
		assert.Empty(t, health.query.Window)
	})

	t.Run("bad urgency", func(t *testing.T) {
		health := &fakeHealth{}
		engine := newTestRouter(NewStockHandler(&fakeLedger{}, health))

		w, resp := do(t, engine, call{method: http.MethodGet, path: "/api/v1/stock/health?warehouse_id=" + wh.String() + "&urgency=panic"})
		assertError(t, w, resp, http.StatusBadRequest, "INVALID_INPUT")
		assert.Nil(t, health.query)
	})

	t.Run("bad window", func(t *testing.T) {
		engine := newTestRouter(NewStockHandler(&fakeLedger{}, &fakeHealth{}))
		w, resp := do(t, engine, call{method: http.MethodGet, path: "/api/v1/stock/health?warehouse_id=" + wh.String() + "&window=decade"})
		assertError(t, w, resp, http.StatusBadRequest, "INVALID_INPUT")
	})

	t.Run("warehouse required", func(t *testing.T) {
		engine := newTestRouter(NewStockHandler(&fakeLedger{}, &fakeHealth{}))
		w, resp := do(t, engine, call{method: http.MethodGet, path: "/api/v1/stock/health"})
		assertError(t, w, resp, http.StatusBadRequest, "INVALID_INPUT")
	})
}
