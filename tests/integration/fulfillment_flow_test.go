//go:build integration

package integration

import (
	"net/http"
	"testing"

	fulfillmentapp "github.com/boxstock/backend/internal/application/fulfillment"
	inventoryapp "github.com/boxstock/backend/internal/application/inventory"
	warehouseapp "github.com/boxstock/backend/internal/application/warehouse"
	"github.com/boxstock/backend/internal/domain/fulfillment"
	"github.com/boxstock/backend/internal/domain/inventory"
	"github.com/boxstock/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// site is one district served by one warehouse with a full crew
type site struct {
	districtID  uuid.UUID
	warehouseID uuid.UUID
	picker      uuid.UUID
	packer      uuid.UUID
	courier     uuid.UUID
	productID   uuid.UUID
}

func seedSite(t *testing.T, a *app, boxes int) site {
	t.Helper()
	var s site

	status, env := a.do(t, testutil.Request{Method: http.MethodPost, Path: "/api/v1/districts",
		Body: map[string]any{"name": "Riverside"}})
	require.Equal(t, http.StatusCreated, status)
	s.districtID = testutil.DecodeData[warehouseapp.DistrictResponse](t, env).ID

	status, env = a.do(t, testutil.Request{Method: http.MethodPost, Path: "/api/v1/warehouses",
		Body: map[string]any{"code": "WH-RIV", "name": "Riverside hub", "district_id": s.districtID}})
	require.Equal(t, http.StatusCreated, status)
	s.warehouseID = testutil.DecodeData[warehouseapp.WarehouseResponse](t, env).ID

	hire := func(role string) uuid.UUID {
		status, env := a.do(t, testutil.Request{Method: http.MethodPost, Path: "/api/v1/employees",
			Body: map[string]any{"name": role + " one", "role": role, "district_ids": []uuid.UUID{s.districtID}}})
		require.Equal(t, http.StatusCreated, status)
		emp := testutil.DecodeData[warehouseapp.EmployeeResponse](t, env)
		require.NotNil(t, emp.WarehouseID)
		assert.Equal(t, s.warehouseID, *emp.WarehouseID)
		return emp.ID
	}
	s.picker = hire("PICKER")
	s.packer = hire("PACKER")
	s.courier = hire("COURIER")

	status, env = a.do(t, testutil.Request{Method: http.MethodPost, Path: "/api/v1/products",
		Body: map[string]any{"code": "TEA-GRN", "name": "Green tea", "items_per_box": 12, "price_per_item": "2.50"}})
	require.Equal(t, http.StatusCreated, status)
	s.productID = testutil.DecodeData[struct {
		ID uuid.UUID `json:"id"`
	}](t, env).ID

	if boxes > 0 {
		status, _ = a.do(t, testutil.Request{Method: http.MethodPost, Path: "/api/v1/stock/restock",
			Body: map[string]any{"product_id": s.productID, "warehouse_id": s.warehouseID, "boxes": boxes}})
		require.Equal(t, http.StatusOK, status)
	}
	return s
}

func placeOrder(t *testing.T, a *app, s site, boxes int) fulfillmentapp.OrderResponse {
	t.Helper()
	status, env := a.do(t, testutil.Request{Method: http.MethodPost, Path: "/api/v1/orders",
		Body: map[string]any{
			"client_id":            testutil.TestClientID(),
			"delivery_district_id": s.districtID,
			"lines":                []map[string]any{{"product_id": s.productID, "boxes": boxes}},
		}})
	require.Equal(t, http.StatusCreated, status, "%+v", env.Error)
	return testutil.DecodeData[fulfillmentapp.OrderResponse](t, env)
}

func orderAction(t *testing.T, a *app, orderID uuid.UUID, action string, employee uuid.UUID) fulfillmentapp.OrderResponse {
	t.Helper()
	status, env := a.do(t, testutil.Request{Method: http.MethodPost,
		Path: "/api/v1/orders/" + orderID.String() + "/" + action, Employee: &employee})
	require.Equal(t, http.StatusOK, status, "%s: %+v", action, env.Error)
	return testutil.DecodeData[fulfillmentapp.OrderResponse](t, env)
}

func availability(t *testing.T, a *app, s site) inventoryapp.AvailabilityResponse {
	t.Helper()
	status, env := a.do(t, testutil.Request{
		Path: "/api/v1/stock/availability?product_id=" + s.productID.String() + "&warehouse_id=" + s.warehouseID.String()})
	require.Equal(t, http.StatusOK, status)
	return testutil.DecodeData[inventoryapp.AvailabilityResponse](t, env)
}

func TestFulfillment_HappyPath(t *testing.T) {
	a := newApp(t)
	s := seedSite(t, a, 5)

	order := placeOrder(t, a, s, 3)
	assert.Equal(t, fulfillment.StatusCreated, order.Status)
	require.NotNil(t, order.WarehouseID)
	assert.Equal(t, s.warehouseID, *order.WarehouseID)
	assert.Equal(t, "90", order.TotalAmount.String())
	assert.Equal(t, 5, availability(t, a, s).AvailableBoxes, "checkout does not reserve")

	order = orderAction(t, a, order.ID, "accept", s.picker)
	assert.Equal(t, fulfillment.StatusPicking, order.Status)
	stock := availability(t, a, s)
	assert.Equal(t, 5, stock.QuantityBoxes)
	assert.Equal(t, 2, stock.AvailableBoxes)

	status, env := a.do(t, testutil.Request{Method: http.MethodPost,
		Path: "/api/v1/orders/" + order.ID.String() + "/advance", Employee: &s.packer})
	assertError(t, status, env, http.StatusForbidden, "FORBIDDEN")

	order = orderAction(t, a, order.ID, "advance", s.picker)
	assert.Equal(t, fulfillment.StatusPacking, order.Status)
	order = orderAction(t, a, order.ID, "advance", s.packer)
	assert.Equal(t, fulfillment.StatusReadyForCourier, order.Status)
	order = orderAction(t, a, order.ID, "advance", s.courier)
	assert.Equal(t, fulfillment.StatusDelivering, order.Status)
	order = orderAction(t, a, order.ID, "complete", s.courier)
	assert.Equal(t, fulfillment.StatusCompleted, order.Status)

	stock = availability(t, a, s)
	assert.Equal(t, 2, stock.QuantityBoxes)
	assert.Equal(t, 2, stock.AvailableBoxes)

	status, env = a.do(t, testutil.Request{Path: "/api/v1/stock/reservations?order_id=" + order.ID.String()})
	require.Equal(t, http.StatusOK, status)
	reservations := testutil.DecodeData[[]inventoryapp.ReservationResponse](t, env)
	require.Len(t, reservations, 1)
	assert.Equal(t, inventory.ReservationCommitted, reservations[0].Status)

	assert.Contains(t, a.events.Types(), fulfillment.EventTypeOrderPlaced)
	assert.Contains(t, a.events.Types(), inventory.EventTypeStockCommitted)
}

func TestFulfillment_WaitingStockResumesOnRestock(t *testing.T) {
	a := newApp(t)
	s := seedSite(t, a, 3)

	first := placeOrder(t, a, s, 2)
	second := placeOrder(t, a, s, 2)

	assert.Equal(t, fulfillment.StatusPicking, orderAction(t, a, first.ID, "accept", s.picker).Status)

	parked := orderAction(t, a, second.ID, "accept", s.picker)
	assert.Equal(t, fulfillment.StatusWaitingStock, parked.Status)
	require.NotNil(t, parked.BlockingProductID)
	assert.Equal(t, s.productID, *parked.BlockingProductID)
	assert.Equal(t, 1, availability(t, a, s).AvailableBoxes, "a parked order holds no reservation")

	status, env := a.do(t, testutil.Request{Method: http.MethodPost, Path: "/api/v1/orders/" + second.ID.String() + "/retry"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, fulfillment.StatusWaitingStock, testutil.DecodeData[fulfillmentapp.OrderResponse](t, env).Status)

	status, _ = a.do(t, testutil.Request{Method: http.MethodPost, Path: "/api/v1/stock/restock",
		Body: map[string]any{"product_id": s.productID, "warehouse_id": s.warehouseID, "boxes": 4}})
	require.Equal(t, http.StatusOK, status)

	status, env = a.do(t, testutil.Request{Path: "/api/v1/orders/" + second.ID.String()})
	require.Equal(t, http.StatusOK, status)
	resumed := testutil.DecodeData[fulfillmentapp.OrderResponse](t, env)
	assert.Equal(t, fulfillment.StatusPicking, resumed.Status)
	require.NotNil(t, resumed.AssignedEmployeeID)
	assert.Equal(t, s.picker, *resumed.AssignedEmployeeID)
	assert.Nil(t, resumed.BlockingProductID)
	assert.Equal(t, 3, availability(t, a, s).AvailableBoxes)
}

func TestFulfillment_CancelReleasesStock(t *testing.T) {
	a := newApp(t)
	s := seedSite(t, a, 4)

	order := placeOrder(t, a, s, 4)
	orderAction(t, a, order.ID, "accept", s.picker)
	assert.Equal(t, 0, availability(t, a, s).AvailableBoxes)

	status, env := a.do(t, testutil.Request{Method: http.MethodPost,
		Path: "/api/v1/orders/" + order.ID.String() + "/cancel", Body: map[string]any{"reason": "client changed mind"}})
	require.Equal(t, http.StatusOK, status)
	cancelled := testutil.DecodeData[fulfillmentapp.OrderResponse](t, env)
	assert.Equal(t, fulfillment.StatusCancelled, cancelled.Status)
	assert.Equal(t, "client changed mind", cancelled.CancelReason)
	assert.Equal(t, 4, availability(t, a, s).AvailableBoxes)

	status, env = a.do(t, testutil.Request{Method: http.MethodPost,
		Path: "/api/v1/orders/" + order.ID.String() + "/cancel"})
	assertError(t, status, env, http.StatusUnprocessableEntity, "INVALID_TRANSITION")
}

func TestFulfillment_CheckoutRejectsShortage(t *testing.T) {
	a := newApp(t)
	s := seedSite(t, a, 1)

	status, env := a.do(t, testutil.Request{Method: http.MethodPost, Path: "/api/v1/orders",
		Body: map[string]any{
			"client_id":            testutil.TestClientID(),
			"delivery_district_id": s.districtID,
			"lines":                []map[string]any{{"product_id": s.productID, "boxes": 2}},
		}})
	assertError(t, status, env, http.StatusUnprocessableEntity, "INSUFFICIENT_STOCK")
}

func TestRootRoutes(t *testing.T) {
	a := newApp(t)

	status, _ := a.do(t, testutil.Request{Path: "/health"})
	assert.Equal(t, http.StatusOK, status)

	w, _ := testutil.Do(t, a.handler, testutil.Request{Path: "/metrics"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")

	status, env := a.do(t, testutil.Request{Path: "/api/v1/nowhere"})
	assertError(t, status, env, http.StatusNotFound, "NOT_FOUND")
}
