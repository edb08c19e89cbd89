package handler

import (
	"context"

	inventoryapp "github.com/boxstock/backend/internal/application/inventory"
	"github.com/boxstock/backend/internal/domain/inventory"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// StockLedger is the ledger surface used by StockHandler
type StockLedger interface {
	Availability(ctx context.Context, productID uuid.UUID, warehouseID *uuid.UUID) (*inventoryapp.AvailabilityResponse, error)
	Restock(ctx context.Context, req inventoryapp.RestockRequest) (*inventoryapp.StockRecordResponse, error)
	ListByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]inventoryapp.StockRecordResponse, error)
	ReservationsForOrder(ctx context.Context, orderID uuid.UUID) ([]inventoryapp.ReservationResponse, error)
}

// StockHealthReporter produces stock health reports
type StockHealthReporter interface {
	Health(ctx context.Context, q inventoryapp.HealthQuery) ([]inventoryapp.HealthItemResponse, error)
}

// StockHandler handles the stock ledger and health endpoints
type StockHandler struct {
	BaseHandler
	ledger StockLedger
	health StockHealthReporter
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(ledger StockLedger, health StockHealthReporter) *StockHandler {
	return &StockHandler{ledger: ledger, health: health}
}

// Availability handles GET /stock/availability?product_id=&warehouse_id=.
// Without a warehouse the totals span every warehouse.
// @Summary      Get stock availability
// @Tags         stock
// @Produce      json
// @Param        product_id query string true "Product ID" format(uuid)
// @Param        warehouse_id query string false "Warehouse ID" format(uuid)
// @Success      200 {object} dto.Response{data=inventoryapp.AvailabilityResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /stock/availability [get]
func (h *StockHandler) Availability(c *gin.Context) {
	productID, ok := h.queryID(c, "product_id")
	if !ok {
		return
	}
	if productID == nil {
		h.BadRequest(c, "product_id is required")
		return
	}
	warehouseID, ok := h.queryID(c, "warehouse_id")
	if !ok {
		return
	}

	resp, err := h.ledger.Availability(c.Request.Context(), *productID, warehouseID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Restock handles POST /stock/restock
// @Summary      Restock a product
// @Description  Adds boxes to a stock record and resumes orders waiting for them.
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        request body inventoryapp.RestockRequest true "Restock request"
// @Success      200 {object} dto.Response{data=inventoryapp.StockRecordResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /stock/restock [post]
func (h *StockHandler) Restock(c *gin.Context) {
	var req inventoryapp.RestockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	record, err := h.ledger.Restock(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, record)
}

// Records handles GET /stock/records?warehouse_id=
// @Summary      List stock records of a warehouse
// @Tags         stock
// @Produce      json
// @Param        warehouse_id query string true "Warehouse ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]inventoryapp.StockRecordResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /stock/records [get]
func (h *StockHandler) Records(c *gin.Context) {
	warehouseID, ok := h.queryID(c, "warehouse_id")
	if !ok {
		return
	}
	if warehouseID == nil {
		h.BadRequest(c, "warehouse_id is required")
		return
	}
	records, err := h.ledger.ListByWarehouse(c.Request.Context(), *warehouseID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, records)
}

// Reservations handles GET /stock/reservations?order_id=
// @Summary      List the reservations of an order
// @Tags         stock
// @Produce      json
// @Param        order_id query string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]inventoryapp.ReservationResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /stock/reservations [get]
func (h *StockHandler) Reservations(c *gin.Context) {
	orderID, ok := h.queryID(c, "order_id")
	if !ok {
		return
	}
	if orderID == nil {
		h.BadRequest(c, "order_id is required")
		return
	}
	reservations, err := h.ledger.ReservationsForOrder(c.Request.Context(), *orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, reservations)
}

// Health handles GET /stock/health?warehouse_id=&urgency=&window=
// @Summary      Get the stock health report
// @Tags         stock
// @Produce      json
// @Param        warehouse_id query string true "Warehouse ID" format(uuid)
// @Param        urgency query string false "Lowest urgency to report" Enums(CRITICAL, HIGH, MEDIUM, LOW)
// @Param        window query string false "Sales window, e.g. 720h"
// @Success      200 {object} dto.Response{data=[]inventoryapp.HealthItemResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /stock/health [get]
func (h *StockHandler) Health(c *gin.Context) {
	warehouseID, ok := h.queryID(c, "warehouse_id")
	if !ok {
		return
	}
	if warehouseID == nil {
		h.BadRequest(c, "warehouse_id is required")
		return
	}

	q := inventoryapp.HealthQuery{WarehouseID: *warehouseID}
	if raw := c.Query("urgency"); raw != "" {
		urgency, err := inventory.ParseUrgency(raw)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		q.Urgency = &urgency
	}
	if raw := c.Query("window"); raw != "" {
		window, err := inventory.ParseLookbackWindow(raw)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		q.Window = window
	}

	items, err := h.health.Health(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// RegisterRoutes registers the stock routes
func (h *StockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	stock := rg.Group("/stock")
	stock.GET("/availability", h.Availability)
	stock.POST("/restock", h.Restock)
	stock.GET("/records", h.Records)
	stock.GET("/reservations", h.Reservations)
	stock.GET("/health", h.Health)
}
