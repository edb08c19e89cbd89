package handler

import (
	"context"
	"strconv"

	fulfillmentapp "github.com/boxstock/backend/internal/application/fulfillment"
	"github.com/boxstock/backend/internal/domain/warehouse"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OrderService is the order workflow used by OrderHandler
type OrderService interface {
	PlaceOrder(ctx context.Context, req fulfillmentapp.PlaceOrderRequest) (*fulfillmentapp.OrderResponse, error)
	Get(ctx context.Context, orderID uuid.UUID) (*fulfillmentapp.OrderResponse, error)
	ListQueue(ctx context.Context, req fulfillmentapp.QueueRequest) ([]fulfillmentapp.OrderResponse, int64, error)
	Accept(ctx context.Context, orderID, employeeID uuid.UUID) (*fulfillmentapp.OrderResponse, error)
	Advance(ctx context.Context, orderID, employeeID uuid.UUID) (*fulfillmentapp.OrderResponse, error)
	Complete(ctx context.Context, orderID, employeeID uuid.UUID) (*fulfillmentapp.OrderResponse, error)
	Claim(ctx context.Context, orderID, employeeID uuid.UUID) (*fulfillmentapp.OrderResponse, error)
	ReportShortage(ctx context.Context, orderID, employeeID uuid.UUID, blockingProductID *uuid.UUID) (*fulfillmentapp.OrderResponse, error)
	Cancel(ctx context.Context, orderID uuid.UUID, employeeID *uuid.UUID, reason string) (*fulfillmentapp.OrderResponse, error)
	RetryFromWaitingStock(ctx context.Context, orderID uuid.UUID) (*fulfillmentapp.OrderResponse, error)
	AssignWarehouse(ctx context.Context, orderID, warehouseID uuid.UUID) (*fulfillmentapp.OrderResponse, error)
}

// OrderHandler handles the order workflow endpoints
type OrderHandler struct {
	BaseHandler
	orders OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orders OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// PlaceOrderRequest is the checkout body
type PlaceOrderRequest struct {
	ClientID           uuid.UUID          `json:"client_id" binding:"required"`
	DeliveryDistrictID *uuid.UUID         `json:"delivery_district_id"`
	WarehouseID        *uuid.UUID         `json:"warehouse_id"`
	Lines              []OrderLineRequest `json:"lines" binding:"required,min=1,dive"`
	Comment            string             `json:"comment" binding:"max=500"`
}

// OrderLineRequest is one checkout line
type OrderLineRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Boxes     int       `json:"boxes" binding:"required,positive_boxes"`
}

// CancelOrderRequest carries the cancel reason
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// ShortageRequest names the product that ran out; empty means the first line
type ShortageRequest struct {
	BlockingProductID *uuid.UUID `json:"blocking_product_id"`
}

// AssignWarehouseRequest pins an order to a warehouse
type AssignWarehouseRequest struct {
	WarehouseID uuid.UUID `json:"warehouse_id" binding:"required"`
}

// Place handles POST /orders
// @Summary      Place an order
// @Description  Check out a cart. The order is bound to the warehouse serving the delivery district when one exists.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        request body PlaceOrderRequest true "Checkout request"
// @Success      201 {object} dto.Response{data=fulfillmentapp.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders [post]
func (h *OrderHandler) Place(c *gin.Context) {
	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	appReq := fulfillmentapp.PlaceOrderRequest{
		ClientID:           req.ClientID,
		DeliveryDistrictID: req.DeliveryDistrictID,
		WarehouseID:        req.WarehouseID,
		Comment:            req.Comment,
		Lines:              make([]fulfillmentapp.PlaceOrderLine, len(req.Lines)),
	}
	for i, l := range req.Lines {
		appReq.Lines[i] = fulfillmentapp.PlaceOrderLine{ProductID: l.ProductID, Boxes: l.Boxes}
	}

	order, err := h.orders.PlaceOrder(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// Get handles GET /orders/:id
// @Summary      Get order by ID
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=fulfillmentapp.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	order, err := h.orders.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Queue handles GET /orders/queue?role=&warehouse_id=&unassigned=
// @Summary      List an employee queue
// @Tags         orders
// @Produce      json
// @Param        role query string true "Employee role" Enums(PICKER, PACKER, COURIER, ADMIN)
// @Param        warehouse_id query string false "Warehouse ID" format(uuid)
// @Param        unassigned query bool false "Only orders with no warehouse"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]fulfillmentapp.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/queue [get]
func (h *OrderHandler) Queue(c *gin.Context) {
	role := warehouse.EmployeeRole(c.Query("role"))
	if !role.IsValid() {
		h.BadRequest(c, "role must be one of PICKER PACKER COURIER ADMIN")
		return
	}
	warehouseID, ok := h.queryID(c, "warehouse_id")
	if !ok {
		return
	}
	unassigned, _ := strconv.ParseBool(c.Query("unassigned"))
	page, pageSize := pagination(c)

	orders, total, err := h.orders.ListQueue(c.Request.Context(), fulfillmentapp.QueueRequest{
		Role:        role,
		WarehouseID: warehouseID,
		Unassigned:  unassigned,
		Page:        page,
		PageSize:    pageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, orders, total, page, pageSize)
}

// employeeAction runs one of the transitions that need an acting employee
func (h *OrderHandler) employeeAction(c *gin.Context, fn func(ctx context.Context, orderID, employeeID uuid.UUID) (*fulfillmentapp.OrderResponse, error)) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	employeeID, ok := h.requireEmployee(c)
	if !ok {
		return
	}
	order, err := fn(c.Request.Context(), id, employeeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Accept handles POST /orders/:id/accept
// @Summary      Accept an order for picking
// @Description  Reserves every line and moves the order to PICKING, or to WAITING_STOCK when stock is short.
// @Tags         orders
// @Produce      json
// @Param        X-Employee-ID header string true "Acting employee ID" format(uuid)
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=fulfillmentapp.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/accept [post]
func (h *OrderHandler) Accept(c *gin.Context) {
	h.employeeAction(c, h.orders.Accept)
}

// Advance handles POST /orders/:id/advance
// @Summary      Advance an order to the next stage
// @Tags         orders
// @Produce      json
// @Param        X-Employee-ID header string true "Acting employee ID" format(uuid)
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=fulfillmentapp.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/advance [post]
func (h *OrderHandler) Advance(c *gin.Context) {
	h.employeeAction(c, h.orders.Advance)
}

// Complete handles POST /orders/:id/complete
// @Summary      Complete a delivery
// @Tags         orders
// @Produce      json
// @Param        X-Employee-ID header string true "Acting employee ID" format(uuid)
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=fulfillmentapp.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/complete [post]
func (h *OrderHandler) Complete(c *gin.Context) {
	h.employeeAction(c, h.orders.Complete)
}

// Claim handles POST /orders/:id/claim
// @Summary      Claim the next stage of an order
// @Tags         orders
// @Produce      json
// @Param        X-Employee-ID header string true "Acting employee ID" format(uuid)
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=fulfillmentapp.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/claim [post]
func (h *OrderHandler) Claim(c *gin.Context) {
	h.employeeAction(c, h.orders.Claim)
}

// Shortage handles POST /orders/:id/shortage
// @Summary      Report a stock shortage
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        X-Employee-ID header string true "Acting employee ID" format(uuid)
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body ShortageRequest false "Blocking product"
// @Success      200 {object} dto.Response{data=fulfillmentapp.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/shortage [post]
func (h *OrderHandler) Shortage(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	employeeID, ok := h.requireEmployee(c)
	if !ok {
		return
	}
	var req ShortageRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.ValidationError(c, err)
			return
		}
	}

	order, err := h.orders.ReportShortage(c.Request.Context(), id, employeeID, req.BlockingProductID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Cancel handles POST /orders/:id/cancel. The caller is optional: clients
// cancel their own orders without an employee header.
// @Summary      Cancel an order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        X-Employee-ID header string false "Acting employee ID" format(uuid)
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body CancelOrderRequest false "Cancel reason"
// @Success      200 {object} dto.Response{data=fulfillmentapp.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req CancelOrderRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.ValidationError(c, err)
			return
		}
	}

	order, err := h.orders.Cancel(c.Request.Context(), id, optionalEmployee(c), req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Retry handles POST /orders/:id/retry
// @Summary      Retry an order waiting for stock
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=fulfillmentapp.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/retry [post]
func (h *OrderHandler) Retry(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	order, err := h.orders.RetryFromWaitingStock(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// AssignWarehouse handles PUT /orders/:id/warehouse
// @Summary      Assign a warehouse to an order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body AssignWarehouseRequest true "Warehouse"
// @Success      200 {object} dto.Response{data=fulfillmentapp.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/warehouse [put]
func (h *OrderHandler) AssignWarehouse(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req AssignWarehouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	order, err := h.orders.AssignWarehouse(c.Request.Context(), id, req.WarehouseID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// RegisterRoutes registers the order routes
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/orders")
	orders.POST("", h.Place)
	orders.GET("/queue", h.Queue)
	orders.GET("/:id", h.Get)
	orders.POST("/:id/accept", h.Accept)
	orders.POST("/:id/advance", h.Advance)
	orders.POST("/:id/complete", h.Complete)
	orders.POST("/:id/claim", h.Claim)
	orders.POST("/:id/shortage", h.Shortage)
	orders.POST("/:id/cancel", h.Cancel)
	orders.POST("/:id/retry", h.Retry)
	orders.PUT("/:id/warehouse", h.AssignWarehouse)
}
