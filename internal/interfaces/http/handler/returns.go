package handler

import (
	"context"

	inventoryapp "github.com/boxstock/backend/internal/application/inventory"
	"github.com/boxstock/backend/internal/domain/inventory"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ReturnService is the stagnant-return workflow used by ReturnHandler
type ReturnService interface {
	Flag(ctx context.Context, req inventoryapp.FlagReturnRequest) (*inventoryapp.ReturnResponse, bool, error)
	Approve(ctx context.Context, returnID, approverID uuid.UUID) (*inventoryapp.ReturnResponse, error)
	Advance(ctx context.Context, returnID uuid.UUID) (*inventoryapp.ReturnResponse, error)
	Cancel(ctx context.Context, returnID uuid.UUID, reason string) (*inventoryapp.ReturnResponse, error)
	Get(ctx context.Context, returnID uuid.UUID) (*inventoryapp.ReturnResponse, error)
	List(ctx context.Context, filter inventoryapp.ReturnListFilter) ([]inventoryapp.ReturnResponse, int64, error)
}

// ReturnHandler handles the stagnant-return endpoints
type ReturnHandler struct {
	BaseHandler
	returns ReturnService
}

// NewReturnHandler creates a new ReturnHandler
func NewReturnHandler(returns ReturnService) *ReturnHandler {
	return &ReturnHandler{returns: returns}
}

// FlagReturnRequest asks for a stagnant return
type FlagReturnRequest struct {
	ProductID   uuid.UUID `json:"product_id" binding:"required"`
	WarehouseID uuid.UUID `json:"warehouse_id" binding:"required"`
	Urgency     string    `json:"urgency" binding:"omitempty,oneof=CRITICAL HIGH MEDIUM LOW"`
}

// CancelReturnRequest carries the cancel reason
type CancelReturnRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// Flag handles POST /returns. A new return answers 201; an already open
// return for the pair is returned as is with 200.
// @Summary      Flag a stagnant return
// @Tags         returns
// @Accept       json
// @Produce      json
// @Param        request body FlagReturnRequest true "Return request"
// @Success      201 {object} dto.Response{data=inventoryapp.ReturnResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /returns [post]
func (h *ReturnHandler) Flag(c *gin.Context) {
	var req FlagReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	appReq := inventoryapp.FlagReturnRequest{
		ProductID:   req.ProductID,
		WarehouseID: req.WarehouseID,
		RequestedBy: optionalEmployee(c),
	}
	if req.Urgency != "" {
		urgency := inventory.ReturnUrgency(req.Urgency)
		appReq.Urgency = &urgency
	}

	ret, created, err := h.returns.Flag(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if created {
		h.Created(c, ret)
		return
	}
	h.Success(c, ret)
}

// Approve handles POST /returns/:id/approve. Only admins may approve.
// @Summary      Approve a return
// @Tags         returns
// @Produce      json
// @Param        X-Employee-ID header string true "Acting employee ID" format(uuid)
// @Param        id path string true "Return ID" format(uuid)
// @Success      200 {object} dto.Response{data=inventoryapp.ReturnResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /returns/{id}/approve [post]
func (h *ReturnHandler) Approve(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	approverID, ok := h.requireEmployee(c)
	if !ok {
		return
	}
	ret, err := h.returns.Approve(c.Request.Context(), id, approverID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ret)
}

// Advance handles POST /returns/:id/advance
// @Summary      Advance a return
// @Tags         returns
// @Produce      json
// @Param        id path string true "Return ID" format(uuid)
// @Success      200 {object} dto.Response{data=inventoryapp.ReturnResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /returns/{id}/advance [post]
func (h *ReturnHandler) Advance(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	ret, err := h.returns.Advance(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ret)
}

// Cancel handles POST /returns/:id/cancel
// @Summary      Cancel a return
// @Tags         returns
// @Accept       json
// @Produce      json
// @Param        id path string true "Return ID" format(uuid)
// @Param        request body CancelReturnRequest false "Cancel reason"
// @Success      200 {object} dto.Response{data=inventoryapp.ReturnResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /returns/{id}/cancel [post]
func (h *ReturnHandler) Cancel(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req CancelReturnRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.ValidationError(c, err)
			return
		}
	}
	ret, err := h.returns.Cancel(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ret)
}

// Get handles GET /returns/:id
// @Summary      Get return by ID
// @Tags         returns
// @Produce      json
// @Param        id path string true "Return ID" format(uuid)
// @Success      200 {object} dto.Response{data=inventoryapp.ReturnResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /returns/{id} [get]
func (h *ReturnHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	ret, err := h.returns.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ret)
}

// List handles GET /returns?warehouse_id=&status=
// @Summary      List returns
// @Tags         returns
// @Produce      json
// @Param        warehouse_id query string false "Warehouse ID" format(uuid)
// @Param        status query string false "Return status"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]inventoryapp.ReturnResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /returns [get]
func (h *ReturnHandler) List(c *gin.Context) {
	warehouseID, ok := h.queryID(c, "warehouse_id")
	if !ok {
		return
	}
	page, pageSize := pagination(c)
	filter := inventoryapp.ReturnListFilter{WarehouseID: warehouseID, Page: page, PageSize: pageSize}
	if raw := c.Query("status"); raw != "" {
		status, err := inventory.ParseReturnStatus(raw)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		filter.Status = &status
	}

	returns, total, err := h.returns.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, returns, total, page, pageSize)
}

// RegisterRoutes registers the stagnant-return routes
func (h *ReturnHandler) RegisterRoutes(rg *gin.RouterGroup) {
	returns := rg.Group("/returns")
	returns.POST("", h.Flag)
	returns.GET("", h.List)
	returns.GET("/:id", h.Get)
	returns.POST("/:id/approve", h.Approve)
	returns.POST("/:id/advance", h.Advance)
	returns.POST("/:id/cancel", h.Cancel)
}
