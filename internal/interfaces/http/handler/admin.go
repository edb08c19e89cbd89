package handler

import (
	"context"
	"net/http"

	warehouseapp "github.com/boxstock/backend/internal/application/warehouse"
	"github.com/boxstock/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WarehouseAdmin manages districts, warehouses and employees
type WarehouseAdmin interface {
	CreateDistrict(ctx context.Context, req warehouseapp.CreateDistrictRequest) (*warehouseapp.DistrictResponse, error)
	ListDistricts(ctx context.Context) ([]warehouseapp.DistrictResponse, error)
	CreateWarehouse(ctx context.Context, req warehouseapp.CreateWarehouseRequest) (*warehouseapp.WarehouseResponse, error)
	GetWarehouse(ctx context.Context, id uuid.UUID) (*warehouseapp.WarehouseResponse, error)
	ListWarehouses(ctx context.Context) ([]warehouseapp.WarehouseResponse, error)
	UpdateWarehouse(ctx context.Context, id uuid.UUID, req warehouseapp.UpdateWarehouseRequest) (*warehouseapp.WarehouseResponse, error)
	Enable(ctx context.Context, id uuid.UUID) (*warehouseapp.WarehouseResponse, error)
	Disable(ctx context.Context, id uuid.UUID) (*warehouseapp.WarehouseResponse, error)
	CreateEmployee(ctx context.Context, req warehouseapp.CreateEmployeeRequest) (*warehouseapp.EmployeeResponse, error)
	GetEmployee(ctx context.Context, id uuid.UUID) (*warehouseapp.EmployeeResponse, error)
	AssignEmployeeDistricts(ctx context.Context, employeeID uuid.UUID, req warehouseapp.AssignDistrictsRequest) (*warehouseapp.EmployeeResponse, error)
	DeactivateEmployee(ctx context.Context, employeeID uuid.UUID) (*warehouseapp.EmployeeResponse, error)
}

// AdminHandler handles district, warehouse and employee administration
type AdminHandler struct {
	BaseHandler
	admin WarehouseAdmin
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(admin WarehouseAdmin) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// bindAndRun binds the JSON body into a fresh Req and answers with fn's result
func bindAndRun[Req, Resp any](h *AdminHandler, c *gin.Context, status int, fn func(ctx context.Context, req Req) (Resp, error)) {
	var req Req
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	resp, err := fn(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(status, dto.NewSuccessResponse(resp))
}

// CreateDistrict handles POST /districts
// @Summary      Create a district
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request body warehouseapp.CreateDistrictRequest true "District"
// @Success      201 {object} dto.Response{data=warehouseapp.DistrictResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /districts [post]
func (h *AdminHandler) CreateDistrict(c *gin.Context) {
	bindAndRun(h, c, http.StatusCreated, h.admin.CreateDistrict)
}

// ListDistricts handles GET /districts
// @Summary      List districts
// @Tags         admin
// @Produce      json
// @Success      200 {object} dto.Response{data=[]warehouseapp.DistrictResponse}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /districts [get]
func (h *AdminHandler) ListDistricts(c *gin.Context) {
	districts, err := h.admin.ListDistricts(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, districts)
}

// CreateWarehouse handles POST /warehouses
// @Summary      Create a warehouse
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request body warehouseapp.CreateWarehouseRequest true "Warehouse"
// @Success      201 {object} dto.Response{data=warehouseapp.WarehouseResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /warehouses [post]
func (h *AdminHandler) CreateWarehouse(c *gin.Context) {
	bindAndRun(h, c, http.StatusCreated, h.admin.CreateWarehouse)
}

// ListWarehouses handles GET /warehouses
// @Summary      List warehouses
// @Tags         admin
// @Produce      json
// @Success      200 {object} dto.Response{data=[]warehouseapp.WarehouseResponse}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /warehouses [get]
func (h *AdminHandler) ListWarehouses(c *gin.Context) {
	warehouses, err := h.admin.ListWarehouses(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, warehouses)
}

// GetWarehouse handles GET /warehouses/:id
// @Summary      Get warehouse by ID
// @Tags         admin
// @Produce      json
// @Param        id path string true "Warehouse ID" format(uuid)
// @Success      200 {object} dto.Response{data=warehouseapp.WarehouseResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /warehouses/{id} [get]
func (h *AdminHandler) GetWarehouse(c *gin.Context) {
	byID(h, c, h.admin.GetWarehouse)
}

// UpdateWarehouse handles PUT /warehouses/:id
// @Summary      Update a warehouse
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id path string true "Warehouse ID" format(uuid)
// @Param        request body warehouseapp.UpdateWarehouseRequest true "Warehouse"
// @Success      200 {object} dto.Response{data=warehouseapp.WarehouseResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /warehouses/{id} [put]
func (h *AdminHandler) UpdateWarehouse(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	bindAndRun(h, c, http.StatusOK, func(ctx context.Context, req warehouseapp.UpdateWarehouseRequest) (*warehouseapp.WarehouseResponse, error) {
		return h.admin.UpdateWarehouse(ctx, id, req)
	})
}

// CreateEmployee handles POST /employees
// @Summary      Create an employee
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request body warehouseapp.CreateEmployeeRequest true "Employee"
// @Success      201 {object} dto.Response{data=warehouseapp.EmployeeResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /employees [post]
func (h *AdminHandler) CreateEmployee(c *gin.Context) {
	bindAndRun(h, c, http.StatusCreated, h.admin.CreateEmployee)
}

// GetEmployee handles GET /employees/:id
// @Summary      Get employee by ID
// @Tags         admin
// @Produce      json
// @Param        id path string true "Employee ID" format(uuid)
// @Success      200 {object} dto.Response{data=warehouseapp.EmployeeResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /employees/{id} [get]
func (h *AdminHandler) GetEmployee(c *gin.Context) {
	byID(h, c, h.admin.GetEmployee)
}

// AssignDistricts handles PUT /employees/:id/districts. The employee is
// rebound to the warehouse serving its new districts.
// @Summary      Assign districts to an employee
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id path string true "Employee ID" format(uuid)
// @Param        request body warehouseapp.AssignDistrictsRequest true "Districts"
// @Success      200 {object} dto.Response{data=warehouseapp.EmployeeResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /employees/{id}/districts [put]
func (h *AdminHandler) AssignDistricts(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	bindAndRun(h, c, http.StatusOK, func(ctx context.Context, req warehouseapp.AssignDistrictsRequest) (*warehouseapp.EmployeeResponse, error) {
		return h.admin.AssignEmployeeDistricts(ctx, id, req)
	})
}

func byID[Resp any](h *AdminHandler, c *gin.Context, fn func(ctx context.Context, id uuid.UUID) (Resp, error)) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	resp, err := fn(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// EnableWarehouse handles POST /warehouses/:id/enable
// @Summary      Enable a warehouse
// @Tags         admin
// @Produce      json
// @Param        id path string true "Warehouse ID" format(uuid)
// @Success      200 {object} dto.Response{data=warehouseapp.WarehouseResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /warehouses/{id}/enable [post]
func (h *AdminHandler) EnableWarehouse(c *gin.Context) {
	byID(h, c, h.admin.Enable)
}

// DisableWarehouse handles POST /warehouses/:id/disable
// @Summary      Disable a warehouse
// @Tags         admin
// @Produce      json
// @Param        id path string true "Warehouse ID" format(uuid)
// @Success      200 {object} dto.Response{data=warehouseapp.WarehouseResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /warehouses/{id}/disable [post]
func (h *AdminHandler) DisableWarehouse(c *gin.Context) {
	byID(h, c, h.admin.Disable)
}

// DeactivateEmployee handles POST /employees/:id/deactivate
// @Summary      Deactivate an employee
// @Tags         admin
// @Produce      json
// @Param        id path string true "Employee ID" format(uuid)
// @Success      200 {object} dto.Response{data=warehouseapp.EmployeeResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /employees/{id}/deactivate [post]
func (h *AdminHandler) DeactivateEmployee(c *gin.Context) {
	byID(h, c, h.admin.DeactivateEmployee)
}

// RegisterRoutes registers the administration routes
func (h *AdminHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/districts", h.CreateDistrict)
	rg.GET("/districts", h.ListDistricts)

	warehouses := rg.Group("/warehouses")
	warehouses.POST("", h.CreateWarehouse)
	warehouses.GET("", h.ListWarehouses)
	warehouses.GET("/:id", h.GetWarehouse)
	warehouses.PUT("/:id", h.UpdateWarehouse)
	warehouses.POST("/:id/enable", h.EnableWarehouse)
	warehouses.POST("/:id/disable", h.DisableWarehouse)

	employees := rg.Group("/employees")
	employees.POST("", h.CreateEmployee)
	employees.GET("/:id", h.GetEmployee)
	employees.PUT("/:id/districts", h.AssignDistricts)
	employees.POST("/:id/deactivate", h.DeactivateEmployee)
}
