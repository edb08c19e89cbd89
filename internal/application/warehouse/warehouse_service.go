package warehouse

import (
	"context"

	"github.com/boxstock/backend/internal/domain/shared"
	"github.com/boxstock/backend/internal/domain/warehouse"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WarehouseService manages warehouses, districts and the employees bound to
// them. An employee's warehouse is always derived from their districts.
type WarehouseService struct {
	warehouseRepo  warehouse.WarehouseRepository
	districtRepo   warehouse.DistrictRepository
	employeeRepo   warehouse.EmployeeRepository
	assigner       *warehouse.WarehouseAssigner
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewWarehouseService creates a new WarehouseService
func NewWarehouseService(
	warehouseRepo warehouse.WarehouseRepository,
	districtRepo warehouse.DistrictRepository,
	employeeRepo warehouse.EmployeeRepository,
	logger *zap.Logger,
) *WarehouseService {
	return &WarehouseService{
		warehouseRepo: warehouseRepo,
		districtRepo:  districtRepo,
		employeeRepo:  employeeRepo,
		assigner:      warehouse.NewWarehouseAssigner(warehouseRepo),
		logger:        logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *WarehouseService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// CreateDistrict creates a delivery district
func (s *WarehouseService) CreateDistrict(ctx context.Context, req CreateDistrictRequest) (*DistrictResponse, error) {
	d, err := warehouse.NewDistrict(req.Name)
	if err != nil {
		return nil, err
	}
	if err := s.districtRepo.Save(ctx, d); err != nil {
		return nil, err
	}
	resp := ToDistrictResponse(d)
	return &resp, nil
}

// ListDistricts returns every district
func (s *WarehouseService) ListDistricts(ctx context.Context) ([]DistrictResponse, error) {
	districts, err := s.districtRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]DistrictResponse, len(districts))
	for i := range districts {
		out[i] = ToDistrictResponse(&districts[i])
	}
	return out, nil
}

// CreateWarehouse creates an active warehouse in an existing district
func (s *WarehouseService) CreateWarehouse(ctx context.Context, req CreateWarehouseRequest) (*WarehouseResponse, error) {
	w, err := warehouse.NewWarehouse(req.Code, req.Name, req.DistrictID)
	if err != nil {
		return nil, err
	}

	exists, err := s.warehouseRepo.ExistsByCode(ctx, w.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError(shared.CodeAlreadyExists, "Warehouse with this code already exists")
	}
	if _, err := s.districtRepo.FindByID(ctx, req.DistrictID); err != nil {
		return nil, err
	}
	if err := s.warehouseRepo.Save(ctx, w); err != nil {
		return nil, err
	}
	s.publish(ctx, w.PullDomainEvents())

	resp := ToWarehouseResponse(w)
	return &resp, nil
}

// GetWarehouse retrieves a warehouse by ID
func (s *WarehouseService) GetWarehouse(ctx context.Context, id uuid.UUID) (*WarehouseResponse, error) {
	w, err := s.warehouseRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToWarehouseResponse(w)
	return &resp, nil
}

// ListWarehouses returns every warehouse ordered by code
func (s *WarehouseService) ListWarehouses(ctx context.Context) ([]WarehouseResponse, error) {
	warehouses, err := s.warehouseRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]WarehouseResponse, len(warehouses))
	for i := range warehouses {
		out[i] = ToWarehouseResponse(&warehouses[i])
	}
	return out, nil
}

// ActiveWarehouseIDs lists the ids of active warehouses, ordered by code
func (s *WarehouseService) ActiveWarehouseIDs(ctx context.Context) ([]uuid.UUID, error) {
	warehouses, err := s.warehouseRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(warehouses))
	for i := range warehouses {
		if warehouses[i].IsActive() {
			ids = append(ids, warehouses[i].ID)
		}
	}
	return ids, nil
}

// UpdateWarehouse renames a warehouse or moves it to another district.
// Moving rebinds the employees that were bound to it.
func (s *WarehouseService) UpdateWarehouse(ctx context.Context, id uuid.UUID, req UpdateWarehouseRequest) (*WarehouseResponse, error) {
	w, err := s.warehouseRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		if err := w.Rename(*req.Name); err != nil {
			return nil, err
		}
	}
	moved := false
	if req.DistrictID != nil && *req.DistrictID != w.DistrictID {
		if _, err := s.districtRepo.FindByID(ctx, *req.DistrictID); err != nil {
			return nil, err
		}
		if err := w.MoveToDistrict(*req.DistrictID); err != nil {
			return nil, err
		}
		moved = true
	}
	if err := s.warehouseRepo.Save(ctx, w); err != nil {
		return nil, err
	}
	if moved {
		if err := s.rebindEmployees(ctx, w.ID); err != nil {
			return nil, err
		}
	}

	resp := ToWarehouseResponse(w)
	return &resp, nil
}

// Enable makes a warehouse eligible for auto-assignment again
func (s *WarehouseService) Enable(ctx context.Context, id uuid.UUID) (*WarehouseResponse, error) {
	return s.setStatus(ctx, id, (*warehouse.Warehouse).Enable)
}

// Disable removes a warehouse from auto-assignment and rebinds its employees
func (s *WarehouseService) Disable(ctx context.Context, id uuid.UUID) (*WarehouseResponse, error) {
	resp, err := s.setStatus(ctx, id, (*warehouse.Warehouse).Disable)
	if err != nil {
		return nil, err
	}
	if err := s.rebindEmployees(ctx, id); err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *WarehouseService) setStatus(ctx context.Context, id uuid.UUID, fn func(*warehouse.Warehouse) error) (*WarehouseResponse, error) {
	w, err := s.warehouseRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(w); err != nil {
		return nil, err
	}
	if err := s.warehouseRepo.Save(ctx, w); err != nil {
		return nil, err
	}
	s.publish(ctx, w.PullDomainEvents())

	resp := ToWarehouseResponse(w)
	return &resp, nil
}

// CreateEmployee creates an employee and binds them through their districts
func (s *WarehouseService) CreateEmployee(ctx context.Context, req CreateEmployeeRequest) (*EmployeeResponse, error) {
	e, err := warehouse.NewEmployee(req.Name, req.Role)
	if err != nil {
		return nil, err
	}
	if err := s.bind(ctx, e, req.DistrictIDs); err != nil {
		return nil, err
	}
	if err := s.employeeRepo.Save(ctx, e); err != nil {
		return nil, err
	}
	s.publish(ctx, e.PullDomainEvents())

	resp := ToEmployeeResponse(e)
	return &resp, nil
}

// GetEmployee retrieves an employee by ID
func (s *WarehouseService) GetEmployee(ctx context.Context, id uuid.UUID) (*EmployeeResponse, error) {
	e, err := s.employeeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToEmployeeResponse(e)
	return &resp, nil
}

// AssignEmployeeDistricts stores the employee's ordered district set and the
// warehouse binding derived from it. An empty set clears the binding.
func (s *WarehouseService) AssignEmployeeDistricts(ctx context.Context, employeeID uuid.UUID, req AssignDistrictsRequest) (*EmployeeResponse, error) {
	e, err := s.employeeRepo.FindByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if err := s.bind(ctx, e, req.DistrictIDs); err != nil {
		return nil, err
	}
	if err := s.employeeRepo.Save(ctx, e); err != nil {
		return nil, err
	}
	s.publish(ctx, e.PullDomainEvents())

	s.logger.Info("employee districts assigned",
		zap.String("employee_id", e.ID.String()),
		zap.Int("districts", len(e.DistrictIDs)),
		zap.Bool("bound", e.WarehouseID != nil),
	)
	resp := ToEmployeeResponse(e)
	return &resp, nil
}

// DeactivateEmployee removes an employee from every queue
func (s *WarehouseService) DeactivateEmployee(ctx context.Context, employeeID uuid.UUID) (*EmployeeResponse, error) {
	e, err := s.employeeRepo.FindByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	e.Deactivate()
	if err := s.employeeRepo.Save(ctx, e); err != nil {
		return nil, err
	}
	resp := ToEmployeeResponse(e)
	return &resp, nil
}

// bind validates districtIDs and sets them with the derived warehouse
func (s *WarehouseService) bind(ctx context.Context, e *warehouse.Employee, districtIDs []uuid.UUID) error {
	if len(districtIDs) > 0 {
		found, err := s.districtRepo.FindByIDs(ctx, districtIDs)
		if err != nil {
			return err
		}
		known := make(map[uuid.UUID]struct{}, len(found))
		for _, d := range found {
			known[d.ID] = struct{}{}
		}
		for _, id := range districtIDs {
			if _, ok := known[id]; !ok {
				return shared.NewDomainErrorf(shared.CodeNotFound, "District %s not found", id)
			}
		}
	}

	warehouseID, err := s.assigner.AssignForDistricts(ctx, districtIDs)
	if err != nil {
		return err
	}
	e.AssignDistricts(districtIDs, warehouseID)
	return nil
}

// rebindEmployees recomputes the binding of employees bound to warehouseID
func (s *WarehouseService) rebindEmployees(ctx context.Context, warehouseID uuid.UUID) error {
	employees, err := s.employeeRepo.FindByWarehouse(ctx, warehouseID)
	if err != nil {
		return err
	}
	for i := range employees {
		e := &employees[i]
		if err := s.bind(ctx, e, e.DistrictIDs); err != nil {
			return err
		}
		if err := s.employeeRepo.Save(ctx, e); err != nil {
			return err
		}
		s.publish(ctx, e.PullDomainEvents())
	}
	if len(employees) > 0 {
		s.logger.Info("employees rebound",
			zap.String("warehouse_id", warehouseID.String()),
			zap.Int("employees", len(employees)),
		)
	}
	return nil
}

func (s *WarehouseService) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
}
