package inventory

import (
	"context"
	"errors"

	"github.com/boxstock/backend/internal/domain/inventory"
	"github.com/boxstock/backend/internal/domain/shared"
	"github.com/boxstock/backend/internal/domain/warehouse"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReturnMetrics counts flagged returns
type ReturnMetrics interface {
	ObserveReturnFlagged(urgency inventory.ReturnUrgency)
}

// StagnantReturnService runs the stagnant-return workflow:
// PENDING -> APPROVED -> IN_PROGRESS -> COMPLETED, cancellable until work starts.
type StagnantReturnService struct {
	returnRepo     inventory.StagnantReturnRepository
	stockRepo      inventory.StockRecordRepository
	salesRepo      inventory.SalesHistoryRepository
	employeeRepo   warehouse.EmployeeRepository
	classifier     *inventory.StockHealthClassifier
	urgencyDays    inventory.ReturnUrgencyThresholds
	eventPublisher shared.EventPublisher
	metrics        ReturnMetrics
	logger         *zap.Logger
}

// NewStagnantReturnService creates a new StagnantReturnService
func NewStagnantReturnService(
	returnRepo inventory.StagnantReturnRepository,
	stockRepo inventory.StockRecordRepository,
	salesRepo inventory.SalesHistoryRepository,
	employeeRepo warehouse.EmployeeRepository,
	classifier *inventory.StockHealthClassifier,
	urgencyDays inventory.ReturnUrgencyThresholds,
	logger *zap.Logger,
) *StagnantReturnService {
	return &StagnantReturnService{
		returnRepo:   returnRepo,
		stockRepo:    stockRepo,
		salesRepo:    salesRepo,
		employeeRepo: employeeRepo,
		classifier:   classifier,
		urgencyDays:  urgencyDays,
		logger:       logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *StagnantReturnService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the counter sink for flagged returns
func (s *StagnantReturnService) SetMetrics(m ReturnMetrics) {
	s.metrics = m
}

// Flag opens a PENDING return for a stagnant pair. When a return is already
// open for the pair it is returned with created=false instead of a duplicate.
// A pair that is not stagnant is rejected with INVALID_INPUT.
func (s *StagnantReturnService) Flag(ctx context.Context, req FlagReturnRequest) (*ReturnResponse, bool, error) {
	record, err := s.stockRepo.FindByProductAndWarehouse(ctx, req.ProductID, req.WarehouseID)
	if err != nil {
		return nil, false, err
	}

	h, err := loadHistory(ctx, s.salesRepo, s.classifier, record, inventory.WindowMonth)
	if err != nil {
		return nil, false, err
	}
	if !s.classifier.IsStagnant(h, 0) {
		return nil, false, shared.NewDomainErrorf(shared.CodeInvalidInput,
			"Product is not stagnant: last movement %d days ago, threshold %d",
			s.classifier.DaysIdle(h), s.classifier.Thresholds().MinIdleDays)
	}

	if open, err := s.findOpen(ctx, req.ProductID, req.WarehouseID); err != nil || open != nil {
		if err != nil {
			return nil, false, err
		}
		resp := ToReturnResponse(open)
		return &resp, false, nil
	}

	daysIdle := s.classifier.DaysIdle(h)
	urgency := s.urgencyDays.UrgencyFor(daysIdle)
	if req.Urgency != nil {
		urgency = *req.Urgency
	}

	r, err := inventory.NewStagnantReturn(req.ProductID, req.WarehouseID, urgency, daysIdle, record.QuantityBoxes, req.RequestedBy)
	if err != nil {
		return nil, false, err
	}
	if err := s.returnRepo.Create(ctx, r); err != nil {
		// The open-return unique index lost a race: hand back the winner.
		if errors.Is(err, shared.ErrAlreadyExists) {
			if open, findErr := s.findOpen(ctx, req.ProductID, req.WarehouseID); findErr == nil && open != nil {
				resp := ToReturnResponse(open)
				return &resp, false, nil
			}
		}
		return nil, false, err
	}

	s.publish(ctx, r)
	if s.metrics != nil {
		s.metrics.ObserveReturnFlagged(urgency)
	}
	s.logger.Info("stagnant return flagged",
		zap.String("return_id", r.ID.String()),
		zap.String("product_id", req.ProductID.String()),
		zap.String("warehouse_id", req.WarehouseID.String()),
		zap.String("urgency", string(urgency)),
		zap.Int("days_idle", daysIdle),
	)
	resp := ToReturnResponse(r)
	return &resp, true, nil
}

// Approve moves a PENDING return to APPROVED. Only admins may approve.
func (s *StagnantReturnService) Approve(ctx context.Context, returnID, approverID uuid.UUID) (*ReturnResponse, error) {
	approver, err := s.employeeRepo.FindByID(ctx, approverID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.CodeForbidden, "Unknown approver")
		}
		return nil, err
	}
	if !approver.IsActive || !approver.HasRole(warehouse.RoleAdmin) {
		return nil, shared.NewDomainError(shared.CodeForbidden, "Only administrators can approve returns")
	}

	return s.mutate(ctx, returnID, func(r *inventory.StagnantReturn) error {
		return r.Approve(approverID)
	})
}

// Advance moves an approved return one step toward COMPLETED
func (s *StagnantReturnService) Advance(ctx context.Context, returnID uuid.UUID) (*ReturnResponse, error) {
	return s.mutate(ctx, returnID, func(r *inventory.StagnantReturn) error {
		return r.Advance()
	})
}

// Cancel closes a return that has not started
func (s *StagnantReturnService) Cancel(ctx context.Context, returnID uuid.UUID, reason string) (*ReturnResponse, error) {
	return s.mutate(ctx, returnID, func(r *inventory.StagnantReturn) error {
		return r.Cancel(reason)
	})
}

// Get retrieves a return by ID
func (s *StagnantReturnService) Get(ctx context.Context, returnID uuid.UUID) (*ReturnResponse, error) {
	r, err := s.returnRepo.FindByID(ctx, returnID)
	if err != nil {
		return nil, err
	}
	resp := ToReturnResponse(r)
	return &resp, nil
}

// List retrieves returns with filtering and pagination
func (s *StagnantReturnService) List(ctx context.Context, filter ReturnListFilter) ([]ReturnResponse, int64, error) {
	rs, total, err := s.returnRepo.FindAll(ctx, filter.toDomain())
	if err != nil {
		return nil, 0, err
	}
	out := make([]ReturnResponse, len(rs))
	for i := range rs {
		out[i] = ToReturnResponse(&rs[i])
	}
	return out, total, nil
}

func (s *StagnantReturnService) mutate(ctx context.Context, returnID uuid.UUID, fn func(*inventory.StagnantReturn) error) (*ReturnResponse, error) {
	r, err := s.returnRepo.FindByID(ctx, returnID)
	if err != nil {
		return nil, err
	}
	if err := fn(r); err != nil {
		return nil, err
	}
	if err := s.returnRepo.SaveWithLock(ctx, r); err != nil {
		return nil, err
	}
	s.publish(ctx, r)

	s.logger.Info("stagnant return updated",
		zap.String("return_id", r.ID.String()),
		zap.String("status", string(r.Status)),
	)
	resp := ToReturnResponse(r)
	return &resp, nil
}

func (s *StagnantReturnService) findOpen(ctx context.Context, productID, warehouseID uuid.UUID) (*inventory.StagnantReturn, error) {
	open, err := s.returnRepo.FindOpen(ctx, productID, warehouseID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return open, nil
}

func (s *StagnantReturnService) publish(ctx context.Context, r *inventory.StagnantReturn) {
	events := r.PullDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
}
