package inventory

import (
	"strings"
	"time"

	"github.com/boxstock/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ReturnStatus is the lifecycle state of a stagnant return
type ReturnStatus string

const (
	ReturnPending    ReturnStatus = "PENDING"
	ReturnApproved   ReturnStatus = "APPROVED"
	ReturnInProgress ReturnStatus = "IN_PROGRESS"
	ReturnCompleted  ReturnStatus = "COMPLETED"
	ReturnCancelled  ReturnStatus = "CANCELLED"
)

// IsOpen reports whether a return in this status still blocks re-flagging
func (s ReturnStatus) IsOpen() bool {
	return s == ReturnPending || s == ReturnApproved || s == ReturnInProgress
}

// ParseReturnStatus parses a case-insensitive status name
func ParseReturnStatus(s string) (ReturnStatus, error) {
	st := ReturnStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case ReturnPending, ReturnApproved, ReturnInProgress, ReturnCompleted, ReturnCancelled:
		return st, nil
	}
	return "", shared.NewDomainErrorf(shared.CodeInvalidInput, "Unknown return status %q", s)
}

// ReturnUrgency ranks how pressing a stagnant return is
type ReturnUrgency string

const (
	ReturnUrgencyCritical ReturnUrgency = "CRITICAL"
	ReturnUrgencyHigh     ReturnUrgency = "HIGH"
	ReturnUrgencyMedium   ReturnUrgency = "MEDIUM"
	ReturnUrgencyLow      ReturnUrgency = "LOW"
)

// ParseReturnUrgency parses a case-insensitive urgency; empty returns ""
func ParseReturnUrgency(s string) (ReturnUrgency, error) {
	u := ReturnUrgency(strings.ToUpper(strings.TrimSpace(s)))
	switch u {
	case "", ReturnUrgencyCritical, ReturnUrgencyHigh, ReturnUrgencyMedium, ReturnUrgencyLow:
		return u, nil
	}
	return "", shared.NewDomainErrorf(shared.CodeInvalidInput, "Unknown return urgency %q", s)
}

// ReturnUrgencyThresholds maps days idle to a return urgency
type ReturnUrgencyThresholds struct {
	CriticalDays int
	HighDays     int
	MediumDays   int
}

// DefaultReturnUrgencyThresholds returns the default idle-day cutoffs
func DefaultReturnUrgencyThresholds() ReturnUrgencyThresholds {
	return ReturnUrgencyThresholds{CriticalDays: 90, HighDays: 60, MediumDays: 35}
}

// UrgencyFor returns the urgency for a number of idle days
func (t ReturnUrgencyThresholds) UrgencyFor(daysIdle int) ReturnUrgency {
	switch {
	case daysIdle >= t.CriticalDays:
		return ReturnUrgencyCritical
	case daysIdle >= t.HighDays:
		return ReturnUrgencyHigh
	case daysIdle >= t.MediumDays:
		return ReturnUrgencyMedium
	default:
		return ReturnUrgencyLow
	}
}

// StagnantReturn tracks sending long-idle stock back. Urgency is fixed when
// the return is flagged; a new flag after completion is a new record.
type StagnantReturn struct {
	shared.BaseAggregateRoot
	ProductID     uuid.UUID
	WarehouseID   uuid.UUID
	UrgencyLevel  ReturnUrgency
	Status        ReturnStatus
	DaysIdle      int
	QuantityBoxes int
	// RequestedBy is nil when the stagnation scanner raised the flag
	RequestedBy  *uuid.UUID
	ApprovedBy   *uuid.UUID
	ApprovedAt   *time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
	CancelledAt  *time.Time
	CancelReason string
}

// NewStagnantReturn opens a PENDING return
func NewStagnantReturn(
	productID, warehouseID uuid.UUID,
	urgency ReturnUrgency,
	daysIdle, quantityBoxes int,
	requestedBy *uuid.UUID,
) (*StagnantReturn, error) {
	if productID == uuid.Nil || warehouseID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Product and warehouse are required")
	}
	if urgency == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Urgency level is required")
	}

	r := &StagnantReturn{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProductID:         productID,
		WarehouseID:       warehouseID,
		UrgencyLevel:      urgency,
		Status:            ReturnPending,
		DaysIdle:          daysIdle,
		QuantityBoxes:     quantityBoxes,
		RequestedBy:       requestedBy,
	}
	r.AddDomainEvent(NewStagnantReturnFlaggedEvent(r))
	return r, nil
}

// Approve moves PENDING to APPROVED. Whether the approver may approve is
// checked by the caller.
func (r *StagnantReturn) Approve(approverID uuid.UUID) error {
	if r.Status != ReturnPending {
		return shared.NewDomainErrorf(shared.CodeInvalidTransition, "Cannot approve return in %s status", r.Status)
	}
	now := time.Now()
	r.ApprovedBy = &approverID
	r.ApprovedAt = &now
	r.transition(ReturnApproved)
	return nil
}

// Advance moves APPROVED to IN_PROGRESS, or IN_PROGRESS to COMPLETED
func (r *StagnantReturn) Advance() error {
	now := time.Now()
	switch r.Status {
	case ReturnApproved:
		r.StartedAt = &now
		r.transition(ReturnInProgress)
	case ReturnInProgress:
		r.CompletedAt = &now
		r.transition(ReturnCompleted)
	default:
		return shared.NewDomainErrorf(shared.CodeInvalidTransition, "Cannot advance return in %s status", r.Status)
	}
	return nil
}

// Cancel closes a return that has not started moving stock
func (r *StagnantReturn) Cancel(reason string) error {
	if r.Status != ReturnPending && r.Status != ReturnApproved {
		return shared.NewDomainErrorf(shared.CodeInvalidTransition, "Cannot cancel return in %s status", r.Status)
	}
	now := time.Now()
	r.CancelledAt = &now
	r.CancelReason = strings.TrimSpace(reason)
	r.transition(ReturnCancelled)
	return nil
}

// IsOpen reports whether the return still blocks a new flag for its pair
func (r *StagnantReturn) IsOpen() bool {
	return r.Status.IsOpen()
}

func (r *StagnantReturn) transition(to ReturnStatus) {
	old := r.Status
	r.Status = to
	r.IncrementVersion()
	r.AddDomainEvent(NewStagnantReturnStatusChangedEvent(r, old))
}
