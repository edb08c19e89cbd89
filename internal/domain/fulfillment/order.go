package fulfillment

import (
	"fmt"
	"strings"
	"time"

	"github.com/boxstock/backend/internal/domain/shared"
	"github.com/boxstock/backend/internal/domain/warehouse"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderLine is one product of an order, priced per box at checkout
type OrderLine struct {
	LineNo       int
	ProductID    uuid.UUID
	Boxes        int
	UnitBoxPrice decimal.Decimal
	Amount       decimal.Decimal
}

// LineInput is a line as requested at checkout
type LineInput struct {
	ProductID    uuid.UUID
	Boxes        int
	UnitBoxPrice decimal.Decimal
}

// Order is a client purchase moving through picking, packing and delivery.
// Status and EmployeeRole always agree with the stage routing table.
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber        string
	ClientID           uuid.UUID
	DeliveryDistrictID *uuid.UUID
	WarehouseID        *uuid.UUID
	Status             OrderStatus
	EmployeeRole       warehouse.EmployeeRole
	AssignedEmployeeID *uuid.UUID
	AcceptedBy         *uuid.UUID
	Lines              []OrderLine
	TotalAmount        decimal.Decimal
	Comment            string
	CancelReason       string
	BlockingProductID  *uuid.UUID
	WaitingSince       *time.Time
	AcceptedAt         *time.Time
	CompletedAt        *time.Time
	CancelledAt        *time.Time

	storedVersion int
}

// StoredVersion is the version the order had when it was last loaded or
// saved. One unit of work may change the order several times; the save
// still matches this version.
func (o *Order) StoredVersion() int {
	return o.storedVersion
}

// MarkStored records that the current version is what storage holds
func (o *Order) MarkStored() {
	o.storedVersion = o.Version
}

// NewOrder creates a CREATED order. Lines are numbered from 1 in input order.
func NewOrder(orderNumber string, clientID uuid.UUID, lines []LineInput, comment string) (*Order, error) {
	if strings.TrimSpace(orderNumber) == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Order number cannot be empty")
	}
	if clientID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Client ID cannot be empty")
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Order must have at least one line")
	}

	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		ClientID:          clientID,
		Status:            StatusCreated,
		EmployeeRole:      StageOwner(StatusCreated),
		Comment:           strings.TrimSpace(comment),
		TotalAmount:       decimal.Zero,
	}

	for i, in := range lines {
		if in.ProductID == uuid.Nil {
			return nil, shared.NewDomainErrorf(shared.CodeInvalidInput, "Line %d: product ID cannot be empty", i+1)
		}
		if in.Boxes <= 0 {
			return nil, shared.NewDomainErrorf(shared.CodeInvalidInput, "Line %d: box count must be positive", i+1)
		}
		if in.UnitBoxPrice.IsNegative() {
			return nil, shared.NewDomainErrorf(shared.CodeInvalidInput, "Line %d: price cannot be negative", i+1)
		}
		amount := in.UnitBoxPrice.Mul(decimal.NewFromInt(int64(in.Boxes)))
		o.Lines = append(o.Lines, OrderLine{
			LineNo:       i + 1,
			ProductID:    in.ProductID,
			Boxes:        in.Boxes,
			UnitBoxPrice: in.UnitBoxPrice,
			Amount:       amount,
		})
		o.TotalAmount = o.TotalAmount.Add(amount)
	}

	o.AddDomainEvent(NewOrderPlacedEvent(o))
	return o, nil
}

// GenerateOrderNumber returns a human-readable unique order number
func GenerateOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), strings.ToUpper(uuid.NewString()[:8]))
}

// SetDeliveryDistrict records where the order is delivered
func (o *Order) SetDeliveryDistrict(districtID uuid.UUID) {
	o.DeliveryDistrictID = &districtID
}

// AssignWarehouse binds the order to a warehouse. Only legal before stock is
// held, i.e. in CREATED or WAITING_STOCK.
func (o *Order) AssignWarehouse(warehouseID uuid.UUID) error {
	if o.Status != StatusCreated && o.Status != StatusWaitingStock {
		return shared.NewDomainErrorf(shared.CodeInvalidTransition, "Cannot change warehouse of order in %s status", o.Status)
	}
	if warehouseID == uuid.Nil {
		return shared.NewDomainError(shared.CodeInvalidInput, "Warehouse ID cannot be empty")
	}
	o.WarehouseID = &warehouseID
	o.IncrementVersion()
	return nil
}

// CheckAction validates that actor may take action now, including stage
// ownership: once an employee holds the order, nobody else may act on it.
func (o *Order) CheckAction(action OrderAction, actor Actor) (Transition, error) {
	t, err := Resolve(o.Status, action, actor)
	if err != nil {
		return t, err
	}
	if action == ActionCancel || actor.IsSystem() {
		return t, nil
	}
	if o.AssignedEmployeeID != nil && *o.AssignedEmployeeID != actor.EmployeeID {
		return Transition{}, shared.NewDomainError(shared.CodeForbidden, "Order is held by another employee")
	}
	return t, nil
}

// Accept moves CREATED to PICKING after every line was reserved
func (o *Order) Accept(actor Actor) error {
	t, err := o.CheckAction(ActionAccept, actor)
	if err != nil {
		return err
	}
	now := time.Now()
	o.AcceptedBy = &actor.EmployeeID
	o.AcceptedAt = &now
	o.apply(t, t.To, actor)
	o.AssignedEmployeeID = &actor.EmployeeID
	return nil
}

// RetryFromWaitingStock moves WAITING_STOCK back to PICKING after every line
// was reserved. The order returns to the picker who accepted it.
func (o *Order) RetryFromWaitingStock(actor Actor) error {
	t, err := o.CheckAction(ActionRetry, actor)
	if err != nil {
		return err
	}
	o.apply(t, t.To, actor)
	o.AssignedEmployeeID = o.AcceptedBy
	return nil
}

// ParkForStock records that action could not reserve stock and moves the
// order to the edge's shortage target. No reservation may be left standing.
func (o *Order) ParkForStock(action OrderAction, actor Actor, blockingProductID uuid.UUID) error {
	t, err := o.CheckAction(action, actor)
	if err != nil {
		return err
	}
	target := t.OnShortage
	if action == ActionReportShortage {
		target = t.To
	}
	if target == "" {
		return shared.NewDomainErrorf(shared.CodeInvalidTransition, "%s does not reserve stock", action)
	}
	if action == ActionAccept {
		o.AcceptedBy = &actor.EmployeeID
	}

	now := time.Now()
	o.BlockingProductID = &blockingProductID
	if o.WaitingSince == nil {
		o.WaitingSince = &now
	}
	o.apply(t, target, actor)
	o.AddDomainEvent(NewOrderWaitingStockEvent(o))
	return nil
}

// Advance moves the order one stage forward
func (o *Order) Advance(actor Actor) error {
	t, err := o.CheckAction(ActionAdvance, actor)
	if err != nil {
		return err
	}
	o.apply(t, t.To, actor)
	if o.EmployeeRole == actor.Role && o.AssignedEmployeeID == nil {
		o.AssignedEmployeeID = &actor.EmployeeID
	}
	return nil
}

// Complete moves DELIVERING to COMPLETED after reservations were committed
func (o *Order) Complete(actor Actor) error {
	t, err := o.CheckAction(ActionComplete, actor)
	if err != nil {
		return err
	}
	now := time.Now()
	o.CompletedAt = &now
	o.apply(t, t.To, actor)
	return nil
}

// Cancel moves the order to CANCELLED after reservations were released
func (o *Order) Cancel(actor Actor, reason string) error {
	t, err := o.CheckAction(ActionCancel, actor)
	if err != nil {
		return err
	}
	now := time.Now()
	o.CancelledAt = &now
	o.CancelReason = strings.TrimSpace(reason)
	o.apply(t, t.To, actor)
	return nil
}

// Claim lets an employee of the owning role take an unheld order
func (o *Order) Claim(actor Actor) error {
	if o.Status.IsTerminal() {
		return shared.NewDomainErrorf(shared.CodeInvalidTransition, "Cannot claim order in %s status", o.Status)
	}
	if actor.IsSystem() || actor.Role != o.EmployeeRole {
		return shared.NewDomainErrorf(shared.CodeForbidden, "Role %s cannot claim order in %s status", actor.Role, o.Status)
	}
	if o.AssignedEmployeeID != nil {
		if *o.AssignedEmployeeID == actor.EmployeeID {
			return nil
		}
		return shared.NewDomainError(shared.CodeForbidden, "Order is held by another employee")
	}
	o.AssignedEmployeeID = &actor.EmployeeID
	o.IncrementVersion()
	return nil
}

// RequiresStock reports whether the order currently holds reservations
func (o *Order) RequiresStock() bool {
	switch o.Status {
	case StatusPicking, StatusPacking, StatusReadyForCourier, StatusDelivering:
		return true
	}
	return false
}

func (o *Order) apply(t Transition, to OrderStatus, actor Actor) {
	from := o.Status
	o.Status = to
	o.EmployeeRole = StageOwner(to)
	if o.EmployeeRole != StageOwner(from) || to.IsTerminal() || to == StatusWaitingStock {
		o.AssignedEmployeeID = nil
	}
	if from == StatusWaitingStock && to != StatusWaitingStock {
		o.BlockingProductID = nil
		o.WaitingSince = nil
	}
	o.IncrementVersion()
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, from, t.Action, actor))
}
