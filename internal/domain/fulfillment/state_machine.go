package fulfillment

import (
	"strings"

	"github.com/boxstock/backend/internal/domain/shared"
	"github.com/boxstock/backend/internal/domain/warehouse"
	"github.com/google/uuid"
)

// OrderStatus is a node of the fulfillment graph
type OrderStatus string

const (
	StatusCreated         OrderStatus = "CREATED"
	StatusPicking         OrderStatus = "PICKING"
	StatusPacking         OrderStatus = "PACKING"
	StatusReadyForCourier OrderStatus = "READY_FOR_COURIER"
	StatusDelivering      OrderStatus = "DELIVERING"
	StatusCompleted       OrderStatus = "COMPLETED"
	StatusWaitingStock    OrderStatus = "WAITING_STOCK"
	StatusCancelled       OrderStatus = "CANCELLED"
)

// IsValid checks if the status is a known OrderStatus
func (s OrderStatus) IsValid() bool {
	_, ok := stageOwners[s]
	return ok
}

// IsTerminal reports whether no further transition is possible
func (s OrderStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// OrderAction is something an actor does to an order
type OrderAction string

const (
	ActionAccept         OrderAction = "ACCEPT"
	ActionRetry          OrderAction = "RETRY"
	ActionAdvance        OrderAction = "ADVANCE"
	ActionComplete       OrderAction = "COMPLETE"
	ActionReportShortage OrderAction = "REPORT_SHORTAGE"
	ActionCancel         OrderAction = "CANCEL"
)

// stageOwners routes each status to the role whose queue shows it.
// Terminal states belong to nobody.
var stageOwners = map[OrderStatus]warehouse.EmployeeRole{
	StatusCreated:         warehouse.RolePicker,
	StatusPicking:         warehouse.RolePicker,
	StatusWaitingStock:    warehouse.RolePicker,
	StatusPacking:         warehouse.RolePacker,
	StatusReadyForCourier: warehouse.RoleCourier,
	StatusDelivering:      warehouse.RoleCourier,
	StatusCompleted:       "",
	StatusCancelled:       "",
}

// StageOwner returns the role that owns orders in status
func StageOwner(status OrderStatus) warehouse.EmployeeRole {
	return stageOwners[status]
}

// StatusesOwnedBy lists the statuses shown in a role's queue
func StatusesOwnedBy(role warehouse.EmployeeRole) []OrderStatus {
	var out []OrderStatus
	for _, s := range []OrderStatus{StatusCreated, StatusPicking, StatusWaitingStock, StatusPacking, StatusReadyForCourier, StatusDelivering} {
		if stageOwners[s] == role {
			out = append(out, s)
		}
	}
	return out
}

// Transition is one edge of the graph. Role is the role allowed to take it;
// an empty Role means any actor. OnShortage is the target when the ledger
// cannot cover the order, empty when the edge never touches stock.
type Transition struct {
	From        OrderStatus
	Action      OrderAction
	Role        warehouse.EmployeeRole
	AllowSystem bool
	To          OrderStatus
	OnShortage  OrderStatus
}

type transitionKey struct {
	from   OrderStatus
	action OrderAction
}

var transitions = buildTransitions([]Transition{
	{From: StatusCreated, Action: ActionAccept, Role: warehouse.RolePicker, To: StatusPicking, OnShortage: StatusWaitingStock},
	{From: StatusWaitingStock, Action: ActionRetry, Role: warehouse.RolePicker, AllowSystem: true, To: StatusPicking, OnShortage: StatusWaitingStock},
	{From: StatusPicking, Action: ActionAdvance, Role: warehouse.RolePicker, To: StatusPacking},
	{From: StatusPacking, Action: ActionAdvance, Role: warehouse.RolePacker, To: StatusReadyForCourier},
	{From: StatusReadyForCourier, Action: ActionAdvance, Role: warehouse.RoleCourier, To: StatusDelivering},
	{From: StatusDelivering, Action: ActionComplete, Role: warehouse.RoleCourier, To: StatusCompleted},
	{From: StatusPicking, Action: ActionReportShortage, Role: warehouse.RolePicker, To: StatusWaitingStock},
	{From: StatusCreated, Action: ActionCancel, AllowSystem: true, To: StatusCancelled},
	{From: StatusPicking, Action: ActionCancel, AllowSystem: true, To: StatusCancelled},
	{From: StatusPacking, Action: ActionCancel, AllowSystem: true, To: StatusCancelled},
	{From: StatusWaitingStock, Action: ActionCancel, AllowSystem: true, To: StatusCancelled},
})

func buildTransitions(list []Transition) map[transitionKey]Transition {
	m := make(map[transitionKey]Transition, len(list))
	for _, t := range list {
		key := transitionKey{from: t.From, action: t.Action}
		if _, dup := m[key]; dup {
			panic("fulfillment: duplicate transition " + string(t.From) + "/" + string(t.Action))
		}
		m[key] = t
	}
	return m
}

// Transitions returns a copy of the transition table
func Transitions() []Transition {
	out := make([]Transition, 0, len(transitions))
	for _, t := range transitions {
		out = append(out, t)
	}
	return out
}

// Actor is whoever triggers an action. The zero EmployeeID is the system.
type Actor struct {
	EmployeeID uuid.UUID
	Role       warehouse.EmployeeRole
}

// SystemActor is used for automatic retries and sweeps
func SystemActor() Actor {
	return Actor{}
}

// IsSystem reports whether the action is automatic
func (a Actor) IsSystem() bool {
	return a.EmployeeID == uuid.Nil
}

// Resolve looks up the edge for (status, action) and checks that the actor's
// role may take it. Unknown edges fail with INVALID_TRANSITION, a wrong role
// with FORBIDDEN.
func Resolve(status OrderStatus, action OrderAction, actor Actor) (Transition, error) {
	t, ok := transitions[transitionKey{from: status, action: action}]
	if !ok {
		return Transition{}, shared.NewDomainErrorf(shared.CodeInvalidTransition,
			"Cannot %s order in %s status", humanAction(action), status)
	}
	if actor.IsSystem() {
		if !t.AllowSystem {
			return Transition{}, shared.NewDomainErrorf(shared.CodeForbidden,
				"%s requires an employee", humanAction(action))
		}
		return t, nil
	}
	if t.Role != "" && actor.Role != t.Role {
		return Transition{}, shared.NewDomainErrorf(shared.CodeForbidden,
			"Role %s cannot %s order in %s status", actor.Role, humanAction(action), status)
	}
	return t, nil
}

func humanAction(a OrderAction) string {
	switch a {
	case ActionReportShortage:
		return "report shortage for"
	case ActionRetry:
		return "retry"
	default:
		return strings.ToLower(string(a))
	}
}
