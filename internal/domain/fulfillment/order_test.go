package fulfillment

import (
	"strings"
	"testing"
	"time"

	"github.com/boxstock/backend/internal/domain/shared"
	"github.com/boxstock/backend/internal/domain/warehouse"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrder(t *testing.T) *Order {
	t.Helper()
	o, err := NewOrder("ORD-1", uuid.New(), []LineInput{
		{ProductID: uuid.New(), Boxes: 3, UnitBoxPrice: decimal.NewFromInt(1200)},
		{ProductID: uuid.New(), Boxes: 1, UnitBoxPrice: decimal.NewFromInt(500)},
	}, " leave at gate ")
	require.NoError(t, err)
	return o
}

func TestNewOrder(t *testing.T) {
	o := newTestOrder(t)

	assert.Equal(t, StatusCreated, o.Status)
	assert.Equal(t, warehouse.RolePicker, o.EmployeeRole)
	assert.Nil(t, o.WarehouseID)
	assert.Nil(t, o.AssignedEmployeeID)
	assert.Equal(t, "leave at gate", o.Comment)
	require.Len(t, o.Lines, 2)
	assert.Equal(t, 1, o.Lines[0].LineNo)
	assert.Equal(t, 2, o.Lines[1].LineNo)
	assert.True(t, o.Lines[0].Amount.Equal(decimal.NewFromInt(3600)))
	assert.True(t, o.TotalAmount.Equal(decimal.NewFromInt(4100)))

	events := o.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeOrderPlaced, events[0].EventType())
}

func TestNewOrder_Validation(t *testing.T) {
	client := uuid.New()
	product := uuid.New()

	_, err := NewOrder("ORD-1", client, nil, "")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = NewOrder("ORD-1", client, []LineInput{{ProductID: product, Boxes: 0}}, "")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = NewOrder("", client, []LineInput{{ProductID: product, Boxes: 1}}, "")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = NewOrder("ORD-1", uuid.Nil, []LineInput{{ProductID: product, Boxes: 1}}, "")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestOrder_FullLifecycle(t *testing.T) {
	o := newTestOrder(t)
	picker := actor(warehouse.RolePicker)
	packer := actor(warehouse.RolePacker)
	courier := actor(warehouse.RoleCourier)

	require.NoError(t, o.Accept(picker))
	assert.Equal(t, StatusPicking, o.Status)
	assert.Equal(t, warehouse.RolePicker, o.EmployeeRole)
	assert.Equal(t, picker.EmployeeID, *o.AssignedEmployeeID)
	assert.True(t, o.RequiresStock())

	require.NoError(t, o.Advance(picker))
	assert.Equal(t, StatusPacking, o.Status)
	assert.Equal(t, warehouse.RolePacker, o.EmployeeRole)
	assert.Nil(t, o.AssignedEmployeeID, "handed over to the packer queue")

	require.NoError(t, o.Advance(packer))
	assert.Equal(t, StatusReadyForCourier, o.Status)
	assert.Equal(t, warehouse.RoleCourier, o.EmployeeRole)

	require.NoError(t, o.Advance(courier))
	assert.Equal(t, StatusDelivering, o.Status)
	assert.Equal(t, courier.EmployeeID, *o.AssignedEmployeeID)

	other := actor(warehouse.RoleCourier)
	assert.ErrorIs(t, o.Complete(other), shared.ErrForbidden)

	require.NoError(t, o.Complete(courier))
	assert.Equal(t, StatusCompleted, o.Status)
	assert.Equal(t, warehouse.EmployeeRole(""), o.EmployeeRole)
	assert.NotNil(t, o.CompletedAt)

	statusEvents := 0
	for _, e := range o.GetDomainEvents() {
		if e.EventType() == EventTypeOrderStatusChanged {
			statusEvents++
		}
	}
	assert.Equal(t, 5, statusEvents)
}

func TestOrder_StageOwnership(t *testing.T) {
	o := newTestOrder(t)
	picker := actor(warehouse.RolePicker)
	require.NoError(t, o.Accept(picker))

	t.Run("another picker cannot advance a held order", func(t *testing.T) {
		assert.ErrorIs(t, o.Advance(actor(warehouse.RolePicker)), shared.ErrForbidden)
	})

	t.Run("wrong role cannot advance", func(t *testing.T) {
		assert.ErrorIs(t, o.Advance(actor(warehouse.RolePacker)), shared.ErrForbidden)
		assert.Equal(t, StatusPicking, o.Status)
	})
}

func TestOrder_ParkForStock(t *testing.T) {
	t.Run("accept shortage parks in waiting stock", func(t *testing.T) {
		o := newTestOrder(t)
		picker := actor(warehouse.RolePicker)
		blocking := o.Lines[1].ProductID

		require.NoError(t, o.ParkForStock(ActionAccept, picker, blocking))
		assert.Equal(t, StatusWaitingStock, o.Status)
		assert.Equal(t, warehouse.RolePicker, o.EmployeeRole)
		assert.Equal(t, blocking, *o.BlockingProductID)
		assert.NotNil(t, o.WaitingSince)
		assert.Nil(t, o.AssignedEmployeeID)
		assert.Equal(t, picker.EmployeeID, *o.AcceptedBy)
		assert.False(t, o.RequiresStock())

		events := o.GetDomainEvents()
		assert.Equal(t, EventTypeOrderWaitingStock, events[len(events)-1].EventType())

		waitingSince := *o.WaitingSince
		require.NoError(t, o.ParkForStock(ActionRetry, SystemActor(), blocking))
		assert.Equal(t, StatusWaitingStock, o.Status)
		assert.Equal(t, waitingSince, *o.WaitingSince, "waiting clock is not reset by a failed retry")

		require.NoError(t, o.RetryFromWaitingStock(SystemActor()))
		assert.Equal(t, StatusPicking, o.Status)
		assert.Equal(t, picker.EmployeeID, *o.AssignedEmployeeID)
		assert.Nil(t, o.BlockingProductID)
		assert.Nil(t, o.WaitingSince)
	})

	t.Run("picker reports shortage while picking", func(t *testing.T) {
		o := newTestOrder(t)
		picker := actor(warehouse.RolePicker)
		require.NoError(t, o.Accept(picker))

		require.NoError(t, o.ParkForStock(ActionReportShortage, picker, o.Lines[0].ProductID))
		assert.Equal(t, StatusWaitingStock, o.Status)
	})

	t.Run("edges without stock are rejected", func(t *testing.T) {
		o := newTestOrder(t)
		picker := actor(warehouse.RolePicker)
		require.NoError(t, o.Accept(picker))
		err := o.ParkForStock(ActionAdvance, picker, o.Lines[0].ProductID)
		assert.ErrorIs(t, err, shared.ErrInvalidTransition)
	})
}

func TestOrder_Cancel(t *testing.T) {
	t.Run("cancellable before courier handoff", func(t *testing.T) {
		o := newTestOrder(t)
		require.NoError(t, o.Accept(actor(warehouse.RolePicker)))
		require.NoError(t, o.Cancel(SystemActor(), "client changed mind"))
		assert.Equal(t, StatusCancelled, o.Status)
		assert.Equal(t, "client changed mind", o.CancelReason)
	})

	t.Run("rejected once delivering", func(t *testing.T) {
		o := newTestOrder(t)
		picker := actor(warehouse.RolePicker)
		courier := actor(warehouse.RoleCourier)
		require.NoError(t, o.Accept(picker))
		require.NoError(t, o.Advance(picker))
		require.NoError(t, o.Advance(actor(warehouse.RolePacker)))
		require.NoError(t, o.Advance(courier))

		assert.ErrorIs(t, o.Cancel(SystemActor(), "late"), shared.ErrInvalidTransition)

		require.NoError(t, o.Complete(courier))
		assert.ErrorIs(t, o.Cancel(SystemActor(), "late"), shared.ErrInvalidTransition)
	})
}

func TestOrder_Claim(t *testing.T) {
	o := newTestOrder(t)
	picker := actor(warehouse.RolePicker)

	assert.ErrorIs(t, o.Claim(actor(warehouse.RolePacker)), shared.ErrForbidden)
	require.NoError(t, o.Claim(picker))
	require.NoError(t, o.Claim(picker), "re-claiming own order is a no-op")
	assert.ErrorIs(t, o.Claim(actor(warehouse.RolePicker)), shared.ErrForbidden)

	assert.ErrorIs(t, o.Accept(actor(warehouse.RolePicker)), shared.ErrForbidden)
	require.NoError(t, o.Accept(picker))
}

func TestOrder_AssignWarehouse(t *testing.T) {
	o := newTestOrder(t)
	wh := uuid.New()
	require.NoError(t, o.AssignWarehouse(wh))
	assert.Equal(t, wh, *o.WarehouseID)

	require.NoError(t, o.Accept(actor(warehouse.RolePicker)))
	assert.ErrorIs(t, o.AssignWarehouse(uuid.New()), shared.ErrInvalidTransition)
}

func TestOrder_StoredVersion(t *testing.T) {
	o := newTestOrder(t)
	assert.Zero(t, o.StoredVersion(), "never stored")

	o.MarkStored()
	stored := o.StoredVersion()
	require.NoError(t, o.AssignWarehouse(uuid.New()))
	require.NoError(t, o.Accept(actor(warehouse.RolePicker)))
	assert.Equal(t, stored, o.StoredVersion())
	assert.Equal(t, stored+2, o.Version)

	o.MarkStored()
	assert.Equal(t, o.Version, o.StoredVersion())
}

func TestGenerateOrderNumber(t *testing.T) {
	n := GenerateOrderNumber(time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))
	assert.True(t, strings.HasPrefix(n, "ORD-20260102-"))
	assert.Len(t, n, len("ORD-20260102-")+8)
	assert.NotEqual(t, n, GenerateOrderNumber(time.Now()))
}
