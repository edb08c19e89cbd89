package inventory

import (
	"testing"

	"github.com/boxstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPendingReturn(t *testing.T) *StagnantReturn {
	t.Helper()
	r, err := NewStagnantReturn(uuid.New(), uuid.New(), ReturnUrgencyLow, 25, 4, nil)
	require.NoError(t, err)
	return r
}

func TestStagnantReturn_HappyPath(t *testing.T) {
	r := newPendingReturn(t)
	assert.Equal(t, ReturnPending, r.Status)
	assert.True(t, r.IsOpen())
	require.Len(t, r.GetDomainEvents(), 1)
	assert.Equal(t, EventTypeStagnantReturnFlagged, r.GetDomainEvents()[0].EventType())

	approver := uuid.New()
	require.NoError(t, r.Approve(approver))
	assert.Equal(t, ReturnApproved, r.Status)
	assert.Equal(t, approver, *r.ApprovedBy)

	require.NoError(t, r.Advance())
	assert.Equal(t, ReturnInProgress, r.Status)
	assert.NotNil(t, r.StartedAt)

	require.NoError(t, r.Advance())
	assert.Equal(t, ReturnCompleted, r.Status)
	assert.False(t, r.IsOpen())

	assert.ErrorIs(t, r.Advance(), shared.ErrInvalidTransition)
	assert.Len(t, r.GetDomainEvents(), 4)
}

func TestStagnantReturn_InvalidTransitions(t *testing.T) {
	t.Run("advance requires approval", func(t *testing.T) {
		r := newPendingReturn(t)
		assert.ErrorIs(t, r.Advance(), shared.ErrInvalidTransition)
		assert.Equal(t, ReturnPending, r.Status)
	})

	t.Run("approve only from pending", func(t *testing.T) {
		r := newPendingReturn(t)
		require.NoError(t, r.Approve(uuid.New()))
		assert.ErrorIs(t, r.Approve(uuid.New()), shared.ErrInvalidTransition)
	})

	t.Run("cancel from pending and approved only", func(t *testing.T) {
		pending := newPendingReturn(t)
		require.NoError(t, pending.Cancel("counted wrong"))
		assert.Equal(t, ReturnCancelled, pending.Status)
		assert.Equal(t, "counted wrong", pending.CancelReason)
		assert.False(t, pending.IsOpen())

		approved := newPendingReturn(t)
		require.NoError(t, approved.Approve(uuid.New()))
		require.NoError(t, approved.Cancel(""))

		moving := newPendingReturn(t)
		require.NoError(t, moving.Approve(uuid.New()))
		require.NoError(t, moving.Advance())
		assert.ErrorIs(t, moving.Cancel("too late"), shared.ErrInvalidTransition)
	})
}

func TestReturnUrgencyThresholds_UrgencyFor(t *testing.T) {
	th := DefaultReturnUrgencyThresholds()
	assert.Equal(t, ReturnUrgencyLow, th.UrgencyFor(21))
	assert.Equal(t, ReturnUrgencyMedium, th.UrgencyFor(35))
	assert.Equal(t, ReturnUrgencyHigh, th.UrgencyFor(60))
	assert.Equal(t, ReturnUrgencyCritical, th.UrgencyFor(120))
}

func TestNewStagnantReturn_Validation(t *testing.T) {
	_, err := NewStagnantReturn(uuid.Nil, uuid.New(), ReturnUrgencyLow, 30, 1, nil)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = NewStagnantReturn(uuid.New(), uuid.New(), "", 30, 1, nil)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	u, err := ParseReturnUrgency("high")
	require.NoError(t, err)
	assert.Equal(t, ReturnUrgencyHigh, u)
	_, err = ParseReturnStatus("lost")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}
