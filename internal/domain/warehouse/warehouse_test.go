package warehouse

import (
	"testing"

	"github.com/boxstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWarehouse(t *testing.T) {
	district := uuid.New()

	t.Run("creates active warehouse", func(t *testing.T) {
		w, err := NewWarehouse("wh-north", "North Hub", district)
		require.NoError(t, err)
		assert.Equal(t, "WH-NORTH", w.Code)
		assert.True(t, w.IsActive())
		assert.Equal(t, district, w.DistrictID)
		require.Len(t, w.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeWarehouseCreated, w.GetDomainEvents()[0].EventType())
	})

	t.Run("stores the trimmed code", func(t *testing.T) {
		w, err := NewWarehouse(" w1 ", "North Hub", district)
		require.NoError(t, err)
		assert.Equal(t, "W1", w.Code)
	})

	t.Run("rejects invalid code", func(t *testing.T) {
		_, err := NewWarehouse("wh north", "North Hub", district)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("requires district", func(t *testing.T) {
		_, err := NewWarehouse("WH1", "North Hub", uuid.Nil)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestWarehouse_EnableDisable(t *testing.T) {
	w, err := NewWarehouse("WH1", "North Hub", uuid.New())
	require.NoError(t, err)

	require.NoError(t, w.Disable())
	assert.False(t, w.IsActive())
	assert.ErrorIs(t, w.Disable(), shared.ErrInvalidTransition)

	require.NoError(t, w.Enable())
	assert.True(t, w.IsActive())
	assert.Equal(t, 3, w.GetVersion())
}

func TestEmployee_AssignDistricts(t *testing.T) {
	e, err := NewEmployee("Ana", RolePicker)
	require.NoError(t, err)

	d1, d2 := uuid.New(), uuid.New()
	wh := uuid.New()
	e.AssignDistricts([]uuid.UUID{d2, d1, d2}, &wh)

	assert.Equal(t, []uuid.UUID{d2, d1}, e.DistrictIDs)
	assert.Equal(t, wh, *e.WarehouseID)

	e.AssignDistricts(nil, nil)
	assert.Empty(t, e.DistrictIDs)
	assert.Nil(t, e.WarehouseID)
}

func TestNewEmployee_Validation(t *testing.T) {
	_, err := NewEmployee("", RolePacker)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = NewEmployee("Bo", EmployeeRole("JANITOR"))
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	e, err := NewEmployee("Bo", RoleCourier)
	require.NoError(t, err)
	assert.True(t, e.HasRole(RoleCourier))
	e.Deactivate()
	assert.False(t, e.HasRole(RoleCourier))
}
