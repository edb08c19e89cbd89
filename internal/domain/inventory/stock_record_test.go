package inventory

import (
	"math/rand"
	"testing"
	"time"

	"github.com/boxstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStockedRecord(t *testing.T, boxes int) *StockRecord {
	t.Helper()
	rec, err := NewStockRecord(uuid.New(), uuid.New())
	require.NoError(t, err)
	if boxes > 0 {
		require.NoError(t, rec.Restock(boxes))
	}
	rec.ClearDomainEvents()
	return rec
}

func TestStockRecord_Availability(t *testing.T) {
	rec := newStockedRecord(t, 10)
	assert.Equal(t, 10, rec.AvailableBoxes())

	items, err := rec.AvailableItems(24)
	require.NoError(t, err)
	assert.Equal(t, 240, items)

	_, err = rec.AvailableItems(0)
	assert.ErrorIs(t, err, shared.ErrInvalidConfiguration)

	rec.ReservedBoxes = 12
	assert.Equal(t, 0, rec.AvailableBoxes(), "never negative")
}

func TestStockRecord_Reserve(t *testing.T) {
	orderID := uuid.New()

	t.Run("holds boxes and emits event", func(t *testing.T) {
		rec := newStockedRecord(t, 5)
		res, err := rec.Reserve(orderID, 1, 3)
		require.NoError(t, err)

		assert.Equal(t, 3, rec.ReservedBoxes)
		assert.Equal(t, 2, rec.AvailableBoxes())
		assert.Equal(t, rec.ID, res.StockRecordID)
		assert.Equal(t, orderID, res.OrderID)
		assert.True(t, res.IsActive())

		events := rec.GetDomainEvents()
		require.Len(t, events, 1)
		reserved := events[0].(*StockReservedEvent)
		assert.Equal(t, 2, reserved.AvailableBoxes)
		assert.Equal(t, 3, reserved.Boxes)
	})

	t.Run("insufficient stock leaves record unchanged", func(t *testing.T) {
		rec := newStockedRecord(t, 2)
		version := rec.GetVersion()

		_, err := rec.Reserve(orderID, 1, 3)
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
		assert.Equal(t, 0, rec.ReservedBoxes)
		assert.Equal(t, version, rec.GetVersion())
		assert.Empty(t, rec.GetDomainEvents())
	})

	t.Run("rejects non positive boxes", func(t *testing.T) {
		rec := newStockedRecord(t, 2)
		_, err := rec.Reserve(orderID, 1, 0)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestStockRecord_ReserveReleaseRoundTrip(t *testing.T) {
	rec := newStockedRecord(t, 8)
	before := rec.AvailableBoxes()

	res, err := rec.Reserve(uuid.New(), 1, 5)
	require.NoError(t, err)

	released, err := rec.Release(res)
	require.NoError(t, err)
	assert.True(t, released)
	assert.Equal(t, before, rec.AvailableBoxes())
	assert.Equal(t, ReservationReleased, res.Status)
	assert.NotNil(t, res.ReleasedAt)

	released, err = rec.Release(res)
	require.NoError(t, err, "second release is a no-op")
	assert.False(t, released)
	assert.Equal(t, before, rec.AvailableBoxes())
}

func TestStockRecord_Commit(t *testing.T) {
	rec := newStockedRecord(t, 8)
	res, err := rec.Reserve(uuid.New(), 1, 3)
	require.NoError(t, err)

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	sale, err := rec.Commit(res, at)
	require.NoError(t, err)
	require.NotNil(t, sale)

	assert.Equal(t, 5, rec.QuantityBoxes)
	assert.Equal(t, 0, rec.ReservedBoxes)
	assert.Equal(t, 3, sale.Boxes)
	assert.Equal(t, at, sale.SoldAt)
	assert.Equal(t, ReservationCommitted, res.Status)

	again, err := rec.Commit(res, at)
	require.NoError(t, err)
	assert.Nil(t, again)
	assert.Equal(t, 5, rec.QuantityBoxes)

	_, err = rec.Release(res)
	assert.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestStockRecord_CommitReleased(t *testing.T) {
	rec := newStockedRecord(t, 8)
	res, _ := rec.Reserve(uuid.New(), 1, 3)
	_, err := rec.Release(res)
	require.NoError(t, err)

	_, err = rec.Commit(res, time.Now())
	assert.ErrorIs(t, err, shared.ErrInvalidTransition)
	assert.Equal(t, 8, rec.QuantityBoxes)
}

func TestStockRecord_ForeignReservation(t *testing.T) {
	a := newStockedRecord(t, 5)
	b := newStockedRecord(t, 5)
	res, _ := a.Reserve(uuid.New(), 1, 2)

	_, err := b.Release(res)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	_, err = b.Commit(res, time.Now())
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestStockRecord_Restock(t *testing.T) {
	rec := newStockedRecord(t, 0)
	_, err := rec.Reserve(uuid.New(), 1, 1)
	require.ErrorIs(t, err, shared.ErrInsufficientStock)

	require.NoError(t, rec.Restock(4))
	assert.Equal(t, 4, rec.QuantityBoxes)
	assert.NotNil(t, rec.LastRestockedAt)

	res, err := rec.Reserve(uuid.New(), 1, 1)
	require.NoError(t, err)
	require.NoError(t, rec.Restock(2))
	assert.Equal(t, 1, rec.ReservedBoxes, "restock never touches reservations")
	assert.True(t, res.IsActive())

	assert.ErrorIs(t, rec.Restock(0), shared.ErrInvalidInput)
}

func TestStockRecord_InvariantUnderRandomOperations(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	rec := newStockedRecord(t, 20)
	var open []*Reservation

	for i := 0; i < 2000; i++ {
		switch rng.Intn(4) {
		case 0:
			if res, err := rec.Reserve(uuid.New(), i, 1+rng.Intn(5)); err == nil {
				open = append(open, res)
			} else {
				require.ErrorIs(t, err, shared.ErrInsufficientStock)
			}
		case 1:
			if len(open) > 0 {
				idx := rng.Intn(len(open))
				_, err := rec.Release(open[idx])
				require.NoError(t, err)
				open = append(open[:idx], open[idx+1:]...)
			}
		case 2:
			if len(open) > 0 {
				idx := rng.Intn(len(open))
				_, err := rec.Commit(open[idx], time.Now())
				require.NoError(t, err)
				open = append(open[:idx], open[idx+1:]...)
			}
		case 3:
			require.NoError(t, rec.Restock(1+rng.Intn(3)))
		}

		require.GreaterOrEqual(t, rec.ReservedBoxes, 0)
		require.LessOrEqual(t, rec.ReservedBoxes, rec.QuantityBoxes)
	}
}
