package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventRecorder(t *testing.T) {
	ctx := context.Background()

	t.Run("records in order", func(t *testing.T) {
		rec := NewEventRecorder("A", "B")
		assert.Equal(t, []string{"A", "B"}, rec.EventTypes())

		require.NoError(t, rec.Handle(ctx, NewTestEvent("B")))
		require.NoError(t, rec.Handle(ctx, NewTestEvent("A")))

		assert.Equal(t, 2, rec.Count())
		assert.Equal(t, []string{"B", "A"}, rec.Types())
	})

	t.Run("configured error", func(t *testing.T) {
		rec := NewEventRecorder()
		rec.SetError(assert.AnError)
		assert.ErrorIs(t, rec.Handle(ctx, NewTestEvent("A")), assert.AnError)
		assert.Equal(t, 1, rec.Count())

		rec.Reset()
		assert.Equal(t, 0, rec.Count())
		assert.NoError(t, rec.Handle(ctx, NewTestEvent("A")))
	})

	t.Run("handled is a copy", func(t *testing.T) {
		rec := NewEventRecorder()
		require.NoError(t, rec.Handle(ctx, NewTestEvent("A")))
		events := rec.Handled()
		events[0] = nil
		assert.NotNil(t, rec.Handled()[0])
	})

	t.Run("wait for count", func(t *testing.T) {
		rec := NewEventRecorder()
		go func() {
			time.Sleep(10 * time.Millisecond)
			_ = rec.Handle(ctx, NewTestEvent("A"))
		}()
		rec.WaitForCount(t, 1, time.Second)
	})
}

func TestNewTestEvent(t *testing.T) {
	e := NewTestEvent("StockRestocked")
	assert.Equal(t, "StockRestocked", e.EventType())
	assert.Equal(t, "TestAggregate", e.AggregateType())
	assert.NotEqual(t, e.EventID(), e.AggregateID())
	assert.False(t, e.OccurredAt().IsZero())
}
