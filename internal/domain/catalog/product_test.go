package catalog

import (
	"testing"

	"github.com/boxstock/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int               { return &v }
func decPtr(v int64) *decimal.Decimal { d := decimal.NewFromInt(v); return &d }
func boolPtr(v bool) *bool            { return &v }
func draft(itemsPerBox int, price int64) ProductDraft {
	return ProductDraft{Code: "cola-24", Name: "Cola 0.5L", ItemsPerBox: intPtr(itemsPerBox), PricePerItem: decPtr(price)}
}

func TestNormalizeProduct(t *testing.T) {
	t.Run("derives box price when absent", func(t *testing.T) {
		p, err := NormalizeProduct(draft(24, 50))
		require.NoError(t, err)

		assert.Equal(t, "COLA-24", p.Code)
		assert.Equal(t, 24, p.ItemsPerBox)
		assert.True(t, p.BoxPrice.Equal(decimal.NewFromInt(1200)), p.BoxPrice.String())
		assert.False(t, p.CustomBoxPrice)
		assert.True(t, p.IsActive)
		assert.Equal(t, 1, p.GetVersion())

		events := p.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeProductCreated, events[0].EventType())
	})

	t.Run("keeps explicit discounted box price", func(t *testing.T) {
		d := draft(24, 50)
		d.BoxPrice = decPtr(1000)
		p, err := NormalizeProduct(d)
		require.NoError(t, err)
		assert.True(t, p.BoxPrice.Equal(decimal.NewFromInt(1000)))
		assert.True(t, p.CustomBoxPrice)
		assert.True(t, p.PerBoxSavings().Equal(decimal.NewFromInt(200)))
	})

	t.Run("missing price means zero", func(t *testing.T) {
		p, err := NormalizeProduct(ProductDraft{Code: "x", Name: "X", ItemsPerBox: intPtr(6)})
		require.NoError(t, err)
		assert.True(t, p.PricePerItem.IsZero())
		assert.True(t, p.BoxPrice.IsZero())
	})

	t.Run("explicit inactive flag", func(t *testing.T) {
		d := draft(6, 10)
		d.IsActive = boolPtr(false)
		p, err := NormalizeProduct(d)
		require.NoError(t, err)
		assert.False(t, p.IsActive)
	})

	t.Run("missing items per box", func(t *testing.T) {
		_, err := NormalizeProduct(ProductDraft{Code: "x", Name: "X"})
		assert.ErrorIs(t, err, shared.ErrInvalidConfiguration)
	})

	t.Run("zero items per box", func(t *testing.T) {
		_, err := NormalizeProduct(draft(0, 10))
		assert.ErrorIs(t, err, shared.ErrInvalidConfiguration)
	})

	t.Run("blank name", func(t *testing.T) {
		d := draft(6, 10)
		d.Name = "   "
		_, err := NormalizeProduct(d)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestProduct_UpdatePricing(t *testing.T) {
	p, err := NormalizeProduct(draft(24, 50))
	require.NoError(t, err)
	p.ClearDomainEvents()

	require.NoError(t, p.UpdatePricing(decimal.NewFromInt(60), nil))
	assert.True(t, p.BoxPrice.Equal(decimal.NewFromInt(1440)))
	assert.Equal(t, 2, p.GetVersion())

	require.NoError(t, p.UpdatePricing(decimal.NewFromInt(60), decPtr(1300)))
	assert.True(t, p.BoxPrice.Equal(decimal.NewFromInt(1300)))
	assert.True(t, p.CustomBoxPrice)

	events := p.GetDomainEvents()
	require.Len(t, events, 2)
	changed := events[0].(*ProductPriceChangedEvent)
	assert.True(t, changed.OldBoxPrice.Equal(decimal.NewFromInt(1200)))

	err = p.UpdatePricing(decimal.NewFromInt(-1), nil)
	assert.ErrorIs(t, err, shared.ErrInvalidConfiguration)
}

func TestProduct_ChangeItemsPerBox(t *testing.T) {
	t.Run("refused once stock exists", func(t *testing.T) {
		p, _ := NormalizeProduct(draft(24, 50))
		err := p.ChangeItemsPerBox(12, true)
		assert.ErrorIs(t, err, shared.ErrInvalidTransition)
		assert.Equal(t, 24, p.ItemsPerBox)
	})

	t.Run("recomputes derived box price", func(t *testing.T) {
		p, _ := NormalizeProduct(draft(24, 50))
		require.NoError(t, p.ChangeItemsPerBox(12, false))
		assert.Equal(t, 12, p.ItemsPerBox)
		assert.True(t, p.BoxPrice.Equal(decimal.NewFromInt(600)))
	})

	t.Run("keeps custom box price", func(t *testing.T) {
		d := draft(24, 50)
		d.BoxPrice = decPtr(1000)
		p, _ := NormalizeProduct(d)
		require.NoError(t, p.ChangeItemsPerBox(20, false))
		assert.True(t, p.BoxPrice.Equal(decimal.NewFromInt(1000)))
	})
}

func TestProduct_DeactivateAndOrderability(t *testing.T) {
	p, _ := NormalizeProduct(draft(24, 50))
	assert.True(t, p.CanOrder(2, 5))

	p.Deactivate()
	assert.False(t, p.IsActive)
	assert.False(t, p.CanOrder(2, 5))

	version := p.GetVersion()
	p.Deactivate()
	assert.Equal(t, version, p.GetVersion(), "second deactivate is a no-op")

	p.Activate()
	assert.True(t, p.CanOrder(2, 5))
}

func TestProduct_PriceFor(t *testing.T) {
	p, _ := NormalizeProduct(draft(24, 50))
	total, err := p.PriceFor(3, true)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(3600)))
}
