package persistence

import (
	"context"
	"testing"

	"github.com/boxstock/backend/internal/domain/catalog"
	"github.com/boxstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProduct(t *testing.T, code, name string, itemsPerBox int) *catalog.Product {
	t.Helper()
	price := decimal.NewFromFloat(2.5)
	p, err := catalog.NormalizeProduct(catalog.ProductDraft{
		Code:         code,
		Name:         name,
		ItemsPerBox:  &itemsPerBox,
		PricePerItem: &price,
	})
	require.NoError(t, err)
	return p
}

func TestGormProductRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewGormProductRepository(setupTestDB(t))

	nails := newTestProduct(t, "nail-01", "Steel nails", 100)
	screws := newTestProduct(t, "SCR-01", "Wood screws", 50)
	glue := newTestProduct(t, "GLU-01", "Wood glue", 12)
	glue.Deactivate()
	for _, p := range []*catalog.Product{nails, screws, glue} {
		require.NoError(t, repo.Save(ctx, p))
	}

	t.Run("round-trips pricing", func(t *testing.T) {
		found, err := repo.FindByID(ctx, nails.ID)
		require.NoError(t, err)
		assert.Equal(t, "NAIL-01", found.Code)
		assert.Equal(t, 100, found.ItemsPerBox)
		assert.True(t, found.PricePerItem.Equal(nails.PricePerItem))
		assert.True(t, found.BoxPrice.Equal(nails.BoxPrice))
	})

	t.Run("finds by code", func(t *testing.T) {
		found, err := repo.FindByCode(ctx, "scr-01")
		require.NoError(t, err)
		assert.Equal(t, screws.ID, found.ID)

		exists, err := repo.ExistsByCode(ctx, "glu-01")
		require.NoError(t, err)
		assert.True(t, exists)

		_, err = repo.FindByCode(ctx, "NOPE")
		assert.Equal(t, shared.CodeNotFound, shared.ErrorCode(err))
	})

	t.Run("FindByIDs skips missing ids", func(t *testing.T) {
		found, err := repo.FindByIDs(ctx, []uuid.UUID{nails.ID, uuid.New(), glue.ID})
		require.NoError(t, err)
		assert.Len(t, found, 2)

		found, err = repo.FindByIDs(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("lists active products by code", func(t *testing.T) {
		found, total, err := repo.FindAll(ctx, true, shared.Filter{})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, found, 2)
		assert.Equal(t, "SCR-01", found[0].Code)
	})

	t.Run("search matches name or code", func(t *testing.T) {
		found, total, err := repo.FindAll(ctx, false, shared.Filter{Filters: map[string]any{"search": "wood"}})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, found, 2)
	})

	t.Run("duplicate code is ALREADY_EXISTS", func(t *testing.T) {
		err := repo.Save(ctx, newTestProduct(t, "NAIL-01", "Copy", 10))
		assert.Equal(t, shared.CodeAlreadyExists, shared.ErrorCode(err))
	})
}
