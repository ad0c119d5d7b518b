package repository_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/sitetrack/procurement-api/internal/domain"
	"github.com/sitetrack/procurement-api/internal/repository"
	"github.com/sitetrack/procurement-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func newCell(productID, warehouseID uuid.UUID, quantity string) *domain.WarehouseStock {
	return &domain.WarehouseStock{
		ProductID:          productID,
		WarehouseID:        warehouseID,
		Quantity:           testutil.Dec(quantity),
		ConditionBreakdown: datatypes.NewJSONType(domain.ConditionBreakdown{}),
		AssignedBreakdown:  datatypes.NewJSONType(domain.AssignedBreakdown{}),
	}
}

func TestStockRepository_UpsertNewCellDoesNotOverwriteStoredRow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewStockRepository(db)
	ctx := context.Background()
	warehouse := testutil.CreateWarehouse(t, db, "CENTRAL", domain.WarehouseTypeCentral, nil)
	productID := uuid.New()

	first := newCell(productID, warehouse.ID, "7")
	require.NoError(t, repo.Upsert(ctx, first))
	require.NotEqual(t, uuid.Nil, first.ID)

	late := newCell(productID, warehouse.ID, "2")
	err := repo.Upsert(ctx, late)
	assert.ErrorIs(t, err, repository.ErrCellExists)
	assert.Equal(t, uuid.Nil, late.ID)

	stored, err := repo.GetCell(ctx, productID, warehouse.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, first.ID, stored.ID)
	assert.Equal(t, "7", stored.Quantity.String())

	stored.Quantity = testutil.Dec("9")
	require.NoError(t, repo.Upsert(ctx, stored))

	reread, err := repo.GetCell(ctx, productID, warehouse.ID)
	require.NoError(t, err)
	assert.Equal(t, "9", reread.Quantity.String())
}

func TestStockRepository_GetCellMissing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewStockRepository(db)

	cell, err := repo.GetCell(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, cell)
}
