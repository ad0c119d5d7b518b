package service_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sitetrack/procurement-api/internal/auth"
	"github.com/sitetrack/procurement-api/internal/domain"
	"github.com/sitetrack/procurement-api/internal/events"
	"github.com/sitetrack/procurement-api/internal/repository"
	"github.com/sitetrack/procurement-api/internal/service"
	"github.com/sitetrack/procurement-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createItem(t *testing.T, db *gorm.DB, userID uuid.UUID, category domain.InventoryCategory, quantity, consumed string, status domain.InventoryStatus) *domain.UserInventoryItem {
	t.Helper()
	item := &domain.UserInventoryItem{
		UserID:           userID,
		ItemName:         "Welding rods",
		Quantity:         testutil.Dec(quantity),
		ConsumedQuantity: testutil.Dec(consumed),
		Unit:             "box",
		Status:           status,
		AssignedDate:     time.Now().UTC(),
		Category:         category,
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

func TestInventoryService_ConsumeChecksRunInOrder(t *testing.T) {
	f := newFixture(t)
	ctx, user := testutil.UserContext(auth.RoleWorker)

	tool := createItem(t, f.db, user.UserID, domain.CategoryTool, "1", "0", domain.InventoryStatusActive)
	lostSupply := createItem(t, f.db, user.UserID, domain.CategoryConsumableSupply, "5", "0", domain.InventoryStatusLost)
	rods := createItem(t, f.db, user.UserID, domain.CategoryControlledConsumable, "5", "4", domain.InventoryStatusActive)
	returnedSupply := createItem(t, f.db, user.UserID, domain.CategoryConsumableSupply, "5", "2", domain.InventoryStatusReturned)

	tests := []struct {
		name     string
		itemID   uuid.UUID
		quantity string
		wantErr  error
	}{
		{name: "tool with invalid quantity reports the category", itemID: tool.ID, quantity: "0", wantErr: service.ErrNotConsumable},
		{name: "inactive item with invalid quantity reports the quantity", itemID: lostSupply.ID, quantity: "-1", wantErr: service.ErrInvalidQuantity},
		{name: "inactive item", itemID: lostSupply.ID, quantity: "1", wantErr: service.ErrItemNotActive},
		{name: "returned item with stock left", itemID: returnedSupply.ID, quantity: "1", wantErr: service.ErrItemNotActive},
		{name: "more than remaining", itemID: rods.ID, quantity: "1.5", wantErr: service.ErrExceedsRemaining},
		{name: "unknown item", itemID: uuid.New(), quantity: "1", wantErr: service.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.inventory.Consume(ctx, tt.itemID, testutil.Dec(tt.quantity), "")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := f.inventory.Consume(ctx, rods.ID, testutil.Dec("2"), "")
	var exceeds *service.ExceedsRemainingError
	require.True(t, errors.As(err, &exceeds))
	assert.Equal(t, "1", exceeds.Remaining.String())

	history, err := f.inventory.ListConsumptions(ctx, rods.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestInventoryService_ConsumeUntilReturned(t *testing.T) {
	f := newFixture(t)
	ctx, user := testutil.UserContext(auth.RoleWorker)
	item := createItem(t, f.db, user.UserID, domain.CategoryConsumableSupply, "5", "0", domain.InventoryStatusActive)

	partial, err := f.inventory.Consume(ctx, item.ID, testutil.Dec("2"), " floor 3 ")
	require.NoError(t, err)
	assert.Equal(t, domain.InventoryStatusActive, partial.Item.Status)
	assert.Equal(t, "3", partial.Item.Remaining.String())
	assert.Equal(t, "0", partial.Consumption.ConsumedBefore.String())
	assert.Equal(t, "2", partial.Consumption.ConsumedAfter.String())
	assert.Equal(t, "floor 3", partial.Consumption.Note)
	assert.Empty(t, partial.Warnings, "name-only items carry no custody stock")

	rest, err := f.inventory.Consume(ctx, item.ID, testutil.Dec("3"), "")
	require.NoError(t, err)
	assert.Equal(t, domain.InventoryStatusReturned, rest.Item.Status)
	assert.True(t, rest.Item.Remaining.IsZero())

	_, err = f.inventory.Consume(ctx, item.ID, testutil.Dec("1"), "")
	var exceeds *service.ExceedsRemainingError
	require.True(t, errors.As(err, &exceeds), "used-up item reports the remaining boundary, got %v", err)
	assert.True(t, exceeds.Remaining.IsZero())
	assert.ErrorIs(t, err, service.ErrExceedsRemaining)

	history, err := f.inventory.ListConsumptions(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	for _, c := range history {
		assert.Equal(t, user.UserID, c.RecordedByID)
		assert.Equal(t, user.UserID, c.UserID)
	}

	assert.Equal(t, []string{events.TypeInventoryConsumed, events.TypeInventoryConsumed}, f.publisher.Types())
}

func TestInventoryService_AssignFromWarehouseMovesStockIntoCustody(t *testing.T) {
	f := newFixture(t)
	ctx, _ := testutil.UserContext(auth.RoleWarehouseKeeper)
	central := testutil.CreateWarehouse(t, f.db, "CENTRAL", domain.WarehouseTypeCentral, nil)
	productID := uuid.New()
	workerID := uuid.New()

	_, err := f.stock.ApplyMovement(ctx, service.MovementInput{
		ProductID: productID, WarehouseID: central.ID, Delta: testutil.Dec("10"),
		Type:      domain.MovementTypeEntry, Condition: condition(domain.ConditionNew),
	})
	require.NoError(t, err)

	item, err := f.inventory.AssignToUser(ctx, &domain.AssignInventoryRequest{
		UserID:          workerID,
		ProductID:       &productID,
		ItemName:        " Cutting discs ",
		FromWarehouseID: &central.ID,
		Quantity:        testutil.Dec("4"),
		Unit:            "pcs",
		Category:        string(domain.CategoryControlledConsumable),
		Condition:       string(domain.ConditionNew),
	})
	require.NoError(t, err)
	assert.Equal(t, "Cutting discs", item.ItemName)
	assert.Equal(t, domain.InventoryStatusActive, item.Status)
	assert.True(t, item.Consumable)
	require.NotNil(t, item.SourceWarehouseID)
	assert.Equal(t, central.ID, *item.SourceWarehouseID)

	custody, err := f.warehouses.EnsureCustodyWarehouse(ctx, workerID)
	require.NoError(t, err)
	assert.Equal(t, domain.WarehouseTypePersonalCustody, custody.Type)
	require.NotNil(t, custody.OwnerID)
	assert.Equal(t, workerID, *custody.OwnerID)

	held, err := f.stock.GetStock(ctx, productID, custody.ID)
	require.NoError(t, err)
	assert.Equal(t, "4", held.Quantity.String())
	assert.Equal(t, "4", held.AssignedBreakdown[workerID][domain.ConditionNew].String())

	source, err := f.stock.GetStock(ctx, productID, central.ID)
	require.NoError(t, err)
	assert.Equal(t, "6", source.Quantity.String())

	consumed, err := f.inventory.Consume(ctx, item.ID, testutil.Dec("1"), "")
	require.NoError(t, err)
	assert.Empty(t, consumed.Warnings)

	held, err = f.stock.GetStock(ctx, productID, custody.ID)
	require.NoError(t, err)
	assert.Equal(t, "3", held.Quantity.String())
	assert.Equal(t, "3", held.AssignedBreakdown[workerID][domain.ConditionNew].String())

	assert.Contains(t, f.publisher.Types(), events.TypeInventoryAssigned)
}

// failCreates makes every insert into table fail while match returns true for the row
func failCreates(t *testing.T, db *gorm.DB, name, table string, match func(tx *gorm.DB) bool) {
	t.Helper()
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register(name, func(tx *gorm.DB) {
		if tx.Statement.Table == table && match(tx) {
			_ = tx.AddError(errors.New("insert failed"))
		}
	}))
}

func stockAssignment(t *testing.T, f *fixture) (*domain.AssignInventoryRequest, *domain.Warehouse) {
	t.Helper()
	ctx, _ := testutil.UserContext(auth.RoleWarehouseKeeper)
	central := testutil.CreateWarehouse(t, f.db, "CENTRAL", domain.WarehouseTypeCentral, nil)
	productID := uuid.New()

	_, err := f.stock.ApplyMovement(ctx, service.MovementInput{
		ProductID: productID, WarehouseID: central.ID, Delta: testutil.Dec("10"),
		Type:      domain.MovementTypeEntry, Condition: condition(domain.ConditionNew),
	})
	require.NoError(t, err)

	return &domain.AssignInventoryRequest{
		UserID:          uuid.New(),
		ProductID:       &productID,
		ItemName:        "Cutting discs",
		FromWarehouseID: &central.ID,
		Quantity:        testutil.Dec("4"),
		Unit:            "pcs",
		Category:        string(domain.CategoryControlledConsumable),
		Condition:       string(domain.ConditionNew),
	}, central
}

func TestInventoryService_AssignRevertsTransferWhenItemInsertFails(t *testing.T) {
	f := newFixture(t)
	ctx, _ := testutil.UserContext(auth.RoleWarehouseKeeper)
	req, central := stockAssignment(t, f)
	failCreates(t, f.db, "test:fail_inventory", "user_inventory", func(*gorm.DB) bool { return true })

	_, err := f.inventory.AssignToUser(ctx, req)
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrPersistenceFailed)
	assert.NotErrorIs(t, err, service.ErrInconsistentTransfer)

	source, err := f.stock.GetStock(ctx, *req.ProductID, central.ID)
	require.NoError(t, err)
	assert.Equal(t, "10", source.Quantity.String())

	custody, err := f.warehouses.EnsureCustodyWarehouse(ctx, req.UserID)
	require.NoError(t, err)
	held, err := f.stock.GetStock(ctx, *req.ProductID, custody.ID)
	require.NoError(t, err)
	assert.True(t, held.Quantity.IsZero())
	assert.True(t, held.AssignedBreakdown[req.UserID][domain.ConditionNew].IsZero())

	items, total, err := f.inventory.ListForUser(ctx, req.UserID, 1, 20, nil, repository.DefaultSortConfig())
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)

	transfer := domain.MovementTypeTransfer
	legs, _, err := f.stock.ListMovements(ctx, 1, 20, &repository.MovementFilters{
		ProductID:    req.ProductID,
		MovementType: &transfer,
	}, repository.DefaultSortConfig())
	require.NoError(t, err)
	require.Len(t, legs, 4)
	net := testutil.Dec("0")
	for _, leg := range legs {
		require.NotNil(t, leg.TransferGroupID)
		assert.Equal(t, *legs[0].TransferGroupID, *leg.TransferGroupID, "reversal legs stay in the transfer group")
		if leg.Direction == domain.DirectionOut {
			net = net.Sub(leg.Quantity)
		} else {
			net = net.Add(leg.Quantity)
		}
	}
	assert.True(t, net.IsZero())

	flagged, err := f.stock.ReconcileTransfers(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, flagged)

	anomalies, _, err := f.stock.ListAnomalies(ctx, 1, 20, nil)
	require.NoError(t, err)
	assert.Empty(t, anomalies)
	assert.NotContains(t, f.publisher.Types(), events.TypeInventoryAssigned)
}

func TestInventoryService_AssignRecordsAnomalyWhenRevertFails(t *testing.T) {
	f := newFixture(t)
	ctx, _ := testutil.UserContext(auth.RoleWarehouseKeeper)
	req, central := stockAssignment(t, f)
	failCreates(t, f.db, "test:fail_inventory", "user_inventory", func(*gorm.DB) bool { return true })
	failCreates(t, f.db, "test:fail_reversal", "stock_movements", func(tx *gorm.DB) bool {
		m, ok := tx.Statement.Dest.(*domain.StockMovement)
		return ok && strings.HasPrefix(m.Reason, "reversal of transfer")
	})

	_, err := f.inventory.AssignToUser(ctx, req)
	var inconsistent *service.InconsistentTransferError
	require.True(t, errors.As(err, &inconsistent), "got %v", err)
	assert.False(t, inconsistent.Compensated)
	assert.Equal(t, domain.TransferLegDestination, inconsistent.FailedLeg)
	assert.Equal(t, central.ID, inconsistent.FromWarehouseID)
	assert.ErrorIs(t, err, service.ErrPersistenceFailed)

	status := domain.AnomalyStatusOpen
	anomalies, _, err := f.stock.ListAnomalies(ctx, 1, 20, &repository.AnomalyFilters{Status: &status})
	require.NoError(t, err)
	require.Len(t, anomalies, 1)
	assert.Equal(t, inconsistent.AnomalyID, anomalies[0].ID)
	assert.Equal(t, inconsistent.TransferGroupID, anomalies[0].TransferGroupID)
	assert.Equal(t, "4", anomalies[0].Quantity.String())
	assert.Contains(t, f.publisher.Types(), events.TypeTransferInconsistent)
}

func TestInventoryService_AssignNameOnlyItem(t *testing.T) {
	f := newFixture(t)
	ctx, _ := testutil.UserContext(auth.RoleSiteManager)
	workerID := uuid.New()

	item, err := f.inventory.AssignToUser(ctx, &domain.AssignInventoryRequest{
		UserID:   workerID,
		ItemName: "Safety harness",
		Quantity: testutil.Dec("1"),
		Category: string(domain.CategoryProtectiveGear),
	})
	require.NoError(t, err)
	assert.Nil(t, item.ProductID)
	assert.Equal(t, "name:Safety harness", item.Identity)
	assert.False(t, item.Consumable)

	var warehouses int64
	require.NoError(t, f.db.Model(&domain.Warehouse{}).Count(&warehouses).Error)
	assert.Zero(t, warehouses, "no custody warehouse without stock")
}

func TestInventoryService_AssignValidation(t *testing.T) {
	f := newFixture(t)
	ctx, _ := testutil.UserContext(auth.RoleSiteManager)
	central := testutil.CreateWarehouse(t, f.db, "CENTRAL", domain.WarehouseTypeCentral, nil)

	_, err := f.inventory.AssignToUser(ctx, &domain.AssignInventoryRequest{
		UserID: uuid.New(), ItemName: "Gloves", Quantity: testutil.Dec("0"), Category: string(domain.CategoryProtectiveGear),
	})
	assert.ErrorIs(t, err, service.ErrInvalidQuantity)

	_, err = f.inventory.AssignToUser(ctx, &domain.AssignInventoryRequest{
		UserID:          uuid.New(), ItemName: "Gloves", Quantity: testutil.Dec("1"), Category: string(domain.CategoryProtectiveGear),
		FromWarehouseID: &central.ID,
	})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = f.inventory.AssignToUser(ctx, &domain.AssignInventoryRequest{
		UserID:    uuid.New(), ItemName: "Gloves", Quantity: testutil.Dec("1"), Category: string(domain.CategoryProtectiveGear),
		Condition: "shiny",
	})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestInventoryService_ChangeStatus(t *testing.T) {
	f := newFixture(t)
	ctx, user := testutil.UserContext(auth.RoleWarehouseKeeper)
	item := createItem(t, f.db, user.UserID, domain.CategoryTool, "1", "0", domain.InventoryStatusActive)

	_, err := f.inventory.ChangeStatus(ctx, item.ID, domain.InventoryStatusActive)
	assert.ErrorIs(t, err, service.ErrInvalidStatusTransition)

	lost, err := f.inventory.ChangeStatus(ctx, item.ID, domain.InventoryStatusLost)
	require.NoError(t, err)
	assert.Equal(t, domain.InventoryStatusLost, lost.Status)

	_, err = f.inventory.ChangeStatus(ctx, item.ID, domain.InventoryStatusReturned)
	assert.ErrorIs(t, err, service.ErrInvalidStatusTransition)

	_, err = f.inventory.ChangeStatus(ctx, uuid.New(), domain.InventoryStatusLost)
	assert.ErrorIs(t, err, service.ErrNotFound)

	assert.Equal(t, []string{events.TypeInventoryStatus}, f.publisher.Types())
}

func TestInventoryService_ListForUser(t *testing.T) {
	f := newFixture(t)
	ctx, user := testutil.UserContext(auth.RoleWorker)
	createItem(t, f.db, user.UserID, domain.CategoryTool, "1", "0", domain.InventoryStatusActive)
	createItem(t, f.db, user.UserID, domain.CategoryConsumableSupply, "3", "3", domain.InventoryStatusReturned)
	createItem(t, f.db, uuid.New(), domain.CategoryTool, "1", "0", domain.InventoryStatusActive)

	all, total, err := f.inventory.ListForUser(ctx, user.UserID, 1, 20, nil, repository.DefaultSortConfig())
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, all, 2)

	active := domain.InventoryStatusActive
	filtered, total, err := f.inventory.ListForUser(ctx, user.UserID, 1, 20, &repository.InventoryFilters{Status: &active}, repository.DefaultSortConfig())
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, domain.CategoryTool, filtered[0].Category)
}
