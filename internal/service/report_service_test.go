package service_test

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/sitetrack/procurement-api/internal/auth"
	"github.com/sitetrack/procurement-api/internal/domain"
	"github.com/sitetrack/procurement-api/internal/service"
	"github.com/sitetrack/procurement-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type reportScenario struct {
	productID uuid.UUID
	workerID  uuid.UUID
	central   *domain.Warehouse
	site      *domain.Warehouse
}

// seedReportScenario leaves 4 in central, 4 on site, 1 with the worker and 1 consumed
func seedReportScenario(t *testing.T, f *fixture) reportScenario {
	t.Helper()
	ctx, _ := testutil.UserContext(auth.RoleWarehouseKeeper)
	sc := reportScenario{
		productID: uuid.New(),
		workerID:  uuid.New(),
		central:   testutil.CreateWarehouse(t, f.db, "CENTRAL", domain.WarehouseTypeCentral, nil),
		site:      testutil.CreateWarehouse(t, f.db, "SITE-A", domain.WarehouseTypeTemporary, nil),
	}

	_, err := f.stock.ApplyMovement(ctx, service.MovementInput{
		ProductID: sc.productID, WarehouseID: sc.central.ID, Delta: testutil.Dec("10"), Type: domain.MovementTypeEntry,
	})
	require.NoError(t, err)
	_, err = f.stock.TransferStock(ctx, service.TransferInput{
		ProductID: sc.productID, FromWarehouseID: sc.central.ID, ToWarehouseID: sc.site.ID, Quantity: testutil.Dec("4"),
	})
	require.NoError(t, err)

	item, err := f.inventory.AssignToUser(ctx, &domain.AssignInventoryRequest{
		UserID:          sc.workerID,
		ProductID:       &sc.productID,
		ItemName:        "Anchor bolts",
		FromWarehouseID: &sc.central.ID,
		Quantity:        testutil.Dec("2"),
		Category:        string(domain.CategoryConsumableSupply),
	})
	require.NoError(t, err)
	_, err = f.inventory.Consume(ctx, item.ID, testutil.Dec("1"), "")
	require.NoError(t, err)
	return sc
}

func TestReportService_ProductLocationSummaryBalanced(t *testing.T) {
	f := newFixture(t)
	sc := seedReportScenario(t, f)
	ctx, _ := testutil.UserContext(auth.RoleProcurement)

	summary, err := f.reports.ProductLocationSummary(ctx, sc.productID)
	require.NoError(t, err)
	assert.True(t, summary.Balanced)
	assert.Zero(t, summary.OpenAnomalies)
	assert.Equal(t, "8", summary.TotalInWarehouses.String())
	assert.Equal(t, "1", summary.TotalWithUsers.String())
	assert.Equal(t, "1", summary.TotalConsumed.String())

	byWarehouse := make(map[uuid.UUID]domain.LocationStockDTO)
	for _, l := range summary.Locations {
		byWarehouse[l.WarehouseID] = l
		assert.True(t, l.Drift.IsZero(), "cell %s drifted", l.WarehouseName)
	}
	require.Len(t, byWarehouse, 3)
	assert.Equal(t, "4", byWarehouse[sc.central.ID].Quantity.String())
	assert.Equal(t, "4", byWarehouse[sc.site.ID].Quantity.String())

	require.Len(t, summary.CustodyHolders, 1)
	holder := summary.CustodyHolders[0]
	assert.Equal(t, sc.workerID, holder.UserID)
	assert.Equal(t, 1, holder.ItemCount)
	assert.Equal(t, "1", holder.Outstanding.String())
	assert.Equal(t, "1", holder.Consumed.String())
}

func TestReportService_ProductLocationSummaryDetectsDrift(t *testing.T) {
	f := newFixture(t)
	sc := seedReportScenario(t, f)
	ctx, _ := testutil.UserContext(auth.RoleProcurement)

	require.NoError(t, f.db.Model(&domain.WarehouseStock{}).
		Where("product_id = ? AND warehouse_id = ?", sc.productID, sc.central.ID).
		Update("quantity", testutil.Dec("5")).Error)

	summary, err := f.reports.ProductLocationSummary(ctx, sc.productID)
	require.NoError(t, err)
	assert.False(t, summary.Balanced)
	for _, l := range summary.Locations {
		if l.WarehouseID == sc.central.ID {
			assert.Equal(t, "1", l.Drift.String())
			assert.Equal(t, "4", l.LedgerQuantity.String())
		}
	}
}

func TestReportService_ProductLocationSummaryCountsOpenAnomalies(t *testing.T) {
	f := newFixture(t)
	sc := seedReportScenario(t, f)
	ctx, _ := testutil.UserContext(auth.RoleProcurement)

	require.NoError(t, f.db.Create(&domain.TransferAnomaly{
		TransferGroupID: uuid.New(),
		ProductID:       sc.productID,
		FromWarehouseID: sc.central.ID,
		ToWarehouseID:   sc.site.ID,
		Quantity:        testutil.Dec("1"),
		NetDelta:        testutil.Dec("-1"),
		Status:          domain.AnomalyStatusOpen,
	}).Error)

	summary, err := f.reports.ProductLocationSummary(ctx, sc.productID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.OpenAnomalies)
	assert.False(t, summary.Balanced)
}

func TestReportService_UnknownProductIsEmptyAndBalanced(t *testing.T) {
	f := newFixture(t)
	ctx, _ := testutil.UserContext(auth.RoleProcurement)

	summary, err := f.reports.ProductLocationSummary(ctx, uuid.New())
	require.NoError(t, err)
	assert.True(t, summary.Balanced)
	assert.Empty(t, summary.Locations)
	assert.Empty(t, summary.CustodyHolders)
}

func TestReportService_ExportStockXLSX(t *testing.T) {
	f := newFixture(t)
	sc := seedReportScenario(t, f)
	ctx, _ := testutil.UserContext(auth.RoleProcurement)

	_, err := f.stock.SetLevels(ctx, sc.productID, sc.central.ID, testutil.Dec("5"), testutil.Dec("0"))
	require.NoError(t, err)

	data, err := f.reports.ExportStockXLSX(ctx, nil)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	book, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows("Stock")
	require.NoError(t, err)
	require.Len(t, rows, 4, "header plus central, site and custody cells")
	assert.Equal(t, "Warehouse Code", rows[0][0])
	assert.Equal(t, "Below Minimum", rows[0][12])

	codes := make(map[string]string)
	for _, row := range rows[1:] {
		codes[row[0]] = row[4]
		assert.Equal(t, sc.productID.String(), row[3])
	}
	assert.Equal(t, "4", codes["CENTRAL"])
	assert.Equal(t, "4", codes["SITE-A"])
}
