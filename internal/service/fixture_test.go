package service_test

import (
	"testing"
	"time"

	"github.com/sitetrack/procurement-api/internal/evidence"
	"github.com/sitetrack/procurement-api/internal/keylock"
	"github.com/sitetrack/procurement-api/internal/repository"
	"github.com/sitetrack/procurement-api/internal/service"
	"github.com/sitetrack/procurement-api/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db        *gorm.DB
	store     *testutil.MemoryStorage
	publisher *testutil.RecordingPublisher
	locker    *keylock.MemoryLocker

	orders     *service.OrderService
	deliveries *service.DeliveryService
	warehouses *service.WarehouseService
	stock      *service.StockService
	inventory  *service.InventoryService
	reports    *service.ReportService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	store := testutil.NewMemoryStorage()
	publisher := &testutil.RecordingPublisher{}
	locker := keylock.NewMemoryLocker()
	uploader := evidence.NewUploader(store, 5*time.Second, logger)

	orderRepo := repository.NewOrderRepository(db)
	deliveryRepo := repository.NewDeliveryRepository(db)
	warehouseRepo := repository.NewWarehouseRepository(db)
	stockRepo := repository.NewStockRepository(db)
	movementRepo := repository.NewMovementRepository(db)
	anomalyRepo := repository.NewAnomalyRepository(db)
	inventoryRepo := repository.NewInventoryRepository(db)

	warehouses := service.NewWarehouseService(warehouseRepo, locker, logger)
	stock := service.NewStockService(db, warehouseRepo, stockRepo, movementRepo, anomalyRepo, uploader, locker, publisher, logger)

	return &fixture{
		db:         db,
		store:      store,
		publisher:  publisher,
		locker:     locker,
		orders:     service.NewOrderService(db, orderRepo, deliveryRepo, locker, publisher, logger),
		deliveries: service.NewDeliveryService(db, orderRepo, deliveryRepo, uploader, locker, publisher, logger),
		warehouses: warehouses,
		stock:      stock,
		inventory:  service.NewInventoryService(db, inventoryRepo, warehouses, stock, locker, publisher, logger),
		reports:    service.NewReportService(warehouseRepo, stockRepo, movementRepo, anomalyRepo, inventoryRepo, logger),
	}
}
