package service

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sitetrack/procurement-api/internal/domain"
	"github.com/sitetrack/procurement-api/internal/repository"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ReportService builds read-only views that merge the stock projection, the ledger and custody inventory
type ReportService struct {
	warehouseRepo *repository.WarehouseRepository
	stockRepo     *repository.StockRepository
	movementRepo  *repository.MovementRepository
	anomalyRepo   *repository.AnomalyRepository
	inventoryRepo *repository.InventoryRepository
	logger        *zap.Logger
}

func NewReportService(
	warehouseRepo *repository.WarehouseRepository,
	stockRepo *repository.StockRepository,
	movementRepo *repository.MovementRepository,
	anomalyRepo *repository.AnomalyRepository,
	inventoryRepo *repository.InventoryRepository,
	logger *zap.Logger,
) *ReportService {
	return &ReportService{
		warehouseRepo: warehouseRepo,
		stockRepo:     stockRepo,
		movementRepo:  movementRepo,
		anomalyRepo:   anomalyRepo,
		inventoryRepo: inventoryRepo,
		logger:        logger,
	}
}

// ProductLocationSummary reports where a product is: per warehouse, per custody holder and consumed.
// A product is balanced when every cell matches its ledger, every custody cell matches the outstanding
// items of its owner, and no transfer anomaly is unresolved.
func (s *ReportService) ProductLocationSummary(ctx context.Context, productID uuid.UUID) (*domain.ProductLocationSummaryDTO, error) {
	var (
		cells      []domain.WarehouseStock
		ledger     map[uuid.UUID]decimal.Decimal
		items      []domain.UserInventoryItem
		unresolved int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cells, err = s.stockRepo.ListByProduct(gctx, productID)
		return err
	})
	g.Go(func() error {
		var err error
		ledger, err = s.movementRepo.NetByWarehouse(gctx, productID)
		return err
	})
	g.Go(func() error {
		var err error
		items, err = s.inventoryRepo.ListByProduct(gctx, productID)
		return err
	})
	g.Go(func() error {
		var err error
		unresolved, err = s.anomalyRepo.CountUnresolvedByProduct(gctx, productID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load product locations: %w", err)
	}

	warehouseIDs := make([]uuid.UUID, 0, len(ledger))
	seen := make(map[uuid.UUID]bool)
	for _, c := range cells {
		if !seen[c.WarehouseID] {
			seen[c.WarehouseID] = true
			warehouseIDs = append(warehouseIDs, c.WarehouseID)
		}
	}
	for id := range ledger {
		if !seen[id] {
			seen[id] = true
			warehouseIDs = append(warehouseIDs, id)
		}
	}
	warehouses, err := s.warehouseRepo.GetByIDs(ctx, warehouseIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load warehouses: %w", err)
	}

	summary := &domain.ProductLocationSummaryDTO{
		ProductID:         productID,
		Locations:         []domain.LocationStockDTO{},
		CustodyHolders:    []domain.CustodyHolderDTO{},
		TotalInWarehouses: decimal.Zero,
		TotalWithUsers:    decimal.Zero,
		TotalConsumed:     decimal.Zero,
		OpenAnomalies:     int(unresolved),
	}
	balanced := unresolved == 0

	cellByWarehouse := make(map[uuid.UUID]domain.WarehouseStock, len(cells))
	for _, c := range cells {
		cellByWarehouse[c.WarehouseID] = c
	}
	custodyQuantity := make(map[uuid.UUID]decimal.Decimal)

	for _, id := range warehouseIDs {
		cell := cellByWarehouse[id]
		warehouse := warehouses[id]
		location := domain.LocationStockDTO{
			WarehouseID:        id,
			WarehouseName:      warehouse.Name,
			WarehouseType:      warehouse.Type,
			Quantity:           cell.Quantity,
			ConditionBreakdown: map[domain.ProductCondition]decimal.Decimal(cell.Conditions()),
			LedgerQuantity:     ledger[id],
		}
		if location.ConditionBreakdown == nil {
			location.ConditionBreakdown = map[domain.ProductCondition]decimal.Decimal{}
		}
		location.Drift = location.Quantity.Sub(location.LedgerQuantity)
		if !location.Drift.IsZero() {
			balanced = false
			s.logger.Warn("stock cell drifted from ledger",
				zap.String("product_id", productID.String()),
				zap.String("warehouse_id", id.String()),
				zap.String("drift", location.Drift.String()),
			)
		}

		if warehouse.Type == domain.WarehouseTypePersonalCustody {
			summary.TotalWithUsers = summary.TotalWithUsers.Add(cell.Quantity)
			if warehouse.OwnerID != nil {
				custodyQuantity[*warehouse.OwnerID] = custodyQuantity[*warehouse.OwnerID].Add(cell.Quantity)
			}
		} else {
			summary.TotalInWarehouses = summary.TotalInWarehouses.Add(cell.Quantity)
		}
		summary.Locations = append(summary.Locations, location)
	}

	holders := make(map[uuid.UUID]*domain.CustodyHolderDTO)
	stocked := make(map[uuid.UUID]decimal.Decimal)
	for i := range items {
		item := &items[i]
		holder, ok := holders[item.UserID]
		if !ok {
			holder = &domain.CustodyHolderDTO{UserID: item.UserID, Outstanding: decimal.Zero, Consumed: decimal.Zero}
			holders[item.UserID] = holder
		}
		holder.ItemCount++
		holder.Consumed = holder.Consumed.Add(item.ConsumedQuantity)
		summary.TotalConsumed = summary.TotalConsumed.Add(item.ConsumedQuantity)
		if item.Status == domain.InventoryStatusActive {
			holder.Outstanding = holder.Outstanding.Add(item.Remaining())
			if item.SourceWarehouseID != nil {
				stocked[item.UserID] = stocked[item.UserID].Add(item.Remaining())
			}
		}
	}
	for userID, expected := range stocked {
		if !custodyQuantity[userID].Equal(expected) {
			balanced = false
		}
	}
	for userID, held := range custodyQuantity {
		if _, ok := stocked[userID]; !ok && !held.IsZero() {
			balanced = false
		}
	}

	for _, h := range holders {
		summary.CustodyHolders = append(summary.CustodyHolders, *h)
	}
	sort.Slice(summary.CustodyHolders, func(i, j int) bool {
		return summary.CustodyHolders[i].UserID.String() < summary.CustodyHolders[j].UserID.String()
	})
	sort.Slice(summary.Locations, func(i, j int) bool {
		return summary.Locations[i].WarehouseName < summary.Locations[j].WarehouseName
	})

	summary.Balanced = balanced
	return summary, nil
}

var stockSheetHeader = []interface{}{
	"Warehouse Code", "Warehouse", "Type", "Product ID", "Quantity",
	"New", "Used", "Defective", "Refurbished", "Unclassified",
	"Min Level", "Max Level", "Below Minimum",
}

// ExportStockXLSX renders the filtered stock cells as a spreadsheet, highlighting cells below their minimum level
func (s *ReportService) ExportStockXLSX(ctx context.Context, filters *repository.StockFilters) ([]byte, error) {
	cells, err := s.stockRepo.ListAll(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list stock: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(cells))
	for _, c := range cells {
		ids = append(ids, c.WarehouseID)
	}
	warehouses, err := s.warehouseRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load warehouses: %w", err)
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("failed to close spreadsheet", zap.Error(err))
		}
	}()

	const sheet = "Stock"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	lowStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#F8CBAD"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create warning style: %w", err)
	}

	if err := f.SetSheetRow(sheet, "A1", &stockSheetHeader); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(stockSheetHeader))
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle); err != nil {
		return nil, fmt.Errorf("failed to style header: %w", err)
	}

	for i := range cells {
		cell := &cells[i]
		warehouse := warehouses[cell.WarehouseID]
		conditions := cell.Conditions()
		row := []interface{}{
			warehouse.Code,
			warehouse.Name,
			string(warehouse.Type),
			cell.ProductID.String(),
			cell.Quantity.InexactFloat64(),
			conditions.Get(domain.ConditionNew).InexactFloat64(),
			conditions.Get(domain.ConditionUsed).InexactFloat64(),
			conditions.Get(domain.ConditionDefective).InexactFloat64(),
			conditions.Get(domain.ConditionRefurbished).InexactFloat64(),
			cell.Unclassified().InexactFloat64(),
			cell.MinStockLevel.InexactFloat64(),
			cell.MaxStockLevel.InexactFloat64(),
			cell.BelowMinimum(),
		}

		first, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, first, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
		if cell.BelowMinimum() {
			last, _ := excelize.CoordinatesToCellName(len(row), i+2)
			if err := f.SetCellStyle(sheet, first, last, lowStyle); err != nil {
				return nil, fmt.Errorf("failed to style row %d: %w", i+2, err)
			}
		}
	}

	if err := f.SetColWidth(sheet, "A", lastCol, 16); err != nil {
		return nil, fmt.Errorf("failed to size columns: %w", err)
	}
	if err := f.SetColWidth(sheet, "D", "D", 38); err != nil {
		return nil, fmt.Errorf("failed to size columns: %w", err)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to render spreadsheet: %w", err)
	}

	s.logger.Info("stock export generated", zap.Int("rows", len(cells)))
	return buf.Bytes(), nil
}
