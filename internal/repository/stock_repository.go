package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sitetrack/procurement-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrCellExists is returned when a new cell lost the insert race for its (product, warehouse).
// The cell must be read again under its row lock before retrying.
var ErrCellExists = errors.New("stock cell already exists")

// StockFilters defines filter options for stock cell listing
type StockFilters struct {
	ProductID    *uuid.UUID
	WarehouseID  *uuid.UUID
	BelowMinimum bool
}

var stockSortableFields = map[string]string{
	"updatedAt": "updated_at",
	"quantity":  "quantity",
	"createdAt": "created_at",
}

// StockRepository reads and writes the (product, warehouse) stock projection
type StockRepository struct {
	db *gorm.DB
}

func NewStockRepository(db *gorm.DB) *StockRepository {
	return &StockRepository{db: db}
}

// WithTx returns a repository bound to an open transaction
func (r *StockRepository) WithTx(tx *gorm.DB) *StockRepository {
	return &StockRepository{db: tx}
}

// GetCell returns the stock cell, or nil when no stock was ever recorded for it
func (r *StockRepository) GetCell(ctx context.Context, productID, warehouseID uuid.UUID) (*domain.WarehouseStock, error) {
	return r.getCell(r.db.WithContext(ctx), productID, warehouseID)
}

// GetCellForUpdate is GetCell holding a row lock until the surrounding transaction ends
func (r *StockRepository) GetCellForUpdate(ctx context.Context, productID, warehouseID uuid.UUID) (*domain.WarehouseStock, error) {
	return r.getCell(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), productID, warehouseID)
}

func (r *StockRepository) getCell(query *gorm.DB, productID, warehouseID uuid.UUID) (*domain.WarehouseStock, error) {
	var cell domain.WarehouseStock
	err := query.Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).First(&cell).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &cell, nil
}

var stockCellColumns = []string{
	"quantity",
	"condition_breakdown",
	"assigned_breakdown",
	"min_stock_level",
	"max_stock_level",
	"updated_at",
}

// Upsert writes the cell. A loaded cell is updated by id; a new one is inserted, and ErrCellExists is
// returned if another writer created the row for the same (product, warehouse) first.
func (r *StockRepository) Upsert(ctx context.Context, cell *domain.WarehouseStock) error {
	cell.UpdatedAt = time.Now().UTC()
	if cell.ID != uuid.Nil {
		return r.db.WithContext(ctx).Model(cell).Select(stockCellColumns).Updates(cell).Error
	}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}, {Name: "warehouse_id"}},
		DoNothing: true,
	}).Create(cell)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		cell.ID = uuid.Nil
		return ErrCellExists
	}
	return nil
}

// ListByProduct returns every cell holding a product
func (r *StockRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]domain.WarehouseStock, error) {
	var cells []domain.WarehouseStock
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at ASC").
		Find(&cells).Error
	return cells, err
}

// List returns a paginated list of stock cells
func (r *StockRepository) List(ctx context.Context, page, pageSize int, filters *StockFilters, sort SortConfig) ([]domain.WarehouseStock, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.WarehouseStock{})
	query = applyStockFilters(query, filters)

	var cells []domain.WarehouseStock
	total, err := paginate(query, page, pageSize, BuildOrderClause(sort, stockSortableFields, "updated_at"), &cells)
	if err != nil {
		return nil, 0, err
	}
	return cells, total, nil
}

// ListAll returns every cell matching the filters, for exports
func (r *StockRepository) ListAll(ctx context.Context, filters *StockFilters) ([]domain.WarehouseStock, error) {
	query := applyStockFilters(r.db.WithContext(ctx).Model(&domain.WarehouseStock{}), filters)

	var cells []domain.WarehouseStock
	err := query.Order("warehouse_id ASC, product_id ASC").Find(&cells).Error
	return cells, err
}

func applyStockFilters(query *gorm.DB, filters *StockFilters) *gorm.DB {
	if filters == nil {
		return query
	}
	if filters.ProductID != nil {
		query = query.Where("product_id = ?", *filters.ProductID)
	}
	if filters.WarehouseID != nil {
		query = query.Where("warehouse_id = ?", *filters.WarehouseID)
	}
	if filters.BelowMinimum {
		query = query.Where("min_stock_level > 0 AND quantity < min_stock_level")
	}
	return query
}
