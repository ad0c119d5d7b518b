package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sitetrack/procurement-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InventoryFilters defines filter options for a user's checked-out items
type InventoryFilters struct {
	Status    *domain.InventoryStatus
	Category  *domain.InventoryCategory
	ProductID *uuid.UUID
}

var inventorySortableFields = map[string]string{
	"assignedDate": "assigned_date",
	"createdAt":    "created_at",
	"updatedAt":    "updated_at",
	"itemName":     "item_name",
	"status":       "status",
}

// InventoryRepository handles personal custody inventory and its consumption log
type InventoryRepository struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

// WithTx returns a repository bound to an open transaction
func (r *InventoryRepository) WithTx(tx *gorm.DB) *InventoryRepository {
	return &InventoryRepository{db: tx}
}

func (r *InventoryRepository) Create(ctx context.Context, item *domain.UserInventoryItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *InventoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.UserInventoryItem, error) {
	var item domain.UserInventoryItem
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// GetByIDForUpdate reads the item and holds a row lock until the surrounding transaction ends
func (r *InventoryRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.UserInventoryItem, error) {
	var item domain.UserInventoryItem
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateProgress writes consumed quantity and status
func (r *InventoryRepository) UpdateProgress(ctx context.Context, item *domain.UserInventoryItem) error {
	return r.db.WithContext(ctx).
		Model(item).
		Select("consumed_quantity", "status", "updated_at").
		Updates(item).Error
}

func (r *InventoryRepository) ListForUser(ctx context.Context, userID uuid.UUID, page, pageSize int, filters *InventoryFilters, sort SortConfig) ([]domain.UserInventoryItem, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.UserInventoryItem{}).Where("user_id = ?", userID)
	if filters != nil {
		if filters.Status != nil {
			query = query.Where("status = ?", *filters.Status)
		}
		if filters.Category != nil {
			query = query.Where("category = ?", *filters.Category)
		}
		if filters.ProductID != nil {
			query = query.Where("product_id = ?", *filters.ProductID)
		}
	}

	var items []domain.UserInventoryItem
	total, err := paginate(query, page, pageSize, BuildOrderClause(sort, inventorySortableFields, "assigned_date"), &items)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListByProduct returns every checked-out item of a product across users
func (r *InventoryRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]domain.UserInventoryItem, error) {
	var items []domain.UserInventoryItem
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("user_id ASC, assigned_date ASC").
		Find(&items).Error
	return items, err
}

func (r *InventoryRepository) CreateConsumption(ctx context.Context, consumption *domain.InventoryConsumption) error {
	return r.db.WithContext(ctx).Create(consumption).Error
}

// ListConsumptions returns the consumption log of an item, oldest first
func (r *InventoryRepository) ListConsumptions(ctx context.Context, itemID uuid.UUID) ([]domain.InventoryConsumption, error) {
	var consumptions []domain.InventoryConsumption
	err := r.db.WithContext(ctx).
		Where("inventory_item_id = ?", itemID).
		Order("created_at ASC").
		Find(&consumptions).Error
	return consumptions, err
}
