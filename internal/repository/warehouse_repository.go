package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sitetrack/procurement-api/internal/domain"
	"gorm.io/gorm"
)

// WarehouseFilters defines filter options for warehouse listing
type WarehouseFilters struct {
	Type       *domain.WarehouseType
	ActiveOnly bool
}

// WarehouseRepository handles warehouse data access
type WarehouseRepository struct {
	db *gorm.DB
}

func NewWarehouseRepository(db *gorm.DB) *WarehouseRepository {
	return &WarehouseRepository{db: db}
}

// WithTx returns a repository bound to an open transaction
func (r *WarehouseRepository) WithTx(tx *gorm.DB) *WarehouseRepository {
	return &WarehouseRepository{db: tx}
}

func (r *WarehouseRepository) Create(ctx context.Context, warehouse *domain.Warehouse) error {
	return r.db.WithContext(ctx).Create(warehouse).Error
}

func (r *WarehouseRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Warehouse, error) {
	var warehouse domain.Warehouse
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&warehouse).Error
	if err != nil {
		return nil, err
	}
	return &warehouse, nil
}

// GetByCode finds a warehouse by its unique code, returning nil when absent
func (r *WarehouseRepository) GetByCode(ctx context.Context, code string) (*domain.Warehouse, error) {
	var warehouse domain.Warehouse
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&warehouse).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &warehouse, nil
}

// GetPersonalCustody finds the custody warehouse owned by a user, returning nil when absent
func (r *WarehouseRepository) GetPersonalCustody(ctx context.Context, userID uuid.UUID) (*domain.Warehouse, error) {
	var warehouse domain.Warehouse
	err := r.db.WithContext(ctx).
		Where("type = ? AND owner_id = ?", domain.WarehouseTypePersonalCustody, userID).
		First(&warehouse).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &warehouse, nil
}

// GetByIDs loads warehouses keyed by ID
func (r *WarehouseRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Warehouse, error) {
	out := make(map[uuid.UUID]domain.Warehouse, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var warehouses []domain.Warehouse
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&warehouses).Error; err != nil {
		return nil, err
	}
	for _, w := range warehouses {
		out[w.ID] = w
	}
	return out, nil
}

func (r *WarehouseRepository) List(ctx context.Context, filters *WarehouseFilters) ([]domain.Warehouse, error) {
	query := r.db.WithContext(ctx).Model(&domain.Warehouse{})
	if filters != nil {
		if filters.Type != nil {
			query = query.Where("type = ?", *filters.Type)
		}
		if filters.ActiveOnly {
			query = query.Where("is_active = ?", true)
		}
	}

	var warehouses []domain.Warehouse
	err := query.Order("name ASC").Find(&warehouses).Error
	return warehouses, err
}
