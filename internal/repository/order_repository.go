package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sitetrack/procurement-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderFilters defines filter options for order listing
type OrderFilters struct {
	PurchaseRequestID *uuid.UUID
	MaterialItemID    *uuid.UUID
	SupplierID        *uuid.UUID
	Status            *domain.OrderStatus
}

var orderSortableFields = map[string]string{
	"createdAt":    "created_at",
	"updatedAt":    "updated_at",
	"deliveryDate": "delivery_date",
	"status":       "status",
	"supplierName": "supplier_name",
	"materialName": "material_name",
}

// OrderRepository handles order data access
type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository instance
func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// WithTx returns a repository bound to an open transaction
func (r *OrderRepository) WithTx(tx *gorm.DB) *OrderRepository {
	return &OrderRepository{db: tx}
}

func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// GetByID retrieves an order by its ID
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	var order domain.Order
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetByIDForUpdate reads the order and holds a row lock until the surrounding transaction ends
func (r *OrderRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	var order domain.Order
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateStatus sets the status (and delivered_at when given) of an order
func (r *OrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, deliveredAt *time.Time) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}
	if deliveredAt != nil {
		updates["delivered_at"] = *deliveredAt
	}
	result := r.db.WithContext(ctx).Model(&domain.Order{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListByPurchaseRequest returns every order placed for a purchase request
func (r *OrderRepository) ListByPurchaseRequest(ctx context.Context, purchaseRequestID uuid.UUID) ([]domain.Order, error) {
	var orders []domain.Order
	err := r.db.WithContext(ctx).
		Where("purchase_request_id = ?", purchaseRequestID).
		Order("created_at ASC").
		Find(&orders).Error
	return orders, err
}

// List returns a paginated list of orders
func (r *OrderRepository) List(ctx context.Context, page, pageSize int, filters *OrderFilters, sort SortConfig) ([]domain.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Order{})

	if filters != nil {
		if filters.PurchaseRequestID != nil {
			query = query.Where("purchase_request_id = ?", *filters.PurchaseRequestID)
		}
		if filters.MaterialItemID != nil {
			query = query.Where("material_item_id = ?", *filters.MaterialItemID)
		}
		if filters.SupplierID != nil {
			query = query.Where("supplier_id = ?", *filters.SupplierID)
		}
		if filters.Status != nil {
			query = query.Where("status = ?", *filters.Status)
		}
	}

	var orders []domain.Order
	total, err := paginate(query, page, pageSize, BuildOrderClause(sort, orderSortableFields, "created_at"), &orders)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}
