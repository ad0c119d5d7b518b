package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sitetrack/procurement-api/internal/domain"
	"gorm.io/gorm"
)

// DeliveryRepository stores staged deliveries. Deliveries are append-only:
// there is no update or delete.
type DeliveryRepository struct {
	db *gorm.DB
}

func NewDeliveryRepository(db *gorm.DB) *DeliveryRepository {
	return &DeliveryRepository{db: db}
}

// WithTx returns a repository bound to an open transaction
func (r *DeliveryRepository) WithTx(tx *gorm.DB) *DeliveryRepository {
	return &DeliveryRepository{db: tx}
}

func (r *DeliveryRepository) Create(ctx context.Context, delivery *domain.OrderDelivery) error {
	return r.db.WithContext(ctx).Create(delivery).Error
}

// ListByOrder returns all deliveries of an order in delivery order
func (r *DeliveryRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]domain.OrderDelivery, error) {
	var deliveries []domain.OrderDelivery
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("delivered_at ASC, created_at ASC").
		Find(&deliveries).Error
	return deliveries, err
}

// ListByOrders returns deliveries of several orders grouped by order ID
func (r *DeliveryRepository) ListByOrders(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]domain.OrderDelivery, error) {
	grouped := make(map[uuid.UUID][]domain.OrderDelivery, len(orderIDs))
	if len(orderIDs) == 0 {
		return grouped, nil
	}

	var deliveries []domain.OrderDelivery
	err := r.db.WithContext(ctx).
		Where("order_id IN ?", orderIDs).
		Order("delivered_at ASC, created_at ASC").
		Find(&deliveries).Error
	if err != nil {
		return nil, err
	}
	for _, d := range deliveries {
		grouped[d.OrderID] = append(grouped[d.OrderID], d)
	}
	return grouped, nil
}
