package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sitetrack/procurement-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AnomalyFilters defines filter options for transfer anomaly listing
type AnomalyFilters struct {
	Status    *domain.AnomalyStatus
	ProductID *uuid.UUID
}

// AnomalyRepository stores flagged transfers
type AnomalyRepository struct {
	db *gorm.DB
}

func NewAnomalyRepository(db *gorm.DB) *AnomalyRepository {
	return &AnomalyRepository{db: db}
}

// WithTx returns a repository bound to an open transaction
func (r *AnomalyRepository) WithTx(tx *gorm.DB) *AnomalyRepository {
	return &AnomalyRepository{db: tx}
}

// Create records an anomaly. A second anomaly for the same transfer group is ignored.
func (r *AnomalyRepository) Create(ctx context.Context, anomaly *domain.TransferAnomaly) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "transfer_group_id"}}, DoNothing: true}).
		Create(anomaly).Error
}

func (r *AnomalyRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.TransferAnomaly, error) {
	var anomaly domain.TransferAnomaly
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&anomaly).Error; err != nil {
		return nil, err
	}
	return &anomaly, nil
}

func (r *AnomalyRepository) Update(ctx context.Context, anomaly *domain.TransferAnomaly) error {
	return r.db.WithContext(ctx).Save(anomaly).Error
}

func (r *AnomalyRepository) List(ctx context.Context, page, pageSize int, filters *AnomalyFilters) ([]domain.TransferAnomaly, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.TransferAnomaly{})
	if filters != nil {
		if filters.Status != nil {
			query = query.Where("status = ?", *filters.Status)
		}
		if filters.ProductID != nil {
			query = query.Where("product_id = ?", *filters.ProductID)
		}
	}

	var anomalies []domain.TransferAnomaly
	total, err := paginate(query, page, pageSize, "created_at DESC", &anomalies)
	if err != nil {
		return nil, 0, err
	}
	return anomalies, total, nil
}

// CountUnresolvedByProduct counts open or compensated anomalies for a product
func (r *AnomalyRepository) CountUnresolvedByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.TransferAnomaly{}).
		Where("product_id = ? AND status <> ?", productID, domain.AnomalyStatusResolved).
		Count(&count).Error
	return count, err
}
