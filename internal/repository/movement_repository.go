package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sitetrack/procurement-api/internal/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MovementFilters defines filter options for the movement ledger
type MovementFilters struct {
	ProductID       *uuid.UUID
	WarehouseID     *uuid.UUID
	MovementType    *domain.MovementType
	TransferGroupID *uuid.UUID
	From            *time.Time
	To              *time.Time
}

var movementSortableFields = map[string]string{
	"createdAt": "created_at",
	"quantity":  "quantity",
}

// TransferGroup is the set of ledger legs sharing a transfer group id
type TransferGroup struct {
	ID   uuid.UUID
	Legs []domain.StockMovement
}

// NetDelta sums the signed quantities of all legs
func (g TransferGroup) NetDelta() decimal.Decimal {
	net := decimal.Zero
	for _, leg := range g.Legs {
		net = net.Add(leg.SignedQuantity())
	}
	return net
}

// MovementRepository stores the append-only stock movement ledger
type MovementRepository struct {
	db *gorm.DB
}

func NewMovementRepository(db *gorm.DB) *MovementRepository {
	return &MovementRepository{db: db}
}

// WithTx returns a repository bound to an open transaction
func (r *MovementRepository) WithTx(tx *gorm.DB) *MovementRepository {
	return &MovementRepository{db: tx}
}

func (r *MovementRepository) Create(ctx context.Context, movement *domain.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

// AttachInvoiceImages sets the evidence URLs of a movement. This is the only column written after insert.
func (r *MovementRepository) AttachInvoiceImages(ctx context.Context, id uuid.UUID, urls []string) error {
	return r.db.WithContext(ctx).
		Model(&domain.StockMovement{}).
		Where("id = ?", id).
		Update("invoice_image_urls", datatypes.JSONSlice[string](urls)).Error
}

func (r *MovementRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.StockMovement, error) {
	var movement domain.StockMovement
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&movement).Error; err != nil {
		return nil, err
	}
	return &movement, nil
}

// List returns a paginated slice of the ledger
func (r *MovementRepository) List(ctx context.Context, page, pageSize int, filters *MovementFilters, sort SortConfig) ([]domain.StockMovement, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.StockMovement{})

	if filters != nil {
		if filters.ProductID != nil {
			query = query.Where("product_id = ?", *filters.ProductID)
		}
		if filters.WarehouseID != nil {
			query = query.Where("warehouse_id = ?", *filters.WarehouseID)
		}
		if filters.MovementType != nil {
			query = query.Where("movement_type = ?", *filters.MovementType)
		}
		if filters.TransferGroupID != nil {
			query = query.Where("transfer_group_id = ?", *filters.TransferGroupID)
		}
		if filters.From != nil {
			query = query.Where("created_at >= ?", *filters.From)
		}
		if filters.To != nil {
			query = query.Where("created_at < ?", *filters.To)
		}
	}

	var movements []domain.StockMovement
	total, err := paginate(query, page, pageSize, BuildOrderClause(sort, movementSortableFields, "created_at"), &movements)
	if err != nil {
		return nil, 0, err
	}
	return movements, total, nil
}

// ListUnflaggedTransferGroups returns transfer groups created before cutoff that have no anomaly row yet
func (r *MovementRepository) ListUnflaggedTransferGroups(ctx context.Context, cutoff time.Time) ([]TransferGroup, error) {
	var legs []domain.StockMovement
	err := r.db.WithContext(ctx).
		Where("movement_type = ? AND transfer_group_id IS NOT NULL", domain.MovementTypeTransfer).
		Where("created_at < ?", cutoff).
		Where("transfer_group_id NOT IN (?)", r.db.Model(&domain.TransferAnomaly{}).Select("transfer_group_id")).
		Order("transfer_group_id ASC, created_at ASC").
		Find(&legs).Error
	if err != nil {
		return nil, err
	}

	var groups []TransferGroup
	index := make(map[uuid.UUID]int)
	for _, leg := range legs {
		id := *leg.TransferGroupID
		i, ok := index[id]
		if !ok {
			i = len(groups)
			index[id] = i
			groups = append(groups, TransferGroup{ID: id})
		}
		groups[i].Legs = append(groups[i].Legs, leg)
	}
	return groups, nil
}

// NetByWarehouse sums signed movement quantities per warehouse for a product
func (r *MovementRepository) NetByWarehouse(ctx context.Context, productID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	var movements []domain.StockMovement
	err := r.db.WithContext(ctx).
		Select("warehouse_id", "direction", "quantity").
		Where("product_id = ?", productID).
		Find(&movements).Error
	if err != nil {
		return nil, err
	}

	net := make(map[uuid.UUID]decimal.Decimal)
	for _, m := range movements {
		net[m.WarehouseID] = net[m.WarehouseID].Add(m.SignedQuantity())
	}
	return net, nil
}
