package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sitetrack/procurement-api/internal/domain"
	"github.com/sitetrack/procurement-api/internal/keylock"
	"github.com/sitetrack/procurement-api/internal/mapper"
	"github.com/sitetrack/procurement-api/internal/repository"
	"go.uber.org/zap"
)

// WarehouseService manages stock locations, including per-user custody warehouses
type WarehouseService struct {
	warehouseRepo *repository.WarehouseRepository
	locker        keylock.Locker
	logger        *zap.Logger
}

func NewWarehouseService(warehouseRepo *repository.WarehouseRepository, locker keylock.Locker, logger *zap.Logger) *WarehouseService {
	return &WarehouseService{
		warehouseRepo: warehouseRepo,
		locker:        locker,
		logger:        logger,
	}
}

func (s *WarehouseService) Create(ctx context.Context, req *domain.CreateWarehouseRequest) (*domain.WarehouseDTO, error) {
	warehouseType := domain.WarehouseType(req.Type)
	if !warehouseType.IsValid() {
		return nil, fmt.Errorf("%w: unknown warehouse type %q", ErrInvalidInput, req.Type)
	}
	if warehouseType == domain.WarehouseTypePersonalCustody && req.OwnerID == nil {
		return nil, fmt.Errorf("%w: personal custody warehouses need an owner", ErrInvalidInput)
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	existing, err := s.warehouseRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to check warehouse code: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: warehouse code %s already exists", ErrConflict, code)
	}

	warehouse := &domain.Warehouse{
		Name:     strings.TrimSpace(req.Name),
		Code:     code,
		Type:     warehouseType,
		Location: req.Location,
		OwnerID:  req.OwnerID,
		IsActive: true,
	}
	if err := s.warehouseRepo.Create(ctx, warehouse); err != nil {
		return nil, fmt.Errorf("failed to create warehouse: %w", err)
	}

	s.logger.Info("warehouse created",
		zap.String("warehouse_id", warehouse.ID.String()),
		zap.String("code", warehouse.Code),
		zap.String("type", string(warehouse.Type)),
	)

	dto := mapper.ToWarehouseDTO(warehouse)
	return &dto, nil
}

func (s *WarehouseService) GetByID(ctx context.Context, id uuid.UUID) (*domain.WarehouseDTO, error) {
	warehouse, err := s.warehouseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "warehouse")
	}
	dto := mapper.ToWarehouseDTO(warehouse)
	return &dto, nil
}

func (s *WarehouseService) List(ctx context.Context, filters *repository.WarehouseFilters) ([]domain.WarehouseDTO, error) {
	warehouses, err := s.warehouseRepo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list warehouses: %w", err)
	}

	dtos := make([]domain.WarehouseDTO, len(warehouses))
	for i := range warehouses {
		dtos[i] = mapper.ToWarehouseDTO(&warehouses[i])
	}
	return dtos, nil
}

// EnsureCustodyWarehouse returns the personal custody warehouse of a user, creating it on first use
func (s *WarehouseService) EnsureCustodyWarehouse(ctx context.Context, userID uuid.UUID) (*domain.Warehouse, error) {
	unlock, err := s.locker.Lock(ctx, "custody:"+userID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to lock custody warehouse: %w", err)
	}
	defer unlock()

	existing, err := s.warehouseRepo.GetPersonalCustody(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get custody warehouse: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	owner := userID
	warehouse := &domain.Warehouse{
		Name:     "Personal custody " + userID.String()[:8],
		Code:     "CUSTODY-" + strings.ToUpper(userID.String()),
		Type:     domain.WarehouseTypePersonalCustody,
		OwnerID:  &owner,
		IsActive: true,
	}
	if err := s.warehouseRepo.Create(ctx, warehouse); err != nil {
		// Another instance may have created it between our read and write
		if again, getErr := s.warehouseRepo.GetPersonalCustody(ctx, userID); getErr == nil && again != nil {
			return again, nil
		}
		return nil, fmt.Errorf("failed to create custody warehouse: %w", err)
	}

	s.logger.Info("custody warehouse created",
		zap.String("warehouse_id", warehouse.ID.String()),
		zap.String("user_id", userID.String()),
	)
	return warehouse, nil
}
