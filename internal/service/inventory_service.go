package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sitetrack/procurement-api/internal/auth"
	"github.com/sitetrack/procurement-api/internal/domain"
	"github.com/sitetrack/procurement-api/internal/events"
	"github.com/sitetrack/procurement-api/internal/keylock"
	"github.com/sitetrack/procurement-api/internal/mapper"
	"github.com/sitetrack/procurement-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// InventoryAssignedPayload is published when an item is checked out to a user
type InventoryAssignedPayload struct {
	ItemID          uuid.UUID                `json:"item_id"`
	UserID          uuid.UUID                `json:"user_id"`
	ProductID       *uuid.UUID               `json:"product_id,omitempty"`
	Quantity        decimal.Decimal          `json:"quantity"`
	Category        domain.InventoryCategory `json:"category"`
	TransferGroupID *uuid.UUID               `json:"transfer_group_id,omitempty"`
}

// InventoryConsumedPayload is published after a consumption is committed
type InventoryConsumedPayload struct {
	ItemID    uuid.UUID              `json:"item_id"`
	UserID    uuid.UUID              `json:"user_id"`
	Quantity  decimal.Decimal        `json:"quantity"`
	Remaining decimal.Decimal        `json:"remaining"`
	Status    domain.InventoryStatus `json:"status"`
}

// InventoryStatusPayload is published on manual status changes
type InventoryStatusPayload struct {
	ItemID     uuid.UUID              `json:"item_id"`
	UserID     uuid.UUID              `json:"user_id"`
	FromStatus domain.InventoryStatus `json:"from_status"`
	ToStatus   domain.InventoryStatus `json:"to_status"`
}

// InventoryService manages items checked out to users and their consumption
type InventoryService struct {
	db            *gorm.DB
	inventoryRepo *repository.InventoryRepository
	warehouses    *WarehouseService
	stock         *StockService
	locker        keylock.Locker
	publisher     events.Publisher
	logger        *zap.Logger
}

func NewInventoryService(
	db *gorm.DB,
	inventoryRepo *repository.InventoryRepository,
	warehouses *WarehouseService,
	stock *StockService,
	locker keylock.Locker,
	publisher events.Publisher,
	logger *zap.Logger,
) *InventoryService {
	return &InventoryService{
		db:            db,
		inventoryRepo: inventoryRepo,
		warehouses:    warehouses,
		stock:         stock,
		locker:        locker,
		publisher:     publisher,
		logger:        logger,
	}
}

// AssignToUser checks an item out to a user. When a source warehouse is given the quantity is
// transferred into the user's custody warehouse first; name-only items carry no stock.
// If the item row cannot be written the transfer is reverted.
func (s *InventoryService) AssignToUser(ctx context.Context, req *domain.AssignInventoryRequest) (*domain.UserInventoryItemDTO, error) {
	if !req.Quantity.IsPositive() {
		return nil, ErrInvalidQuantity
	}
	category := domain.InventoryCategory(req.Category)
	var condition *domain.ProductCondition
	if req.Condition != "" {
		c := domain.ProductCondition(req.Condition)
		if !c.IsValid() {
			return nil, fmt.Errorf("%w: unknown condition %q", ErrInvalidInput, req.Condition)
		}
		condition = &c
	}
	productID := req.ProductID
	if productID != nil && *productID == uuid.Nil {
		productID = nil
	}
	if req.FromWarehouseID != nil && productID == nil {
		return nil, fmt.Errorf("%w: stock can only be moved for items with a product id", ErrInvalidInput)
	}

	var groupID *uuid.UUID
	var transferIn TransferInput
	if req.FromWarehouseID != nil {
		custody, err := s.warehouses.EnsureCustodyWarehouse(ctx, req.UserID)
		if err != nil {
			return nil, err
		}
		userID := req.UserID
		transferIn = TransferInput{
			ProductID:       *productID,
			FromWarehouseID: *req.FromWarehouseID,
			ToWarehouseID:   custody.ID,
			Quantity:        req.Quantity,
			Condition:       condition,
			AssignedTo:      &userID,
			Reason:          "checked out to user: " + strings.TrimSpace(req.ItemName),
		}
		transfer, err := s.stock.TransferStock(ctx, transferIn)
		if err != nil {
			return nil, err
		}
		groupID = &transfer.TransferGroupID
	}

	item := &domain.UserInventoryItem{
		UserID:            req.UserID,
		ProductID:         productID,
		ItemName:          strings.TrimSpace(req.ItemName),
		Quantity:          req.Quantity,
		ConsumedQuantity:  decimal.Zero,
		Unit:              req.Unit,
		Status:            domain.InventoryStatusActive,
		AssignedDate:      time.Now().UTC(),
		Category:          category,
		SourceWarehouseID: req.FromWarehouseID,
		Condition:         condition,
		Notes:             req.Notes,
	}
	if err := s.inventoryRepo.Create(ctx, item); err != nil {
		fields := []zap.Field{
			zap.String("user_id", req.UserID.String()),
			zap.Error(err),
		}
		if groupID != nil {
			fields = append(fields, zap.String("transfer_group_id", groupID.String()))
		}
		s.logger.Error("failed to create inventory item", fields...)

		persistErr := fmt.Errorf("%w: %w", ErrPersistenceFailed, err)
		if groupID != nil {
			// The custody transfer is already committed
			if revertErr := s.stock.RevertTransfer(ctx, transferIn, *groupID, persistErr); revertErr != nil {
				return nil, revertErr
			}
		}
		return nil, persistErr
	}

	s.logger.Info("inventory assigned",
		zap.String("item_id", item.ID.String()),
		zap.String("user_id", item.UserID.String()),
		zap.String("identity", item.Identity().String()),
		zap.String("quantity", item.Quantity.String()),
	)

	publishEvents(ctx, s.publisher, s.logger, events.New(events.TypeInventoryAssigned, item.UserID.String(), InventoryAssignedPayload{
		ItemID:          item.ID,
		UserID:          item.UserID,
		ProductID:       item.ProductID,
		Quantity:        item.Quantity,
		Category:        item.Category,
		TransferGroupID: groupID,
	}))

	dto := mapper.ToUserInventoryItemDTO(item)
	return &dto, nil
}

// Consume records that a user used up part of a checked-out consumable.
//
// Checks run in order: consumable category, positive quantity, active item, quantity within remaining.
// An item whose consumed quantity reaches its quantity becomes returned; consuming from it again
// reports ExceedsRemaining with a remaining of zero.
func (s *InventoryService) Consume(ctx context.Context, itemID uuid.UUID, quantity decimal.Decimal, note string) (*domain.ConsumeResultDTO, error) {
	unlock, err := s.locker.Lock(ctx, keylock.InventoryKey(itemID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock inventory item: %w", err)
	}
	defer unlock()

	recordedBy, _ := auth.Actor(ctx)
	var item *domain.UserInventoryItem
	consumption := &domain.InventoryConsumption{
		InventoryItemID: itemID,
		Quantity:        quantity,
		Note:            strings.TrimSpace(note),
		RecordedByID:    recordedBy,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items := s.inventoryRepo.WithTx(tx)

		locked, err := items.GetByIDForUpdate(ctx, itemID)
		if err != nil {
			return notFound(err, "inventory item")
		}
		if !locked.Category.IsConsumable() {
			return ErrNotConsumable
		}
		if !quantity.IsPositive() {
			return ErrInvalidQuantity
		}
		if locked.Status != domain.InventoryStatusActive && !usedUp(locked) {
			return ErrItemNotActive
		}
		if err := checkRemaining(quantity, locked.Remaining()); err != nil {
			return err
		}

		consumption.UserID = locked.UserID
		consumption.ConsumedBefore = locked.ConsumedQuantity
		locked.ConsumedQuantity = locked.ConsumedQuantity.Add(quantity)
		consumption.ConsumedAfter = locked.ConsumedQuantity
		if locked.ConsumedQuantity.GreaterThanOrEqual(locked.Quantity) {
			locked.Status = domain.InventoryStatusReturned
		}

		if err := items.UpdateProgress(ctx, locked); err != nil {
			return fmt.Errorf("failed to update inventory item: %w", err)
		}
		if err := items.CreateConsumption(ctx, consumption); err != nil {
			return fmt.Errorf("failed to record consumption: %w", err)
		}
		item = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("inventory consumed",
		zap.String("item_id", itemID.String()),
		zap.String("user_id", item.UserID.String()),
		zap.String("quantity", quantity.String()),
		zap.String("remaining", item.Remaining().String()),
		zap.String("status", string(item.Status)),
	)

	result := &domain.ConsumeResultDTO{
		Consumption: mapper.ToInventoryConsumptionDTO(consumption),
	}
	result.Warnings = append(result.Warnings, s.drawDownCustody(ctx, item, quantity)...)

	published := publishEvents(ctx, s.publisher, s.logger, events.New(events.TypeInventoryConsumed, item.UserID.String(), InventoryConsumedPayload{
		ItemID:    item.ID,
		UserID:    item.UserID,
		Quantity:  quantity,
		Remaining: item.Remaining(),
		Status:    item.Status,
	}))
	if !published {
		result.Warnings = append(result.Warnings, WarningEventPublishFailed)
	}

	result.Item = mapper.ToUserInventoryItemDTO(item)
	return result, nil
}

// drawDownCustody books the consumed quantity out of the user's custody warehouse.
// The consumption itself is already committed, so failures come back as warnings and show up
// as an unbalanced product in the location report.
func (s *InventoryService) drawDownCustody(ctx context.Context, item *domain.UserInventoryItem, quantity decimal.Decimal) []string {
	if item.ProductID == nil || item.SourceWarehouseID == nil {
		return nil
	}
	ctx = context.WithoutCancel(ctx)

	custody, err := s.warehouses.warehouseRepo.GetPersonalCustody(ctx, item.UserID)
	if err != nil || custody == nil {
		s.logger.Warn("custody warehouse missing for consumed item",
			zap.String("item_id", item.ID.String()),
			zap.String("user_id", item.UserID.String()),
			zap.Error(err),
		)
		return []string{WarningCustodyStockNotUpdated}
	}

	userID := item.UserID
	out, err := s.stock.applyMovement(ctx, MovementInput{
		ProductID:   *item.ProductID,
		WarehouseID: custody.ID,
		Delta:       quantity.Neg(),
		Type:        domain.MovementTypeExit,
		Condition:   item.Condition,
		AssignedTo:  &userID,
		Reason:      "consumed from inventory item " + item.ID.String(),
	})
	if err != nil {
		s.logger.Error("failed to book consumption out of custody stock",
			zap.String("item_id", item.ID.String()),
			zap.String("warehouse_id", custody.ID.String()),
			zap.Error(err),
		)
		return []string{WarningCustodyStockNotUpdated}
	}
	publishEvents(ctx, s.publisher, s.logger, s.stock.movementEvent(&out.movement))
	return out.warnings
}

// ChangeStatus moves an active item to returned, lost or damaged
func (s *InventoryService) ChangeStatus(ctx context.Context, itemID uuid.UUID, status domain.InventoryStatus) (*domain.UserInventoryItemDTO, error) {
	unlock, err := s.locker.Lock(ctx, keylock.InventoryKey(itemID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock inventory item: %w", err)
	}
	defer unlock()

	var item *domain.UserInventoryItem
	var previous domain.InventoryStatus
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items := s.inventoryRepo.WithTx(tx)
		locked, err := items.GetByIDForUpdate(ctx, itemID)
		if err != nil {
			return notFound(err, "inventory item")
		}
		if !locked.Status.CanTransitionTo(status) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidStatusTransition, locked.Status, status)
		}
		previous = locked.Status
		locked.Status = status
		if err := items.UpdateProgress(ctx, locked); err != nil {
			return fmt.Errorf("failed to update inventory item: %w", err)
		}
		item = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("inventory status changed",
		zap.String("item_id", itemID.String()),
		zap.String("from", string(previous)),
		zap.String("to", string(status)),
	)
	publishEvents(ctx, s.publisher, s.logger, events.New(events.TypeInventoryStatus, item.UserID.String(), InventoryStatusPayload{
		ItemID:     item.ID,
		UserID:     item.UserID,
		FromStatus: previous,
		ToStatus:   status,
	}))

	dto := mapper.ToUserInventoryItemDTO(item)
	return &dto, nil
}

func (s *InventoryService) GetByID(ctx context.Context, itemID uuid.UUID) (*domain.UserInventoryItemDTO, error) {
	item, err := s.inventoryRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, notFound(err, "inventory item")
	}
	dto := mapper.ToUserInventoryItemDTO(item)
	return &dto, nil
}

func (s *InventoryService) ListForUser(ctx context.Context, userID uuid.UUID, page, pageSize int, filters *repository.InventoryFilters, sort repository.SortConfig) ([]domain.UserInventoryItemDTO, int64, error) {
	items, total, err := s.inventoryRepo.ListForUser(ctx, userID, page, pageSize, filters, sort)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list inventory: %w", err)
	}
	dtos := make([]domain.UserInventoryItemDTO, len(items))
	for i := range items {
		dtos[i] = mapper.ToUserInventoryItemDTO(&items[i])
	}
	return dtos, total, nil
}

func (s *InventoryService) ListConsumptions(ctx context.Context, itemID uuid.UUID) ([]domain.InventoryConsumptionDTO, error) {
	if _, err := s.inventoryRepo.GetByID(ctx, itemID); err != nil {
		return nil, notFound(err, "inventory item")
	}
	consumptions, err := s.inventoryRepo.ListConsumptions(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list consumptions: %w", err)
	}
	dtos := make([]domain.InventoryConsumptionDTO, len(consumptions))
	for i := range consumptions {
		dtos[i] = mapper.ToInventoryConsumptionDTO(&consumptions[i])
	}
	return dtos, nil
}

// usedUp reports whether an item was returned by consuming all of it.
func usedUp(item *domain.UserInventoryItem) bool {
	return item.Status == domain.InventoryStatusReturned && !item.Remaining().IsPositive()
}
