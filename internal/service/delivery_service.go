package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sitetrack/procurement-api/internal/auth"
	"github.com/sitetrack/procurement-api/internal/domain"
	"github.com/sitetrack/procurement-api/internal/events"
	"github.com/sitetrack/procurement-api/internal/evidence"
	"github.com/sitetrack/procurement-api/internal/keylock"
	"github.com/sitetrack/procurement-api/internal/mapper"
	"github.com/sitetrack/procurement-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SubmitDeliveryInput is one staged delivery as captured on site
type SubmitDeliveryInput struct {
	Quantity     decimal.Decimal
	Evidence     []evidence.File
	Notes        string
	QualityCheck bool
	DamageNotes  *string
	DeliveredAt  *time.Time
}

// DeliveryRecordedPayload is published after a delivery is committed
type DeliveryRecordedPayload struct {
	OrderID           uuid.UUID          `json:"order_id"`
	DeliveryID        uuid.UUID          `json:"delivery_id"`
	PurchaseRequestID uuid.UUID          `json:"purchase_request_id"`
	MaterialItemID    uuid.UUID          `json:"material_item_id"`
	Quantity          decimal.Decimal    `json:"quantity"`
	Remaining         decimal.Decimal    `json:"remaining"`
	OrderStatus       domain.OrderStatus `json:"order_status"`
}

// DeliveryService records staged deliveries and derives delivery progress
type DeliveryService struct {
	db           *gorm.DB
	orderRepo    *repository.OrderRepository
	deliveryRepo *repository.DeliveryRepository
	uploader     *evidence.Uploader
	locker       keylock.Locker
	publisher    events.Publisher
	logger       *zap.Logger
}

func NewDeliveryService(
	db *gorm.DB,
	orderRepo *repository.OrderRepository,
	deliveryRepo *repository.DeliveryRepository,
	uploader *evidence.Uploader,
	locker keylock.Locker,
	publisher events.Publisher,
	logger *zap.Logger,
) *DeliveryService {
	return &DeliveryService{
		db:           db,
		orderRepo:    orderRepo,
		deliveryRepo: deliveryRepo,
		uploader:     uploader,
		locker:       locker,
		publisher:    publisher,
		logger:       logger,
	}
}

// GetRemainingQuantity reads the order and all of its deliveries fresh and derives the delivery state
func (s *DeliveryService) GetRemainingQuantity(ctx context.Context, orderID uuid.UUID) (*domain.DeliveryStateDTO, error) {
	_, state, err := s.loadState(ctx, orderID)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToDeliveryStateDTO(orderID, state)
	return &dto, nil
}

func (s *DeliveryService) loadState(ctx context.Context, orderID uuid.UUID) (*domain.Order, domain.DeliveryState, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, domain.DeliveryState{}, notFound(err, "order")
	}
	deliveries, err := s.deliveryRepo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, domain.DeliveryState{}, fmt.Errorf("failed to list deliveries: %w", err)
	}
	return order, ComputeDeliveryState(order, deliveries), nil
}

// ListDeliveries returns the deliveries of an order, oldest first
func (s *DeliveryService) ListDeliveries(ctx context.Context, orderID uuid.UUID) ([]domain.OrderDeliveryDTO, error) {
	if _, err := s.orderRepo.GetByID(ctx, orderID); err != nil {
		return nil, notFound(err, "order")
	}
	deliveries, err := s.deliveryRepo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list deliveries: %w", err)
	}

	dtos := make([]domain.OrderDeliveryDTO, len(deliveries))
	for i := range deliveries {
		dtos[i] = mapper.ToOrderDeliveryDTO(&deliveries[i])
	}
	return dtos, nil
}

// SubmitDelivery validates and records one staged delivery.
//
// Checks run in order and the first failure wins: positive quantity, at least one evidence file,
// quantity within the remaining quantity. Evidence is uploaded before the row is written, and the
// remaining check is repeated under a row lock in the same transaction as the insert.
func (s *DeliveryService) SubmitDelivery(ctx context.Context, orderID uuid.UUID, in SubmitDeliveryInput) (*domain.DeliveryResultDTO, error) {
	if !in.Quantity.IsPositive() {
		return nil, ErrInvalidQuantity
	}
	if len(in.Evidence) == 0 {
		return nil, ErrMissingEvidence
	}

	unlock, err := s.locker.Lock(ctx, keylock.OrderKey(orderID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}
	defer unlock()

	order, state, err := s.loadState(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.AcceptsDeliveries() {
		return nil, ErrOrderNotDeliverable
	}
	if err := checkRemaining(in.Quantity, state.Remaining); err != nil {
		return nil, err
	}

	stored, err := s.uploader.UploadAll(ctx, "deliveries/"+orderID.String(), in.Evidence)
	if err != nil {
		s.logger.Warn("delivery evidence upload failed",
			zap.String("order_id", orderID.String()),
			zap.Int("files", len(in.Evidence)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}

	receivedByID, receivedByName := auth.Actor(ctx)
	deliveredAt := time.Now().UTC()
	if in.DeliveredAt != nil {
		deliveredAt = in.DeliveredAt.UTC()
	}

	var damageNotes *string
	if in.DamageNotes != nil && strings.TrimSpace(*in.DamageNotes) != "" {
		notes := strings.TrimSpace(*in.DamageNotes)
		damageNotes = &notes
	}

	delivery := &domain.OrderDelivery{
		OrderID:           orderID,
		DeliveredQuantity: in.Quantity,
		DeliveredAt:       deliveredAt,
		ReceivedByID:      receivedByID,
		ReceivedByName:    receivedByName,
		DeliveryNotes:     in.Notes,
		DeliveryPhotoURLs: datatypes.JSONSlice[string](evidence.URLs(stored)),
		QualityCheck:      in.QualityCheck,
		DamageNotes:       damageNotes,
	}

	var newState domain.DeliveryState
	var newStatus domain.OrderStatus

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orders := s.orderRepo.WithTx(tx)
		deliveries := s.deliveryRepo.WithTx(tx)

		locked, err := orders.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return fmt.Errorf("failed to lock order row: %w", err)
		}
		if !locked.Status.AcceptsDeliveries() {
			return ErrOrderNotDeliverable
		}

		existing, err := deliveries.ListByOrder(ctx, orderID)
		if err != nil {
			return fmt.Errorf("failed to list deliveries: %w", err)
		}
		current := ComputeDeliveryState(locked, existing)
		if err := checkRemaining(in.Quantity, current.Remaining); err != nil {
			return err
		}

		if err := deliveries.Create(ctx, delivery); err != nil {
			return fmt.Errorf("failed to create delivery: %w", err)
		}

		newState = ComputeDeliveryState(locked, append(existing, *delivery))
		newStatus = newState.StatusAfterDelivery()
		if !locked.Status.CanTransitionTo(newStatus) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidStatusTransition, locked.Status, newStatus)
		}

		var completedAt *time.Time
		if newState.IsComplete {
			completedAt = &deliveredAt
		}
		if err := orders.UpdateStatus(ctx, orderID, newStatus, completedAt); err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		return nil
	})
	if err != nil {
		s.uploader.Discard(context.WithoutCancel(ctx), evidence.Paths(stored))
		if errors.Is(err, ErrExceedsRemaining) || errors.Is(err, ErrOrderNotDeliverable) {
			return nil, err
		}
		s.logger.Error("failed to persist delivery",
			zap.String("order_id", orderID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", ErrPersistenceFailed, err)
	}

	s.logger.Info("delivery recorded",
		zap.String("order_id", orderID.String()),
		zap.String("delivery_id", delivery.ID.String()),
		zap.String("quantity", in.Quantity.String()),
		zap.String("remaining", newState.Remaining.String()),
		zap.String("status", string(newStatus)),
	)

	result := &domain.DeliveryResultDTO{
		Delivery:    mapper.ToOrderDeliveryDTO(delivery),
		State:       mapper.ToDeliveryStateDTO(orderID, newState),
		OrderStatus: newStatus,
	}
	if !in.QualityCheck && damageNotes == nil {
		result.Warnings = append(result.Warnings, WarningDamageNotesMissing)
	}

	published := publishEvents(ctx, s.publisher, s.logger, events.New(events.TypeDeliveryRecorded, orderID.String(), DeliveryRecordedPayload{
		OrderID:           orderID,
		DeliveryID:        delivery.ID,
		PurchaseRequestID: order.PurchaseRequestID,
		MaterialItemID:    order.MaterialItemID,
		Quantity:          in.Quantity,
		Remaining:         newState.Remaining,
		OrderStatus:       newStatus,
	}))
	if !published {
		result.Warnings = append(result.Warnings, WarningEventPublishFailed)
	}

	return result, nil
}

// GetPurchaseRequestSummary merges every order of a purchase request and their deliveries into per-item status
func (s *DeliveryService) GetPurchaseRequestSummary(ctx context.Context, purchaseRequestID uuid.UUID) (*domain.PurchaseRequestDeliverySummaryDTO, error) {
	orders, err := s.orderRepo.ListByPurchaseRequest(ctx, purchaseRequestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	if len(orders) == 0 {
		return nil, fmt.Errorf("purchase request orders: %w", ErrNotFound)
	}

	ids := make([]uuid.UUID, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	deliveries, err := s.deliveryRepo.ListByOrders(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list deliveries: %w", err)
	}

	items, status := AggregateItemStatuses(orders, deliveries)
	return &domain.PurchaseRequestDeliverySummaryDTO{
		PurchaseRequestID: purchaseRequestID,
		Status:            status,
		Items:             items,
	}, nil
}
