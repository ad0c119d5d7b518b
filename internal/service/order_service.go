package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sitetrack/procurement-api/internal/auth"
	"github.com/sitetrack/procurement-api/internal/domain"
	"github.com/sitetrack/procurement-api/internal/events"
	"github.com/sitetrack/procurement-api/internal/keylock"
	"github.com/sitetrack/procurement-api/internal/mapper"
	"github.com/sitetrack/procurement-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OrderStatusChangedPayload is published on manual order status changes
type OrderStatusChangedPayload struct {
	OrderID    uuid.UUID          `json:"order_id"`
	FromStatus domain.OrderStatus `json:"from_status"`
	ToStatus   domain.OrderStatus `json:"to_status"`
	ChangedBy  uuid.UUID          `json:"changed_by"`
}

// OrderService manages orders and their manual lifecycle transitions
type OrderService struct {
	db           *gorm.DB
	orderRepo    *repository.OrderRepository
	deliveryRepo *repository.DeliveryRepository
	locker       keylock.Locker
	publisher    events.Publisher
	logger       *zap.Logger
}

func NewOrderService(
	db *gorm.DB,
	orderRepo *repository.OrderRepository,
	deliveryRepo *repository.DeliveryRepository,
	locker keylock.Locker,
	publisher events.Publisher,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		db:           db,
		orderRepo:    orderRepo,
		deliveryRepo: deliveryRepo,
		locker:       locker,
		publisher:    publisher,
		logger:       logger,
	}
}

func (s *OrderService) Create(ctx context.Context, req *domain.CreateOrderRequest) (*domain.OrderDTO, error) {
	if !req.Quantity.IsPositive() {
		return nil, ErrInvalidQuantity
	}
	if req.Amount.IsNegative() {
		return nil, fmt.Errorf("%w: amount must not be negative", ErrInvalidInput)
	}

	order := &domain.Order{
		PurchaseRequestID: req.PurchaseRequestID,
		MaterialItemID:    req.MaterialItemID,
		MaterialName:      req.MaterialName,
		SupplierID:        req.SupplierID,
		SupplierName:      req.SupplierName,
		Quantity:          req.Quantity,
		Unit:              req.Unit,
		Amount:            req.Amount,
		Currency:          strings.ToUpper(req.Currency),
		Status:            domain.OrderStatusPending,
	}
	if order.Currency == "" {
		order.Currency = "TRY"
	}
	if req.DeliveryDate != "" {
		date, err := time.Parse("2006-01-02", req.DeliveryDate)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid delivery date", ErrInvalidInput)
		}
		order.DeliveryDate = &date
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.logger.Info("order created",
		zap.String("order_id", order.ID.String()),
		zap.String("purchase_request_id", order.PurchaseRequestID.String()),
		zap.String("quantity", order.Quantity.String()),
	)

	state := ComputeDeliveryState(order, nil)
	dto := mapper.ToOrderDTO(order, &state)
	return &dto, nil
}

// GetByID returns the order with its freshly derived delivery state
func (s *OrderService) GetByID(ctx context.Context, id uuid.UUID) (*domain.OrderDTO, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "order")
	}
	deliveries, err := s.deliveryRepo.ListByOrder(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list deliveries: %w", err)
	}

	state := ComputeDeliveryState(order, deliveries)
	dto := mapper.ToOrderDTO(order, &state)
	return &dto, nil
}

func (s *OrderService) List(ctx context.Context, page, pageSize int, filters *repository.OrderFilters, sort repository.SortConfig) ([]domain.OrderDTO, int64, error) {
	orders, total, err := s.orderRepo.List(ctx, page, pageSize, filters, sort)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}

	dtos := make([]domain.OrderDTO, len(orders))
	for i := range orders {
		dtos[i] = mapper.ToOrderDTO(&orders[i], nil)
	}
	return dtos, total, nil
}

// Approve moves a pending order to approved
func (s *OrderService) Approve(ctx context.Context, id uuid.UUID) (*domain.OrderDTO, error) {
	return s.transition(ctx, id, domain.OrderStatusApproved)
}

// Reject ends an order that has not been fully delivered
func (s *OrderService) Reject(ctx context.Context, id uuid.UUID) (*domain.OrderDTO, error) {
	return s.transition(ctx, id, domain.OrderStatusRejected)
}

// Cancel ends an order that has not been fully delivered
func (s *OrderService) Cancel(ctx context.Context, id uuid.UUID) (*domain.OrderDTO, error) {
	return s.transition(ctx, id, domain.OrderStatusCancelled)
}

// Complete closes a delivered order
func (s *OrderService) Complete(ctx context.Context, id uuid.UUID) (*domain.OrderDTO, error) {
	return s.transition(ctx, id, domain.OrderStatusCompleted)
}

// transition shares the per-order lock with SubmitDelivery so a status change cannot interleave with a delivery
func (s *OrderService) transition(ctx context.Context, id uuid.UUID, next domain.OrderStatus) (*domain.OrderDTO, error) {
	unlock, err := s.locker.Lock(ctx, keylock.OrderKey(id))
	if err != nil {
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}
	defer unlock()

	var order *domain.Order
	var previous domain.OrderStatus

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orders := s.orderRepo.WithTx(tx)

		locked, err := orders.GetByIDForUpdate(ctx, id)
		if err != nil {
			return notFound(err, "order")
		}
		if !locked.Status.CanTransitionTo(next) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidStatusTransition, locked.Status, next)
		}

		previous = locked.Status
		if err := orders.UpdateStatus(ctx, id, next, nil); err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		locked.Status = next
		order = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	actorID, _ := auth.Actor(ctx)
	s.logger.Info("order status changed",
		zap.String("order_id", id.String()),
		zap.String("from", string(previous)),
		zap.String("to", string(next)),
		zap.String("user_id", actorID.String()),
	)
	publishEvents(ctx, s.publisher, s.logger, events.New(events.TypeOrderStatusChanged, id.String(), OrderStatusChangedPayload{
		OrderID:    id,
		FromStatus: previous,
		ToStatus:   next,
		ChangedBy:  actorID,
	}))

	return s.GetByID(ctx, order.ID)
}
