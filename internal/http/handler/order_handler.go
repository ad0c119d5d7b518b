package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/sitetrack/procurement-api/internal/domain"
	"github.com/sitetrack/procurement-api/internal/repository"
	"github.com/sitetrack/procurement-api/internal/service"
	"go.uber.org/zap"
)

// OrderHandler handles order creation, reads and manual lifecycle transitions
type OrderHandler struct {
	orderService *service.OrderService
	errs         *ErrorWriter
	logger       *zap.Logger
}

func NewOrderHandler(orderService *service.OrderService, errs *ErrorWriter, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		errs:         errs,
		logger:       logger,
	}
}

// List godoc
// @Summary List orders
// @Tags Orders
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param purchaseRequestId query string false "Filter by purchase request" format(uuid)
// @Param materialItemId query string false "Filter by material item" format(uuid)
// @Param supplierId query string false "Filter by supplier" format(uuid)
// @Param status query string false "Filter by status" Enums(pending, approved, partially_delivered, delivered, completed, rejected, cancelled)
// @Param sortBy query string false "Sort field" Enums(createdAt, updatedAt, deliveryDate, status, supplierName, materialName)
// @Param sortOrder query string false "Sort order" Enums(asc, desc) default(desc)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.OrderDTO}
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders [get]
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)

	filters := &repository.OrderFilters{}
	var ok bool
	if filters.PurchaseRequestID, ok = queryUUID(r, "purchaseRequestId"); !ok {
		h.errs.BadRequest(w, r, "Invalid purchaseRequestId: must be a valid UUID")
		return
	}
	if filters.MaterialItemID, ok = queryUUID(r, "materialItemId"); !ok {
		h.errs.BadRequest(w, r, "Invalid materialItemId: must be a valid UUID")
		return
	}
	if filters.SupplierID, ok = queryUUID(r, "supplierId"); !ok {
		h.errs.BadRequest(w, r, "Invalid supplierId: must be a valid UUID")
		return
	}
	if status := r.URL.Query().Get("status"); status != "" {
		s := domain.OrderStatus(status)
		if !s.IsValid() {
			h.errs.BadRequest(w, r, "Invalid status")
			return
		}
		filters.Status = &s
	}

	orders, total, err := h.orderService.List(r.Context(), page, pageSize, filters, parseSort(r))
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, paginated(orders, total, page, pageSize))
}

// Create godoc
// @Summary Create order
// @Tags Orders
// @Accept json
// @Produce json
// @Param request body domain.CreateOrderRequest true "Order"
// @Success 201 {object} domain.OrderDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders [post]
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateOrderRequest
	if !h.errs.decodeAndValidate(w, r, &req) {
		return
	}

	order, err := h.orderService.Create(r.Context(), &req)
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, order)
}

// GetByID godoc
// @Summary Get order with its delivery state
// @Tags Orders
// @Produce json
// @Param id path string true "Order ID" format(uuid)
// @Success 200 {object} domain.OrderDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders/{id} [get]
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.errs.pathUUID(w, r, "id")
	if !ok {
		return
	}
	order, err := h.orderService.GetByID(r.Context(), id)
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// Approve godoc
// @Summary Approve a pending order
// @Tags Orders
// @Produce json
// @Param id path string true "Order ID" format(uuid)
// @Success 200 {object} domain.OrderDTO
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders/{id}/approve [post]
func (h *OrderHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.orderService.Approve)
}

// Reject godoc
// @Summary Reject an order that is not yet fully delivered
// @Tags Orders
// @Produce json
// @Param id path string true "Order ID" format(uuid)
// @Success 200 {object} domain.OrderDTO
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders/{id}/reject [post]
func (h *OrderHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.orderService.Reject)
}

// Cancel godoc
// @Summary Cancel an order that is not yet fully delivered
// @Tags Orders
// @Produce json
// @Param id path string true "Order ID" format(uuid)
// @Success 200 {object} domain.OrderDTO
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.orderService.Cancel)
}

// Complete godoc
// @Summary Close a delivered order
// @Tags Orders
// @Produce json
// @Param id path string true "Order ID" format(uuid)
// @Success 200 {object} domain.OrderDTO
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders/{id}/complete [post]
func (h *OrderHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.orderService.Complete)
}

func (h *OrderHandler) transition(w http.ResponseWriter, r *http.Request, fn func(context.Context, uuid.UUID) (*domain.OrderDTO, error)) {
	id, ok := h.errs.pathUUID(w, r, "id")
	if !ok {
		return
	}
	order, err := fn(r.Context(), id)
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}
