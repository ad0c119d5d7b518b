package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/sitetrack/procurement-api/internal/auth"
	"github.com/sitetrack/procurement-api/internal/domain"
	"github.com/sitetrack/procurement-api/internal/repository"
	"github.com/sitetrack/procurement-api/internal/service"
	"go.uber.org/zap"
)

type InventoryHandler struct {
	inventoryService *service.InventoryService
	errs             *ErrorWriter
	logger           *zap.Logger
}

func NewInventoryHandler(inventoryService *service.InventoryService, errs *ErrorWriter, logger *zap.Logger) *InventoryHandler {
	return &InventoryHandler{
		inventoryService: inventoryService,
		errs:             errs,
		logger:           logger,
	}
}

// ListForUser godoc
// @Summary List the custody inventory of a user
// @Description Workers may only list their own inventory
// @Tags Inventory
// @Produce json
// @Param userId path string true "User ID" format(uuid)
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param status query string false "Filter by status" Enums(active, returned, lost, damaged)
// @Param category query string false "Filter by category"
// @Param productId query string false "Filter by product" format(uuid)
// @Param sortBy query string false "Sort field" Enums(assignedDate, createdAt, updatedAt, itemName, status)
// @Param sortOrder query string false "Sort order" Enums(asc, desc) default(desc)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.UserInventoryItemDTO}
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /users/{userId}/inventory [get]
func (h *InventoryHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.errs.pathUUID(w, r, "userId")
	if !ok {
		return
	}
	if userCtx, ok := auth.FromContext(r.Context()); ok && userCtx.UserID != userID && !userCtx.IsPrivileged() {
		h.errs.Forbidden(w, "You may only view your own inventory")
		return
	}

	filters := &repository.InventoryFilters{}
	if s := r.URL.Query().Get("status"); s != "" {
		status := domain.InventoryStatus(s)
		filters.Status = &status
	}
	if c := r.URL.Query().Get("category"); c != "" {
		category := domain.InventoryCategory(c)
		filters.Category = &category
	}
	if filters.ProductID, ok = queryUUID(r, "productId"); !ok {
		h.errs.BadRequest(w, r, "Invalid productId: must be a valid UUID")
		return
	}

	page, pageSize := parsePagination(r)
	items, total, err := h.inventoryService.ListForUser(r.Context(), userID, page, pageSize, filters, parseSort(r))
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, paginated(items, total, page, pageSize))
}

// Assign godoc
// @Summary Check an item out to a user
// @Description With fromWarehouseId the quantity is transferred into the user's custody warehouse
// @Tags Inventory
// @Accept json
// @Produce json
// @Param request body domain.AssignInventoryRequest true "Assignment"
// @Success 201 {object} domain.UserInventoryItemDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /inventory/assignments [post]
func (h *InventoryHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var req domain.AssignInventoryRequest
	if !h.errs.decodeAndValidate(w, r, &req) {
		return
	}
	item, err := h.inventoryService.AssignToUser(r.Context(), &req)
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

// GetByID godoc
// @Summary Get an inventory item
// @Tags Inventory
// @Produce json
// @Param id path string true "Inventory item ID" format(uuid)
// @Success 200 {object} domain.UserInventoryItemDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /inventory/{id} [get]
func (h *InventoryHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.errs.pathUUID(w, r, "id")
	if !ok {
		return
	}
	item, ok := h.ownedItem(w, r, id)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// Consume godoc
// @Summary Record consumption of a custody item
// @Tags Inventory
// @Accept json
// @Produce json
// @Param id path string true "Inventory item ID" format(uuid)
// @Param request body domain.ConsumeInventoryRequest true "Consumption"
// @Success 200 {object} domain.ConsumeResultDTO
// @Failure 400 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Exceeds remaining or item not active"
// @Failure 422 {object} domain.APIError "Category is not consumable"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /inventory/{id}/consume [post]
func (h *InventoryHandler) Consume(w http.ResponseWriter, r *http.Request) {
	id, ok := h.errs.pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req domain.ConsumeInventoryRequest
	if !h.errs.decodeAndValidate(w, r, &req) {
		return
	}
	if _, ok := h.ownedItem(w, r, id); !ok {
		return
	}

	result, err := h.inventoryService.Consume(r.Context(), id, req.Quantity, req.Note)
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// ChangeStatus godoc
// @Summary Mark an active item as returned, lost or damaged
// @Tags Inventory
// @Accept json
// @Produce json
// @Param id path string true "Inventory item ID" format(uuid)
// @Param request body domain.ChangeInventoryStatusRequest true "New status"
// @Success 200 {object} domain.UserInventoryItemDTO
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /inventory/{id}/status [post]
func (h *InventoryHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.errs.pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req domain.ChangeInventoryStatusRequest
	if !h.errs.decodeAndValidate(w, r, &req) {
		return
	}
	item, err := h.inventoryService.ChangeStatus(r.Context(), id, domain.InventoryStatus(req.Status))
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// ListConsumptions godoc
// @Summary List the consumption history of an item
// @Tags Inventory
// @Produce json
// @Param id path string true "Inventory item ID" format(uuid)
// @Success 200 {array} domain.InventoryConsumptionDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /inventory/{id}/consumptions [get]
func (h *InventoryHandler) ListConsumptions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.errs.pathUUID(w, r, "id")
	if !ok {
		return
	}
	if _, ok := h.ownedItem(w, r, id); !ok {
		return
	}
	consumptions, err := h.inventoryService.ListConsumptions(r.Context(), id)
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, consumptions)
}

// ownedItem loads the item and rejects callers that neither hold it nor have a privileged role
func (h *InventoryHandler) ownedItem(w http.ResponseWriter, r *http.Request, id uuid.UUID) (*domain.UserInventoryItemDTO, bool) {
	item, err := h.inventoryService.GetByID(r.Context(), id)
	if err != nil {
		h.errs.Error(w, r, err)
		return nil, false
	}
	if userCtx, ok := auth.FromContext(r.Context()); ok && userCtx.UserID != item.UserID && !userCtx.IsPrivileged() {
		h.errs.Forbidden(w, "Item is held by another user")
		return nil, false
	}
	return item, true
}
