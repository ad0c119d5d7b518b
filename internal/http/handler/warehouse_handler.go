package handler

import (
	"net/http"

	"github.com/sitetrack/procurement-api/internal/domain"
	"github.com/sitetrack/procurement-api/internal/repository"
	"github.com/sitetrack/procurement-api/internal/service"
	"go.uber.org/zap"
)

type WarehouseHandler struct {
	warehouseService *service.WarehouseService
	errs             *ErrorWriter
	logger           *zap.Logger
}

func NewWarehouseHandler(warehouseService *service.WarehouseService, errs *ErrorWriter, logger *zap.Logger) *WarehouseHandler {
	return &WarehouseHandler{
		warehouseService: warehouseService,
		errs:             errs,
		logger:           logger,
	}
}

// @Summary List warehouses
// @Tags Warehouses
// @Produce json
// @Param type query string false "Filter by type" Enums(central, temporary, personal_custody)
// @Param activeOnly query bool false "Only active warehouses"
// @Success 200 {array} domain.WarehouseDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /warehouses [get]
func (h *WarehouseHandler) List(w http.ResponseWriter, r *http.Request) {
	filters := &repository.WarehouseFilters{
		ActiveOnly: r.URL.Query().Get("activeOnly") == "true",
	}
	if t := r.URL.Query().Get("type"); t != "" {
		wt := domain.WarehouseType(t)
		if !wt.IsValid() {
			h.errs.BadRequest(w, r, "Invalid type")
			return
		}
		filters.Type = &wt
	}

	warehouses, err := h.warehouseService.List(r.Context(), filters)
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, warehouses)
}

// @Summary Create warehouse
// @Tags Warehouses
// @Accept json
// @Produce json
// @Param request body domain.CreateWarehouseRequest true "Warehouse"
// @Success 201 {object} domain.WarehouseDTO
// @Failure 400 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /warehouses [post]
func (h *WarehouseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateWarehouseRequest
	if !h.errs.decodeAndValidate(w, r, &req) {
		return
	}
	warehouse, err := h.warehouseService.Create(r.Context(), &req)
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, warehouse)
}

// @Summary Get warehouse
// @Tags Warehouses
// @Produce json
// @Param id path string true "Warehouse ID" format(uuid)
// @Success 200 {object} domain.WarehouseDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /warehouses/{id} [get]
func (h *WarehouseHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.errs.pathUUID(w, r, "id")
	if !ok {
		return
	}
	warehouse, err := h.warehouseService.GetByID(r.Context(), id)
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, warehouse)
}
