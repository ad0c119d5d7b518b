package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sitetrack/procurement-api/internal/domain"
	"github.com/sitetrack/procurement-api/internal/repository"
	"github.com/sitetrack/procurement-api/internal/service"
	"go.uber.org/zap"
)

// StockHandler exposes the stock ledger: cells, movements, transfers, adjustments and anomalies
type StockHandler struct {
	stockService *service.StockService
	maxUploadMB  int64
	errs         *ErrorWriter
	logger       *zap.Logger
}

func NewStockHandler(stockService *service.StockService, maxUploadMB int64, errs *ErrorWriter, logger *zap.Logger) *StockHandler {
	return &StockHandler{
		stockService: stockService,
		maxUploadMB:  maxUploadMB,
		errs:         errs,
		logger:       logger,
	}
}

// List godoc
// @Summary List stock cells
// @Tags Stock
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param productId query string false "Filter by product" format(uuid)
// @Param warehouseId query string false "Filter by warehouse" format(uuid)
// @Param belowMinimum query bool false "Only cells below their minimum level"
// @Param sortBy query string false "Sort field" Enums(updatedAt, quantity, createdAt)
// @Param sortOrder query string false "Sort order" Enums(asc, desc) default(desc)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.WarehouseStockDTO}
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /stock [get]
func (h *StockHandler) List(w http.ResponseWriter, r *http.Request) {
	filters, ok := h.stockFilters(w, r)
	if !ok {
		return
	}
	page, pageSize := parsePagination(r)
	cells, total, err := h.stockService.ListStock(r.Context(), page, pageSize, filters, parseSort(r))
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, paginated(cells, total, page, pageSize))
}

func (h *StockHandler) stockFilters(w http.ResponseWriter, r *http.Request) (*repository.StockFilters, bool) {
	filters := &repository.StockFilters{
		BelowMinimum: r.URL.Query().Get("belowMinimum") == "true",
	}
	var ok bool
	if filters.ProductID, ok = queryUUID(r, "productId"); !ok {
		h.errs.BadRequest(w, r, "Invalid productId: must be a valid UUID")
		return nil, false
	}
	if filters.WarehouseID, ok = queryUUID(r, "warehouseId"); !ok {
		h.errs.BadRequest(w, r, "Invalid warehouseId: must be a valid UUID")
		return nil, false
	}
	return filters, true
}

// GetCell godoc
// @Summary Get the stock of one product in one warehouse
// @Tags Stock
// @Produce json
// @Param productId path string true "Product ID" format(uuid)
// @Param warehouseId path string true "Warehouse ID" format(uuid)
// @Success 200 {object} domain.WarehouseStockDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /stock/{productId}/{warehouseId} [get]
func (h *StockHandler) GetCell(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.errs.pathUUID(w, r, "productId")
	if !ok {
		return
	}
	warehouseID, ok := h.errs.pathUUID(w, r, "warehouseId")
	if !ok {
		return
	}
	cell, err := h.stockService.GetStock(r.Context(), productID, warehouseID)
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cell)
}

// ListMovements godoc
// @Summary List stock movements
// @Tags Stock
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param productId query string false "Filter by product" format(uuid)
// @Param warehouseId query string false "Filter by warehouse" format(uuid)
// @Param transferGroupId query string false "Filter by transfer group" format(uuid)
// @Param movementType query string false "Filter by type" Enums(entry, exit, transfer, adjustment)
// @Param from query string false "Created at or after (RFC 3339)"
// @Param to query string false "Created before (RFC 3339)"
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.StockMovementDTO}
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /stock/movements [get]
func (h *StockHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	filters := &repository.MovementFilters{}
	var ok bool
	for name, dst := range map[string]**uuid.UUID{
		"productId":       &filters.ProductID,
		"warehouseId":     &filters.WarehouseID,
		"transferGroupId": &filters.TransferGroupID,
	} {
		if *dst, ok = queryUUID(r, name); !ok {
			h.errs.BadRequest(w, r, "Invalid "+name+": must be a valid UUID")
			return
		}
	}
	if t := r.URL.Query().Get("movementType"); t != "" {
		mt := domain.MovementType(t)
		if !mt.IsValid() {
			h.errs.BadRequest(w, r, "Invalid movementType")
			return
		}
		filters.MovementType = &mt
	}
	for name, dst := range map[string]**time.Time{"from": &filters.From, "to": &filters.To} {
		raw := r.URL.Query().Get(name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.errs.BadRequest(w, r, "Invalid "+name+": must be RFC 3339")
			return
		}
		*dst = &t
	}

	page, pageSize := parsePagination(r)
	movements, total, err := h.stockService.ListMovements(r.Context(), page, pageSize, filters, parseSort(r))
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, paginated(movements, total, page, pageSize))
}

// RecordMovement godoc
// @Summary Record a stock entry or exit
// @Description Quantity is a positive magnitude; the movement type gives the sign. Invoice images are attached after the movement is committed.
// @Tags Stock
// @Accept multipart/form-data
// @Produce json
// @Param productId formData string true "Product ID"
// @Param warehouseId formData string true "Warehouse ID"
// @Param movementType formData string true "Movement type" Enums(entry, exit)
// @Param quantity formData string true "Quantity"
// @Param condition formData string false "Product condition" Enums(new, used, defective, refurbished)
// @Param assignedTo formData string false "Custody holder user ID"
// @Param supplierName formData string false "Supplier name"
// @Param unitPrice formData string false "Unit price"
// @Param currency formData string false "Currency (ISO 4217)"
// @Param reason formData string false "Reason"
// @Param invoices formData file false "Invoice images"
// @Success 201 {object} domain.MovementResultDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /stock/movements [post]
func (h *StockHandler) RecordMovement(w http.ResponseWriter, r *http.Request) {
	if !h.errs.parseMultipart(w, r, h.maxUploadMB) {
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	productID, err := uuid.Parse(r.FormValue("productId"))
	if err != nil {
		h.errs.BadRequest(w, r, "Invalid productId: must be a valid UUID")
		return
	}
	warehouseID, err := uuid.Parse(r.FormValue("warehouseId"))
	if err != nil {
		h.errs.BadRequest(w, r, "Invalid warehouseId: must be a valid UUID")
		return
	}
	quantity, err := decimal.NewFromString(strings.TrimSpace(r.FormValue("quantity")))
	if err != nil {
		h.errs.InvalidQuantity(w, r, "quantity")
		return
	}

	in := service.MovementInput{
		ProductID:    productID,
		WarehouseID:  warehouseID,
		Type:         domain.MovementType(r.FormValue("movementType")),
		SupplierName: r.FormValue("supplierName"),
		Currency:     r.FormValue("currency"),
		Reason:       r.FormValue("reason"),
		Evidence:     evidenceFiles(r.MultipartForm, "invoices"),
	}
	switch in.Type {
	case domain.MovementTypeEntry:
		in.Delta = quantity
	case domain.MovementTypeExit:
		in.Delta = quantity.Neg()
	default:
		h.errs.BadRequest(w, r, "Invalid movementType: use /stock/transfers or /stock/adjustments for other movements")
		return
	}
	if quantity.IsNegative() {
		h.errs.Error(w, r, service.ErrInvalidQuantity)
		return
	}

	if c := r.FormValue("condition"); c != "" {
		condition := domain.ProductCondition(c)
		in.Condition = &condition
	}
	if a := r.FormValue("assignedTo"); a != "" {
		assignedTo, err := uuid.Parse(a)
		if err != nil {
			h.errs.BadRequest(w, r, "Invalid assignedTo: must be a valid UUID")
			return
		}
		in.AssignedTo = &assignedTo
	}
	if p := r.FormValue("unitPrice"); p != "" {
		price, err := decimal.NewFromString(p)
		if err != nil || price.IsNegative() {
			h.errs.BadRequest(w, r, "Invalid unitPrice: must be a non-negative decimal number")
			return
		}
		in.UnitPrice = &price
	}

	result, err := h.stockService.ApplyMovement(r.Context(), in)
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

// Transfer godoc
// @Summary Transfer stock between warehouses
// @Tags Stock
// @Accept json
// @Produce json
// @Param request body domain.TransferStockRequest true "Transfer"
// @Success 201 {object} domain.TransferResultDTO
// @Failure 400 {object} domain.APIError
// @Failure 500 {object} domain.APIError "Destination leg failed; the transfer was flagged"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /stock/transfers [post]
func (h *StockHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req domain.TransferStockRequest
	if !h.errs.decodeAndValidate(w, r, &req) {
		return
	}

	in := service.TransferInput{
		ProductID:       req.ProductID,
		FromWarehouseID: req.FromWarehouseID,
		ToWarehouseID:   req.ToWarehouseID,
		Quantity:        req.Quantity,
		AssignedFrom:    req.AssignedFrom,
		AssignedTo:      req.AssignedTo,
		Reason:          req.Reason,
	}
	if req.Condition != "" {
		condition := domain.ProductCondition(req.Condition)
		in.Condition = &condition
	}

	result, err := h.stockService.TransferStock(r.Context(), in)
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

// Adjust godoc
// @Summary Set a stock cell to a counted quantity
// @Tags Stock
// @Accept json
// @Produce json
// @Param request body domain.AdjustStockRequest true "Adjustment"
// @Success 201 {object} domain.MovementResultDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /stock/adjustments [post]
func (h *StockHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req domain.AdjustStockRequest
	if !h.errs.decodeAndValidate(w, r, &req) {
		return
	}
	result, err := h.stockService.AdjustStock(r.Context(), &req)
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

// SetLevels godoc
// @Summary Set minimum and maximum stock levels of a cell
// @Tags Stock
// @Accept json
// @Produce json
// @Param request body domain.SetStockLevelsRequest true "Levels"
// @Success 200 {object} domain.WarehouseStockDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /stock/levels [put]
func (h *StockHandler) SetLevels(w http.ResponseWriter, r *http.Request) {
	var req domain.SetStockLevelsRequest
	if !h.errs.decodeAndValidate(w, r, &req) {
		return
	}
	cell, err := h.stockService.SetLevels(r.Context(), req.ProductID, req.WarehouseID, req.MinStockLevel, req.MaxStockLevel)
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cell)
}

// ListAnomalies godoc
// @Summary List transfer anomalies
// @Tags Stock
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param status query string false "Filter by status" Enums(open, compensated, resolved)
// @Param productId query string false "Filter by product" format(uuid)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.TransferAnomalyDTO}
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /stock/anomalies [get]
func (h *StockHandler) ListAnomalies(w http.ResponseWriter, r *http.Request) {
	filters := &repository.AnomalyFilters{}
	if s := r.URL.Query().Get("status"); s != "" {
		status := domain.AnomalyStatus(s)
		filters.Status = &status
	}
	var ok bool
	if filters.ProductID, ok = queryUUID(r, "productId"); !ok {
		h.errs.BadRequest(w, r, "Invalid productId: must be a valid UUID")
		return
	}

	page, pageSize := parsePagination(r)
	anomalies, total, err := h.stockService.ListAnomalies(r.Context(), page, pageSize, filters)
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, paginated(anomalies, total, page, pageSize))
}

// ResolveAnomaly godoc
// @Summary Mark a transfer anomaly as resolved
// @Tags Stock
// @Accept json
// @Produce json
// @Param id path string true "Anomaly ID" format(uuid)
// @Param request body domain.ResolveAnomalyRequest true "Resolution"
// @Success 200 {object} domain.TransferAnomalyDTO
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /stock/anomalies/{id}/resolve [post]
func (h *StockHandler) ResolveAnomaly(w http.ResponseWriter, r *http.Request) {
	id, ok := h.errs.pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req domain.ResolveAnomalyRequest
	if !h.errs.decodeAndValidate(w, r, &req) {
		return
	}
	anomaly, err := h.stockService.ResolveAnomaly(r.Context(), id, req.Note)
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, anomaly)
}
