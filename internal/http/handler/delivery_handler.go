package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sitetrack/procurement-api/internal/service"
	"go.uber.org/zap"
)

// DeliveryHandler records staged deliveries and reports delivery progress
type DeliveryHandler struct {
	deliveryService *service.DeliveryService
	maxUploadMB     int64
	errs            *ErrorWriter
	logger          *zap.Logger
}

func NewDeliveryHandler(deliveryService *service.DeliveryService, maxUploadMB int64, errs *ErrorWriter, logger *zap.Logger) *DeliveryHandler {
	return &DeliveryHandler{
		deliveryService: deliveryService,
		maxUploadMB:     maxUploadMB,
		errs:            errs,
		logger:          logger,
	}
}

// GetState godoc
// @Summary Get delivered and remaining quantity of an order
// @Tags Deliveries
// @Produce json
// @Param id path string true "Order ID" format(uuid)
// @Success 200 {object} domain.DeliveryStateDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders/{id}/delivery-state [get]
func (h *DeliveryHandler) GetState(w http.ResponseWriter, r *http.Request) {
	id, ok := h.errs.pathUUID(w, r, "id")
	if !ok {
		return
	}
	state, err := h.deliveryService.GetRemainingQuantity(r.Context(), id)
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

// List godoc
// @Summary List deliveries of an order
// @Tags Deliveries
// @Produce json
// @Param id path string true "Order ID" format(uuid)
// @Success 200 {array} domain.OrderDeliveryDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders/{id}/deliveries [get]
func (h *DeliveryHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := h.errs.pathUUID(w, r, "id")
	if !ok {
		return
	}
	deliveries, err := h.deliveryService.ListDeliveries(r.Context(), id)
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, deliveries)
}

// Submit godoc
// @Summary Record a staged delivery
// @Description Photos are stored before the delivery row is written. A quantity above the remaining quantity is rejected with the remaining value.
// @Tags Deliveries
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Order ID" format(uuid)
// @Param quantity formData string true "Delivered quantity"
// @Param photos formData file true "Delivery photos (one or more)"
// @Param notes formData string false "Delivery notes"
// @Param qualityCheck formData bool false "Quality check passed"
// @Param damageNotes formData string false "Damage notes, expected when the quality check failed"
// @Param deliveredAt formData string false "Delivery time (RFC 3339)"
// @Success 201 {object} domain.DeliveryResultDTO
// @Failure 400 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Failure 502 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders/{id}/deliveries [post]
func (h *DeliveryHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id, ok := h.errs.pathUUID(w, r, "id")
	if !ok {
		return
	}
	if !h.errs.parseMultipart(w, r, h.maxUploadMB) {
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	quantity, err := decimal.NewFromString(strings.TrimSpace(r.FormValue("quantity")))
	if err != nil {
		h.errs.InvalidQuantity(w, r, "quantity")
		return
	}

	in := service.SubmitDeliveryInput{
		Quantity: quantity,
		Evidence: evidenceFiles(r.MultipartForm, "photos"),
		Notes:    r.FormValue("notes"),
	}
	if qc := r.FormValue("qualityCheck"); qc != "" {
		in.QualityCheck, err = strconv.ParseBool(qc)
		if err != nil {
			h.errs.BadRequest(w, r, "Invalid qualityCheck: must be true or false")
			return
		}
	}
	if notes := r.FormValue("damageNotes"); notes != "" {
		in.DamageNotes = &notes
	}
	if at := r.FormValue("deliveredAt"); at != "" {
		deliveredAt, err := time.Parse(time.RFC3339, at)
		if err != nil {
			h.errs.BadRequest(w, r, "Invalid deliveredAt: must be RFC 3339")
			return
		}
		in.DeliveredAt = &deliveredAt
	}

	result, err := h.deliveryService.SubmitDelivery(r.Context(), id, in)
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

// PurchaseRequestSummary godoc
// @Summary Per-item delivery status of a purchase request
// @Tags Deliveries
// @Produce json
// @Param id path string true "Purchase request ID" format(uuid)
// @Success 200 {object} domain.PurchaseRequestDeliverySummaryDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /purchase-requests/{id}/delivery-summary [get]
func (h *DeliveryHandler) PurchaseRequestSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := h.errs.pathUUID(w, r, "id")
	if !ok {
		return
	}
	summary, err := h.deliveryService.GetPurchaseRequestSummary(r.Context(), id)
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}
