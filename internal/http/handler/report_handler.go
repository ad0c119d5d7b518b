package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/sitetrack/procurement-api/internal/repository"
	"github.com/sitetrack/procurement-api/internal/service"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportHandler struct {
	reportService *service.ReportService
	errs          *ErrorWriter
	logger        *zap.Logger
}

func NewReportHandler(reportService *service.ReportService, errs *ErrorWriter, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		errs:          errs,
		logger:        logger,
	}
}

// ProductLocations godoc
// @Summary Where a product is: warehouses, custody holders and consumed
// @Description Balanced is false when a stock cell drifts from its ledger, custody stock differs from outstanding items, or a transfer anomaly is unresolved
// @Tags Reports
// @Produce json
// @Param id path string true "Product ID" format(uuid)
// @Success 200 {object} domain.ProductLocationSummaryDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /reports/products/{id}/locations [get]
func (h *ReportHandler) ProductLocations(w http.ResponseWriter, r *http.Request) {
	id, ok := h.errs.pathUUID(w, r, "id")
	if !ok {
		return
	}
	summary, err := h.reportService.ProductLocationSummary(r.Context(), id)
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// ExportStock godoc
// @Summary Export stock cells as a spreadsheet
// @Tags Reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param productId query string false "Filter by product" format(uuid)
// @Param warehouseId query string false "Filter by warehouse" format(uuid)
// @Param belowMinimum query bool false "Only cells below their minimum level"
// @Success 200 {file} file
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /reports/stock/export [get]
func (h *ReportHandler) ExportStock(w http.ResponseWriter, r *http.Request) {
	filters := &repository.StockFilters{
		BelowMinimum: r.URL.Query().Get("belowMinimum") == "true",
	}
	var ok bool
	if filters.ProductID, ok = queryUUID(r, "productId"); !ok {
		h.errs.BadRequest(w, r, "Invalid productId: must be a valid UUID")
		return
	}
	if filters.WarehouseID, ok = queryUUID(r, "warehouseId"); !ok {
		h.errs.BadRequest(w, r, "Invalid warehouseId: must be a valid UUID")
		return
	}

	content, err := h.reportService.ExportStockXLSX(r.Context(), filters)
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}

	filename := fmt.Sprintf("stock-%s.xlsx", time.Now().UTC().Format("20060102-1504"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(content); err != nil {
		h.logger.Warn("failed to write stock export", zap.Error(err))
	}
}
