package handler

import (
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sitetrack/procurement-api/internal/storage"
	"go.uber.org/zap"
)

// EvidenceHandler streams stored delivery photos and invoice images
type EvidenceHandler struct {
	store  storage.Storage
	errs   *ErrorWriter
	logger *zap.Logger
}

func NewEvidenceHandler(store storage.Storage, errs *ErrorWriter, logger *zap.Logger) *EvidenceHandler {
	return &EvidenceHandler{
		store:  store,
		errs:   errs,
		logger: logger,
	}
}

// Download godoc
// @Summary Download an evidence file
// @Tags Evidence
// @Produce octet-stream
// @Param path path string true "Storage path, e.g. deliveries/<order id>/<file>"
// @Success 200 {file} file
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /evidence/{path} [get]
func (h *EvidenceHandler) Download(w http.ResponseWriter, r *http.Request) {
	storagePath, ok := cleanStoragePath(chi.URLParam(r, "*"))
	if !ok {
		h.errs.BadRequest(w, r, "Invalid evidence path")
		return
	}

	reader, err := h.store.Open(r.Context(), storagePath)
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	defer reader.Close()

	contentType := mime.TypeByExtension(path.Ext(storagePath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, reader); err != nil {
		h.logger.Warn("evidence stream interrupted", zap.String("path", storagePath), zap.Error(err))
	}
}

// cleanStoragePath rejects empty, absolute and parent-relative paths
func cleanStoragePath(raw string) (string, bool) {
	if raw == "" || strings.HasPrefix(raw, "/") || strings.Contains(raw, "\\") {
		return "", false
	}
	for _, segment := range strings.Split(raw, "/") {
		if segment == "" || segment == "." || segment == ".." {
			return "", false
		}
	}
	return path.Clean(raw), true
}
