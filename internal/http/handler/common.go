package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sitetrack/procurement-api/internal/domain"
	"github.com/sitetrack/procurement-api/internal/evidence"
	"github.com/sitetrack/procurement-api/internal/i18n"
	"github.com/sitetrack/procurement-api/internal/keylock"
	"github.com/sitetrack/procurement-api/internal/repository"
	"github.com/sitetrack/procurement-api/internal/service"
	"github.com/sitetrack/procurement-api/internal/storage"
	"go.uber.org/zap"
)

var validate = validator.New()

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// errorMapping binds a service error to its HTTP status and client-facing code
type errorMapping struct {
	target error
	status int
	code   string
}

// Order matters: the first match wins
var errorMappings = []errorMapping{
	{service.ErrNotFound, http.StatusNotFound, domain.CodeNotFound},
	{service.ErrInvalidQuantity, http.StatusBadRequest, domain.CodeInvalidQuantity},
	{service.ErrMissingEvidence, http.StatusBadRequest, domain.CodeMissingEvidence},
	{service.ErrExceedsRemaining, http.StatusConflict, domain.CodeExceedsRemaining},
	{service.ErrNotConsumable, http.StatusUnprocessableEntity, domain.CodeNotConsumable},
	{service.ErrItemNotActive, http.StatusConflict, domain.CodeItemNotActive},
	{service.ErrOrderNotDeliverable, http.StatusConflict, domain.CodeOrderNotDeliverable},
	{service.ErrInvalidStatusTransition, http.StatusConflict, domain.CodeInvalidTransition},
	{service.ErrInvalidMovement, http.StatusBadRequest, domain.CodeInvalidMovement},
	{service.ErrSameWarehouse, http.StatusBadRequest, domain.CodeSameWarehouseTransfer},
	{service.ErrUploadFailed, http.StatusBadGateway, domain.CodeUploadFailed},
	{service.ErrInconsistentTransfer, http.StatusInternalServerError, domain.CodeInconsistentTransfer},
	{service.ErrPersistenceFailed, http.StatusInternalServerError, domain.CodePersistenceFailed},
	{storage.ErrObjectNotFound, http.StatusNotFound, domain.CodeNotFound},
	{keylock.ErrLockTimeout, http.StatusServiceUnavailable, domain.CodeLockTimeout},
	{service.ErrInvalidInput, http.StatusBadRequest, domain.ErrorTypeBadRequest},
	{service.ErrConflict, http.StatusConflict, domain.ErrorTypeConflict},
}

// ErrorWriter renders problem responses with messages localized from Accept-Language
type ErrorWriter struct {
	translator *i18n.Translator
	logger     *zap.Logger
}

func NewErrorWriter(translator *i18n.Translator, logger *zap.Logger) *ErrorWriter {
	return &ErrorWriter{translator: translator, logger: logger}
}

// Error maps a service error. Unknown errors are logged and returned as a generic 500.
func (e *ErrorWriter) Error(w http.ResponseWriter, r *http.Request, err error) {
	status, code := http.StatusInternalServerError, domain.CodeInternal
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			status, code = m.status, m.code
			break
		}
	}

	apiErr := domain.APIError{
		Type:   getErrorType(status),
		Code:   code,
		Title:  http.StatusText(status),
		Status: status,
	}

	var data map[string]interface{}
	var exceeds *service.ExceedsRemainingError
	if errors.As(err, &exceeds) {
		remaining := exceeds.Remaining.String()
		apiErr.Remaining = &remaining
		data = map[string]interface{}{"Remaining": remaining}
	}

	fallback := http.StatusText(status)
	if status < http.StatusInternalServerError {
		fallback = err.Error()
	} else {
		e.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("code", code),
			zap.Error(err),
		)
	}
	apiErr.Detail = e.message(r, code, data, fallback)

	var inconsistent *service.InconsistentTransferError
	if errors.As(err, &inconsistent) {
		apiErr.Errors = map[string]string{
			"transferGroupId": inconsistent.TransferGroupID.String(),
			"failedLeg":       string(inconsistent.FailedLeg),
			"compensated":     strconv.FormatBool(inconsistent.Compensated),
		}
	}

	respondJSON(w, status, apiErr)
}

// BadRequest reports a malformed request that never reached a service
func (e *ErrorWriter) BadRequest(w http.ResponseWriter, r *http.Request, detail string) {
	respondJSON(w, http.StatusBadRequest, domain.APIError{
		Type:   domain.ErrorTypeBadRequest,
		Code:   domain.ErrorTypeBadRequest,
		Title:  e.message(r, domain.ErrorTypeBadRequest, nil, http.StatusText(http.StatusBadRequest)),
		Status: http.StatusBadRequest,
		Detail: detail,
	})
}

// InvalidQuantity reports a quantity that is not a decimal number
func (e *ErrorWriter) InvalidQuantity(w http.ResponseWriter, r *http.Request, field string) {
	respondJSON(w, http.StatusBadRequest, domain.APIError{
		Type:   domain.ErrorTypeBadRequest,
		Code:   domain.CodeInvalidQuantity,
		Title:  e.message(r, domain.ErrorTypeBadRequest, nil, http.StatusText(http.StatusBadRequest)),
		Status: http.StatusBadRequest,
		Detail: fmt.Sprintf("Invalid %s: must be a decimal number", field),
	})
}

// Forbidden reports an authenticated caller acting outside their scope
func (e *ErrorWriter) Forbidden(w http.ResponseWriter, detail string) {
	respondJSON(w, http.StatusForbidden, domain.APIError{
		Type:   domain.ErrorTypeForbidden,
		Code:   domain.ErrorTypeForbidden,
		Title:  http.StatusText(http.StatusForbidden),
		Status: http.StatusForbidden,
		Detail: detail,
	})
}

// Validation sends a validation problem with one message per failing field
func (e *ErrorWriter) Validation(w http.ResponseWriter, r *http.Request, err error) {
	fieldErrors := make(map[string]string)
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fieldErrors[toJSONFieldName(fe.Field())] = formatValidationError(fe)
		}
	}

	respondJSON(w, http.StatusBadRequest, domain.APIError{
		Type:   domain.ErrorTypeValidation,
		Code:   domain.ErrorTypeValidation,
		Title:  "Validation Error",
		Status: http.StatusBadRequest,
		Detail: e.message(r, domain.ErrorTypeValidation, nil, "One or more fields failed validation"),
		Errors: fieldErrors,
	})
}

func (e *ErrorWriter) message(r *http.Request, code string, data map[string]interface{}, fallback string) string {
	if e.translator == nil {
		return fallback
	}
	return e.translator.Message(r.Header.Get("Accept-Language"), code, data, fallback)
}

// formatValidationError creates a human-readable validation error message
func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", toJSONFieldName(fe.Field()))
	case "max":
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	case "len":
		return fmt.Sprintf("Must be exactly %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", fe.Param())
	case "datetime":
		return fmt.Sprintf("Must be a date in the format %s", fe.Param())
	default:
		return domain.GetValidationMessage(fe.Tag())
	}
}

// toJSONFieldName converts a Go struct field name to its JSON equivalent (camelCase)
func toJSONFieldName(field string) string {
	if len(field) == 0 {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

// getErrorType returns the appropriate error type for an HTTP status code
func getErrorType(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return domain.ErrorTypeBadRequest
	case http.StatusUnauthorized:
		return domain.ErrorTypeUnauthorized
	case http.StatusForbidden:
		return domain.ErrorTypeForbidden
	case http.StatusNotFound:
		return domain.ErrorTypeNotFound
	case http.StatusConflict:
		return domain.ErrorTypeConflict
	default:
		return domain.ErrorTypeInternal
	}
}

// quantityFields are the JSON request fields decoded as decimal quantities
var quantityFields = []string{"quantity", "newQuantity", "minStockLevel", "maxStockLevel"}

// decodeAndValidate reads a JSON body into dst and runs struct validation.
// It writes the error response itself and returns false on failure.
func (e *ErrorWriter) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		e.BadRequest(w, r, "Invalid request body")
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		if field, ok := malformedQuantity(body); ok {
			e.InvalidQuantity(w, r, field)
			return false
		}
		e.BadRequest(w, r, "Invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		e.Validation(w, r, err)
		return false
	}
	return true
}

// malformedQuantity returns the first quantity field of a JSON object that is not a decimal
func malformedQuantity(body []byte) (string, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return "", false
	}
	for _, name := range quantityFields {
		raw, ok := fields[name]
		if !ok {
			continue
		}
		var d decimal.Decimal
		if err := d.UnmarshalJSON(raw); err != nil {
			return name, true
		}
	}
	return "", false
}

func (e *ErrorWriter) pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		e.BadRequest(w, r, fmt.Sprintf("Invalid %s: must be a valid UUID", name))
		return uuid.Nil, false
	}
	return id, true
}

// queryUUID parses an optional UUID query parameter; ok is false only for a malformed value
func queryUUID(r *http.Request, name string) (*uuid.UUID, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, false
	}
	return &id, true
}

func parsePagination(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	return repository.NormalizePage(page, pageSize)
}

func parseSort(r *http.Request) repository.SortConfig {
	sort := repository.DefaultSortConfig()
	if sortBy := r.URL.Query().Get("sortBy"); sortBy != "" {
		sort.Field = sortBy
	}
	if sortOrder := r.URL.Query().Get("sortOrder"); sortOrder != "" {
		sort.Order = repository.ParseSortOrder(sortOrder)
	}
	return sort
}

func paginated(data interface{}, total int64, page, pageSize int) domain.PaginatedResponse {
	totalPages := int(total) / pageSize
	if int(total)%pageSize != 0 {
		totalPages++
	}
	return domain.PaginatedResponse{
		Data:       data,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}

// evidenceFiles adapts the multipart parts under field to lazily opened evidence files
func evidenceFiles(form *multipart.Form, field string) []evidence.File {
	if form == nil {
		return nil
	}
	headers := form.File[field]
	files := make([]evidence.File, 0, len(headers))
	for _, fh := range headers {
		fh := fh
		files = append(files, evidence.File{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Open: func() (io.ReadCloser, error) {
				return fh.Open()
			},
		})
	}
	return files
}

// parseMultipart limits the body and parses a multipart form, writing a 413 on failure
func (e *ErrorWriter) parseMultipart(w http.ResponseWriter, r *http.Request, maxUploadMB int64) bool {
	limit := maxUploadMB * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		respondJSON(w, http.StatusRequestEntityTooLarge, domain.APIError{
			Type:   domain.ErrorTypeBadRequest,
			Code:   domain.ErrorTypeBadRequest,
			Title:  http.StatusText(http.StatusRequestEntityTooLarge),
			Status: http.StatusRequestEntityTooLarge,
			Detail: fmt.Sprintf("Invalid multipart body or larger than %dMB", maxUploadMB),
		})
		return false
	}
	return true
}
