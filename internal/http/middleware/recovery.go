package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	"github.com/sitetrack/procurement-api/internal/auth"
	"github.com/sitetrack/procurement-api/internal/domain"
	applog "github.com/sitetrack/procurement-api/internal/logger"
	"go.uber.org/zap"
)

// Recovery turns a panic in a handler into a 500 problem response
func Recovery(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				reqLogger := applog.WithRequest(logger, r.Method, r.URL.Path, r.Header.Get(requestIDHeader))
				if userCtx, ok := auth.FromContext(r.Context()); ok {
					reqLogger = applog.WithUser(reqLogger, userCtx.UserID.String(), userCtx.DisplayName)
				}
				reqLogger.Error("panic recovered",
					zap.Any("panic", rec),
					zap.ByteString("stack", debug.Stack()),
				)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(domain.APIError{
					Type:   domain.ErrorTypeInternal,
					Code:   domain.CodeInternal,
					Title:  http.StatusText(http.StatusInternalServerError),
					Status: http.StatusInternalServerError,
				})
			}()
			next.ServeHTTP(w, r)
		})
	}
}
