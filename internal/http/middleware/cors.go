package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
	"github.com/sitetrack/procurement-api/internal/config"
	"go.uber.org/zap"
)

// Headers the browser must be able to read: request correlation and export file names
var alwaysExposed = []string{requestIDHeader, "Content-Disposition"}

// CORS returns a CORS middleware configured from the application config
func CORS(cfg *config.CORSConfig, environment string, logger *zap.Logger) func(http.Handler) http.Handler {
	options := cors.Options{
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		ExposedHeaders:   mergeHeaders(cfg.ExposedHeaders, alwaysExposed),
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}

	allowAny := func(r *http.Request, origin string) bool { return origin != "" }
	devLike := environment == "development" || environment == "local" || environment == ""

	switch {
	case containsString(cfg.AllowedOrigins, "*"):
		if !devLike {
			logger.Warn("CORS configured with wildcard origin in non-development environment",
				zap.String("environment", environment))
		}
		options.AllowOriginFunc = allowAny
	case len(cfg.AllowedOrigins) > 0:
		options.AllowedOrigins = cfg.AllowedOrigins
		logger.Info("CORS configured with explicit origins",
			zap.Strings("origins", cfg.AllowedOrigins))
	case devLike:
		options.AllowOriginFunc = allowAny
		logger.Info("CORS configured to allow all origins in development mode")
	default:
		// An empty AllowedOrigins means "*" to go-chi/cors, so deny explicitly
		options.AllowOriginFunc = func(r *http.Request, origin string) bool { return false }
		logger.Warn("CORS configured with no allowed origins - all cross-origin requests will be denied",
			zap.String("environment", environment))
	}

	return cors.Handler(options)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func mergeHeaders(configured, extra []string) []string {
	out := append([]string{}, configured...)
	for _, h := range extra {
		if !containsString(out, h) {
			out = append(out, h)
		}
	}
	return out
}
