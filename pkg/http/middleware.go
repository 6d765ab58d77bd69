// Package http pkg/http/middleware.go
package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/carverauto/warehouse/pkg/logger"
	"github.com/carverauto/warehouse/pkg/metrics"
	"github.com/carverauto/warehouse/pkg/models"
)

// CommonMiddleware applies CORS headers and answers preflight requests. An
// empty origin list or a "*" entry allows every origin.
func CommonMiddleware(next http.Handler, corsConfig models.CORSConfig, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if origin != "" {
			if allowed := allowedOrigin(corsConfig.AllowedOrigins, origin); allowed != "" {
				w.Header().Set("Access-Control-Allow-Origin", allowed)
				w.Header().Add("Vary", "Origin")

				if corsConfig.AllowCredentials && allowed != "*" {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
			} else {
				log.Debug().Str("origin", origin).Str("path", r.URL.Path).Msg("Rejected CORS origin")
			}
		}

		w.Header().Set("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, If-None-Match")
		w.Header().Set("Access-Control-Expose-Headers", "ETag")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func allowedOrigin(allowed []string, origin string) string {
	if len(allowed) == 0 {
		return "*"
	}

	for _, o := range allowed {
		if o == "*" {
			return "*"
		}

		if o == origin {
			return origin
		}
	}

	return ""
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs every request and reports it to rec when set. The
// route label is the mux path template so cardinality stays bounded.
func LoggingMiddleware(log logger.Logger, rec metrics.RequestRecorder) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r)

			elapsed := time.Since(start)
			route := routeTemplate(r)

			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("route", route).
				Str("remote", r.RemoteAddr).
				Int("status", sw.status).
				Dur("duration", elapsed).
				Msg("HTTP request")

			if rec != nil {
				rec.ObserveRequest(r.Method, route, sw.status, elapsed)
			}
		})
	}
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}

	return "unmatched"
}
