package middleware

import (
	"net/http"
	"time"

	"farm-registry/internal/platform/logger"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// AccessLog escribe una línea por request con el request id de chi.
// Debe ir después de chimw.RequestID y de AuthContext.
func AccessLog(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			fields := map[string]any{
				"request_id":  chimw.GetReqID(r.Context()),
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      ww.Status(),
				"bytes":       ww.BytesWritten(),
				"duration_ms": time.Since(start).Milliseconds(),
			}
			if uid := UserID(r.Context()); uid != "" {
				fields["user_id"] = uid
			}

			switch {
			case ww.Status() >= 500:
				log.Error("http request", fields)
			default:
				log.Info("http request", fields)
			}
		})
	}
}
