package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/zhouzirui/interview-sim/backend/internal/logger"
)

// Logger writes one structured access log entry per request.
func Logger(log *zap.Logger) func(http.Handler) http.Handler {
	log = logger.Named(log, "http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				fields := []zap.Field{
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", status),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("elapsed", time.Since(start)),
					zap.String("remote", r.RemoteAddr),
				}
				if id := chimw.GetReqID(r.Context()); id != "" {
					fields = append(fields, zap.String("request_id", id))
				}
				switch {
				case status >= 500:
					log.Error("request", fields...)
				case status >= 400:
					log.Warn("request", fields...)
				default:
					log.Info("request", fields...)
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
