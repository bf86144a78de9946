package handler

import (
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"net/http"
	"time"
)

// RequestLogger пишет одну строку на каждый запрос
func RequestLogger(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			started := time.Now()
			wrapped := middleware.NewWrapResponseWriter(writer, request.ProtoMajor)

			defer func() {
				status := wrapped.Status()
				if status == 0 {
					status = http.StatusOK
				}
				fields := []zap.Field{
					zap.String("method", request.Method),
					zap.String("path", request.URL.Path),
					zap.Int("status", status),
					zap.Int("bytes", wrapped.BytesWritten()),
					zap.Duration("duration", time.Since(started)),
					zap.String("request_id", middleware.GetReqID(request.Context())),
				}
				if status >= http.StatusInternalServerError {
					logger.Warn("http запрос", fields...)
					return
				}
				logger.Info("http запрос", fields...)
			}()

			next.ServeHTTP(wrapped, request)
		})
	}
}
