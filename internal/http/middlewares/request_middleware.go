package middlewares

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

func RequestID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := ctx.GetHeader(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}

		ctx.Writer.Header().Set(requestIDHeader, id)
		ctx.Set(CtxRequestID, id)

		ctx.Next()
	}
}

// RequestLogger emits one http_request record per request. Probes are
// logged at debug so they do not drown the registration traffic.
func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := ctx.Writer.Status()

		attrs := []slog.Attr{
			slog.String("method", ctx.Request.Method),
			slog.String("route", route),
			slog.Int("status", status),
			slog.Int64("latency_ms", time.Since(start).Milliseconds()),
			slog.Int("bytes", ctx.Writer.Size()),
			slog.String("request_id", ctx.GetString(CtxRequestID)),
			slog.String("client_ip", ctx.ClientIP()),
		}
		if subject, ok := SubjectFromContext(ctx); ok {
			attrs = append(attrs, slog.String("subject", subject))
		}
		if errs := ctx.Errors.ByType(gin.ErrorTypePrivate); len(errs) > 0 {
			attrs = append(attrs, slog.String("err", errs.String()))
		}

		log.LogAttrs(ctx.Request.Context(), requestLogLevel(route, status), "http_request", attrs...)
	}
}

func requestLogLevel(route string, status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case route == "/healthz" || route == "/readyz" || route == "/metrics":
		return slog.LevelDebug
	case status == 429:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
