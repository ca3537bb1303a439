package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// DefaultMaxBodyBytes caps registration payloads at 1 MiB.
const DefaultMaxBodyBytes int64 = 1 << 20

func MaxBodyBytes(max int64) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.ContentLength > max {
			abortWithError(ctx, http.StatusRequestEntityTooLarge, "payload_too_large", "Request body is too large")
			return
		}
		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, max)

		ctx.Next()
	}
}
