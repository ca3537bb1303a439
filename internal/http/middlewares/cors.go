package middlewares

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	corsAllowMethods  = "GET,POST,OPTIONS"
	corsAllowHeaders  = "Authorization,Content-Type,If-None-Match,X-Request-Id"
	corsExposeHeaders = "ETag,X-Request-Id,X-Cache,Retry-After"
	corsMaxAge        = 10 * 60
)

// CORSMiddleware allows the listed origins. A "*" entry allows any origin;
// credentials are never allowed since the API is token based.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	anyOrigin := false

	for _, origin := range allowedOrigins {
		if origin == "*" {
			anyOrigin = true
			continue
		}
		allowed[origin] = struct{}{}
	}

	return func(ctx *gin.Context) {
		origin := ctx.GetHeader("Origin")
		ctx.Writer.Header().Add("Vary", "Origin")

		if origin != "" {
			if _, ok := allowed[origin]; ok || anyOrigin {
				h := ctx.Writer.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Methods", corsAllowMethods)
				h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
				h.Set("Access-Control-Expose-Headers", corsExposeHeaders)
				h.Set("Access-Control-Max-Age", strconv.Itoa(corsMaxAge))
			}
		}

		if ctx.Request.Method == http.MethodOptions {
			ctx.AbortWithStatus(http.StatusNoContent)
			return
		}

		ctx.Next()
	}
}
