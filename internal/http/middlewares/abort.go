package middlewares

import "github.com/gin-gonic/gin"

// abortWithError stops the chain with the same envelope handlers use.
func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":      code,
			"message":   message,
			"requestId": c.GetString(CtxRequestID),
		},
	})
}
