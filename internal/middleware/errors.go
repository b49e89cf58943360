package middleware

import "github.com/gin-gonic/gin"

// ExposeErrorsKey marks requests whose 500 responses may carry error details.
const ExposeErrorsKey = "exposeErrors"

// ExposeErrors enables error details in responses, for development only.
func ExposeErrors(enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ExposeErrorsKey, enabled)
		c.Next()
	}
}
