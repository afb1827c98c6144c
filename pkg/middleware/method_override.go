package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MethodOverride lets HTML forms issue PUT and DELETE requests: a POST with a
// `_method` query parameter is rewritten before routing. Must be installed on
// the engine before the routes it affects.
func MethodOverride(r *gin.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodPost {
			switch c.Query("_method") {
			case http.MethodPut:
				c.Request.Method = http.MethodPut
			case http.MethodDelete:
				c.Request.Method = http.MethodDelete
			default:
				c.Next()
				return
			}
			r.HandleContext(c)
			c.Abort()
			return
		}
		c.Next()
	}
}
