package middleware

import (
	"github.com/gin-gonic/gin"
)

// NoStore keeps question sets, answers and results out of shared caches.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Header("Pragma", "no-cache")
		c.Next()
	}
}
