package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// CacheControl lets browsers and proxies reuse a response for maxAgeSeconds.
// Bodies may be brotli-encoded, so caches are told to key on Accept-Encoding.
func CacheControl(maxAgeSeconds int) gin.HandlerFunc {
	value := "public, max-age=" + strconv.Itoa(maxAgeSeconds)
	return func(c *gin.Context) {
		c.Header("Cache-Control", value)
		addVary(c.Writer.Header(), "Accept-Encoding")
		c.Next()
	}
}

// NoStore keeps session state out of every cache so a resumed client always
// sees the server's copy.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Header("Pragma", "no-cache")
		c.Next()
	}
}
