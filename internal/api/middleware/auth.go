package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// Auth rejects requests whose bearer token does not match the
// configured bcrypt hash. An empty hash disables the check, which is
// the expected mode for local single-operator deployments.
func Auth(tokenHash string) gin.HandlerFunc {
	if tokenHash == "" {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	hash := []byte(tokenHash)

	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" || bcrypt.CompareHashAndPassword(hash, []byte(token)) != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or missing token",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// bearerToken extracts the token from the Authorization header.
// Browsers cannot set headers on websocket dials, so the stream
// endpoint may pass the token as a query parameter instead.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok && after != "" {
		return after
	}
	return c.Query("token")
}
