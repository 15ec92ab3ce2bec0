package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const ownerContextKey = "owner"

// OwnerAuth extracts the owner id from a Bearer JWT (the "sub" claim).
// When no JWT secret is configured (development mode) the X-Owner-ID
// header is accepted instead.
func OwnerAuth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if jwtSecret == "" {
			owner := c.GetHeader("X-Owner-ID")
			if owner == "" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing owner identity"})
				return
			}
			c.Set(ownerContextKey, owner)
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		token, err := jwt.Parse(strings.TrimPrefix(header, "Bearer "), func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(jwtSecret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		subject, err := token.Claims.GetSubject()
		if err != nil || subject == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token has no subject"})
			return
		}

		c.Set(ownerContextKey, subject)
		c.Next()
	}
}

// ownerFrom returns the authenticated owner id.
func ownerFrom(c *gin.Context) string {
	return c.GetString(ownerContextKey)
}
